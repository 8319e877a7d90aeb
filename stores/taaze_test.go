package stores

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
)

const taazeListPage = `<html><body><div id="listView">
<div class="media" rel="14100000001"></div>
<div class="media" rel="14100000002"></div>
</div></body></html>`

var taazeInfos = map[string]string{
	"14100000001": `[{"booktitle":"被討厭的勇氣","bookprofile":"第一行\r\n第二行","publisher":"究竟","publishDate":"2014-10-30","saleprice":"237","authors":"岸見一郎、古賀史健","translator":"葉小燕"}]`,
	"14100000002": `[{"booktitle":"幸福的勇氣","bookprofile":"","publisher":"究竟","publishDate":"2017-03-01","saleprice":240,"authors":"岸見一郎"}]`,
}

func taazeInfoResponder(delay map[string]time.Duration) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		id := req.URL.Query().Get("prodId")
		time.Sleep(delay[id])
		body, ok := taazeInfos[id]
		if !ok {
			body = "[]"
		}
		resp := httpmock.NewStringResponse(http.StatusOK, body)
		resp.Header.Set("Content-Type", "application/json")
		return resp, nil
	}
}

func TestTaazeSearchKeepsPageOrder(t *testing.T) {
	f, transport := newTestFetcher()
	transport.RegisterResponder("GET", "https://www.taaze.tw/rwd_searchResult.html", htmlResponder(taazeListPage))
	transport.RegisterResponder("GET", "https://www.taaze.tw/new_ec/rwd/lib/searchbookAgent.jsp",
		taazeInfoResponder(map[string]time.Duration{"14100000001": 30 * time.Millisecond}))

	result := newCrawler(Taaze, &taaze{fetcher: f}, f.Metrics).
		Search(context.Background(), "勇氣", onlineStore(Taaze))
	requireOkay(t, result, 2)

	first, second := result.Books[0], result.Books[1]
	if first.ID != "14100000001" || second.ID != "14100000002" {
		t.Fatalf("order=%s,%s", first.ID, second.ID)
	}
	if first.Title != "被討厭的勇氣" {
		t.Fatalf("title=%q", first.Title)
	}
	if first.About != "第一行\n第二行" {
		t.Fatalf("about=%q", first.About)
	}
	if first.Link != "https://www.taaze.tw/goods/14100000001.html" {
		t.Fatalf("link=%q", first.Link)
	}
	if first.Thumbnail != "http://media.taaze.tw/showLargeImage.html?sc=14100000001" {
		t.Fatalf("thumbnail=%q", first.Thumbnail)
	}
	if first.Price != 237 || second.Price != 240 {
		t.Fatalf("prices=%v,%v", first.Price, second.Price)
	}
	if !equalStrings(first.Authors, []string{"岸見一郎", "古賀史健"}) {
		t.Fatalf("authors=%v", first.Authors)
	}
	if !equalStrings(first.Translators, []string{"葉小燕"}) {
		t.Fatalf("translators=%v", first.Translators)
	}
	if second.Translators != nil {
		t.Fatalf("translators=%v, want nil", second.Translators)
	}
}

func TestTaazeFailsWhenAnyLookupFails(t *testing.T) {
	f, transport := newTestFetcher()
	transport.RegisterResponder("GET", "https://www.taaze.tw/rwd_searchResult.html", htmlResponder(
		`<html><body><div id="listView"><div class="media" rel="14100000001"></div><div class="media" rel="missing"></div></div></body></html>`))
	transport.RegisterResponder("GET", "https://www.taaze.tw/new_ec/rwd/lib/searchbookAgent.jsp", taazeInfoResponder(nil))

	result := newCrawler(Taaze, &taaze{fetcher: f}, f.Metrics).
		Search(context.Background(), "勇氣", onlineStore(Taaze))
	requireFailed(t, result)
}

func TestTaazeNoResultsSkipsLookups(t *testing.T) {
	f, transport := newTestFetcher()
	transport.RegisterResponder("GET", "https://www.taaze.tw/rwd_searchResult.html",
		htmlResponder(`<html><body><div id="listView"></div></body></html>`))

	result := newCrawler(Taaze, &taaze{fetcher: f}, f.Metrics).
		Search(context.Background(), "zzzzqqqq", onlineStore(Taaze))
	requireOkay(t, result, 0)
	if got := transport.GetTotalCallCount(); got != 1 {
		t.Fatalf("calls=%d, want 1", got)
	}
}

func TestTaazeLooksUpEveryBookAtOnce(t *testing.T) {
	const items = 8

	var page strings.Builder
	page.WriteString(`<html><body><div id="listView">`)
	for i := 1; i <= items; i++ {
		fmt.Fprintf(&page, `<div class="media" rel="142000000%02d"></div>`, i)
	}
	page.WriteString(`</div></body></html>`)

	var (
		mu       sync.Mutex
		inFlight int
		peak     int
		arrived  = make(chan struct{})
	)
	lookup := func(req *http.Request) (*http.Response, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		if inFlight == items {
			close(arrived)
		}
		mu.Unlock()

		// Hold every lookup until all of them are in flight.
		select {
		case <-arrived:
		case <-time.After(2 * time.Second):
		}

		mu.Lock()
		inFlight--
		mu.Unlock()

		id := req.URL.Query().Get("prodId")
		resp := httpmock.NewStringResponse(http.StatusOK, `[{"booktitle":"書`+id+`","saleprice":"100"}]`)
		resp.Header.Set("Content-Type", "application/json")
		return resp, nil
	}

	f, transport := newTestFetcher()
	transport.RegisterResponder("GET", "https://www.taaze.tw/rwd_searchResult.html", htmlResponder(page.String()))
	transport.RegisterResponder("GET", "https://www.taaze.tw/new_ec/rwd/lib/searchbookAgent.jsp", lookup)

	result := newCrawler(Taaze, &taaze{fetcher: f}, f.Metrics).
		Search(context.Background(), "書", onlineStore(Taaze))
	requireOkay(t, result, items)

	mu.Lock()
	defer mu.Unlock()
	if peak != items {
		t.Fatalf("peak lookups in flight=%d, want %d", peak, items)
	}
	if result.Books[items-1].ID != "14200000008" {
		t.Fatalf("last id=%q", result.Books[items-1].ID)
	}
}
