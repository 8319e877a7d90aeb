package stores

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
)

const hyreadPage = `<html><body>
<div class="book-wrap">
  <div class="book-cover"><div class="book-overlay"><div class="book-link"><div class="coverBox"><img class="bookPic" src="/coverage/123.jpg"></div></div></div></div>
  <div class="book-title-01"><a href="bookDetail.jsp?id=123">斜槓青年</a></div>
  <div class="book-money"><span class="book-price">NT$ 252</span></div>
</div>
</body></html>`

func TestHyreadSendsCookieAndParses(t *testing.T) {
	f, transport := newTestFetcher()
	var cookie string
	transport.RegisterResponder("GET", "https://ebook.hyread.com.tw/searchList.jsp",
		func(req *http.Request) (*http.Response, error) {
			cookie = req.Header.Get("Cookie")
			resp := httpmock.NewStringResponse(http.StatusOK, hyreadPage)
			resp.Header.Set("Content-Type", "text/html")
			return resp, nil
		})

	result := newCrawler(Hyread, &hyread{fetcher: f}, f.Metrics).
		Search(context.Background(), "斜槓", onlineStore(Hyread))
	requireOkay(t, result, 1)

	if cookie != "notBot=1" {
		t.Fatalf("cookie=%q", cookie)
	}
	book := result.Books[0]
	if book.ID != "123" || book.Title != "斜槓青年" {
		t.Fatalf("book=%+v", book)
	}
	if book.Link != "https://ebook.hyread.com.tw/bookDetail.jsp?id=123" {
		t.Fatalf("link=%q", book.Link)
	}
	if book.Thumbnail != "https://ebook.hyread.com.tw/coverage/123.jpg" {
		t.Fatalf("thumbnail=%q", book.Thumbnail)
	}
	if book.Price != 252 {
		t.Fatalf("price=%v", book.Price)
	}
}
