// Package scraper issues bookstore requests through colly and classifies
// their failures.
package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/ebook-search/config"
	"github.com/gocolly/colly/v2"
)

// Request describes one outbound call made on behalf of a store.
type Request struct {
	Store  string
	Method string
	URL    string
	Body   []byte
	Header http.Header
	Proxy  string
}

// Fetcher runs single requests through a fresh colly collector, so no
// state is shared between stores or searches.
type Fetcher struct {
	userAgent string
	timeout   time.Duration
	Metrics   *Metrics

	mu         sync.Mutex
	transport  http.RoundTripper
	transports map[string]*http.Transport
}

// NewFetcher builds a fetcher configured from cfg.
func NewFetcher(cfg *config.Config, metrics *Metrics) *Fetcher {
	return &Fetcher{
		userAgent:  cfg.UserAgent,
		timeout:    cfg.Timeout,
		Metrics:    metrics,
		transports: make(map[string]*http.Transport),
	}
}

// WithTransport routes every request through rt, ignoring store proxies.
func (f *Fetcher) WithTransport(rt http.RoundTripper) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transport = rt
}

// Fetch performs req and returns the response when the store answered 2xx.
// Every other outcome is returned as a classified error.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (*colly.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, classifyError(err, 0)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	base, err := f.roundTripper(req.Proxy)
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	collector := colly.NewCollector(
		colly.UserAgent(f.userAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(f.timeout)
	collector.ParseHTTPErrorResponse = true
	collector.WithTransport(&contextTransport{ctx: reqCtx, next: base})

	var (
		start    time.Time
		response *colly.Response
	)
	collector.OnRequest(func(r *colly.Request) {
		start = time.Now()
		f.Metrics.IncRequest(req.Store, "started")
		slog.Debug("store request",
			slog.String("store", req.Store),
			slog.String("method", method),
			slog.String("url", r.URL.String()),
		)
	})
	collector.OnResponse(func(r *colly.Response) {
		response = r
		f.Metrics.ObserveDuration(req.Store, time.Since(start))
	})

	header := req.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	if header.Get("User-Agent") == "" {
		header.Set("User-Agent", f.userAgent)
	}
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	if err := collector.Request(method, req.URL, body, nil, header); err != nil {
		return nil, f.fail(req, classifyError(err, 0))
	}
	if response == nil {
		return nil, f.fail(req, fmt.Errorf("no response from %s", req.URL))
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, f.fail(req, classifyError(errors.New(http.StatusText(response.StatusCode)), response.StatusCode))
	}

	f.Metrics.IncRequest(req.Store, "success")
	return response, nil
}

// fail counts the failed request. The error itself is counted once per crawl
// by the store crawler, which also sees extraction errors.
func (f *Fetcher) fail(req Request, err error) error {
	f.Metrics.IncRequest(req.Store, "failed")
	slog.Debug("store request failed",
		slog.String("store", req.Store),
		slog.String("url", req.URL),
		slog.String("category", ErrorType(err)),
		slog.Any("error", err),
	)
	return err
}

func (f *Fetcher) roundTripper(proxy string) (http.RoundTripper, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.transport != nil {
		return f.transport, nil
	}
	if t, ok := f.transports[proxy]; ok {
		return t, nil
	}

	proxyFunc := http.ProxyFromEnvironment
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		proxyFunc = http.ProxyURL(proxyURL)
	}

	t := &http.Transport{
		Proxy: proxyFunc,
		DialContext: (&net.Dialer{
			Timeout:   f.timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	f.transports[proxy] = t
	return t, nil
}

// contextTransport ties requests issued by colly to the caller's context.
type contextTransport struct {
	ctx  context.Context
	next http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithCancel(req.Context())
	stop := context.AfterFunc(t.ctx, cancel)
	resp, err := t.next.RoundTrip(req.WithContext(ctx))
	if err != nil {
		stop()
		cancel()
		return nil, err
	}
	return resp, nil
}

// Document parses a response body as HTML.
func Document(resp *colly.Response) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, ErrParse{Err: err}
	}
	return doc, nil
}

// Element wraps a goquery selection as a colly element bound to resp.
func Element(resp *colly.Response, s *goquery.Selection, idx int) *colly.HTMLElement {
	return colly.NewHTMLElementFromSelectionNode(resp, s, s.Nodes[0], idx)
}

// ForEach calls fn for every element matching selector.
func ForEach(resp *colly.Response, selector string, fn func(int, *colly.HTMLElement)) error {
	doc, err := Document(resp)
	if err != nil {
		return err
	}
	doc.Find(selector).Each(func(i int, s *goquery.Selection) {
		fn(i, Element(resp, s, i))
	})
	return nil
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch statusCode {
		case http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case http.StatusNotFound:
			return ErrNotFound{Err: wrapped}
		case http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		}
		if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
			return ErrStatus{Code: statusCode, Err: wrapped}
		}
	}

	if err == nil {
		return nil
	}
	return err
}
