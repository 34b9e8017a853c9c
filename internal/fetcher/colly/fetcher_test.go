package collyfetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/scraper"
)

func newTestFetcher() *Fetcher {
	return New(Config{
		UserAgent:     "test-agent/0.1",
		RespectRobots: false,
		Timeout:       5 * time.Second,
	})
}

func TestFetchReturnsBodyAndHeaders(t *testing.T) {
	t.Parallel()

	var gotAccept, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	f := newTestFetcher()
	resp, err := f.Fetch(context.Background(), scraper.FetchRequest{
		URL:     srv.URL,
		Headers: http.Header{"Accept": {"application/json"}},
	})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if string(resp.Body) != `{"results": []}` {
		t.Fatalf("unexpected body %q", resp.Body)
	}
	if ct := resp.ContentType(); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if gotAccept != "application/json" {
		t.Fatalf("expected Accept header propagation, got %q", gotAccept)
	}
	if gotAgent != "test-agent/0.1" {
		t.Fatalf("expected user agent override, got %q", gotAgent)
	}
}

func TestFetchNon2xxIsAResponseNotAnError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	resp, err := f.Fetch(context.Background(), scraper.FetchRequest{URL: srv.URL})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	if string(resp.Body) != "slow down" {
		t.Fatalf("expected error body to be captured, got %q", resp.Body)
	}
}

func TestFetchSameURLTwice(t *testing.T) {
	t.Parallel()

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	for i := 0; i < 2; i++ {
		if _, err := f.Fetch(context.Background(), scraper.FetchRequest{URL: srv.URL}); err != nil {
			t.Fatalf("Fetch() #%d error = %v", i+1, err)
		}
	}
	if hits != 2 {
		t.Fatalf("expected revisits to be allowed, got %d hits", hits)
	}
}

func TestFetchInvalidURLFails(t *testing.T) {
	t.Parallel()

	f := newTestFetcher()
	if _, err := f.Fetch(context.Background(), scraper.FetchRequest{URL: "not-a-url"}); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestCopyHeadersHandlesNil(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	if _, err := f.Fetch(context.Background(), scraper.FetchRequest{URL: srv.URL}); err != nil {
		t.Fatalf("Fetch() with nil headers error = %v", err)
	}
}
