package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cognicore/riskfreq/pkg/riskfreq/internalerr"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestExtractTextDropsScriptAndStyle(t *testing.T) {
	doc := `<html><head><title>T</title><style>p{}</style></head>
<body><script>var x = 1;</script><p>Item 1A. Risk Factors</p><div>We face risk.</div>
<!-- hidden --><table><tr><td>a</td><td>b</td></tr></table></body></html>`

	text, err := ExtractText(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	for _, banned := range []string{"var x", "p{}", "hidden", "T\n"} {
		if strings.Contains(text, banned) {
			t.Errorf("text contains %q: %q", banned, text)
		}
	}
	if !strings.Contains(text, "Item 1A. Risk Factors\n") {
		t.Errorf("heading not on its own line: %q", text)
	}
	if !strings.Contains(text, "We face risk.\n") {
		t.Errorf("div text missing: %q", text)
	}
	if !strings.Contains(text, "a\tb\t") {
		t.Errorf("cells not separated: %q", text)
	}
}

func TestLooksLikeHTML(t *testing.T) {
	cases := map[string]bool{
		"<!DOCTYPE html><html></html>": true,
		"  <HTML><body>x</body></HTML>": true,
		"Item 1A. Risk Factors\n":      false,
		"":                             false,
		"a < b and c > d":              false,
	}
	for in, want := range cases {
		if got := LooksLikeHTML([]byte(in)); got != want {
			t.Errorf("LooksLikeHTML(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsURL(t *testing.T) {
	if !IsURL("https://www.sec.gov/x.htm") || !IsURL("HTTP://host/") {
		t.Error("expected URL")
	}
	if IsURL("/tmp/filing.txt") || IsURL("filing.txt") {
		t.Error("expected path")
	}
}

func TestHTTPFetcherConvertsHTML(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		fmt.Fprint(w, "<html><body><p>Risk Factors</p><p>We face risk.</p></body></html>")
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{UserAgent: "test-agent", Retry: fastRetry()})
	text, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if text != "Risk Factors\nWe face risk.\n" {
		t.Errorf("text = %q", text)
	}
	if ua != "test-agent" {
		t.Errorf("User-Agent = %q", ua)
	}
}

func TestHTTPFetcherRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "plain text")
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{Retry: fastRetry()})
	text, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if text != "plain text" {
		t.Errorf("text = %q", text)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestHTTPFetcherDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{Retry: fastRetry()})
	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, internalerr.ErrFetch) {
		t.Fatalf("err = %v, want ErrFetch", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestHTTPFetcherRejectsOversizedBody(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, strings.Repeat("risk ", 100))
	}))
	defer srv.Close()

	next := NewHTTPFetcher(HTTPOptions{Retry: fastRetry(), MaxBodyBytes: 64})
	c, err := NewDiskCache(t.TempDir(), next, nil)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}

	_, err = c.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, internalerr.ErrFetch) {
		t.Fatalf("err = %v, want ErrFetch", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
	if _, err := os.Stat(c.Path(srv.URL)); !os.IsNotExist(err) {
		t.Errorf("truncated body was cached: %v", err)
	}

	small := NewHTTPFetcher(HTTPOptions{Retry: fastRetry(), MaxBodyBytes: 500})
	text, err := small.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("body at limit: %v", err)
	}
	if len(text) != 500 {
		t.Errorf("len(text) = %d, want 500", len(text))
	}
}

func TestFileFetcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filing.txt")
	os.WriteFile(path, []byte("Risk Factors\nbody\n"), 0o644)

	text, err := FileFetcher{}.Fetch(context.Background(), path)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if text != "Risk Factors\nbody\n" {
		t.Errorf("text = %q", text)
	}

	_, err = FileFetcher{}.Fetch(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, internalerr.ErrFetch) {
		t.Errorf("err = %v, want ErrFetch", err)
	}
}

func TestRouter(t *testing.T) {
	remote := FetcherFunc(func(ctx context.Context, loc string) (string, error) { return "remote", nil })
	local := FetcherFunc(func(ctx context.Context, loc string) (string, error) { return "local", nil })
	r := Router{Remote: remote, Local: local}

	if got, _ := r.Fetch(context.Background(), "https://example.com/a"); got != "remote" {
		t.Errorf("url routed to %q", got)
	}
	if got, _ := r.Fetch(context.Background(), "a.txt"); got != "local" {
		t.Errorf("path routed to %q", got)
	}

	_, err := Router{}.Fetch(context.Background(), "https://example.com/a")
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func countingFetcher(calls *atomic.Int32) Fetcher {
	return FetcherFunc(func(ctx context.Context, loc string) (string, error) {
		calls.Add(1)
		return "text for " + loc, nil
	})
}

func TestDiskCacheFetchesOnce(t *testing.T) {
	var calls atomic.Int32
	c, err := NewDiskCache(t.TempDir(), countingFetcher(&calls), nil)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		text, err := c.Fetch(ctx, "https://example.com/10k?id=1")
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if text != "text for https://example.com/10k?id=1" {
			t.Errorf("text = %q", text)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("underlying fetches = %d, want 1", calls.Load())
	}
	if _, err := os.Stat(c.Path("https://example.com/10k?id=1")); err != nil {
		t.Errorf("cache file missing: %v", err)
	}
}

func TestDiskCacheConcurrentMissesShareFetch(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	slow := FetcherFunc(func(ctx context.Context, loc string) (string, error) {
		calls.Add(1)
		<-release
		return "body", nil
	})
	c, _ := NewDiskCache(t.TempDir(), slow, nil)

	locs := []string{"same", "same", "same", "same"}
	done := make(chan []Fetched)
	go func() {
		got, _ := Prefetch(context.Background(), c, locs, len(locs))
		done <- got
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	got := <-done
	for i, r := range got {
		if r.Err != nil || r.Text != "body" {
			t.Errorf("result %d = %+v", i, r)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("underlying fetches = %d, want 1", calls.Load())
	}
}

func TestDiskCacheDoesNotStoreFailures(t *testing.T) {
	failing := FetcherFunc(func(ctx context.Context, loc string) (string, error) {
		return "", internalerr.ErrFetch
	})
	c, _ := NewDiskCache(t.TempDir(), failing, nil)

	if _, err := c.Fetch(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(c.Path("x")); !os.IsNotExist(err) {
		t.Errorf("failure was cached: %v", err)
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("RISKFREQ_REDIS_ADDR")
	if addr == "" {
		t.Skip("RISKFREQ_REDIS_ADDR not set")
	}
	ctx := context.Background()
	var calls atomic.Int32
	c, err := NewRedisCache(ctx, addr, time.Minute, countingFetcher(&calls), nil)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	loc := fmt.Sprintf("test://%d", time.Now().UnixNano())
	defer c.client.Del(ctx, c.Key(loc))

	for i := 0; i < 2; i++ {
		if _, err := c.Fetch(ctx, loc); err != nil {
			t.Fatalf("Fetch: %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("underlying fetches = %d, want 1", calls.Load())
	}
}

func TestRedisCacheFallsThroughWhenDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	var calls atomic.Int32
	c := NewRedisCacheWithClient(client, time.Minute, countingFetcher(&calls), nil)
	defer c.Close()

	text, err := c.Fetch(context.Background(), "a")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if text != "text for a" || calls.Load() != 1 {
		t.Errorf("text = %q, calls = %d", text, calls.Load())
	}
}

func TestPrefetchKeepsOrder(t *testing.T) {
	f := FetcherFunc(func(ctx context.Context, loc string) (string, error) {
		if loc == "bad" {
			return "", internalerr.ErrFetch
		}
		time.Sleep(time.Duration(len(loc)) * time.Millisecond)
		return strings.ToUpper(loc), nil
	})

	locs := []string{"cccc", "a", "bad", "bb"}
	got, err := Prefetch(context.Background(), f, locs, 3)
	if err != nil {
		t.Fatalf("Prefetch: %v", err)
	}
	if len(got) != len(locs) {
		t.Fatalf("len = %d", len(got))
	}
	for i, r := range got {
		if r.Location != locs[i] {
			t.Errorf("result %d location = %q, want %q", i, r.Location, locs[i])
		}
	}
	if got[0].Text != "CCCC" || got[3].Text != "BB" {
		t.Errorf("texts = %q, %q", got[0].Text, got[3].Text)
	}
	if !errors.Is(got[2].Err, internalerr.ErrFetch) {
		t.Errorf("bad err = %v", got[2].Err)
	}
}

func TestPrefetchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Prefetch(ctx, FetcherFunc(func(ctx context.Context, loc string) (string, error) {
		return "", nil
	}), []string{"a", "b"}, 2)
	if err == nil {
		t.Error("expected cancellation error")
	}
}
