// Package source supplies filing text to the pipeline. Fetchers resolve a
// location (URL or file path) to plain text; HTML is converted on the way.
// Caches wrap another Fetcher and are transparent to the caller.
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cognicore/riskfreq/pkg/riskfreq/internalerr"
)

// defaultMaxBodyBytes caps a single fetched document.
const defaultMaxBodyBytes = 64 << 20

// Fetcher resolves a location to document text.
type Fetcher interface {
	Fetch(ctx context.Context, location string) (string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, location string) (string, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, location string) (string, error) {
	return f(ctx, location)
}

// IsURL reports whether location is an http(s) URL.
func IsURL(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// HTTPOptions configures an HTTPFetcher.
type HTTPOptions struct {
	Timeout   time.Duration
	UserAgent string
	Retry     RetryConfig
	Client    *http.Client
	Logger    *slog.Logger

	// MaxBodyBytes rejects larger responses. Zero means 64 MiB.
	MaxBodyBytes int64
}

// HTTPFetcher downloads documents over HTTP with retries.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	retry     RetryConfig
	maxBody   int64
	logger    *slog.Logger
}

// NewHTTPFetcher creates an HTTP fetcher.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "riskfreq/1.0"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	return &HTTPFetcher{
		client:    client,
		userAgent: ua,
		retry:     opts.Retry,
		maxBody:   maxBody,
		logger:    logger.With("component", "http-fetcher"),
	}
}

// Fetch downloads location. 4xx responses are not retried.
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) (string, error) {
	var text string
	err := retry(ctx, f.logger, "fetch "+location, f.retry, func() error {
		var err error
		text, err = f.fetchOnce(ctx, location)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", internalerr.ErrFetch, location, err)
	}
	return text, nil
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, location string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return "", permanent(err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return "", permanent(fmt.Errorf("HTTP %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > f.maxBody {
		return "", permanent(fmt.Errorf("response body exceeds %d bytes", f.maxBody))
	}
	text, err := toText(data)
	if err != nil {
		return "", permanent(err)
	}
	return text, nil
}

// FileFetcher reads documents from the local filesystem.
type FileFetcher struct{}

// Fetch reads the file at location.
func (FileFetcher) Fetch(ctx context.Context, location string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(location)
	if err != nil {
		return "", fmt.Errorf("%w: %v", internalerr.ErrFetch, err)
	}
	return toText(data)
}

// Router sends URLs to Remote and everything else to Local.
type Router struct {
	Remote Fetcher
	Local  Fetcher
}

// Fetch implements Fetcher.
func (r Router) Fetch(ctx context.Context, location string) (string, error) {
	if IsURL(location) {
		if r.Remote == nil {
			return "", fmt.Errorf("%w: no remote fetcher for %s", internalerr.ErrInvalidInput, location)
		}
		return r.Remote.Fetch(ctx, location)
	}
	local := r.Local
	if local == nil {
		local = FileFetcher{}
	}
	return local.Fetch(ctx, location)
}

// cacheKey derives a stable, filesystem-safe key for location.
func cacheKey(location string) string {
	sum := sha256.Sum256([]byte(location))
	return hex.EncodeToString(sum[:16])
}
