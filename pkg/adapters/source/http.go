package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/reflex/internal/logging"
)

// Timeouts applied by the default HTTP client.
const (
	ConnectTimeout = 5 * time.Second
	ReadTimeout    = 10 * time.Second
)

// ErrUnexpectedStatus is returned when the server answers with anything but 200 OK.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// ErrTooLarge is returned when the rule text exceeds MaxRulesSize.
var ErrTooLarge = errors.New("rule text too large")

// MaxRulesSize bounds a fetched rule text.
const MaxRulesSize = 1 << 20

// ErrWatchDisabled is returned by Watch when polling is not configured.
var ErrWatchDisabled = errors.New("watching disabled: no poll interval")

// HTTPFetcher loads rule text from a URL.
// With a poll interval it also implements ports.Watchable by fetching
// periodically and signaling when the body changes.
type HTTPFetcher struct {
	url    string
	client *http.Client
	poll   time.Duration
	logger *slog.Logger

	mu           sync.Mutex
	last         string
	etag         string
	lastModified string
}

// HTTPOption configures the HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient replaces the default client and its timeouts.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		f.client = c
	}
}

// WithPollInterval enables Watch, fetching every d.
func WithPollInterval(d time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		f.poll = d
	}
}

// WithHTTPLogger sets the logger used for poll failures.
func WithHTTPLogger(logger *slog.Logger) HTTPOption {
	return func(f *HTTPFetcher) {
		f.logger = logger
	}
}

// NewHTTPFetcher creates a fetcher for url.
func NewHTTPFetcher(url string, opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		url:    url,
		client: defaultClient(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func defaultClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: ConnectTimeout}).DialContext,
			TLSHandshakeTimeout:   ConnectTimeout,
			ResponseHeaderTimeout: ReadTimeout,
		},
		Timeout: ConnectTimeout + ReadTimeout,
	}
}

// URL returns the fetched address.
func (f *HTTPFetcher) URL() string { return f.url }

// Load fetches the rule text. After a successful load the request is
// conditional, and a 304 answer returns the cached text.
func (f *HTTPFetcher) Load(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	f.mu.Lock()
	cached, etag, lastModified := f.last, f.etag, f.lastModified
	f.mu.Unlock()
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch rules from %s: %w", f.url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && (etag != "" || lastModified != ""):
		return cached, nil
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: %s from %s", ErrUnexpectedStatus, resp.Status, f.url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxRulesSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read rules from %s: %w", f.url, err)
	}
	if len(body) > MaxRulesSize {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, f.url, MaxRulesSize)
	}

	text := string(body)
	f.mu.Lock()
	f.last = text
	f.etag = resp.Header.Get("ETag")
	f.lastModified = resp.Header.Get("Last-Modified")
	f.mu.Unlock()
	return text, nil
}

// Watch polls the URL and signals whenever the body differs from the last
// successful load. Failed polls are logged and retried on the next interval.
func (f *HTTPFetcher) Watch(ctx context.Context) (<-chan struct{}, error) {
	if f.poll <= 0 {
		return nil, ErrWatchDisabled
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(f.poll)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			f.mu.Lock()
			before := f.last
			f.mu.Unlock()

			text, err := f.Load(ctx)
			if err != nil {
				if ctx.Err() == nil {
					f.logger.Warn("Rule poll failed", "url", f.url, "err", err)
				}
				continue
			}
			if text == before {
				continue
			}
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}()
	return ch, nil
}
