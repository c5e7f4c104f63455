// Package transport performs single HTTP GETs against the catalog API.
//
// It has no notion of mirrors, proxies or blocking. Every attempt gets its own
// timeout, cache-busting headers are always sent, and failures come back as
// one of TimeoutError, HTTPError or NetworkError.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout bounds a single attempt
	DefaultTimeout = 8 * time.Second
	// DefaultRetryDelay is the pause between retries of a failed attempt
	DefaultRetryDelay = time.Second
)

// Getter performs a GET and returns the fully read response
type Getter interface {
	Get(ctx context.Context, url string, header http.Header) (*Response, error)
}

// Response is a successful, fully read HTTP response
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport is the default Getter backed by net/http
type Transport struct {
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	logger     zerolog.Logger
}

// New creates a transport. By default it makes one attempt with DefaultTimeout.
func New(logger zerolog.Logger, opts ...Option) *Transport {
	o := clientOptions{
		timeout:    DefaultTimeout,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(&o)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Transport{
		httpClient: httpClient,
		timeout:    o.timeout,
		maxRetries: o.maxRetries,
		retryDelay: o.retryDelay,
		logger:     logger,
	}
}

// Get fetches url. Transport failures are retried up to the configured
// budget; HTTP status errors are returned at once.
func (t *Transport) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			t.logger.Debug().
				Err(lastErr).
				Str("url", url).
				Int("attempts_left", t.maxRetries-attempt+1).
				Msg("Request failed, retrying")

			if err := Sleep(ctx, t.retryDelay); err != nil {
				return nil, lastErr
			}
		}

		resp, err := t.do(ctx, url, header)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var httpErr *HTTPError
		if errors.As(err, &httpErr) || ctx.Err() != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

func (t *Transport) do(ctx context.Context, url string, header http.Header) (*Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, t.classify(ctx, reqCtx, url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, t.classify(ctx, reqCtx, url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
	}

	return &Response{
		URL:        url,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func (t *Transport) classify(parent, reqCtx context.Context, url string, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("request cancelled: %w", parent.Err())
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{URL: url, Timeout: t.timeout}
	}
	return &NetworkError{URL: url, Err: err}
}

// Sleep blocks for d, returning early if the context is cancelled
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
