package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

// RetryConfig controls the bounded fixed-delay retry policy.
type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client *http.Client
	Retry  RetryConfig

	// Headers are set on every outbound request.
	Headers map[string]string
}

var (
	ErrCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid retry configuration")
)

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s for url: %s", e.Code, http.StatusText(e.Code), e.URL)
}

// BodyError is returned when a response body could not be read in full.
type BodyError struct {
	URL string
	Err error
}

func (e *BodyError) Error() string {
	return fmt.Sprintf("reading response body for url: %s: %v", e.URL, e.Err)
}

func (e *BodyError) Unwrap() error {
	return e.Err
}

// RetryError is returned once every attempt has failed. Err is the last failure.
type RetryError struct {
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

// NewCircuitBreaker returns a breaker that opens after the given number of
// consecutive failed calls.
func NewCircuitBreaker(name string, consecutiveFailures uint32) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
	})
}

// DoRequestWithResilience executes the request up to cfg.Retry.MaxAttempts times
// with a fixed delay between attempts. Transport errors, non-2xx statuses and
// truncated bodies are retried. The returned response body is fully buffered.
// cb may be nil.
func DoRequestWithResilience(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Retry.MaxAttempts <= 0 || cfg.Retry.Delay < 0 {
		return nil, errInvalidConfig
	}

	var lastErr error

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)
		for k, v := range cfg.Headers {
			req.Header.Set(k, v)
		}

		resp, err := execute(cfg.Client, cb, req)
		if err == nil {
			return resp, nil
		}

		// An open circuit is not a transient failure of this call.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}

		lastErr = err
		if attempt >= cfg.Retry.MaxAttempts {
			return nil, &RetryError{Attempts: attempt, Err: lastErr}
		}

		timer := time.NewTimer(cfg.Retry.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func execute(client *http.Client, cb *gobreaker.CircuitBreaker, req *http.Request) (*http.Response, error) {
	do := func() (*http.Response, error) {
		resp, err := client.Do(req)
		if err != nil {
			var urlErr *url.Error
			if errors.As(err, &urlErr) {
				urlErr.URL = redactQuery(urlErr.URL)
			}
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, &StatusError{Code: resp.StatusCode, URL: redactQuery(req.URL.String())}
		}

		// The body is part of the attempt: a connection dropped mid-body is
		// a transport failure like any other.
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, &BodyError{URL: redactQuery(req.URL.String()), Err: err}
		}
		resp.Body = io.NopCloser(bytes.NewReader(body))
		return resp, nil
	}

	if cb == nil {
		return do()
	}

	result, err := cb.Execute(func() (interface{}, error) {
		return do()
	})
	if err != nil {
		return nil, err
	}
	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}

// redactQuery strips the query string, which may carry API keys.
func redactQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	return u.String()
}

// DecodeJSON reads resp.Body into v and closes it.
func DecodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
