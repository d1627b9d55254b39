// Package fetch is the shared HTTP layer for provider adapters. It owns the
// concurrency cap, per-provider rate limiting, retries on transient failures
// and gzip decoding, so adapters only describe endpoints and parsing.
package fetch

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36"

const (
	maxAttempts    = 3
	retryBaseDelay = 250 * time.Millisecond
)

// StatusError reports a non-200 response. Retries key off the code: 429 and
// 5xx are transient, other 4xx are not.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}

// Client is one provider's HTTP session. All requests share one concurrency
// semaphore and, when configured, one rate limiter.
type Client struct {
	httpClient *http.Client
	sem        *semaphore.Weighted
	limiter    *rate.Limiter
	userAgent  string
	headers    map[string]string

	requests atomic.Int64
	errors   atomic.Int64
}

// Option tweaks a Client at construction.
type Option func(*Client)

// WithUserAgent overrides the default browser User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHeaders sets extra headers sent on every request.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) {
		for k, v := range h {
			c.headers[k] = v
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero means uncapped.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewClient builds a client with the given per-request timeout and
// concurrent request cap.
func NewClient(timeout time.Duration, maxConcurrent int64, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		sem:        semaphore.NewWeighted(maxConcurrent),
		userAgent:  defaultUserAgent,
		headers:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON fetches rawURL (with params appended when non-empty) and decodes
// the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}
	body, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		c.setHeaders(req)
		return req, nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return nil
}

// TakeCounters returns the request and error counts since the previous call
// and resets them. The engine snapshots these once per cycle.
func (c *Client) TakeCounters() (requests, errors int64) {
	return c.requests.Swap(0), c.errors.Swap(0)
}

func (c *Client) do(ctx context.Context, build func() (*http.Request, error)) ([]byte, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBaseDelay):
			}
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := build()
		if err != nil {
			return nil, err
		}
		c.requests.Add(1)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.errors.Add(1)
			lastErr = err
			continue
		}
		body, err := handleResponse(resp)
		resp.Body.Close()
		if err == nil {
			return body, nil
		}
		c.errors.Add(1)
		lastErr = err
		if !retryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
}

func handleResponse(resp *http.Response) ([]byte, error) {
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	var r io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}
	return io.ReadAll(r)
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}
