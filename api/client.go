// Package api is the typed client for the care-coordination REST backend.
// Each endpoint keeps its own response wrapper shape; callers get plain Go
// values back.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	wizard "github.com/goliatone/go-wizard"
)

const defaultMaxRetries = 2

// Client talks to the backend over HTTP with bearer auth.
type Client struct {
	base       *url.URL
	token      string
	http       *http.Client
	logger     wizard.Logger
	retry      RetryStrategy
	maxRetries int
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l wizard.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRetry configures GET retries. POSTs are never retried.
func WithRetry(strategy RetryStrategy, maxRetries int) Option {
	return func(c *Client) {
		if strategy != nil {
			c.retry = strategy
		}
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
	}
}

// WithClock overrides the time source used for export filenames.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New builds a client for baseURL, e.g. https://api.example.org/v1.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, requestError("invalid base url " + baseURL)
	}
	c := &Client{
		base:       u,
		http:       &http.Client{Timeout: 30 * time.Second},
		logger:     wizard.NopLogger(),
		retry:      DefaultBackoff,
		maxRetries: defaultMaxRetries,
		now:        time.Now,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	escaped := strings.TrimRight(c.base.EscapedPath(), "/") + "/" + strings.TrimLeft(path, "/")
	u.RawPath = escaped
	if unescaped, err := url.PathUnescape(escaped); err == nil {
		u.Path = unescaped
	} else {
		u.Path = escaped
		u.RawPath = ""
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

type response struct {
	status      int
	contentType string
	body        []byte
}

// getJSON fetches path and decodes into out, retrying transient failures.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.getWithRetry(ctx, path, query, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return decodeError(path, err)
	}
	return nil
}

func (c *Client) getWithRetry(ctx context.Context, path string, query url.Values, accept string) (*response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retry.SleepDuration(attempt-1, lastErr)
			c.logger.Debug("retrying GET %s in %s (attempt %d): %v", path, delay, attempt, lastErr)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, transportError(http.MethodGet, path, err)
			}
		}
		resp, err := c.do(ctx, http.MethodGet, path, query, nil, accept)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(err) {
			break
		}
	}
	return nil, lastErr
}

// postJSON sends body once and decodes the reply into out when out is
// not nil.
func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return requestError("encode request body: " + err.Error())
	}
	resp, err := c.do(ctx, http.MethodPost, path, nil, payload, "application/json")
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return decodeError(path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, accept string) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, requestError("build request: " + err.Error())
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	started := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(method, path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, transportError(method, path, err)
	}
	c.logger.Debug("%s %s -> %d in %s", method, path, res.StatusCode, time.Since(started))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, statusError(method, path, res.StatusCode, data)
	}
	return &response{
		status:      res.StatusCode,
		contentType: res.Header.Get("Content-Type"),
		body:        data,
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
