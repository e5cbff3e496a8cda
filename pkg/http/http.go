// Package http is the outbound HTTP client used for third-party APIs
// (the payment gateway). Requests are built fluently, retried on transport
// errors and 502/503/504, and bounded by a per-attempt timeout.
//
//	c := http.NewClient("https://api.razorpay.com/v1")
//	resp, err := c.Post(ctx, "/orders").
//	    BasicAuth(keyID, secret).
//	    Body(payload).
//	    Send()
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	gohttp "net/http"
	"strings"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

var defaultTransport = &gohttp.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 20,
	IdleConnTimeout:     90 * time.Second,
}

// Client holds the base URL and retry policy shared by its requests.
type Client struct {
	BaseURL   string
	HTTP      *gohttp.Client
	Timeout   time.Duration
	Attempts  int
	RetryWait time.Duration
}

// NewClient returns a Client with a 10s timeout and two attempts.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		HTTP:      &gohttp.Client{Transport: defaultTransport},
		Timeout:   10 * time.Second,
		Attempts:  2,
		RetryWait: 300 * time.Millisecond,
	}
}

// Request is a fluent request builder.
type Request struct {
	client  *Client
	ctx     context.Context
	method  string
	url     string
	headers gohttp.Header
	body    any
}

func (c *Client) Get(ctx context.Context, path string) *Request {
	return c.newRequest(ctx, gohttp.MethodGet, path)
}

func (c *Client) Post(ctx context.Context, path string) *Request {
	return c.newRequest(ctx, gohttp.MethodPost, path)
}

func (c *Client) newRequest(ctx context.Context, method, path string) *Request {
	h := gohttp.Header{}
	h.Set("Accept", "application/json")
	return &Request{client: c, ctx: ctx, method: method, url: c.BaseURL + path, headers: h}
}

func (r *Request) Header(key, value string) *Request {
	r.headers.Set(key, value)
	return r
}

// BasicAuth sets the Authorization header for HTTP basic auth.
func (r *Request) BasicAuth(user, pass string) *Request {
	req := gohttp.Request{Header: gohttp.Header{}}
	req.SetBasicAuth(user, pass)
	r.headers.Set("Authorization", req.Header.Get("Authorization"))
	return r
}

// Body sets the request body; anything but []byte is JSON-encoded.
func (r *Request) Body(v any) *Request {
	r.body = v
	return r
}

// Send executes the request. Non-2xx responses are not errors; use Throw.
func (r *Request) Send() (*Response, error) {
	body, err := r.encodeBody()
	if err != nil {
		return nil, err
	}

	attempts := r.client.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := r.do(body)
		if err == nil && !retryable(resp.StatusCode) {
			return resp, nil
		}
		if err == nil {
			lastErr = fmt.Errorf("http: %s %s: status %d", r.method, r.url, resp.StatusCode)
			if attempt == attempts {
				return resp, nil
			}
		} else {
			lastErr = err
		}
		if attempt < attempts {
			wait := r.client.RetryWait * time.Duration(1<<(attempt-1))
			logger.WithCtx(r.ctx).Warn("http: request failed, retrying",
				"url", r.url, "attempt", attempt, "backoff", wait, "error", lastErr)
			select {
			case <-r.ctx.Done():
				return nil, r.ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	return nil, fmt.Errorf("http: all %d attempts failed for %s %s: %w", attempts, r.method, r.url, lastErr)
}

func retryable(status int) bool {
	return status == gohttp.StatusBadGateway ||
		status == gohttp.StatusServiceUnavailable ||
		status == gohttp.StatusGatewayTimeout
}

func (r *Request) encodeBody() ([]byte, error) {
	switch v := r.body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("http: marshal body: %w", err)
		}
		r.headers.Set("Content-Type", "application/json")
		return b, nil
	}
}

func (r *Request) do(body []byte) (*Response, error) {
	ctx, cancel := context.WithTimeout(r.ctx, r.client.Timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := gohttp.NewRequestWithContext(ctx, r.method, r.url, rd)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}
	req.Header = r.headers.Clone()

	resp, err := r.client.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: send: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("http: read body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Headers: resp.Header, Raw: raw}, nil
}

// Response is a fully-read HTTP response.
type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
}

func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

func (r *Response) JSON(dest any) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}

// Throw returns an error for non-2xx responses.
func (r *Response) Throw() error {
	if !r.OK() {
		return fmt.Errorf("http: request failed with status %d: %s", r.StatusCode, string(r.Raw))
	}
	return nil
}
