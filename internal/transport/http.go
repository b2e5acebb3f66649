// Package transport provides the HTTP transport used to reach the Kraken REST API.
package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"krakenrest/pkg/core"
)

// Client wraps a resty HTTP client with logging and configuration.
// It issues exactly one HTTP call per Do; retries are disabled.
type Client struct {
	client *resty.Client
	logger zerolog.Logger
	mu     sync.RWMutex
	closed bool
}

// Response represents an HTTP response with its status code, body, and headers.
type Response struct {
	// StatusCode is the HTTP status code returned by the server.
	StatusCode int

	// Body contains the raw response body bytes.
	Body []byte

	// Headers contains the response headers as key-value pairs.
	Headers map[string]string
}

// NewClient creates a new HTTP client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetRetryCount(0)

	client.AddRequestMiddleware(func(_ *resty.Client, req *resty.Request) error {
		logger.Debug().
			Str("method", req.Method).
			Str("url", req.URL).
			Msg("http request")
		return nil
	})

	client.AddResponseMiddleware(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug().
			Str("method", resp.Request.Method).
			Str("url", resp.Request.URL).
			Int("status", resp.StatusCode()).
			Int("size", len(resp.Bytes())).
			Msg("http response")
		return nil
	})

	return &Client{
		client: client,
		logger: logger,
	}
}

// Do executes one HTTP request. target is the path relative to the base URL
// and may carry a pre-encoded query string, which is sent untouched.
// A non-empty body is sent as is. Any HTTP status is returned as a Response;
// err is set only when no status was received.
func (c *Client) Do(ctx context.Context, method, target string, headers map[string]string, body string) (*Response, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, core.ErrClientClosed
	}

	r := c.client.R().SetContext(ctx)
	for k, v := range headers {
		r.SetHeader(k, v)
	}
	if body != "" {
		r.SetBody(body)
	}

	var resp *resty.Response
	var err error

	switch method {
	case http.MethodGet:
		resp, err = r.Get(target)
	case http.MethodPost:
		resp, err = r.Post(target)
	default:
		return nil, fmt.Errorf("unsupported http method: %s", method)
	}

	if err != nil {
		c.logger.Debug().Err(err).
			Str("method", method).
			Str("path", target).
			Msg("http request failed")
		return nil, fmt.Errorf("http request: %w", err)
	}

	respHeaders := make(map[string]string)
	for k, v := range resp.Header() {
		if len(v) > 0 {
			respHeaders[k] = v[0]
		}
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Bytes(),
		Headers:    respHeaders,
	}, nil
}

// Close releases idle connections. Do fails with core.ErrClientClosed afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.client.Close()
}

// IsSuccess returns true if the response status code indicates success (2xx).
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError returns true if the response status code indicates an error (4xx or 5xx).
func (r *Response) IsError() bool {
	return r.StatusCode >= http.StatusBadRequest
}

// Unmarshal parses the response body into the provided value using sonic.
func (r *Response) Unmarshal(v any) error {
	return sonic.Unmarshal(r.Body, v)
}
