// Package transport implements the HTTP layer shared by the REST API client
// and the webhook client: header merging, auth token injection, per-call
// timeouts, and structured request logging.
//
// The transport never interprets HTTP status codes. Any received response,
// including 4xx and 5xx, is returned to the caller; only connection-level
// failures (DNS, connection refused, timeout) produce a *TransportError.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const logPayloadLimit = 512

// TransportError wraps a connection-level failure: the request never
// produced an HTTP response.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport failure: %s", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Response is the raw outcome of a completed HTTP exchange.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}

// Client issues HTTP requests with a fixed base URL, default headers, and an
// auth token. Its configuration is read-only after construction, so a single
// instance is safely shared across the whole test run.
type Client struct {
	baseURL        string
	defaultHeaders http.Header
	authHeader     string
	authToken      string
	timeout        time.Duration
	httpClient     *http.Client
	logger         *zap.Logger
}

type Option func(*Client)

// WithDefaultHeader adds a header sent on every request unless the caller
// overrides it per call.
func WithDefaultHeader(name, value string) Option {
	return func(c *Client) { c.defaultHeaders.Set(name, value) }
}

// WithAuthToken injects token under the given header name on every request.
func WithAuthToken(headerName, token string) Option {
	return func(c *Client) {
		c.authHeader = headerName
		c.authToken = token
	}
}

// WithTimeout sets the per-call timeout. Each call is bounded independently
// of any deadline the caller's context may carry.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		defaultHeaders: make(http.Header),
		timeout:        10 * time.Second,
		httpClient:     &http.Client{},
		logger:         zap.NewNop(),
	}
	c.defaultHeaders.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do issues a single HTTP request. path may be a path relative to the base
// URL or an absolute URL. Per-call headers win over default headers; the
// auth token is applied only where the caller has not set that header
// explicitly.
func (c *Client) Do(ctx context.Context, method, path string, body []byte, headers http.Header) (*Response, error) {
	url := c.resolveURL(path)

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(callCtx, method, url, bodyReader)
	if err != nil {
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}
	req.Header = c.mergeHeaders(headers)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		elapsed := time.Since(start)
		c.logger.Error("http request failed",
			zap.String("method", method),
			zap.String("url", url),
			zap.String("payload", truncate(body)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Error("http response read failed",
			zap.String("method", method),
			zap.String("url", url),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}

	c.logger.Info("http request",
		zap.String("method", method),
		zap.String("url", url),
		zap.String("payload", truncate(body)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed),
	)

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   respBody,
	}, nil
}

func (c *Client) Get(ctx context.Context, path string, headers http.Header) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, headers)
}

// Post sends a JSON body. The Content-Type header is set unless the caller
// supplies one.
func (c *Client) Post(ctx context.Context, path string, jsonBody []byte, headers http.Header) (*Response, error) {
	merged := make(http.Header)
	for name, values := range headers {
		merged[name] = values
	}
	if merged.Get("Content-Type") == "" {
		merged.Set("Content-Type", "application/json")
	}
	return c.Do(ctx, http.MethodPost, path, jsonBody, merged)
}

func (c *Client) Delete(ctx context.Context, path string, headers http.Header) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, headers)
}

func (c *Client) resolveURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) mergeHeaders(headers http.Header) http.Header {
	merged := make(http.Header)
	for name, values := range c.defaultHeaders {
		merged[name] = append([]string(nil), values...)
	}
	if c.authHeader != "" && c.authToken != "" {
		merged.Set(c.authHeader, c.authToken)
	}
	for name, values := range headers {
		merged.Del(name)
		for _, v := range values {
			merged.Add(name, v)
		}
	}
	return merged
}

func truncate(body []byte) string {
	if len(body) <= logPayloadLimit {
		return string(body)
	}
	return string(body[:logPayloadLimit]) + "..."
}
