// Package http sends the generator's outbound requests.
package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"
)

// DefaultTimeout bounds a single request when no timeout is configured
const DefaultTimeout = 30 * time.Second

// Client represents an HTTP client with customizable options
type Client struct {
	httpClient *http.Client
	transport  *http.Transport
	headers    map[string]string
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// NewClient creates a new HTTP client with the given options.
//
// A single client is shared by every dispatch of a run so connections are
// pooled across timeline entries.
func NewClient(options ...ClientOption) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 1000
	transport.MaxIdleConnsPerHost = 100

	client := &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   DefaultTimeout,
		},
		transport: transport,
		headers:   make(map[string]string),
	}

	// Apply options
	for _, option := range options {
		option(client)
	}

	return client
}

// WithTimeout sets the timeout for the client
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHeader adds a header to every request sent by the client. A later
// option for the same canonical key replaces the earlier value.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[http.CanonicalHeaderKey(key)] = value
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(userAgent string) ClientOption {
	return WithHeader("User-Agent", userAgent)
}

// WithMaxConnsPerHost limits the total connections per host. Zero means no
// limit.
func WithMaxConnsPerHost(n int) ClientOption {
	return func(c *Client) {
		c.transport.MaxConnsPerHost = n
	}
}

// Do executes an HTTP request and returns the response with timing information
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := req.Build(ctx)
	if err != nil {
		return nil, err
	}

	// Client headers do not override request headers
	for key, value := range c.headers {
		if httpReq.Header.Get(key) == "" {
			httpReq.Header.Set(key, value)
		}
	}

	timing := TimingInfo{
		StartTime: time.Now(),
	}

	trace := &httptrace.ClientTrace{
		GotFirstResponseByte: func() {
			timing.TimeToFirstByte = time.Since(timing.StartTime)
		},
	}
	httpReq = httpReq.WithContext(httptrace.WithClientTrace(httpReq.Context(), trace))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	// Drain the body so the connection can be reused
	n, err := io.Copy(io.Discard, httpResp.Body)
	timing.TotalTime = time.Since(timing.StartTime)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode:    httpResp.StatusCode,
		Status:        httpResp.Status,
		Headers:       httpResp.Header,
		BytesReceived: n,
		Timing:        timing,
	}, nil
}

// CloseIdleConnections closes pooled connections not currently in use
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}
