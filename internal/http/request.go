package http

import (
	"context"
	"io"
	"net/http"
)

// Request represents an outbound HTTP request
type Request struct {
	Method      string
	URL         string
	Headers     map[string]string
	Body        io.Reader
	ContentType string
}

// NewRequest creates a new HTTP request
func NewRequest(method, url string) *Request {
	return &Request{
		Method:  method,
		URL:     url,
		Headers: make(map[string]string),
	}
}

// WithHeader adds a header to the request
func (r *Request) WithHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

// WithBody sets the body of the request and its content type
func (r *Request) WithBody(body io.Reader, contentType string) *Request {
	r.Body = body
	r.ContentType = contentType
	return r
}

// Build constructs an http.Request from the Request
func (r *Request) Build(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, r.Body)
	if err != nil {
		return nil, err
	}

	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	for key, value := range r.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}
