package http

import (
	"net/http"
	"time"
)

// TimingInfo holds the timing of a single request
type TimingInfo struct {
	StartTime       time.Time
	TimeToFirstByte time.Duration
	TotalTime       time.Duration
}

// Response represents an HTTP response. The body is drained and discarded by
// the client; only the status line, headers and timing are kept.
type Response struct {
	StatusCode    int
	Status        string
	Headers       http.Header
	BytesReceived int64
	Timing        TimingInfo
}

// GetHeader returns the value of the specified header
func (r *Response) GetHeader(key string) string {
	return r.Headers.Get(key)
}

// IsSuccess returns true if the response status code is in the 2xx range
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsRedirect returns true if the response status code is in the 3xx range
func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// IsClientError returns true if the response status code is in the 4xx range
func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

// IsServerError returns true if the response status code is in the 5xx range
func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500 && r.StatusCode < 600
}

// GetResponseTimeMillis returns the response time in milliseconds
func (r *Response) GetResponseTimeMillis() int64 {
	return r.Timing.TotalTime.Milliseconds()
}
