package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClient_Do(t *testing.T) {
	// Create a test server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected method POST, got %s", r.Method)
		}

		if r.URL.Path != "/yolo/v2/predict" {
			t.Errorf("Expected path /yolo/v2/predict, got %s", r.URL.Path)
		}

		if r.Header.Get("X-Test-Header") != "test-value" {
			t.Errorf("Expected header X-Test-Header: test-value, got %s", r.Header.Get("X-Test-Header"))
		}

		if r.Header.Get("User-Agent") != "phobia-test" {
			t.Errorf("Expected User-Agent phobia-test, got %s", r.Header.Get("User-Agent"))
		}

		if r.Header.Get("Content-Type") != "text/plain" {
			t.Errorf("Expected Content-Type text/plain, got %s", r.Header.Get("Content-Type"))
		}

		body, _ := io.ReadAll(r.Body)
		if string(body) != "payload" {
			t.Errorf("Expected body payload, got %s", body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"success"}`))
	}))
	defer server.Close()

	client := NewClient(
		WithTimeout(5*time.Second),
		WithUserAgent("phobia-test"),
	)

	req := NewRequest("POST", server.URL+"/yolo/v2/predict").
		WithHeader("X-Test-Header", "test-value").
		WithBody(strings.NewReader("payload"), "text/plain")

	resp, err := client.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("Error executing request: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, resp.StatusCode)
	}

	if !resp.IsSuccess() {
		t.Error("Expected IsSuccess() to be true")
	}

	if resp.GetHeader("Content-Type") != "application/json" {
		t.Errorf("Expected Content-Type: application/json, got %s", resp.GetHeader("Content-Type"))
	}

	if resp.BytesReceived != int64(len(`{"message":"success"}`)) {
		t.Errorf("Expected %d bytes received, got %d", len(`{"message":"success"}`), resp.BytesReceived)
	}

	if resp.Timing.TotalTime <= 0 {
		t.Error("Expected positive total time")
	}
}

func TestClient_DoServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	resp, err := NewClient().Do(context.Background(), NewRequest("GET", server.URL))
	if err != nil {
		t.Fatalf("Error executing request: %v", err)
	}

	if !resp.IsServerError() || resp.IsSuccess() {
		t.Errorf("Expected a server error, got %d", resp.StatusCode)
	}
}

func TestClient_DoConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	if _, err := NewClient(WithTimeout(time.Second)).Do(context.Background(), NewRequest("GET", url)); err == nil {
		t.Error("Expected an error for a closed server")
	}
}

func TestClient_WithOptions(t *testing.T) {
	timeout := 10 * time.Second

	client := NewClient(
		WithTimeout(timeout),
		WithHeader("X-Test", "test-value"),
		WithMaxConnsPerHost(8),
	)

	if client.httpClient.Timeout != timeout {
		t.Errorf("Expected timeout %v, got %v", timeout, client.httpClient.Timeout)
	}

	if client.headers["X-Test"] != "test-value" {
		t.Errorf("Expected header X-Test: test-value, got %s", client.headers["X-Test"])
	}

	if client.transport.MaxConnsPerHost != 8 {
		t.Errorf("Expected MaxConnsPerHost 8, got %d", client.transport.MaxConnsPerHost)
	}

	overridden := NewClient(WithUserAgent("phobia/test"), WithHeader("user-agent", "custom"))
	if len(overridden.headers) != 1 || overridden.headers["User-Agent"] != "custom" {
		t.Errorf("Expected a single User-Agent header set to custom, got %v", overridden.headers)
	}

	if NewClient().httpClient.Timeout != DefaultTimeout {
		t.Errorf("Expected default timeout %v", DefaultTimeout)
	}
}
