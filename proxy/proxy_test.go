package proxy

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestForwardGetRelaysHeadersAndQuery(t *testing.T) {
	var receivedQuery url.Values
	var receivedHeader http.Header

	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedQuery = r.URL.Query()
		receivedHeader = r.Header
		w.Header().Set("X-Downstream", "yes")
		w.Header().Set("Transfer-Encoding", "chunked")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Hello World!"))
	}))
	defer downstream.Close()

	addr := strings.TrimPrefix(downstream.URL, "http://")

	forwarder := New()
	inboundHeader := http.Header{"X-Custom": []string{"inbound-value"}}
	query := url.Values{"x": []string{"1"}}

	result := forwarder.Forward(context.Background(), addr, "hello", query, inboundHeader, http.MethodGet, nil)

	if result.StatusCode != http.StatusOK {
		t.Fatalf("StatusCode = %d, want 200", result.StatusCode)
	}
	if string(result.Body) != "Hello World!" {
		t.Fatalf("Body = %q, want %q", result.Body, "Hello World!")
	}
	if receivedQuery.Get("x") != "1" {
		t.Fatalf("downstream did not receive query param x=1, got %v", receivedQuery)
	}
	if receivedHeader.Get("X-Custom") != "inbound-value" {
		t.Fatalf("downstream did not receive inbound header, got %v", receivedHeader)
	}
	if result.Header.Get("X-Downstream") != "yes" {
		t.Fatalf("expected downstream response header to be relayed, got %v", result.Header)
	}
	if result.Header.Get("Transfer-Encoding") != "" {
		t.Fatal("expected Transfer-Encoding to be stripped from the relayed response")
	}
}

func TestForwardPostRelaysBody(t *testing.T) {
	var receivedBody []byte

	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		receivedBody = body
		w.WriteHeader(http.StatusCreated)
	}))
	defer downstream.Close()

	addr := strings.TrimPrefix(downstream.URL, "http://")
	forwarder := New()

	result := forwarder.Forward(context.Background(), addr, "hello", url.Values{}, http.Header{}, http.MethodPost, strings.NewReader("payload"))

	if result.StatusCode != http.StatusCreated {
		t.Fatalf("StatusCode = %d, want 201", result.StatusCode)
	}
	if string(receivedBody) != "payload" {
		t.Fatalf("downstream received body %q, want %q", receivedBody, "payload")
	}
}

func TestForwardRejectsUnsupportedMethod(t *testing.T) {
	forwarder := New()
	result := forwarder.Forward(context.Background(), "127.0.0.1:1", "hello", url.Values{}, http.Header{}, http.MethodPatch, nil)

	if result.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("StatusCode = %d, want 405", result.StatusCode)
	}
	if !strings.Contains(string(result.Body), "PATCH") {
		t.Fatalf("Body = %q, want it to mention PATCH", result.Body)
	}
}

func TestForwardDownstreamUnreachable(t *testing.T) {
	forwarder := New()
	// nothing listens on this port, so the downstream call itself fails.
	result := forwarder.Forward(context.Background(), "127.0.0.1:1", "hello", url.Values{}, http.Header{}, http.MethodGet, nil)

	if result.StatusCode != http.StatusInternalServerError {
		t.Fatalf("StatusCode = %d, want 500", result.StatusCode)
	}
	if !strings.Contains(string(result.Body), "Failed to make downstream request") {
		t.Fatalf("Body = %q, want the downstream-request-failed message", result.Body)
	}
}
