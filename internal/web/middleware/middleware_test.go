package middleware

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAllowSubnet(t *testing.T) {
	_, allowed, err := net.ParseCIDR("10.0.0.0/8")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		allowedNet *net.IPNet
		remoteAddr string
		expected   int
	}{
		{name: "no restriction", allowedNet: nil, remoteAddr: "203.0.113.9:5555", expected: http.StatusOK},
		{name: "inside subnet", allowedNet: allowed, remoteAddr: "10.1.2.3:5555", expected: http.StatusOK},
		{name: "inside subnet without port", allowedNet: allowed, remoteAddr: "10.1.2.3", expected: http.StatusOK},
		{name: "outside subnet", allowedNet: allowed, remoteAddr: "192.168.1.10:5555", expected: http.StatusForbidden},
		{name: "unparsable address", allowedNet: allowed, remoteAddr: "not-an-ip", expected: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			rec := httptest.NewRecorder()

			AllowSubnet(tt.allowedNet)(okHandler()).ServeHTTP(rec, req)

			if rec.Code != tt.expected {
				t.Fatalf("expected status %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}

func TestLogger_PassesThroughStatus(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rec.Code)
	}
}

func TestLimitBody(t *testing.T) {
	var readErr error
	h := LimitBody(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("abc")))
	if readErr != nil {
		t.Fatalf("expected small body to be readable, got %v", readErr)
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("abcdefgh")))
	if readErr == nil {
		t.Fatal("expected an error for an oversized body")
	}
}
