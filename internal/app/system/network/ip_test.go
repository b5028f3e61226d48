package network

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		want       string
	}{
		{"ipv4 with port", "10.0.0.1:12345", "10.0.0.1"},
		{"ipv6 with port", "[::1]:8080", "::1"},
		{"no port", "10.0.0.1", "10.0.0.1"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientIP_BehindRealIP(t *testing.T) {
	var got string
	h := chimw.RealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClientIP(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	req.Header.Set("X-Real-IP", "192.168.1.1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "192.168.1.1" {
		t.Errorf("ClientIP behind RealIP = %q, want 192.168.1.1", got)
	}
}

func TestIPField(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:1"
	f := IPField(req)
	if f.Key != "ip" || f.String != "10.0.0.9" {
		t.Errorf("IPField = %+v", f)
	}
}
