package jsonutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestJSON(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		data     any
		wantBody string
	}{
		{"object", http.StatusOK, map[string]string{"status": "Healthy"}, `{"status":"Healthy"}`},
		{"nil body", http.StatusAccepted, nil, ""},
		{"slice", http.StatusOK, []int{1, 2}, `[1,2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			JSON(rec, tt.status, tt.data)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Errorf("Content-Type = %q", ct)
			}
			if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
				t.Errorf("Cache-Control = %q, want no-store", cc)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
		msg    string
	}{
		{"error", func(w http.ResponseWriter) { Error(w, http.StatusTeapot, "short and stout") }, http.StatusTeapot, "short and stout"},
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "websocket upgrade required") }, http.StatusBadRequest, "websocket upgrade required"},
		{"unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "sign in required") }, http.StatusUnauthorized, "sign in required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body["error"] != tt.msg {
				t.Errorf("error = %q, want %q", body["error"], tt.msg)
			}
		})
	}
}

func TestOKAndUnavailable(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]string{"status": "Healthy"})
	if rec.Code != http.StatusOK {
		t.Errorf("OK status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	Unavailable(rec, map[string]string{"status": "Unhealthy"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Unavailable status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Unhealthy") {
		t.Errorf("body = %q", rec.Body.String())
	}
}
