package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/setliststudio/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestHandler_Check(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db.Client(), nil, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Check() status = %d, want %d", rec.Code, http.StatusOK)
	}
	resp := decode(t, rec)
	if resp.Status != Healthy || resp.Services["mongodb"] != Healthy {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHandler_Check_SchemaPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db.Client(), func() bool { return false }, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 while schema is pending", rec.Code)
	}
	if resp := decode(t, rec); resp.Status != Degraded || resp.Services["schema"] != Degraded {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHandler_NoClient(t *testing.T) {
	h := NewHandler(nil, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Ready() without client = %d, want 503", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Check() without client = %d, want 503", rec.Code)
	}
}

func TestSimpleProbesNeedNoDatabase(t *testing.T) {
	h := NewHandler(nil, nil, zap.NewNop())
	r := chi.NewRouter()
	r.Mount("/health", Routes(h))
	MountRootEndpoints(r, h)

	for _, path := range []string{"/health/simple", "/api/health/simple", "/health/live", "/livez"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
			if resp := decode(t, rec); resp.Status != Healthy {
				t.Errorf("status = %q, want %q", resp.Status, Healthy)
			}
		})
	}
}

func TestMountRootEndpoints_Ready(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db.Client(), nil, zap.NewNop())
	r := chi.NewRouter()
	MountRootEndpoints(r, h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/readyz status = %d, want 200", rec.Code)
	}
}
