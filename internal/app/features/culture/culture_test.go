package culture

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/setliststudio/internal/app/system/culture"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) *Handler {
	t.Helper()
	n, err := culture.New([]string{"en", "es", "fr"}, "en")
	if err != nil {
		t.Fatalf("culture.New: %v", err)
	}
	return NewHandler(n, false, zap.NewNop())
}

func TestSet(t *testing.T) {
	h := newHandler(t)

	tests := []struct {
		name       string
		target     string
		wantCookie string
		wantLoc    string
	}{
		{"supported", "/?culture=es&return=/songs", "es", "/songs"},
		{"unsupported", "/?culture=de&return=/songs", "", "/songs"},
		{"no return", "/?culture=fr", "fr", "/"},
		{"back to sign-in", "/?culture=es&return=%2Flogin", "es", "/login"},
		{"never to sign-out", "/?culture=es&return=%2Flogout", "es", "/"},
		{"external", "/?culture=es&return=https%3A%2F%2Fevil.example", "es", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Routes(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if rec.Code != http.StatusSeeOther {
				t.Fatalf("status = %d, want 303", rec.Code)
			}
			if got := rec.Header().Get("Location"); got != tt.wantLoc {
				t.Errorf("Location = %q, want %q", got, tt.wantLoc)
			}

			var got string
			for _, c := range rec.Result().Cookies() {
				if c.Name == culture.CookieName {
					got = c.Value
				}
			}
			if got != tt.wantCookie {
				t.Errorf("cookie = %q, want %q", got, tt.wantCookie)
			}
		})
	}
}
