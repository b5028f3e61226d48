package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const testKey = "this-is-a-32-character-long-key!"

func TestNewSessionManager(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		secure  bool
		wantErr error
	}{
		{name: "dev", key: testKey},
		{name: "prod", key: testKey, secure: true},
		{name: "empty key", key: "", wantErr: ErrNoSessionKey},
		{name: "short key in dev warns", key: "short"},
		{name: "short key in prod", key: "short", secure: true, wantErr: ErrWeakSessionKey},
		{name: "placeholder key in prod", key: "dev-only-session-key-not-for-production", secure: true, wantErr: ErrWeakSessionKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm, err := NewSessionManager(tt.key, "test-session", "", time.Hour, tt.secure, zap.NewNop())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || sm == nil {
				t.Fatalf("NewSessionManager() = %v, %v", sm, err)
			}
		})
	}
}

func TestSessionManager_SessionName(t *testing.T) {
	sm, _ := NewSessionManager(testKey, "", "", time.Hour, false, zap.NewNop())
	if sm.SessionName() != DefaultSessionName {
		t.Errorf("SessionName() = %q, want %q", sm.SessionName(), DefaultSessionName)
	}

	sm2, _ := NewSessionManager(testKey, "custom-session", "", time.Hour, false, zap.NewNop())
	if sm2.SessionName() != "custom-session" {
		t.Errorf("SessionName() = %q, want %q", sm2.SessionName(), "custom-session")
	}
}

func TestCurrentUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if u, ok := CurrentUser(req); ok || u != nil {
		t.Error("CurrentUser() should report no user for a bare request")
	}

	want := &SessionUser{ID: primitive.NewObjectID().Hex(), Name: "Test User", Email: "test@example.com"}
	u, ok := CurrentUser(WithTestUser(req, want))
	if !ok || u == nil {
		t.Fatal("CurrentUser() should return the injected user")
	}
	if u.ID != want.ID || u.Email != want.Email {
		t.Errorf("CurrentUser() = %+v, want %+v", u, want)
	}
}

func TestSessionUser_UserID(t *testing.T) {
	oid := primitive.NewObjectID()
	if got := (&SessionUser{ID: oid.Hex()}).UserID(); got != oid {
		t.Errorf("UserID() = %v, want %v", got, oid)
	}
	if !(&SessionUser{ID: "invalid"}).UserID().IsZero() {
		t.Error("UserID() should be zero for an invalid ID")
	}
	if !(&SessionUser{}).UserID().IsZero() {
		t.Error("UserID() should be zero for an empty ID")
	}
}

func TestStaticAuthenticator(t *testing.T) {
	a := NewStaticAuthenticator("Test Musician", "", "musician@example.com")

	var seen *SessionUser
	h := Middleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = CurrentUser(r)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == nil {
		t.Fatal("Middleware did not inject the static user")
	}
	if seen.Name != "Test Musician" || seen.Email != "musician@example.com" {
		t.Errorf("user = %+v", seen)
	}
	if seen.UserID().IsZero() {
		t.Error("static user should get a generated ObjectID")
	}

	// Mutating one resolved user must not leak into the next request.
	seen.Name = "changed"
	u, _ := a.Authenticate(nil, nil)
	if u.Name != "Test Musician" {
		t.Errorf("shared identity was mutated: %q", u.Name)
	}
}

func TestStaticAuthenticator_FixedID(t *testing.T) {
	id := primitive.NewObjectID().Hex()
	a := NewStaticAuthenticator("A", id, "a@example.com")
	if a.User().ID != id {
		t.Errorf("User().ID = %q, want %q", a.User().ID, id)
	}
}

func TestMiddleware_NilAuthenticator(t *testing.T) {
	called := false
	h := Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := CurrentUser(r); ok {
			t.Error("nil authenticator should leave request anonymous")
		}
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Error("handler not called")
	}
}

func TestRequireSignedIn(t *testing.T) {
	called := false
	protected := RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		headers    map[string]string
		user       *SessionUser
		wantStatus int
		wantCalled bool
		wantHeader string
	}{
		{name: "html redirects", headers: map[string]string{"Accept": "text/html"}, wantStatus: http.StatusSeeOther, wantHeader: "Location"},
		{name: "api gets 401", headers: map[string]string{"Accept": "application/json"}, wantStatus: http.StatusUnauthorized},
		{name: "htmx gets HX-Redirect", headers: map[string]string{"HX-Request": "true"}, wantStatus: http.StatusUnauthorized, wantHeader: "HX-Redirect"},
		{name: "signed in passes", user: &SessionUser{ID: "x"}, wantStatus: http.StatusOK, wantCalled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			req := httptest.NewRequest(http.MethodGet, "/songs?q=a", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if tt.user != nil {
				req = WithTestUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if called != tt.wantCalled {
				t.Errorf("called = %v, want %v", called, tt.wantCalled)
			}
			if tt.wantHeader != "" {
				if v := rec.Header().Get(tt.wantHeader); !strings.HasPrefix(v, "/login?return=") {
					t.Errorf("%s = %q, want login redirect", tt.wantHeader, v)
				}
			}
		})
	}
}

type fakeFetcher struct {
	users map[string]*SessionUser
	err   error
}

func (f *fakeFetcher) FetchUser(_ context.Context, id string) (*SessionUser, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

// signIn runs CreateSession and returns the cookies it set.
func signIn(t *testing.T, sm *SessionManager, id primitive.ObjectID) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback", nil)
	if err := sm.CreateSession(rec, req, id, "Ana", "ana@example.com"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	return rec.Result().Cookies()
}

func TestSessionManager_RoundTrip(t *testing.T) {
	sm, _ := NewSessionManager(testKey, "", "", time.Hour, false, zap.NewNop())
	id := primitive.NewObjectID()
	cookies := signIn(t, sm, id)
	if len(cookies) == 0 {
		t.Fatal("CreateSession() set no cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	u, ok := sm.Authenticate(httptest.NewRecorder(), req)
	if !ok {
		t.Fatal("Authenticate() = false after CreateSession")
	}
	if u.ID != id.Hex() || u.Name != "Ana" || u.Email != "ana@example.com" {
		t.Errorf("user = %+v", u)
	}
	if u.Token == "" {
		t.Error("session token missing")
	}
}

func TestSessionManager_FetcherRefreshesAndInvalidates(t *testing.T) {
	sm, _ := NewSessionManager(testKey, "", "", time.Hour, false, zap.NewNop())
	id := primitive.NewObjectID()
	cookies := signIn(t, sm, id)

	fetcher := &fakeFetcher{users: map[string]*SessionUser{
		id.Hex(): {ID: id.Hex(), Name: "Ana Renamed", Email: "ana@example.com"},
	}}
	sm.SetUserFetcher(fetcher)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	u, ok := sm.Authenticate(httptest.NewRecorder(), req)
	if !ok || u.Name != "Ana Renamed" {
		t.Fatalf("Authenticate() = %+v, %v; want refreshed user", u, ok)
	}

	delete(fetcher.users, id.Hex())
	if _, ok := sm.Authenticate(httptest.NewRecorder(), req); ok {
		t.Error("Authenticate() should fail once the user is gone")
	}
}

func TestSessionManager_FetchFailureKeepsSession(t *testing.T) {
	sm, _ := NewSessionManager(testKey, "", "", time.Hour, false, zap.NewNop())
	id := primitive.NewObjectID()
	cookies := signIn(t, sm, id)
	sm.SetUserFetcher(&fakeFetcher{err: errors.New("server selection timeout")})

	req := httptest.NewRequest(http.MethodGet, "/songs", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	u, ok := sm.Authenticate(rec, req)
	if !ok {
		t.Fatal("Authenticate() = false while the user store is down")
	}
	if u.ID != id.Hex() || u.Name != "Ana" || u.Token == "" {
		t.Errorf("user = %+v, want the stored session claims", u)
	}
	if got := rec.Header().Values("Set-Cookie"); len(got) != 0 {
		t.Errorf("session cookie rewritten during outage: %v", got)
	}
}

func TestSessionManager_AnonymousAndTampered(t *testing.T) {
	sm, _ := NewSessionManager(testKey, "", "", time.Hour, false, zap.NewNop())

	if _, ok := sm.Authenticate(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)); ok {
		t.Error("Authenticate() = true with no cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultSessionName, Value: "garbage"})
	if _, ok := sm.Authenticate(httptest.NewRecorder(), req); ok {
		t.Error("Authenticate() = true with a tampered cookie")
	}
}

func TestSessionManager_DestroySession(t *testing.T) {
	sm, _ := NewSessionManager(testKey, "", "", time.Hour, false, zap.NewNop())
	cookies := signIn(t, sm, primitive.NewObjectID())

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	sm.DestroySession(rec, req)

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == DefaultSessionName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("DestroySession() did not expire the cookie")
	}
}

func TestLooksLikePlaceholder(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"dev-only-session-key", true},
		{"CHANGE-ME-please", true},
		{"kq8Zr1xV9bN3mP0sT6wY2uE5hJ7cL4aD", false},
	}
	for _, tt := range tests {
		if got := looksLikePlaceholder(tt.key); got != tt.want {
			t.Errorf("looksLikePlaceholder(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestDiagnoseCookie(t *testing.T) {
	if f := diagnoseCookie(nil); f != faultNone || f.String() != "none" {
		t.Errorf("diagnoseCookie(nil) = %v", f)
	}
	if f := diagnoseCookie(http.ErrNoCookie); f != faultStore {
		t.Errorf("non-securecookie error = %v, want store", f)
	}

	codec := securecookie.New([]byte(testKey), nil)
	_, err := securecookie.EncodeMulti("x", "v", codec)
	if err != nil {
		t.Fatal(err)
	}
	other := securecookie.New([]byte("another-32-character-long-key!!!"), nil)
	encoded, _ := securecookie.EncodeMulti("x", "v", other)
	var out string
	err = securecookie.DecodeMulti("x", encoded, &out, codec)
	if f := diagnoseCookie(err); f != faultTampered {
		t.Errorf("foreign-key cookie = %v (%v), want mac_invalid", f, err)
	}
}
