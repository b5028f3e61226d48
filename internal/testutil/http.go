package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/setliststudio/internal/app/system/auth"
	"github.com/dalemusser/setliststudio/internal/app/system/scope"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents the signed-in musician in handler tests.
type TestUser struct {
	ID    string
	Name  string
	Email string
}

// Musician returns a TestUser with a fresh ObjectID.
func Musician() TestUser {
	return TestUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Musician",
		Email: "musician@test.com",
	}
}

// OwnerID returns the user's ID as an ObjectID.
func (u TestUser) OwnerID() primitive.ObjectID {
	oid, _ := primitive.ObjectIDFromHex(u.ID)
	return oid
}

// Authenticator returns a static authenticator for the user, for tests that
// build the full router.
func (u TestUser) Authenticator() *auth.StaticAuthenticator {
	return auth.NewStaticAuthenticator(u.Name, u.ID, u.Email)
}

// WithUser injects the user into the request context, bypassing any
// authenticator.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	})
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), user)
}

// NewFormRequest creates a urlencoded POST with a user and CSRF token in
// context.
func NewFormRequest(target, form string, user TestUser) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return WithCSRFToken(WithUser(req, user))
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertRedirect checks for a redirect to the expected location.
func (r *ResponseRecorder) AssertRedirect(t interface{ Errorf(string, ...any) }, expectedLocation string) {
	switch r.Code {
	case http.StatusSeeOther, http.StatusFound, http.StatusMovedPermanently, http.StatusTemporaryRedirect:
	default:
		t.Errorf("expected redirect status, got %d", r.Code)
	}
	if location := r.Header().Get("Location"); location != expectedLocation {
		t.Errorf("redirect location: got %q, want %q", location, expectedLocation)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// WithScope opens a unit of work for the request, as scope.Middleware
// would, and closes it when the test ends.
func WithScope(t interface{ Cleanup(func()) }, r *http.Request) *http.Request {
	s := scope.New()
	t.Cleanup(s.Close)
	return r.WithContext(scope.WithScope(r.Context(), s))
}
