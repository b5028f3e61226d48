// Package auth resolves the signed-in musician for each request.
//
// Authentication is a strategy: the router is built around an Authenticator,
// which the production host satisfies with the cookie SessionManager and
// tests satisfy with a StaticAuthenticator.
package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Authenticator resolves the user making a request.
type Authenticator interface {
	// Authenticate returns the user and true when the request carries a
	// valid identity. It may write to w (for example to clear a stale cookie).
	Authenticate(w http.ResponseWriter, r *http.Request) (*SessionUser, bool)
}

// SessionUser represents the authenticated user in the request context.
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Token string // session token, empty for non-cookie strategies
}

// UserID returns the user's ID as an ObjectID, or the zero ObjectID when the
// ID is not a valid hex ObjectID.
func (u *SessionUser) UserID() primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// UserFetcher loads fresh user data for a session. It returns nil, nil when
// the user is missing or disabled, and an error only when the lookup itself
// failed.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) (*SessionUser, error)
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag from the request context.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects a SessionUser into the request context for testing.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// Middleware injects the user resolved by a into the request context.
// Anonymous requests pass through unchanged.
func Middleware(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a != nil {
				if u, ok := a.Authenticate(w, r); ok {
					r = withUser(r, u)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSignedIn ensures there is a user in context.
// HTMX requests get an HX-Redirect, browsers a redirect to /login carrying
// the return path, and other callers a plain 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}

		ret := url.QueryEscape(r.URL.RequestURI())

		if r.Header.Get("HX-Request") == "true" {
			w.Header().Set("HX-Redirect", "/login?return="+ret)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		if wantsHTML(r) {
			http.Redirect(w, r, "/login?return="+ret, http.StatusSeeOther)
			return
		}

		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

func wantsHTML(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

/*─────────────────────────────────────────────────────────────────────────────*
| StaticAuthenticator                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// StaticAuthenticator authenticates every request as the same user.
// It backs test hosts and local demos.
type StaticAuthenticator struct {
	user SessionUser
}

// NewStaticAuthenticator returns an authenticator for a fixed identity.
// An empty id is replaced with a fresh ObjectID so stores accept it.
func NewStaticAuthenticator(name, id, email string) *StaticAuthenticator {
	if id == "" {
		id = primitive.NewObjectID().Hex()
	}
	return &StaticAuthenticator{user: SessionUser{ID: id, Name: name, Email: email}}
}

// Authenticate always succeeds. Each call returns a fresh copy so handlers
// cannot mutate the shared identity.
func (s *StaticAuthenticator) Authenticate(http.ResponseWriter, *http.Request) (*SessionUser, bool) {
	u := s.user
	return &u, true
}

// User returns the fixed identity.
func (s *StaticAuthenticator) User() SessionUser { return s.user }
