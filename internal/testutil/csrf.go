package testutil

import (
	"context"
	"net/http"
)

// csrfTokenKey matches the context key gorilla/csrf reads in csrf.Token.
const csrfTokenKey = "gorilla.csrf.Token"

// TestCSRFToken is the token injected by WithCSRFToken.
const TestCSRFToken = "test-csrf-token-12345"

// WithCSRFToken puts a fixed CSRF token in the request context so handlers
// that render forms get a non-empty csrf.Token(r) without the middleware.
func WithCSRFToken(r *http.Request) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), csrfTokenKey, TestCSRFToken))
}

// NewAuthenticatedRequestWithCSRF creates a request with both a user and a
// CSRF token in context.
func NewAuthenticatedRequestWithCSRF(method, target string, user TestUser) *http.Request {
	return WithCSRFToken(NewAuthenticatedRequest(method, target, user))
}
