// Package scope provides a unit-of-work container. One Scope is opened per
// HTTP request; services resolved through a Provider are built at most once
// per scope and are never shared between scopes.
package scope

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrClosed is returned when resolving from a scope that has ended.
var ErrClosed = errors.New("scope: unit of work has ended")

// ErrNoScope is returned when a request carries no scope.
var ErrNoScope = errors.New("scope: no unit of work in context")

// Scope holds the instances created during one unit of work.
type Scope struct {
	id string

	mu        sync.Mutex
	instances map[any]any // provider -> *entry
	onClose   []func()
	closed    bool
}

// New opens a new scope.
func New() *Scope {
	return &Scope{
		id:        uuid.NewString(),
		instances: make(map[any]any),
	}
}

// ID returns the scope's unique identifier.
func (s *Scope) ID() string { return s.id }

// OnClose registers fn to run when the scope closes. Functions run in
// reverse registration order. Registering on a closed scope runs fn at once.
func (s *Scope) OnClose(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn()
		return
	}
	s.onClose = append(s.onClose, fn)
	s.mu.Unlock()
}

// Close ends the unit of work. Instances are released and later resolution
// fails with ErrClosed. Close is idempotent.
func (s *Scope) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	fns := s.onClose
	s.onClose = nil
	s.instances = nil
	s.mu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

// Closed reports whether the scope has ended.
func (s *Scope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Provider builds a T once per scope.
type Provider[T any] struct {
	name  string
	build func(*Scope) (T, error)
}

// NewProvider creates a Provider. name is used only for diagnostics.
func NewProvider[T any](name string, build func(*Scope) T) *Provider[T] {
	return NewProviderE(name, func(s *Scope) (T, error) { return build(s), nil })
}

// NewProviderE creates a Provider whose build can fail. A failed build is
// remembered: every Get in that scope returns the same error.
func NewProviderE[T any](name string, build func(*Scope) (T, error)) *Provider[T] {
	return &Provider[T]{name: name, build: build}
}

// Name returns the provider's diagnostic name.
func (p *Provider[T]) Name() string { return p.name }

// entry is one provider's slot in a scope.
type entry struct {
	once sync.Once
	v    any
	err  error
}

// Get returns the scope's instance of T, building it on first use.
// Concurrent callers wait for the single build. A build function may
// resolve other providers from the same scope, but not its own.
func (p *Provider[T]) Get(s *Scope) (T, error) {
	var zero T
	if s == nil {
		return zero, ErrNoScope
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return zero, ErrClosed
	}
	e, ok := s.instances[p].(*entry)
	if !ok {
		e = &entry{}
		s.instances[p] = e
	}
	s.mu.Unlock()

	e.once.Do(func() { e.v, e.err = p.build(s) })
	if e.err != nil {
		return zero, fmt.Errorf("scope: build %s: %w", p.name, e.err)
	}
	return e.v.(T), nil
}

type ctxKey struct{}

// WithScope returns a context carrying s.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the scope carried by ctx.
func FromContext(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Scope)
	return s, ok && s != nil
}

// FromRequest returns the request's scope or ErrNoScope.
func FromRequest(r *http.Request) (*Scope, error) {
	s, ok := FromContext(r.Context())
	if !ok {
		return nil, ErrNoScope
	}
	return s, nil
}

// Middleware opens a scope for each request and closes it when the handler
// returns.
func Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := New()
			defer func() {
				s.Close()
				logger.Debug("unit of work closed",
					zap.String("scope_id", s.ID()),
					zap.String("path", r.URL.Path))
			}()
			next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), s)))
		})
	}
}
