// Package culture negotiates the UI culture for each request.
//
// A supported culture chosen explicitly (the culture cookie) wins; otherwise
// the Accept-Language header is matched against the supported list, and the
// default applies when nothing matches.
package culture

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// CookieName is the cookie that stores an explicit culture choice.
const CookieName = "culture"

// ErrNoCultures is returned when the supported list is empty.
var ErrNoCultures = errors.New("culture: at least one supported culture is required")

// Option is one selectable culture.
type Option struct {
	Tag  string // BCP 47, e.g. "en-US"
	Name string // self-name, e.g. "English (United States)"
}

// Negotiator matches requests to a supported culture.
type Negotiator struct {
	tags    []language.Tag
	options []Option
	def     language.Tag
	matcher language.Matcher
}

// ParseList splits a comma-separated list of BCP 47 tags.
func ParseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// New builds a Negotiator. def must be one of supported; an empty def
// selects the first supported culture.
func New(supported []string, def string) (*Negotiator, error) {
	if len(supported) == 0 {
		return nil, ErrNoCultures
	}

	tags := make([]language.Tag, 0, len(supported))
	for _, s := range supported {
		tag, err := language.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("culture: invalid tag %q: %w", s, err)
		}
		tags = append(tags, tag)
	}

	defTag := tags[0]
	if def != "" {
		t, err := language.Parse(def)
		if err != nil {
			return nil, fmt.Errorf("culture: invalid default %q: %w", def, err)
		}
		found := false
		for i, tag := range tags {
			if tag == t {
				// Matchers prefer the first tag on ties; keep the default there.
				tags[0], tags[i] = tags[i], tags[0]
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("culture: default %q is not in the supported list", def)
		}
		defTag = t
	}

	opts := make([]Option, 0, len(tags))
	for _, tag := range tags {
		name := display.Self.Name(tag)
		if name == "" {
			name = tag.String()
		}
		opts = append(opts, Option{Tag: tag.String(), Name: name})
	}

	return &Negotiator{
		tags:    tags,
		options: opts,
		def:     defTag,
		matcher: language.NewMatcher(tags),
	}, nil
}

// Default returns the default culture.
func (n *Negotiator) Default() string { return n.def.String() }

// Options returns the selectable cultures, default first.
func (n *Negotiator) Options() []Option {
	out := make([]Option, len(n.options))
	copy(out, n.options)
	return out
}

// Supported returns the supported tag for s, matching exactly on the
// canonical form.
func (n *Negotiator) Supported(s string) (string, bool) {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	for _, t := range n.tags {
		if t == tag {
			return t.String(), true
		}
	}
	return "", false
}

// Resolve picks the culture for r.
func (n *Negotiator) Resolve(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil {
		if tag, ok := n.Supported(c.Value); ok {
			return tag
		}
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		desired, _, err := language.ParseAcceptLanguage(accept)
		if err == nil && len(desired) > 0 {
			_, idx, conf := n.matcher.Match(desired...)
			if conf != language.No {
				return n.tags[idx].String()
			}
		}
	}
	return n.def.String()
}

// SetCookie stores an explicit culture choice for a year.
func SetCookie(w http.ResponseWriter, tag string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    tag,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type ctxKey struct{}

// Middleware stores the negotiated culture in the request context.
func (n *Negotiator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ctxKey{}, n.Resolve(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromRequest returns the culture chosen by Middleware, or "en" when the
// middleware did not run.
func FromRequest(r *http.Request) string {
	if c, ok := r.Context().Value(ctxKey{}).(string); ok && c != "" {
		return c
	}
	return "en"
}
