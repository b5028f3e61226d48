package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultSessionName is the cookie name used when none is configured.
const DefaultSessionName = "setliststudio-session"

// MinSessionKeyLen is the shortest session key accepted in production.
const MinSessionKeyLen = 32

var (
	// ErrNoSessionKey is returned when the session key is empty.
	ErrNoSessionKey = errors.New("session key is empty")
	// ErrWeakSessionKey is returned when a secure deployment is given a
	// short or placeholder session key.
	ErrWeakSessionKey = errors.New("session key is too weak for production")
)

// session value keys
const (
	valSignedIn = "signed_in"
	valUserID   = "uid"
	valName     = "name"
	valEmail    = "email"
	valToken    = "token"
)

// SessionManager is the cookie-backed Authenticator.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	fetcher UserFetcher
	logger  *zap.Logger
}

// NewSessionManager creates a SessionManager.
//
// key signs the cookie. Secure deployments reject keys shorter than
// MinSessionKeyLen or that look like a placeholder; development logs a
// warning and carries on. An empty name falls back to DefaultSessionName.
func NewSessionManager(key, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if key == "" {
		return nil, ErrNoSessionKey
	}
	if weak := len(key) < MinSessionKeyLen || looksLikePlaceholder(key); weak {
		if secure {
			return nil, ErrWeakSessionKey
		}
		logger.Warn("weak session key; use a random key in production",
			zap.Int("length", len(key)))
	}
	if name == "" {
		name = DefaultSessionName
	}

	store := sessions.NewCookieStore([]byte(key))
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   domain,
		MaxAge:   int(maxAge / time.Second),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	logger.Info("session manager ready",
		zap.String("cookie", name),
		zap.Bool("secure", secure),
		zap.Duration("max_age", maxAge))
	return &SessionManager{store: store, name: name, logger: logger}, nil
}

// SessionName returns the session cookie name.
func (sm *SessionManager) SessionName() string { return sm.name }

// SetUserFetcher makes Authenticate reload the user on every request.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) { sm.fetcher = f }

// Authenticate reads the session cookie. With a UserFetcher set, a user
// that no longer exists or is disabled signs the session out. When the
// lookup fails the cookie is left alone and the claims stored in it are
// used until the database answers again.
func (sm *SessionManager) Authenticate(w http.ResponseWriter, r *http.Request) (*SessionUser, bool) {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		sm.logCookieFault(r, err)
	}
	if sess == nil {
		return nil, false
	}
	u, ok := readSession(sess)
	if !ok {
		return nil, false
	}
	if sm.fetcher == nil {
		return u, true
	}

	fresh, err := sm.fetcher.FetchUser(r.Context(), u.ID)
	if err != nil {
		sm.logger.Warn("user refresh failed; using session claims",
			zap.String("user_id", u.ID), zap.Error(err))
		return u, true
	}
	if fresh == nil {
		sm.logger.Info("signing out session of missing or disabled user",
			zap.String("user_id", u.ID))
		clearSession(sess)
		_ = sess.Save(r, w)
		return nil, false
	}
	fresh.Token = u.Token
	return fresh, true
}

// CreateSession signs the user in with a fresh session token.
func (sm *SessionManager) CreateSession(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID, name, email string) error {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		// Replace an unreadable cookie instead of failing the sign-in.
		sess, _ = sm.store.New(r, sm.name)
	}
	token, err := GenerateSessionToken()
	if err != nil {
		return err
	}
	sess.Values[valSignedIn] = true
	sess.Values[valUserID] = userID.Hex()
	sess.Values[valName] = name
	sess.Values[valEmail] = email
	sess.Values[valToken] = token
	return sess.Save(r, w)
}

// DestroySession signs the user out and expires the cookie.
func (sm *SessionManager) DestroySession(w http.ResponseWriter, r *http.Request) {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		return
	}
	clearSession(sess)
	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)
}

// GenerateSessionToken returns 32 random bytes, URL-safe base64 encoded.
func GenerateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func readSession(sess *sessions.Session) (*SessionUser, bool) {
	if in, _ := sess.Values[valSignedIn].(bool); !in {
		return nil, false
	}
	str := func(k string) string { v, _ := sess.Values[k].(string); return v }
	u := &SessionUser{ID: str(valUserID), Name: str(valName), Email: str(valEmail), Token: str(valToken)}
	if u.ID == "" {
		return nil, false
	}
	return u, true
}

func clearSession(sess *sessions.Session) {
	sess.Values[valSignedIn] = false
	for _, k := range []string{valUserID, valName, valEmail, valToken} {
		delete(sess.Values, k)
	}
}

func looksLikePlaceholder(key string) bool {
	k := strings.ToLower(key)
	for _, p := range []string{"change-me", "changeme", "dev-only", "default", "example", "insecure", "placeholder", "secret123", "password", "test-key"} {
		if strings.Contains(k, p) {
			return true
		}
	}
	return false
}

// cookieFault says why a session cookie could not be read.
type cookieFault int

const (
	faultNone     cookieFault = iota
	faultExpired              // past max age
	faultTampered             // MAC mismatch
	faultCorrupt              // undecodable, often a rotated key
	faultStore                // not a decode problem
)

func (f cookieFault) String() string {
	switch f {
	case faultExpired:
		return "expired"
	case faultTampered:
		return "mac_invalid"
	case faultCorrupt:
		return "corrupt"
	case faultStore:
		return "store"
	default:
		return "none"
	}
}

func diagnoseCookie(err error) cookieFault {
	if err == nil {
		return faultNone
	}
	var scErr securecookie.Error
	if !errors.As(err, &scErr) || !scErr.IsDecode() {
		return faultStore
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "expired timestamp"):
		return faultExpired
	case strings.Contains(msg, "value is not valid") || strings.Contains(msg, "mac"):
		return faultTampered
	default:
		return faultCorrupt
	}
}

func (sm *SessionManager) logCookieFault(r *http.Request, err error) {
	f := diagnoseCookie(err)
	fields := []zap.Field{zap.Stringer("fault", f), zap.String("path", r.URL.Path)}
	switch f {
	case faultExpired:
		sm.logger.Debug("session cookie expired", fields...)
	case faultTampered:
		sm.logger.Warn("session cookie failed MAC check",
			append(fields, zap.String("remote_addr", r.RemoteAddr), zap.String("user_agent", r.UserAgent()))...)
	case faultCorrupt:
		sm.logger.Info("session cookie unreadable", fields...)
	default:
		sm.logger.Error("session store error", append(fields, zap.Error(err))...)
	}
}
