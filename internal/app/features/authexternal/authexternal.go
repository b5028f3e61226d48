// internal/app/features/authexternal/authexternal.go
package authexternal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	errorsfeature "github.com/dalemusser/setliststudio/internal/app/features/errors"
	identitystore "github.com/dalemusser/setliststudio/internal/app/store/identities"
	"github.com/dalemusser/setliststudio/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/setliststudio/internal/app/store/users"
	"github.com/dalemusser/setliststudio/internal/app/system/auth"
	"github.com/dalemusser/setliststudio/internal/app/system/network"
	"github.com/dalemusser/setliststudio/internal/app/system/providers"
	"github.com/dalemusser/setliststudio/internal/app/system/status"
	"github.com/dalemusser/setliststudio/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// errDisabled marks a resolved account that may not sign in.
var errDisabled = errors.New("account disabled")

// Handler runs the OAuth2 sign-in flow for every registered provider.
type Handler struct {
	providers  *providers.Registry
	states     *oauthstate.Store
	users      *userstore.Store
	identities *identitystore.Store
	sessionMgr *auth.SessionManager
	errLog     *errorsfeature.ErrorLogger
	logger     *zap.Logger
}

// NewHandler creates a new external sign-in Handler.
func NewHandler(
	db *mongo.Database,
	reg *providers.Registry,
	sessionMgr *auth.SessionManager,
	errLog *errorsfeature.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		providers:  reg,
		states:     oauthstate.New(db),
		users:      userstore.New(db),
		identities: identitystore.New(db),
		sessionMgr: sessionMgr,
		errLog:     errLog,
		logger:     logger,
	}
}

// Routes returns a chi.Router with the OAuth routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/{provider}", h.start)
	r.Get("/{provider}/callback", h.callback)
	return r
}

func loginError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/login?error="+url.QueryEscape(code), http.StatusSeeOther)
}

// start stores a single-use state and sends the browser to the provider.
func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	p, err := h.providers.Get(name)
	if err != nil {
		h.logger.Info("sign-in with unavailable provider", zap.String("provider", name), network.IPField(r))
		loginError(w, r, "provider_unavailable")
		return
	}

	ret := urlutil.SafeReturn(r.URL.Query().Get("return"), "", "/")
	state, err := h.states.Create(r.Context(), p.Name(), ret)
	if err != nil {
		h.errLog.Log(r, "failed to store oauth state", err, zap.String("provider", p.Name()))
		loginError(w, r, "service_unavailable")
		return
	}

	http.Redirect(w, r, p.AuthCodeURL(state), http.StatusFound)
}

// callback verifies the state, exchanges the code and signs the user in.
func (h *Handler) callback(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	p, err := h.providers.Get(name)
	if err != nil {
		loginError(w, r, "provider_unavailable")
		return
	}

	q := r.URL.Query()
	st, err := h.states.Consume(r.Context(), q.Get("state"), p.Name())
	if err != nil {
		if !errors.Is(err, oauthstate.ErrInvalid) {
			h.errLog.Log(r, "failed to consume oauth state", err)
		}
		h.logger.Warn("invalid oauth state", zap.String("provider", p.Name()), network.IPField(r))
		loginError(w, r, "invalid_state")
		return
	}

	if perr := q.Get("error"); perr != "" {
		h.logger.Info("provider declined sign-in",
			zap.String("provider", p.Name()), zap.String("error", perr))
		if perr == "access_denied" {
			loginError(w, r, "access_denied")
		} else {
			loginError(w, r, "provider_error")
		}
		return
	}

	ident, err := p.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		h.errLog.Log(r, "oauth exchange failed", err, zap.String("provider", p.Name()))
		loginError(w, r, "provider_error")
		return
	}

	user, err := h.resolveUser(r.Context(), ident)
	switch {
	case errors.Is(err, errDisabled):
		h.logger.Warn("disabled account sign-in refused", zap.String("user_id", user.ID.Hex()))
		loginError(w, r, "account_disabled")
		return
	case err != nil:
		h.errLog.Log(r, "failed to resolve user", err, zap.String("provider", p.Name()))
		loginError(w, r, "service_unavailable")
		return
	}

	if err := h.sessionMgr.CreateSession(w, r, user.ID, user.FullName, user.Email); err != nil {
		h.errLog.Log(r, "failed to create session", err)
		loginError(w, r, "service_unavailable")
		return
	}
	if err := h.users.TouchLastLogin(r.Context(), user.ID); err != nil {
		h.logger.Warn("failed to record last login", zap.Error(err))
	}

	h.logger.Info("user signed in",
		zap.String("user_id", user.ID.Hex()),
		zap.String("provider", p.Name()),
		network.IPField(r))

	http.Redirect(w, r, urlutil.SafeReturn(st.ReturnURL, "", "/"), http.StatusSeeOther)
}

// resolveUser maps an external identity to a user: a linked identity wins,
// then an existing user with the same email (which gets the identity
// linked), then a new user. A disabled user is returned with errDisabled.
func (h *Handler) resolveUser(ctx context.Context, ident *providers.Identity) (*models.User, error) {
	linked, err := h.identities.Find(ctx, ident.Provider, ident.Subject)
	switch {
	case err == nil:
		u, err := h.users.GetByID(ctx, linked.UserID)
		if err != nil {
			return nil, fmt.Errorf("load linked user: %w", err)
		}
		return checkStatus(u)
	case !errors.Is(err, identitystore.ErrNotFound):
		return nil, fmt.Errorf("find identity: %w", err)
	}

	var u *models.User
	if ident.Email != "" {
		u, err = h.users.GetByEmail(ctx, ident.Email)
		if err != nil && !errors.Is(err, userstore.ErrNotFound) {
			return nil, fmt.Errorf("find user by email: %w", err)
		}
	}
	if u == nil {
		created, err := h.users.Create(ctx, models.User{FullName: ident.Name, Email: ident.Email})
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		u = &created
		h.logger.Info("user created", zap.String("user_id", u.ID.Hex()), zap.String("provider", ident.Provider))
	}

	if _, err := h.identities.Link(ctx, u.ID, ident.Provider, ident.Subject, ident.Email); err != nil {
		if !errors.Is(err, identitystore.ErrAlreadyLinked) {
			return nil, fmt.Errorf("link identity: %w", err)
		}
		// A concurrent callback linked it first.
		linked, err := h.identities.Find(ctx, ident.Provider, ident.Subject)
		if err != nil {
			return nil, fmt.Errorf("find identity after link race: %w", err)
		}
		if u, err = h.users.GetByID(ctx, linked.UserID); err != nil {
			return nil, fmt.Errorf("load linked user: %w", err)
		}
	}
	return checkStatus(u)
}

func checkStatus(u *models.User) (*models.User, error) {
	if !status.CanSignIn(u.Status) {
		return u, errDisabled
	}
	return u, nil
}
