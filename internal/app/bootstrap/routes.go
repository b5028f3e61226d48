// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	authexternalfeature "github.com/dalemusser/setliststudio/internal/app/features/authexternal"
	culturefeature "github.com/dalemusser/setliststudio/internal/app/features/culture"
	errorsfeature "github.com/dalemusser/setliststudio/internal/app/features/errors"
	healthfeature "github.com/dalemusser/setliststudio/internal/app/features/health"
	homefeature "github.com/dalemusser/setliststudio/internal/app/features/home"
	identityfeature "github.com/dalemusser/setliststudio/internal/app/features/identity"
	livefeature "github.com/dalemusser/setliststudio/internal/app/features/live"
	loginfeature "github.com/dalemusser/setliststudio/internal/app/features/login"
	logoutfeature "github.com/dalemusser/setliststudio/internal/app/features/logout"
	setlistsfeature "github.com/dalemusser/setliststudio/internal/app/features/setlists"
	songsfeature "github.com/dalemusser/setliststudio/internal/app/features/songs"
	appresources "github.com/dalemusser/setliststudio/internal/app/resources"
	"github.com/dalemusser/setliststudio/internal/app/services"
	userstore "github.com/dalemusser/setliststudio/internal/app/store/users"
	"github.com/dalemusser/setliststudio/internal/app/system/auth"
	"github.com/dalemusser/setliststudio/internal/app/system/culture"
	"github.com/dalemusser/setliststudio/internal/app/system/live"
	"github.com/dalemusser/setliststudio/internal/app/system/logging"
	"github.com/dalemusser/setliststudio/internal/app/system/providers"
	"github.com/dalemusser/setliststudio/internal/app/system/scope"
	"github.com/dalemusser/setliststudio/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// requestTimeout bounds every request except the live connection.
const requestTimeout = 30 * time.Second

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// It builds the long-lived collaborators (session manager, template engine,
// culture negotiator, provider registry, service registry) and hands them
// to NewRouter.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	levels, err := logging.ParseLevels(appCfg.LogLevels)
	if err != nil {
		return nil, err
	}

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	authLog := levels.Named(logger, logging.NSAuth)
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, authLog)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Refresh the session user from MongoDB on each request so disabled
	// accounts are signed out immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase, authLog))

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	negotiator, err := culture.New(appCfg.SupportedCultures, appCfg.DefaultCulture)
	if err != nil {
		return nil, err
	}

	provs := providers.FromConfig(providers.Config{
		BaseURL: appCfg.BaseURL,
		Google: providers.Credentials{
			ClientID:     appCfg.GoogleClientID,
			ClientSecret: appCfg.GoogleClientSecret,
		},
		Microsoft: providers.Credentials{
			ClientID:     appCfg.MicrosoftClientID,
			ClientSecret: appCfg.MicrosoftClientSecret,
			Tenant:       appCfg.MicrosoftTenant,
		},
		Facebook: providers.Credentials{
			ClientID:     appCfg.FacebookClientID,
			ClientSecret: appCfg.FacebookClientSecret,
		},
		Timeout: appCfg.OAuthTimeout,
	})
	authLog.Info("external sign-in providers", zap.Strings("configured", provs.Names()))

	return NewRouter(RouterDeps{
		CoreConfig:    coreCfg,
		MongoClient:   deps.MongoClient,
		MongoDatabase: deps.MongoDatabase,
		SchemaReady:   deps.schemaReady,
		Authenticator: sessionMgr,
		Sessions:      sessionMgr,
		Providers:     provs,
		Services:      services.NewRegistry(deps.MongoDatabase, deps.Live, levels, logger),
		Cultures:      negotiator,
		Live:          deps.Live,
		CSRFKey:       appCfg.CSRFKey,
		SecureCookies: secure,
		CookieDomain:  appCfg.SessionDomain,
		Levels:        levels,
		Logger:        logger,
	}), nil
}

// RouterDeps lists what NewRouter needs. Tests build one directly with a
// StaticAuthenticator in place of the session manager.
type RouterDeps struct {
	// CoreConfig drives CORS and security headers. Nil skips both.
	CoreConfig *config.CoreConfig

	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	SchemaReady   func() bool

	// Authenticator resolves the signed-in user for each request.
	Authenticator auth.Authenticator
	// Sessions creates and destroys cookie sessions at sign-in and sign-out.
	Sessions *auth.SessionManager

	Providers *providers.Registry
	Services  *services.Registry
	Cultures  *culture.Negotiator
	Live      *live.Hub

	CSRFKey       string
	SecureCookies bool
	CookieDomain  string

	Levels logging.Levels
	Logger *zap.Logger
}

// NewRouter builds the router and middleware stack.
func NewRouter(d RouterDeps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	httpLog := d.Levels.Named(logger, logging.NSHTTP)

	viewdata.Init(d.Cultures)
	errLog := errorsfeature.NewErrorLogger(httpLog)
	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if d.CoreConfig != nil {
		// CORS middleware: must be early in the chain to handle preflight requests.
		r.Use(middleware.CORSFromConfig(d.CoreConfig))
		// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
		r.Use(middleware.SecurityHeadersFromConfig(d.CoreConfig))
	}

	// Culture negotiation: cookie, then Accept-Language, then the default.
	if d.Cultures != nil {
		r.Use(d.Cultures.Middleware)
	}

	// One unit of work per request; scoped services live and die with it.
	r.Use(scope.Middleware(httpLog))

	// Authentication strategy: loads the signed-in user into context.
	r.Use(auth.Middleware(d.Authenticator))

	r.Use(csrfMiddleware(d, httpLog))

	// ─────────────────────────────────────────────────────────────────────────────
	// Routes
	// ─────────────────────────────────────────────────────────────────────────────

	// Realtime transport. Long-lived, so it sits outside the request timeout.
	if d.Live != nil {
		r.Mount(livefeature.Path, livefeature.Routes(livefeature.NewHandler(d.Live, d.Levels.Named(logger, logging.NSLive))))
	}

	r.Group(func(r chi.Router) {
		// Request timeout middleware: prevents requests from hanging indefinitely.
		r.Use(chimw.Timeout(requestTimeout))

		// Health check endpoints for load balancers and orchestrators
		healthHandler := healthfeature.NewHandler(d.MongoClient, d.SchemaReady, logger)
		r.Mount("/health", healthfeature.Routes(healthHandler))
		healthfeature.MountRootEndpoints(r, healthHandler)

		// Static assets
		// /static/* serves files from disk (static directory)
		r.Handle("/static/*", fileserver.Handler("/static", "static"))
		// /assets/* serves embedded assets (bundled into the binary)
		r.Handle("/assets/*", appresources.AssetsHandler("/assets"))

		// Public pages
		r.Mount("/", homefeature.Routes(homefeature.NewHandler(d.Services, errLog, logger)))
		r.Mount("/culture", culturefeature.Routes(culturefeature.NewHandler(d.Cultures, d.SecureCookies, logger)))

		// Authentication
		authLog := d.Levels.Named(logger, logging.NSAuth)
		r.Mount("/login", loginfeature.Routes(loginfeature.NewHandler(authLog)))
		r.Mount("/auth", authexternalfeature.Routes(authexternalfeature.NewHandler(
			d.MongoDatabase,
			d.Providers,
			d.Sessions,
			errLog,
			authLog,
		)))
		r.Mount("/logout", logoutfeature.Routes(logoutfeature.NewHandler(d.Sessions, authLog)))
		r.Mount("/Identity", identityfeature.Routes())

		// Library
		r.Mount("/songs", songsfeature.Routes(songsfeature.NewHandler(d.Services, errLog, d.Levels.Named(logger, logging.NSSongs))))
		r.Mount("/setlists", setlistsfeature.Routes(setlistsfeature.NewHandler(d.Services, errLog, d.Levels.Named(logger, logging.NSSetlists))))

		// Error pages
		r.Get("/forbidden", errorsHandler.Forbidden)
		r.Get("/unauthorized", errorsHandler.Unauthorized)
	})

	// 404 catch-all for unmatched routes
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	return r
}

// csrfMiddleware protects every state-changing form post.
func csrfMiddleware(d RouterDeps, logger *zap.Logger) func(http.Handler) http.Handler {
	// Cookie name is "setliststudio_csrf" to avoid collisions with other
	// services on the same domain.
	opts := []csrf.Option{
		csrf.Secure(d.SecureCookies),
		csrf.Path("/"),
		csrf.CookieName("setliststudio_csrf"),
		csrf.FieldName("csrf_token"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			errorsfeature.Forbidden(w, req)
		})),
	}
	// In dev mode, trust localhost origins for CSRF validation.
	if !d.SecureCookies {
		opts = append(opts, csrf.TrustedOrigins([]string{
			"localhost:8080",
			"localhost:3000",
			"127.0.0.1:8080",
			"127.0.0.1:3000",
		}))
	}
	if d.CookieDomain != "" {
		opts = append(opts, csrf.Domain(d.CookieDomain))
	}
	protect := csrf.Protect([]byte(d.CSRFKey), opts...)
	if d.SecureCookies {
		return protect
	}

	// Without TLS the origin check must not assume an https referer.
	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.TLS == nil {
				req = csrf.PlaintextHTTPRequest(req)
			}
			h.ServeHTTP(w, req)
		})
	}
}
