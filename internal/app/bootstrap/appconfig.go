// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/setliststudio/internal/app/system/dbinit"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, log level, CORS); everything the
// song library and sign-in flow need lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: setliststudio-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Maximum session cookie lifetime (default: 24h)

	// CSRF protection configuration
	CSRFKey string // Secret key for CSRF token signing (32 bytes, must be strong in production)

	// Base URL used to build OAuth callback URLs
	BaseURL string // e.g., "https://setlists.example.com" or "http://localhost:8080"

	// External sign-in providers. A provider without both id and secret is not offered.
	GoogleClientID        string
	GoogleClientSecret    string
	MicrosoftClientID     string
	MicrosoftClientSecret string
	MicrosoftTenant       string // "common" unless the app is single-tenant
	FacebookClientID      string
	FacebookClientSecret  string
	OAuthTimeout          time.Duration // HTTP timeout for token exchange and profile fetch

	// UI cultures
	SupportedCultures []string // BCP 47 tags, first is the fallback
	DefaultCulture    string   // blank means the first supported culture

	// Per-namespace log levels, e.g. "dbinit=debug,live=warn"
	LogLevels string

	// Database initialization policy
	Environment         string        // hosting environment label ("Development", "Production", ...)
	RunningInContainer  bool          // container signal from config or DOTNET_RUNNING_IN_CONTAINER
	DBPolicy            dbinit.Policy // computed once in LoadConfig
	SchemaRetryInterval time.Duration // retry cadence after a suppressed schema failure

	// Database operation timeouts
	DBPingTimeout  time.Duration
	DBShortTimeout time.Duration
	DBLongTimeout  time.Duration
}
