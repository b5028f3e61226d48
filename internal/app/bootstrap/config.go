// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/setliststudio/internal/app/system/culture"
	"github.com/dalemusser/setliststudio/internal/app/system/dbinit"
	"github.com/dalemusser/setliststudio/internal/app/system/logging"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "SETLISTSTUDIO"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: SETLISTSTUDIO_MONGO_URI, SETLISTSTUDIO_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "setliststudio", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "setliststudio-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie max age (e.g., 24h, 720h, 30m)"},

	{Name: "csrf_key", Default: "dev-only-csrf-key-please-change-0123456789", Desc: "CSRF token signing key (32+ chars in production)"},

	// Base URL for OAuth callbacks
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public base URL used for OAuth callbacks"},

	// External sign-in
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},
	{Name: "microsoft_client_id", Default: "", Desc: "Microsoft OAuth2 client ID"},
	{Name: "microsoft_client_secret", Default: "", Desc: "Microsoft OAuth2 client secret"},
	{Name: "microsoft_tenant", Default: "common", Desc: "Microsoft tenant (common, organizations, consumers, or a tenant id)"},
	{Name: "facebook_client_id", Default: "", Desc: "Facebook app ID"},
	{Name: "facebook_client_secret", Default: "", Desc: "Facebook app secret"},
	{Name: "oauth_timeout", Default: "10s", Desc: "Timeout for OAuth token exchange and profile fetch"},

	// Cultures
	{Name: "supported_cultures", Default: "en-US,es-ES,fr-FR,de-DE", Desc: "Comma-separated BCP 47 culture tags"},
	{Name: "default_culture", Default: "en-US", Desc: "Fallback culture (must be one of supported_cultures)"},

	// Logging
	{Name: "log_levels", Default: "", Desc: "Per-namespace log levels, e.g. dbinit=debug,live=warn"},

	// Database initialization policy
	{Name: "environment", Default: "", Desc: "Hosting environment label (blank derives it from the core env)"},
	{Name: "running_in_container", Default: false, Desc: "Treat the process as running in a container"},
	{Name: "schema_retry_interval", Default: "30s", Desc: "Retry interval for schema setup after a suppressed failure"},

	// Timeouts
	{Name: "db_ping_timeout", Default: "2s", Desc: "Timeout for database health pings"},
	{Name: "db_short_timeout", Default: "5s", Desc: "Timeout for single-document database operations"},
	{Name: "db_long_timeout", Default: "30s", Desc: "Timeout for multi-step database operations"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, SETLISTSTUDIO_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
//
// The database initialization policy is computed here, once, from the
// environment label and the container signal.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 24*time.Hour),

		CSRFKey: appValues.String("csrf_key"),
		BaseURL: appValues.String("base_url"),

		// External sign-in
		GoogleClientID:        appValues.String("google_client_id"),
		GoogleClientSecret:    appValues.String("google_client_secret"),
		MicrosoftClientID:     appValues.String("microsoft_client_id"),
		MicrosoftClientSecret: appValues.String("microsoft_client_secret"),
		MicrosoftTenant:       appValues.String("microsoft_tenant"),
		FacebookClientID:      appValues.String("facebook_client_id"),
		FacebookClientSecret:  appValues.String("facebook_client_secret"),
		OAuthTimeout:          appValues.Duration("oauth_timeout", 10*time.Second),

		// Cultures
		SupportedCultures: culture.ParseList(appValues.String("supported_cultures")),
		DefaultCulture:    appValues.String("default_culture"),

		LogLevels: appValues.String("log_levels"),

		// Database initialization policy
		Environment:         resolveEnvironment(appValues.String("environment"), coreCfg.Env),
		RunningInContainer:  appValues.Bool("running_in_container") || dbinit.RunningInContainer(nil),
		SchemaRetryInterval: appValues.Duration("schema_retry_interval", 30*time.Second),

		// Timeouts
		DBPingTimeout:  appValues.Duration("db_ping_timeout", 2*time.Second),
		DBShortTimeout: appValues.Duration("db_short_timeout", 5*time.Second),
		DBLongTimeout:  appValues.Duration("db_long_timeout", 30*time.Second),
	}
	appCfg.DBPolicy = dbinit.NewPolicy(appCfg.Environment, appCfg.RunningInContainer)

	logger.Info("database initialization policy",
		zap.String("environment", appCfg.DBPolicy.Environment),
		zap.Bool("in_container", appCfg.DBPolicy.InContainer),
		zap.Bool("fail_fast", appCfg.DBPolicy.FailFast),
	)

	return coreCfg, appCfg, nil
}

// resolveEnvironment returns the configured label, or the label derived
// from the core env when none is configured.
func resolveEnvironment(configured, coreEnv string) string {
	if configured != "" {
		return configured
	}
	return dbinit.EnvironmentName(coreEnv)
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if err := validateAppConfig(appCfg); err != nil {
		logger.Error("invalid app config", zap.Error(err))
		return err
	}
	return nil
}

// validateAppConfig checks the settings that do not need WAFFLE.
func validateAppConfig(appCfg AppConfig) error {
	if len(appCfg.SupportedCultures) == 0 {
		return fmt.Errorf("supported_cultures: %w", culture.ErrNoCultures)
	}
	if _, err := culture.New(appCfg.SupportedCultures, appCfg.DefaultCulture); err != nil {
		return fmt.Errorf("supported_cultures: %w", err)
	}
	if _, err := logging.ParseLevels(appCfg.LogLevels); err != nil {
		return fmt.Errorf("log_levels: %w", err)
	}
	if appCfg.SchemaRetryInterval <= 0 {
		return errors.New("schema_retry_interval must be positive")
	}
	return nil
}
