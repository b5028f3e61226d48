// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"github.com/dalemusser/waffle/app"
)

// Hooks wires this app into the WAFFLE lifecycle.
// Each function is called in order by app.Run, from configuration
// loading through DB setup, one-time startup work, HTTP handler
// construction, and finally graceful shutdown.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "setliststudio", // used only for logging/diagnostics
	LoadConfig:     LoadConfig,      // load core + app config, compute the DB init policy
	ValidateConfig: ValidateConfig,  // MongoDB URI, cultures, log levels
	ConnectDB:      ConnectDB,       // connect to MongoDB (lazy client when suppressed)
	EnsureSchema:   EnsureSchema,    // validators + indexes under the DB init policy
	Startup:        Startup,         // shared templates, timeouts, background jobs
	BuildHandler:   BuildHandler,    // build the HTTP router + middleware stack
	Shutdown:       Shutdown,        // stop jobs, close live connections, disconnect MongoDB
}
