// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/setliststudio/internal/app/resources"
	"github.com/dalemusser/setliststudio/internal/app/system/logging"
	"github.com/dalemusser/setliststudio/internal/app/system/tasks"
	"github.com/dalemusser/setliststudio/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// It registers the shared templates, applies the configured timeouts and
// starts the background task runner. When EnsureSchema failed and the
// policy let startup continue, the runner retries schema setup until it
// succeeds.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	timeouts.Configure(timeouts.Config{
		Ping:  appCfg.DBPingTimeout,
		Short: appCfg.DBShortTimeout,
		Long:  appCfg.DBLongTimeout,
	})

	levels, _ := logging.ParseLevels(appCfg.LogLevels)
	startTaskRunner(appCfg, deps, levels.Named(logger, logging.NSDBInit))

	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// startTaskRunner initializes and starts the background task runner.
func startTaskRunner(appCfg AppConfig, deps DBDeps, logger *zap.Logger) {
	taskRunner = newTaskRunner(appCfg, deps, logger)
	taskRunner.Start()
}

// newTaskRunner registers the cleanup job and, when the schema is not
// ready, the schema retry job.
func newTaskRunner(appCfg AppConfig, deps DBDeps, logger *zap.Logger) *tasks.Runner {
	r := tasks.New(logger)
	r.Register(tasks.OAuthStateCleanupJob(deps.MongoDatabase, logger))

	if !deps.schemaReady() {
		logger.Warn("schema not ready; scheduling retry",
			zap.Duration("interval", appCfg.SchemaRetryInterval))
		r.Register(tasks.SchemaRetryJob(appCfg.SchemaRetryInterval, func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
			defer cancel()
			if err := ensureSchema(ctx, deps.MongoDatabase, logger); err != nil {
				return err
			}
			deps.SchemaReady.Store(true)
			return nil
		}, logger))
	}
	return r
}
