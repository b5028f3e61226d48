package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown runs once the HTTP server has stopped accepting requests. Jobs
// stop first, then live connections close, then MongoDB disconnects; every
// step runs even when an earlier one fails, within ctx's deadline.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	var errs []error

	if taskRunner != nil {
		if err := taskRunner.Stop(ctx); err != nil {
			logger.Warn("task runner did not stop in time", zap.Error(err))
			errs = append(errs, err)
		}
	}

	if deps.Live != nil {
		logger.Info("closing live connections")
		deps.Live.Close()
	}

	if deps.MongoClient != nil {
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("mongo disconnect failed", zap.Error(err))
			errs = append(errs, err)
		} else {
			logger.Info("mongo disconnected")
		}
	}

	return errors.Join(errs...)
}
