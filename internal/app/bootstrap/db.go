// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dalemusser/setliststudio/internal/app/system/indexes"
	"github.com/dalemusser/setliststudio/internal/app/system/live"
	"github.com/dalemusser/setliststudio/internal/app/system/logging"
	"github.com/dalemusser/setliststudio/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectDB connects to MongoDB and creates the live hub.
//
// A failed connect goes through the database initialization policy. When
// the policy suppresses it, ConnectDB returns a lazy client so the process
// still serves pages that need no data and health checks report the outage.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	levels, _ := logging.ParseLevels(appCfg.LogLevels)
	dblog := levels.Named(logger, logging.NSDBInit)

	poolCfg := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
	if err != nil {
		if perr := appCfg.DBPolicy.Handle(fmt.Errorf("connect to MongoDB: %w", err), dblog); perr != nil {
			return DBDeps{}, perr
		}
		client, err = lazyClient(appCfg.MongoURI, poolCfg.MaxPoolSize)
		if err != nil {
			return DBDeps{}, fmt.Errorf("create lazy MongoDB client: %w", err)
		}
		dblog.Warn("serving without a database connection; MongoDB will be retried on use")
	} else {
		dblog.Info("connected to MongoDB",
			zap.String("database", appCfg.MongoDatabase),
			zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
			zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
		)
	}

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		SchemaReady:   new(atomic.Bool),
		Live:          live.NewHub(levels.Named(logger, logging.NSLive)),
	}, nil
}

// lazyClient builds a client without dialing; the driver connects on the
// first operation.
func lazyClient(uri string, maxPool uint64) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(uri).SetMaxPoolSize(maxPool)
	return mongo.Connect(context.Background(), opts)
}

// EnsureSchema creates collections, validators and indexes.
//
// Failures go through the database initialization policy: fail-fast
// environments abort startup, everyone else continues with the schema
// marked not-ready and Startup schedules a retry.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	levels, _ := logging.ParseLevels(appCfg.LogLevels)
	dblog := levels.Named(logger, logging.NSDBInit)

	if err := ensureSchema(ctx, deps.MongoDatabase, dblog); err != nil {
		return appCfg.DBPolicy.Handle(err, dblog)
	}
	if deps.SchemaReady != nil {
		deps.SchemaReady.Store(true)
	}
	return nil
}

// ensureSchema pings the server, then ensures validators and indexes.
func ensureSchema(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if err := db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return fmt.Errorf("ping MongoDB: %w", err)
	}

	logger.Info("ensuring collections and validators")
	if err := validators.EnsureAll(ctx, db, logger); err != nil {
		return fmt.Errorf("ensure validators: %w", err)
	}

	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAllWithLogger(ctx, db, logger); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	logger.Info("database schema ensured successfully")
	return nil
}
