// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// OAuthStateCleanupJob removes expired sign-in state tokens. The TTL index
// does the same eventually; this keeps the collection tight between sweeps.
func OAuthStateCleanupJob(db *mongo.Database, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: 15 * time.Minute,
		Run: func(ctx context.Context) error {
			res, err := db.Collection("oauth_states").DeleteMany(ctx, bson.M{
				"expires_at": bson.M{"$lt": time.Now()},
			})
			if err != nil {
				return err
			}
			if res.DeletedCount > 0 {
				logger.Info("cleaned up expired oauth states",
					zap.Int64("deleted", res.DeletedCount))
			}
			return nil
		},
	}
}

// SchemaRetryJob retries database schema setup after a suppressed startup
// failure. It stops itself once ensure succeeds.
func SchemaRetryJob(interval time.Duration, ensure func(ctx context.Context) error, logger *zap.Logger) Job {
	attempt := 0
	return Job{
		Name:         "schema-retry",
		Interval:     interval,
		SkipFirstRun: true,
		Run: func(ctx context.Context) error {
			attempt++
			if err := ensure(ctx); err != nil {
				logger.Warn("schema setup still failing",
					zap.Int("attempt", attempt),
					zap.Error(err))
				return nil
			}
			logger.Info("schema setup succeeded after retry", zap.Int("attempt", attempt))
			return ErrStop
		},
	}
}
