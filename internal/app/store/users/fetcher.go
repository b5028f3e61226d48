// internal/app/store/users/fetcher.go
package userstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/setliststudio/internal/app/system/auth"
	"github.com/dalemusser/setliststudio/internal/app/system/normalize"
	"github.com/dalemusser/setliststudio/internal/app/system/status"
	"github.com/dalemusser/setliststudio/internal/app/system/timeouts"
	"github.com/dalemusser/setliststudio/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Fetcher implements auth.UserFetcher by reloading the user on each request.
type Fetcher struct {
	users  *mongo.Collection
	logger *zap.Logger
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database, logger *zap.Logger) *Fetcher {
	return &Fetcher{users: db.Collection("users"), logger: logger}
}

// FetchUser returns nil, nil when the user is missing or disabled. Any other
// lookup failure is returned so the session survives a database outage.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) (*auth.SessionUser, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	proj := options.FindOne().SetProjection(bson.M{"_id": 1, "full_name": 1, "email": 1, "status": 1})
	if err := f.users.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		f.logger.Warn("session user lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("fetch session user: %w", err)
	}

	if normalize.Status(u.Status) == status.Disabled {
		return nil, nil
	}

	return &auth.SessionUser{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email}, nil
}
