// internal/app/store/identities/identitystore.go
package identitystore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/setliststudio/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no identity matches.
	ErrNotFound = errors.New("identity not found")
	// ErrAlreadyLinked is returned when the provider account is linked already.
	ErrAlreadyLinked = errors.New("this provider account is already linked")
	errBadProvider   = errors.New("unsupported provider")
	errBadSubject    = errors.New("subject is required")
)

// Store provides access to the identities collection.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("identities")}
}

// Find returns the identity for a provider account.
func (s *Store) Find(ctx context.Context, provider, subject string) (*models.Identity, error) {
	var id models.Identity
	err := s.c.FindOne(ctx, bson.M{
		"provider": strings.ToLower(provider),
		"subject":  subject,
	}).Decode(&id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &id, nil
}

// Link records that userID owns the provider account.
func (s *Store) Link(ctx context.Context, userID primitive.ObjectID, provider, subject, email string) (models.Identity, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	subject = strings.TrimSpace(subject)
	if !models.IsValidAuthProvider(provider) {
		return models.Identity{}, errBadProvider
	}
	if subject == "" {
		return models.Identity{}, errBadSubject
	}

	id := models.Identity{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Provider:  provider,
		Subject:   subject,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, id); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Identity{}, ErrAlreadyLinked
		}
		return models.Identity{}, err
	}
	return id, nil
}

// ListForUser returns the user's linked identities ordered by provider.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Identity, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.D{{Key: "provider", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Identity
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Unlink removes one of the user's identities.
func (s *Store) Unlink(ctx context.Context, userID primitive.ObjectID, provider string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"user_id": userID, "provider": strings.ToLower(provider)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
