// internal/app/store/oauthstate/oauthstatestore.go
package oauthstate

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TTL is how long a sign-in attempt may take.
const TTL = 10 * time.Minute

// ErrInvalid is returned when a state is unknown, expired, already used,
// or issued for a different provider.
var ErrInvalid = errors.New("oauth state is invalid or expired")

// State is one pending sign-in attempt.
type State struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	State     string             `bson:"state"`
	Provider  string             `bson:"provider"`
	ReturnURL string             `bson:"return_url,omitempty"`
	ExpiresAt time.Time          `bson:"expires_at"`
	CreatedAt time.Time          `bson:"created_at"`
}

// Store provides access to the oauth_states collection.
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("oauth_states"), now: time.Now}
}

// Create stores a fresh random state bound to provider and returns it.
func (s *Store) Create(ctx context.Context, provider, returnURL string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(b)
	if err := s.Insert(ctx, token, provider, returnURL); err != nil {
		return "", err
	}
	return token, nil
}

// Insert stores a caller-chosen state.
func (s *Store) Insert(ctx context.Context, state, provider, returnURL string) error {
	now := s.now().UTC()
	_, err := s.c.InsertOne(ctx, State{
		ID:        primitive.NewObjectID(),
		State:     state,
		Provider:  provider,
		ReturnURL: returnURL,
		ExpiresAt: now.Add(TTL),
		CreatedAt: now,
	})
	return err
}

// Consume deletes the state and returns it when it is live and was issued
// for provider. A state can be consumed once.
func (s *Store) Consume(ctx context.Context, state, provider string) (*State, error) {
	if state == "" {
		return nil, ErrInvalid
	}
	var st State
	err := s.c.FindOneAndDelete(ctx, bson.M{
		"state":      state,
		"provider":   provider,
		"expires_at": bson.M{"$gt": s.now().UTC()},
	}).Decode(&st)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalid
		}
		return nil, err
	}
	return &st, nil
}
