// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/setliststudio/internal/app/system/normalize"
	"github.com/dalemusser/setliststudio/internal/app/system/status"
	"github.com/dalemusser/setliststudio/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when no user matches.
	ErrNotFound = errors.New("user not found")
	errBadName  = errors.New("full name is required")
	errBadState = errors.New(`status must be "active"|"disabled"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail looks up a user by case/diacritic-insensitive email.
// An empty email never matches.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	folded := text.Fold(normalize.Email(email))
	if folded == "" {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"email_ci": folded})
}

// Create inserts a new user after normalizing fields.
// A blank name falls back to the email's local part.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Email = normalize.Email(u.Email)
	u.EmailCI = text.Fold(u.Email)
	u.FullName = normalize.Name(u.FullName)
	if u.FullName == "" {
		u.FullName = normalize.DisplayNameFromEmail(u.Email)
	}
	if u.FullName == "" {
		return models.User{}, errBadName
	}
	u.FullNameCI = text.Fold(u.FullName)

	if u.Status == "" {
		u.Status = status.Default()
	}
	if !status.IsValid(u.Status) {
		return models.User{}, errBadState
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// UpdateName changes the display name.
func (s *Store) UpdateName(ctx context.Context, id primitive.ObjectID, name string) error {
	name = normalize.Name(name)
	if name == "" {
		return errBadName
	}
	return s.set(ctx, id, bson.M{"full_name": name, "full_name_ci": text.Fold(name)})
}

// SetStatus enables or disables an account.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, st string) error {
	st = normalize.Status(st)
	if !status.IsValid(st) {
		return errBadState
	}
	return s.set(ctx, id, bson.M{"status": st})
}

// TouchLastLogin records a successful sign-in.
func (s *Store) TouchLastLogin(ctx context.Context, id primitive.ObjectID) error {
	return s.set(ctx, id, bson.M{"last_login_at": time.Now().UTC()})
}

func (s *Store) set(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of users.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
