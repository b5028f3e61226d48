// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a musician account. Users sign in only through external providers;
// each linked provider account is an Identity.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped

	Email   string `bson:"email" json:"email"`       // lowercase; may be empty if the provider withheld it
	EmailCI string `bson:"email_ci" json:"email_ci"` // folded for matching

	Status string `bson:"status" json:"status"` // active, disabled

	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
}

// Identity links a user to one account at an external provider.
// The pair (Provider, Subject) is unique across all users.
type Identity struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Provider  string             `bson:"provider" json:"provider"`
	Subject   string             `bson:"subject" json:"subject"` // provider's stable user ID
	Email     string             `bson:"email,omitempty" json:"email,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Site-wide display defaults.
const (
	DefaultSiteName   = "Setlist Studio"
	DefaultFooterHTML = "Setlist Studio: organize your music, plan your performance."
)
