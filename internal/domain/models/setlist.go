// internal/domain/models/setlist.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Setlist is an ordered plan of songs for a performance.
// Item order is the order of the Items slice.
type Setlist struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID primitive.ObjectID `bson:"owner_id" json:"owner_id"`

	Name        string `bson:"name" json:"name"`
	NameCI      string `bson:"name_ci" json:"-"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Venue       string `bson:"venue,omitempty" json:"venue,omitempty"`

	PerformanceDate *time.Time `bson:"performance_date,omitempty" json:"performance_date,omitempty"`
	ExpectedMinutes *int       `bson:"expected_minutes,omitempty" json:"expected_minutes,omitempty"`

	IsTemplate bool   `bson:"is_template" json:"is_template"`
	IsActive   bool   `bson:"is_active" json:"is_active"`
	Notes      string `bson:"notes,omitempty" json:"notes,omitempty"`

	Items []SetlistItem `bson:"items" json:"items"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// MaxExpectedMinutes bounds a setlist's planned length.
const MaxExpectedMinutes = 600

// SetlistItem places one song in a setlist, with per-performance overrides.
type SetlistItem struct {
	ID               primitive.ObjectID `bson:"_id" json:"id"`
	SongID           primitive.ObjectID `bson:"song_id" json:"song_id"`
	TransitionNotes  string             `bson:"transition_notes,omitempty" json:"transition_notes,omitempty"`
	PerformanceNotes string             `bson:"performance_notes,omitempty" json:"performance_notes,omitempty"`
	CustomBPM        *int               `bson:"custom_bpm,omitempty" json:"custom_bpm,omitempty"`
	CustomKey        string             `bson:"custom_key,omitempty" json:"custom_key,omitempty"`
	IsEncore         bool               `bson:"is_encore" json:"is_encore"`
	IsOptional       bool               `bson:"is_optional" json:"is_optional"`
}

// IndexOfItem returns the position of the item with the given ID, or -1.
func (s *Setlist) IndexOfItem(itemID primitive.ObjectID) int {
	for i, it := range s.Items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}
