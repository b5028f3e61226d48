// internal/domain/models/song.go
package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Song is an entry in a musician's library.
type Song struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID primitive.ObjectID `bson:"owner_id" json:"owner_id"`

	Title    string `bson:"title" json:"title"`
	TitleCI  string `bson:"title_ci" json:"-"`
	Artist   string `bson:"artist" json:"artist"`
	ArtistCI string `bson:"artist_ci" json:"-"`
	Album    string `bson:"album,omitempty" json:"album,omitempty"`
	Genre    string `bson:"genre,omitempty" json:"genre,omitempty"`

	MusicalKey      string `bson:"musical_key,omitempty" json:"musical_key,omitempty"`
	BPM             *int   `bson:"bpm,omitempty" json:"bpm,omitempty"`
	DurationSeconds *int   `bson:"duration_seconds,omitempty" json:"duration_seconds,omitempty"`
	Difficulty      *int   `bson:"difficulty,omitempty" json:"difficulty,omitempty"` // 1 (easy) to 5 (hard)

	Tags  []string `bson:"tags,omitempty" json:"tags,omitempty"`
	Notes string   `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Song field limits.
const (
	MinBPM            = 40
	MaxBPM            = 250
	MinDifficulty     = 1
	MaxDifficulty     = 5
	MaxDurationSecond = 3600
)

// MusicalKeys lists the accepted key signatures, majors then minors.
var MusicalKeys = []string{
	"C", "C#", "Db", "D", "D#", "Eb", "E", "F", "F#", "Gb", "G", "G#", "Ab", "A", "A#", "Bb", "B",
	"Cm", "C#m", "Dbm", "Dm", "D#m", "Ebm", "Em", "Fm", "F#m", "Gbm", "Gm", "G#m", "Abm", "Am", "A#m", "Bbm", "Bm",
}

// IsValidMusicalKey reports whether k is an accepted key signature.
// The empty string is valid (key unknown).
func IsValidMusicalKey(k string) bool {
	if k == "" {
		return true
	}
	for _, v := range MusicalKeys {
		if v == k {
			return true
		}
	}
	return false
}

// FormatDuration renders seconds as m:ss (or h:mm:ss past an hour).
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// DurationLabel returns the song's formatted duration or "" when unknown.
func (s Song) DurationLabel() string {
	if s.DurationSeconds == nil {
		return ""
	}
	return FormatDuration(*s.DurationSeconds)
}
