// Package library reads and writes the TOML files setlistctl imports and
// exports: a song library and a printable setlist.
package library

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dalemusser/setliststudio/internal/app/services"
	"github.com/dalemusser/setliststudio/internal/app/system/inputval"
	"github.com/dalemusser/setliststudio/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidSong is wrapped by every per-song validation failure.
var ErrInvalidSong = errors.New("invalid song")

// Song is one [[songs]] table.
type Song struct {
	Title      string   `toml:"title"`
	Artist     string   `toml:"artist"`
	Album      string   `toml:"album,omitempty"`
	Genre      string   `toml:"genre,omitempty"`
	Key        string   `toml:"key,omitempty"`
	BPM        int      `toml:"bpm,omitempty"`
	Duration   string   `toml:"duration,omitempty"` // m:ss or seconds
	Difficulty int      `toml:"difficulty,omitempty"`
	Tags       []string `toml:"tags,omitempty"`
	Notes      string   `toml:"notes,omitempty"`
}

// Library is a song library file.
type Library struct {
	Songs []Song `toml:"songs"`
}

// Decode parses a library. Unknown keys are rejected so typos do not
// silently drop data.
func Decode(r io.Reader) (*Library, error) {
	var lib Library
	md, err := toml.NewDecoder(r).Decode(&lib)
	if err != nil {
		return nil, fmt.Errorf("failed to parse library: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown library keys: %s", strings.Join(keys, ", "))
	}
	return &lib, nil
}

// Load reads a library file from disk.
func Load(path string) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read library file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Model validates s and converts it to a song owned by owner.
func (s Song) Model(owner primitive.ObjectID) (models.Song, error) {
	switch {
	case strings.TrimSpace(s.Title) == "":
		return models.Song{}, fmt.Errorf("%w: title is required", ErrInvalidSong)
	case strings.TrimSpace(s.Artist) == "":
		return models.Song{}, fmt.Errorf("%w: artist is required", ErrInvalidSong)
	case !models.IsValidMusicalKey(strings.TrimSpace(s.Key)):
		return models.Song{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSong, s.Key)
	case s.BPM != 0 && (s.BPM < models.MinBPM || s.BPM > models.MaxBPM):
		return models.Song{}, fmt.Errorf("%w: bpm must be between %d and %d", ErrInvalidSong, models.MinBPM, models.MaxBPM)
	case s.Difficulty != 0 && (s.Difficulty < models.MinDifficulty || s.Difficulty > models.MaxDifficulty):
		return models.Song{}, fmt.Errorf("%w: difficulty must be between %d and %d", ErrInvalidSong, models.MinDifficulty, models.MaxDifficulty)
	}

	song := models.Song{
		OwnerID:    owner,
		Title:      s.Title,
		Artist:     s.Artist,
		Album:      s.Album,
		Genre:      s.Genre,
		MusicalKey: strings.TrimSpace(s.Key),
		Tags:       s.Tags,
		Notes:      s.Notes,
	}
	if s.BPM != 0 {
		song.BPM = intPtr(s.BPM)
	}
	if s.Difficulty != 0 {
		song.Difficulty = intPtr(s.Difficulty)
	}
	if strings.TrimSpace(s.Duration) != "" {
		secs, ok := inputval.ParseDuration(s.Duration)
		if !ok {
			return models.Song{}, fmt.Errorf("%w: duration %q is not m:ss", ErrInvalidSong, s.Duration)
		}
		song.DurationSeconds = intPtr(secs)
	}
	return song, nil
}

// Models validates every song. Errors name the 1-based song number and
// title; all failures are reported together.
func (l *Library) Models(owner primitive.ObjectID) ([]models.Song, error) {
	out := make([]models.Song, 0, len(l.Songs))
	var errs []error
	for i, s := range l.Songs {
		m, err := s.Model(owner)
		if err != nil {
			errs = append(errs, fmt.Errorf("song %d (%q): %w", i+1, s.Title, err))
			continue
		}
		out = append(out, m)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// FromSongs builds a library file from stored songs.
func FromSongs(songs []models.Song) Library {
	lib := Library{Songs: make([]Song, 0, len(songs))}
	for _, s := range songs {
		out := Song{
			Title:  s.Title,
			Artist: s.Artist,
			Album:  s.Album,
			Genre:  s.Genre,
			Key:    s.MusicalKey,
			Tags:   s.Tags,
			Notes:  s.Notes,
		}
		if s.BPM != nil {
			out.BPM = *s.BPM
		}
		if s.Difficulty != nil {
			out.Difficulty = *s.Difficulty
		}
		out.Duration = s.DurationLabel()
		lib.Songs = append(lib.Songs, out)
	}
	return lib
}

// SetlistItem is one [[items]] table of an exported setlist.
type SetlistItem struct {
	Position         int    `toml:"position"`
	Title            string `toml:"title"`
	Artist           string `toml:"artist,omitempty"`
	Key              string `toml:"key,omitempty"`
	BPM              int    `toml:"bpm,omitempty"`
	Duration         string `toml:"duration,omitempty"`
	Encore           bool   `toml:"encore,omitempty"`
	Optional         bool   `toml:"optional,omitempty"`
	TransitionNotes  string `toml:"transition_notes,omitempty"`
	PerformanceNotes string `toml:"performance_notes,omitempty"`
}

// Setlist is an exported setlist.
type Setlist struct {
	Name            string        `toml:"name"`
	Venue           string        `toml:"venue,omitempty"`
	Date            string        `toml:"date,omitempty"`
	ExpectedMinutes int           `toml:"expected_minutes,omitempty"`
	TotalDuration   string        `toml:"total_duration"`
	Items           []SetlistItem `toml:"items"`
}

// MissingSongTitle stands in for items whose song was deleted.
const MissingSongTitle = "Missing song"

// FromView builds an export from a resolved setlist.
func FromView(v *services.SetlistView) Setlist {
	out := Setlist{
		Name:          v.Name,
		Venue:         v.Venue,
		Date:          inputval.FormatOptionalDate(v.PerformanceDate),
		TotalDuration: v.TotalLabel(),
		Items:         make([]SetlistItem, 0, len(v.Entries)),
	}
	if v.ExpectedMinutes != nil {
		out.ExpectedMinutes = *v.ExpectedMinutes
	}
	for _, e := range v.Entries {
		item := SetlistItem{
			Position:         e.Position,
			Title:            MissingSongTitle,
			Key:              e.Key,
			Encore:           e.Item.IsEncore,
			Optional:         e.Item.IsOptional,
			TransitionNotes:  e.Item.TransitionNotes,
			PerformanceNotes: e.Item.PerformanceNotes,
		}
		if e.Song != nil {
			item.Title = e.Song.Title
			item.Artist = e.Song.Artist
			item.Duration = e.Song.DurationLabel()
		}
		if e.BPM != nil {
			item.BPM = *e.BPM
		}
		out.Items = append(out.Items, item)
	}
	return out
}

// Encode writes v as TOML.
func Encode(w io.Writer, v any) error {
	if err := toml.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("failed to encode TOML: %w", err)
	}
	return nil
}

func intPtr(n int) *int { return &n }
