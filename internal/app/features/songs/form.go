// internal/app/features/songs/form.go
package songs

import (
	"net/http"
	"strings"

	"github.com/dalemusser/setliststudio/internal/app/system/inputval"
	"github.com/dalemusser/setliststudio/internal/app/system/normalize"
	"github.com/dalemusser/setliststudio/internal/domain/models"
)

// songForm is the raw form input; numeric fields stay strings until they
// validate.
type songForm struct {
	Title      string `json:"title" validate:"required,max=200" label:"Title"`
	Artist     string `json:"artist" validate:"required,max=200" label:"Artist"`
	Album      string `json:"album" validate:"max=200" label:"Album"`
	Genre      string `json:"genre" validate:"max=60" label:"Genre"`
	Key        string `json:"musical_key" validate:"musicalkey" label:"Key"`
	BPM        string `json:"bpm" validate:"bpm" label:"BPM"`
	Duration   string `json:"duration" validate:"duration" label:"Duration"`
	Difficulty string `json:"difficulty" validate:"difficulty" label:"Difficulty"`
	Tags       string `json:"tags" validate:"max=500" label:"Tags"`
	Notes      string `json:"notes" validate:"max=5000" label:"Notes"`
}

func parseForm(r *http.Request) songForm {
	return songForm{
		Title:      strings.TrimSpace(r.FormValue("title")),
		Artist:     strings.TrimSpace(r.FormValue("artist")),
		Album:      strings.TrimSpace(r.FormValue("album")),
		Genre:      strings.TrimSpace(r.FormValue("genre")),
		Key:        strings.TrimSpace(r.FormValue("musical_key")),
		BPM:        strings.TrimSpace(r.FormValue("bpm")),
		Duration:   strings.TrimSpace(r.FormValue("duration")),
		Difficulty: strings.TrimSpace(r.FormValue("difficulty")),
		Tags:       strings.TrimSpace(r.FormValue("tags")),
		Notes:      strings.TrimSpace(r.FormValue("notes")),
	}
}

// formFromSong fills the form for editing.
func formFromSong(s models.Song) songForm {
	f := songForm{
		Title:      s.Title,
		Artist:     s.Artist,
		Album:      s.Album,
		Genre:      s.Genre,
		Key:        s.MusicalKey,
		BPM:        inputval.FormatOptionalInt(s.BPM),
		Difficulty: inputval.FormatOptionalInt(s.Difficulty),
		Tags:       strings.Join(s.Tags, ", "),
		Notes:      s.Notes,
	}
	if s.DurationSeconds != nil {
		f.Duration = models.FormatDuration(*s.DurationSeconds)
	}
	return f
}

// song converts a validated form.
func (f songForm) song() models.Song {
	return models.Song{
		Title:           f.Title,
		Artist:          f.Artist,
		Album:           f.Album,
		Genre:           normalize.Genre(f.Genre),
		MusicalKey:      f.Key,
		BPM:             inputval.OptionalInt(f.BPM),
		DurationSeconds: inputval.OptionalDuration(f.Duration),
		Difficulty:      inputval.OptionalInt(f.Difficulty),
		Tags:            normalize.Tags(f.Tags),
		Notes:           f.Notes,
	}
}
