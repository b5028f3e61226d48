// internal/app/features/setlists/form.go
package setlists

import (
	"net/http"
	"strings"

	"github.com/dalemusser/setliststudio/internal/app/system/inputval"
	"github.com/dalemusser/setliststudio/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type setlistForm struct {
	Name            string `json:"name" validate:"required,max=200" label:"Name"`
	Description     string `json:"description" validate:"max=1000" label:"Description"`
	Venue           string `json:"venue" validate:"max=200" label:"Venue"`
	PerformanceDate string `json:"performance_date" validate:"date" label:"Performance date"`
	ExpectedMinutes string `json:"expected_minutes" validate:"minutes" label:"Expected length"`
	IsTemplate      bool   `json:"is_template"`
	IsActive        bool   `json:"is_active"`
	Notes           string `json:"notes" validate:"max=5000" label:"Notes"`
}

func parseSetlistForm(r *http.Request) setlistForm {
	return setlistForm{
		Name:            strings.TrimSpace(r.FormValue("name")),
		Description:     strings.TrimSpace(r.FormValue("description")),
		Venue:           strings.TrimSpace(r.FormValue("venue")),
		PerformanceDate: strings.TrimSpace(r.FormValue("performance_date")),
		ExpectedMinutes: strings.TrimSpace(r.FormValue("expected_minutes")),
		IsTemplate:      r.FormValue("is_template") == "on",
		IsActive:        r.FormValue("is_active") == "on",
		Notes:           strings.TrimSpace(r.FormValue("notes")),
	}
}

func formFromSetlist(sl models.Setlist) setlistForm {
	return setlistForm{
		Name:            sl.Name,
		Description:     sl.Description,
		Venue:           sl.Venue,
		PerformanceDate: inputval.FormatOptionalDate(sl.PerformanceDate),
		ExpectedMinutes: inputval.FormatOptionalInt(sl.ExpectedMinutes),
		IsTemplate:      sl.IsTemplate,
		IsActive:        sl.IsActive,
		Notes:           sl.Notes,
	}
}

func (f setlistForm) setlist() models.Setlist {
	return models.Setlist{
		Name:            f.Name,
		Description:     f.Description,
		Venue:           f.Venue,
		PerformanceDate: inputval.OptionalDate(f.PerformanceDate),
		ExpectedMinutes: inputval.OptionalInt(f.ExpectedMinutes),
		IsTemplate:      f.IsTemplate,
		IsActive:        f.IsActive,
		Notes:           f.Notes,
	}
}

// itemForm is one song entry of a set. SongID is only read when adding.
type itemForm struct {
	SongID           string `json:"song_id" validate:"objectid" label:"Song"`
	CustomBPM        string `json:"custom_bpm" validate:"bpm" label:"BPM override"`
	CustomKey        string `json:"custom_key" validate:"musicalkey" label:"Key override"`
	TransitionNotes  string `json:"transition_notes" validate:"max=500" label:"Transition notes"`
	PerformanceNotes string `json:"performance_notes" validate:"max=1000" label:"Performance notes"`
	IsEncore         bool   `json:"is_encore"`
	IsOptional       bool   `json:"is_optional"`
}

func parseItemForm(r *http.Request) itemForm {
	return itemForm{
		SongID:           strings.TrimSpace(r.FormValue("song_id")),
		CustomBPM:        strings.TrimSpace(r.FormValue("custom_bpm")),
		CustomKey:        strings.TrimSpace(r.FormValue("custom_key")),
		TransitionNotes:  strings.TrimSpace(r.FormValue("transition_notes")),
		PerformanceNotes: strings.TrimSpace(r.FormValue("performance_notes")),
		IsEncore:         r.FormValue("is_encore") == "on",
		IsOptional:       r.FormValue("is_optional") == "on",
	}
}

func formFromItem(it models.SetlistItem) itemForm {
	return itemForm{
		SongID:           it.SongID.Hex(),
		CustomBPM:        inputval.FormatOptionalInt(it.CustomBPM),
		CustomKey:        it.CustomKey,
		TransitionNotes:  it.TransitionNotes,
		PerformanceNotes: it.PerformanceNotes,
		IsEncore:         it.IsEncore,
		IsOptional:       it.IsOptional,
	}
}

func (f itemForm) item() models.SetlistItem {
	songID, _ := primitive.ObjectIDFromHex(f.SongID)
	return models.SetlistItem{
		SongID:           songID,
		CustomBPM:        inputval.OptionalInt(f.CustomBPM),
		CustomKey:        f.CustomKey,
		TransitionNotes:  f.TransitionNotes,
		PerformanceNotes: f.PerformanceNotes,
		IsEncore:         f.IsEncore,
		IsOptional:       f.IsOptional,
	}
}
