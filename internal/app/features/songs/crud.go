// internal/app/features/songs/crud.go
package songs

import (
	"errors"
	"html/template"
	"net/http"

	errorsfeature "github.com/dalemusser/setliststudio/internal/app/features/errors"
	songstore "github.com/dalemusser/setliststudio/internal/app/store/songs"
	"github.com/dalemusser/setliststudio/internal/app/system/htmlsanitize"
	"github.com/dalemusser/setliststudio/internal/app/system/inputval"
	"github.com/dalemusser/setliststudio/internal/app/system/viewdata"
	"github.com/dalemusser/setliststudio/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FormVM is the view model for the new and edit forms.
type FormVM struct {
	viewdata.BaseVM
	ID           string // empty when creating
	Form         songForm
	Keys         []string
	Difficulties []string
	Genres       []string
	Error        string
	Action       string
}

var difficulties = []string{"1", "2", "3", "4", "5"}

// ShowVM is the view model for a single song.
type ShowVM struct {
	viewdata.BaseVM
	Song    models.Song
	Notes   template.HTML
	Success string
}

// DeleteVM is the view model for the delete confirmation.
type DeleteVM struct {
	viewdata.BaseVM
	Song models.Song
}

// loadSong fetches the {id} song, rendering 404 for a bad or foreign ID.
func (h *Handler) loadSong(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) (*models.Song, bool) {
	svc, ok := h.songService(w, r)
	if !ok {
		return nil, false
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		errorsfeature.NotFound(w, r)
		return nil, false
	}
	song, err := svc.Get(r.Context(), owner, id)
	if err != nil {
		if errors.Is(err, songstore.ErrNotFound) {
			errorsfeature.NotFound(w, r)
		} else {
			h.errLog.ServerError(w, r, "failed to load song", err)
		}
		return nil, false
	}
	return song, true
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID, id string, f songForm, errMsg string) {
	vm := FormVM{
		BaseVM:       viewdata.New(r),
		ID:           id,
		Form:         f,
		Keys:         models.MusicalKeys,
		Difficulties: difficulties,
		Error:        errMsg,
	}
	if svc, err := h.services.SongsFor(r); err == nil {
		vm.Genres, _ = svc.Genres(r.Context(), owner)
	}
	if id == "" {
		vm.Title = "Add Song"
		vm.BackURL = "/songs"
		vm.Action = "/songs/new"
	} else {
		vm.Title = "Edit Song"
		vm.BackURL = "/songs/" + id
		vm.Action = "/songs/" + id + "/edit"
	}
	if errMsg != "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	templates.Render(w, r, "songs/form", vm)
}

func (h *Handler) showNew(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) {
	h.renderForm(w, r, owner, "", songForm{}, "")
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	f := parseForm(r)
	if res := inputval.Validate(f); res.HasErrors() {
		h.renderForm(w, r, owner, "", f, res.First())
		return
	}

	svc, ok := h.songService(w, r)
	if !ok {
		return
	}
	created, err := svc.Create(r.Context(), owner, f.song())
	if err != nil {
		h.errLog.Log(r, "failed to create song", err)
		h.renderForm(w, r, owner, "", f, "We couldn't save the song. Please try again.")
		return
	}

	http.Redirect(w, r, "/songs/"+created.ID.Hex()+"?success=created", http.StatusSeeOther)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) {
	song, ok := h.loadSong(w, r, owner)
	if !ok {
		return
	}
	vm := ShowVM{
		BaseVM:  viewdata.NewBaseVM(r, song.Title, "/songs"),
		Song:    *song,
		Notes:   htmlsanitize.PrepareForDisplay(song.Notes),
		Success: successMessages[r.URL.Query().Get("success")],
	}
	templates.Render(w, r, "songs/show", vm)
}

func (h *Handler) showEdit(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) {
	song, ok := h.loadSong(w, r, owner)
	if !ok {
		return
	}
	h.renderForm(w, r, owner, song.ID.Hex(), formFromSong(*song), "")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) {
	song, ok := h.loadSong(w, r, owner)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	f := parseForm(r)
	if res := inputval.Validate(f); res.HasErrors() {
		h.renderForm(w, r, owner, song.ID.Hex(), f, res.First())
		return
	}

	svc, ok := h.songService(w, r)
	if !ok {
		return
	}
	next := f.song()
	next.ID = song.ID
	if _, err := svc.Update(r.Context(), owner, next); err != nil {
		h.errLog.Log(r, "failed to update song", err)
		h.renderForm(w, r, owner, song.ID.Hex(), f, "We couldn't save the song. Please try again.")
		return
	}

	http.Redirect(w, r, "/songs/"+song.ID.Hex()+"?success=updated", http.StatusSeeOther)
}

func (h *Handler) confirmDelete(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) {
	song, ok := h.loadSong(w, r, owner)
	if !ok {
		return
	}
	vm := DeleteVM{
		BaseVM: viewdata.NewBaseVM(r, "Delete Song", "/songs/"+song.ID.Hex()),
		Song:   *song,
	}
	templates.Render(w, r, "songs/delete", vm)
}

// delete removes the song and, through the service, its setlist items.
func (h *Handler) delete(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) {
	song, ok := h.loadSong(w, r, owner)
	if !ok {
		return
	}
	svc, ok := h.songService(w, r)
	if !ok {
		return
	}
	if err := svc.Delete(r.Context(), owner, song.ID); err != nil {
		if errors.Is(err, songstore.ErrNotFound) {
			errorsfeature.NotFound(w, r)
			return
		}
		h.errLog.ServerError(w, r, "failed to delete song", err)
		return
	}

	http.Redirect(w, r, "/songs?success=deleted", http.StatusSeeOther)
}
