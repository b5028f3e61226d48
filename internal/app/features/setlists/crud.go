// internal/app/features/setlists/crud.go
package setlists

import (
	"html/template"
	"net/http"

	"github.com/dalemusser/setliststudio/internal/app/services"
	"github.com/dalemusser/setliststudio/internal/app/system/htmlsanitize"
	"github.com/dalemusser/setliststudio/internal/app/system/inputval"
	"github.com/dalemusser/setliststudio/internal/app/system/viewdata"
	"github.com/dalemusser/setliststudio/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// FormVM is the view model for the new and edit forms.
type FormVM struct {
	viewdata.BaseVM
	ID     string
	Form   setlistForm
	Error  string
	Action string
}

// EntryRow is one row of the set table with its reorder targets.
type EntryRow struct {
	services.SetlistEntry
	Up    int // position to move to, 0 when already first
	Down  int // position to move to, 0 when already last
	Title string
}

// ShowVM is the view model for one setlist with its songs.
type ShowVM struct {
	viewdata.BaseVM
	View    *services.SetlistView
	Rows    []EntryRow
	Notes   template.HTML
	Library []models.Song // candidates for the add-song form
	Keys    []string
	Item    itemForm
	Error   string
	Success string
}

// ConfirmVM backs the delete and duplicate pages.
type ConfirmVM struct {
	viewdata.BaseVM
	Setlist models.Setlist
	Name    string
	Error   string
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, id string, f setlistForm, errMsg string) {
	vm := FormVM{BaseVM: viewdata.New(r), ID: id, Form: f, Error: errMsg}
	if id == "" {
		vm.Title = "New Setlist"
		vm.BackURL = "/setlists"
		vm.Action = "/setlists/new"
	} else {
		vm.Title = "Edit Setlist"
		vm.BackURL = "/setlists/" + id
		vm.Action = "/setlists/" + id + "/edit"
	}
	if errMsg != "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	templates.Render(w, r, "setlists/form", vm)
}

func (h *Handler) showNew(w http.ResponseWriter, r *http.Request, _ primitive.ObjectID) {
	h.renderForm(w, r, "", setlistForm{IsActive: true, IsTemplate: r.URL.Query().Get("template") == "1"}, "")
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	f := parseSetlistForm(r)
	if res := inputval.Validate(f); res.HasErrors() {
		h.renderForm(w, r, "", f, res.First())
		return
	}

	svc, ok := h.setlistService(w, r)
	if !ok {
		return
	}
	created, err := svc.Create(r.Context(), owner, f.setlist())
	if err != nil {
		h.errLog.Log(r, "failed to create setlist", err)
		h.renderForm(w, r, "", f, "We couldn't save the setlist. Please try again.")
		return
	}
	http.Redirect(w, r, detailURL(created.ID, "created"), http.StatusSeeOther)
}

// renderShow renders the setlist page. A non-empty errMsg comes from a
// rejected add-song form, which is redisplayed with its input.
func (h *Handler) renderShow(w http.ResponseWriter, r *http.Request, owner, id primitive.ObjectID, item itemForm, errMsg string) {
	svc, ok := h.setlistService(w, r)
	if !ok {
		return
	}
	view, err := svc.Get(r.Context(), owner, id)
	if err != nil {
		h.fail(w, r, "failed to load setlist", err)
		return
	}

	vm := ShowVM{
		BaseVM:  viewdata.NewBaseVM(r, view.Name, "/setlists"),
		View:    view,
		Rows:    entryRows(view.Entries),
		Notes:   htmlsanitize.PrepareForDisplay(view.Notes),
		Keys:    models.MusicalKeys,
		Item:    item,
		Error:   errMsg,
		Success: successMessages[r.URL.Query().Get("success")],
	}
	if songs, err := h.services.SongsFor(r); err == nil {
		if vm.Library, err = songs.All(r.Context(), owner); err != nil {
			h.logger.Warn("failed to load library for add-song form", zap.Error(err))
		}
	}
	if errMsg != "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	templates.Render(w, r, "setlists/show", vm)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	h.renderShow(w, r, owner, id, itemForm{}, "")
}

// loadSetlist fetches the {id} setlist without resolving its songs.
func (h *Handler) loadSetlist(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) (*services.SetlistView, bool) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return nil, false
	}
	svc, ok := h.setlistService(w, r)
	if !ok {
		return nil, false
	}
	view, err := svc.Get(r.Context(), owner, id)
	if err != nil {
		h.fail(w, r, "failed to load setlist", err)
		return nil, false
	}
	return view, true
}

func (h *Handler) showEdit(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) {
	view, ok := h.loadSetlist(w, r, owner)
	if !ok {
		return
	}
	h.renderForm(w, r, view.ID.Hex(), formFromSetlist(view.Setlist), "")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	f := parseSetlistForm(r)
	if res := inputval.Validate(f); res.HasErrors() {
		h.renderForm(w, r, id.Hex(), f, res.First())
		return
	}

	svc, ok := h.setlistService(w, r)
	if !ok {
		return
	}
	next := f.setlist()
	next.ID = id
	if _, err := svc.Update(r.Context(), owner, next); err != nil {
		h.fail(w, r, "failed to update setlist", err)
		return
	}
	http.Redirect(w, r, detailURL(id, "updated"), http.StatusSeeOther)
}

func (h *Handler) confirmDelete(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) {
	view, ok := h.loadSetlist(w, r, owner)
	if !ok {
		return
	}
	vm := ConfirmVM{
		BaseVM:  viewdata.NewBaseVM(r, "Delete Setlist", detailURL(view.ID, "")),
		Setlist: view.Setlist,
	}
	templates.Render(w, r, "setlists/delete", vm)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	svc, ok := h.setlistService(w, r)
	if !ok {
		return
	}
	if err := svc.Delete(r.Context(), owner, id); err != nil {
		h.fail(w, r, "failed to delete setlist", err)
		return
	}
	http.Redirect(w, r, "/setlists?success=deleted", http.StatusSeeOther)
}

func (h *Handler) showDuplicate(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) {
	view, ok := h.loadSetlist(w, r, owner)
	if !ok {
		return
	}
	vm := ConfirmVM{
		BaseVM:  viewdata.NewBaseVM(r, "Copy Setlist", detailURL(view.ID, "")),
		Setlist: view.Setlist,
		Name:    view.Name + " (copy)",
	}
	templates.Render(w, r, "setlists/duplicate", vm)
}

// duplicate copies the setlist, typically a template, into a new working
// setlist and opens it.
func (h *Handler) duplicate(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	svc, ok := h.setlistService(w, r)
	if !ok {
		return
	}
	cp, err := svc.Duplicate(r.Context(), owner, id, r.FormValue("name"))
	if err != nil {
		h.fail(w, r, "failed to duplicate setlist", err)
		return
	}
	http.Redirect(w, r, detailURL(cp.ID, "duplicated"), http.StatusSeeOther)
}

func entryRows(entries []services.SetlistEntry) []EntryRow {
	rows := make([]EntryRow, len(entries))
	for i, e := range entries {
		row := EntryRow{SetlistEntry: e, Title: "Missing song"}
		if e.Song != nil {
			row.Title = e.Song.Title
		}
		if i > 0 {
			row.Up = e.Position - 1
		}
		if i < len(entries)-1 {
			row.Down = e.Position + 1
		}
		rows[i] = row
	}
	return rows
}
