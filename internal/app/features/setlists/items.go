// internal/app/features/setlists/items.go
package setlists

import (
	"errors"
	"net/http"
	"strconv"

	setliststore "github.com/dalemusser/setliststudio/internal/app/store/setlists"
	songstore "github.com/dalemusser/setliststudio/internal/app/store/songs"
	"github.com/dalemusser/setliststudio/internal/app/system/inputval"
	"github.com/dalemusser/setliststudio/internal/app/system/viewdata"
	"github.com/dalemusser/setliststudio/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ItemVM is the view model for editing one set entry.
type ItemVM struct {
	viewdata.BaseVM
	SetlistID string
	ItemID    string
	Song      *models.Song
	Form      itemForm
	Keys      []string
	Error     string
}

// addItem appends a song to the set.
func (h *Handler) addItem(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	f := parseItemForm(r)
	if f.SongID == "" {
		h.renderShow(w, r, owner, id, f, "Choose a song to add.")
		return
	}
	if res := inputval.Validate(f); res.HasErrors() {
		h.renderShow(w, r, owner, id, f, res.First())
		return
	}

	svc, ok := h.setlistService(w, r)
	if !ok {
		return
	}
	if _, err := svc.AddSong(r.Context(), owner, id, f.item()); err != nil {
		if errors.Is(err, songstore.ErrNotFound) {
			h.renderShow(w, r, owner, id, f, "That song is not in your library.")
			return
		}
		h.fail(w, r, "failed to add song to setlist", err)
		return
	}
	http.Redirect(w, r, detailURL(id, "item_added"), http.StatusSeeOther)
}

// itemIDs parses {id} and {itemID}.
func itemIDs(w http.ResponseWriter, r *http.Request) (id, itemID primitive.ObjectID, ok bool) {
	if id, ok = pathID(w, r, "id"); !ok {
		return
	}
	itemID, ok = pathID(w, r, "itemID")
	return
}

func (h *Handler) renderItem(w http.ResponseWriter, r *http.Request, owner, id, itemID primitive.ObjectID, f *itemForm, errMsg string) {
	svc, ok := h.setlistService(w, r)
	if !ok {
		return
	}
	view, err := svc.Get(r.Context(), owner, id)
	if err != nil {
		h.fail(w, r, "failed to load setlist", err)
		return
	}
	idx := view.IndexOfItem(itemID)
	if idx < 0 {
		h.fail(w, r, "", setliststore.ErrItemNotFound)
		return
	}
	entry := view.Entries[idx]

	vm := ItemVM{
		BaseVM:    viewdata.NewBaseVM(r, "Edit Set Entry", detailURL(id, "")),
		SetlistID: id.Hex(),
		ItemID:    itemID.Hex(),
		Song:      entry.Song,
		Keys:      models.MusicalKeys,
		Error:     errMsg,
	}
	if f != nil {
		vm.Form = *f
	} else {
		vm.Form = formFromItem(entry.Item)
	}
	if errMsg != "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	templates.Render(w, r, "setlists/item", vm)
}

func (h *Handler) showEditItem(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) {
	id, itemID, ok := itemIDs(w, r)
	if !ok {
		return
	}
	h.renderItem(w, r, owner, id, itemID, nil, "")
}

// updateItem saves the per-performance overrides of one entry. The song
// itself cannot be swapped here.
func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) {
	id, itemID, ok := itemIDs(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	f := parseItemForm(r)
	f.SongID = ""
	if res := inputval.Validate(f); res.HasErrors() {
		h.renderItem(w, r, owner, id, itemID, &f, res.First())
		return
	}

	svc, ok := h.setlistService(w, r)
	if !ok {
		return
	}
	item := f.item()
	item.ID = itemID
	if _, err := svc.UpdateItem(r.Context(), owner, id, item); err != nil {
		h.fail(w, r, "failed to update setlist item", err)
		return
	}
	http.Redirect(w, r, detailURL(id, "item_updated"), http.StatusSeeOther)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) {
	id, itemID, ok := itemIDs(w, r)
	if !ok {
		return
	}
	svc, ok := h.setlistService(w, r)
	if !ok {
		return
	}
	if _, err := svc.RemoveItem(r.Context(), owner, id, itemID); err != nil {
		h.fail(w, r, "failed to remove setlist item", err)
		return
	}
	http.Redirect(w, r, detailURL(id, "item_removed"), http.StatusSeeOther)
}

// moveItem moves an entry to the 1-based position in the form. Positions
// past either end are clamped.
func (h *Handler) moveItem(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) {
	id, itemID, ok := itemIDs(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	pos, err := strconv.Atoi(r.FormValue("position"))
	if err != nil {
		http.Error(w, "position must be a number", http.StatusBadRequest)
		return
	}

	svc, ok := h.setlistService(w, r)
	if !ok {
		return
	}
	if _, err := svc.MoveItem(r.Context(), owner, id, itemID, pos-1); err != nil {
		h.fail(w, r, "failed to move setlist item", err)
		return
	}
	http.Redirect(w, r, detailURL(id, "item_moved"), http.StatusSeeOther)
}
