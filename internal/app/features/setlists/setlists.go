// internal/app/features/setlists/setlists.go
package setlists

import (
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/setliststudio/internal/app/features/errors"
	"github.com/dalemusser/setliststudio/internal/app/services"
	setliststore "github.com/dalemusser/setliststudio/internal/app/store/setlists"
	songstore "github.com/dalemusser/setliststudio/internal/app/store/songs"
	"github.com/dalemusser/setliststudio/internal/app/system/auth"
	"github.com/dalemusser/setliststudio/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// pageSize is the number of setlists per list page.
const pageSize = 20

// Handler provides the setlist pages.
type Handler struct {
	services *services.Registry
	errLog   *errorsfeature.ErrorLogger
	logger   *zap.Logger
}

// NewHandler creates a new setlists Handler.
func NewHandler(reg *services.Registry, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		services: reg,
		errLog:   errLog,
		logger:   logger,
	}
}

// Routes returns a chi.Router with setlist routes mounted. Every route needs
// a signed-in musician.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", authz.RequireOwner(h.list))
	r.Get("/new", authz.RequireOwner(h.showNew))
	r.Post("/new", authz.RequireOwner(h.create))

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", authz.RequireOwner(h.show))
		r.Get("/edit", authz.RequireOwner(h.showEdit))
		r.Post("/edit", authz.RequireOwner(h.update))
		r.Get("/delete", authz.RequireOwner(h.confirmDelete))
		r.Post("/delete", authz.RequireOwner(h.delete))
		r.Get("/duplicate", authz.RequireOwner(h.showDuplicate))
		r.Post("/duplicate", authz.RequireOwner(h.duplicate))

		r.Post("/items", authz.RequireOwner(h.addItem))
		r.Get("/items/{itemID}/edit", authz.RequireOwner(h.showEditItem))
		r.Post("/items/{itemID}/edit", authz.RequireOwner(h.updateItem))
		r.Post("/items/{itemID}/remove", authz.RequireOwner(h.removeItem))
		r.Post("/items/{itemID}/move", authz.RequireOwner(h.moveItem))
	})
	return r
}

func (h *Handler) setlistService(w http.ResponseWriter, r *http.Request) (services.SetlistService, bool) {
	svc, err := h.services.SetlistsFor(r)
	if err != nil {
		h.errLog.ServerError(w, r, "failed to resolve setlist service", err)
		return nil, false
	}
	return svc, true
}

// pathID parses a hex ObjectID route parameter, rendering 404 when it is
// malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		errorsfeature.NotFound(w, r)
		return primitive.NilObjectID, false
	}
	return id, true
}

// fail renders the page for a service error: 404 for records the owner
// cannot see, 500 otherwise.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, setliststore.ErrNotFound),
		errors.Is(err, setliststore.ErrItemNotFound),
		errors.Is(err, songstore.ErrNotFound):
		errorsfeature.NotFound(w, r)
	default:
		h.errLog.ServerError(w, r, msg, err)
	}
}

func detailURL(id primitive.ObjectID, success string) string {
	u := "/setlists/" + id.Hex()
	if success != "" {
		u += "?success=" + success
	}
	return u
}

var successMessages = map[string]string{
	"created":      "Setlist created.",
	"updated":      "Setlist saved.",
	"deleted":      "Setlist deleted.",
	"duplicated":   "Setlist copied.",
	"item_added":   "Song added to the set.",
	"item_updated": "Set entry saved.",
	"item_removed": "Song removed from the set.",
	"item_moved":   "Set order updated.",
}
