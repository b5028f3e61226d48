// internal/app/features/songs/songs.go
package songs

import (
	"net/http"

	errorsfeature "github.com/dalemusser/setliststudio/internal/app/features/errors"
	"github.com/dalemusser/setliststudio/internal/app/services"
	"github.com/dalemusser/setliststudio/internal/app/system/auth"
	"github.com/dalemusser/setliststudio/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// pageSize is the number of songs per list page.
const pageSize = 25

// Handler provides the song library pages.
type Handler struct {
	services *services.Registry
	errLog   *errorsfeature.ErrorLogger
	logger   *zap.Logger
}

// NewHandler creates a new songs Handler.
func NewHandler(reg *services.Registry, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		services: reg,
		errLog:   errLog,
		logger:   logger,
	}
}

// Routes returns a chi.Router with song routes mounted. Every route needs a
// signed-in musician.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", authz.RequireOwner(h.list))
	r.Get("/new", authz.RequireOwner(h.showNew))
	r.Post("/new", authz.RequireOwner(h.create))
	r.Get("/{id}", authz.RequireOwner(h.show))
	r.Get("/{id}/edit", authz.RequireOwner(h.showEdit))
	r.Post("/{id}/edit", authz.RequireOwner(h.update))
	r.Get("/{id}/delete", authz.RequireOwner(h.confirmDelete))
	r.Post("/{id}/delete", authz.RequireOwner(h.delete))
	return r
}

// songService resolves the request's SongService, rendering a 500 when the
// unit of work is missing.
func (h *Handler) songService(w http.ResponseWriter, r *http.Request) (services.SongService, bool) {
	svc, err := h.services.SongsFor(r)
	if err != nil {
		h.errLog.ServerError(w, r, "failed to resolve song service", err)
		return nil, false
	}
	return svc, true
}
