// internal/app/features/home/home.go
package home

import (
	"net/http"

	errorsfeature "github.com/dalemusser/setliststudio/internal/app/features/errors"
	"github.com/dalemusser/setliststudio/internal/app/services"
	"github.com/dalemusser/setliststudio/internal/app/system/authz"
	"github.com/dalemusser/setliststudio/internal/app/system/viewdata"
	"github.com/dalemusser/setliststudio/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// upcomingLimit caps the setlists shown on the dashboard.
const upcomingLimit = 5

// Handler provides home page handlers.
type Handler struct {
	services *services.Registry
	errLog   *errorsfeature.ErrorLogger
	logger   *zap.Logger
}

// NewHandler creates a new home Handler.
func NewHandler(reg *services.Registry, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		services: reg,
		errLog:   errLog,
		logger:   logger,
	}
}

// HomeVM is the view model for the home page.
type HomeVM struct {
	viewdata.BaseVM
	SongCount    int64
	SetlistCount int64
	Upcoming     []models.Setlist
}

// Routes returns a chi.Router with home routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Index)
	return r
}

// Index renders the landing page for visitors and a library summary for
// signed-in musicians.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	vm := HomeVM{BaseVM: viewdata.New(r)}
	vm.Title = "Home"

	owner, ok := authz.OwnerID(r)
	if !ok {
		templates.Render(w, r, "home/landing", vm)
		return
	}

	songs, err := h.services.SongsFor(r)
	if err != nil {
		h.errLog.ServerError(w, r, "failed to resolve song service", err)
		return
	}
	setlists, err := h.services.SetlistsFor(r)
	if err != nil {
		h.errLog.ServerError(w, r, "failed to resolve setlist service", err)
		return
	}

	ctx := r.Context()
	if vm.SongCount, err = songs.Count(ctx, owner); err != nil {
		h.errLog.ServerError(w, r, "failed to count songs", err)
		return
	}
	if vm.SetlistCount, err = setlists.Count(ctx, owner); err != nil {
		h.errLog.ServerError(w, r, "failed to count setlists", err)
		return
	}
	if vm.Upcoming, err = setlists.Upcoming(ctx, owner, upcomingLimit); err != nil {
		// The summary still renders without the upcoming list.
		h.logger.Warn("failed to load upcoming setlists", zap.Error(err))
	}

	templates.Render(w, r, "home/dashboard", vm)
}
