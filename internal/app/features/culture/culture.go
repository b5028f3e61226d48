// internal/app/features/culture/culture.go
package culture

import (
	"net/http"

	"github.com/dalemusser/setliststudio/internal/app/system/culture"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler stores the visitor's UI culture choice.
type Handler struct {
	cultures     *culture.Negotiator
	secureCookie bool
	logger       *zap.Logger
}

// NewHandler creates a new culture Handler.
func NewHandler(n *culture.Negotiator, secureCookie bool, logger *zap.Logger) *Handler {
	return &Handler{cultures: n, secureCookie: secureCookie, logger: logger}
}

// Routes returns a chi.Router with the culture route mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.set)
	return r
}

// set remembers ?culture= when it is supported and sends the visitor back to
// ?return=. Unsupported values leave the current choice alone.
func (h *Handler) set(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if tag, ok := h.cultures.Supported(q.Get("culture")); ok {
		culture.SetCookie(w, tag, h.secureCookie)
	} else {
		h.logger.Debug("ignoring unsupported culture", zap.String("culture", q.Get("culture")))
	}
	// /login stays a valid target; a GET to /logout signs out.
	http.Redirect(w, r, urlutil.SafeReturnExcluding(q.Get("return"), "", "/", []string{"/logout"}), http.StatusSeeOther)
}
