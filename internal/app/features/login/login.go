// internal/app/features/login/login.go
package login

import (
	"net/http"
	"net/url"

	"github.com/dalemusser/setliststudio/internal/app/system/authz"
	"github.com/dalemusser/setliststudio/internal/app/system/viewdata"
	"github.com/dalemusser/setliststudio/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler provides the sign-in page.
type Handler struct {
	logger *zap.Logger
}

// NewHandler creates a new login Handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{logger: logger}
}

// ProviderButton is one external sign-in option.
type ProviderButton struct {
	Name  string
	Label string
	URL   string
}

// LoginVM is the view model for the login page.
type LoginVM struct {
	viewdata.BaseVM
	Error     string
	ReturnURL string
	Providers []ProviderButton
}

// Routes returns a chi.Router with login routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.showLogin)
	return r
}

// errorMessages maps the error codes the OAuth flow redirects with.
var errorMessages = map[string]string{
	"provider_unavailable": "That sign-in provider isn't available right now. Please choose another.",
	"invalid_state":        "Your sign-in link expired. Please try again.",
	"access_denied":        "Sign-in was cancelled.",
	"provider_error":       "The sign-in provider reported a problem. Please try again.",
	"account_disabled":     "This account is disabled.",
	"service_unavailable":  "Service temporarily unavailable. Please try again.",
}

// ErrorMessage returns the user-facing text for an error code.
func ErrorMessage(code string) string {
	if code == "" {
		return ""
	}
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "Sign-in failed. Please try again."
}

// showLogin lists every supported provider; unconfigured ones bounce back
// here with provider_unavailable.
func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	ret := urlutil.SafeReturn(r.URL.Query().Get("return"), "", "/")

	if authz.IsLoggedIn(r) {
		http.Redirect(w, r, ret, http.StatusSeeOther)
		return
	}

	vm := LoginVM{
		BaseVM:    viewdata.New(r),
		Error:     ErrorMessage(r.URL.Query().Get("error")),
		ReturnURL: ret,
	}
	vm.Title = "Sign In"

	for _, p := range models.AllAuthProviders {
		target := "/auth/" + p.Value
		if ret != "/" {
			target += "?return=" + url.QueryEscape(ret)
		}
		vm.Providers = append(vm.Providers, ProviderButton{Name: p.Value, Label: p.Label, URL: target})
	}

	templates.Render(w, r, "login/index", vm)
}
