// internal/app/features/identity/identity.go
package identity

import (
	"net/http"
	"net/url"

	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/go-chi/chi/v5"
)

// LoginPath is the legacy sign-in URL that old bookmarks and links still use.
const LoginPath = "/Identity/Account/Login"

// Routes returns a chi.Router with the legacy account routes mounted.
func Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/Account/Login", LegacyLogin)
	return r
}

// LegacyLogin redirects to /login, carrying ReturnUrl as return when it is a
// local path.
func LegacyLogin(w http.ResponseWriter, r *http.Request) {
	target := "/login"
	if ret := r.URL.Query().Get("ReturnUrl"); ret != "" {
		if safe := urlutil.SafeReturn(ret, "", ""); safe != "" {
			target += "?return=" + url.QueryEscape(safe)
		}
	}
	http.Redirect(w, r, target, http.StatusFound)
}
