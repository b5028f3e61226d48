// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"html/template"
	"net/http"
	"strconv"
	"sync"

	"github.com/dalemusser/setliststudio/internal/app/system/auth"
	"github.com/dalemusser/setliststudio/internal/app/system/authz"
	"github.com/dalemusser/setliststudio/internal/app/system/culture"
	"github.com/dalemusser/setliststudio/internal/app/system/htmlsanitize"
	"github.com/dalemusser/setliststudio/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// BaseVM contains common fields for all view models.
// Embed this struct in feature view models:
//
//	type songsListData struct {
//	    viewdata.BaseVM
//	    Songs []songRow
//	}
type BaseVM struct {
	SiteName   string
	FooterHTML template.HTML

	// User context (from auth middleware)
	IsLoggedIn bool
	UserID     string
	UserName   string
	UserEmail  string

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	CSRFToken string

	// Culture negotiated for this request and the switcher options.
	Culture        string
	CultureOptions []culture.Option
}

var (
	mu         sync.RWMutex
	negotiator *culture.Negotiator
)

// Init sets the culture negotiator used for the culture switcher.
// Call this once at startup from bootstrap.
func Init(n *culture.Negotiator) {
	mu.Lock()
	defer mu.Unlock()
	negotiator = n
}

// NewBaseVM creates a BaseVM with a title and back link.
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	vm := New(r)
	vm.Title = title
	vm.BackURL = httpnav.ResolveBackURL(r, backDefault)
	return vm
}

// New creates a BaseVM from the request context.
func New(r *http.Request) BaseVM {
	name, userID, signedIn := authz.UserCtx(r)

	vm := BaseVM{
		SiteName:    models.DefaultSiteName,
		FooterHTML:  htmlsanitize.SanitizeToHTML(models.DefaultFooterHTML),
		IsLoggedIn:  signedIn,
		UserName:    name,
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
		Culture:     culture.FromRequest(r),
	}
	if signedIn {
		vm.UserID = userID.Hex()
		if u, ok := auth.CurrentUser(r); ok {
			vm.UserEmail = u.Email
		}
	}

	mu.RLock()
	n := negotiator
	mu.RUnlock()
	if n != nil {
		vm.CultureOptions = n.Options()
	}

	return vm
}

// Pager describes pagination links for a listing.
type Pager struct {
	Page    int64
	Pages   int64
	HasPrev bool
	HasNext bool
	PrevURL string
	NextURL string
}

// NewPager builds a Pager for page (1-based) of total items, size per page.
// Links keep the request's other query parameters.
func NewPager(r *http.Request, page, size, total int64) Pager {
	if size <= 0 {
		size = 1
	}
	if page < 1 {
		page = 1
	}
	pages := (total + size - 1) / size
	p := Pager{Page: page, Pages: pages, HasPrev: page > 1, HasNext: page < pages}

	link := func(n int64) string {
		q := r.URL.Query()
		q.Set("page", strconv.FormatInt(n, 10))
		return r.URL.Path + "?" + q.Encode()
	}
	if p.HasPrev {
		p.PrevURL = link(page - 1)
	}
	if p.HasNext {
		p.NextURL = link(page + 1)
	}
	return p
}
