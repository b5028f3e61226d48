// internal/app/features/setlists/list.go
package setlists

import (
	"net/http"
	"strconv"
	"strings"

	setliststore "github.com/dalemusser/setliststudio/internal/app/store/setlists"
	"github.com/dalemusser/setliststudio/internal/app/system/viewdata"
	"github.com/dalemusser/setliststudio/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListVM is the view model for the setlist index.
type ListVM struct {
	viewdata.BaseVM
	Setlists     []models.Setlist
	Total        int64
	Query        string
	TemplateOnly bool
	ActiveOnly   bool
	Pager        viewdata.Pager
	Success      string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) {
	svc, ok := h.setlistService(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, err := strconv.ParseInt(q.Get("page"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}
	filter := setliststore.Filter{
		Query:        strings.TrimSpace(q.Get("q")),
		TemplateOnly: q.Get("templates") == "1",
		ActiveOnly:   q.Get("active") == "1",
		Limit:        pageSize,
		Page:         page,
	}

	lists, total, err := svc.List(r.Context(), owner, filter)
	if err != nil {
		h.errLog.ServerError(w, r, "failed to list setlists", err)
		return
	}

	vm := ListVM{
		BaseVM:       viewdata.New(r),
		Setlists:     lists,
		Total:        total,
		Query:        filter.Query,
		TemplateOnly: filter.TemplateOnly,
		ActiveOnly:   filter.ActiveOnly,
		Pager:        viewdata.NewPager(r, page, pageSize, total),
		Success:      successMessages[q.Get("success")],
	}
	vm.Title = "Setlists"

	templates.Render(w, r, "setlists/list", vm)
}
