// internal/app/features/songs/list.go
package songs

import (
	"net/http"
	"strconv"
	"strings"

	songstore "github.com/dalemusser/setliststudio/internal/app/store/songs"
	"github.com/dalemusser/setliststudio/internal/app/system/viewdata"
	"github.com/dalemusser/setliststudio/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SortOption is one entry of the sort menu.
type SortOption struct {
	Value string
	Label string
}

var sortOptions = []SortOption{
	{songstore.SortTitle, "Title"},
	{songstore.SortArtist, "Artist"},
	{songstore.SortBPM, "Tempo"},
	{songstore.SortRecent, "Recently added"},
}

// ListVM is the view model for the song library.
type ListVM struct {
	viewdata.BaseVM
	Songs   []models.Song
	Total   int64
	Query   string
	Genre   string
	Key     string
	Tag     string
	Sort    string
	Genres  []string
	Keys    []string
	Sorts   []SortOption
	Pager   viewdata.Pager
	Success string
}

var successMessages = map[string]string{
	"created": "Song added to your library.",
	"updated": "Song saved.",
	"deleted": "Song deleted.",
}

func pageParam(r *http.Request) int64 {
	p, err := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// list renders the filtered, paged library.
func (h *Handler) list(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) {
	svc, ok := h.songService(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := songstore.Filter{
		Query: strings.TrimSpace(q.Get("q")),
		Genre: q.Get("genre"),
		Key:   q.Get("key"),
		Tag:   q.Get("tag"),
		Sort:  q.Get("sort"),
		Limit: pageSize,
		Page:  pageParam(r),
	}

	songs, total, err := svc.List(r.Context(), owner, filter)
	if err != nil {
		h.errLog.ServerError(w, r, "failed to list songs", err)
		return
	}
	genres, err := svc.Genres(r.Context(), owner)
	if err != nil {
		// The filter menu degrades to free text.
		h.logger.Warn("failed to load genres", zap.Error(err))
	}

	vm := ListVM{
		BaseVM:  viewdata.New(r),
		Songs:   songs,
		Total:   total,
		Query:   filter.Query,
		Genre:   filter.Genre,
		Key:     filter.Key,
		Tag:     filter.Tag,
		Sort:    filter.Sort,
		Genres:  genres,
		Keys:    models.MusicalKeys,
		Sorts:   sortOptions,
		Pager:   viewdata.NewPager(r, filter.Page, pageSize, total),
		Success: successMessages[q.Get("success")],
	}
	vm.Title = "Songs"

	templates.Render(w, r, "songs/list", vm)
}
