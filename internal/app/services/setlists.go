package services

import (
	"context"
	"errors"
	"strings"
	"time"

	setliststore "github.com/dalemusser/setliststudio/internal/app/store/setlists"
	"github.com/dalemusser/setliststudio/internal/app/system/live"
	"github.com/dalemusser/setliststudio/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SetlistService manages an owner's setlists.
type SetlistService interface {
	List(ctx context.Context, owner primitive.ObjectID, f setliststore.Filter) ([]models.Setlist, int64, error)
	// Get returns the setlist with its songs resolved.
	Get(ctx context.Context, owner, id primitive.ObjectID) (*SetlistView, error)
	Create(ctx context.Context, owner primitive.ObjectID, sl models.Setlist) (models.Setlist, error)
	Update(ctx context.Context, owner primitive.ObjectID, sl models.Setlist) (*models.Setlist, error)
	Delete(ctx context.Context, owner, id primitive.ObjectID) error
	// AddSong appends one of the owner's songs to the end of the setlist.
	AddSong(ctx context.Context, owner, id primitive.ObjectID, item models.SetlistItem) (*models.Setlist, error)
	UpdateItem(ctx context.Context, owner, id primitive.ObjectID, item models.SetlistItem) (*models.Setlist, error)
	RemoveItem(ctx context.Context, owner, id, itemID primitive.ObjectID) (*models.Setlist, error)
	// MoveItem moves an item to newIndex (0-based, clamped).
	MoveItem(ctx context.Context, owner, id, itemID primitive.ObjectID, newIndex int) (*models.Setlist, error)
	// Duplicate copies a setlist into a new, non-template setlist.
	Duplicate(ctx context.Context, owner, id primitive.ObjectID, name string) (models.Setlist, error)
	Upcoming(ctx context.Context, owner primitive.ObjectID, limit int64) ([]models.Setlist, error)
	Count(ctx context.Context, owner primitive.ObjectID) (int64, error)
}

// SetlistEntry is one resolved item of a setlist.
type SetlistEntry struct {
	Position int // 1-based
	Item     models.SetlistItem
	Song     *models.Song // nil when the song no longer exists
	BPM      *int         // the item's custom BPM, else the song's
	Key      string       // the item's custom key, else the song's
}

// SetlistView is a setlist with its songs resolved.
type SetlistView struct {
	models.Setlist
	Entries []SetlistEntry

	// TotalSeconds sums the known song durations; UnknownDurations counts
	// entries that contributed nothing.
	TotalSeconds     int
	UnknownDurations int
}

// TotalLabel renders the total running time.
func (v SetlistView) TotalLabel() string {
	return models.FormatDuration(v.TotalSeconds)
}

// OverExpected reports whether the songs run past the planned length.
func (v SetlistView) OverExpected() bool {
	return v.ExpectedMinutes != nil && v.TotalSeconds > *v.ExpectedMinutes*60
}

type setlistService struct {
	store  *setliststore.Store
	songs  *songService
	hub    Publisher
	logger *zap.Logger
	now    func() time.Time
}

func newSetlistService(store *setliststore.Store, songs *songService, hub Publisher, logger *zap.Logger) *setlistService {
	return &setlistService{
		store:  store,
		songs:  songs,
		hub:    hub,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *setlistService) publish(owner primitive.ObjectID, typ string, id primitive.ObjectID) {
	s.hub.Publish(owner.Hex(), live.Event{Type: typ, ID: id.Hex()})
}

func (s *setlistService) List(ctx context.Context, owner primitive.ObjectID, f setliststore.Filter) ([]models.Setlist, int64, error) {
	return s.store.List(ctx, owner, f)
}

func (s *setlistService) Get(ctx context.Context, owner, id primitive.ObjectID) (*SetlistView, error) {
	sl, err := s.store.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(sl.Items))
	for _, it := range sl.Items {
		ids = append(ids, it.SongID)
	}
	songs, err := s.songs.getMany(ctx, owner, ids)
	if err != nil {
		return nil, err
	}

	return resolve(*sl, songs), nil
}

// resolve builds the view for sl from the songs it references.
func resolve(sl models.Setlist, songs map[primitive.ObjectID]models.Song) *SetlistView {
	v := &SetlistView{Setlist: sl, Entries: make([]SetlistEntry, 0, len(sl.Items))}
	for i, it := range sl.Items {
		e := SetlistEntry{Position: i + 1, Item: it, BPM: it.CustomBPM, Key: it.CustomKey}
		if song, ok := songs[it.SongID]; ok {
			song := song
			e.Song = &song
			if e.BPM == nil {
				e.BPM = song.BPM
			}
			if e.Key == "" {
				e.Key = song.MusicalKey
			}
			if song.DurationSeconds != nil {
				v.TotalSeconds += *song.DurationSeconds
			} else {
				v.UnknownDurations++
			}
		} else {
			v.UnknownDurations++
		}
		v.Entries = append(v.Entries, e)
	}
	return v
}

func (s *setlistService) Create(ctx context.Context, owner primitive.ObjectID, sl models.Setlist) (models.Setlist, error) {
	sl.OwnerID = owner
	for _, it := range sl.Items {
		if _, err := s.songs.Get(ctx, owner, it.SongID); err != nil {
			return models.Setlist{}, err
		}
	}
	created, err := s.store.Create(ctx, sl)
	if err != nil {
		return models.Setlist{}, err
	}
	s.logger.Info("setlist created", zap.String("setlist_id", created.ID.Hex()))
	s.publish(owner, live.SetlistCreated, created.ID)
	return created, nil
}

func (s *setlistService) Update(ctx context.Context, owner primitive.ObjectID, sl models.Setlist) (*models.Setlist, error) {
	updated, err := s.store.UpdateDetails(ctx, owner, sl)
	if err != nil {
		return nil, err
	}
	s.publish(owner, live.SetlistUpdated, updated.ID)
	return updated, nil
}

func (s *setlistService) Delete(ctx context.Context, owner, id primitive.ObjectID) error {
	if err := s.store.Delete(ctx, owner, id); err != nil {
		return err
	}
	s.logger.Info("setlist deleted", zap.String("setlist_id", id.Hex()))
	s.publish(owner, live.SetlistDeleted, id)
	return nil
}

func (s *setlistService) AddSong(ctx context.Context, owner, id primitive.ObjectID, item models.SetlistItem) (*models.Setlist, error) {
	if _, err := s.songs.Get(ctx, owner, item.SongID); err != nil {
		return nil, err
	}
	item.ID = primitive.NewObjectID()
	sl, err := s.store.AppendItem(ctx, owner, id, item)
	if err != nil {
		return nil, err
	}
	s.publish(owner, live.SetlistUpdated, id)
	return sl, nil
}

func (s *setlistService) UpdateItem(ctx context.Context, owner, id primitive.ObjectID, item models.SetlistItem) (*models.Setlist, error) {
	sl, err := s.store.UpdateItem(ctx, owner, id, item)
	if err != nil {
		return nil, err
	}
	s.publish(owner, live.SetlistUpdated, id)
	return sl, nil
}

func (s *setlistService) RemoveItem(ctx context.Context, owner, id, itemID primitive.ObjectID) (*models.Setlist, error) {
	sl, err := s.store.RemoveItem(ctx, owner, id, itemID)
	if err != nil {
		return nil, err
	}
	s.publish(owner, live.SetlistUpdated, id)
	return sl, nil
}

// moveAttempts bounds retries when another writer changes the setlist
// between read and write.
const moveAttempts = 3

func (s *setlistService) MoveItem(ctx context.Context, owner, id, itemID primitive.ObjectID, newIndex int) (*models.Setlist, error) {
	var err error
	for attempt := 1; attempt <= moveAttempts; attempt++ {
		var sl *models.Setlist
		sl, err = s.store.MoveItem(ctx, owner, id, itemID, newIndex)
		if err == nil {
			s.publish(owner, live.SetlistUpdated, id)
			return sl, nil
		}
		if !errors.Is(err, setliststore.ErrConflict) {
			return nil, err
		}
		s.logger.Debug("setlist reorder conflict, retrying",
			zap.String("setlist_id", id.Hex()), zap.Int("attempt", attempt))
	}
	return nil, err
}

func (s *setlistService) Duplicate(ctx context.Context, owner, id primitive.ObjectID, name string) (models.Setlist, error) {
	src, err := s.store.Get(ctx, owner, id)
	if err != nil {
		return models.Setlist{}, err
	}

	cp := *src
	cp.ID = primitive.NilObjectID
	cp.Name = strings.TrimSpace(name)
	if cp.Name == "" {
		cp.Name = src.Name + " (copy)"
	}
	cp.IsTemplate = false
	cp.IsActive = true
	cp.PerformanceDate = nil
	cp.Items = make([]models.SetlistItem, len(src.Items))
	for i, it := range src.Items {
		it.ID = primitive.NilObjectID
		cp.Items[i] = it
	}

	created, err := s.store.Create(ctx, cp)
	if err != nil {
		return models.Setlist{}, err
	}
	s.logger.Info("setlist duplicated",
		zap.String("source_id", id.Hex()),
		zap.String("setlist_id", created.ID.Hex()))
	s.publish(owner, live.SetlistCreated, created.ID)
	return created, nil
}

func (s *setlistService) Upcoming(ctx context.Context, owner primitive.ObjectID, limit int64) ([]models.Setlist, error) {
	today := s.now().Truncate(24 * time.Hour)
	return s.store.Upcoming(ctx, owner, today, limit)
}

func (s *setlistService) Count(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	return s.store.Count(ctx, owner)
}
