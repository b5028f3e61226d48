package services

import (
	"context"
	"sync"

	setliststore "github.com/dalemusser/setliststudio/internal/app/store/setlists"
	songstore "github.com/dalemusser/setliststudio/internal/app/store/songs"
	"github.com/dalemusser/setliststudio/internal/app/system/live"
	"github.com/dalemusser/setliststudio/internal/app/system/txn"
	"github.com/dalemusser/setliststudio/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SongService manages an owner's song library.
type SongService interface {
	List(ctx context.Context, owner primitive.ObjectID, f songstore.Filter) ([]models.Song, int64, error)
	All(ctx context.Context, owner primitive.ObjectID) ([]models.Song, error)
	Get(ctx context.Context, owner, id primitive.ObjectID) (*models.Song, error)
	Create(ctx context.Context, owner primitive.ObjectID, song models.Song) (models.Song, error)
	Update(ctx context.Context, owner primitive.ObjectID, song models.Song) (models.Song, error)
	// Delete removes the song and every setlist item that references it.
	Delete(ctx context.Context, owner, id primitive.ObjectID) error
	Genres(ctx context.Context, owner primitive.ObjectID) ([]string, error)
	Count(ctx context.Context, owner primitive.ObjectID) (int64, error)
}

// songService caches songs it has loaded for the rest of its unit of work.
type songService struct {
	songs    *songstore.Store
	setlists *setliststore.Store
	txn      *txn.Runner
	hub      Publisher
	logger   *zap.Logger

	mu    sync.Mutex
	cache map[primitive.ObjectID]models.Song
}

func newSongService(songs *songstore.Store, setlists *setliststore.Store, tx *txn.Runner, hub Publisher, logger *zap.Logger) *songService {
	return &songService{
		songs:    songs,
		setlists: setlists,
		txn:      tx,
		hub:      hub,
		logger:   logger,
		cache:    make(map[primitive.ObjectID]models.Song),
	}
}

func (s *songService) remember(songs ...models.Song) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, song := range songs {
		s.cache[song.ID] = song
	}
}

func (s *songService) cached(owner, id primitive.ObjectID) (models.Song, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	song, ok := s.cache[id]
	return song, ok && song.OwnerID == owner
}

func (s *songService) forget(id primitive.ObjectID) {
	s.mu.Lock()
	delete(s.cache, id)
	s.mu.Unlock()
}

func (s *songService) List(ctx context.Context, owner primitive.ObjectID, f songstore.Filter) ([]models.Song, int64, error) {
	songs, total, err := s.songs.List(ctx, owner, f)
	if err != nil {
		return nil, 0, err
	}
	s.remember(songs...)
	return songs, total, nil
}

func (s *songService) All(ctx context.Context, owner primitive.ObjectID) ([]models.Song, error) {
	songs, err := s.songs.All(ctx, owner)
	if err != nil {
		return nil, err
	}
	s.remember(songs...)
	return songs, nil
}

func (s *songService) Get(ctx context.Context, owner, id primitive.ObjectID) (*models.Song, error) {
	if song, ok := s.cached(owner, id); ok {
		return &song, nil
	}
	song, err := s.songs.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	s.remember(*song)
	return song, nil
}

// getMany returns the owner's songs for ids, loading only the ones not
// already cached.
func (s *songService) getMany(ctx context.Context, owner primitive.ObjectID, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Song, error) {
	out := make(map[primitive.ObjectID]models.Song, len(ids))
	var missing []primitive.ObjectID
	for _, id := range ids {
		if song, ok := s.cached(owner, id); ok {
			out[id] = song
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}
	loaded, err := s.songs.GetMany(ctx, owner, missing)
	if err != nil {
		return nil, err
	}
	for id, song := range loaded {
		out[id] = song
		s.remember(song)
	}
	return out, nil
}

func (s *songService) Create(ctx context.Context, owner primitive.ObjectID, song models.Song) (models.Song, error) {
	song.OwnerID = owner
	created, err := s.songs.Create(ctx, song)
	if err != nil {
		return models.Song{}, err
	}
	s.remember(created)
	s.logger.Info("song created", zap.String("song_id", created.ID.Hex()))
	s.hub.Publish(owner.Hex(), live.Event{Type: live.SongCreated, ID: created.ID.Hex()})
	return created, nil
}

func (s *songService) Update(ctx context.Context, owner primitive.ObjectID, song models.Song) (models.Song, error) {
	updated, err := s.songs.Update(ctx, owner, song)
	if err != nil {
		return models.Song{}, err
	}
	s.remember(updated)
	s.hub.Publish(owner.Hex(), live.Event{Type: live.SongUpdated, ID: updated.ID.Hex()})
	return updated, nil
}

func (s *songService) Delete(ctx context.Context, owner, id primitive.ObjectID) error {
	var pulled int64
	err := s.txn.Run(ctx, func(ctx context.Context) error {
		if err := s.songs.Delete(ctx, owner, id); err != nil {
			return err
		}
		n, err := s.setlists.PullSong(ctx, owner, id)
		if err != nil {
			// Without a transaction, items left behind render as a missing song.
			s.logger.Error("failed to remove deleted song from setlists",
				zap.String("song_id", id.Hex()), zap.Error(err))
			return err
		}
		pulled = n
		return nil
	})
	if err != nil {
		return err
	}
	s.forget(id)

	s.logger.Info("song deleted",
		zap.String("song_id", id.Hex()),
		zap.Int64("setlists_updated", pulled))
	s.hub.Publish(owner.Hex(), live.Event{Type: live.SongDeleted, ID: id.Hex()})
	return nil
}

func (s *songService) Genres(ctx context.Context, owner primitive.ObjectID) ([]string, error) {
	return s.songs.Genres(ctx, owner)
}

func (s *songService) Count(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	return s.songs.Count(ctx, owner)
}
