// Package services holds the song library and setlist business logic.
//
// Services are scoped: Registry hands out one SongService and one
// SetlistService per unit of work (scope.Scope), so per-request state such
// as the song cache never leaks between requests.
package services

import (
	"net/http"

	setliststore "github.com/dalemusser/setliststudio/internal/app/store/setlists"
	songstore "github.com/dalemusser/setliststudio/internal/app/store/songs"
	"github.com/dalemusser/setliststudio/internal/app/system/live"
	"github.com/dalemusser/setliststudio/internal/app/system/logging"
	"github.com/dalemusser/setliststudio/internal/app/system/scope"
	"github.com/dalemusser/setliststudio/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Publisher delivers change events to an owner's live connections.
type Publisher interface {
	Publish(owner string, ev live.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, live.Event) {}

// Registry resolves scoped services.
type Registry struct {
	songs    *scope.Provider[SongService]
	setlists *scope.Provider[SetlistService]
}

// NewRegistry wires the service providers. hub may be nil.
func NewRegistry(db *mongo.Database, hub Publisher, levels logging.Levels, logger *zap.Logger) *Registry {
	if hub == nil {
		hub = nopPublisher{}
	}
	songLog := levels.Named(logger, logging.NSSongs)
	setlistLog := levels.Named(logger, logging.NSSetlists)
	songs := songstore.New(db)
	setlists := setliststore.New(db)
	tx := txn.New(db.Client(), songLog)

	r := &Registry{}
	r.songs = scope.NewProvider("songs", func(s *scope.Scope) SongService {
		return newSongService(songs, setlists, tx, hub, songLog.With(zap.String("scope_id", s.ID())))
	})
	r.setlists = scope.NewProviderE("setlists", func(s *scope.Scope) (SetlistService, error) {
		// Both services of a scope share one song cache.
		sv, err := r.songs.Get(s)
		if err != nil {
			return nil, err
		}
		return newSetlistService(setlists, sv.(*songService), hub, setlistLog.With(zap.String("scope_id", s.ID()))), nil
	})
	return r
}

// Songs returns the scope's SongService.
func (r *Registry) Songs(s *scope.Scope) (SongService, error) {
	return r.songs.Get(s)
}

// Setlists returns the scope's SetlistService.
func (r *Registry) Setlists(s *scope.Scope) (SetlistService, error) {
	return r.setlists.Get(s)
}

// SongsFor resolves the SongService of the request's unit of work.
func (r *Registry) SongsFor(req *http.Request) (SongService, error) {
	s, err := scope.FromRequest(req)
	if err != nil {
		return nil, err
	}
	return r.Songs(s)
}

// SetlistsFor resolves the SetlistService of the request's unit of work.
func (r *Registry) SetlistsFor(req *http.Request) (SetlistService, error) {
	s, err := scope.FromRequest(req)
	if err != nil {
		return nil, err
	}
	return r.Setlists(s)
}
