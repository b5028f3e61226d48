// internal/app/store/songs/songstore.go
package songstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/setliststudio/internal/app/store/storeutil"
	"github.com/dalemusser/setliststudio/internal/app/system/normalize"
	"github.com/dalemusser/setliststudio/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when the song does not exist or belongs to
// another owner.
var ErrNotFound = errors.New("song not found")

// Sort orders for List.
const (
	SortTitle   = "title"
	SortArtist  = "artist"
	SortBPM     = "bpm"
	SortRecent  = "recent"
	defaultSort = SortTitle
)

// Filter narrows a song listing. Zero values mean "no constraint".
type Filter struct {
	Query string // matches title, artist or album
	Genre string
	Key   string
	Tag   string
	Sort  string
	Limit int64
	Page  int64
}

// Store provides access to the songs collection. Every method is scoped to
// an owner.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("songs")}
}

// Collection exposes the underlying collection for cross-store operations.
func (s *Store) Collection() *mongo.Collection { return s.c }

func prepare(song *models.Song) {
	song.Title = normalize.Name(song.Title)
	song.TitleCI = text.Fold(song.Title)
	song.Artist = normalize.Name(song.Artist)
	song.ArtistCI = text.Fold(song.Artist)
	song.Album = normalize.Name(song.Album)
	song.Genre = normalize.Genre(song.Genre)
	song.MusicalKey = strings.TrimSpace(song.MusicalKey)
	song.Notes = strings.TrimSpace(song.Notes)
	if len(song.Tags) == 0 {
		song.Tags = nil
	}
}

// Create inserts a song for its owner.
func (s *Store) Create(ctx context.Context, song models.Song) (models.Song, error) {
	prepare(&song)
	song.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	song.CreatedAt = now
	song.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, song); err != nil {
		return models.Song{}, err
	}
	return song, nil
}

// Get loads one of the owner's songs.
func (s *Store) Get(ctx context.Context, owner, id primitive.ObjectID) (*models.Song, error) {
	var song models.Song
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "owner_id": owner}).Decode(&song); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &song, nil
}

// GetMany loads the owner's songs with the given IDs, keyed by ID.
// Missing or foreign IDs are simply absent from the result.
func (s *Store) GetMany(ctx context.Context, owner primitive.ObjectID, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Song, error) {
	out := make(map[primitive.ObjectID]models.Song, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"owner_id": owner, "_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var song models.Song
		if err := cur.Decode(&song); err != nil {
			return nil, err
		}
		out[song.ID] = song
	}
	return out, cur.Err()
}

func buildFilter(owner primitive.ObjectID, f Filter) bson.M {
	q := bson.M{"owner_id": owner}
	if query := normalize.QueryParam(f.Query); query != "" {
		re := storeutil.FoldedContains(query)
		q["$or"] = append(storeutil.AnyOf(re, "title_ci", "artist_ci"),
			bson.M{"album": primitive.Regex{Pattern: re.Pattern, Options: "i"}})
	}
	if g := normalize.Genre(f.Genre); g != "" {
		q["genre"] = g
	}
	if k := strings.TrimSpace(f.Key); k != "" {
		q["musical_key"] = k
	}
	if tag := strings.ToLower(normalize.Name(f.Tag)); tag != "" {
		q["tags"] = tag
	}
	return q
}

func sortFor(name string) bson.D {
	switch name {
	case SortArtist:
		return bson.D{{Key: "artist_ci", Value: 1}, {Key: "title_ci", Value: 1}, {Key: "_id", Value: 1}}
	case SortBPM:
		return bson.D{{Key: "bpm", Value: 1}, {Key: "title_ci", Value: 1}, {Key: "_id", Value: 1}}
	case SortRecent:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	default:
		return bson.D{{Key: "title_ci", Value: 1}, {Key: "_id", Value: 1}}
	}
}

// List returns one page of the owner's songs and the total match count.
func (s *Store) List(ctx context.Context, owner primitive.ObjectID, f Filter) ([]models.Song, int64, error) {
	q := buildFilter(owner, f)

	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	opts := storeutil.Paginate(f.Limit, f.Page).SetSort(sortFor(f.Sort))
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var songs []models.Song
	if err := cur.All(ctx, &songs); err != nil {
		return nil, 0, err
	}
	return songs, total, nil
}

// All returns every song of the owner sorted by title.
func (s *Store) All(ctx context.Context, owner primitive.ObjectID) ([]models.Song, error) {
	cur, err := s.c.Find(ctx, bson.M{"owner_id": owner}, options.Find().SetSort(sortFor(defaultSort)))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var songs []models.Song
	if err := cur.All(ctx, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// Update replaces the editable fields of one of the owner's songs.
func (s *Store) Update(ctx context.Context, owner primitive.ObjectID, song models.Song) (models.Song, error) {
	prepare(&song)
	song.UpdatedAt = time.Now().UTC()

	set := bson.M{
		"title":       song.Title,
		"title_ci":    song.TitleCI,
		"artist":      song.Artist,
		"artist_ci":   song.ArtistCI,
		"album":       song.Album,
		"genre":       song.Genre,
		"musical_key": song.MusicalKey,
		"tags":        song.Tags,
		"notes":       song.Notes,
		"updated_at":  song.UpdatedAt,
	}
	unset := bson.M{}
	optional := map[string]*int{
		"bpm":              song.BPM,
		"duration_seconds": song.DurationSeconds,
		"difficulty":       song.Difficulty,
	}
	for field, v := range optional {
		if v == nil {
			unset[field] = ""
		} else {
			set[field] = *v
		}
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var out models.Song
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": song.ID, "owner_id": owner},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Song{}, ErrNotFound
		}
		return models.Song{}, err
	}
	return out, nil
}

// Delete removes one of the owner's songs.
func (s *Store) Delete(ctx context.Context, owner, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "owner_id": owner})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns how many songs the owner has.
func (s *Store) Count(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"owner_id": owner})
}

// Genres returns the owner's distinct genres, sorted.
func (s *Store) Genres(ctx context.Context, owner primitive.ObjectID) ([]string, error) {
	raw, err := s.c.Distinct(ctx, "genre", bson.M{"owner_id": owner, "genre": bson.M{"$nin": bson.A{"", nil}}})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if g, ok := v.(string); ok {
			out = append(out, g)
		}
	}
	sort.Strings(out)
	return out, nil
}
