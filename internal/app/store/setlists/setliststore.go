// internal/app/store/setlists/setliststore.go
package setliststore

import (
	"context"
	"errors"
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

var (
	// ErrNotFound is returned when the setlist does not exist or belongs to
	// another owner.
	ErrNotFound = errors.New("setlist not found")
	// ErrItemNotFound is returned when the item is not in the setlist.
	ErrItemNotFound = errors.New("setlist item not found")
	// ErrConflict is returned when the setlist changed during a reorder.
	ErrConflict = errors.New("setlist was modified concurrently")
)

// Filter narrows a setlist listing.
type Filter struct {
	Query        string // matches name or venue
	TemplateOnly bool
	ActiveOnly   bool
	Limit        int64
	Page         int64
}

// Store provides access to the setlists collection. Every method is scoped
// to an owner.
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("setlists"), now: func() time.Time { return time.Now().UTC() }}
}

func prepare(sl *models.Setlist) {
	sl.Name = normalize.Name(sl.Name)
	sl.NameCI = text.Fold(sl.Name)
	sl.Venue = normalize.Name(sl.Venue)
	sl.Description = strings.TrimSpace(sl.Description)
	sl.Notes = strings.TrimSpace(sl.Notes)
}

// Create inserts a setlist. Items are kept as given; missing item IDs are
// assigned.
func (s *Store) Create(ctx context.Context, sl models.Setlist) (models.Setlist, error) {
	prepare(&sl)
	sl.ID = primitive.NewObjectID()
	if sl.Items == nil {
		sl.Items = []models.SetlistItem{}
	}
	for i := range sl.Items {
		if sl.Items[i].ID.IsZero() {
			sl.Items[i].ID = primitive.NewObjectID()
		}
	}
	now := s.now()
	sl.CreatedAt = now
	sl.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, sl); err != nil {
		return models.Setlist{}, err
	}
	return sl, nil
}

// Get loads one of the owner's setlists.
func (s *Store) Get(ctx context.Context, owner, id primitive.ObjectID) (*models.Setlist, error) {
	var sl models.Setlist
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "owner_id": owner}).Decode(&sl); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sl, nil
}

// List returns one page of the owner's setlists, latest performance date
// first and undated ones by name after, plus the total match count.
func (s *Store) List(ctx context.Context, owner primitive.ObjectID, f Filter) ([]models.Setlist, int64, error) {
	q := bson.M{"owner_id": owner}
	if query := normalize.QueryParam(f.Query); query != "" {
		re := storeutil.FoldedContains(query)
		q["$or"] = bson.A{
			bson.M{"name_ci": re},
			bson.M{"venue": primitive.Regex{Pattern: re.Pattern, Options: "i"}},
		}
	}
	if f.TemplateOnly {
		q["is_template"] = true
	}
	if f.ActiveOnly {
		q["is_active"] = true
	}

	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	opts := storeutil.Paginate(f.Limit, f.Page).
		SetSort(bson.D{{Key: "performance_date", Value: -1}, {Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"notes": 0})
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var out []models.Setlist
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateDetails replaces the descriptive fields. Items are untouched.
func (s *Store) UpdateDetails(ctx context.Context, owner primitive.ObjectID, sl models.Setlist) (*models.Setlist, error) {
	prepare(&sl)
	set := bson.M{
		"name":        sl.Name,
		"name_ci":     sl.NameCI,
		"description": sl.Description,
		"venue":       sl.Venue,
		"is_template": sl.IsTemplate,
		"is_active":   sl.IsActive,
		"notes":       sl.Notes,
		"updated_at":  s.now(),
	}
	unset := bson.M{}
	if sl.PerformanceDate != nil {
		set["performance_date"] = *sl.PerformanceDate
	} else {
		unset["performance_date"] = ""
	}
	if sl.ExpectedMinutes != nil {
		set["expected_minutes"] = *sl.ExpectedMinutes
	} else {
		unset["expected_minutes"] = ""
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return s.findAndUpdate(ctx, bson.M{"_id": sl.ID, "owner_id": owner}, update, always(ErrNotFound))
}

// findAndUpdate applies update and returns the new document. When nothing
// matches, missing is called to choose the error.
func (s *Store) findAndUpdate(ctx context.Context, filter, update bson.M, missing func() error) (*models.Setlist, error) {
	var out models.Setlist
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, missing()
		}
		return nil, err
	}
	return &out, nil
}

func always(err error) func() error {
	return func() error { return err }
}

// Delete removes one of the owner's setlists.
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

// AppendItem adds an item at the end of the setlist.
func (s *Store) AppendItem(ctx context.Context, owner, id primitive.ObjectID, item models.SetlistItem) (*models.Setlist, error) {
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	return s.findAndUpdate(ctx,
		bson.M{"_id": id, "owner_id": owner},
		bson.M{
			"$push": bson.M{"items": item},
			"$set":  bson.M{"updated_at": s.now()},
		}, always(ErrNotFound))
}

// RemoveItem deletes one item; the rest keep their order.
func (s *Store) RemoveItem(ctx context.Context, owner, id, itemID primitive.ObjectID) (*models.Setlist, error) {
	return s.findAndUpdate(ctx,
		bson.M{"_id": id, "owner_id": owner, "items._id": itemID},
		bson.M{
			"$pull": bson.M{"items": bson.M{"_id": itemID}},
			"$set":  bson.M{"updated_at": s.now()},
		}, s.missingItem(ctx, owner, id))
}

// missingItem picks the right sentinel when an item-scoped update matched
// nothing.
func (s *Store) missingItem(ctx context.Context, owner, id primitive.ObjectID) func() error {
	return func() error {
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": id, "owner_id": owner})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrItemNotFound
	}
}

// MoveItem moves an item to newIndex (0-based, clamped). The other items
// keep their relative order. The write only applies if the setlist did not
// change since it was read.
func (s *Store) MoveItem(ctx context.Context, owner, id, itemID primitive.ObjectID, newIndex int) (*models.Setlist, error) {
	sl, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	from := sl.IndexOfItem(itemID)
	if from < 0 {
		return nil, ErrItemNotFound
	}
	items := Reorder(sl.Items, from, newIndex)

	return s.findAndUpdate(ctx,
		bson.M{"_id": id, "owner_id": owner, "updated_at": sl.UpdatedAt},
		bson.M{"$set": bson.M{"items": items, "updated_at": s.now()}},
		always(ErrConflict))
}

// Reorder returns a copy of items with the element at from moved to to.
// to is clamped to the valid range.
func Reorder(items []models.SetlistItem, from, to int) []models.SetlistItem {
	out := make([]models.SetlistItem, 0, len(items))
	if from < 0 || from >= len(items) {
		return append(out, items...)
	}
	if to < 0 {
		to = 0
	}
	if to > len(items)-1 {
		to = len(items) - 1
	}
	moved := items[from]
	for i, it := range items {
		if i != from {
			out = append(out, it)
		}
	}
	out = append(out[:to], append([]models.SetlistItem{moved}, out[to:]...)...)
	return out
}

// UpdateItem replaces the per-performance fields of one item.
func (s *Store) UpdateItem(ctx context.Context, owner, id primitive.ObjectID, item models.SetlistItem) (*models.Setlist, error) {
	set := bson.M{
		"items.$.transition_notes":  strings.TrimSpace(item.TransitionNotes),
		"items.$.performance_notes": strings.TrimSpace(item.PerformanceNotes),
		"items.$.custom_key":        strings.TrimSpace(item.CustomKey),
		"items.$.is_encore":         item.IsEncore,
		"items.$.is_optional":       item.IsOptional,
		"updated_at":                s.now(),
	}
	update := bson.M{"$set": set}
	if item.CustomBPM != nil {
		set["items.$.custom_bpm"] = *item.CustomBPM
	} else {
		update["$unset"] = bson.M{"items.$.custom_bpm": ""}
	}
	return s.findAndUpdate(ctx,
		bson.M{"_id": id, "owner_id": owner, "items._id": item.ID},
		update, s.missingItem(ctx, owner, id))
}

// PullSong removes every item referencing songID from the owner's setlists
// and returns how many setlists changed.
func (s *Store) PullSong(ctx context.Context, owner, songID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"owner_id": owner, "items.song_id": songID},
		bson.M{
			"$pull": bson.M{"items": bson.M{"song_id": songID}},
			"$set":  bson.M{"updated_at": s.now()},
		})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Count returns how many setlists the owner has.
func (s *Store) Count(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"owner_id": owner})
}

// Upcoming returns the owner's next performances from the given day on.
func (s *Store) Upcoming(ctx context.Context, owner primitive.ObjectID, from time.Time, limit int64) ([]models.Setlist, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "performance_date", Value: 1}}).
		SetLimit(limit).
		SetProjection(bson.M{"notes": 0})
	cur, err := s.c.Find(ctx, bson.M{
		"owner_id":         owner,
		"is_template":      false,
		"performance_date": bson.M{"$gte": from},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Setlist
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
