package setliststore

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/setliststudio/internal/domain/models"
	"github.com/dalemusser/setliststudio/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func itemIDs(items []models.SetlistItem) []primitive.ObjectID {
	out := make([]primitive.ObjectID, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func makeItems(n int) []models.SetlistItem {
	items := make([]models.SetlistItem, n)
	for i := range items {
		items[i] = models.SetlistItem{ID: primitive.NewObjectID(), SongID: primitive.NewObjectID()}
	}
	return items
}

func TestReorder(t *testing.T) {
	items := makeItems(5)
	a, b, c, d, e := items[0].ID, items[1].ID, items[2].ID, items[3].ID, items[4].ID

	tests := []struct {
		name     string
		from, to int
		want     []primitive.ObjectID
	}{
		{"forward", 0, 2, []primitive.ObjectID{b, c, a, d, e}},
		{"backward", 4, 1, []primitive.ObjectID{a, e, b, c, d}},
		{"same place", 2, 2, []primitive.ObjectID{a, b, c, d, e}},
		{"clamp high", 1, 99, []primitive.ObjectID{a, c, d, e, b}},
		{"clamp low", 3, -4, []primitive.ObjectID{d, a, b, c, e}},
		{"bad from", 9, 0, []primitive.ObjectID{a, b, c, d, e}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := itemIDs(Reorder(items, tt.from, tt.to))
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("order = %v, want %v", got, tt.want)
				}
			}
		})
	}
	// Input is not modified.
	if items[0].ID != a || items[4].ID != e {
		t.Error("Reorder() mutated its input")
	}
}

func TestStore_CreateGetList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	date := time.Date(2026, 11, 1, 20, 0, 0, 0, time.UTC)
	created, err := store.Create(ctx, models.Setlist{OwnerID: owner, Name: " Friday  Gig ", Venue: "The Blue Note", PerformanceDate: &date})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Name != "Friday Gig" || created.Items == nil {
		t.Errorf("Create() = %+v", created)
	}
	_, _ = store.Create(ctx, models.Setlist{OwnerID: owner, Name: "Wedding Template", IsTemplate: true})
	_, _ = store.Create(ctx, models.Setlist{OwnerID: primitive.NewObjectID(), Name: "Someone Else"})

	got, err := store.Get(ctx, owner, created.ID)
	if err != nil || got.Venue != "The Blue Note" {
		t.Fatalf("Get() = %+v, %v", got, err)
	}
	if _, err := store.Get(ctx, primitive.NewObjectID(), created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(other owner) error = %v, want ErrNotFound", err)
	}

	all, total, err := store.List(ctx, owner, Filter{})
	if err != nil || total != 2 || len(all) != 2 {
		t.Fatalf("List() = %d/%d, %v", len(all), total, err)
	}
	templates, total, _ := store.List(ctx, owner, Filter{TemplateOnly: true})
	if total != 1 || templates[0].Name != "Wedding Template" {
		t.Errorf("List(templates) = %+v", templates)
	}
	byVenue, total, _ := store.List(ctx, owner, Filter{Query: "blue note"})
	if total != 1 || byVenue[0].ID != created.ID {
		t.Errorf("List(venue query) = %+v", byVenue)
	}

	upcoming, err := store.Upcoming(ctx, owner, date.Add(-time.Hour), 5)
	if err != nil || len(upcoming) != 1 {
		t.Errorf("Upcoming() = %d, %v", len(upcoming), err)
	}
}

func TestStore_ListOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	early := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	late := time.Date(2026, 9, 1, 20, 0, 0, 0, time.UTC)
	for _, sl := range []models.Setlist{
		{OwnerID: owner, Name: "Zydeco Night"},
		{OwnerID: owner, Name: "Spring Show", PerformanceDate: &early},
		{OwnerID: owner, Name: "Acoustic Set"},
		{OwnerID: owner, Name: "Fall Show", PerformanceDate: &late},
	} {
		if _, err := store.Create(ctx, sl); err != nil {
			t.Fatalf("Create(%q) error = %v", sl.Name, err)
		}
	}

	got, _, err := store.List(ctx, owner, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"Fall Show", "Spring Show", "Acoustic Set", "Zydeco Night"}
	if len(got) != len(want) {
		t.Fatalf("List() returned %d setlists, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("List()[%d] = %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestStore_Items(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	sl, _ := store.Create(ctx, models.Setlist{OwnerID: owner, Name: "Set"})

	var ids []primitive.ObjectID
	for i := 0; i < 3; i++ {
		updated, err := store.AppendItem(ctx, owner, sl.ID, models.SetlistItem{SongID: primitive.NewObjectID()})
		if err != nil {
			t.Fatalf("AppendItem() error = %v", err)
		}
		ids = append(ids, updated.Items[len(updated.Items)-1].ID)
	}

	moved, err := store.MoveItem(ctx, owner, sl.ID, ids[2], 0)
	if err != nil {
		t.Fatalf("MoveItem() error = %v", err)
	}
	got := itemIDs(moved.Items)
	if got[0] != ids[2] || got[1] != ids[0] || got[2] != ids[1] {
		t.Errorf("after move order = %v", got)
	}

	bpm := 140
	updated, err := store.UpdateItem(ctx, owner, sl.ID, models.SetlistItem{ID: ids[0], CustomBPM: &bpm, IsEncore: true, TransitionNotes: " segue "})
	if err != nil {
		t.Fatalf("UpdateItem() error = %v", err)
	}
	it := updated.Items[updated.IndexOfItem(ids[0])]
	if it.CustomBPM == nil || *it.CustomBPM != 140 || !it.IsEncore || it.TransitionNotes != "segue" {
		t.Errorf("UpdateItem() item = %+v", it)
	}

	removed, err := store.RemoveItem(ctx, owner, sl.ID, ids[2])
	if err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}
	if len(removed.Items) != 2 || removed.Items[0].ID != ids[0] {
		t.Errorf("after remove = %v", itemIDs(removed.Items))
	}

	if _, err := store.RemoveItem(ctx, owner, sl.ID, ids[2]); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("RemoveItem(gone) error = %v, want ErrItemNotFound", err)
	}
	if _, err := store.RemoveItem(ctx, primitive.NewObjectID(), sl.ID, ids[0]); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveItem(other owner) error = %v, want ErrNotFound", err)
	}
	if _, err := store.MoveItem(ctx, owner, sl.ID, primitive.NewObjectID(), 0); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("MoveItem(unknown item) error = %v, want ErrItemNotFound", err)
	}
}

func TestStore_PullSong(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	song := primitive.NewObjectID()
	other := primitive.NewObjectID()

	a, _ := store.Create(ctx, models.Setlist{OwnerID: owner, Name: "A", Items: []models.SetlistItem{{SongID: song}, {SongID: other}, {SongID: song}}})
	b, _ := store.Create(ctx, models.Setlist{OwnerID: owner, Name: "B", Items: []models.SetlistItem{{SongID: other}}})
	foreign, _ := store.Create(ctx, models.Setlist{OwnerID: primitive.NewObjectID(), Name: "F", Items: []models.SetlistItem{{SongID: song}}})

	n, err := store.PullSong(ctx, owner, song)
	if err != nil {
		t.Fatalf("PullSong() error = %v", err)
	}
	if n != 1 {
		t.Errorf("PullSong() changed %d setlists, want 1", n)
	}

	gotA, _ := store.Get(ctx, owner, a.ID)
	if len(gotA.Items) != 1 || gotA.Items[0].SongID != other {
		t.Errorf("setlist A items = %+v", gotA.Items)
	}
	gotB, _ := store.Get(ctx, owner, b.ID)
	if len(gotB.Items) != 1 {
		t.Errorf("setlist B changed: %+v", gotB.Items)
	}
	gotF, _ := store.Get(ctx, foreign.OwnerID, foreign.ID)
	if len(gotF.Items) != 1 {
		t.Error("another owner's setlist was modified")
	}
}

func TestStore_UpdateDetailsAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	mins := 45
	sl, _ := store.Create(ctx, models.Setlist{OwnerID: owner, Name: "Old", ExpectedMinutes: &mins})

	sl.Name = "New"
	sl.ExpectedMinutes = nil
	sl.IsActive = true
	got, err := store.UpdateDetails(ctx, owner, sl)
	if err != nil {
		t.Fatalf("UpdateDetails() error = %v", err)
	}
	if got.Name != "New" || got.ExpectedMinutes != nil || !got.IsActive {
		t.Errorf("UpdateDetails() = %+v", got)
	}

	if err := store.Delete(ctx, owner, sl.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx, owner, sl.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
