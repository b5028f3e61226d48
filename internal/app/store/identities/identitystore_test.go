package identitystore

import (
	"errors"
	"testing"

	"github.com/dalemusser/setliststudio/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_LinkAndFind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	linked, err := store.Link(ctx, userID, "Google", "sub-1", "Ana@Example.com")
	if err != nil {
		t.Fatalf("Link() error = %v", err)
	}
	if linked.Provider != "google" || linked.Email != "ana@example.com" {
		t.Errorf("Link() = %+v", linked)
	}

	got, err := store.Find(ctx, "google", "sub-1")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got.UserID != userID {
		t.Errorf("Find() UserID = %v, want %v", got.UserID, userID)
	}

	if _, err := store.Find(ctx, "facebook", "sub-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find(other provider) error = %v, want ErrNotFound", err)
	}
}

func TestStore_Link_UniquePerProviderAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Link(ctx, primitive.NewObjectID(), "microsoft", "m-1", ""); err != nil {
		t.Fatalf("first Link() error = %v", err)
	}
	if _, err := store.Link(ctx, primitive.NewObjectID(), "microsoft", "m-1", ""); !errors.Is(err, ErrAlreadyLinked) {
		t.Errorf("second Link() error = %v, want ErrAlreadyLinked", err)
	}
	// Same subject at a different provider is a different account.
	if _, err := store.Link(ctx, primitive.NewObjectID(), "facebook", "m-1", ""); err != nil {
		t.Errorf("Link() at other provider error = %v", err)
	}
}

func TestStore_Link_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Link(ctx, primitive.NewObjectID(), "myspace", "x", ""); err == nil {
		t.Error("Link() with unknown provider should fail")
	}
	if _, err := store.Link(ctx, primitive.NewObjectID(), "google", "  ", ""); err == nil {
		t.Error("Link() with blank subject should fail")
	}
}

func TestStore_ListAndUnlink(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	_, _ = store.Link(ctx, userID, "microsoft", "m", "")
	_, _ = store.Link(ctx, userID, "google", "g", "")

	list, err := store.ListForUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if len(list) != 2 || list[0].Provider != "google" {
		t.Errorf("ListForUser() = %+v", list)
	}

	if err := store.Unlink(ctx, userID, "google"); err != nil {
		t.Fatalf("Unlink() error = %v", err)
	}
	if err := store.Unlink(ctx, userID, "google"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Unlink() error = %v, want ErrNotFound", err)
	}
}
