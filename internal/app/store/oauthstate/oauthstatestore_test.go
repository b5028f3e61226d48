package oauthstate

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/setliststudio/internal/testutil"
)

func TestStore_CreateAndConsume(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	state, err := store.Create(ctx, "google", "/setlists")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if state == "" {
		t.Fatal("Create() returned empty state")
	}

	got, err := store.Consume(ctx, state, "google")
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if got.ReturnURL != "/setlists" {
		t.Errorf("ReturnURL = %q, want /setlists", got.ReturnURL)
	}

	// Single use.
	if _, err := store.Consume(ctx, state, "google"); !errors.Is(err, ErrInvalid) {
		t.Errorf("second Consume() error = %v, want ErrInvalid", err)
	}
}

func TestStore_Consume_BoundToProvider(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	state, _ := store.Create(ctx, "google", "")
	if _, err := store.Consume(ctx, state, "facebook"); !errors.Is(err, ErrInvalid) {
		t.Errorf("Consume(wrong provider) error = %v, want ErrInvalid", err)
	}
	// The mismatched attempt must not burn the state.
	if _, err := store.Consume(ctx, state, "google"); err != nil {
		t.Errorf("Consume(right provider) error = %v", err)
	}
}

func TestStore_Consume_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.now = func() time.Time { return time.Now().Add(-2 * TTL) }
	if err := store.Insert(ctx, "old-state", "google", ""); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	store.now = time.Now

	if _, err := store.Consume(ctx, "old-state", "google"); !errors.Is(err, ErrInvalid) {
		t.Errorf("Consume(expired) error = %v, want ErrInvalid", err)
	}
}

func TestStore_Insert_UniqueConstraint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Insert(ctx, "dup", "google", ""); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := store.Insert(ctx, "dup", "google", ""); err == nil {
		t.Error("Insert() with duplicate state should fail")
	}
}

func TestStore_Consume_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Consume(ctx, "", "google"); !errors.Is(err, ErrInvalid) {
		t.Errorf("Consume(\"\") error = %v, want ErrInvalid", err)
	}
}
