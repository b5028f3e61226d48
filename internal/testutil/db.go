// Package testutil holds shared test fixtures: MongoDB databases, template
// boot, and signed-in request helpers.
package testutil

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/setliststudio/internal/app/system/indexes"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultMongoURI is used unless SETLISTSTUDIO_TEST_MONGO_URI is set.
	DefaultMongoURI = "mongodb://localhost:27017"
	// TestDBPrefix starts every per-test database name.
	TestDBPrefix = "setliststudio_test_"

	// MongoDB caps database names at 63 bytes.
	maxDBName = 63
)

// MongoURI returns the server the Mongo-backed tests use.
func MongoURI() string {
	if uri := os.Getenv("SETLISTSTUDIO_TEST_MONGO_URI"); uri != "" {
		return uri
	}
	return DefaultMongoURI
}

var shared = sync.OnceValues(func() (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := mongo.Connect(ctx, options.Client().
		ApplyURI(MongoURI()).
		SetMaxPoolSize(50).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return c, nil
})

// SetupTestDB returns an empty database, private to t, with the production
// indexes in place, and drops it when t ends. Without a reachable server the
// test is skipped, or failed when SETLISTSTUDIO_REQUIRE_MONGO is set.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	client, err := shared()
	if err != nil {
		if os.Getenv("SETLISTSTUDIO_REQUIRE_MONGO") != "" {
			t.Fatalf("MongoDB at %s: %v", MongoURI(), err)
		}
		t.Skipf("MongoDB not available at %s: %v", MongoURI(), err)
	}

	db := client.Database(dbNameFor(t.Name()))
	ctx, cancel := TestContext()
	defer cancel()
	if err := db.Drop(ctx); err != nil {
		t.Fatalf("drop %s: %v", db.Name(), err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("indexes: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("drop %s: %v", db.Name(), err)
		}
	})
	return db
}

func dbNameFor(test string) string {
	name := TestDBPrefix + strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, test)
	if len(name) > maxDBName {
		name = name[:maxDBName]
	}
	return name
}

// TestContext bounds a test's database calls.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// OfflineDB returns a handle on a client aimed at a closed port. Connecting
// is lazy, so handlers can be wired with it; any query fails after 200ms.
func OfflineDB(t *testing.T) *mongo.Database {
	t.Helper()
	c, err := mongo.Connect(context.Background(), options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(200*time.Millisecond))
	if err != nil {
		t.Fatalf("offline client: %v", err)
	}
	t.Cleanup(func() { _ = c.Disconnect(context.Background()) })
	return c.Database("offline")
}
