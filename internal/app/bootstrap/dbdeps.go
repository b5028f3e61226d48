// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"sync/atomic"

	"github.com/dalemusser/setliststudio/internal/app/system/live"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// It is created in ConnectDB and passed to EnsureSchema, Startup,
// BuildHandler, and Shutdown. Shutdown closes what it holds.
type DBDeps struct {
	// MongoDB client and database. When the initial connect fails and the
	// policy suppresses the error, the client is a lazy one that connects
	// on first use.
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// SchemaReady is set once collections, validators and indexes exist.
	// Health checks report not-ready until then.
	SchemaReady *atomic.Bool

	// Live fans change events out to each owner's open connections.
	Live *live.Hub
}

// schemaReady reports the schema flag; a nil flag reads as ready.
func (d DBDeps) schemaReady() bool {
	return d.SchemaReady == nil || d.SchemaReady.Load()
}
