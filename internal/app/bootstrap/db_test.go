package bootstrap

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/setliststudio/internal/app/system/dbinit"
	"github.com/dalemusser/setliststudio/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func offlineDeps(t *testing.T) DBDeps {
	t.Helper()
	db := testutil.OfflineDB(t)
	return DBDeps{
		MongoClient:   db.Client(),
		MongoDatabase: db,
		SchemaReady:   new(atomic.Bool),
	}
}

func TestEnsureSchema_DevelopmentOutsideContainerFails(t *testing.T) {
	deps := offlineDeps(t)
	cfg := AppConfig{DBPolicy: dbinit.NewPolicy("Development", false)}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := EnsureSchema(ctx, nil, cfg, deps, zap.NewNop())

	if err == nil {
		t.Fatal("expected the failure to propagate")
	}
	if !dbinit.IsInitError(err) {
		t.Errorf("error %v is not an InitError", err)
	}
	if deps.SchemaReady.Load() {
		t.Error("schema marked ready after a failure")
	}
}

func TestEnsureSchema_SuppressedOutsideDevelopment(t *testing.T) {
	tests := []struct {
		env         string
		inContainer bool
	}{
		{"Production", false},
		{"Staging", true},
		{"Development", true},
		{"development", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			deps := offlineDeps(t)
			cfg := AppConfig{DBPolicy: dbinit.NewPolicy(tt.env, tt.inContainer)}
			core, logs := observer.New(zap.ErrorLevel)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := EnsureSchema(ctx, nil, cfg, deps, zap.New(core)); err != nil {
				t.Fatalf("EnsureSchema() = %v, want nil", err)
			}
			if deps.SchemaReady.Load() {
				t.Error("schema marked ready after a failure")
			}
			if logs.Len() == 0 {
				t.Error("failure was not logged")
			}
		})
	}
}

func TestEnsureSchema_MarksReady(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db, SchemaReady: new(atomic.Bool)}
	cfg := AppConfig{DBPolicy: dbinit.NewPolicy("Development", false)}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := EnsureSchema(ctx, nil, cfg, deps, zap.NewNop()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if !deps.SchemaReady.Load() {
		t.Error("schema not marked ready")
	}

	// Second run is a no-op.
	if err := EnsureSchema(ctx, nil, cfg, deps, zap.NewNop()); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}
}

func TestInitErrorUnwrapsCause(t *testing.T) {
	deps := offlineDeps(t)
	cfg := AppConfig{DBPolicy: dbinit.NewPolicy("Development", false)}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := EnsureSchema(ctx, nil, cfg, deps, zap.NewNop())

	var ie *dbinit.InitError
	if !errors.As(err, &ie) {
		t.Fatalf("error %v is not an InitError", err)
	}
	if ie.Err == nil {
		t.Error("InitError lost its cause")
	}
}

func TestConnectDB_Policy(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		inContainer bool
		wantInitErr bool
	}{
		{name: "development outside container fails fast", env: "Development", wantInitErr: true},
		{name: "development in container serves degraded", env: "Development", inContainer: true},
		{name: "production serves degraded", env: "Production"},
		{name: "staging serves degraded", env: "Staging"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AppConfig{
				MongoURI:      "mongodb://127.0.0.1:1/?connectTimeoutMS=200",
				MongoDatabase: "setliststudio_unreachable",
				DBPolicy:      dbinit.NewPolicy(tt.env, tt.inContainer),
			}
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()

			deps, err := ConnectDB(ctx, nil, cfg, zap.NewNop())

			if tt.wantInitErr {
				if !dbinit.IsInitError(err) {
					t.Fatalf("ConnectDB() error = %v, want InitError", err)
				}
				if deps.MongoClient != nil {
					t.Error("fail-fast connect returned a client")
				}
				return
			}
			if err != nil {
				t.Fatalf("ConnectDB() error = %v, want nil", err)
			}
			t.Cleanup(func() {
				deps.Live.Close()
				_ = deps.MongoClient.Disconnect(context.Background())
			})
			if deps.MongoClient == nil || deps.MongoDatabase == nil {
				t.Fatal("suppressed connect returned no lazy client")
			}
			if deps.MongoDatabase.Name() != cfg.MongoDatabase {
				t.Errorf("database = %q, want %q", deps.MongoDatabase.Name(), cfg.MongoDatabase)
			}
			if deps.SchemaReady == nil || deps.SchemaReady.Load() {
				t.Error("schema should start not ready")
			}
			if deps.Live == nil {
				t.Error("live hub missing")
			}
		})
	}
}
