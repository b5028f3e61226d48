package bootstrap

import (
	"slices"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewTaskRunner_SchemaReady(t *testing.T) {
	deps := offlineDeps(t)
	deps.SchemaReady.Store(true)

	r := newTaskRunner(AppConfig{SchemaRetryInterval: time.Minute}, deps, zap.NewNop())

	if got := r.Jobs(); !slices.Equal(got, []string{"oauth-state-cleanup"}) {
		t.Errorf("jobs = %v", got)
	}
}

func TestNewTaskRunner_SchemaPendingAddsRetry(t *testing.T) {
	deps := offlineDeps(t)

	r := newTaskRunner(AppConfig{SchemaRetryInterval: time.Minute}, deps, zap.NewNop())

	if got := r.Jobs(); !slices.Contains(got, "schema-retry") {
		t.Errorf("jobs = %v, want schema-retry registered", got)
	}
}

func TestDBDeps_SchemaReadyNilFlag(t *testing.T) {
	if !(DBDeps{}).schemaReady() {
		t.Error("nil flag should read as ready")
	}
}
