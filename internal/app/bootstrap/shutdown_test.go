package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/setliststudio/internal/app/system/live"
	"github.com/dalemusser/setliststudio/internal/app/system/tasks"
	"go.uber.org/zap"
)

func withRunner(t *testing.T, r *tasks.Runner) {
	t.Helper()
	prev := taskRunner
	taskRunner = r
	t.Cleanup(func() { taskRunner = prev })
}

func TestShutdown_StopsEverything(t *testing.T) {
	deps := offlineDeps(t)
	deps.Live = live.NewHub(zap.NewNop())
	r := tasks.New(zap.NewNop())
	r.Register(tasks.Job{Name: "idle", Interval: time.Hour, Run: func(context.Context) error { return nil }})
	r.Start()
	withRunner(t, r)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Shutdown(ctx, nil, AppConfig{}, deps, zap.NewNop()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if n := deps.Live.Connections("anyone"); n != 0 {
		t.Errorf("connections after shutdown = %d", n)
	}
}

func TestShutdown_ReportsStuckJob(t *testing.T) {
	deps := offlineDeps(t)
	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	r := tasks.New(zap.NewNop())
	r.Register(tasks.Job{Name: "stuck", Interval: time.Hour, Run: func(context.Context) error {
		close(started)
		<-release
		return nil
	}})
	r.Start()
	<-started
	withRunner(t, r)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := Shutdown(ctx, nil, AppConfig{}, deps, zap.NewNop()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown = %v, want DeadlineExceeded", err)
	}
}
