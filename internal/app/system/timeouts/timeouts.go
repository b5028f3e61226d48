// Package timeouts holds the timeout values handlers and stores use for
// database work. Bootstrap configures them from app config.
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults used until Configure is called.
const (
	DefaultPing  = 2 * time.Second
	DefaultShort = 5 * time.Second
	DefaultLong  = 30 * time.Second
)

// Config holds timeout values. Zero fields leave the current value alone.
type Config struct {
	Ping  time.Duration // health checks
	Short time.Duration // single-document reads and writes
	Long  time.Duration // imports, schema setup, cascades
}

var (
	mu  sync.RWMutex
	cur = Config{Ping: DefaultPing, Short: DefaultShort, Long: DefaultLong}
)

// Ping returns the timeout for health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return cur.Ping
}

// Short returns the timeout for simple operations.
func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return cur.Short
}

// Long returns the timeout for multi-step operations.
func Long() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return cur.Long
}

// Configure sets custom timeout values.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		cur.Ping = cfg.Ping
	}
	if cfg.Short > 0 {
		cur.Short = cfg.Short
	}
	if cfg.Long > 0 {
		cur.Long = cfg.Long
	}
}

// Reset restores the defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = Config{Ping: DefaultPing, Short: DefaultShort, Long: DefaultLong}
}

// Current returns the current configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// WithTimeout derives a context with timeout whose cancel func logs when the
// deadline was hit.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
