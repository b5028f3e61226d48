// Package logging applies per-namespace minimum levels to named zap loggers.
//
// Levels are configured as "namespace=level" pairs, for example
// "auth=debug,live=warn,http=error". A namespace matches its dotted
// children, so "live" also covers "live.hub". zap can only raise a logger's
// level, so an entry below the root logger's level has no effect.
package logging

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Namespaces used across the app.
const (
	NSDBInit   = "dbinit"
	NSAuth     = "auth"
	NSSongs    = "songs"
	NSSetlists = "setlists"
	NSLive     = "live"
	NSHTTP     = "http"
)

// Levels maps namespaces to minimum levels.
type Levels struct {
	m map[string]zapcore.Level
}

// ParseLevels parses a comma-separated list of namespace=level pairs.
// An empty string yields empty Levels.
func ParseLevels(s string) (Levels, error) {
	l := Levels{m: map[string]zapcore.Level{}}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		ns, lv, ok := strings.Cut(pair, "=")
		ns = strings.ToLower(strings.TrimSpace(ns))
		if !ok || ns == "" {
			return Levels{}, fmt.Errorf("logging: %q is not namespace=level", pair)
		}
		level, err := zapcore.ParseLevel(strings.TrimSpace(lv))
		if err != nil {
			return Levels{}, fmt.Errorf("logging: namespace %q: %w", ns, err)
		}
		l.m[ns] = level
	}
	return l, nil
}

// Level returns the configured level for ns, checking parent namespaces
// from most to least specific.
func (l Levels) Level(ns string) (zapcore.Level, bool) {
	ns = strings.ToLower(ns)
	for {
		if lv, ok := l.m[ns]; ok {
			return lv, true
		}
		i := strings.LastIndex(ns, ".")
		if i < 0 {
			return 0, false
		}
		ns = ns[:i]
	}
}

// Named returns logger.Named(ns) with the configured minimum level applied.
func (l Levels) Named(logger *zap.Logger, ns string) *zap.Logger {
	named := logger.Named(ns)
	if lv, ok := l.Level(ns); ok {
		named = named.WithOptions(zap.IncreaseLevel(lv))
	}
	return named
}

// String renders the levels in sorted namespace order.
func (l Levels) String() string {
	keys := make([]string, 0, len(l.m))
	for k := range l.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + l.m[k].String()
	}
	return strings.Join(parts, ",")
}
