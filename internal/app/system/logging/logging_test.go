package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevels(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"empty", "", "", false},
		{"single", "auth=debug", "auth=debug", false},
		{"several sorted", " live=warn, Auth=info ,", "auth=info,live=warn", false},
		{"missing level", "auth", "", true},
		{"missing namespace", "=info", "", true},
		{"bad level", "auth=loud", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := ParseLevels(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && l.String() != tt.want {
				t.Errorf("String() = %q, want %q", l.String(), tt.want)
			}
		})
	}
}

func TestLevel_ParentNamespace(t *testing.T) {
	l, err := ParseLevels("live=warn,live.hub=error")
	if err != nil {
		t.Fatal(err)
	}

	cases := map[string]zapcore.Level{
		"live":         zapcore.WarnLevel,
		"live.conn":    zapcore.WarnLevel,
		"live.hub":     zapcore.ErrorLevel,
		"live.hub.reg": zapcore.ErrorLevel,
	}
	for ns, want := range cases {
		got, ok := l.Level(ns)
		if !ok || got != want {
			t.Errorf("Level(%q) = %v, %v; want %v", ns, got, ok, want)
		}
	}
	if _, ok := l.Level("songs"); ok {
		t.Error("Level(songs) should be unset")
	}
}

func TestNamed_RaisesLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	root := zap.New(core)

	l, err := ParseLevels("http=warn")
	if err != nil {
		t.Fatal(err)
	}

	httpLog := l.Named(root, NSHTTP)
	httpLog.Info("dropped")
	httpLog.Warn("kept")

	songsLog := l.Named(root, NSSongs)
	songsLog.Debug("kept too")

	if logs.Len() != 2 {
		t.Fatalf("got %d entries, want 2", logs.Len())
	}
	if e := logs.All()[0]; e.Message != "kept" || e.LoggerName != "http" {
		t.Errorf("first entry = %q from %q", e.Message, e.LoggerName)
	}
}
