package inputval

import (
	"strings"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"225", 225, true},
		{"3:45", 225, true},
		{" 0:05 ", 5, true},
		{"1:00:00", 3600, true},
		{"1:00:01", 0, false}, // over the limit
		{"3:5", 0, false},
		{"3:60", 0, false},
		{"0", 0, false},
		{"0:00", 0, false},
		{"-5", 0, false},
		{"abc", 0, false},
		{"1:2:3:4", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDuration(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseDuration(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRangeRules(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) bool
		in   string
		want bool
	}{
		{"bpm empty", IsValidBPM, "", true},
		{"bpm low edge", IsValidBPM, "40", true},
		{"bpm high edge", IsValidBPM, "250", true},
		{"bpm too low", IsValidBPM, "39", false},
		{"bpm too high", IsValidBPM, "251", false},
		{"bpm decimal", IsValidBPM, "120.5", false},
		{"difficulty ok", IsValidDifficulty, "3", true},
		{"difficulty zero", IsValidDifficulty, "0", false},
		{"difficulty six", IsValidDifficulty, "6", false},
		{"minutes ok", IsValidExpectedMinutes, "90", true},
		{"minutes zero", IsValidExpectedMinutes, "0", false},
		{"key ok", IsValidKey, "F#m", true},
		{"key empty", IsValidKey, "", true},
		{"key bad", IsValidKey, "H", false},
		{"date ok", IsValidDate, "2026-05-01", true},
		{"date bad", IsValidDate, "05/01/2026", false},
		{"objectid bad", IsValidObjectID, "xyz", false},
		{"objectid ok", IsValidObjectID, "507f1f77bcf86cd799439011", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOptionalConverters(t *testing.T) {
	if OptionalInt("") != nil {
		t.Error("OptionalInt(\"\") should be nil")
	}
	if n := OptionalInt(" 120 "); n == nil || *n != 120 {
		t.Errorf("OptionalInt(120) = %v", n)
	}
	if d := OptionalDuration("4:10"); d == nil || *d != 250 {
		t.Errorf("OptionalDuration(4:10) = %v", d)
	}
	if OptionalDuration("") != nil {
		t.Error("OptionalDuration(\"\") should be nil")
	}

	d := OptionalDate("2026-12-31")
	if d == nil || !d.Equal(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("OptionalDate = %v", d)
	}
	if FormatOptionalDate(d) != "2026-12-31" {
		t.Errorf("FormatOptionalDate = %q", FormatOptionalDate(d))
	}
	if FormatOptionalInt(nil) != "" {
		t.Error("FormatOptionalInt(nil) should be empty")
	}
	n := 7
	if FormatOptionalInt(&n) != "7" {
		t.Error("FormatOptionalInt(7) should be 7")
	}
}

type songForm struct {
	Title string `validate:"required,max=200" label:"Title"`
	BPM   string `validate:"bpm" label:"BPM"`
	Key   string `validate:"musicalkey" label:"Key"`
}

func TestValidate(t *testing.T) {
	if res := Validate(songForm{Title: "Wonderwall", BPM: "87", Key: "F#m"}); res.HasErrors() {
		t.Errorf("valid form rejected: %s", res.All())
	}

	res := Validate(songForm{Title: "", BPM: "87"})
	if !res.HasErrors() {
		t.Fatal("missing title accepted")
	}
	if !strings.Contains(strings.ToLower(res.First()), "title") {
		t.Errorf("First() = %q, want a message naming the title", res.First())
	}

	res = Validate(songForm{Title: "x", BPM: "999"})
	if !res.HasErrors() {
		t.Fatal("bpm 999 accepted")
	}
	if !strings.EqualFold(res.Errors[0].Label, "BPM") {
		t.Errorf("label = %q, want BPM", res.Errors[0].Label)
	}
}

func TestResult_Empty(t *testing.T) {
	var r Result
	if r.HasErrors() || r.First() != "" || r.All() != "" {
		t.Errorf("empty result should report nothing: %+v", r)
	}
}
