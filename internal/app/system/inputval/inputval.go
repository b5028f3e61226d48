// Package inputval validates form input using waffle/pantry/validate.
//
// Define an input struct with validate and label tags, fill it from form
// values, and call Validate:
//
//	type songInput struct {
//	    Title string `validate:"required,max=200" label:"Title"`
//	    BPM   string `validate:"bpm" label:"BPM"`
//	}
//
//	if res := inputval.Validate(in); res.HasErrors() {
//	    renderWithError(w, r, res.First())
//	    return
//	}
//
// Numeric form fields stay strings until they pass validation; the Optional*
// helpers then turn them into the *int values the models store.
package inputval

import (
	"cmp"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/setliststudio/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/validate"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DateLayout is the layout of <input type="date"> values.
const DateLayout = "2006-01-02"

// FieldError is one failed rule, phrased for the form.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

// Result collects the FieldErrors of one Validate call.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First is the message shown above a form; "" when valid.
func (r *Result) First() string {
	if !r.HasErrors() {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	var b strings.Builder
	for i, e := range r.Errors {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e.Message)
	}
	return b.String()
}

// rule is a registered check plus how to phrase its failure. A nil check
// marks a rule built into pantry/validate.
type rule struct {
	check   func(string) bool
	message func(label, param string) string
}

func fixed(suffix string) func(string, string) string {
	return func(label, _ string) string { return label + suffix }
}

var rules = map[string]rule{
	"required": {message: fixed(" is required.")},
	"min": {message: func(label, n string) string {
		return label + " must be at least " + n + " characters."
	}},
	"max": {message: func(label, n string) string {
		return label + " must be at most " + n + " characters."
	}},
	"oneof": {message: func(label, opts string) string {
		return label + " must be one of: " + strings.ReplaceAll(opts, " ", ", ") + "."
	}},
	"musicalkey": {IsValidKey, fixed(" must be a key like C, F#, Bb or Am.")},
	"bpm": {IsValidBPM, func(label, _ string) string {
		return fmt.Sprintf("%s must be a whole number from %d to %d.", label, models.MinBPM, models.MaxBPM)
	}},
	"difficulty": {IsValidDifficulty, func(label, _ string) string {
		return fmt.Sprintf("%s must be from %d to %d.", label, models.MinDifficulty, models.MaxDifficulty)
	}},
	"duration": {IsValidDuration, func(label, _ string) string {
		return fmt.Sprintf("%s must be m:ss or seconds, at most %s.", label, models.FormatDuration(models.MaxDurationSecond))
	}},
	"minutes": {IsValidExpectedMinutes, func(label, _ string) string {
		return fmt.Sprintf("%s must be from 1 to %d minutes.", label, models.MaxExpectedMinutes)
	}},
	"date":     {IsValidDate, fixed(" must be a date (YYYY-MM-DD).")},
	"objectid": {IsValidObjectID, fixed(" is not a valid ID.")},
}

var validator = sync.OnceValue(func() *validate.Validator {
	v := validate.New(validate.WithStopOnFirstError())
	for name, r := range rules {
		if r.check == nil {
			continue
		}
		check := r.check
		v.RegisterRuleFunc(name, func(value any) bool {
			s, ok := value.(string)
			return ok && check(s)
		}, name)
	}
	return v
})

// Validate runs the validate tags of struct s and phrases each failure with
// the field's label tag.
//
// Beyond pantry/validate's required, min, max and oneof, the rules
// musicalkey, bpm, difficulty, duration, minutes, date and objectid are
// available. They accept "", so pair them with required when the field is
// mandatory.
func Validate(s any) *Result {
	res := &Result{}
	var errs validate.Errors
	if !errors.As(validator().Struct(s), &errs) {
		return res
	}
	labels := labelsOf(s)
	for _, e := range errs {
		label := cmp.Or(labels[e.Field], e.Field)
		msg := fixed(" is invalid.")(label, "")
		if r, ok := rules[e.Rule]; ok {
			msg = r.message(label, e.Param)
		}
		res.Errors = append(res.Errors, FieldError{Field: e.Field, Label: label, Message: msg})
	}
	return res
}

// labelsOf maps each field's name, as validate reports it, to its label tag.
func labelsOf(s any) map[string]string {
	t := reflect.TypeOf(s)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	labels := map[string]string{}
	if t == nil || t.Kind() != reflect.Struct {
		return labels
	}
	for i := range t.NumField() {
		f := t.Field(i)
		label := f.Tag.Get("label")
		if label == "" {
			continue
		}
		name := f.Name
		if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag != "" && tag != "-" {
			name = tag
		}
		labels[name] = label
	}
	return labels
}

// IsValidKey reports whether s is empty or an accepted musical key.
func IsValidKey(s string) bool {
	return models.IsValidMusicalKey(strings.TrimSpace(s))
}

func intInRange(s string, lo, hi int) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	n, err := strconv.Atoi(s)
	return err == nil && n >= lo && n <= hi
}

// IsValidBPM reports whether s is empty or a tempo in the accepted range.
func IsValidBPM(s string) bool { return intInRange(s, models.MinBPM, models.MaxBPM) }

// IsValidDifficulty reports whether s is empty or a difficulty rating.
func IsValidDifficulty(s string) bool {
	return intInRange(s, models.MinDifficulty, models.MaxDifficulty)
}

// IsValidExpectedMinutes reports whether s is empty or a planned length.
func IsValidExpectedMinutes(s string) bool { return intInRange(s, 1, models.MaxExpectedMinutes) }

// IsValidDuration reports whether s is empty or a parseable duration.
func IsValidDuration(s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	_, ok := ParseDuration(s)
	return ok
}

// ParseDuration parses "m:ss", "h:mm:ss" or plain seconds into seconds.
// The result must be between 1 second and the maximum song length.
func ParseDuration(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, false
	}
	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, false
		}
		// Every field after the first is a 0-59 sub-unit.
		if i > 0 && (n > 59 || len(p) != 2) {
			return 0, false
		}
		total = total*60 + n
	}
	if total < 1 || total > models.MaxDurationSecond {
		return 0, false
	}
	return total, true
}

// IsValidDate reports whether s is empty or a YYYY-MM-DD date.
func IsValidDate(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// IsValidObjectID checks if the given string is a valid MongoDB ObjectID hex.
func IsValidObjectID(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}

// OptionalInt converts a validated numeric field; empty yields nil.
func OptionalInt(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

// OptionalDuration converts a validated duration field; empty yields nil.
func OptionalDuration(s string) *int {
	n, ok := ParseDuration(s)
	if !ok {
		return nil
	}
	return &n
}

// OptionalDate converts a validated date field to a UTC midnight time;
// empty yields nil.
func OptionalDate(s string) *time.Time {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &t
}

// FormatOptionalInt renders an optional int for a form field.
func FormatOptionalInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

// FormatOptionalDate renders an optional date for a date input.
func FormatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(DateLayout)
}
