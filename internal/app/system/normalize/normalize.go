// Package normalize provides helper functions for consistent string
// normalization before storage or comparison.
package normalize

import (
	"strings"
	"unicode"
)

// Email trims whitespace and lowercases.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims whitespace and collapses inner runs of spaces.
// Use text.Fold() for case-insensitive comparison keys.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Status trims whitespace and lowercases.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims whitespace.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// DisplayNameFromEmail returns the local part of an email address, or "".
func DisplayNameFromEmail(email string) string {
	email = Email(email)
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return ""
	}
	return email[:at]
}

// Genre title-cases each word so "classic rock" and "Classic Rock" group
// together.
func Genre(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Tags splits a comma-separated list, trims and lowercases each tag, and
// drops blanks and duplicates while keeping first-seen order.
func Tags(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		t := strings.ToLower(Name(part))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
