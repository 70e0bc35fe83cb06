// Package slug turns free-text names into URL-safe identifiers and makes
// them unique against a set of slugs already in use.
//
// Both functions are pure: they never touch the store. Fetching the set of
// existing slugs is the caller's job (see service.SlugService).
package slug

import (
	"strconv"
	"strings"
)

// Generate converts text into a URL-friendly slug.
//
// The rules, applied in order:
//  1. lowercase the input and trim surrounding whitespace
//  2. drop every character outside [a-z0-9], whitespace and '-'
//  3. collapse each run of whitespace and hyphens into a single '-'
//  4. trim leading and trailing hyphens
//
// Examples:
//
//	Generate("Hello, World!")   // "hello-world"
//	Generate("  GPT--4  Turbo") // "gpt-4-turbo"
//	Generate("Café")            // "caf"
//	Generate("")                // ""
//
// The output only contains [a-z0-9-] with no doubled or edge hyphens, so
// Generate(Generate(x)) == Generate(x).
func Generate(text string) string {
	text = strings.TrimFunc(strings.ToLower(text), isSpace)

	var b strings.Builder
	b.Grow(len(text))

	// pendingSep is true while we are inside a run of separators that has
	// not been written yet. Writing it lazily is what trims the edges.
	pendingSep := false
	for _, r := range text {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == '-' || isSpace(r):
			pendingSep = true
		}
		// anything else is dropped without breaking the current run
	}

	return b.String()
}

// isSpace reports whether r is whitespace the way browsers see it in a
// regular expression: the Unicode space separators, line and paragraph
// separators and the byte-order mark. U+0085 (NEL) is not whitespace here,
// unlike unicode.IsSpace.
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		'\u00a0', '\u1680', '\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}

// Unique returns base unchanged when it is not in existing. Otherwise it
// appends an integer counter directly to base, with no separator, starting
// at 1 ("foo1", "foo2", ...) and returns the first candidate not in existing.
//
// existing is finite, so the loop always terminates.
func Unique(base string, existing []string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		taken[s] = struct{}{}
	}

	candidate := base
	for counter := 1; ; counter++ {
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
		candidate = base + strconv.Itoa(counter)
	}
}
