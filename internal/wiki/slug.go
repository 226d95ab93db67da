package wiki

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	slugDisallowed = regexp.MustCompile(`[^a-z0-9 -]`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
	hyphenRun      = regexp.MustCompile(`-{2,}`)
	separatorRun   = regexp.MustCompile(`[-_]+`)
)

// Slugify derives a URL-safe identifier from a file's base name: diacritics
// stripped, lowercased, anything outside [a-z0-9 -] dropped, whitespace and
// hyphen runs collapsed to single hyphens. Idempotent.
func Slugify(name string) string {
	name = strings.TrimRight(name, ".")
	if stripped, _, err := transform.String(stripMarks, name); err == nil {
		name = stripped
	}
	name = strings.ToLower(name)
	name = slugDisallowed.ReplaceAllString(name, "")
	name = whitespaceRun.ReplaceAllString(strings.TrimSpace(name), "-")
	name = hyphenRun.ReplaceAllString(name, "-")
	return strings.Trim(name, "-")
}

// Prettify derives a display title from a file's base name: hyphen and
// underscore runs become spaces and the first character of each word is
// uppercased.
func Prettify(name string) string {
	name = strings.TrimSpace(separatorRun.ReplaceAllString(name, " "))
	words := strings.Fields(name)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
