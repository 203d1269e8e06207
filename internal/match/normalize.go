package match

import (
	"regexp"
	"strings"

	"github.com/rainycape/unidecode"
)

// Annotations stripped from titles and artist credits before comparison.
// These cover the usual noise in human-entered metadata: featuring credits,
// remaster tags and bracketed edition labels.
var removals = []*regexp.Regexp{
	regexp.MustCompile(`\((feat\.|featuring).*?\)`),
	regexp.MustCompile(`-\s*remaster(ed)?\s*\d*`),
	regexp.MustCompile(`-\s*deluxe edition`),
	regexp.MustCompile(`-\s*live`),
	regexp.MustCompile(`\[.*?\]`),
}

var stopWords = []string{
	"feat.",
	"featuring",
	"remastered",
	"remaster",
	"deluxe",
	"edition",
	"explicit",
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize canonicalises free text for comparison: transliterate to ASCII,
// lowercase, strip annotations and stop words, collapse everything that is
// not alphanumeric to single spaces. Idempotent.
func Normalize(text string) string {
	cleaned := strings.ToLower(unidecode.Unidecode(text))
	for _, re := range removals {
		cleaned = re.ReplaceAllString(cleaned, " ")
	}
	for _, word := range stopWords {
		cleaned = strings.ReplaceAll(cleaned, word, " ")
	}
	cleaned = nonAlnum.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

var (
	parenthetical = regexp.MustCompile(`\s*\(.*?\)`)
	dashSeparator = regexp.MustCompile(`\s+-\s+`)
	featSuffix    = regexp.MustCompile(`(?i)\s*(feat\.|featuring\b).*`)
)

// TitleVariants derives alternate search titles from a raw title, most
// specific first: the raw title, the parenthetical-stripped form, the part
// before the first " - " separator, and that part with any featuring credit
// removed. Duplicates (case-insensitive) and blank variants are dropped.
func TitleVariants(title string) []string {
	var variants []string
	seen := make(map[string]struct{})

	add := func(value string) {
		candidate := strings.TrimSpace(value)
		key := strings.ToLower(candidate)
		if candidate == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		variants = append(variants, candidate)
	}

	add(title)
	stripped := parenthetical.ReplaceAllString(title, "")
	add(stripped)
	dashed := dashSeparator.Split(stripped, 2)[0]
	add(dashed)
	add(featSuffix.ReplaceAllString(dashed, ""))

	return variants
}
