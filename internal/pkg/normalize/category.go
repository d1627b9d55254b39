package normalize

import (
	"regexp"
	"strings"
)

// Youth, women and reserve competitions are priced from thin markets and
// routinely mismatch across books, so they are dropped at scrape time.
var categoryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bu-?1[5-9]\b`),
	regexp.MustCompile(`\bu-?2[0-3]\b`),
	regexp.MustCompile(`\b(women|zene|female|femini)\b`),
	regexp.MustCompile(`\b(reserve|reserves|rezerve)\b`),
	regexp.MustCompile(`\b(youth|junior|juniori|kadeti)\b`),
	regexp.MustCompile(`\bamateur\b`),
	regexp.MustCompile(`\bb\s?tim\b`),
	regexp.MustCompile(`\(w\)`),
}

// IsFilteredCategory reports whether a league or team label belongs to a
// category the pipeline skips.
func IsFilteredCategory(label string) bool {
	l := strings.ToLower(label)
	for _, re := range categoryPatterns {
		if re.MatchString(l) {
			return true
		}
	}
	return false
}
