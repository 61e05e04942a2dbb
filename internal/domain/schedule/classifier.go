package schedule

import (
	"strings"

	"github.com/phrazzld/tempo/internal/domain"
)

// classifyPeriod returns the first period, in table order, that has a keyword
// appearing anywhere in the description. Matching is a case-insensitive
// substring test, so "am" also matches inside longer words.
// The boolean is false when no keyword matched.
func classifyPeriod(description string, params *Params) (domain.Period, bool) {
	text := strings.ToLower(description)
	for _, entry := range params.PeriodKeywords {
		if containsAny(text, entry.Keywords) {
			return entry.Period, true
		}
	}
	return "", false
}

// containsAny reports whether text contains any of the keywords.
// text is expected to be lower-cased already.
func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
