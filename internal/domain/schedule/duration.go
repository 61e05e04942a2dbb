package schedule

import "strings"

// estimateDuration applies the duration rules in order and returns the minutes
// of the first matching rule, or the default duration.
func estimateDuration(description string, params *Params) int {
	text := strings.ToLower(description)
	for _, rule := range params.DurationRules {
		if containsAny(text, rule.Keywords) {
			return rule.Minutes
		}
	}
	return params.DefaultDuration
}
