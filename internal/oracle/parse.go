package oracle

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/phrazzld/tempo/internal/domain"
)

// Defaults substituted when a reschedule response is unusable.
const (
	DefaultPriority = domain.PriorityDefault
	DefaultDuration = 30

	// MaxDuration caps an accepted duration suggestion at one day.
	MaxDuration = 24 * 60
)

var (
	fencedBlockRegex   = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")
	trailingCommaRegex = regexp.MustCompile(`,\s*([}\]])`)
	timeSlotRegex      = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)
)

// Reschedule is the structured answer to "where should this missed task go".
type Reschedule struct {
	Traits            []string      `json:"updatedTraits"`
	Period            domain.Period `json:"period"`
	Priority          int           `json:"priority"`
	SuggestedTimeSlot string        `json:"suggestedTimeSlot,omitempty"`
	EstimatedDuration int           `json:"estimatedDuration"`
}

// DefaultReschedule is the answer used whenever the service's reply cannot be
// trusted. It keeps a copy of the previous traits.
func DefaultReschedule(previous []string) Reschedule {
	return Reschedule{
		Traits:            domain.CopyTraits(previous),
		Period:            domain.DefaultPeriod,
		Priority:          DefaultPriority,
		EstimatedDuration: DefaultDuration,
	}
}

// ParseTraitList splits a comma-separated reply into trimmed, non-empty
// traits. Surrounding quotes on an item are dropped. It returns an empty,
// non-nil slice when nothing usable is found.
func ParseTraitList(text string) []string {
	items := strings.Split(text, ",")
	traits := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.Trim(strings.TrimSpace(item), `"'`)
		item = strings.TrimSpace(item)
		if item != "" {
			traits = append(traits, item)
		}
	}
	return traits
}

// ParsePeriodText normalizes a bare period reply. The text is only trimmed
// and lower-cased; callers validate it against the known periods.
func ParsePeriodText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// ParseReschedule decodes a reschedule reply. The JSON object may be wrapped in
// prose or a markdown code fence. Any failure to find an object, or a period
// outside the known set, yields DefaultReschedule(previous). Individual
// fields that fail coercion fall back to their own defaults.
func ParseReschedule(text string, previous []string) Result[Reschedule] {
	fields, err := extractObject(text)
	if err != nil {
		return defaulted(DefaultReschedule(previous), err)
	}

	periodText, _ := fields["period"].(string)
	period, err := domain.ParsePeriod(periodText)
	if err != nil {
		return defaulted(DefaultReschedule(previous),
			fmt.Errorf("%w: period %q: %v", ErrInvalidResponse, periodText, err))
	}

	out := Reschedule{
		Traits:            coerceTraits(fields["updatedTraits"], previous),
		Period:            period,
		Priority:          DefaultPriority,
		EstimatedDuration: DefaultDuration,
	}

	if p, ok := coerceInt(fields["priority"]); ok && (p == domain.PriorityExplicit || p == domain.PriorityDefault) {
		out.Priority = p
	}
	if d, ok := coerceInt(fields["estimatedDuration"]); ok && d > 0 && d <= MaxDuration {
		out.EstimatedDuration = d
	}
	if slot, ok := fields["suggestedTimeSlot"].(string); ok {
		out.SuggestedTimeSlot = normalizeTimeSlot(slot)
	}

	return parsed(out)
}

// extractObject locates the first JSON object in text and decodes it.
// Numbers are kept as json.Number so they can be coerced later.
func extractObject(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	if m := fencedBlockRegex.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	idx := strings.Index(text, "{")
	if idx == -1 {
		return nil, fmt.Errorf("%w: no JSON object found", ErrInvalidResponse)
	}
	body := text[idx:]

	fields, err := decodeObject(body)
	if err == nil {
		return fields, nil
	}

	repaired := trailingCommaRegex.ReplaceAllString(body, "$1")
	if repaired != body {
		if fields, rerr := decodeObject(repaired); rerr == nil {
			return fields, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
}

// decodeObject reads one JSON value and ignores anything after it.
func decodeObject(body string) (map[string]any, error) {
	decoder := json.NewDecoder(strings.NewReader(body))
	decoder.UseNumber()

	var fields map[string]any
	if err := decoder.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("null object")
	}
	return fields, nil
}

// coerceInt accepts JSON numbers and numeric strings, rounding fractions.
func coerceInt(raw any) (int, bool) {
	var f float64
	switch v := raw.(type) {
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case float64:
		f = v
	case int:
		return v, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(math.Round(f)), true
}

// coerceTraits keeps the string items of a list. Anything that is not a list,
// or a list with no usable strings, yields a copy of previous.
func coerceTraits(raw any, previous []string) []string {
	items, ok := raw.([]any)
	if !ok {
		return domain.CopyTraits(previous)
	}

	traits := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			traits = append(traits, s)
		}
	}
	if len(traits) == 0 {
		return domain.CopyTraits(previous)
	}
	return traits
}

// normalizeTimeSlot returns slot as zero-padded HH:MM, or "" if it is not a
// valid 24-hour clock time.
func normalizeTimeSlot(slot string) string {
	m := timeSlotRegex.FindStringSubmatch(strings.TrimSpace(slot))
	if m == nil {
		return ""
	}
	hour, _ := strconv.Atoi(m[1])
	return fmt.Sprintf("%02d:%s", hour, m[2])
}
