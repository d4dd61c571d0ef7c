package datum

import (
	"strings"
	"unicode/utf8"
)

// Reminder interval bounds in days.
const (
	MinimumInterval = 1
	MaximumInterval = 180
	DefaultInterval = 7
)

// ShortLabelLength is the rune count after which display names are truncated
// for compact labels.
const ShortLabelLength = 20

// NonEmpty trims surrounding whitespace and returns "" when nothing is left.
// Empty strings stand for "no value" throughout the data layer.
func NonEmpty(s string) string {
	return strings.TrimSpace(s)
}

// NonEmptyPtr is NonEmpty for optional values. It returns nil for nil input
// and for input that trims to nothing.
func NonEmptyPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := NonEmpty(*s)
	if t == "" {
		return nil
	}
	return &t
}

// ShortLabel truncates a display name to ShortLabelLength runes, appending an
// ellipsis when something was cut.
func ShortLabel(name string) string {
	name = NonEmpty(name)
	if utf8.RuneCountInString(name) <= ShortLabelLength {
		return name
	}
	runes := []rune(name)
	return strings.TrimSpace(string(runes[:ShortLabelLength])) + "…"
}
