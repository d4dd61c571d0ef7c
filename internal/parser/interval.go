package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/manav03panchal/waterme/internal/datum"
)

// IntervalResult represents the result of parsing a reminder interval.
type IntervalResult struct {
	Days  int
	Valid bool
	Error error
}

// intervalPattern matches expressions like "7", "10d", "2 weeks", "1 month".
var intervalPattern = regexp.MustCompile(`(?i)^(\d+)\s*(d|day|days|w|wk|wks|week|weeks|mo|month|months)?$`)

// intervalWords are single-word intervals.
var intervalWords = map[string]int{
	"daily":       1,
	"weekly":      7,
	"fortnightly": 14,
	"biweekly":    14,
	"monthly":     30,
	"a day":       1,
	"a week":      7,
	"a month":     30,
}

// ParseInterval parses a reminder interval into whole days. Months count as
// 30 days. A leading "every" is ignored. The result must lie between
// datum.MinimumInterval and datum.MaximumInterval.
//
// Supports formats like:
//   - "7" or "7d" or "7 days"
//   - "2w" or "2 weeks"
//   - "1mo" or "1 month"
//   - "weekly", "every 3 days"
func ParseInterval(input string) IntervalResult {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.TrimSpace(strings.TrimPrefix(s, "every "))
	if s == "" {
		return IntervalResult{Error: NewIntervalError(input)}
	}

	days, ok := intervalWords[s]
	if !ok {
		days, ok = parseIntervalNumber(s)
	}
	if !ok {
		return IntervalResult{Error: NewIntervalError(input)}
	}

	if days < datum.MinimumInterval || days > datum.MaximumInterval {
		return IntervalResult{Days: days, Error: NewIntervalRangeError(input)}
	}
	return IntervalResult{Days: days, Valid: true}
}

func parseIntervalNumber(s string) (int, bool) {
	matches := intervalPattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, false
	}
	n, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, false
	}
	// past the maximum whatever the unit
	if n > datum.MaximumInterval {
		return n, true
	}
	return n * unitToDays(matches[2]), true
}

func unitToDays(unit string) int {
	switch strings.ToLower(unit) {
	case "w", "wk", "wks", "week", "weeks":
		return 7
	case "mo", "month", "months":
		return 30
	default:
		return 1
	}
}

// IsIntervalLike checks if a string looks like an interval expression.
func IsIntervalLike(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSpace(strings.TrimPrefix(s, "every "))
	if _, ok := intervalWords[s]; ok {
		return true
	}
	return intervalPattern.MatchString(s)
}
