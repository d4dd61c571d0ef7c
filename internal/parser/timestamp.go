package parser

import (
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
)

// TimestampResult holds the parsed timestamp and any error.
type TimestampResult struct {
	Time  time.Time
	Error error
}

// Direction resolves expressions like "monday" that could name a day on
// either side of now.
type Direction int

const (
	// Nearest picks the date in the current period.
	Nearest Direction = iota
	// Past picks the most recent matching date. Used for perform dates.
	Past
	// Future picks the next matching date. Used for as-of dates.
	Future
)

func (d Direction) source() dateparser.PreferredDateSource {
	switch d {
	case Past:
		return dateparser.Past
	case Future:
		return dateparser.Future
	default:
		return dateparser.CurrentPeriod
	}
}

// ParseTimestamp parses a natural language timestamp relative to now. The
// result is in now's location.
func ParseTimestamp(input string, now time.Time, dir Direction) TimestampResult {
	input = strings.TrimSpace(input)
	if input == "" || strings.EqualFold(input, "now") {
		return TimestampResult{Time: now}
	}

	cfg := &dateparser.Configuration{
		Languages:           []string{"en"},
		CurrentTime:         now,
		DefaultTimezone:     now.Location(),
		PreferredDateSource: dir.source(),
	}

	result, err := dateparser.Parse(cfg, input)
	if err != nil || result.Time.IsZero() {
		return TimestampResult{Error: NewTimestampError(input)}
	}

	return TimestampResult{Time: result.Time.In(now.Location())}
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
