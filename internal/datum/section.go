package datum

import (
	"fmt"
	"time"
)

// ReminderSection is a time bucket of the grouped reminder collection.
type ReminderSection int

const (
	SectionLate ReminderSection = iota
	SectionToday
	SectionTomorrow
	SectionThisWeek
	SectionLater
	// SectionDisabled holds disabled reminders in engines that support
	// disabling.
	SectionDisabled
)

// DatedSections are the five sections every engine provides.
var DatedSections = []ReminderSection{SectionLate, SectionToday, SectionTomorrow, SectionThisWeek, SectionLater}

// Sections returns the sections an engine presents.
func Sections(supportsDisabling bool) []ReminderSection {
	out := append([]ReminderSection(nil), DatedSections...)
	if supportsDisabling {
		out = append(out, SectionDisabled)
	}
	return out
}

func (s ReminderSection) String() string {
	switch s {
	case SectionLate:
		return "Late"
	case SectionToday:
		return "Today"
	case SectionTomorrow:
		return "Tomorrow"
	case SectionThisWeek:
		return "This Week"
	case SectionLater:
		return "Later"
	case SectionDisabled:
		return "Disabled"
	default:
		return fmt.Sprintf("ReminderSection(%d)", int(s))
	}
}

// Open bounds of the Late and Later sections.
var (
	DistantPast   = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	DistantFuture = time.Date(4000, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// DateInterval is the half-open interval [Start, End).
type DateInterval struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the interval.
func (d DateInterval) Contains(t time.Time) bool {
	return !t.Before(d.Start) && t.Before(d.End)
}

// IsEmpty reports whether the interval contains nothing.
func (d DateInterval) IsEmpty() bool {
	return !d.Start.Before(d.End)
}

// DateCalculator computes section boundaries from calendar days.
type DateCalculator struct {
	Location     *time.Location
	FirstWeekday time.Weekday
}

// NewDateCalculator returns a calculator for loc whose weeks start on first.
func NewDateCalculator(loc *time.Location, first time.Weekday) DateCalculator {
	if loc == nil {
		loc = time.Local
	}
	return DateCalculator{Location: loc, FirstWeekday: first}
}

func (c DateCalculator) loc() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// StartOfDay returns midnight of t's day in the calculator's location.
func (c DateCalculator) StartOfDay(t time.Time) time.Time {
	t = t.In(c.loc())
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc())
}

// Interval returns the date interval of section relative to now. Late's
// interval excludes never-performed reminders, which engines add separately.
// The Disabled section has no date interval.
func (c DateCalculator) Interval(section ReminderSection, now time.Time) DateInterval {
	startOfToday := c.StartOfDay(now)
	endOfToday := startOfToday.AddDate(0, 0, 1)
	endOfTomorrow := startOfToday.AddDate(0, 0, 2)
	endOfWeek := c.startOfNextWeek(startOfToday)
	if endOfWeek.Before(endOfTomorrow) {
		endOfWeek = endOfTomorrow
	}

	switch section {
	case SectionLate:
		return DateInterval{Start: DistantPast, End: startOfToday}
	case SectionToday:
		return DateInterval{Start: startOfToday, End: endOfToday}
	case SectionTomorrow:
		return DateInterval{Start: endOfToday, End: endOfTomorrow}
	case SectionThisWeek:
		return DateInterval{Start: endOfTomorrow, End: endOfWeek}
	case SectionLater:
		return DateInterval{Start: endOfWeek, End: DistantFuture}
	default:
		return DateInterval{}
	}
}

// Section returns the dated section of a reminder's next perform date. A nil
// date means never performed and is late.
func (c DateCalculator) Section(next *time.Time, now time.Time) ReminderSection {
	if next == nil {
		return SectionLate
	}
	for _, s := range DatedSections {
		if c.Interval(s, now).Contains(*next) {
			return s
		}
	}
	if next.Before(DistantPast) {
		return SectionLate
	}
	return SectionLater
}

func (c DateCalculator) startOfNextWeek(startOfToday time.Time) time.Time {
	delta := (7 + int(c.FirstWeekday) - int(startOfToday.Weekday())) % 7
	if delta == 0 {
		delta = 7
	}
	return startOfToday.AddDate(0, 0, delta)
}
