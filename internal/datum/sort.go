package datum

import (
	"fmt"
	"sort"
	"time"
)

// ReminderSortOrder selects the key reminders are sorted by.
type ReminderSortOrder int

const (
	SortByNextPerformDate ReminderSortOrder = iota
	SortByInterval
	SortByKind
	SortByNote
)

func (o ReminderSortOrder) String() string {
	switch o {
	case SortByNextPerformDate:
		return "next"
	case SortByInterval:
		return "interval"
	case SortByKind:
		return "kind"
	case SortByNote:
		return "note"
	default:
		return fmt.Sprintf("ReminderSortOrder(%d)", int(o))
	}
}

// ParseReminderSortOrder parses the String form of a sort order.
func ParseReminderSortOrder(s string) (ReminderSortOrder, error) {
	for _, o := range []ReminderSortOrder{SortByNextPerformDate, SortByInterval, SortByKind, SortByNote} {
		if o.String() == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown reminder sort order %q", s)
}

// VesselSortOrder selects the key vessels are sorted by.
type VesselSortOrder int

const (
	SortByDisplayName VesselSortOrder = iota
	SortByVesselKind
)

func (o VesselSortOrder) String() string {
	switch o {
	case SortByDisplayName:
		return "name"
	case SortByVesselKind:
		return "kind"
	default:
		return fmt.Sprintf("VesselSortOrder(%d)", int(o))
	}
}

// ParseVesselSortOrder parses the String form of a sort order.
func ParseVesselSortOrder(s string) (VesselSortOrder, error) {
	switch s {
	case "name":
		return SortByDisplayName, nil
	case "kind":
		return SortByVesselKind, nil
	}
	return 0, fmt.Errorf("unknown vessel sort order %q", s)
}

// ReminderSortKey is the comparable projection of a reminder used by engines
// that sort in memory.
type ReminderSortKey struct {
	ID              string
	CreatedAt       time.Time
	NextPerformDate *time.Time
	Interval        int
	Kind            KindCase
	Note            string
}

// SortReminderKeys orders keys by order. Missing values (nil date, empty
// note) come first when ascending; ties fall back to creation time, then id.
// Descending is the exact reverse of ascending.
func SortReminderKeys(keys []ReminderSortKey, order ReminderSortOrder, ascending bool) {
	less := func(a, b ReminderSortKey) int {
		switch order {
		case SortByNextPerformDate:
			if c := compareTimePtr(a.NextPerformDate, b.NextPerformDate); c != 0 {
				return c
			}
		case SortByInterval:
			if c := compareInt(a.Interval, b.Interval); c != 0 {
				return c
			}
		case SortByKind:
			if c := compareString(string(a.Kind), string(b.Kind)); c != 0 {
				return c
			}
		case SortByNote:
			if c := compareOptionalString(a.Note, b.Note); c != 0 {
				return c
			}
		}
		if c := compareTime(a.CreatedAt, b.CreatedAt); c != 0 {
			return c
		}
		return compareString(a.ID, b.ID)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		c := less(keys[i], keys[j])
		if ascending {
			return c < 0
		}
		return c > 0
	})
}

// VesselSortKey is the comparable projection of a vessel.
type VesselSortKey struct {
	ID          string
	CreatedAt   time.Time
	DisplayName string
	Kind        VesselKind
}

// SortVesselKeys orders vessels; unnamed vessels come first when ascending.
func SortVesselKeys(keys []VesselSortKey, order VesselSortOrder, ascending bool) {
	less := func(a, b VesselSortKey) int {
		switch order {
		case SortByDisplayName:
			if c := compareOptionalString(a.DisplayName, b.DisplayName); c != 0 {
				return c
			}
		case SortByVesselKind:
			if c := compareString(string(a.Kind), string(b.Kind)); c != 0 {
				return c
			}
		}
		if c := compareTime(a.CreatedAt, b.CreatedAt); c != 0 {
			return c
		}
		return compareString(a.ID, b.ID)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		c := less(keys[i], keys[j])
		if ascending {
			return c < 0
		}
		return c > 0
	})
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareOptionalString(a, b string) int {
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	}
	return compareString(a, b)
}

func compareTime(a, b time.Time) int {
	return a.Compare(b)
}

func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}
