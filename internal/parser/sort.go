package parser

import (
	"strings"

	"github.com/manav03panchal/waterme/internal/datum"
)

// splitOrder strips a leading '-' which selects descending order.
func splitOrder(input string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(input))
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		return rest, false
	}
	return strings.TrimPrefix(s, "+"), true
}

// ParseReminderSort parses "next", "-interval" and friends. Empty input
// sorts by next perform date, ascending.
func ParseReminderSort(input string) (datum.ReminderSortOrder, bool, error) {
	name, ascending := splitOrder(input)
	if name == "" {
		return datum.SortByNextPerformDate, ascending, nil
	}
	order, err := datum.ParseReminderSortOrder(name)
	if err != nil {
		return 0, false, NewSortError(input)
	}
	return order, ascending, nil
}

// ParseVesselSort parses "name" or "kind", optionally prefixed with '-'.
func ParseVesselSort(input string) (datum.VesselSortOrder, bool, error) {
	name, ascending := splitOrder(input)
	if name == "" {
		return datum.SortByDisplayName, ascending, nil
	}
	order, err := datum.ParseVesselSortOrder(name)
	if err != nil {
		return 0, false, NewSortError(input)
	}
	return order, ascending, nil
}
