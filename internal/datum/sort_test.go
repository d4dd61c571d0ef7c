package datum

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reminderIDs(keys []ReminderSortKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.ID
	}
	return out
}

func sortFixture() []ReminderSortKey {
	created := day(2026, time.January, 1, 0)
	return []ReminderSortKey{
		{ID: "c", CreatedAt: created, NextPerformDate: ptr(day(2026, time.March, 3, 0)), Interval: 3, Kind: KindWater, Note: "b"},
		{ID: "a", CreatedAt: created, NextPerformDate: nil, Interval: 9, Kind: KindMist},
		{ID: "b", CreatedAt: created.Add(time.Hour), NextPerformDate: ptr(day(2026, time.March, 1, 0)), Interval: 3, Kind: KindFertilize, Note: "a"},
	}
}

// =============================================================================
// Reminder Sort Tests
// =============================================================================

func TestSortReminderKeys(t *testing.T) {
	tests := []struct {
		order ReminderSortOrder
		want  []string
	}{
		{SortByNextPerformDate, []string{"a", "b", "c"}},
		{SortByInterval, []string{"c", "b", "a"}},
		{SortByKind, []string{"b", "a", "c"}},
		{SortByNote, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.order.String(), func(t *testing.T) {
			keys := sortFixture()
			SortReminderKeys(keys, tt.order, true)
			assert.Equal(t, tt.want, reminderIDs(keys))

			SortReminderKeys(keys, tt.order, false)
			want := append([]string(nil), tt.want...)
			for i, j := 0, len(want)-1; i < j; i, j = i+1, j-1 {
				want[i], want[j] = want[j], want[i]
			}
			assert.Equal(t, want, reminderIDs(keys), "descending is the reverse")
		})
	}
}

func TestParseReminderSortOrder(t *testing.T) {
	for _, o := range []ReminderSortOrder{SortByNextPerformDate, SortByInterval, SortByKind, SortByNote} {
		got, err := ParseReminderSortOrder(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, got)
	}
	_, err := ParseReminderSortOrder("color")
	assert.Error(t, err)
}

// =============================================================================
// Vessel Sort Tests
// =============================================================================

func TestSortVesselKeys(t *testing.T) {
	created := day(2026, time.January, 1, 0)
	keys := []VesselSortKey{
		{ID: "2", CreatedAt: created, DisplayName: "Monstera"},
		{ID: "1", CreatedAt: created, DisplayName: ""},
		{ID: "3", CreatedAt: created, DisplayName: "Boston Fern"},
	}

	SortVesselKeys(keys, SortByDisplayName, true)
	assert.Equal(t, []string{"", "Boston Fern", "Monstera"}, []string{keys[0].DisplayName, keys[1].DisplayName, keys[2].DisplayName})

	SortVesselKeys(keys, SortByDisplayName, false)
	assert.Equal(t, "Monstera", keys[0].DisplayName)
	assert.Equal(t, "", keys[2].DisplayName)

	order, err := ParseVesselSortOrder("kind")
	require.NoError(t, err)
	assert.Equal(t, SortByVesselKind, order)
	_, err = ParseVesselSortOrder("size")
	assert.Error(t, err)
}
