package sqlstore

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/waterme/internal/datum"
	apperrors "github.com/manav03panchal/waterme/internal/errors"
	"github.com/manav03panchal/waterme/internal/query"
)

var testNow = time.Date(2024, time.March, 13, 10, 0, 0, 0, time.UTC)

func setupController(t *testing.T) *Controller {
	t.Helper()
	c, err := Open(Options{
		InMemory: true,
		Now:      func() time.Time { return testNow },
		Calendar: datum.NewDateCalculator(time.UTC, time.Sunday),
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

type recorder[T any] struct {
	mu     sync.Mutex
	events []query.Change[T]
}

func (r *recorder[T]) observe(c query.Change[T]) {
	r.mu.Lock()
	r.events = append(r.events, c)
	r.mu.Unlock()
}

func (r *recorder[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recorder[T]) last() query.Change[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func firstReminder(t *testing.T, c *Controller, v datum.ReminderVessel) datum.Reminder {
	t.Helper()
	require.NotEmpty(t, v.ReminderIDs())
	r, err := c.Reminder(v.ReminderIDs()[0])
	require.NoError(t, err)
	return r
}

// =============================================================================
// Open
// =============================================================================

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	c, err := Open(Options{Path: path})
	require.NoError(t, err)
	_, err = c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.True(t, Exists(path))

	c, err = Open(Options{Path: path})
	require.NoError(t, err)
	defer c.Close()

	version, err := SchemaVersionOf(c.db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)

	counts, err := c.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, datum.Counts{Vessels: 1, Reminders: 1}, counts)
}

func TestOpenRefusesNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	c, err := Open(Options{Path: path})
	require.NoError(t, err)
	require.NoError(t, c.db.Save(&SchemaMeta{ID: 1, Version: SchemaVersion + 1}).Error)
	require.NoError(t, c.Close())

	_, err = Open(Options{Path: path})
	require.Error(t, err)
	assert.ErrorIs(t, err, datum.ErrLoad)
	assert.ErrorIs(t, err, ErrSchemaTooNew)
}

func TestNativeID(t *testing.T) {
	id := NativeID(EntityReminder, "abc")
	assert.Equal(t, datum.Identifier("x-waterme://reminder/abc"), id)

	key, ok := parseNativeID(EntityReminder, id)
	assert.True(t, ok)
	assert.Equal(t, "abc", key)

	_, ok = parseNativeID(EntityVessel, id)
	assert.False(t, ok)
}

// =============================================================================
// Mutations
// =============================================================================

func TestNewReminderVessel(t *testing.T) {
	c := setupController(t)

	v, err := c.NewReminderVessel(" Fern ", datum.EmojiIcon("🌿"))
	require.NoError(t, err)
	assert.Equal(t, "Fern", v.DisplayName())
	assert.True(t, v.Icon().IsEmoji())

	r := firstReminder(t, c, v)
	assert.Equal(t, datum.KindWater, r.Kind().Case)
	assert.Equal(t, datum.DefaultInterval, r.Interval())
	assert.True(t, r.IsEnabled())
	assert.Nil(t, r.NextPerformDate())
	assert.Equal(t, v.ID(), r.VesselID())
	assert.Equal(t, testNow, r.CreatedAt())
}

func TestUpdateReminderDisable(t *testing.T) {
	c := setupController(t)
	v, err := c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)
	r := firstReminder(t, c, v)

	disabled := false
	require.NoError(t, c.UpdateReminder(r, datum.ReminderUpdate{IsEnabled: &disabled}))

	r, err = c.Reminder(r.ID())
	require.NoError(t, err)
	assert.False(t, r.IsEnabled())

	items, err := c.EnabledReminders(datum.SortByNextPerformDate, true).Fetch()
	require.NoError(t, err)
	assert.Equal(t, 0, items.Len())
}

func TestUpdateReminderIntervalRecomputesNext(t *testing.T) {
	c := setupController(t)
	v, err := c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)
	r := firstReminder(t, c, v)
	require.NoError(t, c.AppendNewPerform([]datum.Identifier{r.ID()}))

	interval := 2
	require.NoError(t, c.UpdateReminder(r, datum.ReminderUpdate{Interval: &interval}))

	r, err = c.Reminder(r.ID())
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(48*time.Hour), *r.NextPerformDate())
	assert.Len(t, r.Performed(), 1)
}

func TestUpdateVesselIconTooLarge(t *testing.T) {
	c, err := Open(Options{InMemory: true, MaxIconBytes: 1})
	require.NoError(t, err)
	defer c.Close()

	v, err := c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)

	err = c.UpdateVessel(v, datum.VesselUpdate{Icon: datum.PictureIcon(noisyImage(64))})
	assert.ErrorIs(t, err, datum.ErrImageCouldntBeCompressedEnough)

	v, err = c.ReminderVessel(v.ID())
	require.NoError(t, err)
	assert.Nil(t, v.Icon())
}

func TestAppendNewPerformAllOrNothing(t *testing.T) {
	c := setupController(t)
	v, err := c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)
	r := firstReminder(t, c, v)

	err = c.AppendNewPerform([]datum.Identifier{r.ID(), NativeID(EntityReminder, "missing")})
	assert.ErrorIs(t, err, datum.ErrObjectDeleted)

	counts, err := c.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Performs)
}

func TestDeleteReminderRefusesLast(t *testing.T) {
	c := setupController(t)
	v, err := c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)

	err = c.DeleteReminder(firstReminder(t, c, v))
	assert.ErrorIs(t, err, datum.ErrUnableToDeleteLastReminder)
}

func TestDeleteVesselCascades(t *testing.T) {
	c := setupController(t)
	v, err := c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)
	r, err := c.NewReminder(v)
	require.NoError(t, err)
	require.NoError(t, c.AppendNewPerform([]datum.Identifier{r.ID()}))

	var vessels []datum.ReminderVesselValue
	var reminders []datum.ReminderValue
	c.SetCallbacks(datum.Callbacks{
		ReminderVesselsDeleted: func(v []datum.ReminderVesselValue) { vessels = v },
		RemindersDeleted:       func(r []datum.ReminderValue) { reminders = r },
	})

	require.NoError(t, c.DeleteVessel(v))
	require.Len(t, vessels, 1)
	assert.Equal(t, "Fern", vessels[0].Name)
	assert.Len(t, reminders, 2)

	counts, err := c.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, datum.Counts{}, counts)
}

// =============================================================================
// Queries
// =============================================================================

func TestRemindersSortNilFirst(t *testing.T) {
	c := setupController(t)
	a, err := c.NewReminderVessel("A", nil)
	require.NoError(t, err)
	b, err := c.NewReminderVessel("B", nil)
	require.NoError(t, err)
	performed := firstReminder(t, c, b)
	require.NoError(t, c.AppendNewPerform([]datum.Identifier{performed.ID()}))
	never := firstReminder(t, c, a)

	asc, err := c.AllReminders(datum.SortByNextPerformDate, true).Fetch()
	require.NoError(t, err)
	require.Equal(t, 2, asc.Len())
	assert.Equal(t, never.ID(), asc.At(0).ID())

	desc, err := c.AllReminders(datum.SortByNextPerformDate, false).Fetch()
	require.NoError(t, err)
	assert.Equal(t, performed.ID(), desc.At(0).ID())
	assert.Equal(t, never.ID(), desc.At(1).ID())
}

func TestGroupedRemindersSections(t *testing.T) {
	c := setupController(t)
	late, err := c.NewReminderVessel("Late", nil)
	require.NoError(t, err)
	today, err := c.NewReminderVessel("Today", nil)
	require.NoError(t, err)
	off, err := c.NewReminderVessel("Off", nil)
	require.NoError(t, err)

	// Performed a week ago with a 7 day interval: due today.
	c.opts.Now = func() time.Time { return testNow.Add(-7 * 24 * time.Hour) }
	require.NoError(t, c.AppendNewPerform([]datum.Identifier{firstReminder(t, c, today).ID()}))
	c.opts.Now = func() time.Time { return testNow }

	disabled := false
	require.NoError(t, c.UpdateReminder(firstReminder(t, c, off), datum.ReminderUpdate{IsEnabled: &disabled}))

	sections, err := c.GroupedReminders(datum.SortByNextPerformDate, true).Fetch()
	require.NoError(t, err)
	require.Equal(t, 6, sections.NumberOfSections())
	assert.Equal(t, "Disabled", sections.Title(int(datum.SectionDisabled)))
	assert.Equal(t, 1, sections.NumberOfItems(int(datum.SectionLate)))
	assert.Equal(t, 1, sections.NumberOfItems(int(datum.SectionToday)))
	assert.Equal(t, 1, sections.NumberOfItems(int(datum.SectionDisabled)))
	assert.Equal(t, 3, sections.Count())

	path, ok := sections.IndexOfItem(firstReminder(t, c, late).ID().String())
	require.True(t, ok)
	assert.Equal(t, int(datum.SectionLate), path.Section)
}

func TestGroupedObserveSectionUpdate(t *testing.T) {
	c := setupController(t)
	v, err := c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)
	r := firstReminder(t, c, v)

	var mu sync.Mutex
	var events []query.GroupedChange[datum.Reminder]
	token := c.GroupedReminders(datum.SortByNextPerformDate, true).Observe(func(ch query.GroupedChange[datum.Reminder]) {
		mu.Lock()
		events = append(events, ch)
		mu.Unlock()
	})
	defer token.Invalidate()

	mu.Lock()
	require.Len(t, events, 1)
	assert.Equal(t, query.Initial, events[0].Kind)
	mu.Unlock()

	disabled := false
	require.NoError(t, c.UpdateReminder(r, datum.ReminderUpdate{IsEnabled: &disabled}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		last := events[len(events)-1]
		return last.Sections.NumberOfItems(int(datum.SectionDisabled)) == 1 &&
			last.Sections.NumberOfItems(int(datum.SectionLate)) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestObserveNoOpUpdateIsSilent(t *testing.T) {
	c := setupController(t)
	v, err := c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)
	r := firstReminder(t, c, v)

	rec := &recorder[datum.Reminder]{}
	token := c.AllReminders(datum.SortByKind, true).Observe(rec.observe)
	defer token.Invalidate()

	interval := r.Interval()
	require.NoError(t, c.UpdateReminder(r, datum.ReminderUpdate{Interval: &interval}))
	require.NoError(t, c.Touch(r.ID()))

	require.Eventually(t, func() bool { return rec.len() == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []int{0}, rec.last().Diff.Modifications)
}

// =============================================================================
// Properties
// =============================================================================

func TestAllRemindersSortedByInterval(t *testing.T) {
	c := setupController(t)
	v, err := c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)
	for len(v.ReminderIDs()) < 7 {
		_, err := c.NewReminder(v)
		require.NoError(t, err)
		v, err = c.ReminderVessel(v.ID())
		require.NoError(t, err)
	}
	for i, interval := range []int{9, 2, 11, 7, 4, 10, 8} {
		r, err := c.Reminder(v.ReminderIDs()[i])
		require.NoError(t, err)
		require.NoError(t, c.UpdateReminder(r, datum.ReminderUpdate{Interval: &interval}))
	}

	asc, err := c.AllReminders(datum.SortByInterval, true).Fetch()
	require.NoError(t, err)
	desc, err := c.AllReminders(datum.SortByInterval, false).Fetch()
	require.NoError(t, err)
	require.Equal(t, 7, asc.Len())
	require.Equal(t, 7, desc.Len())

	var ascIntervals []int
	for i := 0; i < asc.Len(); i++ {
		ascIntervals = append(ascIntervals, asc.At(i).Interval())
		assert.Equal(t, asc.At(i).ID(), desc.At(desc.Len()-1-i).ID())
	}
	assert.Equal(t, []int{2, 4, 7, 8, 9, 10, 11}, ascIntervals)
}

func TestIdentifierRoundTrip(t *testing.T) {
	c := setupController(t)
	v, err := c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)
	r := firstReminder(t, c, v)

	got, err := c.Reminder(datum.Identifier(r.ID().String()))
	require.NoError(t, err)
	assert.Equal(t, r.ID(), got.ID())
	assert.Equal(t, r.Interval(), got.Interval())

	gotVessel, err := c.ReminderVessel(datum.Identifier(v.ID().String()))
	require.NoError(t, err)
	assert.Equal(t, v.ID(), gotVessel.ID())
	assert.Equal(t, "Fern", gotVessel.DisplayName())
}

func TestEmptyReminderUpdateIsSilent(t *testing.T) {
	c := setupController(t)
	v, err := c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)
	r := firstReminder(t, c, v)

	rec := &recorder[datum.Reminder]{}
	token := c.AllReminders(datum.SortByNextPerformDate, true).Observe(rec.observe)
	defer token.Invalidate()
	require.Equal(t, 1, rec.len())

	require.NoError(t, c.UpdateReminder(r, datum.ReminderUpdate{}))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, rec.len())

	require.NoError(t, c.Touch(r.ID()))
	require.Eventually(t, func() bool { return rec.len() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestBusyDatabaseIsRecoverable(t *testing.T) {
	err := datum.NewError("open relational store", datum.ErrLoad,
		busyError(errors.New("database is locked"), 4))

	var re *apperrors.RecoverableError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 4, re.Attempts)
	assert.ErrorIs(t, err, apperrors.ErrLockHeld)
	assert.ErrorIs(t, err, datum.ErrLoad)
	assert.Equal(t, apperrors.CategoryRecoverable, apperrors.Classify(err))
	assert.True(t, isBusy(errors.New("database is locked")))
}

// =============================================================================
// Graph and legacy identifiers
// =============================================================================

func testGraph() *datum.Graph {
	last := testNow.Add(-24 * time.Hour)
	next := last.Add(3 * 24 * time.Hour)
	return &datum.Graph{Vessels: []datum.GraphVessel{{
		ID:          "legacy-vessel",
		Kind:        datum.VesselKindPlant,
		DisplayName: "Fern",
		CreatedAt:   testNow.Add(-48 * time.Hour),
		Reminders: []datum.GraphReminder{{
			ID:              "legacy-reminder",
			Kind:            datum.KindMove,
			Detail:          "porch",
			Interval:        3,
			IsEnabled:       true,
			NextPerformDate: &next,
			LastPerformDate: &last,
			CreatedAt:       testNow.Add(-48 * time.Hour),
			Performed:       []time.Time{last},
		}},
	}}}
}

func TestImportResolvesLegacyIdentifiers(t *testing.T) {
	c := setupController(t)
	var done []int
	require.NoError(t, c.Import(context.Background(), testGraph(), func(d, total int) {
		done = append(done, d)
	}))
	assert.Equal(t, []int{1}, done)

	r, err := c.Reminder("legacy-reminder")
	require.NoError(t, err)
	assert.Equal(t, datum.Move("porch"), r.Kind())
	assert.Len(t, r.Performed(), 1)

	v, err := c.ReminderVessel("legacy-vessel")
	require.NoError(t, err)
	assert.Equal(t, "Fern", v.DisplayName())
	assert.Equal(t, v.ID(), r.VesselID())

	n, err := c.LegacyRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestImportVesselWithoutReminders(t *testing.T) {
	c := setupController(t)
	graph := &datum.Graph{Vessels: []datum.GraphVessel{{ID: "bare", DisplayName: "Bare", CreatedAt: testNow}}}
	require.NoError(t, c.Import(context.Background(), graph, nil))

	counts, err := c.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, datum.Counts{Vessels: 1, Reminders: 1}, counts)

	v, err := c.ReminderVessel("bare")
	require.NoError(t, err)
	r := firstReminder(t, c, v)
	assert.Equal(t, datum.KindWater, r.Kind().Case)
	assert.True(t, r.IsEnabled())
	assert.Empty(t, graph.Vessels[0].Reminders)

	err = c.DeleteReminder(r)
	assert.ErrorIs(t, err, datum.ErrUnableToDeleteLastReminder)
}

func TestImportOversizedIcon(t *testing.T) {
	c, err := Open(Options{InMemory: true, MaxIconBytes: 64})
	require.NoError(t, err)
	defer c.Close()

	graph := testGraph()
	graph.Vessels[0].IconImage = bytes.Repeat([]byte{7}, 65)
	require.NoError(t, c.Import(context.Background(), graph, nil))

	v, err := c.ReminderVessel("legacy-vessel")
	require.NoError(t, err)
	assert.Nil(t, v.Icon())
}

func TestUpdateVesselOversizedImageBytes(t *testing.T) {
	c, err := Open(Options{InMemory: true, MaxIconBytes: 64})
	require.NoError(t, err)
	defer c.Close()

	v, err := c.NewReminderVessel("Fern", datum.EmojiIcon("🌿"))
	require.NoError(t, err)

	err = c.UpdateVessel(v, datum.VesselUpdate{Icon: datum.ImageIcon(bytes.Repeat([]byte{7}, 65))})
	assert.ErrorIs(t, err, datum.ErrImageCouldntBeCompressedEnough)

	v, err = c.ReminderVessel(v.ID())
	require.NoError(t, err)
	assert.True(t, v.Icon().IsEmoji())
}

func TestAmbiguousLegacyIdentifier(t *testing.T) {
	c := setupController(t)
	require.NoError(t, c.Import(context.Background(), testGraph(), nil))
	require.NoError(t, c.Import(context.Background(), testGraph(), nil))

	_, err := c.Reminder("legacy-reminder")
	assert.ErrorIs(t, err, datum.ErrAmbiguousIdentifier)
}

func TestExportRoundTrip(t *testing.T) {
	c := setupController(t)
	in := testGraph()
	require.NoError(t, c.Import(context.Background(), in, nil))

	out, err := c.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, in.Counts(), out.Counts())
	require.Len(t, out.Vessels, 1)
	got := out.Vessels[0].Reminders[0]
	want := in.Vessels[0].Reminders[0]
	assert.Equal(t, want.Kind, got.Kind)
	assert.Equal(t, want.Detail, got.Detail)
	assert.Equal(t, *want.NextPerformDate, *got.NextPerformDate)
	assert.Equal(t, want.Performed, got.Performed)
}
