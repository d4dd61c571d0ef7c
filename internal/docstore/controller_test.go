package docstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/model"
	"github.com/manav03panchal/waterme/internal/query"
	"github.com/manav03panchal/waterme/internal/storage"
)

var testNow = time.Date(2024, time.March, 13, 10, 0, 0, 0, time.UTC)

func setupController(t *testing.T) *Controller {
	t.Helper()
	c, err := Open(storage.Options{InMemory: true}, Options{
		Now:      func() time.Time { return testNow },
		Calendar: datum.NewDateCalculator(time.UTC, time.Sunday),
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

// recorder collects observer events.
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

// =============================================================================
// Open
// =============================================================================

func TestOpenStampsSchema(t *testing.T) {
	c := setupController(t)

	version, err := c.DB().SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
	assert.Equal(t, datum.EngineDocument, c.Engine())
	assert.False(t, c.SupportsDisabling())
}

func TestOpenUpgradesOldDocuments(t *testing.T) {
	db, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	defer db.Close()

	v := model.NewVessel("11111111-1111-1111-1111-111111111111", time.Time{})
	r := model.NewReminder("22222222-2222-2222-2222-222222222222", v.Key, testNow)
	r.KindString = "prune"
	r.Interval = 0
	v.ReminderKeys = []string{r.Key}
	require.NoError(t, db.Update(func(txn *storage.Txn) error {
		if err := txn.Set(&model.Schema{Key: model.KeySchema, Version: 12}); err != nil {
			return err
		}
		if err := txn.Set(v); err != nil {
			return err
		}
		return txn.Set(r)
	}))

	c, err := New(db, Options{Now: func() time.Time { return testNow }})
	require.NoError(t, err)
	defer c.Close()

	got, err := c.Reminder(datum.Identifier(r.UUID))
	require.NoError(t, err)
	assert.Equal(t, datum.KindWater, got.Kind().Case)
	assert.Equal(t, datum.DefaultInterval, got.Interval())

	gv, err := c.ReminderVessel(datum.Identifier(v.UUID))
	require.NoError(t, err)
	assert.Equal(t, testNow, gv.CreatedAt())
}

func TestOpenRefusesNewerSchema(t *testing.T) {
	db, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Update(func(txn *storage.Txn) error {
		return txn.Set(&model.Schema{Key: model.KeySchema, Version: SchemaVersion + 1})
	}))

	_, err = New(db, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, datum.ErrLoad)
}

// =============================================================================
// Mutations
// =============================================================================

func TestNewReminderVessel(t *testing.T) {
	c := setupController(t)

	v, err := c.NewReminderVessel("  Fern ", datum.EmojiIcon("🌿"))
	require.NoError(t, err)
	assert.Equal(t, "Fern", v.DisplayName())
	assert.True(t, v.Icon().IsEmoji())
	assert.Equal(t, datum.VesselKindPlant, v.Kind())
	require.Len(t, v.ReminderIDs(), 1)

	r, err := c.Reminder(v.ReminderIDs()[0])
	require.NoError(t, err)
	assert.Equal(t, datum.KindWater, r.Kind().Case)
	assert.Equal(t, datum.DefaultInterval, r.Interval())
	assert.Nil(t, r.NextPerformDate())
	assert.True(t, r.IsEnabled())
	assert.Equal(t, v.ID(), r.VesselID())
}

func TestNewReminderVesselEmptyName(t *testing.T) {
	c := setupController(t)

	v, err := c.NewReminderVessel("   ", nil)
	require.NoError(t, err)
	assert.Equal(t, "", v.DisplayName())
	assert.Nil(t, v.Icon())
}

func TestNewReminder(t *testing.T) {
	c := setupController(t)
	v, err := c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)

	r, err := c.NewReminder(v)
	require.NoError(t, err)
	assert.Equal(t, v.ID(), r.VesselID())

	v, err = c.ReminderVessel(v.ID())
	require.NoError(t, err)
	assert.Len(t, v.ReminderIDs(), 2)
	assert.Contains(t, v.ReminderIDs(), r.ID())
}

func TestNewReminderDeletedVessel(t *testing.T) {
	c := setupController(t)
	v, err := c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)
	require.NoError(t, c.DeleteVessel(v))

	_, err = c.NewReminder(v)
	assert.ErrorIs(t, err, datum.ErrObjectDeleted)
}

func TestUpdateReminder(t *testing.T) {
	c := setupController(t)
	v, err := c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)
	r, err := c.Reminder(v.ReminderIDs()[0])
	require.NoError(t, err)

	kind := datum.Move("  ")
	interval := 3
	note := "north window"
	require.NoError(t, c.UpdateReminder(r, datum.ReminderUpdate{Kind: &kind, Interval: &interval, Note: &note}))

	r, err = c.Reminder(r.ID())
	require.NoError(t, err)
	assert.Equal(t, datum.KindMove, r.Kind().Case)
	assert.Equal(t, "", r.Kind().Detail)
	assert.Equal(t, 3, r.Interval())
	assert.Equal(t, "north window", r.Note())
}

func TestUpdateReminderDisableUnsupported(t *testing.T) {
	c := setupController(t)
	v, err := c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)
	r, err := c.Reminder(v.ReminderIDs()[0])
	require.NoError(t, err)

	disabled := false
	err = c.UpdateReminder(r, datum.ReminderUpdate{IsEnabled: &disabled})
	assert.ErrorIs(t, err, datum.ErrIsEnabledFalseUnsupported)

	enabled := true
	assert.NoError(t, c.UpdateReminder(r, datum.ReminderUpdate{IsEnabled: &enabled}))
}

func TestUpdateVessel(t *testing.T) {
	c := setupController(t)
	v, err := c.NewReminderVessel("Fern", datum.EmojiIcon("🌿"))
	require.NoError(t, err)

	name := "Boston Fern"
	require.NoError(t, c.UpdateVessel(v, datum.VesselUpdate{DisplayName: &name, Icon: &datum.Icon{}}))

	v, err = c.ReminderVessel(v.ID())
	require.NoError(t, err)
	assert.Equal(t, "Boston Fern", v.DisplayName())
	assert.Nil(t, v.Icon())
}

func TestAppendNewPerform(t *testing.T) {
	c := setupController(t)
	v, err := c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)
	id := v.ReminderIDs()[0]

	performed := 0
	c.SetCallbacks(datum.Callbacks{UserDidPerformReminder: func() { performed++ }})

	require.NoError(t, c.AppendNewPerform([]datum.Identifier{id}))

	r, err := c.Reminder(id)
	require.NoError(t, err)
	require.Len(t, r.Performed(), 1)
	assert.Equal(t, testNow, *r.LastPerformDate())
	assert.Equal(t, testNow.Add(7*24*time.Hour), *r.NextPerformDate())
	assert.Equal(t, 1, performed)
}

func TestAppendNewPerformAllOrNothing(t *testing.T) {
	c := setupController(t)
	v, err := c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)
	id := v.ReminderIDs()[0]

	err = c.AppendNewPerform([]datum.Identifier{id, "missing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, datum.ErrObjectDeleted)

	r, err := c.Reminder(id)
	require.NoError(t, err)
	assert.Empty(t, r.Performed())
}

func TestDeleteReminderRefusesLast(t *testing.T) {
	c := setupController(t)
	v, err := c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)
	r, err := c.Reminder(v.ReminderIDs()[0])
	require.NoError(t, err)

	err = c.DeleteReminder(r)
	assert.ErrorIs(t, err, datum.ErrUnableToDeleteLastReminder)

	_, err = c.Reminder(r.ID())
	assert.NoError(t, err)
}

func TestDeleteReminder(t *testing.T) {
	c := setupController(t)
	v, err := c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)
	r, err := c.NewReminder(v)
	require.NoError(t, err)

	var deleted []datum.ReminderValue
	c.SetCallbacks(datum.Callbacks{RemindersDeleted: func(v []datum.ReminderValue) { deleted = v }})

	require.NoError(t, c.DeleteReminder(r))
	require.Len(t, deleted, 1)
	assert.Equal(t, r.ID(), deleted[0].ID)

	v, err = c.ReminderVessel(v.ID())
	require.NoError(t, err)
	assert.Len(t, v.ReminderIDs(), 1)
}

func TestDeleteVessel(t *testing.T) {
	c := setupController(t)
	v, err := c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)
	_, err = c.NewReminder(v)
	require.NoError(t, err)

	var order []string
	var reminders []datum.ReminderValue
	c.SetCallbacks(datum.Callbacks{
		ReminderVesselsDeleted: func([]datum.ReminderVesselValue) { order = append(order, "vessels") },
		RemindersDeleted: func(r []datum.ReminderValue) {
			order = append(order, "reminders")
			reminders = r
		},
	})

	require.NoError(t, c.DeleteVessel(v))
	assert.Equal(t, []string{"vessels", "reminders"}, order)
	assert.Len(t, reminders, 2)

	counts, err := c.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, datum.Counts{}, counts)

	err = c.DeleteVessel(v)
	assert.ErrorIs(t, err, datum.ErrObjectDeleted)
}

func TestReadMissing(t *testing.T) {
	c := setupController(t)

	_, err := c.Reminder("nope")
	assert.True(t, errors.Is(err, datum.ErrObjectDeleted))
	_, err = c.ReminderVessel("nope")
	assert.True(t, errors.Is(err, datum.ErrObjectDeleted))
}

// =============================================================================
// Queries
// =============================================================================

func TestAllVesselsSorted(t *testing.T) {
	c := setupController(t)
	for _, name := range []string{"Monstera", "", "Aloe"} {
		_, err := c.NewReminderVessel(name, nil)
		require.NoError(t, err)
	}

	items, err := c.AllVessels(datum.SortByDisplayName, true).Fetch()
	require.NoError(t, err)
	require.Equal(t, 3, items.Len())
	assert.Equal(t, "", items.At(0).DisplayName())
	assert.Equal(t, "Aloe", items.At(1).DisplayName())
	assert.Equal(t, "Monstera", items.At(2).DisplayName())

	items, err = c.AllVessels(datum.SortByDisplayName, false).Fetch()
	require.NoError(t, err)
	assert.Equal(t, "Monstera", items.At(0).DisplayName())
	assert.Equal(t, "", items.At(2).DisplayName())
}

func TestRemindersOfVessel(t *testing.T) {
	c := setupController(t)
	a, err := c.NewReminderVessel("A", nil)
	require.NoError(t, err)
	_, err = c.NewReminder(a)
	require.NoError(t, err)
	_, err = c.NewReminderVessel("B", nil)
	require.NoError(t, err)

	items, err := c.Reminders(a, datum.SortByNextPerformDate, true).Fetch()
	require.NoError(t, err)
	assert.Equal(t, 2, items.Len())

	items, err = c.AllReminders(datum.SortByNextPerformDate, true).Fetch()
	require.NoError(t, err)
	assert.Equal(t, 3, items.Len())
}

func TestObserveReminders(t *testing.T) {
	c := setupController(t)
	v, err := c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)

	rec := &recorder[datum.Reminder]{}
	token := c.Reminders(v, datum.SortByNextPerformDate, true).Observe(rec.observe)
	defer token.Invalidate()

	require.Equal(t, 1, rec.len())
	assert.Equal(t, query.Initial, rec.last().Kind)
	assert.Equal(t, 1, rec.last().Items.Len())

	_, err = c.NewReminder(v)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return rec.len() >= 2 && rec.last().Items.Len() == 2
	}, 2*time.Second, 10*time.Millisecond)
	last := rec.last()
	assert.Equal(t, query.Update, last.Kind)
	assert.Len(t, last.Diff.Insertions, 1)
}

func TestObserveTouchReportsModification(t *testing.T) {
	c := setupController(t)
	v, err := c.NewReminderVessel("Fern", nil)
	require.NoError(t, err)

	rec := &recorder[datum.Reminder]{}
	token := c.AllReminders(datum.SortByNextPerformDate, true).Observe(rec.observe)
	defer token.Invalidate()

	require.NoError(t, c.Touch(v.ID()))

	require.Eventually(t, func() bool {
		return rec.len() >= 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []int{0}, rec.last().Diff.Modifications)
}

func TestGroupedReminders(t *testing.T) {
	c := setupController(t)
	late, err := c.NewReminderVessel("Late", nil)
	require.NoError(t, err)
	soon, err := c.NewReminderVessel("Soon", nil)
	require.NoError(t, err)
	interval := 1
	r, err := c.Reminder(soon.ReminderIDs()[0])
	require.NoError(t, err)
	require.NoError(t, c.UpdateReminder(r, datum.ReminderUpdate{Interval: &interval}))
	require.NoError(t, c.AppendNewPerform([]datum.Identifier{r.ID()}))

	sections, err := c.GroupedReminders(datum.SortByNextPerformDate, true).Fetch()
	require.NoError(t, err)
	require.Equal(t, 5, sections.NumberOfSections())
	assert.Equal(t, "Late", sections.Title(0))
	assert.Equal(t, 1, sections.NumberOfItems(int(datum.SectionLate)))
	assert.Equal(t, 1, sections.NumberOfItems(int(datum.SectionTomorrow)))

	path, ok := sections.IndexOfItem(late.ReminderIDs()[0].String())
	require.True(t, ok)
	assert.Equal(t, query.IndexPath{Section: 0, Row: 0}, path)
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
	r, err := c.Reminder(v.ReminderIDs()[0])
	require.NoError(t, err)

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
	r, err := c.Reminder(v.ReminderIDs()[0])
	require.NoError(t, err)

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

// =============================================================================
// Graph
// =============================================================================

func TestExportImport(t *testing.T) {
	src := setupController(t)
	v, err := src.NewReminderVessel("Fern", datum.EmojiIcon("🌿"))
	require.NoError(t, err)
	r, err := src.NewReminder(v)
	require.NoError(t, err)
	note := "mist leaves"
	require.NoError(t, src.UpdateReminder(r, datum.ReminderUpdate{Note: &note}))
	require.NoError(t, src.AppendNewPerform([]datum.Identifier{r.ID()}))

	graph, err := src.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, datum.Counts{Vessels: 1, Reminders: 2, Performs: 1}, graph.Counts())

	dst := setupController(t)
	var progress []int
	require.NoError(t, dst.Import(context.Background(), graph, func(done, total int) {
		progress = append(progress, done)
		assert.Equal(t, 1, total)
	}))
	assert.Equal(t, []int{1}, progress)

	counts, err := dst.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, graph.Counts(), counts)

	got, err := dst.Reminder(r.ID())
	require.NoError(t, err)
	assert.Equal(t, "mist leaves", got.Note())
	assert.Equal(t, testNow, *got.LastPerformDate())
}

func TestImportVesselWithoutReminders(t *testing.T) {
	c := setupController(t)
	graph := &datum.Graph{Vessels: []datum.GraphVessel{{ID: "bare", DisplayName: "Bare", CreatedAt: testNow}}}
	require.NoError(t, c.Import(context.Background(), graph, nil))

	counts, err := c.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, datum.Counts{Vessels: 1, Reminders: 1}, counts)
	assert.Empty(t, graph.Vessels[0].Reminders)

	items, err := c.AllReminders(datum.SortByNextPerformDate, true).Fetch()
	require.NoError(t, err)
	require.Equal(t, 1, items.Len())
	assert.Equal(t, datum.KindWater, items.At(0).Kind().Case)
	assert.Equal(t, datum.DefaultInterval, items.At(0).Interval())
}
