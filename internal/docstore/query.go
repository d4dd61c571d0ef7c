package docstore

import (
	"time"

	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/model"
	"github.com/manav03panchal/waterme/internal/query"
	"github.com/manav03panchal/waterme/internal/storage"
)

// reminderFilter selects the reminders a query returns.
type reminderFilter func(r *model.Reminder) bool

func (c *Controller) loadReminders(filter reminderFilter, order datum.ReminderSortOrder, ascending bool) (query.Collection[datum.Reminder], error) {
	var rows []storage.Versioned[*model.Reminder]
	err := c.db.View(func(t *storage.Txn) error {
		var err error
		rows, err = storage.ScanPrefix(t, model.PrefixReminder+":", func() *model.Reminder { return &model.Reminder{} })
		return err
	})
	if err != nil {
		return query.Collection[datum.Reminder]{}, datum.NewError("load reminders", datum.ErrRead, err)
	}

	byID := make(map[string]storage.Versioned[*model.Reminder], len(rows))
	keys := make([]datum.ReminderSortKey, 0, len(rows))
	for _, row := range rows {
		if filter != nil && !filter(row.Doc) {
			continue
		}
		byID[row.Doc.UUID] = row
		k := datum.ReminderSortKey{
			ID:              row.Doc.UUID,
			CreatedAt:       row.Doc.CreatedAt,
			NextPerformDate: row.Doc.NextPerformDate,
			Interval:        row.Doc.Interval,
			Kind:            datum.KindCase(row.Doc.KindString),
		}
		if row.Doc.Note != nil {
			k.Note = *row.Doc.Note
		}
		keys = append(keys, k)
	}
	datum.SortReminderKeys(keys, order, ascending)

	items := make([]datum.Reminder, len(keys))
	for i, k := range keys {
		row := byID[k.ID]
		items[i] = &reminder{doc: row.Doc, version: row.Version}
	}
	return query.SliceCollection(items, func(r datum.Reminder) query.Key {
		return query.Key{ID: r.ID().String(), Version: r.(*reminder).version}
	}), nil
}

func (c *Controller) reminderQuery(filter reminderFilter, order datum.ReminderSortOrder, ascending bool) query.Query[datum.Reminder] {
	return query.NewLive(c.hub, func() (query.Collection[datum.Reminder], error) {
		return c.loadReminders(filter, order, ascending)
	}, c.log)
}

// AllVessels implements datum.BasicController.
func (c *Controller) AllVessels(order datum.VesselSortOrder, ascending bool) query.Query[datum.ReminderVessel] {
	return query.NewLive(c.hub, func() (query.Collection[datum.ReminderVessel], error) {
		var rows []storage.Versioned[*model.Vessel]
		err := c.db.View(func(t *storage.Txn) error {
			var err error
			rows, err = storage.ScanPrefix(t, model.PrefixVessel+":", func() *model.Vessel { return &model.Vessel{} })
			return err
		})
		if err != nil {
			return query.Collection[datum.ReminderVessel]{}, datum.NewError("load vessels", datum.ErrRead, err)
		}

		byID := make(map[string]storage.Versioned[*model.Vessel], len(rows))
		keys := make([]datum.VesselSortKey, len(rows))
		for i, row := range rows {
			byID[row.Doc.UUID] = row
			v := &vessel{doc: row.Doc}
			keys[i] = datum.VesselSortKey{
				ID:          row.Doc.UUID,
				CreatedAt:   row.Doc.CreatedAt,
				DisplayName: v.DisplayName(),
				Kind:        v.Kind(),
			}
		}
		datum.SortVesselKeys(keys, order, ascending)

		items := make([]datum.ReminderVessel, len(keys))
		for i, k := range keys {
			row := byID[k.ID]
			items[i] = &vessel{doc: row.Doc, version: row.Version}
		}
		return query.SliceCollection(items, func(v datum.ReminderVessel) query.Key {
			return query.Key{ID: v.ID().String(), Version: v.(*vessel).version}
		}), nil
	}, c.log)
}

// AllReminders implements datum.BasicController.
func (c *Controller) AllReminders(order datum.ReminderSortOrder, ascending bool) query.Query[datum.Reminder] {
	return c.reminderQuery(nil, order, ascending)
}

// EnabledReminders implements datum.BasicController. Every document
// reminder is enabled.
func (c *Controller) EnabledReminders(order datum.ReminderSortOrder, ascending bool) query.Query[datum.Reminder] {
	return c.reminderQuery(nil, order, ascending)
}

// Reminders implements datum.BasicController.
func (c *Controller) Reminders(rv datum.ReminderVessel, order datum.ReminderSortOrder, ascending bool) query.Query[datum.Reminder] {
	vesselKey := model.GenerateKey(model.PrefixVessel, rv.ID().String())
	return c.reminderQuery(func(r *model.Reminder) bool {
		return r.VesselKey == vesselKey
	}, order, ascending)
}

// GroupedReminders implements datum.BasicController. Section bounds are
// computed when the observation starts or is reloaded.
func (c *Controller) GroupedReminders(order datum.ReminderSortOrder, ascending bool) *query.Grouped[datum.Reminder] {
	return query.NewGrouped(func() []query.Section[datum.Reminder] {
		now := c.opts.Now()
		sections := datum.Sections(false)
		out := make([]query.Section[datum.Reminder], len(sections))
		for i, s := range sections {
			out[i] = query.Section[datum.Reminder]{
				Title: s.String(),
				Query: c.reminderQuery(sectionFilter(c.opts.Calendar, s, now), order, ascending),
			}
		}
		return out
	}, datum.ReminderID)
}

func sectionFilter(cal datum.DateCalculator, s datum.ReminderSection, now time.Time) reminderFilter {
	interval := cal.Interval(s, now)
	return func(r *model.Reminder) bool {
		if r.NextPerformDate == nil {
			return s == datum.SectionLate
		}
		return interval.Contains(*r.NextPerformDate)
	}
}
