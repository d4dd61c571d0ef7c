package sqlstore

import (
	"time"

	"gorm.io/gorm"

	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/query"
)

// scope narrows a reminder query.
type scope func(db *gorm.DB) *gorm.DB

// reminderOrder returns the ORDER BY clause of a sort. SQLite sorts NULL
// first ascending and last descending, which makes descending the exact
// reverse of ascending.
func reminderOrder(order datum.ReminderSortOrder, ascending bool) string {
	dir := " ASC"
	if !ascending {
		dir = " DESC"
	}
	col := "next_perform_date"
	switch order {
	case datum.SortByInterval:
		col = "interval"
	case datum.SortByKind:
		col = "kind"
	case datum.SortByNote:
		col = "note"
	}
	return "\"" + col + "\"" + dir + ", created_at" + dir + ", id" + dir
}

func vesselOrder(order datum.VesselSortOrder, ascending bool) string {
	dir := " ASC"
	if !ascending {
		dir = " DESC"
	}
	col := "display_name"
	if order == datum.SortByVesselKind {
		col = "kind"
	}
	return col + dir + ", created_at" + dir + ", id" + dir
}

func (c *Controller) loadReminders(where scope, order datum.ReminderSortOrder, ascending bool) (query.Collection[datum.Reminder], error) {
	var rows []Reminder
	db := c.db.Preload("Performs", func(db *gorm.DB) *gorm.DB {
		return db.Order("date, id")
	})
	if where != nil {
		db = where(db)
	}
	if err := db.Order(reminderOrder(order, ascending)).Find(&rows).Error; err != nil {
		return query.Collection[datum.Reminder]{}, datum.NewError("load reminders", datum.ErrRead, err)
	}
	keys := make([]query.Key, len(rows))
	for i, r := range rows {
		keys[i] = query.Key{ID: NativeID(EntityReminder, r.ID).String(), Version: r.Revision}
	}
	return query.NewCollection(keys, func(i int) datum.Reminder {
		return &reminder{row: &rows[i]}
	}), nil
}

func (c *Controller) reminderQuery(where scope, order datum.ReminderSortOrder, ascending bool) query.Query[datum.Reminder] {
	return query.NewLive(c.hub, func() (query.Collection[datum.Reminder], error) {
		return c.loadReminders(where, order, ascending)
	}, c.log)
}

// AllVessels implements datum.BasicController.
func (c *Controller) AllVessels(order datum.VesselSortOrder, ascending bool) query.Query[datum.ReminderVessel] {
	return query.NewLive(c.hub, func() (query.Collection[datum.ReminderVessel], error) {
		var rows []Vessel
		err := c.db.Preload("Reminders", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "vessel_id", "created_at").Order("created_at, id")
		}).Order(vesselOrder(order, ascending)).Find(&rows).Error
		if err != nil {
			return query.Collection[datum.ReminderVessel]{}, datum.NewError("load vessels", datum.ErrRead, err)
		}
		keys := make([]query.Key, len(rows))
		for i, v := range rows {
			keys[i] = query.Key{ID: NativeID(EntityVessel, v.ID).String(), Version: v.Revision}
		}
		return query.NewCollection(keys, func(i int) datum.ReminderVessel {
			return &vessel{row: &rows[i]}
		}), nil
	}, c.log)
}

// AllReminders implements datum.BasicController.
func (c *Controller) AllReminders(order datum.ReminderSortOrder, ascending bool) query.Query[datum.Reminder] {
	return c.reminderQuery(nil, order, ascending)
}

// EnabledReminders implements datum.BasicController.
func (c *Controller) EnabledReminders(order datum.ReminderSortOrder, ascending bool) query.Query[datum.Reminder] {
	return c.reminderQuery(func(db *gorm.DB) *gorm.DB {
		return db.Where("is_enabled = ?", true)
	}, order, ascending)
}

// Reminders implements datum.BasicController. An unresolvable vessel yields
// an empty collection.
func (c *Controller) Reminders(rv datum.ReminderVessel, order datum.ReminderSortOrder, ascending bool) query.Query[datum.Reminder] {
	id := rv.ID()
	return c.reminderQuery(func(db *gorm.DB) *gorm.DB {
		key, err := c.resolve(c.db, EntityVessel, id)
		if err != nil {
			key = ""
		}
		return db.Where("vessel_id = ?", key)
	}, order, ascending)
}

// GroupedReminders implements datum.BasicController. Section bounds are
// computed when the observation starts or is reloaded.
func (c *Controller) GroupedReminders(order datum.ReminderSortOrder, ascending bool) *query.Grouped[datum.Reminder] {
	return query.NewGrouped(func() []query.Section[datum.Reminder] {
		now := c.opts.Now()
		sections := datum.Sections(true)
		out := make([]query.Section[datum.Reminder], len(sections))
		for i, s := range sections {
			out[i] = query.Section[datum.Reminder]{
				Title: s.String(),
				Query: c.reminderQuery(sectionScope(c.opts.Calendar, s, now), order, ascending),
			}
		}
		return out
	}, datum.ReminderID)
}

func sectionScope(cal datum.DateCalculator, s datum.ReminderSection, now time.Time) scope {
	if s == datum.SectionDisabled {
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("is_enabled = ?", false)
		}
	}
	interval := cal.Interval(s, now)
	start, end := interval.Start.UTC(), interval.End.UTC()
	if s == datum.SectionLate {
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("is_enabled = ? AND (next_perform_date IS NULL OR (next_perform_date >= ? AND next_perform_date < ?))", true, start, end)
		}
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("is_enabled = ? AND next_perform_date >= ? AND next_perform_date < ?", true, start, end)
	}
}
