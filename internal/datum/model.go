// Package datum defines the persistence-agnostic data model of WaterMe:
// vessels, reminders and their performs, the error kinds every storage engine
// reports, and the BasicController interface both engines implement.
//
// Callers only ever hold the interfaces, Identifiers and value snapshots
// declared here; engine types never cross this boundary.
package datum

import "time"

// ReminderVessel is a tracked plant. Implementations are read-only snapshots
// taken when the vessel was read.
type ReminderVessel interface {
	ID() Identifier
	Kind() VesselKind
	// DisplayName is "" when the vessel has no name.
	DisplayName() string
	Icon() *Icon
	ReminderIDs() []Identifier
	CreatedAt() time.Time
	Value() ReminderVesselValue
}

// Reminder is a recurring care task of a vessel. Implementations are
// read-only snapshots taken when the reminder was read.
type Reminder interface {
	ID() Identifier
	Kind() ReminderKind
	Interval() int
	// Note is "" when the reminder has no note.
	Note() string
	IsEnabled() bool
	NextPerformDate() *time.Time
	LastPerformDate() *time.Time
	// Performed lists perform dates, oldest first.
	Performed() []time.Time
	VesselID() Identifier
	CreatedAt() time.Time
	Value() ReminderValue
}

// ReminderValue is an immutable copy of a reminder, safe to keep after the
// reminder has been deleted.
type ReminderValue struct {
	ID              Identifier
	VesselID        Identifier
	Kind            ReminderKind
	Interval        int
	NextPerformDate *time.Time
}

// NewReminderValue snapshots r.
func NewReminderValue(r Reminder) ReminderValue {
	return ReminderValue{
		ID:              r.ID(),
		VesselID:        r.VesselID(),
		Kind:            r.Kind(),
		Interval:        r.Interval(),
		NextPerformDate: copyTime(r.NextPerformDate()),
	}
}

// ReminderVesselValue is an immutable copy of a vessel.
type ReminderVesselValue struct {
	ID        Identifier
	Name      string
	ImageData []byte
}

// NewReminderVesselValue snapshots v. Name is the short label.
func NewReminderVesselValue(v ReminderVessel) ReminderVesselValue {
	val := ReminderVesselValue{ID: v.ID(), Name: ShortLabel(v.DisplayName())}
	if icon := v.Icon(); icon != nil && len(icon.Data) > 0 {
		val.ImageData = append([]byte(nil), icon.Data...)
	}
	return val
}

// NextPerformDate derives the next perform date from the last one.
func NextPerformDate(last *time.Time, interval int) *time.Time {
	if last == nil {
		return nil
	}
	next := last.Add(time.Duration(interval) * 24 * time.Hour)
	return &next
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// VesselUpdate is a partial vessel update. Nil fields are left untouched; an
// empty DisplayName clears the name and an empty Icon clears the icon.
type VesselUpdate struct {
	DisplayName *string
	Icon        *Icon
}

// ReminderUpdate is a partial reminder update. Nil fields are left
// untouched; an empty Note clears the note.
type ReminderUpdate struct {
	Kind      *ReminderKind
	Interval  *int
	IsEnabled *bool
	Note      *string
}

// IsEmpty reports whether the update sets nothing.
func (u ReminderUpdate) IsEmpty() bool {
	return u.Kind == nil && u.Interval == nil && u.IsEnabled == nil && u.Note == nil
}

// Callbacks receive out-of-band notifications from a controller. They run on
// the goroutine that made the mutating call, after it committed.
type Callbacks struct {
	RemindersDeleted       func([]ReminderValue)
	ReminderVesselsDeleted func([]ReminderVesselValue)
	UserDidPerformReminder func()
}

// NotifyDeleted delivers deletion snapshots, vessels first. Empty lists are
// not delivered.
func (c Callbacks) NotifyDeleted(vessels []ReminderVesselValue, reminders []ReminderValue) {
	if c.ReminderVesselsDeleted != nil && len(vessels) > 0 {
		c.ReminderVesselsDeleted(vessels)
	}
	if c.RemindersDeleted != nil && len(reminders) > 0 {
		c.RemindersDeleted(reminders)
	}
}

// NotifyPerformed reports that the user performed reminders.
func (c Callbacks) NotifyPerformed() {
	if c.UserDidPerformReminder != nil {
		c.UserDidPerformReminder()
	}
}
