package sqlstore

import (
	"time"

	"github.com/manav03panchal/waterme/internal/datum"
)

// vessel adapts a Vessel row to datum.ReminderVessel. Reminders must be
// preloaded for ReminderIDs.
type vessel struct {
	row *Vessel
}

func (v *vessel) ID() datum.Identifier { return NativeID(EntityVessel, v.row.ID) }
func (v *vessel) Kind() datum.VesselKind { return datum.ParseVesselKind(v.row.Kind) }
func (v *vessel) CreatedAt() time.Time { return v.row.CreatedAt }
func (v *vessel) DisplayName() string { return deref(v.row.DisplayName) }
func (v *vessel) Icon() *datum.Icon { return vesselFields(v.row).Icon() }
func (v *vessel) Value() datum.ReminderVesselValue { return datum.NewReminderVesselValue(v) }

func (v *vessel) ReminderIDs() []datum.Identifier {
	ids := make([]datum.Identifier, len(v.row.Reminders))
	for i, r := range v.row.Reminders {
		ids[i] = NativeID(EntityReminder, r.ID)
	}
	return ids
}

// reminder adapts a Reminder row to datum.Reminder. Performs must be
// preloaded for Performed.
type reminder struct {
	row *Reminder
}

func (r *reminder) ID() datum.Identifier { return NativeID(EntityReminder, r.row.ID) }
func (r *reminder) VesselID() datum.Identifier { return NativeID(EntityVessel, r.row.VesselID) }
func (r *reminder) Kind() datum.ReminderKind { return reminderKind(r.row) }
func (r *reminder) Interval() int { return r.row.Interval }
func (r *reminder) Note() string { return deref(r.row.Note) }
func (r *reminder) IsEnabled() bool { return r.row.IsEnabled }
func (r *reminder) CreatedAt() time.Time { return r.row.CreatedAt }
func (r *reminder) NextPerformDate() *time.Time { return copyTime(r.row.NextPerformDate) }
func (r *reminder) LastPerformDate() *time.Time { return copyTime(r.row.LastPerformDate) }
func (r *reminder) Value() datum.ReminderValue { return datum.NewReminderValue(r) }

func (r *reminder) Performed() []time.Time {
	out := make([]time.Time, len(r.row.Performs))
	for i, p := range r.row.Performs {
		out[i] = p.Date
	}
	return out
}

// Row ⇄ field mapping.

func reminderKind(row *Reminder) datum.ReminderKind {
	return datum.NewReminderKind(datum.KindCase(row.Kind), deref(row.KindDetail))
}

func reminderFields(row *Reminder) datum.ReminderFields {
	return datum.ReminderFields{
		Kind:            reminderKind(row),
		Interval:        row.Interval,
		IsEnabled:       row.IsEnabled,
		Note:            deref(row.Note),
		LastPerformDate: copyTime(row.LastPerformDate),
		NextPerformDate: copyTime(row.NextPerformDate),
	}
}

func applyReminderFields(row *Reminder, f datum.ReminderFields) {
	row.Kind = string(f.Kind.Case)
	row.KindDetail = optional(f.Kind.Detail)
	row.Interval = f.Interval
	row.IsEnabled = f.IsEnabled
	row.Note = optional(f.Note)
	row.LastPerformDate = copyTime(f.LastPerformDate)
	row.NextPerformDate = copyTime(f.NextPerformDate)
}

func vesselFields(row *Vessel) datum.VesselFields {
	return datum.VesselFields{
		DisplayName: deref(row.DisplayName),
		IconEmoji:   deref(row.IconEmoji),
		IconImage:   row.IconImage,
	}
}

func applyVesselFields(row *Vessel, f datum.VesselFields) {
	row.DisplayName = optional(f.DisplayName)
	row.IconEmoji = optional(f.IconEmoji)
	row.IconImage = f.IconImage
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
