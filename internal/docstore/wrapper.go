package docstore

import (
	"time"

	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/model"
)

// vessel adapts a vessel document to datum.ReminderVessel.
type vessel struct {
	doc     *model.Vessel
	version uint64
}

func (v *vessel) ID() datum.Identifier { return datum.Identifier(v.doc.UUID) }
func (v *vessel) Kind() datum.VesselKind { return datum.ParseVesselKind(v.doc.KindString) }
func (v *vessel) CreatedAt() time.Time { return v.doc.CreatedAt }

func (v *vessel) DisplayName() string {
	if v.doc.DisplayName == nil {
		return ""
	}
	return *v.doc.DisplayName
}

func (v *vessel) Icon() *datum.Icon {
	return vesselFields(v.doc).Icon()
}

func (v *vessel) ReminderIDs() []datum.Identifier {
	ids := make([]datum.Identifier, len(v.doc.ReminderKeys))
	for i, k := range v.doc.ReminderKeys {
		ids[i] = datum.Identifier(model.UUIDFromKey(model.PrefixReminder, k))
	}
	return ids
}

func (v *vessel) Value() datum.ReminderVesselValue {
	return datum.NewReminderVesselValue(v)
}

// reminder adapts a reminder document to datum.Reminder.
type reminder struct {
	doc     *model.Reminder
	version uint64
}

func (r *reminder) ID() datum.Identifier { return datum.Identifier(r.doc.UUID) }
func (r *reminder) Interval() int { return r.doc.Interval }
func (r *reminder) IsEnabled() bool { return true }
func (r *reminder) CreatedAt() time.Time { return r.doc.CreatedAt }

func (r *reminder) Kind() datum.ReminderKind {
	return reminderKind(r.doc)
}

func (r *reminder) Note() string {
	if r.doc.Note == nil {
		return ""
	}
	return *r.doc.Note
}

func (r *reminder) NextPerformDate() *time.Time {
	if r.doc.NextPerformDate == nil {
		return nil
	}
	t := *r.doc.NextPerformDate
	return &t
}

func (r *reminder) LastPerformDate() *time.Time {
	return r.doc.LastPerformDate()
}

func (r *reminder) Performed() []time.Time {
	out := make([]time.Time, len(r.doc.Performed))
	for i, p := range r.doc.Performed {
		out[i] = p.Date
	}
	return out
}

func (r *reminder) VesselID() datum.Identifier {
	return datum.Identifier(model.UUIDFromKey(model.PrefixVessel, r.doc.VesselKey))
}

func (r *reminder) Value() datum.ReminderValue {
	return datum.NewReminderValue(r)
}

// Document ⇄ field mapping.

func reminderKind(doc *model.Reminder) datum.ReminderKind {
	detail := ""
	if doc.DescriptionString != nil {
		detail = *doc.DescriptionString
	}
	return datum.NewReminderKind(datum.KindCase(doc.KindString), detail)
}

func reminderFields(doc *model.Reminder) datum.ReminderFields {
	f := datum.ReminderFields{
		Kind:            reminderKind(doc),
		Interval:        doc.Interval,
		IsEnabled:       true,
		LastPerformDate: doc.LastPerformDate(),
		NextPerformDate: doc.NextPerformDate,
	}
	if doc.Note != nil {
		f.Note = *doc.Note
	}
	return f
}

func applyReminderFields(doc *model.Reminder, f datum.ReminderFields) {
	doc.KindString = string(f.Kind.Case)
	doc.DescriptionString = optional(f.Kind.Detail)
	doc.Interval = f.Interval
	doc.Note = optional(f.Note)
	doc.NextPerformDate = f.NextPerformDate
}

func vesselFields(doc *model.Vessel) datum.VesselFields {
	f := datum.VesselFields{IconImage: doc.IconImage}
	if doc.DisplayName != nil {
		f.DisplayName = *doc.DisplayName
	}
	if doc.IconEmoji != nil {
		f.IconEmoji = *doc.IconEmoji
	}
	return f
}

func applyVesselFields(doc *model.Vessel, f datum.VesselFields) {
	doc.DisplayName = optional(f.DisplayName)
	doc.IconEmoji = optional(f.IconEmoji)
	doc.IconImage = f.IconImage
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
