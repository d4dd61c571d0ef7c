package datum

import (
	"bytes"
	"time"
)

// ReminderFields are the user-editable and derived fields of a reminder, in
// a form both engines can map their records to.
type ReminderFields struct {
	Kind            ReminderKind
	Interval        int
	IsEnabled       bool
	Note            string
	LastPerformDate *time.Time
	NextPerformDate *time.Time
}

// Apply returns f with u applied and whether anything actually changed.
// Changing the interval recomputes the next perform date.
func (f ReminderFields) Apply(u ReminderUpdate) (ReminderFields, bool) {
	out := f
	changed := false

	if u.Kind != nil {
		k := u.Kind.Normalized()
		if k != f.Kind {
			out.Kind = k
			changed = true
		}
	}
	if u.Interval != nil && *u.Interval != f.Interval {
		out.Interval = *u.Interval
		out.NextPerformDate = NextPerformDate(f.LastPerformDate, out.Interval)
		changed = true
	}
	if u.IsEnabled != nil && *u.IsEnabled != f.IsEnabled {
		out.IsEnabled = *u.IsEnabled
		changed = true
	}
	if u.Note != nil {
		n := NonEmpty(*u.Note)
		if n != f.Note {
			out.Note = n
			changed = true
		}
	}
	return out, changed
}

// Perform returns f after a perform at date.
func (f ReminderFields) Perform(date time.Time) ReminderFields {
	out := f
	d := date
	out.LastPerformDate = &d
	out.NextPerformDate = NextPerformDate(&d, f.Interval)
	return out
}

// DefaultReminderFields are the fields of a freshly created reminder.
func DefaultReminderFields() ReminderFields {
	return ReminderFields{Kind: Water(), Interval: DefaultInterval, IsEnabled: true}
}

// VesselFields are the stored fields of a vessel.
type VesselFields struct {
	DisplayName string
	IconEmoji   string
	IconImage   []byte
}

// Apply returns f with u applied and whether anything changed. Pictures are
// compressed under maxIconBytes; a compression failure is returned before
// anything is applied.
func (f VesselFields) Apply(u VesselUpdate, maxIconBytes int) (VesselFields, bool, error) {
	out := f
	changed := false

	if u.Icon != nil {
		emoji, data, err := u.Icon.Encode(maxIconBytes)
		if err != nil {
			return f, false, err
		}
		if emoji != f.IconEmoji || !bytes.Equal(data, f.IconImage) {
			out.IconEmoji, out.IconImage = emoji, data
			changed = true
		}
	}
	if u.DisplayName != nil {
		n := NonEmpty(*u.DisplayName)
		if n != f.DisplayName {
			out.DisplayName = n
			changed = true
		}
	}
	return out, changed, nil
}

// Icon rebuilds the icon of stored fields, or nil when there is none.
func (f VesselFields) Icon() *Icon {
	switch {
	case f.IconEmoji != "":
		return EmojiIcon(f.IconEmoji)
	case len(f.IconImage) > 0:
		return ImageIcon(append([]byte(nil), f.IconImage...))
	}
	return nil
}
