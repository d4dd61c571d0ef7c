package datum

import "time"

// Graph is an engine-neutral copy of a whole data set.
type Graph struct {
	Vessels []GraphVessel `json:"vessels"`
}

// GraphVessel is a vessel with everything it owns.
type GraphVessel struct {
	ID          Identifier      `json:"id"`
	Kind        VesselKind      `json:"kind"`
	DisplayName string          `json:"display_name,omitempty"`
	IconEmoji   string          `json:"icon_emoji,omitempty"`
	IconImage   []byte          `json:"icon_image,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	Reminders   []GraphReminder `json:"reminders"`
}

// GraphReminder is a reminder with its perform history.
type GraphReminder struct {
	ID              Identifier  `json:"id"`
	Kind            KindCase    `json:"kind"`
	Detail          string      `json:"detail,omitempty"`
	Interval        int         `json:"interval"`
	Note            string      `json:"note,omitempty"`
	IsEnabled       bool        `json:"is_enabled"`
	NextPerformDate *time.Time  `json:"next_perform_date,omitempty"`
	LastPerformDate *time.Time  `json:"last_perform_date,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	Performed       []time.Time `json:"performed"`
}

// Counts are the record totals of a store.
type Counts struct {
	Vessels   int `json:"vessels"`
	Reminders int `json:"reminders"`
	Performs  int `json:"performs"`
}

// Add returns the sum of two counts.
func (c Counts) Add(o Counts) Counts {
	return Counts{
		Vessels:   c.Vessels + o.Vessels,
		Reminders: c.Reminders + o.Reminders,
		Performs:  c.Performs + o.Performs,
	}
}

// Counts totals the graph.
func (g *Graph) Counts() Counts {
	var c Counts
	if g == nil {
		return c
	}
	for _, v := range g.Vessels {
		c.Vessels++
		for _, r := range v.Reminders {
			c.Reminders++
			c.Performs += len(r.Performed)
		}
	}
	return c
}

// DefaultGraphReminder is the reminder given to a vessel that has none.
func DefaultGraphReminder(createdAt time.Time) GraphReminder {
	return GraphReminder{
		Kind:      KindWater,
		Interval:  DefaultInterval,
		IsEnabled: true,
		CreatedAt: createdAt,
	}
}

// FillMissingReminders gives every vessel without reminders a default one
// and returns the identifiers of the vessels it changed.
func (g *Graph) FillMissingReminders() []Identifier {
	if g == nil {
		return nil
	}
	var filled []Identifier
	for i := range g.Vessels {
		v := &g.Vessels[i]
		if len(v.Reminders) == 0 {
			v.Reminders = []GraphReminder{DefaultGraphReminder(v.CreatedAt)}
			filled = append(filled, v.ID)
		}
	}
	return filled
}

// ReminderKind returns the kind of r.
func (r GraphReminder) ReminderKind() ReminderKind {
	return NewReminderKind(r.Kind, r.Detail)
}
