package model

import "time"

// Reminder is a reminder document. Performs are embedded, oldest first. The
// legacy store has no enabled flag: every reminder is enabled.
type Reminder struct {
	Key               string     `json:"-"`
	UUID              string     `json:"uuid"`
	VesselKey         string     `json:"vessel_key"`
	KindString        string     `json:"kind_string"`
	DescriptionString *string    `json:"description_string,omitempty"`
	Interval          int        `json:"interval"`
	Note              *string    `json:"note,omitempty"`
	NextPerformDate   *time.Time `json:"next_perform_date,omitempty"`
	Performed         []Perform  `json:"performed"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Perform records one completion of a reminder.
type Perform struct {
	Date time.Time `json:"date"`
}

// SetKey sets the database key for this reminder.
func (r *Reminder) SetKey(key string) {
	r.Key = key
}

// GetKey returns the database key for this reminder.
func (r *Reminder) GetKey() string {
	return r.Key
}

// NewReminder returns a reminder document for uuid owned by vesselKey.
func NewReminder(uuid, vesselKey string, createdAt time.Time) *Reminder {
	return &Reminder{
		Key:        GenerateKey(PrefixReminder, uuid),
		UUID:       uuid,
		VesselKey:  vesselKey,
		KindString: "water",
		Interval:   7,
		CreatedAt:  createdAt,
	}
}

// LastPerformDate returns the date of the newest perform.
func (r *Reminder) LastPerformDate() *time.Time {
	if len(r.Performed) == 0 {
		return nil
	}
	d := r.Performed[len(r.Performed)-1].Date
	return &d
}
