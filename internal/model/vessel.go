package model

import "time"

// Vessel is a plant document. Reminders are owned and listed by key.
type Vessel struct {
	Key          string    `json:"-"`
	UUID         string    `json:"uuid"`
	DisplayName  *string   `json:"display_name,omitempty"`
	IconEmoji    *string   `json:"icon_emoji,omitempty"`
	IconImage    []byte    `json:"icon_image,omitempty"`
	KindString   string    `json:"kind_string"`
	ReminderKeys []string  `json:"reminder_keys"`
	CreatedAt    time.Time `json:"created_at"`
}

// SetKey sets the database key for this vessel.
func (v *Vessel) SetKey(key string) {
	v.Key = key
}

// GetKey returns the database key for this vessel.
func (v *Vessel) GetKey() string {
	return v.Key
}

// NewVessel returns a vessel document for uuid.
func NewVessel(uuid string, createdAt time.Time) *Vessel {
	return &Vessel{
		Key:        GenerateKey(PrefixVessel, uuid),
		UUID:       uuid,
		KindString: "plant",
		CreatedAt:  createdAt,
	}
}

// RemoveReminder drops key from the reminder list.
func (v *Vessel) RemoveReminder(key string) {
	out := v.ReminderKeys[:0]
	for _, k := range v.ReminderKeys {
		if k != key {
			out = append(out, k)
		}
	}
	v.ReminderKeys = out
}
