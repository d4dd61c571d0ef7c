package sqlstore

import (
	"time"

	"gorm.io/gorm"
)

// SchemaVersion is the relational schema version this package writes.
const SchemaVersion = 2

// Vessel is a plant row.
type Vessel struct {
	ID          string `gorm:"primaryKey;size:36"`
	Kind        string `gorm:"not null"`
	DisplayName *string
	IconEmoji   *string
	IconImage   []byte
	CreatedAt   time.Time  `gorm:"index"`
	Revision    uint64     `gorm:"not null"`
	Reminders   []Reminder `gorm:"foreignKey:VesselID;constraint:OnDelete:CASCADE"`
}

// Reminder is a reminder row. LastPerformDate mirrors the newest perform.
type Reminder struct {
	ID              string `gorm:"primaryKey;size:36"`
	VesselID        string `gorm:"index;not null;size:36"`
	Kind            string `gorm:"not null"`
	KindDetail      *string
	Interval        int `gorm:"not null"`
	Note            *string
	IsEnabled       bool       `gorm:"not null;index"`
	NextPerformDate *time.Time `gorm:"index"`
	LastPerformDate *time.Time
	CreatedAt       time.Time `gorm:"index"`
	Revision        uint64    `gorm:"not null"`
	Performs        []Perform `gorm:"foreignKey:ReminderID;constraint:OnDelete:CASCADE"`
}

// Perform records one completion of a reminder.
type Perform struct {
	ID         uint      `gorm:"primaryKey"`
	ReminderID string    `gorm:"index;not null;size:36"`
	Date       time.Time `gorm:"not null"`
}

// MigratedRecord maps an identifier from the legacy store to the row that
// replaced it.
type MigratedRecord struct {
	ID               uint   `gorm:"primaryKey"`
	Entity           string `gorm:"index:idx_migrated_lookup;not null"`
	LegacyIdentifier string `gorm:"index:idx_migrated_lookup;not null"`
	NativeID         string `gorm:"index;not null;size:36"`
}

// SchemaMeta holds the schema version in its single row.
type SchemaMeta struct {
	ID      uint `gorm:"primaryKey"`
	Version int  `gorm:"not null"`
}

// TableName pins the table name.
func (SchemaMeta) TableName() string {
	return "schema_meta"
}

// BeforeSave bumps the revision observers use to detect modifications.
func (v *Vessel) BeforeSave(tx *gorm.DB) error {
	v.Revision++
	v.CreatedAt = v.CreatedAt.UTC()
	return nil
}

// BeforeSave bumps the revision and keeps stored dates in UTC.
func (r *Reminder) BeforeSave(tx *gorm.DB) error {
	r.Revision++
	r.CreatedAt = r.CreatedAt.UTC()
	r.NextPerformDate = utc(r.NextPerformDate)
	r.LastPerformDate = utc(r.LastPerformDate)
	return nil
}

// BeforeCreate keeps stored dates in UTC.
func (p *Perform) BeforeCreate(tx *gorm.DB) error {
	p.Date = p.Date.UTC()
	return nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

var allModels = []any{&Vessel{}, &Reminder{}, &Perform{}, &MigratedRecord{}, &SchemaMeta{}}
