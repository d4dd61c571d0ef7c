package sqlstore

import (
	"strings"

	"gorm.io/gorm"

	"github.com/manav03panchal/waterme/internal/datum"
)

const nativeScheme = "x-waterme://"

// Entity names used in native identifiers and migrated records.
const (
	EntityVessel   = "vessel"
	EntityReminder = "reminder"
)

// NativeID returns the identifier of a row.
func NativeID(entity, key string) datum.Identifier {
	return datum.Identifier(nativeScheme + entity + "/" + key)
}

// parseNativeID returns the primary key of a native identifier of entity.
func parseNativeID(entity string, id datum.Identifier) (string, bool) {
	rest, ok := strings.CutPrefix(id.String(), nativeScheme+entity+"/")
	if !ok || rest == "" {
		return "", false
	}
	return rest, true
}

// resolve maps id to the primary key of an entity row. Native identifiers
// are tried first, then identifiers recorded when the legacy store was
// migrated.
func (c *Controller) resolve(tx *gorm.DB, entity string, id datum.Identifier) (string, error) {
	op := "resolve " + entity + " " + id.String()
	if key, ok := parseNativeID(entity, id); ok {
		return key, nil
	}

	var records []MigratedRecord
	err := tx.Where("entity = ? AND legacy_identifier = ?", entity, id.String()).
		Limit(2).
		Find(&records).Error
	if err != nil {
		return "", datum.NewError(op, datum.ErrRead, err)
	}
	switch len(records) {
	case 0:
		return "", datum.NewError(op, datum.ErrObjectDeleted, nil)
	case 1:
		return records[0].NativeID, nil
	default:
		c.log.Warn("legacy identifier matches several rows", "entity", entity, "id", id.String())
		return "", datum.NewError(op, datum.ErrAmbiguousIdentifier, nil)
	}
}

func (c *Controller) findVessel(tx *gorm.DB, id datum.Identifier) (*Vessel, error) {
	key, err := c.resolve(tx, EntityVessel, id)
	if err != nil {
		return nil, err
	}
	var rows []Vessel
	err = tx.Preload("Reminders", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "vessel_id", "created_at").Order("created_at, id")
	}).Where("id = ?", key).Limit(1).Find(&rows).Error
	if err != nil {
		return nil, datum.NewError("read vessel", datum.ErrRead, err)
	}
	if len(rows) == 0 {
		return nil, datum.NewError("resolve vessel "+id.String(), datum.ErrObjectDeleted, nil)
	}
	return &rows[0], nil
}

func (c *Controller) findReminder(tx *gorm.DB, id datum.Identifier) (*Reminder, error) {
	key, err := c.resolve(tx, EntityReminder, id)
	if err != nil {
		return nil, err
	}
	var rows []Reminder
	err = tx.Preload("Performs", func(db *gorm.DB) *gorm.DB {
		return db.Order("date, id")
	}).Where("id = ?", key).Limit(1).Find(&rows).Error
	if err != nil {
		return nil, datum.NewError("read reminder", datum.ErrRead, err)
	}
	if len(rows) == 0 {
		return nil, datum.NewError("resolve reminder "+id.String(), datum.ErrObjectDeleted, nil)
	}
	return &rows[0], nil
}
