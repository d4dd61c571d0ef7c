package sqlstore

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// schemaSteps upgrade a database from version To-1 to To. They run after
// AutoMigrate has added any new columns.
var schemaSteps = []struct {
	To    int
	Apply func(tx *gorm.DB) error
}{
	// Version 1 did not store the last perform date on the reminder row.
	{To: 2, Apply: func(tx *gorm.DB) error {
		return tx.Exec(`UPDATE reminders SET last_perform_date =
			(SELECT MAX(date) FROM performs WHERE performs.reminder_id = reminders.id)
			WHERE last_perform_date IS NULL`).Error
	}},
}

// SchemaVersionOf returns the stored schema version, or 0 for a database
// that has none.
func SchemaVersionOf(db *gorm.DB) (int, error) {
	if !db.Migrator().HasTable(&SchemaMeta{}) {
		return 0, nil
	}
	var meta SchemaMeta
	if err := db.Limit(1).Find(&meta).Error; err != nil {
		return 0, err
	}
	return meta.Version, nil
}

// ensureSchema creates or upgrades the tables and stamps SchemaVersion.
func ensureSchema(db *gorm.DB, log *slog.Logger) error {
	return db.Transaction(func(tx *gorm.DB) error {
		from, err := SchemaVersionOf(tx)
		if err != nil {
			return err
		}
		if from > SchemaVersion {
			return fmt.Errorf("%w: %d > %d", ErrSchemaTooNew, from, SchemaVersion)
		}
		fresh := !tx.Migrator().HasTable(&Vessel{})

		if err := tx.AutoMigrate(allModels...); err != nil {
			return fmt.Errorf("migrate tables: %w", err)
		}
		if !fresh {
			for _, step := range schemaSteps {
				if step.To <= from || step.To > SchemaVersion {
					continue
				}
				if err := step.Apply(tx); err != nil {
					return fmt.Errorf("schema upgrade to %d: %w", step.To, err)
				}
				log.Info("schema upgraded", "from", from, "to", step.To)
				from = step.To
			}
		}
		return tx.Save(&SchemaMeta{ID: 1, Version: SchemaVersion}).Error
	})
}
