// Package sqlstore is the relational storage engine: a datum.BasicController
// over SQLite through gorm. Every mutation runs in one transaction and live
// queries are re-evaluated after it commits.
package sqlstore

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/query"
)

// Options configures a controller.
type Options struct {
	// Path is the database file. Empty uses a private in-memory database.
	Path     string
	InMemory bool
	// OpenTimeout bounds how long Open retries while the file is busy.
	OpenTimeout  time.Duration
	Logger       *slog.Logger
	Now          func() time.Time
	Calendar     datum.DateCalculator
	MaxIconBytes int
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Calendar.Location == nil {
		o.Calendar = datum.NewDateCalculator(time.Local, time.Sunday)
	}
	if o.MaxIconBytes <= 0 {
		o.MaxIconBytes = datum.DefaultIconMaxBytes
	}
	return o
}

// Controller implements datum.BasicController over gorm.
type Controller struct {
	db   *gorm.DB
	hub  *query.Hub
	opts Options
	log  *slog.Logger

	mu sync.Mutex

	cbMu      sync.RWMutex
	callbacks datum.Callbacks
}

var _ datum.BasicController = (*Controller)(nil)

// Open opens or creates the database and upgrades its schema. Failures are
// reported as datum.ErrLoad.
func Open(opts Options) (*Controller, error) {
	opts = opts.withDefaults()
	log := opts.Logger.With("engine", string(datum.EngineRelational))
	opts.Logger = log

	db, err := openDB(opts)
	if err != nil {
		return nil, datum.NewError("open relational store", datum.ErrLoad, err)
	}
	return &Controller{db: db, hub: query.NewHub(), opts: opts, log: log}, nil
}

// Engine implements datum.BasicController.
func (c *Controller) Engine() datum.Engine { return datum.EngineRelational }

// SupportsDisabling implements datum.BasicController.
func (c *Controller) SupportsDisabling() bool { return true }

// Path returns the database file, empty for in-memory stores.
func (c *Controller) Path() string {
	if c.opts.InMemory {
		return ""
	}
	return c.opts.Path
}

// SetCallbacks implements datum.BasicController.
func (c *Controller) SetCallbacks(cb datum.Callbacks) {
	c.cbMu.Lock()
	c.callbacks = cb
	c.cbMu.Unlock()
}

func (c *Controller) cb() datum.Callbacks {
	c.cbMu.RLock()
	defer c.cbMu.RUnlock()
	return c.callbacks
}

// Close closes the database.
func (c *Controller) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// write runs fn in a transaction under the writer lock and notifies live
// queries after a successful commit.
func (c *Controller) write(op string, fn func(tx *gorm.DB) error) error {
	c.mu.Lock()
	err := c.db.Transaction(fn)
	c.mu.Unlock()
	if err != nil {
		return datum.Wrap(op, datum.ErrWrite, err)
	}
	c.hub.Notify()
	return nil
}

func createRow(tx *gorm.DB, row any) error {
	return tx.Omit(clause.Associations).Create(row).Error
}

func saveVessel(tx *gorm.DB, v *Vessel) error {
	return tx.Omit(clause.Associations).Save(v).Error
}

func saveReminder(tx *gorm.DB, r *Reminder) error {
	return tx.Omit(clause.Associations).Save(r).Error
}

func (c *Controller) newReminderRow(vesselID string) *Reminder {
	r := &Reminder{ID: uuid.NewString(), VesselID: vesselID, CreatedAt: c.opts.Now()}
	applyReminderFields(r, datum.DefaultReminderFields())
	return r
}

// NewReminderVessel implements datum.BasicController.
func (c *Controller) NewReminderVessel(displayName string, icon *datum.Icon) (datum.ReminderVessel, error) {
	fields, _, err := datum.VesselFields{}.Apply(datum.VesselUpdate{DisplayName: &displayName, Icon: icon}, c.opts.MaxIconBytes)
	if err != nil {
		return nil, err
	}

	v := &Vessel{ID: uuid.NewString(), Kind: string(datum.VesselKindPlant), CreatedAt: c.opts.Now()}
	applyVesselFields(v, fields)
	r := c.newReminderRow(v.ID)

	err = c.write("new vessel", func(tx *gorm.DB) error {
		if err := createRow(tx, v); err != nil {
			return err
		}
		return createRow(tx, r)
	})
	if err != nil {
		return nil, err
	}
	v.Reminders = []Reminder{*r}
	return &vessel{row: v}, nil
}

// NewReminder implements datum.BasicController.
func (c *Controller) NewReminder(rv datum.ReminderVessel) (datum.Reminder, error) {
	var r *Reminder
	err := c.write("new reminder", func(tx *gorm.DB) error {
		v, err := c.findVessel(tx, rv.ID())
		if err != nil {
			return err
		}
		r = c.newReminderRow(v.ID)
		return createRow(tx, r)
	})
	if err != nil {
		return nil, err
	}
	return &reminder{row: r}, nil
}

// UpdateVessel implements datum.BasicController. The vessel's reminders are
// touched so reminder observers pick up the new name and icon.
func (c *Controller) UpdateVessel(rv datum.ReminderVessel, u datum.VesselUpdate) error {
	var changed bool
	c.mu.Lock()
	err := c.db.Transaction(func(tx *gorm.DB) error {
		v, err := c.findVessel(tx, rv.ID())
		if err != nil {
			return err
		}
		var fields datum.VesselFields
		fields, changed, err = vesselFields(v).Apply(u, c.opts.MaxIconBytes)
		if err != nil || !changed {
			return err
		}
		applyVesselFields(v, fields)
		if err := saveVessel(tx, v); err != nil {
			return err
		}
		return touchReminders(tx, v.ID)
	})
	c.mu.Unlock()

	if err != nil {
		return datum.Wrap("update vessel", datum.ErrWrite, err)
	}
	if changed {
		c.hub.Notify()
	}
	return nil
}

// UpdateReminder implements datum.BasicController.
func (c *Controller) UpdateReminder(rr datum.Reminder, u datum.ReminderUpdate) error {
	if u.IsEmpty() {
		return nil
	}
	var changed bool
	c.mu.Lock()
	err := c.db.Transaction(func(tx *gorm.DB) error {
		r, err := c.findReminder(tx, rr.ID())
		if err != nil {
			return err
		}
		var fields datum.ReminderFields
		fields, changed = reminderFields(r).Apply(u)
		if !changed {
			return nil
		}
		applyReminderFields(r, fields)
		return saveReminder(tx, r)
	})
	c.mu.Unlock()

	if err != nil {
		return datum.Wrap("update reminder", datum.ErrWrite, err)
	}
	if changed {
		c.hub.Notify()
	}
	return nil
}

// AppendNewPerform implements datum.BasicController. Either every reminder
// gets a perform or none does.
func (c *Controller) AppendNewPerform(ids []datum.Identifier) error {
	if len(ids) == 0 {
		return nil
	}
	err := c.write("append perform", func(tx *gorm.DB) error {
		now := c.opts.Now()
		for _, id := range ids {
			r, err := c.findReminder(tx, id)
			if err != nil {
				return err
			}
			if err := tx.Create(&Perform{ReminderID: r.ID, Date: now}).Error; err != nil {
				return err
			}
			applyReminderFields(r, reminderFields(r).Perform(now))
			if err := saveReminder(tx, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.cb().NotifyPerformed()
	return nil
}

// DeleteVessel implements datum.BasicController.
func (c *Controller) DeleteVessel(rv datum.ReminderVessel) error {
	var (
		vessels   []datum.ReminderVesselValue
		reminders []datum.ReminderValue
	)
	err := c.write("delete vessel", func(tx *gorm.DB) error {
		v, err := c.findVessel(tx, rv.ID())
		if err != nil {
			return err
		}
		var rows []Reminder
		if err := tx.Where("vessel_id = ?", v.ID).Order("created_at, id").Find(&rows).Error; err != nil {
			return err
		}
		vessels = []datum.ReminderVesselValue{(&vessel{row: v}).Value()}
		keys := make([]string, len(rows))
		for i := range rows {
			reminders = append(reminders, (&reminder{row: &rows[i]}).Value())
			keys[i] = rows[i].ID
		}

		if len(keys) > 0 {
			if err := tx.Where("reminder_id IN ?", keys).Delete(&Perform{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", keys).Delete(&Reminder{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("native_id IN ?", append(keys, v.ID)).Delete(&MigratedRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Vessel{}, "id = ?", v.ID).Error
	})
	if err != nil {
		return err
	}
	c.log.Debug("vessel deleted", "vessel_id", rv.ID(), "count", len(reminders))
	c.cb().NotifyDeleted(vessels, reminders)
	return nil
}

// DeleteReminder implements datum.BasicController. Deleting a vessel's last
// reminder is refused before anything is written.
func (c *Controller) DeleteReminder(rr datum.Reminder) error {
	const op = "delete reminder"
	var deleted datum.ReminderValue
	err := c.write(op, func(tx *gorm.DB) error {
		r, err := c.findReminder(tx, rr.ID())
		if err != nil {
			return err
		}
		var siblings int64
		if err := tx.Model(&Reminder{}).Where("vessel_id = ?", r.VesselID).Count(&siblings).Error; err != nil {
			return err
		}
		if siblings <= 1 {
			return datum.NewError(op, datum.ErrUnableToDeleteLastReminder, nil)
		}
		deleted = (&reminder{row: r}).Value()
		if err := tx.Where("reminder_id = ?", r.ID).Delete(&Perform{}).Error; err != nil {
			return err
		}
		if err := tx.Where("native_id = ?", r.ID).Delete(&MigratedRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Reminder{}, "id = ?", r.ID).Error
	})
	if err != nil {
		return err
	}
	c.cb().NotifyDeleted(nil, []datum.ReminderValue{deleted})
	return nil
}

// Touch implements datum.BasicController by bumping the row revision.
func (c *Controller) Touch(id datum.Identifier) error {
	return c.write("touch", func(tx *gorm.DB) error {
		r, err := c.findReminder(tx, id)
		if err == nil {
			return saveReminder(tx, r)
		}
		if !errors.Is(err, datum.ErrObjectDeleted) {
			return err
		}
		v, err := c.findVessel(tx, id)
		if err != nil {
			return err
		}
		if err := saveVessel(tx, v); err != nil {
			return err
		}
		return touchReminders(tx, v.ID)
	})
}

func touchReminders(tx *gorm.DB, vesselID string) error {
	return tx.Model(&Reminder{}).
		Where("vessel_id = ?", vesselID).
		UpdateColumn("revision", gorm.Expr("revision + 1")).Error
}

// ReminderVessel implements datum.BasicController.
func (c *Controller) ReminderVessel(id datum.Identifier) (datum.ReminderVessel, error) {
	v, err := c.findVessel(c.db, id)
	if err != nil {
		return nil, datum.Wrap("read vessel", datum.ErrRead, err)
	}
	return &vessel{row: v}, nil
}

// Reminder implements datum.BasicController.
func (c *Controller) Reminder(id datum.Identifier) (datum.Reminder, error) {
	r, err := c.findReminder(c.db, id)
	if err != nil {
		return nil, datum.Wrap("read reminder", datum.ErrRead, err)
	}
	return &reminder{row: r}, nil
}
