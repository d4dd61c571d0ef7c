// Package docstore is the legacy storage engine: a datum.BasicController over
// JSON documents in badger. Vessel documents list their reminder keys;
// reminder documents embed their perform history and point back at their
// vessel. Live queries are driven by badger's native subscription feed.
package docstore

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/errors"
	"github.com/manav03panchal/waterme/internal/model"
	"github.com/manav03panchal/waterme/internal/query"
	"github.com/manav03panchal/waterme/internal/storage"
)

// SchemaVersion is the document layout version this package writes.
const SchemaVersion = 14

// Options configures a controller.
type Options struct {
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

// Controller implements datum.BasicController over a storage.DB.
type Controller struct {
	db     *storage.DB
	ownsDB bool
	watch  *storage.Watch
	hub    *query.Hub
	opts   Options
	log    *slog.Logger

	// mu serialises writers.
	mu sync.Mutex

	cbMu      sync.RWMutex
	callbacks datum.Callbacks
}

var _ datum.BasicController = (*Controller)(nil)

// Open opens the database described by sopts and returns a controller that
// closes it on Close.
func Open(sopts storage.Options, opts Options) (*Controller, error) {
	if sopts.Logger == nil {
		sopts.Logger = opts.Logger
	}
	db, err := storage.Open(sopts)
	if err != nil {
		return nil, datum.NewError("open document store", datum.ErrLoad, err)
	}
	c, err := New(db, opts)
	if err != nil {
		db.Close()
		return nil, err
	}
	c.ownsDB = true
	return c, nil
}

// New returns a controller over an open database. The schema is upgraded in
// place before the controller is returned.
func New(db *storage.DB, opts Options) (*Controller, error) {
	opts = opts.withDefaults()
	c := &Controller{
		db:   db,
		hub:  query.NewHub(),
		opts: opts,
		log:  opts.Logger.With("engine", string(datum.EngineDocument)),
	}

	if status := db.CheckIntegrity(); !status.Healthy {
		c.log.Error("document store failed integrity check", "count", status.ErrorCount)
		return nil, datum.NewError("open document store", datum.ErrLoad, errors.ErrDatabaseCorrupted)
	}
	if err := db.EnsureSchema(SchemaVersion, schemaSteps(opts.Now), model.PrefixVessel+":", model.PrefixReminder+":"); err != nil {
		return nil, datum.NewError("upgrade document store", datum.ErrLoad, err)
	}

	watch, err := db.Watch([]string{model.PrefixVessel + ":", model.PrefixReminder + ":"}, func(keys []string) {
		c.log.Debug("documents changed", "count", len(keys))
		c.hub.Notify()
	})
	if err != nil {
		return nil, datum.NewError("watch document store", datum.ErrCreate, err)
	}
	c.watch = watch
	return c, nil
}

// Engine implements datum.BasicController.
func (c *Controller) Engine() datum.Engine { return datum.EngineDocument }

// SupportsDisabling implements datum.BasicController. Documents have no
// enabled flag.
func (c *Controller) SupportsDisabling() bool { return false }

// DB returns the underlying database.
func (c *Controller) DB() *storage.DB { return c.db }

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

// Close stops the change feed and closes the database if the controller
// opened it.
func (c *Controller) Close() error {
	if c.watch != nil {
		c.watch.Close()
	}
	if c.ownsDB {
		return c.db.Close()
	}
	return nil
}

// NewReminderVessel implements datum.BasicController.
func (c *Controller) NewReminderVessel(displayName string, icon *datum.Icon) (datum.ReminderVessel, error) {
	const op = "new vessel"
	fields, _, err := datum.VesselFields{}.Apply(datum.VesselUpdate{DisplayName: &displayName, Icon: icon}, c.opts.MaxIconBytes)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.Now()
	v := model.NewVessel(uuid.NewString(), now)
	applyVesselFields(v, fields)
	r := model.NewReminder(uuid.NewString(), v.Key, now)
	applyReminderFields(r, datum.DefaultReminderFields())
	v.ReminderKeys = []string{r.Key}

	err = c.db.Update(func(t *storage.Txn) error {
		if err := t.Set(v); err != nil {
			return err
		}
		return t.Set(r)
	})
	if err != nil {
		return nil, datum.NewError(op, datum.ErrWrite, err)
	}
	c.log.Debug("vessel created", "vessel_id", v.UUID, "reminder_id", r.UUID)
	return &vessel{doc: v}, nil
}

// NewReminder implements datum.BasicController.
func (c *Controller) NewReminder(rv datum.ReminderVessel) (datum.Reminder, error) {
	const op = "new reminder"
	c.mu.Lock()
	defer c.mu.Unlock()

	var r *model.Reminder
	err := c.db.Update(func(t *storage.Txn) error {
		v, _, err := getVessel(t, rv.ID())
		if err != nil {
			return err
		}
		r = model.NewReminder(uuid.NewString(), v.Key, c.opts.Now())
		applyReminderFields(r, datum.DefaultReminderFields())
		v.ReminderKeys = append(v.ReminderKeys, r.Key)
		if err := t.Set(r); err != nil {
			return err
		}
		return t.Set(v)
	})
	if err != nil {
		return nil, datum.Wrap(op, datum.ErrWrite, err)
	}
	return &reminder{doc: r}, nil
}

// UpdateVessel implements datum.BasicController. The vessel's reminders are
// touched so reminder observers pick up the new name and icon.
func (c *Controller) UpdateVessel(rv datum.ReminderVessel, u datum.VesselUpdate) error {
	const op = "update vessel"
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.db.Update(func(t *storage.Txn) error {
		v, _, err := getVessel(t, rv.ID())
		if err != nil {
			return err
		}
		fields, changed, err := vesselFields(v).Apply(u, c.opts.MaxIconBytes)
		if err != nil || !changed {
			return err
		}
		applyVesselFields(v, fields)
		if err := t.Set(v); err != nil {
			return err
		}
		return touchReminders(t, v)
	})
	return datum.Wrap(op, datum.ErrWrite, err)
}

// UpdateReminder implements datum.BasicController.
func (c *Controller) UpdateReminder(rr datum.Reminder, u datum.ReminderUpdate) error {
	const op = "update reminder"
	if u.IsEnabled != nil && !*u.IsEnabled {
		return datum.NewError(op, datum.ErrIsEnabledFalseUnsupported, nil)
	}
	if u.IsEmpty() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.db.Update(func(t *storage.Txn) error {
		r, _, err := getReminder(t, rr.ID())
		if err != nil {
			return err
		}
		fields, changed := reminderFields(r).Apply(u)
		if !changed {
			return nil
		}
		applyReminderFields(r, fields)
		return t.Set(r)
	})
	return datum.Wrap(op, datum.ErrWrite, err)
}

// AppendNewPerform implements datum.BasicController. Either every reminder
// gets a perform or none does.
func (c *Controller) AppendNewPerform(ids []datum.Identifier) error {
	const op = "append perform"
	if len(ids) == 0 {
		return nil
	}

	c.mu.Lock()
	err := c.db.Update(func(t *storage.Txn) error {
		now := c.opts.Now()
		for _, id := range ids {
			r, _, err := getReminder(t, id)
			if err != nil {
				return err
			}
			r.Performed = append(r.Performed, model.Perform{Date: now})
			applyReminderFields(r, reminderFields(r).Perform(now))
			if err := t.Set(r); err != nil {
				return err
			}
		}
		return nil
	})
	c.mu.Unlock()

	if err != nil {
		return datum.Wrap(op, datum.ErrWrite, err)
	}
	c.cb().NotifyPerformed()
	return nil
}

// DeleteVessel implements datum.BasicController.
func (c *Controller) DeleteVessel(rv datum.ReminderVessel) error {
	const op = "delete vessel"
	var (
		vessels   []datum.ReminderVesselValue
		reminders []datum.ReminderValue
	)

	c.mu.Lock()
	err := c.db.Update(func(t *storage.Txn) error {
		v, _, err := getVessel(t, rv.ID())
		if err != nil {
			return err
		}
		vessels = []datum.ReminderVesselValue{(&vessel{doc: v}).Value()}
		for _, key := range v.ReminderKeys {
			r := &model.Reminder{}
			if err := t.Get(key, r); err != nil {
				if storage.IsErrKeyNotFound(err) {
					continue
				}
				return err
			}
			reminders = append(reminders, (&reminder{doc: r}).Value())
			if err := t.Delete(key); err != nil {
				return err
			}
		}
		return t.Delete(v.Key)
	})
	c.mu.Unlock()

	if err != nil {
		return datum.Wrap(op, datum.ErrWrite, err)
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

	c.mu.Lock()
	err := c.db.Update(func(t *storage.Txn) error {
		r, _, err := getReminder(t, rr.ID())
		if err != nil {
			return err
		}
		v := &model.Vessel{}
		if err := t.Get(r.VesselKey, v); err != nil {
			if storage.IsErrKeyNotFound(err) {
				return datum.NewError(op, datum.ErrObjectDeleted, err)
			}
			return err
		}
		if len(v.ReminderKeys) <= 1 {
			return datum.NewError(op, datum.ErrUnableToDeleteLastReminder, nil)
		}
		deleted = (&reminder{doc: r}).Value()
		v.RemoveReminder(r.Key)
		if err := t.Delete(r.Key); err != nil {
			return err
		}
		return t.Set(v)
	})
	c.mu.Unlock()

	if err != nil {
		return datum.Wrap(op, datum.ErrWrite, err)
	}
	c.cb().NotifyDeleted(nil, []datum.ReminderValue{deleted})
	return nil
}

// Touch implements datum.BasicController by rewriting the document
// unchanged, which gives it a new version.
func (c *Controller) Touch(id datum.Identifier) error {
	const op = "touch"
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.db.Update(func(t *storage.Txn) error {
		if r, _, err := getReminder(t, id); err == nil {
			return t.Set(r)
		}
		v, _, err := getVessel(t, id)
		if err != nil {
			return err
		}
		if err := t.Set(v); err != nil {
			return err
		}
		return touchReminders(t, v)
	})
	return datum.Wrap(op, datum.ErrWrite, err)
}

// ReminderVessel implements datum.BasicController.
func (c *Controller) ReminderVessel(id datum.Identifier) (datum.ReminderVessel, error) {
	var out *vessel
	err := c.db.View(func(t *storage.Txn) error {
		v, version, err := getVessel(t, id)
		if err != nil {
			return err
		}
		out = &vessel{doc: v, version: version}
		return nil
	})
	if err != nil {
		return nil, datum.Wrap("read vessel", datum.ErrRead, err)
	}
	return out, nil
}

// Reminder implements datum.BasicController.
func (c *Controller) Reminder(id datum.Identifier) (datum.Reminder, error) {
	var out *reminder
	err := c.db.View(func(t *storage.Txn) error {
		r, version, err := getReminder(t, id)
		if err != nil {
			return err
		}
		out = &reminder{doc: r, version: version}
		return nil
	})
	if err != nil {
		return nil, datum.Wrap("read reminder", datum.ErrRead, err)
	}
	return out, nil
}

func getVessel(t *storage.Txn, id datum.Identifier) (*model.Vessel, uint64, error) {
	v := &model.Vessel{}
	version, err := t.GetVersion(model.GenerateKey(model.PrefixVessel, id.String()), v)
	if err != nil {
		if storage.IsErrKeyNotFound(err) {
			return nil, 0, datum.NewError("resolve vessel "+id.String(), datum.ErrObjectDeleted, nil)
		}
		return nil, 0, err
	}
	return v, version, nil
}

func getReminder(t *storage.Txn, id datum.Identifier) (*model.Reminder, uint64, error) {
	r := &model.Reminder{}
	version, err := t.GetVersion(model.GenerateKey(model.PrefixReminder, id.String()), r)
	if err != nil {
		if storage.IsErrKeyNotFound(err) {
			return nil, 0, datum.NewError("resolve reminder "+id.String(), datum.ErrObjectDeleted, nil)
		}
		return nil, 0, err
	}
	return r, version, nil
}

func touchReminders(t *storage.Txn, v *model.Vessel) error {
	for _, key := range v.ReminderKeys {
		data, err := t.GetBytes(key)
		if err != nil {
			if storage.IsErrKeyNotFound(err) {
				continue
			}
			return err
		}
		if err := t.SetBytes(key, data); err != nil {
			return err
		}
	}
	return nil
}
