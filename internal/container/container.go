// Package container owns the shared data root. It decides which storage
// engine is active, seeds the starter dataset on first launch, and moves the
// legacy store into the relational store.
//
// Layout of the data root:
//
//	legacy.badger/     document store (legacy engine)
//	waterme.sqlite     relational store
//	archive/           compressed copies of deleted legacy stores
//	maintenance.lock   held during migration and legacy deletion
package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/docstore"
	"github.com/manav03panchal/waterme/internal/logging"
	"github.com/manav03panchal/waterme/internal/migrate"
	"github.com/manav03panchal/waterme/internal/sqlstore"
	"github.com/manav03panchal/waterme/internal/storage"
)

const (
	lockName    = "maintenance.lock"
	archiveDir  = "archive"
	stagingExt  = ".migrating"
	defaultWait = 5 * time.Second
)

// DefaultRoot returns the data root under the XDG data directory.
func DefaultRoot() string {
	return filepath.Join(xdg.DataHome, storage.AppName)
}

// Options configures a Container.
type Options struct {
	// Root is the data root. Empty uses DefaultRoot.
	Root         string
	Logger       *slog.Logger
	Now          func() time.Time
	Calendar     datum.DateCalculator
	MaxIconBytes int
	// OpenTimeout bounds retries while a store is locked by another process.
	OpenTimeout time.Duration
	// MinFreeSpace is the headroom kept free by migration and archiving.
	MinFreeSpace uint64
	// LockTimeout bounds the wait for the maintenance lock.
	LockTimeout time.Duration
}

// Container resolves store locations inside one data root.
type Container struct {
	opts Options
	log  *slog.Logger
}

// New returns a container. Nothing is touched on disk until a store is
// opened.
func New(opts Options) *Container {
	if opts.Root == "" {
		opts.Root = DefaultRoot()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MinFreeSpace == 0 {
		opts.MinFreeSpace = storage.DefaultMinFreeSpace
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = defaultWait
	}
	return &Container{opts: opts, log: opts.Logger.With("component", "container")}
}

// Root returns the data root.
func (c *Container) Root() string { return c.opts.Root }

// LegacyPath returns the legacy store directory.
func (c *Container) LegacyPath() string { return filepath.Join(c.opts.Root, storage.DirName) }

// RelationalPath returns the relational store file.
func (c *Container) RelationalPath() string { return filepath.Join(c.opts.Root, sqlstore.FileName) }

// Status describes what exists in the data root.
type Status struct {
	Root            string       `json:"root"`
	Engine          datum.Engine `json:"engine"`
	LegacyStore     bool         `json:"legacy_store"`
	RelationalStore bool         `json:"relational_store"`
	NeedsMigration  bool         `json:"needs_migration"`
}

// Status reports which stores exist and which engine Open would use.
func (c *Container) Status() Status {
	s := Status{
		Root:            c.opts.Root,
		LegacyStore:     storage.Exists(c.LegacyPath()),
		RelationalStore: sqlstore.Exists(c.RelationalPath()),
	}
	s.NeedsMigration = s.LegacyStore && !s.RelationalStore
	s.Engine = datum.EngineRelational
	if !s.RelationalStore {
		s.Engine = datum.EngineDocument
	}
	return s
}

// Open returns a controller for the active engine. The relational store
// wins when it exists. Otherwise the legacy store is used; when it does not
// exist either, it is created and seeded with the starter dataset first.
func (c *Container) Open(ctx context.Context) (datum.BasicController, error) {
	status := c.Status()
	if status.RelationalStore {
		ctrl, err := c.openRelational(c.RelationalPath())
		if err != nil {
			return nil, err
		}
		return ctrl, nil
	}
	if !status.LegacyStore {
		if err := c.seed(ctx); err != nil {
			return nil, err
		}
	}
	ctrl, err := c.openLegacy()
	if err != nil {
		return nil, err
	}
	return ctrl, nil
}

func (c *Container) openLegacy() (*docstore.Controller, error) {
	return docstore.Open(storage.Options{
		Path:        c.LegacyPath(),
		OpenTimeout: c.opts.OpenTimeout,
		Logger:      c.opts.Logger,
	}, docstore.Options{
		Logger:       c.opts.Logger,
		Now:          c.opts.Now,
		Calendar:     c.opts.Calendar,
		MaxIconBytes: c.opts.MaxIconBytes,
	})
}

func (c *Container) openRelational(path string) (*sqlstore.Controller, error) {
	return sqlstore.Open(sqlstore.Options{
		Path:         path,
		OpenTimeout:  c.opts.OpenTimeout,
		Logger:       c.opts.Logger,
		Now:          c.opts.Now,
		Calendar:     c.opts.Calendar,
		MaxIconBytes: c.opts.MaxIconBytes,
	})
}

// seed writes the starter dataset into a new legacy store.
func (c *Container) seed(ctx context.Context) error {
	const op = "seed starter dataset"
	graph, err := StarterGraph(c.opts.Now())
	if err != nil {
		return datum.NewError(op, datum.ErrCreate, err)
	}

	lock, err := c.lock()
	if err != nil {
		return datum.NewError(op, datum.ErrCreate, err)
	}
	defer lock.Release()

	// another process may have seeded while we waited
	if storage.Exists(c.LegacyPath()) || sqlstore.Exists(c.RelationalPath()) {
		return nil
	}

	legacy, err := c.openLegacy()
	if err != nil {
		return err
	}
	defer legacy.Close()
	if err := legacy.Import(ctx, graph, nil); err != nil {
		return datum.Wrap(op, datum.ErrCreate, err)
	}
	counts := graph.Counts()
	c.log.Info("starter dataset written", logging.KeyCount, counts.Vessels, "reminders", counts.Reminders)
	return nil
}

func (c *Container) lock() (*storage.FileLock, error) {
	lock := storage.NewFileLock(c.opts.Root, lockName)
	if err := lock.AcquireWithin(c.opts.LockTimeout); err != nil {
		return nil, err
	}
	return lock, nil
}

// MigrateOptions tunes a migration run.
type MigrateOptions struct {
	// Dispatch runs progress and completion callbacks. See migrate.Options.
	Dispatch func(func())
	// OnProgress is called with every progress increase.
	OnProgress func(float64)
}

// ErrNothingToMigrate is returned by Migrate when there is no legacy store
// or the relational store already exists.
var ErrNothingToMigrate = errors.New("nothing to migrate")

// Migrate copies the legacy store into a new relational store and blocks
// until the migration has finished. The relational store is staged next to
// its final path and only renamed into place after verification, so a
// failed run leaves the data root as it was. The legacy store is kept.
func (c *Container) Migrate(ctx context.Context, mo MigrateOptions) (migrate.Result, error) {
	const op = "migrate legacy store"
	log := logging.FromContext(ctx, c.log)

	lock, err := c.lock()
	if err != nil {
		return migrate.Result{}, datum.NewError(op, datum.ErrMaintenance, err)
	}
	defer lock.Release()

	status := c.Status()
	if !status.NeedsMigration {
		return migrate.Result{}, ErrNothingToMigrate
	}

	size, err := storage.DirSize(c.LegacyPath())
	if err != nil {
		return migrate.Result{}, datum.NewError(op, datum.ErrRead, err)
	}
	if err := storage.CheckDiskSpace(c.opts.Root, size, c.opts.MinFreeSpace); err != nil {
		return migrate.Result{}, datum.NewError(op, datum.ErrWrite, err)
	}

	legacy, err := c.openLegacy()
	if err != nil {
		return migrate.Result{}, err
	}
	defer legacy.Close()

	staging := c.RelationalPath() + stagingExt
	removeStaging(staging)
	dest, err := c.openRelational(staging)
	if err != nil {
		return migrate.Result{}, err
	}

	done := make(chan migrate.Result, 1)
	engine := migrate.New(legacy, migrate.Options{Logger: c.opts.Logger, Dispatch: mo.Dispatch})
	progress := engine.Start(ctx, dest, func(r migrate.Result) { done <- r })
	if mo.OnProgress != nil {
		stop := progress.Observe(mo.OnProgress)
		defer stop()
	}
	res := <-done

	if err := dest.Close(); err != nil && res.Err == nil {
		res.Err = datum.NewError(op, datum.ErrWrite, err)
	}
	if res.Err != nil {
		removeStaging(staging)
		return res, res.Err
	}
	if err := os.Rename(staging, c.RelationalPath()); err != nil {
		removeStaging(staging)
		res.Err = datum.NewError(op, datum.ErrWrite, fmt.Errorf("install relational store: %w", err))
		return res, res.Err
	}
	log.Info("relational store installed", "path", logging.HomeRelative(c.RelationalPath()))
	return res, nil
}

func removeStaging(path string) {
	for _, p := range []string{path, path + "-journal", path + "-wal", path + "-shm"} {
		os.Remove(p)
	}
}

// DeleteLegacyStore archives and removes the legacy store. It refuses while
// the legacy store is still the active one. confirm, when not nil, is asked
// before anything is touched; declining returns an empty path and no error.
func (c *Container) DeleteLegacyStore(confirm func(path string) bool) (string, error) {
	const op = "delete legacy store"

	status := c.Status()
	if !status.LegacyStore {
		return "", nil
	}
	if !status.RelationalStore {
		return "", datum.NewError(op, datum.ErrMaintenance, errors.New("legacy store has not been migrated"))
	}
	if confirm != nil && !confirm(c.LegacyPath()) {
		c.log.Info("legacy store deletion declined")
		return "", nil
	}

	lock, err := c.lock()
	if err != nil {
		return "", datum.NewError(op, datum.ErrMaintenance, err)
	}
	defer lock.Release()

	db, err := storage.Open(storage.Options{Path: c.LegacyPath(), OpenTimeout: c.opts.OpenTimeout, Logger: c.opts.Logger})
	if err != nil {
		return "", datum.NewError(op, datum.ErrMaintenance, err)
	}
	archive, err := db.ArchiveTo(filepath.Join(c.opts.Root, archiveDir), c.opts.MinFreeSpace)
	if cerr := db.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", datum.NewError(op, datum.ErrMaintenance, err)
	}
	if err := os.RemoveAll(c.LegacyPath()); err != nil {
		return archive, datum.NewError(op, datum.ErrMaintenance, err)
	}
	c.log.Info("legacy store deleted", "archive", logging.HomeRelative(archive))
	return archive, nil
}
