// Package runtime provides the application runtime context for WaterMe
// commands: configuration, logger, formatter and the lazily opened store.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/manav03panchal/waterme/internal/config"
	"github.com/manav03panchal/waterme/internal/container"
	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/logging"
	"github.com/manav03panchal/waterme/internal/output"
)

// Context holds the application runtime context.
type Context struct {
	Config    *config.Config
	Logger    *slog.Logger
	Container *container.Container
	Formatter *output.Formatter
	Calendar  datum.DateCalculator
	Now       func() time.Time

	// Debug mode
	Debug bool

	containerOpts container.Options
	controller    datum.BasicController
}

// Options configures the runtime context.
type Options struct {
	ConfigPath string
	// Root overrides storage.root when set.
	Root      string
	Format    output.Format
	ColorMode output.ColorMode
	Debug     bool
	Output    io.Writer
	LogOutput io.Writer
	Now       func() time.Time
}

// DefaultOptions returns default runtime options.
func DefaultOptions() Options {
	return Options{
		ConfigPath: config.DefaultPath(),
		Format:     output.FormatCLI,
		ColorMode:  output.ColorAuto,
	}
}

// New creates a new runtime context. The store is not opened until
// Controller is called.
func New(opts Options) (*Context, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Root != "" {
		cfg.Storage.Root = opts.Root
	}

	logger, err := newLogger(cfg, opts)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	first, err := cfg.FirstWeekday()
	if err != nil {
		return nil, err
	}
	calc := datum.NewDateCalculator(loc, first)

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	co := container.Options{
		Root:         cfg.Storage.Root,
		Logger:       logger,
		Now:          now,
		Calendar:     calc,
		MaxIconBytes: cfg.Icon.MaxBytes,
		OpenTimeout:  cfg.Storage.OpenTimeout,
		MinFreeSpace: cfg.Storage.MinFreeSpace,
		LockTimeout:  cfg.Migration.LockTimeout,
	}

	formatter := output.NewFormatter()
	if opts.Output != nil {
		formatter.Writer = opts.Output
	}
	if opts.Format != "" {
		formatter.Format = opts.Format
	}
	if opts.ColorMode != "" {
		formatter.ColorMode = opts.ColorMode
	}

	return &Context{
		Config:        cfg,
		Logger:        logger,
		Container:     container.New(co),
		Formatter:     formatter,
		Calendar:      calc,
		Now:           now,
		Debug:         opts.Debug,
		containerOpts: co,
	}, nil
}

// ErrStoreOpen is returned by SetNow once the store has been opened.
var ErrStoreOpen = errors.New("store already open")

// SetNow pins the clock the store sees to t. It must be called before the
// store is opened.
func (c *Context) SetNow(t time.Time) error {
	if c.controller != nil {
		return ErrStoreOpen
	}
	c.Now = func() time.Time { return t }
	c.containerOpts.Now = c.Now
	c.Container = container.New(c.containerOpts)
	return nil
}

func newLogger(cfg *config.Config, opts Options) (*slog.Logger, error) {
	lc := logging.DefaultConfig()
	if opts.Debug {
		lc = logging.DebugConfig()
	} else {
		level, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
		lc.Level = level
		lc.JSON = cfg.Log.JSON
	}
	if opts.LogOutput != nil {
		lc.Output = opts.LogOutput
	}
	return logging.New(lc), nil
}

// Controller opens the active store on first use and returns it.
func (c *Context) Controller(ctx context.Context) (datum.BasicController, error) {
	if c.controller != nil {
		return c.controller, nil
	}
	ctrl, err := c.Container.Open(ctx)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("store opened", slog.String(logging.KeyEngine, string(ctrl.Engine())))
	c.controller = ctrl
	return ctrl, nil
}

// CloseStore closes the open store, if any. Maintenance that needs exclusive
// access to the stores calls it first.
func (c *Context) CloseStore() error {
	if c.controller == nil {
		return nil
	}
	err := c.controller.Close()
	c.controller = nil
	return err
}

// Close closes the runtime context.
func (c *Context) Close() error {
	return c.CloseStore()
}

// CLIFormatter returns a CLI formatter.
func (c *Context) CLIFormatter() *output.CLIFormatter {
	return output.NewCLIFormatter(c.Formatter)
}

// JSONFormatter returns a JSON formatter.
func (c *Context) JSONFormatter() *output.JSONFormatter {
	return output.NewJSONFormatter(c.Formatter)
}

// IsJSON returns true if output format is JSON.
func (c *Context) IsJSON() bool {
	return c.Formatter.Format == output.FormatJSON
}

// IsCLI returns true if output format is CLI.
func (c *Context) IsCLI() bool {
	return c.Formatter.Format == output.FormatCLI
}

// IsInteractive reports whether stdin and the output are both terminals.
func (c *Context) IsInteractive() bool {
	return output.IsTerminal(os.Stdin) && output.IsTerminal(c.Formatter.Writer)
}
