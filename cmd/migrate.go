package cmd

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/manav03panchal/waterme/internal/container"
	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/errors"
	"github.com/manav03panchal/waterme/internal/logging"
	"github.com/manav03panchal/waterme/internal/output"
)

// Migrate command flags.
var (
	migrateFlagStatus       bool
	migrateFlagDeleteLegacy bool
	migrateFlagYes          bool
)

const progressWidth = 30

// migrateCmd moves the legacy store into the relational store.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Move your plants into the new store",
	Long: `Copy every plant, reminder and perform from the legacy store into the
relational store. The legacy store is kept until you delete it with
--delete-legacy, which archives it first.

Examples:
  waterme migrate --status
  waterme migrate
  waterme migrate --delete-legacy`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateFlagStatus, "status", false, "Show which stores exist")
	migrateCmd.Flags().BoolVar(&migrateFlagDeleteLegacy, "delete-legacy", false, "Archive and delete the legacy store after migrating")
	migrateCmd.Flags().BoolVarP(&migrateFlagYes, "yes", "y", false, "Do not ask for confirmation")
	migrateCmd.MarkFlagsMutuallyExclusive("status", "delete-legacy")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	switch {
	case migrateFlagStatus:
		return runMigrateStatus(cmd)
	case migrateFlagDeleteLegacy:
		return runDeleteLegacy(cmd)
	}

	// the legacy store must not be open in this process while it is copied
	if err := ctx.CloseStore(); err != nil {
		return err
	}

	opCtx := logging.WithOperation(commandContext(cmd), "migrate")
	opts := container.MigrateOptions{}
	var bar *progressPrinter
	if ctx.IsCLI() && ctx.IsInteractive() {
		bar = &progressPrinter{w: cmd.ErrOrStderr()}
		opts.OnProgress = bar.update
	}

	res, err := ctx.Container.Migrate(opCtx, opts)
	if bar != nil {
		bar.finish()
	}
	if stderrors.Is(err, container.ErrNothingToMigrate) {
		status := ctx.Container.Status()
		if ctx.IsJSON() {
			return ctx.Formatter.JSON(map[string]any{"status": "nothing_to_migrate", "engine": status.Engine})
		}
		ctx.CLIFormatter().Muted("Nothing to migrate: the " + string(status.Engine) + " store is already in use.")
		return nil
	}
	if res.Err == nil && err != nil {
		return err
	}

	if ctx.IsJSON() {
		if perr := ctx.JSONFormatter().PrintMigration(res); perr != nil {
			return perr
		}
	} else {
		ctx.CLIFormatter().PrintMigration(res)
		if res.Err == nil {
			ctx.CLIFormatter().Muted("Run 'waterme migrate --delete-legacy' to archive the old store.")
		}
	}
	return res.Err
}

func runMigrateStatus(cmd *cobra.Command) error {
	status := ctx.Container.Status()

	// counting opens the store; a fresh root would be seeded
	var counts *datum.Counts
	if status.LegacyStore || status.RelationalStore {
		ctrl, err := controller(cmd)
		if err != nil {
			return err
		}
		c, err := ctrl.Counts(commandContext(cmd))
		if err != nil {
			return err
		}
		counts = &c
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStatus(status, counts)
	}
	ctx.CLIFormatter().PrintStatus(status, counts)
	return nil
}

func runDeleteLegacy(cmd *cobra.Command) error {
	status := ctx.Container.Status()
	if status.NeedsMigration {
		return fmt.Errorf("delete legacy store: %w", errors.ErrMigrationPending)
	}
	if err := ctx.CloseStore(); err != nil {
		return err
	}

	confirm := func(path string) bool { return true }
	if !migrateFlagYes {
		if !ctx.IsInteractive() || ctx.IsJSON() {
			return errors.NewUserError("Refusing to delete without confirmation", "Pass --yes to delete the legacy store")
		}
		confirm = func(path string) bool {
			return confirmKey(cmd.ErrOrStderr(), fmt.Sprintf("Archive and delete %s? [y/N] ", logging.HomeRelative(path)))
		}
	}

	archive, err := ctx.Container.DeleteLegacyStore(confirm)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]string{"status": "deleted", "archive": archive})
	}
	cli := ctx.CLIFormatter()
	switch {
	case archive != "":
		cli.Success("Legacy store deleted. Archive: " + logging.HomeRelative(archive))
	case status.LegacyStore:
		cli.Muted("Kept the legacy store.")
	default:
		cli.Muted("There is no legacy store.")
	}
	return nil
}

// confirmKey asks a yes/no question and reads a single key press.
func confirmKey(w io.Writer, prompt string) bool {
	fmt.Fprint(w, prompt)
	defer fmt.Fprintln(w)

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return false
	}
	defer term.Restore(fd, oldState)

	buf := make([]byte, 1)
	if _, err := os.Stdin.Read(buf); err != nil {
		return false
	}
	return strings.EqualFold(string(buf), "y")
}

// progressPrinter redraws a single progress line. Progress callbacks arrive
// on the migration goroutine.
type progressPrinter struct {
	w    io.Writer
	mu   sync.Mutex
	last int
}

func (p *progressPrinter) update(fraction float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pct := int(fraction * 100)
	if pct == p.last && pct != 0 {
		return
	}
	p.last = pct
	fmt.Fprintf(p.w, "\r%s %3d%%", output.ProgressBar(fraction, progressWidth), pct)
}

func (p *progressPrinter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w)
}
