package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/waterme/internal/parser"
)

var (
	dueFlagAsOf string
	dueFlagSort string
)

// dueCmd shows reminders grouped by when they are due.
var dueCmd = &cobra.Command{
	Use:     "due",
	Aliases: []string{"today", "status"},
	Short:   "Show reminders grouped by when they are due",
	Long: `Show reminders grouped into Late, Today, Tomorrow, This Week, Later and,
with the migrated store, Disabled. Empty groups are hidden.

Examples:
  waterme due
  waterme due --as-of tomorrow
  waterme due --as-of 'next monday' --sort kind`,
	Args: cobra.NoArgs,
	RunE: runDue,
}

func init() {
	dueCmd.Flags().StringVar(&dueFlagAsOf, "as-of", "", "Pretend it is this date (e.g., tomorrow, 'next friday')")
	dueCmd.Flags().StringVarP(&dueFlagSort, "sort", "s", "next", "Order within each group")
	rootCmd.AddCommand(dueCmd)
}

func runDue(cmd *cobra.Command, args []string) error {
	asOf, err := pinClock(dueFlagAsOf, parser.Future)
	if err != nil {
		return err
	}
	order, ascending, err := parser.ParseReminderSort(dueFlagSort)
	if err != nil {
		return parser.AsUserError(err)
	}

	ctrl, err := controller(cmd)
	if err != nil {
		return err
	}
	sections, err := ctrl.GroupedReminders(order, ascending).Fetch()
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintSections(sections, asOf)
	}
	names, err := ctx.VesselNames(commandContext(cmd))
	if err != nil {
		return err
	}
	if ctx.Container.Status().NeedsMigration {
		ctx.CLIFormatter().Muted("Your plants are still in the legacy store. Run 'waterme migrate' to upgrade.")
	}
	ctx.CLIFormatter().PrintSections(sections, names, asOf, ctx.Calendar)
	return nil
}
