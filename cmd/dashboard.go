package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/errors"
	"github.com/manav03panchal/waterme/internal/parser"
	"github.com/manav03panchal/waterme/internal/scheduler"
	"github.com/manav03panchal/waterme/internal/tui"
)

var dashboardFlagSort string

// dashboardCmd represents the dashboard command.
var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash", "d", "tui"},
	Short:   "Open the live reminder dashboard",
	Long: `Open an interactive terminal dashboard with your reminders grouped by
when they are due. The groups update as reminders change and move along at
midnight.

Keyboard Controls:
  ↑/k ↓/j  - Move the selection
  p/enter  - Mark the selected reminder as done
  r        - Reload
  q        - Quit dashboard

Examples:
  waterme dashboard
  waterme dash --sort kind`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().StringVarP(&dashboardFlagSort, "sort", "s", "next", "Order within each group")
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	if !ctx.IsInteractive() {
		return errors.NewUserError("The dashboard needs a terminal", "Use 'waterme due' in scripts")
	}
	order, ascending, err := parser.ParseReminderSort(dashboardFlagSort)
	if err != nil {
		return parser.AsUserError(err)
	}

	ctrl, err := controller(cmd)
	if err != nil {
		return err
	}

	days := scheduler.New(scheduler.Options{
		Spec:     ctx.Config.Dashboard.RefreshCron,
		Location: ctx.Calendar.Location,
		Logger:   ctx.Logger,
		Now:      ctx.Now,
	})
	if err := days.Start(); err != nil {
		return err
	}
	defer days.Stop()

	// Configure the dashboard
	config := tui.DashboardConfig{
		Grouped:   ctrl.GroupedReminders(order, ascending),
		Performer: ctrl,
		Names: func() (map[datum.Identifier]string, error) {
			return ctx.VesselNames(commandContext(cmd))
		},
		Calendar: ctx.Calendar,
		Now:      ctx.Now,
		Logger:   ctx.Logger,
	}

	// Run the TUI dashboard
	return tui.Run(config, days)
}
