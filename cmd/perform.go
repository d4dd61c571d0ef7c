package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/errors"
	"github.com/manav03panchal/waterme/internal/parser"
)

var performFlagAt string

// performCmd marks reminders as done.
var performCmd = &cobra.Command{
	Use:     "perform REMINDER...",
	Aliases: []string{"done", "did", "p"},
	Short:   "Mark reminders as done",
	Long: `Record that reminders were performed. The next perform date of each
reminder moves forward by its interval.

Examples:
  waterme perform fern:water
  waterme perform fern:water fern:mist cactus:water
  waterme perform monstera:water --at yesterday
  waterme done fern:mist --at '2 days ago'`,
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: completeReminderArgs,
	RunE:              runPerform,
}

func init() {
	performCmd.Flags().StringVar(&performFlagAt, "at", "", "When it was done (e.g., yesterday, '2 days ago')")
	rootCmd.AddCommand(performCmd)
}

func runPerform(cmd *cobra.Command, args []string) error {
	realNow := ctx.Now()
	at, err := pinClock(performFlagAt, parser.Past)
	if err != nil {
		return err
	}
	if performFlagAt != "" && at.After(realNow) {
		return errors.NewUserErrorWithField("at", performFlagAt, "Cannot perform in the future", "Use a date in the past like 'yesterday'")
	}

	ids := make([]datum.Identifier, 0, len(args))
	seen := make(map[datum.Identifier]bool, len(args))
	for _, raw := range args {
		r, err := ctx.ResolveReminder(commandContext(cmd), raw)
		if err != nil {
			return err
		}
		if !seen[r.ID()] {
			seen[r.ID()] = true
			ids = append(ids, r.ID())
		}
	}

	ctrl, err := controller(cmd)
	if err != nil {
		return err
	}
	if err := ctrl.AppendNewPerform(ids); err != nil {
		return err
	}

	performed := make([]datum.Reminder, 0, len(ids))
	for _, id := range ids {
		r, err := ctrl.Reminder(id)
		if err != nil {
			return err
		}
		performed = append(performed, r)
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintPerformed(performed)
	}
	names, err := ctx.VesselNames(commandContext(cmd))
	if err != nil {
		return err
	}
	ctx.CLIFormatter().PrintPerformed(performed, names, realNow, ctx.Calendar)
	return nil
}
