package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/errors"
	"github.com/manav03panchal/waterme/internal/logging"
	"github.com/manav03panchal/waterme/internal/parser"
	"github.com/manav03panchal/waterme/internal/query"
)

// reminderCmd represents the reminder command.
var reminderCmd = &cobra.Command{
	Use:     "reminder [PLANT]",
	Aliases: []string{"reminders", "rem", "r"},
	Short:   "Manage reminders",
	Long: `List reminders, optionally only those of one plant, or manage them.

A reminder can be named by its identifier or as PLANT:KIND, for example
fern:mist.

Examples:
  waterme reminder
  waterme reminder fern --sort -interval
  waterme reminder add fern --kind mist --every 2 --note 'Keep the leaves humid'
  waterme reminder add monstera --kind move --detail 'Bright indirect light' --every 90
  waterme reminder edit fern:water --every '4 days'
  waterme reminder disable cactus:fertilize
  waterme reminder delete fern:mist`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReminderList,
}

// Reminder subcommand flags.
var (
	reminderFlagSort    string
	reminderFlagEnabled bool
	reminderFlagKind    string
	reminderFlagDetail  string
	reminderFlagEvery   string
	reminderFlagNote    string
)

// reminderAddCmd adds a reminder to a plant.
var reminderAddCmd = &cobra.Command{
	Use:               "add PLANT",
	Short:             "Add a reminder to a plant",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeVesselArgs,
	RunE:              runReminderAdd,
}

// reminderEditCmd edits a reminder.
var reminderEditCmd = &cobra.Command{
	Use:               "edit REMINDER",
	Short:             "Change the kind, interval or note of a reminder",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeReminderArgs,
	RunE:              runReminderEdit,
}

// reminderDeleteCmd deletes a reminder.
var reminderDeleteCmd = &cobra.Command{
	Use:               "delete REMINDER",
	Aliases:           []string{"rm", "remove"},
	Short:             "Delete a reminder",
	Long:              `Delete a reminder. The last reminder of a plant cannot be deleted.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeReminderArgs,
	RunE:              runReminderDelete,
}

var reminderEnableCmd = &cobra.Command{
	Use:               "enable REMINDER",
	Short:             "Enable a disabled reminder",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeReminderArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setReminderEnabled(cmd, args[0], true)
	},
}

var reminderDisableCmd = &cobra.Command{
	Use:               "disable REMINDER",
	Short:             "Disable a reminder without deleting it",
	Long:              `Disable a reminder without deleting it. Needs the migrated store.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeReminderArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setReminderEnabled(cmd, args[0], false)
	},
}

func init() {
	reminderCmd.Flags().StringVarP(&reminderFlagSort, "sort", "s", "next", "Sort by next, interval, kind or note (prefix '-' for descending)")
	reminderCmd.Flags().BoolVar(&reminderFlagEnabled, "enabled", false, "Only show enabled reminders")
	reminderCmd.ValidArgsFunction = completeVesselArgs

	for _, c := range []*cobra.Command{reminderAddCmd, reminderEditCmd} {
		c.Flags().StringVarP(&reminderFlagKind, "kind", "k", "", "water, fertilize, trim, mist, move or other")
		c.Flags().StringVar(&reminderFlagDetail, "detail", "", "Location for move, description for other")
		c.Flags().StringVar(&reminderFlagEvery, "every", "", "Interval (e.g., 7, 10d, '2 weeks', weekly)")
		c.Flags().StringVarP(&reminderFlagNote, "note", "n", "", "Note (empty clears it)")
		c.RegisterFlagCompletionFunc("kind", completeKinds)
	}

	reminderCmd.AddCommand(reminderAddCmd)
	reminderCmd.AddCommand(reminderEditCmd)
	reminderCmd.AddCommand(reminderDeleteCmd)
	reminderCmd.AddCommand(reminderEnableCmd)
	reminderCmd.AddCommand(reminderDisableCmd)
	rootCmd.AddCommand(reminderCmd)
}

func runReminderList(cmd *cobra.Command, args []string) error {
	order, ascending, err := parser.ParseReminderSort(reminderFlagSort)
	if err != nil {
		return parser.AsUserError(err)
	}

	ctrl, err := controller(cmd)
	if err != nil {
		return err
	}

	var q query.Query[datum.Reminder]
	switch {
	case len(args) > 0:
		v, err := ctx.ResolveVessel(commandContext(cmd), args[0])
		if err != nil {
			return err
		}
		q = ctrl.Reminders(v, order, ascending)
	case reminderFlagEnabled:
		q = ctrl.EnabledReminders(order, ascending)
	default:
		q = ctrl.AllReminders(order, ascending)
	}

	reminders, err := q.Fetch()
	if err != nil {
		return err
	}
	list := reminders.All()
	if len(args) > 0 && reminderFlagEnabled {
		list = enabledOnly(list)
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintReminders(list)
	}
	names, err := ctx.VesselNames(commandContext(cmd))
	if err != nil {
		return err
	}
	ctx.CLIFormatter().PrintReminders(list, names, ctx.Now(), ctx.Calendar)
	return nil
}

func enabledOnly(reminders []datum.Reminder) []datum.Reminder {
	out := reminders[:0:0]
	for _, r := range reminders {
		if r.IsEnabled() {
			out = append(out, r)
		}
	}
	return out
}

func runReminderAdd(cmd *cobra.Command, args []string) error {
	update, err := reminderUpdateFromFlags(cmd, reminderFlagKind, reminderFlagDetail, reminderFlagEvery, reminderFlagNote)
	if err != nil {
		return err
	}

	v, err := ctx.ResolveVessel(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	ctrl, err := controller(cmd)
	if err != nil {
		return err
	}
	r, err := ctrl.NewReminder(v)
	if err != nil {
		return err
	}
	ctx.Logger.Debug("reminder created", logging.KeyReminderID, r.ID().String(), logging.KeyVesselID, v.ID().String())

	if !update.IsEmpty() {
		if err := ctrl.UpdateReminder(r, update); err != nil {
			return err
		}
		if r, err = ctrl.Reminder(r.ID()); err != nil {
			return err
		}
	}
	return printReminderResult(cmd, "Added", r)
}

func runReminderEdit(cmd *cobra.Command, args []string) error {
	update, err := reminderUpdateFromFlags(cmd, reminderFlagKind, reminderFlagDetail, reminderFlagEvery, reminderFlagNote)
	if err != nil {
		return err
	}
	if update.IsEmpty() {
		return errors.NewUserError("Nothing to change", "Use --kind, --detail, --every or --note")
	}

	r, err := ctx.ResolveReminder(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	ctrl, err := controller(cmd)
	if err != nil {
		return err
	}
	if err := ctrl.UpdateReminder(r, update); err != nil {
		return err
	}
	if r, err = ctrl.Reminder(r.ID()); err != nil {
		return err
	}
	return printReminderResult(cmd, "Updated", r)
}

func setReminderEnabled(cmd *cobra.Command, raw string, enabled bool) error {
	r, err := ctx.ResolveReminder(commandContext(cmd), raw)
	if err != nil {
		return err
	}
	ctrl, err := controller(cmd)
	if err != nil {
		return err
	}
	if err := ctrl.UpdateReminder(r, datum.ReminderUpdate{IsEnabled: &enabled}); err != nil {
		return err
	}
	if r, err = ctrl.Reminder(r.ID()); err != nil {
		return err
	}
	verb := "Enabled"
	if !enabled {
		verb = "Disabled"
	}
	return printReminderResult(cmd, verb, r)
}

func runReminderDelete(cmd *cobra.Command, args []string) error {
	r, err := ctx.ResolveReminder(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	ctrl, err := controller(cmd)
	if err != nil {
		return err
	}
	if err := ctrl.DeleteReminder(r); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]string{"status": "deleted", "id": r.ID().String()})
	}
	ctx.CLIFormatter().Success("Deleted " + r.Kind().String() + " reminder")
	return nil
}

func printReminderResult(cmd *cobra.Command, verb string, r datum.Reminder) error {
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintReminders([]datum.Reminder{r})
	}
	names, err := ctx.VesselNames(commandContext(cmd))
	if err != nil {
		return err
	}
	cli := ctx.CLIFormatter()
	cli.Success(verb + " " + cli.KindName(r.Kind()) + " reminder for " + names[r.VesselID()])
	cli.PrintReminders([]datum.Reminder{r}, names, ctx.Now(), ctx.Calendar)
	return nil
}
