package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/errors"
	"github.com/manav03panchal/waterme/internal/logging"
	"github.com/manav03panchal/waterme/internal/parser"
	"github.com/manav03panchal/waterme/internal/validate"
)

// vesselCmd represents the vessel command.
var vesselCmd = &cobra.Command{
	Use:     "vessel [PLANT]",
	Aliases: []string{"vessels", "plant", "plants", "v"},
	Short:   "Manage plants",
	Long: `List all plants, show one plant with its reminders, or manage plants.

A plant can be named by its identifier or by its display name.

Examples:
  waterme vessel
  waterme vessel --sort -kind
  waterme vessel "Boston Fern"
  waterme vessel add "Desk Cactus" --emoji 🌵 --every '2 weeks'
  waterme vessel edit fern --name "Maidenhair Fern"
  waterme vessel delete cactus`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVesselList,
}

// Vessel subcommand flags.
var (
	vesselFlagSort      string
	vesselAddFlagEmoji  string
	vesselAddFlagImage  string
	vesselAddFlagEvery  string
	vesselAddFlagKind   string
	vesselAddFlagDetail string
	vesselAddFlagNote   string
	vesselEditFlagName  string
	vesselEditFlagEmoji string
	vesselEditFlagImage string
	vesselEditFlagClear bool
)

// vesselAddCmd creates a new plant.
var vesselAddCmd = &cobra.Command{
	Use:   "add [NAME]",
	Short: "Add a plant",
	Long: `Add a plant. Every plant starts with one reminder, watering every
7 days unless --kind or --every say otherwise.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVesselAdd,
}

// vesselEditCmd edits an existing plant.
var vesselEditCmd = &cobra.Command{
	Use:               "edit PLANT",
	Short:             "Rename a plant or change its icon",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeVesselArgs,
	RunE:              runVesselEdit,
}

// vesselDeleteCmd deletes a plant and its reminders.
var vesselDeleteCmd = &cobra.Command{
	Use:               "delete PLANT",
	Aliases:           []string{"rm", "remove"},
	Short:             "Delete a plant and all of its reminders",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeVesselArgs,
	RunE:              runVesselDelete,
}

func init() {
	vesselCmd.Flags().StringVarP(&vesselFlagSort, "sort", "s", "name", "Sort by name or kind (prefix '-' for descending)")
	vesselCmd.ValidArgsFunction = completeVesselArgs

	vesselAddCmd.Flags().StringVarP(&vesselAddFlagEmoji, "emoji", "e", "", "Emoji icon")
	vesselAddCmd.Flags().StringVar(&vesselAddFlagImage, "image", "", "PNG or JPEG icon file")
	vesselAddCmd.Flags().StringVar(&vesselAddFlagEvery, "every", "", "Interval of the first reminder (e.g., 7, '2 weeks')")
	vesselAddCmd.Flags().StringVarP(&vesselAddFlagKind, "kind", "k", "", "Kind of the first reminder")
	vesselAddCmd.Flags().StringVar(&vesselAddFlagDetail, "detail", "", "Location for move, description for other")
	vesselAddCmd.Flags().StringVarP(&vesselAddFlagNote, "note", "n", "", "Note of the first reminder")
	vesselAddCmd.RegisterFlagCompletionFunc("kind", completeKinds)

	vesselEditCmd.Flags().StringVar(&vesselEditFlagName, "name", "", "New display name (empty clears it)")
	vesselEditCmd.Flags().StringVarP(&vesselEditFlagEmoji, "emoji", "e", "", "New emoji icon")
	vesselEditCmd.Flags().StringVar(&vesselEditFlagImage, "image", "", "New PNG or JPEG icon file")
	vesselEditCmd.Flags().BoolVar(&vesselEditFlagClear, "clear-icon", false, "Remove the icon")

	vesselCmd.AddCommand(vesselAddCmd)
	vesselCmd.AddCommand(vesselEditCmd)
	vesselCmd.AddCommand(vesselDeleteCmd)
	rootCmd.AddCommand(vesselCmd)
}

func runVesselList(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return showVessel(cmd, args[0])
	}

	order, ascending, err := parser.ParseVesselSort(vesselFlagSort)
	if err != nil {
		return parser.AsUserError(err)
	}

	ctrl, err := controller(cmd)
	if err != nil {
		return err
	}
	vessels, err := ctrl.AllVessels(order, ascending).Fetch()
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintVessels(vessels.All())
	}
	ctx.CLIFormatter().PrintVessels(vessels.All())
	return nil
}

func showVessel(cmd *cobra.Command, raw string) error {
	v, err := ctx.ResolveVessel(commandContext(cmd), raw)
	if err != nil {
		return err
	}
	ctrl, err := controller(cmd)
	if err != nil {
		return err
	}
	reminders, err := ctrl.Reminders(v, datum.SortByNextPerformDate, true).Fetch()
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintVessel(v, reminders.All())
	}
	ctx.CLIFormatter().PrintVessel(v, reminders.All(), ctx.Now(), ctx.Calendar)
	return nil
}

func runVesselAdd(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) > 0 {
		name = validate.SanitizeName(args[0])
	}
	if err := validate.DisplayName(name); err != nil {
		return err
	}
	icon, err := iconFromFlags(vesselAddFlagEmoji, vesselAddFlagImage)
	if err != nil {
		return err
	}
	update, err := reminderUpdateFromFlags(cmd, vesselAddFlagKind, vesselAddFlagDetail, vesselAddFlagEvery, vesselAddFlagNote)
	if err != nil {
		return err
	}

	ctrl, err := controller(cmd)
	if err != nil {
		return err
	}
	v, err := ctrl.NewReminderVessel(name, icon)
	if err != nil {
		return err
	}
	ctx.Logger.Debug("vessel created", logging.KeyVesselID, v.ID().String())

	reminders, err := ctrl.Reminders(v, datum.SortByNextPerformDate, true).Fetch()
	if err != nil {
		return err
	}
	if !update.IsEmpty() && reminders.Len() > 0 {
		if err := ctrl.UpdateReminder(reminders.At(0), update); err != nil {
			return err
		}
		if reminders, err = ctrl.Reminders(v, datum.SortByNextPerformDate, true).Fetch(); err != nil {
			return err
		}
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintVessel(v, reminders.All())
	}
	cli := ctx.CLIFormatter()
	cli.Success("Added " + cli.VesselName(v))
	cli.PrintVessel(v, reminders.All(), ctx.Now(), ctx.Calendar)
	return nil
}

func runVesselEdit(cmd *cobra.Command, args []string) error {
	var update datum.VesselUpdate
	flags := cmd.Flags()

	if flags.Changed("name") {
		name := validate.SanitizeName(vesselEditFlagName)
		if err := validate.DisplayName(name); err != nil {
			return err
		}
		update.DisplayName = &name
	}
	switch {
	case vesselEditFlagClear:
		update.Icon = &datum.Icon{}
	default:
		icon, err := iconFromFlags(vesselEditFlagEmoji, vesselEditFlagImage)
		if err != nil {
			return err
		}
		update.Icon = icon
	}
	if update.DisplayName == nil && update.Icon == nil {
		return errors.NewUserError("Nothing to change", "Use --name, --emoji, --image or --clear-icon")
	}

	v, err := ctx.ResolveVessel(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	ctrl, err := controller(cmd)
	if err != nil {
		return err
	}
	if err := ctrl.UpdateVessel(v, update); err != nil {
		return err
	}
	v, err = ctrl.ReminderVessel(v.ID())
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintVessels([]datum.ReminderVessel{v})
	}
	cli := ctx.CLIFormatter()
	cli.Success("Updated " + cli.VesselName(v))
	return nil
}

func runVesselDelete(cmd *cobra.Command, args []string) error {
	v, err := ctx.ResolveVessel(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	ctrl, err := controller(cmd)
	if err != nil {
		return err
	}
	if err := ctrl.DeleteVessel(v); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]string{"status": "deleted", "id": v.ID().String()})
	}
	ctx.CLIFormatter().Success("Deleted " + vesselLabel(v) + " and its reminders")
	return nil
}
