package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/waterme/internal/datum"
)

// completeVessels returns plant names, falling back to identifiers for
// unnamed plants.
func completeVessels(cmd *cobra.Command, toComplete string) []string {
	if ctx == nil {
		return nil
	}
	ctrl, err := controller(cmd)
	if err != nil {
		return nil
	}
	vessels, err := ctrl.AllVessels(datum.SortByDisplayName, true).Fetch()
	if err != nil {
		return nil
	}

	var completions []string
	for _, v := range vessels.All() {
		name := v.DisplayName()
		if name == "" {
			name = v.ID().String()
		}
		if strings.HasPrefix(strings.ToLower(name), strings.ToLower(toComplete)) {
			completions = append(completions, name+"\t"+v.ID().String())
		}
	}
	return completions
}

// completeVesselArgs handles completion for commands that take a plant.
func completeVesselArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	// Only complete first argument
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return completeVessels(cmd, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeReminderArgs completes PLANT:KIND. Before the colon it offers
// plants, after it the kinds that plant has.
func completeReminderArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	i := strings.LastIndex(toComplete, ":")
	if i < 0 {
		var out []string
		for _, c := range completeVessels(cmd, toComplete) {
			name, _, _ := strings.Cut(c, "\t")
			out = append(out, name+":")
		}
		return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
	}

	v, err := ctx.ResolveVessel(commandContext(cmd), toComplete[:i])
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ctrl, err := controller(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	reminders, err := ctrl.Reminders(v, datum.SortByKind, true).Fetch()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var completions []string
	for _, r := range reminders.All() {
		c := toComplete[:i+1] + string(r.Kind().Case)
		if strings.HasPrefix(c, toComplete) {
			completions = append(completions, c+"\t"+r.Kind().String())
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeKinds completes --kind.
func completeKinds(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var completions []string
	for _, k := range datum.KindCases {
		if strings.HasPrefix(string(k), toComplete) {
			completions = append(completions, string(k))
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}
