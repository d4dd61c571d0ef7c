package cmd

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/waterme/internal/config"
)

// configCmd represents the config command.
var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"cfg", "settings"},
	Short:   "Show the effective configuration",
	Long: `Show configuration values after defaults, the config file and
WATERME_* environment overrides have been applied.

Edit the config file to change values. Environment variables use the key in
upper case with dots replaced by underscores, for example
WATERME_CALENDAR_FIRST_WEEKDAY=Monday.

Examples:
  waterme config
  waterme config get calendar.location
  waterme config path`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// configGetCmd gets one configuration value.
var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Get configuration value",
	Args:  cobra.ExactArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return configKeys(), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runConfigGet,
}

// configPathCmd prints the config file location.
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path := flagConfig
		if path == "" {
			path = config.DefaultPath()
		}
		cmd.Println(path)
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow handles the config command.
func runConfigShow(cmd *cobra.Command, args []string) error {
	values := flattenConfig(ctx.Config)
	if ctx.IsJSON() {
		return ctx.Formatter.JSON(values)
	}

	cli := ctx.CLIFormatter()
	cli.Title("Configuration")
	for _, key := range sortedKeys(values) {
		cli.Printf("  %-24s %v\n", key, values[key])
	}
	return nil
}

// runConfigGet handles the config get command.
func runConfigGet(cmd *cobra.Command, args []string) error {
	values := flattenConfig(ctx.Config)
	key := strings.ToLower(args[0])
	v, ok := values[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s (known: %s)", args[0], strings.Join(sortedKeys(values), ", "))
	}
	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]any{key: v})
	}
	ctx.Formatter.Println(v)
	return nil
}

// flattenConfig maps dotted koanf keys to values.
func flattenConfig(cfg *config.Config) map[string]any {
	out := map[string]any{}
	flatten("", reflect.ValueOf(*cfg), out)
	return out
}

func flatten(prefix string, v reflect.Value, out map[string]any) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		key := t.Field(i).Tag.Get("koanf")
		if key == "" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		field := v.Field(i)
		if field.Kind() == reflect.Struct {
			flatten(key, field, out)
			continue
		}
		out[key] = fmt.Sprint(field.Interface())
	}
}

func configKeys() []string {
	return sortedKeys(flattenConfig(&config.Config{}))
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
