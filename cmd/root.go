// Package cmd provides the CLI commands for WaterMe.
//
// This software is a derivative work based on Zeit (https://github.com/mrusme/zeit)
// Original work copyright (c) マリウス (mrusme)
// Modifications copyright (c) Manav Panchal
//
// Licensed under the SEGV License, Version 1.0
// See LICENSE file for full license text.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	apperrors "github.com/manav03panchal/waterme/internal/errors"
	"github.com/manav03panchal/waterme/internal/output"
	"github.com/manav03panchal/waterme/internal/runtime"
)

// Version information (set at build time via ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Global flags.
var (
	flagConfig string
	flagRoot   string
	flagFormat string
	flagColor  string
	flagDebug  bool
)

// ctx is the shared runtime context.
var ctx *runtime.Context

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "waterme",
	Short: "Plant care reminders in your terminal",
	Long: `WaterMe keeps track of your plants and reminds you when they need
watering, misting, fertilizing or a new spot.

Run without a command to see what is due.

Examples:
  waterme
  waterme vessel add "Boston Fern" --emoji 🌿 --every 3
  waterme reminder add fern --kind mist --every 2
  waterme perform fern:water
  waterme due --as-of 'next monday'
  waterme dashboard`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for completion, help and version (but allow __complete for dynamic completions)
		switch cmd.Name() {
		case "completion", "help", "version":
			return nil
		}

		format, err := output.ParseFormat(flagFormat)
		if err != nil {
			return err
		}

		var colorMode output.ColorMode
		switch flagColor {
		case "always":
			colorMode = output.ColorAlways
		case "never":
			colorMode = output.ColorNever
		default:
			colorMode = output.ColorAuto
		}

		opts := runtime.DefaultOptions()
		if flagConfig != "" {
			opts.ConfigPath = flagConfig
		}
		opts.Root = flagRoot
		opts.Format = format
		opts.ColorMode = colorMode
		opts.Debug = flagDebug
		opts.Output = cmd.OutOrStdout()
		opts.LogOutput = cmd.ErrOrStderr()

		ctx, err = runtime.New(opts)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if ctx != nil {
			return ctx.Close()
		}
		return nil
	},
	RunE: runDue,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Interrupts cancel the command context.
func Execute() error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(sigCtx)
	if err != nil {
		printError(rootCmd, err)
	}
	if ctx != nil {
		ctx.Close()
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"Config file (default $XDG_CONFIG_HOME/waterme/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "",
		"Data root holding the stores (default $XDG_DATA_HOME/waterme)")
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "cli",
		"Output format: cli, json, plain")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto",
		"Color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false,
		"Enable debug output")

	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("waterme %s\n", Version)
		cmd.Printf("  commit: %s\n", Commit)
		cmd.Printf("  built: %s\n", BuildTime)
	},
}

// printError presents err in the active output format.
func printError(cmd *cobra.Command, err error) {
	if ctx != nil && ctx.IsJSON() {
		ctx.JSONFormatter().PrintError(output.ErrorResponse{
			Error:      err.Error(),
			Category:   apperrors.Classify(err).String(),
			Suggestion: apperrors.GetSuggestion(err),
		})
		return
	}

	w := cmd.ErrOrStderr()
	fmt.Fprintln(w, "Error: "+apperrors.FormatByCategory(err))
	if examples := apperrors.GetExamples(err); len(examples) > 0 {
		fmt.Fprintln(w, "\nExamples:")
		for _, e := range examples {
			fmt.Fprintln(w, "  "+e)
		}
	}
}
