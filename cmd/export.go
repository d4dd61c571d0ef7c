package cmd

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/logging"
	"github.com/manav03panchal/waterme/internal/runtime"
)

// Export command flags.
var (
	exportFlagOutput string
	exportFlagPretty bool
)

// exportCmd represents the export command.
var exportCmd = &cobra.Command{
	Use:     "export",
	Aliases: []string{"backup", "dump"},
	Short:   "Export every plant, reminder and perform as JSON",
	Long: `Export the whole active store as one JSON document. The export is read
from a single consistent snapshot.

Examples:
  waterme export
  waterme export -o plants.json
  waterme export --pretty=false | gzip > plants.json.gz`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFlagOutput, "output", "o", "", "Output file (stdout if omitted)")
	exportCmd.Flags().BoolVar(&exportFlagPretty, "pretty", true, "Indent the JSON")
	rootCmd.AddCommand(exportCmd)
}

// exportDocument is the export file format.
type exportDocument struct {
	Version    string       `json:"version"`
	ExportedAt string       `json:"exported_at"`
	Engine     datum.Engine `json:"engine"`
	Counts     datum.Counts `json:"counts"`
	*datum.Graph
}

func runExport(cmd *cobra.Command, args []string) error {
	ctrl, err := controller(cmd)
	if err != nil {
		return err
	}

	start := time.Now()
	graph, err := ctrl.Export(commandContext(cmd))
	if err != nil {
		return err
	}
	doc := exportDocument{
		Version:    "1",
		ExportedAt: ctx.Now().Format(time.RFC3339),
		Engine:     ctrl.Engine(),
		Counts:     graph.Counts(),
		Graph:      graph,
	}

	// Determine output destination
	var w io.Writer = cmd.OutOrStdout()
	if exportFlagOutput != "" {
		f, err := os.Create(exportFlagOutput)
		if err != nil {
			return runtime.WrapDiskFullError(err, "export", exportFlagOutput)
		}
		defer f.Close()
		w = f
	}

	if err := writeExport(w, doc); err != nil {
		return runtime.WrapDiskFullError(err, "export", exportFlagOutput)
	}
	if f, ok := w.(*os.File); ok && exportFlagOutput != "" {
		if err := f.Sync(); err != nil {
			return runtime.WrapDiskFullError(err, "export", exportFlagOutput)
		}
	}
	logging.LogDuration(ctx.Logger, "export", start, logging.KeyCount, doc.Counts.Vessels)

	if exportFlagOutput == "" {
		return nil
	}
	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]any{"status": "exported", "path": exportFlagOutput, "counts": doc.Counts})
	}
	ctx.CLIFormatter().Success("Exported " + countsText(doc.Counts) + " to " + exportFlagOutput)
	return nil
}

func writeExport(w io.Writer, doc exportDocument) error {
	encoder := json.NewEncoder(w)
	if exportFlagPretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(doc)
}

func countsText(c datum.Counts) string {
	return pluralize(c.Vessels, "plant") + ", " + pluralize(c.Reminders, "reminder") + " and " + pluralize(c.Performs, "perform")
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
