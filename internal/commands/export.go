package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"evalgo.org/bffgate/internal/export"
	"evalgo.org/bffgate/internal/project"
	"evalgo.org/bffgate/internal/scheduler"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the project with its phase plan",
	Long: `Write the project, its phase plan and dependency edges as one bundle
for code generation.

Examples:
  bffgate export --format json -o bundle.json
  bffgate export --project project.yaml`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "yaml", "output format (yaml, json)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := project.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	p, err := loadProject()
	if err != nil {
		return err
	}

	bundle := export.Build(p, scheduler.Options{MaxPasses: cfg.Gateway.MaxPasses})
	if len(bundle.Plan.Unresolved) > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d endpoint(s) cannot be scheduled\n", len(bundle.Plan.Unresolved))
	}

	var w io.Writer = os.Stdout
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOutput, err)
		}
		defer f.Close()
		w = f
	}

	if err := bundle.Write(w, format); err != nil {
		return err
	}
	if exportOutput != "" {
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", exportOutput)
	}
	return nil
}
