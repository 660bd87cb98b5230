package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"evalgo.org/bffgate/internal/export"
	"evalgo.org/bffgate/internal/scheduler"
	"evalgo.org/bffgate/models"
)

var planFormat string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the phase plan of the project",
	Long: `Compute the dependency graph and phase plan of the project.

Endpoints in the same phase run in parallel; a phase starts when the
previous one has finished. Endpoints that cannot be scheduled (cycles or
dependencies on such endpoints) are listed separately.

Examples:
  bffgate plan --project project.yaml
  bffgate plan --format json`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planFormat, "format", "f", "text", "output format (text, json, yaml)")
}

func runPlan(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}

	b := export.Build(p, scheduler.Options{MaxPasses: cfg.Gateway.MaxPasses})

	switch planFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{"plan": b.Plan, "edges": b.Edges})
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(map[string]interface{}{"plan": b.Plan, "edges": b.Edges})
	case "text":
		printPlan(os.Stdout, b.Plan, b.Edges)
		if len(b.Plan.Unresolved) > 0 {
			return fmt.Errorf("%d endpoint(s) cannot be scheduled", len(b.Plan.Unresolved))
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (use text, json or yaml)", planFormat)
	}
}

func printPlan(w io.Writer, plan *models.PhasePlan, edges []export.Dependency) {
	fmt.Fprintf(w, "Phase plan (%d pass(es))\n", plan.Passes)
	for n, phase := range plan.Phases {
		refs := make([]string, 0, len(phase))
		for _, ref := range phase {
			refs = append(refs, ref.String())
		}
		fmt.Fprintf(w, "  phase %d: %s\n", n, strings.Join(refs, ", "))
	}

	if len(edges) > 0 {
		fmt.Fprintln(w, "\nDependencies")
		for _, e := range edges {
			fmt.Fprintf(w, "  %s -> %s\n", e.Source, e.Target)
		}
	}

	if len(plan.Unresolved) > 0 {
		fmt.Fprintln(w, "\nUnresolved")
		for _, u := range plan.Unresolved {
			reason := "blocked"
			if u.InCycle {
				reason = "cycle"
			}
			blockers := make([]string, 0, len(u.BlockedBy))
			for _, b := range u.BlockedBy {
				blockers = append(blockers, b.String())
			}
			fmt.Fprintf(w, "  %s (%s) waiting on %s\n", u.Ref, reason, strings.Join(blockers, ", "))
		}
	}
}
