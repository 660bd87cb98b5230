// Package export produces the hand-off bundle consumed by the artifact
// emitter: the project, its phase plan and the dependency edges.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"evalgo.org/bffgate/internal/project"
	"evalgo.org/bffgate/internal/scheduler"
	"evalgo.org/bffgate/internal/version"
	"evalgo.org/bffgate/models"
)

// Dependency is one edge of the dependency graph: Target reads from Source.
type Dependency struct {
	Source models.EndpointRef `json:"source" yaml:"source"`
	Target models.EndpointRef `json:"target" yaml:"target"`
}

// Bundle is everything the emitter needs to generate a gateway.
type Bundle struct {
	Generator   string            `json:"generator" yaml:"generator"`
	GeneratedAt time.Time         `json:"generatedAt" yaml:"generatedAt"`
	Project     *models.Project   `json:"project" yaml:"project"`
	Plan        *models.PhasePlan `json:"plan" yaml:"plan"`
	Edges       []Dependency      `json:"edges" yaml:"edges"`
}

// Build assembles the bundle for p.
func Build(p *models.Project, opts scheduler.Options) *Bundle {
	plan, g := scheduler.New(opts).Plan(p)

	edges := make([]Dependency, 0, len(g.Edges()))
	for _, e := range g.EdgeRefs() {
		edges = append(edges, Dependency{Source: e[0], Target: e[1]})
	}

	return &Bundle{
		Generator:   "bffgate " + version.Version,
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
		Project:     p,
		Plan:        plan,
		Edges:       edges,
	}
}

// Write serializes the bundle in the given format.
func (b *Bundle) Write(w io.Writer, format project.Format) error {
	switch format {
	case project.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(b); err != nil {
			return fmt.Errorf("failed to encode bundle: %w", err)
		}
	case project.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(b); err != nil {
			return fmt.Errorf("failed to encode bundle: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	return nil
}
