// Package scheduler levels the upstream endpoint graph into execution phases.
//
// Leveling is an iterative fixed point over the node arena: each pass assigns
// a phase to every endpoint whose dependencies already have one, and passes
// repeat until nothing changes or the pass bound is hit. Whatever is left is
// reported in the unresolved bucket instead of failing the computation.
package scheduler

import (
	log "github.com/sirupsen/logrus"

	"evalgo.org/bffgate/internal/graph"
	"evalgo.org/bffgate/models"
)

const unassigned = -1

// Options tunes the leveling.
type Options struct {
	// MaxPasses bounds the number of passes. Zero derives the bound from the
	// graph size, which is always enough to level an acyclic graph.
	MaxPasses int
}

// Scheduler computes phase plans for project snapshots.
type Scheduler struct {
	opts   Options
	logger *log.Entry
}

// New creates a scheduler.
func New(opts Options) *Scheduler {
	return &Scheduler{
		opts:   opts,
		logger: log.WithField("component", "scheduler"),
	}
}

// Plan builds the dependency graph of a project and levels it.
func (s *Scheduler) Plan(p *models.Project) (*models.PhasePlan, *graph.Graph) {
	g := graph.FromProject(p)
	for _, d := range g.Dangling() {
		s.logger.WithFields(log.Fields{
			"endpoint": d.Mapping.TargetEndpointID,
			"field":    d.Mapping.TargetFieldID,
			"missing":  d.Missing.String(),
		}).Warn("request mapping references unknown endpoint")
	}

	plan := ComputePhases(g, s.opts)
	if len(plan.Unresolved) > 0 {
		s.logger.WithFields(log.Fields{
			"unresolved": plan.UnresolvedIDs(),
			"passes":     plan.Passes,
		}).Warn("endpoints could not be scheduled")
	} else {
		s.logger.WithFields(log.Fields{
			"phases": len(plan.Phases),
			"passes": plan.Passes,
		}).Debug("phase plan computed")
	}
	return plan, g
}

// ComputePhases levels g. Phase numbers start at 0; within a phase endpoints
// keep the arena order of g. The result never includes an endpoint twice.
func ComputePhases(g *graph.Graph, opts Options) *models.PhasePlan {
	nodes := g.Nodes()
	phase := make([]int, len(nodes))
	for i := range phase {
		phase[i] = unassigned
	}

	bound := opts.MaxPasses
	if bound <= 0 {
		bound = len(nodes) + 1
	}

	passes := 0
	for passes < bound {
		passes++
		progress := false
		for _, n := range nodes {
			if phase[n.ID] != unassigned {
				continue
			}
			if level, ok := levelOf(n, phase); ok {
				phase[n.ID] = level
				progress = true
			}
		}
		if !progress {
			break
		}
	}

	plan := &models.PhasePlan{
		Phases:     [][]models.EndpointRef{},
		Unresolved: []models.UnresolvedEndpoint{},
		Passes:     passes,
	}

	for _, n := range nodes {
		p := phase[n.ID]
		if p == unassigned {
			continue
		}
		for len(plan.Phases) <= p {
			plan.Phases = append(plan.Phases, []models.EndpointRef{})
		}
		plan.Phases[p] = append(plan.Phases[p], n.Ref)
	}

	for _, n := range nodes {
		if phase[n.ID] != unassigned {
			continue
		}
		u := models.UnresolvedEndpoint{
			Ref:     n.Ref,
			InCycle: reachesItself(g, n.ID, phase),
		}
		for _, dep := range n.Deps {
			if phase[dep] == unassigned {
				u.BlockedBy = append(u.BlockedBy, g.Node(dep).Ref)
			}
		}
		plan.Unresolved = append(plan.Unresolved, u)
	}

	return plan
}

// levelOf returns 1 + max(dependency phase) once every dependency is leveled.
func levelOf(n graph.Node, phase []int) (int, bool) {
	level := 0
	for _, dep := range n.Deps {
		p := phase[dep]
		if p == unassigned {
			return 0, false
		}
		if p+1 > level {
			level = p + 1
		}
	}
	return level, true
}

// reachesItself walks unassigned dependencies starting at id and reports
// whether the walk comes back to id.
func reachesItself(g *graph.Graph, id graph.NodeID, phase []int) bool {
	visited := make(map[graph.NodeID]bool)
	stack := append([]graph.NodeID(nil), g.Node(id).Deps...)
	for len(stack) > 0 {
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if next == id {
			return true
		}
		if visited[next] || phase[next] != unassigned {
			continue
		}
		visited[next] = true
		stack = append(stack, g.Node(next).Deps...)
	}
	return false
}
