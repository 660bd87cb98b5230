package engine

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"evalgo.org/bffgate/internal/graph"
	"evalgo.org/bffgate/internal/mapping"
	"evalgo.org/bffgate/models"
)

// execution is the state of one run. Results are created up front, so the
// map itself is only read while phases run; issues and events are appended
// under mu.
type execution struct {
	project  *models.Project
	endpoint *models.Endpoint
	resolver *mapping.Resolver
	graph    *graph.Graph
	report   *models.ExecutionReport
	logger   *log.Entry

	mu sync.Mutex
}

func newExecution(p *models.Project, ep *models.Endpoint, logger *log.Entry) *execution {
	id := models.GenerateID("exec")
	return &execution{
		project:  p,
		endpoint: ep,
		resolver: mapping.ForProject(p),
		report: &models.ExecutionReport{
			ID:         id,
			EndpointID: ep.ID,
			Results:    make(map[string]*models.EndpointResult),
			Response:   make(map[string]interface{}),
			Issues:     []models.Issue{},
			Events:     []models.ExecutionEvent{},
			StartedAt:  time.Now(),
		},
		logger: logger.WithFields(log.Fields{
			"execution_id": id,
			"endpoint":     ep.ID,
		}),
	}
}

// prepare restricts the project plan to the endpoints this public endpoint
// needs and creates their results. Unresolved endpoints are skipped at once.
func (x *execution) prepare(full *models.PhasePlan, g *graph.Graph) {
	x.graph = g

	var start []graph.NodeID
	for _, f := range x.endpoint.ResponseSchema {
		m, ok := x.resolver.ResponseMappingFor(f.ID)
		if !ok {
			continue
		}
		if id, ok := g.Lookup(m.SourceEndpointID); ok {
			start = append(start, id)
		}
	}
	scope := g.DependenciesOf(start...)

	x.report.Plan = full.Restrict(func(ref models.EndpointRef) bool {
		id, ok := g.Lookup(ref.EndpointID)
		return ok && scope[id]
	})

	for n, phase := range x.report.Plan.Phases {
		for _, ref := range phase {
			x.report.Results[ref.EndpointID] = &models.EndpointResult{
				Ref:    ref,
				Phase:  n,
				Status: models.StatusPending,
			}
		}
	}

	for _, u := range x.report.Plan.Unresolved {
		res := &models.EndpointResult{Ref: u.Ref, Phase: -1, Status: models.StatusPending}
		x.report.Results[u.Ref.EndpointID] = res

		reason := "depends on an endpoint that cannot be scheduled"
		if u.InCycle {
			reason = "part of a dependency cycle"
		}
		x.issue(models.IssueSchedulingUnresolved, models.SeverityError, u.Ref.EndpointID, "",
			fmt.Sprintf("cannot schedule %s: %s", u.Ref, reason))
		x.skip(res, "cannot schedule: "+reason)
	}
}

func (x *execution) issue(kind models.IssueKind, severity models.Severity, endpointID, fieldID, message string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.report.AddIssue(kind, severity, endpointID, fieldID, message)
}

// event records progress, mirroring it to the log.
func (x *execution) event(eventType string, phase int, endpointID, message string) {
	x.mu.Lock()
	x.report.Events = append(x.report.Events, models.ExecutionEvent{
		Timestamp:  time.Now(),
		Type:       eventType,
		Phase:      phase,
		EndpointID: endpointID,
		Message:    message,
	})
	x.mu.Unlock()

	entry := x.logger.WithField("phase", phase)
	if endpointID != "" {
		entry = entry.WithField("upstream", endpointID)
	}
	switch eventType {
	case "error":
		entry.Warn(message)
	default:
		entry.Debug(message)
	}
}

func (x *execution) transition(res *models.EndpointResult, next models.EndpointStatus) {
	if err := res.Transition(next, time.Now()); err != nil {
		x.logger.WithError(err).Error("invalid endpoint status transition")
	}
}

func (x *execution) skip(res *models.EndpointResult, reason string) {
	res.SkipReason = reason
	x.transition(res, models.StatusSkipped)
}

func (x *execution) finish() {
	now := time.Now()
	x.report.CompletedAt = &now
	x.buildResponse()
}
