// Package engine runs the aggregation for a public endpoint: upstream calls
// phase by phase, request values from public input or earlier responses, and
// the public response assembled from the response mappings.
//
// Endpoints of one phase run in parallel. A phase starts only after every
// call of the previous phase has finished. A failed or skipped endpoint
// skips everything that reads from it. Only an expired deadline or a phase
// plan that disagrees with the recorded responses aborts a run; every other
// failure is reported in the execution report next to the partial response.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"evalgo.org/bffgate/internal/auth"
	"evalgo.org/bffgate/internal/graph"
	"evalgo.org/bffgate/internal/scheduler"
	"evalgo.org/bffgate/internal/transport"
	"evalgo.org/bffgate/models"
)

var (
	// ErrDeadlineExceeded is returned with the partial report when the execution deadline expires
	ErrDeadlineExceeded = errors.New("execution deadline exceeded")
	// ErrInconsistentPlan is returned when an endpoint has no recorded response after its phase completed
	ErrInconsistentPlan = errors.New("phase plan inconsistent with recorded responses")
	// ErrUnknownEndpoint is returned for a public endpoint that is not part of the project
	ErrUnknownEndpoint = errors.New("unknown public endpoint")
	// ErrAuthFailed is returned when no token could be issued
	ErrAuthFailed = errors.New("authentication failed")
	// ErrSecurityDisabled is returned by Authenticate when the project does not issue tokens
	ErrSecurityDisabled = errors.New("security is not enabled")
)

// Options tunes executions.
type Options struct {
	// ExecutionTimeout is the overall deadline of one run (0 = none beyond ctx)
	ExecutionTimeout time.Duration

	// MaxParallel caps concurrent calls within a phase (0 = unlimited)
	MaxParallel int

	// MaxPasses is handed to the scheduler
	MaxPasses int
}

// Input carries the public request of one run.
type Input struct {
	// Values are the public request values keyed by request field ID
	Values map[string]interface{}

	// Credentials, when set and security is enabled, are sent to the auth
	// endpoint before any phase runs
	Credentials map[string]interface{}
}

// ReportObserver receives every finished execution report.
type ReportObserver func(report *models.ExecutionReport)

// Engine executes aggregation runs against project snapshots.
type Engine struct {
	transport transport.Transport
	issuer    *auth.Issuer
	scheduler *scheduler.Scheduler
	opts      Options
	logger    *log.Entry

	obsMu     sync.RWMutex
	observers []ReportObserver
}

// New creates an engine. issuer may be nil when no project enables security.
func New(tr transport.Transport, issuer *auth.Issuer, opts Options) *Engine {
	return &Engine{
		transport: tr,
		issuer:    issuer,
		scheduler: scheduler.New(scheduler.Options{MaxPasses: opts.MaxPasses}),
		opts:      opts,
		logger:    log.WithField("component", "engine"),
	}
}

// Observe registers fn to be called with every finished report.
func (e *Engine) Observe(fn ReportObserver) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.observers = append(e.observers, fn)
}

func (e *Engine) publish(report *models.ExecutionReport) {
	e.obsMu.RLock()
	observers := append([]ReportObserver(nil), e.observers...)
	e.obsMu.RUnlock()
	for _, fn := range observers {
		fn(report)
	}
}

// Plan computes the project-wide phase plan.
func (e *Engine) Plan(p *models.Project) (*models.PhasePlan, *graph.Graph) {
	return e.scheduler.Plan(p)
}

// Execute runs the public endpoint endpointID against the snapshot p.
//
// The returned report is never nil once the endpoint is known. The error is
// ErrDeadlineExceeded, ErrInconsistentPlan, ErrAuthFailed or a context error
// for runs that had to stop early; the report then holds the partial result.
func (e *Engine) Execute(ctx context.Context, p *models.Project, endpointID string, in Input) (*models.ExecutionReport, error) {
	ep, ok := p.FindPublicEndpoint(endpointID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, endpointID)
	}

	if e.opts.ExecutionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.ExecutionTimeout)
		defer cancel()
	}

	x := newExecution(p, ep, e.logger)
	x.event("info", -1, "", fmt.Sprintf("Starting execution of %s %s", ep.Method, ep.Path))

	err := e.run(ctx, x, in)
	x.finish()
	if err != nil {
		x.logger.WithError(err).Warn("execution stopped early")
	} else {
		x.logger.WithField("issues", len(x.report.Issues)).Debug("execution completed")
	}

	e.publish(x.report)
	return x.report, err
}

func (e *Engine) run(ctx context.Context, x *execution, in Input) error {
	if x.project.SecurityConfig.Enabled && in.Credentials != nil {
		token, err := e.Authenticate(ctx, x.project, in.Credentials)
		if err != nil {
			x.issue(models.IssueAuthFailure, models.SeverityError, x.project.SecurityConfig.AuthEndpointID, "", err.Error())
			return err
		}
		x.report.Token = token
		x.event("info", -1, x.project.SecurityConfig.AuthEndpointID, "Token issued")
	}

	full, g := e.Plan(x.project)
	x.prepare(full, g)

	for n, phase := range x.report.Plan.Phases {
		if err := ctx.Err(); err != nil {
			return x.abandon(err)
		}
		if len(phase) == 0 {
			continue
		}

		x.event("info", n, "", fmt.Sprintf("Starting phase %d with %d endpoint(s)", n, len(phase)))
		if err := e.runPhase(ctx, x, n, phase, in.Values); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return x.abandon(err)
	}
	return nil
}

// abandon skips everything that has not run yet and reports why.
func (x *execution) abandon(cause error) error {
	kind, reason := models.IssueExecutionCancelled, "execution cancelled"
	err := fmt.Errorf("execution cancelled: %w", cause)
	if errors.Is(cause, context.DeadlineExceeded) {
		kind, reason = models.IssueDeadlineExceeded, "execution deadline exceeded"
		err = ErrDeadlineExceeded
		x.report.TimedOut = true
	}

	x.issue(kind, models.SeverityError, "", "", reason)
	for _, res := range x.report.Results {
		if res.Status == models.StatusPending {
			x.skip(res, reason)
		}
	}
	x.event("error", -1, "", reason)
	return err
}
