package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"evalgo.org/bffgate/internal/extract"
	"evalgo.org/bffgate/internal/transport"
	"evalgo.org/bffgate/models"
)

// pendingCall is an endpoint of the current phase that is ready to be called.
type pendingCall struct {
	result *models.EndpointResult
	call   transport.Call
}

// runPhase resolves inputs for every endpoint of the phase, runs the ready
// calls in parallel and waits for all of them.
func (e *Engine) runPhase(ctx context.Context, x *execution, n int, phase []models.EndpointRef, public map[string]interface{}) error {
	var ready []pendingCall

	for _, ref := range phase {
		res := x.report.Results[ref.EndpointID]
		call, ok, err := e.prepareCall(x, res, public)
		if err != nil {
			return err
		}
		if ok {
			ready = append(ready, pendingCall{result: res, call: call})
		}
	}

	var g errgroup.Group
	if e.opts.MaxParallel > 0 {
		g.SetLimit(e.opts.MaxParallel)
	}
	for _, pc := range ready {
		pc := pc
		g.Go(func() error {
			e.call(ctx, x, pc)
			return nil
		})
	}
	_ = g.Wait()

	for _, ref := range phase {
		if !x.report.Results[ref.EndpointID].Status.Terminal() {
			return fmt.Errorf("%w: %s has no recorded outcome after phase %d", ErrInconsistentPlan, ref, n)
		}
	}
	return nil
}

// prepareCall decides whether an endpoint can be called. It returns ok=false
// after marking the endpoint skipped or failed.
func (e *Engine) prepareCall(x *execution, res *models.EndpointResult, public map[string]interface{}) (transport.Call, bool, error) {
	ref := res.Ref

	if blocker, ok := x.blockingDependency(ref); ok {
		reason := fmt.Sprintf("dependency %s %s", blocker.Ref, blocker.Status)
		x.skip(res, reason)
		x.issue(models.IssueEndpointSkipped, models.SeverityWarning, ref.EndpointID, "", reason)
		x.event("warning", res.Phase, ref.EndpointID, "Skipped: "+reason)
		return transport.Call{}, false, nil
	}

	api, ep, ok := x.project.FindUpstream(ref)
	if !ok {
		return transport.Call{}, false, fmt.Errorf("%w: %s is scheduled but not defined", ErrInconsistentPlan, ref)
	}

	values, err := x.resolveRequest(ref, public)
	if err != nil {
		return transport.Call{}, false, err
	}

	for _, f := range ep.RequestFields {
		if _, ok := values[f.ID]; ok || !f.IsRequired() {
			continue
		}
		reason := fmt.Sprintf("required field %s has no value", f.Name)
		x.skip(res, reason)
		x.issue(models.IssueEndpointSkipped, models.SeverityWarning, ref.EndpointID, f.ID, reason)
		x.event("warning", res.Phase, ref.EndpointID, "Skipped: "+reason)
		return transport.Call{}, false, nil
	}

	call, err := transport.BuildCall(api, ep, values)
	if err != nil {
		x.transition(res, models.StatusRunning)
		res.Error = err.Error()
		x.transition(res, models.StatusFailed)
		x.issue(models.IssueUpstreamCallFailure, models.SeverityError, ref.EndpointID, "", err.Error())
		return transport.Call{}, false, nil
	}
	return call, true, nil
}

// blockingDependency returns the first dependency that failed or was skipped.
func (x *execution) blockingDependency(ref models.EndpointRef) (*models.EndpointResult, bool) {
	id, ok := x.graph.Lookup(ref.EndpointID)
	if !ok {
		return nil, false
	}
	for _, dep := range x.graph.Node(id).Deps {
		depRes, ok := x.report.Results[x.graph.Node(dep).Ref.EndpointID]
		if ok && depRes.Status.Blocks() {
			return depRes, true
		}
	}
	return nil, false
}

// dependentsInScope counts the endpoints of this run that read from ref,
// directly or through other endpoints.
func (x *execution) dependentsInScope(ref models.EndpointRef) int {
	id, ok := x.graph.Lookup(ref.EndpointID)
	if !ok {
		return 0
	}
	n := 0
	for dep := range x.graph.DependentsOf(id) {
		if _, ok := x.report.Results[x.graph.Node(dep).Ref.EndpointID]; ok {
			n++
		}
	}
	return n
}

// resolveRequest collects the values of every mapped request field of ref.
// Values missing from the public input or from an upstream response are left
// out. A chained source without a recorded response breaks the phase
// invariant and aborts the run.
func (x *execution) resolveRequest(ref models.EndpointRef, public map[string]interface{}) (map[string]interface{}, error) {
	values := make(map[string]interface{})

	for _, m := range x.resolver.RequestMappingsFor(ref.EndpointID) {
		if m.TargetAPIID != ref.APIID {
			continue
		}

		switch src := m.Source.(type) {
		case models.PublicSource:
			if v, ok := public[src.FieldID]; ok {
				values[m.TargetFieldID] = v
			}

		case models.UpstreamSource:
			if _, known := x.graph.Lookup(src.EndpointID); !known {
				x.issue(models.IssueFieldExtraction, models.SeverityWarning, ref.EndpointID, m.TargetFieldID,
					fmt.Sprintf("source %s is not defined", src.Ref()))
				continue
			}
			srcRes, ok := x.report.Results[src.EndpointID]
			if !ok || srcRes.Status != models.StatusSucceeded || srcRes.Phase >= x.report.Results[ref.EndpointID].Phase {
				return nil, fmt.Errorf("%w: %s reads %s which has no recorded response", ErrInconsistentPlan, ref, src.Ref())
			}
			v, ok := extract.Get(srcRes.Body, src.FieldPath)
			if !ok {
				x.issue(models.IssueFieldExtraction, models.SeverityWarning, ref.EndpointID, m.TargetFieldID,
					fmt.Sprintf("path %s not found in response of %s", src.FieldPath, src.Ref()))
				continue
			}
			values[m.TargetFieldID] = v
		}
	}
	return values, nil
}

// call performs one upstream request and records its outcome.
func (e *Engine) call(ctx context.Context, x *execution, pc pendingCall) {
	res := pc.result
	ref := res.Ref

	x.transition(res, models.StatusRunning)
	x.event("info", res.Phase, ref.EndpointID, fmt.Sprintf("Calling %s %s", pc.call.Method, pc.call.FullURL()))

	resp, err := e.transport.Do(ctx, pc.call)
	if resp != nil {
		res.StatusCode = resp.StatusCode
	}
	if err != nil {
		res.Error = err.Error()
		x.transition(res, models.StatusFailed)
		if ctx.Err() != nil {
			x.event("error", res.Phase, ref.EndpointID, "Call cancelled")
			return
		}
		var statusErr *transport.StatusError
		msg := err.Error()
		if errors.As(err, &statusErr) {
			msg = fmt.Sprintf("upstream returned status %d", statusErr.StatusCode)
		}
		x.issue(models.IssueUpstreamCallFailure, models.SeverityError, ref.EndpointID, "", msg)
		if n := x.dependentsInScope(ref); n > 0 {
			msg = fmt.Sprintf("%s, %d dependent endpoint(s) will be skipped", msg, n)
		}
		x.event("error", res.Phase, ref.EndpointID, msg)
		return
	}

	if len(resp.Body) > 0 && json.Valid(resp.Body) {
		res.Body = json.RawMessage(resp.Body)
	} else if len(resp.Body) > 0 {
		x.issue(models.IssueFieldExtraction, models.SeverityWarning, ref.EndpointID, "", "response body is not JSON")
	}
	x.transition(res, models.StatusSucceeded)
	x.event("info", res.Phase, ref.EndpointID, fmt.Sprintf("Completed with status %d", res.StatusCode))
}
