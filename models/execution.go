package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned when an endpoint status change is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// EndpointStatus is the per-endpoint state of an execution.
//
//	pending -> running -> succeeded | failed
//	pending -> skipped
type EndpointStatus string

const (
	StatusPending   EndpointStatus = "pending"
	StatusRunning   EndpointStatus = "running"
	StatusSucceeded EndpointStatus = "succeeded"
	StatusFailed    EndpointStatus = "failed"
	StatusSkipped   EndpointStatus = "skipped"
)

// CanTransition reports whether s may move to next.
func (s EndpointStatus) CanTransition(next EndpointStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusRunning || next == StatusSkipped
	case StatusRunning:
		return next == StatusSucceeded || next == StatusFailed
	default:
		return false
	}
}

// Terminal reports whether no further transition is possible.
func (s EndpointStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusSkipped
}

// Blocks reports whether dependents of an endpoint in this state must be skipped.
func (s EndpointStatus) Blocks() bool {
	return s == StatusFailed || s == StatusSkipped
}

// IssueKind classifies a reported failure.
type IssueKind string

const (
	IssueValidation           IssueKind = "validation"
	IssueSchedulingUnresolved IssueKind = "scheduling_unresolved"
	IssueUpstreamCallFailure  IssueKind = "upstream_call_failure"
	IssueFieldExtraction      IssueKind = "field_extraction_failure"
	IssueAuthFailure          IssueKind = "auth_failure"
	IssueEndpointSkipped      IssueKind = "endpoint_skipped"
	IssueUnmappedField        IssueKind = "unmapped_field"
	IssueDeadlineExceeded     IssueKind = "deadline_exceeded"
	IssueExecutionCancelled   IssueKind = "execution_cancelled"
)

// Severity of an issue.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue is a single user-visible problem found while validating or executing.
type Issue struct {
	Kind       IssueKind `json:"kind"`
	Severity   Severity  `json:"severity"`
	EndpointID string    `json:"endpointId,omitempty"`
	FieldID    string    `json:"fieldId,omitempty"`
	Message    string    `json:"message"`
}

func (i Issue) String() string {
	target := i.EndpointID
	if i.FieldID != "" {
		target = fmt.Sprintf("%s.%s", i.EndpointID, i.FieldID)
	}
	if target == "" || target == "." {
		return fmt.Sprintf("[%s] %s", i.Kind, i.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", i.Kind, target, i.Message)
}

// EndpointResult tracks one upstream call within an execution.
type EndpointResult struct {
	Ref         EndpointRef     `json:"ref"`
	Phase       int             `json:"phase"`
	Status      EndpointStatus  `json:"status"`
	StatusCode  int             `json:"statusCode,omitempty"`
	Body        json.RawMessage `json:"body,omitempty"`
	Error       string          `json:"error,omitempty"`
	SkipReason  string          `json:"skipReason,omitempty"`
	StartedAt   *time.Time      `json:"startedAt,omitempty"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// Transition moves the result to the next status, stamping start and completion times.
func (r *EndpointResult) Transition(next EndpointStatus, at time.Time) error {
	if !r.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s for %s", ErrInvalidTransition, r.Status, next, r.Ref)
	}
	r.Status = next
	if next == StatusRunning {
		r.StartedAt = &at
	}
	if next.Terminal() {
		r.CompletedAt = &at
	}
	return nil
}

// IssuedToken is a signed access token produced from the auth endpoint's response.
type IssuedToken struct {
	AccessToken string                 `json:"access_token"`
	TokenType   string                 `json:"token_type"`
	IssuedAt    time.Time              `json:"issued_at"`
	ExpiresAt   time.Time              `json:"expires_at"`
	Claims      map[string]interface{} `json:"claims"`
}

// ExecutionEvent tracks progress during an execution.
type ExecutionEvent struct {
	// Timestamp is when the event occurred
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type (info, warning, error)
	Type string `json:"type"`

	// Phase is the phase number, -1 for events outside the phase plan
	Phase int `json:"phase"`

	// EndpointID is the upstream endpoint (if applicable)
	EndpointID string `json:"endpointId,omitempty"`

	// Message is the event message
	Message string `json:"message"`
}

// ExecutionReport is the single result of an aggregation run: the public
// response that could be produced plus everything that went wrong.
type ExecutionReport struct {
	ID          string                     `json:"id"`
	EndpointID  string                     `json:"endpointId"`
	Plan        *PhasePlan                 `json:"plan"`
	Results     map[string]*EndpointResult `json:"results"`
	Response    map[string]interface{}     `json:"response"`
	Token       *IssuedToken               `json:"token,omitempty"`
	Issues      []Issue                    `json:"issues"`
	Events      []ExecutionEvent           `json:"events,omitempty"`
	TimedOut    bool                       `json:"timedOut"`
	StartedAt   time.Time                  `json:"startedAt"`
	CompletedAt *time.Time                 `json:"completedAt,omitempty"`
}

// AddIssue appends an issue to the report.
func (r *ExecutionReport) AddIssue(kind IssueKind, severity Severity, endpointID, fieldID, message string) {
	r.Issues = append(r.Issues, Issue{
		Kind:       kind,
		Severity:   severity,
		EndpointID: endpointID,
		FieldID:    fieldID,
		Message:    message,
	})
}

// IssuesOf returns the issues of one kind.
func (r *ExecutionReport) IssuesOf(kind IssueKind) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Kind == kind {
			out = append(out, i)
		}
	}
	return out
}
