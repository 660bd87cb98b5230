// Package client talks to the admin API of a running gateway.
package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"

	"evalgo.org/bffgate/internal/validation"
	"evalgo.org/bffgate/models"
)

// APIError is the error document returned by the gateway.
type APIError struct {
	Code        int               `json:"code"`
	Message     string            `json:"message"`
	Details     string            `json:"details,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%d %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	for field, fe := range e.FieldErrors {
		msg += fmt.Sprintf("\n  - %s: %s", field, fe)
	}
	return msg
}

// Client is an admin API client.
type Client struct {
	http *resty.Client
}

// New creates a client for the gateway at baseURL. apiKey may be empty when
// the admin API is open.
func New(baseURL, apiKey string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}

	c := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")+"/api/v1").
		SetTimeout(30*time.Second).
		SetHeader("Accept", "application/json").
		SetError(&APIError{}).
		SetLogger(log.WithField("component", "client"))
	if apiKey != "" {
		c.SetHeader("X-API-Key", apiKey)
	}

	return &Client{http: c}, nil
}

// ProjectResponse is the current project with its store version.
type ProjectResponse struct {
	Version uint64          `json:"version"`
	Project *models.Project `json:"project"`
}

// ChangeResponse is returned by mutating routes.
type ChangeResponse struct {
	Message string         `json:"message"`
	Version uint64         `json:"version"`
	Issues  []models.Issue `json:"issues"`
}

// PlanResponse is the phase plan with the dependency edges.
type PlanResponse struct {
	Plan  *models.PhasePlan `json:"plan"`
	Edges []struct {
		Source models.EndpointRef `json:"source"`
		Target models.EndpointRef `json:"target"`
	} `json:"edges"`
}

// GetProject fetches the current project.
func (c *Client) GetProject(ctx context.Context) (*ProjectResponse, error) {
	var out ProjectResponse
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get("/project")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReplaceProject uploads p as the new project.
func (c *Client) ReplaceProject(ctx context.Context, p *models.Project) (*ChangeResponse, error) {
	var out ChangeResponse
	resp, err := c.http.R().SetContext(ctx).SetBody(p).SetResult(&out).Put("/project")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Plan fetches the phase plan of the current project.
func (c *Client) Plan(ctx context.Context) (*PlanResponse, error) {
	var out PlanResponse
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get("/plan")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate validates p on the server.
func (c *Client) Validate(ctx context.Context, p *models.Project) (*validation.ValidationResult, error) {
	var out validation.ValidationResult
	resp, err := c.http.R().SetContext(ctx).SetBody(p).SetResult(&out).Post("/validate")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Execute runs a public endpoint on the server and returns the report.
func (c *Client) Execute(ctx context.Context, endpointID string, values, credentials map[string]interface{}) (*models.ExecutionReport, error) {
	var out models.ExecutionReport
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", endpointID).
		SetBody(map[string]interface{}{"values": values, "credentials": credentials}).
		SetResult(&out).
		Post("/execute/{id}")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		if apiErr, ok := resp.Error().(*APIError); ok && apiErr.Message != "" {
			return apiErr
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode())
	}
	return nil
}
