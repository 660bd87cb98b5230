package api

import (
	"evalgo.org/bffgate/internal/store"
	"evalgo.org/bffgate/models"
)

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// ChangeResponse is returned by mutating admin routes.
type ChangeResponse struct {
	Message string         `json:"message"`
	Version uint64         `json:"version"`
	Issues  []models.Issue `json:"issues"`
}

// ProjectResponse is the current project with its store version.
type ProjectResponse struct {
	Version uint64          `json:"version"`
	Project *models.Project `json:"project"`
}

// AuthProviderRequest selects the auth endpoint.
type AuthProviderRequest struct {
	APIID      string `json:"apiId"`
	EndpointID string `json:"endpointId"`
}

// ClaimMappingRequest adds a claim mapping.
type ClaimMappingRequest struct {
	ClaimName       string `json:"claimName"`
	SourceFieldPath string `json:"sourceFieldPath"`
}

// ExecuteRequest runs a public endpoint from the admin API.
type ExecuteRequest struct {
	Values      map[string]interface{} `json:"values"`
	Credentials map[string]interface{} `json:"credentials,omitempty"`
}

// changeEvent is the payload of project events.
type changeEvent struct {
	store.Change
	Plan interface{} `json:"plan,omitempty"`
}
