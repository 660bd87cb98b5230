package models

import "fmt"

// UpstreamApi is a backend service the gateway calls on behalf of public requests.
type UpstreamApi struct {
	// ID is the unique identifier of the API
	ID string `json:"id" yaml:"id" validate:"required"`

	// Name is the human-readable API name
	Name string `json:"name" yaml:"name" validate:"required"`

	// BaseURL is prefixed to every endpoint path
	BaseURL string `json:"baseUrl" yaml:"baseUrl" validate:"required,url"`

	// Endpoints are the operations of the API
	Endpoints []UpstreamEndpoint `json:"endpoints" yaml:"endpoints" validate:"dive"`
}

// UpstreamEndpoint is a single operation of an upstream API.
// Its ID is unique across the whole project and is the node identity of the
// dependency graph.
type UpstreamEndpoint struct {
	ID             string  `json:"id" yaml:"id" validate:"required"`
	Path           string  `json:"path" yaml:"path"`
	Method         string  `json:"method" yaml:"method" validate:"required"`
	RequestFields  []Field `json:"requestFields" yaml:"requestFields" validate:"dive"`
	ResponseFields []Field `json:"responseFields" yaml:"responseFields" validate:"dive"`
}

// EndpointRef identifies an upstream endpoint together with its owning API.
type EndpointRef struct {
	APIID      string `json:"apiId" yaml:"apiId"`
	EndpointID string `json:"endpointId" yaml:"endpointId"`
}

func (r EndpointRef) String() string {
	return fmt.Sprintf("%s/%s", r.APIID, r.EndpointID)
}

// IsZero reports whether the reference is unset.
func (r EndpointRef) IsZero() bool {
	return r.APIID == "" && r.EndpointID == ""
}

// FindEndpoint returns the endpoint with the given ID.
func (a *UpstreamApi) FindEndpoint(id string) (*UpstreamEndpoint, bool) {
	for i := range a.Endpoints {
		if a.Endpoints[i].ID == id {
			return &a.Endpoints[i], true
		}
	}
	return nil, false
}
