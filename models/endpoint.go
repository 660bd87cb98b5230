package models

import "strings"

// HTTPMethod is an HTTP verb supported by public endpoints.
type HTTPMethod string

const (
	MethodGet    HTTPMethod = "GET"
	MethodPost   HTTPMethod = "POST"
	MethodPut    HTTPMethod = "PUT"
	MethodDelete HTTPMethod = "DELETE"
)

// Endpoint is a public route exposed by the gateway.
type Endpoint struct {
	// ID is the unique identifier of the public endpoint
	ID string `json:"id" yaml:"id" validate:"required"`

	// Path is the public route, with {param} or :param placeholders
	Path string `json:"path" yaml:"path" validate:"required,startswith=/"`

	// Method is one of GET, POST, PUT, DELETE
	Method HTTPMethod `json:"method" yaml:"method" validate:"required,oneof=GET POST PUT DELETE"`

	// Description is free text shown by the editors
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// RequestSchema lists the public inputs in declaration order
	RequestSchema []Field `json:"requestSchema" yaml:"requestSchema" validate:"dive"`

	// ResponseSchema lists the public outputs in declaration order
	ResponseSchema []Field `json:"responseSchema" yaml:"responseSchema" validate:"dive"`
}

// DefaultLocation returns where a public input without an explicit location is read from.
func (e *Endpoint) DefaultLocation() FieldLocation {
	switch HTTPMethod(strings.ToUpper(string(e.Method))) {
	case MethodGet, MethodDelete:
		return LocationQuery
	default:
		return LocationBody
	}
}
