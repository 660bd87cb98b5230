package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSource is returned when a request mapping source cannot be decoded
// into exactly one of the supported variants.
var ErrInvalidSource = errors.New("invalid mapping source")

// ResponseMapping binds a public response field to a value inside an upstream response.
// At most one ResponseMapping exists per TargetFieldID.
type ResponseMapping struct {
	// TargetFieldID references a field of a public endpoint's response schema
	TargetFieldID string `json:"targetFieldId" yaml:"targetFieldId" validate:"required"`

	// SourceAPIID is the upstream API that produces the value
	SourceAPIID string `json:"sourceApiId" yaml:"sourceApiId" validate:"required"`

	// SourceEndpointID is the upstream endpoint that produces the value
	SourceEndpointID string `json:"sourceEndpointId" yaml:"sourceEndpointId" validate:"required"`

	// SourceFieldPath is the dotted path into the upstream response body
	SourceFieldPath string `json:"sourceFieldPath" yaml:"sourceFieldPath" validate:"required"`
}

// Source returns the upstream endpoint the mapping reads from.
func (m ResponseMapping) Source() EndpointRef {
	return EndpointRef{APIID: m.SourceAPIID, EndpointID: m.SourceEndpointID}
}

// SourceType discriminates the variants of MappingSource.
type SourceType string

const (
	SourcePublic   SourceType = "public"
	SourceUpstream SourceType = "upstream"
)

// MappingSource is where an upstream request field gets its value from.
// The only implementations are PublicSource and UpstreamSource.
type MappingSource interface {
	SourceType() SourceType
	isMappingSource()
}

// PublicSource reads the value from the public request.
type PublicSource struct {
	// FieldID references a field of the public endpoint's request schema
	FieldID string
}

func (PublicSource) SourceType() SourceType { return SourcePublic }
func (PublicSource) isMappingSource()       {}

// UpstreamSource reads the value from another upstream endpoint's response (chaining).
type UpstreamSource struct {
	APIID      string
	EndpointID string
	FieldPath  string
}

func (UpstreamSource) SourceType() SourceType { return SourceUpstream }
func (UpstreamSource) isMappingSource()       {}

// Ref returns the upstream endpoint the source reads from.
func (s UpstreamSource) Ref() EndpointRef {
	return EndpointRef{APIID: s.APIID, EndpointID: s.EndpointID}
}

// RequestMapping binds an upstream request field to a public input or to a
// prior upstream response. At most one RequestMapping exists per
// (TargetEndpointID, TargetFieldID).
type RequestMapping struct {
	TargetAPIID      string
	TargetEndpointID string
	TargetFieldID    string
	Source           MappingSource
}

// Target returns the upstream endpoint receiving the value.
func (m RequestMapping) Target() EndpointRef {
	return EndpointRef{APIID: m.TargetAPIID, EndpointID: m.TargetEndpointID}
}

// Key returns the replace-on-write identity of the mapping.
func (m RequestMapping) Key() RequestTarget {
	return RequestTarget{EndpointID: m.TargetEndpointID, FieldID: m.TargetFieldID}
}

// Upstream returns the chaining source, if the mapping has one.
func (m RequestMapping) Upstream() (UpstreamSource, bool) {
	s, ok := m.Source.(UpstreamSource)
	return s, ok
}

// RequestTarget is the lookup key of a request mapping.
type RequestTarget struct {
	EndpointID string `json:"endpointId"`
	FieldID    string `json:"fieldId"`
}

// requestMappingWire is the flat document shape shared with the editors and
// the artifact emitter.
type requestMappingWire struct {
	TargetAPIID         string     `json:"targetApiId" yaml:"targetApiId"`
	TargetEndpointID    string     `json:"targetEndpointId" yaml:"targetEndpointId"`
	TargetFieldID       string     `json:"targetFieldId" yaml:"targetFieldId"`
	SourceType          SourceType `json:"sourceType" yaml:"sourceType"`
	SourcePublicFieldID string     `json:"sourcePublicFieldId,omitempty" yaml:"sourcePublicFieldId,omitempty"`
	SourceAPIID         string     `json:"sourceApiId,omitempty" yaml:"sourceApiId,omitempty"`
	SourceEndpointID    string     `json:"sourceEndpointId,omitempty" yaml:"sourceEndpointId,omitempty"`
	SourceFieldPath     string     `json:"sourceFieldPath,omitempty" yaml:"sourceFieldPath,omitempty"`
}

func (m RequestMapping) toWire() requestMappingWire {
	w := requestMappingWire{
		TargetAPIID:      m.TargetAPIID,
		TargetEndpointID: m.TargetEndpointID,
		TargetFieldID:    m.TargetFieldID,
	}
	switch s := m.Source.(type) {
	case PublicSource:
		w.SourceType = SourcePublic
		w.SourcePublicFieldID = s.FieldID
	case UpstreamSource:
		w.SourceType = SourceUpstream
		w.SourceAPIID = s.APIID
		w.SourceEndpointID = s.EndpointID
		w.SourceFieldPath = s.FieldPath
	}
	return w
}

func (w requestMappingWire) toMapping() (RequestMapping, error) {
	m := RequestMapping{
		TargetAPIID:      w.TargetAPIID,
		TargetEndpointID: w.TargetEndpointID,
		TargetFieldID:    w.TargetFieldID,
	}
	hasUpstream := w.SourceAPIID != "" || w.SourceEndpointID != "" || w.SourceFieldPath != ""

	switch w.SourceType {
	case SourcePublic:
		if w.SourcePublicFieldID == "" {
			return m, fmt.Errorf("%w: public source requires sourcePublicFieldId", ErrInvalidSource)
		}
		if hasUpstream {
			return m, fmt.Errorf("%w: public source must not carry upstream fields", ErrInvalidSource)
		}
		m.Source = PublicSource{FieldID: w.SourcePublicFieldID}
	case SourceUpstream:
		if w.SourceAPIID == "" || w.SourceEndpointID == "" || w.SourceFieldPath == "" {
			return m, fmt.Errorf("%w: upstream source requires sourceApiId, sourceEndpointId and sourceFieldPath", ErrInvalidSource)
		}
		if w.SourcePublicFieldID != "" {
			return m, fmt.Errorf("%w: upstream source must not carry sourcePublicFieldId", ErrInvalidSource)
		}
		m.Source = UpstreamSource{APIID: w.SourceAPIID, EndpointID: w.SourceEndpointID, FieldPath: w.SourceFieldPath}
	default:
		return m, fmt.Errorf("%w: unknown sourceType %q", ErrInvalidSource, w.SourceType)
	}
	return m, nil
}

// MarshalJSON implements json.Marshaler.
func (m RequestMapping) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.toWire())
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *RequestMapping) UnmarshalJSON(data []byte) error {
	var w requestMappingWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	decoded, err := w.toMapping()
	if err != nil {
		return err
	}
	*m = decoded
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (m RequestMapping) MarshalYAML() (interface{}, error) {
	return m.toWire(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *RequestMapping) UnmarshalYAML(value *yaml.Node) error {
	var w requestMappingWire
	if err := value.Decode(&w); err != nil {
		return err
	}
	decoded, err := w.toMapping()
	if err != nil {
		return err
	}
	*m = decoded
	return nil
}
