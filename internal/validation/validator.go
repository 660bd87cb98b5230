// Package validation checks projects and mapping edits before they reach the
// entity store.
//
// Two layers are applied:
//   - go-playground/validator struct tags (required ids, allowed types,
//     methods and locations, positive token lifetime)
//   - cross-reference checks (unique ids, mapping targets and sources that
//     exist, no self-referencing chains, a reachable auth endpoint)
//
// # Usage Example
//
//	v := validation.New()
//	result := v.ValidateProject(project)
//	if !result.Valid {
//	    for _, err := range result.Errors {
//	        fmt.Printf("%s: %s\n", err.Field, err.Message)
//	    }
//	}
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"evalgo.org/bffgate/models"
)

// ErrValidation is wrapped by every *Error.
var ErrValidation = errors.New("validation failed")

// Validator validates projects and mapping edits.
type Validator struct {
	// structValidator validates Go struct constraints and tags
	structValidator *validator.Validate
}

// ValidationError represents a single validation error with field-level details.
type ValidationError struct {
	// Field is the location of the offending value (e.g. responseMappings[2].targetFieldId)
	Field string `json:"field"`

	// Message describes why the validation failed
	Message string `json:"message"`

	// Value is the invalid value that caused the error (optional)
	Value interface{} `json:"value,omitempty"`
}

// ValidationResult represents the complete result of a validation operation.
type ValidationResult struct {
	// Valid is true if validation passed, false otherwise
	Valid bool `json:"valid"`

	// Errors contains all validation errors found (empty if Valid is true)
	Errors []ValidationError `json:"errors,omitempty"`
}

// Error is the error form of a failed ValidationResult.
type Error struct {
	Errors []ValidationError
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ve := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", ve.Field, ve.Message))
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(msgs, "; "))
}

func (e *Error) Unwrap() error {
	return ErrValidation
}

// Err returns nil for a valid result and an *Error otherwise.
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &Error{Errors: r.Errors}
}

func newResult(errs []ValidationError) *ValidationResult {
	return &ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// New creates a new Validator. Field names in errors use the JSON names.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{structValidator: v}
}

// ValidateProjectJSON decodes and validates a project document.
func (v *Validator) ValidateProjectJSON(data []byte) (*ValidationResult, error) {
	var p models.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return newResult([]ValidationError{{
			Field:   "document",
			Message: fmt.Sprintf("Invalid JSON: %v", err),
		}}), nil
	}
	return v.ValidateProject(&p), nil
}

// ValidateProject runs every struct and cross-reference check over p.
func (v *Validator) ValidateProject(p *models.Project) *ValidationResult {
	var errs []ValidationError

	errs = append(errs, v.structErrors("", p)...)
	errs = append(errs, uniqueIDs(p)...)

	for i, m := range p.ResponseMappings {
		errs = append(errs, prefixed(fmt.Sprintf("responseMappings[%d]", i), responseMappingRefs(p, m))...)
	}

	seenReq := map[models.RequestTarget]bool{}
	for i, m := range p.RequestMappings {
		prefix := fmt.Sprintf("requestMappings[%d]", i)
		errs = append(errs, prefixed(prefix, requestMappingShape(m))...)
		errs = append(errs, prefixed(prefix, requestMappingRefs(p, m))...)
		if seenReq[m.Key()] {
			errs = append(errs, ValidationError{
				Field:   prefix,
				Message: "duplicate mapping for the same target field",
				Value:   m.TargetEndpointID + "." + m.TargetFieldID,
			})
		}
		seenReq[m.Key()] = true
	}

	seenResp := map[string]bool{}
	for i, m := range p.ResponseMappings {
		if seenResp[m.TargetFieldID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("responseMappings[%d]", i),
				Message: "duplicate mapping for the same target field",
				Value:   m.TargetFieldID,
			})
		}
		seenResp[m.TargetFieldID] = true
	}

	errs = append(errs, prefixed("securityConfig", securityRefs(p, p.SecurityConfig))...)

	return newResult(errs)
}

// ValidateResponseMapping checks a mapping about to be applied to p.
func (v *Validator) ValidateResponseMapping(p *models.Project, m models.ResponseMapping) *ValidationResult {
	errs := v.structErrors("", m)
	errs = append(errs, responseMappingRefs(p, m)...)
	return newResult(errs)
}

// ValidateRequestMapping checks a mapping about to be applied to p,
// rejecting chains that read from their own endpoint.
func (v *Validator) ValidateRequestMapping(p *models.Project, m models.RequestMapping) *ValidationResult {
	errs := requestMappingShape(m)
	errs = append(errs, requestMappingRefs(p, m)...)
	return newResult(errs)
}

// ValidateClaimMapping checks a single claim mapping.
func (v *Validator) ValidateClaimMapping(m models.ClaimMapping) *ValidationResult {
	errs := v.structErrors("", m)
	errs = append(errs, claimNameErrors(m.ClaimName)...)
	return newResult(errs)
}

// ValidateSecurity checks a security config about to be applied to p.
func (v *Validator) ValidateSecurity(p *models.Project, sc models.SecurityConfig) *ValidationResult {
	errs := v.structErrors("", sc)
	errs = append(errs, securityRefs(p, sc)...)
	return newResult(errs)
}

// ValidateEndpoint checks a public endpoint definition.
func (v *Validator) ValidateEndpoint(ep models.Endpoint) *ValidationResult {
	errs := v.structErrors("", ep)
	errs = append(errs, uniqueFieldIDs("requestSchema", ep.RequestSchema)...)
	errs = append(errs, uniqueFieldIDs("responseSchema", ep.ResponseSchema)...)
	return newResult(errs)
}

// ValidateUpstreamApi checks an upstream API definition.
func (v *Validator) ValidateUpstreamApi(api models.UpstreamApi) *ValidationResult {
	errs := v.structErrors("", api)
	for i, ep := range api.Endpoints {
		prefix := fmt.Sprintf("endpoints[%d]", i)
		errs = append(errs, uniqueFieldIDs(prefix+".requestFields", ep.RequestFields)...)
		errs = append(errs, uniqueFieldIDs(prefix+".responseFields", ep.ResponseFields)...)
	}
	return newResult(errs)
}

// structErrors converts validator tag failures into ValidationErrors.
func (v *Validator) structErrors(prefix string, s interface{}) []ValidationError {
	err := v.structValidator.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ValidationError{{Field: strings.TrimSuffix(prefix, "."), Message: err.Error()}}
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace starts with the Go type name, which callers do not care about
		ns := fe.Namespace()
		if dot := strings.Index(ns, "."); dot >= 0 {
			ns = ns[dot+1:]
		}
		out = append(out, ValidationError{
			Field:   prefix + ns,
			Message: tagMessage(fe),
			Value:   fe.Value(),
		})
	}
	return out
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "startswith":
		return fmt.Sprintf("must start with %q", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func prefixed(prefix string, errs []ValidationError) []ValidationError {
	for i := range errs {
		if errs[i].Field == "" {
			errs[i].Field = prefix
		} else {
			errs[i].Field = prefix + "." + errs[i].Field
		}
	}
	return errs
}
