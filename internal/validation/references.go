package validation

import (
	"fmt"
	"strings"
	"unicode"

	"evalgo.org/bffgate/models"
)

func uniqueIDs(p *models.Project) []ValidationError {
	var errs []ValidationError

	publicIDs := map[string]bool{}
	for i, ep := range p.PublicEndpoints {
		field := fmt.Sprintf("publicEndpoints[%d]", i)
		if publicIDs[ep.ID] {
			errs = append(errs, ValidationError{Field: field + ".id", Message: "duplicate public endpoint id", Value: ep.ID})
		}
		publicIDs[ep.ID] = true
		errs = append(errs, uniqueFieldIDs(field+".requestSchema", ep.RequestSchema)...)
		errs = append(errs, uniqueFieldIDs(field+".responseSchema", ep.ResponseSchema)...)
	}

	apiIDs := map[string]bool{}
	endpointIDs := map[string]bool{}
	for i, api := range p.UpstreamApis {
		field := fmt.Sprintf("upstreamApis[%d]", i)
		if apiIDs[api.ID] {
			errs = append(errs, ValidationError{Field: field + ".id", Message: "duplicate upstream api id", Value: api.ID})
		}
		apiIDs[api.ID] = true

		for j, ep := range api.Endpoints {
			epField := fmt.Sprintf("%s.endpoints[%d]", field, j)
			if endpointIDs[ep.ID] {
				errs = append(errs, ValidationError{
					Field:   epField + ".id",
					Message: "upstream endpoint id must be unique across the project",
					Value:   ep.ID,
				})
			}
			endpointIDs[ep.ID] = true
			errs = append(errs, uniqueFieldIDs(epField+".requestFields", ep.RequestFields)...)
			errs = append(errs, uniqueFieldIDs(epField+".responseFields", ep.ResponseFields)...)
		}
	}

	return errs
}

func uniqueFieldIDs(field string, fields []models.Field) []ValidationError {
	var errs []ValidationError
	seen := map[string]bool{}
	for i, f := range fields {
		if f.ID == "" {
			continue
		}
		if seen[f.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s[%d].id", field, i),
				Message: "duplicate field id within schema",
				Value:   f.ID,
			})
		}
		seen[f.ID] = true
	}
	return errs
}

func responseMappingRefs(p *models.Project, m models.ResponseMapping) []ValidationError {
	var errs []ValidationError
	if _, ok := p.ResponseFieldOwner(m.TargetFieldID); !ok {
		errs = append(errs, ValidationError{
			Field:   "targetFieldId",
			Message: "does not reference a public response field",
			Value:   m.TargetFieldID,
		})
	}
	if _, _, ok := p.FindUpstream(m.Source()); !ok {
		errs = append(errs, ValidationError{
			Field:   "sourceEndpointId",
			Message: "does not reference an upstream endpoint",
			Value:   m.Source().String(),
		})
	}
	return errs
}

// requestMappingShape checks the mapping on its own, without the project.
func requestMappingShape(m models.RequestMapping) []ValidationError {
	var errs []ValidationError
	if m.TargetAPIID == "" {
		errs = append(errs, ValidationError{Field: "targetApiId", Message: "is required"})
	}
	if m.TargetEndpointID == "" {
		errs = append(errs, ValidationError{Field: "targetEndpointId", Message: "is required"})
	}
	if m.TargetFieldID == "" {
		errs = append(errs, ValidationError{Field: "targetFieldId", Message: "is required"})
	}

	switch src := m.Source.(type) {
	case models.PublicSource:
		if src.FieldID == "" {
			errs = append(errs, ValidationError{Field: "sourcePublicFieldId", Message: "is required"})
		}
	case models.UpstreamSource:
		if src.APIID == "" || src.EndpointID == "" || src.FieldPath == "" {
			errs = append(errs, ValidationError{
				Field:   "source",
				Message: "upstream source requires sourceApiId, sourceEndpointId and sourceFieldPath",
			})
		}
		if src.APIID == m.TargetAPIID && src.EndpointID == m.TargetEndpointID {
			errs = append(errs, ValidationError{
				Field:   "sourceEndpointId",
				Message: "an endpoint cannot read its own response",
				Value:   src.Ref().String(),
			})
		}
	case nil:
		errs = append(errs, ValidationError{Field: "sourceType", Message: "is required"})
	}
	return errs
}

func requestMappingRefs(p *models.Project, m models.RequestMapping) []ValidationError {
	var errs []ValidationError

	_, target, ok := p.FindUpstream(m.Target())
	if !ok {
		errs = append(errs, ValidationError{
			Field:   "targetEndpointId",
			Message: "does not reference an upstream endpoint",
			Value:   m.Target().String(),
		})
	} else if _, ok := models.FindField(target.RequestFields, m.TargetFieldID); !ok {
		errs = append(errs, ValidationError{
			Field:   "targetFieldId",
			Message: "does not reference a request field of the target endpoint",
			Value:   m.TargetFieldID,
		})
	}

	switch src := m.Source.(type) {
	case models.PublicSource:
		if !publicRequestFieldExists(p, src.FieldID) {
			errs = append(errs, ValidationError{
				Field:   "sourcePublicFieldId",
				Message: "does not reference a public request field",
				Value:   src.FieldID,
			})
		}
	case models.UpstreamSource:
		if _, _, ok := p.FindUpstream(src.Ref()); !ok {
			errs = append(errs, ValidationError{
				Field:   "sourceEndpointId",
				Message: "does not reference an upstream endpoint",
				Value:   src.Ref().String(),
			})
		}
	}
	return errs
}

func publicRequestFieldExists(p *models.Project, fieldID string) bool {
	for _, ep := range p.PublicEndpoints {
		if _, ok := models.FindField(ep.RequestSchema, fieldID); ok {
			return true
		}
	}
	return false
}

func securityRefs(p *models.Project, sc models.SecurityConfig) []ValidationError {
	var errs []ValidationError

	if sc.Enabled {
		if sc.AuthAPIID == "" || sc.AuthEndpointID == "" {
			errs = append(errs, ValidationError{
				Field:   "authEndpointId",
				Message: "an auth endpoint is required when security is enabled",
			})
		} else if _, _, ok := p.FindUpstream(sc.AuthRef()); !ok {
			errs = append(errs, ValidationError{
				Field:   "authEndpointId",
				Message: "does not reference an upstream endpoint",
				Value:   sc.AuthRef().String(),
			})
		}
	}

	ids := map[string]bool{}
	for i, cm := range sc.ClaimsMapping {
		field := fmt.Sprintf("claimsMapping[%d]", i)
		if ids[cm.ID] {
			errs = append(errs, ValidationError{Field: field + ".id", Message: "duplicate claim mapping id", Value: cm.ID})
		}
		ids[cm.ID] = true
		errs = append(errs, prefixed(field, claimNameErrors(cm.ClaimName))...)
	}
	return errs
}

// claimNameErrors rejects claim names that are not a single token.
func claimNameErrors(name string) []ValidationError {
	if name == "" {
		return nil // reported by the required tag
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return []ValidationError{{Field: "claimName", Message: "must not contain whitespace", Value: name}}
	}
	return nil
}
