// Package mapping indexes the response and request mappings of a project and
// implements the replace-on-write rule used when mappings are edited.
//
// A Resolver is built from a snapshot and never changes afterwards; callers
// that edit mappings build a new Resolver from the updated mapping set.
package mapping

import "evalgo.org/bffgate/models"

// Resolver answers "where does this target field get its value from".
type Resolver struct {
	response map[string]models.ResponseMapping
	request  map[models.RequestTarget]models.RequestMapping
	byTarget map[string][]models.RequestMapping
}

// NewResolver indexes the given mappings. When several mappings share a
// target, the one that comes last wins.
func NewResolver(response []models.ResponseMapping, request []models.RequestMapping) *Resolver {
	r := &Resolver{
		response: make(map[string]models.ResponseMapping, len(response)),
		request:  make(map[models.RequestTarget]models.RequestMapping, len(request)),
		byTarget: make(map[string][]models.RequestMapping),
	}
	for _, m := range response {
		r.response[m.TargetFieldID] = m
	}
	for _, m := range request {
		r.request[m.Key()] = m
	}
	// second pass keeps per-endpoint lists in insertion order without duplicates
	seen := make(map[models.RequestTarget]bool, len(r.request))
	for i := len(request) - 1; i >= 0; i-- {
		m := request[i]
		if seen[m.Key()] {
			continue
		}
		seen[m.Key()] = true
		r.byTarget[m.TargetEndpointID] = append([]models.RequestMapping{m}, r.byTarget[m.TargetEndpointID]...)
	}
	return r
}

// ForProject builds a resolver over a project's mappings.
func ForProject(p *models.Project) *Resolver {
	return NewResolver(p.ResponseMappings, p.RequestMappings)
}

// ResponseMappingFor returns the mapping feeding a public response field.
func (r *Resolver) ResponseMappingFor(targetFieldID string) (models.ResponseMapping, bool) {
	m, ok := r.response[targetFieldID]
	return m, ok
}

// RequestMappingFor returns the mapping feeding an upstream request field.
func (r *Resolver) RequestMappingFor(target models.RequestTarget) (models.RequestMapping, bool) {
	m, ok := r.request[target]
	return m, ok
}

// RequestMappingsFor returns every mapping targeting fields of one upstream endpoint.
func (r *Resolver) RequestMappingsFor(endpointID string) []models.RequestMapping {
	return r.byTarget[endpointID]
}

// ResponseCount returns the number of distinct response targets.
func (r *Resolver) ResponseCount() int {
	return len(r.response)
}

// RequestCount returns the number of distinct request targets.
func (r *Resolver) RequestCount() int {
	return len(r.request)
}
