package models

// Project is the aggregate root handed to the scheduler, the aggregation
// engine and the artifact emitter. A *Project obtained from the store is a
// snapshot: nothing mutates it after it has been handed out.
type Project struct {
	Name             string            `json:"name" yaml:"name"`
	PublicEndpoints  []Endpoint        `json:"publicEndpoints" yaml:"publicEndpoints" validate:"dive"`
	UpstreamApis     []UpstreamApi     `json:"upstreamApis" yaml:"upstreamApis" validate:"dive"`
	ResponseMappings []ResponseMapping `json:"responseMappings" yaml:"responseMappings" validate:"dive"`
	RequestMappings  []RequestMapping  `json:"requestMappings" yaml:"requestMappings"`
	SecurityConfig   SecurityConfig    `json:"securityConfig" yaml:"securityConfig"`
}

// NewProject returns an empty project with the default security configuration.
func NewProject(name string) *Project {
	return &Project{
		Name:             name,
		PublicEndpoints:  []Endpoint{},
		UpstreamApis:     []UpstreamApi{},
		ResponseMappings: []ResponseMapping{},
		RequestMappings:  []RequestMapping{},
		SecurityConfig:   DefaultSecurityConfig(),
	}
}

// FindPublicEndpoint returns the public endpoint with the given ID.
func (p *Project) FindPublicEndpoint(id string) (*Endpoint, bool) {
	for i := range p.PublicEndpoints {
		if p.PublicEndpoints[i].ID == id {
			return &p.PublicEndpoints[i], true
		}
	}
	return nil, false
}

// FindApi returns the upstream API with the given ID.
func (p *Project) FindApi(id string) (*UpstreamApi, bool) {
	for i := range p.UpstreamApis {
		if p.UpstreamApis[i].ID == id {
			return &p.UpstreamApis[i], true
		}
	}
	return nil, false
}

// FindUpstream resolves an endpoint reference to its API and endpoint.
func (p *Project) FindUpstream(ref EndpointRef) (*UpstreamApi, *UpstreamEndpoint, bool) {
	api, ok := p.FindApi(ref.APIID)
	if !ok {
		return nil, nil, false
	}
	ep, ok := api.FindEndpoint(ref.EndpointID)
	if !ok {
		return nil, nil, false
	}
	return api, ep, true
}

// UpstreamRefs lists every upstream endpoint in declaration order.
func (p *Project) UpstreamRefs() []EndpointRef {
	var refs []EndpointRef
	for _, api := range p.UpstreamApis {
		for _, ep := range api.Endpoints {
			refs = append(refs, EndpointRef{APIID: api.ID, EndpointID: ep.ID})
		}
	}
	return refs
}

// ResponseFieldOwner returns the public endpoint whose response schema holds the field.
func (p *Project) ResponseFieldOwner(fieldID string) (*Endpoint, bool) {
	for i := range p.PublicEndpoints {
		if _, ok := FindField(p.PublicEndpoints[i].ResponseSchema, fieldID); ok {
			return &p.PublicEndpoints[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the project.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := &Project{
		Name:             p.Name,
		PublicEndpoints:  make([]Endpoint, len(p.PublicEndpoints)),
		UpstreamApis:     make([]UpstreamApi, len(p.UpstreamApis)),
		ResponseMappings: append([]ResponseMapping{}, p.ResponseMappings...),
		RequestMappings:  append([]RequestMapping{}, p.RequestMappings...),
		SecurityConfig:   p.SecurityConfig,
	}
	for i, ep := range p.PublicEndpoints {
		ep.RequestSchema = append([]Field{}, ep.RequestSchema...)
		ep.ResponseSchema = append([]Field{}, ep.ResponseSchema...)
		c.PublicEndpoints[i] = ep
	}
	for i, api := range p.UpstreamApis {
		eps := make([]UpstreamEndpoint, len(api.Endpoints))
		for j, ep := range api.Endpoints {
			ep.RequestFields = append([]Field{}, ep.RequestFields...)
			ep.ResponseFields = append([]Field{}, ep.ResponseFields...)
			eps[j] = ep
		}
		api.Endpoints = eps
		c.UpstreamApis[i] = api
	}
	c.SecurityConfig.ClaimsMapping = append([]ClaimMapping{}, p.SecurityConfig.ClaimsMapping...)
	return c
}
