package models

// PhasePlan is the execution leveling of the upstream endpoints.
//
// Phases[n] holds the endpoints of phase n in insertion order. Endpoints that
// could not be leveled are never part of a numbered phase and are listed in
// Unresolved instead.
type PhasePlan struct {
	Phases     [][]EndpointRef      `json:"phases" yaml:"phases"`
	Unresolved []UnresolvedEndpoint `json:"unresolved" yaml:"unresolved"`

	// Passes is the number of leveling passes the scheduler performed
	Passes int `json:"passes" yaml:"passes"`
}

// UnresolvedEndpoint explains why an endpoint has no phase.
type UnresolvedEndpoint struct {
	Ref EndpointRef `json:"ref" yaml:"ref"`

	// InCycle is true when the endpoint can reach itself through its dependencies
	InCycle bool `json:"inCycle" yaml:"inCycle"`

	// BlockedBy lists the direct dependencies that never received a phase
	BlockedBy []EndpointRef `json:"blockedBy,omitempty" yaml:"blockedBy,omitempty"`
}

// PhaseOf returns the phase number of an endpoint.
func (p *PhasePlan) PhaseOf(endpointID string) (int, bool) {
	for n, phase := range p.Phases {
		for _, ref := range phase {
			if ref.EndpointID == endpointID {
				return n, true
			}
		}
	}
	return 0, false
}

// IsUnresolved reports whether the endpoint sits in the unresolved bucket.
func (p *PhasePlan) IsUnresolved(endpointID string) bool {
	for _, u := range p.Unresolved {
		if u.Ref.EndpointID == endpointID {
			return true
		}
	}
	return false
}

// Levels returns the plan as phase number -> endpoint IDs.
func (p *PhasePlan) Levels() map[int][]string {
	levels := make(map[int][]string, len(p.Phases))
	for n, phase := range p.Phases {
		ids := make([]string, 0, len(phase))
		for _, ref := range phase {
			ids = append(ids, ref.EndpointID)
		}
		levels[n] = ids
	}
	return levels
}

// UnresolvedIDs returns the endpoint IDs of the unresolved bucket.
func (p *PhasePlan) UnresolvedIDs() []string {
	ids := make([]string, 0, len(p.Unresolved))
	for _, u := range p.Unresolved {
		ids = append(ids, u.Ref.EndpointID)
	}
	return ids
}

// Restrict returns a plan holding only the endpoints accepted by keep.
// Phase numbers are preserved, so a restricted phase may be empty.
func (p *PhasePlan) Restrict(keep func(EndpointRef) bool) *PhasePlan {
	out := &PhasePlan{
		Phases:     make([][]EndpointRef, len(p.Phases)),
		Unresolved: []UnresolvedEndpoint{},
		Passes:     p.Passes,
	}
	for n, phase := range p.Phases {
		out.Phases[n] = []EndpointRef{}
		for _, ref := range phase {
			if keep(ref) {
				out.Phases[n] = append(out.Phases[n], ref)
			}
		}
	}
	for _, u := range p.Unresolved {
		if keep(u.Ref) {
			out.Unresolved = append(out.Unresolved, u)
		}
	}
	return out
}
