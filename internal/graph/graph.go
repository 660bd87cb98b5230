// Package graph derives the dependency graph between upstream endpoints from
// the request mappings of a project.
//
// Nodes live in an arena indexed by integer ids assigned in the declaration
// order of the upstream endpoints. An edge A -> B exists when some request
// field of B is sourced from a response field of A.
package graph

import (
	"evalgo.org/bffgate/models"
)

// NodeID is the arena index of a node.
type NodeID int

// Node is one upstream endpoint.
type Node struct {
	ID  NodeID
	Ref models.EndpointRef

	// Deps are the nodes this node reads from, in first-seen order
	Deps []NodeID

	// Dependents are the nodes reading from this node
	Dependents []NodeID
}

// Edge is a dependency from Source to Target.
type Edge struct {
	Source NodeID
	Target NodeID
}

// DanglingEdge is a request mapping naming an endpoint that is not part of the project.
type DanglingEdge struct {
	Mapping models.RequestMapping
	Missing models.EndpointRef
}

// Graph is an immutable dependency graph.
type Graph struct {
	nodes    []Node
	index    map[string]NodeID
	edges    []Edge
	dangling []DanglingEdge
}

// Build creates the graph over the given endpoints. Duplicate mappings between
// the same pair of endpoints produce a single edge.
func Build(endpoints []models.EndpointRef, mappings []models.RequestMapping) *Graph {
	g := &Graph{
		nodes: make([]Node, 0, len(endpoints)),
		index: make(map[string]NodeID, len(endpoints)),
	}

	for _, ref := range endpoints {
		if _, exists := g.index[ref.EndpointID]; exists {
			continue
		}
		id := NodeID(len(g.nodes))
		g.nodes = append(g.nodes, Node{ID: id, Ref: ref})
		g.index[ref.EndpointID] = id
	}

	seen := make(map[Edge]bool)
	for _, m := range mappings {
		src, ok := m.Upstream()
		if !ok {
			continue
		}

		target, targetOK := g.index[m.TargetEndpointID]
		source, sourceOK := g.index[src.EndpointID]
		if !targetOK {
			g.dangling = append(g.dangling, DanglingEdge{Mapping: m, Missing: m.Target()})
			continue
		}
		if !sourceOK {
			g.dangling = append(g.dangling, DanglingEdge{Mapping: m, Missing: src.Ref()})
			continue
		}

		e := Edge{Source: source, Target: target}
		if seen[e] {
			continue
		}
		seen[e] = true
		g.edges = append(g.edges, e)
		g.nodes[target].Deps = append(g.nodes[target].Deps, source)
		g.nodes[source].Dependents = append(g.nodes[source].Dependents, target)
	}

	return g
}

// FromProject builds the graph for a project snapshot.
func FromProject(p *models.Project) *Graph {
	return Build(p.UpstreamRefs(), p.RequestMappings)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Nodes returns the nodes in arena order.
func (g *Graph) Nodes() []Node {
	return g.nodes
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) Node {
	return g.nodes[id]
}

// Lookup returns the node id of an endpoint.
func (g *Graph) Lookup(endpointID string) (NodeID, bool) {
	id, ok := g.index[endpointID]
	return id, ok
}

// Edges returns every edge in mapping order.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// Dangling returns the mappings that could not become edges.
func (g *Graph) Dangling() []DanglingEdge {
	return g.dangling
}

// Roots returns the nodes without dependencies.
func (g *Graph) Roots() []NodeID {
	var roots []NodeID
	for _, n := range g.nodes {
		if len(n.Deps) == 0 {
			roots = append(roots, n.ID)
		}
	}
	return roots
}

// DependenciesOf returns the transitive dependency closure of the given nodes,
// including the nodes themselves.
func (g *Graph) DependenciesOf(start ...NodeID) map[NodeID]bool {
	closure := make(map[NodeID]bool, len(start))
	stack := append([]NodeID(nil), start...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if closure[id] {
			continue
		}
		closure[id] = true
		stack = append(stack, g.nodes[id].Deps...)
	}
	return closure
}

// DependentsOf returns every node that transitively reads from id, excluding id
// unless it lies on a cycle through itself.
func (g *Graph) DependentsOf(id NodeID) map[NodeID]bool {
	out := make(map[NodeID]bool)
	stack := append([]NodeID(nil), g.nodes[id].Dependents...)
	for len(stack) > 0 {
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if out[next] {
			continue
		}
		out[next] = true
		stack = append(stack, g.nodes[next].Dependents...)
	}
	return out
}

// EdgeRefs returns the edges as endpoint references, for export.
func (g *Graph) EdgeRefs() [][2]models.EndpointRef {
	out := make([][2]models.EndpointRef, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, [2]models.EndpointRef{g.nodes[e.Source].Ref, g.nodes[e.Target].Ref})
	}
	return out
}
