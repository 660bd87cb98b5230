package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/bffgate/models"
)

func ref(id string) models.EndpointRef {
	return models.EndpointRef{APIID: "api", EndpointID: id}
}

func chain(from, to string) models.RequestMapping {
	return models.RequestMapping{
		TargetAPIID:      "api",
		TargetEndpointID: to,
		TargetFieldID:    from + "_id",
		Source:           models.UpstreamSource{APIID: "api", EndpointID: from, FieldPath: "id"},
	}
}

func TestBuild_NodesInDeclarationOrder(t *testing.T) {
	g := Build([]models.EndpointRef{ref("a"), ref("b"), ref("c")}, nil)

	require.Equal(t, 3, g.Len())
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, NodeID(i), g.Nodes()[i].ID)
		assert.Equal(t, want, g.Nodes()[i].Ref.EndpointID)
	}
	assert.Len(t, g.Roots(), 3)
	assert.Empty(t, g.Edges())
}

func TestBuild_EdgesMirrorUpstreamMappings(t *testing.T) {
	public := models.RequestMapping{
		TargetAPIID: "api", TargetEndpointID: "b", TargetFieldID: "q",
		Source: models.PublicSource{FieldID: "q"},
	}
	g := Build(
		[]models.EndpointRef{ref("a"), ref("b"), ref("c")},
		[]models.RequestMapping{chain("a", "b"), public, chain("b", "c"), chain("a", "c"), chain("a", "c")},
	)

	a, _ := g.Lookup("a")
	b, _ := g.Lookup("b")
	c, _ := g.Lookup("c")

	assert.Equal(t, []Edge{{a, b}, {b, c}, {a, c}}, g.Edges())
	assert.Equal(t, []NodeID{a}, g.Roots())
	assert.Equal(t, []NodeID{b, a}, g.Node(c).Deps)
	assert.Equal(t, []NodeID{b, c}, g.Node(a).Dependents)
}

func TestBuild_DanglingMappings(t *testing.T) {
	g := Build([]models.EndpointRef{ref("a")}, []models.RequestMapping{chain("ghost", "a"), chain("a", "missing")})

	require.Len(t, g.Dangling(), 2)
	assert.Equal(t, "ghost", g.Dangling()[0].Missing.EndpointID)
	assert.Equal(t, "missing", g.Dangling()[1].Missing.EndpointID)
	assert.Empty(t, g.Edges())
}

func TestClosures(t *testing.T) {
	g := Build(
		[]models.EndpointRef{ref("a"), ref("b"), ref("c"), ref("d")},
		[]models.RequestMapping{chain("a", "b"), chain("b", "c")},
	)
	a, _ := g.Lookup("a")
	b, _ := g.Lookup("b")
	c, _ := g.Lookup("c")
	d, _ := g.Lookup("d")

	assert.Equal(t, map[NodeID]bool{a: true, b: true, c: true}, g.DependenciesOf(c))
	assert.Equal(t, map[NodeID]bool{d: true}, g.DependenciesOf(d))
	assert.Equal(t, map[NodeID]bool{b: true, c: true}, g.DependentsOf(a))
	assert.Empty(t, g.DependentsOf(c))
}
