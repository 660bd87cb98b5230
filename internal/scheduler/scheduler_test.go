package scheduler

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/bffgate/internal/graph"
	"evalgo.org/bffgate/models"
)

func refs(ids ...string) []models.EndpointRef {
	out := make([]models.EndpointRef, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.EndpointRef{APIID: "api", EndpointID: id})
	}
	return out
}

func dep(from, to string) models.RequestMapping {
	return models.RequestMapping{
		TargetAPIID:      "api",
		TargetEndpointID: to,
		TargetFieldID:    "in_" + from,
		Source:           models.UpstreamSource{APIID: "api", EndpointID: from, FieldPath: "id"},
	}
}

func compute(ids []string, mappings ...models.RequestMapping) *models.PhasePlan {
	return ComputePhases(graph.Build(refs(ids...), mappings), Options{})
}

func TestComputePhases_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		ids        []string
		mappings   []models.RequestMapping
		levels     map[int][]string
		unresolved []string
	}{
		{
			name:       "path parameter chained from previous response",
			ids:        []string{"A", "B"},
			mappings:   []models.RequestMapping{dep("A", "B")},
			levels:     map[int][]string{0: {"A"}, 1: {"B"}},
			unresolved: []string{},
		},
		{
			name:       "diamond shortcut uses longest path",
			ids:        []string{"A", "B", "C"},
			mappings:   []models.RequestMapping{dep("A", "B"), dep("B", "C"), dep("A", "C")},
			levels:     map[int][]string{0: {"A"}, 1: {"B"}, 2: {"C"}},
			unresolved: []string{},
		},
		{
			name:       "two node cycle",
			ids:        []string{"A", "B"},
			mappings:   []models.RequestMapping{dep("A", "B"), dep("B", "A")},
			levels:     map[int][]string{},
			unresolved: []string{"A", "B"},
		},
		{
			name:       "declaration order beats dependency order",
			ids:        []string{"C", "B", "A"},
			mappings:   []models.RequestMapping{dep("A", "B"), dep("B", "C")},
			levels:     map[int][]string{0: {"A"}, 1: {"B"}, 2: {"C"}},
			unresolved: []string{},
		},
		{
			name:       "independent endpoints share phase zero",
			ids:        []string{"X", "Y", "Z"},
			levels:     map[int][]string{0: {"X", "Y", "Z"}},
			unresolved: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := compute(tt.ids, tt.mappings...)
			assert.Equal(t, tt.levels, plan.Levels())
			assert.Equal(t, tt.unresolved, plan.UnresolvedIDs())
		})
	}
}

func TestComputePhases_CycleIsolation(t *testing.T) {
	// R is untouched, C1<->C2 is a cycle, D depends on the cycle, E depends on R.
	plan := compute(
		[]string{"R", "C1", "C2", "D", "E"},
		dep("C1", "C2"), dep("C2", "C1"), dep("C2", "D"), dep("R", "E"),
	)

	assert.Equal(t, map[int][]string{0: {"R"}, 1: {"E"}}, plan.Levels())
	require.Equal(t, []string{"C1", "C2", "D"}, plan.UnresolvedIDs())

	byID := map[string]models.UnresolvedEndpoint{}
	for _, u := range plan.Unresolved {
		byID[u.Ref.EndpointID] = u
	}
	assert.True(t, byID["C1"].InCycle)
	assert.True(t, byID["C2"].InCycle)
	assert.False(t, byID["D"].InCycle)
	assert.Equal(t, refs("C2"), byID["D"].BlockedBy)
}

func TestComputePhases_SelfLoop(t *testing.T) {
	plan := compute([]string{"A", "B"}, dep("A", "A"))

	assert.Equal(t, map[int][]string{0: {"B"}}, plan.Levels())
	require.Len(t, plan.Unresolved, 1)
	assert.True(t, plan.Unresolved[0].InCycle)
}

func TestComputePhases_PassBound(t *testing.T) {
	// Declared in reverse so each pass can only level one more endpoint.
	ids := []string{"D", "C", "B", "A"}
	mappings := []models.RequestMapping{dep("A", "B"), dep("B", "C"), dep("C", "D")}

	bounded := ComputePhases(graph.Build(refs(ids...), mappings), Options{MaxPasses: 2})
	assert.Equal(t, map[int][]string{0: {"A"}, 1: {"B"}}, bounded.Levels())
	assert.Equal(t, []string{"D", "C"}, bounded.UnresolvedIDs())
	for _, u := range bounded.Unresolved {
		assert.False(t, u.InCycle)
	}

	full := ComputePhases(graph.Build(refs(ids...), mappings), Options{})
	assert.Empty(t, full.Unresolved)
	assert.Len(t, full.Phases, 4)
}

func TestComputePhases_Idempotent(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	mappings := []models.RequestMapping{dep("a", "c"), dep("b", "c"), dep("c", "e"), dep("d", "e")}

	first := compute(ids, mappings...)
	second := compute(ids, mappings...)
	assert.Equal(t, first, second)
}

// randomDAG only adds edges from lower to higher index, so it is acyclic.
func randomDAG(r *rand.Rand, n int) ([]string, []models.RequestMapping) {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("n%02d", i)
	}
	var mappings []models.RequestMapping
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if r.Intn(4) == 0 {
				mappings = append(mappings, dep(ids[i], ids[j]))
			}
		}
	}
	// shuffle declaration order so it differs from dependency order
	r.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	return ids, mappings
}

func TestComputePhases_DAGProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for round := 0; round < 25; round++ {
		ids, mappings := randomDAG(r, 12)
		g := graph.Build(refs(ids...), mappings)
		plan := ComputePhases(g, Options{})

		require.Empty(t, plan.Unresolved, "round %d", round)

		seen := map[string]int{}
		for n, phase := range plan.Phases {
			require.NotEmpty(t, phase, "round %d phase %d", round, n)
			for _, ref := range phase {
				_, dup := seen[ref.EndpointID]
				require.False(t, dup, "round %d: %s appears twice", round, ref.EndpointID)
				seen[ref.EndpointID] = n
			}
		}
		require.Len(t, seen, len(ids))

		for _, e := range g.Edges() {
			src := g.Node(e.Source).Ref.EndpointID
			dst := g.Node(e.Target).Ref.EndpointID
			assert.Less(t, seen[src], seen[dst], "round %d edge %s->%s", round, src, dst)
		}
	}
}

func TestScheduler_Plan(t *testing.T) {
	p := models.NewProject("books")
	p.UpstreamApis = []models.UpstreamApi{{
		ID: "api", Name: "Books", BaseURL: "http://books.local",
		Endpoints: []models.UpstreamEndpoint{
			{ID: "A", Path: "/a", Method: "GET"},
			{ID: "B", Path: "/b/{id}", Method: "GET"},
		},
	}}
	p.RequestMappings = []models.RequestMapping{dep("A", "B")}

	plan, g := New(Options{}).Plan(p)
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, map[int][]string{0: {"A"}, 1: {"B"}}, plan.Levels())
}
