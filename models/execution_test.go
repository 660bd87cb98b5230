package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointStatus_Transitions(t *testing.T) {
	tests := []struct {
		from EndpointStatus
		to   EndpointStatus
		want bool
	}{
		{StatusPending, StatusRunning, true},
		{StatusPending, StatusSkipped, true},
		{StatusPending, StatusSucceeded, false},
		{StatusRunning, StatusSucceeded, true},
		{StatusRunning, StatusFailed, true},
		{StatusRunning, StatusSkipped, false},
		{StatusSucceeded, StatusFailed, false},
		{StatusSkipped, StatusRunning, false},
		{StatusFailed, StatusRunning, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestEndpointResult_TransitionStampsTimes(t *testing.T) {
	r := &EndpointResult{Ref: EndpointRef{APIID: "a", EndpointID: "e"}, Status: StatusPending}
	start := time.Now()

	require.NoError(t, r.Transition(StatusRunning, start))
	require.NotNil(t, r.StartedAt)
	assert.Nil(t, r.CompletedAt)

	require.NoError(t, r.Transition(StatusFailed, start.Add(time.Second)))
	require.NotNil(t, r.CompletedAt)
	assert.True(t, r.Status.Blocks())

	err := r.Transition(StatusRunning, start)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestSecurityConfig_ProviderChangeClearsClaims(t *testing.T) {
	cfg := DefaultSecurityConfig()
	assert.Equal(t, DefaultTokenExpirationSeconds, cfg.TokenExpirationSeconds)
	assert.Len(t, cfg.ClaimsMapping, 2)

	changed := cfg.WithAuthProvider("identity", "login")
	assert.Empty(t, changed.ClaimsMapping)
	assert.Equal(t, EndpointRef{APIID: "identity", EndpointID: "login"}, changed.AuthRef())

	changed.ClaimsMapping = append(changed.ClaimsMapping, ClaimMapping{ID: "c1", ClaimName: "sub", SourceFieldPath: "user.id"})
	same := changed.WithAuthProvider("identity", "login")
	assert.Len(t, same.ClaimsMapping, 1, "re-selecting the same provider keeps claims")
}

func TestProject_CloneIsIndependent(t *testing.T) {
	p := NewProject("shop")
	p.UpstreamApis = []UpstreamApi{{
		ID: "books", Name: "Books", BaseURL: "http://books",
		Endpoints: []UpstreamEndpoint{{ID: "get-book", Method: "GET", Path: "/books/{id}",
			RequestFields: []Field{{ID: "id", Name: "id", Type: FieldTypeString, Location: LocationPath}}}},
	}}
	p.RequestMappings = []RequestMapping{{TargetAPIID: "books", TargetEndpointID: "get-book", TargetFieldID: "id", Source: PublicSource{FieldID: "bookId"}}}

	c := p.Clone()
	c.UpstreamApis[0].Endpoints[0].RequestFields[0].Name = "changed"
	c.RequestMappings[0].TargetFieldID = "other"
	c.SecurityConfig.ClaimsMapping[0].ClaimName = "changed"

	assert.Equal(t, "id", p.UpstreamApis[0].Endpoints[0].RequestFields[0].Name)
	assert.Equal(t, "id", p.RequestMappings[0].TargetFieldID)
	assert.Equal(t, "sub", p.SecurityConfig.ClaimsMapping[0].ClaimName)
}

func TestPhasePlan_RestrictKeepsPhaseNumbers(t *testing.T) {
	a := EndpointRef{APIID: "x", EndpointID: "a"}
	b := EndpointRef{APIID: "x", EndpointID: "b"}
	c := EndpointRef{APIID: "x", EndpointID: "c"}
	plan := &PhasePlan{
		Phases:     [][]EndpointRef{{a}, {b}, {c}},
		Unresolved: []UnresolvedEndpoint{{Ref: EndpointRef{APIID: "x", EndpointID: "d"}, InCycle: true}},
	}

	restricted := plan.Restrict(func(r EndpointRef) bool { return r.EndpointID != "b" })

	n, ok := restricted.PhaseOf("c")
	require.True(t, ok)
	assert.Equal(t, 2, n)
	assert.Empty(t, restricted.Phases[1])
	assert.True(t, restricted.IsUnresolved("d"))
	assert.Equal(t, map[int][]string{0: {"a"}, 1: {}, 2: {"c"}}, restricted.Levels())
}
