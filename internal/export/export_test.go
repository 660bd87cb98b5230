package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"evalgo.org/bffgate/internal/fixtures"
	"evalgo.org/bffgate/internal/project"
	"evalgo.org/bffgate/internal/scheduler"
	"evalgo.org/bffgate/models"
)

func TestBuild(t *testing.T) {
	b := Build(fixtures.Bookstore(""), scheduler.Options{})

	require.Len(t, b.Edges, 1)
	assert.Equal(t, models.EndpointRef{APIID: "catalog", EndpointID: "get-book"}, b.Edges[0].Source)
	assert.Equal(t, models.EndpointRef{APIID: "authors", EndpointID: "get-author"}, b.Edges[0].Target)

	assert.Equal(t, map[int][]string{
		0: {"get-book", "get-rating", "login"},
		1: {"get-author"},
	}, b.Plan.Levels())
	assert.Empty(t, b.Plan.Unresolved)
	assert.Contains(t, b.Generator, "bffgate")
}

func TestWrite_JSON(t *testing.T) {
	b := Build(fixtures.Bookstore(""), scheduler.Options{})

	var buf bytes.Buffer
	require.NoError(t, b.Write(&buf, project.FormatJSON))

	var decoded Bundle
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, b.Edges, decoded.Edges)
	assert.Equal(t, b.Project.RequestMappings, decoded.Project.RequestMappings)
	assert.Equal(t, b.Plan.Phases, decoded.Plan.Phases)
}

func TestWrite_YAML(t *testing.T) {
	b := Build(fixtures.Bookstore(""), scheduler.Options{})

	var buf bytes.Buffer
	require.NoError(t, b.Write(&buf, project.FormatYAML))

	var decoded Bundle
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, b.Edges, decoded.Edges)
	assert.Equal(t, b.Project.Name, decoded.Project.Name)
	assert.Contains(t, buf.String(), "sourceType: upstream")
}

func TestWrite_UnknownFormat(t *testing.T) {
	b := Build(fixtures.Bookstore(""), scheduler.Options{})
	assert.Error(t, b.Write(&bytes.Buffer{}, project.Format("toml")))
}
