package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRequestMapping_DecodePublicSource(t *testing.T) {
	data := []byte(`{
		"targetApiId": "books",
		"targetEndpointId": "get-book",
		"targetFieldId": "id",
		"sourceType": "public",
		"sourcePublicFieldId": "bookId"
	}`)

	var m RequestMapping
	require.NoError(t, json.Unmarshal(data, &m))

	src, ok := m.Source.(PublicSource)
	require.True(t, ok, "expected PublicSource, got %T", m.Source)
	assert.Equal(t, "bookId", src.FieldID)
	assert.Equal(t, RequestTarget{EndpointID: "get-book", FieldID: "id"}, m.Key())

	_, chained := m.Upstream()
	assert.False(t, chained)
}

func TestRequestMapping_DecodeUpstreamSourceFromYAML(t *testing.T) {
	doc := `
targetApiId: reviews
targetEndpointId: list-reviews
targetFieldId: bookId
sourceType: upstream
sourceApiId: books
sourceEndpointId: get-book
sourceFieldPath: book.id
`
	var m RequestMapping
	require.NoError(t, yaml.Unmarshal([]byte(doc), &m))

	src, ok := m.Upstream()
	require.True(t, ok)
	assert.Equal(t, EndpointRef{APIID: "books", EndpointID: "get-book"}, src.Ref())
	assert.Equal(t, "book.id", src.FieldPath)
	assert.Equal(t, EndpointRef{APIID: "reviews", EndpointID: "list-reviews"}, m.Target())
}

func TestRequestMapping_RejectsAmbiguousSources(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "public with upstream fields",
			doc:  `{"targetFieldId":"f","sourceType":"public","sourcePublicFieldId":"p","sourceApiId":"a"}`,
		},
		{
			name: "public without field",
			doc:  `{"targetFieldId":"f","sourceType":"public"}`,
		},
		{
			name: "upstream missing path",
			doc:  `{"targetFieldId":"f","sourceType":"upstream","sourceApiId":"a","sourceEndpointId":"e"}`,
		},
		{
			name: "upstream with public field",
			doc:  `{"targetFieldId":"f","sourceType":"upstream","sourceApiId":"a","sourceEndpointId":"e","sourceFieldPath":"x","sourcePublicFieldId":"p"}`,
		},
		{
			name: "unknown type",
			doc:  `{"targetFieldId":"f","sourceType":"literal"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m RequestMapping
			err := json.Unmarshal([]byte(tt.doc), &m)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSource))
		})
	}
}

func TestRequestMapping_EncodesFlatDocument(t *testing.T) {
	m := RequestMapping{
		TargetAPIID:      "reviews",
		TargetEndpointID: "list-reviews",
		TargetFieldID:    "bookId",
		Source:           UpstreamSource{APIID: "books", EndpointID: "get-book", FieldPath: "id"},
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "upstream", doc["sourceType"])
	assert.Equal(t, "get-book", doc["sourceEndpointId"])
	assert.NotContains(t, doc, "sourcePublicFieldId")
}
