package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	body := []byte(`{"book":{"title":"Dune","year":1965,"tags":["sf","classic"],"meta":null},"a*b":{"c?":"odd"}}`)

	tests := []struct {
		name  string
		path  string
		want  interface{}
		found bool
	}{
		{"nested string", "book.title", "Dune", true},
		{"number", "book.year", float64(1965), true},
		{"array index", "book.tags.1", "classic", true},
		{"explicit null", "book.meta", nil, true},
		{"missing leaf", "book.isbn", nil, false},
		{"missing intermediate", "author.name", nil, false},
		{"through scalar", "book.title.length", nil, false},
		{"special characters are literal", "a*b.c?", "odd", true},
		{"wildcard does not match", "b*.title", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Get(body, tt.path)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGet_WholeDocumentAndInvalid(t *testing.T) {
	got, ok := Get([]byte(`{"id":"42"}`), "")
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"id": "42"}, got)

	_, ok = Get([]byte(`not json`), "id")
	assert.False(t, ok)

	_, ok = Get(nil, "id")
	assert.False(t, ok)
}

func TestSet(t *testing.T) {
	body, err := Set(nil, "filter.author.id", "42")
	require.NoError(t, err)
	assert.JSONEq(t, `{"filter":{"author":{"id":"42"}}}`, string(body))

	body, err = Set(body, "limit", 10)
	require.NoError(t, err)
	assert.JSONEq(t, `{"filter":{"author":{"id":"42"}},"limit":10}`, string(body))

	v, ok := Get(body, "filter.author.id")
	assert.True(t, ok)
	assert.Equal(t, "42", v)
}
