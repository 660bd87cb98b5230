package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/bffgate/internal/fixtures"
	"evalgo.org/bffgate/models"
)

func TestClient_GetProject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/project", r.URL.Path)
		assert.Equal(t, "bff_key", r.Header.Get("X-API-Key"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ProjectResponse{Version: 3, Project: fixtures.Bookstore("")})
	}))
	defer srv.Close()

	c, err := New(srv.URL, "bff_key")
	require.NoError(t, err)

	resp, err := c.GetProject(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), resp.Version)
	assert.Equal(t, "bookstore", resp.Project.Name)
	assert.Len(t, resp.Project.RequestMappings, 3)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":400,"message":"Validation failed","field_errors":{"name":"required"}}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, "")
	require.NoError(t, err)

	_, err = c.ReplaceProject(context.Background(), models.NewProject(""))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "required", apiErr.FieldErrors["name"])
}

func TestClient_Execute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/execute/book-details", r.URL.Path)
		var body map[string]map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "b1", body["values"]["book_id"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.ExecutionReport{
			ID:         "exec:1",
			EndpointID: "book-details",
			Response:   map[string]interface{}{"title": "Dune"},
		})
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/", "")
	require.NoError(t, err)

	report, err := c.Execute(context.Background(), "book-details", map[string]interface{}{"book_id": "b1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Dune", report.Response["title"])
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New("", "")
	assert.Error(t, err)
}
