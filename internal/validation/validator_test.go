package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/bffgate/internal/fixtures"
	"evalgo.org/bffgate/models"
)

func hasError(result *ValidationResult, field string) bool {
	for _, e := range result.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestNew(t *testing.T) {
	v := New()
	assert.NotNil(t, v)
	assert.NotNil(t, v.structValidator)
}

func TestValidateProject_Valid(t *testing.T) {
	result := New().ValidateProject(fixtures.Bookstore(""))
	assert.True(t, result.Valid, "%+v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.NoError(t, result.Err())
}

func TestValidateProject_StructRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *models.Project)
		field  string
	}{
		{
			name:   "bad method",
			mutate: func(p *models.Project) { p.PublicEndpoints[0].Method = "PATCH" },
			field:  "publicEndpoints[0].method",
		},
		{
			name:   "bad field type",
			mutate: func(p *models.Project) { p.PublicEndpoints[0].ResponseSchema[0].Type = "date" },
			field:  "publicEndpoints[0].responseSchema[0].type",
		},
		{
			name:   "bad location",
			mutate: func(p *models.Project) { p.UpstreamApis[0].Endpoints[0].RequestFields[0].Location = "cookie" },
			field:  "upstreamApis[0].endpoints[0].requestFields[0].in",
		},
		{
			name:   "zero token lifetime",
			mutate: func(p *models.Project) { p.SecurityConfig.TokenExpirationSeconds = 0 },
			field:  "securityConfig.tokenExpirationSeconds",
		},
		{
			name:   "missing base url",
			mutate: func(p *models.Project) { p.UpstreamApis[1].BaseURL = "" },
			field:  "upstreamApis[1].baseUrl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fixtures.Bookstore("")
			tt.mutate(p)
			result := New().ValidateProject(p)
			assert.False(t, result.Valid)
			assert.True(t, hasError(result, tt.field), "expected error on %s, got %+v", tt.field, result.Errors)
		})
	}
}

func TestValidateProject_CrossReferences(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *models.Project)
		field  string
	}{
		{
			name: "duplicate upstream endpoint id across apis",
			mutate: func(p *models.Project) {
				p.UpstreamApis[1].Endpoints[0].ID = "get-book"
			},
			field: "upstreamApis[1].endpoints[0].id",
		},
		{
			name: "duplicate field id in schema",
			mutate: func(p *models.Project) {
				p.PublicEndpoints[0].ResponseSchema[1].ID = "title"
			},
			field: "publicEndpoints[0].responseSchema[1].id",
		},
		{
			name: "response mapping to deleted field",
			mutate: func(p *models.Project) {
				p.PublicEndpoints[0].ResponseSchema = p.PublicEndpoints[0].ResponseSchema[:2]
			},
			field: "responseMappings[2].targetFieldId",
		},
		{
			name: "request mapping from unknown public field",
			mutate: func(p *models.Project) {
				p.RequestMappings[0].Source = models.PublicSource{FieldID: "isbn"}
			},
			field: "requestMappings[0].sourcePublicFieldId",
		},
		{
			name: "request mapping to unknown target field",
			mutate: func(p *models.Project) {
				p.RequestMappings[2].TargetFieldID = "nope"
			},
			field: "requestMappings[2].targetFieldId",
		},
		{
			name: "self referencing chain",
			mutate: func(p *models.Project) {
				p.RequestMappings[1].Source = models.UpstreamSource{APIID: "authors", EndpointID: "get-author", FieldPath: "author.id"}
			},
			field: "requestMappings[1].sourceEndpointId",
		},
		{
			name: "duplicate request target",
			mutate: func(p *models.Project) {
				p.RequestMappings = append(p.RequestMappings, p.RequestMappings[0])
			},
			field: "requestMappings[3]",
		},
		{
			name: "security enabled without auth endpoint",
			mutate: func(p *models.Project) {
				p.SecurityConfig.Enabled = true
				p.SecurityConfig.AuthEndpointID = "missing"
			},
			field: "securityConfig.authEndpointId",
		},
		{
			name: "claim name with whitespace",
			mutate: func(p *models.Project) {
				p.SecurityConfig.ClaimsMapping[0].ClaimName = "user id"
			},
			field: "securityConfig.claimsMapping[0].claimName",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fixtures.Bookstore("")
			tt.mutate(p)
			result := New().ValidateProject(p)
			assert.False(t, result.Valid)
			assert.True(t, hasError(result, tt.field), "expected error on %s, got %+v", tt.field, result.Errors)
		})
	}
}

func TestValidateRequestMapping_SelfLoop(t *testing.T) {
	p := fixtures.Bookstore("")
	m := models.RequestMapping{
		TargetAPIID: "catalog", TargetEndpointID: "get-book", TargetFieldID: "catalog_book_id",
		Source: models.UpstreamSource{APIID: "catalog", EndpointID: "get-book", FieldPath: "book.id"},
	}

	result := New().ValidateRequestMapping(p, m)
	require.False(t, result.Valid)
	assert.True(t, hasError(result, "sourceEndpointId"))

	err := result.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.NotEmpty(t, verr.Errors)
}

func TestValidateResponseMapping(t *testing.T) {
	p := fixtures.Bookstore("")
	v := New()

	ok := v.ValidateResponseMapping(p, models.ResponseMapping{
		TargetFieldID: "title", SourceAPIID: "reviews", SourceEndpointID: "get-rating", SourceFieldPath: "bookTitle",
	})
	assert.True(t, ok.Valid)

	bad := v.ValidateResponseMapping(p, models.ResponseMapping{
		TargetFieldID: "title", SourceAPIID: "reviews", SourceEndpointID: "nope",
	})
	assert.False(t, bad.Valid)
	assert.True(t, hasError(bad, "sourceEndpointId"))
	assert.True(t, hasError(bad, "sourceFieldPath"))
}

func TestValidateClaimMapping(t *testing.T) {
	v := New()
	assert.True(t, v.ValidateClaimMapping(models.ClaimMapping{ID: "c1", ClaimName: "role", SourceFieldPath: "user.role"}).Valid)

	result := v.ValidateClaimMapping(models.ClaimMapping{ID: "c1", SourceFieldPath: "user.role"})
	assert.False(t, result.Valid)
	assert.True(t, hasError(result, "claimName"))
}

func TestValidateProjectJSON(t *testing.T) {
	data, err := json.Marshal(fixtures.Bookstore(""))
	require.NoError(t, err)

	result, err := New().ValidateProjectJSON(data)
	require.NoError(t, err)
	assert.True(t, result.Valid, "%+v", result.Errors)

	result, err = New().ValidateProjectJSON([]byte(`{"publicEndpoints": [`))
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, "document", result.Errors[0].Field)
}
