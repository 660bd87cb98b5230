// Package fixtures provides a complete sample project used by `bffgate project init`
// and by tests across the module.
package fixtures

import "evalgo.org/bffgate/models"

// Bookstore returns a project with one public endpoint aggregating three
// upstream APIs, one chained call and an auth provider.
//
// Phase plan: catalog/get-book, reviews/get-rating and identity/login in
// phase 0; authors/get-author in phase 1 (it reads the author id from the
// catalog response).
//
// baseURL replaces every upstream base URL when non-empty, so tests can point
// all APIs at a single httptest server.
func Bookstore(baseURL string) *models.Project {
	base := func(def string) string {
		if baseURL != "" {
			return baseURL
		}
		return def
	}

	p := models.NewProject("bookstore")

	p.PublicEndpoints = []models.Endpoint{{
		ID:          "book-details",
		Path:        "/books/{id}",
		Method:      models.MethodGet,
		Description: "Book with author and rating",
		RequestSchema: []models.Field{
			{ID: "book_id", Name: "id", Type: models.FieldTypeString, Location: models.LocationPath},
		},
		ResponseSchema: []models.Field{
			{ID: "title", Name: "title", Type: models.FieldTypeString},
			{ID: "author", Name: "author", Type: models.FieldTypeString},
			{ID: "rating", Name: "rating", Type: models.FieldTypeNumber},
		},
	}}

	p.UpstreamApis = []models.UpstreamApi{
		{
			ID: "catalog", Name: "Catalog", BaseURL: base("http://catalog.local"),
			Endpoints: []models.UpstreamEndpoint{{
				ID: "get-book", Path: "/catalog/books/{bookId}", Method: "GET",
				RequestFields: []models.Field{
					{ID: "catalog_book_id", Name: "bookId", Type: models.FieldTypeString, Location: models.LocationPath},
				},
				ResponseFields: []models.Field{
					{ID: "catalog_title", Name: "title", Type: models.FieldTypeString, Path: "book.title"},
					{ID: "catalog_author_id", Name: "authorId", Type: models.FieldTypeString, Path: "book.authorId"},
				},
			}},
		},
		{
			ID: "authors", Name: "Authors", BaseURL: base("http://authors.local"),
			Endpoints: []models.UpstreamEndpoint{{
				ID: "get-author", Path: "/authors/{authorId}", Method: "GET",
				RequestFields: []models.Field{
					{ID: "authors_author_id", Name: "authorId", Type: models.FieldTypeString, Location: models.LocationPath},
				},
				ResponseFields: []models.Field{
					{ID: "authors_name", Name: "name", Type: models.FieldTypeString, Path: "author.name"},
				},
			}},
		},
		{
			ID: "reviews", Name: "Reviews", BaseURL: base("http://reviews.local"),
			Endpoints: []models.UpstreamEndpoint{{
				ID: "get-rating", Path: "/ratings", Method: "GET",
				RequestFields: []models.Field{
					{ID: "reviews_book_id", Name: "bookId", Type: models.FieldTypeString, Location: models.LocationQuery},
				},
				ResponseFields: []models.Field{
					{ID: "reviews_average", Name: "average", Type: models.FieldTypeNumber},
				},
			}},
		},
		{
			ID: "identity", Name: "Identity", BaseURL: base("http://identity.local"),
			Endpoints: []models.UpstreamEndpoint{{
				ID: "login", Path: "/sessions", Method: "POST",
				RequestFields: []models.Field{
					{ID: "identity_username", Name: "username", Type: models.FieldTypeString, Location: models.LocationBody, Required: true},
					{ID: "identity_password", Name: "password", Type: models.FieldTypeString, Location: models.LocationBody, Required: true},
				},
				ResponseFields: []models.Field{
					{ID: "identity_user_id", Name: "id", Type: models.FieldTypeString, Path: "user.id"},
					{ID: "identity_email", Name: "email", Type: models.FieldTypeString, Path: "user.email"},
				},
			}},
		},
	}

	p.ResponseMappings = []models.ResponseMapping{
		{TargetFieldID: "title", SourceAPIID: "catalog", SourceEndpointID: "get-book", SourceFieldPath: "book.title"},
		{TargetFieldID: "author", SourceAPIID: "authors", SourceEndpointID: "get-author", SourceFieldPath: "author.name"},
		{TargetFieldID: "rating", SourceAPIID: "reviews", SourceEndpointID: "get-rating", SourceFieldPath: "average"},
	}

	p.RequestMappings = []models.RequestMapping{
		{
			TargetAPIID: "catalog", TargetEndpointID: "get-book", TargetFieldID: "catalog_book_id",
			Source: models.PublicSource{FieldID: "book_id"},
		},
		{
			TargetAPIID: "authors", TargetEndpointID: "get-author", TargetFieldID: "authors_author_id",
			Source: models.UpstreamSource{APIID: "catalog", EndpointID: "get-book", FieldPath: "book.authorId"},
		},
		{
			TargetAPIID: "reviews", TargetEndpointID: "get-rating", TargetFieldID: "reviews_book_id",
			Source: models.PublicSource{FieldID: "book_id"},
		},
	}

	p.SecurityConfig = models.SecurityConfig{
		Enabled:                false,
		AuthAPIID:              "identity",
		AuthEndpointID:         "login",
		TokenExpirationSeconds: models.DefaultTokenExpirationSeconds,
		ClaimsMapping: []models.ClaimMapping{
			{ID: "claim_sub", ClaimName: "sub", SourceFieldPath: "user.id"},
			{ID: "claim_email", ClaimName: "email", SourceFieldPath: "user.email"},
		},
	}

	return p
}
