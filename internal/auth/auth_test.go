package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedIssuer(at time.Time) *Issuer {
	s := NewIssuer("test-secret", "bffgate")
	s.now = func() time.Time { return at }
	return s
}

func TestIssue_ClaimsAndExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := fixedIssuer(now)

	tok, err := s.Issue(map[string]interface{}{"sub": "42", "exp": 1}, 90*time.Second)
	require.NoError(t, err)

	assert.Equal(t, TokenType, tok.TokenType)
	assert.Equal(t, now, tok.IssuedAt)
	assert.Equal(t, now.Add(90*time.Second), tok.ExpiresAt)
	assert.Equal(t, map[string]interface{}{"sub": "42"}, tok.Claims)

	claims, err := s.Validate(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "42", claims["sub"])
	assert.Equal(t, "bffgate", claims["iss"])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	iat, err := claims.GetIssuedAt()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, exp.Sub(iat.Time))
}

func TestValidate_Expired(t *testing.T) {
	now := time.Now()
	s := fixedIssuer(now.Add(-2 * time.Hour))
	tok, err := s.Issue(map[string]interface{}{"sub": "1"}, time.Minute)
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.Validate(tok.AccessToken)
	assert.True(t, errors.Is(err, ErrExpiredToken))
}

func TestValidate_WrongSecretOrIssuer(t *testing.T) {
	tok, err := NewIssuer("one", "bffgate").Issue(map[string]interface{}{"sub": "1"}, time.Minute)
	require.NoError(t, err)

	_, err = NewIssuer("two", "bffgate").Validate(tok.AccessToken)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, err = NewIssuer("one", "other").Validate(tok.AccessToken)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestIssue_RejectsNonPositiveLifetime(t *testing.T) {
	_, err := NewIssuer("s", "").Issue(nil, 0)
	assert.Error(t, err)
}

func TestRequireBearer(t *testing.T) {
	issuer := NewIssuer("secret", "bffgate")
	m := NewMiddleware(issuer, nil)
	tok, err := issuer.Issue(map[string]interface{}{"sub": "7"}, time.Minute)
	require.NoError(t, err)

	handler := m.RequireBearer(func() bool { return true })(func(c echo.Context) error {
		claims, ok := GetClaims(c)
		require.True(t, ok)
		return c.String(http.StatusOK, claims["sub"].(string))
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + tok.AccessToken, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
	}

	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/books/1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			err := handler(e.NewContext(req, rec))
			if tt.status == http.StatusOK {
				require.NoError(t, err)
				assert.Equal(t, "7", rec.Body.String())
				return
			}
			var he *echo.HTTPError
			require.True(t, errors.As(err, &he))
			assert.Equal(t, tt.status, he.Code)
		})
	}
}

func TestRequireBearer_Disabled(t *testing.T) {
	m := NewMiddleware(NewIssuer("secret", ""), nil)
	handler := m.RequireBearer(func() bool { return false })(func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	err := handler(echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	require.NoError(t, err)
	hash, err := HashAPIKey(key)
	require.NoError(t, err)

	m := NewMiddleware(NewIssuer("secret", ""), []string{hash})
	handler := m.RequireAPIKey(func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/project", nil)
	req.Header.Set(HeaderAPIKey, key)
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/project", nil)
	req.Header.Set(HeaderAPIKey, "bff_wrong")
	err = handler(e.NewContext(req, httptest.NewRecorder()))
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusUnauthorized, he.Code)

	assert.ErrorIs(t, CompareAPIKey("x", nil), ErrInvalidAPIKey)
}
