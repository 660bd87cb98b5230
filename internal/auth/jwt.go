// Package auth issues and validates the gateway's access tokens and guards
// the admin API.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"evalgo.org/bffgate/internal/config"
	"evalgo.org/bffgate/models"
)

var (
	// ErrInvalidToken is returned when a JWT token is invalid
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when a JWT token has expired
	ErrExpiredToken = errors.New("token has expired")
	// ErrInvalidAPIKey is returned when an admin API key does not match
	ErrInvalidAPIKey = errors.New("invalid api key")
)

// TokenType is the token_type of issued tokens.
const TokenType = "Bearer"

// reserved claims are always set by the issuer
var reservedClaims = map[string]bool{"exp": true, "iat": true, "nbf": true, "iss": true}

// Issuer signs tokens carrying claims extracted from the auth endpoint.
type Issuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewIssuer creates an issuer signing with HS256.
func NewIssuer(secret, issuer string) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
}

// NewIssuerFromConfig creates an issuer from the security section.
func NewIssuerFromConfig(cfg *config.Config) *Issuer {
	return NewIssuer(cfg.Security.JWTSecret, cfg.Security.Issuer)
}

// Issue signs a token holding claims that expires ttl after issuance.
// exp, iat, nbf and iss are owned by the issuer and cannot be overridden.
func (s *Issuer) Issue(claims map[string]interface{}, ttl time.Duration) (*models.IssuedToken, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", ttl)
	}

	now := s.now().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	mapped := jwt.MapClaims{}
	public := make(map[string]interface{}, len(claims))
	for k, v := range claims {
		if reservedClaims[k] {
			continue
		}
		mapped[k] = v
		public[k] = v
	}
	mapped["iat"] = jwt.NewNumericDate(now)
	mapped["nbf"] = jwt.NewNumericDate(now)
	mapped["exp"] = jwt.NewNumericDate(expiresAt)
	if s.issuer != "" {
		mapped["iss"] = s.issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mapped)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &models.IssuedToken{
		AccessToken: signed,
		TokenType:   TokenType,
		IssuedAt:    now,
		ExpiresAt:   expiresAt,
		Claims:      public,
	}, nil
}

// Validate parses a token and returns its claims.
func (s *Issuer) Validate(tokenString string) (jwt.MapClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateAPIKey generates a random admin API key
func GenerateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate API key: %w", err)
	}
	return "bff_" + base64.URLEncoding.EncodeToString(b), nil
}

// HashAPIKey hashes an API key for storage in the config file
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash API key: %w", err)
	}
	return string(hash), nil
}

// CompareAPIKey checks key against every hash.
func CompareAPIKey(key string, hashes []string) error {
	for _, hash := range hashes {
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil {
			return nil
		}
	}
	return ErrInvalidAPIKey
}
