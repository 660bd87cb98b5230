package models

// DefaultTokenExpirationSeconds is used when a security config does not set one.
const DefaultTokenExpirationSeconds = 3600

// ClaimMapping copies a value from the auth endpoint's response into an issued token.
type ClaimMapping struct {
	// ID identifies the mapping inside the security config
	ID string `json:"id" yaml:"id" validate:"required"`

	// ClaimName is the JWT claim key (e.g. sub, role, email)
	ClaimName string `json:"claimName" yaml:"claimName" validate:"required"`

	// SourceFieldPath is the dotted path in the auth endpoint response
	SourceFieldPath string `json:"sourceFieldPath" yaml:"sourceFieldPath" validate:"required"`
}

// SecurityConfig configures JWT issuance for the gateway.
type SecurityConfig struct {
	// Enabled turns on /login and bearer protection of public routes
	Enabled bool `json:"enabled" yaml:"enabled"`

	// AuthAPIID is the upstream API that validates credentials
	AuthAPIID string `json:"authApiId,omitempty" yaml:"authApiId,omitempty"`

	// AuthEndpointID is the upstream endpoint that validates credentials
	AuthEndpointID string `json:"authEndpointId,omitempty" yaml:"authEndpointId,omitempty"`

	// TokenExpirationSeconds is the lifetime of issued tokens
	TokenExpirationSeconds int `json:"tokenExpirationSeconds" yaml:"tokenExpirationSeconds" validate:"gt=0"`

	// ClaimsMapping lists the claims populated from the auth response
	ClaimsMapping []ClaimMapping `json:"claimsMapping" yaml:"claimsMapping" validate:"dive"`
}

// DefaultSecurityConfig returns the configuration a new project starts with.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		Enabled:                false,
		TokenExpirationSeconds: DefaultTokenExpirationSeconds,
		ClaimsMapping: []ClaimMapping{
			{ID: "default_sub", ClaimName: "sub", SourceFieldPath: "id"},
			{ID: "default_email", ClaimName: "email", SourceFieldPath: "email"},
		},
	}
}

// AuthRef returns the configured auth endpoint.
func (c SecurityConfig) AuthRef() EndpointRef {
	return EndpointRef{APIID: c.AuthAPIID, EndpointID: c.AuthEndpointID}
}

// WithAuthProvider returns a copy pointing at a different auth endpoint.
// Claim mappings are cleared whenever the provider changes because the
// fields they referenced may not exist on the new endpoint.
func (c SecurityConfig) WithAuthProvider(apiID, endpointID string) SecurityConfig {
	if c.AuthAPIID == apiID && c.AuthEndpointID == endpointID {
		return c
	}
	c.AuthAPIID = apiID
	c.AuthEndpointID = endpointID
	c.ClaimsMapping = []ClaimMapping{}
	return c
}
