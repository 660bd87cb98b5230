package engine

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"evalgo.org/bffgate/internal/extract"
	"evalgo.org/bffgate/internal/transport"
	"evalgo.org/bffgate/models"
)

// Authenticate calls the project's auth endpoint with credentials and issues
// a token from the claim mappings. Credentials are matched to the auth
// endpoint's request fields by name, then by ID.
func (e *Engine) Authenticate(ctx context.Context, p *models.Project, credentials map[string]interface{}) (*models.IssuedToken, error) {
	sc := p.SecurityConfig
	if !sc.Enabled {
		return nil, ErrSecurityDisabled
	}
	if e.issuer == nil {
		return nil, fmt.Errorf("%w: no token issuer configured", ErrAuthFailed)
	}

	api, ep, ok := p.FindUpstream(sc.AuthRef())
	if !ok {
		return nil, fmt.Errorf("%w: auth endpoint %s not found", ErrAuthFailed, sc.AuthRef())
	}

	values := make(map[string]interface{})
	for _, f := range ep.RequestFields {
		v, ok := credentials[f.Name]
		if !ok {
			v, ok = credentials[f.ID]
		}
		if ok {
			values[f.ID] = v
		} else if f.IsRequired() {
			return nil, fmt.Errorf("%w: missing credential %s", ErrAuthFailed, f.Name)
		}
	}

	call, err := transport.BuildCall(api, ep, values)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	if e.opts.ExecutionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.ExecutionTimeout)
		defer cancel()
	}

	resp, err := e.transport.Do(ctx, call)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	claims := make(map[string]interface{})
	for _, cm := range sc.ClaimsMapping {
		v, ok := extract.Get(resp.Body, cm.SourceFieldPath)
		if !ok || v == nil {
			e.logger.WithFields(log.Fields{
				"claim": cm.ClaimName,
				"path":  cm.SourceFieldPath,
			}).Warn("claim not found in auth response")
			continue
		}
		claims[cm.ClaimName] = v
	}
	if len(claims) == 0 {
		return nil, fmt.Errorf("%w: auth response has no extractable claim values", ErrAuthFailed)
	}

	ttl := time.Duration(sc.TokenExpirationSeconds) * time.Second
	token, err := e.issuer.Issue(claims, ttl)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	e.logger.WithFields(log.Fields{
		"auth_endpoint": sc.AuthRef().String(),
		"claims":        len(claims),
	}).Info("token issued")
	return token, nil
}
