package store

import (
	"fmt"

	"evalgo.org/bffgate/models"
)

// SetSecurity replaces the security configuration. When the auth provider
// changes, claim mappings carried over from the previous provider are dropped;
// claims new in sc are kept.
func (s *Store) SetSecurity(sc models.SecurityConfig) error {
	return s.commit(ChangeTypeUpdated, "securityConfig", func(p *models.Project) (*models.Project, []models.Issue, error) {
		prev := p.SecurityConfig
		if prev.AuthRef() != sc.AuthRef() {
			sc.ClaimsMapping = withoutClaims(sc.ClaimsMapping, prev.ClaimsMapping)
		}
		if sc.ClaimsMapping == nil {
			sc.ClaimsMapping = []models.ClaimMapping{}
		}
		if err := s.validator.ValidateSecurity(p, sc).Err(); err != nil {
			return nil, nil, err
		}
		p.SecurityConfig = sc
		return p, nil, nil
	})
}

// SetAuthProvider points security at another auth endpoint. Claim mappings
// are cleared when the provider actually changes.
func (s *Store) SetAuthProvider(apiID, endpointID string) error {
	return s.commit(ChangeTypeUpdated, "securityConfig.authProvider", func(p *models.Project) (*models.Project, []models.Issue, error) {
		if apiID != "" || endpointID != "" {
			if _, _, ok := p.FindUpstream(models.EndpointRef{APIID: apiID, EndpointID: endpointID}); !ok {
				return nil, nil, fmt.Errorf("auth endpoint %s/%s: %w", apiID, endpointID, ErrNotFound)
			}
		}
		p.SecurityConfig = p.SecurityConfig.WithAuthProvider(apiID, endpointID)
		return p, nil, nil
	})
}

// AddClaimMapping appends a claim mapping with a generated ID.
func (s *Store) AddClaimMapping(claimName, sourceFieldPath string) (models.ClaimMapping, error) {
	cm := models.ClaimMapping{
		ID:              models.GenerateID("claim"),
		ClaimName:       claimName,
		SourceFieldPath: sourceFieldPath,
	}
	if err := s.validator.ValidateClaimMapping(cm).Err(); err != nil {
		return models.ClaimMapping{}, err
	}
	err := s.commit(ChangeTypeUpdated, "claimMapping:"+cm.ID, func(p *models.Project) (*models.Project, []models.Issue, error) {
		p.SecurityConfig.ClaimsMapping = append(p.SecurityConfig.ClaimsMapping, cm)
		return p, nil, nil
	})
	if err != nil {
		return models.ClaimMapping{}, err
	}
	return cm, nil
}

// RemoveClaimMapping deletes a claim mapping by ID.
func (s *Store) RemoveClaimMapping(id string) error {
	return s.commit(ChangeTypeDeleted, "claimMapping:"+id, func(p *models.Project) (*models.Project, []models.Issue, error) {
		claims := p.SecurityConfig.ClaimsMapping
		kept := make([]models.ClaimMapping, 0, len(claims))
		for _, cm := range claims {
			if cm.ID != id {
				kept = append(kept, cm)
			}
		}
		if len(kept) == len(claims) {
			return nil, nil, fmt.Errorf("claim mapping %s: %w", id, ErrNotFound)
		}
		p.SecurityConfig.ClaimsMapping = kept
		return p, nil, nil
	})
}

// withoutClaims returns the claims whose IDs do not appear in stale.
func withoutClaims(claims, stale []models.ClaimMapping) []models.ClaimMapping {
	old := make(map[string]bool, len(stale))
	for _, cm := range stale {
		old[cm.ID] = true
	}
	kept := make([]models.ClaimMapping, 0, len(claims))
	for _, cm := range claims {
		if !old[cm.ID] {
			kept = append(kept, cm)
		}
	}
	return kept
}
