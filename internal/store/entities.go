package store

import (
	"fmt"

	"evalgo.org/bffgate/models"
)

// PutPublicEndpoint creates or replaces a public endpoint. Mappings that
// pointed at fields the new definition no longer has are pruned and returned.
func (s *Store) PutPublicEndpoint(ep models.Endpoint) ([]models.Issue, error) {
	if err := s.validator.ValidateEndpoint(ep).Err(); err != nil {
		return nil, err
	}
	return s.commitIssues(ChangeTypeUpdated, "publicEndpoint:"+ep.ID, func(p *models.Project) (*models.Project, []models.Issue, error) {
		replaced := false
		for i := range p.PublicEndpoints {
			if p.PublicEndpoints[i].ID == ep.ID {
				p.PublicEndpoints[i] = ep
				replaced = true
				break
			}
		}
		if !replaced {
			p.PublicEndpoints = append(p.PublicEndpoints, ep)
		}
		return p, PruneOrphans(p), nil
	})
}

// RemovePublicEndpoint deletes a public endpoint and prunes its mappings.
func (s *Store) RemovePublicEndpoint(id string) ([]models.Issue, error) {
	return s.commitIssues(ChangeTypeDeleted, "publicEndpoint:"+id, func(p *models.Project) (*models.Project, []models.Issue, error) {
		kept := p.PublicEndpoints[:0]
		found := false
		for _, ep := range p.PublicEndpoints {
			if ep.ID == id {
				found = true
				continue
			}
			kept = append(kept, ep)
		}
		if !found {
			return nil, nil, fmt.Errorf("public endpoint %s: %w", id, ErrNotFound)
		}
		p.PublicEndpoints = kept
		return p, PruneOrphans(p), nil
	})
}

// PutUpstreamApi creates or replaces an upstream API.
func (s *Store) PutUpstreamApi(api models.UpstreamApi) ([]models.Issue, error) {
	if err := s.validator.ValidateUpstreamApi(api).Err(); err != nil {
		return nil, err
	}
	return s.commitIssues(ChangeTypeUpdated, "upstreamApi:"+api.ID, func(p *models.Project) (*models.Project, []models.Issue, error) {
		replaced := false
		for i := range p.UpstreamApis {
			if p.UpstreamApis[i].ID == api.ID {
				p.UpstreamApis[i] = api
				replaced = true
				break
			}
		}
		if !replaced {
			p.UpstreamApis = append(p.UpstreamApis, api)
		}
		return p, PruneOrphans(p), nil
	})
}

// RemoveUpstreamApi deletes an upstream API and prunes every mapping that
// read from or wrote to its endpoints.
func (s *Store) RemoveUpstreamApi(id string) ([]models.Issue, error) {
	return s.commitIssues(ChangeTypeDeleted, "upstreamApi:"+id, func(p *models.Project) (*models.Project, []models.Issue, error) {
		kept := p.UpstreamApis[:0]
		found := false
		for _, api := range p.UpstreamApis {
			if api.ID == id {
				found = true
				continue
			}
			kept = append(kept, api)
		}
		if !found {
			return nil, nil, fmt.Errorf("upstream api %s: %w", id, ErrNotFound)
		}
		p.UpstreamApis = kept
		return p, PruneOrphans(p), nil
	})
}
