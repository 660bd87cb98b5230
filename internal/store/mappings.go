package store

import (
	"fmt"

	"evalgo.org/bffgate/internal/mapping"
	"evalgo.org/bffgate/models"
)

// PutResponseMapping applies m, replacing any mapping for the same target field.
func (s *Store) PutResponseMapping(m models.ResponseMapping) error {
	return s.commit(ChangeTypeUpdated, "responseMapping:"+m.TargetFieldID, func(p *models.Project) (*models.Project, []models.Issue, error) {
		if err := s.validator.ValidateResponseMapping(p, m).Err(); err != nil {
			return nil, nil, err
		}
		p.ResponseMappings = mapping.PutResponse(p.ResponseMappings, m)
		return p, nil, nil
	})
}

// RemoveResponseMapping deletes the mapping for targetFieldID.
func (s *Store) RemoveResponseMapping(targetFieldID string) error {
	return s.commit(ChangeTypeDeleted, "responseMapping:"+targetFieldID, func(p *models.Project) (*models.Project, []models.Issue, error) {
		if _, ok := mapping.ForProject(p).ResponseMappingFor(targetFieldID); !ok {
			return nil, nil, fmt.Errorf("response mapping %s: %w", targetFieldID, ErrNotFound)
		}
		p.ResponseMappings = mapping.RemoveResponse(p.ResponseMappings, targetFieldID)
		return p, nil, nil
	})
}

// PutRequestMapping applies m, replacing any mapping for the same
// (endpoint, field) target. Chains that read from their own endpoint are rejected.
func (s *Store) PutRequestMapping(m models.RequestMapping) error {
	subject := fmt.Sprintf("requestMapping:%s.%s", m.TargetEndpointID, m.TargetFieldID)
	return s.commit(ChangeTypeUpdated, subject, func(p *models.Project) (*models.Project, []models.Issue, error) {
		if err := s.validator.ValidateRequestMapping(p, m).Err(); err != nil {
			return nil, nil, err
		}
		p.RequestMappings = mapping.PutRequest(p.RequestMappings, m)
		return p, nil, nil
	})
}

// RemoveRequestMapping deletes the mapping for target.
func (s *Store) RemoveRequestMapping(target models.RequestTarget) error {
	subject := fmt.Sprintf("requestMapping:%s.%s", target.EndpointID, target.FieldID)
	return s.commit(ChangeTypeDeleted, subject, func(p *models.Project) (*models.Project, []models.Issue, error) {
		if _, ok := mapping.ForProject(p).RequestMappingFor(target); !ok {
			return nil, nil, fmt.Errorf("request mapping %s.%s: %w", target.EndpointID, target.FieldID, ErrNotFound)
		}
		p.RequestMappings = mapping.RemoveRequest(p.RequestMappings, target)
		return p, nil, nil
	})
}
