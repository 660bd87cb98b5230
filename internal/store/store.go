// Package store holds the current project of the gateway.
//
// The store is the only place where the project changes. Every edit is
// validated against the whole project before it is applied, and readers only
// ever see deep copies, so an execution that took a snapshot is unaffected by
// edits made while it runs.
package store

import (
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"evalgo.org/bffgate/internal/mapping"
	"evalgo.org/bffgate/internal/validation"
	"evalgo.org/bffgate/models"
)

// ErrNotFound is returned when an entity or mapping does not exist.
var ErrNotFound = errors.New("not found")

// Store provides thread-safe access to the project.
type Store struct {
	mu        sync.RWMutex
	project   *models.Project
	version   uint64
	validator *validation.Validator

	subMu       sync.Mutex
	subscribers map[int]ChangeHandler
	nextSub     int

	logger *log.Entry
}

// New creates a store holding p. p must pass validation.
func New(p *models.Project) (*Store, error) {
	s := &Store{
		validator:   validation.New(),
		subscribers: make(map[int]ChangeHandler),
		logger:      log.WithField("component", "store"),
	}
	if p == nil {
		p = models.NewProject("")
	}
	prepared, err := s.prepare(p)
	if err != nil {
		return nil, err
	}
	s.project = prepared
	s.version = 1
	return s, nil
}

// Snapshot returns a deep copy of the current project.
func (s *Store) Snapshot() *models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project.Clone()
}

// SnapshotVersion returns a deep copy together with the version it was taken at.
func (s *Store) SnapshotVersion() (*models.Project, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project.Clone(), s.version
}

// Version increases by one on every applied change.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Resolver returns a mapping resolver over the current mappings.
func (s *Store) Resolver() *mapping.Resolver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return mapping.NewResolver(
		append([]models.ResponseMapping(nil), s.project.ResponseMappings...),
		append([]models.RequestMapping(nil), s.project.RequestMappings...),
	)
}

// Security returns the current security configuration.
func (s *Store) Security() models.SecurityConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc := s.project.SecurityConfig
	sc.ClaimsMapping = append([]models.ClaimMapping{}, sc.ClaimsMapping...)
	return sc
}

// Replace swaps the whole project, as done by the file watcher and the admin API.
func (s *Store) Replace(p *models.Project) error {
	prepared, err := s.prepare(p)
	if err != nil {
		return err
	}
	return s.commit(ChangeTypeReplaced, "project", func(*models.Project) (*models.Project, []models.Issue, error) {
		return prepared, nil, nil
	})
}

// prepare normalizes a whole project before it is accepted: duplicate
// mapping targets collapse to the last occurrence and a missing token
// lifetime falls back to the default.
func (s *Store) prepare(p *models.Project) (*models.Project, error) {
	c := p.Clone()
	c.ResponseMappings = mapping.DedupeResponse(c.ResponseMappings)
	c.RequestMappings = mapping.DedupeRequest(c.RequestMappings)
	if c.SecurityConfig.TokenExpirationSeconds == 0 {
		c.SecurityConfig.TokenExpirationSeconds = models.DefaultTokenExpirationSeconds
	}
	if c.SecurityConfig.ClaimsMapping == nil {
		c.SecurityConfig.ClaimsMapping = []models.ClaimMapping{}
	}
	if err := s.validator.ValidateProject(c).Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// mutation edits a private copy of the project. It returns the copy to
// install and any issues to report with the change.
type mutation func(p *models.Project) (*models.Project, []models.Issue, error)

// commit applies fn under the write lock, validates the outcome and notifies
// subscribers after the lock is released.
func (s *Store) commit(kind ChangeType, subject string, fn mutation) error {
	_, err := s.commitIssues(kind, subject, fn)
	return err
}

func (s *Store) commitIssues(kind ChangeType, subject string, fn mutation) ([]models.Issue, error) {
	s.mu.Lock()
	next, issues, err := fn(s.project.Clone())
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := s.validator.ValidateProject(next).Err(); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("change to %s rejected: %w", subject, err)
	}
	s.project = next
	s.version++
	change := Change{Type: kind, Subject: subject, Version: s.version, Issues: issues}
	s.mu.Unlock()

	entry := s.logger.WithFields(log.Fields{
		"change":  kind,
		"subject": subject,
		"version": change.Version,
	})
	if len(issues) > 0 {
		entry.WithField("issues", len(issues)).Warn("project changed, mappings pruned")
	} else {
		entry.Debug("project changed")
	}

	s.notify(change)
	return issues, nil
}
