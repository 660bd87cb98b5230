package store

import "evalgo.org/bffgate/models"

// ChangeType represents the type of change that occurred.
type ChangeType string

const (
	ChangeTypeReplaced ChangeType = "replaced"
	ChangeTypeUpdated  ChangeType = "updated"
	ChangeTypeDeleted  ChangeType = "deleted"
)

// Change describes one applied edit.
type Change struct {
	Type ChangeType `json:"type"`

	// Subject names what changed (e.g. "responseMapping:title")
	Subject string `json:"subject"`

	Version uint64 `json:"version"`

	// Issues lists mappings pruned because their targets or sources vanished
	Issues []models.Issue `json:"issues,omitempty"`
}

// ChangeHandler is called after every applied change. Handlers run on the
// goroutine that made the change and must not call back into the store's
// mutating methods.
type ChangeHandler func(change Change)

// Subscribe registers h and returns a function that removes it.
func (s *Store) Subscribe(h ChangeHandler) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = h
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) notify(change Change) {
	s.subMu.Lock()
	handlers := make([]ChangeHandler, 0, len(s.subscribers))
	for _, h := range s.subscribers {
		handlers = append(handlers, h)
	}
	s.subMu.Unlock()

	for _, h := range handlers {
		h(change)
	}
}
