package filter

import (
	"fmt"
	"sync"

	"github.com/wondercloudgenai/talentflow/internal/domain"
)

// Registry tracks live filter sessions by id. Lookups and deletes are
// owner-checked so one user cannot reach another's conversation.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]registered
}

type registered struct {
	session *Session
	owner   string
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]registered)}
}

// Register stores a session under id for an owner. An existing session
// with the same id is replaced.
func (r *Registry) Register(id, owner string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = registered{session: s, owner: owner}
}

// Get returns the session registered under id if owner matches.
func (r *Registry) Get(id, owner string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.sessions[id]
	if !ok || reg.owner != owner {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	return reg.session, nil
}

// Delete removes the session registered under id if owner matches.
func (r *Registry) Delete(id, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.sessions[id]
	if !ok || reg.owner != owner {
		return fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	delete(r.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
