package terminal

import (
	"slices"
	"sync"
)

const DefaultMaxTerminals = 16

// Registry hands out one Session per terminal id, created on first use. At
// most maxSessions sessions exist; the default terminal is always admitted.
type Registry struct {
	defaultID   int64
	maxSessions int
	cfg         SessionConfig

	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewRegistry(defaultID int64, maxSessions int, cfg SessionConfig) *Registry {
	if defaultID <= 0 {
		defaultID = 1
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxTerminals
	}
	return &Registry{
		defaultID:   defaultID,
		maxSessions: maxSessions,
		cfg:         cfg,
		sessions:    map[int64]*Session{},
	}
}

// Open returns the session for id, creating it when the registry has room.
// Ids <= 0 select the default terminal.
func (r *Registry) Open(id int64) (*Session, error) {
	if id <= 0 {
		id = r.defaultID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s, nil
	}
	if id != r.defaultID && r.admitted() >= r.maxSessions {
		return nil, ErrTooManyTerminals
	}
	s := NewSession(id, r.cfg)
	r.sessions[id] = s
	return s, nil
}

// Default returns the default terminal's session.
func (r *Registry) Default() *Session {
	s, _ := r.Open(r.defaultID)
	return s
}

// admitted counts live sessions, with a slot held for the default terminal
// whether or not it has been opened.
func (r *Registry) admitted() int {
	n := len(r.sessions)
	if _, ok := r.sessions[r.defaultID]; !ok {
		n++
	}
	return n
}

func (r *Registry) DefaultID() int64 {
	return r.defaultID
}

// Sessions lists the live sessions ordered by terminal id.
func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.Unlock()
	slices.SortFunc(out, func(a, b *Session) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	return out
}

// Wait blocks until every session's post-sale work has finished.
func (r *Registry) Wait() {
	for _, s := range r.Sessions() {
		s.flow.Wait()
	}
}
