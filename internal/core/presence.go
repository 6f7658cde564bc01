package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/convoyapp/convoy/internal/domain"
)

// PresenceStore is the authoritative record of connected identities.
// Keyed by name, insertion ordered. All membership mutation goes
// through here; derived views (the room directory) are rebuilt from it.
type PresenceStore struct {
	mu     sync.RWMutex
	byName map[string]*domain.Identity
	order  []string
}

func NewPresenceStore() *PresenceStore {
	return &PresenceStore{
		byName: make(map[string]*domain.Identity),
	}
}

// Add inserts or replaces the identity keyed by its name. Last writer
// wins: an existing record with the same name is fully replaced, never
// merged, and its previous value is returned so the caller can settle
// the old room. Replacement keeps the original insertion position only
// when the room is unchanged; a room switch re-joins at the back.
func (s *PresenceStore) Add(id domain.Identity) (prev *domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byName[id.Name]; ok {
		prev = old
		if old.Room != id.Room {
			s.dropOrder(id.Name)
			s.order = append(s.order, id.Name)
		}
	} else {
		s.order = append(s.order, id.Name)
	}
	s.byName[id.Name] = &id
	log.Debug().Str("module", "core.presence").Str("name", id.Name).Str("room", string(id.Room)).Msg("identity added")
	return prev
}

// Remove deletes the identity if present and returns it. A remove for
// an unknown name is a no-op, not an error: a disconnect can arrive
// before a successful join.
func (s *PresenceStore) Remove(name string) (*domain.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	delete(s.byName, name)
	s.dropOrder(name)
	log.Debug().Str("module", "core.presence").Str("name", name).Msg("identity removed")
	return id, true
}

// Find returns the identity for name, or false when absent.
func (s *PresenceStore) Find(name string) (domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byName[name]; ok {
		return *id, true
	}
	return domain.Identity{}, false
}

// FindBySession returns the identity bound to a transport session.
func (s *PresenceStore) FindBySession(sid domain.SessionID) (domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, name := range s.order {
		if id := s.byName[name]; id.Session == sid {
			return *id, true
		}
	}
	return domain.Identity{}, false
}

// Members returns the identities currently in room, in insertion order.
func (s *PresenceStore) Members(room domain.RoomID) []domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Identity, 0, len(s.order))
	for _, name := range s.order {
		if id := s.byName[name]; id.Room == room {
			out = append(out, *id)
		}
	}
	return out
}

// All returns every connected identity in insertion order.
func (s *PresenceStore) All() []domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Identity, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, *s.byName[name])
	}
	return out
}

func (s *PresenceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byName)
}

// dropOrder removes name from the insertion order; caller holds mu.
func (s *PresenceStore) dropOrder(name string) {
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
