package quiz

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("quiz session not found")

// Manager holds live sessions in memory. Sessions are ephemeral by design:
// they die with the process and expire after sitting idle.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	idleTTL  time.Duration
}

func NewManager(idleTTL time.Duration) *Manager {
	m := &Manager{
		sessions: make(map[uuid.UUID]*Session),
		idleTTL:  idleTTL,
	}

	go func() {
		ticker := time.NewTicker(idleTTL / 2)
		defer ticker.Stop()
		for range ticker.C {
			m.sweep()
		}
	}()

	return m
}

func (m *Manager) Put(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}

// Get returns the session only to its owner; anyone else sees not-found.
func (m *Manager) Get(id, ownerID uuid.UUID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || s.OwnerID != ownerID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Delete(id, ownerID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok && s.OwnerID == ownerID {
		delete(m.sessions, id)
	}
}

func (m *Manager) sweep() {
	cutoff := time.Now().Add(-m.idleTTL)
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.lastActive.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(m.sessions, id)
		}
	}
}
