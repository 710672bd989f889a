package grades

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Fernando88323/PortalDocente-sub001/core"
	"github.com/Fernando88323/PortalDocente-sub001/core/roster"
)

var ErrSessionNotFound = errors.New("edit session not found")

// Manager tracks the live edit sessions of one viewer. A viewer gets at most
// one active session per group.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	client   Client
	store    *roster.Store
	logger   core.Logger
}

func NewManager(client Client, store *roster.Store, logger core.Logger) *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		client:   client,
		store:    store,
		logger:   logger,
	}
}

// Open starts a session over the given roster, closing any previous session
// for the same group first (its edits are discarded).
func (m *Manager) Open(groupID int, recs []roster.StudentRecord, pond Ponderation) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.GroupID() == groupID {
			s.Cancel()
			delete(m.sessions, id)
		}
	}
	s := Open(groupID, recs, pond, m.client, m.store, m.logger)
	m.sessions[s.ID()] = s
	return s
}

func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Release forgets a closed session. Closing is the session's own business
// (Save or Cancel); Release only drops the reference.
func (m *Manager) Release(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
