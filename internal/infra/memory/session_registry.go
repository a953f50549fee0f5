package memory

import (
	"sync"

	"guesswhat-trivia-service/internal/app"
)

// SessionRegistry is the in-memory implementation of app.SessionRegistry.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*app.Session),
	}
}

func (r *SessionRegistry) GetOrCreate(gameID string) *app.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[gameID]; ok {
		return session
	}
	session := app.NewSession(gameID)
	r.sessions[gameID] = session
	return session
}

func (r *SessionRegistry) Get(gameID string) (*app.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[gameID]
	return session, ok
}

func (r *SessionRegistry) Delete(gameID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, gameID)
}
