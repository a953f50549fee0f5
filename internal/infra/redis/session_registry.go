package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"guesswhat-trivia-service/internal/app"
)

// SessionRegistry is a Redis-aware implementation of app.SessionRegistry.
// Notes:
//   - Live sessions stay in a local map; the state machine and broadcast
//     path remain in-process, as the ordering model requires.
//   - Redis marks session liveness so operators (and a future cross-instance
//     router) can see which games are active where.
type SessionRegistry struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionRegistry(client *redis.Client, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{
		client:   client,
		ttl:      ttl,
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
	// best-effort liveness marker
	_ = r.client.Set(context.Background(), r.key(gameID), "1", r.ttl).Err()
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
	if _, ok := r.sessions[gameID]; !ok {
		return
	}
	delete(r.sessions, gameID)
	_ = r.client.Del(context.Background(), r.key(gameID)).Err()
}

func (r *SessionRegistry) key(gameID string) string {
	return "game:session:" + gameID
}
