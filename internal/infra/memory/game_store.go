package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"guesswhat-trivia-service/internal/domain"
)

// GameStore is the in-memory implementation of app.GameStore.
type GameStore struct {
	mu    sync.RWMutex
	games map[string]domain.Game
	order []string
}

func NewGameStore() *GameStore {
	return &GameStore{games: make(map[string]domain.Game)}
}

func (s *GameStore) CreateGame(_ context.Context, name string) (domain.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := domain.Game{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()}
	s.games[g.ID] = g
	s.order = append(s.order, g.ID)
	return g, nil
}

func (s *GameStore) GetGame(_ context.Context, gameID string) (domain.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[gameID]
	if !ok {
		return domain.Game{}, domain.ErrGameNotFound
	}
	return g, nil
}

func (s *GameStore) ListGames(_ context.Context) ([]domain.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Game, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.games[id])
	}
	return out, nil
}
