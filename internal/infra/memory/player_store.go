package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"guesswhat-trivia-service/internal/domain"
)

// PlayerStore is the in-memory implementation of app.PlayerStore. Players
// are kept per game in join order, which ListPlayers preserves.
type PlayerStore struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Player
	byGame map[string][]*domain.Player
}

func NewPlayerStore() *PlayerStore {
	return &PlayerStore{
		byID:   make(map[string]*domain.Player),
		byGame: make(map[string][]*domain.Player),
	}
}

// UpsertPlayer reuses the existing record for a rejoining (gameID, name)
// pair, keeping the accumulated score.
func (s *PlayerStore) UpsertPlayer(_ context.Context, gameID, name string) (domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.byGame[gameID] {
		if p.Name == name {
			return *p, nil
		}
	}
	p := &domain.Player{ID: uuid.NewString(), GameID: gameID, Name: name}
	s.byID[p.ID] = p
	s.byGame[gameID] = append(s.byGame[gameID], p)
	return *p, nil
}

func (s *PlayerStore) GetPlayer(_ context.Context, playerID string) (domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[playerID]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	return *p, nil
}

func (s *PlayerStore) ListPlayers(_ context.Context, gameID string) ([]domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Player, 0, len(s.byGame[gameID]))
	for _, p := range s.byGame[gameID] {
		out = append(out, *p)
	}
	return out, nil
}

// RankedPlayers orders by score descending, ties by join order.
func (s *PlayerStore) RankedPlayers(ctx context.Context, gameID string) ([]domain.Player, error) {
	players, err := s.ListPlayers(ctx, gameID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Score > players[j].Score
	})
	return players, nil
}

func (s *PlayerStore) AddScore(_ context.Context, playerID string, delta int) (domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[playerID]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	p.Score += delta
	return *p, nil
}
