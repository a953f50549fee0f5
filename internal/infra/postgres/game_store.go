package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"guesswhat-trivia-service/internal/domain"
)

// GameStore implements app.GameStore on Postgres.
type GameStore struct {
	pool *pgxpool.Pool
}

func NewGameStore(pool *pgxpool.Pool) *GameStore {
	return &GameStore{pool: pool}
}

func (s *GameStore) CreateGame(ctx context.Context, name string) (domain.Game, error) {
	g := domain.Game{Name: name}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO games (name) VALUES ($1) RETURNING id, created_at`, name).
		Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		return domain.Game{}, fmt.Errorf("insert game: %w", err)
	}
	return g, nil
}

func (s *GameStore) GetGame(ctx context.Context, gameID string) (domain.Game, error) {
	var g domain.Game
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM games WHERE id = $1`, gameID).
		Scan(&g.ID, &g.Name, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Game{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.Game{}, fmt.Errorf("get game: %w", err)
	}
	return g, nil
}

func (s *GameStore) ListGames(ctx context.Context) ([]domain.Game, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, created_at FROM games ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var out []domain.Game
	for rows.Next() {
		var g domain.Game
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
