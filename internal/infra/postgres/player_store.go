package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"guesswhat-trivia-service/internal/domain"
)

// PlayerStore implements app.PlayerStore on Postgres. The (game_id,
// player_name) unique constraint makes UpsertPlayer idempotent for rejoins.
type PlayerStore struct {
	pool *pgxpool.Pool
}

func NewPlayerStore(pool *pgxpool.Pool) *PlayerStore {
	return &PlayerStore{pool: pool}
}

func (s *PlayerStore) UpsertPlayer(ctx context.Context, gameID, name string) (domain.Player, error) {
	p := domain.Player{GameID: gameID, Name: name}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO players (game_id, player_name, score) VALUES ($1, $2, 0)
		 ON CONFLICT (game_id, player_name) DO UPDATE SET player_name = EXCLUDED.player_name
		 RETURNING id, score`, gameID, name).Scan(&p.ID, &p.Score)
	if err != nil {
		return domain.Player{}, fmt.Errorf("upsert player: %w", err)
	}
	return p, nil
}

func (s *PlayerStore) GetPlayer(ctx context.Context, playerID string) (domain.Player, error) {
	var p domain.Player
	err := s.pool.QueryRow(ctx,
		`SELECT id, game_id, player_name, score FROM players WHERE id = $1`, playerID).
		Scan(&p.ID, &p.GameID, &p.Name, &p.Score)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	if err != nil {
		return domain.Player{}, fmt.Errorf("get player: %w", err)
	}
	return p, nil
}

func (s *PlayerStore) ListPlayers(ctx context.Context, gameID string) ([]domain.Player, error) {
	return s.list(ctx, gameID, `ORDER BY created_at`)
}

func (s *PlayerStore) RankedPlayers(ctx context.Context, gameID string) ([]domain.Player, error) {
	return s.list(ctx, gameID, `ORDER BY score DESC, created_at`)
}

func (s *PlayerStore) AddScore(ctx context.Context, playerID string, delta int) (domain.Player, error) {
	var p domain.Player
	err := s.pool.QueryRow(ctx,
		`UPDATE players SET score = score + $2 WHERE id = $1
		 RETURNING id, game_id, player_name, score`, playerID, delta).
		Scan(&p.ID, &p.GameID, &p.Name, &p.Score)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	if err != nil {
		return domain.Player{}, fmt.Errorf("add score: %w", err)
	}
	return p, nil
}

func (s *PlayerStore) list(ctx context.Context, gameID, order string) ([]domain.Player, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, game_id, player_name, score FROM players WHERE game_id = $1 `+order, gameID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var out []domain.Player
	for rows.Next() {
		var p domain.Player
		if err := rows.Scan(&p.ID, &p.GameID, &p.Name, &p.Score); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
