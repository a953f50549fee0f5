package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"guesswhat-trivia-service/internal/domain"
)

// QuestionStore serves the question and category catalog from Postgres.
// Random selection is pushed into SQL; LoadPool exists so the Redis cache
// can pull whole pools instead.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

const questionColumns = `id, category_id, question, correct_answer, incorrect_answers, difficulty`

// FetchRandom implements app.QuestionStore.
func (s *QuestionStore) FetchRandom(ctx context.Context, count int, categoryIDs []string) ([]domain.Question, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if len(categoryIDs) > 0 {
		rows, err = s.pool.Query(ctx,
			`SELECT `+questionColumns+` FROM questions WHERE category_id = ANY($1::uuid[]) ORDER BY random() LIMIT $2`,
			categoryIDs, count)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT `+questionColumns+` FROM questions ORDER BY random() LIMIT $1`, count)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch random questions: %w", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

// LoadPool implements redis.PoolLoader: the full question set for a filter.
func (s *QuestionStore) LoadPool(ctx context.Context, categoryIDs []string) ([]domain.Question, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if len(categoryIDs) > 0 {
		rows, err = s.pool.Query(ctx,
			`SELECT `+questionColumns+` FROM questions WHERE category_id = ANY($1::uuid[])`, categoryIDs)
	} else {
		rows, err = s.pool.Query(ctx, `SELECT `+questionColumns+` FROM questions`)
	}
	if err != nil {
		return nil, fmt.Errorf("load question pool: %w", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func (s *QuestionStore) CreateQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	answers, err := json.Marshal(q.IncorrectAnswers)
	if err != nil {
		return domain.Question{}, fmt.Errorf("marshal incorrect answers: %w", err)
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO questions (category_id, question, correct_answer, incorrect_answers, difficulty)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		q.CategoryID, q.Text, q.CorrectAnswer, answers, q.Difficulty).Scan(&q.ID)
	if err != nil {
		return domain.Question{}, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}

func (s *QuestionStore) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	c := domain.Category{Name: name}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO categories (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`, name).Scan(&c.ID)
	if err != nil {
		return domain.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (s *QuestionStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanQuestions(rows pgx.Rows) ([]domain.Question, error) {
	var out []domain.Question
	for rows.Next() {
		var (
			q   domain.Question
			raw []byte
		)
		if err := rows.Scan(&q.ID, &q.CategoryID, &q.Text, &q.CorrectAnswer, &raw, &q.Difficulty); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(raw, &q.IncorrectAnswers); err != nil {
			return nil, fmt.Errorf("unmarshal incorrect answers: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
