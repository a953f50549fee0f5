package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"guesswhat-trivia-service/internal/domain"
)

// QuestionStore is an in-memory question and category catalog. It backs the
// REST CRUD surface in tests and redis-less deployments, and serves the
// session core's random fetches.
type QuestionStore struct {
	mu         sync.RWMutex
	rnd        *rand.Rand
	questions  []domain.Question
	categories map[string]domain.Category
}

func NewQuestionStore() *QuestionStore {
	return &QuestionStore{
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
		categories: make(map[string]domain.Category),
	}
}

// Seed bulk-loads categories and questions, assigning IDs where missing.
func (s *QuestionStore) Seed(categories []domain.Category, questions []domain.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range categories {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		s.categories[c.ID] = c
	}
	for _, q := range questions {
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		s.questions = append(s.questions, q)
	}
}

// FetchRandom returns up to count questions in random order, optionally
// restricted to the given categories. Fewer rows than requested (including
// zero) is a valid result.
func (s *QuestionStore) FetchRandom(_ context.Context, count int, categoryIDs []string) ([]domain.Question, error) {
	// Write lock: Shuffle mutates rnd.
	s.mu.Lock()
	defer s.mu.Unlock()

	filter := make(map[string]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		filter[id] = true
	}

	pool := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		if len(filter) == 0 || filter[q.CategoryID] {
			pool = append(pool, q)
		}
	}

	s.rnd.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if count < len(pool) {
		pool = pool[:count]
	}
	return pool, nil
}

func (s *QuestionStore) CreateQuestion(_ context.Context, q domain.Question) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[q.CategoryID]; !ok {
		return domain.Question{}, domain.ErrCategoryNotFound
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	s.questions = append(s.questions, q)
	return q, nil
}

func (s *QuestionStore) CreateCategory(_ context.Context, name string) (domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := domain.Category{ID: uuid.NewString(), Name: name}
	s.categories[c.ID] = c
	return c, nil
}

func (s *QuestionStore) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	return out, nil
}
