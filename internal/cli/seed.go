package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"guesswhat-trivia-service/internal/config"
	"guesswhat-trivia-service/internal/domain"
	"guesswhat-trivia-service/internal/infra/postgres"
)

// NewSeedCmd loads the starter catalog into Postgres so a fresh deployment
// has something to play with.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load starter categories and questions into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := postgres.NewQuestionStore(pool)
	categories, questions := sampleCatalog()

	categoryIDs := make(map[string]string, len(categories))
	for _, c := range categories {
		created, err := store.CreateCategory(ctx, c.Name)
		if err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
		categoryIDs[c.ID] = created.ID
	}
	for _, q := range questions {
		q.CategoryID = categoryIDs[q.CategoryID]
		if _, err := store.CreateQuestion(ctx, q); err != nil {
			return fmt.Errorf("seed question %q: %w", q.Text, err)
		}
	}
	log.Info().Int("categories", len(categories)).Int("questions", len(questions)).Msg("catalog seeded")
	return nil
}

// sampleCatalog is the built-in starter content, also served directly when
// Postgres is not configured. Category IDs are placeholders remapped on seed.
func sampleCatalog() ([]domain.Category, []domain.Question) {
	categories := []domain.Category{
		{ID: "cat-general", Name: "General Knowledge"},
		{ID: "cat-science", Name: "Science"},
		{ID: "cat-geography", Name: "Geography"},
	}
	questions := []domain.Question{
		{
			CategoryID:       "cat-general",
			Text:             "What is the largest planet in our solar system?",
			CorrectAnswer:    "Jupiter",
			IncorrectAnswers: []string{"Saturn", "Neptune", "Earth"},
			Difficulty:       "easy",
		},
		{
			CategoryID:       "cat-general",
			Text:             "In which year did the Titanic sink?",
			CorrectAnswer:    "1912",
			IncorrectAnswers: []string{"1905", "1915", "1921"},
			Difficulty:       "medium",
		},
		{
			CategoryID:       "cat-science",
			Text:             "What is the chemical symbol for gold?",
			CorrectAnswer:    "Au",
			IncorrectAnswers: []string{"Ag", "Gd", "Go"},
			Difficulty:       "easy",
		},
		{
			CategoryID:       "cat-science",
			Text:             "How many bones are in the adult human body?",
			CorrectAnswer:    "206",
			IncorrectAnswers: []string{"201", "212", "196"},
			Difficulty:       "hard",
		},
		{
			CategoryID:       "cat-geography",
			Text:             "What is the capital of Australia?",
			CorrectAnswer:    "Canberra",
			IncorrectAnswers: []string{"Sydney", "Melbourne", "Perth"},
			Difficulty:       "medium",
		},
		{
			CategoryID:       "cat-geography",
			Text:             "Which is the longest river in the world?",
			CorrectAnswer:    "The Nile",
			IncorrectAnswers: []string{"The Amazon", "The Yangtze", "The Mississippi"},
			Difficulty:       "medium",
		},
	}
	return categories, questions
}
