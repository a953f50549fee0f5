package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"guesswhat-trivia-service/internal/app"
	"guesswhat-trivia-service/internal/config"
	"guesswhat-trivia-service/internal/infra/memory"
	"guesswhat-trivia-service/internal/infra/postgres"
	redisinfra "guesswhat-trivia-service/internal/infra/redis"
	transport "guesswhat-trivia-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var (
		gameStore     app.GameStore
		playerStore   app.PlayerStore
		questionStore app.QuestionStore
		catalog       transport.CatalogStore
	)
	if pool != nil {
		pgQuestions := postgres.NewQuestionStore(pool)
		gameStore = postgres.NewGameStore(pool)
		playerStore = postgres.NewPlayerStore(pool)
		catalog = pgQuestions
		questionStore = pgQuestions
		if redisClient != nil {
			cacheTTL := config.Duration(cfg.Questions.CacheTTL, 10*time.Minute)
			questionStore = redisinfra.NewQuestionCache(redisClient, pgQuestions, cacheTTL)
		}
	} else {
		memQuestions := memory.NewQuestionStore()
		categories, questions := sampleCatalog()
		memQuestions.Seed(categories, questions)
		gameStore = memory.NewGameStore()
		playerStore = memory.NewPlayerStore()
		catalog = memQuestions
		questionStore = memQuestions
		log.Warn().Msg("postgres not configured, serving the built-in sample catalog")
	}

	var registry app.SessionRegistry
	if redisClient != nil {
		sessionTTL := config.Duration(cfg.Redis.TTL, 10*time.Minute)
		registry = redisinfra.NewSessionRegistry(redisClient, sessionTTL)
	} else {
		registry = memory.NewSessionRegistry()
	}

	hub := transport.NewHub()
	service := app.NewGameService(registry, gameStore, questionStore, playerStore, hub, rulesFromConfig(cfg))
	wsHandler := transport.NewWSHandler(service, hub)
	restHandler := transport.NewRESTHandler(gameStore, catalog, questionStore)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	restHandler.Register(mux)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting trivia service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func rulesFromConfig(cfg config.Config) app.Rules {
	rules := app.DefaultRules()
	rules.QuestionDuration = config.Duration(cfg.Game.QuestionDuration, rules.QuestionDuration)
	rules.ResultsDelay = config.Duration(cfg.Game.ResultsDelay, rules.ResultsDelay)
	rules.TeardownDelay = config.Duration(cfg.Game.TeardownDelay, rules.TeardownDelay)
	if cfg.Game.DefaultRounds > 0 {
		rules.DefaultRounds = cfg.Game.DefaultRounds
	}
	return rules
}
