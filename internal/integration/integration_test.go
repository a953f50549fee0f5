package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"guesswhat-trivia-service/internal/app"
	"guesswhat-trivia-service/internal/domain"
	"guesswhat-trivia-service/internal/infra/postgres"
	"guesswhat-trivia-service/internal/infra/postgres/migrations"
	infraredis "guesswhat-trivia-service/internal/infra/redis"
)

func TestGameRoundEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	runMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	questionStore := postgres.NewQuestionStore(pool)
	correctByID := seedCatalog(t, ctx, questionStore)

	gameStore := postgres.NewGameStore(pool)
	game, err := gameStore.CreateGame(ctx, "integration game")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	playerStore := postgres.NewPlayerStore(pool)
	cache := infraredis.NewQuestionCache(redisClient, questionStore, 5*time.Minute)
	registry := infraredis.NewSessionRegistry(redisClient, 5*time.Minute)
	rec := &recorder{}
	service := app.NewGameServiceWithClock(
		registry, gameStore, cache, playerStore,
		rec, app.DefaultRules(), clockwork.NewFakeClock(),
	)

	alice, _, err := service.Join(ctx, game.ID, "Alice")
	if err != nil {
		t.Fatalf("join alice: %v", err)
	}
	bob, _, err := service.Join(ctx, game.ID, "Bob")
	if err != nil {
		t.Fatalf("join bob: %v", err)
	}

	if err := service.StartGame(ctx, game.ID, alice.ID, 2, nil); err != nil {
		t.Fatalf("start game: %v", err)
	}
	if n, err := redisClient.Exists(ctx, "questions:pool:all").Result(); err != nil || n != 1 {
		t.Fatalf("expected cached question pool in redis (n=%d err=%v)", n, err)
	}

	question := rec.lastQuestion(t)
	if err := service.SubmitAnswer(ctx, game.ID, bob.ID, correctByID[question.ID], 3); err != nil {
		t.Fatalf("submit bob: %v", err)
	}
	if err := service.SubmitAnswer(ctx, game.ID, alice.ID, "wrong answer", 5); err != nil {
		t.Fatalf("submit alice: %v", err)
	}

	// Both answered, so the first question is already in results.
	stored, err := playerStore.GetPlayer(ctx, bob.ID)
	if err != nil {
		t.Fatalf("get bob: %v", err)
	}
	if stored.Score != 14 {
		t.Fatalf("expected bob at 14 points, got %d", stored.Score)
	}

	ranked, err := playerStore.RankedPlayers(ctx, game.ID)
	if err != nil {
		t.Fatalf("ranked: %v", err)
	}
	if len(ranked) != 2 || ranked[0].ID != bob.ID {
		t.Fatalf("expected bob leading, got %+v", ranked)
	}

	// Rejoin keeps identity and score across the Postgres round trip.
	again, _, err := service.Join(ctx, game.ID, "Bob")
	if err != nil {
		t.Fatalf("rejoin bob: %v", err)
	}
	if again.ID != bob.ID || again.Score != 14 {
		t.Fatalf("rejoin lost state: %+v", again)
	}
}

func seedCatalog(t *testing.T, ctx context.Context, store *postgres.QuestionStore) map[string]string {
	t.Helper()
	category, err := store.CreateCategory(ctx, "General Knowledge")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	correctByID := make(map[string]string)
	for i := 0; i < 3; i++ {
		q, err := store.CreateQuestion(ctx, domain.Question{
			CategoryID:       category.ID,
			Text:             fmt.Sprintf("Question %d?", i),
			CorrectAnswer:    fmt.Sprintf("Answer %d", i),
			IncorrectAnswers: []string{"A", "B", "C"},
			Difficulty:       "easy",
		})
		if err != nil {
			t.Fatalf("create question: %v", err)
		}
		correctByID[q.ID] = q.CorrectAnswer
	}
	return correctByID
}

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

// recorder stands in for the websocket hub.
type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recorder) Broadcast(_ string, event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) lastQuestion(t *testing.T) domain.QuestionView {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if e, ok := r.events[i].(domain.EventNewQuestion); ok {
			return e.Question
		}
	}
	t.Fatalf("no newQuestion broadcast recorded")
	return domain.QuestionView{}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "triviadb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/triviadb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
