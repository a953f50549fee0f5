package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"guesswhat-trivia-service/internal/domain"
)

func TestPlayerStoreUpsertIsIdempotentPerGame(t *testing.T) {
	ctx := context.Background()
	store := NewPlayerStore()

	alice, err := store.UpsertPlayer(ctx, "g1", "Alice")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := store.AddScore(ctx, alice.ID, 14); err != nil {
		t.Fatalf("add score: %v", err)
	}

	again, err := store.UpsertPlayer(ctx, "g1", "Alice")
	if err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	if again.ID != alice.ID {
		t.Fatalf("expected same player record, got %s vs %s", again.ID, alice.ID)
	}
	if again.Score != 14 {
		t.Fatalf("rejoin must keep the score, got %d", again.Score)
	}

	// Same name in another game is a different player.
	other, err := store.UpsertPlayer(ctx, "g2", "Alice")
	if err != nil {
		t.Fatalf("upsert other game: %v", err)
	}
	if other.ID == alice.ID {
		t.Fatalf("players must be scoped per game")
	}
}

func TestPlayerStoreListPreservesJoinOrder(t *testing.T) {
	ctx := context.Background()
	store := NewPlayerStore()
	for _, name := range []string{"Alice", "Bob", "Carol"} {
		if _, err := store.UpsertPlayer(ctx, "g1", name); err != nil {
			t.Fatalf("upsert %s: %v", name, err)
		}
	}

	players, err := store.ListPlayers(ctx, "g1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(players) != 3 {
		t.Fatalf("expected 3 players, got %d", len(players))
	}
	for i, want := range []string{"Alice", "Bob", "Carol"} {
		if players[i].Name != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, players[i].Name)
		}
	}
}

func TestPlayerStoreRankedOrdersByScoreDesc(t *testing.T) {
	ctx := context.Background()
	store := NewPlayerStore()

	alice, _ := store.UpsertPlayer(ctx, "g1", "Alice")
	bob, _ := store.UpsertPlayer(ctx, "g1", "Bob")
	carol, _ := store.UpsertPlayer(ctx, "g1", "Carol")
	store.AddScore(ctx, alice.ID, 10)
	store.AddScore(ctx, bob.ID, 24)
	store.AddScore(ctx, carol.ID, 10)

	ranked, err := store.RankedPlayers(ctx, "g1")
	if err != nil {
		t.Fatalf("ranked: %v", err)
	}
	if ranked[0].ID != bob.ID {
		t.Fatalf("expected bob first, got %s", ranked[0].Name)
	}
	// Ties keep join order.
	if ranked[1].ID != alice.ID || ranked[2].ID != carol.ID {
		t.Fatalf("tie order broken: %s, %s", ranked[1].Name, ranked[2].Name)
	}
}

func TestPlayerStoreUnknownPlayer(t *testing.T) {
	ctx := context.Background()
	store := NewPlayerStore()
	if _, err := store.GetPlayer(ctx, "nope"); err != domain.ErrPlayerNotFound {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
	if _, err := store.AddScore(ctx, "nope", 5); err != domain.ErrPlayerNotFound {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
}

func TestQuestionStoreFetchRandom(t *testing.T) {
	ctx := context.Background()
	store := NewQuestionStore()
	store.Seed(
		[]domain.Category{{ID: "c1", Name: "Science"}, {ID: "c2", Name: "History"}},
		seedQuestions(t, 8),
	)

	got, err := store.FetchRandom(ctx, 5, nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(got))
	}
	seen := make(map[string]bool)
	for _, q := range got {
		if seen[q.ID] {
			t.Fatalf("duplicate question %s in result", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestQuestionStoreFetchRandomCategoryFilter(t *testing.T) {
	ctx := context.Background()
	store := NewQuestionStore()
	store.Seed(
		[]domain.Category{{ID: "c1", Name: "Science"}, {ID: "c2", Name: "History"}},
		seedQuestions(t, 8),
	)

	got, err := store.FetchRandom(ctx, 10, []string{"c2"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected the 4 history questions, got %d", len(got))
	}
	for _, q := range got {
		if q.CategoryID != "c2" {
			t.Fatalf("filter leaked category %s", q.CategoryID)
		}
	}
}

func TestQuestionStoreFetchRandomEmptyResult(t *testing.T) {
	ctx := context.Background()
	store := NewQuestionStore()

	got, err := store.FetchRandom(ctx, 10, nil)
	if err != nil {
		t.Fatalf("fetch on empty store: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected zero rows, got %d", len(got))
	}
}

func TestQuestionStoreFetchRandomConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewQuestionStore()
	store.Seed(
		[]domain.Category{{ID: "c1", Name: "Science"}, {ID: "c2", Name: "History"}},
		seedQuestions(t, 8),
	)

	// Exercised under -race: the shuffle mutates the store's rand source.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := store.FetchRandom(ctx, 5, nil); err != nil {
					t.Errorf("fetch: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestQuestionStoreCreateRequiresCategory(t *testing.T) {
	ctx := context.Background()
	store := NewQuestionStore()

	_, err := store.CreateQuestion(ctx, domain.Question{CategoryID: "missing", Text: "?"})
	if err != domain.ErrCategoryNotFound {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}

	cat, err := store.CreateCategory(ctx, "Music")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	q, err := store.CreateQuestion(ctx, domain.Question{
		CategoryID:       cat.ID,
		Text:             "Who composed The Planets?",
		CorrectAnswer:    "Gustav Holst",
		IncorrectAnswers: []string{"Elgar", "Vaughan Williams", "Britten"},
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	if q.ID == "" {
		t.Fatalf("expected an assigned ID")
	}
}

func TestGameStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewGameStore()

	game, err := store.CreateGame(ctx, "friday quiz")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := store.GetGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "friday quiz" {
		t.Fatalf("expected name round-trip, got %q", got.Name)
	}
	if _, err := store.GetGame(ctx, "nope"); err != domain.ErrGameNotFound {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}

	store.CreateGame(ctx, "second")
	games, err := store.ListGames(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(games) != 2 || games[0].ID != game.ID {
		t.Fatalf("expected creation order, got %+v", games)
	}
}

func TestSessionRegistryLifecycle(t *testing.T) {
	registry := NewSessionRegistry()

	if _, ok := registry.Get("g1"); ok {
		t.Fatalf("expected no session before creation")
	}
	session := registry.GetOrCreate("g1")
	if same := registry.GetOrCreate("g1"); same != session {
		t.Fatalf("GetOrCreate must return the existing session")
	}
	got, ok := registry.Get("g1")
	if !ok || got != session {
		t.Fatalf("Get must return the created session")
	}
	registry.Delete("g1")
	if _, ok := registry.Get("g1"); ok {
		t.Fatalf("expected session gone after delete")
	}
}

func seedQuestions(t *testing.T, n int) []domain.Question {
	t.Helper()
	out := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		category := "c1"
		if i%2 == 1 {
			category = "c2"
		}
		out = append(out, domain.Question{
			ID:               fmt.Sprintf("q-%d", i),
			CategoryID:       category,
			Text:             fmt.Sprintf("Question %d?", i),
			CorrectAnswer:    "yes",
			IncorrectAnswers: []string{"no", "maybe", "never"},
		})
	}
	return out
}
