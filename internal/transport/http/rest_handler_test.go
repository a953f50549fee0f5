package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"guesswhat-trivia-service/internal/domain"
	"guesswhat-trivia-service/internal/infra/memory"
)

func newRESTServer(t *testing.T) (*httptest.Server, *memory.QuestionStore) {
	t.Helper()
	questions := memory.NewQuestionStore()
	mux := http.NewServeMux()
	NewRESTHandler(memory.NewGameStore(), questions, questions).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, questions
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCreateAndGetGame(t *testing.T) {
	srv, _ := newRESTServer(t)

	resp := postJSON(t, srv.URL+"/api/games", `{"name":"friday quiz"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var game domain.Game
	if err := json.NewDecoder(resp.Body).Decode(&game); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if game.ID == "" || game.Name != "friday quiz" {
		t.Fatalf("unexpected game: %+v", game)
	}

	resp = getJSON(t, srv.URL+"/api/games/"+game.ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp = getJSON(t, srv.URL+"/api/games/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown game, got %d", resp.StatusCode)
	}
}

func TestCreateGameRejectsMissingName(t *testing.T) {
	srv, _ := newRESTServer(t)
	resp := postJSON(t, srv.URL+"/api/games", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCategoryAndQuestionCRUD(t *testing.T) {
	srv, _ := newRESTServer(t)

	resp := postJSON(t, srv.URL+"/api/categories", `{"name":"Science"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var category domain.Category
	if err := json.NewDecoder(resp.Body).Decode(&category); err != nil {
		t.Fatalf("decode: %v", err)
	}

	body := `{"categoryId":"` + category.ID + `","question":"Symbol for gold?","correctAnswer":"Au","incorrectAnswers":["Ag","Gd","Go"],"difficulty":"easy"}`
	resp = postJSON(t, srv.URL+"/api/questions", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	// Unknown category is a 404, not a 500.
	body = `{"categoryId":"nope","question":"?","correctAnswer":"x"}`
	resp = postJSON(t, srv.URL+"/api/questions", body)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	resp = getJSON(t, srv.URL+"/api/categories")
	var categories []domain.Category
	if err := json.NewDecoder(resp.Body).Decode(&categories); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(categories) != 1 {
		t.Fatalf("expected 1 category, got %d", len(categories))
	}
}

func TestRandomQuestionsEndpoint(t *testing.T) {
	srv, store := newRESTServer(t)
	store.Seed([]domain.Category{{ID: "c1", Name: "General"}}, []domain.Question{
		{ID: "q-1", CategoryID: "c1", Text: "A?", CorrectAnswer: "a", IncorrectAnswers: []string{"b", "c", "d"}},
		{ID: "q-2", CategoryID: "c1", Text: "B?", CorrectAnswer: "b", IncorrectAnswers: []string{"a", "c", "d"}},
		{ID: "q-3", CategoryID: "c2", Text: "C?", CorrectAnswer: "c", IncorrectAnswers: []string{"a", "b", "d"}},
	})

	resp := getJSON(t, srv.URL+"/api/questions/random?count=2")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var questions []domain.Question
	if err := json.NewDecoder(resp.Body).Decode(&questions); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}

	resp = getJSON(t, srv.URL+"/api/questions/random?category=c2")
	if err := json.NewDecoder(resp.Body).Decode(&questions); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(questions) != 1 || questions[0].CategoryID != "c2" {
		t.Fatalf("category filter failed: %+v", questions)
	}

	resp = getJSON(t, srv.URL+"/api/questions/random?count=abc")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad count, got %d", resp.StatusCode)
	}
}
