package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"guesswhat-trivia-service/internal/app"
	"guesswhat-trivia-service/internal/domain"
)

// CatalogStore is the question/category CRUD surface behind the REST API.
type CatalogStore interface {
	CreateQuestion(ctx context.Context, q domain.Question) (domain.Question, error)
	CreateCategory(ctx context.Context, name string) (domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// RESTHandler exposes the CRUD plumbing around the session core: games,
// categories, questions. Thin pass-through to the stores by design.
type RESTHandler struct {
	games     app.GameStore
	catalog   CatalogStore
	questions app.QuestionStore
}

func NewRESTHandler(games app.GameStore, catalog CatalogStore, questions app.QuestionStore) *RESTHandler {
	return &RESTHandler{games: games, catalog: catalog, questions: questions}
}

// Register mounts the API routes on the mux.
func (h *RESTHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/games", h.createGame)
	mux.HandleFunc("GET /api/games", h.listGames)
	mux.HandleFunc("GET /api/games/{id}", h.getGame)
	mux.HandleFunc("POST /api/categories", h.createCategory)
	mux.HandleFunc("GET /api/categories", h.listCategories)
	mux.HandleFunc("POST /api/questions", h.createQuestion)
	mux.HandleFunc("GET /api/questions/random", h.randomQuestions)
}

func (h *RESTHandler) createGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "missing name")
		return
	}
	game, err := h.games.CreateGame(r.Context(), req.Name)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

func (h *RESTHandler) listGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.games.ListGames(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

func (h *RESTHandler) getGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.games.GetGame(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (h *RESTHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "missing name")
		return
	}
	category, err := h.catalog.CreateCategory(r.Context(), req.Name)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *RESTHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *RESTHandler) createQuestion(w http.ResponseWriter, r *http.Request) {
	var q domain.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid question payload")
		return
	}
	if q.Text == "" || q.CorrectAnswer == "" || q.CategoryID == "" {
		writeError(w, http.StatusBadRequest, "question, correctAnswer and categoryId are required")
		return
	}
	created, err := h.catalog.CreateQuestion(r.Context(), q)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *RESTHandler) randomQuestions(w http.ResponseWriter, r *http.Request) {
	count := 10
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid count")
			return
		}
		count = n
	}
	var categories []string
	if raw := r.URL.Query().Get("category"); raw != "" {
		categories = strings.Split(raw, ",")
	}
	questions, err := h.questions.FetchRandom(r.Context(), count, categories)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("response encode failed")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrGameNotFound),
		errors.Is(err, domain.ErrCategoryNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		log.Error().Err(err).Msg("store error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
