package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no live session exists for a game ID.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrGameNotFound indicates the game code does not exist in the store.
	ErrGameNotFound = errors.New("game not found")
	// ErrNoQuestionsAvailable means the question store returned zero rows;
	// fatal to the game, broadcast before teardown.
	ErrNoQuestionsAvailable = errors.New("no questions available for this game")
	// ErrPlayerNotFound is returned when a submitted player ID is unknown.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrInvalidIdentifier rejects malformed game/player IDs before lookup.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrNotHost rejects host-only actions from non-host players.
	ErrNotHost = errors.New("only the host may do that")
	// ErrGameInProgress rejects a second start for a running session.
	ErrGameInProgress = errors.New("game already in progress")
	// ErrCategoryNotFound indicates an unknown category ID.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrQuestionNotFound indicates an unknown question ID.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrNoActiveQuestion is returned for current-question requests outside
	// the question and results phases.
	ErrNoActiveQuestion = errors.New("no current question available")
)
