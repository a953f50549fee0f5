package domain

import "time"

// TimeoutAnswer is the sentinel the client submits when a player's local
// countdown runs out without a selection. It never matches a correct answer.
const TimeoutAnswer = "TIMEOUT"

// Category groups questions for filtered game setup.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Question is the canonical question row, including the correct answer.
// Never send this type to clients while a question is live; use QuestionView.
type Question struct {
	ID               string   `json:"id"`
	CategoryID       string   `json:"categoryId"`
	Text             string   `json:"question"`
	CorrectAnswer    string   `json:"correctAnswer"`
	IncorrectAnswers []string `json:"incorrectAnswers"`
	Difficulty       string   `json:"difficulty"`
}

// QuestionView is the client-safe projection of a question: the prompt plus
// a pre-shuffled option list with no correctness marker.
type QuestionView struct {
	ID         string   `json:"id"`
	Text       string   `json:"question"`
	Options    []string `json:"options"`
	Difficulty string   `json:"difficulty"`
}

// Game is the persisted lobby identity created over REST; its ID doubles as
// the join code players share.
type Game struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Player is a per-game identity with a cumulative score.
type Player struct {
	ID     string `json:"id"`
	GameID string `json:"gameId"`
	Name   string `json:"playerName"`
	Score  int    `json:"score"`
}

// Answer records one player's submission for one question index.
// Immutable once stored; duplicates for the same (player, index) are dropped.
type Answer struct {
	PlayerID    string  `json:"playerId"`
	PlayerName  string  `json:"playerName"`
	Answer      string  `json:"answer"`
	IsCorrect   bool    `json:"isCorrect"`
	TimeSeconds float64 `json:"time"`
}

// Phase is the lifecycle state of a quiz session.
type Phase int

const (
	// PhaseLobby is the pre-start state: players join, host can start.
	PhaseLobby Phase = iota
	// PhaseQuestion means a question is live and accepting answers.
	PhaseQuestion
	// PhaseResults means per-question results are on display.
	PhaseResults
	// PhaseEnded is terminal; the session is awaiting teardown.
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseQuestion:
		return "question"
	case PhaseResults:
		return "results"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}
