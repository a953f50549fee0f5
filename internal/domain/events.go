package domain

// Event is a state-change notification emitted by the session core. The
// gateway wraps events into {type, payload} envelopes; per-game delivery
// order matches emission order.
type Event interface {
	EventType() string
}

// EventPlayerListUpdated carries the full roster after a join or leave.
type EventPlayerListUpdated struct {
	Players []Player `json:"players"`
}

func (EventPlayerListUpdated) EventType() string { return "updatePlayers" }

// EventGameStarted announces the question count at game start. It is also
// sent directly to late joiners right before their question snapshot.
type EventGameStarted struct {
	TotalQuestions int      `json:"totalQuestions"`
	Players        []Player `json:"players"`
}

func (EventGameStarted) EventType() string { return "gameStarted" }

// EventNewQuestion carries the active question and its time budget in seconds.
type EventNewQuestion struct {
	Question  QuestionView `json:"question"`
	TimeLimit float64      `json:"timeLimit"`
}

func (EventNewQuestion) EventType() string { return "newQuestion" }

// EventPlayerAnswered tells the room who answered, without the answer itself.
type EventPlayerAnswered struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

func (EventPlayerAnswered) EventType() string { return "playerAnswered" }

// EventQuestionResults reveals every answer plus the correct one once the
// question has closed.
type EventQuestionResults struct {
	Answers       []Answer `json:"answerStats"`
	CorrectAnswer string   `json:"correctAnswer"`
}

func (EventQuestionResults) EventType() string { return "questionResult" }

// EventGameEnded carries the final leaderboard, ordered by score descending.
type EventGameEnded struct {
	Leaderboard []Player `json:"leaderboard"`
}

func (EventGameEnded) EventType() string { return "gameEnded" }

// EventHostLeft tells remaining players the host is gone and the game is over.
type EventHostLeft struct{}

func (EventHostLeft) EventType() string { return "hostDisconnected" }

// EventError is a game-scoped fatal error notice.
type EventError struct {
	Message string `json:"message"`
}

func (EventError) EventType() string { return "error" }

// QuestionSnapshot is the direct (requester-only) reply for late joins and
// reconnects: the live question, whatever time is left on the clock, and the
// roster so the catch-up gameStarted replay matches the live broadcast.
type QuestionSnapshot struct {
	TotalQuestions int          `json:"totalQuestions"`
	Question       QuestionView `json:"question"`
	TimeLeft       float64      `json:"timeLimit"`
	Players        []Player     `json:"players"`
}
