package app

import (
	"sync"
	"time"

	"guesswhat-trivia-service/internal/domain"
)

// Session is the live state of one multiplayer game. All mutation happens in
// GameService methods under s.mu, so within a game every handler and timer
// callback runs to completion before the next one touches state; ordering and
// phase guards do the rest. Cross-game state is isolated by game ID.
type Session struct {
	id string

	mu     sync.Mutex
	phase  domain.Phase
	hostID string

	// Fixed once the game starts; views carry the pre-shuffled options so
	// every player sees the same order.
	questions []domain.Question
	views     []domain.QuestionView

	index         int
	questionStart time.Time

	// answers keeps arrival order per question index for "answered first"
	// displays; answered is the duplicate-submission guard.
	answers  map[int][]domain.Answer
	answered map[int]map[string]bool

	// playersAtStart is snapshotted when each question opens, so a join or
	// leave mid-question cannot skew the all-answered early close.
	playersAtStart int
}

// NewSession creates a session in the lobby phase.
func NewSession(gameID string) *Session {
	return &Session{
		id:       gameID,
		phase:    domain.PhaseLobby,
		answers:  make(map[int][]domain.Answer),
		answered: make(map[int]map[string]bool),
	}
}

// ID returns the game identifier this session belongs to.
func (s *Session) ID() string { return s.id }

// Phase returns the current lifecycle phase.
func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// HostID returns the ID of the first player who joined, or "" before anyone has.
func (s *Session) HostID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hostID
}

// QuestionIndex returns the current question index.
func (s *Session) QuestionIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// currentQuestionLocked returns the active question row. Callers hold s.mu
// and have checked that the session is past the lobby phase.
func (s *Session) currentQuestionLocked() domain.Question {
	return s.questions[s.index]
}

func (s *Session) currentViewLocked() domain.QuestionView {
	return s.views[s.index]
}

// currentAnswersLocked returns the answer list for the active index,
// creating it on first touch.
func (s *Session) currentAnswersLocked() []domain.Answer {
	if s.answers[s.index] == nil {
		s.answers[s.index] = []domain.Answer{}
	}
	return s.answers[s.index]
}

// hasAnsweredLocked reports whether the player already answered the active
// question.
func (s *Session) hasAnsweredLocked(playerID string) bool {
	return s.answered[s.index][playerID]
}

// recordAnswerLocked appends an answer for the active question. The caller
// has already rejected duplicates.
func (s *Session) recordAnswerLocked(ans domain.Answer) {
	if s.answered[s.index] == nil {
		s.answered[s.index] = make(map[string]bool)
	}
	s.answered[s.index][ans.PlayerID] = true
	s.answers[s.index] = append(s.answers[s.index], ans)
}

// openQuestionLocked marks the question at the current index live: fresh
// start time and a fresh player-count snapshot.
func (s *Session) openQuestionLocked(now time.Time, playerCount int) {
	s.phase = domain.PhaseQuestion
	s.questionStart = now
	s.playersAtStart = playerCount
}

// remainingLocked computes how much of the question budget is left.
func (s *Session) remainingLocked(now time.Time, budget time.Duration) time.Duration {
	if s.phase != domain.PhaseQuestion {
		return 0
	}
	left := budget - now.Sub(s.questionStart)
	if left < 0 {
		return 0
	}
	return left
}

// snapshotLocked builds the requester-scoped current-question reply.
func (s *Session) snapshotLocked(now time.Time, budget time.Duration) domain.QuestionSnapshot {
	return domain.QuestionSnapshot{
		TotalQuestions: len(s.views),
		Question:       s.currentViewLocked(),
		TimeLeft:       s.remainingLocked(now, budget).Seconds(),
	}
}
