package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"guesswhat-trivia-service/internal/domain"
)

// BaseAward is the score for any correct answer, before the time bonus.
const BaseAward = 10

// TimeoutDisplayAnswer is how a TIMEOUT submission is rendered in results.
const TimeoutDisplayAnswer = "No answer (timeout)"

// SessionRegistry abstracts how live sessions are stored (in-memory, Redis-marked, etc).
type SessionRegistry interface {
	GetOrCreate(gameID string) *Session
	Get(gameID string) (*Session, bool)
	Delete(gameID string)
}

// GameStore persists game lobbies (the join codes created over REST).
type GameStore interface {
	CreateGame(ctx context.Context, name string) (domain.Game, error)
	GetGame(ctx context.Context, gameID string) (domain.Game, error)
	ListGames(ctx context.Context) ([]domain.Game, error)
}

// QuestionStore provides random question sets, optionally category-filtered.
// It may return fewer rows than requested; zero rows is an expected case.
type QuestionStore interface {
	FetchRandom(ctx context.Context, count int, categoryIDs []string) ([]domain.Question, error)
}

// PlayerStore owns player identity and scores per game.
type PlayerStore interface {
	UpsertPlayer(ctx context.Context, gameID, name string) (domain.Player, error)
	GetPlayer(ctx context.Context, playerID string) (domain.Player, error)
	ListPlayers(ctx context.Context, gameID string) ([]domain.Player, error)
	// RankedPlayers lists a game's players ordered by score descending.
	RankedPlayers(ctx context.Context, gameID string) ([]domain.Player, error)
	AddScore(ctx context.Context, playerID string, delta int) (domain.Player, error)
}

// Broadcaster publishes an event to every subscriber of a game. Per-game
// delivery order must match call order; the in-process websocket hub
// satisfies this.
type Broadcaster interface {
	Broadcast(gameID string, event domain.Event)
}

// Rules are the timing and sizing knobs of a quiz session.
type Rules struct {
	// QuestionDuration is the answer budget per question.
	QuestionDuration time.Duration
	// ResultsDelay is how long results stay on screen before the next question.
	ResultsDelay time.Duration
	// TeardownDelay keeps an ended session readable before registry removal.
	TeardownDelay time.Duration
	// DefaultRounds is used when a start request omits the round count.
	DefaultRounds int
}

// DefaultRules mirrors the product defaults: 15s questions, 3s result
// display, 5s teardown grace, 10 rounds.
func DefaultRules() Rules {
	return Rules{
		QuestionDuration: 15 * time.Second,
		ResultsDelay:     3 * time.Second,
		TeardownDelay:    5 * time.Second,
		DefaultRounds:    10,
	}
}

// GameService drives multiplayer quiz sessions: lobby, question timing,
// answer collection, scoring and progression.
type GameService struct {
	registry  SessionRegistry
	games     GameStore
	questions QuestionStore
	players   PlayerStore
	broadcast Broadcaster
	timers    *timerTable
	clock     clockwork.Clock
	rules     Rules

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewGameService wires the session core. The broadcaster is typically the
// websocket hub; tests inject a recording fake.
func NewGameService(registry SessionRegistry, games GameStore, questions QuestionStore, players PlayerStore, broadcast Broadcaster, rules Rules) *GameService {
	return NewGameServiceWithClock(registry, games, questions, players, broadcast, rules, clockwork.NewRealClock())
}

// NewGameServiceWithClock is the test constructor; a fake clock makes every
// timer deterministic.
func NewGameServiceWithClock(registry SessionRegistry, games GameStore, questions QuestionStore, players PlayerStore, broadcast Broadcaster, rules Rules, clock clockwork.Clock) *GameService {
	return &GameService{
		registry:  registry,
		games:     games,
		questions: questions,
		players:   players,
		broadcast: broadcast,
		timers:    newTimerTable(clock),
		clock:     clock,
		rules:     rules,
		rnd:       rand.New(rand.NewSource(clock.Now().UnixNano())),
	}
}

// Rules returns the timing configuration the service runs with.
func (g *GameService) Rules() Rules { return g.rules }

// Join registers a player in a game lobby, reusing the existing record for a
// rejoining (gameID, name) pair. The first joiner becomes host. If the game
// is already running, the returned snapshot lets the client catch up with the
// live question and its remaining time.
func (g *GameService) Join(ctx context.Context, gameID, name string) (domain.Player, *domain.QuestionSnapshot, error) {
	if _, err := g.games.GetGame(ctx, gameID); err != nil {
		return domain.Player{}, nil, err
	}

	player, err := g.players.UpsertPlayer(ctx, gameID, name)
	if err != nil {
		return domain.Player{}, nil, err
	}

	s := g.registry.GetOrCreate(gameID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hostID == "" {
		s.hostID = player.ID
	}

	roster, err := g.players.ListPlayers(ctx, gameID)
	if err != nil {
		return domain.Player{}, nil, err
	}
	g.broadcast.Broadcast(gameID, domain.EventPlayerListUpdated{Players: roster})

	var snapshot *domain.QuestionSnapshot
	if s.phase == domain.PhaseQuestion || s.phase == domain.PhaseResults {
		snap := s.snapshotLocked(g.clock.Now(), g.rules.QuestionDuration)
		snap.Players = roster
		snapshot = &snap
		log.Debug().Str("game_id", gameID).Str("player", name).Msg("late join, sending current question snapshot")
	}

	return player, snapshot, nil
}

// ValidateGame reports whether a game code exists; used by the lobby screen
// before a join attempt.
func (g *GameService) ValidateGame(ctx context.Context, gameID string) bool {
	_, err := g.games.GetGame(ctx, gameID)
	return err == nil
}

// StartGame fetches the question set and opens the first question. Host-only,
// lobby-phase-only. A store returning zero questions is fatal: the error is
// broadcast to the whole game and the session is torn down.
func (g *GameService) StartGame(ctx context.Context, gameID, playerID string, rounds int, categoryIDs []string) error {
	s, ok := g.registry.Get(gameID)
	if !ok {
		return domain.ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hostID != playerID {
		return domain.ErrNotHost
	}
	if s.phase != domain.PhaseLobby {
		return domain.ErrGameInProgress
	}

	if rounds <= 0 {
		rounds = g.rules.DefaultRounds
	}
	questions, err := g.questions.FetchRandom(ctx, rounds, categoryIDs)
	if err != nil {
		g.broadcast.Broadcast(gameID, domain.EventError{Message: "Failed to start the game."})
		g.teardownLocked(s)
		return err
	}
	if len(questions) == 0 {
		g.broadcast.Broadcast(gameID, domain.EventError{Message: domain.ErrNoQuestionsAvailable.Error()})
		g.teardownLocked(s)
		return domain.ErrNoQuestionsAvailable
	}

	roster, err := g.players.ListPlayers(ctx, gameID)
	if err != nil {
		return err
	}

	s.questions = questions
	s.views = g.buildViews(questions)
	s.index = 0
	s.answers = make(map[int][]domain.Answer)
	s.answered = make(map[int]map[string]bool)
	s.openQuestionLocked(g.clock.Now(), len(roster))

	log.Info().Str("game_id", gameID).Int("questions", len(questions)).Int("players", len(roster)).Msg("game started")

	g.broadcast.Broadcast(gameID, domain.EventGameStarted{TotalQuestions: len(questions), Players: roster})
	g.broadcast.Broadcast(gameID, domain.EventNewQuestion{
		Question:  s.currentViewLocked(),
		TimeLimit: g.rules.QuestionDuration.Seconds(),
	})
	g.armQuestionTimer(gameID)
	return nil
}

// SubmitAnswer records one player's answer for the live question. Duplicate
// submissions and submissions outside the question phase are silent no-ops.
// When every player snapshotted at question start has answered, the question
// closes early instead of waiting for the timer.
func (g *GameService) SubmitAnswer(ctx context.Context, gameID, playerID, answer string, seconds float64) error {
	s, ok := g.registry.Get(gameID)
	if !ok {
		return domain.ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseQuestion {
		return nil
	}
	if s.hasAnsweredLocked(playerID) {
		return nil
	}

	player, err := g.players.GetPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	// A playerID minted for another game must not score here.
	if player.GameID != gameID {
		return domain.ErrPlayerNotFound
	}

	question := s.currentQuestionLocked()
	isTimeout := answer == domain.TimeoutAnswer
	isCorrect := !isTimeout && answer == question.CorrectAnswer

	display := answer
	if isTimeout {
		display = TimeoutDisplayAnswer
	}
	s.recordAnswerLocked(domain.Answer{
		PlayerID:    player.ID,
		PlayerName:  player.Name,
		Answer:      display,
		IsCorrect:   isCorrect,
		TimeSeconds: seconds,
	})

	if isCorrect {
		award := BaseAward + timeBonus(g.rules.QuestionDuration, seconds)
		if _, err := g.players.AddScore(ctx, player.ID, award); err != nil {
			return err
		}
	}

	// Identity only: revealing the answer text here would leak it to players
	// still on the clock.
	g.broadcast.Broadcast(gameID, domain.EventPlayerAnswered{PlayerID: player.ID, PlayerName: player.Name})

	if len(s.currentAnswersLocked()) >= s.playersAtStart {
		g.closeQuestionLocked(s)
	}
	return nil
}

// TimerExpired closes the live question when the server countdown fires or a
// client reports its local timer ran out. Idempotent: outside the question
// phase it does nothing.
func (g *GameService) TimerExpired(gameID string) error {
	s, ok := g.registry.Get(gameID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g.closeQuestionLocked(s)
	return nil
}

// ForceAdvance lets the host close the live question immediately.
func (g *GameService) ForceAdvance(gameID, playerID string) error {
	s, ok := g.registry.Get(gameID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hostID != playerID {
		return domain.ErrNotHost
	}
	g.closeQuestionLocked(s)
	return nil
}

// CurrentQuestion is the requester-scoped read used by late joins and
// reconnects. It never broadcasts.
func (g *GameService) CurrentQuestion(ctx context.Context, gameID string) (domain.QuestionSnapshot, error) {
	s, ok := g.registry.Get(gameID)
	if !ok {
		return domain.QuestionSnapshot{}, domain.ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseQuestion && s.phase != domain.PhaseResults {
		return domain.QuestionSnapshot{}, domain.ErrNoActiveQuestion
	}
	snap := s.snapshotLocked(g.clock.Now(), g.rules.QuestionDuration)
	roster, err := g.players.ListPlayers(ctx, gameID)
	if err != nil {
		return domain.QuestionSnapshot{}, err
	}
	snap.Players = roster
	return snap, nil
}

// EndGame lets the host finish the game from any live phase: final ranked
// leaderboard now, teardown after the grace delay.
func (g *GameService) EndGame(ctx context.Context, gameID, playerID string) error {
	s, ok := g.registry.Get(gameID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hostID != playerID {
		return domain.ErrNotHost
	}
	if s.phase == domain.PhaseEnded {
		return nil
	}
	g.finishLocked(ctx, s)
	return nil
}

// PlayerLeft handles a dropped connection. There is no host failover: the
// host leaving ends the game for everyone; anyone else leaving just refreshes
// the roster.
func (g *GameService) PlayerLeft(ctx context.Context, gameID, playerID string) {
	s, ok := g.registry.Get(gameID)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if playerID == s.hostID {
		log.Info().Str("game_id", gameID).Str("player_id", playerID).Msg("host left, tearing down game")
		g.broadcast.Broadcast(gameID, domain.EventHostLeft{})
		g.teardownLocked(s)
		return
	}

	roster, err := g.players.ListPlayers(ctx, gameID)
	if err != nil {
		log.Warn().Err(err).Str("game_id", gameID).Msg("roster refresh after disconnect failed")
		return
	}
	g.broadcast.Broadcast(gameID, domain.EventPlayerListUpdated{Players: roster})
}

// closeQuestionLocked transitions question -> results. The guard makes the
// timer-vs-all-answered race safe: whichever signal loses observes the
// session already out of the question phase and does nothing.
func (g *GameService) closeQuestionLocked(s *Session) {
	if s.phase != domain.PhaseQuestion {
		return
	}
	g.timers.Cancel(s.id)
	s.phase = domain.PhaseResults

	g.broadcast.Broadcast(s.id, domain.EventQuestionResults{
		Answers:       s.currentAnswersLocked(),
		CorrectAnswer: s.currentQuestionLocked().CorrectAnswer,
	})

	gameID := s.id
	index := s.index
	g.clock.AfterFunc(g.rules.ResultsDelay, func() {
		g.advance(gameID, index)
	})
}

// advance runs after the results dwell: next question, or the final
// leaderboard when the deck is exhausted. The (phase, index) guard keeps a
// stale dwell callback from double-advancing.
func (g *GameService) advance(gameID string, fromIndex int) {
	s, ok := g.registry.Get(gameID)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseResults || s.index != fromIndex {
		return
	}

	ctx := context.Background()
	s.index++
	if s.index < len(s.questions) {
		roster, err := g.players.ListPlayers(ctx, gameID)
		if err != nil {
			log.Error().Err(err).Str("game_id", gameID).Msg("roster fetch on advance failed")
			g.broadcast.Broadcast(gameID, domain.EventError{Message: "Failed to advance the game."})
			g.teardownLocked(s)
			return
		}
		s.openQuestionLocked(g.clock.Now(), len(roster))
		g.broadcast.Broadcast(gameID, domain.EventNewQuestion{
			Question:  s.currentViewLocked(),
			TimeLimit: g.rules.QuestionDuration.Seconds(),
		})
		g.armQuestionTimer(gameID)
		return
	}

	g.finishLocked(ctx, s)
}

// finishLocked broadcasts the final leaderboard and schedules teardown,
// leaving the ended session readable for the grace period.
func (g *GameService) finishLocked(ctx context.Context, s *Session) {
	g.timers.Cancel(s.id)
	s.phase = domain.PhaseEnded

	ranked, err := g.players.RankedPlayers(ctx, s.id)
	if err != nil {
		log.Error().Err(err).Str("game_id", s.id).Msg("final leaderboard fetch failed")
		g.broadcast.Broadcast(s.id, domain.EventError{Message: "Failed to load the final leaderboard."})
	} else {
		g.broadcast.Broadcast(s.id, domain.EventGameEnded{Leaderboard: ranked})
	}
	log.Info().Str("game_id", s.id).Msg("game ended")

	gameID := s.id
	g.clock.AfterFunc(g.rules.TeardownDelay, func() {
		g.timers.Forget(gameID)
		g.registry.Delete(gameID)
	})
}

// teardownLocked removes the session immediately; used for fatal errors and
// host loss where there is nothing left to read.
func (g *GameService) teardownLocked(s *Session) {
	s.phase = domain.PhaseEnded
	g.timers.Forget(s.id)
	g.registry.Delete(s.id)
}

func (g *GameService) armQuestionTimer(gameID string) {
	g.timers.Arm(gameID, g.rules.QuestionDuration, func() {
		if err := g.TimerExpired(gameID); err != nil {
			log.Debug().Err(err).Str("game_id", gameID).Msg("question timer fired after teardown")
		}
	})
}

// buildViews shuffles each question's options once so every player sees the
// same order and the correct answer's position carries no signal.
func (g *GameService) buildViews(questions []domain.Question) []domain.QuestionView {
	g.rndMu.Lock()
	defer g.rndMu.Unlock()

	views := make([]domain.QuestionView, len(questions))
	for i, q := range questions {
		options := make([]string, 0, len(q.IncorrectAnswers)+1)
		options = append(options, q.CorrectAnswer)
		options = append(options, q.IncorrectAnswers...)
		g.rnd.Shuffle(len(options), func(a, b int) {
			options[a], options[b] = options[b], options[a]
		})
		views[i] = domain.QuestionView{
			ID:         q.ID,
			Text:       q.Text,
			Options:    options,
			Difficulty: q.Difficulty,
		}
	}
	return views
}

// timeBonus rewards fast correct answers: one extra point per full 3 seconds
// of budget left, never negative.
func timeBonus(budget time.Duration, seconds float64) int {
	left := budget.Seconds() - seconds
	if left <= 0 {
		return 0
	}
	return int(left / 3)
}
