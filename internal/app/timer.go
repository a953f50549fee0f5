package app

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// timerTable owns at most one live countdown per game. Arming a game that
// already has a timer replaces it, and a replaced or cancelled timer can
// never deliver its callback: each arm bumps a per-game generation that the
// callback must claim before running.
type timerTable struct {
	clock clockwork.Clock

	mu     sync.Mutex
	seq    map[string]uint64
	timers map[string]clockwork.Timer
}

func newTimerTable(clock clockwork.Clock) *timerTable {
	return &timerTable{
		clock:  clock,
		seq:    make(map[string]uint64),
		timers: make(map[string]clockwork.Timer),
	}
}

// Arm schedules fn after d, cancelling any prior timer for the game.
func (t *timerTable) Arm(gameID string, d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked(gameID)
	gen := t.seq[gameID] + 1
	t.seq[gameID] = gen
	t.timers[gameID] = t.clock.AfterFunc(d, func() {
		if t.claim(gameID, gen) {
			fn()
		}
	})
}

// Cancel drops any pending timer for the game. Safe to call when none exists.
func (t *timerTable) Cancel(gameID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked(gameID)
	t.seq[gameID]++
}

// Forget releases all bookkeeping for a torn-down game.
func (t *timerTable) Forget(gameID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked(gameID)
	delete(t.seq, gameID)
}

func (t *timerTable) stopLocked(gameID string) {
	if tm, ok := t.timers[gameID]; ok {
		tm.Stop()
		delete(t.timers, gameID)
	}
}

// claim reports whether the firing callback is still the current generation.
// Stop can lose the race with an in-flight fire; the generation check makes
// the loser a no-op.
func (t *timerTable) claim(gameID string, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.seq[gameID] != gen {
		return false
	}
	delete(t.timers, gameID)
	return true
}
