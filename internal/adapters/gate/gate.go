package gate

import (
	"sync"
	"time"

	"cenolover-auction-engine/internal/domain/shared"

	"github.com/rs/zerolog"
)

// Gate is a per-actor sliding-window rate limiter. The bookkeeping is
// in-memory and process-local: it resets on restart and is a coarse abuse
// guard, not a correctness mechanism.
type Gate struct {
	limit   int
	window  time.Duration
	mu      sync.Mutex
	actions map[int64][]time.Time
	logger  zerolog.Logger
}

type GateParams struct {
	Limit  int
	Window time.Duration
	Logger zerolog.Logger
}

// NewGate creates a new admission gate
func NewGate(params GateParams) *Gate {
	return &Gate{
		limit:   params.Limit,
		window:  params.Window,
		actions: make(map[int64][]time.Time),
		logger:  params.Logger.With().Str("component", "admission_gate").Logger(),
	}
}

// Admit records one action for the actor and reports whether it may proceed.
// Fewer than limit prior actions within the trailing window admit the action;
// otherwise it is rejected with ErrRateLimited and must not reach the engine.
func (g *Gate) Admit(userID int64, now time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	cutoff := now.Add(-g.window)
	recent := g.actions[userID][:0]
	for _, at := range g.actions[userID] {
		if at.After(cutoff) {
			recent = append(recent, at)
		}
	}

	if len(recent) >= g.limit {
		g.actions[userID] = recent
		g.logger.Warn().
			Int64("user_id", userID).
			Int("recent_actions", len(recent)).
			Msg("Actor rate limited")
		return shared.ErrRateLimited
	}

	g.actions[userID] = append(recent, now)
	return nil
}

// Forget drops the window for an actor, freeing its bookkeeping
func (g *Gate) Forget(userID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.actions, userID)
}
