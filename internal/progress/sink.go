// internal/progress/sink.go
//
// Persistence sink for progression snapshots.
//
// The host saves a snapshot after every progression event. Saving is
// best-effort shadow state: a failed save is logged by the caller and never
// reverts the transition that produced the snapshot. Cached keeps the last
// known snapshot per player/game in memory so a flaky backing store does not
// lose the latest level.

package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robalobadob/linguapet/internal/game"
)

// Outcome tells the sink what produced a snapshot.
type Outcome string

const (
	OutcomeStarted   Outcome = "started"   // new game or restart
	OutcomeCorrect   Outcome = "correct"   // correct attempt
	OutcomeIncorrect Outcome = "incorrect" // wrong attempt
	OutcomeLevel     Outcome = "level"     // difficulty adjusted
)

// Snapshot is the progression state of one player's game after an event.
type Snapshot struct {
	PlayerID string
	GameType game.Kind
	State    game.State
	Outcome  Outcome
	At       time.Time
}

// Sink accepts snapshots.
type Sink interface {
	Save(ctx context.Context, s Snapshot) error
}

type key struct {
	player string
	kind   game.Kind
}

// Cached records each snapshot locally before forwarding it to next.
type Cached struct {
	next Sink

	mu   sync.RWMutex
	last map[key]Snapshot
}

// NewCached wraps next. A nil next only caches.
func NewCached(next Sink) *Cached {
	return &Cached{next: next, last: make(map[key]Snapshot)}
}

// Save caches s, then forwards it. The cached copy is kept even when
// forwarding fails.
func (c *Cached) Save(ctx context.Context, s Snapshot) error {
	c.mu.Lock()
	c.last[key{s.PlayerID, s.GameType}] = s
	c.mu.Unlock()

	if c.next == nil {
		return nil
	}
	if err := c.next.Save(ctx, s); err != nil {
		return fmt.Errorf("save progress %s/%s: %w", s.PlayerID, s.GameType, err)
	}
	return nil
}

// Last returns the most recent snapshot saved for a player's game.
func (c *Cached) Last(playerID string, kind game.Kind) (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.last[key{playerID, kind}]
	return s, ok
}

// Forget drops a player's cached snapshots (after their progress moved to
// another player id).
func (c *Cached) Forget(playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.last {
		if k.player == playerID {
			delete(c.last, k)
		}
	}
}
