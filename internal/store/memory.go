// internal/store/memory.go
//
// In-memory registry of live game sessions.
//
// Characteristics:
//   - Stores *game.Session objects keyed by session ID.
//   - One live run per player and game type: saving a new run evicts the
//     player's previous run of that type.
//   - Runs idle for longer than a TTL are dropped by Sweep / RunJanitor.
//   - The map lock only guards lookup; callers lock the session itself while
//     driving its engine.
//   - State is lost when the process restarts. Durable progress lives in the
//     progress package.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/linguapet/internal/game"
)

// ErrNotFound is returned by Get for unknown session IDs.
var ErrNotFound = errors.New("not found")

// Store defines the registry interface for game sessions.
type Store interface {
	// Save adds a session, replacing the player's previous run of the same kind.
	Save(ctx context.Context, s *game.Session) error

	// Get retrieves a session by ID, or ErrNotFound. It counts as activity.
	Get(ctx context.Context, id string) (*game.Session, error)

	// Delete drops a session. Unknown IDs are ignored.
	Delete(ctx context.Context, id string) error

	// Len reports the number of live sessions.
	Len() int
}

type entry struct {
	sess *game.Session
	seen time.Time // last Save or Get
}

// Memory is an in-memory map-based Store implementation.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	owners   map[string]string // player|kind -> session ID
	now      func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() *Memory {
	return &Memory{
		sessions: make(map[string]*entry),
		owners:   make(map[string]string),
		now:      time.Now,
	}
}

func ownerKey(s *game.Session) string { return s.PlayerID + "|" + string(s.Kind) }

func (m *Memory) Save(ctx context.Context, s *game.Session) error {
	if s == nil || s.ID == "" {
		return errors.New("session without id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ownerKey(s)
	if prev, ok := m.owners[key]; ok && prev != s.ID {
		m.deleteLocked(prev)
	}
	m.sessions[s.ID] = &entry{sess: s, seen: m.now()}
	m.owners[key] = s.ID
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (*game.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.seen = m.now()
	return e.sess, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(id)
	return nil
}

func (m *Memory) deleteLocked(id string) {
	e, ok := m.sessions[id]
	if !ok {
		return
	}
	delete(m.sessions, id)
	if key := ownerKey(e.sess); m.owners[key] == id {
		delete(m.owners, key)
	}
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions not seen since cutoff and returns how many went.
func (m *Memory) Sweep(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.sessions {
		if e.seen.Before(cutoff) {
			m.deleteLocked(id)
			n++
		}
	}
	return n
}

// RunJanitor sweeps sessions idle for longer than ttl every interval until
// ctx is done.
func (m *Memory) RunJanitor(ctx context.Context, interval, ttl time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(m.now().Add(-ttl)); n > 0 {
				log.Debug().Int("evicted", n).Int("live", m.Len()).Msg("swept idle sessions")
			}
		}
	}
}
