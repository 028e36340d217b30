// internal/store/memory.go
//
// In-memory session registry for connected players.
//
// Characteristics:
//   - One Session per player id: the live round plus in-memory statistics.
//   - Concurrency-safe via RWMutex (concurrent lookups allowed, writes exclusive).
//   - Each Session carries its own mutex; handlers hold it for a whole request so
//     one player's input events are applied one at a time.
//   - The registry never does I/O while holding its lock: build must be cheap.
//     Statistics are loaded later, under the session's own lock.
//   - State is lost when the process restarts (statistics are reloaded from kv).

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/robalobadob/numguess/internal/game"
	"github.com/robalobadob/numguess/internal/stats"
)

// ErrNotFound is returned by Get for unknown players.
var ErrNotFound = errors.New("session not found")

// Session is one player's live state.
type Session struct {
	mu sync.Mutex

	PlayerID string
	Round    *game.Round // nil until the first round starts
	Stats    stats.Statistics
	Store    *stats.Store

	// Closed is set (under the lock) when the player quits. A request that
	// still holds the session must drop it and look the player up again.
	Closed bool
}

// Lock serialises access to the session.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// Store defines the registry interface for player sessions.
type Store interface {
	// Get retrieves a session by player id.
	Get(ctx context.Context, playerID string) (*Session, error)

	// GetOrCreate returns the existing session or stores the one made by build.
	// build runs at most once per player, under the registry lock, so it must not block.
	GetOrCreate(ctx context.Context, playerID string, build func() *Session) (*Session, error)

	// Delete drops the session (quit).
	Delete(ctx context.Context, playerID string) error
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex        // guards sessions map
	sessions map[string]*Session // keyed by Session.PlayerID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*Session)}
}

// Get looks up a session by player id.
func (m *memory) Get(ctx context.Context, playerID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[playerID]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

// GetOrCreate returns the stored session, creating it with build when missing.
func (m *memory) GetOrCreate(ctx context.Context, playerID string, build func() *Session) (*Session, error) {
	if s, err := m.Get(ctx, playerID); err == nil {
		return s, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[playerID]; ok {
		return s, nil
	}
	s := build()
	s.PlayerID = playerID
	m.sessions[playerID] = s
	return s, nil
}

// Delete removes the session if present.
func (m *memory) Delete(ctx context.Context, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, playerID)
	return nil
}
