// In-memory session store with per-key serialization and TTL eviction.
//
// Information Hiding:
// - Map storage structure and the two-level locking scheme hidden
// - Eviction policy internalized; callers only see create-on-first-access
//
// Every operation on one session id is serialized relative to other
// operations on the same id; operations on different ids never block one
// another. A second message for a session cannot begin orchestration until
// the first has fully appended its outcome, because the whole turn runs
// inside With.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Archive is durable mirror storage for session messages. The orchestrator
// appends to it alongside the in-memory history and answers from it when a
// session is no longer resident (restart or eviction).
type Archive interface {
	AppendMessage(ctx context.Context, sessionID string, msg Message) error
	Messages(ctx context.Context, sessionID string) ([]Message, error)
	Clear(ctx context.Context, sessionID string) error
}

// Store is the process-wide keyed store of conversation state.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	logger   *zap.Logger
}

// entry pairs a session with its serialization lock. The entry lock is held
// for the full duration of an operation, so eviction (which uses TryLock)
// can never remove a session with an operation in flight.
type entry struct {
	mu   sync.Mutex
	sess *Session
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a store whose sessions are evicted after ttl of
// inactivity. A zero ttl disables eviction.
func NewStore(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// With runs fn with exclusive access to the session, creating an empty
// session on first access. An unknown id is never an error.
func (s *Store) With(ctx context.Context, sessionID string, fn func(*Session) error) error {
	for {
		e := s.lookupOrCreate(sessionID)
		e.mu.Lock()

		// The entry may have been evicted between lookup and lock; retry
		// against the current map entry if so.
		s.mu.Lock()
		current := s.sessions[sessionID] == e
		s.mu.Unlock()
		if !current {
			e.mu.Unlock()
			continue
		}

		err := fn(e.sess)
		e.sess.LastActive = time.Now().UTC()
		e.mu.Unlock()
		return err
	}
}

// Append appends a message to the session.
func (s *Store) Append(ctx context.Context, sessionID string, msg Message) error {
	return s.With(ctx, sessionID, func(sess *Session) error {
		sess.Append(msg)
		return nil
	})
}

// SetPending replaces the session's pending invocation slot (nil clears it).
func (s *Store) SetPending(ctx context.Context, sessionID string, pending *Pending) error {
	return s.With(ctx, sessionID, func(sess *Session) error {
		sess.Pending = pending
		return nil
	})
}

// History returns the ordered message sequence for a session.
func (s *Store) History(ctx context.Context, sessionID string) ([]Message, error) {
	var history []Message
	err := s.With(ctx, sessionID, func(sess *Session) error {
		history = sess.History()
		return nil
	})
	return history, err
}

// Clear removes a session's state. Clearing an unknown session is a no-op;
// the next access yields a fresh empty session.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	e, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if ok {
		e.mu.Lock()
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		e.mu.Unlock()
	}
	return nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// RunJanitor sweeps idle sessions at the given interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted := s.Sweep(time.Now().UTC())
			if evicted > 0 {
				s.logger.Debug("evicted idle sessions", zap.Int("count", evicted))
			}
		}
	}
}

// Sweep evicts sessions idle past the TTL and returns how many were removed.
// A session whose lock is held (operation in flight) is skipped this round.
func (s *Store) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	candidates := make(map[string]*entry, len(s.sessions))
	for id, e := range s.sessions {
		candidates[id] = e
	}
	s.mu.Unlock()

	evicted := 0
	for id, e := range candidates {
		if !e.mu.TryLock() {
			continue
		}
		if now.Sub(e.sess.LastActive) > s.ttl {
			s.mu.Lock()
			if s.sessions[id] == e {
				delete(s.sessions, id)
				evicted++
			}
			s.mu.Unlock()
		}
		e.mu.Unlock()
	}
	return evicted
}

func (s *Store) lookupOrCreate(sessionID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		now := time.Now().UTC()
		e = &entry{sess: &Session{
			ID:         sessionID,
			CreatedAt:  now,
			LastActive: now,
		}}
		s.sessions[sessionID] = e
	}
	return e
}
