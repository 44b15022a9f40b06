// Package session keeps one filter engine per browser session.
//
// An engine handles one event at a time and holds no lock of its own. The
// Session wrapper serializes every event for its engine with a mutex, so
// concurrent requests from the same browser apply in arrival order while
// different sessions proceed in parallel over the shared catalog.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JonMunkholm/lineowners/internal/core"
	"github.com/google/uuid"
)

// ErrSessionLimit is returned when the store is full and a new session is
// requested.
var ErrSessionLimit = errors.New("session limit reached")

// ErrSessionClosed is returned by Do once the session has been deleted or
// expired while a request still held it.
var ErrSessionClosed = errors.New("session closed")

const (
	// DefaultTTL is how long an idle session is kept.
	DefaultTTL = 30 * time.Minute
	// DefaultMaxSessions caps live sessions.
	DefaultMaxSessions = 1000
)

// Recorder receives session lifecycle counts. Implemented by the metrics
// package; may be nil.
type Recorder interface {
	SessionCreated()
	SessionsExpired(n int)
	SetActiveSessions(n int)
}

// Session owns one engine.
type Session struct {
	ID      string
	Created time.Time

	mu       sync.Mutex
	engine   *core.Engine
	lastSeen time.Time
	closed   atomic.Bool
}

// Do runs fn with exclusive access to the session's engine.
func (s *Session) Do(fn func(*core.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return ErrSessionClosed
	}
	return fn(s.engine)
}

// Options configures a Store.
type Options struct {
	TTL         time.Duration
	MaxSessions int
	Recorder    Recorder
}

// Store holds live sessions keyed by id.
type Store struct {
	newEngine func() *core.Engine
	ttl       time.Duration
	max       int
	recorder  Recorder
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore creates a store whose sessions get engines from newEngine.
func NewStore(newEngine func() *core.Engine, opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	return &Store{
		newEngine: newEngine,
		ttl:       opts.TTL,
		max:       opts.MaxSessions,
		recorder:  opts.Recorder,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

// Get returns a live session and refreshes its idle timer.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if s.expired(sess, now) {
		sess.closed.Store(true)
		delete(s.sessions, id)
		s.recordExpired(1)
		return nil, false
	}
	sess.lastSeen = now
	return sess, true
}

// GetOrCreate returns the session for id, creating a fresh one when id is
// unknown, malformed or expired. created reports whether a new session was
// made; its id then differs from the one passed in.
func (s *Store) GetOrCreate(id string) (sess *Session, created bool, err error) {
	if _, perr := uuid.Parse(id); perr == nil {
		if sess, ok := s.Get(id); ok {
			return sess, false, nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.max {
		// Reclaim idle sessions before refusing.
		s.sweepLocked()
		if len(s.sessions) >= s.max {
			return nil, false, ErrSessionLimit
		}
	}

	now := s.now()
	sess = &Session{
		ID:       uuid.NewString(),
		Created:  now,
		engine:   s.newEngine(),
		lastSeen: now,
	}
	s.sessions[sess.ID] = sess

	if s.recorder != nil {
		s.recorder.SessionCreated()
		s.recorder.SetActiveSessions(len(s.sessions))
	}
	slog.Debug("session created", "session", sess.ID, "active", len(s.sessions))
	return sess, true, nil
}

// Delete drops a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.closed.Store(true)
		delete(s.sessions, id)
	}
	if s.recorder != nil {
		s.recorder.SetActiveSessions(len(s.sessions))
	}
}

// Len returns the number of stored sessions, including expired ones not yet
// swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

func (s *Store) sweepLocked() int {
	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			sess.closed.Store(true)
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.recordExpired(removed)
		slog.Debug("sessions expired", "removed", removed, "active", len(s.sessions))
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// expired reads lastSeen under the store lock; Session.mu guards only the
// engine.
func (s *Store) expired(sess *Session, now time.Time) bool {
	return now.Sub(sess.lastSeen) > s.ttl
}

func (s *Store) recordExpired(n int) {
	if s.recorder != nil {
		s.recorder.SessionsExpired(n)
		s.recorder.SetActiveSessions(len(s.sessions))
	}
}
