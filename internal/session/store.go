package session

import (
	"sync"
	"time"
)

// Speaker identifies who produced a turn.
type Speaker int

const (
	Candidate Speaker = iota + 1
	Interviewer
)

func (s Speaker) String() string {
	switch s {
	case Candidate:
		return "Candidate"
	case Interviewer:
		return "Interviewer"
	default:
		return "Unknown"
	}
}

// Turn is one utterance of the conversation.
type Turn struct {
	Speaker Speaker
	Text    string
}

// Session owns the conversation of one interview. Callers must hold the lock
// (Lock/Unlock) while reading or appending turns so that deciding the next
// step and recording it happen atomically.
type Session struct {
	id        string
	createdAt time.Time

	mu           sync.Mutex
	turns        []Turn
	lastActivity time.Time
	evicted      bool
}

func (s *Session) ID() string { return s.id }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) Lock() { s.mu.Lock() }

func (s *Session) Unlock() { s.mu.Unlock() }

// Turns returns a copy of the conversation. The lock must be held.
func (s *Session) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns. The lock must be held.
func (s *Session) Len() int { return len(s.turns) }

// Append records turns at the end of the conversation. The lock must be held.
func (s *Session) Append(turns ...Turn) {
	s.turns = append(s.turns, turns...)
}

// Evicted reports whether the store dropped the session after it was handed out.
// The lock must be held.
func (s *Session) Evicted() bool { return s.evicted }

// Store maps session ids to sessions for the lifetime of the process. With a
// positive TTL idle sessions become eligible for CleanupExpired.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a store. ttl <= 0 disables expiry.
func NewStore(ttl time.Duration) *Store {
	if ttl < 0 {
		ttl = 0
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *Store) TTL() time.Duration { return s.ttl }

// GetOrCreate returns the session for id, allocating an empty one on first reference.
func (s *Store) GetOrCreate(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		return sess
	}

	now := s.now()
	sess := &Session{id: id, createdAt: now, lastActivity: now}
	s.sessions[id] = sess
	return sess
}

// Touch marks the session as active. The session lock must be held.
func (s *Store) Touch(sess *Session) {
	sess.lastActivity = s.now()
}

func (s *Store) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[id]
	return ok
}

// Delete removes the session. It reports whether a session was present.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		sess.Lock()
		sess.evicted = true
		sess.Unlock()
	}

	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// CleanupExpired removes sessions idle longer than the TTL. Sessions that are
// locked by an in-flight request are skipped.
func (s *Store) CleanupExpired() int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0

	for id, sess := range s.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		if now.Sub(sess.lastActivity) > s.ttl {
			sess.evicted = true
			delete(s.sessions, id)
			removed++
		}
		sess.mu.Unlock()
	}

	return removed
}
