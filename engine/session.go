package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/drummonds/bboxpick/engine/pdfinfo"
)

// ErrSessionNotFound is returned for unknown or expired upload ids
var ErrSessionNotFound = errors.New("upload not found or expired")

// Session is one uploaded document, held in memory only
type Session struct {
	ID        ulid.ULID
	Filename  string
	Data      []byte
	Info      pdfinfo.Info
	CreatedAt time.Time
	LastSeen  time.Time
}

// SessionStore keeps uploads between the upload request and the preview
// requests that follow it. Entries expire after ttl without access and the
// least recently used entry is evicted once max is reached.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[ulid.ULID]*Session
	ttl      time.Duration
	max      int
	now      func() time.Time
}

// NewSessionStore creates an empty store
func NewSessionStore(ttl time.Duration, max int) *SessionStore {
	if max <= 0 {
		max = 1
	}
	return &SessionStore{
		sessions: make(map[ulid.ULID]*Session),
		ttl:      ttl,
		max:      max,
		now:      time.Now,
	}
}

// Put stores a new upload and returns its session
func (s *SessionStore) Put(filename string, data []byte, info pdfinfo.Info) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for len(s.sessions) >= s.max {
		s.evictOldestLocked()
	}

	session := &Session{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()),
		Filename:  filename,
		Data:      data,
		Info:      info,
		CreatedAt: now,
		LastSeen:  now,
	}
	s.sessions[session.ID] = session
	return *session
}

// Get returns the session for id and refreshes its expiry
func (s *SessionStore) Get(id string) (Session, error) {
	key, err := ulid.ParseStrict(id)
	if err != nil {
		return Session{}, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[key]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	now := s.now()
	if s.expired(session, now) {
		delete(s.sessions, key)
		return Session{}, ErrSessionNotFound
	}
	session.LastSeen = now
	return *session, nil
}

// Delete drops a session; it reports whether one was removed
func (s *SessionStore) Delete(id string) bool {
	key, err := ulid.ParseStrict(id)
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[key]; !ok {
		return false
	}
	delete(s.sessions, key)
	return true
}

// Sweep removes expired sessions and returns how many were dropped
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, session := range s.sessions {
		if s.expired(session, now) {
			delete(s.sessions, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) expired(session *Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(session.LastSeen) > s.ttl
}

func (s *SessionStore) evictOldestLocked() {
	var oldest *Session
	for _, session := range s.sessions {
		if oldest == nil || session.LastSeen.Before(oldest.LastSeen) {
			oldest = session
		}
	}
	if oldest != nil {
		Logger.Debug("Evicting upload session to make room", "id", oldest.ID.String(), "filename", oldest.Filename)
		delete(s.sessions, oldest.ID)
	}
}
