package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashmitsharp/spendlens/internal/models"
)

// Session is one caller's loaded transaction set and its derived Insights.
// A published Session is never mutated; updates replace it.
type Session struct {
	ID           string               `json:"id"`
	Sources      []models.SourceInfo  `json:"sources"`
	Transactions []models.Transaction `json:"-"`
	Insights     *models.Insights     `json:"-"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// TransactionCount returns the number of retained transactions
func (s *Session) TransactionCount() int {
	return len(s.Transactions)
}

// SessionStore keeps sessions in process memory only
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	lastSeen map[string]time.Time
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a store whose sessions expire ttl after they were
// last read or written. A ttl of zero disables expiry.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		lastSeen: make(map[string]time.Time),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts an empty session
func (s *SessionStore) Create() *Session {
	now := s.now()
	session := &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.lastSeen[session.ID] = now
	s.mu.Unlock()

	return session
}

// Get returns the current snapshot of a session and marks it as in use
func (s *SessionStore) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.lastSeen[id] = s.now()
	return session, nil
}

// Replace swaps the session's whole content for a newly ingested set
func (s *SessionStore) Replace(id string, sources []models.SourceInfo, transactions []models.Transaction, insights *models.Insights) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	next := &Session{
		ID:           id,
		Sources:      sources,
		Transactions: transactions,
		Insights:     insights,
		CreatedAt:    current.CreatedAt,
		UpdatedAt:    s.now(),
	}
	s.sessions[id] = next
	s.lastSeen[id] = next.UpdatedAt
	return next, nil
}

// Reset clears a session's data but keeps the session
func (s *SessionStore) Reset(id string) (*Session, error) {
	return s.Replace(id, nil, nil, nil)
}

// Delete removes a session
func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	delete(s.lastSeen, id)
	return nil
}

// Len returns the number of live sessions
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the ttl and returns how many were removed
func (s *SessionStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}

	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id := range s.sessions {
		if s.lastSeen[id].Before(cutoff) {
			delete(s.sessions, id)
			delete(s.lastSeen, id)
			removed++
		}
	}
	return removed
}
