package workflow

import (
	"sync"
	"time"

	"github.com/sellista/orderflow/internal/domain"
)

const (
	// SessionTTL is how long an idle conversation keeps its workflow state
	SessionTTL = 2 * time.Hour

	// SweepInterval is how often the background eviction runs
	SweepInterval = 5 * time.Minute
)

// Session holds one conversation's workflow state. The mutex serializes
// engine operations so a double-clicked button cannot interleave two
// transitions on the same conversation.
type Session struct {
	mu sync.Mutex

	ConversationID int64
	UserID         int64
	State          domain.OrderState
	Draft          *domain.OrderDraft
	TransactionID  string

	lastActive time.Time
}

// SessionStore owns the conversation -> session map. Lifetime and memory
// bounds live here rather than in an implicit process-global.
type SessionStore interface {
	// Get returns the session for a conversation, creating a fresh
	// idle/empty-draft session if none exists.
	Get(conversationID, userID int64) *Session

	// Delete drops a conversation's session.
	Delete(conversationID int64)

	// Len reports how many sessions are live (for monitoring and tests).
	Len() int

	// Close stops the background eviction.
	Close() error
}

// MemorySessionStore implements SessionStore with in-memory storage and
// TTL-based eviction of idle sessions.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	ttl      time.Duration

	stopSweep chan struct{}
	wg        sync.WaitGroup
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	s := &MemorySessionStore{
		sessions:  make(map[int64]*Session),
		ttl:       ttl,
		stopSweep: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.sweepLoop()

	return s
}

func (s *MemorySessionStore) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictIdle()
		case <-s.stopSweep:
			return
		}
	}
}

func (s *MemorySessionStore) evictIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.ttl)
	for id, sess := range s.sessions {
		if sess.lastActive.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

func (s *MemorySessionStore) Get(conversationID, userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, exists := s.sessions[conversationID]; exists {
		sess.lastActive = time.Now()
		return sess
	}

	sess := &Session{
		ConversationID: conversationID,
		UserID:         userID,
		State:          domain.StateIdle,
		Draft:          domain.NewOrderDraft(userID, conversationID),
		lastActive:     time.Now(),
	}
	s.sessions[conversationID] = sess
	return sess
}

func (s *MemorySessionStore) Delete(conversationID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, conversationID)
}

func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the background eviction and waits for it to finish
func (s *MemorySessionStore) Close() error {
	close(s.stopSweep)
	s.wg.Wait()
	return nil
}
