package bot

import (
	"sync"

	"github.com/postforge/postforge/internal/generate"
)

// session tracks a chat's progress through the generation menu and the
// payment-proof flow.
type session struct {
	Platform generate.Platform
	Type     generate.ContentType

	AwaitingPaymentProof bool
}

// sessionStore keeps per-chat menu state in memory.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[int64]*session)}
}

// update applies fn to the chat's session under the store lock.
func (s *sessionStore) update(chatID int64, fn func(*session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[chatID]
	if sess == nil {
		sess = &session{}
		s.sessions[chatID] = sess
	}
	fn(sess)
}

// snapshot returns a copy of the chat's session state.
func (s *sessionStore) snapshot(chatID int64) session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess := s.sessions[chatID]; sess != nil {
		return *sess
	}
	return session{}
}

// clear removes the chat's session.
func (s *sessionStore) clear(chatID int64) {
	s.mu.Lock()
	delete(s.sessions, chatID)
	s.mu.Unlock()
}
