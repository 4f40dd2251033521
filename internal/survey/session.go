package survey

import "sync"

// Session is the transient position of a user inside a survey. Its absence
// means the user has no active survey.
type Session struct {
	Survey   int
	Question int
}

// sessionStore keeps active sessions in memory, keyed by user id. Entries are
// created by Start and removed when the survey completes; they do not survive
// a process restart.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[int64]Session)}
}

func (s *sessionStore) get(userID int64) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

func (s *sessionStore) put(userID int64, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = sess
}

func (s *sessionStore) delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

func (s *sessionStore) has(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[userID]
	return ok
}
