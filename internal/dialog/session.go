package dialog

import "sync"

// Session stores the conversation position and the scratch name captured
// between the name and birthdate registration steps. Sessions live in
// memory only; a restart drops them and the user simply starts over.
type Session struct {
	State       State
	PendingName string
}

// Sessions is a concurrency-safe per-user session registry.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewSessions constructs an empty registry.
func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[int64]*Session)}
}

// Get returns a copy of the user's session, defaulting to the main menu.
func (s *Sessions) Get(userID int64) Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[userID]; ok {
		return *sess
	}
	return Session{State: StateMainMenu}
}

// SetState moves the user to the given state, creating the session if needed.
func (s *Sessions) SetState(userID int64, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &Session{}
		s.sessions[userID] = sess
	}
	sess.State = st
}

// SetPendingName stores the scratch name pending birthdate confirmation.
func (s *Sessions) SetPendingName(userID int64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &Session{}
		s.sessions[userID] = sess
	}
	sess.PendingName = name
}

// Reset discards the session entirely: state back to the main menu,
// scratch data gone.
func (s *Sessions) Reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
