package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/moodchat/backend/internal/model/chat"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTurnInFlight    = errors.New("a turn is already being processed for this session")
)

// Service owns the conversation log of every session.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	logs     map[string]*chat.Log
	inFlight map[string]bool
}

// NewService bootstraps the in-memory chat service.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]chat.Session),
		logs:     make(map[string]*chat.Log),
		inFlight: make(map[string]bool),
	}
}

// CreateSession provisions an anonymous session with an empty log.
func (s *Service) CreateSession(_ context.Context) (chat.Session, error) {
	session := chat.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.logs[session.ID] = chat.NewLog()
	s.mu.Unlock()

	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// RunTurn produces a turn with fn and appends it to the session log, moving
// the selection onto it. fn runs outside the lock; a second RunTurn for the
// same session while fn is running gets ErrTurnInFlight.
func (s *Service) RunTurn(_ context.Context, sessionID string, fn func() chat.Turn) (chat.Turn, int, error) {
	s.mu.Lock()
	if _, ok := s.logs[sessionID]; !ok {
		s.mu.Unlock()
		return chat.Turn{}, -1, ErrSessionNotFound
	}
	if s.inFlight[sessionID] {
		s.mu.Unlock()
		return chat.Turn{}, -1, ErrTurnInFlight
	}
	s.inFlight[sessionID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, sessionID)
		s.mu.Unlock()
	}()

	turn := fn()

	s.mu.Lock()
	index := s.logs[sessionID].Append(turn)
	s.mu.Unlock()

	return turn, index, nil
}

// History lists the session's turns newest first.
func (s *Service) History(_ context.Context, sessionID string) ([]chat.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.logs[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return log.History(), nil
}

// Turns returns every turn of the session in chronological order.
func (s *Service) Turns(_ context.Context, sessionID string) ([]chat.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.logs[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return log.Turns(), nil
}

// Turn returns a single turn by index.
func (s *Service) Turn(_ context.Context, sessionID string, index int) (chat.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.logs[sessionID]
	if !ok {
		return chat.Turn{}, ErrSessionNotFound
	}
	return log.At(index)
}

// Select moves the session's display cursor.
func (s *Service) Select(_ context.Context, sessionID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.logs[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	return log.Select(index)
}

// Selected returns the turn under the cursor and its index.
func (s *Service) Selected(_ context.Context, sessionID string) (chat.Turn, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.logs[sessionID]
	if !ok {
		return chat.Turn{}, -1, ErrSessionNotFound
	}
	return log.Selected()
}
