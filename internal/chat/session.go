package chat

import (
	"errors"
	"sync"
	"sync/atomic"

	"lorealchat/internal/models"
)

// ErrTurnInProgress is returned when a session already has a turn in flight.
var ErrTurnInProgress = errors.New("a turn is already in progress for this session")

// Session owns the conversation log and personalization context of one chat.
type Session struct {
	ID string

	mu       sync.RWMutex
	log      []models.Message
	context  models.SessionContext
	inFlight atomic.Bool
}

// Snapshot is the serializable state of a Session.
type Snapshot struct {
	ID       string                `json:"id"`
	Messages []models.Message      `json:"messages"`
	Context  models.SessionContext `json:"context"`
}

// NewSession starts a log whose first entry is the system instruction.
func NewSession(id, systemPrompt string) *Session {
	return &Session{
		ID:  id,
		log: []models.Message{{Role: models.RoleSystem, Content: systemPrompt}},
	}
}

// RestoreSession rebuilds a session from a snapshot.
func RestoreSession(snap Snapshot) (*Session, error) {
	if len(snap.Messages) == 0 || snap.Messages[0].Role != models.RoleSystem {
		return nil, errors.New("snapshot must start with a system message")
	}
	s := &Session{ID: snap.ID}
	s.log = append([]models.Message(nil), snap.Messages...)
	s.context = models.SessionContext{
		UserName:      snap.Context.UserName,
		PastQuestions: append([]string(nil), snap.Context.PastQuestions...),
	}
	return s, nil
}

// Greet appends the opening assistant message.
func (s *Session) Greet(greeting string) {
	if greeting == "" {
		return
	}
	s.mu.Lock()
	s.log = append(s.log, models.Message{Role: models.RoleAssistant, Content: greeting})
	s.mu.Unlock()
}

// Messages returns a copy of the conversation log.
func (s *Session) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Message(nil), s.log...)
}

// Context returns a copy of the personalization context.
func (s *Session) Context() models.SessionContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.SessionContext{
		UserName:      s.context.UserName,
		PastQuestions: append([]string(nil), s.context.PastQuestions...),
	}
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{ID: s.ID, Messages: s.Messages(), Context: s.Context()}
}

// Busy reports whether a turn is in flight.
func (s *Session) Busy() bool {
	return s.inFlight.Load()
}

func (s *Session) beginTurn() bool {
	return s.inFlight.CompareAndSwap(false, true)
}

func (s *Session) endTurn() {
	s.inFlight.Store(false)
}

// captureName records a name-setting turn. It reports false, leaving the
// session untouched, when a name is already known.
func (s *Session) captureName(text, name string, greeting func(string) string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.context.HasName() {
		return "", false
	}
	s.log = append(s.log, models.Message{Role: models.RoleUser, Content: text})
	s.context.RecordQuestion(text)
	s.context.SetNameIfUnset(name)
	reply := greeting(name)
	s.log = append(s.log, models.Message{Role: models.RoleAssistant, Content: reply})
	return reply, true
}

// recordQuestion appends the user turn and returns the request payload
// composed from the updated state.
func (s *Session) recordQuestion(text string, composer Composer) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, models.Message{Role: models.RoleUser, Content: text})
	s.context.RecordQuestion(text)
	return composer.RequestMessages(s.log, s.context)
}

func (s *Session) appendAssistant(text string) {
	s.mu.Lock()
	s.log = append(s.log, models.Message{Role: models.RoleAssistant, Content: text})
	s.mu.Unlock()
}
