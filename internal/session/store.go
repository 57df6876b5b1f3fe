package session

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"lorealchat/internal/chat"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// Store keeps live chat sessions for the duration of their use.
type Store interface {
	Create(ctx context.Context) (*chat.Session, error)
	Get(ctx context.Context, id string) (*chat.Session, error)
	Save(ctx context.Context, sess *chat.Session) error
	Delete(ctx context.Context, id string) error
	// Lock reserves the session for one turn. It returns
	// chat.ErrTurnInProgress when another turn holds it.
	Lock(ctx context.Context, id string) (func(), error)
	Close() error
}

// Template describes how new sessions start.
type Template struct {
	SystemPrompt string
	Greeting     string
}

func (t Template) newSession() *chat.Session {
	sess := chat.NewSession(uuid.NewString(), t.SystemPrompt)
	sess.Greet(t.Greeting)
	return sess
}

// RunTurn holds the turn lock for id while fn runs, then saves the session.
// State is loaded only after the lock is taken, so fn always starts from the
// last saved turn.
func RunTurn(ctx context.Context, store Store, id string, fn func(*chat.Session) error) error {
	unlock, err := store.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	sess, err := store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(sess); err != nil {
		return err
	}
	return store.Save(ctx, sess)
}
