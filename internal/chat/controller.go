package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"lorealchat/internal/models"
)

const (
	DefaultGreetingFormat = "Nice to meet you, %s! I’ll remember your name for this session. How can I help you with L'Oréal products today?"
	apologyPrefix         = "Sorry, something went wrong: "
)

// Completer sends the composed messages to the model and returns its reply.
type Completer interface {
	Complete(ctx context.Context, messages []models.Message) (string, error)
}

// Outcome classifies how a turn ended.
type Outcome string

const (
	OutcomeSkipped      Outcome = "skipped"
	OutcomeNameCaptured Outcome = "name_captured"
	OutcomeCompleted    Outcome = "completed"
	OutcomeFailed       Outcome = "failed"
)

// TurnResult reports what a turn did. Err is set for OutcomeFailed only and
// has already been shown to the user.
type TurnResult struct {
	Outcome Outcome
	Reply   string
	Err     error
}

// ControllerConfig tunes the wording used by the controller.
type ControllerConfig struct {
	Closing        string
	GreetingFormat string
	Logger         *zap.Logger
}

// Controller runs turns against sessions.
type Controller struct {
	client         Completer
	composer       Composer
	greetingFormat string
	logger         *zap.Logger
}

func NewController(client Completer, cfg ControllerConfig) *Controller {
	greeting := cfg.GreetingFormat
	if greeting == "" {
		greeting = DefaultGreetingFormat
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		client:         client,
		composer:       Composer{Closing: cfg.Closing},
		greetingFormat: greeting,
		logger:         logger,
	}
}

// Submit runs one turn for input. Completion failures are rendered through
// view and reported in the result; the only returned error is
// ErrTurnInProgress.
func (c *Controller) Submit(ctx context.Context, s *Session, input string, view View) (TurnResult, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return TurnResult{Outcome: OutcomeSkipped}, nil
	}
	if !s.beginTurn() {
		return TurnResult{}, ErrTurnInProgress
	}
	defer s.endTurn()
	if view == nil {
		view = nopView{}
	}
	view.ShowLatestQuestion(text)

	if name, ok := ExtractName(text); ok {
		if greeting, captured := s.captureName(text, name, c.greet); captured {
			view.AppendMessage(models.RoleUser, text)
			view.AppendMessage(models.RoleAssistant, greeting)
			c.logger.Debug("name captured", zap.String("session", s.ID), zap.String("name", name))
			return TurnResult{Outcome: OutcomeNameCaptured, Reply: greeting}, nil
		}
	}
	return c.complete(ctx, s, text, view), nil
}

func (c *Controller) complete(ctx context.Context, s *Session, text string, view View) TurnResult {
	view.AppendMessage(models.RoleUser, text)
	messages := s.recordQuestion(text, c.composer)

	view.SetInputEnabled(false)
	defer view.SetInputEnabled(true)
	view.ShowTyping()

	reply, err := c.client.Complete(ctx, messages)
	view.HideTyping()
	if err != nil {
		c.logger.Warn("completion failed", zap.String("session", s.ID), zap.Error(err))
		view.AppendMessage(models.RoleAssistant, apologyPrefix+err.Error())
		return TurnResult{Outcome: OutcomeFailed, Err: err}
	}
	s.appendAssistant(reply)
	view.AppendMessage(models.RoleAssistant, reply)
	c.logger.Debug("turn completed", zap.String("session", s.ID), zap.Int("request_messages", len(messages)))
	return TurnResult{Outcome: OutcomeCompleted, Reply: reply}
}

func (c *Controller) greet(name string) string {
	return fmt.Sprintf(c.greetingFormat, name)
}
