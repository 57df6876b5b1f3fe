package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"lorealchat/internal/chat"
	"lorealchat/internal/models"
)

const prompt = "> "

// Run reads lines from in and submits each one as a turn until in is
// exhausted, ctx is done, or the user types /quit.
func Run(ctx context.Context, in io.Reader, view *View, controller *chat.Controller, sess *chat.Session, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, msg := range sess.Messages() {
		if msg.Role != models.RoleSystem {
			view.AppendMessage(msg.Role, msg.Content)
		}
	}

	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(view.out, prompt)
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "/quit" {
			return nil
		}
		res, err := controller.Submit(ctx, sess, line, view)
		if err != nil {
			return fmt.Errorf("submit turn: %w", err)
		}
		if res.Err != nil {
			logger.Debug("turn failed", zap.String("session", sess.ID), zap.Error(res.Err))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}
