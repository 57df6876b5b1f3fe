package chat

import (
	"strings"

	"lorealchat/internal/models"
)

// RecentQuestionWindow is how many past questions the summary carries.
const RecentQuestionWindow = 8

const (
	DefaultClosingInstruction = "Please use this context to deliver personalized, consistent L'Oréal product recommendations."
	noQuestionsLine           = "No prior questions recorded."
	questionSeparator         = " | "
)

// Composer builds the personalization summary and the outbound message list.
type Composer struct {
	Closing string
}

var defaultComposer = Composer{Closing: DefaultClosingInstruction}

// ComposeSummary renders the summary with the default closing instruction.
func ComposeSummary(ctx models.SessionContext) string {
	return defaultComposer.Summary(ctx)
}

// ComposeRequestMessages inserts a fresh summary after the system instruction.
func ComposeRequestMessages(log []models.Message, ctx models.SessionContext) []models.Message {
	return defaultComposer.RequestMessages(log, ctx)
}

func (c Composer) Summary(ctx models.SessionContext) string {
	var b strings.Builder
	b.WriteString("Name: ")
	if ctx.HasName() {
		b.WriteString(ctx.UserName)
	} else {
		b.WriteString("unknown")
	}
	b.WriteByte('\n')
	if recent := ctx.RecentQuestions(RecentQuestionWindow); len(recent) > 0 {
		b.WriteString("Recent user questions: ")
		b.WriteString(strings.Join(recent, questionSeparator))
	} else {
		b.WriteString(noQuestionsLine)
	}
	b.WriteByte('\n')
	closing := c.Closing
	if closing == "" {
		closing = DefaultClosingInstruction
	}
	b.WriteString(closing)
	return b.String()
}

// RequestMessages returns log with a summary message at index 1. log is not
// modified.
func (c Composer) RequestMessages(log []models.Message, ctx models.SessionContext) []models.Message {
	summary := models.Message{Role: models.RoleSystem, Content: c.Summary(ctx)}
	if len(log) == 0 {
		return []models.Message{summary}
	}
	out := make([]models.Message, 0, len(log)+1)
	out = append(out, log[0], summary)
	out = append(out, log[1:]...)
	return out
}
