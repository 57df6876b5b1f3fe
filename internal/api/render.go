package api

import (
	"strings"

	"lorealchat/internal/models"
)

const userLabel = "You"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// renderHTML escapes markup and keeps line breaks visible.
func renderHTML(text string) string {
	return strings.ReplaceAll(htmlEscaper.Replace(text), "\n", "<br />")
}

type renderedMessage struct {
	Role    models.Role `json:"role"`
	Label   string      `json:"label"`
	Content string      `json:"content"`
	HTML    string      `json:"html"`
}

func (h *Handler) renderMessage(role models.Role, text string) renderedMessage {
	label := userLabel
	if role == models.RoleAssistant {
		label = h.assistantLabel
	}
	return renderedMessage{Role: role, Label: label, Content: text, HTML: renderHTML(text)}
}

// renderTranscript returns the visible part of the log; system entries are
// instructions for the model, not transcript.
func (h *Handler) renderTranscript(log []models.Message) []renderedMessage {
	out := make([]renderedMessage, 0, len(log))
	for _, msg := range log {
		if msg.Role == models.RoleSystem {
			continue
		}
		out = append(out, h.renderMessage(msg.Role, msg.Content))
	}
	return out
}
