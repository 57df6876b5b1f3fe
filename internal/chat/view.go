package chat

import "lorealchat/internal/models"

// View is the presentation side of a turn.
type View interface {
	ShowLatestQuestion(text string)
	AppendMessage(role models.Role, text string)
	SetInputEnabled(enabled bool)
	ShowTyping()
	HideTyping()
}

type nopView struct{}

func (nopView) ShowLatestQuestion(string)         {}
func (nopView) AppendMessage(models.Role, string) {}
func (nopView) SetInputEnabled(bool)              {}
func (nopView) ShowTyping()                       {}
func (nopView) HideTyping()                       {}
