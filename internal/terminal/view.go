package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"lorealchat/internal/models"
)

var (
	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3B82F6"))
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#B8860B"))
	questionStyle       = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#888888"))
	typingStyle         = lipgloss.NewStyle().Faint(true)
)

// View prints a conversation to a terminal. Assistant replies are rendered as
// markdown when a renderer is available.
type View struct {
	out            io.Writer
	assistantLabel string
	renderer       *glamour.TermRenderer
}

// NewView builds a View writing to out. When plain is set, no markdown
// rendering is applied.
func NewView(out io.Writer, assistantLabel string, plain bool) *View {
	v := &View{out: out, assistantLabel: assistantLabel}
	if !plain {
		v.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
	}
	return v
}

func (v *View) ShowLatestQuestion(text string) {
	fmt.Fprintln(v.out, questionStyle.Render("Latest question: "+text))
}

func (v *View) AppendMessage(role models.Role, text string) {
	switch role {
	case models.RoleUser:
		fmt.Fprintf(v.out, "%s %s\n", userLabelStyle.Render("You:"), text)
	case models.RoleAssistant:
		fmt.Fprintf(v.out, "%s\n%s\n", assistantLabelStyle.Render(v.assistantLabel+":"), v.render(text))
	}
}

// SetInputEnabled is a no-op: Run only prompts between turns.
func (v *View) SetInputEnabled(bool) {}

func (v *View) ShowTyping() {
	fmt.Fprintln(v.out, typingStyle.Render(v.assistantLabel+" is typing..."))
}

func (v *View) HideTyping() {}

func (v *View) render(text string) string {
	if v.renderer == nil {
		return text
	}
	out, err := v.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
