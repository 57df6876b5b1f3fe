package chat

import (
	"regexp"
	"strings"
)

const nameCommand = "/name "

var introPattern = regexp.MustCompile(`(?i)\b(?:my name is|i am|i'm)\s+([A-Za-z][A-Za-z'’-]+(?:\s[A-Za-z][A-Za-z'’-]+)?)\b`)

// ExtractName looks for an explicit "/name " command or a self-introduction
// ("my name is", "i am", "i'm") and returns the name it carries.
// A command with nothing after it yields no name.
func ExtractName(text string) (string, bool) {
	if strings.HasPrefix(text, nameCommand) {
		name := strings.TrimSpace(text[len(nameCommand):])
		return name, name != ""
	}
	m := introPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	name := strings.TrimSpace(m[1])
	return name, name != ""
}
