package models

// SessionContext holds the personalization state gathered during a session.
type SessionContext struct {
	UserName      string   `json:"user_name,omitempty"`
	PastQuestions []string `json:"past_questions"`
}

// HasName reports whether a name has been captured.
func (c *SessionContext) HasName() bool {
	return c.UserName != ""
}

// SetNameIfUnset stores name only when no name is known yet.
func (c *SessionContext) SetNameIfUnset(name string) bool {
	if c.HasName() || name == "" {
		return false
	}
	c.UserName = name
	return true
}

// RecordQuestion appends text to the question history.
func (c *SessionContext) RecordQuestion(text string) {
	c.PastQuestions = append(c.PastQuestions, text)
}

// RecentQuestions returns a copy of the last n recorded questions.
func (c *SessionContext) RecentQuestions(n int) []string {
	if n <= 0 || len(c.PastQuestions) == 0 {
		return nil
	}
	start := len(c.PastQuestions) - n
	if start < 0 {
		start = 0
	}
	out := make([]string, len(c.PastQuestions)-start)
	copy(out, c.PastQuestions[start:])
	return out
}
