package models

// Role tags who authored a conversation entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry of the conversation log. Its JSON shape is also the
// wire format of the completion request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
