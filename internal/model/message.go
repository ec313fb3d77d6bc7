package model

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a conversation's history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SendMessageRequest is the request body for one conversation turn.
type SendMessageRequest struct {
	Text string `json:"text"`
}

// SendMessageResponse is the reply for one conversation turn.
type SendMessageResponse struct {
	Reply string    `json:"reply"`
	State StateView `json:"state"`
}
