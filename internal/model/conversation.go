package model

import (
	"time"
)

// Conversation represents one loan-origination conversation thread.
type Conversation struct {
	ID        string             `json:"id"`
	TenantID  string             `json:"tenant_id"`
	UserID    string             `json:"user_id"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	State     *ConversationState `json:"-"`
	Deleted   bool               `json:"deleted,omitempty"`
}

// CreateConversationRequest is the request to start a new conversation.
type CreateConversationRequest struct {
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CreateConversationResponse is returned when a conversation is started.
type CreateConversationResponse struct {
	Conversation Conversation `json:"conversation"`
	State        StateView    `json:"state"`
}

// ConversationDetail is a conversation together with its state view.
type ConversationDetail struct {
	Conversation Conversation `json:"conversation"`
	State        StateView    `json:"state"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []ConversationDetail `json:"conversations"`
	Total         int                  `json:"total"`
	HasMore       bool                 `json:"has_more"`
}
