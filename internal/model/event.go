package model

import (
	"time"
)

// EventType represents the type of conversation event.
type EventType string

const (
	EventTypeStageTransition EventType = "stage_transition"
	EventTypeDecision        EventType = "decision"
	EventTypeTerminal        EventType = "terminal"
)

// ConversationEvent is an audit record emitted as a conversation progresses.
type ConversationEvent struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	TenantID       string        `json:"tenant_id"`
	Type           EventType     `json:"type"`
	FromStage      Stage         `json:"from_stage,omitempty"`
	ToStage        Stage         `json:"to_stage,omitempty"`
	Decision       Decision      `json:"decision,omitempty"`
	Terminal       TerminalState `json:"terminal,omitempty"`
	Reason         string        `json:"reason,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}
