// Package service provides business logic for the loan-origination platform.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/polaris-lending/loan-origination/internal/events"
	"github.com/polaris-lending/loan-origination/internal/model"
	"github.com/polaris-lending/loan-origination/internal/orchestrator"
	"github.com/polaris-lending/loan-origination/pkg/logger"
	"github.com/polaris-lending/loan-origination/pkg/metrics"
)

// conversationEntry pairs a conversation with its turn lock. The lock
// serializes turns within one conversation; conversations remain fully
// independent of one another.
type conversationEntry struct {
	conv   *model.Conversation
	turnMu sync.Mutex
}

// ConversationService manages conversation lifecycle and turn processing.
type ConversationService struct {
	orchestrator  *orchestrator.Orchestrator
	publisher     *events.Publisher
	logger        *logger.Logger
	maxAgentCalls int

	// In-memory storage for conversations (would be replaced with a
	// database in production).
	conversations map[string]*conversationEntry
	mu            sync.RWMutex
}

// NewConversationService creates a new conversation service.
func NewConversationService(
	orch *orchestrator.Orchestrator,
	publisher *events.Publisher,
	maxAgentCalls int,
	log *logger.Logger,
) *ConversationService {
	return &ConversationService{
		orchestrator:  orch,
		publisher:     publisher,
		logger:        log,
		maxAgentCalls: maxAgentCalls,
		conversations: make(map[string]*conversationEntry),
	}
}

// Create starts a new conversation.
func (s *ConversationService) Create(ctx context.Context, tenantID, userID string) (*model.Conversation, error) {
	now := time.Now()

	conv := &model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		TenantID:  tenantID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
		State:     model.NewConversationState(s.maxAgentCalls),
	}

	s.mu.Lock()
	s.conversations[conv.ID] = &conversationEntry{conv: conv}
	s.mu.Unlock()

	metrics.ConversationsTotal.WithLabelValues(tenantID).Inc()
	s.logger.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("tenant_id", tenantID),
	)

	return conv, nil
}

// Get retrieves a conversation by ID.
func (s *ConversationService) Get(ctx context.Context, tenantID, conversationID string) (*model.Conversation, error) {
	entry, err := s.entry(tenantID, conversationID)
	if err != nil {
		return nil, err
	}
	return entry.conv, nil
}

// List retrieves conversations for a tenant.
func (s *ConversationService) List(ctx context.Context, tenantID string, limit, offset int) (*model.ListConversationsResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var details []model.ConversationDetail
	for _, entry := range s.conversations {
		if entry.conv.TenantID == tenantID && !entry.conv.Deleted {
			details = append(details, model.ConversationDetail{
				Conversation: *entry.conv,
				State:        entry.conv.State.View(),
			})
		}
	}

	// Simple pagination
	total := len(details)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &model.ListConversationsResponse{
		Conversations: details[start:end],
		Total:         total,
		HasMore:       end < total,
	}, nil
}

// Delete soft deletes a conversation.
func (s *ConversationService) Delete(ctx context.Context, tenantID, conversationID string) error {
	entry, err := s.entry(tenantID, conversationID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	entry.conv.Deleted = true
	entry.conv.UpdatedAt = time.Now()
	s.mu.Unlock()

	return nil
}

// ProcessMessage runs one conversation turn: exactly one inbound message
// produces exactly one outbound reply. Turns within a conversation are
// strictly sequential.
func (s *ConversationService) ProcessMessage(ctx context.Context, tenantID, conversationID, text string) (*model.SendMessageResponse, error) {
	entry, err := s.entry(tenantID, conversationID)
	if err != nil {
		return nil, err
	}

	entry.turnMu.Lock()
	defer entry.turnMu.Unlock()

	st := entry.conv.State
	beforeStage := st.Stage
	beforeDecision := st.Decision
	wasTerminal := st.IsTerminal()

	start := time.Now()
	reply := s.orchestrator.ProcessMessage(ctx, st, text)
	entry.conv.UpdatedAt = time.Now()

	metrics.TurnsTotal.WithLabelValues(tenantID).Inc()
	metrics.TurnDuration.Observe(time.Since(start).Seconds())

	s.publishTurnEvents(ctx, entry.conv, beforeStage, beforeDecision, wasTerminal)

	s.logger.Info("turn processed",
		zap.String("conversation_id", conversationID),
		zap.String("tenant_id", tenantID),
		zap.String("from_stage", string(beforeStage)),
		zap.String("to_stage", string(st.Stage)),
		zap.Int("total_agent_calls", st.Guard.TotalCalls),
	)

	return &model.SendMessageResponse{
		Reply: reply,
		State: st.View(),
	}, nil
}

func (s *ConversationService) publishTurnEvents(ctx context.Context, conv *model.Conversation, beforeStage model.Stage, beforeDecision model.Decision, wasTerminal bool) {
	st := conv.State
	now := time.Now()

	if st.Stage != beforeStage {
		s.publisher.Publish(ctx, &model.ConversationEvent{
			ID:             uuid.Must(uuid.NewV7()).String(),
			ConversationID: conv.ID,
			TenantID:       conv.TenantID,
			Type:           model.EventTypeStageTransition,
			FromStage:      beforeStage,
			ToStage:        st.Stage,
			CreatedAt:      now,
		})
	}

	if st.Decision != "" && st.Decision != beforeDecision {
		s.publisher.Publish(ctx, &model.ConversationEvent{
			ID:             uuid.Must(uuid.NewV7()).String(),
			ConversationID: conv.ID,
			TenantID:       conv.TenantID,
			Type:           model.EventTypeDecision,
			Decision:       st.Decision,
			Reason:         st.RejectionReason,
			CreatedAt:      now,
		})
	}

	if st.IsTerminal() && !wasTerminal {
		metrics.TerminalOutcomesTotal.WithLabelValues(string(st.TerminalState)).Inc()
		s.publisher.Publish(ctx, &model.ConversationEvent{
			ID:             uuid.Must(uuid.NewV7()).String(),
			ConversationID: conv.ID,
			TenantID:       conv.TenantID,
			Type:           model.EventTypeTerminal,
			Terminal:       st.TerminalState,
			Reason:         st.RejectionReason,
			CreatedAt:      now,
		})
	}
}

func (s *ConversationService) entry(tenantID, conversationID string) (*conversationEntry, error) {
	s.mu.RLock()
	entry, exists := s.conversations[conversationID]
	s.mu.RUnlock()

	if !exists || entry.conv.TenantID != tenantID || entry.conv.Deleted {
		return nil, fmt.Errorf("conversation not found")
	}
	return entry, nil
}
