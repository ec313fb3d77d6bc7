package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/polaris-lending/loan-origination/internal/model"
	"github.com/polaris-lending/loan-origination/pkg/logger"
)

const (
	// StreamName is the JetStream stream holding conversation events.
	StreamName = "LOAN_EVENTS"
	// subjectPrefix scopes event subjects: loans.events.<conversationID>.
	subjectPrefix = "loans.events"
)

// Publisher publishes conversation events. A nil Publisher is valid and
// discards every event, so callers never need to branch on configuration.
type Publisher struct {
	client *Client
	logger *logger.Logger
}

// NewPublisher creates a publisher over the given client. It ensures the
// event stream exists.
func NewPublisher(ctx context.Context, client *Client, log *logger.Logger) (*Publisher, error) {
	_, err := client.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{subjectPrefix + ".>"},
		Retention: jetstream.LimitsPolicy,
		Storage:   jetstream.FileStorage,
		MaxAge:    30 * 24 * time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure event stream: %w", err)
	}

	return &Publisher{client: client, logger: log}, nil
}

// Publish emits a conversation event. Failures are logged, never returned
// to the conversation flow.
func (p *Publisher) Publish(ctx context.Context, event *model.ConversationEvent) {
	if p == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("failed to marshal conversation event", zap.Error(err))
		return
	}

	subject := fmt.Sprintf("%s.%s", subjectPrefix, event.ConversationID)
	if _, err := p.client.js.Publish(ctx, subject, data); err != nil {
		p.logger.Warn("failed to publish conversation event",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}
