// Package logging publishes domain events to the structured log. It stands in
// for EventBridge when event delivery is disabled or running locally.
package logging

import (
	"context"

	"go.uber.org/zap"

	"friendship-backend/application/ports"
	"friendship-backend/domain/events"
)

// Compile-time interface check
var _ ports.EventPublisher = (*Publisher)(nil)

// Publisher logs every event at info level
type Publisher struct {
	logger *zap.Logger
}

// NewPublisher creates a logging publisher
func NewPublisher(logger *zap.Logger) *Publisher {
	return &Publisher{logger: logger.Named("events")}
}

// Publish logs one event
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.logger.Info("Domain event",
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateID", event.GetAggregateID()),
		zap.Time("timestamp", event.GetTimestamp()),
		zap.Any("event", event),
	)
	return nil
}

// PublishBatch logs every event
func (p *Publisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	for _, event := range domainEvents {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
