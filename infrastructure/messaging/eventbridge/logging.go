package eventbridge

import (
	"context"

	"go.uber.org/zap"

	"github.com/FedericoTs/LinkedinAnalytics/domain/events"
)

// LoggingPublisher writes events to the log. It stands in for EventBridge
// when no event bus is configured.
type LoggingPublisher struct {
	logger *zap.Logger
}

// NewLoggingPublisher creates a LoggingPublisher
func NewLoggingPublisher(logger *zap.Logger) *LoggingPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(_ context.Context, event events.DomainEvent) error {
	p.logger.Info("Domain event",
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateID", event.GetAggregateID()),
		zap.Time("timestamp", event.GetTimestamp()),
	)
	return nil
}

func (p *LoggingPublisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	for _, event := range domainEvents {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
