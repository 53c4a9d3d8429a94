package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"github.com/FedericoTs/LinkedinAnalytics/application/ports"
	"github.com/FedericoTs/LinkedinAnalytics/domain/events"
)

// Source is the EventBridge source of every event this service emits
const Source = "linkedin-analytics.api"

// maxBatch is the PutEvents entry limit
const maxBatch = 10

// API is the subset of the EventBridge client the publisher uses
type API interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

var _ API = (*eventbridge.Client)(nil)

// Publisher implements ports.EventPublisher with AWS EventBridge
type Publisher struct {
	client       API
	eventBusName string
	maxRetries   int
	backoff      time.Duration
	logger       *zap.Logger
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher creates an EventBridge publisher for the named bus
func NewPublisher(client API, eventBusName string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		maxRetries:   3,
		backoff:      100 * time.Millisecond,
		logger:       logger,
	}
}

// Publish sends a single event
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch sends events in chunks of ten
func (p *Publisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	for i := 0; i < len(domainEvents); i += maxBatch {
		end := i + maxBatch
		if end > len(domainEvents) {
			end = len(domainEvents)
		}
		if err := p.publishWithRetry(ctx, domainEvents[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) entries(domainEvents []events.DomainEvent) []types.PutEventsRequestEntry {
	entries := make([]types.PutEventsRequestEntry, 0, len(domainEvents))
	for _, event := range domainEvents {
		data, err := json.Marshal(event)
		if err != nil {
			p.logger.Error("Failed to marshal event",
				zap.Error(err),
				zap.String("eventType", event.GetEventType()),
			)
			continue
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(Source),
			DetailType:   aws.String(event.GetEventType()),
			Detail:       aws.String(string(data)),
			Time:         aws.Time(event.GetTimestamp()),
		})
	}
	return entries
}

// publishWithRetry resends only the entries EventBridge reported as failed
func (p *Publisher) publishWithRetry(ctx context.Context, domainEvents []events.DomainEvent) error {
	pending := p.entries(domainEvents)
	backoff := p.backoff

	for attempt := 1; len(pending) > 0; attempt++ {
		out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: pending})
		if err != nil {
			return fmt.Errorf("failed to publish events to EventBridge: %w", err)
		}
		if out.FailedEntryCount == 0 {
			p.logger.Debug("Events published to EventBridge",
				zap.Int("count", len(pending)),
				zap.String("eventBus", p.eventBusName),
			)
			return nil
		}

		failed := make([]types.PutEventsRequestEntry, 0, out.FailedEntryCount)
		for i, result := range out.Entries {
			if result.ErrorCode != nil && i < len(pending) {
				p.logger.Warn("Event rejected by EventBridge",
					zap.String("eventType", aws.ToString(pending[i].DetailType)),
					zap.String("errorCode", aws.ToString(result.ErrorCode)),
					zap.String("errorMessage", aws.ToString(result.ErrorMessage)),
				)
				failed = append(failed, pending[i])
			}
		}
		if attempt >= p.maxRetries {
			return fmt.Errorf("%d events failed to publish after %d attempts", len(failed), attempt)
		}
		pending = failed

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
