package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"dalia-manager/internal/models"
	"dalia-manager/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func suitcaseKey(suitcaseID string) string {
	return fmt.Sprintf("suitcase-%s", suitcaseID)
}

// PublishSuitcaseSupplied publishes SuitcaseSupplied event
func (ep *EventPublisher) PublishSuitcaseSupplied(ctx context.Context, event *models.SuitcaseSuppliedEvent) error {
	return ep.producer.PublishEvent(ctx, suitcaseKey(event.SuitcaseID), event)
}

// PublishItemReturned publishes ItemReturned event
func (ep *EventPublisher) PublishItemReturned(ctx context.Context, event *models.ItemReturnedEvent) error {
	return ep.producer.PublishEvent(ctx, suitcaseKey(event.SuitcaseID), event)
}

// PublishStockAdjusted publishes StockAdjusted event
func (ep *EventPublisher) PublishStockAdjusted(ctx context.Context, event *models.StockAdjustedEvent) error {
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("inventory-%s", event.InventoryID), event)
}

// PublishSettlementCreated publishes SettlementCreated event
func (ep *EventPublisher) PublishSettlementCreated(ctx context.Context, event *models.SettlementCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, suitcaseKey(event.SuitcaseID), event)
}

// PublishSettlementConcluded publishes SettlementConcluded event
func (ep *EventPublisher) PublishSettlementConcluded(ctx context.Context, event *models.SettlementConcludedEvent) error {
	return ep.producer.PublishEvent(ctx, suitcaseKey(event.SuitcaseID), event)
}

// EventHandler routes incoming events to registered callbacks
type EventHandler struct {
	onSettlementConcluded func(context.Context, *models.SettlementConcludedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnSettlementConcluded registers a handler for SettlementConcluded events
func (eh *EventHandler) OnSettlementConcluded(handler func(context.Context, *models.SettlementConcludedEvent) error) {
	eh.onSettlementConcluded = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeSettlementConcluded:
		if eh.onSettlementConcluded != nil {
			var event models.SettlementConcludedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal SettlementConcluded event: %w", err)
			}
			return eh.onSettlementConcluded(ctx, &event)
		}

	default:
		// Other event types feed external consumers; nothing to do here.
		util.GetLogger().Debug("Skipping event", zap.String("type", baseEvent.EventType))
	}

	return nil
}
