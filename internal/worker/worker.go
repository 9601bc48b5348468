package worker

import (
	"context"
	"fmt"

	"dalia-manager/internal/broker"
	"dalia-manager/internal/models"
	"dalia-manager/internal/service"
	"dalia-manager/internal/store"
	"dalia-manager/internal/util"

	"go.uber.org/zap"
)

// ReceiptWorker reacts to concluded settlements: when no receipt was attached
// at finalization, it renders the PDF and stores its URL on the acerto.
// Processing is idempotent per event so Kafka redeliveries are harmless.
type ReceiptWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	documents    service.DocumentGenerator
	logger       *zap.Logger
}

// NewReceiptWorker creates a new receipt worker
func NewReceiptWorker(
	consumer *broker.Consumer,
	store *store.Store,
	documents service.DocumentGenerator,
) *ReceiptWorker {
	w := &ReceiptWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		store:        store,
		documents:    documents,
		logger:       util.GetLogger(),
	}
	w.eventHandler.OnSettlementConcluded(w.handleSettlementConcluded)
	return w
}

// Start starts the worker
func (w *ReceiptWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting receipt worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ReceiptWorker) Stop() error {
	w.logger.Info("Stopping receipt worker")
	return w.consumer.Close()
}

func (w *ReceiptWorker) handleSettlementConcluded(ctx context.Context, event *models.SettlementConcludedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		w.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	if event.ReceiptURL != nil && *event.ReceiptURL != "" {
		// Receipt was attached at finalization; nothing to render.
		return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
	}

	settlement, err := w.store.GetSettlement(ctx, event.AcertoID)
	if err != nil {
		return fmt.Errorf("failed to load settlement: %w", err)
	}
	items, err := w.store.ListSettlementItems(ctx, event.AcertoID)
	if err != nil {
		return fmt.Errorf("failed to load settlement items: %w", err)
	}

	url, err := w.documents.GenerateReceipt(ctx, settlement, items)
	if err != nil {
		// Not committed; the message is redelivered and rendering retried.
		return fmt.Errorf("failed to generate receipt for settlement %s: %w", event.AcertoID, err)
	}

	if err := w.store.AttachReceiptURL(ctx, event.AcertoID, url); err != nil {
		return fmt.Errorf("failed to attach receipt: %w", err)
	}

	util.ReceiptsGeneratedTotal.Inc()
	w.logger.Info("Receipt generated",
		zap.String("acerto_id", event.AcertoID),
		zap.String("url", url))

	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}
