package service

import (
	"context"
	"fmt"
	"time"

	"dalia-manager/internal/broker"
	"dalia-manager/internal/models"
	"dalia-manager/internal/redisclient"
	"dalia-manager/internal/store"
	"dalia-manager/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InventoryLedger owns the stock counters. Every mutation goes through a
// conditional update in Postgres first; the Redis mirror is updated afterwards
// on a best-effort basis and never decides the outcome.
type InventoryLedger struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewInventoryLedger creates a new inventory ledger
func NewInventoryLedger(store *store.Store, redis *redisclient.Client, eventPublisher *broker.EventPublisher) *InventoryLedger {
	return &InventoryLedger{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// CreateItemRequest registers a new inventory item on intake
type CreateItemRequest struct {
	SKU      string `json:"sku" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Category string `json:"category"`
	Quantity int    `json:"quantity" binding:"min=0"`
	Price    string `json:"price" binding:"required"`
	UnitCost string `json:"unit_cost"`
}

// CreateItem registers a new item and seeds its mirror counters
func (l *InventoryLedger) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	ctx, span := util.StartSpan(ctx, "InventoryLedger.CreateItem")
	defer span.End()

	if err := l.store.CreateInventoryItem(ctx, item); err != nil {
		return err
	}

	if err := l.redis.InitInventory(ctx, item.ID, item.Quantity, 0); err != nil {
		l.logger.Warn("Failed to seed inventory mirror",
			zap.String("inventory_id", item.ID),
			zap.Error(err))
	}

	l.logger.Info("Inventory item created",
		zap.String("inventory_id", item.ID),
		zap.String("sku", item.SKU))
	return nil
}

// GetItem retrieves an inventory item
func (l *InventoryLedger) GetItem(ctx context.Context, id string) (*models.InventoryItem, error) {
	return l.store.GetInventoryItem(ctx, id)
}

// ListItems retrieves inventory items matching an optional search term
func (l *InventoryLedger) ListItems(ctx context.Context, search string, includeArchived bool) ([]models.InventoryItem, error) {
	return l.store.ListInventory(ctx, search, includeArchived)
}

// UpdateItem updates catalog fields of an item
func (l *InventoryLedger) UpdateItem(ctx context.Context, item *models.InventoryItem) error {
	return l.store.UpdateInventoryItem(ctx, item)
}

// ArchiveItem soft-archives an item once nothing reserves it
func (l *InventoryLedger) ArchiveItem(ctx context.Context, id string) error {
	return l.store.ArchiveInventoryItem(ctx, id)
}

// ListMovements retrieves the audit trail of an item
func (l *InventoryLedger) ListMovements(ctx context.Context, inventoryID string) ([]models.InventoryMovement, error) {
	return l.store.ListMovements(ctx, inventoryID)
}

// AdjustStock applies a signed manual correction with a mandatory reason
func (l *InventoryLedger) AdjustStock(ctx context.Context, inventoryID string, delta int, reason string) error {
	ctx, span := util.StartSpan(ctx, "InventoryLedger.AdjustStock")
	defer span.End()

	if delta == 0 {
		return fmt.Errorf("%w: adjustment delta must be non-zero", models.ErrValidation)
	}
	if reason == "" {
		return fmt.Errorf("%w: adjustment reason is required", models.ErrValidation)
	}

	if err := l.store.AdjustStock(ctx, inventoryID, delta, reason); err != nil {
		return err
	}

	util.StockAdjustmentsTotal.Inc()

	item, err := l.store.GetInventoryItem(ctx, inventoryID)
	if err == nil {
		if mirrorErr := l.redis.InitInventory(ctx, item.ID, item.Quantity, item.QuantityReserved); mirrorErr != nil {
			l.logger.Warn("Failed to refresh inventory mirror after adjustment",
				zap.String("inventory_id", inventoryID),
				zap.Error(mirrorErr))
		}
	}

	event := &models.StockAdjustedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeStockAdjusted,
			Timestamp: time.Now(),
		},
		InventoryID: inventoryID,
		Delta:       delta,
		Reason:      reason,
	}
	if err := l.eventPublisher.PublishStockAdjusted(ctx, event); err != nil {
		l.logger.Error("Failed to publish StockAdjusted event", zap.Error(err))
	}

	l.logger.Info("Stock adjusted",
		zap.String("inventory_id", inventoryID),
		zap.Int("delta", delta),
		zap.String("reason", reason))
	return nil
}

// SyncMirror rebuilds the Redis mirror from Postgres; run at startup so the
// mirror survives restarts and flushes
func (l *InventoryLedger) SyncMirror(ctx context.Context) error {
	l.logger.Info("Starting inventory mirror sync")

	items, err := l.store.ListInventory(ctx, "", true)
	if err != nil {
		return fmt.Errorf("failed to list inventory: %w", err)
	}

	for _, item := range items {
		if err := l.redis.InitInventory(ctx, item.ID, item.Quantity, item.QuantityReserved); err != nil {
			l.logger.Error("Failed to seed inventory mirror",
				zap.String("inventory_id", item.ID),
				zap.Error(err))
		}
	}

	l.logger.Info("Inventory mirror sync completed", zap.Int("count", len(items)))
	return nil
}

func (l *InventoryLedger) mirrorReserve(ctx context.Context, inventoryID string, qty int) {
	applied, err := l.redis.MirrorReserve(ctx, inventoryID, qty)
	if err != nil {
		l.logger.Warn("Failed to mirror reservation",
			zap.String("inventory_id", inventoryID),
			zap.Error(err))
		return
	}
	if !applied {
		// The mirror fell behind the committed counters; reseed it from the row.
		item, err := l.store.GetInventoryItem(ctx, inventoryID)
		if err != nil {
			l.logger.Warn("Failed to reload item for mirror reseed",
				zap.String("inventory_id", inventoryID),
				zap.Error(err))
			return
		}
		if err := l.redis.InitInventory(ctx, item.ID, item.Quantity, item.QuantityReserved); err != nil {
			l.logger.Warn("Failed to reseed inventory mirror",
				zap.String("inventory_id", inventoryID),
				zap.Error(err))
		}
	}
}

func (l *InventoryLedger) mirrorRelease(ctx context.Context, inventoryID string, qty int) {
	if err := l.redis.MirrorRelease(ctx, inventoryID, qty); err != nil {
		l.logger.Warn("Failed to mirror release",
			zap.String("inventory_id", inventoryID),
			zap.Error(err))
	}
}

func (l *InventoryLedger) mirrorConsume(ctx context.Context, inventoryID string, qty int) {
	if err := l.redis.MirrorConsume(ctx, inventoryID, qty); err != nil {
		l.logger.Warn("Failed to mirror consumption",
			zap.String("inventory_id", inventoryID),
			zap.Error(err))
	}
}
