package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dalia-manager/internal/broker"
	"dalia-manager/internal/models"
	"dalia-manager/internal/store"
	"dalia-manager/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SuitcaseService handles the suitcase lifecycle and the items tracked inside
// each suitcase
type SuitcaseService struct {
	store          *store.Store
	ledger         *InventoryLedger
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewSuitcaseService creates a new suitcase service
func NewSuitcaseService(store *store.Store, ledger *InventoryLedger, eventPublisher *broker.EventPublisher) *SuitcaseService {
	return &SuitcaseService{
		store:          store,
		ledger:         ledger,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// CreateSuitcaseRequest registers a new suitcase for a reseller
type CreateSuitcaseRequest struct {
	Code         string `json:"code" binding:"required"`
	SellerID     string `json:"seller_id" binding:"required"`
	City         string `json:"city"`
	Neighborhood string `json:"neighborhood"`
}

// SupplyItemRequest places inventory into a suitcase; quantity defaults to 1
type SupplyItemRequest struct {
	InventoryID string `json:"inventory_id" binding:"required"`
	Quantity    int    `json:"quantity" binding:"min=0"`
}

// CreateSuitcase registers a new suitcase bound to an active reseller
func (s *SuitcaseService) CreateSuitcase(ctx context.Context, req *CreateSuitcaseRequest) (*models.Suitcase, error) {
	ctx, span := util.StartSpan(ctx, "SuitcaseService.CreateSuitcase")
	defer span.End()

	seller, err := s.store.GetReseller(ctx, req.SellerID)
	if err != nil {
		return nil, err
	}
	if seller.Status != models.PartnerStatusActive {
		return nil, fmt.Errorf("%w: reseller %s is inactive", models.ErrValidation, seller.ID)
	}

	suitcase := &models.Suitcase{
		Code:         req.Code,
		SellerID:     req.SellerID,
		Status:       models.SuitcaseStatusInUse,
		City:         req.City,
		Neighborhood: req.Neighborhood,
	}
	if err := s.store.CreateSuitcase(ctx, suitcase); err != nil {
		return nil, err
	}

	s.logger.Info("Suitcase created",
		zap.String("suitcase_id", suitcase.ID),
		zap.String("code", suitcase.Code),
		zap.String("seller_id", suitcase.SellerID))
	return suitcase, nil
}

// GetSuitcase retrieves a suitcase by ID
func (s *SuitcaseService) GetSuitcase(ctx context.Context, id string) (*models.Suitcase, error) {
	return s.store.GetSuitcase(ctx, id)
}

// ListSuitcases retrieves suitcases filtered by status and/or reseller
func (s *SuitcaseService) ListSuitcases(ctx context.Context, status, sellerID string) ([]models.Suitcase, error) {
	if status != "" && !models.ValidSuitcaseStatus(status) {
		return nil, fmt.Errorf("%w: unknown suitcase status %q", models.ErrValidation, status)
	}
	return s.store.ListSuitcases(ctx, status, sellerID)
}

// ChangeStatus moves a suitcase along the lifecycle. Transitions out of
// circulation are blocked while a settlement is pending.
func (s *SuitcaseService) ChangeStatus(ctx context.Context, suitcaseID, newStatus string) (*models.Suitcase, error) {
	ctx, span := util.StartSpan(ctx, "SuitcaseService.ChangeStatus")
	defer span.End()

	if !models.ValidSuitcaseStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown suitcase status %q", models.ErrValidation, newStatus)
	}

	suitcase, err := s.store.GetSuitcase(ctx, suitcaseID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransitionSuitcase(suitcase.Status, newStatus) {
		return nil, fmt.Errorf("%w: suitcase %s -> %s", models.ErrInvalidTransition, suitcase.Status, newStatus)
	}

	pending, err := s.store.GetPendingSettlement(ctx, suitcaseID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, fmt.Errorf("%w: conclude settlement %s first", models.ErrSettlementAlreadyPending, pending.ID)
	}

	if err := s.store.UpdateSuitcaseStatus(ctx, suitcaseID, newStatus); err != nil {
		return nil, err
	}

	s.logger.Info("Suitcase status changed",
		zap.String("suitcase_id", suitcaseID),
		zap.String("from", suitcase.Status),
		zap.String("to", newStatus))

	suitcase.Status = newStatus
	return suitcase, nil
}

// CanDelete reports what blocks deletion of a suitcase, if anything
func (s *SuitcaseService) CanDelete(ctx context.Context, suitcaseID string) (models.SuitcaseBlockers, []string, error) {
	if _, err := s.store.GetSuitcase(ctx, suitcaseID); err != nil {
		return models.SuitcaseBlockers{}, nil, err
	}
	blockers, err := s.store.GetSuitcaseBlockers(ctx, suitcaseID)
	if err != nil {
		return models.SuitcaseBlockers{}, nil, err
	}
	return blockers, blockerReasons(blockers), nil
}

// blockerReasons renders blocker counts as operator-facing messages
func blockerReasons(b models.SuitcaseBlockers) []string {
	var reasons []string
	if b.ItemsInPossession > 0 {
		reasons = append(reasons, fmt.Sprintf("%d item(s) still with the reseller", b.ItemsInPossession))
	}
	if b.ItemsSold > 0 {
		reasons = append(reasons, fmt.Sprintf("%d sold item(s) awaiting settlement", b.ItemsSold))
	}
	if b.PendingAcertos > 0 {
		reasons = append(reasons, fmt.Sprintf("%d pending settlement(s)", b.PendingAcertos))
	}
	return reasons
}

// DeleteSuitcase removes a suitcase and its dependent records in one
// transaction, refusing while items or settlements are still open
func (s *SuitcaseService) DeleteSuitcase(ctx context.Context, suitcaseID string) error {
	ctx, span := util.StartSpan(ctx, "SuitcaseService.DeleteSuitcase")
	defer span.End()

	blockers, reasons, err := s.CanDelete(ctx, suitcaseID)
	if err != nil {
		return err
	}
	if !blockers.Empty() {
		return fmt.Errorf("%w: %s", models.ErrCascadeBlocked, strings.Join(reasons, "; "))
	}

	if err := s.store.DeleteSuitcaseCascade(ctx, suitcaseID); err != nil {
		return err
	}

	util.SuitcasesDeletedTotal.Inc()
	s.logger.Info("Suitcase deleted", zap.String("suitcase_id", suitcaseID))
	return nil
}

// SupplyItem reserves stock and tracks the unit inside the suitcase. When the
// reservation fails because other suitcases hold the stock, the error says so
// instead of reporting plain exhaustion.
func (s *SuitcaseService) SupplyItem(ctx context.Context, suitcaseID string, req *SupplyItemRequest) (*models.SuitcaseItem, error) {
	ctx, span := util.StartSpan(ctx, "SuitcaseService.SupplyItem")
	defer span.End()

	suitcase, err := s.store.GetSuitcase(ctx, suitcaseID)
	if err != nil {
		return nil, err
	}
	if suitcase.Status != models.SuitcaseStatusInUse && suitcase.Status != models.SuitcaseStatusInReplenishment {
		return nil, fmt.Errorf("%w: suitcase %s is %s", models.ErrInvalidTransition, suitcaseID, suitcase.Status)
	}

	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item := &models.SuitcaseItem{
		SuitcaseID:  suitcaseID,
		InventoryID: req.InventoryID,
		Quantity:    req.Quantity,
	}
	if err := s.store.SupplyItemTx(ctx, item); err != nil {
		if errors.Is(err, models.ErrInsufficientStock) {
			elsewhere, countErr := s.store.CountInPossessionElsewhere(ctx, req.InventoryID, suitcaseID)
			if countErr == nil && elsewhere > 0 {
				util.ReservationsFailedTotal.WithLabelValues("held_elsewhere").Inc()
				return nil, fmt.Errorf("%w: %d unit(s) held by other suitcases", models.ErrItemElsewhere, elsewhere)
			}
			util.ReservationsFailedTotal.WithLabelValues("insufficient_stock").Inc()
		}
		return nil, err
	}

	s.ledger.mirrorReserve(ctx, req.InventoryID, req.Quantity)
	util.SuppliesTotal.Inc()

	event := &models.SuitcaseSuppliedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSuitcaseSupplied,
			Timestamp: time.Now(),
		},
		SuitcaseID:  suitcaseID,
		InventoryID: req.InventoryID,
		ItemID:      item.ID,
		Quantity:    req.Quantity,
	}
	if err := s.eventPublisher.PublishSuitcaseSupplied(ctx, event); err != nil {
		s.logger.Error("Failed to publish SuitcaseSupplied event", zap.Error(err))
	}

	s.logger.Info("Item supplied",
		zap.String("suitcase_id", suitcaseID),
		zap.String("inventory_id", req.InventoryID),
		zap.Int("quantity", req.Quantity))
	return item, nil
}

// ListItems retrieves the items of a suitcase, one line per row
func (s *SuitcaseService) ListItems(ctx context.Context, suitcaseID string) ([]models.SuitcaseItem, error) {
	if _, err := s.store.GetSuitcase(ctx, suitcaseID); err != nil {
		return nil, err
	}
	return s.store.ListSuitcaseItems(ctx, suitcaseID)
}

// ListItemsGrouped retrieves the items of a suitcase collapsed per product
func (s *SuitcaseService) ListItemsGrouped(ctx context.Context, suitcaseID string) ([]models.GroupedItem, error) {
	items, err := s.ListItems(ctx, suitcaseID)
	if err != nil {
		return nil, err
	}
	return models.GroupByProduct(items), nil
}

// MarkItemSold flags an in-possession item as sold; stock is consumed later by
// the settlement batch, not here
func (s *SuitcaseService) MarkItemSold(ctx context.Context, itemID string) (*models.SuitcaseItem, error) {
	ctx, span := util.StartSpan(ctx, "SuitcaseService.MarkItemSold")
	defer span.End()

	item, err := s.store.UpdateSuitcaseItemStatusTx(ctx, itemID, models.ItemStatusSold)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Item marked sold",
		zap.String("item_id", itemID),
		zap.String("suitcase_id", item.SuitcaseID))
	return item, nil
}

// ReturnItem brings an item back to sellable stock
func (s *SuitcaseService) ReturnItem(ctx context.Context, itemID string) (*models.SuitcaseItem, error) {
	ctx, span := util.StartSpan(ctx, "SuitcaseService.ReturnItem")
	defer span.End()

	item, err := s.store.UpdateSuitcaseItemStatusTx(ctx, itemID, models.ItemStatusReturned)
	if err != nil {
		return nil, err
	}

	s.ledger.mirrorRelease(ctx, item.InventoryID, item.Quantity)
	util.ItemsReturnedTotal.WithLabelValues("intact").Inc()
	s.publishItemReturned(ctx, item, false)

	s.logger.Info("Item returned",
		zap.String("item_id", itemID),
		zap.String("inventory_id", item.InventoryID))
	return item, nil
}

// MarkItemLost records an item as lost or damaged. The reservation is
// released but the unit never returns to sellable stock.
func (s *SuitcaseService) MarkItemLost(ctx context.Context, itemID string) (*models.SuitcaseItem, error) {
	ctx, span := util.StartSpan(ctx, "SuitcaseService.MarkItemLost")
	defer span.End()

	item, err := s.store.UpdateSuitcaseItemStatusTx(ctx, itemID, models.ItemStatusLost)
	if err != nil {
		return nil, err
	}

	s.ledger.mirrorConsume(ctx, item.InventoryID, item.Quantity)
	util.ItemsReturnedTotal.WithLabelValues("damaged").Inc()
	s.publishItemReturned(ctx, item, true)

	s.logger.Warn("Item marked lost",
		zap.String("item_id", itemID),
		zap.String("inventory_id", item.InventoryID))
	return item, nil
}

// UpdateItemQuantity changes the tracked quantity of an in-possession item
func (s *SuitcaseService) UpdateItemQuantity(ctx context.Context, itemID string, newQty int) (*models.SuitcaseItem, error) {
	ctx, span := util.StartSpan(ctx, "SuitcaseService.UpdateItemQuantity")
	defer span.End()

	if newQty < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", models.ErrValidation)
	}

	before, err := s.store.GetSuitcaseItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	item, err := s.store.UpdateSuitcaseItemQuantityTx(ctx, itemID, newQty)
	if err != nil {
		return nil, err
	}

	delta := newQty - before.Quantity
	switch {
	case delta > 0:
		s.ledger.mirrorReserve(ctx, item.InventoryID, delta)
	case delta < 0:
		s.ledger.mirrorRelease(ctx, item.InventoryID, -delta)
	}
	return item, nil
}

// RemoveItem deletes a suitcase item supplied by mistake, returning the
// reservation to stock when it was still in possession
func (s *SuitcaseService) RemoveItem(ctx context.Context, itemID string) error {
	ctx, span := util.StartSpan(ctx, "SuitcaseService.RemoveItem")
	defer span.End()

	item, err := s.store.RemoveSuitcaseItemTx(ctx, itemID)
	if err != nil {
		return err
	}

	if item.Status == models.ItemStatusInPossession {
		s.ledger.mirrorRelease(ctx, item.InventoryID, item.Quantity)
	}

	s.logger.Info("Suitcase item removed",
		zap.String("item_id", itemID),
		zap.String("suitcase_id", item.SuitcaseID))
	return nil
}

func (s *SuitcaseService) publishItemReturned(ctx context.Context, item *models.SuitcaseItem, damaged bool) {
	event := &models.ItemReturnedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeItemReturned,
			Timestamp: time.Now(),
		},
		SuitcaseID:  item.SuitcaseID,
		InventoryID: item.InventoryID,
		Quantity:    item.Quantity,
		Damaged:     damaged,
	}
	if damaged {
		event.EventType = models.EventTypeItemLost
	}
	if err := s.eventPublisher.PublishItemReturned(ctx, event); err != nil {
		s.logger.Error("Failed to publish ItemReturned event", zap.Error(err))
	}
}
