package store

import (
	"context"
	"database/sql"
	"fmt"

	"dalia-manager/internal/models"

	"github.com/google/uuid"
)

// CreateSuitcase creates a new suitcase; the partial unique index on active
// codes surfaces duplicates
func (s *Store) CreateSuitcase(ctx context.Context, suitcase *models.Suitcase) error {
	if suitcase.ID == "" {
		suitcase.ID = uuid.New().String()
	}

	query := `
		INSERT INTO suitcases (id, code, seller_id, status, city, neighborhood, next_settlement_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, query,
		suitcase.ID, suitcase.Code, suitcase.SellerID, suitcase.Status,
		suitcase.City, suitcase.Neighborhood, suitcase.NextSettlementDate,
	).Scan(&suitcase.CreatedAt, &suitcase.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", models.ErrDuplicateCode, suitcase.Code)
		}
		return fmt.Errorf("failed to create suitcase: %w", err)
	}
	return nil
}

// GetSuitcase retrieves a suitcase by ID
func (s *Store) GetSuitcase(ctx context.Context, id string) (*models.Suitcase, error) {
	var suitcase models.Suitcase
	err := s.db.GetContext(ctx, &suitcase, "SELECT * FROM suitcases WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: suitcase %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &suitcase, nil
}

// ListSuitcases retrieves suitcases, optionally filtered by status or reseller
func (s *Store) ListSuitcases(ctx context.Context, status, sellerID string) ([]models.Suitcase, error) {
	var suitcases []models.Suitcase
	err := s.db.SelectContext(ctx, &suitcases,
		`SELECT * FROM suitcases
		 WHERE ($1 = '' OR status = $1) AND ($2 = '' OR seller_id = $2)
		 ORDER BY code`, status, sellerID)
	return suitcases, err
}

// UpdateSuitcaseStatus persists a status change; legality of the transition is
// decided by the service against the transition table
func (s *Store) UpdateSuitcaseStatus(ctx context.Context, suitcaseID, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE suitcases SET status = $1, updated_at = NOW() WHERE id = $2",
		status, suitcaseID)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: suitcase %s", models.ErrNotFound, suitcaseID)
	}
	return nil
}

// GetSuitcaseBlockers counts the dependent records that keep a suitcase from
// being deleted
func (s *Store) GetSuitcaseBlockers(ctx context.Context, suitcaseID string) (models.SuitcaseBlockers, error) {
	var blockers models.SuitcaseBlockers
	err := s.db.GetContext(ctx, &blockers, `
		SELECT
			(SELECT COUNT(*) FROM suitcase_items WHERE suitcase_id = $1 AND status = $2) AS items_in_possession,
			(SELECT COUNT(*) FROM suitcase_items WHERE suitcase_id = $1 AND status = $3) AS items_sold,
			(SELECT COUNT(*) FROM acertos_maleta WHERE suitcase_id = $1 AND status = $4) AS pending_acertos`,
		suitcaseID, models.ItemStatusInPossession, models.ItemStatusSold, models.SettlementStatusPending)
	return blockers, err
}

// DeleteSuitcaseCascade removes a suitcase and every dependent row in one
// transaction: sold-item records, settlements, suitcase items, then the
// suitcase itself. Partial deletion never becomes visible.
func (s *Store) DeleteSuitcaseCascade(ctx context.Context, suitcaseID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM acerto_itens_vendidos
		 WHERE acerto_id IN (SELECT id FROM acertos_maleta WHERE suitcase_id = $1)`,
		suitcaseID); err != nil {
		return fmt.Errorf("failed to delete settlement items: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM acertos_maleta WHERE suitcase_id = $1", suitcaseID); err != nil {
		return fmt.Errorf("failed to delete settlements: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM suitcase_items WHERE suitcase_id = $1", suitcaseID); err != nil {
		return fmt.Errorf("failed to delete suitcase items: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM suitcases WHERE id = $1", suitcaseID)
	if err != nil {
		return fmt.Errorf("failed to delete suitcase: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: suitcase %s", models.ErrNotFound, suitcaseID)
	}

	return tx.Commit()
}

// --- Suitcase items ---

// SupplyItemTx reserves stock and attaches the unit to the suitcase in one
// transaction. Distinguishes stock held by other suitcases from plain
// exhaustion when the reservation fails.
func (s *Store) SupplyItemTx(ctx context.Context, item *models.SuitcaseItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := reserveStockTx(ctx, tx, item.InventoryID, item.Quantity); err != nil {
		return err
	}

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.Status = models.ItemStatusInPossession

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO suitcase_items (id, suitcase_id, inventory_id, quantity, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		item.ID, item.SuitcaseID, item.InventoryID, item.Quantity, item.Status,
	).Scan(&item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create suitcase item: %w", err)
	}

	return tx.Commit()
}

// GetSuitcaseItem retrieves a suitcase item by ID
func (s *Store) GetSuitcaseItem(ctx context.Context, id string) (*models.SuitcaseItem, error) {
	var item models.SuitcaseItem
	err := s.db.GetContext(ctx, &item, "SELECT * FROM suitcase_items WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: suitcase item %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListSuitcaseItems retrieves all items of a suitcase in insertion order
func (s *Store) ListSuitcaseItems(ctx context.Context, suitcaseID string) ([]models.SuitcaseItem, error) {
	var items []models.SuitcaseItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM suitcase_items WHERE suitcase_id = $1 ORDER BY created_at, id", suitcaseID)
	return items, err
}

// UpdateSuitcaseItemStatusTx flips an item status and applies the ledger side
// effect in the same transaction: returned releases the reservation, lost
// releases it without restoring sellable stock, sold defers consumption to
// the settlement batch.
func (s *Store) UpdateSuitcaseItemStatusTx(ctx context.Context, itemID, newStatus string) (*models.SuitcaseItem, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var item models.SuitcaseItem
	err = tx.GetContext(ctx, &item,
		"SELECT * FROM suitcase_items WHERE id = $1 FOR UPDATE", itemID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: suitcase item %s", models.ErrNotFound, itemID)
	}
	if err != nil {
		return nil, err
	}

	if !models.CanTransitionItem(item.Status, newStatus) {
		return nil, fmt.Errorf("%w: item %s -> %s", models.ErrInvalidTransition, item.Status, newStatus)
	}

	switch newStatus {
	case models.ItemStatusReturned:
		if err := releaseStockTx(ctx, tx, item.InventoryID, item.Quantity, models.MovementRelease); err != nil {
			return nil, err
		}
	case models.ItemStatusLost:
		if err := consumeStockTx(ctx, tx, item.InventoryID, item.Quantity, models.MovementDamaged); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE suitcase_items SET status = $1 WHERE id = $2", newStatus, itemID); err != nil {
		return nil, fmt.Errorf("failed to update item status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	item.Status = newStatus
	return &item, nil
}

// UpdateSuitcaseItemQuantityTx changes the tracked quantity of an in-possession
// item, releasing or re-reserving the delta atomically
func (s *Store) UpdateSuitcaseItemQuantityTx(ctx context.Context, itemID string, newQty int) (*models.SuitcaseItem, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var item models.SuitcaseItem
	err = tx.GetContext(ctx, &item,
		"SELECT * FROM suitcase_items WHERE id = $1 FOR UPDATE", itemID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: suitcase item %s", models.ErrNotFound, itemID)
	}
	if err != nil {
		return nil, err
	}

	if item.Status != models.ItemStatusInPossession {
		return nil, fmt.Errorf("%w: quantity only changes while item is in possession", models.ErrInvalidTransition)
	}

	delta := newQty - item.Quantity
	switch {
	case delta > 0:
		if err := reserveStockTx(ctx, tx, item.InventoryID, delta); err != nil {
			return nil, err
		}
	case delta < 0:
		if err := releaseStockTx(ctx, tx, item.InventoryID, -delta, models.MovementRelease); err != nil {
			return nil, err
		}
	default:
		return &item, nil
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE suitcase_items SET quantity = $1 WHERE id = $2", newQty, itemID); err != nil {
		return nil, fmt.Errorf("failed to update item quantity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	item.Quantity = newQty
	return &item, nil
}

// RemoveSuitcaseItemTx returns an in-possession item to stock and deletes the
// row; used when the item was supplied by mistake
func (s *Store) RemoveSuitcaseItemTx(ctx context.Context, itemID string) (*models.SuitcaseItem, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var item models.SuitcaseItem
	err = tx.GetContext(ctx, &item,
		"SELECT * FROM suitcase_items WHERE id = $1 FOR UPDATE", itemID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: suitcase item %s", models.ErrNotFound, itemID)
	}
	if err != nil {
		return nil, err
	}

	if item.Status == models.ItemStatusInPossession {
		if err := releaseStockTx(ctx, tx, item.InventoryID, item.Quantity, models.MovementRelease); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM suitcase_items WHERE id = $1", itemID); err != nil {
		return nil, fmt.Errorf("failed to delete suitcase item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &item, nil
}
