package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dalia-manager/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// isUniqueViolation reports whether err is a Postgres unique-constraint error
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

// --- Inventory catalog ---

// CreateInventoryItem registers a new item on intake and records the initial
// stock as an "entrada" movement
func (s *Store) CreateInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	query := `
		INSERT INTO inventory (id, sku, name, category, quantity, quantity_reserved, price, unit_cost, archived)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7, false)
		RETURNING created_at, updated_at`

	err = tx.QueryRowxContext(ctx, query,
		item.ID, item.SKU, item.Name, item.Category, item.Quantity, item.Price, item.UnitCost,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: sku %s", models.ErrValidation, item.SKU)
		}
		return fmt.Errorf("failed to create inventory item: %w", err)
	}

	if item.Quantity > 0 {
		if err := insertMovementTx(ctx, tx, item.ID, item.Quantity, models.MovementIntake); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetInventoryItem retrieves an inventory item by ID
func (s *Store) GetInventoryItem(ctx context.Context, id string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.GetContext(ctx, &item, "SELECT * FROM inventory WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: inventory item %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListInventory retrieves inventory items, optionally matching sku/name and
// including archived records
func (s *Store) ListInventory(ctx context.Context, search string, includeArchived bool) ([]models.InventoryItem, error) {
	query := "SELECT * FROM inventory WHERE ($1 = '' OR sku ILIKE '%'||$1||'%' OR name ILIKE '%'||$1||'%')"
	if !includeArchived {
		query += " AND NOT archived"
	}
	query += " ORDER BY name"

	var items []models.InventoryItem
	err := s.db.SelectContext(ctx, &items, query, search)
	return items, err
}

// UpdateInventoryItem updates catalog fields; quantities only move through
// the ledger operations
func (s *Store) UpdateInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE inventory SET name = $1, category = $2, price = $3, unit_cost = $4, updated_at = NOW()
		 WHERE id = $5`,
		item.Name, item.Category, item.Price, item.UnitCost, item.ID)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: inventory item %s", models.ErrNotFound, item.ID)
	}
	return nil
}

// ArchiveInventoryItem soft-archives an item; items with movement history are
// never physically deleted
func (s *Store) ArchiveInventoryItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE inventory SET archived = true, updated_at = NOW()
		 WHERE id = $1 AND quantity_reserved = 0`, id)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		var exists bool
		if err := s.db.GetContext(ctx, &exists,
			"SELECT EXISTS(SELECT 1 FROM inventory WHERE id = $1)", id); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: inventory item %s", models.ErrNotFound, id)
		}
		return fmt.Errorf("%w: item still reserved by open suitcases", models.ErrValidation)
	}
	return nil
}

// ListMovements retrieves the movement audit trail for an item
func (s *Store) ListMovements(ctx context.Context, inventoryID string) ([]models.InventoryMovement, error) {
	var movements []models.InventoryMovement
	err := s.db.SelectContext(ctx, &movements,
		"SELECT * FROM inventory_movements WHERE inventory_id = $1 ORDER BY created_at DESC", inventoryID)
	return movements, err
}

// --- Inventory ledger ---
//
// Reservation counters only move through single conditional UPDATE statements
// so concurrent suppliers cannot lose updates. The movement trail records the
// signed delta: quantity deltas for venda/danificado/entrada and manual
// adjustments (operator-supplied reason), reservation deltas for
// reserva/devolucao.

func insertMovementTx(ctx context.Context, tx *sqlx.Tx, inventoryID string, delta int, reason string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO inventory_movements (id, inventory_id, delta, reason) VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), inventoryID, delta, reason)
	if err != nil {
		return fmt.Errorf("failed to record movement: %w", err)
	}
	return nil
}

func reserveStockTx(ctx context.Context, tx *sqlx.Tx, inventoryID string, qty int) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE inventory
		 SET quantity_reserved = quantity_reserved + $1, updated_at = NOW()
		 WHERE id = $2 AND NOT archived AND quantity - quantity_reserved >= $1`,
		qty, inventoryID)
	if err != nil {
		return fmt.Errorf("failed to reserve stock: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var exists bool
		if err := tx.GetContext(ctx, &exists,
			"SELECT EXISTS(SELECT 1 FROM inventory WHERE id = $1 AND NOT archived)", inventoryID); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: inventory item %s", models.ErrNotFound, inventoryID)
		}
		return fmt.Errorf("%w: inventory item %s", models.ErrInsufficientStock, inventoryID)
	}
	return insertMovementTx(ctx, tx, inventoryID, qty, models.MovementReserve)
}

func releaseStockTx(ctx context.Context, tx *sqlx.Tx, inventoryID string, qty int, reason string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE inventory
		 SET quantity_reserved = GREATEST(quantity_reserved - $1, 0), updated_at = NOW()
		 WHERE id = $2`,
		qty, inventoryID)
	if err != nil {
		return fmt.Errorf("failed to release stock: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: inventory item %s", models.ErrNotFound, inventoryID)
	}
	return insertMovementTx(ctx, tx, inventoryID, -qty, reason)
}

func consumeStockTx(ctx context.Context, tx *sqlx.Tx, inventoryID string, qty int, reason string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE inventory
		 SET quantity = quantity - $1, quantity_reserved = quantity_reserved - $1, updated_at = NOW()
		 WHERE id = $2 AND quantity >= $1 AND quantity_reserved >= $1`,
		qty, inventoryID)
	if err != nil {
		return fmt.Errorf("failed to consume stock: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: consume %d of inventory item %s", models.ErrInsufficientStock, qty, inventoryID)
	}
	return insertMovementTx(ctx, tx, inventoryID, -qty, reason)
}

// ReserveStock atomically increments the reservation counter, failing when
// available stock is insufficient
func (s *Store) ReserveStock(ctx context.Context, inventoryID string, qty int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := reserveStockTx(ctx, tx, inventoryID, qty); err != nil {
		return err
	}
	return tx.Commit()
}

// ReleaseStock decrements the reservation counter, clamped at zero; used when
// an item leaves a suitcase without being sold
func (s *Store) ReleaseStock(ctx context.Context, inventoryID string, qty int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := releaseStockTx(ctx, tx, inventoryID, qty, models.MovementRelease); err != nil {
		return err
	}
	return tx.Commit()
}

// ConsumeStock removes sold units permanently, decrementing both counters
func (s *Store) ConsumeStock(ctx context.Context, inventoryID string, qty int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := consumeStockTx(ctx, tx, inventoryID, qty, models.MovementSale); err != nil {
		return err
	}
	return tx.Commit()
}

// WriteOffDamagedStock removes a damaged or lost unit from both counters; the
// unit never returns to sellable stock
func (s *Store) WriteOffDamagedStock(ctx context.Context, inventoryID string, qty int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := consumeStockTx(ctx, tx, inventoryID, qty, models.MovementDamaged); err != nil {
		return err
	}
	return tx.Commit()
}

// AdjustStock applies a signed manual correction. The guard keeps quantity
// above both zero and the reserved count; the reason always lands in the
// movement trail.
func (s *Store) AdjustStock(ctx context.Context, inventoryID string, delta int, reason string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE inventory
		 SET quantity = quantity + $1, updated_at = NOW()
		 WHERE id = $2 AND quantity + $1 >= quantity_reserved AND quantity + $1 >= 0`,
		delta, inventoryID)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var exists bool
		if err := tx.GetContext(ctx, &exists,
			"SELECT EXISTS(SELECT 1 FROM inventory WHERE id = $1)", inventoryID); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: inventory item %s", models.ErrNotFound, inventoryID)
		}
		return fmt.Errorf("%w: adjustment would break reservation invariant", models.ErrValidation)
	}

	if err := insertMovementTx(ctx, tx, inventoryID, delta, reason); err != nil {
		return err
	}
	return tx.Commit()
}

// CountInPossessionElsewhere sums in-possession quantities of an inventory
// unit held by suitcases other than the given one
func (s *Store) CountInPossessionElsewhere(ctx context.Context, inventoryID, suitcaseID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COALESCE(SUM(quantity), 0) FROM suitcase_items
		 WHERE inventory_id = $1 AND suitcase_id <> $2 AND status = $3`,
		inventoryID, suitcaseID, models.ItemStatusInPossession)
	return count, err
}
