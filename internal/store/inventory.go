package store

import (
	"context"
	"errors"

	"github.com/Abdu216/Ecommerce-API/internal/models"
)

// CreateInventory creates the stock row of a product
func (q *Queries) CreateInventory(ctx context.Context, inv *models.Inventory) error {
	query := `
		INSERT INTO inventory (product_id, quantity, initial_quantity, low_stock_threshold, last_updated)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, last_updated`

	return mapError(q.db.QueryRowxContext(ctx, query,
		inv.ProductID, inv.Quantity, inv.InitialQuantity, inv.LowStockThreshold,
	).Scan(&inv.ID, &inv.LastUpdated))
}

// GetInventory retrieves inventory by ID
func (q *Queries) GetInventory(ctx context.Context, id int64) (*models.Inventory, error) {
	var inv models.Inventory
	if err := q.db.GetContext(ctx, &inv, "SELECT * FROM inventory WHERE id = $1", id); err != nil {
		return nil, mapError(err)
	}
	return &inv, nil
}

// GetInventoryByProduct retrieves inventory by product ID
func (q *Queries) GetInventoryByProduct(ctx context.Context, productID int64) (*models.Inventory, error) {
	var inv models.Inventory
	if err := q.db.GetContext(ctx, &inv, "SELECT * FROM inventory WHERE product_id = $1", productID); err != nil {
		return nil, mapError(err)
	}
	return &inv, nil
}

// LockInventory reads inventory by ID and holds its row lock until the transaction ends
func (q *Queries) LockInventory(ctx context.Context, id int64) (*models.Inventory, error) {
	var inv models.Inventory
	if err := q.db.GetContext(ctx, &inv, "SELECT * FROM inventory WHERE id = $1 FOR UPDATE", id); err != nil {
		return nil, mapError(err)
	}
	return &inv, nil
}

// LockInventoryByProduct reads inventory by product and holds its row lock
func (q *Queries) LockInventoryByProduct(ctx context.Context, productID int64) (*models.Inventory, error) {
	var inv models.Inventory
	if err := q.db.GetContext(ctx, &inv,
		"SELECT * FROM inventory WHERE product_id = $1 FOR UPDATE", productID); err != nil {
		return nil, mapError(err)
	}
	return &inv, nil
}

// ListInventory lists inventory rows, optionally only those at or below threshold
func (q *Queries) ListInventory(ctx context.Context, filter InventoryFilter) ([]models.Inventory, error) {
	w := &where{}
	if filter.LowStock {
		w.add("quantity <= low_stock_threshold")
	}

	query := "SELECT * FROM inventory" + w.sql() + " ORDER BY id" + w.page(filter.Page)

	items := []models.Inventory{}
	if err := q.db.SelectContext(ctx, &items, query, w.args...); err != nil {
		return nil, mapError(err)
	}
	return items, nil
}

// UpdateInventory writes quantity and threshold
func (q *Queries) UpdateInventory(ctx context.Context, inv *models.Inventory) error {
	query := `
		UPDATE inventory SET quantity = $1, low_stock_threshold = $2, last_updated = NOW()
		WHERE id = $3
		RETURNING last_updated`

	return mapError(q.db.QueryRowxContext(ctx, query,
		inv.Quantity, inv.LowStockThreshold, inv.ID,
	).Scan(&inv.LastUpdated))
}

// DecrementStock atomically removes quantity units from a product's stock.
// The row is only touched when enough stock is present, so concurrent
// callers can never drive it negative.
func (q *Queries) DecrementStock(ctx context.Context, productID int64, quantity int) (*models.Inventory, error) {
	query := `
		UPDATE inventory SET quantity = quantity - $1, last_updated = NOW()
		WHERE product_id = $2 AND quantity >= $1
		RETURNING *`

	var inv models.Inventory
	err := q.db.GetContext(ctx, &inv, query, quantity, productID)
	if err == nil {
		return &inv, nil
	}

	if err = mapError(err); !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// Distinguish a missing row from a short one
	current, err := q.GetInventoryByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return current, ErrInsufficientStock
}

// DeleteInventoryByProduct removes a product's stock row and its history
func (q *Queries) DeleteInventoryByProduct(ctx context.Context, productID int64) error {
	if _, err := q.db.ExecContext(ctx, `
		DELETE FROM inventory_history
		WHERE inventory_id IN (SELECT id FROM inventory WHERE product_id = $1)`, productID); err != nil {
		return mapError(err)
	}
	_, err := q.db.ExecContext(ctx, "DELETE FROM inventory WHERE product_id = $1", productID)
	return mapError(err)
}

// AppendInventoryHistory appends one ledger entry
func (q *Queries) AppendInventoryHistory(ctx context.Context, entry *models.InventoryHistory) error {
	query := `
		INSERT INTO inventory_history (inventory_id, quantity_change, reason)
		VALUES ($1, $2, $3)
		RETURNING id, timestamp`

	return mapError(q.db.QueryRowxContext(ctx, query,
		entry.InventoryID, entry.QuantityChange, entry.Reason,
	).Scan(&entry.ID, &entry.Timestamp))
}

// ListInventoryHistory lists ledger entries newest first
func (q *Queries) ListInventoryHistory(ctx context.Context, inventoryID int64, page Page) ([]models.InventoryHistory, error) {
	w := &where{}
	w.add("inventory_id = " + w.arg(inventoryID))

	query := "SELECT * FROM inventory_history" + w.sql() + " ORDER BY timestamp DESC, id DESC" + w.page(page)

	entries := []models.InventoryHistory{}
	if err := q.db.SelectContext(ctx, &entries, query, w.args...); err != nil {
		return nil, mapError(err)
	}
	return entries, nil
}

// SumInventoryHistory returns the net quantity change over the whole ledger
func (q *Queries) SumInventoryHistory(ctx context.Context, inventoryID int64) (int, error) {
	var sum int
	err := q.db.GetContext(ctx, &sum,
		"SELECT COALESCE(SUM(quantity_change), 0) FROM inventory_history WHERE inventory_id = $1", inventoryID)
	return sum, mapError(err)
}
