package store

import (
	"context"

	"github.com/Abdu216/Ecommerce-API/internal/models"
)

// CreateOrder creates a new order header
func (q *Queries) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (customer_id, status, shipping_address_id, billing_address_id,
		                    subtotal, shipping_cost, tax, total, tracking_number, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, order_date`

	return mapError(q.db.QueryRowxContext(ctx, query,
		order.CustomerID, order.Status, order.ShippingAddressID, order.BillingAddressID,
		order.Subtotal, order.ShippingCost, order.Tax, order.Total, order.TrackingNumber, order.Notes,
	).Scan(&order.ID, &order.OrderDate))
}

// GetOrder retrieves an order by ID
func (q *Queries) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := q.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id); err != nil {
		return nil, mapError(err)
	}
	return &order, nil
}

// LockOrder reads an order and holds its row lock until the transaction ends
func (q *Queries) LockOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := q.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1 FOR UPDATE", id); err != nil {
		return nil, mapError(err)
	}
	return &order, nil
}

// ListOrders lists orders newest first, returning the page and the unpaged total
func (q *Queries) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, int, error) {
	w := &where{}
	if filter.CustomerID != nil {
		w.add("customer_id = " + w.arg(*filter.CustomerID))
	}
	if filter.Status != nil {
		w.add("status = " + w.arg(*filter.Status))
	}

	var total int
	if err := q.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM orders"+w.sql(), w.args...); err != nil {
		return nil, 0, mapError(err)
	}

	query := "SELECT * FROM orders" + w.sql() + " ORDER BY order_date DESC, id DESC" + w.page(filter.Page)

	orders := []models.Order{}
	if err := q.db.SelectContext(ctx, &orders, query, w.args...); err != nil {
		return nil, 0, mapError(err)
	}
	return orders, total, nil
}

// CountOrdersByCustomer counts the orders placed by a customer
func (q *Queries) CountOrdersByCustomer(ctx context.Context, customerID int64) (int, error) {
	var n int
	err := q.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM orders WHERE customer_id = $1", customerID)
	return n, mapError(err)
}

// UpdateOrder writes every mutable order field
func (q *Queries) UpdateOrder(ctx context.Context, order *models.Order) error {
	query := `
		UPDATE orders
		SET status = $1, shipping_address_id = $2, billing_address_id = $3,
		    subtotal = $4, shipping_cost = $5, tax = $6, total = $7,
		    tracking_number = $8, notes = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at`

	return mapError(q.db.QueryRowxContext(ctx, query,
		order.Status, order.ShippingAddressID, order.BillingAddressID,
		order.Subtotal, order.ShippingCost, order.Tax, order.Total,
		order.TrackingNumber, order.Notes, order.ID,
	).Scan(&order.UpdatedAt))
}

// DeleteOrder deletes an order header
func (q *Queries) DeleteOrder(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(res)
}

// CreateOrderItem creates a new order item
func (q *Queries) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return mapError(q.db.GetContext(ctx, &item.ID, query,
		item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice))
}

// GetOrderItem retrieves the line of an order for a product
func (q *Queries) GetOrderItem(ctx context.Context, orderID, productID int64) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := q.db.GetContext(ctx, &item,
		"SELECT * FROM order_items WHERE order_id = $1 AND product_id = $2", orderID, productID); err != nil {
		return nil, mapError(err)
	}
	return &item, nil
}

// ListOrderItems retrieves all items for an order
func (q *Queries) ListOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	err := q.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, mapError(err)
}

// UpdateOrderItem writes quantity and prices of an item
func (q *Queries) UpdateOrderItem(ctx context.Context, item *models.OrderItem) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE order_items SET quantity = $1, unit_price = $2, total_price = $3
		WHERE id = $4`,
		item.Quantity, item.UnitPrice, item.TotalPrice, item.ID)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(res)
}

// DeleteOrderItems deletes every item of an order
func (q *Queries) DeleteOrderItems(ctx context.Context, orderID int64) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = $1", orderID)
	return mapError(err)
}

// CreatePayment records a payment
func (q *Queries) CreatePayment(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO payments (order_id, amount, payment_method, status, transaction_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, payment_date`

	return mapError(q.db.QueryRowxContext(ctx, query,
		p.OrderID, p.Amount, p.PaymentMethod, p.Status, p.TransactionID,
	).Scan(&p.ID, &p.PaymentDate))
}

// GetPayment retrieves a payment by ID
func (q *Queries) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	var p models.Payment
	if err := q.db.GetContext(ctx, &p, "SELECT * FROM payments WHERE id = $1", id); err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

// ListPayments lists the payments of an order oldest first
func (q *Queries) ListPayments(ctx context.Context, orderID int64) ([]models.Payment, error) {
	payments := []models.Payment{}
	err := q.db.SelectContext(ctx, &payments,
		"SELECT * FROM payments WHERE order_id = $1 ORDER BY payment_date, id", orderID)
	return payments, mapError(err)
}

// UpdatePaymentStatus updates the status of a payment
func (q *Queries) UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus) error {
	res, err := q.db.ExecContext(ctx, "UPDATE payments SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(res)
}

// DeletePayments deletes every payment of an order
func (q *Queries) DeletePayments(ctx context.Context, orderID int64) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM payments WHERE order_id = $1", orderID)
	return mapError(err)
}
