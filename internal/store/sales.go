package store

import (
	"context"

	"github.com/Abdu216/Ecommerce-API/internal/models"
)

// CreateSale records a sale
func (q *Queries) CreateSale(ctx context.Context, s *models.Sale) error {
	query := `
		INSERT INTO sales (product_id, order_id, customer_id, quantity, unit_price, total_amount, sale_date)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
		RETURNING id, sale_date`

	var saleDate interface{}
	if !s.SaleDate.IsZero() {
		saleDate = s.SaleDate
	}

	return mapError(q.db.QueryRowxContext(ctx, query,
		s.ProductID, s.OrderID, s.CustomerID, s.Quantity, s.UnitPrice, s.TotalAmount, saleDate,
	).Scan(&s.ID, &s.SaleDate))
}

// GetSale retrieves a sale by ID
func (q *Queries) GetSale(ctx context.Context, id int64) (*models.Sale, error) {
	var s models.Sale
	if err := q.db.GetContext(ctx, &s, "SELECT * FROM sales WHERE id = $1", id); err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

// ListSales lists sales newest first. Date bounds are inclusive.
func (q *Queries) ListSales(ctx context.Context, filter SaleFilter) ([]models.Sale, error) {
	w := &where{}
	if filter.StartDate != nil {
		w.add("s.sale_date >= " + w.arg(*filter.StartDate))
	}
	if filter.EndDate != nil {
		w.add("s.sale_date <= " + w.arg(*filter.EndDate))
	}
	if filter.ProductID != nil {
		w.add("s.product_id = " + w.arg(*filter.ProductID))
	}
	if filter.CustomerID != nil {
		w.add("s.customer_id = " + w.arg(*filter.CustomerID))
	}
	if filter.OrderID != nil {
		w.add("s.order_id = " + w.arg(*filter.OrderID))
	}
	if filter.CategoryID != nil {
		w.add("p.category_id = " + w.arg(*filter.CategoryID))
	}

	query := "SELECT s.* FROM sales s JOIN products p ON p.id = s.product_id" +
		w.sql() + " ORDER BY s.sale_date DESC, s.id DESC" + w.page(filter.Page)

	sales := []models.Sale{}
	if err := q.db.SelectContext(ctx, &sales, query, w.args...); err != nil {
		return nil, mapError(err)
	}
	return sales, nil
}

// UpdateSale writes quantity, prices and date of a sale
func (q *Queries) UpdateSale(ctx context.Context, s *models.Sale) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE sales SET quantity = $1, unit_price = $2, total_amount = $3, sale_date = $4
		WHERE id = $5`,
		s.Quantity, s.UnitPrice, s.TotalAmount, s.SaleDate, s.ID)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(res)
}

// CountSalesByOrder counts the sales recorded against an order
func (q *Queries) CountSalesByOrder(ctx context.Context, orderID int64) (int, error) {
	var n int
	err := q.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM sales WHERE order_id = $1", orderID)
	return n, mapError(err)
}

// HasPurchased reports whether the customer has a sale for the product
func (q *Queries) HasPurchased(ctx context.Context, customerID, productID int64) (bool, error) {
	var ok bool
	err := q.db.GetContext(ctx, &ok,
		"SELECT EXISTS (SELECT 1 FROM sales WHERE customer_id = $1 AND product_id = $2)",
		customerID, productID)
	return ok, mapError(err)
}

func rangeCondition(w *where, column string, r TimeRange) {
	w.add(column + " >= " + w.arg(r.Start))
	if r.IncludeEnd {
		w.add(column + " <= " + w.arg(r.End))
	} else {
		w.add(column + " < " + w.arg(r.End))
	}
}

// RevenueInRange sums total_amount and counts sales in r
func (q *Queries) RevenueInRange(ctx context.Context, r TimeRange) (models.RevenueTotals, error) {
	w := &where{}
	rangeCondition(w, "sale_date", r)

	query := `SELECT COALESCE(SUM(total_amount), 0) AS total_revenue, COUNT(id) AS total_sales FROM sales` + w.sql()

	var totals models.RevenueTotals
	err := q.db.GetContext(ctx, &totals, query, w.args...)
	return totals, mapError(err)
}

// CategoryRevenue groups revenue in r by product category, highest first
func (q *Queries) CategoryRevenue(ctx context.Context, r TimeRange) ([]models.CategoryRevenueRow, error) {
	w := &where{}
	rangeCondition(w, "s.sale_date", r)

	query := `
		SELECT c.id AS category_id, c.name AS category_name,
		       COALESCE(SUM(s.total_amount), 0) AS total_revenue, COUNT(s.id) AS total_sales
		FROM sales s
		JOIN products p ON p.id = s.product_id
		JOIN categories c ON c.id = p.category_id` + w.sql() + `
		GROUP BY c.id, c.name
		ORDER BY total_revenue DESC, c.id`

	rows := []models.CategoryRevenueRow{}
	if err := q.db.SelectContext(ctx, &rows, query, w.args...); err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}
