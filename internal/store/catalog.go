package store

import (
	"context"

	"github.com/Abdu216/Ecommerce-API/internal/models"
	"github.com/jmoiron/sqlx"
)

// CreateCategory creates a new category
func (q *Queries) CreateCategory(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at`

	return mapError(q.db.QueryRowxContext(ctx, query, c.Name, c.Description).Scan(&c.ID, &c.CreatedAt))
}

// GetCategory retrieves a category by ID
func (q *Queries) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	var c models.Category
	if err := q.db.GetContext(ctx, &c, "SELECT * FROM categories WHERE id = $1", id); err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

// ListCategories lists categories ordered by ID
func (q *Queries) ListCategories(ctx context.Context, filter CategoryFilter) ([]models.Category, error) {
	w := &where{}
	if filter.Search != "" {
		w.add("name ILIKE " + w.arg(likePattern(filter.Search)))
	}

	query := "SELECT * FROM categories" + w.sql() + " ORDER BY id" + w.page(filter.Page)

	categories := []models.Category{}
	if err := q.db.SelectContext(ctx, &categories, query, w.args...); err != nil {
		return nil, mapError(err)
	}
	return categories, nil
}

// UpdateCategory updates a category
func (q *Queries) UpdateCategory(ctx context.Context, c *models.Category) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE categories SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3`,
		c.Name, c.Description, c.ID)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(res)
}

// CreateProduct creates a new product
func (q *Queries) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (name, description, price, category_id, sku, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return mapError(q.db.QueryRowxContext(ctx, query,
		p.Name, p.Description, p.Price, p.CategoryID, p.SKU, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt))
}

// GetProduct retrieves a product by ID
func (q *Queries) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	if err := q.db.GetContext(ctx, &p, "SELECT * FROM products WHERE id = $1", id); err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

// GetProductsByIDs retrieves multiple products keyed by ID
func (q *Queries) GetProductsByIDs(ctx context.Context, ids []int64) (map[int64]*models.Product, error) {
	out := make(map[int64]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In("SELECT * FROM products WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}

	var products []models.Product
	if err := q.db.SelectContext(ctx, &products, q.db.Rebind(query), args...); err != nil {
		return nil, mapError(err)
	}
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

// ListProducts lists products with optional category, search and active filters
func (q *Queries) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	w := &where{}
	if filter.CategoryID != nil {
		w.add("category_id = " + w.arg(*filter.CategoryID))
	}
	if filter.Search != "" {
		p := w.arg(likePattern(filter.Search))
		w.add("(name ILIKE " + p + " OR description ILIKE " + p + ")")
	}
	if filter.ActiveOnly {
		w.add("is_active")
	}

	query := "SELECT * FROM products" + w.sql() + " ORDER BY id" + w.page(filter.Page)

	products := []models.Product{}
	if err := q.db.SelectContext(ctx, &products, query, w.args...); err != nil {
		return nil, mapError(err)
	}
	return products, nil
}

// UpdateProduct updates a product
func (q *Queries) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1, description = $2, price = $3, category_id = $4, sku = $5, is_active = $6,
		    updated_at = NOW()
		WHERE id = $7`,
		p.Name, p.Description, p.Price, p.CategoryID, p.SKU, p.IsActive, p.ID)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(res)
}

// DeleteProduct hard-deletes a product row
func (q *Queries) DeleteProduct(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(res)
}

// IsProductReferenced reports whether any order item, sale or review points at the product
func (q *Queries) IsProductReferenced(ctx context.Context, id int64) (bool, error) {
	var referenced bool
	err := q.db.GetContext(ctx, &referenced, `
		SELECT EXISTS (SELECT 1 FROM order_items WHERE product_id = $1)
		    OR EXISTS (SELECT 1 FROM sales WHERE product_id = $1)
		    OR EXISTS (SELECT 1 FROM reviews WHERE product_id = $1)`, id)
	return referenced, mapError(err)
}
