package store

import (
	"context"

	"github.com/Abdu216/Ecommerce-API/internal/models"
)

// CreateReview creates a review
func (q *Queries) CreateReview(ctx context.Context, r *models.Review) error {
	query := `
		INSERT INTO reviews (product_id, customer_id, user_id, rating, comment, is_verified_purchase)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return mapError(q.db.QueryRowxContext(ctx, query,
		r.ProductID, r.CustomerID, r.UserID, r.Rating, r.Comment, r.IsVerifiedPurchase,
	).Scan(&r.ID, &r.CreatedAt))
}

// GetReview retrieves a review by ID
func (q *Queries) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	var r models.Review
	if err := q.db.GetContext(ctx, &r, "SELECT * FROM reviews WHERE id = $1", id); err != nil {
		return nil, mapError(err)
	}
	return &r, nil
}

// ListReviews lists the reviews of a product newest first
func (q *Queries) ListReviews(ctx context.Context, productID int64, page Page) ([]models.Review, error) {
	w := &where{}
	w.add("product_id = " + w.arg(productID))

	query := "SELECT * FROM reviews" + w.sql() + " ORDER BY created_at DESC, id DESC" + w.page(page)

	reviews := []models.Review{}
	if err := q.db.SelectContext(ctx, &reviews, query, w.args...); err != nil {
		return nil, mapError(err)
	}
	return reviews, nil
}

// ReviewRatings counts reviews per star rating for a product
func (q *Queries) ReviewRatings(ctx context.Context, productID int64) ([]RatingBucket, error) {
	query := `
		SELECT rating, COUNT(*) AS count,
		       COUNT(*) FILTER (WHERE is_verified_purchase) AS verified
		FROM reviews
		WHERE product_id = $1
		GROUP BY rating
		ORDER BY rating`

	buckets := []RatingBucket{}
	if err := q.db.SelectContext(ctx, &buckets, query, productID); err != nil {
		return nil, mapError(err)
	}
	return buckets, nil
}

// DeleteReview deletes a review
func (q *Queries) DeleteReview(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(res)
}
