package service

import (
	"context"

	"github.com/Abdu216/Ecommerce-API/internal/apperror"
	"github.com/Abdu216/Ecommerce-API/internal/models"
	"github.com/Abdu216/Ecommerce-API/internal/store"
	"github.com/Abdu216/Ecommerce-API/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReviewService handles product reviews
type ReviewService struct {
	store  store.UnitOfWork
	logger *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(store store.UnitOfWork) *ReviewService {
	return &ReviewService{store: store, logger: util.GetLogger()}
}

type CreateReviewRequest struct {
	Rating  int     `json:"rating" binding:"required,min=1,max=5"`
	Comment *string `json:"comment" binding:"omitempty,max=2000"`
}

// ReviewStats summarises the ratings of a product
type ReviewStats struct {
	AverageRating      decimal.Decimal `json:"average_rating"`
	TotalReviews       int             `json:"total_reviews"`
	VerifiedReviews    int             `json:"verified_reviews"`
	RatingDistribution map[int]int     `json:"rating_distribution"`
}

// Create reviews a product as the caller's customer. A review counts as a
// verified purchase when a sale of the product to the customer exists.
func (s *ReviewService) Create(ctx context.Context, caller *Caller, productID int64, req *CreateReviewRequest) (*models.Review, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.Create")
	defer span.End()

	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperror.Validation("rating must be between 1 and 5")
	}

	var review *models.Review
	err := s.store.InTx(ctx, func(repo store.Repository) error {
		customer, err := callerCustomer(ctx, repo, caller)
		if err != nil {
			return err
		}
		if _, err := repo.GetProduct(ctx, productID); err != nil {
			return mapStoreError(err, "product")
		}

		verified, err := repo.HasPurchased(ctx, customer.ID, productID)
		if err != nil {
			return mapStoreError(err, "sales")
		}

		review = &models.Review{
			ProductID:          productID,
			CustomerID:         customer.ID,
			UserID:             caller.UserID,
			Rating:             req.Rating,
			Comment:            req.Comment,
			IsVerifiedPurchase: verified,
		}
		if err := repo.CreateReview(ctx, review); err != nil {
			return mapStoreError(err, "review")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Review created",
		zap.Int64("review_id", review.ID),
		zap.Int64("product_id", productID),
		zap.Bool("verified", review.IsVerifiedPurchase))
	return review, nil
}

// List lists the reviews of a product, newest first
func (s *ReviewService) List(ctx context.Context, productID int64, page store.Page) ([]models.Review, error) {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, mapStoreError(err, "product")
	}
	reviews, err := s.store.ListReviews(ctx, productID, page)
	return reviews, mapStoreError(err, "reviews")
}

// Stats computes the rating summary of a product
func (s *ReviewService) Stats(ctx context.Context, productID int64) (*ReviewStats, error) {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, mapStoreError(err, "product")
	}
	buckets, err := s.store.ReviewRatings(ctx, productID)
	if err != nil {
		return nil, mapStoreError(err, "reviews")
	}

	stats := &ReviewStats{
		AverageRating:      decimal.Zero,
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}
	sum := 0
	for _, b := range buckets {
		stats.RatingDistribution[b.Rating] = b.Count
		stats.TotalReviews += b.Count
		stats.VerifiedReviews += b.Verified
		sum += b.Rating * b.Count
	}
	if stats.TotalReviews > 0 {
		stats.AverageRating = decimal.NewFromInt(int64(sum)).
			Div(decimal.NewFromInt(int64(stats.TotalReviews))).Round(2)
	}
	return stats, nil
}

// Delete removes a review written by the caller, or any review for staff
func (s *ReviewService) Delete(ctx context.Context, caller *Caller, id int64) error {
	ctx, span := util.StartSpan(ctx, "ReviewService.Delete")
	defer span.End()

	err := s.store.InTx(ctx, func(repo store.Repository) error {
		review, err := repo.GetReview(ctx, id)
		if err != nil {
			return mapStoreError(err, "review")
		}
		if caller == nil {
			return apperror.Unauthorized("")
		}
		if !caller.IsStaff() && review.UserID != caller.UserID {
			return apperror.Forbidden("not enough permissions")
		}
		return mapStoreError(repo.DeleteReview(ctx, id), "review")
	})
	if err != nil {
		return err
	}

	s.logger.Info("Review deleted", zap.Int64("review_id", id))
	return nil
}
