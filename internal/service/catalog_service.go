package service

import (
	"context"
	"errors"

	"github.com/Abdu216/Ecommerce-API/internal/apperror"
	"github.com/Abdu216/Ecommerce-API/internal/models"
	"github.com/Abdu216/Ecommerce-API/internal/store"
	"github.com/Abdu216/Ecommerce-API/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogService handles categories and products
type CatalogService struct {
	store  store.UnitOfWork
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store store.UnitOfWork) *CatalogService {
	return &CatalogService{store: store, logger: util.GetLogger()}
}

type CreateCategoryRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=100"`
	Description *string `json:"description"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description"`
}

type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=255"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  int64           `json:"category_id" binding:"required"`
	SKU         *string         `json:"sku" binding:"omitempty,max=50"`
	IsActive    *bool           `json:"is_active"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	CategoryID  *int64           `json:"category_id"`
	SKU         *string          `json:"sku" binding:"omitempty,max=50"`
	IsActive    *bool            `json:"is_active"`
}

// DeleteProductResult tells the caller whether the product row survived
type DeleteProductResult struct {
	ProductID   int64 `json:"product_id"`
	Deactivated bool  `json:"deactivated"`
}

// CreateCategory creates a category
func (s *CatalogService) CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*models.Category, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateCategory")
	defer span.End()

	category := &models.Category{Name: req.Name, Description: req.Description}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, mapStoreError(err, "category")
	}

	s.logger.Info("Category created", zap.Int64("category_id", category.ID))
	return category, nil
}

// GetCategory retrieves a category
func (s *CatalogService) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	category, err := s.store.GetCategory(ctx, id)
	return category, mapStoreError(err, "category")
}

// ListCategories lists categories
func (s *CatalogService) ListCategories(ctx context.Context, filter store.CategoryFilter) ([]models.Category, error) {
	categories, err := s.store.ListCategories(ctx, filter)
	return categories, mapStoreError(err, "categories")
}

// UpdateCategory applies a partial update to a category
func (s *CatalogService) UpdateCategory(ctx context.Context, id int64, req *UpdateCategoryRequest) (*models.Category, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateCategory")
	defer span.End()

	var category *models.Category
	err := s.store.InTx(ctx, func(repo store.Repository) error {
		var err error
		category, err = repo.GetCategory(ctx, id)
		if err != nil {
			return mapStoreError(err, "category")
		}
		if req.Name != nil {
			category.Name = *req.Name
		}
		if req.Description != nil {
			category.Description = req.Description
		}
		return mapStoreError(repo.UpdateCategory(ctx, category), "category")
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// CreateProduct creates a product in an existing category
func (s *CatalogService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	if !req.Price.IsPositive() {
		return nil, apperror.Validation("price must be greater than 0")
	}

	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		SKU:         req.SKU,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}

	err := s.store.InTx(ctx, func(repo store.Repository) error {
		if _, err := repo.GetCategory(ctx, req.CategoryID); err != nil {
			return mapStoreError(err, "category")
		}
		return mapStoreError(repo.CreateProduct(ctx, product), "product")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product created", zap.Int64("product_id", product.ID))
	return product, nil
}

// GetProduct retrieves a product
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.store.GetProduct(ctx, id)
	return product, mapStoreError(err, "product")
}

// ListProducts lists products
func (s *CatalogService) ListProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, error) {
	products, err := s.store.ListProducts(ctx, filter)
	return products, mapStoreError(err, "products")
}

// UpdateProduct applies a partial update to a product
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, req *UpdateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateProduct")
	defer span.End()

	if req.Price != nil && !req.Price.IsPositive() {
		return nil, apperror.Validation("price must be greater than 0")
	}

	var product *models.Product
	err := s.store.InTx(ctx, func(repo store.Repository) error {
		var err error
		product, err = repo.GetProduct(ctx, id)
		if err != nil {
			return mapStoreError(err, "product")
		}

		if req.CategoryID != nil && *req.CategoryID != product.CategoryID {
			if _, err := repo.GetCategory(ctx, *req.CategoryID); err != nil {
				return mapStoreError(err, "category")
			}
			product.CategoryID = *req.CategoryID
		}
		if req.Name != nil {
			product.Name = *req.Name
		}
		if req.Description != nil {
			product.Description = req.Description
		}
		if req.Price != nil {
			product.Price = *req.Price
		}
		if req.SKU != nil {
			product.SKU = req.SKU
		}
		if req.IsActive != nil {
			product.IsActive = *req.IsActive
		}
		return mapStoreError(repo.UpdateProduct(ctx, product), "product")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product updated", zap.Int64("product_id", id))
	return product, nil
}

// DeleteProduct removes a product. Products still referenced by orders,
// sales or reviews are deactivated instead so their history stays intact.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) (*DeleteProductResult, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteProduct")
	defer span.End()

	result := &DeleteProductResult{ProductID: id}
	err := s.store.InTx(ctx, func(repo store.Repository) error {
		product, err := repo.GetProduct(ctx, id)
		if err != nil {
			return mapStoreError(err, "product")
		}

		referenced, err := repo.IsProductReferenced(ctx, id)
		if err != nil {
			return mapStoreError(err, "product")
		}
		if referenced {
			product.IsActive = false
			result.Deactivated = true
			return mapStoreError(repo.UpdateProduct(ctx, product), "product")
		}

		if err := repo.DeleteInventoryByProduct(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			return mapStoreError(err, "inventory")
		}
		return mapStoreError(repo.DeleteProduct(ctx, id), "product")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product deleted",
		zap.Int64("product_id", id),
		zap.Bool("deactivated", result.Deactivated))
	return result, nil
}
