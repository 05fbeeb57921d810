package service

import (
	"context"
	"errors"

	"github.com/Abdu216/Ecommerce-API/internal/apperror"
	"github.com/Abdu216/Ecommerce-API/internal/models"
	"github.com/Abdu216/Ecommerce-API/internal/store"
	"github.com/Abdu216/Ecommerce-API/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const defaultLowStockThreshold = 10

// InventoryService maintains the stock ledger: the on-hand quantity of each
// product plus an append-only history of every change to it.
type InventoryService struct {
	store          store.UnitOfWork
	eventPublisher EventPublisher
	logger         *zap.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(store store.UnitOfWork, eventPublisher EventPublisher) *InventoryService {
	if eventPublisher == nil {
		eventPublisher = NoopPublisher{}
	}
	return &InventoryService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

type CreateInventoryRequest struct {
	ProductID         int64 `json:"product_id" binding:"required"`
	Quantity          int   `json:"quantity" binding:"min=0"`
	LowStockThreshold *int  `json:"low_stock_threshold" binding:"omitempty,min=1"`
}

type AdjustInventoryRequest struct {
	Quantity          *int   `json:"quantity" binding:"omitempty,min=0"`
	LowStockThreshold *int   `json:"low_stock_threshold" binding:"omitempty,min=1"`
	Reason            string `json:"reason" binding:"max=100"`
}

// InventoryDetail is an inventory row with its full history
type InventoryDetail struct {
	models.Inventory
	History []models.InventoryHistory `json:"history"`
}

// LedgerCheck compares the stored quantity with the one rebuilt from history
type LedgerCheck struct {
	InventoryID     int64 `json:"inventory_id"`
	Quantity        int   `json:"quantity"`
	InitialQuantity int   `json:"initial_quantity"`
	HistorySum      int   `json:"history_sum"`
	Balanced        bool  `json:"balanced"`
}

// Create creates the stock row of a product. The initial quantity is the
// ledger baseline and is not itself a history entry.
func (s *InventoryService) Create(ctx context.Context, req *CreateInventoryRequest) (*models.Inventory, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.Create")
	defer span.End()

	if req.Quantity < 0 {
		return nil, apperror.Validation("quantity must be >= 0")
	}
	threshold := defaultLowStockThreshold
	if req.LowStockThreshold != nil {
		threshold = *req.LowStockThreshold
	}
	if threshold < 1 {
		return nil, apperror.Validation("low_stock_threshold must be >= 1")
	}

	inv := &models.Inventory{
		ProductID:         req.ProductID,
		Quantity:          req.Quantity,
		InitialQuantity:   req.Quantity,
		LowStockThreshold: threshold,
	}

	err := s.store.InTx(ctx, func(repo store.Repository) error {
		if _, err := repo.GetProduct(ctx, req.ProductID); err != nil {
			return mapStoreError(err, "product")
		}
		_, err := repo.GetInventoryByProduct(ctx, req.ProductID)
		if err == nil {
			return apperror.Conflict("inventory already exists for this product")
		}
		if !errors.Is(err, store.ErrNotFound) {
			return mapStoreError(err, "inventory")
		}
		return mapStoreError(repo.CreateInventory(ctx, inv), "inventory")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Inventory created",
		zap.Int64("inventory_id", inv.ID),
		zap.Int64("product_id", inv.ProductID),
		zap.Int("quantity", inv.Quantity))
	return inv, nil
}

// Get retrieves an inventory row with its history
func (s *InventoryService) Get(ctx context.Context, id int64) (*InventoryDetail, error) {
	inv, err := s.store.GetInventory(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "inventory")
	}
	history, err := s.store.ListInventoryHistory(ctx, id, store.Page{})
	if err != nil {
		return nil, mapStoreError(err, "inventory history")
	}
	return &InventoryDetail{Inventory: *inv, History: history}, nil
}

// GetByProduct retrieves the inventory row of a product
func (s *InventoryService) GetByProduct(ctx context.Context, productID int64) (*models.Inventory, error) {
	inv, err := s.store.GetInventoryByProduct(ctx, productID)
	return inv, mapStoreError(err, "inventory")
}

// List lists inventory rows
func (s *InventoryService) List(ctx context.Context, filter store.InventoryFilter) ([]models.Inventory, error) {
	items, err := s.store.ListInventory(ctx, filter)
	return items, mapStoreError(err, "inventory")
}

// History lists ledger entries newest first
func (s *InventoryService) History(ctx context.Context, id int64, page store.Page) ([]models.InventoryHistory, error) {
	if _, err := s.store.GetInventory(ctx, id); err != nil {
		return nil, mapStoreError(err, "inventory")
	}
	history, err := s.store.ListInventoryHistory(ctx, id, page)
	return history, mapStoreError(err, "inventory history")
}

// Adjust sets a new quantity and/or threshold. A quantity change appends
// its delta to the history in the same transaction, under the row lock.
func (s *InventoryService) Adjust(ctx context.Context, id int64, req *AdjustInventoryRequest) (_ *models.Inventory, err error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.Adjust", attribute.Int64("inventory_id", id))
	defer func() { util.EndSpan(span, err) }()

	if req.Reason == "" {
		return nil, apperror.Validation("reason is required")
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		return nil, apperror.Validation("quantity must be >= 0")
	}
	if req.LowStockThreshold != nil && *req.LowStockThreshold < 1 {
		return nil, apperror.Validation("low_stock_threshold must be >= 1")
	}

	var (
		inv   *models.Inventory
		delta int
	)
	err = s.store.InTx(ctx, func(repo store.Repository) error {
		var err error
		inv, err = repo.LockInventory(ctx, id)
		if err != nil {
			return mapStoreError(err, "inventory")
		}

		if req.Quantity != nil {
			delta = *req.Quantity - inv.Quantity
			if delta != 0 {
				entry := &models.InventoryHistory{InventoryID: inv.ID, QuantityChange: delta, Reason: req.Reason}
				if err := repo.AppendInventoryHistory(ctx, entry); err != nil {
					return mapStoreError(err, "inventory history")
				}
			}
			inv.Quantity = *req.Quantity
		}
		if req.LowStockThreshold != nil {
			inv.LowStockThreshold = *req.LowStockThreshold
		}
		return mapStoreError(repo.UpdateInventory(ctx, inv), "inventory")
	})
	if err != nil {
		return nil, err
	}

	if delta != 0 {
		util.InventoryAdjustmentsTotal.WithLabelValues("manual").Inc()
		s.logger.Info("Inventory adjusted",
			zap.Int64("inventory_id", inv.ID),
			zap.Int("quantity_change", delta),
			zap.String("reason", req.Reason))
		s.publishAdjusted(ctx, inv, delta, req.Reason)
	}
	return inv, nil
}

// VerifyLedger checks quantity == initial_quantity + sum(history)
func (s *InventoryService) VerifyLedger(ctx context.Context, id int64) (*LedgerCheck, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.VerifyLedger")
	defer span.End()

	check := &LedgerCheck{InventoryID: id}
	err := s.store.InTx(ctx, func(repo store.Repository) error {
		inv, err := repo.GetInventory(ctx, id)
		if err != nil {
			return mapStoreError(err, "inventory")
		}
		sum, err := repo.SumInventoryHistory(ctx, id)
		if err != nil {
			return mapStoreError(err, "inventory history")
		}
		check.Quantity = inv.Quantity
		check.InitialQuantity = inv.InitialQuantity
		check.HistorySum = sum
		check.Balanced = inv.Quantity == inv.InitialQuantity+sum
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !check.Balanced {
		s.logger.Error("Inventory ledger out of balance",
			zap.Int64("inventory_id", id),
			zap.Int("quantity", check.Quantity),
			zap.Int("initial_quantity", check.InitialQuantity),
			zap.Int("history_sum", check.HistorySum))
	}
	return check, nil
}

// decrementForSale removes quantity units inside the caller's transaction
// and records the change in the ledger.
func decrementForSale(ctx context.Context, repo store.Repository, productID int64, quantity int, reason string) (*models.Inventory, error) {
	inv, err := repo.DecrementStock(ctx, productID, quantity)
	if errors.Is(err, store.ErrInsufficientStock) {
		return nil, apperror.InsufficientStock(productID, inv.Quantity, quantity)
	}
	if err != nil {
		return nil, mapStoreError(err, "inventory")
	}

	entry := &models.InventoryHistory{InventoryID: inv.ID, QuantityChange: -quantity, Reason: reason}
	if err := repo.AppendInventoryHistory(ctx, entry); err != nil {
		return nil, mapStoreError(err, "inventory history")
	}
	return inv, nil
}

func (s *InventoryService) publishAdjusted(ctx context.Context, inv *models.Inventory, delta int, reason string) {
	publishInventoryEvents(ctx, s.eventPublisher, s.logger, inv, delta, reason)
}

// publishInventoryEvents emits InventoryAdjusted, plus LowStock when the
// quantity is at or below the threshold. Failures are logged only.
func publishInventoryEvents(ctx context.Context, publisher EventPublisher, logger *zap.Logger, inv *models.Inventory, delta int, reason string) {
	adjusted := &models.InventoryAdjustedEvent{
		InventoryID:    inv.ID,
		ProductID:      inv.ProductID,
		QuantityChange: delta,
		Quantity:       inv.Quantity,
		Reason:         reason,
	}
	if err := publisher.PublishInventoryAdjusted(ctx, adjusted); err != nil {
		util.EventsPublishFailed.WithLabelValues(models.EventTypeInventoryAdjusted).Inc()
		logger.Error("Failed to publish InventoryAdjusted event", zap.Error(err))
	}

	if !inv.IsLowStock() {
		return
	}
	util.LowStockEventsTotal.Inc()
	low := &models.LowStockEvent{
		InventoryID: inv.ID,
		ProductID:   inv.ProductID,
		Quantity:    inv.Quantity,
		Threshold:   inv.LowStockThreshold,
	}
	if err := publisher.PublishLowStock(ctx, low); err != nil {
		util.EventsPublishFailed.WithLabelValues(models.EventTypeLowStock).Inc()
		logger.Error("Failed to publish LowStock event", zap.Error(err))
	}
}
