package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdu216/Ecommerce-API/internal/apperror"
	"github.com/Abdu216/Ecommerce-API/internal/models"
	"github.com/Abdu216/Ecommerce-API/internal/store"
	"github.com/Abdu216/Ecommerce-API/internal/util"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const idempotencyScopeSales = "sales"

// SalesService records sales. Recording a sale moves inventory, the order
// aggregate and the sale log together in one transaction.
type SalesService struct {
	store          store.UnitOfWork
	eventPublisher EventPublisher
	idempotency    IdempotencyStore
	now            Clock
	logger         *zap.Logger
}

// NewSalesService creates a new sales service. idempotency may be nil.
func NewSalesService(store store.UnitOfWork, eventPublisher EventPublisher, idempotency IdempotencyStore) *SalesService {
	if eventPublisher == nil {
		eventPublisher = NoopPublisher{}
	}
	return &SalesService{
		store:          store,
		eventPublisher: eventPublisher,
		idempotency:    idempotency,
		now:            defaultClock,
		logger:         util.GetLogger(),
	}
}

// WithClock overrides the sale_date source
func (s *SalesService) WithClock(now Clock) *SalesService {
	s.now = now
	return s
}

type RecordSaleRequest struct {
	OrderID     int64            `json:"order_id" binding:"required"`
	CustomerID  int64            `json:"customer_id" binding:"required"`
	ProductID   int64            `json:"product_id" binding:"required"`
	Quantity    int              `json:"quantity" binding:"required,min=1"`
	UnitPrice   *decimal.Decimal `json:"unit_price" binding:"required"`
	TotalAmount *decimal.Decimal `json:"total_amount" binding:"required"`
}

// UpdateSaleRequest is an administrative correction of a sale record. It
// does not touch inventory or the order.
type UpdateSaleRequest struct {
	Quantity    *int             `json:"quantity" binding:"omitempty,min=1"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	TotalAmount *decimal.Decimal `json:"total_amount"`
	SaleDate    *time.Time       `json:"sale_date"`
}

// RecordSaleResult is the recorded sale. Replayed is set when the sale was
// created by an earlier request with the same idempotency key.
type RecordSaleResult struct {
	Sale     *models.Sale
	Replayed bool
}

func validateSale(req *RecordSaleRequest) error {
	if req.Quantity <= 0 {
		return apperror.Validation("quantity must be > 0")
	}
	if req.UnitPrice == nil {
		return apperror.Validation("unit_price is required")
	}
	if req.TotalAmount == nil {
		return apperror.Validation("total_amount is required")
	}
	if req.UnitPrice.IsNegative() {
		return apperror.Validation("unit_price must be >= 0")
	}
	if req.TotalAmount.IsNegative() {
		return apperror.Validation("total_amount must be >= 0")
	}
	// the amount becomes the order line's total_price
	want := req.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity)))
	if !req.TotalAmount.Equal(want) {
		return apperror.Validation("total_amount must equal unit_price * quantity").
			WithDetail("expected", want.StringFixed(2))
	}
	return nil
}

// RecordSale records one fulfilled line:
//  1. the order must exist and belong to the customer
//  2. the product must exist with enough stock on hand
//  3. the sale row is inserted
//  4. stock is decremented and the change appended to the ledger
//  5. the matching order item is created or merged
//  6. the order subtotal and total are recomputed
//
// The order and inventory rows stay locked until commit; any failure rolls
// back every step.
func (s *SalesService) RecordSale(ctx context.Context, req *RecordSaleRequest, idempotencyKey string) (result *RecordSaleResult, err error) {
	ctx, span := util.StartSpan(ctx, "SalesService.RecordSale",
		attribute.Int64("order_id", req.OrderID),
		attribute.Int64("product_id", req.ProductID),
		attribute.Int("quantity", req.Quantity))
	defer func() { util.EndSpan(span, err) }()

	if err := validateSale(req); err != nil {
		util.SalesFailedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	if idempotencyKey != "" && s.idempotency != nil {
		replay, claimed, err := s.claim(ctx, idempotencyKey)
		if err != nil {
			return nil, err
		}
		if replay != nil {
			return replay, nil
		}
		if claimed {
			defer func() {
				if err := recover(); err != nil {
					s.release(ctx, idempotencyKey)
					panic(err)
				}
			}()
		}
	}

	start := time.Now()
	sale, err := s.recordSale(ctx, req)
	util.SaleRecordLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		util.SalesFailedTotal.WithLabelValues(failureReason(err)).Inc()
		if idempotencyKey != "" && s.idempotency != nil {
			s.release(ctx, idempotencyKey)
		}
		return nil, err
	}

	util.SalesRecordedTotal.Inc()
	s.logger.Info("Sale recorded",
		zap.Int64("sale_id", sale.ID),
		zap.Int64("order_id", sale.OrderID),
		zap.Int64("product_id", sale.ProductID),
		zap.Int("quantity", sale.Quantity))

	if idempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.Complete(ctx, idempotencyScopeSales, idempotencyKey, sale.ID); err != nil {
			s.logger.Warn("Failed to store idempotency key", zap.String("key", idempotencyKey), zap.Error(err))
		}
	}

	s.publishRecorded(ctx, sale)
	return &RecordSaleResult{Sale: sale}, nil
}

func (s *SalesService) recordSale(ctx context.Context, req *RecordSaleRequest) (*models.Sale, error) {
	var (
		sale *models.Sale
		inv  *models.Inventory
	)
	err := s.store.InTx(ctx, func(repo store.Repository) error {
		order, err := repo.LockOrder(ctx, req.OrderID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && order.CustomerID != req.CustomerID) {
			return apperror.NotFound("order").WithDetail("reason", "order not found or does not belong to the customer")
		}
		if err != nil {
			return mapStoreError(err, "order")
		}

		if _, err := repo.GetProduct(ctx, req.ProductID); err != nil {
			return mapStoreError(err, "product")
		}
		current, err := repo.LockInventoryByProduct(ctx, req.ProductID)
		if err != nil {
			return mapStoreError(err, "inventory")
		}
		if current.Quantity < req.Quantity {
			return apperror.InsufficientStock(req.ProductID, current.Quantity, req.Quantity)
		}

		sale = &models.Sale{
			ProductID:   req.ProductID,
			OrderID:     order.ID,
			CustomerID:  req.CustomerID,
			Quantity:    req.Quantity,
			UnitPrice:   *req.UnitPrice,
			TotalAmount: *req.TotalAmount,
			SaleDate:    s.now(),
		}
		if err := repo.CreateSale(ctx, sale); err != nil {
			return mapStoreError(err, "sale")
		}

		inv, err = decrementForSale(ctx, repo, req.ProductID, req.Quantity, fmt.Sprintf("sale for order #%d", order.ID))
		if err != nil {
			return err
		}

		if err := mergeSaleIntoOrder(ctx, repo, order, sale); err != nil {
			return err
		}

		order.Subtotal = order.Subtotal.Add(sale.TotalAmount)
		order.RecomputeTotal()
		return mapStoreError(repo.UpdateOrder(ctx, order), "order")
	})
	if err != nil {
		return nil, err
	}

	util.InventoryAdjustmentsTotal.WithLabelValues("sale").Inc()
	publishInventoryEvents(ctx, s.eventPublisher, s.logger, inv, -sale.Quantity, fmt.Sprintf("sale for order #%d", sale.OrderID))
	return sale, nil
}

// mergeSaleIntoOrder adds the sale to the order's line for the product,
// creating the line when the order has none. A line only merges sales at
// its own unit price.
func mergeSaleIntoOrder(ctx context.Context, repo store.Repository, order *models.Order, sale *models.Sale) error {
	item, err := repo.GetOrderItem(ctx, order.ID, sale.ProductID)
	if errors.Is(err, store.ErrNotFound) {
		item = &models.OrderItem{
			OrderID:    order.ID,
			ProductID:  sale.ProductID,
			Quantity:   sale.Quantity,
			UnitPrice:  sale.UnitPrice,
			TotalPrice: sale.TotalAmount,
		}
		return mapStoreError(repo.CreateOrderItem(ctx, item), "order item")
	}
	if err != nil {
		return mapStoreError(err, "order item")
	}

	if !item.UnitPrice.Equal(sale.UnitPrice) {
		return apperror.Conflict("sale unit_price differs from the order line").
			WithDetail("line_unit_price", item.UnitPrice.StringFixed(2)).
			WithDetail("unit_price", sale.UnitPrice.StringFixed(2))
	}

	item.Quantity += sale.Quantity
	item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	return mapStoreError(repo.UpdateOrderItem(ctx, item), "order item")
}

// claim reserves the idempotency key. A non-nil result means an earlier
// request already created the sale.
func (s *SalesService) claim(ctx context.Context, key string) (*RecordSaleResult, bool, error) {
	existingID, claimed, err := s.idempotency.Claim(ctx, idempotencyScopeSales, key)
	if err != nil {
		// proceed unguarded
		s.logger.Warn("Idempotency store unavailable", zap.String("key", key), zap.Error(err))
		return nil, false, nil
	}
	if claimed {
		return nil, true, nil
	}
	if existingID == 0 {
		return nil, false, apperror.Conflict("a request with this idempotency key is still in progress")
	}

	sale, err := s.store.GetSale(ctx, existingID)
	if err != nil {
		return nil, false, mapStoreError(err, "sale")
	}
	s.logger.Info("Duplicate sale request detected",
		zap.String("idempotency_key", key),
		zap.Int64("sale_id", sale.ID))
	return &RecordSaleResult{Sale: sale, Replayed: true}, false, nil
}

func (s *SalesService) release(ctx context.Context, key string) {
	if err := s.idempotency.Release(ctx, idempotencyScopeSales, key); err != nil {
		s.logger.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(err))
	}
}

// GetSale retrieves a sale
func (s *SalesService) GetSale(ctx context.Context, id int64) (*models.Sale, error) {
	sale, err := s.store.GetSale(ctx, id)
	return sale, mapStoreError(err, "sale")
}

// ListSales lists sales newest first
func (s *SalesService) ListSales(ctx context.Context, filter store.SaleFilter) ([]models.Sale, error) {
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, apperror.Validation("end_date must not be before start_date")
	}
	sales, err := s.store.ListSales(ctx, filter)
	return sales, mapStoreError(err, "sales")
}

// UpdateSale corrects a sale record in place
func (s *SalesService) UpdateSale(ctx context.Context, id int64, req *UpdateSaleRequest) (*models.Sale, error) {
	ctx, span := util.StartSpan(ctx, "SalesService.UpdateSale")
	defer span.End()

	if req.Quantity != nil && *req.Quantity <= 0 {
		return nil, apperror.Validation("quantity must be > 0")
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		return nil, apperror.Validation("unit_price must be >= 0")
	}
	if req.TotalAmount != nil && req.TotalAmount.IsNegative() {
		return nil, apperror.Validation("total_amount must be >= 0")
	}

	var sale *models.Sale
	err := s.store.InTx(ctx, func(repo store.Repository) error {
		var err error
		sale, err = repo.GetSale(ctx, id)
		if err != nil {
			return mapStoreError(err, "sale")
		}
		if req.Quantity != nil {
			sale.Quantity = *req.Quantity
		}
		if req.UnitPrice != nil {
			sale.UnitPrice = *req.UnitPrice
		}
		if req.TotalAmount != nil {
			sale.TotalAmount = *req.TotalAmount
		}
		if req.SaleDate != nil {
			sale.SaleDate = *req.SaleDate
		}
		return mapStoreError(repo.UpdateSale(ctx, sale), "sale")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Sale corrected", zap.Int64("sale_id", id))
	if err := s.eventPublisher.PublishSaleCorrected(ctx, &models.SaleCorrectedEvent{SaleID: id}); err != nil {
		util.EventsPublishFailed.WithLabelValues(models.EventTypeSaleCorrected).Inc()
		s.logger.Error("Failed to publish SaleCorrected event", zap.Error(err))
	}
	return sale, nil
}

func (s *SalesService) publishRecorded(ctx context.Context, sale *models.Sale) {
	event := &models.SaleRecordedEvent{
		SaleID:      sale.ID,
		OrderID:     sale.OrderID,
		ProductID:   sale.ProductID,
		CustomerID:  sale.CustomerID,
		Quantity:    sale.Quantity,
		TotalAmount: sale.TotalAmount,
		SaleDate:    sale.SaleDate,
	}
	if err := s.eventPublisher.PublishSaleRecorded(ctx, event); err != nil {
		util.EventsPublishFailed.WithLabelValues(models.EventTypeSaleRecorded).Inc()
		s.logger.Error("Failed to publish SaleRecorded event", zap.Error(err))
	}
}

func failureReason(err error) string {
	appErr, ok := apperror.As(err)
	if !ok {
		return "internal"
	}
	switch appErr.Code {
	case apperror.CodeInsufficientStock:
		return "insufficient_stock"
	case apperror.CodeNotFound:
		return "not_found"
	case apperror.CodeValidation:
		return "validation"
	case apperror.CodeConflict:
		return "conflict"
	}
	return "internal"
}
