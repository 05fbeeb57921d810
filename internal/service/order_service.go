package service

import (
	"context"
	"fmt"

	"github.com/Abdu216/Ecommerce-API/internal/apperror"
	"github.com/Abdu216/Ecommerce-API/internal/models"
	"github.com/Abdu216/Ecommerce-API/internal/store"
	"github.com/Abdu216/Ecommerce-API/internal/util"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// OrderService handles the order aggregate: header, items and payments
type OrderService struct {
	store          store.UnitOfWork
	eventPublisher EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store store.UnitOfWork, eventPublisher EventPublisher) *OrderService {
	if eventPublisher == nil {
		eventPublisher = NoopPublisher{}
	}
	return &OrderService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// OrderItemRequest represents an item in an order
type OrderItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	CustomerID        int64              `json:"customer_id" binding:"required"`
	Items             []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	ShippingAddressID int64              `json:"shipping_address_id" binding:"required"`
	BillingAddressID  int64              `json:"billing_address_id" binding:"required"`
	ShippingCost      decimal.Decimal    `json:"shipping_cost"`
	Tax               decimal.Decimal    `json:"tax"`
	Notes             *string            `json:"notes"`
}

// UpdateOrderRequest is a staff patch. A non-empty Items replaces every line;
// an empty list leaves the lines alone.
type UpdateOrderRequest struct {
	Status            *models.OrderStatus `json:"status"`
	TrackingNumber    *string             `json:"tracking_number" binding:"omitempty,max=100"`
	Notes             *string             `json:"notes"`
	ShippingCost      *decimal.Decimal    `json:"shipping_cost"`
	Tax               *decimal.Decimal    `json:"tax"`
	ShippingAddressID *int64              `json:"shipping_address_id"`
	BillingAddressID  *int64              `json:"billing_address_id"`
	Items             []OrderItemRequest  `json:"items" binding:"omitempty,dive"`
}

// OrderDetail is an order with its items, payments and derived payment state
type OrderDetail struct {
	models.Order
	Items         []models.OrderItem   `json:"items"`
	Payments      []models.Payment     `json:"payments"`
	TotalItems    int                  `json:"total_items"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
}

// OrderList is one page of orders
type OrderList struct {
	Total  int           `json:"total"`
	Page   int           `json:"page"`
	Size   int           `json:"size"`
	Orders []OrderDetail `json:"orders"`
}

// CreateOrder creates a pending order priced from current product prices
func (s *OrderService) CreateOrder(ctx context.Context, caller *Caller, req *CreateOrderRequest) (_ *OrderDetail, err error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder",
		attribute.Int64("customer_id", req.CustomerID),
		attribute.Int("item_count", len(req.Items)))
	defer func() { util.EndSpan(span, err) }()

	if req.ShippingCost.IsNegative() || req.Tax.IsNegative() {
		return nil, apperror.Validation("shipping_cost and tax must be >= 0")
	}
	if len(req.Items) == 0 {
		return nil, apperror.Validation("order must contain at least one item")
	}

	var detail *OrderDetail
	err = s.store.InTx(ctx, func(repo store.Repository) error {
		customer, err := repo.GetCustomerByID(ctx, req.CustomerID)
		if err != nil {
			return mapStoreError(err, "customer")
		}
		if err := authorizeCustomer(ctx, repo, caller, customer.ID); err != nil {
			return err
		}
		if err := checkAddresses(ctx, repo, customer.ID, req.ShippingAddressID, req.BillingAddressID); err != nil {
			return err
		}

		order := &models.Order{
			CustomerID:        customer.ID,
			Status:            models.OrderStatusPending,
			ShippingAddressID: req.ShippingAddressID,
			BillingAddressID:  req.BillingAddressID,
			Subtotal:          decimal.Zero,
			ShippingCost:      req.ShippingCost,
			Tax:               req.Tax,
			Notes:             req.Notes,
		}
		order.RecomputeTotal()
		if err := repo.CreateOrder(ctx, order); err != nil {
			return mapStoreError(err, "order")
		}

		items, err := s.insertItems(ctx, repo, order, req.Items)
		if err != nil {
			return err
		}

		detail = newOrderDetail(order, items, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", detail.ID),
		zap.Int64("customer_id", detail.CustomerID),
		zap.String("total", detail.Total.String()))

	event := &models.OrderCreatedEvent{
		OrderID:    detail.ID,
		CustomerID: detail.CustomerID,
		Total:      detail.Total,
		Items:      make([]models.OrderItemData, 0, len(detail.Items)),
	}
	for _, it := range detail.Items {
		event.Items = append(event.Items, models.OrderItemData{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	if err := s.eventPublisher.PublishOrderCreated(ctx, event); err != nil {
		util.EventsPublishFailed.WithLabelValues(models.EventTypeOrderCreated).Inc()
		s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}

	return detail, nil
}

// GetOrder retrieves an order visible to the caller
func (s *OrderService) GetOrder(ctx context.Context, caller *Caller, id int64) (*OrderDetail, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder")
	defer span.End()

	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "order")
	}
	if err := authorizeCustomer(ctx, s.store, caller, order.CustomerID); err != nil {
		return nil, err
	}
	return loadOrderDetail(ctx, s.store, order)
}

// ListOrders lists orders. Non-staff callers only ever see their own orders.
func (s *OrderService) ListOrders(ctx context.Context, caller *Caller, filter store.OrderFilter) (*OrderList, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrders")
	defer span.End()

	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperror.Validation(fmt.Sprintf("unknown order status %q", *filter.Status))
	}

	if !caller.IsStaff() {
		customer, err := callerCustomer(ctx, s.store, caller)
		if err != nil {
			return nil, err
		}
		if filter.CustomerID != nil && *filter.CustomerID != customer.ID {
			return &OrderList{Page: 1, Size: filter.Limit, Orders: []OrderDetail{}}, nil
		}
		filter.CustomerID = &customer.ID
	}

	orders, total, err := s.store.ListOrders(ctx, filter)
	if err != nil {
		return nil, mapStoreError(err, "orders")
	}

	list := &OrderList{Total: total, Page: 1, Size: filter.Limit, Orders: make([]OrderDetail, 0, len(orders))}
	if filter.Limit > 0 {
		list.Page = filter.Skip/filter.Limit + 1
	}
	for i := range orders {
		detail, err := loadOrderDetail(ctx, s.store, &orders[i])
		if err != nil {
			return nil, err
		}
		list.Orders = append(list.Orders, *detail)
	}
	return list, nil
}

// UpdateOrder applies a staff patch. Status changes must follow the
// transition graph; money changes recompute the total.
func (s *OrderService) UpdateOrder(ctx context.Context, id int64, req *UpdateOrderRequest) (*OrderDetail, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateOrder")
	defer span.End()

	if req.ShippingCost != nil && req.ShippingCost.IsNegative() {
		return nil, apperror.Validation("shipping_cost must be >= 0")
	}
	if req.Tax != nil && req.Tax.IsNegative() {
		return nil, apperror.Validation("tax must be >= 0")
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, apperror.Validation(fmt.Sprintf("unknown order status %q", *req.Status))
	}

	var (
		detail *OrderDetail
		from   models.OrderStatus
	)
	err := s.store.InTx(ctx, func(repo store.Repository) error {
		order, err := repo.LockOrder(ctx, id)
		if err != nil {
			return mapStoreError(err, "order")
		}
		from = order.Status

		if req.Status != nil {
			if !order.Status.CanTransitionTo(*req.Status) {
				return apperror.Conflict(fmt.Sprintf("cannot change order status from %s to %s", order.Status, *req.Status)).
					WithDetail("from", string(order.Status)).
					WithDetail("to", string(*req.Status))
			}
			order.Status = *req.Status
		}

		shipping, billing := order.ShippingAddressID, order.BillingAddressID
		if req.ShippingAddressID != nil {
			shipping = *req.ShippingAddressID
		}
		if req.BillingAddressID != nil {
			billing = *req.BillingAddressID
		}
		if shipping != order.ShippingAddressID || billing != order.BillingAddressID {
			if err := checkAddresses(ctx, repo, order.CustomerID, shipping, billing); err != nil {
				return err
			}
			order.ShippingAddressID, order.BillingAddressID = shipping, billing
		}

		if req.TrackingNumber != nil {
			order.TrackingNumber = req.TrackingNumber
		}
		if req.Notes != nil {
			order.Notes = req.Notes
		}
		if req.ShippingCost != nil {
			order.ShippingCost = *req.ShippingCost
		}
		if req.Tax != nil {
			order.Tax = *req.Tax
		}

		var items []models.OrderItem
		if len(req.Items) > 0 {
			if err := repo.DeleteOrderItems(ctx, order.ID); err != nil {
				return mapStoreError(err, "order items")
			}
			order.Subtotal = decimal.Zero
			if items, err = s.insertItems(ctx, repo, order, req.Items); err != nil {
				return err
			}
		} else if items, err = repo.ListOrderItems(ctx, order.ID); err != nil {
			return mapStoreError(err, "order items")
		}

		order.RecomputeTotal()
		if err := repo.UpdateOrder(ctx, order); err != nil {
			return mapStoreError(err, "order")
		}

		payments, err := repo.ListPayments(ctx, order.ID)
		if err != nil {
			return mapStoreError(err, "payments")
		}
		detail = newOrderDetail(order, items, payments)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order updated", zap.Int64("order_id", id))

	if detail.Status != from {
		util.OrderStatusTransitionsTotal.WithLabelValues(string(from), string(detail.Status)).Inc()
		event := &models.OrderStatusChangedEvent{OrderID: id, From: from, To: detail.Status}
		if err := s.eventPublisher.PublishOrderStatusChanged(ctx, event); err != nil {
			util.EventsPublishFailed.WithLabelValues(models.EventTypeOrderStatusChanged).Inc()
			s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
		}
	}
	return detail, nil
}

// DeleteOrder hard-deletes an order with its items and payments. Orders
// with recorded sales cannot be deleted.
func (s *OrderService) DeleteOrder(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "OrderService.DeleteOrder")
	defer span.End()

	err := s.store.InTx(ctx, func(repo store.Repository) error {
		if _, err := repo.LockOrder(ctx, id); err != nil {
			return mapStoreError(err, "order")
		}

		sales, err := repo.CountSalesByOrder(ctx, id)
		if err != nil {
			return mapStoreError(err, "sales")
		}
		if sales > 0 {
			return apperror.Conflict("order has recorded sales and cannot be deleted").
				WithDetail("sales", fmt.Sprint(sales))
		}

		if err := repo.DeleteOrderItems(ctx, id); err != nil {
			return mapStoreError(err, "order items")
		}
		if err := repo.DeletePayments(ctx, id); err != nil {
			return mapStoreError(err, "payments")
		}
		return mapStoreError(repo.DeleteOrder(ctx, id), "order")
	})
	if err != nil {
		return err
	}

	s.logger.Info("Order deleted", zap.Int64("order_id", id))
	return nil
}

// insertItems prices items from the catalog, merges duplicate product lines
// and adds their totals to order.Subtotal.
func (s *OrderService) insertItems(ctx context.Context, repo store.Repository, order *models.Order, reqItems []OrderItemRequest) ([]models.OrderItem, error) {
	quantities := make(map[int64]int, len(reqItems))
	ids := make([]int64, 0, len(reqItems))
	for _, it := range reqItems {
		if it.Quantity <= 0 {
			return nil, apperror.Validation("item quantity must be > 0")
		}
		if _, ok := quantities[it.ProductID]; !ok {
			ids = append(ids, it.ProductID)
		}
		quantities[it.ProductID] += it.Quantity
	}

	products, err := repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, mapStoreError(err, "products")
	}

	items := make([]models.OrderItem, 0, len(ids))
	for _, productID := range ids {
		product, ok := products[productID]
		if !ok {
			return nil, apperror.NotFound("product").WithDetail("product_id", fmt.Sprint(productID))
		}

		qty := quantities[productID]
		item := models.OrderItem{
			OrderID:    order.ID,
			ProductID:  productID,
			Quantity:   qty,
			UnitPrice:  product.Price,
			TotalPrice: product.Price.Mul(decimal.NewFromInt(int64(qty))),
		}
		if err := repo.CreateOrderItem(ctx, &item); err != nil {
			return nil, mapStoreError(err, "order item")
		}
		order.Subtotal = order.Subtotal.Add(item.TotalPrice)
		items = append(items, item)
	}

	order.RecomputeTotal()
	return items, mapStoreError(repo.UpdateOrder(ctx, order), "order")
}

// checkAddresses requires both addresses to belong to the customer
func checkAddresses(ctx context.Context, repo store.Repository, customerID int64, ids ...int64) error {
	for _, id := range uniqueIDs(ids) {
		addr, err := repo.GetAddress(ctx, id)
		if err != nil {
			return mapStoreError(err, "address")
		}
		if addr.CustomerID != customerID {
			return apperror.NotFound("address").WithDetail("address_id", fmt.Sprint(id))
		}
	}
	return nil
}

func loadOrderDetail(ctx context.Context, repo store.Repository, order *models.Order) (*OrderDetail, error) {
	items, err := repo.ListOrderItems(ctx, order.ID)
	if err != nil {
		return nil, mapStoreError(err, "order items")
	}
	payments, err := repo.ListPayments(ctx, order.ID)
	if err != nil {
		return nil, mapStoreError(err, "payments")
	}
	return newOrderDetail(order, items, payments), nil
}

func newOrderDetail(order *models.Order, items []models.OrderItem, payments []models.Payment) *OrderDetail {
	if items == nil {
		items = []models.OrderItem{}
	}
	if payments == nil {
		payments = []models.Payment{}
	}

	totalItems := 0
	for _, it := range items {
		totalItems += it.Quantity
	}

	return &OrderDetail{
		Order:         *order,
		Items:         items,
		Payments:      payments,
		TotalItems:    totalItems,
		PaymentStatus: models.DerivePaymentStatus(order.Total, payments),
	}
}
