package service

import (
	"context"
	"testing"

	"github.com/Abdu216/Ecommerce-API/internal/apperror"
	"github.com/Abdu216/Ecommerce-API/internal/models"
	"github.com/Abdu216/Ecommerce-API/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) createOrder(t *testing.T, caller *Caller, items ...OrderItemRequest) *OrderDetail {
	t.Helper()
	detail, err := NewOrderService(f.store, f.events).CreateOrder(context.Background(), caller, &CreateOrderRequest{
		CustomerID:        f.customer.ID,
		Items:             items,
		ShippingAddressID: f.address.ID,
		BillingAddressID:  f.address.ID,
		ShippingCost:      dec("5.00"),
		Tax:               dec("1.25"),
	})
	require.NoError(t, err)
	return detail
}

func TestCreateOrderPricesFromCatalog(t *testing.T) {
	f := newFixture(t)
	other := f.addProduct(t, f.category.ID, "10.00")

	detail := f.createOrder(t, f.caller,
		OrderItemRequest{ProductID: f.product.ID, Quantity: 2},
		OrderItemRequest{ProductID: other.ID, Quantity: 1},
		OrderItemRequest{ProductID: f.product.ID, Quantity: 1},
	)

	assert.Equal(t, models.OrderStatusPending, detail.Status)
	require.Len(t, detail.Items, 2)
	assert.Equal(t, 3, detail.Items[0].Quantity)
	assert.True(t, dec("75.00").Equal(detail.Items[0].TotalPrice))
	assert.True(t, dec("85.00").Equal(detail.Subtotal))
	assert.True(t, dec("91.25").Equal(detail.Total))
	assert.Equal(t, 4, detail.TotalItems)
	assert.Equal(t, models.PaymentStatusPending, detail.PaymentStatus)

	require.Len(t, f.events.ordersCreated, 1)
	assert.Len(t, f.events.ordersCreated[0].Items, 2)
}

func TestCreateOrderAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewOrderService(f.store, f.events)
	intruder, _, _ := f.addCustomer(t, "mallory@example.com")

	req := &CreateOrderRequest{
		CustomerID:        f.customer.ID,
		Items:             []OrderItemRequest{{ProductID: f.product.ID, Quantity: 1}},
		ShippingAddressID: f.address.ID,
		BillingAddressID:  f.address.ID,
	}
	_, err := svc.CreateOrder(ctx, intruder, req)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))

	_, err = svc.CreateOrder(ctx, f.staff, req)
	assert.NoError(t, err)
}

func TestCreateOrderRejectsForeignAddress(t *testing.T) {
	f := newFixture(t)
	_, _, foreign := f.addCustomer(t, "bob@example.com")

	_, err := NewOrderService(f.store, f.events).CreateOrder(context.Background(), f.caller, &CreateOrderRequest{
		CustomerID:        f.customer.ID,
		Items:             []OrderItemRequest{{ProductID: f.product.ID, Quantity: 1}},
		ShippingAddressID: foreign.ID,
		BillingAddressID:  f.address.ID,
	})
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))

	orders, total, err := f.store.ListOrders(context.Background(), store.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Zero(t, total)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	f := newFixture(t)

	_, err := NewOrderService(f.store, f.events).CreateOrder(context.Background(), f.caller, &CreateOrderRequest{
		CustomerID:        f.customer.ID,
		Items:             []OrderItemRequest{{ProductID: 9999, Quantity: 1}},
		ShippingAddressID: f.address.ID,
		BillingAddressID:  f.address.ID,
	})
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestGetOrderOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewOrderService(f.store, f.events)
	detail := f.createOrder(t, f.caller, OrderItemRequest{ProductID: f.product.ID, Quantity: 1})
	intruder, _, _ := f.addCustomer(t, "eve@example.com")

	_, err := svc.GetOrder(ctx, f.caller, detail.ID)
	assert.NoError(t, err)
	_, err = svc.GetOrder(ctx, f.staff, detail.ID)
	assert.NoError(t, err)
	_, err = svc.GetOrder(ctx, intruder, detail.ID)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))
	_, err = svc.GetOrder(ctx, f.staff, 9999)
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestListOrdersScopedToCaller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewOrderService(f.store, f.events)
	f.createOrder(t, f.caller, OrderItemRequest{ProductID: f.product.ID, Quantity: 1})
	f.createOrder(t, f.caller, OrderItemRequest{ProductID: f.product.ID, Quantity: 2})
	bob, bobCustomer, _ := f.addCustomer(t, "bob@example.com")

	list, err := svc.ListOrders(ctx, bob, store.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, list.Total)

	list, err = svc.ListOrders(ctx, bob, store.OrderFilter{CustomerID: &f.customer.ID})
	require.NoError(t, err)
	assert.Empty(t, list.Orders)

	list, err = svc.ListOrders(ctx, f.caller, store.OrderFilter{Page: store.Page{Limit: 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.Len(t, list.Orders, 1)
	assert.Equal(t, 1, list.Page)

	list, err = svc.ListOrders(ctx, f.staff, store.OrderFilter{CustomerID: &bobCustomer.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, list.Total)

	list, err = svc.ListOrders(ctx, f.staff, store.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
}

func TestOrderStatusTransitions(t *testing.T) {
	status := func(s models.OrderStatus) *models.OrderStatus { return &s }

	tests := []struct {
		name  string
		path  []models.OrderStatus
		final models.OrderStatus
		ok    bool
	}{
		{"happy path", []models.OrderStatus{models.OrderStatusProcessing, models.OrderStatusShipped}, models.OrderStatusDelivered, true},
		{"cancel pending", nil, models.OrderStatusCancelled, true},
		{"return processing", []models.OrderStatus{models.OrderStatusProcessing}, models.OrderStatusReturned, true},
		{"skip to shipped", nil, models.OrderStatusShipped, false},
		{"cancel shipped", []models.OrderStatus{models.OrderStatusProcessing, models.OrderStatusShipped}, models.OrderStatusCancelled, false},
		{"reopen delivered", []models.OrderStatus{models.OrderStatusProcessing, models.OrderStatusShipped, models.OrderStatusDelivered}, models.OrderStatusPending, false},
		{"same status", nil, models.OrderStatusPending, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			svc := NewOrderService(f.store, f.events)
			detail := f.createOrder(t, f.caller, OrderItemRequest{ProductID: f.product.ID, Quantity: 1})

			for _, s := range tt.path {
				_, err := svc.UpdateOrder(ctx, detail.ID, &UpdateOrderRequest{Status: status(s)})
				require.NoError(t, err)
			}

			_, err := svc.UpdateOrder(ctx, detail.ID, &UpdateOrderRequest{Status: status(tt.final)})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, apperror.Is(err, apperror.CodeConflict))
			}
		})
	}
}

func TestUpdateOrderPublishesStatusChange(t *testing.T) {
	f := newFixture(t)
	svc := NewOrderService(f.store, f.events)
	detail := f.createOrder(t, f.caller, OrderItemRequest{ProductID: f.product.ID, Quantity: 1})

	processing := models.OrderStatusProcessing
	tracking := "TRACK-1"
	updated, err := svc.UpdateOrder(context.Background(), detail.ID, &UpdateOrderRequest{Status: &processing, TrackingNumber: &tracking})
	require.NoError(t, err)
	assert.Equal(t, tracking, *updated.TrackingNumber)

	require.Len(t, f.events.statusChanges, 1)
	assert.Equal(t, models.OrderStatusPending, f.events.statusChanges[0].From)
	assert.Equal(t, models.OrderStatusProcessing, f.events.statusChanges[0].To)

	notes := "leave at door"
	_, err = svc.UpdateOrder(context.Background(), detail.ID, &UpdateOrderRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Len(t, f.events.statusChanges, 1)
}

func TestUpdateOrderReplacesItemsAndRecomputes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewOrderService(f.store, f.events)
	other := f.addProduct(t, f.category.ID, "4.00")
	detail := f.createOrder(t, f.caller, OrderItemRequest{ProductID: f.product.ID, Quantity: 2})

	shipping := dec("0")
	updated, err := svc.UpdateOrder(ctx, detail.ID, &UpdateOrderRequest{
		ShippingCost: &shipping,
		Items:        []OrderItemRequest{{ProductID: other.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	require.Len(t, updated.Items, 1)
	assert.Equal(t, other.ID, updated.Items[0].ProductID)
	assert.True(t, dec("12.00").Equal(updated.Subtotal))
	assert.True(t, dec("13.25").Equal(updated.Total))

	stored, err := f.store.GetOrder(ctx, detail.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(stored.Subtotal.Add(stored.ShippingCost).Add(stored.Tax)))
}

func TestUpdateOrderEmptyItemsKeepsLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewOrderService(f.store, f.events)
	other := f.addProduct(t, f.category.ID, "10.00")
	detail := f.createOrder(t, f.caller,
		OrderItemRequest{ProductID: f.product.ID, Quantity: 2},
		OrderItemRequest{ProductID: other.ID, Quantity: 1},
	)

	notes := "leave at the door"
	updated, err := svc.UpdateOrder(ctx, detail.ID, &UpdateOrderRequest{
		Notes: &notes,
		Items: []OrderItemRequest{},
	})
	require.NoError(t, err)

	assert.Len(t, updated.Items, 2)
	assert.True(t, dec("60.00").Equal(updated.Subtotal))
	assert.True(t, dec("66.25").Equal(updated.Total))

	items, err := f.store.ListOrderItems(ctx, detail.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestUpdateOrderValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewOrderService(f.store, f.events)
	detail := f.createOrder(t, f.caller, OrderItemRequest{ProductID: f.product.ID, Quantity: 1})

	negative := dec("-1")
	_, err := svc.UpdateOrder(context.Background(), detail.ID, &UpdateOrderRequest{Tax: &negative})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	unknown := models.OrderStatus("lost")
	_, err = svc.UpdateOrder(context.Background(), detail.ID, &UpdateOrderRequest{Status: &unknown})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestDeleteOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewOrderService(f.store, f.events)
	detail := f.createOrder(t, f.caller, OrderItemRequest{ProductID: f.product.ID, Quantity: 1})

	_, err := NewPaymentService(f.store, f.events).RecordPayment(ctx, detail.ID, &RecordPaymentRequest{
		Amount:        dec("10.00"),
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(ctx, detail.ID))
	_, err = f.store.GetOrder(ctx, detail.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = svc.DeleteOrder(ctx, detail.ID)
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestDeleteOrderWithSalesConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.newOrder(t, "0", "0")

	_, err := f.sales().RecordSale(ctx, &RecordSaleRequest{
		OrderID:     order.ID,
		CustomerID:  f.customer.ID,
		ProductID:   f.product.ID,
		Quantity:    1,
		UnitPrice:   decp("25.00"),
		TotalAmount: decp("25.00"),
	}, "")
	require.NoError(t, err)

	err = NewOrderService(f.store, f.events).DeleteOrder(ctx, order.ID)
	assert.True(t, apperror.Is(err, apperror.CodeConflict))

	_, err = f.store.GetOrder(ctx, order.ID)
	assert.NoError(t, err)
}
