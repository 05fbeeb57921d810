package memstore

import (
	"context"
	"sort"

	"github.com/Abdu216/Ecommerce-API/internal/models"
	"github.com/Abdu216/Ecommerce-API/internal/store"
)

func checkOrderTotals(o *models.Order) error {
	if o.Subtotal.IsNegative() || o.ShippingCost.IsNegative() || o.Tax.IsNegative() {
		return ErrCheckViolation
	}
	if !o.Total.Equal(o.Subtotal.Add(o.ShippingCost).Add(o.Tax)) {
		return ErrCheckViolation
	}
	return nil
}

func (r *repo) CreateOrder(_ context.Context, o *models.Order) error {
	defer r.lock()()
	if _, ok := r.st.customers[o.CustomerID]; !ok {
		return referenced("orders_customer_id_fkey")
	}
	if _, ok := r.st.addresses[o.ShippingAddressID]; !ok {
		return referenced("orders_shipping_address_id_fkey")
	}
	if _, ok := r.st.addresses[o.BillingAddressID]; !ok {
		return referenced("orders_billing_address_id_fkey")
	}
	if err := checkOrderTotals(o); err != nil {
		return err
	}
	o.ID = r.st.next("orders")
	o.OrderDate = r.stamp()
	r.st.orders[o.ID] = *o
	return nil
}

func (r *repo) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	defer r.lock()()
	o, ok := r.st.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &o, nil
}

func (r *repo) LockOrder(ctx context.Context, id int64) (*models.Order, error) {
	return r.GetOrder(ctx, id)
}

func (r *repo) ListOrders(_ context.Context, filter store.OrderFilter) ([]models.Order, int, error) {
	defer r.lock()()
	out := []models.Order{}
	for _, o := range r.st.orders {
		if filter.CustomerID != nil && o.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.After(out[j].OrderDate)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, filter.Page), len(out), nil
}

func (r *repo) CountOrdersByCustomer(_ context.Context, customerID int64) (int, error) {
	defer r.lock()()
	n := 0
	for _, o := range r.st.orders {
		if o.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (r *repo) UpdateOrder(_ context.Context, o *models.Order) error {
	defer r.lock()()
	cur, ok := r.st.orders[o.ID]
	if !ok {
		return store.ErrNotFound
	}
	if err := checkOrderTotals(o); err != nil {
		return err
	}
	cur.Status = o.Status
	cur.ShippingAddressID = o.ShippingAddressID
	cur.BillingAddressID = o.BillingAddressID
	cur.Subtotal = o.Subtotal
	cur.ShippingCost = o.ShippingCost
	cur.Tax = o.Tax
	cur.Total = o.Total
	cur.TrackingNumber = o.TrackingNumber
	cur.Notes = o.Notes
	cur.UpdatedAt = r.stampPtr()
	r.st.orders[o.ID] = cur
	*o = cur
	return nil
}

func (r *repo) DeleteOrder(_ context.Context, id int64) error {
	defer r.lock()()
	if _, ok := r.st.orders[id]; !ok {
		return store.ErrNotFound
	}
	for _, it := range r.st.items {
		if it.OrderID == id {
			return referenced("order_items_order_id_fkey")
		}
	}
	for _, p := range r.st.payments {
		if p.OrderID == id {
			return referenced("payments_order_id_fkey")
		}
	}
	for _, s := range r.st.sales {
		if s.OrderID == id {
			return referenced("sales_order_id_fkey")
		}
	}
	delete(r.st.orders, id)
	return nil
}

func (r *repo) CreateOrderItem(_ context.Context, item *models.OrderItem) error {
	defer r.lock()()
	if _, ok := r.st.orders[item.OrderID]; !ok {
		return referenced("order_items_order_id_fkey")
	}
	if _, ok := r.st.products[item.ProductID]; !ok {
		return referenced("order_items_product_id_fkey")
	}
	if item.Quantity <= 0 {
		return ErrCheckViolation
	}
	for _, it := range r.st.items {
		if it.OrderID == item.OrderID && it.ProductID == item.ProductID {
			return duplicate("order_items_order_id_product_id_key")
		}
	}
	item.ID = r.st.next("order_items")
	r.st.items[item.ID] = *item
	return nil
}

func (r *repo) GetOrderItem(_ context.Context, orderID, productID int64) (*models.OrderItem, error) {
	defer r.lock()()
	for _, it := range r.st.items {
		if it.OrderID == orderID && it.ProductID == productID {
			return &it, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *repo) ListOrderItems(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	defer r.lock()()
	out := []models.OrderItem{}
	for _, it := range sortedValues(r.st.items) {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *repo) UpdateOrderItem(_ context.Context, item *models.OrderItem) error {
	defer r.lock()()
	cur, ok := r.st.items[item.ID]
	if !ok {
		return store.ErrNotFound
	}
	if item.Quantity <= 0 {
		return ErrCheckViolation
	}
	cur.Quantity = item.Quantity
	cur.UnitPrice = item.UnitPrice
	cur.TotalPrice = item.TotalPrice
	r.st.items[item.ID] = cur
	return nil
}

func (r *repo) DeleteOrderItems(_ context.Context, orderID int64) error {
	defer r.lock()()
	for id, it := range r.st.items {
		if it.OrderID == orderID {
			delete(r.st.items, id)
		}
	}
	return nil
}

func (r *repo) CreatePayment(_ context.Context, p *models.Payment) error {
	defer r.lock()()
	if _, ok := r.st.orders[p.OrderID]; !ok {
		return referenced("payments_order_id_fkey")
	}
	if !p.Amount.IsPositive() {
		return ErrCheckViolation
	}
	p.ID = r.st.next("payments")
	p.PaymentDate = r.stamp()
	r.st.payments[p.ID] = *p
	return nil
}

func (r *repo) GetPayment(_ context.Context, id int64) (*models.Payment, error) {
	defer r.lock()()
	p, ok := r.st.payments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (r *repo) ListPayments(_ context.Context, orderID int64) ([]models.Payment, error) {
	defer r.lock()()
	out := []models.Payment{}
	for _, p := range sortedValues(r.st.payments) {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *repo) UpdatePaymentStatus(_ context.Context, id int64, status models.PaymentStatus) error {
	defer r.lock()()
	p, ok := r.st.payments[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Status = status
	r.st.payments[id] = p
	return nil
}

func (r *repo) DeletePayments(_ context.Context, orderID int64) error {
	defer r.lock()()
	for id, p := range r.st.payments {
		if p.OrderID == orderID {
			delete(r.st.payments, id)
		}
	}
	return nil
}
