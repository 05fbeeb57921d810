package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the caller role carried by every authenticated request
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStaff    Role = "staff"
	RoleCustomer Role = "customer"
)

// IsStaff reports whether the role may use staff-only endpoints
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleStaff
}

// User represents a login identity
type User struct {
	ID             int64      `db:"id" json:"id"`
	Email          string     `db:"email" json:"email"`
	HashedPassword string     `db:"hashed_password" json:"-"`
	FullName       *string    `db:"full_name" json:"full_name,omitempty"`
	Role           Role       `db:"role" json:"role"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Customer is the customer profile attached to a user
type Customer struct {
	ID                       int64   `db:"id" json:"id"`
	UserID                   int64   `db:"user_id" json:"user_id"`
	Phone                    *string `db:"phone" json:"phone,omitempty"`
	DefaultShippingAddressID *int64  `db:"default_shipping_address_id" json:"default_shipping_address_id,omitempty"`
	DefaultBillingAddressID  *int64  `db:"default_billing_address_id" json:"default_billing_address_id,omitempty"`
}

// Address belongs to a customer
type Address struct {
	ID            int64      `db:"id" json:"id"`
	CustomerID    int64      `db:"customer_id" json:"customer_id"`
	StreetAddress string     `db:"street_address" json:"street_address"`
	City          string     `db:"city" json:"city"`
	State         *string    `db:"state" json:"state,omitempty"`
	PostalCode    string     `db:"postal_code" json:"postal_code"`
	Country       string     `db:"country" json:"country"`
	IsDefault     bool       `db:"is_default" json:"is_default"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Category groups products
type Category struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Description *string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Product represents a product in the catalog
type Product struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description *string         `db:"description" json:"description,omitempty"`
	Price       decimal.Decimal `db:"price" json:"price"`
	CategoryID  int64           `db:"category_id" json:"category_id"`
	SKU         *string         `db:"sku" json:"sku,omitempty"`
	IsActive    bool            `db:"is_active" json:"is_active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time      `db:"updated_at" json:"updated_at,omitempty"`
}

// Inventory represents product stock. InitialQuantity is the ledger baseline.
type Inventory struct {
	ID                int64      `db:"id" json:"id"`
	ProductID         int64      `db:"product_id" json:"product_id"`
	Quantity          int        `db:"quantity" json:"quantity"`
	InitialQuantity   int        `db:"initial_quantity" json:"initial_quantity"`
	LowStockThreshold int        `db:"low_stock_threshold" json:"low_stock_threshold"`
	LastUpdated       *time.Time `db:"last_updated" json:"last_updated,omitempty"`
}

// IsLowStock reports whether the quantity is at or below the threshold
func (i *Inventory) IsLowStock() bool {
	return i.Quantity <= i.LowStockThreshold
}

// InventoryHistory is one append-only ledger entry
type InventoryHistory struct {
	ID             int64     `db:"id" json:"id"`
	InventoryID    int64     `db:"inventory_id" json:"inventory_id"`
	QuantityChange int       `db:"quantity_change" json:"quantity_change"`
	Reason         string    `db:"reason" json:"reason"`
	Timestamp      time.Time `db:"timestamp" json:"timestamp"`
}

// OrderStatus is the order lifecycle state
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusReturned   OrderStatus = "returned"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled, OrderStatusReturned},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled, OrderStatusReturned},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned:
		return true
	}
	return false
}

// CanTransitionTo reports whether the edge s -> next is allowed.
// Staying in the same status is always allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order represents a customer order header
type Order struct {
	ID                int64           `db:"id" json:"id"`
	CustomerID        int64           `db:"customer_id" json:"customer_id"`
	OrderDate         time.Time       `db:"order_date" json:"order_date"`
	Status            OrderStatus     `db:"status" json:"status"`
	ShippingAddressID int64           `db:"shipping_address_id" json:"shipping_address_id"`
	BillingAddressID  int64           `db:"billing_address_id" json:"billing_address_id"`
	Subtotal          decimal.Decimal `db:"subtotal" json:"subtotal"`
	ShippingCost      decimal.Decimal `db:"shipping_cost" json:"shipping_cost"`
	Tax               decimal.Decimal `db:"tax" json:"tax"`
	Total             decimal.Decimal `db:"total" json:"total"`
	TrackingNumber    *string         `db:"tracking_number" json:"tracking_number,omitempty"`
	Notes             *string         `db:"notes" json:"notes,omitempty"`
	UpdatedAt         *time.Time      `db:"updated_at" json:"updated_at,omitempty"`
}

// RecomputeTotal sets Total = Subtotal + ShippingCost + Tax
func (o *Order) RecomputeTotal() {
	o.Total = o.Subtotal.Add(o.ShippingCost).Add(o.Tax)
}

// OrderItem represents a line of an order
type OrderItem struct {
	ID         int64           `db:"id" json:"id"`
	OrderID    int64           `db:"order_id" json:"order_id"`
	ProductID  int64           `db:"product_id" json:"product_id"`
	Quantity   int             `db:"quantity" json:"quantity"`
	UnitPrice  decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalPrice decimal.Decimal `db:"total_price" json:"total_price"`
}

// PaymentStatus is the state of a single payment, and also the derived
// payment state of an order (which may additionally be partial)
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusPartial   PaymentStatus = "partial"
)

// ValidForPayment reports whether s can be stored on a payment row
func (s PaymentStatus) ValidForPayment() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// Payment represents a payment transaction against an order
type Payment struct {
	ID            int64           `db:"id" json:"id"`
	OrderID       int64           `db:"order_id" json:"order_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	PaymentDate   time.Time       `db:"payment_date" json:"payment_date"`
	PaymentMethod string          `db:"payment_method" json:"payment_method"`
	Status        PaymentStatus   `db:"status" json:"status"`
	TransactionID *string         `db:"transaction_id" json:"transaction_id,omitempty"`
}

// DerivePaymentStatus computes the payment state of an order from its payments.
// Only completed payments count towards the order total.
func DerivePaymentStatus(total decimal.Decimal, payments []Payment) PaymentStatus {
	if len(payments) == 0 {
		return PaymentStatusPending
	}

	paid := decimal.Zero
	for _, p := range payments {
		if p.Status == PaymentStatusCompleted {
			paid = paid.Add(p.Amount)
		}
	}

	switch {
	case paid.GreaterThanOrEqual(total):
		return PaymentStatusCompleted
	case paid.IsPositive():
		return PaymentStatusPartial
	default:
		return PaymentStatusPending
	}
}

// Sale is the immutable fact of a fulfilled line, source of revenue analytics
type Sale struct {
	ID          int64           `db:"id" json:"id"`
	ProductID   int64           `db:"product_id" json:"product_id"`
	OrderID     int64           `db:"order_id" json:"order_id"`
	CustomerID  int64           `db:"customer_id" json:"customer_id"`
	Quantity    int             `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	SaleDate    time.Time       `db:"sale_date" json:"sale_date"`
}

// Review is a customer's rating of a product
type Review struct {
	ID                 int64      `db:"id" json:"id"`
	ProductID          int64      `db:"product_id" json:"product_id"`
	CustomerID         int64      `db:"customer_id" json:"customer_id"`
	UserID             int64      `db:"user_id" json:"user_id"`
	Rating             int        `db:"rating" json:"rating"`
	Comment            *string    `db:"comment" json:"comment,omitempty"`
	IsVerifiedPurchase bool       `db:"is_verified_purchase" json:"is_verified_purchase"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// RevenueTotals is a revenue aggregate over a time range
type RevenueTotals struct {
	TotalRevenue decimal.Decimal `db:"total_revenue"`
	TotalSales   int64           `db:"total_sales"`
}

// CategoryRevenueRow is a revenue aggregate for one category
type CategoryRevenueRow struct {
	CategoryID   int64           `db:"category_id"`
	CategoryName string          `db:"category_name"`
	TotalRevenue decimal.Decimal `db:"total_revenue"`
	TotalSales   int64           `db:"total_sales"`
}
