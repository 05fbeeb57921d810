package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeSaleRecorded       = "SALE_RECORDED"
	EventTypeSaleCorrected      = "SALE_CORRECTED"
	EventTypeInventoryAdjusted  = "INVENTORY_ADJUSTED"
	EventTypeLowStock           = "LOW_STOCK"
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypePaymentRecorded    = "PAYMENT_RECORDED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SaleRecordedEvent published after a sale commits
type SaleRecordedEvent struct {
	BaseEvent
	SaleID      int64           `json:"sale_id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	CustomerID  int64           `json:"customer_id"`
	Quantity    int             `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	SaleDate    time.Time       `json:"sale_date"`
}

// SaleCorrectedEvent published when staff edit a sale record
type SaleCorrectedEvent struct {
	BaseEvent
	SaleID int64 `json:"sale_id"`
}

// InventoryAdjustedEvent published after a ledger entry commits
type InventoryAdjustedEvent struct {
	BaseEvent
	InventoryID    int64  `json:"inventory_id"`
	ProductID      int64  `json:"product_id"`
	QuantityChange int    `json:"quantity_change"`
	Quantity       int    `json:"quantity"`
	Reason         string `json:"reason"`
}

// LowStockEvent published when on-hand quantity reaches the threshold
type LowStockEvent struct {
	BaseEvent
	InventoryID int64 `json:"inventory_id"`
	ProductID   int64 `json:"product_id"`
	Quantity    int   `json:"quantity"`
	Threshold   int   `json:"threshold"`
}

// OrderCreatedEvent published when an order is created
type OrderCreatedEvent struct {
	BaseEvent
	OrderID    int64           `json:"order_id"`
	CustomerID int64           `json:"customer_id"`
	Total      decimal.Decimal `json:"total"`
	Items      []OrderItemData `json:"items"`
}

// OrderStatusChangedEvent published on every accepted status transition
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID int64       `json:"order_id"`
	From    OrderStatus `json:"from"`
	To      OrderStatus `json:"to"`
}

// PaymentRecordedEvent published when a payment is stored or its status changes
type PaymentRecordedEvent struct {
	BaseEvent
	OrderID   int64           `json:"order_id"`
	PaymentID int64           `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    PaymentStatus   `json:"status"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}
