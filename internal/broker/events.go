package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Abdu216/Ecommerce-API/internal/models"
	"github.com/Abdu216/Ecommerce-API/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func stamp(base *models.BaseEvent, eventType string) {
	if base.EventID == "" {
		base.EventID = uuid.NewString()
	}
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now().UTC()
	}
	base.EventType = eventType
}

func orderKey(orderID int64) string {
	return fmt.Sprintf("order-%d", orderID)
}

func inventoryKey(inventoryID int64) string {
	return fmt.Sprintf("inventory-%d", inventoryID)
}

// PublishSaleRecorded publishes SaleRecorded event
func (ep *EventPublisher) PublishSaleRecorded(ctx context.Context, event *models.SaleRecordedEvent) error {
	stamp(&event.BaseEvent, models.EventTypeSaleRecorded)
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event.EventType, event)
}

// PublishSaleCorrected publishes SaleCorrected event
func (ep *EventPublisher) PublishSaleCorrected(ctx context.Context, event *models.SaleCorrectedEvent) error {
	stamp(&event.BaseEvent, models.EventTypeSaleCorrected)
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("sale-%d", event.SaleID), event.EventType, event)
}

// PublishInventoryAdjusted publishes InventoryAdjusted event
func (ep *EventPublisher) PublishInventoryAdjusted(ctx context.Context, event *models.InventoryAdjustedEvent) error {
	stamp(&event.BaseEvent, models.EventTypeInventoryAdjusted)
	return ep.producer.PublishEvent(ctx, inventoryKey(event.InventoryID), event.EventType, event)
}

// PublishLowStock publishes LowStock event
func (ep *EventPublisher) PublishLowStock(ctx context.Context, event *models.LowStockEvent) error {
	stamp(&event.BaseEvent, models.EventTypeLowStock)
	return ep.producer.PublishEvent(ctx, inventoryKey(event.InventoryID), event.EventType, event)
}

// PublishOrderCreated publishes OrderCreated event
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	stamp(&event.BaseEvent, models.EventTypeOrderCreated)
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event.EventType, event)
}

// PublishOrderStatusChanged publishes OrderStatusChanged event
func (ep *EventPublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	stamp(&event.BaseEvent, models.EventTypeOrderStatusChanged)
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event.EventType, event)
}

// PublishPaymentRecorded publishes PaymentRecorded event
func (ep *EventPublisher) PublishPaymentRecorded(ctx context.Context, event *models.PaymentRecordedEvent) error {
	stamp(&event.BaseEvent, models.EventTypePaymentRecorded)
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event.EventType, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onSaleRecorded  func(context.Context, *models.SaleRecordedEvent) error
	onSaleCorrected func(context.Context, *models.SaleCorrectedEvent) error
	logger          *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnSaleRecorded registers a handler for SaleRecorded events
func (eh *EventHandler) OnSaleRecorded(handler func(context.Context, *models.SaleRecordedEvent) error) {
	eh.onSaleRecorded = handler
}

// OnSaleCorrected registers a handler for SaleCorrected events
func (eh *EventHandler) OnSaleCorrected(handler func(context.Context, *models.SaleCorrectedEvent) error) {
	eh.onSaleCorrected = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeSaleRecorded:
		if eh.onSaleRecorded != nil {
			var event models.SaleRecordedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal SaleRecorded event: %w", err)
			}
			return eh.onSaleRecorded(ctx, &event)
		}

	case models.EventTypeSaleCorrected:
		if eh.onSaleCorrected != nil {
			var event models.SaleCorrectedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal SaleCorrected event: %w", err)
			}
			return eh.onSaleCorrected(ctx, &event)
		}
	}

	return nil
}
