package worker

import (
	"context"

	"github.com/Abdu216/Ecommerce-API/internal/broker"
	"github.com/Abdu216/Ecommerce-API/internal/models"
	"github.com/Abdu216/Ecommerce-API/internal/util"

	"go.uber.org/zap"
)

// MessageSource delivers broker messages to a handler until ctx ends
type MessageSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// CacheInvalidator drops every cached analytics result
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// AnalyticsWorker invalidates cached revenue reports whenever a sale is
// recorded or corrected, on any instance of the service.
type AnalyticsWorker struct {
	consumer     MessageSource
	eventHandler *broker.EventHandler
	cache        CacheInvalidator
	logger       *zap.Logger
}

// NewAnalyticsWorker creates a new analytics worker
func NewAnalyticsWorker(consumer MessageSource, cache CacheInvalidator) *AnalyticsWorker {
	w := &AnalyticsWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		cache:        cache,
		logger:       util.GetLogger(),
	}

	w.eventHandler.OnSaleRecorded(w.handleSaleRecorded)
	w.eventHandler.OnSaleCorrected(w.handleSaleCorrected)
	return w
}

// Start consumes until ctx is cancelled
func (w *AnalyticsWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting analytics worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *AnalyticsWorker) Stop() error {
	w.logger.Info("Stopping analytics worker")
	return w.consumer.Close()
}

func (w *AnalyticsWorker) handleSaleRecorded(ctx context.Context, event *models.SaleRecordedEvent) error {
	w.logger.Debug("Sale recorded, invalidating analytics",
		zap.Int64("sale_id", event.SaleID),
		zap.String("event_id", event.EventID))
	return w.invalidate(ctx)
}

func (w *AnalyticsWorker) handleSaleCorrected(ctx context.Context, event *models.SaleCorrectedEvent) error {
	w.logger.Debug("Sale corrected, invalidating analytics",
		zap.Int64("sale_id", event.SaleID),
		zap.String("event_id", event.EventID))
	return w.invalidate(ctx)
}

// invalidate returns the error so the consumer retries the message
func (w *AnalyticsWorker) invalidate(ctx context.Context) error {
	if err := w.cache.Invalidate(ctx); err != nil {
		w.logger.Error("Failed to invalidate analytics cache", zap.Error(err))
		return err
	}
	util.AnalyticsInvalidationsTotal.Inc()
	return nil
}
