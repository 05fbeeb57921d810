package service

import (
	"context"
	"fmt"

	"github.com/Abdu216/Ecommerce-API/internal/apperror"
	"github.com/Abdu216/Ecommerce-API/internal/models"
	"github.com/Abdu216/Ecommerce-API/internal/store"
	"github.com/Abdu216/Ecommerce-API/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentService records payments against orders
type PaymentService struct {
	store          store.UnitOfWork
	eventPublisher EventPublisher
	logger         *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(store store.UnitOfWork, eventPublisher EventPublisher) *PaymentService {
	if eventPublisher == nil {
		eventPublisher = NoopPublisher{}
	}
	return &PaymentService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

type RecordPaymentRequest struct {
	Amount        decimal.Decimal      `json:"amount"`
	PaymentMethod string               `json:"payment_method" binding:"required,min=1,max=50"`
	Status        models.PaymentStatus `json:"status"`
	TransactionID *string              `json:"transaction_id" binding:"omitempty,max=100"`
}

type UpdatePaymentRequest struct {
	Status models.PaymentStatus `json:"status" binding:"required"`
}

// PaymentResult is a payment plus the order's payment state after it
type PaymentResult struct {
	models.Payment
	OrderPaymentStatus models.PaymentStatus `json:"order_payment_status"`
}

// RecordPayment stores a payment for an order
func (ps *PaymentService) RecordPayment(ctx context.Context, orderID int64, req *RecordPaymentRequest) (*PaymentResult, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.RecordPayment")
	defer span.End()

	if !req.Amount.IsPositive() {
		return nil, apperror.Validation("amount must be greater than 0")
	}
	status := req.Status
	if status == "" {
		status = models.PaymentStatusPending
	}
	if !status.ValidForPayment() {
		return nil, apperror.Validation(fmt.Sprintf("unknown payment status %q", status))
	}

	payment := &models.Payment{
		OrderID:       orderID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Status:        status,
		TransactionID: req.TransactionID,
	}
	if payment.TransactionID == nil || *payment.TransactionID == "" {
		txID := fmt.Sprintf("TXN-%s", uuid.New().String()[:8])
		payment.TransactionID = &txID
	}

	var result *PaymentResult
	err := ps.store.InTx(ctx, func(repo store.Repository) error {
		order, err := repo.LockOrder(ctx, orderID)
		if err != nil {
			return mapStoreError(err, "order")
		}
		if err := repo.CreatePayment(ctx, payment); err != nil {
			return mapStoreError(err, "payment")
		}
		result, err = paymentResult(ctx, repo, order, payment)
		return err
	})
	if err != nil {
		return nil, err
	}

	util.PaymentsRecordedTotal.WithLabelValues(string(payment.Status)).Inc()
	ps.logger.Info("Payment recorded",
		zap.Int64("order_id", orderID),
		zap.Int64("payment_id", payment.ID),
		zap.String("status", string(payment.Status)),
		zap.String("tx_id", *payment.TransactionID))

	ps.publish(ctx, payment)
	return result, nil
}

// UpdatePaymentStatus changes the status of a payment of orderID
func (ps *PaymentService) UpdatePaymentStatus(ctx context.Context, orderID, paymentID int64, req *UpdatePaymentRequest) (*PaymentResult, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.UpdatePaymentStatus")
	defer span.End()

	if !req.Status.ValidForPayment() {
		return nil, apperror.Validation(fmt.Sprintf("unknown payment status %q", req.Status))
	}

	var (
		result  *PaymentResult
		payment *models.Payment
	)
	err := ps.store.InTx(ctx, func(repo store.Repository) error {
		order, err := repo.LockOrder(ctx, orderID)
		if err != nil {
			return mapStoreError(err, "order")
		}
		payment, err = repo.GetPayment(ctx, paymentID)
		if err != nil {
			return mapStoreError(err, "payment")
		}
		if payment.OrderID != orderID {
			return apperror.NotFound("payment")
		}

		if err := repo.UpdatePaymentStatus(ctx, paymentID, req.Status); err != nil {
			return mapStoreError(err, "payment")
		}
		payment.Status = req.Status
		result, err = paymentResult(ctx, repo, order, payment)
		return err
	})
	if err != nil {
		return nil, err
	}

	util.PaymentsRecordedTotal.WithLabelValues(string(payment.Status)).Inc()
	ps.logger.Info("Payment status updated",
		zap.Int64("order_id", orderID),
		zap.Int64("payment_id", paymentID),
		zap.String("status", string(payment.Status)))

	ps.publish(ctx, payment)
	return result, nil
}

// ListPayments lists the payments of an order visible to the caller
func (ps *PaymentService) ListPayments(ctx context.Context, caller *Caller, orderID int64) ([]models.Payment, error) {
	order, err := ps.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, mapStoreError(err, "order")
	}
	if err := authorizeCustomer(ctx, ps.store, caller, order.CustomerID); err != nil {
		return nil, err
	}
	payments, err := ps.store.ListPayments(ctx, orderID)
	return payments, mapStoreError(err, "payments")
}

func paymentResult(ctx context.Context, repo store.Repository, order *models.Order, payment *models.Payment) (*PaymentResult, error) {
	payments, err := repo.ListPayments(ctx, order.ID)
	if err != nil {
		return nil, mapStoreError(err, "payments")
	}
	return &PaymentResult{
		Payment:            *payment,
		OrderPaymentStatus: models.DerivePaymentStatus(order.Total, payments),
	}, nil
}

func (ps *PaymentService) publish(ctx context.Context, payment *models.Payment) {
	event := &models.PaymentRecordedEvent{
		OrderID:   payment.OrderID,
		PaymentID: payment.ID,
		Amount:    payment.Amount,
		Status:    payment.Status,
	}
	if err := ps.eventPublisher.PublishPaymentRecorded(ctx, event); err != nil {
		util.EventsPublishFailed.WithLabelValues(models.EventTypePaymentRecorded).Inc()
		ps.logger.Error("Failed to publish PaymentRecorded event", zap.Error(err))
	}
}
