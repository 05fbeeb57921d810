package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdu216/Ecommerce-API/internal/apperror"
	"github.com/Abdu216/Ecommerce-API/internal/models"
	"github.com/Abdu216/Ecommerce-API/internal/store"
)

// EventPublisher publishes domain events after their transaction commits.
// broker.EventPublisher is the Kafka implementation.
type EventPublisher interface {
	PublishSaleRecorded(ctx context.Context, event *models.SaleRecordedEvent) error
	PublishSaleCorrected(ctx context.Context, event *models.SaleCorrectedEvent) error
	PublishInventoryAdjusted(ctx context.Context, event *models.InventoryAdjustedEvent) error
	PublishLowStock(ctx context.Context, event *models.LowStockEvent) error
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
	PublishPaymentRecorded(ctx context.Context, event *models.PaymentRecordedEvent) error
}

// Cache holds computed analytics results
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}

// IdempotencyStore remembers which resource a client key created
type IdempotencyStore interface {
	Claim(ctx context.Context, scope, key string) (existingID int64, claimed bool, err error)
	Complete(ctx context.Context, scope, key string, id int64) error
	Release(ctx context.Context, scope, key string) error
}

// NoopPublisher drops every event
type NoopPublisher struct{}

func (NoopPublisher) PublishSaleRecorded(context.Context, *models.SaleRecordedEvent) error {
	return nil
}

func (NoopPublisher) PublishSaleCorrected(context.Context, *models.SaleCorrectedEvent) error {
	return nil
}

func (NoopPublisher) PublishInventoryAdjusted(context.Context, *models.InventoryAdjustedEvent) error {
	return nil
}

func (NoopPublisher) PublishLowStock(context.Context, *models.LowStockEvent) error {
	return nil
}

func (NoopPublisher) PublishOrderCreated(context.Context, *models.OrderCreatedEvent) error {
	return nil
}

func (NoopPublisher) PublishOrderStatusChanged(context.Context, *models.OrderStatusChangedEvent) error {
	return nil
}

func (NoopPublisher) PublishPaymentRecorded(context.Context, *models.PaymentRecordedEvent) error {
	return nil
}

// NoopCache never holds anything
type NoopCache struct{}

func (NoopCache) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (NoopCache) Set(context.Context, string, interface{}) error { return nil }

// Caller is the authenticated identity behind a request
type Caller struct {
	UserID int64
	Email  string
	Role   models.Role
}

// IsStaff reports whether the caller may use staff-only operations
func (c *Caller) IsStaff() bool {
	return c != nil && c.Role.IsStaff()
}

// Clock returns the current time
type Clock func() time.Time

func defaultClock() time.Time { return time.Now().UTC() }

// mapStoreError turns store sentinels into API errors for resource
func mapStoreError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperror.NotFound(resource).Wrap(err)
	case errors.Is(err, store.ErrDuplicate):
		return apperror.Conflict(fmt.Sprintf("%s already exists", resource)).Wrap(err)
	case errors.Is(err, store.ErrReferenced):
		return apperror.Conflict(fmt.Sprintf("%s is referenced by other records", resource)).Wrap(err)
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	return fmt.Errorf("%s: %w", resource, err)
}

// callerCustomer loads the customer profile of the caller
func callerCustomer(ctx context.Context, repo store.Repository, caller *Caller) (*models.Customer, error) {
	if caller == nil {
		return nil, apperror.Unauthorized("")
	}
	customer, err := repo.GetCustomerByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, mapStoreError(err, "customer profile")
	}
	return customer, nil
}

// authorizeCustomer allows staff, or the user owning customerID
func authorizeCustomer(ctx context.Context, repo store.Repository, caller *Caller, customerID int64) error {
	if caller == nil {
		return apperror.Unauthorized("")
	}
	if caller.IsStaff() {
		return nil
	}
	customer, err := repo.GetCustomerByUserID(ctx, caller.UserID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && customer.ID != customerID) {
		return apperror.Forbidden("not enough permissions")
	}
	return mapStoreError(err, "customer profile")
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
