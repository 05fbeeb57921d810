package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Abdu216/Ecommerce-API/internal/models"
	"github.com/Abdu216/Ecommerce-API/internal/store/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fixture is a memstore seeded with one staff user, one customer with an
// address, and one product with 100 units in stock.
type fixture struct {
	store     *memstore.Store
	events    *recordingPublisher
	staff     *Caller
	caller    *Caller
	customer  *models.Customer
	address   *models.Address
	category  *models.Category
	product   *models.Product
	inventory *models.Inventory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()

	staffUser := &models.User{Email: "staff@example.com", HashedPassword: "x", Role: models.RoleStaff, IsActive: true}
	require.NoError(t, st.CreateUser(ctx, staffUser))

	f := &fixture{
		store:  st,
		events: &recordingPublisher{},
		staff:  &Caller{UserID: staffUser.ID, Email: staffUser.Email, Role: models.RoleStaff},
	}
	f.caller, f.customer, f.address = f.addCustomer(t, "alice@example.com")

	f.category = &models.Category{Name: "Books"}
	require.NoError(t, st.CreateCategory(ctx, f.category))

	f.product = f.addProduct(t, f.category.ID, "25.00")
	f.inventory = &models.Inventory{ProductID: f.product.ID, Quantity: 100, InitialQuantity: 100, LowStockThreshold: 10}
	require.NoError(t, st.CreateInventory(ctx, f.inventory))
	return f
}

func (f *fixture) addCustomer(t *testing.T, email string) (*Caller, *models.Customer, *models.Address) {
	t.Helper()
	ctx := context.Background()

	user := &models.User{Email: email, HashedPassword: "x", Role: models.RoleCustomer, IsActive: true}
	require.NoError(t, f.store.CreateUser(ctx, user))
	customer := &models.Customer{UserID: user.ID}
	require.NoError(t, f.store.CreateCustomer(ctx, customer))
	address := &models.Address{
		CustomerID:    customer.ID,
		StreetAddress: "1 Main St",
		City:          "Springfield",
		PostalCode:    "12345",
		Country:       "US",
	}
	require.NoError(t, f.store.CreateAddress(ctx, address))

	return &Caller{UserID: user.ID, Email: email, Role: models.RoleCustomer}, customer, address
}

func (f *fixture) addProduct(t *testing.T, categoryID int64, price string) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:       fmt.Sprintf("Product %d", time.Now().UnixNano()),
		Price:      decimal.RequireFromString(price),
		CategoryID: categoryID,
		IsActive:   true,
	}
	require.NoError(t, f.store.CreateProduct(context.Background(), p))
	return p
}

func (f *fixture) addStock(t *testing.T, productID int64, qty int) *models.Inventory {
	t.Helper()
	inv := &models.Inventory{ProductID: productID, Quantity: qty, InitialQuantity: qty, LowStockThreshold: 10}
	require.NoError(t, f.store.CreateInventory(context.Background(), inv))
	return inv
}

// newOrder creates an empty pending order for the fixture customer
func (f *fixture) newOrder(t *testing.T, shipping, tax string) *models.Order {
	t.Helper()
	o := &models.Order{
		CustomerID:        f.customer.ID,
		Status:            models.OrderStatusPending,
		ShippingAddressID: f.address.ID,
		BillingAddressID:  f.address.ID,
		ShippingCost:      decimal.RequireFromString(shipping),
		Tax:               decimal.RequireFromString(tax),
	}
	o.RecomputeTotal()
	require.NoError(t, f.store.CreateOrder(context.Background(), o))
	return o
}

func (f *fixture) sales() *SalesService {
	return NewSalesService(f.store, f.events, nil)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// recordingPublisher collects every published event
type recordingPublisher struct {
	mu            sync.Mutex
	sales         []*models.SaleRecordedEvent
	corrections   []*models.SaleCorrectedEvent
	adjustments   []*models.InventoryAdjustedEvent
	lowStock      []*models.LowStockEvent
	ordersCreated []*models.OrderCreatedEvent
	statusChanges []*models.OrderStatusChangedEvent
	payments      []*models.PaymentRecordedEvent
	fail          error
}

func (p *recordingPublisher) PublishSaleRecorded(_ context.Context, e *models.SaleRecordedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sales = append(p.sales, e)
	return p.fail
}

func (p *recordingPublisher) PublishSaleCorrected(_ context.Context, e *models.SaleCorrectedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.corrections = append(p.corrections, e)
	return p.fail
}

func (p *recordingPublisher) PublishInventoryAdjusted(_ context.Context, e *models.InventoryAdjustedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.adjustments = append(p.adjustments, e)
	return p.fail
}

func (p *recordingPublisher) PublishLowStock(_ context.Context, e *models.LowStockEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lowStock = append(p.lowStock, e)
	return p.fail
}

func (p *recordingPublisher) PublishOrderCreated(_ context.Context, e *models.OrderCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ordersCreated = append(p.ordersCreated, e)
	return p.fail
}

func (p *recordingPublisher) PublishOrderStatusChanged(_ context.Context, e *models.OrderStatusChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statusChanges = append(p.statusChanges, e)
	return p.fail
}

func (p *recordingPublisher) PublishPaymentRecorded(_ context.Context, e *models.PaymentRecordedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payments = append(p.payments, e)
	return p.fail
}

// memoryIdempotency is an in-process IdempotencyStore
type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]int64
	err  error
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{keys: map[string]int64{}}
}

func (m *memoryIdempotency) Claim(_ context.Context, scope, key string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, false, m.err
	}
	id, ok := m.keys[scope+":"+key]
	if ok {
		return id, false, nil
	}
	m.keys[scope+":"+key] = 0
	return 0, true, nil
}

func (m *memoryIdempotency) Complete(_ context.Context, scope, key string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[scope+":"+key] = id
	return nil
}

func (m *memoryIdempotency) Release(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, scope+":"+key)
	return nil
}

// memoryCache is a Cache that keeps values as-is
type memoryCache struct {
	mu     sync.Mutex
	values map[string]interface{}
	sets   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]interface{}{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return false, nil
	}
	switch d := dest.(type) {
	case *RevenueReport:
		*d = *(v.(*RevenueReport))
	case *[]CategoryRevenue:
		*d = v.([]CategoryRevenue)
	default:
		return false, fmt.Errorf("unsupported cache type %T", dest)
	}
	return true, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	c.sets++
	return nil
}
