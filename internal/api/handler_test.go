package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Abdu216/Ecommerce-API/config"
	"github.com/Abdu216/Ecommerce-API/internal/models"
	"github.com/Abdu216/Ecommerce-API/internal/service"
	"github.com/Abdu216/Ecommerce-API/internal/store"
	"github.com/Abdu216/Ecommerce-API/internal/store/memstore"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type testServer struct {
	router    *gin.Engine
	handler   *Handler
	store     *memstore.Store
	admin     string
	staff     string
	customer  string
	userID    int64
	custID    int64
	addressID int64
	productID int64
	invID     int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	st := memstore.New()

	staffUser := &models.User{Email: "staff@example.com", HashedPassword: "x", Role: models.RoleStaff, IsActive: true}
	require.NoError(t, st.CreateUser(ctx, staffUser))
	adminUser := &models.User{Email: "admin@example.com", HashedPassword: "x", Role: models.RoleAdmin, IsActive: true}
	require.NoError(t, st.CreateUser(ctx, adminUser))
	user := &models.User{Email: "alice@example.com", HashedPassword: "x", Role: models.RoleCustomer, IsActive: true}
	require.NoError(t, st.CreateUser(ctx, user))
	customer := &models.Customer{UserID: user.ID}
	require.NoError(t, st.CreateCustomer(ctx, customer))
	address := &models.Address{CustomerID: customer.ID, StreetAddress: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}
	require.NoError(t, st.CreateAddress(ctx, address))
	category := &models.Category{Name: "Books"}
	require.NoError(t, st.CreateCategory(ctx, category))
	product := &models.Product{Name: "Go in Action", Price: decimal.RequireFromString("25.00"), CategoryID: category.ID, IsActive: true}
	require.NoError(t, st.CreateProduct(ctx, product))
	inv := &models.Inventory{ProductID: product.ID, Quantity: 100, InitialQuantity: 100, LowStockThreshold: 10}
	require.NoError(t, st.CreateInventory(ctx, inv))

	pub := service.NoopPublisher{}
	h := NewHandler(Services{
		Catalog:   service.NewCatalogService(st),
		Inventory: service.NewInventoryService(st, pub),
		Orders:    service.NewOrderService(st, pub),
		Payments:  service.NewPaymentService(st, pub),
		Sales:     service.NewSalesService(st, pub, newKeyStore()),
		Analytics: service.NewAnalyticsService(st, service.NoopCache{}),
		Customers: service.NewCustomerService(st).WithHashCost(bcrypt.MinCost),
		Addresses: service.NewAddressService(st),
		Reviews:   service.NewReviewService(st),
		Accounts:  service.NewAccountService(st).WithHashCost(bcrypt.MinCost),
	}, NewAuthenticator(testSecret, "", service.NewIdentityService(st)), config.BusinessConfig{
		DefaultPageLimit: 100,
		MaxPageLimit:     1000,
	})

	router := gin.New()
	h.SetupRoutes(router)

	return &testServer{
		router:    router,
		handler:   h,
		store:     st,
		admin:     mint(t, adminUser.ID, time.Hour),
		staff:     mint(t, staffUser.ID, time.Hour),
		customer:  mint(t, user.ID, time.Hour),
		userID:    user.ID,
		custID:    customer.ID,
		addressID: address.ID,
		productID: product.ID,
		invID:     inv.ID,
	}
}

func mint(t *testing.T, userID int64, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	decode(t, w, &body)
	return body
}

// createOrder places an order for the seeded customer as staff
func (s *testServer) createOrder(t *testing.T) int64 {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/orders", s.staff, map[string]interface{}{
		"customer_id":         s.custID,
		"items":               []map[string]interface{}{{"product_id": s.productID, "quantity": 1}},
		"shipping_address_id": s.addressID,
		"billing_address_id":  s.addressID,
		"shipping_cost":       "5.00",
		"tax":                 "1.25",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order struct {
		ID int64 `json:"id"`
	}
	decode(t, w, &order)
	return order.ID
}

func (s *testServer) saleBody(orderID int64, qty int) map[string]interface{} {
	total := decimal.RequireFromString("25.00").Mul(decimal.NewFromInt(int64(qty)))
	return map[string]interface{}{
		"order_id":     orderID,
		"customer_id":  s.custID,
		"product_id":   s.productID,
		"quantity":     qty,
		"unit_price":   "25.00",
		"total_amount": total.String(),
	}
}

// keyStore is an in-process idempotency store
type keyStore struct {
	mu   sync.Mutex
	keys map[string]int64
}

func newKeyStore() *keyStore { return &keyStore{keys: map[string]int64{}} }

func (k *keyStore) Claim(_ context.Context, scope, key string) (int64, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if id, ok := k.keys[scope+":"+key]; ok {
		return id, false, nil
	}
	k.keys[scope+":"+key] = 0
	return 0, true, nil
}

func (k *keyStore) Complete(_ context.Context, scope, key string, id int64) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[scope+":"+key] = id
	return nil
}

func (k *keyStore) Release(_ context.Context, scope, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.keys, scope+":"+key)
	return nil
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealthAndReadiness(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	s.handler.WithReadinessCheck("redis", pinger{err: errors.New("connection refused")})
	w = s.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	wrongKey := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: strconv.FormatInt(s.userID, 10)})
	forged, err := wrongKey.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	otherAlg := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: strconv.FormatInt(s.userID, 10)})
	hs512, err := otherAlg.SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not-a-jwt"},
		{"wrong key", forged},
		{"wrong algorithm", hs512},
		{"expired", mint(t, s.userID, -time.Minute)},
		{"unknown user", mint(t, 9999, time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, "/api/v1/products", tt.token, nil)
			require.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "UNAUTHORIZED", errorOf(t, w).Error.Code)
		})
	}
}

func TestInactiveUserForbidden(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	user, err := s.store.GetUserByID(ctx, s.userID)
	require.NoError(t, err)
	user.IsActive = false
	require.NoError(t, s.store.UpdateUser(ctx, user))

	w := s.do(t, http.MethodGet, "/api/v1/products", s.customer, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "inactive user", errorOf(t, w).Error.Message)
}

func TestStaffOnlyRoutes(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/v1/inventory", "/api/v1/sales", "/api/v1/customers", "/api/v1/analytics/revenue?period=daily"} {
		w := s.do(t, http.MethodGet, path, s.customer, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}

	w := s.do(t, http.MethodPost, "/api/v1/categories", s.customer, map[string]string{"name": "Toys"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/categories", s.staff, map[string]string{"name": "Toys"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/categories", s.customer, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestValidationEnvelope(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/products", s.staff, map[string]interface{}{"price": "3.00"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := errorOf(t, w)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Contains(t, body.Error.Details, "name")
	assert.Contains(t, body.Error.Details, "category_id")

	w = s.do(t, http.MethodPost, "/api/v1/orders", s.customer, map[string]interface{}{
		"customer_id":         s.custID,
		"items":               []map[string]interface{}{{"product_id": s.productID, "quantity": 0}},
		"shipping_address_id": s.addressID,
		"billing_address_id":  s.addressID,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorOf(t, w).Error.Details, "items[0].quantity")

	w = s.do(t, http.MethodGet, "/api/v1/products/abc", s.staff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/products?limit=0", s.staff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordSaleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	orderID := s.createOrder(t)

	w := s.do(t, http.MethodPost, "/api/v1/sales", s.staff, s.saleBody(orderID, 30), "Idempotency-Key", "sale-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sale models.Sale
	decode(t, w, &sale)
	assert.True(t, decimal.RequireFromString("750").Equal(sale.TotalAmount))

	w = s.do(t, http.MethodPost, "/api/v1/sales", s.staff, s.saleBody(orderID, 30), "Idempotency-Key", "sale-1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "true", w.Header().Get("Idempotent-Replayed"))
	var replay models.Sale
	decode(t, w, &replay)
	assert.Equal(t, sale.ID, replay.ID)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/inventory/%d", s.invID), s.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var inv service.InventoryDetail
	decode(t, w, &inv)
	assert.Equal(t, 70, inv.Quantity)
	require.Len(t, inv.History, 1)
	assert.Equal(t, -30, inv.History[0].QuantityChange)
	assert.Equal(t, fmt.Sprintf("sale for order #%d", orderID), inv.History[0].Reason)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/sales?order_id=%d", orderID), s.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sales []models.Sale
	decode(t, w, &sales)
	assert.Len(t, sales, 1)
}

func TestRecordSaleInsufficientStock(t *testing.T) {
	s := newTestServer(t)
	orderID := s.createOrder(t)

	w := s.do(t, http.MethodPost, "/api/v1/sales", s.staff, s.saleBody(orderID, 101))
	require.Equal(t, http.StatusConflict, w.Code)
	body := errorOf(t, w)
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Error.Code)
	assert.Equal(t, "100", body.Error.Details["available"])
	assert.Equal(t, "101", body.Error.Details["requested"])

	inv, err := s.store.GetInventory(context.Background(), s.invID)
	require.NoError(t, err)
	assert.Equal(t, 100, inv.Quantity)
}

func TestRecordSaleRejectsBadAmounts(t *testing.T) {
	s := newTestServer(t)
	orderID := s.createOrder(t)

	missing := s.saleBody(orderID, 2)
	delete(missing, "total_amount")
	w := s.do(t, http.MethodPost, "/api/v1/sales", s.staff, missing)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	body := errorOf(t, w)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Contains(t, body.Error.Details, "total_amount")

	padded := s.saleBody(orderID, 2)
	padded["total_amount"] = "999.00"
	w = s.do(t, http.MethodPost, "/api/v1/sales", s.staff, padded)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "50.00", errorOf(t, w).Error.Details["expected"])

	inv, err := s.store.GetInventory(context.Background(), s.invID)
	require.NoError(t, err)
	assert.Equal(t, 100, inv.Quantity)
}

func TestAdjustInventoryReason(t *testing.T) {
	s := newTestServer(t)
	path := fmt.Sprintf("/api/v1/inventory/%d", s.invID)

	w := s.do(t, http.MethodPut, path, s.staff, map[string]int{"quantity": 90})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, path+"?reason=recount", s.staff, map[string]int{"quantity": 90})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, path+"/history", s.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []models.InventoryHistory
	decode(t, w, &history)
	require.Len(t, history, 1)
	assert.Equal(t, "recount", history[0].Reason)

	w = s.do(t, http.MethodGet, path+"/ledger", s.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var check service.LedgerCheck
	decode(t, w, &check)
	assert.True(t, check.Balanced)
}

func TestListOrdersScopedToCaller(t *testing.T) {
	s := newTestServer(t)
	s.createOrder(t)

	w := s.do(t, http.MethodGet, "/api/v1/orders", s.customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list service.OrderList
	decode(t, w, &list)
	assert.Equal(t, 1, list.Total)

	w = s.do(t, http.MethodGet, "/api/v1/orders?customer_id=9999", s.customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Empty(t, list.Orders)

	w = s.do(t, http.MethodGet, "/api/v1/orders?limit=5000", s.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Equal(t, 1000, list.Size)
}

func TestOrderStatusTransitionOverHTTP(t *testing.T) {
	s := newTestServer(t)
	orderID := s.createOrder(t)
	path := fmt.Sprintf("/api/v1/orders/%d", orderID)

	w := s.do(t, http.MethodPut, path, s.customer, map[string]string{"status": "processing"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, path, s.staff, map[string]string{"status": "delivered"})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", errorOf(t, w).Error.Code)

	w = s.do(t, http.MethodPut, path, s.staff, map[string]string{"status": "processing"})
	require.Equal(t, http.StatusOK, w.Code)
	var detail service.OrderDetail
	decode(t, w, &detail)
	assert.Equal(t, models.OrderStatusProcessing, detail.Status)
}

func TestPaymentsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	orderID := s.createOrder(t)
	path := fmt.Sprintf("/api/v1/orders/%d/payments", orderID)

	w := s.do(t, http.MethodPost, path, s.staff, map[string]string{
		"amount":         "31.25",
		"payment_method": "card",
		"status":         "completed",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var result service.PaymentResult
	decode(t, w, &result)
	assert.Equal(t, models.PaymentStatusCompleted, result.OrderPaymentStatus)

	w = s.do(t, http.MethodGet, path, s.customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var payments []models.Payment
	decode(t, w, &payments)
	assert.Len(t, payments, 1)
}

func TestCustomerSelfService(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/addresses", s.customer, map[string]interface{}{
		"street_address": "2 Side St",
		"city":           "Shelbyville",
		"postal_code":    "54321",
		"country":        "US",
		"is_default":     true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var address models.Address
	decode(t, w, &address)

	w = s.do(t, http.MethodGet, "/api/v1/customers/me", s.customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me service.CustomerWithOrders
	decode(t, w, &me)
	require.NotNil(t, me.DefaultShippingAddressID)
	assert.Equal(t, address.ID, *me.DefaultShippingAddressID)
	assert.Len(t, me.Addresses, 2)

	w = s.do(t, http.MethodGet, "/api/v1/customers/me", s.staff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateCustomerDuplicateEmail(t *testing.T) {
	s := newTestServer(t)

	body := map[string]interface{}{
		"user": map[string]string{"email": "bob@example.com", "password": "long-enough"},
	}
	w := s.do(t, http.MethodPost, "/api/v1/customers", s.staff, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/customers", s.staff, body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/customers", s.staff, map[string]interface{}{
		"user": map[string]string{"email": "not-an-email", "password": "short"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	details := errorOf(t, w).Error.Details
	assert.Contains(t, details, "user.email")
	assert.Contains(t, details, "user.password")
}

func TestReviewsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	path := fmt.Sprintf("/api/v1/products/%d/reviews", s.productID)

	w := s.do(t, http.MethodPost, path, s.customer, map[string]interface{}{"rating": 6})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, path, s.customer, map[string]interface{}{"rating": 5, "comment": "great"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var review models.Review
	decode(t, w, &review)

	w = s.do(t, http.MethodGet, path+"/stats", s.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats service.ReviewStats
	decode(t, w, &stats)
	assert.Equal(t, 1, stats.TotalReviews)
	assert.Equal(t, 1, stats.RatingDistribution[5])

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/reviews/%d", review.ID), s.customer, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAnalyticsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	orderID := s.createOrder(t)
	w := s.do(t, http.MethodPost, "/api/v1/sales", s.staff, s.saleBody(orderID, 2))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/analytics/revenue?period=hourly", s.staff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/analytics/revenue?period=annual", s.staff, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report service.RevenueReport
	decode(t, w, &report)
	assert.Equal(t, int64(1), report.TotalSales)
	assert.True(t, decimal.RequireFromString("50").Equal(report.TotalRevenue))

	w = s.do(t, http.MethodGet, "/api/v1/analytics/revenue/categories", s.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var categories []service.CategoryRevenue
	decode(t, w, &categories)
	require.Len(t, categories, 1)
	assert.True(t, decimal.RequireFromString("100").Equal(categories[0].PercentageOfTotal))

	w = s.do(t, http.MethodGet, "/api/v1/analytics/revenue/categories?start_date=2024-02-01&end_date=2024-01-01", s.staff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/analytics/revenue?period=daily&date=yesterday", s.staff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteProductOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.createOrder(t)

	w := s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/products/%d", s.productID), s.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result service.DeleteProductResult
	decode(t, w, &result)
	assert.True(t, result.Deactivated)

	products, err := s.store.ListProducts(context.Background(), store.ProductFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestRegisterCustomerIsPublic(t *testing.T) {
	s := newTestServer(t)
	body := map[string]interface{}{
		"user":  map[string]string{"email": "carol@example.com", "password": "correct-horse", "full_name": "Carol"},
		"phone": "555-0100",
	}

	w := s.do(t, http.MethodPost, "/api/v1/auth/register/customer", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var detail service.CustomerDetail
	decode(t, w, &detail)
	assert.Equal(t, models.RoleCustomer, detail.User.Role)
	assert.True(t, detail.User.IsActive)

	stored, err := s.store.GetUserByEmail(context.Background(), "carol@example.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.HashedPassword), []byte("correct-horse")))

	// a role in the body is ignored
	body["user"] = map[string]string{"email": "eve@example.com", "password": "correct-horse", "role": "admin"}
	w = s.do(t, http.MethodPost, "/api/v1/auth/register/customer", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &detail)
	assert.Equal(t, models.RoleCustomer, detail.User.Role)

	w = s.do(t, http.MethodPost, "/api/v1/auth/register/customer", "", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/register/customer", "", map[string]interface{}{"user": map[string]string{"email": "nope"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorOf(t, w).Error.Details, "user.password")
}

func TestRegisterStaffAdminOnly(t *testing.T) {
	s := newTestServer(t)
	body := map[string]string{"email": "clerk@example.com", "password": "correct-horse"}

	w := s.do(t, http.MethodPost, "/api/v1/auth/register/staff", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	for _, token := range []string{s.customer, s.staff} {
		w = s.do(t, http.MethodPost, "/api/v1/auth/register/staff", token, body)
		assert.Equal(t, http.StatusForbidden, w.Code)
	}

	w = s.do(t, http.MethodPost, "/api/v1/auth/register/staff", s.admin, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var user models.User
	decode(t, w, &user)
	assert.Equal(t, models.RoleStaff, user.Role)

	// the new account can use staff routes straight away
	w = s.do(t, http.MethodGet, "/api/v1/customers", mint(t, user.ID, time.Hour), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/register/staff", s.admin, body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/register/staff", s.admin,
		map[string]string{"email": "boss@example.com", "password": "correct-horse", "role": "customer"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorOf(t, w).Error.Details, "role")
}
