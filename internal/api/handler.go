package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Abdu216/Ecommerce-API/config"
	"github.com/Abdu216/Ecommerce-API/internal/service"
	"github.com/Abdu216/Ecommerce-API/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services groups the business services served over HTTP
type Services struct {
	Catalog   *service.CatalogService
	Inventory *service.InventoryService
	Orders    *service.OrderService
	Payments  *service.PaymentService
	Sales     *service.SalesService
	Analytics *service.AnalyticsService
	Customers *service.CustomerService
	Addresses *service.AddressService
	Reviews   *service.ReviewService
	Accounts  *service.AccountService
}

// Pinger is a dependency checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	catalogService   *service.CatalogService
	inventoryService *service.InventoryService
	orderService     *service.OrderService
	paymentService   *service.PaymentService
	salesService     *service.SalesService
	analyticsService *service.AnalyticsService
	customerService  *service.CustomerService
	addressService   *service.AddressService
	reviewService    *service.ReviewService
	accountService   *service.AccountService

	auth         *Authenticator
	checks       map[string]Pinger
	defaultLimit int
	maxLimit     int
	logger       *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services, auth *Authenticator, business config.BusinessConfig) *Handler {
	h := &Handler{
		catalogService:   services.Catalog,
		inventoryService: services.Inventory,
		orderService:     services.Orders,
		paymentService:   services.Payments,
		salesService:     services.Sales,
		analyticsService: services.Analytics,
		customerService:  services.Customers,
		addressService:   services.Addresses,
		reviewService:    services.Reviews,
		accountService:   services.Accounts,
		auth:             auth,
		checks:           map[string]Pinger{},
		defaultLimit:     business.DefaultPageLimit,
		maxLimit:         business.MaxPageLimit,
		logger:           util.GetLogger(),
	}
	if h.defaultLimit <= 0 {
		h.defaultLimit = 100
	}
	if h.maxLimit < h.defaultLimit {
		h.maxLimit = h.defaultLimit
	}
	return h
}

// WithReadinessCheck adds a dependency to the /ready probe
func (h *Handler) WithReadinessCheck(name string, p Pinger) *Handler {
	h.checks[name] = p
	return h
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	staff := RequireStaff()

	// registration is the only unauthenticated write
	register := router.Group("/api/v1/auth/register")
	{
		register.POST("/customer", h.registerCustomer)
		register.POST("/staff", h.auth.RequireAuth(), h.registerStaff)
	}

	v1 := router.Group("/api/v1", h.auth.RequireAuth())
	{
		v1.GET("/categories", h.listCategories)
		v1.GET("/categories/:id", h.getCategory)
		v1.POST("/categories", staff, h.createCategory)
		v1.PUT("/categories/:id", staff, h.updateCategory)

		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.POST("/products", staff, h.createProduct)
		v1.PUT("/products/:id", staff, h.updateProduct)
		v1.DELETE("/products/:id", staff, h.deleteProduct)
		v1.GET("/products/:id/inventory", staff, h.getProductInventory)
		v1.GET("/products/:id/reviews", h.listReviews)
		v1.POST("/products/:id/reviews", h.createReview)
		v1.GET("/products/:id/reviews/stats", h.reviewStats)
		v1.DELETE("/reviews/:id", h.deleteReview)

		inventory := v1.Group("/inventory", staff)
		inventory.POST("", h.createInventory)
		inventory.GET("", h.listInventory)
		inventory.GET("/:id", h.getInventory)
		inventory.PUT("/:id", h.adjustInventory)
		inventory.GET("/:id/history", h.inventoryHistory)
		inventory.GET("/:id/ledger", h.verifyLedger)

		v1.POST("/orders", h.createOrder)
		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/:id", h.getOrder)
		v1.PUT("/orders/:id", staff, h.updateOrder)
		v1.DELETE("/orders/:id", staff, h.deleteOrder)
		v1.GET("/orders/:id/payments", h.listPayments)
		v1.POST("/orders/:id/payments", staff, h.recordPayment)
		v1.PUT("/orders/:id/payments/:payment_id", staff, h.updatePayment)

		sales := v1.Group("/sales", staff)
		sales.POST("", h.recordSale)
		sales.GET("", h.listSales)
		sales.GET("/:id", h.getSale)
		sales.PUT("/:id", h.updateSale)

		v1.GET("/customers/me", h.me)
		v1.POST("/customers", staff, h.createCustomer)
		v1.GET("/customers", staff, h.listCustomers)
		v1.GET("/customers/:id", staff, h.getCustomer)
		v1.PUT("/customers/:id", staff, h.updateCustomer)
		v1.DELETE("/customers/:id", staff, h.deleteCustomer)

		v1.POST("/addresses", h.createAddress)
		v1.GET("/addresses", h.listAddresses)
		v1.GET("/addresses/:id", h.getAddress)
		v1.PUT("/addresses/:id", h.updateAddress)
		v1.DELETE("/addresses/:id", h.deleteAddress)

		analytics := v1.Group("/analytics", staff)
		analytics.GET("/revenue", h.revenue)
		analytics.GET("/revenue/comparison", h.compareRevenue)
		analytics.GET("/revenue/categories", h.categoryRevenue)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready only when every dependency answers
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := gin.H{}
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	c.JSON(status, gin.H{
		"status":       state,
		"dependencies": deps,
		"time":         time.Now().Unix(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
