package store

import (
	"context"
	"errors"
	"time"

	"github.com/Abdu216/Ecommerce-API/internal/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicate         = errors.New("already exists")
	ErrReferenced        = errors.New("still referenced")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Page is a skip/limit window
type Page struct {
	Skip  int
	Limit int
}

// TimeRange bounds a sale_date query. End is exclusive unless IncludeEnd is set.
type TimeRange struct {
	Start      time.Time
	End        time.Time
	IncludeEnd bool
}

// Contains reports whether t falls in the range
func (r TimeRange) Contains(t time.Time) bool {
	if t.Before(r.Start) {
		return false
	}
	if r.IncludeEnd {
		return !t.After(r.End)
	}
	return t.Before(r.End)
}

type CategoryFilter struct {
	Search string
	Page
}

type ProductFilter struct {
	CategoryID *int64
	Search     string
	ActiveOnly bool
	Page
}

type CustomerFilter struct {
	Search string
	Page
}

type InventoryFilter struct {
	LowStock bool
	Page
}

type OrderFilter struct {
	CustomerID *int64
	Status     *models.OrderStatus
	Page
}

type SaleFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	ProductID  *int64
	CategoryID *int64
	CustomerID *int64
	OrderID    *int64
	Page
}

// RatingBucket is the review count for one star rating
type RatingBucket struct {
	Rating   int `db:"rating"`
	Count    int `db:"count"`
	Verified int `db:"verified"`
}

// Repository is every query and mutation the services need. Implementations
// must give the same semantics whether called directly or inside InTx.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error

	CreateCustomer(ctx context.Context, customer *models.Customer) error
	GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error)
	GetCustomerByUserID(ctx context.Context, userID int64) (*models.Customer, error)
	ListCustomers(ctx context.Context, filter CustomerFilter) ([]models.Customer, error)
	UpdateCustomer(ctx context.Context, customer *models.Customer) error
	DeleteCustomer(ctx context.Context, id int64) error

	CreateAddress(ctx context.Context, address *models.Address) error
	GetAddress(ctx context.Context, id int64) (*models.Address, error)
	ListAddressesByCustomer(ctx context.Context, customerID int64) ([]models.Address, error)
	UpdateAddress(ctx context.Context, address *models.Address) error
	DeleteAddress(ctx context.Context, id int64) error
	DeleteAddressesByCustomer(ctx context.Context, customerID int64) error

	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	ListCategories(ctx context.Context, filter CategoryFilter) ([]models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) error

	CreateProduct(ctx context.Context, product *models.Product) error
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) (map[int64]*models.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	IsProductReferenced(ctx context.Context, id int64) (bool, error)

	CreateInventory(ctx context.Context, inv *models.Inventory) error
	GetInventory(ctx context.Context, id int64) (*models.Inventory, error)
	GetInventoryByProduct(ctx context.Context, productID int64) (*models.Inventory, error)
	LockInventory(ctx context.Context, id int64) (*models.Inventory, error)
	LockInventoryByProduct(ctx context.Context, productID int64) (*models.Inventory, error)
	ListInventory(ctx context.Context, filter InventoryFilter) ([]models.Inventory, error)
	UpdateInventory(ctx context.Context, inv *models.Inventory) error
	DecrementStock(ctx context.Context, productID int64, quantity int) (*models.Inventory, error)
	DeleteInventoryByProduct(ctx context.Context, productID int64) error
	AppendInventoryHistory(ctx context.Context, entry *models.InventoryHistory) error
	ListInventoryHistory(ctx context.Context, inventoryID int64, page Page) ([]models.InventoryHistory, error)
	SumInventoryHistory(ctx context.Context, inventoryID int64) (int, error)

	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	LockOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, int, error)
	CountOrdersByCustomer(ctx context.Context, customerID int64) (int, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
	DeleteOrder(ctx context.Context, id int64) error

	CreateOrderItem(ctx context.Context, item *models.OrderItem) error
	GetOrderItem(ctx context.Context, orderID, productID int64) (*models.OrderItem, error)
	ListOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	UpdateOrderItem(ctx context.Context, item *models.OrderItem) error
	DeleteOrderItems(ctx context.Context, orderID int64) error

	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, id int64) (*models.Payment, error)
	ListPayments(ctx context.Context, orderID int64) ([]models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus) error
	DeletePayments(ctx context.Context, orderID int64) error

	CreateSale(ctx context.Context, sale *models.Sale) error
	GetSale(ctx context.Context, id int64) (*models.Sale, error)
	ListSales(ctx context.Context, filter SaleFilter) ([]models.Sale, error)
	UpdateSale(ctx context.Context, sale *models.Sale) error
	CountSalesByOrder(ctx context.Context, orderID int64) (int, error)
	HasPurchased(ctx context.Context, customerID, productID int64) (bool, error)

	RevenueInRange(ctx context.Context, r TimeRange) (models.RevenueTotals, error)
	CategoryRevenue(ctx context.Context, r TimeRange) ([]models.CategoryRevenueRow, error)

	CreateReview(ctx context.Context, review *models.Review) error
	GetReview(ctx context.Context, id int64) (*models.Review, error)
	ListReviews(ctx context.Context, productID int64, page Page) ([]models.Review, error)
	ReviewRatings(ctx context.Context, productID int64) ([]RatingBucket, error)
	DeleteReview(ctx context.Context, id int64) error
}

// UnitOfWork is a Repository that can also run fn inside a single
// transaction. fn's error rolls the whole transaction back.
type UnitOfWork interface {
	Repository
	InTx(ctx context.Context, fn func(repo Repository) error) error
}
