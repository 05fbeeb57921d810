package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Abdu216/Ecommerce-API/internal/apperror"
	"github.com/Abdu216/Ecommerce-API/internal/models"
	"github.com/Abdu216/Ecommerce-API/internal/store"
	"github.com/Abdu216/Ecommerce-API/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// CustomerService manages customer accounts: a login user plus its profile
type CustomerService struct {
	store    store.UnitOfWork
	hashCost int
	logger   *zap.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(store store.UnitOfWork) *CustomerService {
	return &CustomerService{
		store:    store,
		hashCost: bcrypt.DefaultCost,
		logger:   util.GetLogger(),
	}
}

// WithHashCost sets the bcrypt cost, tests use bcrypt.MinCost
func (s *CustomerService) WithHashCost(cost int) *CustomerService {
	s.hashCost = cost
	return s
}

type CreateUserRequest struct {
	Email    string  `json:"email" binding:"required,email,max=255"`
	FullName *string `json:"full_name" binding:"omitempty,max=255"`
	Password string  `json:"password" binding:"required,min=8,max=72"`
}

type CreateCustomerRequest struct {
	User  CreateUserRequest `json:"user" binding:"required"`
	Phone *string           `json:"phone" binding:"omitempty,max=20"`
}

type UpdateUserRequest struct {
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	FullName *string `json:"full_name" binding:"omitempty,max=255"`
	IsActive *bool   `json:"is_active"`
}

type UpdateCustomerRequest struct {
	Phone                    *string            `json:"phone" binding:"omitempty,max=20"`
	DefaultShippingAddressID *int64             `json:"default_shipping_address_id"`
	DefaultBillingAddressID  *int64             `json:"default_billing_address_id"`
	User                     *UpdateUserRequest `json:"user"`
}

// CustomerDetail is a customer profile with its user and addresses
type CustomerDetail struct {
	models.Customer
	User      models.User      `json:"user"`
	Addresses []models.Address `json:"addresses"`
}

// CustomerWithOrders adds the customer's orders, newest first
type CustomerWithOrders struct {
	CustomerDetail
	Orders []models.Order `json:"orders"`
}

// Create registers a user with the customer role and its profile
func (s *CustomerService) Create(ctx context.Context, req *CreateCustomerRequest) (*CustomerDetail, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.Create")
	defer span.End()

	hash, err := hashPassword(req.User.Password, s.hashCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:          strings.TrimSpace(req.User.Email),
		HashedPassword: hash,
		FullName:       req.User.FullName,
		Role:           models.RoleCustomer,
		IsActive:       true,
	}
	customer := &models.Customer{Phone: req.Phone}

	err = s.store.InTx(ctx, func(repo store.Repository) error {
		if err := insertUser(ctx, repo, user); err != nil {
			return err
		}
		customer.UserID = user.ID
		return mapStoreError(repo.CreateCustomer(ctx, customer), "customer")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Customer created",
		zap.Int64("customer_id", customer.ID),
		zap.Int64("user_id", user.ID))
	return &CustomerDetail{Customer: *customer, User: *user, Addresses: []models.Address{}}, nil
}

// List lists customers with their users
func (s *CustomerService) List(ctx context.Context, filter store.CustomerFilter) ([]CustomerDetail, error) {
	customers, err := s.store.ListCustomers(ctx, filter)
	if err != nil {
		return nil, mapStoreError(err, "customers")
	}

	ids := make([]int64, 0, len(customers))
	for _, c := range customers {
		ids = append(ids, c.UserID)
	}
	users, err := s.store.GetUsersByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, mapStoreError(err, "users")
	}

	out := make([]CustomerDetail, 0, len(customers))
	for _, c := range customers {
		detail := CustomerDetail{Customer: c, Addresses: []models.Address{}}
		if u, ok := users[c.UserID]; ok {
			detail.User = *u
		}
		out = append(out, detail)
	}
	return out, nil
}

// Get retrieves a customer with addresses and orders
func (s *CustomerService) Get(ctx context.Context, id int64) (*CustomerWithOrders, error) {
	customer, err := s.store.GetCustomerByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "customer")
	}
	return s.withOrders(ctx, customer)
}

// Me returns the caller's own profile. Only customer accounts have one.
func (s *CustomerService) Me(ctx context.Context, caller *Caller) (*CustomerWithOrders, error) {
	if caller == nil {
		return nil, apperror.Unauthorized("")
	}
	if caller.Role != models.RoleCustomer {
		return nil, apperror.Validation("user is not a customer")
	}
	customer, err := callerCustomer(ctx, s.store, caller)
	if err != nil {
		return nil, err
	}
	return s.withOrders(ctx, customer)
}

func (s *CustomerService) withOrders(ctx context.Context, customer *models.Customer) (*CustomerWithOrders, error) {
	user, err := s.store.GetUserByID(ctx, customer.UserID)
	if err != nil {
		return nil, mapStoreError(err, "user")
	}
	addresses, err := s.store.ListAddressesByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, mapStoreError(err, "addresses")
	}
	orders, _, err := s.store.ListOrders(ctx, store.OrderFilter{CustomerID: &customer.ID})
	if err != nil {
		return nil, mapStoreError(err, "orders")
	}

	return &CustomerWithOrders{
		CustomerDetail: CustomerDetail{Customer: *customer, User: *user, Addresses: addresses},
		Orders:         orders,
	}, nil
}

// Update applies a partial update to the profile and its user. Passwords
// are not changed here.
func (s *CustomerService) Update(ctx context.Context, id int64, req *UpdateCustomerRequest) (*CustomerDetail, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.Update")
	defer span.End()

	var detail *CustomerDetail
	err := s.store.InTx(ctx, func(repo store.Repository) error {
		customer, err := repo.GetCustomerByID(ctx, id)
		if err != nil {
			return mapStoreError(err, "customer")
		}
		user, err := repo.GetUserByID(ctx, customer.UserID)
		if err != nil {
			return mapStoreError(err, "user")
		}

		if req.Phone != nil {
			customer.Phone = req.Phone
		}
		if req.DefaultShippingAddressID != nil {
			if err := checkAddresses(ctx, repo, customer.ID, *req.DefaultShippingAddressID); err != nil {
				return err
			}
			customer.DefaultShippingAddressID = req.DefaultShippingAddressID
		}
		if req.DefaultBillingAddressID != nil {
			if err := checkAddresses(ctx, repo, customer.ID, *req.DefaultBillingAddressID); err != nil {
				return err
			}
			customer.DefaultBillingAddressID = req.DefaultBillingAddressID
		}
		if err := repo.UpdateCustomer(ctx, customer); err != nil {
			return mapStoreError(err, "customer")
		}

		if u := req.User; u != nil {
			if u.Email != nil {
				user.Email = strings.TrimSpace(*u.Email)
			}
			if u.FullName != nil {
				user.FullName = u.FullName
			}
			if u.IsActive != nil {
				user.IsActive = *u.IsActive
			}
			if err := repo.UpdateUser(ctx, user); err != nil {
				if errors.Is(err, store.ErrDuplicate) {
					return apperror.Conflict("email already registered").WithDetail("email", user.Email)
				}
				return mapStoreError(err, "user")
			}
		}

		addresses, err := repo.ListAddressesByCustomer(ctx, customer.ID)
		if err != nil {
			return mapStoreError(err, "addresses")
		}
		detail = &CustomerDetail{Customer: *customer, User: *user, Addresses: addresses}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Customer updated", zap.Int64("customer_id", id))
	return detail, nil
}

// Delete removes a customer with its addresses and user. Customers with
// orders cannot be deleted.
func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "CustomerService.Delete")
	defer span.End()

	err := s.store.InTx(ctx, func(repo store.Repository) error {
		customer, err := repo.GetCustomerByID(ctx, id)
		if err != nil {
			return mapStoreError(err, "customer")
		}

		orders, err := repo.CountOrdersByCustomer(ctx, id)
		if err != nil {
			return mapStoreError(err, "orders")
		}
		if orders > 0 {
			return apperror.Conflict("customer has orders and cannot be deleted").
				WithDetail("orders", fmt.Sprintf("%d", orders))
		}

		if err := repo.DeleteAddressesByCustomer(ctx, id); err != nil {
			return mapStoreError(err, "addresses")
		}
		if err := repo.DeleteCustomer(ctx, id); err != nil {
			return mapStoreError(err, "customer")
		}
		return mapStoreError(repo.DeleteUser(ctx, customer.UserID), "user")
	})
	if err != nil {
		return err
	}

	s.logger.Info("Customer deleted", zap.Int64("customer_id", id))
	return nil
}
