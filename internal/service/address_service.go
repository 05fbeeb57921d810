package service

import (
	"context"
	"errors"

	"github.com/Abdu216/Ecommerce-API/internal/apperror"
	"github.com/Abdu216/Ecommerce-API/internal/models"
	"github.com/Abdu216/Ecommerce-API/internal/store"
	"github.com/Abdu216/Ecommerce-API/internal/util"

	"go.uber.org/zap"
)

// AddressService manages the addresses of the caller's own customer profile
type AddressService struct {
	store  store.UnitOfWork
	logger *zap.Logger
}

// NewAddressService creates a new address service
func NewAddressService(store store.UnitOfWork) *AddressService {
	return &AddressService{store: store, logger: util.GetLogger()}
}

type CreateAddressRequest struct {
	StreetAddress string  `json:"street_address" binding:"required,max=255"`
	City          string  `json:"city" binding:"required,max=100"`
	State         *string `json:"state" binding:"omitempty,max=100"`
	PostalCode    string  `json:"postal_code" binding:"required,min=4,max=10"`
	Country       string  `json:"country" binding:"required,max=100"`
	IsDefault     bool    `json:"is_default"`
}

type UpdateAddressRequest struct {
	StreetAddress *string `json:"street_address" binding:"omitempty,min=1,max=255"`
	City          *string `json:"city" binding:"omitempty,min=1,max=100"`
	State         *string `json:"state" binding:"omitempty,max=100"`
	PostalCode    *string `json:"postal_code" binding:"omitempty,min=4,max=10"`
	Country       *string `json:"country" binding:"omitempty,min=1,max=100"`
	IsDefault     *bool   `json:"is_default"`
}

// Create adds an address to the caller's profile
func (s *AddressService) Create(ctx context.Context, caller *Caller, req *CreateAddressRequest) (*models.Address, error) {
	ctx, span := util.StartSpan(ctx, "AddressService.Create")
	defer span.End()

	var address *models.Address
	err := s.store.InTx(ctx, func(repo store.Repository) error {
		customer, err := callerCustomer(ctx, repo, caller)
		if err != nil {
			return err
		}

		address = &models.Address{
			CustomerID:    customer.ID,
			StreetAddress: req.StreetAddress,
			City:          req.City,
			State:         req.State,
			PostalCode:    req.PostalCode,
			Country:       req.Country,
			IsDefault:     req.IsDefault,
		}
		if err := repo.CreateAddress(ctx, address); err != nil {
			return mapStoreError(err, "address")
		}
		if address.IsDefault {
			return makeDefault(ctx, repo, customer, address)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Address created",
		zap.Int64("address_id", address.ID),
		zap.Int64("customer_id", address.CustomerID))
	return address, nil
}

// List lists the caller's addresses
func (s *AddressService) List(ctx context.Context, caller *Caller) ([]models.Address, error) {
	customer, err := callerCustomer(ctx, s.store, caller)
	if err != nil {
		return nil, err
	}
	addresses, err := s.store.ListAddressesByCustomer(ctx, customer.ID)
	return addresses, mapStoreError(err, "addresses")
}

// Get retrieves one of the caller's addresses
func (s *AddressService) Get(ctx context.Context, caller *Caller, id int64) (*models.Address, error) {
	customer, err := callerCustomer(ctx, s.store, caller)
	if err != nil {
		return nil, err
	}
	return ownAddress(ctx, s.store, customer, id)
}

// Update applies a partial update to one of the caller's addresses
func (s *AddressService) Update(ctx context.Context, caller *Caller, id int64, req *UpdateAddressRequest) (*models.Address, error) {
	ctx, span := util.StartSpan(ctx, "AddressService.Update")
	defer span.End()

	var address *models.Address
	err := s.store.InTx(ctx, func(repo store.Repository) error {
		customer, err := callerCustomer(ctx, repo, caller)
		if err != nil {
			return err
		}
		address, err = ownAddress(ctx, repo, customer, id)
		if err != nil {
			return err
		}

		if req.StreetAddress != nil {
			address.StreetAddress = *req.StreetAddress
		}
		if req.City != nil {
			address.City = *req.City
		}
		if req.State != nil {
			address.State = req.State
		}
		if req.PostalCode != nil {
			address.PostalCode = *req.PostalCode
		}
		if req.Country != nil {
			address.Country = *req.Country
		}
		if req.IsDefault != nil {
			address.IsDefault = *req.IsDefault
		}
		if err := repo.UpdateAddress(ctx, address); err != nil {
			return mapStoreError(err, "address")
		}

		if req.IsDefault == nil {
			return nil
		}
		if *req.IsDefault {
			return makeDefault(ctx, repo, customer, address)
		}
		return clearDefault(ctx, repo, customer, address.ID)
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

// Delete removes one of the caller's addresses and clears it as a default.
// Addresses used by orders are kept.
func (s *AddressService) Delete(ctx context.Context, caller *Caller, id int64) error {
	ctx, span := util.StartSpan(ctx, "AddressService.Delete")
	defer span.End()

	err := s.store.InTx(ctx, func(repo store.Repository) error {
		customer, err := callerCustomer(ctx, repo, caller)
		if err != nil {
			return err
		}
		if _, err := ownAddress(ctx, repo, customer, id); err != nil {
			return err
		}
		if err := clearDefault(ctx, repo, customer, id); err != nil {
			return err
		}
		return mapStoreError(repo.DeleteAddress(ctx, id), "address")
	})
	if err != nil {
		return err
	}

	s.logger.Info("Address deleted", zap.Int64("address_id", id))
	return nil
}

// ownAddress loads an address, hiding addresses of other customers
func ownAddress(ctx context.Context, repo store.Repository, customer *models.Customer, id int64) (*models.Address, error) {
	address, err := repo.GetAddress(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && address.CustomerID != customer.ID) {
		return nil, apperror.NotFound("address")
	}
	if err != nil {
		return nil, mapStoreError(err, "address")
	}
	return address, nil
}

// makeDefault points both customer defaults at address and unflags the
// customer's other addresses.
func makeDefault(ctx context.Context, repo store.Repository, customer *models.Customer, address *models.Address) error {
	others, err := repo.ListAddressesByCustomer(ctx, customer.ID)
	if err != nil {
		return mapStoreError(err, "addresses")
	}
	for i := range others {
		other := &others[i]
		if other.ID == address.ID || !other.IsDefault {
			continue
		}
		other.IsDefault = false
		if err := repo.UpdateAddress(ctx, other); err != nil {
			return mapStoreError(err, "address")
		}
	}

	id := address.ID
	customer.DefaultShippingAddressID = &id
	customer.DefaultBillingAddressID = &id
	return mapStoreError(repo.UpdateCustomer(ctx, customer), "customer")
}

func clearDefault(ctx context.Context, repo store.Repository, customer *models.Customer, addressID int64) error {
	changed := false
	if customer.DefaultShippingAddressID != nil && *customer.DefaultShippingAddressID == addressID {
		customer.DefaultShippingAddressID = nil
		changed = true
	}
	if customer.DefaultBillingAddressID != nil && *customer.DefaultBillingAddressID == addressID {
		customer.DefaultBillingAddressID = nil
		changed = true
	}
	if !changed {
		return nil
	}
	return mapStoreError(repo.UpdateCustomer(ctx, customer), "customer")
}
