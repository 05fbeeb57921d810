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

// AccountService provisions back-office users. Customer accounts are
// created through CustomerService.
type AccountService struct {
	store    store.UnitOfWork
	hashCost int
	logger   *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(store store.UnitOfWork) *AccountService {
	return &AccountService{
		store:    store,
		hashCost: bcrypt.DefaultCost,
		logger:   util.GetLogger(),
	}
}

// WithHashCost sets the bcrypt cost
func (s *AccountService) WithHashCost(cost int) *AccountService {
	s.hashCost = cost
	return s
}

type RegisterStaffRequest struct {
	Email    string      `json:"email" binding:"required,email,max=255"`
	FullName *string     `json:"full_name" binding:"omitempty,max=255"`
	Password string      `json:"password" binding:"required,min=8,max=72"`
	Role     models.Role `json:"role" binding:"omitempty,oneof=staff admin"` // defaults to staff
}

// RegisterStaff creates a staff or admin user. Only admins may call it.
func (s *AccountService) RegisterStaff(ctx context.Context, caller *Caller, req *RegisterStaffRequest) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "AccountService.RegisterStaff")
	defer span.End()

	if caller == nil || caller.Role != models.RoleAdmin {
		return nil, apperror.Forbidden("only admins may register staff")
	}

	role := req.Role
	if role == "" {
		role = models.RoleStaff
	}
	if !role.IsStaff() {
		return nil, apperror.Validation("role must be staff or admin").WithDetail("role", string(role))
	}

	hash, err := hashPassword(req.Password, s.hashCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:          strings.TrimSpace(req.Email),
		HashedPassword: hash,
		FullName:       req.FullName,
		Role:           role,
		IsActive:       true,
	}

	err = s.store.InTx(ctx, func(repo store.Repository) error {
		return insertUser(ctx, repo, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Staff user registered",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.Int64("registered_by", caller.UserID))
	return user, nil
}

func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// insertUser creates user, reporting a taken email as Conflict
func insertUser(ctx context.Context, repo store.Repository, user *models.User) error {
	_, err := repo.GetUserByEmail(ctx, user.Email)
	if err == nil {
		return apperror.Conflict("email already registered").WithDetail("email", user.Email)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return mapStoreError(err, "user")
	}

	if err := repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return apperror.Conflict("email already registered").WithDetail("email", user.Email)
		}
		return mapStoreError(err, "user")
	}
	return nil
}
