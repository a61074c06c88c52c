package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/sports-marketplace/internal/model"
	"github.com/iliyamo/sports-marketplace/internal/repository"
	"github.com/iliyamo/sports-marketplace/internal/utils"
)

// AccountService registers and authenticates users.  Registering as a
// provider also creates the provider profile under the same id.
type AccountService struct {
	base
	bcryptCost int
}

func NewAccountService(d Deps, bcryptCost int) *AccountService {
	return &AccountService{base: newBase(d), bcryptCost: bcryptCost}
}

// RegisterInput is a sign-up request.  Admins cannot self-register; any
// role other than PROVIDER registers a client.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Role     string
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (u model.User, err error) {
	email := repository.NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return u, ValidationError{Field: "email", Msg: "invalid"}
	}
	if len(in.Password) < 8 {
		return u, ValidationError{Field: "password", Msg: "must be at least 8 characters"}
	}
	role := model.ParseRole(strings.ToUpper(strings.TrimSpace(in.Role)))
	if role == model.RoleAdmin {
		role = model.RoleClient
	}
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return u, err
	}

	now := s.clock()
	u = model.User{
		ID:           s.newID(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.store.WithTx(ctx, func(tx Store) error {
		if err := tx.Users().Create(ctx, &u); err != nil {
			if errors.Is(err, repository.ErrEmailExists) {
				return BusinessError{Msg: "email already exists", Err: err}
			}
			return err
		}
		if role != model.RoleProvider {
			return nil
		}
		name := u.Name
		if name == "" {
			name = u.Email
		}
		return tx.Providers().Create(ctx, &model.Provider{ID: u.ID, DisplayName: name, CreatedAt: now, UpdatedAt: now})
	})
	if err != nil {
		return model.User{}, err
	}
	s.log.Info("user registered", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// Authenticate checks an email and password pair.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	u, err := s.store.Users().GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		utils.SpendVerify(password)
		return model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return model.User{}, ForbiddenError{Msg: "account disabled"}
	}
	return u, nil
}

// Get loads a user by id.
func (s *AccountService) Get(ctx context.Context, id string) (model.User, error) {
	u, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return u, lookup("user", err)
	}
	return u, nil
}
