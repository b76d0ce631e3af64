package users

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/quotient-crm/quotient/internal/shared"
)

// Service owns company-scoped account management.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new account in the actor's company.
func (s *Service) Create(ctx context.Context, actor shared.Actor, req CreateUserRequest) (*User, error) {
	taken, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	id, err := s.repo.Create(ctx, User{
		CompanyID: actor.CompanyID,
		Email:     req.Email,
		Name:      req.Name,
		Role:      req.Role,
		Active:    true,
	}, string(hash))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.repo.Get(ctx, actor.CompanyID, id)
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*User, error) {
	return s.repo.Get(ctx, companyID, id)
}

// List returns the company's accounts.
func (s *Service) List(ctx context.Context, companyID int64) ([]User, error) {
	return s.repo.List(ctx, companyID)
}

// Update edits an account.
func (s *Service) Update(ctx context.Context, companyID, id int64, req UpdateUserRequest) (*User, error) {
	u, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.Active != nil {
		u.Active = *req.Active
	}
	if err := s.repo.Update(ctx, *u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.repo.Get(ctx, companyID, id)
}

// ChangePassword replaces an account password.
func (s *Service) ChangePassword(ctx context.Context, companyID, id int64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.SetPassword(ctx, companyID, id, string(hash))
}

// Delete soft-deletes an account.
func (s *Service) Delete(ctx context.Context, companyID, id int64) error {
	return s.repo.SoftDelete(ctx, companyID, id)
}
