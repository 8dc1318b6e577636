package user

import (
	"context"
	"errors"
	"fmt"
)

// Common errors
var (
	ErrUserNotFound = errors.New("user not found")
)

// Service handles read-only user lookups
type Service struct {
	repo Repository
}

// NewService creates a new user service with repository dependency injected
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetByID retrieves a user by their ID
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// ResolveRole returns the stored role for id. Users without a profile are citizens.
func (s *Service) ResolveRole(ctx context.Context, id string) (string, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return string(RoleCitizen), nil
		}
		return "", fmt.Errorf("failed to resolve role: %w", err)
	}
	return string(u.Role), nil
}
