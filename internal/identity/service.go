// Package identity resolves the acting responder of a request and lists responders.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/opsdesk/internal/domain"
)

// Service implements responder lookups.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListUsers returns all responders.
func (s *Service) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ResolveUser returns the user with the given id; ok is false if there is none.
func (s *Service) ResolveUser(ctx context.Context, id string) (*domain.User, bool, error) {
	user, err := s.repo.GetUser(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get user: %w", err)
	}
	return user, true, nil
}
