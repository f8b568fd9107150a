package identity

import (
	"context"

	"github.com/bissquit/opsdesk/internal/domain"
)

// Repository defines the interface for responder lookups.
type Repository interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
}
