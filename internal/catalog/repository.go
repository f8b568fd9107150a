package catalog

import (
	"context"

	"github.com/bissquit/opsdesk/internal/domain"
)

// Mutation is applied to a copy of the stored service under the store write
// lock. It returns the activity entry to commit with the change.
type Mutation func(svc *domain.Service) (*domain.ActivityEntry, error)

// Repository defines the interface for catalog data operations.
type Repository interface {
	// CreateService assigns svc.ID, links entry to it and stores both.
	CreateService(ctx context.Context, svc *domain.Service, entry *domain.ActivityEntry) error
	GetService(ctx context.Context, id string) (*domain.Service, error)
	ListServices(ctx context.Context) ([]*domain.Service, error)
	UpdateService(ctx context.Context, id string, fn Mutation) (*domain.Service, *domain.ActivityEntry, error)
	DeleteService(ctx context.Context, id string, fn Mutation) (*domain.Service, *domain.ActivityEntry, error)
	ServiceExists(ctx context.Context, id string) (bool, error)
}
