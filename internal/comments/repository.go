package comments

import (
	"context"

	"github.com/bissquit/opsdesk/internal/domain"
)

// Repository defines the interface for comment storage.
type Repository interface {
	// ListComments returns the comments of an incident, or ErrIncidentNotFound.
	ListComments(ctx context.Context, incidentID string) ([]*domain.Comment, error)
	// CreateComment assigns c.ID and stores c and entry together, or returns
	// ErrIncidentNotFound if the incident no longer exists.
	CreateComment(ctx context.Context, c *domain.Comment, entry *domain.ActivityEntry) error
}
