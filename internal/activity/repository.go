package activity

import (
	"context"

	"github.com/bissquit/opsdesk/internal/domain"
)

// Repository defines read access to the activity feed.
type Repository interface {
	ListActivity(ctx context.Context) ([]*domain.ActivityEntry, error)
}
