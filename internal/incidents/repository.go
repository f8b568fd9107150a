package incidents

import (
	"context"

	"github.com/bissquit/opsdesk/internal/domain"
)

// References answers existence checks against the store state a Mutation or
// Draft runs on. A user or service reported as existing cannot be removed
// before the change commits.
type References interface {
	UserExists(id string) bool
	ServiceExists(id string) bool
}

// Mutation is applied to a copy of the stored incident while the store holds its
// write lock. It returns the activity entry to commit together with the change,
// or an error to abort without writing anything.
type Mutation func(inc *domain.Incident, refs References) (*domain.ActivityEntry, error)

// Draft builds a new incident and its activity entry while the store holds its
// write lock, or returns an error to abort.
type Draft func(refs References) (*domain.Incident, *domain.ActivityEntry, error)

// Repository defines the interface for incident storage.
//
// Implementations must run a Mutation or Draft and commit its result (incident
// and activity entry) in one critical section, so that two concurrent patches
// can never both validate against the same pre-transition status.
type Repository interface {
	// CreateIncident runs fn, assigns the incident ID, links the entry to it
	// and stores both.
	CreateIncident(ctx context.Context, fn Draft) (*domain.Incident, *domain.ActivityEntry, error)
	GetIncident(ctx context.Context, id string) (*domain.Incident, error)
	ListIncidents(ctx context.Context) ([]*domain.Incident, error)
	UpdateIncident(ctx context.Context, id string, fn Mutation) (*domain.Incident, *domain.ActivityEntry, error)
	DeleteIncident(ctx context.Context, id string, fn Mutation) (*domain.Incident, *domain.ActivityEntry, error)
}
