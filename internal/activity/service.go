// Package activity serves the feed of human-readable mutation records.
package activity

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/bissquit/opsdesk/internal/domain"
)

// ErrForcedFailure is returned when a caller asks for the deterministic failure path.
var ErrForcedFailure = errors.New("forced activity failure")

// Service implements activity feed reads.
type Service struct {
	repo Repository
}

// NewService creates a new activity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListOptions controls an activity listing.
type ListOptions struct {
	// Limit caps the number of entries; zero means no limit.
	Limit int
	// ForceError makes List fail with ErrForcedFailure, for exercising client error paths.
	ForceError bool
}

// List returns activity entries newest first; entries with equal timestamps
// are ordered by id descending.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*domain.ActivityEntry, error) {
	if opts.ForceError {
		return nil, ErrForcedFailure
	}

	items, err := s.repo.ListActivity(ctx)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}

	slices.SortFunc(items, func(a, b *domain.ActivityEntry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}
	return items, nil
}
