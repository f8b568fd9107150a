// Package comments manages notes left by responders on incidents.
package comments

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bissquit/opsdesk/internal/domain"
	"github.com/bissquit/opsdesk/internal/pkg/ctxlog"
)

// Service implements comment business logic.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new comments service.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// List returns the comments of an incident, newest first.
func (s *Service) List(ctx context.Context, incidentID string) ([]*domain.Comment, error) {
	list, err := s.repo.ListComments(ctx, incidentID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	slices.SortStableFunc(list, func(a, b *domain.Comment) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return list, nil
}

// Create adds a comment by author to an incident.
func (s *Service) Create(ctx context.Context, incidentID string, author *domain.User, body string) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, domain.NewValidationError("Invalid comment", domain.FieldErrors{"body": msgBody})
	}

	now := s.now()
	c := &domain.Comment{
		IncidentID: incidentID,
		AuthorID:   author.ID,
		Body:       body,
		CreatedAt:  now,
	}
	entry := &domain.ActivityEntry{
		Type:       domain.ActivityComment,
		EntityType: domain.EntityIncident,
		EntityID:   incidentID,
		Message:    fmt.Sprintf("Comment added to %s by %s", incidentID, author.Name),
		CreatedAt:  now,
	}

	if err := s.repo.CreateComment(ctx, c, entry); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	ctxlog.FromContext(ctx).Info("comment added", "comment_id", c.ID, "incident_id", incidentID)
	return c, nil
}
