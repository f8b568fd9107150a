package memory

import (
	"context"
	"slices"

	"github.com/bissquit/opsdesk/internal/comments"
	"github.com/bissquit/opsdesk/internal/domain"
)

// ListComments returns copies of the comments on an incident.
func (s *Store) ListComments(_ context.Context, incidentID string) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.incidentIndex(incidentID) < 0 {
		return nil, comments.ErrIncidentNotFound
	}

	out := make([]*domain.Comment, 0)
	for _, c := range s.comments {
		if c.IncidentID == incidentID {
			out = append(out, cloneValue(c))
		}
	}
	return out, nil
}

// CreateComment stores a comment and its activity entry if the incident exists.
func (s *Store) CreateComment(_ context.Context, c *domain.Comment, entry *domain.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.incidentIndex(c.IncidentID) < 0 {
		return comments.ErrIncidentNotFound
	}

	c.ID = s.ids.next(prefixComment)
	s.comments = slices.Insert(s.comments, 0, cloneValue(c))
	s.appendActivity(entry)
	return nil
}
