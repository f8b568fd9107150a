package memory

import (
	"context"

	"github.com/bissquit/opsdesk/internal/domain"
)

// ListActivity returns copies of all activity entries, most recent first.
func (s *Store) ListActivity(_ context.Context) ([]*domain.ActivityEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.ActivityEntry, 0, len(s.activity))
	for _, a := range s.activity {
		out = append(out, cloneValue(a))
	}
	return out, nil
}
