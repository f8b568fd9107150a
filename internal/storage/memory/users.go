package memory

import (
	"context"
	"slices"

	"github.com/bissquit/opsdesk/internal/domain"
	"github.com/bissquit/opsdesk/internal/identity"
)

// GetUser returns a copy of the user with the given id.
func (s *Store) GetUser(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := slices.IndexFunc(s.users, func(u *domain.User) bool { return u.ID == id })
	if idx < 0 {
		return nil, identity.ErrUserNotFound
	}
	return cloneValue(s.users[idx]), nil
}

// ListUsers returns copies of all users.
func (s *Store) ListUsers(_ context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, cloneValue(u))
	}
	return out, nil
}
