package memory

import (
	"context"
	"slices"

	"github.com/bissquit/opsdesk/internal/catalog"
	"github.com/bissquit/opsdesk/internal/domain"
)

// CreateService stores a new service and its activity entry.
func (s *Store) CreateService(_ context.Context, svc *domain.Service, entry *domain.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc.ID = s.ids.next(prefixService)
	entry.EntityID = svc.ID
	s.services = slices.Insert(s.services, 0, cloneValue(svc))
	s.appendActivity(entry)
	return nil
}

// GetService returns a copy of the service with the given id.
func (s *Store) GetService(_ context.Context, id string) (*domain.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.serviceIndex(id)
	if idx < 0 {
		return nil, catalog.ErrServiceNotFound
	}
	return cloneValue(s.services[idx]), nil
}

// ListServices returns copies of all services.
func (s *Store) ListServices(_ context.Context) ([]*domain.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Service, 0, len(s.services))
	for _, svc := range s.services {
		out = append(out, cloneValue(svc))
	}
	return out, nil
}

// UpdateService runs fn on a copy of the service and commits it on success.
func (s *Store) UpdateService(_ context.Context, id string, fn catalog.Mutation) (*domain.Service, *domain.ActivityEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.serviceIndex(id)
	if idx < 0 {
		return nil, nil, catalog.ErrServiceNotFound
	}

	working := cloneValue(s.services[idx])
	entry, err := fn(working)
	if err != nil {
		return nil, nil, err
	}

	s.services[idx] = cloneValue(working)
	return working, s.appendActivity(entry), nil
}

// DeleteService runs fn on a copy of the service and removes it on success.
func (s *Store) DeleteService(_ context.Context, id string, fn catalog.Mutation) (*domain.Service, *domain.ActivityEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.serviceIndex(id)
	if idx < 0 {
		return nil, nil, catalog.ErrServiceNotFound
	}

	removed := cloneValue(s.services[idx])
	entry, err := fn(removed)
	if err != nil {
		return nil, nil, err
	}

	s.services = slices.Delete(s.services, idx, idx+1)
	return removed, s.appendActivity(entry), nil
}

// ServiceExists reports whether a service with the given id exists.
func (s *Store) ServiceExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serviceIndex(id) >= 0, nil
}

func (s *Store) serviceIndex(id string) int {
	return slices.IndexFunc(s.services, func(svc *domain.Service) bool { return svc.ID == id })
}
