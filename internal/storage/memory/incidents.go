package memory

import (
	"context"
	"slices"

	"github.com/bissquit/opsdesk/internal/domain"
	"github.com/bissquit/opsdesk/internal/incidents"
)

// CreateIncident runs fn and stores the incident and activity entry it builds.
func (s *Store) CreateIncident(_ context.Context, fn incidents.Draft) (*domain.Incident, *domain.ActivityEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inc, entry, err := fn(lockedRefs{s})
	if err != nil {
		return nil, nil, err
	}

	inc.ID = s.ids.next(prefixIncident)
	entry.EntityID = inc.ID
	s.incidents = slices.Insert(s.incidents, 0, inc.Clone())
	return inc, s.appendActivity(entry), nil
}

// GetIncident returns a copy of the incident with the given id.
func (s *Store) GetIncident(_ context.Context, id string) (*domain.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.incidentIndex(id)
	if idx < 0 {
		return nil, incidents.ErrIncidentNotFound
	}
	return s.incidents[idx].Clone(), nil
}

// ListIncidents returns copies of all incidents, most recently created first.
func (s *Store) ListIncidents(_ context.Context) ([]*domain.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Incident, 0, len(s.incidents))
	for _, inc := range s.incidents {
		out = append(out, inc.Clone())
	}
	return out, nil
}

// UpdateIncident runs fn on a copy of the incident and, if it succeeds, commits
// the copy and the returned activity entry.
func (s *Store) UpdateIncident(_ context.Context, id string, fn incidents.Mutation) (*domain.Incident, *domain.ActivityEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.incidentIndex(id)
	if idx < 0 {
		return nil, nil, incidents.ErrIncidentNotFound
	}

	working := s.incidents[idx].Clone()
	entry, err := fn(working, lockedRefs{s})
	if err != nil {
		return nil, nil, err
	}

	s.incidents[idx] = working.Clone()
	return working, s.appendActivity(entry), nil
}

// DeleteIncident runs fn on a copy of the incident and, if it succeeds, removes
// the incident and commits the returned activity entry.
func (s *Store) DeleteIncident(_ context.Context, id string, fn incidents.Mutation) (*domain.Incident, *domain.ActivityEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.incidentIndex(id)
	if idx < 0 {
		return nil, nil, incidents.ErrIncidentNotFound
	}

	removed := s.incidents[idx].Clone()
	entry, err := fn(removed, lockedRefs{s})
	if err != nil {
		return nil, nil, err
	}

	s.incidents = slices.Delete(s.incidents, idx, idx+1)
	return removed, s.appendActivity(entry), nil
}

func (s *Store) incidentIndex(id string) int {
	return slices.IndexFunc(s.incidents, func(inc *domain.Incident) bool { return inc.ID == id })
}

// lockedRefs answers reference checks for a mutation. The store's write lock
// is already held.
type lockedRefs struct {
	s *Store
}

func (r lockedRefs) UserExists(id string) bool {
	return slices.ContainsFunc(r.s.users, func(u *domain.User) bool { return u.ID == id })
}

func (r lockedRefs) ServiceExists(id string) bool {
	return r.s.serviceIndex(id) >= 0
}
