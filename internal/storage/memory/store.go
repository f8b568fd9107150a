// Package memory provides the in-process store backing every module.
//
// A single RWMutex guards all collections. Mutations run their validation
// callback and commit the entity together with its activity entry while
// holding the write lock; reads return deep copies.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/bissquit/opsdesk/internal/activity"
	"github.com/bissquit/opsdesk/internal/catalog"
	"github.com/bissquit/opsdesk/internal/comments"
	"github.com/bissquit/opsdesk/internal/domain"
	"github.com/bissquit/opsdesk/internal/identity"
	"github.com/bissquit/opsdesk/internal/incidents"
	"github.com/bissquit/opsdesk/internal/pkg/metrics"
)

// Dataset is the full content of a store.
type Dataset struct {
	Users     []domain.User
	Services  []domain.Service
	Incidents []domain.Incident
	Comments  []domain.Comment
	Activity  []domain.ActivityEntry
}

// Store is an in-memory implementation of the module repositories.
type Store struct {
	mu  sync.RWMutex
	ids *idFactory

	users     []*domain.User
	services  []*domain.Service
	incidents []*domain.Incident
	comments  []*domain.Comment
	activity  []*domain.ActivityEntry
}

var (
	_ incidents.Repository = (*Store)(nil)
	_ catalog.Repository   = (*Store)(nil)
	_ identity.Repository  = (*Store)(nil)
	_ comments.Repository  = (*Store)(nil)
	_ activity.Repository  = (*Store)(nil)
)

// New creates an empty store.
func New() *Store {
	return &Store{ids: newIDFactory()}
}

// Load replaces the store content with a copy of data and reseeds the id
// counters from the highest numeric id part of each prefix.
func (s *Store) Load(data Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids = newIDFactory()
	s.users = copyAll(data.Users, func(u domain.User) string { return u.ID }, s.ids)
	s.services = copyAll(data.Services, func(v domain.Service) string { return v.ID }, s.ids)
	s.comments = copyAll(data.Comments, func(c domain.Comment) string { return c.ID }, s.ids)
	s.activity = copyAll(data.Activity, func(a domain.ActivityEntry) string { return a.ID }, s.ids)

	s.incidents = make([]*domain.Incident, 0, len(data.Incidents))
	for i := range data.Incidents {
		s.incidents = append(s.incidents, data.Incidents[i].Clone())
		s.ids.observe(data.Incidents[i].ID)
	}
}

func copyAll[T any](items []T, id func(T) string, ids *idFactory) []*T {
	out := make([]*T, 0, len(items))
	for _, item := range items {
		v := item
		out = append(out, &v)
		ids.observe(id(item))
	}
	return out
}

// Stats returns the current collection sizes.
func (s *Store) Stats() metrics.StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byStatus := make(map[string]int, len(domain.IncidentStatuses()))
	for _, st := range domain.IncidentStatuses() {
		byStatus[string(st)] = 0
	}
	for _, inc := range s.incidents {
		byStatus[string(inc.Status)]++
	}

	return metrics.StoreStats{
		IncidentsByStatus: byStatus,
		Services:          len(s.services),
		Users:             len(s.users),
		Comments:          len(s.comments),
		Activity:          len(s.activity),
	}
}

// Ping reports whether the store can serve requests.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nil
}

// appendActivity assigns an id to entry and prepends it to the feed.
// Callers must hold the write lock.
func (s *Store) appendActivity(entry *domain.ActivityEntry) *domain.ActivityEntry {
	entry.ID = s.ids.next(prefixActivity)
	stored := *entry
	s.activity = slices.Insert(s.activity, 0, &stored)
	return entry
}

func cloneValue[T any](v *T) *T {
	c := *v
	return &c
}
