package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bissquit/opsdesk/internal/catalog"
	"github.com/bissquit/opsdesk/internal/comments"
	"github.com/bissquit/opsdesk/internal/domain"
	"github.com/bissquit/opsdesk/internal/identity"
	"github.com/bissquit/opsdesk/internal/incidents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func newTestStore() *Store {
	s := New()
	s.Load(Dataset{
		Users: []domain.User{{ID: "usr_001", Name: "Alex Kim", Role: domain.RoleAdmin}},
		Services: []domain.Service{
			{ID: "svc_001", Name: "Auth Gateway", Tier: 0, OwnerTeam: "Platform", Status: domain.ServiceStatusActive},
		},
		Incidents: []domain.Incident{
			{
				ID: "inc_007", Title: "Login errors", Description: "5xx on login",
				Status: domain.IncidentStatusTriggered, Severity: domain.SeverityS1,
				Tags: []string{"auth"}, CreatedAt: base, UpdatedAt: base,
			},
		},
		Activity: []domain.ActivityEntry{{ID: "act_012", Type: domain.ActivityCreate, CreatedAt: base}},
	})
	return s
}

func TestIDFactory(t *testing.T) {
	f := newIDFactory()
	f.observe("inc_050")
	f.observe("inc_012_abcdefgh")
	f.observe("garbage")

	id := f.next(prefixIncident)

	assert.Regexp(t, `^inc_051_[0-9a-f]{8}$`, id)
	assert.Regexp(t, `^act_001_[0-9a-f]{8}$`, f.next(prefixActivity))

	again := newIDFactory()
	again.observe("inc_050")
	assert.Equal(t, id, again.next(prefixIncident), "ids are reproducible for the same counter state")
}

func TestStore_CreateIncident_LinksActivity(t *testing.T) {
	s := newTestStore()

	inc, entry, err := s.CreateIncident(context.Background(), func(incidents.References) (*domain.Incident, *domain.ActivityEntry, error) {
		return &domain.Incident{Title: "New", Status: domain.IncidentStatusTriggered, Severity: domain.SeverityS2, CreatedAt: base},
			&domain.ActivityEntry{Type: domain.ActivityCreate, EntityType: domain.EntityIncident}, nil
	})

	require.NoError(t, err)
	assert.Regexp(t, `^inc_008_`, inc.ID)
	assert.Equal(t, inc.ID, entry.EntityID)
	assert.Regexp(t, `^act_013_`, entry.ID)

	list, err := s.ListIncidents(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, inc.ID, list[0].ID, "new incidents are listed first")

	feed, err := s.ListActivity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entry.ID, feed[0].ID)
}

func TestStore_CreateIncident_AbortStoresNothing(t *testing.T) {
	s := newTestStore()
	before := s.Stats()
	abort := errors.New("rejected")

	_, _, err := s.CreateIncident(context.Background(), func(incidents.References) (*domain.Incident, *domain.ActivityEntry, error) {
		return nil, nil, abort
	})

	require.ErrorIs(t, err, abort)
	assert.Equal(t, before, s.Stats())
}

func TestStore_References(t *testing.T) {
	s := newTestStore()

	_, _, err := s.UpdateIncident(context.Background(), "inc_007", func(_ *domain.Incident, refs incidents.References) (*domain.ActivityEntry, error) {
		assert.True(t, refs.UserExists("usr_001"))
		assert.False(t, refs.UserExists("usr_404"))
		assert.True(t, refs.ServiceExists("svc_001"))
		assert.False(t, refs.ServiceExists("svc_404"))
		return &domain.ActivityEntry{}, nil
	})

	require.NoError(t, err)
}

func TestStore_ServiceDeleteWaitsForReferencingMutation(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	deleted := make(chan error, 1)

	inc, _, err := s.UpdateIncident(ctx, "inc_007", func(inc *domain.Incident, refs incidents.References) (*domain.ActivityEntry, error) {
		require.True(t, refs.ServiceExists("svc_001"))
		go func() {
			_, _, err := s.DeleteService(ctx, "svc_001", func(*domain.Service) (*domain.ActivityEntry, error) {
				return &domain.ActivityEntry{}, nil
			})
			deleted <- err
		}()
		// The delete cannot commit while this mutation holds the lock.
		time.Sleep(20 * time.Millisecond)
		assert.True(t, refs.ServiceExists("svc_001"))
		serviceID := "svc_001"
		inc.ServiceID = &serviceID
		return &domain.ActivityEntry{}, nil
	})
	require.NoError(t, err)
	require.NoError(t, <-deleted)

	require.NotNil(t, inc.ServiceID)
	exists, err := s.ServiceExists(ctx, "svc_001")
	require.NoError(t, err)
	assert.False(t, exists, "delete commits after the mutation")
}

func TestStore_ReadsReturnCopies(t *testing.T) {
	s := newTestStore()

	got, err := s.GetIncident(context.Background(), "inc_007")
	require.NoError(t, err)
	got.Title = "mutated"
	got.Tags[0] = "mutated"

	again, err := s.GetIncident(context.Background(), "inc_007")
	require.NoError(t, err)
	assert.Equal(t, "Login errors", again.Title)
	assert.Equal(t, []string{"auth"}, again.Tags)
}

func TestStore_UpdateIncident_AbortLeavesStateUntouched(t *testing.T) {
	s := newTestStore()
	before := s.Stats()
	abort := errors.New("rejected")

	_, _, err := s.UpdateIncident(context.Background(), "inc_007", func(inc *domain.Incident, _ incidents.References) (*domain.ActivityEntry, error) {
		inc.Title = "half-applied"
		return nil, abort
	})

	require.ErrorIs(t, err, abort)
	got, err := s.GetIncident(context.Background(), "inc_007")
	require.NoError(t, err)
	assert.Equal(t, "Login errors", got.Title)
	assert.Equal(t, before, s.Stats())
}

func TestStore_UpdateIncident_NotFound(t *testing.T) {
	s := newTestStore()
	called := false

	_, _, err := s.UpdateIncident(context.Background(), "inc_404", func(*domain.Incident, incidents.References) (*domain.ActivityEntry, error) {
		called = true
		return &domain.ActivityEntry{}, nil
	})

	assert.ErrorIs(t, err, incidents.ErrIncidentNotFound)
	assert.False(t, called)
}

func TestStore_UpdateIncident_SerializesReadValidateWrite(t *testing.T) {
	s := newTestStore()
	const workers = 20

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.UpdateIncident(context.Background(), "inc_007", func(inc *domain.Incident, _ incidents.References) (*domain.ActivityEntry, error) {
				if !domain.CanTransition(inc.Status, domain.IncidentStatusAcknowledged) {
					return nil, domain.NewValidationError("Invalid incident patch", nil)
				}
				inc.ApplyStatus(domain.IncidentStatusAcknowledged, base)
				return &domain.ActivityEntry{Type: domain.ActivityUpdate, EntityID: inc.ID}, nil
			})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted, "exactly one concurrent transition may win")
	assert.Equal(t, 2, s.Stats().Activity)
}

func TestStore_DeleteIncident(t *testing.T) {
	s := newTestStore()

	removed, entry, err := s.DeleteIncident(context.Background(), "inc_007", func(inc *domain.Incident, _ incidents.References) (*domain.ActivityEntry, error) {
		return &domain.ActivityEntry{Type: domain.ActivityDelete, EntityID: inc.ID}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "inc_007", removed.ID)
	assert.Equal(t, domain.ActivityDelete, entry.Type)

	_, err = s.GetIncident(context.Background(), "inc_007")
	assert.ErrorIs(t, err, incidents.ErrIncidentNotFound)
}

func TestStore_Services(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	ok, err := s.ServiceExists(ctx, "svc_001")
	require.NoError(t, err)
	assert.True(t, ok)

	svc := &domain.Service{Name: "Billing", Tier: 2, OwnerTeam: "Payments", Status: domain.ServiceStatusActive}
	require.NoError(t, s.CreateService(ctx, svc, &domain.ActivityEntry{}))
	assert.Regexp(t, `^svc_002_`, svc.ID)

	updated, _, err := s.UpdateService(ctx, svc.ID, func(v *domain.Service) (*domain.ActivityEntry, error) {
		v.Status = domain.ServiceStatusDegraded
		return &domain.ActivityEntry{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ServiceStatusDegraded, updated.Status)

	_, _, err = s.DeleteService(ctx, "svc_404", func(*domain.Service) (*domain.ActivityEntry, error) {
		return &domain.ActivityEntry{}, nil
	})
	assert.ErrorIs(t, err, catalog.ErrServiceNotFound)
}

func TestStore_Users(t *testing.T) {
	s := newTestStore()

	u, err := s.GetUser(context.Background(), "usr_001")
	require.NoError(t, err)
	assert.Equal(t, "Alex Kim", u.Name)

	_, err = s.GetUser(context.Background(), "usr_404")
	assert.ErrorIs(t, err, identity.ErrUserNotFound)
}

func TestStore_Comments(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	c := &domain.Comment{IncidentID: "inc_007", AuthorID: "usr_001", Body: "looking", CreatedAt: base}
	require.NoError(t, s.CreateComment(ctx, c, &domain.ActivityEntry{Type: domain.ActivityComment}))
	assert.Regexp(t, `^cmt_001_`, c.ID)

	list, err := s.ListComments(ctx, "inc_007")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "looking", list[0].Body)

	err = s.CreateComment(ctx, &domain.Comment{IncidentID: "inc_404"}, &domain.ActivityEntry{})
	assert.ErrorIs(t, err, comments.ErrIncidentNotFound)

	_, err = s.ListComments(ctx, "inc_404")
	assert.ErrorIs(t, err, comments.ErrIncidentNotFound)
}

func TestStore_Stats(t *testing.T) {
	stats := newTestStore().Stats()

	assert.Equal(t, 1, stats.IncidentsByStatus["triggered"])
	assert.Equal(t, 0, stats.IncidentsByStatus["resolved"])
	assert.Equal(t, 1, stats.Services)
	assert.Equal(t, 1, stats.Users)
	assert.Equal(t, 1, stats.Activity)
}
