package incidents

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bissquit/opsdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	mu        sync.Mutex
	incidents map[string]*domain.Incident
	activity  []*domain.ActivityEntry
	history   []domain.IncidentStatus
	refs      fakeRefs
	seq       int
	listErr   error
}

func newMockRepository(items ...*domain.Incident) *mockRepository {
	m := &mockRepository{
		incidents: make(map[string]*domain.Incident),
		refs: fakeRefs{
			users:    map[string]bool{"usr_001": true},
			services: map[string]bool{"svc_001": true},
		},
	}
	for _, inc := range items {
		m.incidents[inc.ID] = inc.Clone()
	}
	return m
}

func (m *mockRepository) CreateIncident(_ context.Context, fn Draft) (*domain.Incident, *domain.ActivityEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc, entry, err := fn(m.refs)
	if err != nil {
		return nil, nil, err
	}
	m.seq++
	inc.ID = fmt.Sprintf("inc_%03d", m.seq)
	entry.EntityID = inc.ID
	m.incidents[inc.ID] = inc.Clone()
	m.activity = append(m.activity, entry)
	return inc, entry, nil
}

func (m *mockRepository) GetIncident(_ context.Context, id string) (*domain.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc, ok := m.incidents[id]
	if !ok {
		return nil, ErrIncidentNotFound
	}
	return inc.Clone(), nil
}

func (m *mockRepository) ListIncidents(_ context.Context) ([]*domain.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*domain.Incident, 0, len(m.incidents))
	for _, inc := range m.incidents {
		out = append(out, inc.Clone())
	}
	return out, nil
}

func (m *mockRepository) UpdateIncident(_ context.Context, id string, fn Mutation) (*domain.Incident, *domain.ActivityEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc, ok := m.incidents[id]
	if !ok {
		return nil, nil, ErrIncidentNotFound
	}
	working := inc.Clone()
	entry, err := fn(working, m.refs)
	if err != nil {
		return nil, nil, err
	}
	m.incidents[id] = working.Clone()
	m.activity = append(m.activity, entry)
	m.history = append(m.history, working.Status)
	return working, entry, nil
}

func (m *mockRepository) DeleteIncident(_ context.Context, id string, fn Mutation) (*domain.Incident, *domain.ActivityEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc, ok := m.incidents[id]
	if !ok {
		return nil, nil, ErrIncidentNotFound
	}
	entry, err := fn(inc.Clone(), m.refs)
	if err != nil {
		return nil, nil, err
	}
	delete(m.incidents, id)
	m.activity = append(m.activity, entry)
	return inc, entry, nil
}

type fakeRefs struct {
	users    map[string]bool
	services map[string]bool
}

func (f fakeRefs) UserExists(id string) bool { return f.users[id] }

func (f fakeRefs) ServiceExists(id string) bool { return f.services[id] }

var clock = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func newTestService(repo *mockRepository) *Service {
	return NewService(repo, WithClock(func() time.Time { return clock }))
}

func incidentWithStatus(id string, status domain.IncidentStatus) *domain.Incident {
	inc := &domain.Incident{
		ID: id, Title: "Login errors", Description: "5xx", Status: status,
		Severity: domain.SeverityS2, Tags: []string{}, CreatedAt: clock.Add(-time.Hour), UpdatedAt: clock.Add(-time.Hour),
	}
	if status == domain.IncidentStatusResolved {
		resolved := clock.Add(-time.Minute)
		inc.ResolvedAt = &resolved
	}
	return inc
}

func requireValidation(t *testing.T, err error) *domain.ValidationError {
	t.Helper()
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	return vErr
}

func TestService_Create(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	inc, entry, err := svc.Create(context.Background(), CreateInput{
		Title:       "  Login errors  ",
		Description: "5xx on /login",
		Severity:    domain.SeverityS1,
		ServiceID:   ptr("svc_001"),
	})

	require.NoError(t, err)
	assert.Equal(t, "inc_001", inc.ID)
	assert.Equal(t, "Login errors", inc.Title)
	assert.Equal(t, domain.IncidentStatusTriggered, inc.Status)
	assert.Equal(t, []string{}, inc.Tags)
	assert.Equal(t, clock, inc.CreatedAt)
	assert.Equal(t, clock, inc.UpdatedAt)
	assert.Nil(t, inc.CommanderID)
	assert.Nil(t, inc.AcknowledgedAt)
	assert.Nil(t, inc.ResolvedAt)

	assert.Equal(t, domain.ActivityCreate, entry.Type)
	assert.Equal(t, inc.ID, entry.EntityID)
	assert.Equal(t, "Incident created: Login errors", entry.Message)
}

func TestService_Create_CollectsAllFieldErrors(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	_, _, err := svc.Create(context.Background(), CreateInput{
		Title:       "abc",
		Description: "   ",
		Severity:    "S9",
		ServiceID:   ptr("svc_404"),
	})

	vErr := requireValidation(t, err)
	assert.Equal(t, "Invalid incident", vErr.Message)
	assert.Equal(t, domain.FieldErrors{
		"title":       "Title must be at least 4 characters",
		"description": "Description is required",
		"severity":    "Severity must be S1..S4",
		"serviceId":   "Unknown serviceId",
	}, vErr.Fields)
	assert.Empty(t, repo.incidents)
	assert.Empty(t, repo.activity)
}

func TestService_Create_TypeErrorsReportedWithFieldErrors(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	_, _, err := svc.Create(context.Background(), CreateInput{
		Description: "",
		Severity:    "S9",
		TypeErrors:  domain.FieldErrors{"title": msgTitle},
	})

	vErr := requireValidation(t, err)
	assert.Equal(t, domain.FieldErrors{
		"title":       "Title must be at least 4 characters",
		"description": "Description is required",
		"severity":    "Severity must be S1..S4",
	}, vErr.Fields)
	assert.Empty(t, repo.incidents)
}

func TestService_Patch_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.IncidentStatus
		to      domain.IncidentStatus
		wantErr string
	}{
		{name: "triggered to acknowledged", from: domain.IncidentStatusTriggered, to: domain.IncidentStatusAcknowledged},
		{name: "investigating to resolved", from: domain.IncidentStatusInvestigating, to: domain.IncidentStatusResolved},
		{name: "same status is not a transition", from: domain.IncidentStatusMitigated, to: domain.IncidentStatusMitigated},
		{
			name: "skip ahead", from: domain.IncidentStatusTriggered, to: domain.IncidentStatusResolved,
			wantErr: "Invalid transition: triggered -> resolved",
		},
		{
			name: "backwards", from: domain.IncidentStatusMitigated, to: domain.IncidentStatusInvestigating,
			wantErr: "Invalid transition: mitigated -> investigating",
		},
		{
			name: "resolved is terminal", from: domain.IncidentStatusResolved, to: domain.IncidentStatusInvestigating,
			wantErr: "Invalid transition: resolved -> investigating",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository(incidentWithStatus("inc_001", tt.from))
			svc := newTestService(repo)

			inc, _, err := svc.Patch(context.Background(), "inc_001", PatchInput{Status: &tt.to})

			if tt.wantErr != "" {
				vErr := requireValidation(t, err)
				assert.Equal(t, tt.wantErr, vErr.Fields["status"])
				stored, _ := repo.GetIncident(context.Background(), "inc_001")
				assert.Equal(t, tt.from, stored.Status, "rejected patch must not change state")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, inc.Status)
		})
	}
}

func TestService_Patch_StatusSideEffects(t *testing.T) {
	repo := newMockRepository(incidentWithStatus("inc_001", domain.IncidentStatusTriggered))
	svc := newTestService(repo)
	ctx := context.Background()

	inc, _, err := svc.Patch(ctx, "inc_001", PatchInput{Status: ptr(domain.IncidentStatusAcknowledged)})
	require.NoError(t, err)
	require.NotNil(t, inc.AcknowledgedAt)
	assert.Equal(t, clock, *inc.AcknowledgedAt)
	assert.Equal(t, clock, inc.UpdatedAt)

	_, _, err = svc.Patch(ctx, "inc_001", PatchInput{Status: ptr(domain.IncidentStatusInvestigating)})
	require.NoError(t, err)
	inc, entry, err := svc.Patch(ctx, "inc_001", PatchInput{Status: ptr(domain.IncidentStatusResolved)})
	require.NoError(t, err)
	require.NotNil(t, inc.ResolvedAt)
	assert.Equal(t, "Incident updated: Login errors", entry.Message)
}

func TestService_Patch_CollectsAllFieldErrors(t *testing.T) {
	repo := newMockRepository(incidentWithStatus("inc_001", domain.IncidentStatusTriggered))
	svc := newTestService(repo)

	_, _, err := svc.Patch(context.Background(), "inc_001", PatchInput{
		Title:       ptr("no"),
		Severity:    ptr(domain.Severity("S0")),
		Tags:        domain.Null[[]string](),
		CommanderID: domain.NullableOf("usr_404"),
		Status:      ptr(domain.IncidentStatusResolved),
	})

	vErr := requireValidation(t, err)
	assert.Equal(t, "Invalid incident patch", vErr.Message)
	assert.Equal(t, domain.FieldErrors{
		"title":       "Title must be at least 4 characters",
		"severity":    "Severity must be S1..S4",
		"tags":        "Tags must be an array of strings",
		"commanderId": "Unknown commanderId",
		"status":      "Invalid transition: triggered -> resolved",
	}, vErr.Fields)
	assert.Empty(t, repo.activity)
}

func TestService_Patch_UnknownStatus(t *testing.T) {
	repo := newMockRepository(incidentWithStatus("inc_001", domain.IncidentStatusTriggered))
	svc := newTestService(repo)

	_, _, err := svc.Patch(context.Background(), "inc_001", PatchInput{Status: ptr(domain.IncidentStatus("closed"))})

	vErr := requireValidation(t, err)
	assert.Equal(t, "Status must be one of triggered, acknowledged, investigating, mitigated, resolved", vErr.Fields["status"])
}

func TestService_Patch_Commander(t *testing.T) {
	repo := newMockRepository(incidentWithStatus("inc_001", domain.IncidentStatusTriggered))
	svc := newTestService(repo)
	ctx := context.Background()

	inc, _, err := svc.Patch(ctx, "inc_001", PatchInput{CommanderID: domain.NullableOf("usr_001")})
	require.NoError(t, err)
	require.NotNil(t, inc.CommanderID)
	assert.Equal(t, "usr_001", *inc.CommanderID)

	inc, _, err = svc.Patch(ctx, "inc_001", PatchInput{Title: ptr("Renamed incident")})
	require.NoError(t, err)
	require.NotNil(t, inc.CommanderID, "absent commanderId leaves it unchanged")

	inc, _, err = svc.Patch(ctx, "inc_001", PatchInput{CommanderID: domain.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, inc.CommanderID, "null clears the commander")
}

func TestService_Patch_EmptyPatchStillRecordsActivity(t *testing.T) {
	repo := newMockRepository(incidentWithStatus("inc_001", domain.IncidentStatusTriggered))
	svc := newTestService(repo)

	inc, entry, err := svc.Patch(context.Background(), "inc_001", PatchInput{})

	require.NoError(t, err)
	assert.Equal(t, clock, inc.UpdatedAt)
	assert.Equal(t, domain.ActivityUpdate, entry.Type)
	assert.Len(t, repo.activity, 1)
}

func TestService_Patch_NotFoundWinsOverValidation(t *testing.T) {
	svc := newTestService(newMockRepository())

	_, _, err := svc.Patch(context.Background(), "inc_404", PatchInput{Title: ptr("x")})

	assert.ErrorIs(t, err, ErrIncidentNotFound)
}

func TestService_Patch_TypeErrorsReportedWithFieldErrors(t *testing.T) {
	repo := newMockRepository(incidentWithStatus("inc_001", domain.IncidentStatusTriggered))
	svc := newTestService(repo)

	_, _, err := svc.Patch(context.Background(), "inc_001", PatchInput{
		Title:      ptr("ab"),
		ServiceID:  domain.NullableOf("svc_404"),
		TypeErrors: domain.FieldErrors{"tags": msgTags},
	})

	vErr := requireValidation(t, err)
	assert.Equal(t, domain.FieldErrors{
		"title":     "Title must be at least 4 characters",
		"tags":      "Tags must be an array of strings",
		"serviceId": "Unknown serviceId",
	}, vErr.Fields)
	stored, _ := repo.GetIncident(context.Background(), "inc_001")
	assert.Equal(t, "Login errors", stored.Title)
	assert.Empty(t, repo.activity)
}

func TestService_Patch_NotFoundWinsOverTypeErrors(t *testing.T) {
	svc := newTestService(newMockRepository())

	_, _, err := svc.Patch(context.Background(), "inc_404", PatchInput{
		TypeErrors: domain.FieldErrors{"tags": msgTags},
	})

	assert.ErrorIs(t, err, ErrIncidentNotFound)
}

func TestService_Patch_ConcurrentTransitionsHaveOneWinner(t *testing.T) {
	const perTarget = 8
	repo := newMockRepository(incidentWithStatus("inc_001", domain.IncidentStatusInvestigating))
	svc := newTestService(repo)

	// Each status is accepted as long as it runs before the first resolve commits;
	// after that resolved -> mitigated is rejected and resolved -> resolved is a no-op.
	var wg sync.WaitGroup
	mitigateErrs := make([]error, perTarget)
	resolveErrs := make([]error, perTarget)
	for i := range perTarget {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _, mitigateErrs[i] = svc.Patch(context.Background(), "inc_001", PatchInput{Status: ptr(domain.IncidentStatusMitigated)})
		}()
		go func() {
			defer wg.Done()
			_, _, resolveErrs[i] = svc.Patch(context.Background(), "inc_001", PatchInput{Status: ptr(domain.IncidentStatusResolved)})
		}()
	}
	wg.Wait()

	for _, err := range resolveErrs {
		require.NoError(t, err)
	}
	mitigated := 0
	for _, err := range mitigateErrs {
		if err == nil {
			mitigated++
			continue
		}
		vErr := requireValidation(t, err)
		assert.Equal(t, domain.FieldErrors{"status": "Invalid transition: resolved -> mitigated"}, vErr.Fields)
	}

	want := make([]domain.IncidentStatus, 0, mitigated+perTarget)
	for range mitigated {
		want = append(want, domain.IncidentStatusMitigated)
	}
	for range perTarget {
		want = append(want, domain.IncidentStatusResolved)
	}
	assert.Equal(t, want, repo.history, "no mitigate may commit after the first resolve")
	assert.Len(t, repo.activity, mitigated+perTarget)

	final, err := repo.GetIncident(context.Background(), "inc_001")
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentStatusResolved, final.Status)
	assert.NotNil(t, final.ResolvedAt)
}

func TestService_Reopen(t *testing.T) {
	repo := newMockRepository(
		incidentWithStatus("inc_001", domain.IncidentStatusResolved),
		incidentWithStatus("inc_002", domain.IncidentStatusMitigated),
	)
	svc := newTestService(repo)

	inc, entry, err := svc.Reopen(context.Background(), "inc_001")
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentStatusInvestigating, inc.Status)
	assert.Nil(t, inc.ResolvedAt)
	assert.Equal(t, clock, inc.UpdatedAt)
	assert.Equal(t, domain.ActivityReopen, entry.Type)
	assert.Equal(t, "Incident reopened: Login errors", entry.Message)

	_, _, err = svc.Reopen(context.Background(), "inc_002")
	vErr := requireValidation(t, err)
	assert.Equal(t, "Cannot reopen unless resolved", vErr.Message)
	assert.Equal(t, "Incident must be resolved to reopen", vErr.Fields["status"])

	_, _, err = svc.Reopen(context.Background(), "inc_404")
	assert.ErrorIs(t, err, ErrIncidentNotFound)
}

func TestService_Delete(t *testing.T) {
	repo := newMockRepository(incidentWithStatus("inc_001", domain.IncidentStatusTriggered))
	svc := newTestService(repo)

	entry, err := svc.Delete(context.Background(), "inc_001")
	require.NoError(t, err)
	assert.Equal(t, domain.ActivityDelete, entry.Type)
	assert.Equal(t, "Incident deleted: Login errors", entry.Message)

	_, err = svc.Get(context.Background(), "inc_001")
	assert.ErrorIs(t, err, ErrIncidentNotFound)

	_, err = svc.Delete(context.Background(), "inc_001")
	assert.ErrorIs(t, err, ErrIncidentNotFound)
}

func TestService_List_ReturnsViews(t *testing.T) {
	old := incidentWithStatus("inc_001", domain.IncidentStatusTriggered)
	old.Severity = domain.SeverityS1
	old.CreatedAt = clock.Add(-2 * time.Hour)
	resolved := incidentWithStatus("inc_002", domain.IncidentStatusResolved)
	svc := newTestService(newMockRepository(old, resolved))

	views, err := svc.List(context.Background(), Filter{Breached: BreachOnly}, DefaultSort)

	require.NoError(t, err)
	require.Len(t, views, 1)
	v := views[0]
	assert.Equal(t, "inc_001", v.ID)
	assert.True(t, v.SLA.Breached)
	assert.Equal(t, domain.BreachedLabel, v.SLA.RemainingLabel)
	assert.Equal(t, []domain.IncidentStatus{domain.IncidentStatusAcknowledged}, v.AllowedTransitions)
	assert.False(t, v.CanReopen)

	rv := svc.View(resolved)
	assert.Empty(t, rv.AllowedTransitions)
	assert.True(t, rv.CanReopen)
}

func TestService_List_RepositoryError(t *testing.T) {
	repo := newMockRepository()
	repo.listErr = errors.New("boom")

	_, err := newTestService(repo).List(context.Background(), Filter{}, DefaultSort)

	assert.ErrorIs(t, err, repo.listErr)
}
