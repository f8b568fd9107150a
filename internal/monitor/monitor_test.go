package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/bissquit/opsdesk/internal/domain"
	"github.com/bissquit/opsdesk/internal/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	items []*domain.Incident
	err   error
}

func (f *fakeLister) ListIncidents(_ context.Context) ([]*domain.Incident, error) {
	return f.items, f.err
}

type fakeStats struct{ calls int }

func (f *fakeStats) Stats() metrics.StoreStats {
	f.calls++
	return metrics.StoreStats{IncidentsByStatus: map[string]int{}}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_InvalidSchedule(t *testing.T) {
	_, err := New(Config{Schedule: "every now and then"}, &fakeLister{}, nil, discardLogger())
	assert.Error(t, err)
}

func TestSweep_ReportsNewlyBreachedOnce(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	lister := &fakeLister{items: []*domain.Incident{
		{ID: "inc_001", Severity: domain.SeverityS1, Status: domain.IncidentStatusTriggered, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "inc_002", Severity: domain.SeverityS1, Status: domain.IncidentStatusResolved, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "inc_003", Severity: domain.SeverityS4, Status: domain.IncidentStatusInvestigating, CreatedAt: now.Add(-time.Hour)},
	}}
	stats := &fakeStats{}

	m, err := New(Config{Schedule: "@every 1m"}, lister, stats, discardLogger())
	require.NoError(t, err)
	m.now = func() time.Time { return now }

	first := m.Sweep(context.Background())
	assert.Equal(t, []string{"inc_001"}, first.NewlyBreached)
	assert.Equal(t, 1, first.BreachedBySeverity[domain.SeverityS1])
	assert.Equal(t, 0, first.BreachedBySeverity[domain.SeverityS4])

	second := m.Sweep(context.Background())
	assert.Empty(t, second.NewlyBreached, "already reported")
	assert.Equal(t, 1, second.BreachedBySeverity[domain.SeverityS1])

	m.now = func() time.Time { return now.Add(72 * time.Hour) }
	third := m.Sweep(context.Background())
	assert.Equal(t, []string{"inc_003"}, third.NewlyBreached)

	assert.Equal(t, 3, stats.calls)
}

func TestSweep_ListError(t *testing.T) {
	m, err := New(Config{Schedule: "@every 1m"}, &fakeLister{err: errors.New("boom")}, nil, discardLogger())
	require.NoError(t, err)

	result := m.Sweep(context.Background())

	assert.Empty(t, result.NewlyBreached)
	assert.Empty(t, result.BreachedBySeverity)
}

func TestStartStop(t *testing.T) {
	m, err := New(Config{Schedule: "@every 1h"}, &fakeLister{}, nil, discardLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	m.Start(ctx)
	m.Stop(ctx)
}
