// Package monitor runs the scheduled SLA breach sweep.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/bissquit/opsdesk/internal/domain"
	"github.com/bissquit/opsdesk/internal/pkg/metrics"
	"github.com/robfig/cron/v3"
)

// IncidentLister provides the incidents to sweep.
type IncidentLister interface {
	ListIncidents(ctx context.Context) ([]*domain.Incident, error)
}

// StatsSource provides store collection sizes.
type StatsSource interface {
	Stats() metrics.StoreStats
}

// Config holds monitor settings.
type Config struct {
	// Schedule is a cron spec or descriptor such as "@every 1m".
	Schedule string
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	BreachedBySeverity map[domain.Severity]int
	NewlyBreached      []string
}

// Monitor periodically evaluates SLA breach across all incidents, publishes
// breach gauges and logs incidents that crossed their SLA window since the
// previous sweep.
type Monitor struct {
	incidents IncidentLister
	stats     StatsSource
	logger    *slog.Logger
	now       func() time.Time
	cron      *cron.Cron

	mu       sync.Mutex
	breached map[string]bool
}

// New creates a monitor. It fails if the schedule cannot be parsed.
func New(cfg Config, incidents IncidentLister, stats StatsSource, logger *slog.Logger) (*Monitor, error) {
	m := &Monitor{
		incidents: incidents,
		stats:     stats,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		breached:  make(map[string]bool),
	}

	cronLogger := slogAdapter{logger: logger}
	m.cron = cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	if _, err := m.cron.AddFunc(cfg.Schedule, func() { m.Sweep(context.Background()) }); err != nil {
		return nil, fmt.Errorf("parse monitor schedule %q: %w", cfg.Schedule, err)
	}

	return m, nil
}

// Start runs an immediate sweep and then starts the schedule.
func (m *Monitor) Start(ctx context.Context) {
	m.Sweep(ctx)
	m.cron.Start()
	m.logger.Info("sla monitor started", "entries", len(m.cron.Entries()))
}

// Stop stops the schedule and waits for a running sweep, bounded by ctx.
func (m *Monitor) Stop(ctx context.Context) {
	done := m.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		m.logger.Warn("sla monitor stop timed out")
	}
}

// Sweep evaluates breach for every incident at the current time.
func (m *Monitor) Sweep(ctx context.Context) SweepResult {
	result := SweepResult{BreachedBySeverity: make(map[domain.Severity]int)}

	if m.stats != nil {
		metrics.RecordStoreMetrics(m.stats.Stats())
	}

	items, err := m.incidents.ListIncidents(ctx)
	if err != nil {
		m.logger.Error("sla sweep failed", "error", err)
		return result
	}

	now := m.now()
	current := make(map[string]bool)
	for _, inc := range items {
		if !domain.IsBreached(inc, now) {
			continue
		}
		current[inc.ID] = true
		result.BreachedBySeverity[inc.Severity]++
	}

	m.mu.Lock()
	for id := range current {
		if !m.breached[id] {
			result.NewlyBreached = append(result.NewlyBreached, id)
		}
	}
	m.breached = current
	m.mu.Unlock()

	slices.Sort(result.NewlyBreached)

	for _, sev := range domain.Severities() {
		metrics.IncidentsBreached.WithLabelValues(string(sev)).Set(float64(result.BreachedBySeverity[sev]))
	}

	for _, id := range result.NewlyBreached {
		m.logger.Warn("incident breached sla", "incident_id", id)
	}
	m.logger.Debug("sla sweep completed",
		"incidents", len(items),
		"breached", len(current),
		"newly_breached", len(result.NewlyBreached),
	)

	return result
}

// slogAdapter implements cron.Logger on top of slog.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Info(msg string, keysAndValues ...any) {
	a.logger.Debug("cron: "+msg, keysAndValues...)
}

func (a slogAdapter) Error(err error, msg string, keysAndValues ...any) {
	a.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
