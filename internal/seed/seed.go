// Package seed builds the deterministic demo dataset the service starts with.
package seed

import (
	"fmt"
	"strings"
	"time"

	"github.com/bissquit/opsdesk/internal/domain"
	"github.com/bissquit/opsdesk/internal/storage/memory"
)

// BaseTime anchors every seeded timestamp.
var BaseTime = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

// Dataset sizes.
const (
	IncidentCount = 50
	CommentCount  = 30
	ActivityCount = 20
)

var tagsPool = []string{"db", "latency", "timeout", "deploy", "capacity", "edge", "auth", "payments"}

// Dataset returns the seed data relative to base. The result is identical for
// equal base values.
func Dataset(base time.Time) memory.Dataset {
	at := func(minutes int) time.Time {
		return base.Add(time.Duration(minutes) * time.Minute)
	}

	users := Users()
	services := Services(base)

	statuses := domain.IncidentStatuses()
	severities := domain.Severities()

	incs := make([]domain.Incident, 0, IncidentCount)
	for i := 1; i <= IncidentCount; i++ {
		id := seqID("inc", i)
		serviceID := seqID("svc", (i-1)%len(services)+1)
		severity := severities[(i-1)%len(severities)]
		status := statuses[(i-1)%len(statuses)]

		inc := domain.Incident{
			ID:          id,
			ServiceID:   &serviceID,
			Title:       fmt.Sprintf("Incident %s — %s %s", id, severity, serviceID),
			Description: fmt.Sprintf("Deterministic incident seed for %s. This text is intentionally mid-realistic.", serviceID),
			Status:      status,
			Severity:    severity,
			CommanderID: commanderFor(i),
			Tags:        []string{tagsPool[(i-1)%len(tagsPool)], tagsPool[(i+2)%len(tagsPool)]},
			CreatedAt:   at(-10000 - i*17),
			UpdatedAt:   at(-9990 - i*13),
		}
		if status != domain.IncidentStatusTriggered {
			ack := at(-9998 - i*13)
			inc.AcknowledgedAt = &ack
		}
		if status == domain.IncidentStatusResolved {
			resolved := at(-9988 - i*11)
			inc.ResolvedAt = &resolved
		}
		incs = append(incs, inc)
	}

	cmts := make([]domain.Comment, 0, CommentCount)
	for i := 1; i <= CommentCount; i++ {
		incidentID := seqID("inc", (i-1)%IncidentCount+1)
		cmts = append(cmts, domain.Comment{
			ID:         seqID("cmt", i),
			IncidentID: incidentID,
			AuthorID:   seqID("usr", (i-1)%len(users)+1),
			Body:       fmt.Sprintf("Comment %d on %s.", i, incidentID),
			CreatedAt:  at(-8000 - i*9),
		})
	}

	feed := make([]domain.ActivityEntry, 0, ActivityCount)
	for i := 1; i <= ActivityCount; i++ {
		entityType := domain.EntityIncident
		entityID := seqID("inc", (i-1)%IncidentCount+1)
		if i%3 == 0 {
			entityType = domain.EntityService
			entityID = seqID("svc", (i-1)%len(services)+1)
		}
		typ := domain.ActivityCreate
		if i%2 == 0 {
			typ = domain.ActivityUpdate
		}
		feed = append(feed, domain.ActivityEntry{
			ID:         seqID("act", i),
			Type:       typ,
			EntityType: entityType,
			EntityID:   entityID,
			Message:    fmt.Sprintf("Seed activity %d for %s %s.", i, entityType, entityID),
			CreatedAt:  at(-7000 - i*5),
		})
	}

	return memory.Dataset{
		Users:     users,
		Services:  services,
		Incidents: incs,
		Comments:  cmts,
		Activity:  feed,
	}
}

// Users returns the seeded responders.
func Users() []domain.User {
	type row struct {
		name   string
		role   domain.Role
		team   string
		onCall bool
	}
	rows := []row{
		{"Alex Kim", domain.RoleAdmin, "Platform", true},
		{"Priya Nair", domain.RoleResponder, "Payments", false},
		{"Marta Silva", domain.RoleResponder, "Core", true},
		{"Jordan Lee", domain.RoleViewer, "Support", false},
		{"Sam Patel", domain.RoleViewer, "Data", false},
		{"Chen Wei", domain.RoleResponder, "Edge", false},
	}

	users := make([]domain.User, 0, len(rows))
	for i, r := range rows {
		users = append(users, domain.User{
			ID:     seqID("usr", i+1),
			Name:   r.name,
			Email:  strings.ToLower(strings.ReplaceAll(r.name, " ", ".")) + "@opscc.local",
			Role:   r.role,
			Team:   r.team,
			OnCall: r.onCall,
		})
	}
	return users
}

// Services returns the seeded catalog.
func Services(base time.Time) []domain.Service {
	type row struct {
		name   string
		tier   int
		team   string
		status domain.ServiceStatus
	}
	rows := []row{
		{"Auth Gateway", 0, "Platform", domain.ServiceStatusActive},
		{"Payments API", 1, "Payments", domain.ServiceStatusDegraded},
		{"Search Indexer", 2, "Core", domain.ServiceStatusActive},
		{"Notification Fanout", 2, "Core", domain.ServiceStatusActive},
		{"Mobile Sync", 3, "Core", domain.ServiceStatusActive},
		{"Data Lake Writer", 1, "Data", domain.ServiceStatusActive},
		{"Edge Router", 0, "Edge", domain.ServiceStatusActive},
		{"Config Service", 1, "Platform", domain.ServiceStatusDegraded},
	}

	services := make([]domain.Service, 0, len(rows))
	for i, r := range rows {
		services = append(services, domain.Service{
			ID:        seqID("svc", i+1),
			Name:      r.name,
			Tier:      r.tier,
			OwnerTeam: r.team,
			Status:    r.status,
			CreatedAt: base.Add(time.Duration(-50000+i*1000) * time.Minute),
		})
	}
	return services
}

func commanderFor(i int) *string {
	var id string
	switch {
	case i%4 == 0:
		id = "usr_001"
	case i%7 == 0:
		id = "usr_003"
	default:
		return nil
	}
	return &id
}

func seqID(prefix string, n int) string {
	return fmt.Sprintf("%s_%03d", prefix, n)
}
