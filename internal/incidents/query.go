package incidents

import (
	"slices"
	"strings"
	"time"

	"github.com/bissquit/opsdesk/internal/domain"
	"golang.org/x/text/cases"
)

// SortOrder selects the ordering of a query result.
type SortOrder string

// Sort orders.
const (
	SortCreatedAtDesc SortOrder = "createdAt_desc"
	SortCreatedAtAsc  SortOrder = "createdAt_asc"
	SortSeverityAsc   SortOrder = "severity_asc"
	SortSeverityDesc  SortOrder = "severity_desc"
)

// DefaultSort is used when no sort or an unknown sort is requested.
const DefaultSort = SortCreatedAtDesc

// ParseSort returns the sort order named by s, or DefaultSort if s is not recognized.
func ParseSort(s string) SortOrder {
	switch o := SortOrder(s); o {
	case SortCreatedAtDesc, SortCreatedAtAsc, SortSeverityAsc, SortSeverityDesc:
		return o
	}
	return DefaultSort
}

// BreachFilter is a tri-state filter on SLA breach.
type BreachFilter string

// Breach filter values. Any other value applies no constraint.
const (
	BreachAny      BreachFilter = ""
	BreachOnly     BreachFilter = "true"
	BreachExcluded BreachFilter = "false"
)

// Filter holds the optional constraints of an incident query.
// Zero values mean "no constraint"; all set constraints must hold.
type Filter struct {
	Status    domain.IncidentStatus
	Severity  domain.Severity
	ServiceID string
	Breached  BreachFilter
	Q         string
}

// Query filters and orders incidents. Breach is evaluated at now.
// The input slice is left untouched; incidents with equal sort keys keep their
// relative input order.
func Query(items []*domain.Incident, f Filter, order SortOrder, now time.Time) []*domain.Incident {
	folder := cases.Fold()
	needle := folder.String(strings.TrimSpace(f.Q))

	result := make([]*domain.Incident, 0, len(items))
	for _, inc := range items {
		if f.Status != "" && inc.Status != f.Status {
			continue
		}
		if f.Severity != "" && inc.Severity != f.Severity {
			continue
		}
		if f.ServiceID != "" && (inc.ServiceID == nil || *inc.ServiceID != f.ServiceID) {
			continue
		}
		switch f.Breached {
		case BreachOnly:
			if !domain.IsBreached(inc, now) {
				continue
			}
		case BreachExcluded:
			if domain.IsBreached(inc, now) {
				continue
			}
		}
		if needle != "" && !strings.Contains(folder.String(haystack(inc)), needle) {
			continue
		}
		result = append(result, inc)
	}

	slices.SortStableFunc(result, comparator(ParseSort(string(order))))
	return result
}

func haystack(inc *domain.Incident) string {
	return inc.Title + "\n" + inc.Description + "\n" + strings.Join(inc.Tags, " ")
}

func comparator(order SortOrder) func(a, b *domain.Incident) int {
	switch order {
	case SortCreatedAtAsc:
		return func(a, b *domain.Incident) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortSeverityAsc:
		return func(a, b *domain.Incident) int { return a.Severity.Rank() - b.Severity.Rank() }
	case SortSeverityDesc:
		return func(a, b *domain.Incident) int { return b.Severity.Rank() - a.Severity.Rank() }
	default:
		return func(a, b *domain.Incident) int { return b.CreatedAt.Compare(a.CreatedAt) }
	}
}
