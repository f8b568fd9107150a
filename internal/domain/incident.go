// Package domain contains the entities, enums and pure rules shared by every module.
package domain

import (
	"slices"
	"time"
)

// IncidentStatus represents the lifecycle status of an incident.
type IncidentStatus string

// Incident statuses, in lifecycle order.
const (
	IncidentStatusTriggered     IncidentStatus = "triggered"
	IncidentStatusAcknowledged  IncidentStatus = "acknowledged"
	IncidentStatusInvestigating IncidentStatus = "investigating"
	IncidentStatusMitigated     IncidentStatus = "mitigated"
	IncidentStatusResolved      IncidentStatus = "resolved"
)

// IncidentStatuses returns all statuses in lifecycle order.
// This list is the single source for the status set; api/openapi/openapi.yaml mirrors it.
func IncidentStatuses() []IncidentStatus {
	return []IncidentStatus{
		IncidentStatusTriggered,
		IncidentStatusAcknowledged,
		IncidentStatusInvestigating,
		IncidentStatusMitigated,
		IncidentStatusResolved,
	}
}

// IsValid checks if the status is one of the known statuses.
func (s IncidentStatus) IsValid() bool {
	switch s {
	case IncidentStatusTriggered, IncidentStatusAcknowledged,
		IncidentStatusInvestigating, IncidentStatusMitigated,
		IncidentStatusResolved:
		return true
	}
	return false
}

// IsResolved checks if the status is the terminal resolved status.
func (s IncidentStatus) IsResolved() bool {
	return s == IncidentStatusResolved
}

// NextStatuses returns the statuses directly reachable from s by a normal transition.
// Resolved has no outgoing edges: leaving it is only possible through reopen.
func (s IncidentStatus) NextStatuses() []IncidentStatus {
	switch s {
	case IncidentStatusTriggered:
		return []IncidentStatus{IncidentStatusAcknowledged}
	case IncidentStatusAcknowledged:
		return []IncidentStatus{IncidentStatusInvestigating}
	case IncidentStatusInvestigating:
		return []IncidentStatus{IncidentStatusMitigated, IncidentStatusResolved}
	case IncidentStatusMitigated:
		return []IncidentStatus{IncidentStatusResolved}
	case IncidentStatusResolved:
		return []IncidentStatus{}
	}
	return []IncidentStatus{}
}

// CanTransition reports whether moving from one status to another is a legal transition.
func CanTransition(from, to IncidentStatus) bool {
	return slices.Contains(from.NextStatuses(), to)
}

// Severity represents the SLA class of an incident.
type Severity string

// Severity levels, most urgent first.
const (
	SeverityS1 Severity = "S1"
	SeverityS2 Severity = "S2"
	SeverityS3 Severity = "S3"
	SeverityS4 Severity = "S4"
)

// DefaultSLATargetMinutes is used for severities outside the known set.
const DefaultSLATargetMinutes = 240

// Severities returns all severities from most to least urgent.
func Severities() []Severity {
	return []Severity{SeverityS1, SeverityS2, SeverityS3, SeverityS4}
}

// IsValid checks if the severity is valid.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityS1, SeverityS2, SeverityS3, SeverityS4:
		return true
	}
	return false
}

// SLATarget returns the SLA window in minutes for the severity.
func (s Severity) SLATarget() float64 {
	switch s {
	case SeverityS1:
		return 60
	case SeverityS2:
		return 240
	case SeverityS3:
		return 1440
	case SeverityS4:
		return 4320
	default:
		return DefaultSLATargetMinutes
	}
}

// Rank returns the urgency order of the severity (S1 = 0).
// Unknown severities rank after S4.
func (s Severity) Rank() int {
	switch s {
	case SeverityS1:
		return 0
	case SeverityS2:
		return 1
	case SeverityS3:
		return 2
	case SeverityS4:
		return 3
	default:
		return 4
	}
}

// Incident represents a tracked operational problem.
type Incident struct {
	ID             string         `json:"id"`
	ServiceID      *string        `json:"serviceId"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Status         IncidentStatus `json:"status"`
	Severity       Severity       `json:"severity"`
	CommanderID    *string        `json:"commanderId"`
	Tags           []string       `json:"tags"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	AcknowledgedAt *time.Time     `json:"acknowledgedAt"`
	ResolvedAt     *time.Time     `json:"resolvedAt"`
}

// Clone returns a deep copy of the incident.
func (i *Incident) Clone() *Incident {
	c := *i
	c.ServiceID = clonePtr(i.ServiceID)
	c.CommanderID = clonePtr(i.CommanderID)
	c.AcknowledgedAt = clonePtr(i.AcknowledgedAt)
	c.ResolvedAt = clonePtr(i.ResolvedAt)
	c.Tags = append(make([]string, 0, len(i.Tags)), i.Tags...)
	return &c
}

// ApplyStatus moves the incident to status at the given instant and keeps the
// lifecycle timestamps consistent. It does not check the transition table.
func (i *Incident) ApplyStatus(status IncidentStatus, at time.Time) {
	prev := i.Status
	i.Status = status
	switch status {
	case IncidentStatusAcknowledged:
		i.AcknowledgedAt = &at
	case IncidentStatusResolved:
		i.ResolvedAt = &at
	}
	if prev.IsResolved() && !status.IsResolved() {
		i.ResolvedAt = nil
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
