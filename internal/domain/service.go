package domain

import "time"

// ServiceStatus represents the operational status of a catalog service.
type ServiceStatus string

// Service statuses.
const (
	ServiceStatusActive   ServiceStatus = "active"
	ServiceStatusDegraded ServiceStatus = "degraded"
)

// IsValid checks if the service status is valid.
func (s ServiceStatus) IsValid() bool {
	return s == ServiceStatusActive || s == ServiceStatusDegraded
}

// Service tier bounds. Tier 0 is the most critical.
const (
	MinServiceTier = 0
	MaxServiceTier = 3
)

// Service represents a service incidents can be attached to.
type Service struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Tier      int           `json:"tier"`
	OwnerTeam string        `json:"ownerTeam"`
	Status    ServiceStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}
