package domain

import (
	"fmt"
	"math"
	"time"
)

// BreachedLabel is the remaining-time label of a breached incident.
const BreachedLabel = "BREACHED"

// SLA is the SLA state of an incident at a given instant.
// It is always derived, never stored.
type SLA struct {
	TargetMinutes    float64 `json:"targetMinutes"`
	AgeMinutes       float64 `json:"ageMinutes"`
	RemainingMinutes float64 `json:"remainingMinutes"`
	Breached         bool    `json:"breached"`
	RemainingLabel   string  `json:"remainingLabel"`
}

// ComputeSLA computes the SLA state of the incident at now.
// A resolved incident is never breached.
func ComputeSLA(inc *Incident, now time.Time) SLA {
	target := inc.Severity.SLATarget()
	age := float64(now.Sub(inc.CreatedAt)) / float64(time.Minute)
	remaining := target - age
	breached := !inc.Status.IsResolved() && remaining < 0

	label := BreachedLabel
	if !breached {
		label = FormatRemaining(remaining)
	}

	return SLA{
		TargetMinutes:    target,
		AgeMinutes:       age,
		RemainingMinutes: remaining,
		Breached:         breached,
		RemainingLabel:   label,
	}
}

// IsBreached reports whether the incident is past its SLA window at now.
func IsBreached(inc *Incident, now time.Time) bool {
	return ComputeSLA(inc, now).Breached
}

// FormatRemaining renders a minute count as "45m", "2h" or "2h 5m".
// Negative values render as "0m".
func FormatRemaining(minutes float64) string {
	if minutes < 0 {
		return "0m"
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm", int(math.Floor(minutes)))
	}

	hours := int(math.Floor(minutes / 60))
	rest := int(math.Floor(math.Mod(minutes, 60)))
	if rest > 0 {
		return fmt.Sprintf("%dh %dm", hours, rest)
	}
	return fmt.Sprintf("%dh", hours)
}
