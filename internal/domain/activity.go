package domain

import "time"

// ActivityType describes what kind of mutation produced an activity entry.
type ActivityType string

// Activity types.
const (
	ActivityCreate  ActivityType = "create"
	ActivityUpdate  ActivityType = "update"
	ActivityDelete  ActivityType = "delete"
	ActivityReopen  ActivityType = "reopen"
	ActivityComment ActivityType = "comment"
)

// EntityType is the kind of entity an activity entry refers to.
type EntityType string

// Entity types.
const (
	EntityIncident EntityType = "incident"
	EntityService  EntityType = "service"
)

// ActivityEntry is one human-readable record in the activity feed.
// Every successful mutation produces exactly one entry.
type ActivityEntry struct {
	ID         string       `json:"id"`
	Type       ActivityType `json:"type"`
	EntityType EntityType   `json:"entityType"`
	EntityID   string       `json:"entityId"`
	Message    string       `json:"message"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// Comment is a note left on an incident by a responder.
type Comment struct {
	ID         string    `json:"id"`
	IncidentID string    `json:"incidentId"`
	AuthorID   string    `json:"authorId"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}
