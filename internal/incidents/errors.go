package incidents

import (
	"errors"
	"strings"

	"github.com/bissquit/opsdesk/internal/domain"
)

// Incident errors.
var (
	ErrIncidentNotFound = errors.New("incident not found")
)

// Field messages reported in validation errors.
const (
	msgTitle       = "Title must be at least 4 characters"
	msgDescription = "Description is required"
	msgSeverity    = "Severity must be S1..S4"
	msgTags        = "Tags must be an array of strings"
	msgCommander   = "Unknown commanderId"
	msgService     = "Unknown serviceId"
	msgReopen      = "Incident must be resolved to reopen"
)

var msgStatus = "Status must be one of " + joinStatuses(domain.IncidentStatuses())

func joinStatuses(statuses []domain.IncidentStatus) string {
	parts := make([]string, 0, len(statuses))
	for _, s := range statuses {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, ", ")
}

// FieldTypeMessages maps request fields to the message reported when the JSON
// value has the wrong type.
var FieldTypeMessages = map[string]string{
	"title":       msgTitle,
	"description": msgDescription,
	"severity":    msgSeverity,
	"tags":        msgTags,
	"commanderId": "commanderId must be a string or null",
	"serviceId":   "serviceId must be a string or null",
	"status":      msgStatus,
}
