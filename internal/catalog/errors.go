package catalog

import "errors"

// Catalog errors.
var (
	ErrServiceNotFound = errors.New("service not found")
)

// Field messages reported in validation errors.
const (
	msgName      = "Name must be at least 2 characters"
	msgTier      = "Tier must be 0, 1, 2, or 3"
	msgOwnerTeam = "Owner team must be at least 2 characters"
	msgStatus    = "Status must be active or degraded"
)

// FieldTypeMessages maps request fields to the message reported when the JSON
// value has the wrong type.
var FieldTypeMessages = map[string]string{
	"name":      msgName,
	"tier":      msgTier,
	"ownerTeam": msgOwnerTeam,
	"status":    msgStatus,
}
