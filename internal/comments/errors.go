package comments

import "errors"

// Comment errors.
var (
	ErrIncidentNotFound = errors.New("incident not found")
)

const msgBody = "Comment body is required"

// FieldTypeMessages maps request fields to the message reported when the JSON
// value has the wrong type.
var FieldTypeMessages = map[string]string{
	"body": msgBody,
}
