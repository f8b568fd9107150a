package identity

import "errors"

// Identity errors.
var (
	ErrUserNotFound = errors.New("user not found")
)
