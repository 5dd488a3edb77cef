package session

import "errors"

// Sentinel errors for session operations. Callers should check them with
// errors.Is().
var (
	// ErrNotFound indicates the session does not exist or has expired.
	// The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("session not found")
)
