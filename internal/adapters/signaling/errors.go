package signaling

import (
	"errors"
	"fmt"
)

var ErrInvalidSessionResponse = errors.New("signaling: invalid session response")

// SessionCreationError is returned when the start call answers with a status other than 200/201.
type SessionCreationError struct {
	StatusCode int
}

func (e *SessionCreationError) Error() string {
	return fmt.Sprintf("signaling: session creation failed with status %d", e.StatusCode)
}

// NetworkError wraps a transport-level failure of one signaling call.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("signaling: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
