package session

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyStarted         = errors.New("session: already started")
	ErrPeerConnectionNotReady = errors.New("session: peer connection not ready")
	ErrSessionStopped         = errors.New("session: stopped")
	ErrSessionFailed          = errors.New("session: failed")
)

type OfferCreationError struct {
	Err error
}

func (e *OfferCreationError) Error() string { return fmt.Sprintf("offer creation failed: %v", e.Err) }
func (e *OfferCreationError) Unwrap() error { return e.Err }

type AnswerCreationError struct {
	Err error
}

func (e *AnswerCreationError) Error() string { return fmt.Sprintf("answer creation failed: %v", e.Err) }
func (e *AnswerCreationError) Unwrap() error { return e.Err }
