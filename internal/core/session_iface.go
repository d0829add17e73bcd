package core

import (
	"fmt"
	"strings"
)

type SessionID string

// State is the negotiation state of one live view session.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateCreatingOffer
	StateNegotiating
	StateConnected
	StateFailed
	StateDisconnected
)

var stateNames = [...]string{
	StateIdle:          "idle",
	StateConnecting:    "connecting",
	StateCreatingOffer: "creatingOffer",
	StateNegotiating:   "negotiating",
	StateConnected:     "connected",
	StateFailed:        "failed",
	StateDisconnected:  "disconnected",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further transition is allowed without a fresh start.
func (s State) Terminal() bool {
	return s == StateFailed || s == StateDisconnected
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	name := strings.TrimSpace(string(b))
	for i, n := range stateNames {
		if n == name {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", name)
}
