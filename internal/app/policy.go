package app

import "github.com/dkeye/liveview/internal/domain"

// AudioPolicy decides which inbound audio tracks play. Every track keeps
// receiving; the policy only drives the enabled flag.
type AudioPolicy interface {
	Audible(device domain.DeviceID, active *domain.DeviceID, muted bool) bool
	// AutoActivate reports whether the first device delivering audio becomes active.
	AutoActivate() bool
}

// SinglePlayback plays exactly the active device unless muted.
type SinglePlayback struct {
	Manual bool
}

func (SinglePlayback) Audible(device domain.DeviceID, active *domain.DeviceID, muted bool) bool {
	return active != nil && *active == device && !muted
}

func (p SinglePlayback) AutoActivate() bool { return !p.Manual }
