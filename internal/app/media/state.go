// Package media holds the track wrappers a session hands to consumers.
package media

import "sync/atomic"

type TrackState int32

const (
	TrackStateDisabled TrackState = iota
	TrackStateEnabled
	TrackStateClosed
)

func (s TrackState) String() string {
	switch s {
	case TrackStateDisabled:
		return "disabled"
	case TrackStateEnabled:
		return "enabled"
	case TrackStateClosed:
		return "closed"
	}
	return "unknown"
}

// trackState is an atomic switch shared by inbound and outbound tracks.
// Zero value is disabled. Once closed it never reopens.
type trackState struct {
	v atomic.Int32
}

func (s *trackState) get() TrackState {
	return TrackState(s.v.Load())
}

func (s *trackState) setEnabled(on bool) {
	next := TrackStateDisabled
	if on {
		next = TrackStateEnabled
	}
	for {
		cur := s.v.Load()
		if TrackState(cur) == TrackStateClosed {
			return
		}
		if s.v.CompareAndSwap(cur, int32(next)) {
			return
		}
	}
}

func (s *trackState) close() bool {
	return TrackState(s.v.Swap(int32(TrackStateClosed))) != TrackStateClosed
}
