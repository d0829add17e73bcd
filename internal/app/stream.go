package app

import (
	"context"

	"github.com/dkeye/liveview/internal/core"
	"github.com/dkeye/liveview/internal/domain"
)

// StreamSession is what the registry keeps of a running session.
type StreamSession interface {
	ID() core.SessionID
	Stop(ctx context.Context) error
	StartTalking() bool
	StopTalking()
}

// StreamInfo is the per-device row. Only the orchestrator writes it.
type StreamInfo struct {
	Device    domain.Device
	SessionID core.SessionID
	State     core.State
	Error     string
	Video     core.InboundTrack
	Audio     core.InboundTrack
	Talking   bool
}

// StreamStatus is the read-only view handed to consumers.
type StreamStatus struct {
	DeviceID     domain.DeviceID   `json:"device_id"`
	DeviceName   string            `json:"device_name"`
	DeviceKind   domain.DeviceKind `json:"device_kind"`
	SessionID    core.SessionID    `json:"session_id,omitempty"`
	State        core.State        `json:"state"`
	Error        string            `json:"error,omitempty"`
	HasVideo     bool              `json:"has_video"`
	HasAudio     bool              `json:"has_audio"`
	AudioEnabled bool              `json:"audio_enabled"`
	Active       bool              `json:"active"`
	Talking      bool              `json:"talking"`
}

func (i *StreamInfo) status(active bool) StreamStatus {
	st := StreamStatus{
		DeviceID:   i.Device.ID,
		DeviceName: i.Device.Name,
		DeviceKind: i.Device.Kind,
		SessionID:  i.SessionID,
		State:      i.State,
		Error:      i.Error,
		HasVideo:   i.Video != nil,
		HasAudio:   i.Audio != nil,
		Active:     active,
		Talking:    i.Talking,
	}
	if i.Audio != nil {
		st.AudioEnabled = i.Audio.Enabled()
	}
	return st
}

// Overview is a whole-table snapshot.
type Overview struct {
	Streams      []StreamStatus   `json:"streams"`
	ActiveDevice *domain.DeviceID `json:"active_device,omitempty"`
	Muted        bool             `json:"muted"`
	Connecting   bool             `json:"connecting"`
}
