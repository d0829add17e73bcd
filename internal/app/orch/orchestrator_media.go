package orch

import (
	"github.com/dkeye/liveview/internal/app"
	"github.com/dkeye/liveview/internal/core"
	"github.com/dkeye/liveview/internal/domain"
	"github.com/rs/zerolog/log"
)

// deviceObserver carries only the device id; events are resolved against the
// table and dropped once the session no longer owns the entry.
type deviceObserver struct {
	o      *Orchestrator
	device domain.DeviceID
}

func (d deviceObserver) OnStateChange(sid core.SessionID, st core.State, reason string) {
	d.o.Registry.Update(d.device, sid, func(i *app.StreamInfo) {
		i.State = st
		if st == core.StateFailed {
			i.Error = reason
		}
		if st.Terminal() {
			i.Talking = false
		}
		if st == core.StateDisconnected {
			i.Video, i.Audio = nil, nil
		}
	})
}

func (d deviceObserver) OnVideoTrack(sid core.SessionID, t core.InboundTrack) {
	d.o.Registry.Update(d.device, sid, func(i *app.StreamInfo) { i.Video = t })
}

func (d deviceObserver) OnAudioTrack(sid core.SessionID, t core.InboundTrack) {
	d.o.Registry.SetAudio(d.device, sid, t)
}

// SetActiveDevice makes id the only audible device and clears mute.
func (o *Orchestrator) SetActiveDevice(id domain.DeviceID) error {
	changed, known := o.Registry.SetActive(id)
	if !known {
		return ErrUnknownDevice
	}
	if !changed {
		log.Debug().Str("module", "orch").Int64("device", int64(id)).Msg("device already active")
	}
	return nil
}

func (o *Orchestrator) SetMuted(muted bool) {
	o.Registry.SetMuted(muted)
}

func (o *Orchestrator) ActiveDevice() (domain.DeviceID, bool) { return o.Registry.Active() }

func (o *Orchestrator) Muted() bool { return o.Registry.Muted() }
