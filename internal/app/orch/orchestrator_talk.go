package orch

import (
	"github.com/dkeye/liveview/internal/app"
	"github.com/dkeye/liveview/internal/domain"
	"github.com/rs/zerolog/log"
)

// StartTalking enables push-to-talk on the device. A device without a
// session is a no-op.
func (o *Orchestrator) StartTalking(id domain.DeviceID) bool {
	s, ok := o.Registry.Session(id)
	if !ok {
		log.Info().Str("module", "orch").Int64("device", int64(id)).Msg("talk: no session")
		return false
	}
	if !s.StartTalking() {
		log.Debug().Str("module", "orch").Int64("device", int64(id)).Msg("talk: session not connected")
		return false
	}
	o.Registry.Update(id, s.ID(), func(i *app.StreamInfo) { i.Talking = true })
	return true
}

func (o *Orchestrator) StopTalking(id domain.DeviceID) {
	s, ok := o.Registry.Session(id)
	if !ok {
		log.Info().Str("module", "orch").Int64("device", int64(id)).Msg("talk: no session")
		return
	}
	s.StopTalking()
	o.Registry.Update(id, s.ID(), func(i *app.StreamInfo) { i.Talking = false })
}
