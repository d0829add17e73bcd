package session

import (
	"sync"

	"github.com/dkeye/liveview/internal/core"
)

type stateEvent struct {
	state  core.State
	reason string
}

type recordingObserver struct {
	mu     sync.Mutex
	states []stateEvent
	videos int
	audios int
}

func (o *recordingObserver) OnStateChange(_ core.SessionID, st core.State, reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, stateEvent{st, reason})
}

func (o *recordingObserver) OnVideoTrack(core.SessionID, core.InboundTrack) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.videos++
}

func (o *recordingObserver) OnAudioTrack(core.SessionID, core.InboundTrack) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.audios++
}

func (o *recordingObserver) stateList() []core.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]core.State, 0, len(o.states))
	for _, e := range o.states {
		out = append(out, e.state)
	}
	return out
}

func (o *recordingObserver) counts() (videos, audios int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.videos, o.audios
}
