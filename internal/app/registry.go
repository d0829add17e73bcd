package app

import (
	"context"
	"sync"

	"github.com/dkeye/liveview/internal/core"
	"github.com/dkeye/liveview/internal/domain"
	"github.com/rs/zerolog/log"
)

type streamEntry struct {
	gen     uint64
	info    StreamInfo
	session StreamSession
	cancel  context.CancelFunc
}

// Detached is a session removed from the table that still has to be stopped.
type Detached struct {
	DeviceID domain.DeviceID
	Session  StreamSession
	Cancel   context.CancelFunc
}

// Registry is the per-device stream table plus the active-audio pointer.
// Audio routing changes happen under the write lock so readers never see
// two audible devices.
type Registry struct {
	policy AudioPolicy

	mu      sync.RWMutex
	streams map[domain.DeviceID]*streamEntry
	order   []domain.DeviceID
	active  *domain.DeviceID
	muted   bool
	gen     uint64

	subMu  sync.Mutex
	subs   map[int]chan struct{}
	nextID int
}

func NewRegistry(policy AudioPolicy) *Registry {
	if policy == nil {
		policy = SinglePlayback{}
	}
	return &Registry{
		policy:  policy,
		streams: make(map[domain.DeviceID]*streamEntry),
		subs:    make(map[int]chan struct{}),
	}
}

// Put adds an idle entry for the device, or resets an existing one keeping its position.
// The returned generation identifies this entry for Attach. The previous
// session, if any, is returned detached.
func (r *Registry) Put(d domain.Device) (uint64, *Detached) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	var prev *Detached
	if e, ok := r.streams[d.ID]; ok {
		if e.session != nil {
			prev = &Detached{DeviceID: d.ID, Session: e.session, Cancel: e.cancel}
		}
	} else {
		r.order = append(r.order, d.ID)
	}
	r.streams[d.ID] = &streamEntry{gen: gen, info: StreamInfo{Device: d, State: core.StateIdle}}
	r.mu.Unlock()

	log.Debug().Str("module", "app.registry").Int64("device", int64(d.ID)).Uint64("gen", gen).Msg("put stream")
	r.notify()
	return gen, prev
}

// Attach binds a freshly created session to the entry created by Put with gen.
// It refuses when the entry was replaced or removed since, or already holds a
// session; the caller then owns s and must stop it.
func (r *Registry) Attach(id domain.DeviceID, gen uint64, s StreamSession, cancel context.CancelFunc) bool {
	r.mu.Lock()
	e, ok := r.streams[id]
	ok = ok && e.gen == gen && e.session == nil
	if ok {
		e.session, e.cancel = s, cancel
		e.info.SessionID = s.ID()
		e.info.State = core.StateIdle
		e.info.Error = ""
		e.info.Video, e.info.Audio = nil, nil
		e.info.Talking = false
	}
	r.mu.Unlock()
	if !ok {
		log.Debug().Str("module", "app.registry").Int64("device", int64(id)).Uint64("gen", gen).Msg("attach refused, entry superseded")
		return false
	}
	log.Info().Str("module", "app.registry").Int64("device", int64(id)).Str("sid", string(s.ID())).Msg("bound session")
	r.notify()
	return true
}

// Update applies fn to the entry if sid still owns it. Stale events return false.
func (r *Registry) Update(id domain.DeviceID, sid core.SessionID, fn func(*StreamInfo)) bool {
	r.mu.Lock()
	e, ok := r.streams[id]
	if !ok || e.info.SessionID != sid {
		r.mu.Unlock()
		log.Debug().Str("module", "app.registry").Int64("device", int64(id)).Str("sid", string(sid)).Msg("stale event dropped")
		return false
	}
	fn(&e.info)
	r.mu.Unlock()
	r.notify()
	return true
}

// SetAudio records the inbound audio track and routes it per the policy.
func (r *Registry) SetAudio(id domain.DeviceID, sid core.SessionID, t core.InboundTrack) bool {
	r.mu.Lock()
	e, ok := r.streams[id]
	if !ok || e.info.SessionID != sid {
		r.mu.Unlock()
		return false
	}
	e.info.Audio = t
	if r.active == nil && r.policy.AutoActivate() {
		active := id
		r.active = &active
		log.Info().Str("module", "app.registry").Int64("device", int64(id)).Msg("first audio, device activated")
	}
	r.applyAudioLocked()
	r.mu.Unlock()
	r.notify()
	return true
}

// SetActive makes id the only audible device. Mute is cleared.
func (r *Registry) SetActive(id domain.DeviceID) (changed bool, known bool) {
	r.mu.Lock()
	if _, ok := r.streams[id]; !ok {
		r.mu.Unlock()
		return false, false
	}
	if r.active != nil && *r.active == id {
		r.mu.Unlock()
		return false, true
	}
	active := id
	r.active = &active
	r.muted = false
	r.applyAudioLocked()
	r.mu.Unlock()

	log.Info().Str("module", "app.registry").Int64("device", int64(id)).Msg("active device")
	r.notify()
	return true, true
}

// SetMuted toggles only the active device's audio.
func (r *Registry) SetMuted(muted bool) {
	r.mu.Lock()
	if r.muted == muted {
		r.mu.Unlock()
		return
	}
	r.muted = muted
	if r.active != nil {
		if e, ok := r.streams[*r.active]; ok && e.info.Audio != nil {
			e.info.Audio.SetEnabled(r.policy.Audible(*r.active, r.active, muted))
		}
	}
	r.mu.Unlock()
	r.notify()
}

func (r *Registry) applyAudioLocked() {
	for id, e := range r.streams {
		if e.info.Audio != nil {
			e.info.Audio.SetEnabled(r.policy.Audible(id, r.active, r.muted))
		}
	}
}

func (r *Registry) Session(id domain.DeviceID) (StreamSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.streams[id]
	if !ok || e.session == nil {
		return nil, false
	}
	return e.session, true
}

func (r *Registry) Stream(id domain.DeviceID) (StreamInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.streams[id]
	if !ok {
		return StreamInfo{}, false
	}
	return e.info, true
}

// Remove drops one entry and hands back its session.
func (r *Registry) Remove(id domain.DeviceID) (*Detached, bool) {
	r.mu.Lock()
	e, ok := r.streams[id]
	if !ok {
		r.mu.Unlock()
		return nil, false
	}
	delete(r.streams, id)
	for i, d := range r.order {
		if d == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.active != nil && *r.active == id {
		r.active = nil
	}
	r.mu.Unlock()

	log.Info().Str("module", "app.registry").Int64("device", int64(id)).Msg("removed stream")
	r.notify()
	if e.session == nil {
		return nil, true
	}
	return &Detached{DeviceID: id, Session: e.session, Cancel: e.cancel}, true
}

// DetachAll empties the table and resets the audio routing.
func (r *Registry) DetachAll() []Detached {
	r.mu.Lock()
	out := make([]Detached, 0, len(r.streams))
	for _, id := range r.order {
		e := r.streams[id]
		if e.session != nil {
			out = append(out, Detached{DeviceID: id, Session: e.session, Cancel: e.cancel})
		}
	}
	r.streams = make(map[domain.DeviceID]*streamEntry)
	r.order = nil
	r.active = nil
	r.muted = false
	r.mu.Unlock()

	log.Info().Str("module", "app.registry").Int("sessions", len(out)).Msg("detached all streams")
	r.notify()
	return out
}

func (r *Registry) Active() (domain.DeviceID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == nil {
		return 0, false
	}
	return *r.active, true
}

func (r *Registry) Muted() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.muted
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.streams)
}

// Snapshot returns the table in insertion order.
func (r *Registry) Snapshot() []StreamStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]StreamStatus, 0, len(r.order))
	for _, id := range r.order {
		e := r.streams[id]
		out = append(out, e.info.status(r.active != nil && *r.active == id))
	}
	return out
}

// Subscribe returns a channel signalled after every change. Signals coalesce.
func (r *Registry) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	r.subMu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = ch
	r.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.subMu.Lock()
			delete(r.subs, id)
			r.subMu.Unlock()
		})
	}
}

// Touch signals subscribers without changing the table.
func (r *Registry) Touch() { r.notify() }

func (r *Registry) notify() {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
