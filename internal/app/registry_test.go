package app

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/dkeye/liveview/internal/core"
	"github.com/dkeye/liveview/internal/domain"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSession struct{ id core.SessionID }

func (s stubSession) ID() core.SessionID         { return s.id }
func (s stubSession) Stop(context.Context) error { return nil }
func (s stubSession) StartTalking() bool         { return true }
func (s stubSession) StopTalking()               {}

type audioTrack struct{ on atomic.Bool }

func (a *audioTrack) ID() string                { return "audio" }
func (a *audioTrack) Kind() webrtc.RTPCodecType { return webrtc.RTPCodecTypeAudio }
func (a *audioTrack) Enabled() bool             { return a.on.Load() }
func (a *audioTrack) SetEnabled(on bool)        { a.on.Store(on) }
func (a *audioTrack) SetSink(func(*rtp.Packet)) {}

func device(id domain.DeviceID) domain.Device {
	return domain.Device{ID: id, Name: "cam", Kind: domain.DeviceKindCamera}
}

// withAudio registers n devices, each with a bound session and an audio track.
func withAudio(t *testing.T, r *Registry, ids ...domain.DeviceID) map[domain.DeviceID]*audioTrack {
	t.Helper()
	tracks := make(map[domain.DeviceID]*audioTrack)
	for _, id := range ids {
		gen, _ := r.Put(device(id))
		sid := core.SessionID("s-" + id.String())
		require.True(t, r.Attach(id, gen, stubSession{id: sid}, func() {}))
		tr := &audioTrack{}
		require.True(t, r.SetAudio(id, sid, tr))
		tracks[id] = tr
	}
	return tracks
}

func enabledSet(tracks map[domain.DeviceID]*audioTrack) []domain.DeviceID {
	var out []domain.DeviceID
	for id, tr := range tracks {
		if tr.Enabled() {
			out = append(out, id)
		}
	}
	return out
}

func TestRegistry_FirstAudioBecomesActive(t *testing.T) {
	r := NewRegistry(nil)
	tracks := withAudio(t, r, 1, 2, 3)

	active, ok := r.Active()
	require.True(t, ok)
	assert.Equal(t, domain.DeviceID(1), active)
	assert.ElementsMatch(t, []domain.DeviceID{1}, enabledSet(tracks))
}

func TestRegistry_ManualPolicy(t *testing.T) {
	r := NewRegistry(SinglePlayback{Manual: true})
	tracks := withAudio(t, r, 1, 2)
	_, ok := r.Active()
	assert.False(t, ok)
	assert.Empty(t, enabledSet(tracks))
}

func TestRegistry_SetActiveSwitchesExactlyOne(t *testing.T) {
	r := NewRegistry(nil)
	tracks := withAudio(t, r, 10, 20)

	changed, known := r.SetActive(20)
	assert.True(t, changed)
	assert.True(t, known)
	assert.ElementsMatch(t, []domain.DeviceID{20}, enabledSet(tracks))

	changed, _ = r.SetActive(20)
	assert.False(t, changed)

	r.SetActive(10)
	assert.ElementsMatch(t, []domain.DeviceID{10}, enabledSet(tracks))

	_, known = r.SetActive(99)
	assert.False(t, known)
	assert.ElementsMatch(t, []domain.DeviceID{10}, enabledSet(tracks))
}

func TestRegistry_Mute(t *testing.T) {
	r := NewRegistry(nil)
	tracks := withAudio(t, r, 1, 2)

	r.SetMuted(true)
	assert.True(t, r.Muted())
	assert.Empty(t, enabledSet(tracks))

	r.SetMuted(false)
	assert.ElementsMatch(t, []domain.DeviceID{1}, enabledSet(tracks))

	r.SetMuted(true)
	r.SetActive(2)
	assert.False(t, r.Muted())
	assert.ElementsMatch(t, []domain.DeviceID{2}, enabledSet(tracks))
}

func TestRegistry_StaleUpdatesDropped(t *testing.T) {
	r := NewRegistry(nil)
	gen, _ := r.Put(device(1))
	require.True(t, r.Attach(1, gen, stubSession{id: "new"}, nil))

	assert.False(t, r.Update(1, "old", func(i *StreamInfo) { i.State = core.StateFailed }))
	assert.False(t, r.SetAudio(1, "old", &audioTrack{}))
	assert.True(t, r.Update(1, "new", func(i *StreamInfo) { i.State = core.StateConnected }))
	assert.False(t, r.Update(2, "new", func(*StreamInfo) {}))

	info, ok := r.Stream(1)
	require.True(t, ok)
	assert.Equal(t, core.StateConnected, info.State)
	assert.Nil(t, info.Audio)
}

func TestRegistry_SnapshotOrderAndDetach(t *testing.T) {
	r := NewRegistry(nil)
	withAudio(t, r, 3, 1, 2)

	snap := r.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, domain.DeviceID(3), snap[0].DeviceID)
	assert.True(t, snap[0].Active)
	assert.True(t, snap[0].AudioEnabled)
	assert.False(t, snap[1].AudioEnabled)

	det := r.DetachAll()
	assert.Len(t, det, 3)
	assert.Equal(t, 0, r.Len())
	_, ok := r.Active()
	assert.False(t, ok)
	assert.Empty(t, r.Snapshot())
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry(nil)
	withAudio(t, r, 1, 2)

	det, ok := r.Remove(1)
	require.True(t, ok)
	require.NotNil(t, det)
	assert.Equal(t, core.SessionID("s-1"), det.Session.ID())
	_, ok = r.Active()
	assert.False(t, ok)

	_, ok = r.Remove(1)
	assert.False(t, ok)
	assert.Len(t, r.Snapshot(), 1)
}

func TestRegistry_PutReturnsPrevious(t *testing.T) {
	r := NewRegistry(nil)
	r.Put(device(1))
	gen, prev := r.Put(device(1))
	assert.Nil(t, prev)
	require.True(t, r.Attach(1, gen, stubSession{id: "a"}, nil))
	_, prev = r.Put(device(1))
	require.NotNil(t, prev)
	assert.Equal(t, core.SessionID("a"), prev.Session.ID())
	info, _ := r.Stream(1)
	assert.Equal(t, core.StateIdle, info.State)
	assert.Empty(t, info.SessionID)
}

func TestRegistry_AttachBoundToGeneration(t *testing.T) {
	r := NewRegistry(nil)
	first, _ := r.Put(device(1))
	second, _ := r.Put(device(1))
	assert.NotEqual(t, first, second)

	assert.False(t, r.Attach(1, first, stubSession{id: "old"}, nil))
	require.True(t, r.Attach(1, second, stubSession{id: "new"}, nil))
	assert.False(t, r.Attach(1, second, stubSession{id: "dup"}, nil))

	info, ok := r.Stream(1)
	require.True(t, ok)
	assert.Equal(t, core.SessionID("new"), info.SessionID)

	det := r.DetachAll()
	require.Len(t, det, 1)
	assert.Equal(t, core.SessionID("new"), det[0].Session.ID())

	again, _ := r.Put(device(1))
	assert.False(t, r.Attach(1, second, stubSession{id: "late"}, nil))
	assert.True(t, r.Attach(1, again, stubSession{id: "fresh"}, nil))
}

func TestRegistry_SubscribeCoalesces(t *testing.T) {
	r := NewRegistry(nil)
	ch, cancel := r.Subscribe()
	r.Put(device(1))
	r.Put(device(2))
	<-ch
	select {
	case <-ch:
		t.Fatal("signals should coalesce")
	default:
	}
	cancel()
	cancel()
	r.Put(device(3))
	select {
	case <-ch:
		t.Fatal("cancelled subscriber signalled")
	default:
	}
}
