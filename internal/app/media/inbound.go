package media

import (
	"context"
	"sync/atomic"

	"github.com/dkeye/liveview/internal/core"
	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

// RTPSource is the part of *webrtc.TrackRemote the relay needs.
type RTPSource interface {
	ID() string
	Kind() webrtc.RTPCodecType
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
}

type Sink func(*rtp.Packet)

// InboundTrack keeps reading a remote track for its whole life and forwards
// packets to the sink only while enabled. Disabled tracks are still received.
type InboundTrack struct {
	src   RTPSource
	state trackState
	sink  atomic.Pointer[Sink]

	received  atomic.Uint64
	delivered atomic.Uint64

	cancel context.CancelFunc
	done   chan struct{}
}

var _ core.InboundTrack = (*InboundTrack)(nil)

// NewInboundTrack starts the read loop. Video tracks start enabled, audio starts disabled
// until the routing policy decides otherwise.
func NewInboundTrack(ctx context.Context, src RTPSource, logger zerolog.Logger) *InboundTrack {
	ctx, cancel := context.WithCancel(ctx)
	t := &InboundTrack{src: src, cancel: cancel, done: make(chan struct{})}
	if src.Kind() == webrtc.RTPCodecTypeVideo {
		t.state.setEnabled(true)
	}
	l := logger.With().Str("track", src.ID()).Str("kind", src.Kind().String()).Logger()
	go t.loop(ctx, &l)
	return t
}

func (t *InboundTrack) ID() string                { return t.src.ID() }
func (t *InboundTrack) Kind() webrtc.RTPCodecType { return t.src.Kind() }
func (t *InboundTrack) Enabled() bool             { return t.state.get() == TrackStateEnabled }
func (t *InboundTrack) SetEnabled(on bool)        { t.state.setEnabled(on) }
func (t *InboundTrack) State() TrackState         { return t.state.get() }

func (t *InboundTrack) SetSink(fn func(*rtp.Packet)) {
	if fn == nil {
		t.sink.Store(nil)
		return
	}
	s := Sink(fn)
	t.sink.Store(&s)
}

// Stats returns packets read from the transport and packets handed to the sink.
func (t *InboundTrack) Stats() (received, delivered uint64) {
	return t.received.Load(), t.delivered.Load()
}

// Close stops forwarding. The transport ends the read loop when the peer connection closes.
func (t *InboundTrack) Close() {
	t.state.close()
	t.cancel()
}

// Done is closed once the read loop has exited.
func (t *InboundTrack) Done() <-chan struct{} { return t.done }

func (t *InboundTrack) loop(ctx context.Context, logger *zerolog.Logger) {
	defer close(t.done)
	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("inbound track ctx done")
			t.state.close()
			return
		default:
		}
		pkt, _, err := t.src.ReadRTP()
		if err != nil {
			logger.Debug().Err(err).Msg("inbound track read ended")
			t.state.close()
			return
		}
		t.forward(pkt)
	}
}

func (t *InboundTrack) forward(pkt *rtp.Packet) {
	t.received.Add(1)
	if t.state.get() != TrackStateEnabled {
		return
	}
	sink := t.sink.Load()
	if sink == nil {
		return
	}
	(*sink)(pkt)
	t.delivered.Add(1)
}
