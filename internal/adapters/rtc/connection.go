package rtc

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/liveview/internal/app/media"
	"github.com/dkeye/liveview/internal/core"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Connection is the pion implementation of core.MediaConnection.
type Connection struct {
	pc     *webrtc.PeerConnection
	sid    core.SessionID
	talk   *media.TalkTrack
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	onTrack func(core.InboundTrack)
	onICE   func(webrtc.ICEConnectionState)
	inbound []*media.InboundTrack
	closed  bool

	closeOnce sync.Once
	closeErr  error
}

var _ core.MediaConnection = (*Connection)(nil)

func newConnection(ctx context.Context, pc *webrtc.PeerConnection, sid core.SessionID) (*Connection, error) {
	talk, err := media.NewTalkTrack()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	c := &Connection{
		pc:     pc,
		sid:    sid,
		talk:   talk,
		ctx:    ctx,
		cancel: cancel,
		logger: log.With().Str("module", "webrtc").Str("sid", string(sid)).Logger(),
	}

	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo,
		webrtc.RTPTransceiverInit{Direction: webrtc.RTPTransceiverDirectionRecvonly}); err != nil {
		cancel()
		return nil, err
	}
	tr, err := pc.AddTransceiverFromTrack(talk.Local(),
		webrtc.RTPTransceiverInit{Direction: webrtc.RTPTransceiverDirectionSendrecv})
	if err != nil {
		cancel()
		return nil, err
	}
	go c.drainRTCP(tr.Sender())

	c.bind()
	return c, nil
}

func (c *Connection) bind() {
	c.pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		c.logger.Info().Str("ice_state", s.String()).Msg("ICE state")
		c.mu.Lock()
		fn := c.onICE
		c.mu.Unlock()
		if fn != nil {
			fn(s)
		}
	})

	c.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		c.logger.Debug().Str("peer_connection_state", s.String()).Msg("Peer state")
	})

	c.pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil {
			c.logger.Debug().Msg("ICE gathering finished")
			return
		}
		c.logger.Trace().Str("candidate", cand.String()).Msg("ICE candidate")
	})

	c.pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		c.logger.Info().
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Str("codec", track.Codec().MimeType).
			Msg("OnTrack received")

		in := media.NewInboundTrack(c.ctx, track, c.logger)
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			in.Close()
			return
		}
		c.inbound = append(c.inbound, in)
		fn := c.onTrack
		c.mu.Unlock()
		if fn != nil {
			fn(in)
		}
	})
}

// drainRTCP keeps the sender's interceptors fed; it ends when the connection closes.
func (c *Connection) drainRTCP(sender *webrtc.RTPSender) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := sender.Read(buf); err != nil {
			return
		}
	}
}

func (c *Connection) CreateOffer() (webrtc.SessionDescription, error) {
	return c.pc.CreateOffer(nil)
}

func (c *Connection) SetLocalDescription(d webrtc.SessionDescription) error {
	return c.pc.SetLocalDescription(d)
}

func (c *Connection) LocalDescription() *webrtc.SessionDescription {
	return c.pc.LocalDescription()
}

func (c *Connection) ICEGatheringState() webrtc.ICEGatheringState {
	return c.pc.ICEGatheringState()
}

func (c *Connection) SetRemoteDescription(d webrtc.SessionDescription) error {
	return c.pc.SetRemoteDescription(d)
}

func (c *Connection) TalkTrack() core.OutboundTrack { return c.talk }

func (c *Connection) OnTrack(fn func(core.InboundTrack)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTrack = fn
}

func (c *Connection) OnICEConnectionStateChange(fn func(webrtc.ICEConnectionState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onICE = fn
}

// Close releases the peer connection and every track. Repeated calls return the first result.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.onTrack, c.onICE = nil, nil
		tracks := c.inbound
		c.inbound = nil
		c.mu.Unlock()

		c.cancel()
		c.talk.Close()
		for _, t := range tracks {
			t.Close()
		}
		if err := c.pc.Close(); err != nil && !errors.Is(err, webrtc.ErrConnectionClosed) {
			c.logger.Error().Err(err).Msg("close error")
			c.closeErr = err
			return
		}
		c.logger.Info().Msg("closed")
	})
	return c.closeErr
}
