// Package sessiontest provides a scripted media transport for session tests.
package sessiontest

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkeye/liveview/internal/app/media"
	"github.com/dkeye/liveview/internal/core"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	pmedia "github.com/pion/webrtc/v4/pkg/media"
)

const BaseOffer = "v=0\r\n" +
	"o=- 1 1 IN IP4 0.0.0.0\r\n" +
	"s=-\r\n" +
	"t=0 0\r\n" +
	"m=video 9 UDP/TLS/RTP/SAVPF 96\r\n" +
	"c=IN IP4 0.0.0.0\r\n" +
	"a=recvonly\r\n"

// CandidateLine returns a distinct host candidate attribute line.
func CandidateLine(i int) string {
	return fmt.Sprintf("a=candidate:%d 1 udp 2130706431 192.168.1.%d 5000%d typ host\r\n", i, i, i)
}

// Track is a core.InboundTrack that carries no media.
type Track struct {
	id      string
	kind    webrtc.RTPCodecType
	enabled atomic.Bool
}

func NewTrack(id string, kind webrtc.RTPCodecType) *Track {
	return &Track{id: id, kind: kind}
}

func (t *Track) ID() string                { return t.id }
func (t *Track) Kind() webrtc.RTPCodecType { return t.kind }
func (t *Track) Enabled() bool             { return t.enabled.Load() }
func (t *Track) SetEnabled(on bool)        { t.enabled.Store(on) }
func (t *Track) SetSink(func(*rtp.Packet)) {}

type sampleCounter struct {
	n atomic.Int32
}

func (c *sampleCounter) WriteSample(pmedia.Sample) error {
	c.n.Add(1)
	return nil
}

// Conn is a scripted core.MediaConnection. Configure it before handing it out.
type Conn struct {
	// Candidates is the number of candidate lines added to the local description.
	Candidates int
	Gathering  webrtc.ICEGatheringState
	OfferErr   error
	RemoteErr  error
	// AfterRemote runs in its own goroutine once the answer is applied.
	AfterRemote func(c *Conn)

	mu      sync.Mutex
	onTrack func(core.InboundTrack)
	onICE   func(webrtc.ICEConnectionState)
	local   *webrtc.SessionDescription
	remote  string
	closed  int
	samples *sampleCounter
	talk    *media.TalkTrack
}

func NewConn() *Conn {
	sc := &sampleCounter{}
	return &Conn{
		Candidates: 2,
		Gathering:  webrtc.ICEGatheringStateGathering,
		samples:    sc,
		talk:       media.NewTalkTrackWriter(sc),
	}
}

func (c *Conn) CreateOffer() (webrtc.SessionDescription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed > 0 {
		return webrtc.SessionDescription{}, errors.New("connection closed")
	}
	if c.OfferErr != nil {
		return webrtc.SessionDescription{}, c.OfferErr
	}
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: BaseOffer}, nil
}

func (c *Conn) SetLocalDescription(d webrtc.SessionDescription) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.local = &d
	return nil
}

func (c *Conn) LocalDescription() *webrtc.SessionDescription {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.local == nil {
		return nil
	}
	var b strings.Builder
	b.WriteString(c.local.SDP)
	for i := 1; i <= c.Candidates; i++ {
		b.WriteString(CandidateLine(i))
	}
	return &webrtc.SessionDescription{Type: c.local.Type, SDP: b.String()}
}

func (c *Conn) ICEGatheringState() webrtc.ICEGatheringState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Gathering
}

func (c *Conn) SetRemoteDescription(d webrtc.SessionDescription) error {
	c.mu.Lock()
	if c.RemoteErr != nil {
		c.mu.Unlock()
		return c.RemoteErr
	}
	c.remote = d.SDP
	after := c.AfterRemote
	c.mu.Unlock()
	if after != nil {
		go after(c)
	}
	return nil
}

func (c *Conn) TalkTrack() core.OutboundTrack { return c.talk }

func (c *Conn) OnTrack(fn func(core.InboundTrack)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTrack = fn
}

func (c *Conn) OnICEConnectionStateChange(fn func(webrtc.ICEConnectionState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onICE = fn
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

// Deliver fires the track callback as the transport would.
func (c *Conn) Deliver(t core.InboundTrack) {
	c.mu.Lock()
	fn := c.onTrack
	c.mu.Unlock()
	if fn != nil {
		fn(t)
	}
}

// ICE fires the connection state callback.
func (c *Conn) ICE(st webrtc.ICEConnectionState) {
	c.mu.Lock()
	fn := c.onICE
	c.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}

func (c *Conn) Remote() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remote
}

func (c *Conn) CloseCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Samples returns how many talk samples reached the transport.
func (c *Conn) Samples() int { return int(c.samples.n.Load()) }

func (c *Conn) Talk() *media.TalkTrack { return c.talk }

// DeliverVideoAfter is an AfterRemote hook delivering one video track.
func DeliverVideoAfter(d time.Duration) func(*Conn) {
	return func(c *Conn) {
		time.Sleep(d)
		c.Deliver(NewTrack("video", webrtc.RTPCodecTypeVideo))
	}
}

// DeliverAVAfter delivers a video then an audio track.
func DeliverAVAfter(d time.Duration) func(*Conn) {
	return func(c *Conn) {
		time.Sleep(d)
		c.Deliver(NewTrack("video", webrtc.RTPCodecTypeVideo))
		c.Deliver(NewTrack("audio", webrtc.RTPCodecTypeAudio))
	}
}

// Factory hands out connections; New is called once per session.
type Factory struct {
	New func(sid core.SessionID) (core.MediaConnection, error)
}

func (f Factory) NewMediaConnection(sid core.SessionID) (core.MediaConnection, error) {
	return f.New(sid)
}

// Static returns a factory that always yields conn.
func Static(conn core.MediaConnection) Factory {
	return Factory{New: func(core.SessionID) (core.MediaConnection, error) { return conn, nil }}
}

// Failing returns a factory that always fails with err.
func Failing(err error) Factory {
	return Factory{New: func(core.SessionID) (core.MediaConnection, error) { return nil, err }}
}
