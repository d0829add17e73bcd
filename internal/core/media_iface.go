package core

import (
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
)

// MediaConnection is the peer-connection surface a live view session drives.
// Implementations own the underlying transport; callbacks may fire on any goroutine.
type MediaConnection interface {
	// CreateOffer returns an offer that receives video and audio and sends talk audio.
	CreateOffer() (webrtc.SessionDescription, error)
	SetLocalDescription(webrtc.SessionDescription) error
	// LocalDescription returns the current local SDP including gathered candidates.
	LocalDescription() *webrtc.SessionDescription
	ICEGatheringState() webrtc.ICEGatheringState
	SetRemoteDescription(webrtc.SessionDescription) error
	// TalkTrack is the locally generated outbound audio track, initially disabled.
	TalkTrack() OutboundTrack
	// OnTrack sets a callback that will be invoked when a new remote track arrives.
	OnTrack(func(InboundTrack))
	OnICEConnectionStateChange(func(webrtc.ICEConnectionState))
	// Close should stop all underlying media resources.
	Close() error
}

// MediaFactory builds one configured MediaConnection per session attempt.
type MediaFactory interface {
	NewMediaConnection(sid SessionID) (MediaConnection, error)
}

// InboundTrack is a remote track with a local playback switch.
// Media keeps flowing from the transport while disabled; only delivery to the sink stops.
type InboundTrack interface {
	ID() string
	Kind() webrtc.RTPCodecType
	Enabled() bool
	SetEnabled(bool)
	// SetSink attaches the consumer that receives packets while enabled.
	SetSink(func(*rtp.Packet))
}

// OutboundTrack is the push-to-talk audio track.
type OutboundTrack interface {
	Enabled() bool
	SetEnabled(bool)
	// WriteSample drops the sample while the track is disabled.
	WriteSample(media.Sample) error
}
