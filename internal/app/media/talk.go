package media

import (
	"errors"

	"github.com/dkeye/liveview/internal/core"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
)

var ErrTrackClosed = errors.New("media: track closed")

const (
	talkTrackID  = "talk"
	talkStreamID = "liveview-talk"
)

type SampleWriter interface {
	WriteSample(media.Sample) error
}

// TalkTrack is the local push-to-talk audio. It is attached to the peer
// connection at construction and starts disabled, so talking never renegotiates.
type TalkTrack struct {
	w     SampleWriter
	local *webrtc.TrackLocalStaticSample
	state trackState
}

var _ core.OutboundTrack = (*TalkTrack)(nil)

// NewTalkTrack builds an Opus sample track ready for AddTransceiverFromTrack.
func NewTalkTrack() (*TalkTrack, error) {
	local, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2},
		talkTrackID, talkStreamID,
	)
	if err != nil {
		return nil, err
	}
	return &TalkTrack{w: local, local: local}, nil
}

// NewTalkTrackWriter wraps an arbitrary writer; used where no pion track is needed.
func NewTalkTrackWriter(w SampleWriter) *TalkTrack {
	return &TalkTrack{w: w}
}

// Local returns the pion track, nil for writer-backed tracks.
func (t *TalkTrack) Local() *webrtc.TrackLocalStaticSample { return t.local }

func (t *TalkTrack) Enabled() bool      { return t.state.get() == TrackStateEnabled }
func (t *TalkTrack) SetEnabled(on bool) { t.state.setEnabled(on) }
func (t *TalkTrack) Close()             { t.state.close() }

func (t *TalkTrack) WriteSample(s media.Sample) error {
	switch t.state.get() {
	case TrackStateClosed:
		return ErrTrackClosed
	case TrackStateDisabled:
		return nil
	}
	return t.w.WriteSample(s)
}
