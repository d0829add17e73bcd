package signaling

import (
	"errors"

	"github.com/dkeye/liveview/internal/core"
	"github.com/dkeye/liveview/internal/domain"
)

const (
	protocolWebRTC        = "webrtc"
	actionTurnOffStealth  = "turn_off_stealth_mode"
	DefaultHardwareHeader = "X-Hardware-Id"
	pathStart             = "/liveview/start"
	pathOptions           = "/liveview/options"
	pathEnd               = "/liveview/end"
)

type startRequest struct {
	SessionID core.SessionID  `json:"session_id"`
	DeviceID  domain.DeviceID `json:"device_id"`
	SDP       string          `json:"sdp"`
	Protocol  string          `json:"protocol"`
}

type startResponse struct {
	SDP *string `json:"sdp"`
}

type optionsRequest struct {
	SessionID core.SessionID `json:"session_id"`
	Actions   []string       `json:"actions"`
}

type endRequest struct {
	SessionID core.SessionID `json:"session_id"`
}

func (r startRequest) validate() error {
	switch {
	case r.SessionID == "":
		return errors.New("session_id is empty")
	case r.DeviceID <= 0:
		return domain.ErrDeviceIDInvalid
	case r.SDP == "":
		return errors.New("sdp is empty")
	}
	return nil
}

// answer returns the remote SDP or ErrInvalidSessionResponse when the field is absent.
func (r startResponse) answer() (string, error) {
	if r.SDP == nil || *r.SDP == "" {
		return "", ErrInvalidSessionResponse
	}
	return *r.SDP, nil
}
