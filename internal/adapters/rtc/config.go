package rtc

import (
	"github.com/pion/webrtc/v4"
)

var DefaultSTUNServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
}

type Config struct {
	STUNServers []string
	// ReceiveMTU is passed to the setting engine when non-zero.
	ReceiveMTU uint
}

// Configuration returns the peer connection settings every live view uses:
// one bundled transport, mandatory RTCP mux, every candidate type allowed.
func (c Config) Configuration() webrtc.Configuration {
	servers := c.STUNServers
	if len(servers) == 0 {
		servers = DefaultSTUNServers
	}
	return webrtc.Configuration{
		ICEServers:         []webrtc.ICEServer{{URLs: append([]string(nil), servers...)}},
		ICETransportPolicy: webrtc.ICETransportPolicyAll,
		BundlePolicy:       webrtc.BundlePolicyMaxBundle,
		RTCPMuxPolicy:      webrtc.RTCPMuxPolicyRequire,
		SDPSemantics:       webrtc.SDPSemanticsUnifiedPlan,
	}
}

var networkTypes = []webrtc.NetworkType{
	webrtc.NetworkTypeUDP4,
	webrtc.NetworkTypeUDP6,
	webrtc.NetworkTypeTCP4,
	webrtc.NetworkTypeTCP6,
}
