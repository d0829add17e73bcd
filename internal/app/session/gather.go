package session

import (
	"context"
	"time"

	"github.com/dkeye/liveview/internal/core"
	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v4"
)

// GatherPolicy bounds the wait for ICE candidates before the offer is sent.
// Two candidates (one host, one reflexive) is usually enough to connect.
type GatherPolicy struct {
	Interval        time.Duration
	CandidateTarget int
	Timeout         time.Duration
}

func DefaultGatherPolicy() GatherPolicy {
	return GatherPolicy{
		Interval:        100 * time.Millisecond,
		CandidateTarget: 2,
		Timeout:         2 * time.Second,
	}
}

func (p GatherPolicy) withDefaults() GatherPolicy {
	d := DefaultGatherPolicy()
	if p.Interval <= 0 {
		p.Interval = d.Interval
	}
	if p.CandidateTarget <= 0 {
		p.CandidateTarget = d.CandidateTarget
	}
	if p.Timeout <= 0 {
		p.Timeout = d.Timeout
	}
	return p
}

type gatherOutcome string

const (
	gatherComplete gatherOutcome = "complete"
	gatherEnough   gatherOutcome = "enough"
	gatherTimeout  gatherOutcome = "timeout"
)

// waitForCandidates polls the connection until gathering finishes, enough
// candidates are present, or the timeout passes. Only ctx cancellation is an error.
func waitForCandidates(ctx context.Context, conn core.MediaConnection, p GatherPolicy) (*webrtc.SessionDescription, gatherOutcome, int, error) {
	p = p.withDefaults()
	deadline := time.NewTimer(p.Timeout)
	defer deadline.Stop()
	tick := time.NewTicker(p.Interval)
	defer tick.Stop()

	for {
		desc := conn.LocalDescription()
		n := 0
		if desc != nil {
			n = countCandidates(desc.SDP)
		}
		switch {
		case conn.ICEGatheringState() == webrtc.ICEGatheringStateComplete:
			return desc, gatherComplete, n, nil
		case n >= p.CandidateTarget:
			return desc, gatherEnough, n, nil
		}

		select {
		case <-ctx.Done():
			return nil, "", n, ctx.Err()
		case <-deadline.C:
			return conn.LocalDescription(), gatherTimeout, n, nil
		case <-tick.C:
		}
	}
}

// countCandidates returns the number of distinct a=candidate lines in raw.
func countCandidates(raw string) int {
	var sd sdp.SessionDescription
	if err := sd.UnmarshalString(raw); err != nil {
		return 0
	}
	seen := make(map[string]struct{})
	add := func(attrs []sdp.Attribute) {
		for _, a := range attrs {
			if a.IsICECandidate() {
				seen[a.Value] = struct{}{}
			}
		}
	}
	add(sd.Attributes)
	for _, md := range sd.MediaDescriptions {
		add(md.Attributes)
	}
	return len(seen)
}
