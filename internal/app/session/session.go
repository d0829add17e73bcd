// Package session drives one live view peer connection from offer to media.
//
// Every field of a Session is owned by its actor goroutine. Public methods and
// transport callbacks hand closures to the actor; readers use Snapshot.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dkeye/liveview/internal/core"
	"github.com/dkeye/liveview/internal/domain"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const inboxSize = 32

// Observer is called from the session's actor goroutine. Implementations
// must not call back into the same session synchronously.
type Observer interface {
	OnStateChange(sid core.SessionID, state core.State, reason string)
	OnVideoTrack(sid core.SessionID, t core.InboundTrack)
	OnAudioTrack(sid core.SessionID, t core.InboundTrack)
}

type Config struct {
	DeviceID domain.DeviceID
	Gather   GatherPolicy
}

type Deps struct {
	Signaler core.Signaler
	Media    core.MediaFactory
	Observer Observer
}

// Snapshot is an immutable view of a session, published after every mutation.
type Snapshot struct {
	ID       core.SessionID  `json:"session_id"`
	DeviceID domain.DeviceID `json:"device_id"`
	State    core.State      `json:"state"`
	Reason   string          `json:"reason,omitempty"`
	HasVideo bool            `json:"has_video"`
	HasAudio bool            `json:"has_audio"`
	Talking  bool            `json:"talking"`
}

type Session struct {
	id       core.SessionID
	deviceID domain.DeviceID
	gather   GatherPolicy
	deps     Deps
	logger   zerolog.Logger

	inbox    chan func()
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	snap atomic.Pointer[Snapshot]
	talk atomic.Pointer[core.OutboundTrack]

	// owned by the actor
	state       core.State
	reason      string
	started     bool
	conn        core.MediaConnection
	video       core.InboundTrack
	audio       core.InboundTrack
	talking     bool
	startCancel context.CancelFunc
}

func New(cfg Config, deps Deps) *Session {
	id := core.SessionID(strings.ToLower(uuid.NewString()))
	s := &Session{
		id:       id,
		deviceID: cfg.DeviceID,
		gather:   cfg.Gather.withDefaults(),
		deps:     deps,
		logger: log.With().
			Str("module", "session").
			Str("sid", string(id)).
			Int64("device", int64(cfg.DeviceID)).
			Logger(),
		inbox: make(chan func(), inboxSize),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	s.publish()
	go s.run()
	return s
}

func (s *Session) ID() core.SessionID        { return s.id }
func (s *Session) DeviceID() domain.DeviceID { return s.deviceID }
func (s *Session) Snapshot() Snapshot        { return *s.snap.Load() }
func (s *Session) State() core.State         { return s.Snapshot().State }

// Done is closed after Stop once the actor has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) run() {
	defer close(s.done)
	for {
		select {
		case fn := <-s.inbox:
			fn()
		case <-s.quit:
			return
		}
	}
}

// do runs fn on the actor and waits for it.
func (s *Session) do(fn func() error) error {
	res := make(chan error, 1)
	select {
	case s.inbox <- func() { res <- fn() }:
	case <-s.done:
		return ErrSessionStopped
	}
	select {
	case err := <-res:
		return err
	case <-s.done:
		return ErrSessionStopped
	}
}

// post queues fn without waiting. Used by transport callbacks.
func (s *Session) post(fn func()) {
	select {
	case s.inbox <- fn:
	case <-s.done:
	}
}

func (s *Session) publish() {
	s.snap.Store(&Snapshot{
		ID:       s.id,
		DeviceID: s.deviceID,
		State:    s.state,
		Reason:   s.reason,
		HasVideo: s.video != nil,
		HasAudio: s.audio != nil,
		Talking:  s.talking,
	})
}

// advance moves the state forward. Earlier or equal targets are ignored and
// terminal states are never left.
func (s *Session) advance(to core.State, reason string) bool {
	from := s.state
	if from.Terminal() {
		s.logger.Debug().Str("from", from.String()).Str("to", to.String()).Msg("transition rejected")
		return false
	}
	if !to.Terminal() && to <= from {
		return false
	}
	s.state, s.reason = to, reason
	s.publish()
	ev := s.logger.Info()
	if to == core.StateFailed {
		ev = s.logger.Warn()
	}
	ev.Str("from", from.String()).Str("to", to.String()).Str("reason", reason).Msg("state")
	if s.deps.Observer != nil {
		s.deps.Observer.OnStateChange(s.id, to, reason)
	}
	return true
}

// checkpoint runs fn on the actor unless the session was stopped or failed meanwhile.
func (s *Session) checkpoint(fn func() error) error {
	return s.do(func() error {
		switch s.state {
		case core.StateDisconnected:
			return ErrSessionStopped
		case core.StateFailed:
			return fmt.Errorf("%w: %s", ErrSessionFailed, s.reason)
		}
		if fn == nil {
			return nil
		}
		return fn()
	})
}

// Start negotiates the session. It returns once the answer is applied; the
// session reaches connected when the first video track arrives.
func (s *Session) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	err := s.do(func() error {
		if s.started || s.state != core.StateIdle {
			return ErrAlreadyStarted
		}
		s.started = true
		s.startCancel = cancel
		s.advance(core.StateConnecting, "")
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.negotiate(ctx); err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *Session) negotiate(ctx context.Context) error {
	conn, err := s.deps.Media.NewMediaConnection(s.id)
	if err != nil {
		return fmt.Errorf("peer connection: %w", err)
	}
	if conn == nil {
		return ErrPeerConnectionNotReady
	}
	conn.OnTrack(func(t core.InboundTrack) {
		s.post(func() { s.handleTrack(t) })
	})
	conn.OnICEConnectionStateChange(func(st webrtc.ICEConnectionState) {
		s.post(func() { s.handleICE(st) })
	})

	err = s.checkpoint(func() error {
		s.conn = conn
		talk := conn.TalkTrack()
		s.talk.Store(&talk)
		s.advance(core.StateCreatingOffer, "")
		return nil
	})
	if err != nil {
		_ = conn.Close()
		return err
	}

	offer, err := conn.CreateOffer()
	if err != nil {
		return &OfferCreationError{Err: err}
	}
	if err := conn.SetLocalDescription(offer); err != nil {
		return &OfferCreationError{Err: err}
	}

	local, outcome, n, err := waitForCandidates(ctx, conn, s.gather)
	if err != nil {
		return err
	}
	if local == nil {
		return &OfferCreationError{Err: errors.New("no local description")}
	}
	s.logger.Debug().Str("outcome", string(outcome)).Int("candidates", n).Msg("ICE gather wait done")

	if err := s.checkpoint(func() error {
		s.advance(core.StateNegotiating, "")
		return nil
	}); err != nil {
		return err
	}

	answer, err := s.deps.Signaler.StartSession(ctx, s.id, s.deviceID, local.SDP)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := conn.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: answer})
		if err != nil {
			return &AnswerCreationError{Err: err}
		}
		return nil
	})
	g.Go(func() error {
		if err := s.deps.Signaler.ActivateDevice(gctx, s.id); err != nil {
			s.logger.Warn().Err(err).Msg("camera activation failed, continuing")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	return s.checkpoint(func() error {
		if s.video != nil {
			s.advance(core.StateConnected, "")
		}
		return nil
	})
}

// fail records err as the failure reason unless the session was stopped,
// in which case ErrSessionStopped is returned instead.
func (s *Session) fail(err error) error {
	res := s.do(func() error {
		switch s.state {
		case core.StateDisconnected:
			return ErrSessionStopped
		case core.StateFailed:
			if errors.Is(err, ErrSessionFailed) {
				return err
			}
			return fmt.Errorf("%w: %s", ErrSessionFailed, s.reason)
		}
		s.advance(core.StateFailed, err.Error())
		return err
	})
	if errors.Is(res, ErrSessionStopped) {
		return ErrSessionStopped
	}
	return res
}

func (s *Session) handleTrack(t core.InboundTrack) {
	if s.state.Terminal() {
		s.logger.Debug().Str("kind", t.Kind().String()).Msg("track on finished session ignored")
		return
	}
	switch t.Kind() {
	case webrtc.RTPCodecTypeVideo:
		if s.video != nil {
			s.logger.Debug().Str("track", t.ID()).Msg("duplicate video track ignored")
			return
		}
		s.video = t
		s.publish()
		s.advance(core.StateConnected, "")
		if s.deps.Observer != nil {
			s.deps.Observer.OnVideoTrack(s.id, t)
		}
	case webrtc.RTPCodecTypeAudio:
		if s.audio != nil {
			s.logger.Debug().Str("track", t.ID()).Msg("duplicate audio track ignored")
			return
		}
		s.audio = t
		s.publish()
		if s.deps.Observer != nil {
			s.deps.Observer.OnAudioTrack(s.id, t)
		}
	default:
		s.logger.Warn().Str("kind", t.Kind().String()).Msg("unexpected track kind")
	}
}

func (s *Session) handleICE(st webrtc.ICEConnectionState) {
	switch st {
	case webrtc.ICEConnectionStateConnected, webrtc.ICEConnectionStateCompleted:
		if s.state != core.StateConnected && s.video != nil {
			s.advance(core.StateConnected, "")
		}
	case webrtc.ICEConnectionStateFailed:
		if s.advance(core.StateFailed, "ICE connection failed") && s.startCancel != nil {
			s.startCancel()
		}
	case webrtc.ICEConnectionStateDisconnected:
		if s.state == core.StateConnected {
			s.advance(core.StateDisconnected, "ICE connection lost")
		}
	default:
		s.logger.Debug().Str("ice_state", st.String()).Msg("ICE state ignored")
	}
}

// Stop tears the session down. It is safe in any state and only the first
// call does work. Signaling errors are logged, never returned.
// The session ends disconnected, except that a failed session stays failed:
// terminal states are final, so the failure reason survives teardown.
func (s *Session) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		var (
			conn    core.MediaConnection
			started bool
		)
		err := s.do(func() error {
			started = s.started
			if s.startCancel != nil {
				s.startCancel()
			}
			conn = s.conn
			s.conn, s.video, s.audio = nil, nil, nil
			if conn != nil {
				conn.TalkTrack().SetEnabled(false)
			}
			s.talking = false
			s.talk.Store(nil)
			s.publish()
			s.advance(core.StateDisconnected, "")
			return nil
		})
		if err != nil {
			s.logger.Warn().Err(err).Msg("stop: actor unavailable")
		}

		if started {
			if err := s.deps.Signaler.EndSession(ctx, s.id); err != nil {
				s.logger.Warn().Err(err).Msg("end session failed")
			}
		}
		if conn != nil {
			if err := conn.Close(); err != nil {
				s.logger.Warn().Err(err).Msg("close peer connection")
			}
		}
		close(s.quit)
		<-s.done
		s.logger.Info().Msg("stopped")
	})
	return nil
}

// StartTalking enables the outbound audio track. Only a connected session can talk.
func (s *Session) StartTalking() bool {
	var ok bool
	_ = s.do(func() error {
		if s.state != core.StateConnected || s.conn == nil {
			return nil
		}
		s.conn.TalkTrack().SetEnabled(true)
		s.talking = true
		s.publish()
		ok = true
		return nil
	})
	return ok
}

func (s *Session) StopTalking() {
	_ = s.do(func() error {
		if s.conn != nil {
			s.conn.TalkTrack().SetEnabled(false)
		}
		if s.talking {
			s.talking = false
			s.publish()
		}
		return nil
	})
}

// WriteTalkSample forwards microphone audio while talking and drops it otherwise.
func (s *Session) WriteTalkSample(sample media.Sample) error {
	t := s.talk.Load()
	if t == nil {
		return ErrPeerConnectionNotReady
	}
	if !s.Snapshot().Talking {
		return nil
	}
	return (*t).WriteSample(sample)
}
