// Package orch runs one live view session per device and owns the stream table.
package orch

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/dkeye/liveview/internal/app"
	"github.com/dkeye/liveview/internal/app/session"
	"github.com/dkeye/liveview/internal/core"
	"github.com/dkeye/liveview/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

var (
	ErrUnknownDevice = errors.New("orch: unknown device")
	ErrStreamBusy    = errors.New("orch: stream is still negotiating or connected")
	ErrSuperseded    = errors.New("orch: stream was replaced by a newer start")
)

// SessionFactory builds an unstarted session for a device.
type SessionFactory func(d domain.Device, obs session.Observer) *session.Session

type Orchestrator struct {
	Registry *app.Registry
	Sessions SessionFactory

	// batches counts start batches in flight.
	batches atomic.Int32
}

func (o *Orchestrator) Connecting() bool { return o.batches.Load() > 0 }

func (o *Orchestrator) beginBatch() {
	o.batches.Add(1)
	o.Registry.Touch()
}

func (o *Orchestrator) endBatch() {
	o.batches.Add(-1)
	o.Registry.Touch()
}

func (o *Orchestrator) Snapshot() []app.StreamStatus { return o.Registry.Snapshot() }

// Subscribe signals after every table, routing or batch flag change.
func (o *Orchestrator) Subscribe() (<-chan struct{}, func()) { return o.Registry.Subscribe() }

// StartAllStreams replaces the table with devices and starts every session
// concurrently. It returns once every attempt has finished; failures are
// recorded per device.
func (o *Orchestrator) StartAllStreams(ctx context.Context, devices []domain.Device) {
	if o.Registry.Len() > 0 {
		o.StopAllStreams(ctx)
	}
	devices = dedupe(devices)
	gens := make([]uint64, len(devices))
	for i, d := range devices {
		gen, prev := o.Registry.Put(d)
		if prev != nil {
			o.stop(ctx, *prev)
		}
		gens[i] = gen
	}

	o.beginBatch()
	defer o.endBatch()

	var failed atomic.Int32
	var wg conc.WaitGroup
	for i, d := range devices {
		wg.Go(func() {
			if err := o.startDevice(ctx, d, gens[i]); err != nil {
				failed.Add(1)
			}
		})
	}
	wg.Wait()

	log.Info().Str("module", "orch").
		Int("devices", len(devices)).
		Int32("failed", failed.Load()).
		Msg("start batch finished")
}

// StopAllStreams empties the table and stops every session concurrently.
func (o *Orchestrator) StopAllStreams(ctx context.Context) {
	o.stop(ctx, o.Registry.DetachAll()...)
}

// StartStream adds or replaces a single device and starts it.
func (o *Orchestrator) StartStream(ctx context.Context, d domain.Device) error {
	gen, prev := o.Registry.Put(d)
	if prev != nil {
		o.stop(ctx, *prev)
	}
	return o.startDevice(ctx, d, gen)
}

func (o *Orchestrator) StopStream(ctx context.Context, id domain.DeviceID) error {
	det, ok := o.Registry.Remove(id)
	if !ok {
		return ErrUnknownDevice
	}
	if det != nil {
		o.stop(ctx, *det)
	}
	return nil
}

// RetryStream starts a fresh session for a device that is idle, failed or disconnected.
func (o *Orchestrator) RetryStream(ctx context.Context, id domain.DeviceID) error {
	info, ok := o.Registry.Stream(id)
	if !ok {
		return ErrUnknownDevice
	}
	if info.State != core.StateIdle && !info.State.Terminal() {
		return ErrStreamBusy
	}
	log.Info().Str("module", "orch").Int64("device", int64(id)).Str("prev_state", info.State.String()).Msg("retry stream")
	return o.StartStream(ctx, info.Device)
}

// startDevice runs one session for the entry Put created with gen. A session
// that loses the entry to a newer start is stopped before it opens anything.
func (o *Orchestrator) startDevice(ctx context.Context, d domain.Device, gen uint64) error {
	s := o.Sessions(d, deviceObserver{o: o, device: d.ID})
	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !o.Registry.Attach(d.ID, gen, s, cancel) {
		_ = s.Stop(context.WithoutCancel(ctx))
		log.Debug().Str("module", "orch").Int64("device", int64(d.ID)).Str("sid", string(s.ID())).Msg("start superseded")
		return ErrSuperseded
	}

	err := s.Start(sctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrSessionStopped):
		log.Debug().Str("module", "orch").Int64("device", int64(d.ID)).Msg("start aborted by stop")
		return err
	}

	o.Registry.Update(d.ID, s.ID(), func(i *app.StreamInfo) {
		i.State = core.StateFailed
		i.Error = err.Error()
	})
	log.Warn().Err(err).Str("module", "orch").Int64("device", int64(d.ID)).Str("sid", string(s.ID())).Msg("stream failed")
	return err
}

func (o *Orchestrator) stop(ctx context.Context, det ...app.Detached) {
	if len(det) == 0 {
		return
	}
	var wg conc.WaitGroup
	for _, d := range det {
		wg.Go(func() {
			if d.Cancel != nil {
				d.Cancel()
			}
			if err := d.Session.Stop(ctx); err != nil {
				log.Warn().Err(err).Str("module", "orch").Int64("device", int64(d.DeviceID)).Msg("stop session")
			}
		})
	}
	wg.Wait()
}

// Overview returns the table together with routing and batch flags.
func (o *Orchestrator) Overview() app.Overview {
	ov := app.Overview{
		Streams:    o.Registry.Snapshot(),
		Muted:      o.Registry.Muted(),
		Connecting: o.Connecting(),
	}
	if id, ok := o.Registry.Active(); ok {
		ov.ActiveDevice = &id
	}
	return ov
}

func dedupe(devices []domain.Device) []domain.Device {
	seen := make(map[domain.DeviceID]struct{}, len(devices))
	out := make([]domain.Device, 0, len(devices))
	for _, d := range devices {
		if _, ok := seen[d.ID]; ok {
			continue
		}
		seen[d.ID] = struct{}{}
		out = append(out, d)
	}
	return out
}
