package rtc

import (
	"context"

	"github.com/dkeye/liveview/internal/core"
	"github.com/dkeye/liveview/internal/logging"
	"github.com/pion/interceptor"
	"github.com/pion/interceptor/pkg/intervalpli"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// Factory builds pion peer connections sharing one configured API.
type Factory struct {
	ctx  context.Context
	api  *webrtc.API
	conf webrtc.Configuration
}

var _ core.MediaFactory = (*Factory)(nil)

// NewFactory prepares codecs, interceptors and the setting engine once.
// ctx bounds the lifetime of every inbound track relay.
func NewFactory(ctx context.Context, cfg Config) (*Factory, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, err
	}

	i := &interceptor.Registry{}
	pli, err := intervalpli.NewReceiverInterceptor()
	if err != nil {
		return nil, err
	}
	i.Add(pli)
	if err := webrtc.RegisterDefaultInterceptors(m, i); err != nil {
		return nil, err
	}

	s := webrtc.SettingEngine{LoggerFactory: logging.PionFactory{Logger: log.Logger}}
	s.SetNetworkTypes(networkTypes)
	if cfg.ReceiveMTU > 0 {
		s.SetReceiveMTU(cfg.ReceiveMTU)
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(m),
		webrtc.WithInterceptorRegistry(i),
		webrtc.WithSettingEngine(s),
	)
	return &Factory{ctx: ctx, api: api, conf: cfg.Configuration()}, nil
}

func (f *Factory) NewMediaConnection(sid core.SessionID) (core.MediaConnection, error) {
	pc, err := f.api.NewPeerConnection(f.conf)
	if err != nil {
		return nil, err
	}
	c, err := newConnection(f.ctx, pc, sid)
	if err != nil {
		_ = pc.Close()
		return nil, err
	}
	return c, nil
}
