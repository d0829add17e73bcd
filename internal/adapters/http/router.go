package http

import (
	"context"
	"time"

	"github.com/dkeye/liveview/internal/app"
	"github.com/dkeye/liveview/internal/core"
	"github.com/dkeye/liveview/internal/domain"
	"github.com/dkeye/liveview/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Streams is the orchestrator surface the control API drives.
type Streams interface {
	StartAllStreams(ctx context.Context, devices []domain.Device)
	StopAllStreams(ctx context.Context)
	RetryStream(ctx context.Context, id domain.DeviceID) error
	SetActiveDevice(id domain.DeviceID) error
	SetMuted(muted bool)
	StartTalking(id domain.DeviceID) bool
	StopTalking(id domain.DeviceID)
	Overview() app.Overview
	Subscribe() (<-chan struct{}, func())
}

type Options struct {
	Mode        string
	PingPeriod  time.Duration
	StartLimit  int
	StartWindow time.Duration
}

func (o Options) withDefaults() Options {
	if o.PingPeriod <= 0 {
		o.PingPeriod = 30 * time.Second
	}
	if o.StartLimit <= 0 {
		o.StartLimit = 5
	}
	if o.StartWindow <= 0 {
		o.StartWindow = 10 * time.Second
	}
	return o
}

type api struct {
	ctx     context.Context
	streams Streams
	devices core.DeviceDirectory
	limiter *RateLimiter
	ping    time.Duration
}

// SetupRouter wires the control API. Long-running starts are detached onto ctx
// so they outlive the request that triggered them.
func SetupRouter(ctx context.Context, opts Options, streams Streams, devices core.DeviceDirectory) *gin.Engine {
	opts = opts.withDefaults()
	if opts.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.GinMiddleware(logging.Module("adapters.http")))

	a := &api{
		ctx:     ctx,
		streams: streams,
		devices: devices,
		limiter: NewRateLimiter(opts.StartLimit, opts.StartWindow),
		ping:    opts.PingPeriod,
	}

	r.GET("/healthz", a.health)

	g := r.Group("/api")
	g.GET("/streams", a.listStreams)
	g.POST("/streams/start", a.limiter.Middleware(), a.startStreams)
	g.POST("/streams/stop", a.stopStreams)
	g.POST("/streams/:id/retry", a.limiter.Middleware(), a.retryStream)
	g.POST("/streams/:id/talk/start", a.startTalk)
	g.POST("/streams/:id/talk/stop", a.stopTalk)
	g.PUT("/active", a.setActive)
	g.PUT("/mute", a.setMute)
	g.GET("/ws/status", a.statusFeed)

	log.Info().Str("module", "adapters.http").Str("mode", opts.Mode).Msg("router setup")
	return r
}
