package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/liveview/internal/adapters/directory"
	router "github.com/dkeye/liveview/internal/adapters/http"
	"github.com/dkeye/liveview/internal/adapters/rtc"
	"github.com/dkeye/liveview/internal/adapters/signaling"
	"github.com/dkeye/liveview/internal/adapters/store"
	"github.com/dkeye/liveview/internal/app"
	"github.com/dkeye/liveview/internal/app/orch"
	"github.com/dkeye/liveview/internal/app/session"
	"github.com/dkeye/liveview/internal/config"
	"github.com/dkeye/liveview/internal/core"
	"github.com/dkeye/liveview/internal/domain"
	"github.com/dkeye/liveview/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Pretty output until the configured logger replaces it.
	logging.Init(logging.Config{Level: "info", Pretty: true})

	if err := run(ctx); err != nil {
		log.Error().Err(err).Msg("liveview exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, v, err := config.LoadFile(config.Path())
	if err != nil {
		return err
	}
	logging.Init(cfg.Log)

	devices, err := cfg.DeviceList()
	if err != nil {
		return err
	}
	dir := directory.NewStatic(credentials(cfg), devices)
	config.Watch(v, func(next *config.Config) {
		logging.SetLevel(next.Log.Level)
		devs, err := next.DeviceList()
		if err != nil {
			return
		}
		dir.Reload(credentials(next), devs)
	})

	media, err := rtc.NewFactory(ctx, rtc.Config{
		STUNServers: cfg.WebRTC.STUNServers,
		ReceiveMTU:  cfg.WebRTC.ReceiveMTU,
	})
	if err != nil {
		return fmt.Errorf("webrtc: %w", err)
	}
	signaler, err := signaling.NewClient(signaling.Config{
		BaseURL:        cfg.Signaling.BaseURL,
		HardwareHeader: cfg.Signaling.HardwareHeader,
		Timeout:        cfg.Signaling.Timeout,
	}, dir)
	if err != nil {
		return err
	}

	gather := session.GatherPolicy{
		Interval:        cfg.WebRTC.Gather.Interval,
		CandidateTarget: cfg.WebRTC.Gather.Candidates,
		Timeout:         cfg.WebRTC.Gather.Timeout,
	}
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(app.SinglePlayback{Manual: !cfg.Audio.AutoActivate}),
		Sessions: func(d domain.Device, obs session.Observer) *session.Session {
			return session.New(
				session.Config{DeviceID: d.ID, Gather: gather},
				session.Deps{Signaler: signaler, Media: media, Observer: obs},
			)
		},
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()
	refresh := time.Duration(0)
	if cfg.Store.Driver == "redis" {
		refresh = store.RefreshInterval(cfg.Store.Redis.TTL)
	}
	mirrorDone := make(chan struct{})
	go func() {
		store.Mirror(ctx, o, st, refresh)
		close(mirrorDone)
	}()

	if cfg.Autostart && len(devices) > 0 {
		go o.StartAllStreams(ctx, devices)
	}

	r := router.SetupRouter(ctx, router.Options{Mode: cfg.Mode, PingPeriod: cfg.PingPeriod}, o, dir)
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Int("devices", len(devices)).Msg("liveview started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	o.StopAllStreams(shutdownCtx)
	<-mirrorDone
	log.Info().Msg("Server exited gracefully")
	return nil
}

func credentials(cfg *config.Config) core.Credentials {
	return core.Credentials{BearerToken: cfg.Auth.Token, HardwareID: cfg.Auth.HardwareID}
}
