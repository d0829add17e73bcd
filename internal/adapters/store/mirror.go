package store

import (
	"context"
	"time"

	"github.com/dkeye/liveview/internal/app"
	"github.com/dkeye/liveview/internal/domain"
	"github.com/rs/zerolog/log"
)

// Source is the stream table Mirror copies from.
type Source interface {
	Snapshot() []app.StreamStatus
	Subscribe() (<-chan struct{}, func())
}

// Mirror writes every table change into st until ctx ends, then removes the rows it wrote.
// A positive refresh rewrites all rows periodically so ttl-bound stores keep them alive.
func Mirror(ctx context.Context, src Source, st Store, refresh time.Duration) {
	changes, cancel := src.Subscribe()
	defer cancel()

	var tick <-chan time.Time
	if refresh > 0 {
		t := time.NewTicker(refresh)
		defer t.Stop()
		tick = t.C
	}

	written := make(map[domain.DeviceID]struct{})
	flush := func(c context.Context) {
		rows := src.Snapshot()
		seen := make(map[domain.DeviceID]struct{}, len(rows))
		for _, row := range rows {
			seen[row.DeviceID] = struct{}{}
			if err := st.Save(c, row); err != nil {
				log.Warn().Err(err).Str("module", "store").Int64("device", int64(row.DeviceID)).Msg("save failed")
				continue
			}
			written[row.DeviceID] = struct{}{}
		}
		for id := range written {
			if _, ok := seen[id]; ok {
				continue
			}
			if err := st.Delete(c, id); err != nil {
				log.Warn().Err(err).Str("module", "store").Int64("device", int64(id)).Msg("delete failed")
				continue
			}
			delete(written, id)
		}
	}

	log.Info().Str("module", "store").Dur("refresh", refresh).Msg("mirror started")
	flush(ctx)
	for {
		select {
		case <-ctx.Done():
			cleanup, done := context.WithTimeout(context.Background(), 5*time.Second)
			for id := range written {
				if err := st.Delete(cleanup, id); err != nil {
					log.Warn().Err(err).Str("module", "store").Int64("device", int64(id)).Msg("cleanup failed")
				}
			}
			done()
			log.Info().Str("module", "store").Msg("mirror stopped")
			return
		case <-changes:
			flush(ctx)
		case <-tick:
			flush(ctx)
		}
	}
}
