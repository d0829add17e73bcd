// Package directory serves credentials and the device list from local configuration.
package directory

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/liveview/internal/core"
	"github.com/dkeye/liveview/internal/domain"
)

var ErrNoCredentials = errors.New("directory: no bearer token configured")

var (
	_ core.TokenProvider   = (*Static)(nil)
	_ core.DeviceDirectory = (*Static)(nil)
)

// Static holds a fixed credential pair and device list. Reload swaps both atomically.
type Static struct {
	mu      sync.RWMutex
	creds   core.Credentials
	devices []domain.Device
}

func NewStatic(creds core.Credentials, devices []domain.Device) *Static {
	s := &Static{}
	s.Reload(creds, devices)
	return s
}

func (s *Static) Reload(creds core.Credentials, devices []domain.Device) {
	cp := make([]domain.Device, len(devices))
	copy(cp, devices)
	s.mu.Lock()
	s.creds, s.devices = creds, cp
	s.mu.Unlock()
}

func (s *Static) Credentials(ctx context.Context) (core.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return core.Credentials{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds.BearerToken == "" {
		return core.Credentials{}, ErrNoCredentials
	}
	return s.creds, nil
}

func (s *Static) Devices(ctx context.Context) ([]domain.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Device, len(s.devices))
	copy(out, s.devices)
	return out, nil
}

// Lookup resolves ids against the directory. Unknown ids are returned separately.
func Lookup(ctx context.Context, dir core.DeviceDirectory, ids []domain.DeviceID) ([]domain.Device, []domain.DeviceID, error) {
	all, err := dir.Devices(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(ids) == 0 {
		return all, nil, nil
	}
	byID := make(map[domain.DeviceID]domain.Device, len(all))
	for _, d := range all {
		byID[d.ID] = d
	}
	var found []domain.Device
	var missing []domain.DeviceID
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			found = append(found, d)
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing, nil
}
