package core

import (
	"context"

	"github.com/dkeye/liveview/internal/domain"
)

//go:generate mockgen -source=directory.go -destination=mocks/mock_directory.go -package=mocks

// Credentials are refreshed outside this module; callers fetch them per request.
type Credentials struct {
	BearerToken string
	HardwareID  string
}

type TokenProvider interface {
	Credentials(ctx context.Context) (Credentials, error)
}

type DeviceDirectory interface {
	Devices(ctx context.Context) ([]domain.Device, error)
}
