package core

import (
	"context"

	"github.com/dkeye/liveview/internal/domain"
)

//go:generate mockgen -source=signal_iface.go -destination=mocks/mock_signal.go -package=mocks

// Signaler is the vendor's request/response signaling protocol.
// There is no persistent socket: every call is an independent HTTP exchange.
type Signaler interface {
	// StartSession sends the local offer and returns the remote answer SDP.
	StartSession(ctx context.Context, sid SessionID, deviceID domain.DeviceID, offerSDP string) (string, error)
	// ActivateDevice asks the camera to leave stealth mode. Best-effort.
	ActivateDevice(ctx context.Context, sid SessionID) error
	// EndSession tears the remote session down. Best-effort.
	EndSession(ctx context.Context, sid SessionID) error
}
