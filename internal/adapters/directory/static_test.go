package directory

import (
	"context"
	"testing"

	"github.com/dkeye/liveview/internal/core"
	"github.com/dkeye/liveview/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var devices = []domain.Device{
	{ID: 12345, Name: "Front door", Kind: domain.DeviceKindDoorbell},
	{ID: 7, Name: "Garage", Kind: domain.DeviceKindCamera},
}

func TestStatic_Credentials(t *testing.T) {
	s := NewStatic(core.Credentials{BearerToken: "tok", HardwareID: "hw"}, nil)
	creds, err := s.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", creds.BearerToken)
	assert.Equal(t, "hw", creds.HardwareID)

	s.Reload(core.Credentials{}, nil)
	_, err = s.Credentials(context.Background())
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestStatic_CancelledContext(t *testing.T) {
	s := NewStatic(core.Credentials{BearerToken: "tok"}, devices)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Credentials(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Devices(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStatic_DevicesAreCopied(t *testing.T) {
	s := NewStatic(core.Credentials{}, devices)
	got, err := s.Devices(context.Background())
	require.NoError(t, err)
	got[0].Name = "changed"

	again, err := s.Devices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Front door", again[0].Name)
}

func TestLookup(t *testing.T) {
	s := NewStatic(core.Credentials{}, devices)

	all, missing, err := Lookup(context.Background(), s, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Empty(t, missing)

	found, missing, err := Lookup(context.Background(), s, []domain.DeviceID{7, 99})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, domain.DeviceID(7), found[0].ID)
	assert.Equal(t, []domain.DeviceID{99}, missing)
}
