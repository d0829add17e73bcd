package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkeye/liveview/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
mode: debug
port: 9090
log:
  level: debug
  pretty: true
signaling:
  base_url: https://api.example.com/v1
webrtc:
  gather:
    candidates: 3
devices:
  - id: 12345
    name: Front door
    kind: doorbell
  - id: 77
store:
  driver: redis
  redis:
    addr: redis:6379
    ttl: 30s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	cfg, v, err := LoadFile(writeConfig(t, sample))
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, "https://api.example.com/v1", cfg.Signaling.BaseURL)
	assert.Equal(t, "X-Hardware-Id", cfg.Signaling.HardwareHeader)
	assert.Equal(t, 30*time.Second, cfg.Signaling.Timeout)
	assert.Equal(t, 100*time.Millisecond, cfg.WebRTC.Gather.Interval)
	assert.Equal(t, 3, cfg.WebRTC.Gather.Candidates)
	assert.Equal(t, 2*time.Second, cfg.WebRTC.Gather.Timeout)
	assert.Len(t, cfg.WebRTC.STUNServers, 2)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Store.Redis.TTL)
	assert.Equal(t, "liveview:stream:", cfg.Store.Redis.KeyPrefix)

	devices, err := cfg.DeviceList()
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, domain.Device{ID: 12345, Name: "Front door", Kind: domain.DeviceKindDoorbell}, devices[0])
	assert.Equal(t, "Camera 77", devices[1].Name)
	assert.Equal(t, domain.DeviceKindUnknown, devices[1].Kind)
}

func TestLoadFile_EnvOverride(t *testing.T) {
	t.Setenv("LIVEVIEW_AUTH_TOKEN", "secret")
	t.Setenv("LIVEVIEW_SIGNALING_BASE_URL", "https://override.example.com")
	cfg, _, err := LoadFile(writeConfig(t, sample))
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Auth.Token)
	assert.Equal(t, "https://override.example.com", cfg.Signaling.BaseURL)
}

func TestLoadFile_MissingUsesDefaults(t *testing.T) {
	cfg, _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Empty(t, cfg.Devices)
	assert.True(t, cfg.Audio.AutoActivate)
}

func TestLoadFile_Invalid(t *testing.T) {
	_, _, err := LoadFile(writeConfig(t, "store:\n  driver: etcd\n"))
	assert.ErrorContains(t, err, "etcd")

	_, _, err = LoadFile(writeConfig(t, "devices:\n  - id: -4\n"))
	assert.ErrorIs(t, err, domain.ErrDeviceIDInvalid)
}

func TestPath(t *testing.T) {
	t.Setenv("CONFIG_ENV", "prod")
	assert.Equal(t, "config/config.prod.yaml", Path())
	t.Setenv("CONFIG_ENV", "")
	assert.Equal(t, "config/config.dev.yaml", Path())
}
