package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dkeye/liveview/internal/domain"
	"github.com/dkeye/liveview/internal/logging"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const envPrefix = "LIVEVIEW"

type Config struct {
	Mode       string          `mapstructure:"mode"`
	Port       int             `mapstructure:"port"`
	PingPeriod time.Duration   `mapstructure:"ping_period"`
	Autostart  bool            `mapstructure:"autostart"`
	Log        logging.Config  `mapstructure:"log"`
	Signaling  SignalingConfig `mapstructure:"signaling"`
	Auth       AuthConfig      `mapstructure:"auth"`
	WebRTC     WebRTCConfig    `mapstructure:"webrtc"`
	Audio      AudioConfig     `mapstructure:"audio"`
	Devices    []DeviceConfig  `mapstructure:"devices"`
	Store      StoreConfig     `mapstructure:"store"`
}

type SignalingConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	HardwareHeader string        `mapstructure:"hardware_header"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type AuthConfig struct {
	Token      string `mapstructure:"token"`
	HardwareID string `mapstructure:"hardware_id"`
}

type WebRTCConfig struct {
	STUNServers []string     `mapstructure:"stun_servers"`
	ReceiveMTU  uint         `mapstructure:"receive_mtu"`
	Gather      GatherConfig `mapstructure:"gather"`
}

type GatherConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	Candidates int           `mapstructure:"candidates"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// AudioConfig controls routing. With AutoActivate off no device is audible
// until one is picked explicitly.
type AudioConfig struct {
	AutoActivate bool `mapstructure:"auto_activate"`
}

type DeviceConfig struct {
	ID   int64  `mapstructure:"id"`
	Name string `mapstructure:"name"`
	Kind string `mapstructure:"kind"`
}

type StoreConfig struct {
	Driver string      `mapstructure:"driver"`
	Redis  RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("ping_period", "30s")
	v.SetDefault("autostart", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("signaling.base_url", "")
	v.SetDefault("signaling.hardware_header", "X-Hardware-Id")
	v.SetDefault("signaling.timeout", "30s")
	v.SetDefault("auth.token", "")
	v.SetDefault("auth.hardware_id", "")
	v.SetDefault("webrtc.stun_servers", []string{
		"stun:stun.l.google.com:19302",
		"stun:stun1.l.google.com:19302",
	})
	v.SetDefault("webrtc.receive_mtu", 0)
	v.SetDefault("webrtc.gather.interval", "100ms")
	v.SetDefault("webrtc.gather.candidates", 2)
	v.SetDefault("webrtc.gather.timeout", "2s")
	v.SetDefault("audio.auto_activate", true)
	v.SetDefault("devices", []map[string]any{})
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.key_prefix", "liveview:stream:")
	v.SetDefault("store.redis.ttl", "1m")
}

// Path returns config/config.<CONFIG_ENV>.yaml, dev by default.
func Path() string {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return fmt.Sprintf("config/config.%s.yaml", env)
}

func Load() (*Config, error) {
	cfg, _, err := LoadFile(Path())
	return cfg, err
}

// LoadFile reads fileName, overlays LIVEVIEW_* env vars and validates the result.
// A missing file falls back to defaults.
func LoadFile(fileName string) (*Config, *viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch reloads the file on change and hands every valid config to fn.
// Invalid edits are logged and skipped.
func Watch(v *viper.Viper, fn func(*Config)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			log.Error().Err(err).Str("module", "config").Str("file", e.Name).Msg("reload rejected")
			return
		}
		log.Info().Str("module", "config").Str("file", e.Name).Msg("config reloaded")
		fn(cfg)
	})
	v.WatchConfig()
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	switch c.Store.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if _, err := c.DeviceList(); err != nil {
		return err
	}
	return nil
}

// DeviceList converts the configured devices into domain devices.
func (c *Config) DeviceList() ([]domain.Device, error) {
	out := make([]domain.Device, 0, len(c.Devices))
	for i, d := range c.Devices {
		dev, err := domain.NewDevice(domain.DeviceID(d.ID), d.Name, domain.DeviceKind(d.Kind))
		if err != nil {
			return nil, fmt.Errorf("config: devices[%d]: %w", i, err)
		}
		out = append(out, *dev)
	}
	return out, nil
}
