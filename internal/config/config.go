// Package config loads planetsim settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvAdminKey overrides Server.AdminKey when set.
const EnvAdminKey = "PLANETSIM_ADMIN_KEY"

// Config is the full planetsim configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Engine  EngineConfig  `toml:"engine"`
	Surface SurfaceConfig `toml:"surface"`
	Catalog CatalogConfig `toml:"catalog"`
	Journal JournalConfig `toml:"journal"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr          string  `toml:"addr"`
	AdminKey      string  `toml:"admin_key"`
	RatePerSecond float64 `toml:"rate_per_second"` // Player POSTs per client IP
	RateBurst     int     `toml:"rate_burst"`
	EventBuffer   int     `toml:"event_buffer"` // Per-subscriber channel size
	RecentEvents  int     `toml:"recent_events"`
}

// EngineConfig configures the tick loop.
type EngineConfig struct {
	Interval Duration `toml:"interval"`
	Speed    float64  `toml:"speed"`
}

// SurfaceConfig configures terrain generation.
type SurfaceConfig struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
	Seed   int64   `toml:"seed"` // 0 = random
}

// CatalogConfig points at an optional catalog override.
type CatalogConfig struct {
	Path string `toml:"path"` // Empty = embedded catalog
}

// JournalConfig configures the SQLite event journal.
type JournalConfig struct {
	Path       string   `toml:"path"` // Empty disables the journal
	Batch      int      `toml:"batch"`
	FlushEvery Duration `toml:"flush_every"`
}

// LogConfig configures slog.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
}

// Duration is a time.Duration that decodes from strings like "100ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:          ":8080",
			RatePerSecond: 5,
			RateBurst:     10,
			EventBuffer:   64,
			RecentEvents:  200,
		},
		Engine: EngineConfig{
			Interval: Duration{100 * time.Millisecond},
			Speed:    1,
		},
		Surface: SurfaceConfig{
			Width:  1000,
			Height: 600,
		},
		Journal: JournalConfig{
			Batch:      32,
			FlushEvery: Duration{time.Second},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load decodes path over DefaultConfig. A missing file yields the defaults.
// The admin key environment variable takes precedence over the file.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Warn("config file not found, using defaults", "path", path)
		case err != nil:
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		default:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				slog.Warn("unknown config keys ignored", "keys", undecoded)
			}
		}
	}
	if key := os.Getenv(EnvAdminKey); key != "" {
		cfg.Server.AdminKey = key
	}
	return cfg, cfg.Validate()
}

// Validate checks values that would otherwise fail later at runtime.
func (c Config) Validate() error {
	if c.Engine.Interval.Duration <= 0 {
		return fmt.Errorf("engine.interval must be positive, got %s", c.Engine.Interval)
	}
	if c.Engine.Speed < 0 {
		return fmt.Errorf("engine.speed must not be negative, got %g", c.Engine.Speed)
	}
	if c.Surface.Width <= 0 || c.Surface.Height <= 0 {
		return fmt.Errorf("surface dimensions must be positive, got %gx%g", c.Surface.Width, c.Surface.Height)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// Handler builds the slog handler described by the config.
func (l LogConfig) Handler() slog.Handler {
	lvl, err := l.SlogLevel()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(l.Format, "json") {
		return slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.NewTextHandler(os.Stderr, opts)
}
