// Package config manages gohdc daemon configuration using koanf/v2.
//
// Supports YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete gohdc daemon configuration.
type Config struct {
	Link    LinkConfig    `koanf:"link"`
	HDC     HDCConfig     `koanf:"hdc"`
	Control ControlConfig `koanf:"control"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
}

// LinkConfig holds the serial transport configuration.
type LinkConfig struct {
	// Device is the path to the UART device node (e.g., "/dev/ttyUSB0").
	Device string `koanf:"device"`
	// BaudRate is the serial line speed in bits/second.
	BaudRate int `koanf:"baud_rate"`
}

// HDCConfig holds the protocol engine's compile-time-style limits
// (hdc.Config, mirrored here so they're configurable per deployment).
type HDCConfig struct {
	// MaxReqMessageSize bounds the largest request payload accepted, must
	// be in [5,254].
	MaxReqMessageSize int `koanf:"max_req_message_size"`
	// TXBufCap is the capacity of each of the composer's two TX buffers,
	// must be >= 258.
	TXBufCap int `koanf:"tx_buf_cap"`
}

// ControlConfig holds the read-only HTTP introspection server
// configuration.
type ControlConfig struct {
	// Addr is the HTTP listen address (e.g., ":8080").
	Addr string `koanf:"addr"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9100").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Link: LinkConfig{
			Device:   "/dev/ttyUSB0",
			BaudRate: 115200,
		},
		HDC: HDCConfig{
			MaxReqMessageSize: 128,
			TXBufCap:          512,
		},
		Control: ControlConfig{
			Addr: ":8080",
		},
		Metrics: MetricsConfig{
			Addr: ":9100",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for gohdc configuration.
// Variables are named GOHDC_<section>_<key>, e.g., GOHDC_LINK_DEVICE.
const envPrefix = "GOHDC_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (GOHDC_ prefix), and merges on top of DefaultConfig().
// Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	GOHDC_LINK_DEVICE    -> link.device
//	GOHDC_LINK_BAUD_RATE -> link.baud_rate
//	GOHDC_CONTROL_ADDR   -> control.addr
//	GOHDC_METRICS_ADDR   -> metrics.addr
//	GOHDC_METRICS_PATH   -> metrics.path
//	GOHDC_LOG_LEVEL      -> log.level
//	GOHDC_LOG_FORMAT     -> log.format
//
// Uses koanf/v2 with file + env providers and YAML parser.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms GOHDC_LINK_DEVICE -> link.device.
// Strips the GOHDC_ prefix, lowercases, and replaces the first _ (the
// section separator) with . so GOHDC_LINK_BAUD_RATE -> link.baud_rate.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.Replace(s, "_", ".", 1)
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"link.device":               defaults.Link.Device,
		"link.baud_rate":            defaults.Link.BaudRate,
		"hdc.max_req_message_size":  defaults.HDC.MaxReqMessageSize,
		"hdc.tx_buf_cap":            defaults.HDC.TXBufCap,
		"control.addr":              defaults.Control.Addr,
		"metrics.addr":              defaults.Metrics.Addr,
		"metrics.path":              defaults.Metrics.Path,
		"log.level":                 defaults.Log.Level,
		"log.format":                defaults.Log.Format,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrEmptyLinkDevice indicates the serial device path is empty.
	ErrEmptyLinkDevice = errors.New("link.device must not be empty")

	// ErrInvalidBaudRate indicates the configured baud rate is not positive.
	ErrInvalidBaudRate = errors.New("link.baud_rate must be > 0")

	// ErrInvalidMaxReqMessageSize indicates hdc.max_req_message_size falls
	// outside [5,254].
	ErrInvalidMaxReqMessageSize = errors.New("hdc.max_req_message_size must be in [5,254]")

	// ErrInvalidTXBufCap indicates hdc.tx_buf_cap is smaller than the
	// minimum a single full packet requires.
	ErrInvalidTXBufCap = errors.New("hdc.tx_buf_cap must be >= 258")

	// ErrEmptyControlAddr indicates the control listen address is empty.
	ErrEmptyControlAddr = errors.New("control.addr must not be empty")

	// ErrEmptyMetricsAddr indicates the metrics listen address is empty.
	ErrEmptyMetricsAddr = errors.New("metrics.addr must not be empty")
)

// minTXBufCap mirrors hdc.MinTXCap without importing the hdc package,
// keeping config free of a dependency on the protocol engine.
const minTXBufCap = 258

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	if cfg.Link.Device == "" {
		return ErrEmptyLinkDevice
	}
	if cfg.Link.BaudRate <= 0 {
		return ErrInvalidBaudRate
	}
	if cfg.HDC.MaxReqMessageSize < 5 || cfg.HDC.MaxReqMessageSize > 254 {
		return ErrInvalidMaxReqMessageSize
	}
	if cfg.HDC.TXBufCap < minTXBufCap {
		return ErrInvalidTXBufCap
	}
	if cfg.Control.Addr == "" {
		return ErrEmptyControlAddr
	}
	if cfg.Metrics.Addr == "" {
		return ErrEmptyMetricsAddr
	}
	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
