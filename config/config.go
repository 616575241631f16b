package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/fsproxy/errors"
)

// EnvPrefix prefixes every environment override, e.g. FSPROXY_SERVER_LISTEN.
const EnvPrefix = "FSPROXY"

// EnvConfigPath names the file Load reads when no path is given.
const EnvConfigPath = EnvPrefix + "_CONFIG"

// maxFrameLimit bounds server.max_frame_size.
const maxFrameLimit = 64 << 20

// Config holds the fsproxy configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Session SessionConfig `yaml:"session"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig configures the stream transport.
type ServerConfig struct {
	Network      string        `yaml:"network"`
	Listen       string        `yaml:"listen"`
	MaxFrameSize uint32        `yaml:"max_frame_size" split_words:"true"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" split_words:"true"`
}

// StorageConfig selects the directory served to clients.
type StorageConfig struct {
	Root string `yaml:"root"`
}

// SessionConfig bounds per-session resources.
type SessionConfig struct {
	ObjectLimit  int `yaml:"object_limit" split_words:"true"`
	ResponseSize int `yaml:"response_size" split_words:"true"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Listen
// disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
	Path   string `yaml:"path"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Network:      "tcp",
			Listen:       "127.0.0.1:7070",
			MaxFrameSize: 4 << 20,
			IdleTimeout:  5 * time.Minute,
		},
		Storage: StorageConfig{
			Root: ".",
		},
		Session: SessionConfig{
			ObjectLimit:  256,
			ResponseSize: 0x100,
		},
		Metrics: MetricsConfig{
			Path: "/metrics",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the file named by FSPROXY_CONFIG, if set, and applies
// environment overrides.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(EnvConfigPath))
}

// LoadFile layers defaults, the YAML file at path (skipped when empty) and
// FSPROXY_* environment variables, then validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "environment overrides")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.New(errors.PhaseConfig, errors.KindIO).
			Path(path).
			Cause(err).
			Detail("read config").
			Build()
	}
	return c.decode(data, path)
}

func (c *Config) decode(data []byte, name string) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Path(name).
			Cause(err).
			Detail("parse config").
			Build()
	}
	return nil
}

// Validate checks field ranges and returns the first problem found.
func (c *Config) Validate() error {
	invalid := func(value any, detail string, path ...string) error {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path(path...).
			Value(value).
			Detail("%s", detail).
			Build()
	}

	switch c.Server.Network {
	case "tcp", "tcp4", "tcp6", "unix":
	default:
		return invalid(c.Server.Network, "unsupported network", "server", "network")
	}
	if c.Server.Listen == "" {
		return invalid(c.Server.Listen, "listen address required", "server", "listen")
	}
	if c.Server.MaxFrameSize == 0 || c.Server.MaxFrameSize > maxFrameLimit {
		return invalid(c.Server.MaxFrameSize, "frame size must be between 1 and 64MiB", "server", "max_frame_size")
	}
	if c.Server.IdleTimeout < 0 {
		return invalid(c.Server.IdleTimeout, "idle timeout must not be negative", "server", "idle_timeout")
	}
	if c.Storage.Root == "" {
		return invalid(c.Storage.Root, "root directory required", "storage", "root")
	}
	if c.Session.ObjectLimit < 0 {
		return invalid(c.Session.ObjectLimit, "object limit must not be negative", "session", "object_limit")
	}
	if c.Session.ResponseSize < 0x100 {
		return invalid(c.Session.ResponseSize, "response size below 256 bytes", "session", "response_size")
	}
	if c.Metrics.Listen != "" && (c.Metrics.Path == "" || c.Metrics.Path[0] != '/') {
		return invalid(c.Metrics.Path, "metrics path must start with /", "metrics", "path")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return invalid(c.Log.Level, "unknown log level", "log", "level")
	}
	return nil
}

// Build creates the logger described by c.
func (c LogConfig) Build() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log level")
	}
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
