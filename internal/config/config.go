// Package config loads daemon settings from defaults, an optional YAML file,
// PEERSYNC_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/iudanet/peersync/internal/kinds"
	"github.com/iudanet/peersync/internal/logging"
	"github.com/iudanet/peersync/internal/ports"
	"github.com/iudanet/peersync/internal/validation"
)

// EnvPrefix префикс переменных окружения: PEERSYNC_APP_ID, PEERSYNC_STORE_PATH, ...
const EnvPrefix = "PEERSYNC"

// Драйверы локального хранилища
const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the daemon settings.
type Config struct {
	Peers             []string        `mapstructure:"peers"`
	Kinds             []string        `mapstructure:"kinds"`
	App               AppConfig       `mapstructure:"app"`
	Store             StoreConfig     `mapstructure:"store"`
	Log               LogConfig       `mapstructure:"log"`
	ServiceName       string          `mapstructure:"service_name"`
	Transport         TransportConfig `mapstructure:"transport"`
	PortAttempts      int             `mapstructure:"port_attempts"`
	NotifyBuffer      int             `mapstructure:"notify_buffer"`
	TombstoneCapacity int             `mapstructure:"tombstone_capacity"`
}

// AppConfig identifies this process to its peers.
type AppConfig struct {
	ID      string `mapstructure:"id"`
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// StoreConfig selects the entity store.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// LogConfig mirrors logging.Options.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// TransportConfig tunes the WebSocket transport.
type TransportConfig struct {
	RedialInterval   time.Duration `mapstructure:"redial_interval"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	RateLimit        float64       `mapstructure:"rate_limit"`
	RateBurst        int           `mapstructure:"rate_burst"`
	// RepublishInterval периодически заново публикует все записи хранилища,
	// в том числе записанные в файл БД другим процессом. 0 отключает
	RepublishInterval time.Duration `mapstructure:"republish_interval"`
}

// LoggingOptions converts the log section.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
	}
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// SetDefaults registers the default of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.id", "peersync")
	v.SetDefault("app.name", "peersync")
	v.SetDefault("app.version", "dev")
	v.SetDefault("service_name", "")
	v.SetDefault("store.driver", DriverBolt)
	v.SetDefault("store.path", "peersync.db")
	v.SetDefault("peers", []string{})
	v.SetDefault("kinds", kinds.Names())
	v.SetDefault("port_attempts", ports.DefaultAttempts)
	v.SetDefault("notify_buffer", 16)
	v.SetDefault("tombstone_capacity", 1024)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatAuto)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("transport.redial_interval", 2*time.Second)
	v.SetDefault("transport.handshake_timeout", 5*time.Second)
	v.SetDefault("transport.rate_limit", 200.0)
	v.SetDefault("transport.rate_burst", 200)
	v.SetDefault("transport.republish_interval", time.Duration(0))
}

// Load reads the optional config file and decodes all layers into a Config.
// An empty file means no file.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// значения из env приходят одной строкой через запятую
	cfg.Peers = splitList(cfg.Peers)
	cfg.Kinds = splitList(cfg.Kinds)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that the components would otherwise reject late.
func (c *Config) Validate() error {
	if err := validation.ValidateAppID(c.App.ID); err != nil {
		return fmt.Errorf("%w: app.id: %v", ErrInvalidConfig, err)
	}

	switch c.Store.Driver {
	case DriverBolt, DriverSQLite:
	default:
		return fmt.Errorf("%w: store.driver must be %q or %q, got %q", ErrInvalidConfig, DriverBolt, DriverSQLite, c.Store.Driver)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("%w: store.path is required", ErrInvalidConfig)
	}

	if len(c.Kinds) == 0 {
		return fmt.Errorf("%w: no kinds enabled", ErrInvalidConfig)
	}
	for _, k := range c.Kinds {
		if _, err := kinds.Lookup(k); err != nil {
			return fmt.Errorf("%w: kinds: %v", ErrInvalidConfig, err)
		}
	}

	for _, p := range c.Peers {
		if err := validation.ValidateAppID(p); err != nil {
			return fmt.Errorf("%w: peers: %v", ErrInvalidConfig, err)
		}
	}

	if c.PortAttempts < 1 {
		return fmt.Errorf("%w: port_attempts must be positive", ErrInvalidConfig)
	}
	if c.Transport.RateLimit < 0 {
		return fmt.Errorf("%w: transport.rate_limit must not be negative", ErrInvalidConfig)
	}
	if c.Transport.RepublishInterval < 0 {
		return fmt.Errorf("%w: transport.republish_interval must not be negative", ErrInvalidConfig)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
	}

	return nil
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
