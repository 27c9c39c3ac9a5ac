// Package config loads the emulator's configuration via viper, following
// the teacher's config.ServerConfig/DatabaseConfig pattern (referenced
// throughout its server.go and timescale.Client but whose defining file
// was absent from the retrieved pack — authored fresh here in the same
// mapstructure-tagged-struct idiom).
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig configures the admin HTTP surface (health, /metrics, the
// read-only snapshot endpoint, and JWT-gated operator auth).
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig configures the Postgres-backed cache and audit log.
// cmd/emulator opens the pool from DSN alone; MaxConns, MinConns and
// ConnMaxLifetime are not applied to it.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// BusConfig configures the in-process message bus adapter.
type BusConfig struct {
	SubscriberBufferSize int `mapstructure:"subscriber_buffer_size"`
}

// MarketDataConfig configures the reconnecting websocket feed client.
// cmd/emulator passes only URL to the feed; the reconnect delays and ping
// interval here are not applied, and the feed uses its own fixed 1s-30s
// backoff and 50s ping interval.
type MarketDataConfig struct {
	URL               string        `mapstructure:"url"`
	ReconnectMinDelay time.Duration `mapstructure:"reconnect_min_delay"`
	ReconnectMaxDelay time.Duration `mapstructure:"reconnect_max_delay"`
	PingInterval      time.Duration `mapstructure:"ping_interval"`
}

// AuthConfig configures the admin API's JWT operator auth.
type AuthConfig struct {
	JWTSecret       string `mapstructure:"jwt_secret"`
	OperatorUser    string `mapstructure:"operator_user"`
	OperatorPassKey string `mapstructure:"operator_pass_key"`
}

// Config is the emulator's full configuration tree.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Bus        BusConfig        `mapstructure:"bus"`
	MarketData MarketDataConfig `mapstructure:"market_data"`
	Auth       AuthConfig       `mapstructure:"auth"`
	LogLevel   string           `mapstructure:"log_level"`
}

// Load reads configuration from environment variables prefixed EMULATOR_,
// configPath (if non-empty), and defaults, in that precedence order: an
// environment variable overrides the file, and the file overrides a
// default.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("EMULATOR")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("bus.subscriber_buffer_size", 256)

	v.SetDefault("market_data.reconnect_min_delay", time.Second)
	v.SetDefault("market_data.reconnect_max_delay", 30*time.Second)
	v.SetDefault("market_data.ping_interval", 15*time.Second)

	v.SetDefault("log_level", "info")
}
