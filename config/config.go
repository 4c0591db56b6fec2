package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/mwantia/objectstore"
	"github.com/mwantia/objectstore/backend/consul"
	"github.com/mwantia/objectstore/backend/s3"
	sqlbackend "github.com/mwantia/objectstore/backend/sql"
	"github.com/mwantia/objectstore/log"
	"gopkg.in/yaml.v3"
)

// Route types understood by Build.
const (
	TypeS3     = "s3"
	TypeLocal  = "local"
	TypeMemory = "memory"
	TypeConsul = "consul"
	TypeSQL    = "sql"
)

type Config struct {
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Routes  []RouteConfig `yaml:"routes"`
}

type LogConfig struct {
	Level      string `yaml:"level"` // DEBUG, INFO, WARN, ERROR or FATAL
	File       string `yaml:"file"`  // rotated log file, disabled if empty
	JSON       bool   `yaml:"json"`
	NoTerminal bool   `yaml:"no_terminal"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// RouteConfig registers one backend. An empty prefix makes it the default.
// Only the section matching Type is used; local and memory take no options.
type RouteConfig struct {
	Prefix   string `yaml:"prefix"`
	Type     string `yaml:"type"`
	ReadOnly bool   `yaml:"read_only"`

	S3     *s3.S3BackendConfig          `yaml:"s3,omitempty"`
	Consul *consul.ConsulBackendConfig  `yaml:"consul,omitempty"`
	SQL    *sqlbackend.SQLBackendConfig `yaml:"sql,omitempty"`
}

func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "INFO",
		},
		Routes: []RouteConfig{
			{
				Prefix: s3.Prefix,
				Type:   TypeS3,
				S3:     &s3.S3BackendConfig{},
			},
			{
				Prefix: "",
				Type:   TypeLocal,
			},
		},
	}
}

// Load reads path on top of Default and applies environment overrides.
// An empty path only applies the overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// Parse decodes yaml into cfg. Routes in data replace the default routes.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("OBJECTSTORE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	for i := range cfg.Routes {
		route := &cfg.Routes[i]
		if route.Type != TypeS3 {
			continue
		}
		if route.S3 == nil {
			route.S3 = &s3.S3BackendConfig{}
		}

		if v := os.Getenv("OBJECTSTORE_S3_ENDPOINT"); v != "" {
			route.S3.Endpoint = v
		}
		if v := os.Getenv("OBJECTSTORE_S3_ACCESS_KEY"); v != "" {
			route.S3.AccessKey = v
		}
		if v := os.Getenv("OBJECTSTORE_S3_SECRET_KEY"); v != "" {
			route.S3.SecretKey = v
		}
		if v := os.Getenv("OBJECTSTORE_S3_SECURE"); v != "" {
			if secure, err := strconv.ParseBool(v); err == nil {
				route.S3.Secure = secure
			}
		}
		if v := os.Getenv("OBJECTSTORE_S3_REGION"); v != "" {
			route.S3.Region = v
		}
	}
}

// Validate reports the first configuration problem, wrapping objectstore.ErrConfiguration.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is required", objectstore.ErrConfiguration)
	}
	if _, err := log.Parse(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", objectstore.ErrConfiguration, err)
	}

	seen := make(map[string]bool, len(c.Routes))
	for i, route := range c.Routes {
		if seen[route.Prefix] {
			return fmt.Errorf("%w: routes[%d]: duplicate prefix '%s'", objectstore.ErrConfiguration, i, route.Prefix)
		}
		seen[route.Prefix] = true

		switch route.Type {
		case TypeS3, TypeLocal, TypeMemory, TypeConsul:
		case TypeSQL:
			if route.SQL == nil || route.SQL.DSN == "" {
				return fmt.Errorf("%w: routes[%d]: sql.dsn must be configured", objectstore.ErrConfiguration, i)
			}
			if route.SQL.Driver != sqlbackend.DialectSQLite && route.SQL.Driver != sqlbackend.DialectPostgres {
				return fmt.Errorf("%w: routes[%d]: sql.driver must be 'sqlite' or 'postgres'", objectstore.ErrConfiguration, i)
			}
		default:
			return fmt.Errorf("%w: routes[%d]: unknown type '%s'", objectstore.ErrConfiguration, i, route.Type)
		}
	}

	return nil
}

// NewLogger creates the logger described by the log section. Extra options
// are applied after the configured ones.
func (c *Config) NewLogger(name string, extra ...log.LoggerOption) (*log.Logger, error) {
	level, err := log.Parse(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: log.level: %v", objectstore.ErrConfiguration, err)
	}

	var opts []log.LoggerOption
	if c.Log.File != "" {
		opts = append(opts, log.WithFile(c.Log.File))
	}
	if c.Log.JSON {
		opts = append(opts, log.WithJSON())
	}
	if c.Log.NoTerminal {
		opts = append(opts, log.WithoutTerminal())
	}

	return log.NewLogger(name, level, append(opts, extra...)...), nil
}
