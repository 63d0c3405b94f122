// Package config loads the service configuration once at startup. The
// resulting Config is passed to constructors; nothing reads it globally.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Server    Server    `mapstructure:"server"`
	Database  Database  `mapstructure:"database"`
	Auth      Auth      `mapstructure:"auth"`
	Log       Log       `mapstructure:"log"`
	CORS      CORS      `mapstructure:"cors"`
	RateLimit RateLimit `mapstructure:"ratelimit"`
	Items     Items     `mapstructure:"items"`
}

type Server struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type Database struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// DriverName returns the configured driver, inferring postgres from a
// postgres:// or postgresql:// DSN when Driver is empty.
func (d Database) DriverName() string {
	if d.Driver != "" {
		return strings.ToLower(d.Driver)
	}
	if strings.HasPrefix(d.DSN, "postgres://") || strings.HasPrefix(d.DSN, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Validate checks the settings needed to open the database.
func (d Database) Validate() error {
	var errs []error
	switch d.DriverName() {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", d.Driver))
	}
	if d.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	return errors.Join(errs...)
}

type Auth struct {
	Secret    string `mapstructure:"secret"`
	Algorithm string `mapstructure:"algorithm"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CORS struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	FrontendURL    string   `mapstructure:"frontend_url"`
}

// Origins returns the allowed origins including the frontend URL, if set.
func (c CORS) Origins() []string {
	origins := append([]string(nil), c.AllowedOrigins...)
	if c.FrontendURL != "" {
		origins = append(origins, c.FrontendURL)
	}
	return origins
}

type RateLimit struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type Items struct {
	AutoCategorize bool `mapstructure:"auto_categorize"`
}

// NewViper returns a viper instance with defaults and environment bindings.
// Environment variables use the GROCER_ prefix (GROCER_DATABASE_DSN); the
// variable names used by earlier deployments (SECRET_KEY, ALGORITHM,
// DATABASE_URL, FRONTEND_URL) are honored as fallbacks.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("database.driver", "")
	v.SetDefault("database.dsn", "grocer.db")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.algorithm", "HS256")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:4200", "https://localhost:4200"})
	v.SetDefault("cors.frontend_url", "")
	v.SetDefault("ratelimit.requests", 120)
	v.SetDefault("ratelimit.window", time.Minute)
	v.SetDefault("items.auto_categorize", false)

	v.SetEnvPrefix("GROCER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("auth.secret", "GROCER_AUTH_SECRET", "SECRET_KEY")
	_ = v.BindEnv("auth.algorithm", "GROCER_AUTH_ALGORITHM", "ALGORITHM")
	_ = v.BindEnv("database.dsn", "GROCER_DATABASE_DSN", "DATABASE_URL")
	_ = v.BindEnv("cors.frontend_url", "GROCER_CORS_FRONTEND_URL", "FRONTEND_URL")

	return v
}

// Load reads the optional config file into v and decodes the result. An
// empty path searches for grocer.yaml in the working directory; a missing
// file is not an error in that case. Callers validate what they need.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("grocer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate reports configuration that would fail at runtime.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.Secret == "" {
		errs = append(errs, errors.New("auth.secret is required (SECRET_KEY)"))
	}
	switch strings.ToUpper(c.Auth.Algorithm) {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("auth.algorithm %q is not supported", c.Auth.Algorithm))
	}
	if err := c.Database.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.RateLimit.Requests < 0 {
		errs = append(errs, errors.New("ratelimit.requests must not be negative"))
	}
	return errors.Join(errs...)
}
