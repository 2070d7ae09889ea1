package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"mallguide-server-go/internal/platform/errors"
)

const (
	DefaultPath = ".config.yaml"

	EnvConfigPath    = "MALLGUIDE_CONFIG"
	EnvPort          = "MALLGUIDE_PORT"
	EnvAdminUser     = "MALLGUIDE_ADMIN_USER"
	EnvAdminPassword = "MALLGUIDE_ADMIN_PASSWORD"
	EnvJWTSecret     = "MALLGUIDE_JWT_SECRET"
	EnvDBPath        = "MALLGUIDE_DB_PATH"
	EnvMongoURI      = "MALLGUIDE_MONGO_URI"
	EnvRedisAddr     = "MALLGUIDE_REDIS_ADDR"
)

// Loader reads the YAML file over DefaultConfig and applies environment
// overrides on top.
type Loader struct {
	path      string
	envFile   string
	useDotEnv bool
	lookupEnv func(string) (string, bool)
}

func NewLoader() *Loader {
	return &Loader{
		useDotEnv: true,
		lookupEnv: os.LookupEnv,
	}
}

// WithPath sets an explicit config file path.
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

// WithEnvFile sets the .env file loaded before reading overrides.
func (l *Loader) WithEnvFile(path string) *Loader {
	l.envFile = path
	return l
}

// WithDotEnv toggles loading variables from a .env file.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithLookup replaces the environment lookup (tests).
func (l *Loader) WithLookup(fn func(string) (string, bool)) *Loader {
	if fn != nil {
		l.lookupEnv = fn
	}
	return l
}

// Result captures the loaded configuration and the file it came from.
// Path is empty when no file was found.
type Result struct {
	Config *Config
	Path   string
}

func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		var err error
		if l.envFile != "" {
			err = godotenv.Load(l.envFile)
		} else {
			err = godotenv.Load()
		}
		if err != nil && l.envFile != "" {
			return nil, errors.Wrap(errors.KindConfig, "config.load", "failed to load env file", err)
		}
	}

	cfg := DefaultConfig()
	path := l.resolvePath()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(errors.KindConfig, "config.load", fmt.Sprintf("failed to parse %s", path), err)
		}
	case os.IsNotExist(err) && l.path == "" && !l.hasEnv(EnvConfigPath):
		path = ""
	default:
		return nil, errors.Wrap(errors.KindConfig, "config.load", fmt.Sprintf("failed to read %s", path), err)
	}

	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := l.validate(cfg); err != nil {
		return nil, err
	}

	return &Result{Config: cfg, Path: path}, nil
}

func (l *Loader) resolvePath() string {
	if l.path != "" {
		return l.path
	}
	if v, ok := l.lookupEnv(EnvConfigPath); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return DefaultPath
}

func (l *Loader) hasEnv(key string) bool {
	v, ok := l.lookupEnv(key)
	return ok && strings.TrimSpace(v) != ""
}

func (l *Loader) applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := l.lookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := l.lookupEnv(EnvPort); ok && strings.TrimSpace(v) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrap(errors.KindConfig, "config.env", EnvPort+" must be a number", err)
		}
		cfg.Server.Port = port
	}
	str(EnvAdminUser, &cfg.Gate.Username)
	str(EnvAdminPassword, &cfg.Gate.Password)
	str(EnvJWTSecret, &cfg.Gate.JWTSecret)
	str(EnvDBPath, &cfg.Database.Path)
	str(EnvMongoURI, &cfg.Directory.Store.Mongo.URI)
	str(EnvRedisAddr, &cfg.Gate.Store.Redis.Addr)
	return nil
}

func (l *Loader) validate(cfg *Config) error {
	return cfg.Validate()
}

// Validate checks the fields the server cannot start without.
func (c *Config) Validate() error {
	const op = "config.validate"
	if c == nil {
		return errors.New(errors.KindConfig, op, "config is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Newf(errors.KindConfig, op, "invalid server port %d", c.Server.Port)
	}

	switch strings.ToLower(c.Directory.Store.Driver) {
	case "sqlite":
		if strings.TrimSpace(c.Database.Path) == "" {
			return errors.New(errors.KindConfig, op, "database.path is required for the sqlite driver")
		}
	case "memory":
	case "mongo":
		if strings.TrimSpace(c.Directory.Store.Mongo.URI) == "" {
			return errors.New(errors.KindConfig, op, "directory.store.mongo.uri is required for the mongo driver")
		}
	default:
		return errors.Newf(errors.KindConfig, op, "unsupported directory store driver %q", c.Directory.Store.Driver)
	}

	switch strings.ToLower(c.Gate.Store.Type) {
	case "", "memory":
	case "sqlite":
		if strings.TrimSpace(c.Database.Path) == "" {
			return errors.New(errors.KindConfig, op, "database.path is required for the sqlite gate store")
		}
	case "redis":
		if strings.TrimSpace(c.Gate.Store.Redis.Addr) == "" {
			return errors.New(errors.KindConfig, op, "gate.store.redis.addr is required for the redis gate store")
		}
	default:
		return errors.Newf(errors.KindConfig, op, "unsupported gate store type %q", c.Gate.Store.Type)
	}

	if c.Gate.Required {
		if c.Gate.Username == "" || c.Gate.Password == "" {
			return errors.New(errors.KindConfig, op, "gate credentials are required")
		}
		if c.Gate.JWTSecret == "" {
			return errors.New(errors.KindConfig, op, "gate.jwt_secret is required")
		}
	}
	if c.Notify.OutboxSize <= 0 {
		return errors.Newf(errors.KindConfig, op, "notify.outbox_size must be positive, got %d", c.Notify.OutboxSize)
	}
	if c.Notify.WriteTimeout <= 0 {
		return errors.New(errors.KindConfig, op, "notify.write_timeout must be positive")
	}
	if c.Notify.IdleTimeout < 0 || c.Notify.SweepInterval < 0 {
		return errors.New(errors.KindConfig, op, "notify.idle_timeout and notify.sweep_interval must not be negative")
	}
	if c.Notify.IdleTimeout > 0 && c.Notify.IdleTimeout <= c.Notify.PingInterval {
		return errors.New(errors.KindConfig, op, "notify.idle_timeout must exceed notify.ping_interval")
	}
	if !strings.HasPrefix(c.Notify.Path, "/") {
		return errors.Newf(errors.KindConfig, op, "notify.path must start with '/', got %q", c.Notify.Path)
	}
	return nil
}
