package config

import (
	"time"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Log           LogConfig           `yaml:"log"`
	Web           WebConfig           `yaml:"web"`
	Database      DatabaseConfig      `yaml:"database"`
	Directory     DirectoryConfig     `yaml:"directory"`
	Notify        NotifyConfig        `yaml:"notify"`
	Gate          GateConfig          `yaml:"gate"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type ServerConfig struct {
	IP              string        `yaml:"ip"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type WebConfig struct {
	StaticDir      string   `yaml:"static_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig points at the SQLite file shared by the sqlite drivers.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type DirectoryConfig struct {
	Store           DirectoryStoreConfig `yaml:"store"`
	ExtraCategories []string             `yaml:"extra_categories"`
}

type DirectoryStoreConfig struct {
	// Driver is one of sqlite, memory or mongo.
	Driver string      `yaml:"driver"`
	Mongo  MongoConfig `yaml:"mongo"`
}

type MongoConfig struct {
	URI      string        `yaml:"uri"`
	Database string        `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"`
}

type NotifyConfig struct {
	Path         string        `yaml:"path"`
	OutboxSize   int           `yaml:"outbox_size"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PingInterval time.Duration `yaml:"ping_interval"`
	// IdleTimeout closes sessions with no traffic or pongs for this long; 0 disables it.
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type GateConfig struct {
	Required  bool            `yaml:"required"`
	Username  string          `yaml:"username"`
	Password  string          `yaml:"password"`
	JWTSecret string          `yaml:"jwt_secret"`
	TokenTTL  time.Duration   `yaml:"token_ttl"`
	Store     GateStoreConfig `yaml:"store"`
}

type GateStoreConfig struct {
	// Type is one of memory, sqlite or redis.
	Type    string           `yaml:"type"`
	Cleanup time.Duration    `yaml:"cleanup"`
	Redis   RedisStoreConfig `yaml:"redis"`
}

type RedisStoreConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type ObservabilityConfig struct {
	Enabled bool `yaml:"enabled"`
}
