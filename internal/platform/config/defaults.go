package config

import "time"

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:              "0.0.0.0",
			Port:            3000,
			ShutdownTimeout: 15 * time.Second,
		},
		Log: LogConfig{
			Level: "INFO",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Web: WebConfig{
			StaticDir:      "web",
			AllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Path: "data/mallguide.db",
		},
		Directory: DirectoryConfig{
			Store: DirectoryStoreConfig{
				Driver: "sqlite",
				Mongo: MongoConfig{
					URI:      "mongodb://localhost:27017",
					Database: "mallguide",
					Timeout:  10 * time.Second,
				},
			},
		},
		Notify: NotifyConfig{
			Path:         "/admin",
			OutboxSize:   32,
			WriteTimeout: 5 * time.Second,
			PingInterval: 30 * time.Second,
			IdleTimeout:   5 * time.Minute,
			SweepInterval: 30 * time.Second,
		},
		Gate: GateConfig{
			Required:  true,
			Username:  "1",
			Password:  "1",
			JWTSecret: "change-me",
			TokenTTL:  12 * time.Hour,
			Store: GateStoreConfig{
				Type:    "memory",
				Cleanup: 5 * time.Minute,
				Redis: RedisStoreConfig{
					Addr:   "127.0.0.1:6379",
					Prefix: "mallguide:session",
				},
			},
		},
	}
}
