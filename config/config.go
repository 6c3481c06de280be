package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const prefix = "corvex"

// Config holds all application configuration. Every key is read from the
// environment with the CORVEX_ prefix, e.g. CORVEX_STORAGE_ROOT.
type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Render     RenderConfig
	Connection ConnectionConfig
	Log        LogConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `default:"127.0.0.1"`
	Port uint   `default:"1234"`
}

// StorageConfig holds storage root and file type settings.
type StorageConfig struct {
	// Root overrides <home>/corvex/data when set.
	Root       string
	Extensions []string `default:"md,tex"`
}

// RenderConfig holds PDF engine settings.
type RenderConfig struct {
	Engine  string        `default:"pdflatex"`
	Timeout time.Duration `default:"60s"`
}

// ConnectionConfig holds websocket connection settings.
type ConnectionConfig struct {
	Timeout time.Duration `default:"1m"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `default:"info"`
	Development bool   `default:"false"`
}

// RateLimitConfig limits PDF renders per client.
type RateLimitConfig struct {
	RPS     int  `default:"5"`
	Burst   int  `default:"10"`
	Enabled bool `default:"true"`
}

// CORSConfig lists origins allowed to call the API.
type CORSConfig struct {
	Origins []string `default:"*"`
}

// Load reads an optional .env file and then the environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 1234,
		},
		Storage: StorageConfig{
			Extensions: []string{"md", "tex"},
		},
		Render: RenderConfig{
			Engine:  "pdflatex",
			Timeout: time.Minute,
		},
		Connection: ConnectionConfig{
			Timeout: time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RPS:     5,
			Burst:   10,
			Enabled: true,
		},
		CORS: CORSConfig{
			Origins: []string{"*"},
		},
	}
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
