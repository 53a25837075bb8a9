// Package container provides dependency injection and lifecycle management
// for the back-office workflow service.
package container

import (
	"fmt"
	"time"
)

// Backend modes
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// Config holds all configuration for the Container.
type Config struct {
	Database  DatabaseConfig
	Backend   BackendConfig
	Workflows WorkflowsConfig
	Lark      LarkConfig
	Export    ExportConfig
	Server    ServerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// AutoMigrate applies the embedded migrations on start
	AutoMigrate bool
}

// BackendConfig selects where catalogs, history and transitions live.
type BackendConfig struct {
	// Mode is "local" (SQLite + transition procedure) or "remote" (REST/RPC)
	Mode string

	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries uint64
	MaxElapsed time.Duration
}

// WorkflowsConfig holds template and catalog cache settings.
type WorkflowsConfig struct {
	// DefinitionsDir holds YAML templates overriding the built-in ones
	DefinitionsDir string

	CacheTTL      time.Duration
	CacheCapacity int

	// SeedOnStart writes the template catalogs to the local store on start
	SeedOnStart bool
}

// LarkConfig holds Lark API settings. Notifications are off without credentials.
type LarkConfig struct {
	AppID     string
	AppSecret string
	BaseURL   string
	ChatID    string
}

// ExportConfig holds history export settings.
type ExportConfig struct {
	OutputDir string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	JWTSecret    string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/backoffice.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			AutoMigrate:     true,
		},
		Backend: BackendConfig{
			Mode:       BackendLocal,
			Timeout:    10 * time.Second,
			MaxRetries: 3,
			MaxElapsed: 15 * time.Second,
		},
		Workflows: WorkflowsConfig{
			CacheTTL:      10 * time.Minute,
			CacheCapacity: 64,
			SeedOnStart:   true,
		},
		Export: ExportConfig{
			OutputDir: "exports",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// Validate checks that the configuration can build a container.
func (c *Config) Validate() error {
	switch c.Backend.Mode {
	case BackendLocal:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required in local mode")
		}
	case BackendRemote:
		if c.Backend.BaseURL == "" {
			return fmt.Errorf("backend.base_url is required in remote mode")
		}
		if c.Backend.APIKey == "" {
			return fmt.Errorf("backend.api_key is required in remote mode")
		}
	default:
		return fmt.Errorf("backend.mode must be %q or %q, got %q", BackendLocal, BackendRemote, c.Backend.Mode)
	}

	if c.Workflows.CacheTTL <= 0 {
		return fmt.Errorf("workflows.cache_ttl must be positive")
	}
	if c.Workflows.CacheCapacity <= 0 {
		return fmt.Errorf("workflows.cache_capacity must be positive")
	}

	if c.Lark.AppID != "" || c.Lark.AppSecret != "" {
		if c.Lark.AppID == "" || c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_id and lark.app_secret must be set together")
		}
		if c.Lark.ChatID == "" {
			return fmt.Errorf("lark.chat_id is required when lark credentials are set")
		}
	}

	return nil
}
