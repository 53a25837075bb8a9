package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Workflows WorkflowsConfig `mapstructure:"workflows"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Lark      LarkConfig      `mapstructure:"lark"`
	Export    ExportConfig    `mapstructure:"export"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// BackendConfig selects the workflow backend
type BackendConfig struct {
	Mode       string        `mapstructure:"mode"` // local or remote
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries uint64        `mapstructure:"max_retries"`
	MaxElapsed time.Duration `mapstructure:"max_elapsed"`
}

// WorkflowsConfig holds template and catalog cache configuration
type WorkflowsConfig struct {
	DefinitionsDir string        `mapstructure:"definitions_dir"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	CacheCapacity  int           `mapstructure:"cache_capacity"`
	SeedOnStart    bool          `mapstructure:"seed_on_start"`
}

// AuthConfig holds actor identity configuration
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// LarkConfig holds Lark API configuration
type LarkConfig struct {
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
	BaseURL   string `mapstructure:"base_url"`
	ChatID    string `mapstructure:"chat_id"`
}

// ExportConfig holds history export configuration
type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from an optional YAML file, an optional .env file
// and environment variables. An empty configPath uses defaults only.
func Load(configPath string) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadDotEnv exports the variables of path without overriding the
// environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := gotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.path", "data/backoffice.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("backend.mode", "local")
	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("backend.max_retries", 3)
	v.SetDefault("backend.max_elapsed", 15*time.Second)

	v.SetDefault("workflows.definitions_dir", "")
	v.SetDefault("workflows.cache_ttl", 10*time.Minute)
	v.SetDefault("workflows.cache_capacity", 64)
	v.SetDefault("workflows.seed_on_start", true)

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("lark.app_id", "")
	v.SetDefault("lark.app_secret", "")
	v.SetDefault("lark.base_url", "")
	v.SetDefault("lark.chat_id", "")

	v.SetDefault("export.output_dir", "exports")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds the unprefixed variables shared with other deployments
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("lark.app_id", "PORTAL_LARK_APP_ID", "LARK_APP_ID")
	_ = v.BindEnv("lark.app_secret", "PORTAL_LARK_APP_SECRET", "LARK_APP_SECRET")
	_ = v.BindEnv("lark.chat_id", "PORTAL_LARK_CHAT_ID", "LARK_CHAT_ID")
	_ = v.BindEnv("backend.api_key", "PORTAL_BACKEND_API_KEY", "BACKEND_API_KEY")
	_ = v.BindEnv("auth.jwt_secret", "PORTAL_AUTH_JWT_SECRET", "JWT_SECRET")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format)
	}

	if c.Export.OutputDir == "" {
		return fmt.Errorf("export.output_dir is required")
	}

	return c.ToContainerConfig().Validate()
}
