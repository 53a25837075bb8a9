package config

import (
	"github.com/bnrm/backoffice/internal/container"
	"github.com/bnrm/backoffice/pkg/utils"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			AutoMigrate:     c.Database.AutoMigrate,
		},
		Backend: container.BackendConfig{
			Mode:       c.Backend.Mode,
			BaseURL:    c.Backend.BaseURL,
			APIKey:     c.Backend.APIKey,
			Timeout:    c.Backend.Timeout,
			MaxRetries: c.Backend.MaxRetries,
			MaxElapsed: c.Backend.MaxElapsed,
		},
		Workflows: container.WorkflowsConfig{
			DefinitionsDir: c.Workflows.DefinitionsDir,
			CacheTTL:       c.Workflows.CacheTTL,
			CacheCapacity:  c.Workflows.CacheCapacity,
			SeedOnStart:    c.Workflows.SeedOnStart,
		},
		Lark: container.LarkConfig{
			AppID:     c.Lark.AppID,
			AppSecret: c.Lark.AppSecret,
			BaseURL:   c.Lark.BaseURL,
			ChatID:    c.Lark.ChatID,
		},
		Export: container.ExportConfig{
			OutputDir: c.Export.OutputDir,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
			JWTSecret:    c.Auth.JWTSecret,
		},
	}
}

// ToLoggerConfig converts the logger section for utils.NewLogger
func (c *Config) ToLoggerConfig() utils.LoggerConfig {
	return utils.LoggerConfig{
		Level:      c.Logger.Level,
		OutputPath: c.Logger.OutputPath,
		Format:     c.Logger.Format,
		Service:    "bnrm-backoffice",
	}
}
