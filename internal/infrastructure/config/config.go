package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/annix-labs/fieldflow/internal/shared/config"
)

type Config struct {
	Server    sharedConfig.ServerConfig    `mapstructure:"server"`
	Database  sharedConfig.DatabaseConfig  `mapstructure:"database"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Auth      sharedConfig.AuthConfig      `mapstructure:"auth"`
	Platforms sharedConfig.PlatformsConfig `mapstructure:"platforms"`
	Storage   sharedConfig.StorageConfig   `mapstructure:"storage"`
	Scheduler sharedConfig.SchedulerConfig `mapstructure:"scheduler"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("FIELDFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Env-only deployments run without a config file
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Allow env parameter to override server mode if provided
	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.base_url", "http://localhost:8080")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "fieldflow_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// Auth defaults
	viper.SetDefault("auth.jwt.secret", "change-me-in-production")
	viper.SetDefault("auth.jwt.access_exp_minutes", 15)
	viper.SetDefault("auth.jwt.refresh_exp_days", 7)

	// Platform OAuth defaults (empty by default, must be configured)
	viper.SetDefault("platforms.zoom.client_id", "")
	viper.SetDefault("platforms.zoom.client_secret", "")
	viper.SetDefault("platforms.zoom.redirect_url", "http://localhost:8080/platforms/oauth/zoom/callback")
	viper.SetDefault("platforms.teams.client_id", "")
	viper.SetDefault("platforms.teams.client_secret", "")
	viper.SetDefault("platforms.teams.redirect_url", "http://localhost:8080/platforms/oauth/teams/callback")
	viper.SetDefault("platforms.teams.tenant_id", "common")
	viper.SetDefault("platforms.google.client_id", "")
	viper.SetDefault("platforms.google.client_secret", "")
	viper.SetDefault("platforms.google.redirect_url", "http://localhost:8080/platforms/oauth/google_meet/callback")
	viper.SetDefault("platforms.zoom_webhook_secret", "")
	viper.SetDefault("platforms.webhook_base_url", "")
	viper.SetDefault("platforms.token_encryption_key", "")

	// Storage defaults
	viper.SetDefault("storage.region", "us-east-1")
	viper.SetDefault("storage.bucket", "fieldflow-recordings")
	viper.SetDefault("storage.access_key_id", "")
	viper.SetDefault("storage.secret_access_key", "")
	viper.SetDefault("storage.endpoint", "")

	// Scheduler defaults
	viper.SetDefault("scheduler.enabled", true)
}
