// Package config provides configuration management for the report server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the main application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Regeneration RegenerationConfig `mapstructure:"regeneration"`
	Annotation   AnnotationConfig   `mapstructure:"annotation"`
	Export       ExportConfig       `mapstructure:"export"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// RegenerationConfig represents AI regeneration provider configuration
type RegenerationConfig struct {
	// Delay is the simulated provider latency.
	Delay time.Duration `mapstructure:"delay"`
	// DispatchPerMinute caps regeneration dispatches; 0 disables the cap.
	DispatchPerMinute int `mapstructure:"dispatch_per_minute"`
	// BreakerMaxFailures trips the provider circuit breaker.
	BreakerMaxFailures uint32 `mapstructure:"breaker_max_failures"`
	// BreakerCooldown is the open-state duration before a probe.
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown"`
}

// AnnotationConfig represents annotation engine configuration
type AnnotationConfig struct {
	CacheSize int `mapstructure:"cache_size"`
}

// ExportConfig represents document exporter configuration
type ExportConfig struct {
	LinesPerPage int `mapstructure:"lines_per_page"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Manager loads and validates configuration using Viper
type Manager struct {
	config *Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/vetreport-server/")

	viper.SetEnvPrefix("VETREPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and env vars cover a bare run.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	viper.SetDefault("regeneration.delay", "2500ms")
	viper.SetDefault("regeneration.dispatch_per_minute", 30)
	viper.SetDefault("regeneration.breaker_max_failures", 3)
	viper.SetDefault("regeneration.breaker_cooldown", "30s")

	viper.SetDefault("annotation.cache_size", 512)

	viper.SetDefault("export.lines_per_page", 44)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *ServerConfig {
	return &m.config.Server
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Regeneration.Delay < 0 {
		return fmt.Errorf("regeneration delay must not be negative")
	}
	if config.Regeneration.DispatchPerMinute < 0 {
		return fmt.Errorf("regeneration dispatch rate must not be negative")
	}

	if config.Annotation.CacheSize <= 0 {
		return fmt.Errorf("annotation cache size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}
	if format := strings.ToLower(config.Logging.Format); format != "json" && format != "text" {
		return fmt.Errorf("invalid log format: %s", config.Logging.Format)
	}

	return nil
}
