// Package config provides configuration management for bffgate.
//
// This package handles loading configuration from multiple sources:
//   - YAML configuration files
//   - Environment variables (with BFF_ prefix)
//   - .env files
//   - Default values
//
// # Configuration Sources Priority
//
// Configuration is loaded in the following order (later sources override earlier ones):
//  1. Default values (hardcoded)
//  2. Configuration files (./config.yaml, ./configs/config.yaml, ~/.bffgate/config.yaml, /etc/bffgate/config.yaml)
//  3. .env files
//  4. Environment variables (BFF_ prefix)
//
// # Usage Example
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Gateway: %s:%d\n", cfg.Server.Host, cfg.Server.Port)
//
// # Environment Variables
//
// Use BFF_ prefix and underscores for nested keys:
//   - BFF_SERVER_PORT=8095
//   - BFF_PROJECT_FILE=./project.yaml
//   - BFF_GATEWAY_EXECUTION_TIMEOUT=5s
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure for bffgate.
type Config struct {
	// Server contains HTTP server configuration
	Server ServerConfig `mapstructure:"server"`

	// Project points at the project definition served by the gateway
	Project ProjectConfig `mapstructure:"project"`

	// Gateway contains execution settings for the aggregation engine
	Gateway GatewayConfig `mapstructure:"gateway"`

	// Logging contains logging settings
	Logging LoggingConfig `mapstructure:"logging"`

	// Security contains token signing, admin access and rate limiting settings
	Security SecurityConfig `mapstructure:"security"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Host is the server bind address (default: 0.0.0.0)
	Host string `mapstructure:"host"`

	// Port is the server listen port (default: 8080)
	Port int `mapstructure:"port"`

	// ReadTimeout is the maximum duration for reading requests
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout is the maximum duration for writing responses
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// ShutdownTimeout is the maximum duration for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// Debug enables debug logging and the execution report on every response
	Debug bool `mapstructure:"debug"`

	// TLSEnabled enables HTTPS
	TLSEnabled bool `mapstructure:"tls_enabled"`

	// TLSCert is the path to the TLS certificate file
	TLSCert string `mapstructure:"tls_cert"`

	// TLSKey is the path to the TLS private key file
	TLSKey string `mapstructure:"tls_key"`
}

// ProjectConfig locates the project file.
type ProjectConfig struct {
	// File is the YAML or JSON project definition
	File string `mapstructure:"file"`

	// Watch reloads the project when the file changes
	Watch bool `mapstructure:"watch"`
}

// GatewayConfig tunes the aggregation engine.
type GatewayConfig struct {
	// ExecutionTimeout is the overall deadline of one aggregation run
	ExecutionTimeout time.Duration `mapstructure:"execution_timeout"`

	// CallTimeout bounds a single upstream call
	CallTimeout time.Duration `mapstructure:"call_timeout"`

	// MaxParallel caps concurrent upstream calls within a phase (0 = unlimited)
	MaxParallel int `mapstructure:"max_parallel"`

	// MaxPasses bounds the scheduler passes (0 = derived from the graph size)
	MaxPasses int `mapstructure:"max_passes"`

	// IncludeReport attaches the execution report to public responses
	IncludeReport bool `mapstructure:"include_report"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error)
	Level string `mapstructure:"level"`

	// Format is the log format (json, text)
	Format string `mapstructure:"format"`

	// Output is the log output destination (stdout, stderr, file)
	Output string `mapstructure:"output"`

	// File is the log file path when Output is file
	File string `mapstructure:"file"`

	// MaxSize is the maximum log file size in megabytes
	MaxSize int `mapstructure:"max_size"`

	// MaxBackups is the maximum number of old log files to keep
	MaxBackups int `mapstructure:"max_backups"`

	// MaxAge is the maximum number of days to keep old log files
	MaxAge int `mapstructure:"max_age"`
}

// SecurityConfig contains security and rate limiting settings.
type SecurityConfig struct {
	// JWTSecret is the secret key for signing issued tokens
	JWTSecret string `mapstructure:"jwt_secret"`

	// Issuer is written to the iss claim of issued tokens
	Issuer string `mapstructure:"issuer"`

	// RateLimit is the maximum requests per second per client (0 disables)
	RateLimit int `mapstructure:"rate_limit"`

	// AllowedOrigins are the CORS allowed origins
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// AdminAPIKeys are bcrypt hashes of keys accepted by the admin API.
	// An empty list leaves the admin API open.
	AdminAPIKeys []string `mapstructure:"admin_api_keys"`
}

var cfg *Config

// Load reads configuration from a file and environment variables.
// If cfgFile is empty, it searches for config.yaml in standard locations.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (BFF_ prefix)
//  2. .env file
//  3. Configuration file
//  4. Default values
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.bffgate")
		v.AddConfigPath("/etc/bffgate")
	}

	if err := v.ReadInConfig(); err != nil {
		// An explicit file that does not exist falls back to defaults,
		// any other read error is fatal
		if cfgFile != "" {
			if !isFileNotFoundError(err) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		} else {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.MergeInConfig() // Ignore error if .env file doesn't exist

	v.SetEnvPrefix("BFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.debug", false)
	v.SetDefault("server.tls_enabled", false)
	v.SetDefault("server.tls_cert", "")
	v.SetDefault("server.tls_key", "")

	v.SetDefault("project.file", "project.yaml")
	v.SetDefault("project.watch", true)

	v.SetDefault("gateway.execution_timeout", "30s")
	v.SetDefault("gateway.call_timeout", "10s")
	v.SetDefault("gateway.max_parallel", 8)
	v.SetDefault("gateway.max_passes", 0)
	v.SetDefault("gateway.include_report", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file", "./logs/bffgate.log")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 7)

	v.SetDefault("security.jwt_secret", "change-me-in-production")
	v.SetDefault("security.issuer", "bffgate")
	v.SetDefault("security.rate_limit", 100)
	v.SetDefault("security.allowed_origins", []string{"*"})
	v.SetDefault("security.admin_api_keys", []string{})
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	if cfg.Gateway.ExecutionTimeout <= 0 {
		return fmt.Errorf("gateway execution_timeout must be positive")
	}

	if cfg.Gateway.CallTimeout <= 0 {
		return fmt.Errorf("gateway call_timeout must be positive")
	}

	if cfg.Gateway.MaxParallel < 0 {
		return fmt.Errorf("gateway max_parallel must not be negative")
	}

	if cfg.Gateway.MaxPasses < 0 {
		return fmt.Errorf("gateway max_passes must not be negative")
	}

	if cfg.Security.JWTSecret == "" {
		return fmt.Errorf("security jwt_secret is required")
	}

	if cfg.Security.RateLimit < 0 {
		return fmt.Errorf("security rate_limit must not be negative")
	}

	switch cfg.Logging.Output {
	case "", "stdout", "stderr":
	case "file":
		if cfg.Logging.File == "" {
			return fmt.Errorf("logging file is required when output is file")
		}
	default:
		return fmt.Errorf("invalid logging output: %s", cfg.Logging.Output)
	}

	return nil
}

// Get returns the configuration loaded last.
func Get() *Config {
	return cfg
}

// Address returns host:port for the HTTP listener.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// isFileNotFoundError checks if an error is a file not found error.
func isFileNotFoundError(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return errors.Is(pathErr, os.ErrNotExist)
	}
	return false
}
