package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestLoadDefaults tests that default configuration values are loaded correctly.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}

	// Server defaults
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected default server host '0.0.0.0', got '%s'", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Expected default read timeout 30s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Expected default shutdown timeout 10s, got %v", cfg.Server.ShutdownTimeout)
	}

	// Project defaults
	if cfg.Project.File != "project.yaml" {
		t.Errorf("Expected default project file 'project.yaml', got '%s'", cfg.Project.File)
	}
	if !cfg.Project.Watch {
		t.Errorf("Expected project watch enabled by default")
	}

	// Gateway defaults
	if cfg.Gateway.ExecutionTimeout != 30*time.Second {
		t.Errorf("Expected default execution timeout 30s, got %v", cfg.Gateway.ExecutionTimeout)
	}
	if cfg.Gateway.CallTimeout != 10*time.Second {
		t.Errorf("Expected default call timeout 10s, got %v", cfg.Gateway.CallTimeout)
	}
	if cfg.Gateway.MaxParallel != 8 {
		t.Errorf("Expected default max parallel 8, got %d", cfg.Gateway.MaxParallel)
	}
	if cfg.Gateway.MaxPasses != 0 {
		t.Errorf("Expected default max passes 0, got %d", cfg.Gateway.MaxPasses)
	}
	if cfg.Gateway.IncludeReport {
		t.Errorf("Expected include_report disabled by default")
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected default logging level 'info', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected default logging format 'json', got '%s'", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default logging output 'stdout', got '%s'", cfg.Logging.Output)
	}
	if cfg.Logging.MaxSize != 100 {
		t.Errorf("Expected default max size 100, got %d", cfg.Logging.MaxSize)
	}

	// Security defaults
	if cfg.Security.Issuer != "bffgate" {
		t.Errorf("Expected default issuer 'bffgate', got '%s'", cfg.Security.Issuer)
	}
	if cfg.Security.RateLimit != 100 {
		t.Errorf("Expected default rate limit 100, got %d", cfg.Security.RateLimit)
	}
	if len(cfg.Security.AllowedOrigins) != 1 || cfg.Security.AllowedOrigins[0] != "*" {
		t.Errorf("Expected default allowed origins ['*'], got %v", cfg.Security.AllowedOrigins)
	}
	if len(cfg.Security.AdminAPIKeys) != 0 {
		t.Errorf("Expected no admin api keys by default, got %v", cfg.Security.AdminAPIKeys)
	}
}

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: 8080},
		Gateway: GatewayConfig{ExecutionTimeout: time.Second, CallTimeout: time.Second, MaxParallel: 4},
		Logging: LoggingConfig{Output: "stdout"},
		Security: SecurityConfig{
			JWTSecret: "secret",
		},
	}
}

// TestValidation tests the configuration validation logic.
func TestValidation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		expectErr bool
		errMsg    string
	}{
		{
			name:   "valid configuration",
			mutate: func(*Config) {},
		},
		{
			name:      "invalid port - too low",
			mutate:    func(c *Config) { c.Server.Port = 0 },
			expectErr: true,
			errMsg:    "invalid server port",
		},
		{
			name:      "invalid port - too high",
			mutate:    func(c *Config) { c.Server.Port = 70000 },
			expectErr: true,
			errMsg:    "invalid server port",
		},
		{
			name:      "zero execution timeout",
			mutate:    func(c *Config) { c.Gateway.ExecutionTimeout = 0 },
			expectErr: true,
			errMsg:    "execution_timeout",
		},
		{
			name:      "zero call timeout",
			mutate:    func(c *Config) { c.Gateway.CallTimeout = 0 },
			expectErr: true,
			errMsg:    "call_timeout",
		},
		{
			name:      "negative parallelism",
			mutate:    func(c *Config) { c.Gateway.MaxParallel = -1 },
			expectErr: true,
			errMsg:    "max_parallel",
		},
		{
			name:      "empty jwt secret",
			mutate:    func(c *Config) { c.Security.JWTSecret = "" },
			expectErr: true,
			errMsg:    "jwt_secret is required",
		},
		{
			name: "file output without path",
			mutate: func(c *Config) {
				c.Logging.Output = "file"
				c.Logging.File = ""
			},
			expectErr: true,
			errMsg:    "logging file is required",
		},
		{
			name:      "unknown output",
			mutate:    func(c *Config) { c.Logging.Output = "syslog" },
			expectErr: true,
			errMsg:    "invalid logging output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := validate(c)
			if tt.expectErr {
				if err == nil {
					t.Errorf("Expected error containing '%s', got nil", tt.errMsg)
				} else if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Expected error containing '%s', got '%s'", tt.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

// TestLoadFile tests reading an explicit configuration file.
func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
project:
  file: ./books.yaml
  watch: false
gateway:
  execution_timeout: 5s
  max_parallel: 2
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Project.File != "./books.yaml" || cfg.Project.Watch {
		t.Errorf("Unexpected project config %+v", cfg.Project)
	}
	if cfg.Gateway.ExecutionTimeout != 5*time.Second {
		t.Errorf("Expected execution timeout 5s, got %v", cfg.Gateway.ExecutionTimeout)
	}
	if cfg.Gateway.CallTimeout != 10*time.Second {
		t.Errorf("Expected call timeout default 10s, got %v", cfg.Gateway.CallTimeout)
	}
	if cfg.Server.Address() != "0.0.0.0:9090" {
		t.Errorf("Expected address 0.0.0.0:9090, got %s", cfg.Server.Address())
	}
}

// TestEnvironmentVariableOverride tests that environment variables override config values.
func TestEnvironmentVariableOverride(t *testing.T) {
	t.Setenv("BFF_SERVER_PORT", "9999")
	t.Setenv("BFF_SERVER_HOST", "127.0.0.1")
	t.Setenv("BFF_GATEWAY_MAX_PARALLEL", "3")

	cfg, err := Load("nonexistent.yaml")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Expected port 9999 from environment, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Expected host '127.0.0.1' from environment, got '%s'", cfg.Server.Host)
	}
	if cfg.Gateway.MaxParallel != 3 {
		t.Errorf("Expected max parallel 3 from environment, got %d", cfg.Gateway.MaxParallel)
	}
}

// TestGet tests the global config getter.
func TestGet(t *testing.T) {
	if _, err := Load("nonexistent.yaml"); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	retrieved := Get()
	if retrieved == nil {
		t.Fatal("Get() returned nil")
	}
	if retrieved.Server.Port != 8080 {
		t.Errorf("Expected port 8080 from Get(), got %d", retrieved.Server.Port)
	}
}
