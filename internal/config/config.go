// Package config provides configuration loading for the export service.
// Settings come from an optional YAML file, environment overrides, and
// platform-specific defaults, resolved once at startup into an explicit
// Config struct that is passed into each component.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all settings for the export service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	InDesign InDesignConfig `yaml:"indesign"`
	Storage  StorageConfig  `yaml:"storage"`
	Limits   LimitsConfig   `yaml:"limits"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// InDesignConfig holds settings for the external InDesign application.
type InDesignConfig struct {
	// BinaryPath overrides the per-platform default install location.
	BinaryPath string `yaml:"binary_path"`
	// ExportTimeout bounds one export from spawn to terminal state.
	ExportTimeout time.Duration `yaml:"export_timeout"`
	// TerminationGrace is the window between the graceful termination
	// signal and the forced kill when an export times out.
	TerminationGrace time.Duration `yaml:"termination_grace"`
}

// StorageConfig holds the two scratch locations used per request.
type StorageConfig struct {
	// UploadDir receives per-request work directories (archive,
	// extraction tree, produced PDF).
	UploadDir string `yaml:"upload_dir"`
	// ScratchDir receives generated automation scripts.
	ScratchDir string `yaml:"scratch_dir"`
}

// LimitsConfig holds request validation limits.
type LimitsConfig struct {
	MaxUploadMB int64 `yaml:"max_upload_mb"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// Load reads configuration from an optional YAML file, applies environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Default returns baseline configuration for the current host.
func Default() *Config {
	return DefaultFor(runtime.GOOS)
}

// DefaultFor returns baseline configuration for the given platform.
func DefaultFor(goos string) *Config {
	scratchRoot := filepath.Join(os.TempDir(), "indesign-pdf-service")

	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      2 * time.Minute,
			IdleTimeout:      2 * time.Minute,
			GracefulShutdown: 10 * time.Second,
		},
		InDesign: InDesignConfig{
			BinaryPath:       DefaultBinaryPath(goos),
			ExportTimeout:    5 * time.Minute,
			TerminationGrace: 5 * time.Second,
		},
		Storage: StorageConfig{
			UploadDir:  filepath.Join(scratchRoot, "uploads"),
			ScratchDir: filepath.Join(scratchRoot, "scripts"),
		},
		Limits: LimitsConfig{
			MaxUploadMB: 100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultBinaryPath returns the standard InDesign install location for the
// given platform, or empty when the platform cannot run InDesign.
func DefaultBinaryPath(goos string) string {
	switch goos {
	case "darwin":
		return "/Applications/Adobe InDesign 2025/Adobe InDesign 2025.app/Contents/MacOS/Adobe InDesign 2025"
	case "windows":
		return `C:\Program Files\Adobe\Adobe InDesign 2025\InDesign.exe`
	default:
		return ""
	}
}

// applyEnvOverrides replaces individual settings from environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("INDESIGN_BINARY_PATH"); v != "" {
		cfg.InDesign.BinaryPath = v
	}
	if v := os.Getenv("EXPORT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.InDesign.ExportTimeout = d
		}
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		cfg.Storage.UploadDir = v
	}
	if v := os.Getenv("SCRATCH_DIR"); v != "" {
		cfg.Storage.ScratchDir = v
	}
	if v := os.Getenv("MAX_UPLOAD_MB"); v != "" {
		if mb, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Limits.MaxUploadMB = mb
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.InDesign.ExportTimeout <= 0 {
		return fmt.Errorf("export_timeout must be positive")
	}
	if c.InDesign.TerminationGrace <= 0 {
		return fmt.Errorf("termination_grace must be positive")
	}
	if c.Limits.MaxUploadMB < 1 {
		return fmt.Errorf("max_upload_mb must be at least 1")
	}
	if c.Storage.UploadDir == "" || c.Storage.ScratchDir == "" {
		return fmt.Errorf("upload_dir and scratch_dir are required")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}
	return nil
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Limits.MaxUploadMB << 20
}
