// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"evalgo.org/bffgate/internal/config"
)

// Setup applies level, format and output from cfg to the standard logger.
// The returned closer releases the log file when output is file.
func Setup(cfg config.LoggingConfig) (io.Closer, error) {
	holder := &closerHolder{}
	if err := configure(log.StandardLogger(), cfg, holder); err != nil {
		return nil, err
	}
	return holder, nil
}

// New builds a dedicated logger from cfg, leaving the standard logger untouched.
func New(cfg config.LoggingConfig) (*log.Logger, io.Closer, error) {
	logger := log.New()
	holder := &closerHolder{}
	if err := configure(logger, cfg, holder); err != nil {
		return nil, nil, err
	}
	return logger, holder, nil
}

func configure(logger *log.Logger, cfg config.LoggingConfig, holder *closerHolder) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "", "json":
		logger.SetFormatter(&log.JSONFormatter{})
	case "text":
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format: %s", cfg.Format)
	}

	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	case "file":
		if cfg.File == "" {
			return fmt.Errorf("log file path is required for file output")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
		}
		holder.closer = rotator
		logger.SetOutput(rotator)
	default:
		return fmt.Errorf("unknown log output: %s", cfg.Output)
	}

	return nil
}

// ParseLevel accepts debug, info, warn, warning and error. Empty means info.
func ParseLevel(level string) (log.Level, error) {
	if level == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

type closerHolder struct {
	closer io.Closer
}

func (h *closerHolder) Close() error {
	if h.closer == nil {
		return nil
	}
	return h.closer.Close()
}
