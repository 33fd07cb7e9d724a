// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML schema. Durations are written in Go
// duration syntax ("5s"); empty fields fall back to the previous layer.
type FileConfig struct {
	Service         string `yaml:"service"`
	LogLevel        string `yaml:"log_level"`
	MetricsAddr     string `yaml:"metrics_addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// Load builds the effective configuration with the precedence
// ENV > file > defaults. An empty path skips the file layer.
func Load(path string) (AppConfig, error) {
	cfg := Defaults()

	if path != "" {
		fc, err := loadFile(path)
		if err != nil {
			return AppConfig{}, err
		}
		if err := applyFile(&cfg, fc); err != nil {
			return AppConfig{}, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// loadFile parses a YAML config file strictly: unknown keys are an error so
// typos never silently fall back to defaults.
func loadFile(path string) (*FileConfig, error) {
	ext := filepath.Ext(path)
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file %s: unsupported extension %q", path, ext)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path is operator-provided
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	fc := &FileConfig{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(fc); err != nil {
		if errors.Is(err, io.EOF) {
			return fc, nil
		}
		if strings.Contains(err.Error(), "not found in type") {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnknownConfigField, path, err)
		}
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

func applyFile(cfg *AppConfig, fc *FileConfig) error {
	if fc.Service != "" {
		cfg.Service = fc.Service
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.MetricsAddr != "" {
		cfg.MetricsAddr = fc.MetricsAddr
	}
	if fc.ShutdownTimeout != "" {
		d, err := time.ParseDuration(fc.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("%w: shutdown_timeout %q: %v", ErrInvalidConfig, fc.ShutdownTimeout, err)
		}
		cfg.ShutdownTimeout = d
	}
	return nil
}

func applyEnv(cfg *AppConfig) {
	cfg.Service = ParseString("EVENTBUS_SERVICE", cfg.Service)
	cfg.LogLevel = ParseString("EVENTBUS_LOG_LEVEL", cfg.LogLevel)
	cfg.MetricsAddr = ParseString("EVENTBUS_METRICS_ADDR", cfg.MetricsAddr)
	cfg.ShutdownTimeout = ParseDuration("EVENTBUS_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
}
