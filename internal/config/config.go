// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads the demo daemon's configuration with the precedence
// ENV > file > defaults.
package config

import (
	"fmt"
	"net"
	"time"
)

// AppConfig holds the runtime configuration of the busdemo daemon. The bus
// core itself is configuration-free; everything here concerns the process
// around it.
type AppConfig struct {
	Service         string
	LogLevel        string
	MetricsAddr     string
	ShutdownTimeout time.Duration
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		Service:         "eventbus",
		LogLevel:        "info",
		MetricsAddr:     ":9090",
		ShutdownTimeout: 5 * time.Second,
	}
}

// Validate checks the configuration for values the daemon cannot run with.
func (c AppConfig) Validate() error {
	if c.Service == "" {
		return fmt.Errorf("%w: service must not be empty", ErrInvalidConfig)
	}
	if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
		return fmt.Errorf("%w: metrics_addr %q: %v", ErrInvalidConfig, c.MetricsAddr, err)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown_timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
