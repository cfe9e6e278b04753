// Package config provides configuration utilities for the application.
package config

import (
	"fmt"

	"github.com/jcourtner/leadpipe/internal/common"
	"github.com/spf13/viper"
)

// CadenceInterval is the allowed contact window for one attempt number.
type CadenceInterval struct {
	Channel string
	Attempt int
	MinDays int
	MaxDays int
}

// Config is the explicit application configuration. It is constructed once
// at process start and injected into the engines; nothing reads global
// state after that.
type Config struct {
	DatabasePath        string
	Intervals           []CadenceInterval
	Overflow            CadenceInterval
	SimilarityThreshold float64
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DatabasePath:        "~/.config/leadpipe/leadpipe.db",
		SimilarityThreshold: 0.85,
		Intervals: []CadenceInterval{
			{Attempt: 1, MinDays: 3, MaxDays: 5, Channel: "call"},
			{Attempt: 2, MinDays: 5, MaxDays: 7, Channel: "call"},
			{Attempt: 3, MinDays: 7, MaxDays: 10, Channel: "email"},
			{Attempt: 4, MinDays: 10, MaxDays: 14, Channel: "combo"},
		},
		Overflow: CadenceInterval{MinDays: 14, MaxDays: 21, Channel: "combo"},
	}
}

// Load builds a Config from viper, falling back to defaults, and validates
// it. Callers must treat the result as immutable for the process lifetime.
func Load() (*Config, error) {
	cfg := Default()

	if path := viper.GetString("database.path"); path != "" {
		cfg.DatabasePath = path
	}
	if viper.IsSet("intake.similarity_threshold") {
		cfg.SimilarityThreshold = viper.GetFloat64("intake.similarity_threshold")
	}
	if viper.IsSet("cadence.intervals") {
		var intervals []CadenceInterval
		if err := viper.UnmarshalKey("cadence.intervals", &intervals); err != nil {
			return nil, fmt.Errorf("%w: cadence.intervals: %v", common.ErrInvalidConfig, err)
		}
		cfg.Intervals = intervals
	}
	if viper.IsSet("cadence.overflow") {
		var overflow CadenceInterval
		if err := viper.UnmarshalKey("cadence.overflow", &overflow); err != nil {
			return nil, fmt.Errorf("%w: cadence.overflow: %v", common.ErrInvalidConfig, err)
		}
		cfg.Overflow = overflow
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces configuration invariants. Interval minimums must be
// monotonically non-decreasing across attempts; this is checked at load,
// never at runtime.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database path", common.ErrMissingConfig)
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity threshold %v must be in (0, 1]",
			common.ErrInvalidConfig, c.SimilarityThreshold)
	}
	if len(c.Intervals) == 0 {
		return fmt.Errorf("%w: at least one cadence interval required", common.ErrInvalidConfig)
	}

	prev := 0
	for i, interval := range c.Intervals {
		if interval.Attempt != i+1 {
			return fmt.Errorf("%w: cadence interval %d has attempt %d, want %d",
				common.ErrInvalidConfig, i, interval.Attempt, i+1)
		}
		if interval.MinDays <= 0 {
			return fmt.Errorf("%w: cadence interval %d has non-positive min days",
				common.ErrInvalidConfig, interval.Attempt)
		}
		if interval.MaxDays < interval.MinDays {
			return fmt.Errorf("%w: cadence interval %d has max days below min days",
				common.ErrInvalidConfig, interval.Attempt)
		}
		if interval.MinDays < prev {
			return fmt.Errorf("%w: cadence interval %d min days %d regresses below %d",
				common.ErrInvalidConfig, interval.Attempt, interval.MinDays, prev)
		}
		prev = interval.MinDays
	}

	if c.Overflow.MinDays < prev {
		return fmt.Errorf("%w: overflow interval min days %d regresses below %d",
			common.ErrInvalidConfig, c.Overflow.MinDays, prev)
	}
	return nil
}

// Interval returns the cadence interval for an attempt number. Attempts
// past the configured table use the overflow interval.
func (c *Config) Interval(attempt int) CadenceInterval {
	if attempt >= 1 && attempt <= len(c.Intervals) {
		return c.Intervals[attempt-1]
	}
	return c.Overflow
}
