// Package config provides YAML-based engine configuration loading,
// environment overrides and difficulty management for the battle engine.
package config

import (
	"fmt"
	"time"

	"github.com/vovakirdan/tui-battle/internal/core"
	"github.com/vovakirdan/tui-battle/internal/sequence"
)

// Config contains all configuration for the battle engine.
type Config struct {
	Runtime    RuntimeConfig    `yaml:"runtime"`
	Input      InputConfig      `yaml:"input"`
	Difficulty DifficultyConfig `yaml:"difficulty"`
	Storage    StorageConfig    `yaml:"storage"`
	Moves      MovesConfig      `yaml:"moves"`
	Log        LogConfig        `yaml:"log"`
}

// RuntimeConfig defines the host loop parameters.
type RuntimeConfig struct {
	TickRate int   `yaml:"tick_rate"` // Ticks per second
	Seed     int64 `yaml:"seed"`      // 0 = seed from the current time
	ScreenW  int   `yaml:"screen_w"`
	ScreenH  int   `yaml:"screen_h"`
}

// InputConfig defines how a running skill check is treated on branch change.
type InputConfig struct {
	Policy      string        `yaml:"policy"` // "explicit", "end_on_branch_change" or "grace"
	GraceWindow time.Duration `yaml:"grace_window"`
}

// DifficultyConfig defines skill-check scaling and its progression.
type DifficultyConfig struct {
	Preset       DifficultyPreset  `yaml:"preset"`
	Enabled      bool              `yaml:"enabled"`
	InitialLevel float64           `yaml:"initial_level"` // 0.0 = lenient, 1.0 = strict
	Progression  ProgressionConfig `yaml:"progression"`
	Scaling      ScalingConfig     `yaml:"scaling"`
}

// ProgressionConfig defines how difficulty increases during a session.
type ProgressionConfig struct {
	Type  string `yaml:"type"`   // "wins", "turns", or "none"
	MaxAt int    `yaml:"max_at"` // Wins/turns at which max difficulty is reached
}

// ScalingConfig defines the skill-check scale at both ends of the level range.
type ScalingConfig struct {
	LenientScale float64 `yaml:"lenient_scale"` // Scale at level 0.0
	StrictScale  float64 `yaml:"strict_scale"`  // Scale at level 1.0
}

// StorageConfig locates the results database.
type StorageConfig struct {
	Path string `yaml:"path"` // Empty = ~/.battle/results.db
}

// MovesConfig locates extra move scripts.
type MovesConfig struct {
	Dir string `yaml:"dir"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Core returns the runtime settings as a core.RuntimeConfig.
func (c Config) Core() core.RuntimeConfig {
	rc := core.DefaultConfig()
	if c.Runtime.TickRate > 0 {
		rc.TickRate = c.Runtime.TickRate
	}
	if c.Runtime.ScreenW > 0 {
		rc.ScreenW = c.Runtime.ScreenW
	}
	if c.Runtime.ScreenH > 0 {
		rc.ScreenH = c.Runtime.ScreenH
	}
	rc.Seed = c.Runtime.Seed
	return rc
}

// InputPolicy parses the configured input policy.
func (c Config) InputPolicy() (sequence.InputPolicy, error) {
	return sequence.ParsePolicy(c.Input.Policy)
}

// Validate reports settings the engine cannot run with.
func (c Config) Validate() error {
	if c.Runtime.TickRate <= 0 {
		return fmt.Errorf("config: tick_rate must be positive, got %d", c.Runtime.TickRate)
	}
	if _, err := c.InputPolicy(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Input.GraceWindow < 0 {
		return fmt.Errorf("config: grace_window must not be negative")
	}
	if c.Difficulty.Preset != "" {
		if _, err := ParsePreset(string(c.Difficulty.Preset)); err != nil {
			return err
		}
	}
	s := c.Difficulty.Scaling
	if s.LenientScale <= 0 || s.StrictScale <= 0 {
		return fmt.Errorf("config: difficulty scales must be positive")
	}
	return nil
}
