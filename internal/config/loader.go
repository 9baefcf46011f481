package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BATTLE_"

// Load loads the engine configuration, applies environment overrides and
// the difficulty preset, and validates the result.
// Search order: customPath -> ~/.battle/configs/engine.yaml -> ./configs/engine.yaml -> embedded default
func Load(customPath string) (Config, error) {
	cfg, err := loadFile(customPath)
	if err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg, nil); err != nil {
		return cfg, err
	}
	if cfg.Difficulty.Preset != "" {
		preset, err := ParsePreset(string(cfg.Difficulty.Preset))
		if err != nil {
			return cfg, err
		}
		ApplyPreset(&cfg, preset)
	}
	return cfg, cfg.Validate()
}

func loadFile(customPath string) (Config, error) {
	// Missing keys keep their defaults.
	cfg := DefaultConfig()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("engine.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				return cfg, nil
			}
			cfg = DefaultConfig()
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(filepath.Join("configs", "engine.yaml")); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return cfg, nil
		}
		cfg = DefaultConfig()
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(defaultEngineYAML, &cfg); err != nil {
		return DefaultConfig(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".battle", "configs", filename)
}

// DataDir returns ~/.battle, or the working directory if home is unavailable.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".battle")
}

// overrides lists the environment variables read by ApplyEnv. Zero values
// leave the loaded setting alone.
type overrides struct {
	TickRate    int           `env:"TICK_RATE"`
	Seed        int64         `env:"SEED"`
	Policy      string        `env:"INPUT_POLICY"`
	GraceWindow time.Duration `env:"GRACE_WINDOW"`
	Difficulty  string        `env:"DIFFICULTY"`
	DB          string        `env:"DB"`
	Moves       string        `env:"MOVES"`
	LogLevel    string        `env:"LOG_LEVEL"`
}

// ApplyEnv applies BATTLE_* overrides to cfg. A nil environ reads the
// process environment.
func ApplyEnv(cfg *Config, environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	var o overrides
	if err := env.ParseWithOptions(&o, opts); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}

	if o.TickRate != 0 {
		cfg.Runtime.TickRate = o.TickRate
	}
	if o.Seed != 0 {
		cfg.Runtime.Seed = o.Seed
	}
	if o.Policy != "" {
		cfg.Input.Policy = o.Policy
	}
	if o.GraceWindow != 0 {
		cfg.Input.GraceWindow = o.GraceWindow
	}
	if o.Difficulty != "" {
		cfg.Difficulty.Preset = DifficultyPreset(o.Difficulty)
	}
	if o.DB != "" {
		cfg.Storage.Path = o.DB
	}
	if o.Moves != "" {
		cfg.Moves.Dir = o.Moves
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	return nil
}
