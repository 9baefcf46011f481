package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/engine.yaml
var defaultEngineYAML []byte

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Runtime: RuntimeConfig{
			TickRate: 60,
			Seed:     0,
			ScreenW:  80,
			ScreenH:  24,
		},
		Input: InputConfig{
			Policy:      "end_on_branch_change",
			GraceWindow: 150 * time.Millisecond,
		},
		Difficulty: DifficultyConfig{
			Preset:       DifficultyNormal,
			Enabled:      true,
			InitialLevel: 0.3,
			Progression: ProgressionConfig{
				Type:  "wins",
				MaxAt: 10,
			},
			Scaling: ScalingConfig{
				LenientScale: 1.5,
				StrictScale:  0.6,
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
