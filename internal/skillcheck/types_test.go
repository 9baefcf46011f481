package skillcheck

import (
	"testing"
	"time"
)

func TestRankThresholds(t *testing.T) {
	th := RankThresholds{Great: 0.1, Good: 0.4}
	tests := []struct {
		err      float64
		expected Rank
	}{
		{0, RankGreat},
		{-0.1, RankGreat},
		{0.3, RankGood},
		{0.9, RankOK},
	}
	for _, tc := range tests {
		if got := th.For(tc.err); got != tc.expected {
			t.Errorf("For(%v) = %v, expected %v", tc.err, got, tc.expected)
		}
	}
	if got := (RankThresholds{}).For(0.3); got != RankGood {
		t.Errorf("zero thresholds should use defaults, got %v", got)
	}
}

func TestParseKindRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindTimedWindow, KindHoldRelease, KindRepeatCount, KindCooldown} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseKind("mash"); err == nil {
		t.Error("ParseKind(mash) should fail")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		valid bool
	}{
		{"window ok", Config{Kind: KindTimedWindow, WindowStart: 1, WindowEnd: 2}, true},
		{"window inverted", Config{Kind: KindTimedWindow, WindowStart: 2, WindowEnd: 1}, false},
		{"hold without fill", Config{Kind: KindHoldRelease, BandLow: 0.1, BandHigh: 0.2}, false},
		{"repeat without target", Config{Kind: KindRepeatCount}, false},
		{"cooldown", Config{Kind: KindCooldown}, true},
		{"bad kind", Config{Kind: Kind(42)}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err == nil) != tc.valid {
				t.Errorf("Validate() = %v, valid expected %v", err, tc.valid)
			}
		})
	}
}

func TestConfigScale(t *testing.T) {
	cfg := Config{
		Kind:        KindTimedWindow,
		WindowStart: 400 * time.Millisecond,
		WindowEnd:   600 * time.Millisecond,
		BandLow:     0.4,
		BandHigh:    0.6,
		Duration:    time.Second,
		Cooldown:    200 * time.Millisecond,
	}

	wide := cfg.Scale(2)
	if wide.WindowStart != 300*time.Millisecond || wide.WindowEnd != 700*time.Millisecond {
		t.Errorf("scaled window = [%v, %v]", wide.WindowStart, wide.WindowEnd)
	}
	if wide.Duration != 2*time.Second {
		t.Errorf("scaled duration = %v", wide.Duration)
	}
	if wide.Cooldown != 100*time.Millisecond {
		t.Errorf("scaled cooldown = %v", wide.Cooldown)
	}

	inf := Config{Kind: KindRepeatCount, Target: 3, Duration: Infinite}.Scale(3)
	if inf.Duration != Infinite {
		t.Error("Infinite duration must survive scaling")
	}
	if cfg.Scale(1) != cfg {
		t.Error("factor 1 should return the config unchanged")
	}
}
