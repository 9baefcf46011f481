package core

import (
	"math"
	"testing"
)

func TestLerp(t *testing.T) {
	a := V(0, 10)
	b := V(20, -10)

	tests := []struct {
		name     string
		t        float64
		expected Vec2
	}{
		{"start", 0, V(0, 10)},
		{"midpoint", 0.5, V(10, 0)},
		{"end", 1, V(20, -10)},
		{"quarter", 0.25, V(5, 5)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := Lerp(a, b, tc.t)
			if result != tc.expected {
				t.Errorf("Lerp(%v, %v, %v) = %v, expected %v", a, b, tc.t, result, tc.expected)
			}
		})
	}
}

func TestVecOps(t *testing.T) {
	v := V(3, 4)

	if d := v.Dist(V(0, 0)); d != 5 {
		t.Errorf("Dist() = %v, expected 5", d)
	}
	if s := v.Add(V(1, 1)); s != V(4, 5) {
		t.Errorf("Add() = %v, expected (4, 5)", s)
	}
	if s := v.Sub(V(1, 1)); s != V(2, 3) {
		t.Errorf("Sub() = %v, expected (2, 3)", s)
	}
	if s := v.Scale(2); s != V(6, 8) {
		t.Errorf("Scale() = %v, expected (6, 8)", s)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, expected int
	}{
		{5, 0, 10, 5},   // within range
		{-5, 0, 10, 0},  // below min
		{15, 0, 10, 10}, // above max
		{0, 0, 10, 0},   // at min
		{10, 0, 10, 10}, // at max
	}

	for _, tc := range tests {
		result := Clamp(tc.val, tc.min, tc.max)
		if result != tc.expected {
			t.Errorf("Clamp(%d, %d, %d) = %d, expected %d", tc.val, tc.min, tc.max, result, tc.expected)
		}
	}
}

func TestClampF(t *testing.T) {
	tests := []struct {
		val, min, max, expected float64
	}{
		{5.5, 0.0, 10.0, 5.5},
		{-5.5, 0.0, 10.0, 0.0},
		{15.5, 0.0, 10.0, 10.0},
	}

	for _, tc := range tests {
		result := ClampF(tc.val, tc.min, tc.max)
		if result != tc.expected {
			t.Errorf("ClampF(%f, %f, %f) = %f, expected %f", tc.val, tc.min, tc.max, result, tc.expected)
		}
	}
}

func TestEasingEndpoints(t *testing.T) {
	for _, e := range []Easing{EaseLinear, EaseInQuad, EaseOutQuad, EaseInOutQuad} {
		t.Run(e.String(), func(t *testing.T) {
			if got := e.Apply(0); got != 0 {
				t.Errorf("Apply(0) = %v, expected 0", got)
			}
			if got := e.Apply(1); math.Abs(got-1) > 1e-12 {
				t.Errorf("Apply(1) = %v, expected 1", got)
			}
			// Out-of-range progress is clamped
			if got := e.Apply(2); math.Abs(got-1) > 1e-12 {
				t.Errorf("Apply(2) = %v, expected 1", got)
			}
		})
	}

	if got := EaseOutQuad.Apply(0.5); got != 0.75 {
		t.Errorf("EaseOutQuad.Apply(0.5) = %v, expected 0.75", got)
	}
}

func TestParseEasing(t *testing.T) {
	e, err := ParseEasing("out_quad")
	if err != nil || e != EaseOutQuad {
		t.Errorf("ParseEasing(out_quad) = %v, %v", e, err)
	}
	e, err = ParseEasing("")
	if err != nil || e != EaseLinear {
		t.Errorf("ParseEasing(\"\") = %v, %v", e, err)
	}
	if _, err := ParseEasing("bounce"); err == nil {
		t.Error("ParseEasing(bounce) should fail")
	}
}
