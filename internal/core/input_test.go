package core

import "testing"

func TestInputFrameHoldRelease(t *testing.T) {
	f := NewInputFrame()

	f.Hold(ActionPrimary)
	if !f.Has(ActionPrimary) {
		t.Error("first Hold should register a press")
	}
	if !f.IsHeld(ActionPrimary) {
		t.Error("action should be held")
	}

	f.Clear()
	if f.Has(ActionPrimary) {
		t.Error("Clear should drop the press edge")
	}
	if !f.IsHeld(ActionPrimary) {
		t.Error("Clear should keep holds")
	}

	// Holding again is not a new press
	f.Hold(ActionPrimary)
	if f.Has(ActionPrimary) {
		t.Error("repeated Hold should not register a new press")
	}

	f.Release(ActionPrimary)
	if !f.WasReleased(ActionPrimary) {
		t.Error("Release should record the release edge")
	}
	if f.IsHeld(ActionPrimary) {
		t.Error("action should no longer be held")
	}
}

func TestInputFrameReleaseWithoutHold(t *testing.T) {
	f := NewInputFrame()
	f.Release(ActionSecondary)
	if f.WasReleased(ActionSecondary) {
		t.Error("releasing an action that was never held should not record an edge")
	}
}

func TestInputFrameZeroValue(t *testing.T) {
	var f InputFrame
	if f.Has(ActionPrimary) || f.IsHeld(ActionPrimary) {
		t.Error("zero frame should report nothing")
	}
	f.Set(ActionPrimary)
	if !f.Has(ActionPrimary) {
		t.Error("Set on zero frame should allocate and record")
	}
}

func TestInputFrameClone(t *testing.T) {
	f := NewInputFrame()
	f.Hold(ActionPrimary)
	c := f.Clone()
	f.Reset()

	if !c.IsHeld(ActionPrimary) || !c.Has(ActionPrimary) {
		t.Error("clone should be independent of the original")
	}
}

func TestParseAction(t *testing.T) {
	if a, ok := ParseAction("secondary"); !ok || a != ActionSecondary {
		t.Errorf("ParseAction(secondary) = %v, %v", a, ok)
	}
	if a, ok := ParseAction(""); !ok || a != ActionPrimary {
		t.Errorf("ParseAction(\"\") = %v, %v", a, ok)
	}
	if _, ok := ParseAction("jump"); ok {
		t.Error("ParseAction(jump) should fail")
	}
}
