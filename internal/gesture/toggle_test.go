package gesture

import (
	"testing"
)

func updates(tg *Toggle, owner *FrameOwner, shapes ...Shape) int {
	fired := 0
	for _, s := range shapes {
		if owner != nil {
			owner.Begin(s)
		}
		if tg.Update(s, owner) {
			fired++
		}
	}
	return fired
}

func TestToggle_Fullscreen(t *testing.T) {
	tests := []struct {
		name   string
		shapes []Shape
		fired  int
		on     bool
	}{
		{"enter", []Shape{ShapeFist, ShapeOpenPalm}, 1, true},
		{"held fist then palm", []Shape{ShapeFist, ShapeFist, ShapeFist, ShapeOpenPalm}, 1, true},
		{"held end shape never fires", []Shape{ShapeOpenPalm, ShapeOpenPalm, ShapeOpenPalm}, 0, false},
		{"palm held after entering", []Shape{ShapeFist, ShapeOpenPalm, ShapeOpenPalm, ShapeOpenPalm}, 1, true},
		{"leaving needs a fresh palm", []Shape{ShapeFist, ShapeOpenPalm, ShapeFist}, 1, true},
		{"enter then leave", []Shape{ShapeFist, ShapeOpenPalm, ShapeOpenPalm, ShapeFist}, 2, false},
		{"other cancels", []Shape{ShapeFist, ShapeOther, ShapeOpenPalm}, 0, false},
		{"lost hand cancels", []Shape{ShapeFist, ShapeNone, ShapeOpenPalm}, 0, false},
		{"unrelated shape cancels", []Shape{ShapeFist, ShapeTwoFingers, ShapeOpenPalm}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tg := NewFullscreenToggle()
			if got := updates(tg, nil, tt.shapes...); got != tt.fired {
				t.Errorf("fired %d times, want %d", got, tt.fired)
			}
			if tg.On() != tt.on {
				t.Errorf("On() = %t, want %t", tg.On(), tt.on)
			}
		})
	}
}

func TestToggle_DebugSymmetric(t *testing.T) {
	tg := NewDebugToggle()

	if got := updates(tg, nil, ShapeTwoFingers, ShapeFist); got != 1 || !tg.On() {
		t.Fatalf("expected debug on after one firing, fired=%d on=%t", got, tg.On())
	}
	if got := updates(tg, nil, ShapeFist, ShapeFist); got != 0 {
		t.Errorf("held fist fired %d times", got)
	}
	if got := updates(tg, nil, ShapeTwoFingers, ShapeFist); got != 1 || tg.On() {
		t.Errorf("expected debug off after the same transition, fired=%d on=%t", got, tg.On())
	}
}

func TestToggle_States(t *testing.T) {
	tg := NewFullscreenToggle()
	if tg.State() != ModeNeutral {
		t.Fatalf("new toggle state = %s", tg.State())
	}

	tg.Update(ShapeFist, nil)
	if tg.State() != ModeArmedForEntry {
		t.Errorf("after fist state = %s, want armed_for_entry", tg.State())
	}
	tg.Update(ShapeOpenPalm, nil)
	if tg.State() != ModeNeutral {
		t.Errorf("after firing state = %s, want neutral", tg.State())
	}
	tg.Update(ShapeOpenPalm, nil)
	if tg.State() != ModeArmedForExit {
		t.Errorf("after palm while on state = %s, want armed_for_exit", tg.State())
	}

	tg.Set(false)
	if tg.On() || tg.State() != ModeNeutral {
		t.Errorf("Set(false) should switch off and disarm, on=%t state=%s", tg.On(), tg.State())
	}
}

func TestFrameOwner(t *testing.T) {
	var o FrameOwner

	if !o.Claim("debug", ShapeFist, true) {
		t.Fatal("free frame should be claimable")
	}
	if o.Claim("fullscreen", ShapeFist, true) {
		t.Error("claimed frame must not be taken by another engine")
	}
	if !o.OwnedByOther("fullscreen") || o.OwnedByOther("debug") {
		t.Error("OwnedByOther reports the wrong holder")
	}

	o.Begin(ShapeFist)
	if o.Owner() != "debug" {
		t.Errorf("sticky claim with the same shape should survive, owner %q", o.Owner())
	}
	o.Begin(ShapeOpenPalm)
	if o.Owner() != "" {
		t.Errorf("shape change should release the claim, owner %q", o.Owner())
	}

	o.Claim("fullscreen", ShapeFist, false)
	o.Begin(ShapeFist)
	if o.Owner() != "" {
		t.Errorf("non-sticky claim should last one tick, owner %q", o.Owner())
	}
}

func TestToggle_OwnershipBetweenEngines(t *testing.T) {
	var owner FrameOwner
	debug := NewDebugToggle()
	fullscreen := NewFullscreenToggle()

	step := func(s Shape) (bool, bool) {
		owner.Begin(s)
		if debug.Update(s, &owner) {
			return true, false
		}
		return false, fullscreen.Update(s, &owner)
	}

	step(ShapeTwoFingers)
	if d, _ := step(ShapeFist); !d {
		t.Fatal("expected debug to fire on two fingers then fist")
	}

	// The fist that completed the debug toggle stays owned by it and cannot
	// start the fullscreen transition.
	step(ShapeFist)
	if fullscreen.State() != ModeNeutral {
		t.Errorf("fullscreen armed on a fist owned by debug: %s", fullscreen.State())
	}
	if _, f := step(ShapeOpenPalm); f {
		t.Error("fullscreen must not fire from the debug fist")
	}

	// A fresh fist is free again.
	step(ShapeFist)
	if _, f := step(ShapeOpenPalm); !f {
		t.Error("fullscreen should fire from a fresh fist")
	}
}
