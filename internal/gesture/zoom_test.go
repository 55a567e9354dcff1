package gesture

import (
	"testing"

	"github.com/ayusman/mudra/internal/detector"
)

func TestZoomGate(t *testing.T) {
	cfg := DefaultConfig()
	classify := func(h *detector.LandmarkSet) Shape { return ClassifyShape(h, cfg.Shape) }

	pointing := ptr(detector.IndexOnlyLandmarks(detector.KindRight))
	palm := ptr(detector.OpenPalmLandmarks(detector.KindLeft))
	back := ptr(detector.BackOfHand(detector.OpenPalmLandmarks(detector.KindLeft)))
	fist := ptr(detector.FistLandmarks(detector.KindRight))
	ok := ptr(detector.OKLandmarks(detector.KindRight))

	t.Run("arms on pointing plus open palm", func(t *testing.T) {
		z := NewZoomGate(cfg.Zoom)
		z.Update(pointing, palm, classify(pointing), classify(palm))
		if !z.Armed() {
			t.Error("expected zoom to arm")
		}
	})

	t.Run("back of hand does not arm", func(t *testing.T) {
		z := NewZoomGate(cfg.Zoom)
		z.Update(pointing, back, classify(pointing), classify(back))
		if z.Armed() {
			t.Error("palm facing away must not arm zoom")
		}
	})

	t.Run("missing left hand does not arm", func(t *testing.T) {
		z := NewZoomGate(cfg.Zoom)
		z.Update(pointing, nil, classify(pointing), ShapeNone)
		if z.Armed() {
			t.Error("zoom needs both hands")
		}
	})

	t.Run("barely raised index does not arm", func(t *testing.T) {
		low := detector.IndexOnlyLandmarks(detector.KindRight)
		low.Points[detector.IndexTip].Y = low.Points[detector.IndexPIP].Y - 0.03
		z := NewZoomGate(cfg.Zoom)
		z.Update(&low, palm, classify(&low), classify(palm))
		if z.Armed() {
			t.Error("index must be clearly raised")
		}
	})

	t.Run("arming survives wobble and left hand loss", func(t *testing.T) {
		z := NewZoomGate(cfg.Zoom)
		z.Update(pointing, palm, classify(pointing), classify(palm))
		if reset := z.Update(ok, nil, classify(ok), ShapeNone); reset || !z.Armed() {
			t.Errorf("ambiguous shape: reset=%t armed=%t, want false true", reset, z.Armed())
		}
	})

	t.Run("clear non-starting shape resets the sequence", func(t *testing.T) {
		z := NewZoomGate(cfg.Zoom)
		z.Update(pointing, palm, classify(pointing), classify(palm))
		if reset := z.Update(fist, palm, classify(fist), classify(palm)); !reset {
			t.Error("fist while armed should ask for a sequence reset")
		}
		if !z.Armed() {
			t.Error("a reset does not disarm")
		}
	})

	t.Run("unarmed fist changes nothing", func(t *testing.T) {
		z := NewZoomGate(cfg.Zoom)
		if reset := z.Update(fist, palm, classify(fist), classify(palm)); reset {
			t.Error("unarmed gate must not ask for resets")
		}
	})

	t.Run("right hand loss disarms", func(t *testing.T) {
		z := NewZoomGate(cfg.Zoom)
		z.Update(pointing, palm, classify(pointing), classify(palm))
		z.Update(nil, palm, ShapeNone, classify(palm))
		if z.Armed() {
			t.Error("losing the right hand must disarm")
		}
	})

	t.Run("disarm", func(t *testing.T) {
		z := NewZoomGate(cfg.Zoom)
		z.Update(pointing, palm, classify(pointing), classify(palm))
		z.Disarm()
		if z.Armed() {
			t.Error("Disarm must drop arming")
		}
	})
}
