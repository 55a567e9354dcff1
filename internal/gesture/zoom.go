package gesture

import "github.com/ayusman/mudra/internal/detector"

// ZoomGate arms zoom mode when, on a single tick, the right hand shows the
// starting pose (index only, clearly raised) and the left hand shows an open
// palm toward the camera. Arming survives shape wobble and is only dropped
// when the right hand leaves view or a command fires.
type ZoomGate struct {
	cfg   ZoomConfig
	armed bool
}

// NewZoomGate creates a disarmed gate.
func NewZoomGate(cfg ZoomConfig) *ZoomGate {
	return &ZoomGate{cfg: cfg}
}

// Update feeds one tick. It returns true when the pending sequence should be
// reset because the armed right hand moved into a clear non-starting shape.
func (z *ZoomGate) Update(right, left *detector.LandmarkSet, rightShape, leftShape Shape) bool {
	if right == nil {
		z.armed = false
		return false
	}

	if z.startingPose(right, rightShape) && leftShape == ShapeOpenPalm && FacesCamera(left) {
		z.armed = true
		return false
	}

	if !z.armed {
		return false
	}
	switch rightShape {
	case ShapeFist, ShapeOpenPalm, ShapeClosePalm, ShapeTwoFingers:
		return true
	}
	return false
}

func (z *ZoomGate) startingPose(right *detector.LandmarkSet, shape Shape) bool {
	return shape == ShapeIndexOnly && IndexRaised(right, z.cfg.RaisedMargin)
}

// Armed reports whether zoom commands are currently eligible.
func (z *ZoomGate) Armed() bool { return z.armed }

// Disarm drops arming; the operator must show the starting pose again.
func (z *ZoomGate) Disarm() { z.armed = false }
