// Package gesture turns per-frame landmark observations into discrete,
// debounced gallery commands.
package gesture

import (
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// Shape is the categorical posture of one hand.
type Shape int

const (
	// ShapeNone means the hand was not detected this tick.
	ShapeNone Shape = iota
	ShapeOther
	ShapeFist
	ShapeOpenPalm
	ShapeClosePalm
	ShapeTwoFingers
	ShapeIndexOnly
)

var shapeNames = map[Shape]string{
	ShapeNone:       "none",
	ShapeOther:      "other",
	ShapeFist:       "fist",
	ShapeOpenPalm:   "open_palm",
	ShapeClosePalm:  "close_palm",
	ShapeTwoFingers: "two_fingers",
	ShapeIndexOnly:  "index_only",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s Shape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Fingers records which digits are extended.
type Fingers struct {
	Thumb  bool
	Index  bool
	Middle bool
	Ring   bool
	Pinky  bool
}

// Count returns how many of the four non-thumb fingers are extended.
func (f Fingers) Count() int {
	n := 0
	for _, up := range []bool{f.Index, f.Middle, f.Ring, f.Pinky} {
		if up {
			n++
		}
	}
	return n
}

// handScale returns the hand scale, or 1 when it degenerates so callers can
// keep dividing by it.
func handScale(h *detector.LandmarkSet) float64 {
	scale := h.HandScale()
	if scale < 1e-9 {
		return 1
	}
	return scale
}

// fingerExtended reports whether a finger's tip sits above its PIP joint by
// more than margin. Image Y grows downward.
func fingerExtended(h *detector.LandmarkSet, tip, pip int, margin float64) bool {
	return h.Points[tip].Y < h.Points[pip].Y-margin
}

// ReadFingers reports which digits of h are extended. The thumb moves
// sideways, so it is judged on the x-axis against its own MCP joint.
// Incomplete hands report nothing extended.
func ReadFingers(h *detector.LandmarkSet, cfg ShapeConfig) Fingers {
	if !h.IsCompleteHand() {
		return Fingers{}
	}
	thumbOffset := math.Abs(h.Points[detector.ThumbTip].X - h.Points[detector.ThumbMCP].X)
	return Fingers{
		Thumb:  thumbOffset/handScale(h) > cfg.ThumbRatio,
		Index:  fingerExtended(h, detector.IndexTip, detector.IndexPIP, cfg.FingerMargin),
		Middle: fingerExtended(h, detector.MiddleTip, detector.MiddlePIP, cfg.FingerMargin),
		Ring:   fingerExtended(h, detector.RingTip, detector.RingPIP, cfg.FingerMargin),
		Pinky:  fingerExtended(h, detector.PinkyTip, detector.PinkyPIP, cfg.FingerMargin),
	}
}

var fingertips = [4]int{detector.IndexTip, detector.MiddleTip, detector.RingTip, detector.PinkyTip}

// Spread returns the mean pairwise distance between the four fingertips,
// relative to the hand scale.
func Spread(h *detector.LandmarkSet) float64 {
	if !h.IsCompleteHand() {
		return 0
	}
	var sum float64
	pairs := 0
	for i := 0; i < len(fingertips); i++ {
		for j := i + 1; j < len(fingertips); j++ {
			sum += detector.Distance2D(h.Points[fingertips[i]], h.Points[fingertips[j]])
			pairs++
		}
	}
	return sum / float64(pairs) / handScale(h)
}

// ClassifyShape maps one hand to a Shape. It is a pure function of the
// landmarks: nil yields ShapeNone and an incomplete set yields ShapeOther.
func ClassifyShape(h *detector.LandmarkSet, cfg ShapeConfig) Shape {
	if h == nil {
		return ShapeNone
	}
	if !h.IsCompleteHand() {
		return ShapeOther
	}

	f := ReadFingers(h, cfg)
	switch {
	case f.Count() == 0:
		return ShapeFist
	case f.Count() == 4:
		if Spread(h) >= cfg.SpreadThreshold {
			return ShapeOpenPalm
		}
		return ShapeClosePalm
	case f.Index && f.Middle && !f.Ring && !f.Pinky:
		return ShapeTwoFingers
	case f.Index && f.Count() == 1:
		return ShapeIndexOnly
	default:
		return ShapeOther
	}
}

// IsOK reports whether the thumb and index tips touch.
func IsOK(h *detector.LandmarkSet, cfg ShapeConfig) bool {
	if !h.IsCompleteHand() {
		return false
	}
	d := detector.Distance2D(h.Points[detector.ThumbTip], h.Points[detector.IndexTip])
	return d/handScale(h) < cfg.OKRatio
}

// FacesCamera reports whether the palm points at a mirrored camera. For the
// right hand that puts the index knuckle left of the pinky knuckle in the
// image; for the left hand it is the other way round.
func FacesCamera(h *detector.LandmarkSet) bool {
	if !h.IsCompleteHand() {
		return false
	}
	index, pinky := h.Points[detector.IndexMCP].X, h.Points[detector.PinkyMCP].X
	switch h.Kind {
	case detector.KindRight:
		return index < pinky
	case detector.KindLeft:
		return index > pinky
	default:
		return false
	}
}

// IndexRaised reports whether the index tip is above its PIP joint by at
// least margin.
func IndexRaised(h *detector.LandmarkSet, margin float64) bool {
	if !h.IsCompleteHand() {
		return false
	}
	return h.Points[detector.IndexPIP].Y-h.Points[detector.IndexTip].Y >= margin
}

// SwipeForm reports the pointing posture used for swipes: index only, thumb
// tucked.
func SwipeForm(h *detector.LandmarkSet, cfg ShapeConfig) bool {
	return ClassifyShape(h, cfg) == ShapeIndexOnly && !ReadFingers(h, cfg).Thumb
}
