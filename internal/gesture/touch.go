package gesture

import (
	"github.com/ayusman/mudra/internal/detector"
)

// Zone is a named contact target for the pointing fingertip.
type Zone int

const (
	ZoneNone Zone = iota
	ZoneRightKnee
	ZoneLeftKnee
	ZoneRightHip
	ZoneLeftHip
	ZoneChest
	ZoneBelly
	ZoneLeftElbow
	ZoneRightTemple
	ZoneLeftPalm
	ZoneLeftWrist
	ZoneOppositeIndexTip
	ZoneOppositePinkyTip
)

var zoneNames = map[Zone]string{
	ZoneNone:             "none",
	ZoneRightKnee:        "right_knee",
	ZoneLeftKnee:         "left_knee",
	ZoneRightHip:         "right_hip",
	ZoneLeftHip:          "left_hip",
	ZoneChest:            "chest",
	ZoneBelly:            "belly",
	ZoneLeftElbow:        "left_elbow",
	ZoneRightTemple:      "right_temple",
	ZoneLeftPalm:         "left_palm",
	ZoneLeftWrist:        "left_wrist",
	ZoneOppositeIndexTip: "opposite_index_tip",
	ZoneOppositePinkyTip: "opposite_pinky_tip",
}

func (z Zone) String() string {
	if name, ok := zoneNames[z]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (z Zone) MarshalText() ([]byte, error) {
	return []byte(z.String()), nil
}

// anchor says which landmark set a candidate target is derived from.
type anchor int

const (
	anchorPose anchor = iota
	anchorLeftHand
)

// candidate is one entry of the ordered zone list.
type candidate struct {
	zone      Zone
	anchor    anchor
	threshold float64
	zoomOnly  bool
	target    func(set *detector.LandmarkSet) (detector.Point3D, bool)
}

// TouchClassifier tests the pointer against a fixed, priority-ordered list of
// zones. Body-anchored zones come first so a left hand resting in front of
// the torso is never read as a hand touch.
type TouchClassifier struct {
	cfg        TouchConfig
	candidates []candidate
}

// Measurement is the pointer distance to one evaluated zone.
type Measurement struct {
	Zone      Zone    `json:"zone"`
	Distance  float64 `json:"distance"`
	Threshold float64 `json:"threshold"`
}

// Hit reports whether the measurement is within its threshold.
func (m Measurement) Hit() bool {
	return m.Distance < m.Threshold
}

// NewTouchClassifier builds the candidate list from cfg.
func NewTouchClassifier(cfg TouchConfig) *TouchClassifier {
	c := &TouchClassifier{cfg: cfg}
	c.candidates = []candidate{
		{zone: ZoneRightKnee, anchor: anchorPose, threshold: cfg.BodyThreshold, target: landmark(detector.PoseRightKnee)},
		{zone: ZoneLeftKnee, anchor: anchorPose, threshold: cfg.BodyThreshold, target: landmark(detector.PoseLeftKnee)},
		{zone: ZoneRightHip, anchor: anchorPose, threshold: cfg.BodyThreshold, target: landmark(detector.PoseRightHip)},
		{zone: ZoneLeftHip, anchor: anchorPose, threshold: cfg.BodyThreshold, target: landmark(detector.PoseLeftHip)},
		{zone: ZoneChest, anchor: anchorPose, threshold: cfg.TorsoThreshold, target: c.chest},
		{zone: ZoneBelly, anchor: anchorPose, threshold: cfg.TorsoThreshold, target: c.belly},
		{zone: ZoneLeftElbow, anchor: anchorPose, threshold: cfg.TorsoThreshold, target: landmark(detector.PoseLeftElbow)},
		{zone: ZoneRightTemple, anchor: anchorPose, threshold: cfg.FaceThreshold, target: c.rightTemple},
		{zone: ZoneLeftPalm, anchor: anchorLeftHand, threshold: cfg.HandThreshold, target: palmCenter},
		{zone: ZoneLeftWrist, anchor: anchorLeftHand, threshold: cfg.HandThreshold, target: landmark(detector.Wrist)},
		{zone: ZoneOppositeIndexTip, anchor: anchorLeftHand, threshold: cfg.FingertipThreshold, zoomOnly: true, target: landmark(detector.IndexTip)},
		{zone: ZoneOppositePinkyTip, anchor: anchorLeftHand, threshold: cfg.FingertipThreshold, zoomOnly: true, target: landmark(detector.PinkyTip)},
	}
	return c
}

// Zones returns the catalogue in priority order.
func (c *TouchClassifier) Zones() []Zone {
	zones := make([]Zone, len(c.candidates))
	for i, cand := range c.candidates {
		zones[i] = cand.zone
	}
	return zones
}

// Classify returns the first zone, in priority order, whose target lies
// within its threshold of pointer. Zones whose anchor set is missing or too
// short are skipped. Fingertip zones are only considered while zoom mode
// is armed.
func (c *TouchClassifier) Classify(pointer detector.Point3D, pose, left *detector.LandmarkSet, zoomArmed bool) (Zone, bool) {
	for _, cand := range c.candidates {
		m, ok := c.measure(cand, pointer, pose, left, zoomArmed)
		if ok && m.Hit() {
			return cand.zone, true
		}
	}
	return ZoneNone, false
}

// Measure returns the distance to every zone that could be evaluated, in
// priority order. It is used for diagnostics only.
func (c *TouchClassifier) Measure(pointer detector.Point3D, pose, left *detector.LandmarkSet, zoomArmed bool) []Measurement {
	var out []Measurement
	for _, cand := range c.candidates {
		if m, ok := c.measure(cand, pointer, pose, left, zoomArmed); ok {
			out = append(out, m)
		}
	}
	return out
}

func (c *TouchClassifier) measure(cand candidate, pointer detector.Point3D, pose, left *detector.LandmarkSet, zoomArmed bool) (Measurement, bool) {
	if cand.zoomOnly && !zoomArmed {
		return Measurement{}, false
	}

	set := pose
	if cand.anchor == anchorLeftHand {
		set = left
		if !set.IsCompleteHand() {
			return Measurement{}, false
		}
	}
	if set == nil {
		return Measurement{}, false
	}

	target, ok := cand.target(set)
	if !ok {
		return Measurement{}, false
	}
	return Measurement{
		Zone:      cand.zone,
		Distance:  detector.Distance2D(pointer, target),
		Threshold: cand.threshold,
	}, true
}

func landmark(i int) func(*detector.LandmarkSet) (detector.Point3D, bool) {
	return func(set *detector.LandmarkSet) (detector.Point3D, bool) {
		return set.Point(i)
	}
}

// chest is the shoulder midpoint moved down by ChestOffset.
func (c *TouchClassifier) chest(pose *detector.LandmarkSet) (detector.Point3D, bool) {
	l, okL := pose.Point(detector.PoseLeftShoulder)
	r, okR := pose.Point(detector.PoseRightShoulder)
	if !okL || !okR {
		return detector.Point3D{}, false
	}
	p := detector.Midpoint(l, r)
	p.Y += c.cfg.ChestOffset
	return p, true
}

// belly is the hip midpoint moved up by BellyOffset.
func (c *TouchClassifier) belly(pose *detector.LandmarkSet) (detector.Point3D, bool) {
	l, okL := pose.Point(detector.PoseLeftHip)
	r, okR := pose.Point(detector.PoseRightHip)
	if !okL || !okR {
		return detector.Point3D{}, false
	}
	p := detector.Midpoint(l, r)
	p.Y -= c.cfg.BellyOffset
	return p, true
}

// rightTemple sits beside the outer corner of the right eye, pushed away
// from the inner corner and slightly up.
func (c *TouchClassifier) rightTemple(pose *detector.LandmarkSet) (detector.Point3D, bool) {
	outer, okO := pose.Point(detector.PoseRightEyeOuter)
	inner, okI := pose.Point(detector.PoseRightEyeInner)
	if !okO || !okI {
		return detector.Point3D{}, false
	}
	dir := 1.0
	if outer.X < inner.X {
		dir = -1
	}
	return detector.Point3D{
		X: outer.X + dir*c.cfg.TempleOffsetX,
		Y: outer.Y - c.cfg.TempleOffsetY,
	}, true
}

// palmCenter is halfway between the wrist and the middle-finger knuckle.
func palmCenter(hand *detector.LandmarkSet) (detector.Point3D, bool) {
	w, okW := hand.Point(detector.Wrist)
	m, okM := hand.Point(detector.MiddleMCP)
	if !okW || !okM {
		return detector.Point3D{}, false
	}
	return detector.Midpoint(w, m), true
}
