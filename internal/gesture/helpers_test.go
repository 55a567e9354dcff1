package gesture

import (
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// at returns t0 plus the given number of milliseconds.
func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func ptr(s detector.LandmarkSet) *detector.LandmarkSet {
	return &s
}

// Zone targets for StandingPoseLandmarks with DefaultConfig.
var (
	rightKneeAt   = detector.Point3D{X: 0.58, Y: 0.85}
	leftKneeAt    = detector.Point3D{X: 0.42, Y: 0.85}
	rightHipAt    = detector.Point3D{X: 0.58, Y: 0.65}
	chestAt       = detector.Point3D{X: 0.50, Y: 0.43}
	bellyAt       = detector.Point3D{X: 0.50, Y: 0.55}
	leftElbowAt   = detector.Point3D{X: 0.32, Y: 0.50}
	rightTempleAt = detector.Point3D{X: 0.58, Y: 0.16}
	restAt        = detector.Point3D{X: 0.80, Y: 0.30}
)

// pointer returns a right index-only hand whose index tip sits at p.
func pointer(p detector.Point3D) *detector.LandmarkSet {
	return ptr(detector.IndexOnlyLandmarks(detector.KindRight).PlaceAt(detector.IndexTip, p))
}

// leftHand returns the left open palm held away from the body, wrist at
// (0.20, 0.60).
func leftHand() *detector.LandmarkSet {
	return ptr(detector.OpenPalmLandmarks(detector.KindLeft).PlaceAt(detector.Wrist, detector.Point3D{X: 0.20, Y: 0.60}))
}

func pose() *detector.LandmarkSet {
	return ptr(detector.StandingPoseLandmarks())
}

// touchObs builds an observation with the pointer at p, the standing pose
// and the left hand held away from the body.
func touchObs(ms int, p detector.Point3D) detector.Observation {
	return detector.Observation{Timestamp: at(ms), Right: pointer(p), Left: leftHand(), Pose: pose()}
}

// shapeObs builds an observation with only a right hand of the given fixture.
func shapeObs(ms int, right detector.LandmarkSet) detector.Observation {
	return detector.Observation{Timestamp: at(ms), Right: &right}
}

// emptyObs is a tick where nothing was detected.
func emptyObs(ms int) detector.Observation {
	return detector.Observation{Timestamp: at(ms)}
}

// run feeds observations and collects the emitted commands.
func run(r *Recognizer, observations ...detector.Observation) []Command {
	var out []Command
	for _, obs := range observations {
		if ev := r.Process(obs).Event; ev != nil {
			out = append(out, ev.Command)
		}
	}
	return out
}

func sameCommands(a, b []Command) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
