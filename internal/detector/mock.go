package detector

import (
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	obs    Observation
	err    error
	calls  int
	closed int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetObservation sets the observation returned by Detect.
func (m *MockDetector) SetObservation(obs Observation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obs = obs
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured observation or error. A zero
// observation timestamp is replaced with the current time.
func (m *MockDetector) Detect(frame *gocv.Mat) (Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return Observation{}, m.err
	}
	obs := m.obs
	if obs.Timestamp.IsZero() {
		obs.Timestamp = time.Now()
	}
	return obs, nil
}

// Calls returns how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close records the call; tests use CloseCount to check release happens once.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

// CloseCount returns how many times Close was invoked.
func (m *MockDetector) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Finger postures used to assemble the fixtures. Coordinates describe a left
// hand held up with the palm toward a mirrored camera: index on the image
// right, pinky on the image left. Right-hand fixtures are mirror images.
var (
	thumbOut = [4]Point3D{
		{X: 0.55, Y: 0.75}, {X: 0.62, Y: 0.70}, {X: 0.68, Y: 0.65}, {X: 0.73, Y: 0.60},
	}
	thumbFolded = [4]Point3D{
		{X: 0.55, Y: 0.76}, {X: 0.58, Y: 0.72}, {X: 0.59, Y: 0.68}, {X: 0.58, Y: 0.64},
	}
	thumbPinch = [4]Point3D{
		{X: 0.55, Y: 0.75}, {X: 0.62, Y: 0.70}, {X: 0.64, Y: 0.64}, {X: 0.61, Y: 0.59},
	}

	// Per finger: MCP, PIP, DIP, tip. Order index, middle, ring, pinky.
	fingerMCP = [4]Point3D{
		{X: 0.55, Y: 0.68}, {X: 0.50, Y: 0.66}, {X: 0.45, Y: 0.68}, {X: 0.40, Y: 0.70},
	}
	fingerSpread = [4][3]Point3D{
		{{X: 0.57, Y: 0.55}, {X: 0.58, Y: 0.45}, {X: 0.58, Y: 0.35}},
		{{X: 0.50, Y: 0.52}, {X: 0.50, Y: 0.40}, {X: 0.50, Y: 0.28}},
		{{X: 0.43, Y: 0.55}, {X: 0.42, Y: 0.45}, {X: 0.42, Y: 0.35}},
		{{X: 0.37, Y: 0.60}, {X: 0.35, Y: 0.50}, {X: 0.34, Y: 0.42}},
	}
	fingerTogether = [4][3]Point3D{
		{{X: 0.54, Y: 0.55}, {X: 0.53, Y: 0.45}, {X: 0.52, Y: 0.35}},
		{{X: 0.50, Y: 0.52}, {X: 0.50, Y: 0.41}, {X: 0.50, Y: 0.31}},
		{{X: 0.47, Y: 0.55}, {X: 0.475, Y: 0.45}, {X: 0.48, Y: 0.35}},
		{{X: 0.44, Y: 0.60}, {X: 0.45, Y: 0.50}, {X: 0.46, Y: 0.41}},
	}
	fingerCurled = [4][3]Point3D{
		{{X: 0.55, Y: 0.62}, {X: 0.54, Y: 0.66}, {X: 0.54, Y: 0.70}},
		{{X: 0.50, Y: 0.60}, {X: 0.49, Y: 0.64}, {X: 0.49, Y: 0.68}},
		{{X: 0.45, Y: 0.62}, {X: 0.44, Y: 0.66}, {X: 0.44, Y: 0.70}},
		{{X: 0.40, Y: 0.64}, {X: 0.39, Y: 0.68}, {X: 0.39, Y: 0.71}},
	}
	indexPinch = [3]Point3D{
		{X: 0.58, Y: 0.58}, {X: 0.61, Y: 0.56}, {X: 0.615, Y: 0.585},
	}
)

// buildHand assembles a 21-point hand from a thumb posture and one posture
// per finger, then mirrors it for the right hand.
func buildHand(kind Kind, thumb [4]Point3D, fingers [4][3]Point3D) LandmarkSet {
	points := make([]Point3D, NumLandmarks)
	points[Wrist] = Point3D{X: 0.50, Y: 0.80}
	copy(points[ThumbCMC:ThumbTip+1], thumb[:])
	for f := 0; f < 4; f++ {
		base := IndexMCP + f*4
		points[base] = fingerMCP[f]
		copy(points[base+1:base+4], fingers[f][:])
	}

	set := LandmarkSet{Kind: KindLeft, Points: points, Score: 0.95}
	if kind == KindRight {
		return set.MirrorX()
	}
	return set
}

// FistLandmarks returns a hand with every finger curled and the thumb folded.
func FistLandmarks(kind Kind) LandmarkSet {
	return buildHand(kind, thumbFolded, fingerCurled)
}

// OpenPalmLandmarks returns a hand with all fingers extended and spread,
// palm toward the camera.
func OpenPalmLandmarks(kind Kind) LandmarkSet {
	return buildHand(kind, thumbOut, fingerSpread)
}

// ClosePalmLandmarks returns a hand with all fingers extended and held together.
func ClosePalmLandmarks(kind Kind) LandmarkSet {
	return buildHand(kind, thumbFolded, fingerTogether)
}

// TwoFingersLandmarks returns a hand with index and middle extended.
func TwoFingersLandmarks(kind Kind) LandmarkSet {
	return buildHand(kind, thumbFolded, [4][3]Point3D{
		fingerSpread[0], fingerSpread[1], fingerCurled[2], fingerCurled[3],
	})
}

// IndexOnlyLandmarks returns a pointing hand: index raised, thumb folded.
func IndexOnlyLandmarks(kind Kind) LandmarkSet {
	return buildHand(kind, thumbFolded, [4][3]Point3D{
		fingerSpread[0], fingerCurled[1], fingerCurled[2], fingerCurled[3],
	})
}

// OKLandmarks returns a hand whose thumb and index tips touch while the
// remaining fingers are extended.
func OKLandmarks(kind Kind) LandmarkSet {
	return buildHand(kind, thumbPinch, [4][3]Point3D{
		indexPinch, fingerSpread[1], fingerSpread[2], fingerSpread[3],
	})
}

// BackOfHand returns a copy of a hand reflected around its own wrist, which
// is how the same shape looks with the back of the hand toward the camera.
func BackOfHand(s LandmarkSet) LandmarkSet {
	wrist, ok := s.Point(Wrist)
	if !ok {
		return s.Translate(0, 0)
	}
	out := s.Translate(0, 0)
	for i := range out.Points {
		out.Points[i].X = 2*wrist.X - out.Points[i].X
	}
	return out
}

// StandingPoseLandmarks returns a person facing a mirrored camera with arms
// down. Sides are the person's own, so right-side landmarks sit on the
// image right.
func StandingPoseLandmarks() LandmarkSet {
	p := make([]Point3D, NumPoseLandmarks)
	p[PoseNose] = Point3D{X: 0.50, Y: 0.20}
	p[PoseLeftEyeInner] = Point3D{X: 0.48, Y: 0.18}
	p[PoseLeftEye] = Point3D{X: 0.47, Y: 0.18}
	p[PoseLeftEyeOuter] = Point3D{X: 0.45, Y: 0.18}
	p[PoseRightEyeInner] = Point3D{X: 0.52, Y: 0.18}
	p[PoseRightEye] = Point3D{X: 0.53, Y: 0.18}
	p[PoseRightEyeOuter] = Point3D{X: 0.55, Y: 0.18}
	p[PoseLeftEar] = Point3D{X: 0.43, Y: 0.20}
	p[PoseRightEar] = Point3D{X: 0.57, Y: 0.20}
	p[PoseMouthLeft] = Point3D{X: 0.48, Y: 0.25}
	p[PoseMouthRight] = Point3D{X: 0.52, Y: 0.25}
	p[PoseLeftShoulder] = Point3D{X: 0.38, Y: 0.35}
	p[PoseRightShoulder] = Point3D{X: 0.62, Y: 0.35}
	p[PoseLeftElbow] = Point3D{X: 0.32, Y: 0.50}
	p[PoseRightElbow] = Point3D{X: 0.68, Y: 0.50}
	p[PoseLeftWrist] = Point3D{X: 0.34, Y: 0.62}
	p[PoseRightWrist] = Point3D{X: 0.66, Y: 0.62}
	p[PoseLeftPinky] = Point3D{X: 0.33, Y: 0.65}
	p[PoseRightPinky] = Point3D{X: 0.67, Y: 0.65}
	p[PoseLeftIndex] = Point3D{X: 0.34, Y: 0.66}
	p[PoseRightIndex] = Point3D{X: 0.66, Y: 0.66}
	p[PoseLeftThumb] = Point3D{X: 0.35, Y: 0.64}
	p[PoseRightThumb] = Point3D{X: 0.65, Y: 0.64}
	p[PoseLeftHip] = Point3D{X: 0.42, Y: 0.65}
	p[PoseRightHip] = Point3D{X: 0.58, Y: 0.65}
	p[PoseLeftKnee] = Point3D{X: 0.42, Y: 0.85}
	p[PoseRightKnee] = Point3D{X: 0.58, Y: 0.85}
	p[PoseLeftAnkle] = Point3D{X: 0.42, Y: 0.97}
	p[PoseRightAnkle] = Point3D{X: 0.58, Y: 0.97}
	p[PoseLeftHeel] = Point3D{X: 0.42, Y: 0.99}
	p[PoseRightHeel] = Point3D{X: 0.58, Y: 0.99}
	p[PoseLeftFootIndex] = Point3D{X: 0.41, Y: 0.99}
	p[PoseRightFootIndex] = Point3D{X: 0.59, Y: 0.99}

	return LandmarkSet{Kind: KindPose, Points: p, Score: 0.9}
}
