// Package detector provides landmark tracking interfaces and types for gesture recognition.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Pose landmark indices following MediaPipe convention. Left and right are
// the person's own sides.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	PoseNose           = 0
	PoseLeftEyeInner   = 1
	PoseLeftEye        = 2
	PoseLeftEyeOuter   = 3
	PoseRightEyeInner  = 4
	PoseRightEye       = 5
	PoseRightEyeOuter  = 6
	PoseLeftEar        = 7
	PoseRightEar       = 8
	PoseMouthLeft      = 9
	PoseMouthRight     = 10
	PoseLeftShoulder   = 11
	PoseRightShoulder  = 12
	PoseLeftElbow      = 13
	PoseRightElbow     = 14
	PoseLeftWrist      = 15
	PoseRightWrist     = 16
	PoseLeftPinky      = 17
	PoseRightPinky     = 18
	PoseLeftIndex      = 19
	PoseRightIndex     = 20
	PoseLeftThumb      = 21
	PoseRightThumb     = 22
	PoseLeftHip        = 23
	PoseRightHip       = 24
	PoseLeftKnee       = 25
	PoseRightKnee      = 26
	PoseLeftAnkle      = 27
	PoseRightAnkle     = 28
	PoseLeftHeel       = 29
	PoseRightHeel      = 30
	PoseLeftFootIndex  = 31
	PoseRightFootIndex = 32
	NumPoseLandmarks   = 33
)

// Point3D represents a 3D point in space with x, y, z coordinates.
// X and Y are normalized to the frame (0..1, Y grows downward); Z is the
// tracker's relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Distance2D returns the planar Euclidean distance between a and b.
// Z is ignored: monocular depth is too noisy to compare against thresholds.
func Distance2D(a, b Point3D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point3D) Point3D {
	return Point3D{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2, Z: (a.Z + b.Z) / 2}
}

// Kind tags a LandmarkSet with what produced it.
type Kind int

const (
	KindRight Kind = iota
	KindLeft
	KindPose
)

func (k Kind) String() string {
	switch k {
	case KindRight:
		return "right"
	case KindLeft:
		return "left"
	case KindPose:
		return "pose"
	default:
		return "unknown"
	}
}

// LandmarkSet is one tracked hand or body. Sets are treated as immutable
// once the tracker has produced them; helpers that move points return copies.
type LandmarkSet struct {
	Kind   Kind      `json:"kind"`
	Points []Point3D `json:"points"`
	Score  float64   `json:"score"`
}

// Len returns the number of points, or 0 for a nil set.
func (s *LandmarkSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// Point returns landmark i and whether it exists.
func (s *LandmarkSet) Point(i int) (Point3D, bool) {
	if s == nil || i < 0 || i >= len(s.Points) {
		return Point3D{}, false
	}
	return s.Points[i], true
}

// IsCompleteHand reports whether the set carries all 21 hand landmarks.
func (s *LandmarkSet) IsCompleteHand() bool {
	return s.Len() >= NumLandmarks
}

// HandScale returns the planar wrist to middle-finger MCP distance, used to
// make hand measurements independent of distance from the camera.
// Returns 0 when the set is not a complete hand.
func (s *LandmarkSet) HandScale() float64 {
	if !s.IsCompleteHand() {
		return 0
	}
	return Distance2D(s.Points[Wrist], s.Points[MiddleMCP])
}

// Translate returns a copy of the set shifted by dx, dy.
func (s LandmarkSet) Translate(dx, dy float64) LandmarkSet {
	out := LandmarkSet{Kind: s.Kind, Score: s.Score, Points: make([]Point3D, len(s.Points))}
	for i, p := range s.Points {
		out.Points[i] = Point3D{X: p.X + dx, Y: p.Y + dy, Z: p.Z}
	}
	return out
}

// PlaceAt returns a copy of the set translated so that landmark i lands on p.
// An out-of-range index returns an unmodified copy.
func (s LandmarkSet) PlaceAt(i int, p Point3D) LandmarkSet {
	if i < 0 || i >= len(s.Points) {
		return s.Translate(0, 0)
	}
	return s.Translate(p.X-s.Points[i].X, p.Y-s.Points[i].Y)
}

// MirrorX returns a copy reflected around the vertical center line of the
// frame. Hand kinds are swapped so a mirrored right hand becomes a left hand.
func (s LandmarkSet) MirrorX() LandmarkSet {
	out := s.Translate(0, 0)
	for i := range out.Points {
		out.Points[i].X = 1 - out.Points[i].X
	}
	switch s.Kind {
	case KindRight:
		out.Kind = KindLeft
	case KindLeft:
		out.Kind = KindRight
	}
	return out
}

// posePairs lists the left/right pose landmark pairs exchanged by SwapSides.
var posePairs = [][2]int{
	{PoseLeftEyeInner, PoseRightEyeInner},
	{PoseLeftEye, PoseRightEye},
	{PoseLeftEyeOuter, PoseRightEyeOuter},
	{PoseLeftEar, PoseRightEar},
	{PoseMouthLeft, PoseMouthRight},
	{PoseLeftShoulder, PoseRightShoulder},
	{PoseLeftElbow, PoseRightElbow},
	{PoseLeftWrist, PoseRightWrist},
	{PoseLeftPinky, PoseRightPinky},
	{PoseLeftIndex, PoseRightIndex},
	{PoseLeftThumb, PoseRightThumb},
	{PoseLeftHip, PoseRightHip},
	{PoseLeftKnee, PoseRightKnee},
	{PoseLeftAnkle, PoseRightAnkle},
	{PoseLeftHeel, PoseRightHeel},
	{PoseLeftFootIndex, PoseRightFootIndex},
}

// SwapSides returns a copy of a pose set with every left/right landmark pair
// exchanged. The pose model labels sides as seen in the image, so on mirrored
// frames the labels must be swapped to match the person's own sides.
func (s LandmarkSet) SwapSides() LandmarkSet {
	out := s.Translate(0, 0)
	for _, pair := range posePairs {
		l, r := pair[0], pair[1]
		if l < len(out.Points) && r < len(out.Points) {
			out.Points[l], out.Points[r] = out.Points[r], out.Points[l]
		}
	}
	return out
}
