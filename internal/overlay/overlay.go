// Package overlay draws tracked landmarks and recognizer state on camera
// frames and keeps the latest annotated frame for streaming.
package overlay

import (
	"image"
	"image/color"
	"strings"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

var (
	rightColor = color.RGBA{R: 0, G: 220, B: 0, A: 0}
	leftColor  = color.RGBA{R: 0, G: 140, B: 255, A: 0}
	poseColor  = color.RGBA{R: 200, G: 200, B: 200, A: 0}
	textColor  = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	alertColor = color.RGBA{R: 255, G: 60, B: 60, A: 0}
)

// handBones pairs hand landmarks to join with a line.
var handBones = [][2]int{
	{detector.Wrist, detector.ThumbCMC}, {detector.ThumbCMC, detector.ThumbMCP},
	{detector.ThumbMCP, detector.ThumbIP}, {detector.ThumbIP, detector.ThumbTip},
	{detector.Wrist, detector.IndexMCP}, {detector.IndexMCP, detector.IndexPIP},
	{detector.IndexPIP, detector.IndexDIP}, {detector.IndexDIP, detector.IndexTip},
	{detector.MiddleMCP, detector.MiddlePIP}, {detector.MiddlePIP, detector.MiddleDIP},
	{detector.MiddleDIP, detector.MiddleTip},
	{detector.RingMCP, detector.RingPIP}, {detector.RingPIP, detector.RingDIP},
	{detector.RingDIP, detector.RingTip},
	{detector.Wrist, detector.PinkyMCP}, {detector.PinkyMCP, detector.PinkyPIP},
	{detector.PinkyPIP, detector.PinkyDIP}, {detector.PinkyDIP, detector.PinkyTip},
	{detector.IndexMCP, detector.MiddleMCP}, {detector.MiddleMCP, detector.RingMCP},
	{detector.RingMCP, detector.PinkyMCP},
}

// poseBones covers the upper body and legs used by the touch zones.
var poseBones = [][2]int{
	{detector.PoseLeftShoulder, detector.PoseRightShoulder},
	{detector.PoseLeftShoulder, detector.PoseLeftElbow}, {detector.PoseLeftElbow, detector.PoseLeftWrist},
	{detector.PoseRightShoulder, detector.PoseRightElbow}, {detector.PoseRightElbow, detector.PoseRightWrist},
	{detector.PoseLeftShoulder, detector.PoseLeftHip}, {detector.PoseRightShoulder, detector.PoseRightHip},
	{detector.PoseLeftHip, detector.PoseRightHip},
	{detector.PoseLeftHip, detector.PoseLeftKnee}, {detector.PoseRightHip, detector.PoseRightKnee},
}

// Options selects what Draw renders.
type Options struct {
	Landmarks   bool
	Status      bool
	Diagnostics bool
	Thickness   int
}

// DefaultOptions draws everything but the diagnostics.
func DefaultOptions() Options {
	return Options{Landmarks: true, Status: true, Thickness: 2}
}

// Draw annotates img in place.
func Draw(img *gocv.Mat, obs detector.Observation, snap gesture.Snapshot, diagnostics []string, opts Options) {
	if img == nil || img.Empty() {
		return
	}
	if opts.Thickness <= 0 {
		opts.Thickness = 2
	}
	w, h := img.Cols(), img.Rows()

	if opts.Landmarks {
		drawSet(img, obs.Pose, poseBones, poseColor, w, h, opts.Thickness)
		drawSet(img, obs.Left, handBones, leftColor, w, h, opts.Thickness)
		drawSet(img, obs.Right, handBones, rightColor, w, h, opts.Thickness)
	}

	y := 24
	if opts.Status && snap.Status != "" {
		c := textColor
		if snap.Exit == gesture.ExitRequested {
			c = alertColor
		}
		gocv.PutText(img, snap.Status, image.Pt(10, y), gocv.FontHersheySimplex, 0.6, c, 2)
		y += 22
		if len(snap.Sequence) > 0 {
			gocv.PutText(img, "seq: "+joinZones(snap.Sequence), image.Pt(10, y), gocv.FontHersheySimplex, 0.5, textColor, 1)
			y += 20
		}
	}
	if opts.Diagnostics {
		for _, line := range diagnostics {
			if y > h-8 {
				break
			}
			gocv.PutText(img, line, image.Pt(10, y), gocv.FontHersheyPlain, 1.0, textColor, 1)
			y += 16
		}
	}
}

func drawSet(img *gocv.Mat, set *detector.LandmarkSet, bones [][2]int, c color.RGBA, w, h, thickness int) {
	if set == nil {
		return
	}
	for _, b := range bones {
		p1, ok1 := set.Point(b[0])
		p2, ok2 := set.Point(b[1])
		if !ok1 || !ok2 {
			continue
		}
		gocv.Line(img, ToPixel(p1, w, h), ToPixel(p2, w, h), c, thickness)
	}
	for _, p := range set.Points {
		gocv.Circle(img, ToPixel(p, w, h), 3, c, -1)
	}
}

// ToPixel maps a normalized landmark to image coordinates.
func ToPixel(p detector.Point3D, w, h int) image.Point {
	return image.Pt(int(p.X*float64(w)), int(p.Y*float64(h)))
}

func joinZones(zones []gesture.Zone) string {
	names := make([]string, len(zones))
	for i, z := range zones {
		names[i] = z.String()
	}
	return strings.Join(names, " > ")
}
