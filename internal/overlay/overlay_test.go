package overlay

import (
	"image"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

func blank() gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
}

func TestToPixel(t *testing.T) {
	tests := []struct {
		p    detector.Point3D
		want image.Point
	}{
		{detector.Point3D{X: 0, Y: 0}, image.Pt(0, 0)},
		{detector.Point3D{X: 0.5, Y: 0.5}, image.Pt(320, 240)},
		{detector.Point3D{X: 0.25, Y: 1}, image.Pt(160, 480)},
	}
	for _, tt := range tests {
		if got := ToPixel(tt.p, 640, 480); got != tt.want {
			t.Errorf("ToPixel(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestDraw(t *testing.T) {
	right := detector.OpenPalmLandmarks(detector.KindRight)
	pose := detector.StandingPoseLandmarks()
	obs := detector.Observation{Right: &right, Pose: &pose}

	t.Run("landmarks", func(t *testing.T) {
		img := blank()
		defer img.Close()

		Draw(&img, obs, gesture.Snapshot{}, nil, Options{Landmarks: true})

		wrist := ToPixel(right.Points[detector.Wrist], 640, 480)
		if g := img.GetUCharAt(wrist.Y, wrist.X*3+1); g == 0 {
			t.Error("right wrist should be drawn in green")
		}
	})

	t.Run("nothing selected", func(t *testing.T) {
		img := blank()
		defer img.Close()

		Draw(&img, obs, gesture.Snapshot{Status: "Touch: chest"}, []string{"x"}, Options{})
		gray := grayOf(img)
		defer gray.Close()
		if n := gocv.CountNonZero(gray); n != 0 {
			t.Errorf("expected an untouched frame, %d pixels changed", n)
		}
	})

	t.Run("status text", func(t *testing.T) {
		img := blank()
		defer img.Close()

		Draw(&img, detector.Observation{}, gesture.Snapshot{Status: "Command: next"}, nil, DefaultOptions())
		gray := grayOf(img)
		defer gray.Close()
		if n := gocv.CountNonZero(gray); n == 0 {
			t.Error("status text should be drawn")
		}
	})

	t.Run("empty frame is ignored", func(t *testing.T) {
		img := gocv.NewMat()
		defer img.Close()
		Draw(&img, obs, gesture.Snapshot{Status: "x"}, nil, DefaultOptions())
		Draw(nil, obs, gesture.Snapshot{}, nil, DefaultOptions())
	})
}

func grayOf(img gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	return gray
}
