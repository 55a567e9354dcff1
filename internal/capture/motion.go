package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Motion detection constants
const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21)
	GaussianBlurSize = 21
	// DiffThreshold is the binary threshold for difference detection
	DiffThreshold = 25
	// DefaultMotionThreshold is the share of changed pixels, in percent,
	// that counts as motion.
	DefaultMotionThreshold = 1.0
)

// MotionDetector detects motion between consecutive video frames
// using frame differencing with Gaussian blur for noise reduction.
type MotionDetector struct {
	threshold   float64
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewMotionDetector creates a detector firing when more than threshold
// percent of the pixels change between frames. Values <= 0 select
// DefaultMotionThreshold.
func NewMotionDetector(threshold float64) *MotionDetector {
	if threshold <= 0 {
		threshold = DefaultMotionThreshold
	}
	return &MotionDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Detect compares frame with the previous one and returns whether motion
// was seen and the percentage of changed pixels. The first frame only sets
// the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	blurred := grayBlur(frame)
	defer blurred.Close()

	if !m.initialized {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return false, 0
	}

	changed := changedPercent(blurred, m.prevGray)
	blurred.CopyTo(&m.prevGray)

	return changed > m.threshold, changed
}

// grayBlur returns a blurred grayscale copy of frame. The caller closes it.
func grayBlur(frame *gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)
	return blurred
}

// changedPercent thresholds the absolute difference of two grayscale frames
// and returns the share of pixels above DiffThreshold.
func changedPercent(a, b gocv.Mat) float64 {
	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(a, b, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	total := thresh.Rows() * thresh.Cols()
	if total == 0 {
		return 0
	}
	return float64(gocv.CountNonZero(thresh)) / float64(total) * 100.0
}

// Reset drops the baseline so the next frame starts over.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

// Close releases resources used by the motion detector.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

func (m *MotionDetector) reset() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
}

// SetThreshold sets the motion detection threshold.
// Values less than or equal to 0 are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.threshold = threshold
}

// Activity switches the sampling rate between an idle and an active rate.
// Motion switches to active immediately; the idle rate returns once no
// motion was seen for IdleAfter.
type Activity struct {
	IdleFPS   int
	ActiveFPS int
	IdleAfter time.Duration

	active     bool
	lastMotion time.Time
}

// NewActivity returns an idle tracker.
func NewActivity(idleFPS, activeFPS int, idleAfter time.Duration) *Activity {
	return &Activity{IdleFPS: idleFPS, ActiveFPS: activeFPS, IdleAfter: idleAfter}
}

// Observe records one motion sample and returns the rate to use and
// whether it changed.
func (a *Activity) Observe(motion bool, now time.Time) (int, bool) {
	if motion {
		a.lastMotion = now
		if !a.active {
			a.active = true
			return a.ActiveFPS, true
		}
		return a.ActiveFPS, false
	}

	if a.active && now.Sub(a.lastMotion) > a.IdleAfter {
		a.active = false
		return a.IdleFPS, true
	}
	return a.FPS(), false
}

// Active reports whether the tracker is in the active rate.
func (a *Activity) Active() bool { return a.active }

// FPS returns the current rate.
func (a *Activity) FPS() int {
	if a.active {
		return a.ActiveFPS
	}
	return a.IdleFPS
}
