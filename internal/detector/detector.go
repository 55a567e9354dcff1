package detector

import (
	"time"

	"gocv.io/x/gocv"
)

// Detector defines the interface for landmark tracking implementations.
type Detector interface {
	// Detect analyzes a video frame and returns whatever hands and body pose
	// were found. Missing hands or pose leave the corresponding field nil;
	// that is not an error.
	Detect(frame *gocv.Mat) (Observation, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Observation is the tracker output for one processing tick. It is consumed
// synchronously and must not be retained past the tick.
type Observation struct {
	Timestamp time.Time    `json:"timestamp"`
	Right     *LandmarkSet `json:"right,omitempty"`
	Left      *LandmarkSet `json:"left,omitempty"`
	Pose      *LandmarkSet `json:"pose,omitempty"`
}

// Empty reports whether nothing was detected.
func (o Observation) Empty() bool {
	return o.Right == nil && o.Left == nil && o.Pose == nil
}

// Config holds configuration options for landmark tracking.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int `yaml:"max_hands"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `yaml:"min_confidence"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `yaml:"min_tracking_confidence"`

	// SwapPoseSides exchanges left/right pose landmarks. Enable it when the
	// camera frames are mirrored before tracking.
	SwapPoseSides bool `yaml:"swap_pose_sides"`

	// ScriptPath overrides the location of the tracker service script.
	ScriptPath string `yaml:"script_path"`

	// IdleShutdown stops the tracker process after this long without frames.
	IdleShutdown time.Duration `yaml:"idle_shutdown"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		SwapPoseSides:   true,
		IdleShutdown:    30 * time.Second,
	}
}
