package gesture

import (
	"errors"
	"fmt"
	"time"
)

// Config holds every threshold used by the recognizer. Distances are in
// normalized frame units unless the field name says ratio, in which case
// they are relative to the hand scale (wrist to middle-finger MCP).
type Config struct {
	Shape    ShapeConfig    `yaml:"shape" json:"shape"`
	Touch    TouchConfig    `yaml:"touch" json:"touch"`
	Sequence SequenceConfig `yaml:"sequence" json:"sequence"`
	Zoom     ZoomConfig     `yaml:"zoom" json:"zoom"`
	Swipe    SwipeConfig    `yaml:"swipe" json:"swipe"`
	Exit     ExitConfig     `yaml:"exit" json:"exit"`
}

// ShapeConfig tunes hand shape classification.
type ShapeConfig struct {
	// FingerMargin is how far a fingertip must sit above its PIP joint.
	FingerMargin float64 `yaml:"finger_margin" json:"finger_margin"`
	// ThumbRatio is the lateral tip to MCP offset, over hand scale, that
	// counts as an extended thumb.
	ThumbRatio float64 `yaml:"thumb_ratio" json:"thumb_ratio"`
	// SpreadThreshold separates OpenPalm (at or above) from ClosePalm.
	SpreadThreshold float64 `yaml:"spread_threshold" json:"spread_threshold"`
	// OKRatio is the thumb-tip to index-tip distance, over hand scale,
	// below which the hand forms an OK sign.
	OKRatio float64 `yaml:"ok_ratio" json:"ok_ratio"`
}

// TouchConfig holds per-zone contact thresholds and derived target offsets.
type TouchConfig struct {
	BodyThreshold      float64 `yaml:"body_threshold" json:"body_threshold"`
	TorsoThreshold     float64 `yaml:"torso_threshold" json:"torso_threshold"`
	FaceThreshold      float64 `yaml:"face_threshold" json:"face_threshold"`
	HandThreshold      float64 `yaml:"hand_threshold" json:"hand_threshold"`
	FingertipThreshold float64 `yaml:"fingertip_threshold" json:"fingertip_threshold"`
	ChestOffset        float64 `yaml:"chest_offset" json:"chest_offset"`
	BellyOffset        float64 `yaml:"belly_offset" json:"belly_offset"`
	TempleOffsetX      float64 `yaml:"temple_offset_x" json:"temple_offset_x"`
	TempleOffsetY      float64 `yaml:"temple_offset_y" json:"temple_offset_y"`
}

// SequenceConfig controls touch accumulation.
type SequenceConfig struct {
	// Timeout clears a pending sequence after this long without a touch.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// MinDwell is the shortest gap that separates two contacts with the same
	// zone. Shorter gaps are one continuous touch.
	MinDwell time.Duration `yaml:"min_dwell" json:"min_dwell"`
	// RepeatWindow is the longest gap for a repeated zone to count as a
	// double tap.
	RepeatWindow time.Duration `yaml:"repeat_window" json:"repeat_window"`
}

// ZoomConfig controls the zoom-mode arming gate.
type ZoomConfig struct {
	// RaisedMargin is how far the index tip must be above its PIP joint for
	// the pointing hand to count as the starting pose.
	RaisedMargin float64 `yaml:"raised_margin" json:"raised_margin"`
}

// SwipeConfig controls index-finger swipe navigation.
type SwipeConfig struct {
	BorderZone  float64       `yaml:"border_zone" json:"border_zone"`
	Distance    float64       `yaml:"distance" json:"distance"`
	MaxDuration time.Duration `yaml:"max_duration" json:"max_duration"`
}

// ExitConfig controls the exit request and confirmation workflow.
type ExitConfig struct {
	SwipeDistance    float64       `yaml:"swipe_distance" json:"swipe_distance"`
	MaxSwipeDuration time.Duration `yaml:"max_swipe_duration" json:"max_swipe_duration"`
	ConfirmWindow    time.Duration `yaml:"confirm_window" json:"confirm_window"`
	HoldOK           time.Duration `yaml:"hold_ok" json:"hold_ok"`
}

// DefaultConfig returns the thresholds tuned for a 640x480 selfie camera at
// arm's length.
func DefaultConfig() Config {
	return Config{
		Shape: ShapeConfig{
			FingerMargin:    0.02,
			ThumbRatio:      0.5,
			SpreadThreshold: 0.75,
			OKRatio:         0.3,
		},
		Touch: TouchConfig{
			BodyThreshold:      0.12,
			TorsoThreshold:     0.08,
			FaceThreshold:      0.08,
			HandThreshold:      0.06,
			FingertipThreshold: 0.05,
			ChestOffset:        0.08,
			BellyOffset:        0.10,
			TempleOffsetX:      0.03,
			TempleOffsetY:      0.02,
		},
		Sequence: SequenceConfig{
			Timeout:      2 * time.Second,
			MinDwell:     300 * time.Millisecond,
			RepeatWindow: 1500 * time.Millisecond,
		},
		Zoom: ZoomConfig{
			RaisedMargin: 0.04,
		},
		Swipe: SwipeConfig{
			BorderZone:  0.2,
			Distance:    0.2,
			MaxDuration: time.Second,
		},
		Exit: ExitConfig{
			SwipeDistance:    0.11,
			MaxSwipeDuration: 2 * time.Second,
			ConfirmWindow:    5 * time.Second,
			HoldOK:           500 * time.Millisecond,
		},
	}
}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid gesture config")

// Validate checks that thresholds are usable.
func (c Config) Validate() error {
	positive := map[string]float64{
		"shape.finger_margin":       c.Shape.FingerMargin,
		"shape.thumb_ratio":         c.Shape.ThumbRatio,
		"shape.spread_threshold":    c.Shape.SpreadThreshold,
		"shape.ok_ratio":            c.Shape.OKRatio,
		"touch.body_threshold":      c.Touch.BodyThreshold,
		"touch.torso_threshold":     c.Touch.TorsoThreshold,
		"touch.face_threshold":      c.Touch.FaceThreshold,
		"touch.hand_threshold":      c.Touch.HandThreshold,
		"touch.fingertip_threshold": c.Touch.FingertipThreshold,
		"zoom.raised_margin":        c.Zoom.RaisedMargin,
		"swipe.distance":            c.Swipe.Distance,
		"exit.swipe_distance":       c.Exit.SwipeDistance,
		"sequence.timeout":          c.Sequence.Timeout.Seconds(),
		"sequence.repeat_window":    c.Sequence.RepeatWindow.Seconds(),
		"swipe.max_duration":        c.Swipe.MaxDuration.Seconds(),
		"exit.max_swipe_duration":   c.Exit.MaxSwipeDuration.Seconds(),
		"exit.confirm_window":       c.Exit.ConfirmWindow.Seconds(),
		"exit.hold_ok":              c.Exit.HoldOK.Seconds(),
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, name)
		}
	}

	if c.Sequence.MinDwell < 0 || c.Sequence.MinDwell >= c.Sequence.RepeatWindow {
		return fmt.Errorf("%w: sequence.min_dwell must be in [0, repeat_window)", ErrInvalidConfig)
	}
	if c.Swipe.BorderZone < 0 || c.Swipe.BorderZone >= 0.5 {
		return fmt.Errorf("%w: swipe.border_zone must be in [0, 0.5)", ErrInvalidConfig)
	}
	if c.Exit.HoldOK >= c.Exit.ConfirmWindow {
		return fmt.Errorf("%w: exit.hold_ok must be shorter than exit.confirm_window", ErrInvalidConfig)
	}
	return nil
}
