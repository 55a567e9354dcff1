package gesture

import (
	"math"
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// SwipeEngine recognizes a horizontal index-finger swipe. After a swipe it
// stays latched until the right hand leaves view, so one sweep of the arm
// produces one command.
type SwipeEngine struct {
	cfg      SwipeConfig
	shapeCfg ShapeConfig

	tracking bool
	start    detector.Point3D
	startAt  time.Time
	latched  bool
}

// NewSwipeEngine creates an idle swipe engine.
func NewSwipeEngine(cfg SwipeConfig, shapeCfg ShapeConfig) *SwipeEngine {
	return &SwipeEngine{cfg: cfg, shapeCfg: shapeCfg}
}

// Update feeds one tick. suspended is set on ticks owned by a touch or while
// zoom mode is armed.
func (s *SwipeEngine) Update(right *detector.LandmarkSet, now time.Time, suspended bool) (Command, bool) {
	if right == nil {
		s.latched = false
		s.tracking = false
		return CommandNone, false
	}
	if s.latched || suspended || !SwipeForm(right, s.shapeCfg) {
		s.tracking = false
		return CommandNone, false
	}

	pos := right.Points[detector.IndexTip]
	if !s.tracking || now.Sub(s.startAt) > s.cfg.MaxDuration {
		s.begin(pos, now)
		return CommandNone, false
	}

	dx := pos.X - s.start.X
	dy := pos.Y - s.start.Y
	if math.Abs(dx) < s.cfg.Distance || math.Abs(dx) <= math.Abs(dy) {
		return CommandNone, false
	}

	s.tracking = false
	s.latched = true
	if dx > 0 {
		return CommandNext, true
	}
	return CommandPrevious, true
}

// begin starts tracking unless pos lies in the border zone, where a hand
// entering the frame would otherwise look like a swipe.
func (s *SwipeEngine) begin(pos detector.Point3D, now time.Time) {
	s.tracking = pos.X >= s.cfg.BorderZone && pos.X <= 1-s.cfg.BorderZone
	s.start = pos
	s.startAt = now
}

// Reset abandons a swipe in progress. The latch is kept.
func (s *SwipeEngine) Reset() {
	s.tracking = false
}

// Latched reports whether the engine waits for the hand to leave.
func (s *SwipeEngine) Latched() bool { return s.latched }
