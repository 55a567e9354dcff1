package gesture

import (
	"math"
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// ExitState is the stage of the exit confirmation workflow.
type ExitState int

const (
	ExitIdle ExitState = iota
	ExitRequested
	ExitConfirmed
	ExitCancelled
)

func (e ExitState) String() string {
	switch e {
	case ExitIdle:
		return "idle"
	case ExitRequested:
		return "requested"
	case ExitConfirmed:
		return "confirmed"
	case ExitCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (e ExitState) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// ExitWorkflow is the two-phase exit: a close-palm swipe to the left
// requests exit, then an OK sign held for HoldOK confirms it. If the
// confirmation window passes first the request is cancelled.
type ExitWorkflow struct {
	cfg ExitConfig

	state    ExitState
	deadline time.Time
	outcome  ExitState

	tracking bool
	start    detector.Point3D
	startAt  time.Time

	okHeld  bool
	okSince time.Time
}

// NewExitWorkflow creates an idle workflow.
func NewExitWorkflow(cfg ExitConfig) *ExitWorkflow {
	return &ExitWorkflow{cfg: cfg}
}

// Update feeds one tick and returns the command it produced, if any.
func (e *ExitWorkflow) Update(right *detector.LandmarkSet, shape Shape, ok bool, now time.Time) (Command, bool) {
	switch e.state {
	case ExitIdle:
		return e.watchSwipe(right, shape, now)
	case ExitRequested:
		return e.watchConfirm(ok, now)
	default:
		return CommandNone, false
	}
}

func (e *ExitWorkflow) watchSwipe(right *detector.LandmarkSet, shape Shape, now time.Time) (Command, bool) {
	if right == nil || shape != ShapeClosePalm {
		e.tracking = false
		return CommandNone, false
	}

	pos := right.Points[detector.Wrist]
	if !e.tracking || now.Sub(e.startAt) > e.cfg.MaxSwipeDuration {
		e.tracking = true
		e.start = pos
		e.startAt = now
		return CommandNone, false
	}

	dx := pos.X - e.start.X
	dy := pos.Y - e.start.Y
	if dx >= -e.cfg.SwipeDistance || math.Abs(dx) <= math.Abs(dy) {
		return CommandNone, false
	}

	e.tracking = false
	e.state = ExitRequested
	e.deadline = now.Add(e.cfg.ConfirmWindow)
	e.okHeld = false
	return CommandRequestExit, true
}

func (e *ExitWorkflow) watchConfirm(ok bool, now time.Time) (Command, bool) {
	if !now.Before(e.deadline) {
		e.state = ExitIdle
		e.outcome = ExitCancelled
		e.deadline = time.Time{}
		e.okHeld = false
		return CommandCancelExit, true
	}

	if !ok {
		e.okHeld = false
		return CommandNone, false
	}
	if !e.okHeld {
		e.okHeld = true
		e.okSince = now
	}
	if now.Sub(e.okSince) >= e.cfg.HoldOK {
		e.state = ExitConfirmed
		e.outcome = ExitConfirmed
		e.okHeld = false
		return CommandConfirmExit, true
	}
	return CommandNone, false
}

// Reset abandons a swipe in progress. It never leaves Requested or
// Confirmed.
func (e *ExitWorkflow) Reset() {
	e.tracking = false
}

// State returns the workflow stage.
func (e *ExitWorkflow) State() ExitState { return e.state }

// LastOutcome returns how the most recent request ended: ExitConfirmed,
// ExitCancelled, or ExitIdle when no request has ended yet.
func (e *ExitWorkflow) LastOutcome() ExitState { return e.outcome }

// Deadline returns the confirmation deadline while Requested.
func (e *ExitWorkflow) Deadline() time.Time { return e.deadline }

// OKHeldFor returns how long the OK sign has been held continuously.
func (e *ExitWorkflow) OKHeldFor(now time.Time) time.Duration {
	if !e.okHeld {
		return 0
	}
	return now.Sub(e.okSince)
}
