package gesture

import (
	"fmt"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// Snapshot is the recognizer state after a tick, for status views.
type Snapshot struct {
	RightShape   Shape     `json:"right_shape"`
	LeftShape    Shape     `json:"left_shape"`
	Touch        Zone      `json:"touch"`
	Sequence     []Zone    `json:"sequence"`
	ZoomArmed    bool      `json:"zoom_armed"`
	Fullscreen   bool      `json:"fullscreen"`
	FullscreenAt ModeState `json:"fullscreen_state"`
	Debug        bool      `json:"debug"`
	DebugAt      ModeState `json:"debug_state"`
	Exit         ExitState `json:"exit"`
	ExitDeadline time.Time `json:"exit_deadline,omitempty"`
	Owner        string    `json:"owner,omitempty"`
	Status       string    `json:"status"`
}

// Result is the outcome of processing one observation.
type Result struct {
	// Event is the command recognized this tick, if any. At most one
	// command is produced per tick.
	Event       *Event
	Diagnostics []string
	Snapshot    Snapshot
}

// Recognizer is the command dispatcher. It runs every engine in a fixed
// order on each observation, emits at most one event, and resets the
// engines that must re-arm after a command.
//
// A Recognizer is not safe for concurrent use; one goroutine drives it.
type Recognizer struct {
	cfg Config

	touch      *TouchClassifier
	table      *Table
	sequence   *SequenceEngine
	debug      *Toggle
	fullscreen *Toggle
	zoom       *ZoomGate
	swipe      *SwipeEngine
	exit       *ExitWorkflow
	owner      FrameOwner

	snapshot Snapshot
}

// NewRecognizer creates a recognizer using the default command table.
func NewRecognizer(cfg Config) *Recognizer {
	return NewRecognizerWithTable(cfg, DefaultTable())
}

// NewRecognizerWithTable creates a recognizer matching sequences against table.
func NewRecognizerWithTable(cfg Config, table *Table) *Recognizer {
	return &Recognizer{
		cfg:        cfg,
		touch:      NewTouchClassifier(cfg.Touch),
		table:      table,
		sequence:   NewSequenceEngine(cfg.Sequence, table),
		debug:      NewDebugToggle(),
		fullscreen: NewFullscreenToggle(),
		zoom:       NewZoomGate(cfg.Zoom),
		swipe:      NewSwipeEngine(cfg.Swipe, cfg.Shape),
		exit:       NewExitWorkflow(cfg.Exit),
	}
}

// Process runs one tick.
//
// Order: classify shapes, then the exit workflow (which owns all input while
// a request is pending), the zoom gate, touch classification, the debug and
// fullscreen toggles, the sequence engine and finally the swipe engine.
func (r *Recognizer) Process(obs detector.Observation) (res Result) {
	now := obs.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	rightShape := ClassifyShape(obs.Right, r.cfg.Shape)
	leftShape := ClassifyShape(obs.Left, r.cfg.Shape)

	d := &diag{}
	d.addf("right=%s left=%s pose=%t", rightShape, leftShape, obs.Pose != nil)

	defer func() {
		res.Diagnostics = d.lines
	}()

	if r.exit.State() == ExitConfirmed {
		res.Snapshot = r.takeSnapshot(rightShape, leftShape, ZoneNone, "Exiting")
		return res
	}

	ok := IsOK(obs.Right, r.cfg.Shape)
	if cmd, fired := r.exit.Update(obs.Right, rightShape, ok, now); fired {
		d.addf("exit: %s", cmd)
		res.Event = r.emit(cmd, SourceExit, "", now)
		res.Snapshot = r.takeSnapshot(rightShape, leftShape, ZoneNone, statusFor(cmd))
		return res
	}
	if r.exit.State() == ExitRequested {
		left := r.exit.Deadline().Sub(now)
		d.addf("exit: requested ok=%t held=%s remaining=%s", ok, r.exit.OKHeldFor(now).Round(10*time.Millisecond), left.Round(100*time.Millisecond))
		res.Snapshot = r.takeSnapshot(rightShape, leftShape, ZoneNone,
			fmt.Sprintf("Exit? Hold OK to confirm (%.0fs)", left.Seconds()))
		return res
	}

	wasArmed := r.zoom.Armed()
	if r.zoom.Update(obs.Right, obs.Left, rightShape, leftShape) {
		if len(r.sequence.Zones()) > 0 {
			d.addf("zoom: non-starting shape %s, sequence reset", rightShape)
		}
		r.sequence.Reset()
	}
	if r.zoom.Armed() != wasArmed {
		d.addf("zoom: armed=%t", r.zoom.Armed())
	}

	zone, touched := ZoneNone, false
	if tip, present := obs.Right.Point(detector.IndexTip); present && obs.Right.IsCompleteHand() {
		zone, touched = r.touch.Classify(tip, obs.Pose, obs.Left, r.zoom.Armed())
		if touched {
			d.addf("touch: %s", zone)
		} else if m := nearest(r.touch.Measure(tip, obs.Pose, obs.Left, r.zoom.Armed())); m != nil {
			d.addf("nearest: %s d=%.3f/%.3f", m.Zone, m.Distance, m.Threshold)
		}
	}

	// An ambiguous hand drops a half-entered sequence.
	if !touched && rightShape == ShapeOther && len(r.sequence.Zones()) > 0 {
		d.addf("sequence: reset on %s", rightShape)
		r.sequence.Reset()
	}

	r.owner.Begin(rightShape)

	var ev *Event
	if r.debug.Update(rightShape, &r.owner) {
		ev = r.emit(CommandToggleDebug, SourceDebug, onOff(r.debug.On()), now)
	} else if r.fullscreen.Update(rightShape, &r.owner) {
		ev = r.emit(CommandToggleFullscreen, SourceFullscreen, onOff(r.fullscreen.On()), now)
	} else if rule, fired := r.sequence.Observe(zone, touched, now, r.zoom.Armed()); fired {
		ev = r.emit(rule.Command, SourceSequence, r.sequenceDetail(rule), now)
	} else if cmd, fired := r.swipe.Update(obs.Right, now, touched || r.zoom.Armed()); fired {
		ev = r.emit(cmd, SourceSwipe, "", now)
	}

	if seq := r.sequence.Zones(); len(seq) > 0 {
		d.addf("sequence: %s", joinZones(seq))
	}
	if ev != nil {
		d.addf("command: %s via %s", ev.Command, ev.Source)
	}

	res.Event = ev
	status := ""
	switch {
	case ev != nil:
		status = statusFor(ev.Command)
	case obs.Right == nil:
		status = "Waiting for right hand"
	case touched:
		status = "Touch: " + zone.String()
	case r.zoom.Armed():
		status = "Zoom mode"
	}
	res.Snapshot = r.takeSnapshot(rightShape, leftShape, zone, status)
	return res
}

// emit builds the event and resets every engine that must re-arm.
func (r *Recognizer) emit(cmd Command, source, detail string, now time.Time) *Event {
	if source != SourceSequence {
		r.sequence.Reset()
	}
	if source != SourceDebug {
		r.debug.Reset()
	}
	if source != SourceFullscreen {
		r.fullscreen.Reset()
	}
	if source != SourceSwipe {
		r.swipe.Reset()
	}
	if source != SourceExit {
		r.exit.Reset()
	}
	r.zoom.Disarm()
	return &Event{Command: cmd, At: now, Source: source, Detail: detail}
}

// sequenceDetail flips the mode a toggle rule names and reports the new
// state. Other rules are described by the rule itself.
func (r *Recognizer) sequenceDetail(rule Rule) string {
	switch rule.Command {
	case CommandToggleFullscreen:
		r.fullscreen.Set(!r.fullscreen.On())
		return onOff(r.fullscreen.On())
	case CommandToggleDebug:
		r.debug.Set(!r.debug.On())
		return onOff(r.debug.On())
	}
	return rule.String()
}

// SetFullscreen syncs the fullscreen toggle with the view.
func (r *Recognizer) SetFullscreen(on bool) { r.fullscreen.Set(on) }

// SetDebug syncs the debug toggle with the view.
func (r *Recognizer) SetDebug(on bool) { r.debug.Set(on) }

// Snapshot returns the state after the most recent tick.
func (r *Recognizer) Snapshot() Snapshot {
	s := r.snapshot
	s.Sequence = append([]Zone(nil), s.Sequence...)
	return s
}

// ExitState returns the stage of the exit workflow.
func (r *Recognizer) ExitState() ExitState { return r.exit.State() }

// Table returns the command table in use.
func (r *Recognizer) Table() *Table { return r.table }

func (r *Recognizer) takeSnapshot(right, left Shape, touch Zone, status string) Snapshot {
	r.snapshot = Snapshot{
		RightShape:   right,
		LeftShape:    left,
		Touch:        touch,
		Sequence:     r.sequence.Zones(),
		ZoomArmed:    r.zoom.Armed(),
		Fullscreen:   r.fullscreen.On(),
		FullscreenAt: r.fullscreen.State(),
		Debug:        r.debug.On(),
		DebugAt:      r.debug.State(),
		Exit:         r.exit.State(),
		ExitDeadline: r.exit.Deadline(),
		Owner:        r.owner.Owner(),
		Status:       status,
	}
	return r.Snapshot()
}

func statusFor(cmd Command) string {
	switch cmd {
	case CommandRequestExit:
		return "Exit? Hold OK to confirm"
	case CommandConfirmExit:
		return "Exiting"
	case CommandCancelExit:
		return "Exit cancelled"
	default:
		return "Command: " + cmd.String()
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func joinZones(zones []Zone) string {
	names := make([]string, len(zones))
	for i, z := range zones {
		names[i] = z.String()
	}
	return "[" + strings.Join(names, " ") + "]"
}

func nearest(ms []Measurement) *Measurement {
	var best *Measurement
	for i := range ms {
		if best == nil || ms[i].Distance < best.Distance {
			best = &ms[i]
		}
	}
	return best
}

type diag struct {
	lines []string
}

func (d *diag) addf(format string, args ...interface{}) {
	d.lines = append(d.lines, fmt.Sprintf(format, args...))
}
