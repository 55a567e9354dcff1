package gesture

// ModeState is the arming state of a toggle engine.
type ModeState int

const (
	ModeNeutral ModeState = iota
	ModeArmedForEntry
	ModeArmedForExit
)

func (m ModeState) String() string {
	switch m {
	case ModeNeutral:
		return "neutral"
	case ModeArmedForEntry:
		return "armed_for_entry"
	case ModeArmedForExit:
		return "armed_for_exit"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m ModeState) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Transition is a shape change that flips a toggle.
type Transition struct {
	From Shape
	To   Shape
}

// FrameOwner is the token engines use to claim a tick. A claim lasts for the
// tick; a sticky claim carries over while the right-hand shape stays the
// same. Engines that see a frame owned by someone else stand down quietly
// instead of reading the shape as an ambiguous attempt.
type FrameOwner struct {
	name   string
	shape  Shape
	sticky bool
}

// Begin starts a tick, releasing claims that no longer hold.
func (o *FrameOwner) Begin(shape Shape) {
	if o.name == "" {
		return
	}
	if !o.sticky || shape != o.shape {
		o.Release()
	}
}

// Claim takes the frame for name unless another engine already holds it.
func (o *FrameOwner) Claim(name string, shape Shape, sticky bool) bool {
	if o.name != "" && o.name != name {
		return false
	}
	o.name, o.shape, o.sticky = name, shape, sticky
	return true
}

// OwnedByOther reports whether someone other than name holds the frame.
func (o *FrameOwner) OwnedByOther(name string) bool {
	return o.name != "" && o.name != name
}

// Owner returns the current holder, or "" when the frame is free.
func (o *FrameOwner) Owner() string {
	return o.name
}

// Release frees the token.
func (o *FrameOwner) Release() {
	*o = FrameOwner{}
}

// Toggle is a bistable engine that flips only on a transition between two
// named shapes on consecutive ticks. Holding the end shape never fires, and
// any shape outside the engine's vocabulary cancels an attempt in progress.
type Toggle struct {
	name  string
	enter Transition
	leave Transition

	on    bool
	state ModeState
	last  Shape
}

// NewToggle creates a toggle entered by enter and left by leave. Pass the
// same transition twice for a symmetric toggle.
func NewToggle(name string, enter, leave Transition) *Toggle {
	return &Toggle{name: name, enter: enter, leave: leave}
}

// NewFullscreenToggle returns the Fist -> OpenPalm / OpenPalm -> Fist toggle.
func NewFullscreenToggle() *Toggle {
	return NewToggle(SourceFullscreen,
		Transition{From: ShapeFist, To: ShapeOpenPalm},
		Transition{From: ShapeOpenPalm, To: ShapeFist})
}

// NewDebugToggle returns the TwoFingers -> Fist toggle.
func NewDebugToggle() *Toggle {
	t := Transition{From: ShapeTwoFingers, To: ShapeFist}
	return NewToggle(SourceDebug, t, t)
}

// Update feeds the right-hand shape for one tick and reports whether the
// toggle fired.
func (t *Toggle) Update(shape Shape, owner *FrameOwner) bool {
	if owner != nil && owner.OwnedByOther(t.name) {
		t.Reset()
		return false
	}

	tr := t.enter
	armed := ModeArmedForEntry
	if t.on {
		tr = t.leave
		armed = ModeArmedForExit
	}

	switch {
	case shape == tr.From:
		t.state = armed
		t.last = shape
		if owner != nil {
			owner.Claim(t.name, shape, true)
		}
		return false

	case shape == tr.To && t.state == armed && t.last == tr.From:
		t.on = !t.on
		t.Reset()
		if owner != nil {
			owner.Claim(t.name, shape, true)
		}
		return true

	case shape == tr.To:
		// End shape without a fresh start shape: remember it but stay neutral.
		t.state = ModeNeutral
		t.last = shape
		return false

	default:
		t.Reset()
		return false
	}
}

// Reset cancels any attempt in progress. The controlled value is kept.
func (t *Toggle) Reset() {
	t.state = ModeNeutral
	t.last = ShapeNone
}

// On returns the controlled value.
func (t *Toggle) On() bool { return t.on }

// Set overrides the controlled value, for example when the gallery changed
// it through another input.
func (t *Toggle) Set(on bool) {
	if t.on != on {
		t.on = on
		t.Reset()
	}
}

// State returns the arming state.
func (t *Toggle) State() ModeState { return t.state }

// Name returns the engine name used for frame ownership and event sources.
func (t *Toggle) Name() string { return t.name }
