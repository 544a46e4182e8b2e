// Package reorder tracks a drag-and-drop gesture that moves one line unit
// before or after another.
package reorder

import "github.com/Rancor38/Jot-Down/internal/document"

type Phase int

const (
	Idle Phase = iota
	Dragging
	OverTarget
)

func (p Phase) String() string {
	switch p {
	case Dragging:
		return "dragging"
	case OverTarget:
		return "over"
	default:
		return "idle"
	}
}

// Drop is the outcome of a completed gesture.
type Drop struct {
	Source   document.ID
	Target   document.ID
	Position document.Position
}

// Engine holds the transient drag state. It is never snapshotted.
type Engine struct {
	phase    Phase
	source   document.ID
	target   document.ID
	position document.Position
}

func (e *Engine) Phase() Phase                { return e.phase }
func (e *Engine) Active() bool                { return e.phase != Idle }
func (e *Engine) Source() document.ID         { return e.source }
func (e *Engine) Target() (document.ID, bool) { return e.target, e.phase == OverTarget }
func (e *Engine) Position() document.Position { return e.position }

// Start picks up source. Any gesture in progress is discarded.
func (e *Engine) Start(source document.ID) {
	*e = Engine{phase: Dragging, source: source}
}

// PositionAt returns Before when y lies in the top half of the extent
// [top, top+height), After otherwise.
func PositionAt(y, top, height int) document.Position {
	if 2*(y-top) < height {
		return document.Before
	}
	return document.After
}

// Over records the pointer at row y over target, whose on-screen extent
// starts at top and spans height rows. It reports whether the target or the
// computed half changed, so callers can skip redundant redraws.
func (e *Engine) Over(target document.ID, y, top, height int) bool {
	if e.phase == Idle {
		return false
	}
	pos := PositionAt(y, top, height)
	if e.phase == OverTarget && e.target == target && e.position == pos {
		return false
	}
	e.phase = OverTarget
	e.target = target
	e.position = pos
	return true
}

// Leave clears the current target if the pointer left target's extent.
func (e *Engine) Leave(target document.ID) bool {
	if e.phase != OverTarget || e.target != target {
		return false
	}
	e.phase = Dragging
	e.target = 0
	e.position = document.Before
	return true
}

// Drop ends the gesture. ok is false when there was no target or the source
// was dropped on itself; the caller must not mutate the document then.
func (e *Engine) Drop() (Drop, bool) {
	d := Drop{Source: e.source, Target: e.target, Position: e.position}
	ok := e.phase == OverTarget && e.source != e.target
	*e = Engine{}
	return d, ok
}

func (e *Engine) Cancel() {
	*e = Engine{}
}
