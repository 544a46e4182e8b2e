package editor

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/Rancor38/Jot-Down/internal/selection"
)

type gestureKind int

const (
	gestureNone gestureKind = iota
	// gestureArmed is a press on unit content that becomes a click on
	// release, or a drag-select once the pointer reaches another unit.
	gestureArmed
	gestureDragSelect
	gestureReorder
	// gestureField places the cursor and extends a text selection inside the
	// open field or the batch overlay.
	gestureField
)

// gesture tracks a pointer press until its release.
type gesture struct {
	down   bool
	kind   gestureKind
	press  hit
	mods   selection.Modifier
	anchor int
}

func (g gesture) active() bool { return g.down }

func clickMods(m tcell.ModMask) selection.Modifier {
	var mods selection.Modifier
	if m&(tcell.ModCtrl|tcell.ModMeta) != 0 {
		mods |= selection.ModToggle
	}
	if m&tcell.ModShift != 0 {
		mods |= selection.ModRange
	}
	return mods
}

// HandleMouse dispatches one mouse event. tcell reports button state rather
// than transitions, so presses and releases are derived from the previous
// event.
func (e *Editor) HandleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	buttons := ev.Buttons()
	switch {
	case buttons&tcell.WheelUp != 0:
		e.scrollBy(-1)
		return
	case buttons&tcell.WheelDown != 0:
		e.scrollBy(1)
		return
	}

	pressed := buttons&tcell.Button1 != 0
	switch {
	case pressed && !e.mouse.down:
		e.mousePress(x, y, clickMods(ev.Modifiers()))
	case pressed:
		e.mouseMove(x, y)
	case e.mouse.down:
		e.mouseRelease(x, y)
	}
}

func (e *Editor) mousePress(x, y int, mods selection.Modifier) {
	e.mouse = gesture{down: true, mods: mods}
	if e.help != nil {
		e.help = nil
		return
	}
	if e.prompt != nil {
		return
	}
	h := e.hitTest(x, y)
	e.mouse.press = h
	st := e.nb.State()

	if st.Kind == selection.BatchEditing {
		if h.kind != hitOverlay {
			e.report(e.nb.BatchCommit())
			e.clampScroll()
			return
		}
		if off, ok := e.batchOffsetAt(x, y); ok {
			e.nb.Field().SetCursor(off)
			e.mouse.kind = gestureField
			e.mouse.anchor = off
		}
		return
	}

	switch h.kind {
	case hitHandle:
		e.report(e.nb.BeginDrag(h.id))
		if e.nb.Dragging() {
			e.mouse.kind = gestureReorder
		}
	case hitContent:
		if f := e.nb.Field(); st.IsEditing(h.id) && mods == 0 && f != nil {
			if e.doubleClicked(h) {
				f.SelectAll()
				return
			}
			off := e.fieldOffsetAt(f, x)
			f.SetCursor(off)
			e.mouse.kind = gestureField
			e.mouse.anchor = off
			return
		}
		e.mouse.kind = gestureArmed
	case hitSpacer, hitEmpty:
		e.report(e.nb.BeginDragSelect(0, false))
		e.mouse.kind = gestureDragSelect
	}
}

func (e *Editor) mouseMove(x, y int) {
	h := e.hitTest(x, y)
	switch e.mouse.kind {
	case gestureArmed:
		if !h.onUnit() || h.id == e.mouse.press.id {
			return
		}
		e.report(e.nb.BeginDragSelect(e.mouse.press.id, true))
		e.mouse.kind = gestureDragSelect
		e.nb.DragSelectEnter(h.id)
	case gestureDragSelect:
		e.edgeScroll(y)
		if h.kind == hitContent || h.kind == hitHandle {
			e.nb.DragSelectEnter(h.id)
		}
	case gestureReorder:
		e.edgeScroll(y)
		if h.onUnit() {
			e.nb.DragOver(h.id, y, h.top, e.rowHeight())
		} else if target, ok := e.nb.DragTarget(); ok {
			e.nb.DragLeave(target)
		}
	case gestureField:
		f := e.nb.Field()
		if f == nil {
			return
		}
		if e.nb.State().Kind == selection.BatchEditing {
			if off, ok := e.batchOffsetAt(x, y); ok {
				f.Select(e.mouse.anchor, off)
			}
			return
		}
		f.Select(e.mouse.anchor, e.fieldOffsetAt(f, x))
	}
}

func (e *Editor) mouseRelease(x, y int) {
	g := e.mouse
	e.mouse = gesture{}
	h := e.hitTest(x, y)
	switch g.kind {
	case gestureArmed:
		if h.onUnit() && h.id == g.press.id {
			e.lastClickID, e.lastClickAt = h.id, e.now()
			e.report(e.nb.Click(selection.OnUnit, h.id, g.mods))
		}
	case gestureDragSelect:
		e.report(e.nb.EndDragSelect())
	case gestureReorder:
		// Released off every unit: nothing moves.
		if !h.onUnit() {
			e.nb.CancelDrag()
			return
		}
		e.nb.DragOver(h.id, y, h.top, e.rowHeight())
		_, err := e.nb.Drop()
		e.report(err)
	}
}

// doubleClicked reports whether a press on h follows the click that opened
// it closely enough to count as a double click.
func (e *Editor) doubleClicked(h hit) bool {
	if h.id != e.lastClickID || e.lastClickAt.IsZero() {
		return false
	}
	ok := e.now().Sub(e.lastClickAt) <= e.doubleClick
	e.lastClickAt = time.Time{}
	return ok
}

// edgeScroll scrolls the view while a drag sits on its first or last row.
func (e *Editor) edgeScroll(y int) {
	switch {
	case y <= 0 && e.scroll > 0:
		e.scrollBy(-1)
	case y >= e.viewHeight-1 && e.viewHeight > 0:
		e.scrollBy(1)
	}
}
