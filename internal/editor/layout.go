package editor

import (
	"github.com/gdamore/tcell/v2"

	"github.com/Rancor38/Jot-Down/internal/document"
	"github.com/Rancor38/Jot-Down/internal/markdown"
	"github.com/Rancor38/Jot-Down/internal/selection"
	"github.com/Rancor38/Jot-Down/internal/textfield"
)

// contentX is the first column of unit text. Column 0 holds the drag
// handle and column 1 is a gap.
const contentX = 2

type hitKind int

const (
	hitNone hitKind = iota
	hitHandle
	hitContent
	hitSpacer
	hitEmpty
	hitOverlay
)

// hit is what a screen cell maps to.
type hit struct {
	kind  hitKind
	index int
	id    document.ID
	// top is the first row of the unit's extent, its content row.
	top int
}

func (h hit) onUnit() bool {
	return h.kind == hitHandle || h.kind == hitContent || h.kind == hitSpacer
}

// rowHeight is the number of rows one unit occupies: its content row plus
// spacer rows.
func (e *Editor) rowHeight() int {
	return 1 + e.spacing
}

func (e *Editor) unitTop(index int) int {
	return (index - e.scroll) * e.rowHeight()
}

// visibleUnits is how many units have their content row on screen.
func (e *Editor) visibleUnits() int {
	if e.viewHeight <= 0 {
		return 1
	}
	rh := e.rowHeight()
	return max(1, (e.viewHeight+rh-1)/rh)
}

func (e *Editor) hitTest(x, y int) hit {
	if y < 0 || y >= e.viewHeight || x < 0 {
		return hit{kind: hitNone}
	}
	if e.nb.State().Kind == selection.BatchEditing {
		bx, by, bw, bh := e.batchBox(e.width, e.viewHeight)
		if x >= bx && x < bx+bw && y >= by && y < by+bh {
			return hit{kind: hitOverlay}
		}
	}
	rh := e.rowHeight()
	index := e.scroll + y/rh
	doc := e.nb.Doc()
	if index >= doc.Len() {
		return hit{kind: hitEmpty, index: -1}
	}
	h := hit{index: index, id: doc.Unit(index).ID, top: e.unitTop(index)}
	switch {
	case y%rh != 0:
		h.kind = hitSpacer
	case x == 0:
		h.kind = hitHandle
	default:
		h.kind = hitContent
	}
	return h
}

// reveal scrolls so the unit at index has its content row on screen.
func (e *Editor) reveal(index int) {
	if index < 0 {
		return
	}
	if index < e.scroll {
		e.scroll = index
	}
	if n := e.visibleUnits(); index >= e.scroll+n {
		e.scroll = index - n + 1
	}
	e.clampScroll()
}

func (e *Editor) clampScroll() {
	e.scroll = clampRange(e.scroll, 0, e.nb.Doc().Len()-1)
}

func (e *Editor) scrollBy(n int) {
	e.scroll += n
	e.clampScroll()
}

// renderUnits paints every visible unit and returns the cursor position of
// the raw field when one is open.
func (e *Editor) renderUnits(s tcell.Screen, w, viewHeight int) (cx, cy int, cursor bool) {
	doc := e.nb.Doc()
	st := e.nb.State()
	drag := e.nb.DragEngine()
	target, over := drag.Target()
	sole := doc.Len() == 1
	rh := e.rowHeight()

	for y := 0; y < viewHeight; y++ {
		clearLine(s, y, w, e.styleMain)
	}
	for i := e.scroll; i < doc.Len(); i++ {
		top := e.unitTop(i)
		if top >= viewHeight {
			break
		}
		u := doc.Unit(i)

		base := e.styleMain
		switch {
		case st.IsEditing(u.ID):
			base = e.styleEditing
		case st.IsSelecting(u.ID):
			base = e.styleSelecting
		case st.IsSelected(u.ID):
			base = e.styleSelection
		}
		clearLine(s, top, w, base)

		handle, handleStyle := e.handle, e.styleHandle
		if drag.Active() && drag.Source() == u.ID {
			handleStyle = e.styleDrop
		}
		if over && target == u.ID {
			handle, handleStyle = '▼', e.styleDrop
			if drag.Position() == document.Before {
				handle = '▲'
			}
			e.drawDropLine(s, w, viewHeight, top, rh, drag.Position())
		}
		s.SetContent(0, top, handle, nil, handleStyle)

		if st.IsEditing(u.ID) && e.nb.Field() != nil {
			cx, cy = e.drawField(s, top, w, e.nb.Field(), base, sole)
			cursor = true
			continue
		}
		line := parseMarkup(markdown.Render(u.Content, markdown.Options{Sole: sole, Placeholder: e.placeholder}), e.tabWidth)
		e.drawMarkup(s, contentX, top, w-contentX, line, base)
	}
	return cx, cy, cursor
}

// drawDropLine marks the insertion point of a reorder drag on a spacer row:
// the row above the target for before, its first spacer for after.
func (e *Editor) drawDropLine(s tcell.Screen, w, viewHeight, top, rh int, pos document.Position) {
	if rh < 2 {
		return
	}
	y := top + 1
	if pos == document.Before {
		y = top - 1
	}
	if y < 0 || y >= viewHeight {
		return
	}
	for x := contentX; x < w; x++ {
		s.SetContent(x, y, '─', nil, e.styleDrop)
	}
}

// drawField paints the raw edit field on row y, scrolled horizontally so the
// cursor stays visible, and returns the cursor cell.
func (e *Editor) drawField(s tcell.Screen, y, w int, f *textfield.Field, base tcell.Style, sole bool) (int, int) {
	avail := w - contentX - 1
	if avail < 1 {
		avail = 1
	}
	text := []rune(f.Text())
	if len(text) == 0 && sole {
		ph := e.placeholder
		if ph == "" {
			ph = markdown.DefaultPlaceholder
		}
		drawText(s, contentX, y, w, ph, e.styleFor(base, attrPlaceholder))
		return contentX, y
	}

	cursorCol := 0
	for _, r := range text[:f.Cursor()] {
		cursorCol += runeWidth(r)
	}
	if cursorCol-e.fieldOff >= avail {
		e.fieldOff = cursorCol - avail + 1
	}
	if cursorCol < e.fieldOff {
		e.fieldOff = cursorCol
	}

	selStart, selEnd, hasSel := f.Selection()
	col := 0
	for i, r := range text {
		rw := runeWidth(r)
		x := contentX + col - e.fieldOff
		col += rw
		if x < contentX {
			continue
		}
		if x+rw > w {
			break
		}
		st := base
		if hasSel && i >= selStart && i < selEnd {
			st = e.styleSelection
		}
		if r == '\t' {
			r = ' '
		}
		s.SetContent(x, y, r, nil, st)
	}
	return contentX + cursorCol - e.fieldOff, y
}

// fieldOffsetAt maps a click at column x on the edited row to a rune offset.
func (e *Editor) fieldOffsetAt(f *textfield.Field, x int) int {
	target := x - contentX + e.fieldOff
	col := 0
	for i, r := range []rune(f.Text()) {
		rw := runeWidth(r)
		if col+rw > target {
			return i
		}
		col += rw
	}
	return f.Len()
}

// batchBox is the rectangle of the batch overlay.
func (e *Editor) batchBox(w, viewHeight int) (x, y, bw, bh int) {
	bw = w - 4
	if bw < 10 {
		bw = w
	}
	lines := 1
	if f := e.nb.Field(); f != nil {
		lines = f.LineCount()
	}
	bh = min(lines+2, viewHeight)
	if bh < 3 {
		bh = min(3, viewHeight)
	}
	x = (w - bw) / 2
	y = max(0, (viewHeight-bh)/2)
	return x, y, bw, bh
}

// renderBatch draws the batch editor over the unit list.
func (e *Editor) renderBatch(s tcell.Screen, w, viewHeight int) (int, int, bool) {
	f := e.nb.Field()
	if f == nil || viewHeight < 3 {
		return 0, 0, false
	}
	x0, y0, bw, bh := e.batchBox(w, viewHeight)
	border := e.styleStatus
	inner := e.styleEditing

	for x := 0; x < bw; x++ {
		top, bottom := '─', '─'
		switch x {
		case 0:
			top, bottom = '┌', '└'
		case bw - 1:
			top, bottom = '┐', '┘'
		}
		s.SetContent(x0+x, y0, top, nil, border)
		s.SetContent(x0+x, y0+bh-1, bottom, nil, border)
	}
	drawText(s, x0+2, y0, x0+bw-1, " batch: ctrl+s commit, alt+backspace delete, esc cancel ", border)

	rows := bh - 2
	line, col := f.LineCol()
	if line < e.batchScroll {
		e.batchScroll = line
	}
	if line >= e.batchScroll+rows {
		e.batchScroll = line - rows + 1
	}
	selStart, selEnd, hasSel := f.Selection()
	lines := f.Lines()
	for r := 0; r < rows; r++ {
		y := y0 + 1 + r
		s.SetContent(x0, y, '│', nil, border)
		s.SetContent(x0+bw-1, y, '│', nil, border)
		for x := 1; x < bw-1; x++ {
			s.SetContent(x0+x, y, ' ', nil, inner)
		}
		li := e.batchScroll + r
		if li >= len(lines) {
			continue
		}
		start := lineOffset(lines, li)
		x := x0 + 1
		for k, ch := range []rune(lines[li]) {
			rw := runeWidth(ch)
			if x+rw > x0+bw-1 {
				break
			}
			st := inner
			if hasSel && start+k >= selStart && start+k < selEnd {
				st = e.styleSelection
			}
			if ch == '\t' {
				ch = ' '
			}
			s.SetContent(x, y, ch, nil, st)
			x += rw
		}
	}

	cx := x0 + 1
	for _, ch := range []rune(lines[line])[:col] {
		cx += runeWidth(ch)
	}
	return min(cx, x0+bw-2), y0 + 1 + line - e.batchScroll, true
}

// lineOffset is the rune offset of the start of lines[i].
func lineOffset(lines []string, i int) int {
	off := 0
	for k := 0; k < i && k < len(lines); k++ {
		off += len([]rune(lines[k])) + 1
	}
	return off
}

// batchOffsetAt maps a click inside the batch overlay to a rune offset.
func (e *Editor) batchOffsetAt(x, y int) (int, bool) {
	f := e.nb.Field()
	if f == nil {
		return 0, false
	}
	x0, y0, bw, bh := e.batchBox(e.width, e.viewHeight)
	if y <= y0 || y >= y0+bh-1 || x <= x0 || x >= x0+bw-1 {
		return 0, false
	}
	lines := f.Lines()
	li := min(e.batchScroll+y-y0-1, len(lines)-1)
	target := x - x0 - 1
	col, width := 0, 0
	for _, r := range []rune(lines[li]) {
		rw := runeWidth(r)
		if width+rw > target {
			break
		}
		width += rw
		col++
	}
	return lineOffset(lines, li) + col, true
}
