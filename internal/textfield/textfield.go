// Package textfield is a small rune-indexed edit buffer with a cursor and an
// optional selection. It backs both the single-unit raw field and the
// multi-line batch area.
package textfield

import (
	"strings"
)

type Field struct {
	text   []rune
	cursor int
	// anchor is the fixed end of the selection, or -1.
	anchor int
}

// New returns a field holding text with the cursor at the end.
func New(text string) *Field {
	r := []rune(text)
	return &Field{text: r, cursor: len(r), anchor: -1}
}

func (f *Field) Text() string { return string(f.text) }
func (f *Field) Len() int     { return len(f.text) }
func (f *Field) Cursor() int  { return f.cursor }
func (f *Field) Empty() bool  { return len(f.text) == 0 }
func (f *Field) AtStart() bool {
	return f.cursor == 0 && !f.HasSelection()
}
func (f *Field) AtEnd() bool {
	return f.cursor == len(f.text) && !f.HasSelection()
}

func (f *Field) SetText(text string) {
	f.text = []rune(text)
	f.cursor = len(f.text)
	f.anchor = -1
}

// SetCursor moves the cursor, clamped to the text, and drops the selection.
func (f *Field) SetCursor(i int) {
	f.cursor = clamp(i, 0, len(f.text))
	f.anchor = -1
}

func (f *Field) HasSelection() bool {
	return f.anchor >= 0 && f.anchor != f.cursor
}

// Selection returns the selected rune range [start, end).
func (f *Field) Selection() (start, end int, ok bool) {
	if !f.HasSelection() {
		return f.cursor, f.cursor, false
	}
	if f.anchor < f.cursor {
		return f.anchor, f.cursor, true
	}
	return f.cursor, f.anchor, true
}

func (f *Field) SelectedText() string {
	s, e, ok := f.Selection()
	if !ok {
		return ""
	}
	return string(f.text[s:e])
}

// Select selects [start, end) with the cursor at end.
func (f *Field) Select(start, end int) {
	f.anchor = clamp(start, 0, len(f.text))
	f.cursor = clamp(end, 0, len(f.text))
}

func (f *Field) SelectAll() { f.Select(0, len(f.text)) }

// AllSelected reports whether a non-empty text is entirely selected.
func (f *Field) AllSelected() bool {
	s, e, ok := f.Selection()
	return ok && s == 0 && e == len(f.text)
}

// Insert replaces the selection, if any, with s and leaves the cursor after
// the inserted text.
func (f *Field) Insert(s string) {
	start, end, _ := f.Selection()
	r := []rune(s)
	next := make([]rune, 0, len(f.text)-(end-start)+len(r))
	next = append(next, f.text[:start]...)
	next = append(next, r...)
	next = append(next, f.text[end:]...)
	f.text = next
	f.cursor = start + len(r)
	f.anchor = -1
}

func (f *Field) InsertRune(r rune) { f.Insert(string(r)) }

func (f *Field) Backspace() {
	if f.HasSelection() {
		f.Insert("")
		return
	}
	if f.cursor == 0 {
		return
	}
	f.text = append(f.text[:f.cursor-1:f.cursor-1], f.text[f.cursor:]...)
	f.cursor--
	f.anchor = -1
}

func (f *Field) Delete() {
	if f.HasSelection() {
		f.Insert("")
		return
	}
	if f.cursor >= len(f.text) {
		return
	}
	f.text = append(f.text[:f.cursor:f.cursor], f.text[f.cursor+1:]...)
	f.anchor = -1
}

func (f *Field) move(to int, extend bool) {
	if extend {
		if f.anchor < 0 {
			f.anchor = f.cursor
		}
	} else {
		f.anchor = -1
	}
	f.cursor = clamp(to, 0, len(f.text))
}

func (f *Field) Left(extend bool) {
	if !extend && f.HasSelection() {
		s, _, _ := f.Selection()
		f.SetCursor(s)
		return
	}
	f.move(f.cursor-1, extend)
}

func (f *Field) Right(extend bool) {
	if !extend && f.HasSelection() {
		_, e, _ := f.Selection()
		f.SetCursor(e)
		return
	}
	f.move(f.cursor+1, extend)
}

// Home moves to the start of the current line.
func (f *Field) Home(extend bool) {
	line, _ := f.LineCol()
	f.move(f.lineStart(line), extend)
}

// End moves to the end of the current line.
func (f *Field) End(extend bool) {
	line, _ := f.LineCol()
	f.move(f.lineStart(line)+len(f.lineRunes(line)), extend)
}

// Up moves to the same column on the previous line. It reports false when
// the cursor is already on the first line.
func (f *Field) Up(extend bool) bool {
	line, col := f.LineCol()
	if line == 0 {
		return false
	}
	f.move(f.lineStart(line-1)+min(col, len(f.lineRunes(line-1))), extend)
	return true
}

// Down moves to the same column on the next line. It reports false on the
// last line.
func (f *Field) Down(extend bool) bool {
	line, col := f.LineCol()
	if line >= f.LineCount()-1 {
		return false
	}
	f.move(f.lineStart(line+1)+min(col, len(f.lineRunes(line+1))), extend)
	return true
}

// Lines splits the text on newlines.
func (f *Field) Lines() []string {
	return strings.Split(string(f.text), "\n")
}

func (f *Field) LineCount() int {
	n := 1
	for _, r := range f.text {
		if r == '\n' {
			n++
		}
	}
	return n
}

// LineCol returns the zero-based line and rune column of the cursor.
func (f *Field) LineCol() (line, col int) {
	for i := 0; i < f.cursor; i++ {
		if f.text[i] == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	return line, col
}

func (f *Field) lineStart(line int) int {
	if line == 0 {
		return 0
	}
	n := 0
	for i, r := range f.text {
		if r == '\n' {
			n++
			if n == line {
				return i + 1
			}
		}
	}
	return len(f.text)
}

func (f *Field) lineRunes(line int) []rune {
	start := f.lineStart(line)
	end := start
	for end < len(f.text) && f.text[end] != '\n' {
		end++
	}
	return f.text[start:end]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
