package editor

import (
	"sort"

	"github.com/gdamore/tcell/v2"
)

var actionDescs = map[string]string{
	actionUndo:           "Undo last change",
	actionRedo:           "Redo last change",
	actionSelectAll:      "Select all",
	actionHardSave:       "Save now",
	actionSaveAs:         "Export as markdown",
	actionOpen:           "Open a markdown file",
	actionNew:            "New document",
	actionCopy:           "Copy selection",
	actionQuit:           "Quit",
	actionHelp:           "Show this help",
	actionEscape:         "Cancel",
	actionActivate:       "Edit selection",
	actionSelectUp:       "Select unit above",
	actionSelectDown:     "Select unit below",
	actionDeleteSelected: "Delete selected units",
	actionCommitInsert:   "Commit and add unit below",
	actionBackspace:      "Delete char before cursor",
	actionDeleteChar:     "Delete char under cursor",
	actionPrevUnit:       "Edit unit above",
	actionNextUnit:       "Edit unit below",
	actionMoveLeft:       "Move cursor left",
	actionMoveRight:      "Move cursor right",
	actionMoveUp:         "Move cursor up",
	actionMoveDown:       "Move cursor down",
	actionExtendLeft:     "Extend selection left",
	actionExtendRight:    "Extend selection right",
	actionLineStart:      "Move to line start",
	actionLineEnd:        "Move to line end",
	actionIndent:         "Insert indent",
	actionPaste:          "Paste",
	actionNewline:        "Insert line break",
	actionBatchCommit:    "Commit batch",
	actionBatchDelete:    "Delete batch units",
	actionBatchCancel:    "Discard batch",
	"bold":               "Bold",
	"italic":             "Italic",
	"underline":          "Underline",
	"strike":             "Strikethrough",
	"code":               "Inline code",
	"highlight":          "Highlight",
	"link":               "Link",
	"list":               "List item",
	"rule":               "Horizontal rule",
	"center":             "Center",
	"quote":              "Blockquote",
	"heading1":           "Heading 1",
	"heading2":           "Heading 2",
	"heading3":           "Heading 3",
	"heading4":           "Heading 4",
	"heading5":           "Heading 5",
	"heading6":           "Heading 6",
}

var syntaxHelp = [][2]string{
	{"# .. ######", "Headings"},
	{"**text**", "Bold"},
	{"*text*", "Italic"},
	{"<u>text</u>", "Underline"},
	{"~~text~~", "Strikethrough"},
	{"`code`", "Inline code"},
	{"==text==", "Highlight"},
	{"[text](url)", "Link"},
	{"- item  1. item", "Lists"},
	{"> text", "Blockquote"},
	{"---", "Horizontal rule"},
	{"<div align=\"center\">", "Center"},
}

// helpView is the scrollable key and syntax reference.
type helpView struct {
	rows   [][2]string
	scroll int
	height int
}

func newHelpView(km keymapSet) *helpView {
	h := &helpView{}
	h.rows = append(h.rows, [2]string{"Syntax", ""})
	h.rows = append(h.rows, syntaxHelp...)
	section := func(title string, m map[string]string) {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		h.rows = append(h.rows, [2]string{"", ""}, [2]string{title, ""})
		for _, k := range keys {
			desc := actionDescs[m[k]]
			if desc == "" {
				desc = m[k]
			}
			h.rows = append(h.rows, [2]string{k, desc})
		}
	}
	section("Anywhere", km.global)
	section("Editing a unit", km.edit)
	section("Batch editing", km.batch)
	return h
}

func (e *Editor) handleHelpKey(ev *tcell.EventKey) {
	h := e.help
	switch {
	case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyF1, ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
		e.help = nil
	case ev.Key() == tcell.KeyDown, ev.Key() == tcell.KeyRune && ev.Rune() == 'j':
		h.scrollBy(1)
	case ev.Key() == tcell.KeyUp, ev.Key() == tcell.KeyRune && ev.Rune() == 'k':
		h.scrollBy(-1)
	case ev.Key() == tcell.KeyPgDn:
		h.scrollBy(max(1, h.height))
	case ev.Key() == tcell.KeyPgUp:
		h.scrollBy(-max(1, h.height))
	}
}

func (h *helpView) scrollBy(n int) {
	h.scroll = clampRange(h.scroll+n, 0, len(h.rows)-max(1, h.height))
}

func (h *helpView) render(s tcell.Screen, w, viewHeight int, border, content tcell.Style) {
	if w < 20 || viewHeight < 5 {
		return
	}
	boxWidth := min(w-4, 64)
	boxHeight := min(viewHeight-2, len(h.rows)+2)
	list := boxHeight - 2
	h.height = list
	h.scrollBy(0)
	x0 := (w - boxWidth) / 2
	y0 := (viewHeight - boxHeight) / 2

	for x := 0; x < boxWidth; x++ {
		top, bottom := '─', '─'
		switch x {
		case 0:
			top, bottom = '┌', '└'
		case boxWidth - 1:
			top, bottom = '┐', '┘'
		}
		s.SetContent(x0+x, y0, top, nil, border)
		s.SetContent(x0+x, y0+boxHeight-1, bottom, nil, border)
	}
	drawText(s, x0+2, y0, x0+boxWidth-1, " help (j/k scroll, q close) ", border)

	keyWidth := (boxWidth - 2) / 3
	for r := 0; r < list; r++ {
		y := y0 + 1 + r
		s.SetContent(x0, y, '│', nil, border)
		s.SetContent(x0+boxWidth-1, y, '│', nil, border)
		for x := 1; x < boxWidth-1; x++ {
			s.SetContent(x0+x, y, ' ', nil, content)
		}
		i := h.scroll + r
		if i >= len(h.rows) {
			continue
		}
		row := h.rows[i]
		if row[1] == "" {
			drawText(s, x0+2, y, x0+boxWidth-1, row[0], content.Bold(true))
			continue
		}
		drawText(s, x0+2, y, x0+1+keyWidth, row[0], content)
		drawText(s, x0+2+keyWidth, y, x0+boxWidth-1, row[1], content)
	}
}
