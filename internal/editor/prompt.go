package editor

import (
	"github.com/gdamore/tcell/v2"

	"github.com/Rancor38/Jot-Down/internal/textfield"
)

// prompt is the one-line question shown on the command line. A yes/no
// prompt has no input field.
type prompt struct {
	label  string
	input  *textfield.Field
	onYes  func()
	submit func(string)
}

// confirm asks a yes/no question and runs onYes when answered with y.
func (e *Editor) confirm(label string, onYes func()) {
	e.prompt = &prompt{label: label, onYes: onYes}
}

// ask reads a line of text and hands it to submit on enter.
func (e *Editor) ask(label, initial string, submit func(string)) {
	f := textfield.New(initial)
	f.End(false)
	e.prompt = &prompt{label: label, input: f, submit: submit}
}

func (e *Editor) handlePromptKey(ev *tcell.EventKey) {
	p := e.prompt
	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		e.prompt = nil
		return
	}

	if p.input == nil {
		if ev.Key() != tcell.KeyRune {
			return
		}
		e.prompt = nil
		switch ev.Rune() {
		case 'y', 'Y':
			p.onYes()
		}
		return
	}

	f := p.input
	switch ev.Key() {
	case tcell.KeyEnter:
		e.prompt = nil
		p.submit(f.Text())
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		f.Backspace()
	case tcell.KeyDelete:
		f.Delete()
	case tcell.KeyLeft, tcell.KeyCtrlB:
		f.Left(false)
	case tcell.KeyRight, tcell.KeyCtrlF:
		f.Right(false)
	case tcell.KeyHome, tcell.KeyCtrlA:
		f.Home(false)
	case tcell.KeyEnd, tcell.KeyCtrlE:
		f.End(false)
	case tcell.KeyCtrlU:
		f.SetText("")
	case tcell.KeyRune:
		f.InsertRune(ev.Rune())
	}
}

// renderCommandline draws the bottom row: the open prompt, or the last
// status message. It returns the prompt's cursor column when there is one.
func (e *Editor) renderCommandline(s tcell.Screen, w, y int) (int, bool) {
	if y < 0 {
		return 0, false
	}
	clearLine(s, y, w, e.styleCommand)
	p := e.prompt
	if p == nil {
		return 0, false
	}
	x := drawText(s, 0, y, w, p.label, e.styleCommand)
	if p.input == nil {
		return x, true
	}
	start := x
	text := []rune(p.input.Text())
	cursor := start
	for i, r := range text {
		if i == p.input.Cursor() {
			cursor = x
		}
		if x+runeWidth(r) > w {
			break
		}
		s.SetContent(x, y, r, nil, e.styleCommand)
		x += runeWidth(r)
	}
	if p.input.Cursor() >= len(text) {
		cursor = x
	}
	return min(cursor, w-1), true
}
