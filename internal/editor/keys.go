package editor

import (
	"strings"
	"unicode"

	"github.com/gdamore/tcell/v2"
)

// keyString names a key event the way keymaps spell it: modifiers in the
// order cmd, ctrl, alt, shift followed by the key, e.g. "cmd+shift+z",
// "alt+1", "ctrl+s", "enter".
func keyString(ev *tcell.EventKey) string {
	mods := ev.Modifiers()
	key := ev.Key()

	// Control letters share codes with backspace, tab and enter. Only treat
	// those three as ctrl chords when the modifier says so.
	if key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ {
		named := key == tcell.KeyBackspace || key == tcell.KeyTab || key == tcell.KeyEnter
		if !named || mods&tcell.ModCtrl != 0 {
			return prefix(mods&^tcell.ModCtrl, true) + string(rune('a'+key-tcell.KeyCtrlA))
		}
	}

	if key == tcell.KeyRune {
		r := ev.Rune()
		if mods&(tcell.ModCtrl|tcell.ModAlt|tcell.ModMeta) == 0 {
			if r == ' ' {
				return "space"
			}
			return string(r)
		}
		// Shift is already folded into the rune for letters and digits.
		return prefix(mods&^tcell.ModShift, false) + runeName(r, mods&tcell.ModShift != 0)
	}

	name := namedKey(key)
	if name == "" {
		return ""
	}
	if key == tcell.KeyBacktab {
		mods &^= tcell.ModShift
	}
	return prefix(mods, false) + name
}

func prefix(mods tcell.ModMask, ctrl bool) string {
	var b strings.Builder
	if mods&tcell.ModMeta != 0 {
		b.WriteString("cmd+")
	}
	if ctrl || mods&tcell.ModCtrl != 0 {
		b.WriteString("ctrl+")
	}
	if mods&tcell.ModAlt != 0 {
		b.WriteString("alt+")
	}
	if mods&tcell.ModShift != 0 {
		b.WriteString("shift+")
	}
	return b.String()
}

func runeName(r rune, shift bool) string {
	if r == ' ' {
		return "space"
	}
	if unicode.IsUpper(r) {
		return "shift+" + string(unicode.ToLower(r))
	}
	if shift && unicode.IsLetter(r) {
		return "shift+" + string(r)
	}
	return string(r)
}

func namedKey(key tcell.Key) string {
	switch key {
	case tcell.KeyUp:
		return "up"
	case tcell.KeyDown:
		return "down"
	case tcell.KeyLeft:
		return "left"
	case tcell.KeyRight:
		return "right"
	case tcell.KeyPgUp:
		return "pgup"
	case tcell.KeyPgDn:
		return "pgdn"
	case tcell.KeyHome:
		return "home"
	case tcell.KeyEnd:
		return "end"
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return "backspace"
	case tcell.KeyEnter:
		return "enter"
	case tcell.KeyTab:
		return "tab"
	case tcell.KeyBacktab:
		return "shift+tab"
	case tcell.KeyDelete:
		return "delete"
	case tcell.KeyEscape:
		return "esc"
	case tcell.KeyF1:
		return "f1"
	}
	return ""
}

// printable reports whether ev should be typed into a field as text.
func printable(ev *tcell.EventKey) bool {
	return ev.Key() == tcell.KeyRune && ev.Modifiers()&(tcell.ModCtrl|tcell.ModAlt|tcell.ModMeta) == 0
}
