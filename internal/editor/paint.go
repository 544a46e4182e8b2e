package editor

import (
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

// attr is a set of inline text attributes produced by markup tags.
type attr uint16

const (
	attrBold attr = 1 << iota
	attrItalic
	attrUnderline
	attrStrike
	attrCode
	attrMark
	attrLink
	attrHeading
	attrQuote
	attrPlaceholder
	attrCount = iota
)

type span struct {
	text string
	attr attr
}

// markupLine is one rendered unit ready for painting.
type markupLine struct {
	spans  []span
	center bool
	rule   bool
}

func (l markupLine) width() int {
	w := 0
	for _, sp := range l.spans {
		w += uniseg.StringWidth(sp.text)
	}
	return w
}

// plain joins the span texts.
func (l markupLine) plain() string {
	var b strings.Builder
	for _, sp := range l.spans {
		b.WriteString(sp.text)
	}
	return b.String()
}

var tagAttrs = map[string]attr{
	"strong":     attrBold,
	"b":          attrBold,
	"em":         attrItalic,
	"i":          attrItalic,
	"u":          attrUnderline,
	"del":        attrStrike,
	"code":       attrCode,
	"mark":       attrMark,
	"a":          attrLink,
	"h1":         attrHeading,
	"h2":         attrHeading,
	"h3":         attrHeading,
	"h4":         attrHeading,
	"h5":         attrHeading,
	"h6":         attrHeading,
	"blockquote": attrQuote,
}

// parseMarkup reads the tags the markdown renderer emits and turns them
// into styled spans. Tags it does not know are kept as literal text.
func parseMarkup(s string, tabWidth int) markupLine {
	var (
		line    markupLine
		depth   [attrCount]int
		text    strings.Builder
		ordered bool
		next    = 1
	)
	current := func() attr {
		var a attr
		for i, d := range depth {
			if d > 0 {
				a |= 1 << i
			}
		}
		return a
	}
	flush := func() {
		if text.Len() == 0 {
			return
		}
		line.spans = append(line.spans, span{text: text.String(), attr: current()})
		text.Reset()
	}
	push := func(a attr, delta int) {
		for i := 0; i < attrCount; i++ {
			if a&(1<<i) != 0 {
				depth[i] = max(0, depth[i]+delta)
			}
		}
	}

	for i := 0; i < len(s); {
		c := s[i]
		if c == '\t' {
			text.WriteString(strings.Repeat(" ", max(1, tabWidth)))
			i++
			continue
		}
		if c != '<' {
			text.WriteByte(c)
			i++
			continue
		}
		end := strings.IndexByte(s[i:], '>')
		if end < 0 {
			text.WriteString(s[i:])
			break
		}
		raw := s[i+1 : i+end]
		closing := strings.HasPrefix(raw, "/")
		body := strings.TrimPrefix(raw, "/")
		name, attrs, _ := strings.Cut(body, " ")
		name = strings.ToLower(name)

		known := true
		switch {
		case tagAttrs[name] != 0:
			flush()
			if closing {
				push(tagAttrs[name], -1)
			} else {
				push(tagAttrs[name], 1)
				if name == "blockquote" {
					line.spans = append(line.spans, span{text: "│ ", attr: current()})
				}
			}
		case name == "span" && (closing || strings.Contains(attrs, "placeholder")):
			flush()
			if closing {
				push(attrPlaceholder, -1)
			} else {
				push(attrPlaceholder, 1)
			}
		case name == "div" && (closing || strings.Contains(attrs, "center")):
			flush()
			if !closing {
				line.center = true
			}
		case name == "hr":
			flush()
			line.rule = true
		case name == "ul":
			flush()
			ordered = false
		case name == "ol":
			flush()
			ordered = true
			next = 1
			if n, err := strconv.Atoi(attrValue(attrs, "start")); err == nil {
				next = n
			}
		case name == "li":
			flush()
			if !closing {
				bullet := "• "
				if ordered {
					bullet = strconv.Itoa(next) + ". "
					next++
				}
				line.spans = append(line.spans, span{text: bullet, attr: current()})
			}
		default:
			known = false
		}
		if !known {
			text.WriteString(s[i : i+end+1])
		}
		i += end + 1
	}
	flush()
	return line
}

// attrValue returns the quoted value of key in a tag's attribute text.
func attrValue(attrs, key string) string {
	_, rest, ok := strings.Cut(attrs, key+`="`)
	if !ok {
		return ""
	}
	v, _, _ := strings.Cut(rest, `"`)
	return v
}

func (e *Editor) styleFor(base tcell.Style, a attr) tcell.Style {
	st := base
	if a&attrBold != 0 {
		st = st.Bold(true)
	}
	if a&attrItalic != 0 {
		st = st.Italic(true)
	}
	if a&attrUnderline != 0 {
		st = st.Underline(true)
	}
	if a&attrStrike != 0 {
		st = st.StrikeThrough(true)
	}
	if a&attrHeading != 0 {
		st = st.Foreground(e.colors.heading).Bold(true)
	}
	if a&attrQuote != 0 {
		st = st.Foreground(e.colors.quote)
	}
	if a&attrLink != 0 {
		st = st.Foreground(e.colors.link).Underline(true)
	}
	if a&attrCode != 0 {
		st = st.Foreground(e.colors.codeFg).Background(e.colors.codeBg)
	}
	if a&attrMark != 0 {
		st = st.Foreground(e.colors.markFg).Background(e.colors.markBg)
	}
	if a&attrPlaceholder != 0 {
		st = st.Foreground(e.colors.placeholder).Italic(true)
	}
	return st
}

// drawMarkup paints l into the width cells starting at x on row y and
// clips whatever does not fit.
func (e *Editor) drawMarkup(s tcell.Screen, x, y, width int, l markupLine, base tcell.Style) {
	if width <= 0 {
		return
	}
	if l.rule {
		for i := 0; i < width; i++ {
			s.SetContent(x+i, y, '─', nil, base)
		}
		return
	}
	limit := x + width
	if l.center {
		if pad := (width - l.width()) / 2; pad > 0 {
			x += pad
		}
	}
	for _, sp := range l.spans {
		st := e.styleFor(base, sp.attr)
		x = drawText(s, x, y, limit, sp.text, st)
		if x >= limit {
			return
		}
	}
}

// drawText paints text grapheme by grapheme and returns the next column.
// When text does not fit, the last cell before limit becomes an ellipsis.
func drawText(s tcell.Screen, x, y, limit int, text string, st tcell.Style) int {
	start := x
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		runes := gr.Runes()
		w := gr.Width()
		if w == 0 {
			continue
		}
		if x+w > limit {
			if limit > start {
				s.SetContent(limit-1, y, '…', nil, st)
			}
			return limit
		}
		s.SetContent(x, y, runes[0], runes[1:], st)
		x += w
	}
	return x
}

// runeWidth is the number of cells r takes in an edit field.
func runeWidth(r rune) int {
	if r == '\t' {
		return 1
	}
	return max(1, uniseg.StringWidth(string(r)))
}
