package textfield

import "strings"

// Format names a markdown formatting action.
type Format string

const (
	Bold      Format = "bold"
	Italic    Format = "italic"
	Underline Format = "underline"
	Code      Format = "code"
	Highlight Format = "highlight"
	Strike    Format = "strike"
	Link      Format = "link"
	Heading1  Format = "heading1"
	Heading2  Format = "heading2"
	Heading3  Format = "heading3"
	Heading4  Format = "heading4"
	Heading5  Format = "heading5"
	Heading6  Format = "heading6"
	List      Format = "list"
	Quote     Format = "quote"
	Rule      Format = "rule"
	Center    Format = "center"
)

var wraps = map[Format][2]string{
	Bold:      {"**", "**"},
	Italic:    {"*", "*"},
	Underline: {"<u>", "</u>"},
	Code:      {"`", "`"},
	Highlight: {"==", "=="},
	Strike:    {"~~", "~~"},
}

const placeholderText = "text"

// Apply performs the formatting action f. It reports false for an unknown
// action.
func (fl *Field) Apply(f Format) bool {
	if w, ok := wraps[f]; ok {
		fl.Wrap(w[0], w[1])
		return true
	}
	switch f {
	case Link:
		fl.Link()
	case Heading1, Heading2, Heading3, Heading4, Heading5, Heading6:
		level := int(f[len(f)-1] - '0')
		fl.Prefix(strings.Repeat("#", level) + " ")
	case List:
		fl.Prefix("- ")
	case Quote:
		fl.Prefix("> ")
	case Rule:
		fl.Insert("---")
	case Center:
		fl.Block(`<div align="center">`, "</div>")
	default:
		return false
	}
	return true
}

// Wrap surrounds the selection with open and close and puts the cursor after
// close. Without a selection it inserts the empty pair with the cursor
// between.
func (fl *Field) Wrap(open, close string) {
	sel := fl.SelectedText()
	if sel == "" {
		fl.Insert(open + close)
		fl.SetCursor(fl.cursor - len([]rune(close)))
		return
	}
	fl.Insert(open + sel + close)
}

// Block is like Wrap but fills an empty selection with a placeholder word.
func (fl *Field) Block(prefix, suffix string) {
	sel := fl.SelectedText()
	if sel == "" {
		fl.Insert(prefix + placeholderText + suffix)
		fl.SetCursor(fl.cursor - len([]rune(suffix)))
		return
	}
	fl.Insert(prefix + sel + suffix)
}

// Prefix replaces the selection with p followed by the selected text.
func (fl *Field) Prefix(p string) {
	fl.Insert(p + fl.SelectedText())
}

// Link turns the selection into [sel](url) with "url" selected, or inserts
// [text](url) with "text" selected.
func (fl *Field) Link() {
	sel := fl.SelectedText()
	start, _, _ := fl.Selection()
	if sel == "" {
		fl.Insert("[" + placeholderText + "](url)")
		fl.Select(start+1, start+1+len(placeholderText))
		return
	}
	fl.Insert("[" + sel + "](url)")
	urlStart := start + len([]rune(sel)) + 3
	fl.Select(urlStart, urlStart+3)
}
