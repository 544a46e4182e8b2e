// Package markdown turns one line of note text into display markup.
//
// Rendering is a fixed, ordered list of substitution passes rather than a
// parser; a pass sees the output of every pass before it. Lines are rendered
// independently and user content is not escaped: callers must only display
// text the user wrote themselves.
package markdown

import (
	"regexp"
	"strings"
)

// DefaultPlaceholder is shown for the empty sole line of a document.
const DefaultPlaceholder = "Type your markdown here..."

const highlightDelim = "=="

type Options struct {
	// Sole reports that the line is the only unit in its document.
	Sole        bool
	Placeholder string
}

// Pass is one substitution step.
type Pass struct {
	Name  string
	Apply func(string) string
}

var (
	boldRe    = regexp.MustCompile(`\*\*(.*?)\*\*`)
	codeRe    = regexp.MustCompile("`(.*?)`")
	strikeRe  = regexp.MustCompile(`~~(.*?)~~`)
	linkRe    = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	bulletRe  = regexp.MustCompile(`^[-*+]\s+(.*)$`)
	orderedRe = regexp.MustCompile(`^(\d+)\.\s+(.*)$`)
	quoteRe   = regexp.MustCompile(`^>\s+(.*)$`)
	ruleRe    = regexp.MustCompile(`^---$`)
)

// Passes lists the substitution steps in application order.
var Passes = []Pass{
	{"highlight", Highlight},
	{"bold", replace(boldRe, "<strong>$1</strong>")},
	{"italic", italic},
	{"code", replace(codeRe, "<code>$1</code>")},
	{"strike", replace(strikeRe, "<del>$1</del>")},
	{"link", replace(linkRe, `<a href="$2" target="_blank">$1</a>`)},
	{"heading", heading},
	{"list", list},
	{"quote", replace(quoteRe, "<blockquote>$1</blockquote>")},
	{"rule", replace(ruleRe, "<hr>")},
}

// Render returns the display markup for line. It never fails; text that
// matches no pattern passes through literally.
func Render(line string, opts Options) string {
	if strings.TrimSpace(line) == "" {
		if !opts.Sole {
			return ""
		}
		ph := opts.Placeholder
		if ph == "" {
			ph = DefaultPlaceholder
		}
		return `<span class="placeholder">` + ph + `</span>`
	}
	out := line
	for _, p := range Passes {
		out = p.Apply(out)
	}
	return out
}

// Highlight replaces the odd occurrences of "==" with <mark> and the even
// ones with </mark>. An unmatched trailing opener stays open.
func Highlight(s string) string {
	if !strings.Contains(s, highlightDelim) {
		return s
	}
	var b strings.Builder
	open := false
	for {
		i := strings.Index(s, highlightDelim)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		if open {
			b.WriteString("</mark>")
		} else {
			b.WriteString("<mark>")
		}
		open = !open
		s = s[i+len(highlightDelim):]
	}
}

func replace(re *regexp.Regexp, tmpl string) func(string) string {
	return func(s string) string { return re.ReplaceAllString(s, tmpl) }
}

// italic wraps *x* in <em> when neither star touches another star. RE2 has
// no lookaround, so the scan is done by hand.
func italic(s string) string {
	if !strings.Contains(s, "*") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '*' && (i == 0 || s[i-1] != '*') {
			if j := strings.IndexByte(s[i+1:], '*'); j > 0 {
				end := i + 1 + j
				if end+1 >= len(s) || s[end+1] != '*' {
					b.WriteString("<em>")
					b.WriteString(s[i+1 : end])
					b.WriteString("</em>")
					i = end + 1
					continue
				}
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func heading(s string) string {
	m := headingRe.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	level := string(rune('0' + len(m[1])))
	return "<h" + level + ">" + m[2] + "</h" + level + ">"
}

func list(s string) string {
	if m := orderedRe.FindStringSubmatch(s); m != nil {
		return `<ol start="` + m[1] + `"><li>` + m[2] + "</li></ol>"
	}
	return bulletRe.ReplaceAllString(s, "<ul><li>$1</li></ul>")
}
