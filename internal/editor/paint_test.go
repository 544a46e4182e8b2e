package editor

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Rancor38/Jot-Down/internal/markdown"
)

func TestParseMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want markupLine
	}{
		{
			name: "plain",
			in:   "hello",
			want: markupLine{spans: []span{{"hello", 0}}},
		},
		{
			name: "nested inline",
			in:   "<strong>a <em>b</em></strong> c",
			want: markupLine{spans: []span{
				{"a ", attrBold},
				{"b", attrBold | attrItalic},
				{" c", 0},
			}},
		},
		{
			name: "ordered list keeps its number",
			in:   `<ol start="3"><li>x</li></ol>`,
			want: markupLine{spans: []span{{"3. ", 0}, {"x", 0}}},
		},
		{
			name: "quote",
			in:   "<blockquote>q</blockquote>",
			want: markupLine{spans: []span{{"│ ", attrQuote}, {"q", attrQuote}}},
		},
		{
			name: "center",
			in:   `<div align="center">mid</div>`,
			want: markupLine{spans: []span{{"mid", 0}}, center: true},
		},
		{
			name: "rule",
			in:   "<hr>",
			want: markupLine{rule: true},
		},
		{
			name: "unknown tag stays literal",
			in:   "a <x> b",
			want: markupLine{spans: []span{{"a <x> b", 0}}},
		},
		{
			name: "unclosed bracket",
			in:   "a < b",
			want: markupLine{spans: []span{{"a < b", 0}}},
		},
		{
			name: "tab",
			in:   "a\tb",
			want: markupLine{spans: []span{{"a    b", 0}}},
		},
	}
	for _, tt := range tests {
		got := parseMarkup(tt.in, 4)
		if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(markupLine{}, span{})); diff != "" {
			t.Fatalf("%s: parseMarkup(%q) mismatch (-want +got):\n%s", tt.name, tt.in, diff)
		}
	}
}

func TestParseRenderedMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"## Title", "Title"},
		{"**b** and *i*", "b and i"},
		{"==hi== `c`", "hi c"},
		{"[site](http://x)", "site"},
		{"- item", "• item"},
		{"> quoted", "│ quoted"},
		{"<u>under</u>", "under"},
	}
	for _, tt := range tests {
		line := parseMarkup(markdown.Render(tt.in, markdown.Options{}), 4)
		if got := line.plain(); got != tt.want {
			t.Fatalf("plain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMarkupWidth(t *testing.T) {
	l := parseMarkup("<strong>日本</strong>語", 4)
	if got := l.width(); got != 6 {
		t.Fatalf("width = %d, want 6", got)
	}
}
