// Package batch edits several line units as one newline-joined text blob.
package batch

import (
	"fmt"
	"strings"

	"github.com/Rancor38/Jot-Down/internal/document"
)

// Open returns the contents of ids joined by newlines, in display order.
// The result is a snapshot; later document changes do not affect it.
func Open(doc document.Document, ids []document.ID) string {
	order := inOrder(doc, ids)
	parts := make([]string, len(order))
	for i, id := range order {
		u, _ := doc.Get(id)
		parts[i] = u.Content
	}
	return strings.Join(parts, "\n")
}

// Commit splits text on newlines and puts the segments where ids were. A
// contiguous set is spliced as one span. For a set with gaps the unselected
// units in between are kept and the segments land at the first selected
// position. Empty text still yields one empty unit.
func Commit(doc document.Document, ids []document.ID, text string) (document.Document, []document.ID, error) {
	order := inOrder(doc, ids)
	if len(order) == 0 {
		return doc, nil, fmt.Errorf("%w: empty batch", document.ErrNotFound)
	}
	segments := strings.Split(text, "\n")
	if len(segments) == 0 {
		segments = []string{""}
	}
	first, last := order[0], order[len(order)-1]
	if contiguous(doc, order) {
		return doc.Splice(first, last, segments)
	}
	next, err := removeAll(doc, order[1:])
	if err != nil {
		return doc, nil, err
	}
	return next.Splice(first, first, segments)
}

// Delete removes every unit in ids. When nothing would remain the document
// falls back to a single empty unit.
func Delete(doc document.Document, ids []document.ID) (document.Document, error) {
	order := inOrder(doc, ids)
	if len(order) == 0 {
		return doc, fmt.Errorf("%w: empty batch", document.ErrNotFound)
	}
	first, last := order[0], order[len(order)-1]
	if len(order) == doc.Len() {
		next, _, err := doc.Splice(first, last, []string{""})
		return next, err
	}
	if contiguous(doc, order) {
		next, _, err := doc.Splice(first, last, nil)
		return next, err
	}
	return removeAll(doc, order)
}

// Contiguous reports whether ids form one unbroken run in doc.
func Contiguous(doc document.Document, ids []document.ID) bool {
	return contiguous(doc, inOrder(doc, ids))
}

func inOrder(doc document.Document, ids []document.ID) []document.ID {
	want := make(map[document.ID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]document.ID, 0, len(ids))
	for _, id := range doc.IDs() {
		if want[id] {
			out = append(out, id)
		}
	}
	return out
}

func contiguous(doc document.Document, order []document.ID) bool {
	if len(order) == 0 {
		return false
	}
	first := doc.IndexOf(order[0])
	return doc.IndexOf(order[len(order)-1])-first == len(order)-1
}

func removeAll(doc document.Document, ids []document.ID) (document.Document, error) {
	var err error
	for _, id := range ids {
		doc, err = doc.Remove(id)
		if err != nil {
			return doc, err
		}
	}
	return doc, nil
}
