package batch

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Rancor38/Jot-Down/internal/document"
)

func ids(doc document.Document, idx ...int) []document.ID {
	out := make([]document.ID, len(idx))
	for i, k := range idx {
		out[i] = doc.Unit(k).ID
	}
	return out
}

func TestOpenJoinsInDocumentOrder(t *testing.T) {
	doc := document.FromContents([]string{"one", "two", "three", "four"})
	got := Open(doc, ids(doc, 2, 0, 1))
	if got != "one\ntwo\nthree" {
		t.Fatalf("Open = %q, want %q", got, "one\ntwo\nthree")
	}
}

func TestCommitReplacesSpan(t *testing.T) {
	doc := document.FromContents([]string{"head", "id1", "id2", "id3", "tail"})
	sel := ids(doc, 1, 2, 3)
	if got := Open(doc, sel); got != "id1\nid2\nid3" {
		t.Fatalf("Open = %q", got)
	}
	next, newIDs, err := Commit(doc, sel, "p\nq")
	if err != nil {
		t.Fatalf("Commit error: %v", err)
	}
	if diff := cmp.Diff([]string{"head", "p", "q", "tail"}, next.Contents()); diff != "" {
		t.Fatalf("contents mismatch (-want +got):\n%s", diff)
	}
	if len(newIDs) != 2 {
		t.Fatalf("new ids = %d, want 2", len(newIDs))
	}
	if next.Unit(0).ID != doc.Unit(0).ID || next.Unit(3).ID != doc.Unit(4).ID {
		t.Fatalf("units outside the span changed ids")
	}
}

func TestCommitArgumentOrderIgnored(t *testing.T) {
	doc := document.FromContents([]string{"a", "b", "c"})
	next, _, err := Commit(doc, ids(doc, 2, 1), "x")
	if err != nil {
		t.Fatalf("Commit error: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "x"}, next.Contents()); diff != "" {
		t.Fatalf("contents mismatch (-want +got):\n%s", diff)
	}
}

func TestCommitEmptyTextKeepsOneUnit(t *testing.T) {
	doc := document.FromContents([]string{"a", "b"})
	next, _, err := Commit(doc, ids(doc, 0, 1), "")
	if err != nil {
		t.Fatalf("Commit error: %v", err)
	}
	if diff := cmp.Diff([]string{""}, next.Contents()); diff != "" {
		t.Fatalf("contents mismatch (-want +got):\n%s", diff)
	}
}

func TestCommitWithGapKeepsUnselected(t *testing.T) {
	doc := document.FromContents([]string{"a", "b", "c", "d"})
	next, _, err := Commit(doc, ids(doc, 0, 2), "x\ny\nz")
	if err != nil {
		t.Fatalf("Commit error: %v", err)
	}
	if diff := cmp.Diff([]string{"x", "y", "z", "b", "d"}, next.Contents()); diff != "" {
		t.Fatalf("contents mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteSpan(t *testing.T) {
	doc := document.FromContents([]string{"a", "b", "c", "d"})
	next, err := Delete(doc, ids(doc, 1, 2))
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "d"}, next.Contents()); diff != "" {
		t.Fatalf("contents mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteEverythingFallsBackToEmptyUnit(t *testing.T) {
	doc := document.FromContents([]string{"a", "b", "c"})
	next, err := Delete(doc, doc.IDs())
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if diff := cmp.Diff([]string{""}, next.Contents()); diff != "" {
		t.Fatalf("contents mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteWithGap(t *testing.T) {
	doc := document.FromContents([]string{"a", "b", "c", "d"})
	next, err := Delete(doc, ids(doc, 0, 3))
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "c"}, next.Contents()); diff != "" {
		t.Fatalf("contents mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyBatch(t *testing.T) {
	doc := document.FromContents([]string{"a"})
	if _, _, err := Commit(doc, nil, "x"); !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("Commit err = %v, want ErrNotFound", err)
	}
	if _, err := Delete(doc, []document.ID{document.NewID()}); !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("Delete err = %v, want ErrNotFound", err)
	}
}

func TestContiguous(t *testing.T) {
	doc := document.FromContents([]string{"a", "b", "c"})
	if !Contiguous(doc, ids(doc, 1, 0)) {
		t.Fatalf("Contiguous(b, a) = false")
	}
	if Contiguous(doc, ids(doc, 0, 2)) {
		t.Fatalf("Contiguous(a, c) = true")
	}
}
