package selection

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Rancor38/Jot-Down/internal/document"
)

var allowSet = cmp.AllowUnexported(Set{})

func testDoc(contents ...string) document.Document {
	return document.FromContents(contents)
}

func reduceAll(s State, doc document.Document, evs ...Event) State {
	for _, ev := range evs {
		s = Reduce(s, doc, ev)
	}
	return s
}

func TestPlainClickEdits(t *testing.T) {
	doc := testDoc("a", "b")
	b := doc.Unit(1).ID
	for _, start := range []State{{}, selected(NewSet(doc.Unit(0).ID))} {
		got := Reduce(start, doc, Click{Target: OnUnit, ID: b})
		want := State{Kind: Editing, Editing: b}
		if diff := cmp.Diff(want, got, allowSet); diff != "" {
			t.Fatalf("state mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestClickOnControlIgnored(t *testing.T) {
	doc := testDoc("a", "b")
	start := State{Kind: Editing, Editing: doc.Unit(0).ID}
	got := Reduce(start, doc, Click{Target: OnControl, ID: doc.Unit(1).ID})
	if diff := cmp.Diff(start, got, allowSet); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestToggleClickExitsEditing(t *testing.T) {
	doc := testDoc("a", "b", "c")
	a, c := doc.Unit(0).ID, doc.Unit(2).ID
	s := State{Kind: Editing, Editing: a}
	s = Reduce(s, doc, Click{Target: OnUnit, ID: c, Mods: ModToggle})
	if s.Kind != Selected {
		t.Fatalf("Kind = %v, want selected", s.Kind)
	}
	if s.Editing != 0 {
		t.Fatalf("Editing = %v, want none", s.Editing)
	}
	if diff := cmp.Diff([]document.ID{c}, s.Selection.IDs()); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
	if s.PendingBatch {
		t.Fatalf("PendingBatch = true for a single member")
	}

	s = Reduce(s, doc, Click{Target: OnUnit, ID: a, Mods: ModToggle})
	if !s.PendingBatch {
		t.Fatalf("PendingBatch = false for two members")
	}
	s = Reduce(s, doc, Click{Target: OnUnit, ID: c, Mods: ModToggle})
	if diff := cmp.Diff([]document.ID{a}, s.Selection.IDs()); diff != "" {
		t.Fatalf("selection after untoggle mismatch (-want +got):\n%s", diff)
	}
}

func TestRangeClickUsesFirstInsertedAnchor(t *testing.T) {
	doc := testDoc("a", "b", "c", "d", "e")
	u := doc.IDs()
	s := reduceAll(State{}, doc,
		Click{Target: OnUnit, ID: u[3], Mods: ModToggle},
		Click{Target: OnUnit, ID: u[0], Mods: ModToggle},
		Click{Target: OnUnit, ID: u[1], Mods: ModRange},
	)
	if diff := cmp.Diff([]document.ID{u[1], u[2], u[3]}, s.Selection.IDs()); diff != "" {
		t.Fatalf("range mismatch (-want +got):\n%s", diff)
	}
	if s.Kind != Selected || !s.PendingBatch {
		t.Fatalf("state = %v pending=%v, want selected with promotion", s.Kind, s.PendingBatch)
	}
}

func TestRangeClickWithoutSelectionIgnored(t *testing.T) {
	doc := testDoc("a", "b")
	start := State{Kind: Editing, Editing: doc.Unit(0).ID}
	got := Reduce(start, doc, Click{Target: OnUnit, ID: doc.Unit(1).ID, Mods: ModRange})
	if diff := cmp.Diff(start, got, allowSet); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestPromoteSnapshotsText(t *testing.T) {
	doc := testDoc("one", "two", "three")
	u := doc.IDs()
	s := reduceAll(State{}, doc,
		Click{Target: OnUnit, ID: u[2], Mods: ModToggle},
		Click{Target: OnUnit, ID: u[0], Mods: ModToggle},
	)
	s = Reduce(s, doc, Promote{})
	if s.Kind != BatchEditing {
		t.Fatalf("Kind = %v, want batch", s.Kind)
	}
	if s.Text != "one\nthree" {
		t.Fatalf("Text = %q, want %q", s.Text, "one\nthree")
	}

	later, err := doc.Update(u[0], "changed")
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	again := Reduce(s, later, Promote{})
	if again.Text != "one\nthree" {
		t.Fatalf("Text after change = %q, want snapshot", again.Text)
	}
}

func TestPromoteWithoutPendingIsNoop(t *testing.T) {
	doc := testDoc("a", "b")
	start := State{Kind: Selected, Selection: NewSet(doc.IDs()...)}
	got := Reduce(start, doc, Promote{})
	if diff := cmp.Diff(start, got, allowSet); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestEscapeReturnsIdle(t *testing.T) {
	doc := testDoc("a", "b")
	for _, start := range []State{
		{Kind: Editing, Editing: doc.Unit(0).ID},
		{Kind: BatchEditing, Selection: NewSet(doc.IDs()...), Text: "a\nb"},
		{Kind: Selected, Selection: NewSet(doc.Unit(1).ID)},
	} {
		got := Reduce(start, doc, Escape{})
		if diff := cmp.Diff(State{}, got, allowSet); diff != "" {
			t.Fatalf("Escape from %v mismatch (-want +got):\n%s", start.Kind, diff)
		}
	}
}

func TestSelectAll(t *testing.T) {
	doc := testDoc("a", "b", "c")
	s := Reduce(State{Kind: Editing, Editing: doc.Unit(1).ID}, doc, SelectAll{})
	if s.Kind != Selected || s.Selection.Len() != 3 || !s.PendingBatch {
		t.Fatalf("SelectAll = %v len=%d pending=%v", s.Kind, s.Selection.Len(), s.PendingBatch)
	}
	s = Reduce(s, doc, Promote{})
	if s.Kind != BatchEditing || s.Text != "a\nb\nc" {
		t.Fatalf("promoted = %v %q", s.Kind, s.Text)
	}

	single := testDoc("only")
	s = Reduce(State{}, single, SelectAll{})
	if s.PendingBatch {
		t.Fatalf("PendingBatch = true for a single unit")
	}
}

func TestFreeDragSelect(t *testing.T) {
	doc := testDoc("a", "b", "c", "d")
	u := doc.IDs()
	s := reduceAll(State{Kind: Editing, Editing: u[0]}, doc,
		DragSelectStart{},
		DragSelectEnter{ID: u[3]},
		DragSelectEnter{ID: u[1]},
		DragSelectEnter{ID: u[3]},
	)
	if s.Kind != Idle {
		t.Fatalf("Kind during drag = %v, want idle", s.Kind)
	}
	if !s.IsSelecting(u[1]) || s.IsSelecting(u[2]) {
		t.Fatalf("provisional = %v", s.Drag.Provisional.IDs())
	}
	s = Reduce(s, doc, DragSelectEnd{})
	if s.Drag.Active {
		t.Fatalf("drag still active after release")
	}
	if diff := cmp.Diff([]document.ID{u[3], u[1]}, s.Selection.IDs()); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
	if s.Kind != Selected || !s.PendingBatch {
		t.Fatalf("state = %v pending=%v", s.Kind, s.PendingBatch)
	}
}

func TestAnchoredDragSelectUsesRange(t *testing.T) {
	doc := testDoc("a", "b", "c", "d", "e")
	u := doc.IDs()
	s := reduceAll(State{}, doc,
		DragSelectStart{Anchor: u[3], HasAnchor: true},
		DragSelectEnter{ID: u[0]},
		DragSelectEnter{ID: u[1]},
		DragSelectEnd{},
	)
	if diff := cmp.Diff([]document.ID{u[1], u[2], u[3]}, s.Selection.IDs()); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyDragSelectCommitsNothing(t *testing.T) {
	doc := testDoc("a", "b")
	s := reduceAll(State{Kind: Selected, Selection: NewSet(doc.Unit(0).ID)}, doc,
		DragSelectStart{},
		DragSelectEnd{},
	)
	if s.Kind != Idle || s.Selection.Len() != 0 {
		t.Fatalf("state = %v len=%d, want idle", s.Kind, s.Selection.Len())
	}
}

func TestDragSelectKeepsLoneEdit(t *testing.T) {
	doc := testDoc("only")
	id := doc.Unit(0).ID
	s := Reduce(State{Kind: Editing, Editing: id}, doc, DragSelectStart{})
	if !s.IsEditing(id) {
		t.Fatalf("lone edit dropped at drag-select start")
	}
	multi := testDoc("a", "b")
	s = Reduce(State{Kind: Editing, Editing: multi.Unit(0).ID}, multi, DragSelectStart{})
	if s.Kind != Idle {
		t.Fatalf("Kind = %v, want idle", s.Kind)
	}
}

func TestDragSelectIgnoredWhileBatchEditing(t *testing.T) {
	doc := testDoc("a", "b")
	start := State{Kind: BatchEditing, Selection: NewSet(doc.IDs()...), Text: "a\nb"}
	got := Reduce(start, doc, DragSelectStart{})
	if diff := cmp.Diff(start, got, allowSet); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestClicksIgnoredDuringDragSelect(t *testing.T) {
	doc := testDoc("a", "b")
	s := Reduce(State{}, doc, DragSelectStart{})
	got := Reduce(s, doc, Click{Target: OnUnit, ID: doc.Unit(0).ID})
	if got.Kind != Idle || !got.Drag.Active {
		t.Fatalf("click during drag-select changed state to %v", got.Kind)
	}
}

func TestDragStartKeepsSelectionOfDraggedMember(t *testing.T) {
	doc := testDoc("a", "b", "c")
	u := doc.IDs()
	s := reduceAll(State{}, doc,
		Click{Target: OnUnit, ID: u[0], Mods: ModToggle},
		Click{Target: OnUnit, ID: u[1], Mods: ModToggle},
	)
	kept := Reduce(s, doc, DragStart{ID: u[1]})
	if kept.Kind != Selected || kept.Selection.Len() != 2 || kept.PendingBatch {
		t.Fatalf("kept = %v len=%d pending=%v", kept.Kind, kept.Selection.Len(), kept.PendingBatch)
	}
	cleared := Reduce(s, doc, DragStart{ID: u[2]})
	if cleared.Kind != Idle || cleared.Selection.Len() != 0 {
		t.Fatalf("cleared = %v len=%d", cleared.Kind, cleared.Selection.Len())
	}
	editing := Reduce(State{Kind: Editing, Editing: u[0]}, doc, DragStart{ID: u[0]})
	if editing.Kind != Idle {
		t.Fatalf("editing after drag start = %v, want idle", editing.Kind)
	}
}

func TestActivate(t *testing.T) {
	doc := testDoc("a", "b")
	u := doc.IDs()
	one := Reduce(State{Kind: Selected, Selection: NewSet(u[1])}, doc, Activate{})
	if !one.IsEditing(u[1]) {
		t.Fatalf("Activate single = %v, want editing", one.Kind)
	}
	many := Reduce(State{Kind: Selected, Selection: NewSet(u...)}, doc, Activate{})
	if many.Kind != BatchEditing || many.Text != "a\nb" {
		t.Fatalf("Activate many = %v %q", many.Kind, many.Text)
	}
}

func TestEditingAndSelectionExclusive(t *testing.T) {
	doc := testDoc("a", "b", "c")
	u := doc.IDs()
	events := []Event{
		Click{Target: OnUnit, ID: u[0]},
		Click{Target: OnUnit, ID: u[1], Mods: ModToggle},
		Click{Target: OnUnit, ID: u[2]},
		SelectAll{},
		Promote{},
		Escape{},
		DragSelectStart{},
		DragSelectEnter{ID: u[1]},
		DragSelectEnd{},
		Click{Target: OnUnit, ID: u[0]},
	}
	s := State{}
	for _, ev := range events {
		s = Reduce(s, doc, ev)
		if s.Kind == Editing && s.Selection.Len() > 0 {
			t.Fatalf("editing with %d selected after %T", s.Selection.Len(), ev)
		}
	}
}
