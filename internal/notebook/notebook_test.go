package notebook

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Rancor38/Jot-Down/internal/document"
	"github.com/Rancor38/Jot-Down/internal/selection"
)

type fakeSaver struct {
	requests []string
	flushed  []string
	err      error
}

func (f *fakeSaver) Request(text string) { f.requests = append(f.requests, text) }

func (f *fakeSaver) Flush(_ context.Context, text string) error {
	if f.err != nil {
		return f.err
	}
	f.flushed = append(f.flushed, text)
	return nil
}

func newTestNotebook(lines ...string) (*Notebook, *fakeSaver) {
	s := &fakeSaver{}
	return New(document.FromContents(lines), Options{Saver: s}), s
}

func unitID(t *testing.T, n *Notebook, content string) document.ID {
	t.Helper()
	for _, u := range n.Doc().Units() {
		if u.Content == content {
			return u.ID
		}
	}
	t.Fatalf("no unit %q in %q", content, n.Doc().Contents())
	return 0
}

func contents(t *testing.T, n *Notebook, want ...string) {
	t.Helper()
	if diff := cmp.Diff(want, n.Doc().Contents()); diff != "" {
		t.Fatalf("contents mismatch (-want +got):\n%s", diff)
	}
}

func click(t *testing.T, n *Notebook, id document.ID, mods selection.Modifier) {
	t.Helper()
	if err := n.Click(selection.OnUnit, id, mods); err != nil {
		t.Fatalf("Click error: %v", err)
	}
}

func TestEditAndCommit(t *testing.T) {
	n, s := newTestNotebook("a", "b")
	click(t, n, unitID(t, n, "a"), 0)
	if n.Field() == nil || n.Field().Text() != "a" {
		t.Fatalf("field not opened on click")
	}
	if f, ok := n.TakeFocus(); !ok || f.Placement != AtEnd {
		t.Fatalf("TakeFocus = %+v, %v", f, ok)
	}
	if _, ok := n.TakeFocus(); ok {
		t.Fatalf("focus delivered twice")
	}
	n.Field().Insert("!")
	if err := n.CommitEdit(); err != nil {
		t.Fatalf("CommitEdit error: %v", err)
	}
	contents(t, n, "a!", "b")
	if n.History().UndoLen() != 1 {
		t.Fatalf("UndoLen = %d, want 1", n.History().UndoLen())
	}
	if !n.Dirty() {
		t.Fatalf("Dirty = false after edit")
	}
	if diff := cmp.Diff([]string{"a!\nb"}, s.requests); diff != "" {
		t.Fatalf("save requests mismatch (-want +got):\n%s", diff)
	}
	if n.State().Kind != selection.Idle {
		t.Fatalf("Kind = %v, want idle", n.State().Kind)
	}
}

func TestUnchangedCommitPushesNothing(t *testing.T) {
	n, s := newTestNotebook("a")
	click(t, n, unitID(t, n, "a"), 0)
	if err := n.CommitEdit(); err != nil {
		t.Fatalf("CommitEdit error: %v", err)
	}
	if n.History().UndoLen() != 0 || len(s.requests) != 0 {
		t.Fatalf("unchanged commit recorded: undo=%d saves=%d", n.History().UndoLen(), len(s.requests))
	}
}

func TestClickElsewhereCommits(t *testing.T) {
	n, _ := newTestNotebook("a", "b")
	a, b := unitID(t, n, "a"), unitID(t, n, "b")
	click(t, n, a, 0)
	n.Field().Insert("x")
	click(t, n, b, 0)
	contents(t, n, "ax", "b")
	if !n.State().IsEditing(b) {
		t.Fatalf("not editing b after click")
	}
}

func TestEscapeIsSideEffectFree(t *testing.T) {
	n, s := newTestNotebook("a", "b")
	click(t, n, unitID(t, n, "a"), 0)
	n.Field().Insert("zzz")
	n.Escape()
	contents(t, n, "a", "b")
	if n.History().UndoLen() != 0 || len(s.requests) != 0 || n.Field() != nil {
		t.Fatalf("Escape left traces: undo=%d saves=%d", n.History().UndoLen(), len(s.requests))
	}
}

func TestEnterInsertsBelowWithOneSnapshot(t *testing.T) {
	n, _ := newTestNotebook("a", "c")
	click(t, n, unitID(t, n, "a"), 0)
	n.Field().Insert("b")
	if err := n.Enter(); err != nil {
		t.Fatalf("Enter error: %v", err)
	}
	contents(t, n, "ab", "", "c")
	if n.History().UndoLen() != 1 {
		t.Fatalf("UndoLen = %d, want 1", n.History().UndoLen())
	}
	st := n.State()
	if st.Kind != selection.Editing || st.Editing != n.Doc().Unit(1).ID {
		t.Fatalf("not editing the new unit")
	}
	if f, _ := n.TakeFocus(); f.Placement != AtStart {
		t.Fatalf("Placement = %v, want start", f.Placement)
	}
	n.Undo()
	contents(t, n, "a", "c")
}

func TestDeleteEmpty(t *testing.T) {
	n, _ := newTestNotebook("a", "", "c")
	empty := n.Doc().Unit(1).ID
	click(t, n, empty, 0)
	if !n.DeleteEmpty() {
		t.Fatalf("DeleteEmpty = false")
	}
	contents(t, n, "a", "c")
	if !n.State().IsEditing(unitID(t, n, "a")) {
		t.Fatalf("not editing the unit above")
	}
	if n.Field().Cursor() != 1 {
		t.Fatalf("Cursor = %d, want end", n.Field().Cursor())
	}
}

func TestDeleteEmptyFirstMovesDown(t *testing.T) {
	n, _ := newTestNotebook("", "b")
	click(t, n, n.Doc().Unit(0).ID, 0)
	if !n.DeleteEmpty() {
		t.Fatalf("DeleteEmpty = false")
	}
	contents(t, n, "b")
	if n.Field().Cursor() != 0 {
		t.Fatalf("Cursor = %d, want start", n.Field().Cursor())
	}
}

func TestDeleteEmptyKeepsSoleUnit(t *testing.T) {
	n, _ := newTestNotebook("")
	click(t, n, n.Doc().Unit(0).ID, 0)
	if n.DeleteEmpty() {
		t.Fatalf("DeleteEmpty removed the only unit")
	}
	if n.Doc().Len() != 1 || n.History().UndoLen() != 0 {
		t.Fatalf("Len = %d undo = %d", n.Doc().Len(), n.History().UndoLen())
	}
}

func TestNavigate(t *testing.T) {
	n, _ := newTestNotebook("one", "two")
	click(t, n, unitID(t, n, "one"), 0)
	if ok, _ := n.NavigatePrev(); ok {
		t.Fatalf("NavigatePrev on first unit = true")
	}
	n.Field().Insert("!")
	if ok, err := n.NavigateNext(); !ok || err != nil {
		t.Fatalf("NavigateNext = %v, %v", ok, err)
	}
	contents(t, n, "one!", "two")
	if n.Field().Cursor() != 0 {
		t.Fatalf("Cursor = %d, want 0", n.Field().Cursor())
	}
	if ok, _ := n.NavigatePrev(); !ok {
		t.Fatalf("NavigatePrev = false")
	}
	if n.Field().Cursor() != 4 {
		t.Fatalf("Cursor = %d, want 4", n.Field().Cursor())
	}
}

func TestSelectAllTwice(t *testing.T) {
	n, _ := newTestNotebook("ab", "cd")
	click(t, n, unitID(t, n, "ab"), 0)
	if err := n.SelectAll(); err != nil {
		t.Fatalf("SelectAll error: %v", err)
	}
	if !n.Field().AllSelected() || n.State().Kind != selection.Editing {
		t.Fatalf("first SelectAll did not select the field text")
	}
	if err := n.SelectAll(); err != nil {
		t.Fatalf("SelectAll error: %v", err)
	}
	if n.State().Kind != selection.Selected || len(n.Selected()) != 2 {
		t.Fatalf("second SelectAll = %v with %d", n.State().Kind, len(n.Selected()))
	}
	if !n.PendingPromotion() {
		t.Fatalf("promotion not scheduled")
	}
	n.Promote()
	if n.State().Kind != selection.BatchEditing || n.Field().Text() != "ab\ncd" {
		t.Fatalf("promoted = %v %q", n.State().Kind, n.Field().Text())
	}
}

func TestBatchCommitAndUndo(t *testing.T) {
	n, _ := newTestNotebook("head", "id1", "id2", "id3", "tail")
	for _, c := range []string{"id1", "id2", "id3"} {
		click(t, n, unitID(t, n, c), selection.ModToggle)
	}
	n.Promote()
	if got := n.Field().Text(); got != "id1\nid2\nid3" {
		t.Fatalf("batch text = %q", got)
	}
	n.Field().SetText("p\nq")
	if err := n.BatchCommit(); err != nil {
		t.Fatalf("BatchCommit error: %v", err)
	}
	contents(t, n, "head", "p", "q", "tail")
	after := n.Doc()
	if !n.Undo() {
		t.Fatalf("Undo = false")
	}
	contents(t, n, "head", "id1", "id2", "id3", "tail")
	if !n.Redo() {
		t.Fatalf("Redo = false")
	}
	if !n.Doc().Equal(after) {
		t.Fatalf("redo did not restore the committed document")
	}
}

func TestBatchDelete(t *testing.T) {
	n, _ := newTestNotebook("a", "b", "c")
	click(t, n, unitID(t, n, "a"), selection.ModToggle)
	click(t, n, unitID(t, n, "b"), selection.ModToggle)
	if err := n.BatchDelete(); err != nil {
		t.Fatalf("BatchDelete error: %v", err)
	}
	contents(t, n, "c")
	if n.History().UndoLen() != 1 {
		t.Fatalf("UndoLen = %d", n.History().UndoLen())
	}
}

func TestBatchCancel(t *testing.T) {
	n, s := newTestNotebook("a", "b")
	n.SelectAll()
	n.Promote()
	n.Field().SetText("gone")
	n.BatchCancel()
	contents(t, n, "a", "b")
	if n.State().Kind != selection.Idle || len(s.requests) != 0 {
		t.Fatalf("BatchCancel = %v saves=%d", n.State().Kind, len(s.requests))
	}
}

func TestClickOutsideBatchCommits(t *testing.T) {
	n, _ := newTestNotebook("a", "b", "c")
	click(t, n, unitID(t, n, "a"), selection.ModToggle)
	click(t, n, unitID(t, n, "b"), selection.ModToggle)
	n.Promote()
	n.Field().SetText("ab")
	click(t, n, unitID(t, n, "c"), 0)
	contents(t, n, "ab", "c")
	if !n.State().IsEditing(unitID(t, n, "c")) {
		t.Fatalf("not editing c")
	}
}

func TestDragReorder(t *testing.T) {
	n, s := newTestNotebook("a", "b", "c")
	a, c := unitID(t, n, "a"), unitID(t, n, "c")
	before := n.Doc()
	if err := n.BeginDrag(a); err != nil {
		t.Fatalf("BeginDrag error: %v", err)
	}
	if !n.DragOver(c, 5, 4, 2) {
		t.Fatalf("DragOver = false")
	}
	moved, err := n.Drop()
	if err != nil || !moved {
		t.Fatalf("Drop = %v, %v", moved, err)
	}
	contents(t, n, "b", "c", "a")
	for _, u := range before.Units() {
		got, ok := n.Doc().Get(u.ID)
		if !ok || got.Content != u.Content {
			t.Fatalf("unit %v changed by reorder", u.ID)
		}
	}
	if len(s.requests) != 1 {
		t.Fatalf("save requests = %d, want 1", len(s.requests))
	}
	n.Undo()
	if diff := cmp.Diff(before.Contents(), n.Doc().Contents()); diff != "" {
		t.Fatalf("undo mismatch (-want +got):\n%s", diff)
	}
}

func TestDragCancelAndSelfDrop(t *testing.T) {
	n, _ := newTestNotebook("a", "b")
	a, b := unitID(t, n, "a"), unitID(t, n, "b")
	n.BeginDrag(a)
	n.DragOver(b, 0, 0, 2)
	n.Escape()
	if n.Dragging() {
		t.Fatalf("still dragging after Escape")
	}
	n.BeginDrag(a)
	n.DragOver(a, 0, 0, 2)
	if moved, _ := n.Drop(); moved {
		t.Fatalf("self drop moved")
	}
	n.BeginDrag(a)
	n.DragOver(b, 0, 0, 2)
	n.DragLeave(b)
	if moved, _ := n.Drop(); moved {
		t.Fatalf("drop after leave moved")
	}
	if n.History().UndoLen() != 0 {
		t.Fatalf("UndoLen = %d, want 0", n.History().UndoLen())
	}
}

func TestDragKeepsSelectionOfMember(t *testing.T) {
	n, _ := newTestNotebook("a", "b", "c")
	a, b := unitID(t, n, "a"), unitID(t, n, "b")
	click(t, n, a, selection.ModToggle)
	click(t, n, b, selection.ModToggle)
	n.BeginDrag(b)
	if n.State().Kind != selection.Selected || len(n.Selected()) != 2 {
		t.Fatalf("selection dropped when dragging a member")
	}
	n.CancelDrag()
	n.BeginDrag(unitID(t, n, "c"))
	if n.State().Kind != selection.Idle {
		t.Fatalf("selection kept when dragging a non-member")
	}
}

func TestDragSelect(t *testing.T) {
	n, _ := newTestNotebook("a", "b", "c")
	if err := n.BeginDragSelect(0, false); err != nil {
		t.Fatalf("BeginDragSelect error: %v", err)
	}
	n.DragSelectEnter(unitID(t, n, "a"))
	n.DragSelectEnter(unitID(t, n, "c"))
	if !n.State().IsSelecting(unitID(t, n, "c")) {
		t.Fatalf("c not in the provisional set")
	}
	if err := n.EndDragSelect(); err != nil {
		t.Fatalf("EndDragSelect error: %v", err)
	}
	if len(n.Selected()) != 2 || !n.PendingPromotion() {
		t.Fatalf("selected %d pending %v", len(n.Selected()), n.PendingPromotion())
	}
	n.Promote()
	if n.Field().Text() != "a\nc" {
		t.Fatalf("batch text = %q", n.Field().Text())
	}
}

func TestDragSelectKeepsLoneEdit(t *testing.T) {
	n, _ := newTestNotebook("solo")
	id := n.Doc().Unit(0).ID
	click(t, n, id, 0)
	n.Field().Insert("!")
	n.BeginDragSelect(0, false)
	if !n.State().IsEditing(id) || n.Field().Text() != "solo!" {
		t.Fatalf("lone edit not kept alive")
	}
	n.EndDragSelect()
	if !n.State().IsEditing(id) {
		t.Fatalf("empty drag-select ended the edit")
	}
}

func TestImportResetsAndSnapshots(t *testing.T) {
	n, s := newTestNotebook("old")
	click(t, n, n.Doc().Unit(0).ID, 0)
	oldID := n.Doc().Unit(0).ID
	n.Import("l1\nl2\nl3")
	contents(t, n, "l1", "l2", "l3")
	for _, u := range n.Doc().Units() {
		if u.ID == oldID {
			t.Fatalf("import reused an id")
		}
	}
	if n.History().UndoLen() != 1 {
		t.Fatalf("UndoLen = %d, want 1", n.History().UndoLen())
	}
	if n.State().Kind != selection.Idle || n.Field() != nil {
		t.Fatalf("Kind = %v after import", n.State().Kind)
	}
	if len(s.requests) != 1 || s.requests[0] != "l1\nl2\nl3" {
		t.Fatalf("save requests = %q", s.requests)
	}
	n.Undo()
	contents(t, n, "old")
}

func TestReloadIsClean(t *testing.T) {
	n, s := newTestNotebook("a")
	n.Import("x")
	n.Reload("from disk")
	contents(t, n, "from disk")
	if n.Dirty() {
		t.Fatalf("Dirty = true after reload")
	}
	if len(s.requests) != 1 {
		t.Fatalf("reload saved back: %q", s.requests)
	}
}

func TestNewDocumentNeedsConfirmation(t *testing.T) {
	n, _ := newTestNotebook("keep")
	n.Import("changed")
	if err := n.NewDocument(false); !errors.Is(err, ErrUnsavedChanges) {
		t.Fatalf("NewDocument err = %v, want ErrUnsavedChanges", err)
	}
	contents(t, n, "changed")
	if err := n.NewDocument(true); err != nil {
		t.Fatalf("NewDocument error: %v", err)
	}
	contents(t, n, "")
	if n.Dirty() {
		t.Fatalf("Dirty = true after New")
	}
	clean, _ := newTestNotebook("x")
	if err := clean.NewDocument(false); err != nil {
		t.Fatalf("NewDocument on clean notebook: %v", err)
	}
}

func TestHardSave(t *testing.T) {
	n, s := newTestNotebook("a")
	click(t, n, n.Doc().Unit(0).ID, 0)
	n.Field().Insert("b")
	if err := n.HardSave(context.Background()); err != nil {
		t.Fatalf("HardSave error: %v", err)
	}
	if diff := cmp.Diff([]string{"ab"}, s.flushed); diff != "" {
		t.Fatalf("flushed mismatch (-want +got):\n%s", diff)
	}
	if n.Dirty() || n.State().Kind != selection.Idle {
		t.Fatalf("Dirty=%v Kind=%v after hard save", n.Dirty(), n.State().Kind)
	}

	s.err = errors.New("disk full")
	n.Import("c")
	if err := n.HardSave(context.Background()); err == nil {
		t.Fatalf("HardSave error = nil, want failure")
	}
	if !n.Dirty() {
		t.Fatalf("failed hard save cleared Dirty")
	}
	contents(t, n, "c")
}

func TestUndoRedoResetSelection(t *testing.T) {
	n, _ := newTestNotebook("a", "b")
	n.Import("x\ny")
	click(t, n, unitID(t, n, "x"), selection.ModToggle)
	n.Undo()
	if n.State().Kind != selection.Idle {
		t.Fatalf("Kind = %v after undo", n.State().Kind)
	}
	if n.Undo() {
		t.Fatalf("Undo past the beginning = true")
	}
	n.Redo()
	contents(t, n, "x", "y")
	if n.Redo() {
		t.Fatalf("Redo past the end = true")
	}
}

func TestSelectedText(t *testing.T) {
	n, _ := newTestNotebook("a", "b", "c")
	click(t, n, unitID(t, n, "c"), selection.ModToggle)
	click(t, n, unitID(t, n, "a"), selection.ModToggle)
	if got := n.SelectedText(); got != "a\nc" {
		t.Fatalf("SelectedText = %q, want %q", got, "a\nc")
	}
}

func TestOpenEmptyText(t *testing.T) {
	n := Open("", Options{})
	if n.Doc().Len() != 1 || n.Text() != "" {
		t.Fatalf("Open(\"\") = %d units %q", n.Doc().Len(), n.Text())
	}
}

func TestSaveAs(t *testing.T) {
	n, s := newTestNotebook("a")
	click(t, n, n.Doc().Unit(0).ID, 0)
	n.Field().Insert("b")

	var exported string
	if err := n.SaveAs(func(text string) error {
		exported = text
		return nil
	}); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}
	if exported != "ab" {
		t.Fatalf("exported = %q, want %q", exported, "ab")
	}
	if n.Dirty() || n.State().Kind != selection.Idle {
		t.Fatalf("Dirty=%v Kind=%v after save-as", n.Dirty(), n.State().Kind)
	}
	if got := s.requests[len(s.requests)-1]; got != "ab" {
		t.Fatalf("last save request = %q, want %q", got, "ab")
	}

	n.Import("c")
	if err := n.SaveAs(func(string) error { return errors.New("read-only") }); err == nil {
		t.Fatalf("SaveAs error = nil, want failure")
	}
	if !n.Dirty() {
		t.Fatalf("failed save-as cleared Dirty")
	}
}
