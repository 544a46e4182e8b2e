// Package notebook is the editing session for one document. It owns the
// document value, its undo history, the selection state, the drag engine and
// the open edit buffer, and it turns host gestures into document mutations.
//
// A Notebook is not safe for concurrent use; the host drives it from its
// event loop.
package notebook

import (
	"context"
	"errors"

	"github.com/Rancor38/Jot-Down/internal/batch"
	"github.com/Rancor38/Jot-Down/internal/document"
	"github.com/Rancor38/Jot-Down/internal/history"
	"github.com/Rancor38/Jot-Down/internal/logger"
	"github.com/Rancor38/Jot-Down/internal/reorder"
	"github.com/Rancor38/Jot-Down/internal/selection"
	"github.com/Rancor38/Jot-Down/internal/textfield"
)

// ErrUnsavedChanges is returned by NewDocument when the notebook has changes
// that were never exported or hard-saved and the caller did not confirm.
var ErrUnsavedChanges = errors.New("unsaved changes")

// Saver persists serialized documents. Request must not block; Flush writes
// synchronously.
type Saver interface {
	Request(text string)
	Flush(ctx context.Context, text string) error
}

// Placement says where the cursor lands when a unit is opened for editing.
type Placement int

const (
	AtEnd Placement = iota
	AtStart
)

// Focus is a deferred cursor placement for the unit being edited. The host
// applies it after it has drawn the transition that produced it.
type Focus struct {
	ID        document.ID
	Placement Placement
}

type Options struct {
	HistorySize int
	Saver       Saver
}

type Notebook struct {
	doc   document.Document
	hist  *history.Stack
	sel   selection.State
	drag  reorder.Engine
	field *textfield.Field
	saver Saver
	dirty bool
	focus *Focus
}

func New(doc document.Document, opts Options) *Notebook {
	return &Notebook{
		doc:   doc,
		hist:  history.New(opts.HistorySize),
		saver: opts.Saver,
	}
}

// Open starts a notebook from persisted text. Empty text yields one empty
// unit.
func Open(text string, opts Options) *Notebook {
	return New(document.Deserialize(text), opts)
}

func (n *Notebook) Doc() document.Document     { return n.doc }
func (n *Notebook) State() selection.State     { return n.sel }
func (n *Notebook) History() *history.Stack    { return n.hist }
func (n *Notebook) Dirty() bool                { return n.dirty }
func (n *Notebook) Text() string               { return n.doc.Serialize() }
func (n *Notebook) Field() *textfield.Field    { return n.field }
func (n *Notebook) Dragging() bool             { return n.drag.Active() }
func (n *Notebook) DragEngine() reorder.Engine { return n.drag }

// DragTarget returns the unit the dragged unit is over, if any.
func (n *Notebook) DragTarget() (document.ID, bool) { return n.drag.Target() }

// MarkSaved clears the unsaved flag after an export.
func (n *Notebook) MarkSaved() { n.dirty = false }

// TakeFocus returns and clears the pending cursor placement.
func (n *Notebook) TakeFocus() (Focus, bool) {
	if n.focus == nil {
		return Focus{}, false
	}
	f := *n.focus
	n.focus = nil
	return f, true
}

// Selected returns the selected or batch-edited ids in display order.
func (n *Notebook) Selected() []document.ID {
	switch n.sel.Kind {
	case selection.Selected, selection.BatchEditing:
		return n.sel.Selection.InOrder(n.doc)
	}
	return nil
}

// SelectedText joins the selected units' contents with newlines.
func (n *Notebook) SelectedText() string {
	ids := n.Selected()
	if len(ids) == 0 {
		return ""
	}
	return batch.Open(n.doc, ids)
}

// apply replaces the document with the result of f, snapshotting the
// previous value first. Nothing is recorded when f fails.
func (n *Notebook) apply(op string, f func(document.Document) (document.Document, error)) error {
	prev := n.doc
	next, err := f(prev)
	if err != nil {
		logger.Debug("edit rejected", "op", op, "err", err)
		return err
	}
	n.hist.Push(prev)
	n.doc = next
	n.changed()
	logger.Debug("edit", "op", op, "units", next.Len())
	return nil
}

func (n *Notebook) changed() {
	n.dirty = true
	n.persist()
}

func (n *Notebook) persist() {
	if n.saver != nil {
		n.saver.Request(n.doc.Serialize())
	}
}

// transition runs ev through the selection reducer and opens or closes the
// edit buffer to match the new state.
func (n *Notebook) transition(ev selection.Event) {
	prev := n.sel
	n.sel = selection.Reduce(n.sel, n.doc, ev)
	n.syncField(prev, AtEnd)
}

func (n *Notebook) syncField(prev selection.State, at Placement) {
	switch n.sel.Kind {
	case selection.Editing:
		if prev.IsEditing(n.sel.Editing) && n.field != nil {
			return
		}
		u, _ := n.doc.Get(n.sel.Editing)
		n.field = textfield.New(u.Content)
		if at == AtStart {
			n.field.SetCursor(0)
		}
		n.focus = &Focus{ID: n.sel.Editing, Placement: at}
	case selection.BatchEditing:
		if prev.Kind == selection.BatchEditing && n.field != nil {
			return
		}
		n.field = textfield.New(n.sel.Text)
	default:
		n.field = nil
	}
}

func (n *Notebook) edit(id document.ID, at Placement) {
	prev := n.sel
	n.sel = selection.State{Kind: selection.Editing, Editing: id}
	if prev.IsEditing(id) {
		n.field = nil
	}
	n.syncField(prev, at)
}

// commitField writes the open raw field back to its unit. Only a changed
// text pushes a snapshot.
func (n *Notebook) commitField() error {
	if n.sel.Kind != selection.Editing || n.field == nil {
		return nil
	}
	id, text := n.sel.Editing, n.field.Text()
	u, ok := n.doc.Get(id)
	if !ok || u.Content == text {
		return nil
	}
	return n.apply("update", func(d document.Document) (document.Document, error) {
		return d.Update(id, text)
	})
}

// settle commits whatever edit buffer is open before a gesture moves focus
// elsewhere.
func (n *Notebook) settle() error {
	switch n.sel.Kind {
	case selection.Editing:
		return n.commitField()
	case selection.BatchEditing:
		return n.BatchCommit()
	}
	return nil
}

// Click delivers a pointer click on target. An open edit is committed first.
func (n *Notebook) Click(target selection.Target, id document.ID, mods selection.Modifier) error {
	if target != selection.OnUnit || n.sel.Drag.Active {
		return nil
	}
	if n.sel.IsEditing(id) && mods == 0 {
		return nil
	}
	if err := n.settle(); err != nil {
		return err
	}
	n.transition(selection.Click{Target: target, ID: id, Mods: mods})
	return nil
}

// Edit opens id for raw editing with the cursor at the given placement.
func (n *Notebook) Edit(id document.ID, at Placement) error {
	if !n.doc.Contains(id) {
		return document.ErrNotFound
	}
	if err := n.settle(); err != nil {
		return err
	}
	n.edit(id, at)
	return nil
}

// CommitEdit commits the raw field and returns to Idle.
func (n *Notebook) CommitEdit() error {
	err := n.commitField()
	n.transition(selection.Escape{})
	return err
}

// Escape cancels whatever is in progress. The document and history are
// never touched.
func (n *Notebook) Escape() {
	if n.drag.Active() {
		n.drag.Cancel()
	}
	n.transition(selection.Escape{})
}

// SelectAll selects the text of the open field first. A second call while
// all of it is selected commits the field and selects every unit.
func (n *Notebook) SelectAll() error {
	if n.sel.Kind == selection.Editing && n.field != nil && !n.field.Empty() && !n.field.AllSelected() {
		n.field.SelectAll()
		return nil
	}
	if err := n.settle(); err != nil {
		return err
	}
	n.transition(selection.SelectAll{})
	return nil
}

// Promote performs a scheduled promotion to batch editing.
func (n *Notebook) Promote() {
	n.transition(selection.Promote{})
}

// Activate edits a single selected unit or batch edits several.
func (n *Notebook) Activate() {
	n.transition(selection.Activate{})
}
