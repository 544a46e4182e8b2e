package notebook

import (
	"context"
	"fmt"

	"github.com/Rancor38/Jot-Down/internal/batch"
	"github.com/Rancor38/Jot-Down/internal/document"
	"github.com/Rancor38/Jot-Down/internal/logger"
	"github.com/Rancor38/Jot-Down/internal/selection"
)

// Enter commits the open field and opens a new empty unit below it. The
// commit and the insert share one snapshot.
func (n *Notebook) Enter() error {
	if n.sel.Kind != selection.Editing || n.field == nil {
		return nil
	}
	id, text := n.sel.Editing, n.field.Text()
	var newID document.ID
	err := n.apply("enter", func(d document.Document) (document.Document, error) {
		u, ok := d.Get(id)
		if !ok {
			return d, fmt.Errorf("%w: %v", document.ErrNotFound, id)
		}
		if u.Content != text {
			var err error
			if d, err = d.Update(id, text); err != nil {
				return d, err
			}
		}
		next, nid, err := d.InsertAfter(id, "")
		newID = nid
		return next, err
	})
	if err != nil {
		return err
	}
	n.edit(newID, AtStart)
	return nil
}

// DeleteEmpty removes the unit whose field is empty and moves editing to
// the end of the unit above it, or the start of the one below when it was
// first. It reports false when nothing was removed, which is the case for the
// document's only unit.
func (n *Notebook) DeleteEmpty() bool {
	if n.sel.Kind != selection.Editing || n.field == nil || !n.field.Empty() {
		return false
	}
	id := n.sel.Editing
	if n.doc.Len() <= 1 {
		return false
	}
	focus, at := n.doc.Prev(id)
	placement := AtEnd
	if !at {
		focus, _ = n.doc.Next(id)
		placement = AtStart
	}
	err := n.apply("remove", func(d document.Document) (document.Document, error) {
		return d.Remove(id)
	})
	if err != nil {
		return false
	}
	n.edit(focus, placement)
	return true
}

// NavigatePrev commits the field and edits the unit above, cursor at its
// end. It reports false on the first unit.
func (n *Notebook) NavigatePrev() (bool, error) {
	return n.navigate(n.doc.Prev, AtEnd)
}

// NavigateNext commits the field and edits the unit below, cursor at its
// start. It reports false on the last unit.
func (n *Notebook) NavigateNext() (bool, error) {
	return n.navigate(n.doc.Next, AtStart)
}

func (n *Notebook) navigate(step func(document.ID) (document.ID, bool), at Placement) (bool, error) {
	if n.sel.Kind != selection.Editing {
		return false, nil
	}
	target, ok := step(n.sel.Editing)
	if !ok {
		return false, nil
	}
	if err := n.commitField(); err != nil {
		return false, err
	}
	n.edit(target, at)
	return true, nil
}

// Undo restores the previous snapshot and drops any selection or edit.
func (n *Notebook) Undo() bool {
	prev, ok := n.hist.Undo(n.doc)
	if !ok {
		return false
	}
	n.restore(prev)
	logger.Debug("undo", "units", prev.Len(), "undo", n.hist.UndoLen(), "redo", n.hist.RedoLen())
	return true
}

func (n *Notebook) Redo() bool {
	next, ok := n.hist.Redo(n.doc)
	if !ok {
		return false
	}
	n.restore(next)
	logger.Debug("redo", "units", next.Len(), "undo", n.hist.UndoLen(), "redo", n.hist.RedoLen())
	return true
}

func (n *Notebook) restore(doc document.Document) {
	n.drag.Cancel()
	n.doc = doc
	n.transition(selection.Escape{})
	n.changed()
}

// BatchCommit re-splits the batch text into units in place of the batch
// members and returns to Idle.
func (n *Notebook) BatchCommit() error {
	if n.sel.Kind != selection.BatchEditing || n.field == nil {
		return nil
	}
	ids, text := n.sel.Selection.IDs(), n.field.Text()
	err := n.apply("batch commit", func(d document.Document) (document.Document, error) {
		next, _, err := batch.Commit(d, ids, text)
		return next, err
	})
	n.transition(selection.Escape{})
	return err
}

// BatchDelete removes every batch member and returns to Idle.
func (n *Notebook) BatchDelete() error {
	ids := n.Selected()
	if len(ids) == 0 {
		return nil
	}
	err := n.apply("batch delete", func(d document.Document) (document.Document, error) {
		return batch.Delete(d, ids)
	})
	n.transition(selection.Escape{})
	return err
}

// BatchCancel discards the batch text.
func (n *Notebook) BatchCancel() {
	if n.sel.Kind == selection.BatchEditing {
		n.transition(selection.Escape{})
	}
}

// Import replaces the whole document with text, split into fresh units.
func (n *Notebook) Import(text string) {
	n.replace("import", document.Deserialize(text))
	n.changed()
}

// Reload replaces the document with text read back from the store after an
// external change. The store already holds it, so nothing is saved.
func (n *Notebook) Reload(text string) {
	n.replace("reload", document.Deserialize(text))
	n.dirty = false
}

// NewDocument replaces the document with one empty unit. Unless confirmed,
// it refuses with ErrUnsavedChanges when there are unsaved changes.
func (n *Notebook) NewDocument(confirmed bool) error {
	if n.dirty && !confirmed {
		return ErrUnsavedChanges
	}
	n.replace("new", document.New())
	n.persist()
	n.dirty = false
	return nil
}

func (n *Notebook) replace(op string, doc document.Document) {
	n.drag.Cancel()
	n.hist.Push(n.doc)
	n.doc = doc
	n.transition(selection.Escape{})
	logger.Debug("replace", "op", op, "units", doc.Len())
}

// SaveAs commits any open edit, hands the text to export, requests a store
// save and clears the unsaved flag. A failed export leaves the flag set.
func (n *Notebook) SaveAs(export func(text string) error) error {
	if err := n.settle(); err != nil {
		return err
	}
	n.transition(selection.Escape{})
	text := n.doc.Serialize()
	if err := export(text); err != nil {
		return err
	}
	n.persist()
	n.dirty = false
	return nil
}

// HardSave commits any open edit, returns to Idle and writes the document
// through the saver synchronously.
func (n *Notebook) HardSave(ctx context.Context) error {
	if err := n.settle(); err != nil {
		return err
	}
	n.transition(selection.Escape{})
	if n.saver == nil {
		n.dirty = false
		return nil
	}
	if err := n.saver.Flush(ctx, n.doc.Serialize()); err != nil {
		return err
	}
	n.dirty = false
	return nil
}
