package notebook

import (
	"github.com/Rancor38/Jot-Down/internal/document"
	"github.com/Rancor38/Jot-Down/internal/logger"
	"github.com/Rancor38/Jot-Down/internal/selection"
)

// BeginDrag picks up id for reordering. An open edit is committed and the
// selection survives only when id belongs to it.
func (n *Notebook) BeginDrag(id document.ID) error {
	if !n.doc.Contains(id) || n.sel.Drag.Active {
		return nil
	}
	if err := n.settle(); err != nil {
		return err
	}
	n.transition(selection.DragStart{ID: id})
	n.drag.Start(id)
	return nil
}

// DragOver moves the pointer to row y over target, whose extent starts at
// top and spans height rows. It reports whether a redraw is needed.
func (n *Notebook) DragOver(target document.ID, y, top, height int) bool {
	if !n.doc.Contains(target) {
		return false
	}
	return n.drag.Over(target, y, top, height)
}

func (n *Notebook) DragLeave(target document.ID) bool {
	return n.drag.Leave(target)
}

// Drop finishes a reorder drag. It reports whether the document changed.
func (n *Notebook) Drop() (bool, error) {
	d, ok := n.drag.Drop()
	if !ok {
		return false, nil
	}
	err := n.apply("reorder", func(doc document.Document) (document.Document, error) {
		return doc.Reorder(d.Source, d.Target, d.Position)
	})
	if err != nil {
		return false, err
	}
	logger.Debug("drop", "source", d.Source, "target", d.Target, "position", d.Position)
	return true, nil
}

// CancelDrag abandons a reorder drag without touching the document.
func (n *Notebook) CancelDrag() {
	n.drag.Cancel()
}

// BeginDragSelect starts a press-and-move selection, anchored at anchor when
// hasAnchor is set. An open edit is committed unless it is kept alive.
func (n *Notebook) BeginDragSelect(anchor document.ID, hasAnchor bool) error {
	if n.drag.Active() || n.sel.Kind == selection.BatchEditing {
		return nil
	}
	keepAlive := n.sel.Kind == selection.Editing && n.doc.Len() == 1
	if !keepAlive {
		if err := n.settle(); err != nil {
			return err
		}
	}
	n.transition(selection.DragSelectStart{Anchor: anchor, HasAnchor: hasAnchor})
	return nil
}

// DragSelectEnter adds id to the live drag-select set.
func (n *Notebook) DragSelectEnter(id document.ID) bool {
	if !n.sel.Drag.Active {
		return false
	}
	n.transition(selection.DragSelectEnter{ID: id})
	return true
}

// EndDragSelect commits the drag-select set. The caller should deliver
// Promote once the result has been drawn when PendingPromotion reports true.
func (n *Notebook) EndDragSelect() error {
	if !n.sel.Drag.Active {
		return nil
	}
	var err error
	if n.sel.Kind == selection.Editing && n.sel.Drag.Provisional.Len() > 0 {
		err = n.commitField()
	}
	n.transition(selection.DragSelectEnd{})
	return err
}

// PendingPromotion reports whether a promotion to batch editing is scheduled.
func (n *Notebook) PendingPromotion() bool {
	return n.sel.PendingBatch
}
