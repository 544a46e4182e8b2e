// Package selection resolves click, modifier and drag gestures into the
// selection state of a document. Reduce is a pure function: the caller owns
// the State value and replaces it with the result.
package selection

import (
	"github.com/Rancor38/Jot-Down/internal/batch"
	"github.com/Rancor38/Jot-Down/internal/document"
)

type Kind int

const (
	Idle Kind = iota
	Editing
	Selected
	BatchEditing
)

func (k Kind) String() string {
	switch k {
	case Editing:
		return "editing"
	case Selected:
		return "selected"
	case BatchEditing:
		return "batch"
	default:
		return "idle"
	}
}

// DragSelect is the provisional state of a press-and-move selection.
type DragSelect struct {
	Active      bool
	Anchor      document.ID
	HasAnchor   bool
	Provisional Set
}

type State struct {
	Kind Kind
	// Editing is the unit in raw-edit mode when Kind is Editing.
	Editing document.ID
	// Selection holds the members for Selected and BatchEditing.
	Selection Set
	// Text is the batch snapshot taken when BatchEditing was entered.
	Text string
	// PendingBatch marks a scheduled promotion to BatchEditing. The host
	// delivers Promote after the current transition has been drawn.
	PendingBatch bool
	Drag         DragSelect
}

func (s State) IsEditing(id document.ID) bool {
	return s.Kind == Editing && s.Editing == id
}

func (s State) IsSelected(id document.ID) bool {
	return (s.Kind == Selected || s.Kind == BatchEditing) && s.Selection.Has(id)
}

// IsSelecting reports whether id is in the live drag-select set.
func (s State) IsSelecting(id document.ID) bool {
	return s.Drag.Active && s.Drag.Provisional.Has(id)
}

// Target classifies what a pointer press landed on.
type Target int

const (
	OnUnit Target = iota
	OnControl
	OnEmpty
)

type Modifier uint8

const (
	ModToggle Modifier = 1 << iota // ctrl or meta
	ModRange                       // shift
)

type Event interface{ event() }

type Click struct {
	Target Target
	ID     document.ID
	Mods   Modifier
}

// DragSelectStart begins a drag-select. With an anchor the set grows as the
// closed range from the anchor; without one it accumulates freely.
type DragSelectStart struct {
	Anchor    document.ID
	HasAnchor bool
}

type DragSelectEnter struct{ ID document.ID }

type DragSelectEnd struct{}

// DragStart is delivered when a reorder drag picks up a unit.
type DragStart struct{ ID document.ID }

type Escape struct{}

type SelectAll struct{}

// Promote is the deferred half of entering Selected with several members.
type Promote struct{}

// Activate opens the current selection: one member is edited, several are
// batch edited.
type Activate struct{}

func (Click) event()           {}
func (DragSelectStart) event() {}
func (DragSelectEnter) event() {}
func (DragSelectEnd) event()   {}
func (DragStart) event()       {}
func (Escape) event()          {}
func (SelectAll) event()       {}
func (Promote) event()         {}
func (Activate) event()        {}

func Reduce(s State, doc document.Document, ev Event) State {
	switch ev := ev.(type) {
	case Click:
		return click(s, doc, ev)
	case DragSelectStart:
		return dragSelectStart(s, doc, ev)
	case DragSelectEnter:
		return dragSelectEnter(s, doc, ev)
	case DragSelectEnd:
		return dragSelectEnd(s)
	case DragStart:
		return dragStart(s, ev)
	case Escape:
		return State{}
	case SelectAll:
		return selected(NewSet(doc.IDs()...))
	case Promote:
		return promote(s, doc)
	case Activate:
		return activate(s, doc)
	}
	return s
}

func selected(set Set) State {
	return State{Kind: Selected, Selection: set, PendingBatch: set.Len() > 1}
}

func click(s State, doc document.Document, ev Click) State {
	if ev.Target != OnUnit || s.Drag.Active || !doc.Contains(ev.ID) {
		return s
	}
	switch {
	case ev.Mods&ModToggle != 0:
		var set Set
		if s.Kind == Selected || s.Kind == BatchEditing {
			set = s.Selection
		}
		return selected(set.Toggle(ev.ID))
	case ev.Mods&ModRange != 0:
		if s.Kind != Selected && s.Kind != BatchEditing {
			return s
		}
		anchor, ok := s.Selection.Anchor()
		if !ok {
			return s
		}
		return selected(rangeSet(doc, anchor, ev.ID))
	}
	return State{Kind: Editing, Editing: ev.ID}
}

func dragSelectStart(s State, doc document.Document, ev DragSelectStart) State {
	if s.Kind == BatchEditing {
		return s
	}
	next := State{Drag: DragSelect{Active: true, Anchor: ev.Anchor, HasAnchor: ev.HasAnchor}}
	// A lone unit being edited stays in edit mode so typing can continue.
	if s.Kind == Editing && doc.Len() == 1 {
		next.Kind = Editing
		next.Editing = s.Editing
	}
	return next
}

func dragSelectEnter(s State, doc document.Document, ev DragSelectEnter) State {
	if !s.Drag.Active || !doc.Contains(ev.ID) {
		return s
	}
	if s.Drag.HasAnchor {
		s.Drag.Provisional = rangeSet(doc, s.Drag.Anchor, ev.ID)
	} else {
		s.Drag.Provisional = s.Drag.Provisional.Add(ev.ID)
	}
	return s
}

func dragSelectEnd(s State) State {
	if !s.Drag.Active {
		return s
	}
	set := s.Drag.Provisional
	s.Drag = DragSelect{}
	if set.Len() == 0 {
		return s
	}
	return selected(set)
}

func dragStart(s State, ev DragStart) State {
	if (s.Kind == Selected || s.Kind == BatchEditing) && s.Selection.Has(ev.ID) {
		return State{Kind: Selected, Selection: s.Selection}
	}
	return State{}
}

func promote(s State, doc document.Document) State {
	if !s.PendingBatch {
		return s
	}
	s.PendingBatch = false
	if s.Kind != Selected || s.Drag.Active {
		return s
	}
	set := s.Selection.Prune(doc)
	if set.Len() < 2 {
		s.Selection = set
		return s
	}
	return State{Kind: BatchEditing, Selection: set, Text: batch.Open(doc, set.IDs())}
}

func activate(s State, doc document.Document) State {
	if s.Kind != Selected {
		return s
	}
	set := s.Selection.Prune(doc)
	switch set.Len() {
	case 0:
		return State{}
	case 1:
		id, _ := set.Anchor()
		return State{Kind: Editing, Editing: id}
	}
	return State{Kind: BatchEditing, Selection: set, Text: batch.Open(doc, set.IDs())}
}
