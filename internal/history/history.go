// Package history keeps bounded undo and redo stacks of whole-document
// snapshots.
package history

import "github.com/Rancor38/Jot-Down/internal/document"

const DefaultCapacity = 50

// Stack holds pre-mutation snapshots. Documents are immutable values, so a
// snapshot is the document itself.
type Stack struct {
	undo     []document.Document
	redo     []document.Document
	capacity int
}

func New(capacity int) *Stack {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Stack{capacity: capacity}
}

// Push records doc as the state before a mutation. Any forward mutation
// invalidates the redo chain. The oldest snapshot is evicted past capacity.
func (s *Stack) Push(doc document.Document) {
	s.undo = appendBounded(s.undo, doc, s.capacity)
	s.redo = nil
}

// Undo pops the latest snapshot and parks current on the redo stack.
func (s *Stack) Undo(current document.Document) (document.Document, bool) {
	if len(s.undo) == 0 {
		return current, false
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = appendBounded(s.redo, current, s.capacity)
	return prev, true
}

// Redo is the mirror of Undo.
func (s *Stack) Redo(current document.Document) (document.Document, bool) {
	if len(s.redo) == 0 {
		return current, false
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = appendBounded(s.undo, current, s.capacity)
	return next, true
}

func (s *Stack) CanUndo() bool { return len(s.undo) > 0 }
func (s *Stack) CanRedo() bool { return len(s.redo) > 0 }

func (s *Stack) UndoLen() int { return len(s.undo) }
func (s *Stack) RedoLen() int { return len(s.redo) }

func (s *Stack) Capacity() int { return s.capacity }

// Snapshots returns the undo stack from oldest to newest.
func (s *Stack) Snapshots() []document.Document {
	out := make([]document.Document, len(s.undo))
	copy(out, s.undo)
	return out
}

func (s *Stack) Clear() {
	s.undo = nil
	s.redo = nil
}

func appendBounded(stack []document.Document, doc document.Document, capacity int) []document.Document {
	stack = append(stack, doc)
	if len(stack) > capacity {
		trimmed := make([]document.Document, capacity)
		copy(trimmed, stack[len(stack)-capacity:])
		stack = trimmed
	}
	return stack
}
