package selection

import "github.com/Rancor38/Jot-Down/internal/document"

// Set is an insertion-ordered set of unit ids. The first inserted member is
// the anchor for range gestures. Methods never modify the receiver.
type Set struct {
	ids []document.ID
}

func NewSet(ids ...document.ID) Set {
	var s Set
	for _, id := range ids {
		s = s.Add(id)
	}
	return s
}

func (s Set) Len() int { return len(s.ids) }

func (s Set) Has(id document.ID) bool {
	for _, x := range s.ids {
		if x == id {
			return true
		}
	}
	return false
}

// IDs returns the members in insertion order.
func (s Set) IDs() []document.ID {
	out := make([]document.ID, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s Set) Anchor() (document.ID, bool) {
	if len(s.ids) == 0 {
		return 0, false
	}
	return s.ids[0], true
}

func (s Set) Add(id document.ID) Set {
	if s.Has(id) {
		return s
	}
	ids := make([]document.ID, len(s.ids), len(s.ids)+1)
	copy(ids, s.ids)
	return Set{ids: append(ids, id)}
}

func (s Set) Remove(id document.ID) Set {
	ids := make([]document.ID, 0, len(s.ids))
	for _, x := range s.ids {
		if x != id {
			ids = append(ids, x)
		}
	}
	return Set{ids: ids}
}

func (s Set) Toggle(id document.ID) Set {
	if s.Has(id) {
		return s.Remove(id)
	}
	return s.Add(id)
}

// InOrder returns the members present in doc, in display order.
func (s Set) InOrder(doc document.Document) []document.ID {
	out := make([]document.ID, 0, len(s.ids))
	for _, id := range doc.IDs() {
		if s.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

// Prune drops members that are no longer in doc.
func (s Set) Prune(doc document.Document) Set {
	ids := make([]document.ID, 0, len(s.ids))
	for _, id := range s.ids {
		if doc.Contains(id) {
			ids = append(ids, id)
		}
	}
	return Set{ids: ids}
}

// rangeSet selects the closed display-order range between a and b.
func rangeSet(doc document.Document, a, b document.ID) Set {
	i, j := doc.IndexOf(a), doc.IndexOf(b)
	if i < 0 || j < 0 {
		return Set{}
	}
	if j < i {
		i, j = j, i
	}
	ids := make([]document.ID, 0, j-i+1)
	for k := i; k <= j; k++ {
		ids = append(ids, doc.Unit(k).ID)
	}
	return Set{ids: ids}
}
