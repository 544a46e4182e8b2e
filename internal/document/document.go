// Package document holds the line-unit model of a note. A Document is an
// immutable value: every operation returns a new Document and never touches
// the receiver, so a Document can be kept as a history snapshot as is.
package document

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

var (
	ErrNotFound = errors.New("line unit not found")
	ErrLastUnit = errors.New("document must keep at least one line unit")
)

// ID identifies a line unit for its whole lifetime. IDs are never reused.
type ID uint64

func (id ID) String() string {
	return "u" + strconv.FormatUint(uint64(id), 10)
}

var lastID atomic.Uint64

// NewID returns an identifier that no other unit in the process carries.
func NewID() ID {
	return ID(lastID.Add(1))
}

type LineUnit struct {
	ID      ID
	Content string
}

// Position is a drop hint relative to a target unit.
type Position int

const (
	Before Position = iota
	After
)

func (p Position) String() string {
	if p == After {
		return "after"
	}
	return "before"
}

type Document struct {
	units []LineUnit
}

// New returns a document with a single empty unit.
func New() Document {
	return Document{units: []LineUnit{{ID: NewID()}}}
}

// FromContents builds a document with fresh ids, one unit per entry.
func FromContents(contents []string) Document {
	if len(contents) == 0 {
		return New()
	}
	units := make([]LineUnit, len(contents))
	for i, c := range contents {
		units[i] = LineUnit{ID: NewID(), Content: c}
	}
	return Document{units: units}
}

// Deserialize splits text on newlines into units with fresh ids. Empty text
// yields a single empty unit.
func Deserialize(text string) Document {
	return FromContents(strings.Split(text, "\n"))
}

// Serialize joins unit contents with newlines.
func (d Document) Serialize() string {
	return strings.Join(d.Contents(), "\n")
}

func (d Document) Len() int {
	return len(d.units)
}

// Unit returns the unit at index i in display order.
func (d Document) Unit(i int) LineUnit {
	return d.units[i]
}

// Units returns a copy of the units in display order.
func (d Document) Units() []LineUnit {
	out := make([]LineUnit, len(d.units))
	copy(out, d.units)
	return out
}

func (d Document) IDs() []ID {
	out := make([]ID, len(d.units))
	for i, u := range d.units {
		out[i] = u.ID
	}
	return out
}

func (d Document) Contents() []string {
	out := make([]string, len(d.units))
	for i, u := range d.units {
		out[i] = u.Content
	}
	return out
}

// IndexOf returns the display index of id, or -1.
func (d Document) IndexOf(id ID) int {
	for i, u := range d.units {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func (d Document) Get(id ID) (LineUnit, bool) {
	i := d.IndexOf(id)
	if i < 0 {
		return LineUnit{}, false
	}
	return d.units[i], true
}

func (d Document) Contains(id ID) bool {
	return d.IndexOf(id) >= 0
}

// Prev returns the unit shown directly above id.
func (d Document) Prev(id ID) (ID, bool) {
	i := d.IndexOf(id)
	if i <= 0 {
		return 0, false
	}
	return d.units[i-1].ID, true
}

// Next returns the unit shown directly below id.
func (d Document) Next(id ID) (ID, bool) {
	i := d.IndexOf(id)
	if i < 0 || i >= len(d.units)-1 {
		return 0, false
	}
	return d.units[i+1].ID, true
}

// Equal reports whether both documents hold the same ids with the same
// contents in the same order.
func (d Document) Equal(o Document) bool {
	if len(d.units) != len(o.units) {
		return false
	}
	for i := range d.units {
		if d.units[i] != o.units[i] {
			return false
		}
	}
	return true
}

func notFound(id ID) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (d Document) InsertAfter(after ID, content string) (Document, ID, error) {
	i := d.IndexOf(after)
	if i < 0 {
		return d, 0, notFound(after)
	}
	unit := LineUnit{ID: NewID(), Content: content}
	units := make([]LineUnit, 0, len(d.units)+1)
	units = append(units, d.units[:i+1]...)
	units = append(units, unit)
	units = append(units, d.units[i+1:]...)
	return Document{units: units}, unit.ID, nil
}

func (d Document) Update(id ID, content string) (Document, error) {
	i := d.IndexOf(id)
	if i < 0 {
		return d, notFound(id)
	}
	units := d.Units()
	units[i].Content = content
	return Document{units: units}, nil
}

// Remove deletes id. Removing the only unit fails with ErrLastUnit and
// returns the document unchanged.
func (d Document) Remove(id ID) (Document, error) {
	i := d.IndexOf(id)
	if i < 0 {
		return d, notFound(id)
	}
	if len(d.units) == 1 {
		return d, fmt.Errorf("%w: %s", ErrLastUnit, id)
	}
	units := make([]LineUnit, 0, len(d.units)-1)
	units = append(units, d.units[:i]...)
	units = append(units, d.units[i+1:]...)
	return Document{units: units}, nil
}

// Reorder moves moved to sit directly before or after target. The target
// index is taken after moved has been lifted out, so moving a unit after a
// later target lands exactly behind it.
func (d Document) Reorder(moved, target ID, pos Position) (Document, error) {
	from := d.IndexOf(moved)
	if from < 0 {
		return d, notFound(moved)
	}
	if d.IndexOf(target) < 0 {
		return d, notFound(target)
	}
	if moved == target {
		return d, nil
	}
	unit := d.units[from]
	rest := make([]LineUnit, 0, len(d.units))
	rest = append(rest, d.units[:from]...)
	rest = append(rest, d.units[from+1:]...)

	at := 0
	for i, u := range rest {
		if u.ID == target {
			at = i
			break
		}
	}
	if pos == After {
		at++
	}
	units := make([]LineUnit, 0, len(d.units))
	units = append(units, rest[:at]...)
	units = append(units, unit)
	units = append(units, rest[at:]...)
	return Document{units: units}, nil
}

// Splice replaces the contiguous run between from and to (inclusive, in
// display order regardless of argument order) with fresh units holding
// contents. It returns the new ids in order. A splice that would leave the
// document empty fails with ErrLastUnit.
func (d Document) Splice(from, to ID, contents []string) (Document, []ID, error) {
	i := d.IndexOf(from)
	if i < 0 {
		return d, nil, notFound(from)
	}
	j := d.IndexOf(to)
	if j < 0 {
		return d, nil, notFound(to)
	}
	if j < i {
		i, j = j, i
	}
	if len(contents) == 0 && j-i+1 == len(d.units) {
		return d, nil, fmt.Errorf("%w: splice %s..%s", ErrLastUnit, from, to)
	}
	ids := make([]ID, len(contents))
	units := make([]LineUnit, 0, len(d.units)-(j-i+1)+len(contents))
	units = append(units, d.units[:i]...)
	for k, c := range contents {
		ids[k] = NewID()
		units = append(units, LineUnit{ID: ids[k], Content: c})
	}
	units = append(units, d.units[j+1:]...)
	return Document{units: units}, ids, nil
}
