package mercury

import (
	"fmt"
)

// DataRange is a node of the range map: the span a field occupied in the
// written stream, with the spans of its parts as children.
type DataRange struct {
	Description string       `json:"description" msgpack:"description"`
	Start       uint64       `json:"start" msgpack:"start"`
	End         uint64       `json:"end" msgpack:"end"`
	Children    []*DataRange `json:"children,omitempty" msgpack:"children,omitempty"`

	parent *DataRange
}

// Contains reports whether pos falls within [Start, End).
func (r *DataRange) Contains(pos uint64) bool {
	return pos >= r.Start && pos < r.End
}

// DataMapper records the ranges of fields while a pass writes them. Ranges
// are never read back; they exist for debugging and tooling.
type DataMapper struct {
	root    *DataRange
	current *DataRange
}

func NewDataMapper() *DataMapper {
	root := &DataRange{Description: "Root"}
	return &DataMapper{root: root, current: root}
}

func (m *DataMapper) Root() *DataRange {
	return m.root
}

// PushRange opens a child of the current range.
func (m *DataMapper) PushRange(desc string, start uint64) {
	r := &DataRange{Description: desc, Start: start, End: start, parent: m.current}
	m.current.Children = append(m.current.Children, r)
	m.current = r
}

// PopRange closes the current range at end.
func (m *DataMapper) PopRange(end uint64) error {
	if m.current == m.root {
		return fmt.Errorf("%w: cannot pop the root range", ErrInvariant)
	}
	m.current.End = end
	m.current = m.current.parent
	return nil
}

// finish sets the end of the root range once the pass is complete.
func (m *DataMapper) finish(end uint64) {
	m.root.End = end
}

// ContainingRanges returns the chain of ranges containing pos, outermost
// first.
func (m *DataMapper) ContainingRanges(pos uint64) []*DataRange {
	var chain []*DataRange
	for r := m.root; r != nil && r.Contains(pos); {
		chain = append(chain, r)
		var next *DataRange
		for _, c := range r.Children {
			if c.Contains(pos) {
				next = c
			}
		}
		r = next
	}
	return chain
}
