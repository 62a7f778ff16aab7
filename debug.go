package mercury

import (
	"fmt"
	"strings"
)

type DumpFlags uint64

const (
	DumpRanges = DumpFlags(1 << iota)
	DumpEmptyRanges
	DumpAllocations

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)

	indentStep = "  "
)

var dumpSep = strings.Repeat("-", 60)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump renders the range tree as indented text, one range per line.
func (m *DataMapper) Dump(f DumpFlags) string {
	var buf strings.Builder
	dumpRange(&buf, "", f, m.root)
	return buf.String()
}

func dumpRange(w *strings.Builder, indent string, f DumpFlags, r *DataRange) {
	if r.Start == r.End && !f.Contains(DumpEmptyRanges) && r.parent != nil {
		return
	}
	fmt.Fprintf(w, "%s%08X..%08X (%d) %s\n", indent, r.Start, r.End, r.End-r.Start, r.Description)
	for _, c := range r.Children {
		dumpRange(w, indent+indentStep, f, c)
	}
}

// Dump renders the allocations of the current pass.
func (h *Heap) Dump(f DumpFlags) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "heap: start = 0x%X, allocated = %d, highest read = 0x%X\n", h.start, h.total, h.highestRead)
	if f.Contains(DumpAllocations) {
		fmt.Fprintln(&buf, dumpSep)
		for i, a := range h.allocs {
			fmt.Fprintf(&buf, "%d. %08X..%08X align %d/%d %s\n", i+1, a.Addr, a.End(), a.StartAlign, a.EndAlign, a.Desc)
		}
	}
	return buf.String()
}
