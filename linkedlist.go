package mercury

// LinkedList stores its entries on the heap, connected by a chain of nodes.
// Each node is (u64 target, u64 next); target 0 is a hole (a nil entry) and
// next 0 ends the chain.
//
// When written, the nodes are laid out back to back, so the field occupies
// one 16-byte node per entry. An empty list is written as a single (0, 0)
// node, and a chain consisting of one (0, 0) node reads back as empty.
// A list holding a single nil entry has the same encoding, so it also reads
// back as empty.
//
// Reading requires a seekable stream because the chain may jump anywhere.
// Afterwards the cursor sits just past the contiguous run of nodes that
// starts at the field, or past the first node if the chain jumped away.
type LinkedList[E any, P fieldPtr[E]] struct {
	Entries []P

	// New creates blank entries while reading. Defaults to new(E).
	New func() P

	StartAlign uint64
	EndAlign   uint64
	Desc       string
}

const linkedListNodeSize = 16

func (l *LinkedList[E, P]) Size(uint64) uint64 {
	return linkedListNodeSize * uint64(max(len(l.Entries), 1))
}

func (l *LinkedList[E, P]) Read(r *Reader) error {
	if err := r.RequireSeekable("a linked list"); err != nil {
		return err
	}
	start := r.Pos()
	end := start + linkedListNodeSize
	contiguous := true
	var entries []P
	for node := start; ; {
		if err := r.Err(); err != nil {
			return err
		}
		target, err := r.Uint64()
		if err != nil {
			return err
		}
		next, err := r.Uint64()
		if err != nil {
			return err
		}

		if target == 0 && next == 0 && node == start {
			break
		}
		if target == 0 {
			entries = append(entries, nil)
		} else {
			entry, err := resolve(r, target, l.EndAlign, l.newEntry)
			if err != nil {
				return dataErrf(node, err, "linked list entry %d", len(entries))
			}
			entries = append(entries, entry)
		}

		if contiguous {
			end = node + linkedListNodeSize
		}
		if next == 0 {
			break
		}
		if next != node+linkedListNodeSize {
			contiguous = false
		}
		if err := r.CheckAddress(next); err != nil {
			return dataErrf(node, err, "linked list node %d", len(entries))
		}
		if err := r.Seek(next); err != nil {
			return err
		}
		node = next
	}
	l.Entries = entries
	return r.Seek(end)
}

func (l *LinkedList[E, P]) Write(w *Writer) error {
	if len(l.Entries) == 0 {
		w.Uint64(0)
		w.Uint64(0)
		return nil
	}
	for i, entry := range l.Entries {
		var target uint64
		if entry != nil {
			target = w.Heap.AddressOrAllocate(entry, l.StartAlign, l.EndAlign, l.Desc)
		}
		w.Uint64(target)
		if i == len(l.Entries)-1 {
			w.Uint64(0)
		} else {
			w.Uint64(w.Pos() + 8)
		}
	}
	return nil
}

func (l *LinkedList[E, P]) newEntry() P {
	if l.New != nil {
		return l.New()
	}
	return P(new(E))
}
