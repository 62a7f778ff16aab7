package mercury

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
)

// Heap assigns addresses to out-of-line objects while writing and maps
// addresses back to objects while reading. Each pass owns its own Heap.
//
// Writes are two-phase: Allocate and AddressOrAllocate only reserve space,
// and Flush emits the reserved objects in allocation order once the section
// that referenced them is complete. Objects are identified by reference, so
// every Field placed on the heap must be a pointer.
type Heap struct {
	start       uint64
	total       uint64
	highestRead uint64
	paddingByte byte

	addrs   map[Field]uint64
	objects map[uint64]Field
	allocs  []*Allocation
	flushed int

	ctx     context.Context
	logger  *slog.Logger
	verbose bool
}

// Allocation is a reserved range of the heap.
type Allocation struct {
	Addr       uint64
	Size       uint64
	StartAlign uint64
	EndAlign   uint64
	Field      Field
	Desc       string
}

// End returns the address right after the blob, before end padding.
func (a *Allocation) End() uint64 {
	return a.Addr + a.Size
}

func NewHeap(start uint64, opt Options) *Heap {
	opt = opt.withDefaults()
	h := &Heap{
		paddingByte: opt.PaddingByte,
		ctx:         opt.Context,
		logger:      opt.Logger,
		verbose:     opt.Verbose,
	}
	h.Reset(start)
	return h
}

// Reset forgets all allocations and registrations and starts allocating at
// start.
func (h *Heap) Reset(start uint64) {
	h.start = start
	h.total = 0
	h.highestRead = 0
	h.addrs = make(map[Field]uint64)
	h.objects = make(map[uint64]Field)
	h.allocs = nil
	h.flushed = 0
}

func (h *Heap) Start() uint64 { return h.start }

// TotalAllocated is the number of bytes reserved, padding included.
func (h *Heap) TotalAllocated() uint64 { return h.total }

// HighestReadAddress is the end of the furthest object read through the heap.
func (h *Heap) HighestReadAddress() uint64 { return h.highestRead }

// Allocations returns the reservations made so far, in address order.
func (h *Heap) Allocations() []*Allocation { return h.allocs }

// Allocate reserves space for f. It fails if f already has an address in this
// pass.
func (h *Heap) Allocate(f Field, startAlign, endAlign uint64, desc string) (uint64, error) {
	mustBeReference(f)
	if addr, ok := h.addrs[f]; ok {
		return 0, dataErrf(addr, ErrInvariant, "%s is already allocated", describeOr(f, desc))
	}
	return h.allocate(f, startAlign, endAlign, desc), nil
}

// AddressOrAllocate returns the address f was given earlier in this pass, or
// reserves space for it.
func (h *Heap) AddressOrAllocate(f Field, startAlign, endAlign uint64, desc string) uint64 {
	mustBeReference(f)
	if addr, ok := h.addrs[f]; ok {
		return addr
	}
	return h.allocate(f, startAlign, endAlign, desc)
}

// AddressOf returns the address reserved for f, if any.
func (h *Heap) AddressOf(f Field) (uint64, bool) {
	addr, ok := h.addrs[f]
	return addr, ok
}

func (h *Heap) allocate(f Field, startAlign, endAlign uint64, desc string) uint64 {
	addr := h.start + h.total
	addr += padding(addr, startAlign)
	size := f.Size(addr)
	end := AlignUp(addr+size, endAlign)

	a := &Allocation{
		Addr:       addr,
		Size:       size,
		StartAlign: startAlign,
		EndAlign:   endAlign,
		Field:      f,
		Desc:       describeOr(f, desc),
	}
	h.allocs = append(h.allocs, a)
	h.addrs[f] = addr
	h.total = end - h.start

	if h.verbose {
		h.logger.LogAttrs(h.ctx, slog.LevelDebug, "mercury: heap allocate", addrAttr("addr", addr), slog.Uint64("size", size), slog.String("desc", a.Desc))
	}
	return addr
}

// Flush writes every allocation not yet written, padding up to each address.
// Objects allocated while flushing are written in the same call.
func (h *Heap) Flush(w *Writer) error {
	for h.flushed < len(h.allocs) {
		if err := w.Err(); err != nil {
			return err
		}
		a := h.allocs[h.flushed]
		h.flushed++

		pos := w.Pos()
		if pos > a.Addr {
			return dataErrf(pos, ErrInvariant, "heap allocation %s at 0x%X starts behind the write position", a.Desc, a.Addr)
		}
		w.Pad(a.Addr-pos, h.paddingByte)

		w.PushRange(fmt.Sprintf("Heap allocation at 0x%016X: %s", a.Addr, a.Desc))
		if err := a.Field.Write(w); err != nil {
			return dataErrf(a.Addr, err, "writing heap allocation %s", a.Desc)
		}
		if end := w.Pos(); end != a.End() {
			return dataErrf(a.Addr, ErrInvariant, "heap allocation %s wrote %d bytes, reserved %d", a.Desc, end-a.Addr, a.Size)
		}
		if err := w.PopRange(); err != nil {
			return err
		}
		w.Align(a.EndAlign, h.paddingByte)

		if h.verbose {
			h.logger.LogAttrs(h.ctx, slog.LevelDebug, "mercury: heap flushed", addrAttr("addr", a.Addr), slog.String("desc", a.Desc))
		}
	}
	return nil
}

// Lookup returns the object read at addr earlier in this pass. Address 0 is
// null and never resolves.
func (h *Heap) Lookup(addr uint64) (Field, bool) {
	if addr == 0 {
		return nil, false
	}
	f, ok := h.objects[addr]
	return f, ok
}

// Register records that f lives at addr. Later lookups of addr return f.
func (h *Heap) Register(addr uint64, f Field) {
	h.objects[addr] = f
}

func (h *Heap) noteRead(end, endAlign uint64) {
	end = AlignUp(end, endAlign)
	if end > h.highestRead {
		h.highestRead = end
	}
}

func mustBeReference(f Field) {
	if f == nil {
		panic("mercury: nil field on the heap")
	}
	if reflect.TypeOf(f).Kind() != reflect.Pointer {
		panic(fmt.Errorf("mercury: heap objects are identified by reference, %T is not a pointer", f))
	}
}
