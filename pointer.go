package mercury

import (
	"fmt"
	"log/slog"
)

// Pointer is a u64 absolute address of an object stored on the heap; 0 is
// null. Several pointers to the same Target share one heap copy unless
// Unique is set.
type Pointer[E any, P fieldPtr[E]] struct {
	Target P

	// New creates blank targets while reading. Defaults to new(E).
	New func() P

	StartAlign uint64
	EndAlign   uint64
	Unique     bool
	Desc       string
}

func (p *Pointer[E, P]) Size(uint64) uint64 { return 8 }

func (p *Pointer[E, P]) Read(r *Reader) error {
	off := r.Pos()
	addr, err := r.Uint64()
	if err != nil {
		return err
	}
	if addr == 0 {
		p.Target = nil
		return nil
	}
	target, err := resolve(r, addr, p.EndAlign, p.newTarget)
	if err != nil {
		return dataErrf(off, err, "pointer to 0x%X", addr)
	}
	p.Target = target
	return nil
}

func (p *Pointer[E, P]) Write(w *Writer) error {
	if p.Target == nil || p.Target.Size(0) == 0 {
		w.Uint64(0)
		return nil
	}
	var addr uint64
	if p.Unique {
		var err error
		addr, err = w.Heap.Allocate(p.Target, p.StartAlign, p.EndAlign, p.Desc)
		if err != nil {
			return err
		}
	} else {
		addr = w.Heap.AddressOrAllocate(p.Target, p.StartAlign, p.EndAlign, p.Desc)
	}
	w.Uint64(addr)
	return nil
}

func (p *Pointer[E, P]) newTarget() P {
	if p.New != nil {
		return p.New()
	}
	return P(new(E))
}

// resolve returns the object at addr, reading it with a fresh instance from
// newFn unless the heap already knows it.
func resolve[E any, P fieldPtr[E]](r *Reader, addr, endAlign uint64, newFn func() P) (P, error) {
	if f, ok := r.Heap.Lookup(addr); ok {
		target, ok := f.(P)
		if !ok {
			return nil, dataErrf(addr, ErrInvariant, "object at 0x%X is %T, wanted %T", addr, f, target)
		}
		if r.verbose {
			r.logger.LogAttrs(r.ctx, slog.LevelDebug, "mercury: pointer reuses heap object", addrAttr("addr", addr), slog.String("type", fmt.Sprintf("%T", f)))
		}
		return target, nil
	}
	target := newFn()
	if err := r.ReadAt(addr, target, endAlign); err != nil {
		return nil, err
	}
	return target, nil
}
