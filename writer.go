package mercury

import (
	"context"
	"log/slog"
)

// Writer is the write-side cursor handed to every Field. Output accumulates
// in memory so that headers can be patched once the heap size is known.
type Writer struct {
	ctx     context.Context
	out     bytesBuilder
	logger  *slog.Logger
	verbose bool

	Heap   *Heap
	Mapper *DataMapper
}

func NewWriter(opt Options) *Writer {
	opt = opt.withDefaults()
	return &Writer{
		ctx:     opt.Context,
		logger:  opt.Logger,
		verbose: opt.Verbose,
		Heap:    NewHeap(0, opt),
		Mapper:  opt.Mapper,
	}
}

func (w *Writer) Context() context.Context {
	return w.ctx
}

// Err reports cancellation of the pass.
func (w *Writer) Err() error {
	return w.ctx.Err()
}

func (w *Writer) Pos() uint64 {
	return uint64(len(w.out.Buf))
}

// Bytes returns everything written so far. The slice is owned by the writer.
func (w *Writer) Bytes() []byte {
	return w.out.Buf
}

func (w *Writer) Write(b []byte) (int, error) {
	return w.out.Write(b)
}

func (w *Writer) WriteByte(v byte) error {
	w.out.AppendByte(v)
	return nil
}

func (w *Writer) Uint16(v uint16) {
	w.out.AppendUint16(v)
}

func (w *Writer) Uint32(v uint32) {
	w.out.AppendUint32(v)
}

func (w *Writer) Uint64(v uint64) {
	w.out.AppendUint64(v)
}

func (w *Writer) Int32(v int32) {
	w.out.AppendUint32(uint32(v))
}

func (w *Writer) Float32(v float32) {
	w.out.AppendFloat32(v)
}

// Pad writes n copies of b.
func (w *Writer) Pad(n uint64, b byte) {
	if n > 0 {
		w.out.AppendRepeated(b, int(n))
	}
}

// Align pads with b until the position is a multiple of align.
func (w *Writer) Align(align uint64, b byte) {
	w.Pad(padding(w.Pos(), align), b)
}

// PatchUint32 overwrites a value written earlier in the pass.
func (w *Writer) PatchUint32(off uint64, v uint32) error {
	if off+4 > w.Pos() {
		return dataErrf(off, ErrInvariant, "cannot patch 4 bytes at 0x%X, only 0x%X written", off, w.Pos())
	}
	w.out.PutUint32At(int(off), v)
	return nil
}

// PushRange opens a diagnostic range at the current position. It is a no-op
// without a Mapper.
func (w *Writer) PushRange(desc string) {
	if w.Mapper != nil {
		w.Mapper.PushRange(desc, w.Pos())
	}
}

// PopRange closes the innermost range opened by PushRange.
func (w *Writer) PopRange() error {
	if w.Mapper != nil {
		return w.Mapper.PopRange(w.Pos())
	}
	return nil
}
