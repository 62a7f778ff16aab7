package mercury

import (
	"bytes"
	"io"
	"log/slog"
)

// Format is the root field of a file.
type Format interface {
	Field
	FormatName() string
}

// BeforeWriter is implemented by formats that adjust themselves or the heap
// before their fields are written, like moving the heap past a header.
type BeforeWriter interface {
	BeforeWrite(w *Writer) error
}

// AfterWriter is implemented by formats that patch their output once the heap
// has been flushed.
type AfterWriter interface {
	AfterWrite(w *Writer) error
}

// Read reads f from src. For seekable streams, it fails unless the format and
// the objects it points to account for every byte of the stream.
func Read(src io.Reader, f Format, opt Options) error {
	r, err := NewReader(src, opt)
	if err != nil {
		return err
	}
	if err := f.Read(r); err != nil {
		return err
	}
	if err := r.Err(); err != nil {
		return err
	}

	if length, ok := r.Len(); ok {
		end := max(r.Pos(), r.Heap.HighestReadAddress())
		if end != length {
			r.logger.LogAttrs(r.ctx, slog.LevelWarn, "mercury: unread data", slog.String("format", f.FormatName()), addrAttr("end", end), addrAttr("length", length))
			return dataErrf(end, ErrValidation, "%s: %d bytes left to be read", f.FormatName(), int64(length)-int64(end))
		}
	} else {
		eof, err := r.atEOF()
		if err != nil {
			return err
		}
		if !eof {
			return dataErrf(r.Pos(), ErrValidation, "%s: data left to be read", f.FormatName())
		}
	}
	return nil
}

// Unmarshal reads f from data.
func Unmarshal(data []byte, f Format, opt Options) error {
	return Read(bytes.NewReader(data), f, opt)
}

// Marshal writes f. The heap starts right after the format's own fields and
// is flushed once they are written.
func Marshal(f Format, opt Options) ([]byte, error) {
	w := NewWriter(opt)
	if err := marshal(w, f); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Write marshals f and copies the result to dst.
func Write(dst io.Writer, f Format, opt Options) error {
	w := NewWriter(opt)
	w.out.Buf = writeBufferPool.Get().([]byte)[:0]
	defer func() {
		releaseWriteBuffer(w.out.Buf)
	}()
	if err := marshal(w, f); err != nil {
		return err
	}
	_, err := dst.Write(w.Bytes())
	return err
}

func marshal(w *Writer, f Format) error {
	size := f.Size(0)
	w.out.EnsureExtra(int(size))
	w.Heap.Reset(size)
	if bw, ok := f.(BeforeWriter); ok {
		if err := bw.BeforeWrite(w); err != nil {
			return err
		}
	}

	w.PushRange(f.FormatName())
	if err := f.Write(w); err != nil {
		return err
	}
	if w.Heap.TotalAllocated() > 0 {
		if err := w.Heap.Flush(w); err != nil {
			return err
		}
	}
	if err := w.PopRange(); err != nil {
		return err
	}

	if aw, ok := f.(AfterWriter); ok {
		if err := aw.AfterWrite(w); err != nil {
			return err
		}
	}
	if w.Mapper != nil {
		w.Mapper.finish(w.Pos())
	}
	if w.verbose {
		w.logger.LogAttrs(w.ctx, slog.LevelDebug, "mercury: wrote", slog.String("format", f.FormatName()), slog.Int("size", len(w.Bytes())), slog.Int("allocations", len(w.Heap.Allocations())))
	}
	return w.Err()
}
