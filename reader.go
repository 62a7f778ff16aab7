package mercury

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
)

// Reader is the read-side cursor handed to every Field. It tracks the
// absolute stream position and owns the heap table of the current pass.
type Reader struct {
	ctx     context.Context
	src     io.Reader
	seeker  io.Seeker
	pos     uint64
	length  uint64
	logger  *slog.Logger
	verbose bool
	scratch [8]byte

	Heap *Heap
}

// NewReader wraps src. When src is an io.ReadSeeker, the reader can follow
// pointers and knows the stream length; otherwise pointer-chasing fields fail
// with ErrUnsupported.
func NewReader(src io.Reader, opt Options) (*Reader, error) {
	opt = opt.withDefaults()
	r := &Reader{
		ctx:     opt.Context,
		src:     src,
		logger:  opt.Logger,
		verbose: opt.Verbose,
		Heap:    NewHeap(0, opt),
	}
	if s, ok := src.(io.Seeker); ok {
		cur, err := s.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, fmt.Errorf("mercury: determining stream position: %w", err)
		}
		end, err := s.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, fmt.Errorf("mercury: determining stream length: %w", err)
		}
		if _, err := s.Seek(cur, io.SeekStart); err != nil {
			return nil, fmt.Errorf("mercury: restoring stream position: %w", err)
		}
		r.seeker = s
		r.pos = uint64(cur)
		r.length = uint64(end)
	}
	return r, nil
}

func (r *Reader) Context() context.Context {
	return r.ctx
}

// Err reports cancellation of the pass.
func (r *Reader) Err() error {
	return r.ctx.Err()
}

func (r *Reader) Pos() uint64 {
	return r.pos
}

// Len returns the stream length, if the stream is seekable.
func (r *Reader) Len() (uint64, bool) {
	return r.length, r.seeker != nil
}

func (r *Reader) Seekable() bool {
	return r.seeker != nil
}

// RequireSeekable fails with ErrUnsupported unless the stream can seek.
func (r *Reader) RequireSeekable(what string) error {
	if r.seeker == nil {
		return dataErrf(r.pos, ErrUnsupported, "%s requires a seekable stream", what)
	}
	return nil
}

// CheckAddress verifies that addr lies inside the stream.
func (r *Reader) CheckAddress(addr uint64) error {
	if err := r.RequireSeekable("following a pointer"); err != nil {
		return err
	}
	if addr >= r.length {
		return dataErrf(r.pos, ErrTruncated, "address 0x%X is beyond the end of the stream (length 0x%X)", addr, r.length)
	}
	return nil
}

// Seek moves to an absolute position. Seeking to the very end is allowed.
func (r *Reader) Seek(pos uint64) error {
	if err := r.RequireSeekable("seeking"); err != nil {
		return err
	}
	if pos > r.length {
		return dataErrf(r.pos, ErrTruncated, "cannot seek to 0x%X past the end of the stream (length 0x%X)", pos, r.length)
	}
	if pos > math.MaxInt64 {
		return dataErrf(r.pos, ErrTruncated, "cannot seek to 0x%X", pos)
	}
	if _, err := r.seeker.Seek(int64(pos), io.SeekStart); err != nil {
		return dataErrf(r.pos, err, "seek to 0x%X failed", pos)
	}
	r.pos = pos
	return nil
}

// ReadAt reads f at addr as an out-of-line object and returns to the current
// position. f is registered in the heap before it is read, so pointers inside
// f that lead back to addr resolve to f itself.
func (r *Reader) ReadAt(addr uint64, f Field, endAlign uint64) error {
	if err := r.CheckAddress(addr); err != nil {
		return err
	}
	ret := r.pos
	if err := r.Seek(addr); err != nil {
		return err
	}
	if r.verbose {
		r.logger.LogAttrs(r.ctx, slog.LevelDebug, "mercury: reading heap object", addrAttr("addr", addr), slog.String("type", describe(f)))
	}
	r.Heap.Register(addr, f)
	if err := f.Read(r); err != nil {
		return err
	}
	r.Heap.noteRead(r.pos, endAlign)
	return r.Seek(ret)
}

func (r *Reader) ReadFull(buf []byte) error {
	n, err := io.ReadFull(r.src, buf)
	off := r.pos
	r.pos += uint64(n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return &DataError{Off: off, Len: len(buf), Err: ErrTruncated, Msg: fmt.Sprintf("wanted %d bytes, got %d", len(buf), n)}
		}
		return dataErrf(off, err, "read failed")
	}
	return nil
}

// Bytes reads n bytes into a new slice.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if r.seeker != nil {
		if rem := r.length - min(r.pos, r.length); uint64(n) > rem {
			return nil, &DataError{Off: r.pos, Len: n, Err: ErrTruncated, Msg: fmt.Sprintf("wanted %d bytes, %d remaining", n, rem)}
		}
	}
	buf := make([]byte, n)
	if err := r.ReadFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (r *Reader) ReadByte() (byte, error) {
	if br, ok := r.src.(io.ByteReader); ok {
		b, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, &DataError{Off: r.pos, Len: 1, Err: ErrTruncated, Msg: "wanted 1 byte, got 0"}
			}
			return 0, dataErrf(r.pos, err, "read failed")
		}
		r.pos++
		return b, nil
	}
	if err := r.ReadFull(r.scratch[:1]); err != nil {
		return 0, err
	}
	return r.scratch[0], nil
}

func (r *Reader) Uint16() (uint16, error) {
	if err := r.ReadFull(r.scratch[:2]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(r.scratch[:2]), nil
}

func (r *Reader) Uint32() (uint32, error) {
	if err := r.ReadFull(r.scratch[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.scratch[:4]), nil
}

func (r *Reader) Uint64() (uint64, error) {
	if err := r.ReadFull(r.scratch[:8]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(r.scratch[:8]), nil
}

func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	return math.Float32frombits(v), err
}

// atEOF reports whether a non-seekable stream has no more data.
func (r *Reader) atEOF() (bool, error) {
	_, err := io.ReadFull(r.src, r.scratch[:1])
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	if err != nil {
		return false, dataErrf(r.pos, err, "read failed")
	}
	return false, nil
}
