package mercury

import (
	"encoding/binary"
	"io"
	"math"
)

func ensureCapacity(buf []byte, minCap int) []byte {
	c := cap(buf)
	if minCap > c {
		if c < 16 {
			c = 16
		}
		for minCap > c {
			c <<= 1
		}
		old := buf
		buf = make([]byte, len(old), c)
		copy(buf, old)
	}
	return buf
}

func grow(buf []byte, n int) (int, []byte) {
	off := len(buf)
	newLen := off + n
	buf = ensureCapacity(buf, newLen)
	return off, buf[:newLen]
}

func appendRaw(buf []byte, chunk []byte) []byte {
	n := len(chunk)
	off, buf := grow(buf, n)
	copy(buf[off:], chunk)
	return buf
}

// bytesBuilder accumulates little-endian output.
type bytesBuilder struct {
	Buf []byte
}

var _ io.Writer = (*bytesBuilder)(nil)

func (bb *bytesBuilder) EnsureExtra(n int) {
	bb.Buf = ensureCapacity(bb.Buf, len(bb.Buf)+n)
}

func (bb *bytesBuilder) Grow(n int) (off int) {
	off, bb.Buf = grow(bb.Buf, n)
	return
}

func (bb *bytesBuilder) Write(b []byte) (int, error) {
	bb.Buf = appendRaw(bb.Buf, b)
	return len(b), nil
}

func (bb *bytesBuilder) WriteByte(v byte) error {
	bb.AppendByte(v)
	return nil
}

func (bb *bytesBuilder) AppendByte(v byte) {
	off := bb.Grow(1)
	bb.Buf[off] = v
}

func (bb *bytesBuilder) AppendRepeated(v byte, n int) {
	off := bb.Grow(n)
	for i := off; i < off+n; i++ {
		bb.Buf[i] = v
	}
}

func (bb *bytesBuilder) AppendUint16(v uint16) {
	off := bb.Grow(2)
	binary.LittleEndian.PutUint16(bb.Buf[off:], v)
}

func (bb *bytesBuilder) AppendUint32(v uint32) {
	off := bb.Grow(4)
	binary.LittleEndian.PutUint32(bb.Buf[off:], v)
}

func (bb *bytesBuilder) AppendUint64(v uint64) {
	off := bb.Grow(8)
	binary.LittleEndian.PutUint64(bb.Buf[off:], v)
}

func (bb *bytesBuilder) AppendFloat32(v float32) {
	bb.AppendUint32(math.Float32bits(v))
}

// PutUint32At overwrites four already written bytes.
func (bb *bytesBuilder) PutUint32At(off int, v uint32) {
	binary.LittleEndian.PutUint32(bb.Buf[off:off+4], v)
}

// padding returns how many bytes take pos to the next multiple of align.
// Alignments of 0 and 1 never pad.
func padding(pos, align uint64) uint64 {
	if align <= 1 {
		return 0
	}
	return (align - pos%align) % align
}

// AlignUp rounds pos up to the next multiple of align.
func AlignUp(pos, align uint64) uint64 {
	return pos + padding(pos, align)
}
