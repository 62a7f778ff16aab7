package mercury

import (
	"fmt"
	"unicode/utf8"

	"github.com/andreyvit/mercury/strid"
)

// Field is a unit of binary data.
//
// Size returns the number of bytes Write will produce when the field starts
// at pos; it must not depend on heap state. Read consumes exactly the bytes of
// the field from the reader's current position, and Write appends them.
type Field interface {
	Size(pos uint64) uint64
	Read(r *Reader) error
	Write(w *Writer) error
}

type fieldPtr[E any] interface {
	*E
	Field
}

// Bool is a one-byte boolean; any value other than 0 and 1 fails validation.
type Bool bool

func (v *Bool) Size(uint64) uint64 { return 1 }

func (v *Bool) Read(r *Reader) error {
	off := r.Pos()
	b, err := r.ReadByte()
	if err != nil {
		return err
	}
	switch b {
	case 0:
		*v = false
	case 1:
		*v = true
	default:
		return dataErrf(off, ErrValidation, "invalid boolean 0x%02X", b)
	}
	return nil
}

func (v *Bool) Write(w *Writer) error {
	if *v {
		return w.WriteByte(1)
	}
	return w.WriteByte(0)
}

type Int32 int32

func (v *Int32) Size(uint64) uint64 { return 4 }

func (v *Int32) Read(r *Reader) error {
	x, err := r.Int32()
	*v = Int32(x)
	return err
}

func (v *Int32) Write(w *Writer) error {
	w.Int32(int32(*v))
	return nil
}

type Uint16 uint16

func (v *Uint16) Size(uint64) uint64 { return 2 }

func (v *Uint16) Read(r *Reader) error {
	x, err := r.Uint16()
	*v = Uint16(x)
	return err
}

func (v *Uint16) Write(w *Writer) error {
	w.Uint16(uint16(*v))
	return nil
}

type Uint32 uint32

func (v *Uint32) Size(uint64) uint64 { return 4 }

func (v *Uint32) Read(r *Reader) error {
	x, err := r.Uint32()
	*v = Uint32(x)
	return err
}

func (v *Uint32) Write(w *Writer) error {
	w.Uint32(uint32(*v))
	return nil
}

type Uint64 uint64

func (v *Uint64) Size(uint64) uint64 { return 8 }

func (v *Uint64) Read(r *Reader) error {
	x, err := r.Uint64()
	*v = Uint64(x)
	return err
}

func (v *Uint64) Write(w *Writer) error {
	w.Uint64(uint64(*v))
	return nil
}

type Float32 float32

func (v *Float32) Size(uint64) uint64 { return 4 }

func (v *Float32) Read(r *Reader) error {
	x, err := r.Float32()
	*v = Float32(x)
	return err
}

func (v *Float32) Write(w *Writer) error {
	w.Float32(float32(*v))
	return nil
}

// StrID is a hashed string stored as a u64.
type StrID strid.ID

func (v *StrID) Size(uint64) uint64 { return 8 }

func (v *StrID) Read(r *Reader) error {
	x, err := r.Uint64()
	*v = StrID(x)
	return err
}

func (v *StrID) Write(w *Writer) error {
	w.Uint64(uint64(*v))
	return nil
}

func (v StrID) String() string {
	return strid.ID(v).String()
}

// Vector2, Vector3 and Vector4 are packed float32 tuples.
type (
	Vector2 [2]float32
	Vector3 [3]float32
	Vector4 [4]float32
)

func (v *Vector2) Size(uint64) uint64    { return 8 }
func (v *Vector2) Read(r *Reader) error  { return readFloats(r, v[:]) }
func (v *Vector2) Write(w *Writer) error { return writeFloats(w, v[:]) }
func (v *Vector3) Size(uint64) uint64    { return 12 }
func (v *Vector3) Read(r *Reader) error  { return readFloats(r, v[:]) }
func (v *Vector3) Write(w *Writer) error { return writeFloats(w, v[:]) }
func (v *Vector4) Size(uint64) uint64    { return 16 }
func (v *Vector4) Read(r *Reader) error  { return readFloats(r, v[:]) }
func (v *Vector4) Write(w *Writer) error { return writeFloats(w, v[:]) }

func readFloats(r *Reader, dst []float32) error {
	for i := range dst {
		x, err := r.Float32()
		if err != nil {
			return err
		}
		dst[i] = x
	}
	return nil
}

func writeFloats(w *Writer, src []float32) error {
	for _, x := range src {
		w.Float32(x)
	}
	return nil
}

// MaxStringLen bounds the length of a NUL-terminated string.
const MaxStringLen = 8192

// String is a NUL-terminated UTF-8 string.
type String string

func (v *String) Size(uint64) uint64 { return uint64(len(*v)) + 1 }

func (v *String) Read(r *Reader) error {
	off := r.Pos()
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		if b == 0 {
			break
		}
		if len(buf) == MaxStringLen {
			return dataErrf(off, ErrValidation, "string is longer than %d bytes", MaxStringLen)
		}
		buf = append(buf, b)
	}
	if !utf8.Valid(buf) {
		return dataErrf(off, ErrValidation, "string is not valid UTF-8: %s", hexstr(buf))
	}
	*v = String(buf)
	return nil
}

func (v *String) Write(w *Writer) error {
	if len(*v) > MaxStringLen {
		return dataErrf(w.Pos(), ErrInvariant, "string is longer than %d bytes", MaxStringLen)
	}
	for i := 0; i < len(*v); i++ {
		if (*v)[i] == 0 {
			return dataErrf(w.Pos(), ErrInvariant, "string %q contains NUL at %d", string(*v), i)
		}
	}
	w.Write([]byte(*v))
	return w.WriteByte(0)
}

// Bytes is a raw blob whose length comes from its surroundings. When Length
// is nil, reading consumes the rest of the stream.
type Bytes struct {
	Data   []byte
	Length func() int
}

func (v *Bytes) Size(uint64) uint64 { return uint64(len(v.Data)) }

func (v *Bytes) Read(r *Reader) error {
	var n int
	if v.Length != nil {
		n = v.Length()
	} else if length, ok := r.Len(); ok {
		n = int(length - r.Pos())
	} else {
		return r.RequireSeekable("reading an unbounded blob")
	}
	if n < 0 {
		return dataErrf(r.Pos(), ErrValidation, "negative blob length %d", n)
	}
	data, err := r.Bytes(n)
	if err != nil {
		return err
	}
	v.Data = data
	return nil
}

func (v *Bytes) Write(w *Writer) error {
	w.Write(v.Data)
	return nil
}

func (v *Bytes) Description() string {
	return fmt.Sprintf("%d bytes", len(v.Data))
}
