package mercury

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/andreyvit/mercury/strid"
)

// LayoutBuilder describes the fields of T. Every method appends one field.
type LayoutBuilder[T any] struct {
	layout *Layout[T]
}

// Field appends a field obtained from each instance by bind.
func (b *LayoutBuilder[T]) Field(desc string, bind func(s *T) Field) *LayoutBuilder[T] {
	if desc == "" {
		panic(fmt.Errorf("%s: field %d has no description", b.layout.name, len(b.layout.fields)))
	}
	b.layout.fields = append(b.layout.fields, layoutField[T]{desc, bind})
	return b
}

func (b *LayoutBuilder[T]) Bool(desc string, get func(s *T) *bool) *LayoutBuilder[T] {
	return b.Field(desc, func(s *T) Field { return (*Bool)(get(s)) })
}

func (b *LayoutBuilder[T]) Int32(desc string, get func(s *T) *int32) *LayoutBuilder[T] {
	return b.Field(desc, func(s *T) Field { return (*Int32)(get(s)) })
}

func (b *LayoutBuilder[T]) Uint16(desc string, get func(s *T) *uint16) *LayoutBuilder[T] {
	return b.Field(desc, func(s *T) Field { return (*Uint16)(get(s)) })
}

func (b *LayoutBuilder[T]) Uint32(desc string, get func(s *T) *uint32) *LayoutBuilder[T] {
	return b.Field(desc, func(s *T) Field { return (*Uint32)(get(s)) })
}

func (b *LayoutBuilder[T]) Uint64(desc string, get func(s *T) *uint64) *LayoutBuilder[T] {
	return b.Field(desc, func(s *T) Field { return (*Uint64)(get(s)) })
}

func (b *LayoutBuilder[T]) Float32(desc string, get func(s *T) *float32) *LayoutBuilder[T] {
	return b.Field(desc, func(s *T) Field { return (*Float32)(get(s)) })
}

func (b *LayoutBuilder[T]) String(desc string, get func(s *T) *string) *LayoutBuilder[T] {
	return b.Field(desc, func(s *T) Field { return (*String)(get(s)) })
}

func (b *LayoutBuilder[T]) StrID(desc string, get func(s *T) *strid.ID) *LayoutBuilder[T] {
	return b.Field(desc, func(s *T) Field { return (*StrID)(get(s)) })
}

// Constant32 appends a u32 that must always equal v.
func (b *LayoutBuilder[T]) Constant32(v uint32) *LayoutBuilder[T] {
	c := newConstant(fmt.Sprintf("constant 0x%X", v), binary.LittleEndian.AppendUint32(nil, v))
	return b.Field(c.desc, func(*T) Field { return c })
}

// Constant64 appends a u64 that must always equal v.
func (b *LayoutBuilder[T]) Constant64(v uint64) *LayoutBuilder[T] {
	c := newConstant(fmt.Sprintf("constant 0x%X", v), binary.LittleEndian.AppendUint64(nil, v))
	return b.Field(c.desc, func(*T) Field { return c })
}

// CrcConstant appends the u64 hash of s, which must match on read.
func (b *LayoutBuilder[T]) CrcConstant(s string) *LayoutBuilder[T] {
	c := newConstant(fmt.Sprintf("crc %q", s), strid.Of(s).AppendBinary(nil))
	return b.Field(c.desc, func(*T) Field { return c })
}

// StringConstant appends a NUL-terminated string that must match on read.
func (b *LayoutBuilder[T]) StringConstant(s string) *LayoutBuilder[T] {
	c := newConstant(fmt.Sprintf("literal %q", s), append([]byte(s), 0))
	return b.Field(c.desc, func(*T) Field { return c })
}

// Padding appends n filler bytes. Their content is not checked on read.
func (b *LayoutBuilder[T]) Padding(n int, fill byte) *LayoutBuilder[T] {
	p := &paddingField{n: uint64(n), fill: fill}
	return b.Field(fmt.Sprintf("padding %d", n), func(*T) Field { return p })
}

type constantField struct {
	desc string
	want []byte
}

func newConstant(desc string, want []byte) *constantField {
	return &constantField{desc, want}
}

func (c *constantField) Size(uint64) uint64 { return uint64(len(c.want)) }

func (c *constantField) Read(r *Reader) error {
	off := r.Pos()
	got, err := r.Bytes(len(c.want))
	if err != nil {
		return err
	}
	if !bytes.Equal(got, c.want) {
		return &DataError{Off: off, Len: len(c.want), Err: ErrValidation, Msg: fmt.Sprintf("%s: got %s, wanted %s", c.desc, hexstr(got), hexstr(c.want))}
	}
	return nil
}

func (c *constantField) Write(w *Writer) error {
	w.Write(c.want)
	return nil
}

func (c *constantField) Description() string { return c.desc }

type paddingField struct {
	n    uint64
	fill byte
}

func (p *paddingField) Size(uint64) uint64 { return p.n }

func (p *paddingField) Read(r *Reader) error {
	_, err := r.Bytes(int(p.n))
	return err
}

func (p *paddingField) Write(w *Writer) error {
	w.Pad(p.n, p.fill)
	return nil
}
