package mercury

import (
	"fmt"
)

// Layout is the field list of a structure type T, described once and bound
// to each instance on demand. Binding produces a Structure whose fields read
// and write through the instance.
type Layout[T any] struct {
	name   string
	fields []layoutField[T]
}

type layoutField[T any] struct {
	desc string
	bind func(s *T) Field
}

// DefineLayout runs build once to describe the fields of T, in wire order.
func DefineLayout[T any](name string, build func(b *LayoutBuilder[T])) *Layout[T] {
	l := &Layout[T]{name: name}
	build(&LayoutBuilder[T]{layout: l})
	return l
}

func (l *Layout[T]) Name() string {
	return l.name
}

// Len returns the number of fields.
func (l *Layout[T]) Len() int {
	return len(l.fields)
}

// Describe returns field descriptions in wire order.
func (l *Layout[T]) Describe() []string {
	descs := make([]string, len(l.fields))
	for i, f := range l.fields {
		descs[i] = f.desc
	}
	return descs
}

// Bind returns a Structure reading and writing the fields of s.
func (l *Layout[T]) Bind(s *T) *Structure {
	st := &Structure{
		Name:   l.name,
		Fields: make([]StructureField, len(l.fields)),
	}
	for i, f := range l.fields {
		fld := f.bind(s)
		if fld == nil {
			panic(fmt.Errorf("%s: field %d (%s) bound to nil", l.name, i, f.desc))
		}
		st.Fields[i] = StructureField{Desc: f.desc, Field: fld}
	}
	return st
}

// Structure is an ordered list of fields read and written in turn.
type Structure struct {
	Name   string
	Fields []StructureField
}

type StructureField struct {
	Desc  string
	Field Field
}

func (s *Structure) Size(pos uint64) uint64 {
	start := pos
	for _, f := range s.Fields {
		pos += f.Field.Size(pos)
	}
	return pos - start
}

// Read reads each field in order, checking for cancellation in between.
func (s *Structure) Read(r *Reader) error {
	for i, f := range s.Fields {
		if err := r.Err(); err != nil {
			return err
		}
		off := r.Pos()
		if err := f.Field.Read(r); err != nil {
			return fieldErr(s.Name, i, f.Desc, off, false, err)
		}
	}
	return nil
}

// Write writes each field in order, checking for cancellation in between.
func (s *Structure) Write(w *Writer) error {
	for i, f := range s.Fields {
		if err := w.Err(); err != nil {
			return err
		}
		off := w.Pos()
		w.PushRange(f.Desc)
		if err := f.Field.Write(w); err != nil {
			return fieldErr(s.Name, i, f.Desc, off, true, err)
		}
		if err := w.PopRange(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Structure) Description() string {
	return s.Name
}
