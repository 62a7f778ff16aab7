package dread

import (
	"fmt"
	"reflect"

	"github.com/andreyvit/mercury"
	"github.com/andreyvit/mercury/strid"
)

// Value is a value of a type known only from the stream:
//
//	type:u64 payload
//
// where type is the hash of the type name. A zero Value resolves types in
// Default().
type Value struct {
	reg  *Registry
	Type Type
	Data mercury.Field
}

// NewValue returns an empty value that learns its type when read.
func (r *Registry) NewValue() *Value {
	return &Value{reg: r}
}

// ValueOf returns a blank value of the named type.
func (r *Registry) ValueOf(name string) (*Value, error) {
	t, err := r.FindType(name)
	if err != nil {
		return nil, err
	}
	data, err := r.NewFieldFor(t)
	if err != nil {
		return nil, err
	}
	return &Value{reg: r, Type: t, Data: data}, nil
}

func (v *Value) registry() *Registry {
	if v.reg != nil {
		return v.reg
	}
	return Default()
}

func (v *Value) TypeID() strid.ID {
	if v.Type == nil {
		return 0
	}
	return v.Type.ID()
}

func (v *Value) TypeName() string {
	if v.Type == nil {
		return ""
	}
	return v.Type.Name()
}

func (v *Value) Size(pos uint64) uint64 {
	if v.Data == nil {
		return 8
	}
	return 8 + v.Data.Size(pos+8)
}

func (v *Value) Read(r *mercury.Reader) error {
	off := r.Pos()
	id, err := r.Uint64()
	if err != nil {
		return err
	}
	return v.readPayload(r, off, strid.ID(id))
}

func (v *Value) readPayload(r *mercury.Reader, off uint64, id strid.ID) error {
	t, err := v.registry().FindTypeID(id)
	if err != nil {
		return &mercury.DataError{Off: off, Len: 8, Err: err, Msg: "dynamic value"}
	}
	data, err := v.registry().NewFieldFor(t)
	if err != nil {
		return dataErrf(off, err, "dynamic value of type %s", t.Name())
	}
	if err := data.Read(r); err != nil {
		return dataErrf(off, err, "dynamic value of type %s", t.Name())
	}
	v.Type, v.Data = t, data
	return nil
}

func (v *Value) Write(w *mercury.Writer) error {
	off := w.Pos()
	if v.Type == nil || v.Data == nil {
		return dataErrf(off, mercury.ErrInvariant, "cannot write a null dynamic value")
	}
	if err := v.checkShape(); err != nil {
		return dataErrf(off, err, "dynamic value of type %s", v.Type.Name())
	}
	w.Uint64(uint64(v.Type.ID()))
	w.PushRange(v.Type.Name())
	if err := v.Data.Write(w); err != nil {
		return dataErrf(off, err, "dynamic value of type %s", v.Type.Name())
	}
	return w.PopRange()
}

// checkShape verifies that Data is what reading the type tag would produce.
func (v *Value) checkShape() error {
	want, err := v.registry().NewFieldFor(v.Type)
	if err != nil {
		return err
	}
	if reflect.TypeOf(want) != reflect.TypeOf(v.Data) {
		return fmt.Errorf("%w: data is %T, type %s needs %T", mercury.ErrInvariant, v.Data, v.Type.Name(), want)
	}
	if wb, ok := want.(*mercury.PropertyBag); ok {
		if gb := v.Data.(*mercury.PropertyBag); gb.Schema() != wb.Schema() {
			return fmt.Errorf("%w: property bag %s does not belong to type %s", mercury.ErrInvariant, gb.Schema().Name(), v.Type.Name())
		}
	}
	return nil
}

func (v *Value) Description() string {
	if v.Type == nil {
		return "dynamic value"
	}
	return v.Type.Name()
}

// Pointer is a nullable Value restricted to Target and the types derived
// from it. An empty Target accepts any type. A null pointer is a zero type
// tag with no payload.
type Pointer struct {
	reg    *Registry
	Target string
	Value  *Value
}

func (p *Pointer) registry() *Registry {
	if p.reg != nil {
		return p.reg
	}
	return Default()
}

// NewPointer returns a null pointer to target.
func (r *Registry) NewPointer(target string) *Pointer {
	return &Pointer{reg: r, Target: target}
}

func (p *Pointer) IsNull() bool {
	return p.Value == nil
}

// Set points p at v, which may be nil.
func (p *Pointer) Set(v *Value) error {
	if v != nil {
		if err := p.check(v.TypeName()); err != nil {
			return err
		}
	}
	p.Value = v
	return nil
}

func (p *Pointer) check(name string) error {
	if p.Target == "" || p.registry().IsChildOf(name, p.Target) {
		return nil
	}
	return fmt.Errorf("%w: type %q is not %q", mercury.ErrValidation, name, p.Target)
}

func (p *Pointer) Size(pos uint64) uint64 {
	if p.Value == nil {
		return 8
	}
	return p.Value.Size(pos)
}

func (p *Pointer) Read(r *mercury.Reader) error {
	off := r.Pos()
	id, err := r.Uint64()
	if err != nil {
		return err
	}
	if id == 0 {
		p.Value = nil
		return nil
	}
	v := p.registry().NewValue()
	if err := v.readPayload(r, off, strid.ID(id)); err != nil {
		return err
	}
	if err := p.check(v.TypeName()); err != nil {
		return dataErrf(off, err, "pointer")
	}
	p.Value = v
	return nil
}

func (p *Pointer) Write(w *mercury.Writer) error {
	if p.Value == nil {
		w.PushRange("pointer: NULL")
		w.Uint64(0)
		return w.PopRange()
	}
	if err := p.check(p.Value.TypeName()); err != nil {
		return dataErrf(w.Pos(), mercury.ErrInvariant, "pointer: %v", err)
	}
	w.PushRange("pointer: " + p.Value.TypeName())
	if err := p.Value.Write(w); err != nil {
		return err
	}
	return w.PopRange()
}

func (p *Pointer) Description() string {
	if p.Value == nil {
		return "pointer: NULL"
	}
	return "pointer: " + p.Value.TypeName()
}

func dataErrf(off uint64, err error, format string, args ...any) error {
	return &mercury.DataError{Off: off, Err: err, Msg: fmt.Sprintf(format, args...)}
}
