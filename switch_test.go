package mercury

import (
	"bytes"
	"errors"
	"testing"
)

type shape struct {
	Kind  uint32
	Value *Switch[uint32]
}

func newShape(kind uint32) *shape {
	s := &shape{Kind: kind}
	s.Value = NewSwitch(func() uint32 { return s.Kind }).
		Case(1, new(Uint32)).
		Case(2, new(String))
	return s
}

var shapeLayout = DefineLayout("shape", func(b *LayoutBuilder[shape]) {
	b.Uint32("Kind", func(s *shape) *uint32 { return &s.Kind })
	b.Field("Value", func(s *shape) Field { return s.Value })
})

func (s *shape) Size(pos uint64) uint64 { return shapeLayout.Bind(s).Size(pos) }
func (s *shape) Read(r *Reader) error   { return shapeLayout.Bind(s).Read(r) }
func (s *shape) Write(w *Writer) error  { return shapeLayout.Bind(s).Write(w) }

func TestSwitch(t *testing.T) {
	s := newShape(2)
	*must(s.Value.EffectiveField()).(*String) = "hi"
	data := encodeField(t, s)
	if e := append(le32(nil, 2), "hi\x00"...); !bytes.Equal(data, e) {
		t.Fatalf("Write = %x, wanted %x", data, e)
	}

	got := newShape(0)
	decodeField(t, data, got)
	if a := *must(got.Value.EffectiveField()).(*String); a != "hi" {
		t.Fatalf("Value = %q, wanted hi", a)
	}

	got.Kind = 1
	if _, ok := must(got.Value.EffectiveField()).(*Uint32); !ok {
		t.Fatalf("changing Kind did not switch the variant")
	}
}

func TestSwitch_Unknown(t *testing.T) {
	s := newShape(9)
	if a := s.Value.Size(0); a != 0 {
		t.Fatalf("Size = %d, wanted 0", a)
	}
	if _, err := s.Value.EffectiveField(); !errors.Is(err, ErrUnknownDiscriminator) {
		t.Fatalf("EffectiveField err = %v, wanted ErrUnknownDiscriminator", err)
	}
	if err := s.Write(NewWriter(Options{})); !errors.Is(err, ErrUnknownDiscriminator) {
		t.Fatalf("Write err = %v, wanted ErrUnknownDiscriminator", err)
	}
	if err := decodeFieldErr(le32(nil, 9), newShape(0)); !errors.Is(err, ErrUnknownDiscriminator) {
		t.Fatalf("Read err = %v, wanted ErrUnknownDiscriminator", err)
	}
	if err := s.Value.ReplaceEffectiveField(new(Uint32)); !errors.Is(err, ErrUnknownDiscriminator) {
		t.Fatalf("ReplaceEffectiveField err = %v, wanted ErrUnknownDiscriminator", err)
	}
}

func TestSwitch_Fallback(t *testing.T) {
	s := newShape(9)
	s.Value.Fallback(new(Uint16))
	data := encodeField(t, s)
	if a, e := len(data), 6; a != e {
		t.Fatalf("wrote %d bytes, wanted %d", a, e)
	}

	repl := Uint16(0x1234)
	ensure(s.Value.ReplaceEffectiveField(&repl))
	if f := must(s.Value.EffectiveField()); f != Field(&repl) {
		t.Fatalf("EffectiveField = %v, wanted the replacement", f)
	}
	s.Kind = 1
	if _, ok := must(s.Value.EffectiveField()).(*Uint32); !ok {
		t.Fatalf("replacing the fallback changed case 1")
	}
}

func TestSwitch_DuplicateCasePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("duplicate Case did not panic")
		}
	}()
	NewSwitch(func() int { return 0 }).Case(1, new(Uint32)).Case(1, new(Uint16))
}
