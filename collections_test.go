package mercury

import (
	"bytes"
	"errors"
	"slices"
	"testing"
)

func TestArray_StartAlign(t *testing.T) {
	a := &Array[Uint16, *Uint16]{Items: []Uint16{1, 2}, StartAlign: 8}
	data := encodeField(t, a)
	e := le16(le16(le32(le32(nil, 2), 0), 1), 2)
	if !bytes.Equal(data, e) {
		t.Fatalf("Write = %x, wanted %x", data, e)
	}
	if n, e := a.Size(0), uint64(len(e)); n != e {
		t.Fatalf("Size = %d, wanted %d", n, e)
	}

	got := &Array[Uint16, *Uint16]{StartAlign: 8}
	decodeField(t, data, got)
	if !slices.Equal(got.Items, []Uint16{1, 2}) {
		t.Fatalf("Items = %v", got.Items)
	}

	empty := &Array[Uint16, *Uint16]{StartAlign: 8}
	if data := encodeField(t, empty); len(data) != 4 {
		t.Fatalf("empty array wrote %x, wanted a bare count", data)
	}
}

func TestArray_CountTooLarge(t *testing.T) {
	data := le32(le32(nil, 1000), 0)
	err := decodeFieldErr(data, &Array[Uint32, *Uint32]{})
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("Read err = %v, wanted ErrTruncated", err)
	}
}

func TestDictionary(t *testing.T) {
	var d Dictionary[Uint32, *Uint32, String, *String]
	d.Set(2, "two")
	d.Set(1, "one")
	d.Set(2, "deux")

	if a, e := d.Keys(), []Uint32{2, 1}; !slices.Equal(a, e) {
		t.Fatalf("Keys = %v, wanted %v", a, e)
	}
	if v, ok := d.Get(2); !ok || *v != "deux" {
		t.Fatalf("Get(2) = %v, %v", v, ok)
	}
	if _, ok := d.Get(3); ok {
		t.Fatalf("Get(3) found a missing key")
	}

	data := encodeField(t, &d)
	var got Dictionary[Uint32, *Uint32, String, *String]
	decodeField(t, data, &got)
	if !slices.Equal(got.Entries, d.Entries) {
		t.Fatalf("Entries = %v, wanted %v", got.Entries, d.Entries)
	}

	if !got.Delete(2) || got.Delete(2) {
		t.Fatalf("Delete(2) did not report the removal exactly once")
	}
	if a, e := got.Len(), 1; a != e {
		t.Fatalf("Len = %d, wanted %d", a, e)
	}
}

func TestFieldArray(t *testing.T) {
	a := &FieldArray{
		New:   func() Field { return new(Uint32) },
		Items: []Field{ptrTo(Uint32(5)), ptrTo(Uint32(6))},
	}
	data := encodeField(t, a)
	if e := le32(le32(le32(nil, 2), 5), 6); !bytes.Equal(data, e) {
		t.Fatalf("Write = %x, wanted %x", data, e)
	}

	got := &FieldArray{New: a.New}
	decodeField(t, data, got)
	if len(got.Items) != 2 || *got.Items[1].(*Uint32) != 6 {
		t.Fatalf("Items = %v", got.Items)
	}
	if a, e := got.Description(), "array of 2"; a != e {
		t.Fatalf("Description = %q, wanted %q", a, e)
	}

	a.Items[0] = nil
	if err := a.Write(NewWriter(Options{})); !errors.Is(err, ErrInvariant) {
		t.Fatalf("Write err = %v, wanted ErrInvariant", err)
	}
}

func TestFieldDictionary(t *testing.T) {
	d := &FieldDictionary{
		NewKey:   func() Field { return new(String) },
		NewValue: func() Field { return new(Int32) },
		Entries: []FieldPair{
			{ptrTo(String("a")), ptrTo(Int32(-1))},
			{ptrTo(String("b")), ptrTo(Int32(2))},
		},
	}
	data := encodeField(t, d)
	if a, e := uint64(len(data)), d.Size(0); a != e {
		t.Fatalf("wrote %d bytes, Size = %d", a, e)
	}

	got := &FieldDictionary{NewKey: d.NewKey, NewValue: d.NewValue}
	decodeField(t, data, got)
	if len(got.Entries) != 2 || *got.Entries[0].Key.(*String) != "a" || *got.Entries[0].Value.(*Int32) != -1 {
		t.Fatalf("Entries = %v", got.Entries)
	}

	d.Entries[1].Value = nil
	if err := d.Write(NewWriter(Options{})); !errors.Is(err, ErrInvariant) {
		t.Fatalf("Write err = %v, wanted ErrInvariant", err)
	}
}

func ptrTo[T any](v T) *T {
	return &v
}
