package mercury

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

type listRoot struct {
	List LinkedList[Uint32, *Uint32]
}

func (l *listRoot) FormatName() string     { return "listRoot" }
func (l *listRoot) Size(pos uint64) uint64 { return l.List.Size(pos) }
func (l *listRoot) Read(r *Reader) error   { return l.List.Read(r) }
func (l *listRoot) Write(w *Writer) error  { return l.List.Write(w) }

func TestLinkedList_RoundTrip(t *testing.T) {
	a, b := Uint32(1), Uint32(2)
	root := &listRoot{}
	root.List.Entries = []*Uint32{&a, nil, &b}

	data := must(Marshal(root, Options{}))
	var e []byte
	e = le64(le64(e, 48), 16)
	e = le64(le64(e, 0), 32)
	e = le64(le64(e, 52), 0)
	e = le32(le32(e, 1), 2)
	if !bytes.Equal(data, e) {
		t.Fatalf("Marshal = %x, wanted %x", data, e)
	}

	var got listRoot
	ensure(Unmarshal(data, &got, Options{}))
	if a, e := len(got.List.Entries), 3; a != e {
		t.Fatalf("len(Entries) = %d, wanted %d", a, e)
	}
	if *got.List.Entries[0] != 1 || got.List.Entries[1] != nil || *got.List.Entries[2] != 2 {
		t.Fatalf("Entries = %v", got.List.Entries)
	}
}

func TestLinkedList_Empty(t *testing.T) {
	data := must(Marshal(&listRoot{}, Options{}))
	if e := make([]byte, 16); !bytes.Equal(data, e) {
		t.Fatalf("Marshal = %x, wanted %x", data, e)
	}
	got := &listRoot{}
	got.List.Entries = []*Uint32{new(Uint32)}
	ensure(Unmarshal(data, got, Options{}))
	if len(got.List.Entries) != 0 {
		t.Fatalf("Entries = %v, wanted none", got.List.Entries)
	}
}

func TestLinkedList_SingleHole(t *testing.T) {
	root := &listRoot{}
	root.List.Entries = []*Uint32{nil}
	data := must(Marshal(root, Options{}))
	if e := make([]byte, 16); !bytes.Equal(data, e) {
		t.Fatalf("Marshal = %x, wanted %x", data, e)
	}
	var got listRoot
	ensure(Unmarshal(data, &got, Options{}))
	if len(got.List.Entries) != 0 {
		t.Fatalf("Entries = %v, wanted none", got.List.Entries)
	}
}

func TestLinkedList_Jump(t *testing.T) {
	var data []byte
	data = le64(le64(data, 48), 32)
	data = append(data, make([]byte, 16)...)
	data = le64(le64(data, 52), 0)
	data = le32(le32(data, 10), 20)

	var l LinkedList[Uint32, *Uint32]
	r := decodeField(t, data, &l)
	if a, e := len(l.Entries), 2; a != e {
		t.Fatalf("len(Entries) = %d, wanted %d", a, e)
	}
	if *l.Entries[0] != 10 || *l.Entries[1] != 20 {
		t.Fatalf("Entries = %d, %d, wanted 10, 20", *l.Entries[0], *l.Entries[1])
	}
	if a, e := r.Pos(), uint64(16); a != e {
		t.Fatalf("Pos = %d, wanted %d", a, e)
	}
}

func TestLinkedList_NonSeekable(t *testing.T) {
	r := must(NewReader(io.MultiReader(bytes.NewReader(make([]byte, 16))), Options{}))
	var l LinkedList[Uint32, *Uint32]
	if err := l.Read(r); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Read err = %v, wanted ErrUnsupported", err)
	}
}

func TestLinkedList_NextOutOfBounds(t *testing.T) {
	data := le64(le64(nil, 0), 100)
	err := decodeFieldErr(data, &LinkedList[Uint32, *Uint32]{})
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("Read err = %v, wanted ErrTruncated", err)
	}
}
