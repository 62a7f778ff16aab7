package mmap

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestOptionsHas(t *testing.T) {
	var o Options = RandomAccess | Prefault
	if !o.Has(RandomAccess) || o.Has(SequentialAccess) {
		t.Fatalf("Options.Has returned unexpected results for %v", o)
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	want := bytes.Repeat([]byte{0xAB, 0xCD}, 3000)
	ensure(os.WriteFile(path, want, 0666))

	mf := must(Open(path, RandomAccess))
	if !bytes.Equal(mf.Bytes(), want) {
		t.Fatalf("Bytes() has %d bytes, wanted the %d written", len(mf.Bytes()), len(want))
	}
	if err := mf.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if mf.Bytes() != nil {
		t.Fatalf("Bytes() after Close is non-nil")
	}
}

func TestOpen_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	ensure(os.WriteFile(path, nil, 0666))

	mf := must(Open(path, 0))
	defer mf.Close()
	if len(mf.Bytes()) != 0 {
		t.Fatalf("len(Bytes()) = %d, wanted 0", len(mf.Bytes()))
	}
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"), 0)
	if !os.IsNotExist(err) {
		t.Fatalf("Open(missing) err = %v, wanted not-exist", err)
	}
}

func TestMap_PanicsOnConflictingHints(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	_, _ = Map(os.Stdin, 1, SequentialAccess|RandomAccess)
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}
