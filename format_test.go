package mercury

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// patched leaves a gap before its heap and stores its total length up front.
type patched struct {
	Total Uint32
	Value Pointer[Uint32, *Uint32]
}

var patchedLayout = DefineLayout("patched", func(b *LayoutBuilder[patched]) {
	b.Field("Total", func(p *patched) Field { return &p.Total })
	b.Field("Value", func(p *patched) Field { return &p.Value })
})

func (p *patched) FormatName() string     { return "patched" }
func (p *patched) Size(pos uint64) uint64 { return patchedLayout.Bind(p).Size(pos) }
func (p *patched) Read(r *Reader) error   { return patchedLayout.Bind(p).Read(r) }
func (p *patched) Write(w *Writer) error  { return patchedLayout.Bind(p).Write(w) }

func (p *patched) BeforeWrite(w *Writer) error {
	w.Heap.Reset(16)
	return nil
}

func (p *patched) AfterWrite(w *Writer) error {
	return w.PatchUint32(0, uint32(w.Pos()))
}

func TestFormat_BeforeAfterWrite(t *testing.T) {
	v := Uint32(9)
	p := &patched{}
	p.Value.Target = &v

	data := must(Marshal(p, Options{PaddingByte: 0xFF}))
	e := le32(le64(le32(nil, 20), 16), 0xFFFFFFFF)
	e = le32(e, 9)
	if !bytes.Equal(data, e) {
		t.Fatalf("Marshal = %x, wanted %x", data, e)
	}

	var got patched
	ensure(Unmarshal(data, &got, Options{}))
	if got.Total != 20 || *got.Value.Target != 9 {
		t.Fatalf("Unmarshal = %d, %d, wanted 20, 9", got.Total, *got.Value.Target)
	}
}

func TestFormat_LeftoverBytes(t *testing.T) {
	data := append(headerBytes(), 0, 0)
	err := Unmarshal(data, &header{}, Options{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Unmarshal err = %v, wanted ErrValidation", err)
	}
	if !strings.Contains(err.Error(), "2 bytes left to be read") {
		t.Fatalf("Unmarshal err = %v, wanted it to count the leftover bytes", err)
	}
}

func TestFormat_NonSeekable(t *testing.T) {
	stream := func(b []byte) io.Reader { return io.MultiReader(bytes.NewReader(b)) }

	var h header
	ensure(Read(stream(headerBytes()), &h, Options{}))
	if h.Name != "room" {
		t.Fatalf("Name = %q, wanted room", h.Name)
	}

	err := Read(stream(append(headerBytes(), 1)), &header{}, Options{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Read err = %v, wanted ErrValidation", err)
	}
}

func TestFormat_Write(t *testing.T) {
	h := &header{Version: 3, Name: "room", Flag: true}
	var buf bytes.Buffer
	ensure(Write(&buf, h, Options{}))
	if e := headerBytes(); !bytes.Equal(buf.Bytes(), e) {
		t.Fatalf("Write = %x, wanted %x", buf.Bytes(), e)
	}
}

func TestFormat_Files(t *testing.T) {
	path := filepath.Join(t.TempDir(), "header.bin")
	ensure(WriteFile(path, &header{Version: 3, Name: "room", Flag: true}, Options{}))
	if data := must(os.ReadFile(path)); !bytes.Equal(data, headerBytes()) {
		t.Fatalf("file = %x, wanted %x", data, headerBytes())
	}

	var h header
	ensure(ReadFile(path, &h, Options{}))
	if h.Version != 3 || h.Name != "room" || !h.Flag {
		t.Fatalf("ReadFile = %+v", h)
	}

	if err := ReadFile(filepath.Join(t.TempDir(), "missing.bin"), &h, Options{}); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("ReadFile err = %v, wanted os.ErrNotExist", err)
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	ensure(VerifyRoundTrip(headerBytes(), &header{}, Options{}))
	ensure(VerifyRoundTrip(headerBytes(), &header{}, Options{Verbose: true}))

	// padding is not checked on read but is rewritten with its fill byte
	data := headerBytes()
	data[21] = 0
	opt := Options{Mapper: NewDataMapper()}
	err := VerifyRoundTrip(data, &header{}, opt)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("VerifyRoundTrip err = %v, wanted ErrValidation", err)
	}
	var de *DataError
	if !errors.As(err, &de) || de.Off != 21 {
		t.Fatalf("VerifyRoundTrip err = %v, wanted a DataError at 21", err)
	}
	if !strings.Contains(err.Error(), "padding 3") {
		t.Fatalf("VerifyRoundTrip err = %v, wanted it to name the padding field", err)
	}
}
