// Package formats implements the concrete file formats built on mercury:
// PKG archives, TOC size tables, BMSSV blackboard saves and the GUI formats
// sharing the standard header.
package formats

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andreyvit/mercury"
	"github.com/andreyvit/mercury/knownstrings"
	"github.com/andreyvit/mercury/strid"
)

const (
	pkgDataAlign    = 128
	pkgFileEndAlign = 8
	pkgDefaultAlign = 4

	// HeaderSize of an archive without files: DataSectionSize and the count.
	pkgEmptyHeader = 8

	// offset of DataSectionSize, which is also the size of HeaderSize
	pkgDataSizeOff = 4
)

// Pkg is an archive of files named by hash:
//
//	header_size:i32 data_size:i32 count:u32 (name:u64 start:u32 end:u32)*
//
// followed by the data section, which starts 128-aligned. HeaderSize counts
// everything before the data section except itself.
type Pkg struct {
	HeaderSize      int32
	DataSectionSize int32
	Files           mercury.Array[PackageFile, *PackageFile]

	// Strings names files in heap descriptions and range maps.
	Strings *knownstrings.Set
}

// PackageFile is one file of a Pkg. Start and End are recomputed on write.
type PackageFile struct {
	Name  strid.ID
	Start uint32
	End   uint32
	Data  []byte

	names *knownstrings.Set
}

var pkgLayout = mercury.DefineLayout("PKG", func(b *mercury.LayoutBuilder[Pkg]) {
	b.Int32("HeaderSize", func(p *Pkg) *int32 { return &p.HeaderSize })
	b.Int32("DataSectionSize", func(p *Pkg) *int32 { return &p.DataSectionSize })
	b.Field("Files", func(p *Pkg) mercury.Field { return &p.Files })
})

var packageFileLayout = mercury.DefineLayout("PackageFile", func(b *mercury.LayoutBuilder[PackageFile]) {
	b.StrID("Name", func(f *PackageFile) *strid.ID { return &f.Name })
	b.Uint32("StartAddress", func(f *PackageFile) *uint32 { return &f.Start })
	b.Uint32("EndAddress", func(f *PackageFile) *uint32 { return &f.End })
})

func (p *Pkg) FormatName() string { return "PKG" }

func (p *Pkg) Size(pos uint64) uint64 { return pkgLayout.Bind(p).Size(pos) }

func (p *Pkg) Read(r *mercury.Reader) error { return pkgLayout.Bind(p).Read(r) }

func (p *Pkg) Write(w *mercury.Writer) error { return pkgLayout.Bind(p).Write(w) }

// BeforeWrite moves the heap to the 128-aligned start of the data section
// and fixes HeaderSize accordingly.
func (p *Pkg) BeforeWrite(w *mercury.Writer) error {
	if len(p.Files.Items) == 0 {
		p.HeaderSize = pkgEmptyHeader
		return nil
	}
	dataStart := mercury.AlignUp(p.Size(0), pkgDataAlign)
	w.Heap.Reset(dataStart)
	p.HeaderSize = int32(dataStart - pkgDataSizeOff)
	for i := range p.Files.Items {
		p.Files.Items[i].names = p.Strings
	}
	return nil
}

// AfterWrite patches DataSectionSize, which is only known once the heap is
// flushed.
func (p *Pkg) AfterWrite(w *mercury.Writer) error {
	p.DataSectionSize = int32(w.Heap.TotalAllocated())
	return w.PatchUint32(pkgDataSizeOff, uint32(p.DataSectionSize))
}

// File returns the file with the given name.
func (p *Pkg) File(name string) (*PackageFile, bool) {
	return p.FileID(strid.Of(name))
}

func (p *Pkg) FileID(id strid.ID) (*PackageFile, bool) {
	for i := range p.Files.Items {
		if f := &p.Files.Items[i]; f.Name == id {
			return f, true
		}
	}
	return nil, false
}

// Put replaces the data of the named file, or appends a new file.
func (p *Pkg) Put(name string, data []byte) *PackageFile {
	if f, ok := p.File(name); ok {
		f.Data = data
		return f
	}
	p.Files.Items = append(p.Files.Items, PackageFile{Name: strid.Of(name), Data: data})
	return &p.Files.Items[len(p.Files.Items)-1]
}

// Remove deletes the named file and reports whether it was present.
func (p *Pkg) Remove(name string) bool {
	id := strid.Of(name)
	for i := range p.Files.Items {
		if p.Files.Items[i].Name == id {
			p.Files.Items = append(p.Files.Items[:i], p.Files.Items[i+1:]...)
			return true
		}
	}
	return false
}

func (f *PackageFile) Len() int { return len(f.Data) }

// Size is the size of the header entry. The data lives on the heap.
func (f *PackageFile) Size(pos uint64) uint64 {
	return packageFileLayout.Bind(f).Size(pos)
}

func (f *PackageFile) Read(r *mercury.Reader) error {
	if err := packageFileLayout.Bind(f).Read(r); err != nil {
		return err
	}
	if f.End < f.Start {
		return &mercury.DataError{Off: r.Pos() - 8, Len: 8, Err: mercury.ErrValidation, Msg: fmt.Sprintf("file %v ends at 0x%X before it starts at 0x%X", f.Name, f.End, f.Start)}
	}
	if f.End == f.Start {
		f.Data = []byte{}
		return nil
	}
	data := &mercury.Bytes{Length: func() int { return int(f.End - f.Start) }}
	if err := r.ReadAt(uint64(f.Start), data, pkgFileEndAlign); err != nil {
		return fmt.Errorf("data of file %v: %w", f.Name, err)
	}
	f.Data = data.Data
	return nil
}

func (f *PackageFile) Write(w *mercury.Writer) error {
	if len(f.Data) == 0 {
		f.Start = uint32(w.Heap.Start() + w.Heap.TotalAllocated())
		f.End = f.Start
		return packageFileLayout.Bind(f).Write(w)
	}
	data := &mercury.Bytes{Data: f.Data}
	addr, err := w.Heap.Allocate(data, f.startAlign(), pkgFileEndAlign, "File data for "+f.displayName())
	if err != nil {
		return err
	}
	f.Start = uint32(addr)
	f.End = f.Start + uint32(len(f.Data))
	return packageFileLayout.Bind(f).Write(w)
}

func (f *PackageFile) Description() string {
	return "PackageFile " + f.displayName()
}

func (f *PackageFile) displayName() string {
	if f.names != nil {
		return f.names.Name(f.Name)
	}
	return f.Name.String()
}

// startAlign sniffs the payload format from its magic.
func (f *PackageFile) startAlign() uint64 {
	if len(f.Data) < 4 {
		return pkgDefaultAlign
	}
	switch magic := f.Data[:4]; {
	case bytes.Equal(magic, []byte("CWAV")):
		return 32
	case bytes.Equal(magic, []byte("LSND")):
		return 16
	case bytes.Equal(magic, []byte("MTUN")), bytes.Equal(magic, []byte("MTXT")):
		return 128
	default:
		return pkgDefaultAlign
	}
}

// packageEntry is a PackageFile read without its data.
type packageEntry PackageFile

func (e *packageEntry) Size(pos uint64) uint64 {
	return packageFileLayout.Bind((*PackageFile)(e)).Size(pos)
}

func (e *packageEntry) Read(r *mercury.Reader) error {
	return packageFileLayout.Bind((*PackageFile)(e)).Read(r)
}

func (e *packageEntry) Write(w *mercury.Writer) error {
	return packageFileLayout.Bind((*PackageFile)(e)).Write(w)
}

type pkgIndex struct {
	HeaderSize      int32
	DataSectionSize int32
	Entries         mercury.Array[packageEntry, *packageEntry]
}

var pkgIndexLayout = mercury.DefineLayout("PKG header", func(b *mercury.LayoutBuilder[pkgIndex]) {
	b.Int32("HeaderSize", func(p *pkgIndex) *int32 { return &p.HeaderSize })
	b.Int32("DataSectionSize", func(p *pkgIndex) *int32 { return &p.DataSectionSize })
	b.Field("Files", func(p *pkgIndex) mercury.Field { return &p.Entries })
})

// ListFiles reads the file table of the archive in src without loading any
// file data. Data is nil in the returned files.
func ListFiles(src io.Reader, opt mercury.Options) ([]PackageFile, error) {
	r, err := mercury.NewReader(src, opt)
	if err != nil {
		return nil, err
	}
	var idx pkgIndex
	if err := pkgIndexLayout.Bind(&idx).Read(r); err != nil {
		return nil, err
	}
	files := make([]PackageFile, len(idx.Entries.Items))
	for i, e := range idx.Entries.Items {
		files[i] = PackageFile(e)
	}
	return files, nil
}

// OpenFile returns a reader over the data of f within the archive in src.
// f must come from ListFiles or Read over the same archive.
func OpenFile(src io.ReaderAt, f *PackageFile) *io.SectionReader {
	return io.NewSectionReader(src, int64(f.Start), int64(f.End)-int64(f.Start))
}
