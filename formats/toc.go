package formats

import (
	"errors"
	"fmt"

	"github.com/andreyvit/mercury"
	"github.com/andreyvit/mercury/strid"
)

// ErrNoFile is returned when a table of contents has no entry for a file.
var ErrNoFile = errors.New("no such file")

// Toc maps file path hashes to file sizes:
//
//	count:u32 (path:u64 size:u32)*
type Toc struct {
	Files mercury.Dictionary[mercury.StrID, *mercury.StrID, mercury.Uint32, *mercury.Uint32]
}

func (t *Toc) FormatName() string { return "TOC" }

func (t *Toc) Size(pos uint64) uint64 { return t.Files.Size(pos) }

func (t *Toc) Read(r *mercury.Reader) error { return t.Files.Read(r) }

func (t *Toc) Write(w *mercury.Writer) error { return t.Files.Write(w) }

// FileSize returns the size recorded for file, or ErrNoFile.
func (t *Toc) FileSize(file strid.ID) (uint32, error) {
	size, ok := t.LookupFileSize(file)
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrNoFile, file)
	}
	return size, nil
}

func (t *Toc) LookupFileSize(file strid.ID) (uint32, bool) {
	v, ok := t.Files.Get(mercury.StrID(file))
	if !ok {
		return 0, false
	}
	return uint32(*v), true
}

// PutFileSize records the size of file, adding it if it is not listed yet.
func (t *Toc) PutFileSize(file strid.ID, size uint32) {
	t.Files.Set(mercury.StrID(file), mercury.Uint32(size))
}

// PutPath is PutFileSize for a file path.
func (t *Toc) PutPath(path string, size uint32) {
	t.PutFileSize(strid.Of(path), size)
}
