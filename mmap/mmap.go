// Package mmap maps input files read-only so that seekable readers can walk
// pointer graphs without copying the whole file into the heap first.
package mmap

import (
	"fmt"
	"os"
)

type Options uint

const (
	// SequentialAccess is a hint requesting aggressive read-ahead.
	// Incompatible with RandomAccess. Maps to MADV_SEQUENTIAL on Unix.
	SequentialAccess Options = 1 << iota

	// RandomAccess is a hint that read ahead is less useful than normally.
	// Incompatible with SequentialAccess. Maps to MADV_RANDOM on Unix.
	RandomAccess

	// Prefault is a hint requesting the entire file to be loaded in memory
	// for fastest access. Maps to MAP_POPULATE on Linux.
	Prefault
)

func (o Options) Has(v Options) bool {
	return o&v != 0
}

// Map maps the first size bytes of f read-only.
func Map(f *os.File, size int, opt Options) ([]byte, error) {
	if opt.Has(SequentialAccess) && opt.Has(RandomAccess) {
		panic("mmap: SequentialAccess and RandomAccess are mutually exclusive")
	}
	if size <= 0 {
		return nil, fmt.Errorf("mmap: cannot map %d bytes of %s", size, f.Name())
	}
	return mmap(f, size, opt)
}

// Unmap unmaps the given slice from memory. The slice must have been returned
// by Map.
func Unmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return munmap(b)
}

// File is a read-only mapping of a whole file.
type File struct {
	f    *os.File
	data []byte
}

// Open maps the named file. Empty files are not mapped; Bytes returns an
// empty slice for them.
func Open(path string, opt Options) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	size := st.Size()
	if int64(int(size)) != size {
		f.Close()
		return nil, fmt.Errorf("mmap: %s is too large to map (%d bytes)", path, size)
	}
	mf := &File{f: f}
	if size > 0 {
		mf.data, err = Map(f, int(size), opt)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("mmap: %s: %w", path, err)
		}
	}
	return mf, nil
}

// Bytes returns the mapped contents. The slice is invalid after Close.
func (mf *File) Bytes() []byte {
	return mf.data
}

func (mf *File) Close() error {
	err := Unmap(mf.data)
	mf.data = nil
	if cerr := mf.f.Close(); err == nil {
		err = cerr
	}
	return err
}
