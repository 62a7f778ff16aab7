package mercury

import (
	"bytes"
	"fmt"
	"os"

	"github.com/andreyvit/mercury/mmap"
)

// ReadFile memory-maps the named file and reads f from it. Fields copy what
// they keep, so nothing refers to the mapping once ReadFile returns.
func ReadFile(path string, f Format, opt Options) (err error) {
	mf, err := mmap.Open(path, mmap.RandomAccess)
	if err != nil {
		return fmt.Errorf("%s: %w", f.FormatName(), err)
	}
	defer func() {
		if cerr := mf.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	if err := Read(bytes.NewReader(mf.Bytes()), f, opt); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// WriteFile marshals f into the named file, replacing it.
func WriteFile(path string, f Format, opt Options) error {
	data, err := Marshal(f, opt)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o666)
}
