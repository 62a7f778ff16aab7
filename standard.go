package mercury

import (
	"fmt"

	"github.com/andreyvit/mercury/strid"
)

// FileVersion is the version triple stored in format headers.
type FileVersion struct {
	Major uint16
	Minor uint8
	Patch uint8
}

func (v FileVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v *FileVersion) Size(uint64) uint64 { return 4 }

func (v *FileVersion) Read(r *Reader) error {
	major, err := r.Uint16()
	if err != nil {
		return err
	}
	minor, err := r.ReadByte()
	if err != nil {
		return err
	}
	patch, err := r.ReadByte()
	if err != nil {
		return err
	}
	*v = FileVersion{major, minor, patch}
	return nil
}

func (v *FileVersion) Write(w *Writer) error {
	w.Uint16(v.Major)
	w.WriteByte(v.Minor)
	w.WriteByte(v.Patch)
	return nil
}

// StandardHeader opens the formats whose body is a single typed root object:
//
//	type:u64 version:(u16 u8 u8) crc("Root"):u64
//
// TypeName and Version are what the format expects. Reading keeps what the
// file holds in the Stored fields and fails with ErrValidation when it
// differs from a non-zero expectation. Writing emits the expectations,
// falling back to the Stored fields where they are zero.
type StandardHeader struct {
	TypeName string
	Version  FileVersion

	StoredTypeName strid.ID
	StoredVersion  FileVersion
}

var standardHeaderLayout = DefineLayout("header", func(b *LayoutBuilder[StandardHeader]) {
	b.StrID("TypeName", func(h *StandardHeader) *strid.ID { return &h.StoredTypeName })
	b.Field("Version", func(h *StandardHeader) Field { return &h.StoredVersion })
	b.CrcConstant("Root")
})

func (h *StandardHeader) Size(pos uint64) uint64 {
	return standardHeaderLayout.Bind(h).Size(pos)
}

func (h *StandardHeader) Read(r *Reader) error {
	off := r.Pos()
	if err := standardHeaderLayout.Bind(h).Read(r); err != nil {
		return err
	}
	if h.TypeName != "" && h.StoredTypeName != strid.Of(h.TypeName) {
		return &DataError{Off: off, Len: 8, Err: ErrValidation, Msg: fmt.Sprintf("type name: got %v, wanted %q", h.StoredTypeName, h.TypeName)}
	}
	if h.Version != (FileVersion{}) && h.StoredVersion != h.Version {
		return &DataError{Off: off + 8, Len: 4, Err: ErrValidation, Msg: fmt.Sprintf("version: got %v, wanted %v", h.StoredVersion, h.Version)}
	}
	return nil
}

func (h *StandardHeader) Write(w *Writer) error {
	if h.TypeName != "" {
		h.StoredTypeName = strid.Of(h.TypeName)
	}
	if h.Version != (FileVersion{}) {
		h.StoredVersion = h.Version
	}
	return standardHeaderLayout.Bind(h).Write(w)
}

func (h *StandardHeader) Description() string {
	if h.TypeName == "" {
		return "header"
	}
	return "header " + h.TypeName
}
