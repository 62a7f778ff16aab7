package formats

import (
	"github.com/andreyvit/mercury"
	"github.com/andreyvit/mercury/dread"
)

// Standard is a format made of a mercury.StandardHeader followed by one
// dynamically typed root object. Use NewStandard or one of the named
// constructors; the zero value has no root pointer.
type Standard struct {
	Name   string
	Header mercury.StandardHeader
	Root   *dread.Pointer
}

var standardVersion = mercury.FileVersion{Major: 1, Minor: 2, Patch: 2}

// NewStandard returns an empty format named name whose root must be
// typeName or a type derived from it. A nil reg means dread.Default().
func NewStandard(reg *dread.Registry, name, typeName string, version mercury.FileVersion) *Standard {
	if reg == nil {
		reg = dread.Default()
	}
	return &Standard{
		Name:   name,
		Header: mercury.StandardHeader{TypeName: typeName, Version: version},
		Root:   reg.NewPointer(typeName),
	}
}

// NewBmscp returns an empty GUI composition.
func NewBmscp(reg *dread.Registry) *Standard {
	return NewStandard(reg, "BMSCP", "GUI::CDisplayObjectContainer", standardVersion)
}

// NewBmssk returns an empty GUI skin container.
func NewBmssk(reg *dread.Registry) *Standard {
	return NewStandard(reg, "BMSSK", "GUI::CGUIManager::SkinContainer", standardVersion)
}

// NewBmsss returns an empty GUI sprite sheet container.
func NewBmsss(reg *dread.Registry) *Standard {
	return NewStandard(reg, "BMSSS", "GUI::CGUIManager::SpriteSheetContainer", standardVersion)
}

var standardLayout = mercury.DefineLayout("standard", func(b *mercury.LayoutBuilder[Standard]) {
	b.Field("header", func(s *Standard) mercury.Field { return &s.Header })
	b.Field("Root", func(s *Standard) mercury.Field { return s.Root })
})

func (s *Standard) FormatName() string { return s.Name }

func (s *Standard) Size(pos uint64) uint64 { return standardLayout.Bind(s).Size(pos) }

func (s *Standard) Read(r *mercury.Reader) error { return standardLayout.Bind(s).Read(r) }

func (s *Standard) Write(w *mercury.Writer) error { return standardLayout.Bind(s).Write(w) }
