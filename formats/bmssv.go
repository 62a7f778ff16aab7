package formats

import (
	"fmt"

	"github.com/andreyvit/mercury"
	"github.com/andreyvit/mercury/dread"
)

// Bmssv is a blackboard save: a set of named sections, each a dynamic value
// holding a dread.Section.
type Bmssv struct {
	// Registry resolves section and property types. Defaults to
	// dread.Default().
	Registry *dread.Registry

	Unknown1 int32
	Unknown2 int32
	Unknown3 int32
	Sections []BlackboardSection
}

// BlackboardSection is one entry of the save's section table. The value
// normally holds a *dread.Section.
type BlackboardSection struct {
	Name  string
	Value dread.Value
}

var bmssvLayout = mercury.DefineLayout("BMSSV", func(b *mercury.LayoutBuilder[Bmssv]) {
	b.CrcConstant("CGameBlackboard")
	b.Int32("Unknown1", func(s *Bmssv) *int32 { return &s.Unknown1 })
	b.CrcConstant("Root")
	b.Int32("Unknown2", func(s *Bmssv) *int32 { return &s.Unknown2 })
	b.CrcConstant("hashSections")
	b.Field("hashSections", func(s *Bmssv) mercury.Field { return (*bmssvSections)(s) })
	b.CrcConstant("dctDeltaValues")
	b.Int32("Unknown3", func(s *Bmssv) *int32 { return &s.Unknown3 })
})

var blackboardSectionLayout = mercury.DefineLayout("BMSSV section", func(b *mercury.LayoutBuilder[BlackboardSection]) {
	b.String("Name", func(s *BlackboardSection) *string { return &s.Name })
	b.Field("Value", func(s *BlackboardSection) mercury.Field { return &s.Value })
})

func (s *Bmssv) FormatName() string { return "BMSSV" }

func (s *Bmssv) Size(pos uint64) uint64 { return bmssvLayout.Bind(s).Size(pos) }

func (s *Bmssv) Read(r *mercury.Reader) error { return bmssvLayout.Bind(s).Read(r) }

func (s *Bmssv) Write(w *mercury.Writer) error { return bmssvLayout.Bind(s).Write(w) }

func (s *Bmssv) registry() *dread.Registry {
	if s.Registry != nil {
		return s.Registry
	}
	return dread.Default()
}

// Section returns the named section.
func (s *Bmssv) Section(name string) (*dread.Section, bool) {
	for i := range s.Sections {
		if e := &s.Sections[i]; e.Name == name {
			sec, ok := e.Value.Data.(*dread.Section)
			return sec, ok
		}
	}
	return nil, false
}

// PutSection replaces the section with the same name, or appends sec.
func (s *Bmssv) PutSection(sec *dread.Section) error {
	v, err := s.registry().ValueOf(dread.SectionType)
	if err != nil {
		return err
	}
	v.Data = sec
	for i := range s.Sections {
		if s.Sections[i].Name == sec.Name {
			s.Sections[i].Value = *v
			return nil
		}
	}
	s.Sections = append(s.Sections, BlackboardSection{Name: sec.Name, Value: *v})
	return nil
}

// SectionNames returns section names in stored order.
func (s *Bmssv) SectionNames() []string {
	names := make([]string, len(s.Sections))
	for i := range s.Sections {
		names[i] = s.Sections[i].Name
	}
	return names
}

func (e *BlackboardSection) Size(pos uint64) uint64 {
	return blackboardSectionLayout.Bind(e).Size(pos)
}

func (e *BlackboardSection) Read(r *mercury.Reader) error {
	return blackboardSectionLayout.Bind(e).Read(r)
}

func (e *BlackboardSection) Write(w *mercury.Writer) error {
	return blackboardSectionLayout.Bind(e).Write(w)
}

func (e *BlackboardSection) Description() string {
	return "section " + e.Name
}

// bmssvSections is the section table, with values bound to the save's
// registry while reading.
type bmssvSections Bmssv

func (t *bmssvSections) Size(pos uint64) uint64 {
	start := pos
	pos += 4
	for i := range t.Sections {
		pos += t.Sections[i].Size(pos)
	}
	return pos - start
}

func (t *bmssvSections) Read(r *mercury.Reader) error {
	count, err := r.Uint32()
	if err != nil {
		return err
	}
	if length, ok := r.Len(); ok && uint64(count) > length-min(r.Pos(), length) {
		return &mercury.DataError{Off: r.Pos() - 4, Len: 4, Err: mercury.ErrTruncated, Msg: fmt.Sprintf("%d sections do not fit in the rest of the stream", count)}
	}
	reg := (*Bmssv)(t).registry()
	sections := make([]BlackboardSection, count)
	for i := range sections {
		if err := r.Err(); err != nil {
			return err
		}
		sections[i].Value = *reg.NewValue()
		off := r.Pos()
		if err := sections[i].Read(r); err != nil {
			return &mercury.DataError{Off: off, Err: err, Msg: fmt.Sprintf("section %d", i)}
		}
	}
	t.Sections = sections
	return nil
}

func (t *bmssvSections) Write(w *mercury.Writer) error {
	w.Uint32(uint32(len(t.Sections)))
	for i := range t.Sections {
		if err := w.Err(); err != nil {
			return err
		}
		off := w.Pos()
		if err := t.Sections[i].Write(w); err != nil {
			return &mercury.DataError{Off: off, Err: err, Msg: fmt.Sprintf("section %d (%s)", i, t.Sections[i].Name)}
		}
	}
	return nil
}

func (t *bmssvSections) Description() string {
	return fmt.Sprintf("%d sections", len(t.Sections))
}
