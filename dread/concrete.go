package dread

import (
	"github.com/andreyvit/mercury"
)

// Hand-written types. The bundled table describes these containers too
// generically to read them, so RegisterBuiltins replaces them.
const (
	OccluderCollidersMapType = "TEnabledOccluderCollidersMap"
	OccluderVignettesType    = "base::global::CRntSmallDictionary<base::global::CStrId, bool>"
	LiquidVolumesType        = "base::global::CRntSmallDictionary<base::global::CStrId, base::spatial::CAABox2D>"
	GlobalMapIconsType       = "CMinimapManager::TGlobalMapIcons"
	MissionLogEntriesType    = "GUI::CMissionLog::TMissionLogEntries"
	MapTutoTypesType         = "base::global::CRntVector<EMapTutoType>"
	SectionType              = "CBlackboard::CSection"
)

// RegisterBuiltins registers the hand-written types with reg.
func RegisterBuiltins(reg *Registry) {
	reg.RegisterConcrete(OccluderCollidersMapType, "", func() mercury.Field { return new(OccluderCollidersMap) })
	reg.RegisterConcrete(OccluderVignettesType, "", func() mercury.Field { return new(OccluderVignettes) })
	reg.RegisterConcrete(LiquidVolumesType, "", func() mercury.Field { return NewLiquidVolumes() })
	reg.RegisterConcrete(GlobalMapIconsType, "", func() mercury.Field { return NewGlobalMapIcons() })
	reg.RegisterConcrete(MissionLogEntriesType, "", func() mercury.Field { return NewMissionLogEntries() })
	reg.RegisterConcrete(MapTutoTypesType, "", func() mercury.Field { return new(MapTutoTypes) })
	reg.RegisterConcrete(SectionType, "", func() mercury.Field { return &Section{reg: reg} })
}

// OccluderColliders lists the enabled collider IDs of one occluder.
type OccluderColliders struct {
	Key        string
	EnabledIDs mercury.Array[mercury.Uint64, *mercury.Uint64]
}

var occluderCollidersLayout = mercury.DefineLayout("TEnabledOccluderCollidersMap entry", func(b *mercury.LayoutBuilder[OccluderColliders]) {
	b.String("Key", func(s *OccluderColliders) *string { return &s.Key })
	b.Field("EnabledIds", func(s *OccluderColliders) mercury.Field { return &s.EnabledIDs })
})

func (s *OccluderColliders) Size(pos uint64) uint64 {
	return occluderCollidersLayout.Bind(s).Size(pos)
}
func (s *OccluderColliders) Read(r *mercury.Reader) error {
	return occluderCollidersLayout.Bind(s).Read(r)
}
func (s *OccluderColliders) Write(w *mercury.Writer) error {
	return occluderCollidersLayout.Bind(s).Write(w)
}

type (
	OccluderCollidersMap = mercury.Array[OccluderColliders, *OccluderColliders]
	OccluderVignettes    = mercury.Dictionary[mercury.String, *mercury.String, mercury.Bool, *mercury.Bool]
	MapTutoTypes         = mercury.Array[mercury.Int32, *mercury.Int32]
)

// AABox2DSchema describes an axis-aligned box with Min and Max corners.
var AABox2DSchema = mercury.NewBagSchema("base::spatial::CAABox2D").
	Define("Min", newVector2).
	Define("Max", newVector2)

// NewLiquidVolumes returns an empty dictionary of boxes keyed by name.
func NewLiquidVolumes() *mercury.FieldDictionary {
	return &mercury.FieldDictionary{
		NewKey:   newString,
		NewValue: func() mercury.Field { return mercury.NewPropertyBag(AABox2DSchema) },
	}
}

var MapIconSchema = mercury.NewBagSchema("GlobalMapIcon").
	Define("sIconID", newString).
	Define("vIconPos", newVector2)

// NewGlobalMapIcons returns an empty dictionary of area name to map icons.
func NewGlobalMapIcons() *mercury.FieldDictionary {
	return &mercury.FieldDictionary{
		NewKey: newString,
		NewValue: func() mercury.Field {
			return &mercury.FieldArray{New: func() mercury.Field { return mercury.NewPropertyBag(MapIconSchema) }}
		},
	}
}

var MissionLogEntrySchema = mercury.NewBagSchema("MissionLogEntry").
	Define("eEntryType", func() mercury.Field { return new(mercury.Int32) }).
	Define("sLabelText", newString).
	Define("vCaptionsIds", func() mercury.Field { return new(mercury.Array[mercury.String, *mercury.String]) })

func NewMissionLogEntries() *mercury.FieldArray {
	return &mercury.FieldArray{New: func() mercury.Field { return mercury.NewPropertyBag(MissionLogEntrySchema) }}
}

// Section is one named section of a blackboard. Property values are
// dynamic values.
type Section struct {
	reg        *Registry
	Name       string
	Properties mercury.Array[SectionProperty, *SectionProperty]
}

// NewSection returns an empty section whose values resolve types in reg.
func (r *Registry) NewSection(name string) *Section {
	return &Section{reg: r, Name: name}
}

type SectionProperty struct {
	Key   string
	Value Value
}

var sectionLayout = mercury.DefineLayout(SectionType, func(b *mercury.LayoutBuilder[Section]) {
	b.String("Name", func(s *Section) *string { return &s.Name })
	b.CrcConstant(SectionType)
	b.Constant32(1)
	b.CrcConstant("dctProps")
	b.Field("dctProps", func(s *Section) mercury.Field { return (*sectionProperties)(s) })
})

var sectionPropertyLayout = mercury.DefineLayout("CBlackboard::CSection property", func(b *mercury.LayoutBuilder[SectionProperty]) {
	b.String("Key", func(s *SectionProperty) *string { return &s.Key })
	b.Field("Value", func(s *SectionProperty) mercury.Field { return &s.Value })
})

// Get returns the value of the first property named key.
func (s *Section) Get(key string) (*Value, bool) {
	for i := range s.Properties.Items {
		if p := &s.Properties.Items[i]; p.Key == key {
			return &p.Value, true
		}
	}
	return nil, false
}

// Set replaces the value of the first property named key, or appends one.
func (s *Section) Set(key string, v *Value) {
	if old, ok := s.Get(key); ok {
		*old = *v
		return
	}
	s.Properties.Items = append(s.Properties.Items, SectionProperty{Key: key, Value: *v})
}

func (s *Section) Size(pos uint64) uint64 { return sectionLayout.Bind(s).Size(pos) }

func (s *Section) Read(r *mercury.Reader) error { return sectionLayout.Bind(s).Read(r) }

func (s *Section) Write(w *mercury.Writer) error { return sectionLayout.Bind(s).Write(w) }

func (s *Section) Description() string {
	return SectionType + " " + s.Name
}

func (p *SectionProperty) Size(pos uint64) uint64 {
	return sectionPropertyLayout.Bind(p).Size(pos)
}
func (p *SectionProperty) Read(r *mercury.Reader) error {
	return sectionPropertyLayout.Bind(p).Read(r)
}
func (p *SectionProperty) Write(w *mercury.Writer) error {
	return sectionPropertyLayout.Bind(p).Write(w)
}

func newString() mercury.Field  { return new(mercury.String) }
func newVector2() mercury.Field { return new(mercury.Vector2) }

// sectionProperties is Section.Properties with values bound to the
// section's registry while reading.
type sectionProperties Section

func (p *sectionProperties) Size(pos uint64) uint64 { return p.Properties.Size(pos) }

func (p *sectionProperties) Write(w *mercury.Writer) error { return p.Properties.Write(w) }

func (p *sectionProperties) Read(r *mercury.Reader) error {
	count, err := r.Uint32()
	if err != nil {
		return err
	}
	if length, ok := r.Len(); ok && uint64(count) > length-min(r.Pos(), length) {
		return dataErrf(r.Pos(), mercury.ErrTruncated, "%d properties do not fit in the rest of the stream", count)
	}
	items := make([]SectionProperty, count)
	for i := range items {
		if err := r.Err(); err != nil {
			return err
		}
		items[i].Value.reg = p.reg
		off := r.Pos()
		if err := items[i].Read(r); err != nil {
			return dataErrf(off, err, "property %d", i)
		}
	}
	p.Properties.Items = items
	return nil
}
