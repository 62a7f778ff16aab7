package dread

import (
	"bytes"
	"errors"
	"testing"

	"github.com/andreyvit/mercury"
	"github.com/andreyvit/mercury/strid"
)

func TestOccluderCollidersMap(t *testing.T) {
	m := must(Default().NewField(OccluderCollidersMapType)).(*OccluderCollidersMap)
	entry := OccluderColliders{Key: "occ_01"}
	entry.EnabledIDs.Items = []mercury.Uint64{7, 9}
	m.Items = append(m.Items, entry)

	var e []byte
	e = le32(e, 1)
	e = append(e, "occ_01\x00"...)
	e = le32(e, 2)
	e = le64(e, 7)
	e = le64(e, 9)

	a := encode(t, m)
	if !bytes.Equal(a, e) {
		t.Fatalf("Write = %x, wanted %x", a, e)
	}

	var got OccluderCollidersMap
	decode(t, a, &got)
	if len(got.Items) != 1 || got.Items[0].Key != "occ_01" || len(got.Items[0].EnabledIDs.Items) != 2 {
		t.Fatalf("read back %+v", got.Items)
	}
}

func TestOccluderVignettes(t *testing.T) {
	var d OccluderVignettes
	d.Set("vignette_a", true)
	d.Set("vignette_b", false)
	d.Set("vignette_a", false)

	var got OccluderVignettes
	decode(t, encode(t, &d), &got)
	if a, e := got.Len(), 2; a != e {
		t.Fatalf("Len = %d, wanted %d", a, e)
	}
	if v, ok := got.Get("vignette_a"); !ok || bool(*v) {
		t.Fatalf("vignette_a = %v, %v, wanted false, true", v, ok)
	}
}

func TestLiquidVolumes(t *testing.T) {
	d := NewLiquidVolumes()
	box := d.NewValue().(*mercury.PropertyBag)
	mercury.SetValue(box, "Min", mercury.Vector2{-1, -2})
	mercury.SetValue(box, "Max", mercury.Vector2{3, 4})
	name := mercury.String("lava_01")
	d.Entries = append(d.Entries, mercury.FieldPair{Key: &name, Value: box})

	got := NewLiquidVolumes()
	decode(t, encode(t, d), got)
	if len(got.Entries) != 1 {
		t.Fatalf("len(Entries) = %d, wanted 1", len(got.Entries))
	}
	if a, e := *got.Entries[0].Key.(*mercury.String), name; a != e {
		t.Fatalf("key = %q, wanted %q", a, e)
	}
	corner, _ := mercury.GetValue[mercury.Vector2](got.Entries[0].Value.(*mercury.PropertyBag), "Max")
	if a, e := corner, (mercury.Vector2{3, 4}); a != e {
		t.Fatalf("Max = %v, wanted %v", a, e)
	}
}

func TestGlobalMapIcons(t *testing.T) {
	d := NewGlobalMapIcons()
	icons := d.NewValue().(*mercury.FieldArray)
	icon := icons.New().(*mercury.PropertyBag)
	mercury.SetValue(icon, "sIconID", mercury.String("TELEPORTAL"))
	mercury.SetValue(icon, "vIconPos", mercury.Vector2{10, 20})
	icons.Items = append(icons.Items, icon)
	area := mercury.String("s010_area1")
	d.Entries = append(d.Entries, mercury.FieldPair{Key: &area, Value: icons})

	data := encode(t, d)
	got := NewGlobalMapIcons()
	decode(t, data, got)
	gi := got.Entries[0].Value.(*mercury.FieldArray).Items[0].(*mercury.PropertyBag)
	if a, e := gi.Names(), []string{"sIconID", "vIconPos"}; len(a) != 2 || a[0] != e[0] || a[1] != e[1] {
		t.Fatalf("Names = %q, wanted %q", a, e)
	}
}

func TestMissionLogEntries(t *testing.T) {
	a := NewMissionLogEntries()
	entry := a.New().(*mercury.PropertyBag)
	mercury.SetValue(entry, "eEntryType", mercury.Int32(2))
	captions := mercury.ListProperty[mercury.String](entry, "vCaptionsIds")
	if !captions.ReadOnly() {
		t.Fatalf("absent list is not read-only")
	}
	captions.Add("CAPTION_1")
	captions.Add("CAPTION_2")
	a.Items = append(a.Items, entry)

	got := NewMissionLogEntries()
	decode(t, encode(t, a), got)
	gl := mercury.ListProperty[mercury.String](got.Items[0].(*mercury.PropertyBag), "vCaptionsIds")
	if gl.Len() != 2 || *gl.At(1) != "CAPTION_2" {
		t.Fatalf("vCaptionsIds = %q", gl.Items())
	}
	if got.Items[0].(*mercury.PropertyBag).Has("sLabelText") {
		t.Fatalf("absent sLabelText became present")
	}
}

func TestMapTutoTypes(t *testing.T) {
	v := must(Default().ValueOf(MapTutoTypesType))
	v.Data.(*MapTutoTypes).Items = []mercury.Int32{1, 3}
	got := Default().NewValue()
	decode(t, encode(t, v), got)
	if a := got.Data.(*MapTutoTypes).Items; len(a) != 2 || a[1] != 3 {
		t.Fatalf("Items = %v", a)
	}
}

func TestSection(t *testing.T) {
	reg := Default()
	s := reg.NewSection("PLAYER_INVENTORY")
	life := must(reg.ValueOf("float"))
	*life.Data.(*mercury.Float32) = 299
	s.Set("ITEM_MAX_LIFE", life)
	tanks := must(reg.ValueOf("unsigned"))
	*tanks.Data.(*mercury.Uint32) = 3
	s.Set("ITEM_ENERGY_TANKS", tanks)

	data := encode(t, s)

	var e []byte
	e = append(e, "PLAYER_INVENTORY\x00"...)
	e = le64(e, uint64(strid.Of(SectionType)))
	e = le32(e, 1)
	e = le64(e, uint64(strid.Of("dctProps")))
	e = le32(e, 2)
	if !bytes.HasPrefix(data, e) {
		t.Fatalf("Write = %x, wanted prefix %x", data, e)
	}

	got := reg.NewSection("")
	decode(t, data, got)
	if a, e := got.Name, "PLAYER_INVENTORY"; a != e {
		t.Fatalf("Name = %q, wanted %q", a, e)
	}
	v, ok := got.Get("ITEM_ENERGY_TANKS")
	if !ok || *v.Data.(*mercury.Uint32) != 3 {
		t.Fatalf("ITEM_ENERGY_TANKS = %v, %v", v, ok)
	}
	if _, ok := got.Get("ITEM_MISSING"); ok {
		t.Fatalf("Get found a missing property")
	}
}

func TestSection_BadMarker(t *testing.T) {
	data := append([]byte("X\x00"), le64(nil, 42)...)
	data = le32(data, 1)
	data = le64(data, uint64(strid.Of("dctProps")))
	data = le32(data, 0)
	err := decodeErr(data, Default().NewSection(""))
	if !errors.Is(err, mercury.ErrValidation) {
		t.Fatalf("Read err = %v, wanted ErrValidation", err)
	}
	var fe *mercury.FieldError
	if !errors.As(err, &fe) || fe.Index != 1 {
		t.Fatalf("Read err = %v, wanted a FieldError for field 1", err)
	}
}

func TestSection_UsesOwnRegistry(t *testing.T) {
	reg := New()
	reg.Register(&PrimitiveType{"custom", PrimUInt16})
	RegisterBuiltins(reg)

	s := reg.NewSection("S")
	v := must(reg.ValueOf("custom"))
	*v.Data.(*mercury.Uint16) = 5
	s.Set("p", v)

	sv := must(reg.ValueOf(SectionType))
	*sv.Data.(*Section) = *s
	data := encode(t, sv)

	got := reg.NewValue()
	decode(t, data, got)
	gv, _ := got.Data.(*Section).Get("p")
	if a, e := gv.TypeName(), "custom"; a != e {
		t.Fatalf("TypeName = %q, wanted %q", a, e)
	}

	if err := decodeErr(data, Default().NewValue()); !errors.Is(err, mercury.ErrUnknownType) {
		t.Fatalf("Default().NewValue().Read err = %v, wanted ErrUnknownType", err)
	}
}
