package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/andreyvit/mercury"
	"github.com/andreyvit/mercury/dread"
	"github.com/andreyvit/mercury/strid"
)

func guiRegistry() *dread.Registry {
	return must(dread.Load(strings.NewReader(`{
		"float": {"kind": "primitive", "primitive_kind": "float"},
		"GUI::CDisplayObject": {"kind": "struct", "fields": {"fAlpha": "float"}},
		"GUI::CDisplayObjectContainer": {"kind": "struct", "parent": "GUI::CDisplayObject", "fields": {}},
		"GUI::CLabel": {"kind": "struct", "parent": "GUI::CDisplayObject", "fields": {}}
	}`)))
}

func TestBmscp_RoundTrip(t *testing.T) {
	reg := guiRegistry()
	s := NewBmscp(reg)
	root := must(reg.ValueOf("GUI::CDisplayObjectContainer"))
	mercury.SetValue(root.Data.(*mercury.PropertyBag), "fAlpha", mercury.Float32(0.5))
	ensure(s.Root.Set(root))

	var e []byte
	e = strid.Of("GUI::CDisplayObjectContainer").AppendBinary(e)
	e = append(e, 1, 0, 2, 2)
	e = strid.Of("Root").AppendBinary(e)
	e = strid.Of("GUI::CDisplayObjectContainer").AppendBinary(e)
	e = append(e, 1, 0, 0, 0)
	e = strid.Of("fAlpha").AppendBinary(e)
	e = binary.LittleEndian.AppendUint32(e, math.Float32bits(0.5))

	data := must(mercury.Marshal(s, mercury.Options{}))
	if !bytes.Equal(data, e) {
		t.Fatalf("Marshal = %x, wanted %x", data, e)
	}

	got := NewBmscp(reg)
	ensure(mercury.Unmarshal(data, got, mercury.Options{}))
	if got.Root.IsNull() || got.Root.Value.TypeName() != "GUI::CDisplayObjectContainer" {
		t.Fatalf("Root = %v", got.Root.Description())
	}
	if v, _ := mercury.GetValue[mercury.Float32](got.Root.Value.Data.(*mercury.PropertyBag), "fAlpha"); v != 0.5 {
		t.Fatalf("fAlpha = %v, wanted 0.5", v)
	}
	ensure(mercury.VerifyRoundTrip(data, NewBmscp(reg), mercury.Options{}))
}

func TestStandard_NullRoot(t *testing.T) {
	s := NewBmsss(guiRegistry())
	data := must(mercury.Marshal(s, mercury.Options{}))
	if a, e := len(data), 28; a != e {
		t.Fatalf("len = %d, wanted %d", a, e)
	}
	got := NewBmsss(guiRegistry())
	ensure(mercury.Unmarshal(data, got, mercury.Options{}))
	if !got.Root.IsNull() {
		t.Fatalf("Root = %v, wanted NULL", got.Root.Description())
	}
}

func TestStandard_WrongFormat(t *testing.T) {
	reg := guiRegistry()
	data := must(mercury.Marshal(NewBmsss(reg), mercury.Options{}))
	err := mercury.Unmarshal(data, NewBmssk(reg), mercury.Options{})
	if !errors.Is(err, mercury.ErrValidation) {
		t.Fatalf("Unmarshal err = %v, wanted ErrValidation", err)
	}
}

func TestStandard_RootTypeChecked(t *testing.T) {
	reg := guiRegistry()
	s := NewBmscp(reg)
	if err := s.Root.Set(must(reg.ValueOf("GUI::CLabel"))); !errors.Is(err, mercury.ErrValidation) {
		t.Fatalf("Set err = %v, wanted ErrValidation", err)
	}
}
