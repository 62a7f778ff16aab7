package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/andreyvit/mercury"
	"github.com/andreyvit/mercury/strid"
)

func TestToc(t *testing.T) {
	var toc Toc
	toc.PutPath("system/fx/textures/hud.bctex", 1024)
	toc.PutPath("packs/system/system.pkg", 77)
	toc.PutPath("system/fx/textures/hud.bctex", 2048)

	var e []byte
	e = binary.LittleEndian.AppendUint32(e, 2)
	e = strid.Of("system/fx/textures/hud.bctex").AppendBinary(e)
	e = binary.LittleEndian.AppendUint32(e, 2048)
	e = strid.Of("packs/system/system.pkg").AppendBinary(e)
	e = binary.LittleEndian.AppendUint32(e, 77)

	data := must(mercury.Marshal(&toc, mercury.Options{}))
	if !bytes.Equal(data, e) {
		t.Fatalf("Marshal = %x, wanted %x", data, e)
	}

	var got Toc
	ensure(mercury.Unmarshal(data, &got, mercury.Options{}))
	if a, e := must(got.FileSize(strid.Of("packs/system/system.pkg"))), uint32(77); a != e {
		t.Fatalf("FileSize = %d, wanted %d", a, e)
	}
	if _, ok := got.LookupFileSize(strid.Of("missing")); ok {
		t.Fatalf("LookupFileSize found a missing file")
	}
	if _, err := got.FileSize(strid.Of("missing")); !errors.Is(err, ErrNoFile) {
		t.Fatalf("FileSize err = %v, wanted ErrNoFile", err)
	}
}

func TestToc_Truncated(t *testing.T) {
	data := binary.LittleEndian.AppendUint32(nil, 3)
	data = strid.Of("a").AppendBinary(data)
	err := mercury.Unmarshal(data, &Toc{}, mercury.Options{})
	if !errors.Is(err, mercury.ErrTruncated) {
		t.Fatalf("Unmarshal err = %v, wanted ErrTruncated", err)
	}
}

func TestToc_LeftoverBytes(t *testing.T) {
	data := binary.LittleEndian.AppendUint32(nil, 0)
	data = append(data, 0xAA)
	err := mercury.Unmarshal(data, &Toc{}, mercury.Options{})
	if !errors.Is(err, mercury.ErrValidation) {
		t.Fatalf("Unmarshal err = %v, wanted ErrValidation", err)
	}
}
