package mercury

import (
	"bytes"
	"errors"
	"testing"

	"github.com/andreyvit/mercury/strid"
)

func standardBytes(typeName string, v FileVersion) []byte {
	data := strid.Of(typeName).AppendBinary(nil)
	data = append(le16(data, v.Major), v.Minor, v.Patch)
	return strid.Of("Root").AppendBinary(data)
}

func TestStandardHeader(t *testing.T) {
	v := FileVersion{1, 2, 2}
	h := &StandardHeader{TypeName: "CActor", Version: v}
	data := encodeField(t, h)
	if e := standardBytes("CActor", v); !bytes.Equal(data, e) {
		t.Fatalf("Write = %x, wanted %x", data, e)
	}
	if h.StoredTypeName != strid.Of("CActor") || h.StoredVersion != v {
		t.Fatalf("Write did not fill the stored fields: %v %v", h.StoredTypeName, h.StoredVersion)
	}

	got := &StandardHeader{TypeName: "CActor", Version: v}
	decodeField(t, data, got)
	if got.StoredVersion != v {
		t.Fatalf("StoredVersion = %v, wanted %v", got.StoredVersion, v)
	}

	loose := &StandardHeader{}
	decodeField(t, data, loose)
	if loose.StoredTypeName != strid.Of("CActor") || loose.StoredVersion != v {
		t.Fatalf("read %v %v without expectations", loose.StoredTypeName, loose.StoredVersion)
	}
	if a := encodeField(t, loose); !bytes.Equal(a, data) {
		t.Fatalf("rewritten = %x, wanted %x", a, data)
	}
}

func TestStandardHeader_Mismatch(t *testing.T) {
	v := FileVersion{1, 2, 2}
	tests := []struct {
		name string
		data []byte
		off  uint64
	}{
		{"type name", standardBytes("CPlayer", v), 0},
		{"version", standardBytes("CActor", FileVersion{1, 2, 3}), 8},
		{"root crc", append(standardBytes("CActor", v)[:12], strid.Of("Tree").AppendBinary(nil)...), 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := decodeFieldErr(tt.data, &StandardHeader{TypeName: "CActor", Version: v})
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("Read err = %v, wanted ErrValidation", err)
			}
			var de *DataError
			if !errors.As(err, &de) || de.Off != tt.off {
				t.Fatalf("Read err = %v, wanted a DataError at %d", err, tt.off)
			}
		})
	}
}

func TestFileVersion_String(t *testing.T) {
	if a, e := (FileVersion{1, 2, 2}).String(), "1.2.2"; a != e {
		t.Fatalf("String = %q, wanted %q", a, e)
	}
}
