package mercury

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func mappedHeader(t *testing.T) *DataMapper {
	t.Helper()
	m := NewDataMapper()
	must(Marshal(&header{Version: 3, Name: "room"}, Options{Mapper: m}))
	return m
}

func TestDataMapper_Ranges(t *testing.T) {
	m := mappedHeader(t)
	root := m.Root()
	if root.Description != "Root" || root.Start != 0 || root.End != 29 {
		t.Fatalf("root = %q %d..%d, wanted Root 0..29", root.Description, root.Start, root.End)
	}
	if a, e := len(root.Children), 1; a != e {
		t.Fatalf("root has %d children, wanted %d", a, e)
	}
	if a, e := len(root.Children[0].Children), headerLayout.Len(); a != e {
		t.Fatalf("header has %d children, wanted %d", a, e)
	}

	chain := m.ContainingRanges(13)
	var descs []string
	for _, r := range chain {
		descs = append(descs, r.Description)
	}
	if a, e := strings.Join(descs, " > "), "Root > header > Version"; a != e {
		t.Fatalf("ContainingRanges(13) = %s, wanted %s", a, e)
	}
	if chain := m.ContainingRanges(29); len(chain) != 0 {
		t.Fatalf("ContainingRanges(29) = %d ranges, wanted none", len(chain))
	}
}

func TestDataMapper_PopRoot(t *testing.T) {
	if err := NewDataMapper().PopRange(0); !errors.Is(err, ErrInvariant) {
		t.Fatalf("PopRange err = %v, wanted ErrInvariant", err)
	}
}

func TestDataMapper_Dump(t *testing.T) {
	m := mappedHeader(t)
	m.PushRange("nothing", 29)
	ensure(m.PopRange(29))

	s := m.Dump(DumpRanges)
	if !strings.Contains(s, "0000000C..00000010 (4) Version") {
		t.Fatalf("Dump = %s, wanted it to list Version", s)
	}
	if strings.Contains(s, "nothing") {
		t.Fatalf("Dump(DumpRanges) listed an empty range")
	}
	if s := m.Dump(DumpAll); !strings.Contains(s, "nothing") {
		t.Fatalf("Dump(DumpAll) = %s, wanted it to list the empty range", s)
	}
}

func TestDataMapper_Encode(t *testing.T) {
	m := mappedHeader(t)

	var fromJSON DataRange
	ensure(json.Unmarshal(must(m.Encode(JSON)), &fromJSON))
	var fromMsgPack DataRange
	ensure(msgpack.Unmarshal(must(m.Encode(MsgPack)), &fromMsgPack))

	for name, r := range map[string]*DataRange{JSON.String(): &fromJSON, MsgPack.String(): &fromMsgPack} {
		if r.Description != "Root" || r.End != 29 || len(r.Children) != 1 {
			t.Fatalf("%s: decoded root = %+v", name, r)
		}
		if a, e := r.Children[0].Children[2].Description, "Version"; a != e {
			t.Fatalf("%s: third field = %q, wanted %q", name, a, e)
		}
	}
}
