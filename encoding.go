package mercury

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Encoding selects how range maps are serialized.
type Encoding int

const (
	JSON Encoding = iota
	MsgPack
)

func (enc Encoding) String() string {
	switch enc {
	case JSON:
		return "json"
	case MsgPack:
		return "msgpack"
	default:
		return fmt.Sprintf("Encoding(%d)", int(enc))
	}
}

// Encode serializes the range tree rooted at the mapper's root.
func (m *DataMapper) Encode(enc Encoding) ([]byte, error) {
	var bb bytesBuilder
	if err := m.EncodeTo(&bb, enc); err != nil {
		return nil, err
	}
	return bb.Buf, nil
}

func (m *DataMapper) EncodeTo(w io.Writer, enc Encoding) error {
	switch enc {
	case MsgPack:
		e := msgpack.GetEncoder()
		defer msgpack.PutEncoder(e)
		e.Reset(w)
		e.SetSortMapKeys(true)
		if err := e.Encode(m.root); err != nil {
			return fmt.Errorf("failed to encode range map using MsgPack: %w", err)
		}
		return nil
	case JSON:
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		if err := e.Encode(m.root); err != nil {
			return fmt.Errorf("failed to encode range map to JSON: %w", err)
		}
		return nil
	default:
		panic("unsupported encoding")
	}
}
