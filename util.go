package mercury

import (
	"encoding/hex"
	"fmt"
	"log/slog"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}

func hexstr(b []byte) string {
	if b == nil {
		return "<nil>"
	}
	if len(b) == 0 {
		return "<empty>"
	}
	return hex.EncodeToString(b)
}

func hexAttr(key string, b []byte) slog.Attr {
	return slog.String(key, hexstr(b))
}

func addrAttr(key string, addr uint64) slog.Attr {
	return slog.String(key, fmt.Sprintf("0x%X", addr))
}

// Describer is implemented by fields that want a friendlier name in errors,
// heap allocation descriptions and range maps.
type Describer interface {
	Description() string
}

func describe(f Field) string {
	if d, ok := f.(Describer); ok {
		return d.Description()
	}
	return fmt.Sprintf("%T", f)
}

func describeOr(f Field, desc string) string {
	if desc != "" {
		return desc
	}
	return describe(f)
}
