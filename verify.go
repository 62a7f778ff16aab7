package mercury

import (
	"bytes"
	"log/slog"

	"github.com/cespare/xxhash/v2"
)

// VerifyRoundTrip reads data into f, writes f back and checks that the
// output is byte-identical to the input. On mismatch the error points at the
// first differing byte and, when opt.Mapper is set, the mapper describes the
// field that wrote it.
func VerifyRoundTrip(data []byte, f Format, opt Options) error {
	opt = opt.withDefaults()
	if err := Unmarshal(data, f, opt); err != nil {
		return err
	}
	out, err := Marshal(f, opt)
	if err != nil {
		return err
	}

	if opt.Verbose {
		opt.Logger.LogAttrs(opt.Context, slog.LevelDebug, "mercury: round trip", slog.String("format", f.FormatName()), slog.Uint64("in", xxhash.Sum64(data)), slog.Uint64("out", xxhash.Sum64(out)))
	}
	if bytes.Equal(data, out) {
		return nil
	}

	off := firstDifference(data, out)
	msg := "output differs from input"
	if opt.Mapper != nil {
		if ranges := opt.Mapper.ContainingRanges(uint64(off)); len(ranges) > 0 {
			msg += " in " + ranges[len(ranges)-1].Description
		}
	}
	opt.Logger.LogAttrs(opt.Context, slog.LevelWarn, "mercury: round trip mismatch", slog.String("format", f.FormatName()), slog.Int("off", off), slog.Int("in_len", len(data)), slog.Int("out_len", len(out)), hexAttr("in", window(data, off)), hexAttr("out", window(out, off)))
	return dataErrf(uint64(off), ErrValidation, "%s (input %d bytes, output %d bytes)", msg, len(data), len(out))
}

func firstDifference(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func window(b []byte, off int) []byte {
	if off >= len(b) {
		return []byte{}
	}
	return b[off:min(off+16, len(b))]
}
