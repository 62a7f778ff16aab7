package mercury

import (
	"context"
	"log/slog"
)

// Options configure a single read or write pass.
type Options struct {
	// Context is checked between fields; a cancelled pass leaves the target
	// partially populated.
	Context context.Context

	Logger *slog.Logger

	// Verbose logs every heap allocation, flush and pointer dereference at
	// debug level.
	Verbose bool

	// PaddingByte fills the gaps that alignment leaves in the heap.
	PaddingByte byte

	// Mapper, when set, records the byte range of every field written.
	Mapper *DataMapper
}

func (o Options) withDefaults() Options {
	if o.Context == nil {
		o.Context = context.Background()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
