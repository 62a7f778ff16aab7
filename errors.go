package mercury

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation is returned when data read from a stream fails a structural
	// check, like a constant that does not have its expected value.
	ErrValidation = errors.New("validation failed")

	// ErrUnknownType is returned when a type or property hash has no mapping.
	ErrUnknownType = errors.New("unknown type")

	// ErrUnknownDiscriminator is returned by a Switch whose discriminator value
	// has neither a case nor a fallback.
	ErrUnknownDiscriminator = errors.New("unknown switch value")

	// ErrTruncated is returned when the stream ends before a field does, or
	// when an address points past the end of the stream.
	ErrTruncated = errors.New("truncated data")

	// ErrUnsupported is returned when a field needs a capability the stream
	// does not have, like seeking.
	ErrUnsupported = errors.New("unsupported operation")

	// ErrInvariant is returned when the caller breaks a contract of the
	// framework, like writing a value whose type disagrees with its tag.
	ErrInvariant = errors.New("contract violation")
)

// DataError describes a failure at a specific stream position.
type DataError struct {
	Off uint64
	Len int
	Err error
	Msg string
}

func dataErrf(off uint64, err error, format string, args ...any) error {
	return &DataError{Off: off, Err: err, Msg: fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Msg)
	if e.Len > 0 {
		fmt.Fprintf(&buf, " (at 0x%X, %d bytes)", e.Off, e.Len)
	} else {
		fmt.Fprintf(&buf, " (at 0x%X)", e.Off)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// FieldError attributes a failure to one field of a structure.
type FieldError struct {
	Structure string
	Index     int
	Field     string
	Off       uint64
	Writing   bool
	Err       error
}

func fieldErr(structure string, index int, field string, off uint64, writing bool, err error) error {
	return &FieldError{structure, index, field, off, writing, err}
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func (e *FieldError) Error() string {
	var buf strings.Builder
	if e.Writing {
		buf.WriteString("writing ")
	} else {
		buf.WriteString("reading ")
	}
	if e.Structure != "" {
		buf.WriteString(e.Structure)
		buf.WriteByte('.')
	}
	if e.Field != "" {
		buf.WriteString(e.Field)
	} else {
		fmt.Fprintf(&buf, "#%d", e.Index)
	}
	fmt.Fprintf(&buf, " (field %d, at 0x%X)", e.Index, e.Off)
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}
