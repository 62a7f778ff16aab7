// Package strid computes the 64-bit string identifiers the engine uses in
// place of type names and property names.
//
// The hash is CRC-64/ECMA-182 in its reflected form, seeded with all ones
// and without the final inversion. Go's hash/crc64 inverts on both ends, so
// Hash undoes the trailing inversion.
package strid

import (
	"encoding/binary"
	"fmt"
	"hash/crc64"
)

var table = crc64.MakeTable(crc64.ECMA)

// ID is a hashed string.
type ID uint64

// Of returns the ID of s.
func Of(s string) ID {
	return ID(Hash([]byte(s)))
}

// Hash returns the engine CRC-64 of data.
func Hash(data []byte) uint64 {
	return ^crc64.Checksum(data, table)
}

// Update continues a hash computed by Hash over more data.
func Update(h uint64, data []byte) uint64 {
	return ^crc64.Update(^h, table, data)
}

// Seed is the hash of the empty input.
const Seed uint64 = 0xFFFFFFFFFFFFFFFF

func (id ID) String() string {
	return fmt.Sprintf("0x%016X", uint64(id))
}

// AppendBinary appends the little-endian wire form of id.
func (id ID) AppendBinary(buf []byte) []byte {
	return binary.LittleEndian.AppendUint64(buf, uint64(id))
}
