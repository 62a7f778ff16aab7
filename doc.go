/*
Package mercury reads and writes engine binary formats byte for byte.

We implement:

1. Fields, units of binary data that know their size and how to read and
write themselves, and Layouts, ordered field lists described once per type.

2. The heap, an out-of-line area of the same stream where objects referenced
by pointers live. Writing reserves addresses first and emits objects later;
reading maps addresses back to the objects already read.

3. Pointer-chasing collections: single pointers and linked lists whose nodes
and entries live on the heap.

4. Property bags, ordered sets of optional properties keyed by the hash of
their names, and switch fields, whose shape depends on a sibling value.

5. Range maps recording which field wrote which bytes.

Dynamically typed values resolved through the engine type registry live in
package dread; concrete file formats live in package formats.

# Technical Details

**Byte order.** Everything is little-endian.

**Addresses.** Heap addresses are absolute u64 offsets from the start of the
stream. Address 0 is null.

**Allocation.** The heap of a write pass starts right after the root
format's own fields (a format may move it). Each allocation is padded so that
it starts at a multiple of its start alignment, and the free cursor after it
is padded to its end alignment. Objects are identified by reference: two
pointers to the same object share one copy.

**Flushing.** Allocated objects are written after the root format, in
allocation order. Objects allocated while flushing are appended to the queue,
so every address is final before the bytes it points to are emitted.

**Reading.** A dereferenced object is registered at its address before its own
fields are read, so cyclic pointer graphs terminate. After the root format is
read, the furthest of the cursor and the end of every heap object read must
be the end of the stream.

**Hashes.** Type names and property names are hashed with package strid.
*/
package mercury
