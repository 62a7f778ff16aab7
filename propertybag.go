package mercury

import (
	"fmt"
	"slices"

	"github.com/andreyvit/mercury/strid"
)

// BagSchema lists the properties a PropertyBag may hold. Property names
// appear on the wire only as their hash.
type BagSchema struct {
	name   string
	byKey  map[strid.ID]*bagProp
	byName map[string]*bagProp
	order  []*bagProp
}

type bagProp struct {
	name string
	key  strid.ID
	new  func() Field
}

func NewBagSchema(name string) *BagSchema {
	return &BagSchema{
		name:   name,
		byKey:  make(map[strid.ID]*bagProp),
		byName: make(map[string]*bagProp),
	}
}

// Define adds a property. Redefining a name replaces its factory; two names
// with the same hash panic.
func (s *BagSchema) Define(name string, newFn func() Field) *BagSchema {
	key := strid.Of(name)
	if p := s.byName[name]; p != nil {
		p.new = newFn
		return s
	}
	if p := s.byKey[key]; p != nil {
		panic(fmt.Errorf("%s: properties %q and %q have the same hash %v", s.name, p.name, name, key))
	}
	p := &bagProp{name, key, newFn}
	s.byKey[key] = p
	s.byName[name] = p
	s.order = append(s.order, p)
	return s
}

// Extend copies all properties of base, keeping their order.
func (s *BagSchema) Extend(base *BagSchema) *BagSchema {
	for _, p := range base.order {
		s.Define(p.name, p.new)
	}
	return s
}

func (s *BagSchema) Name() string { return s.name }

// Names returns the defined property names in definition order.
func (s *BagSchema) Names() []string {
	names := make([]string, len(s.order))
	for i, p := range s.order {
		names[i] = p.name
	}
	return names
}

// NameOf returns the property name for a key.
func (s *BagSchema) NameOf(key strid.ID) (string, bool) {
	if p := s.byKey[key]; p != nil {
		return p.name, true
	}
	return "", false
}

func (s *BagSchema) prop(name string) *bagProp {
	p := s.byName[name]
	if p == nil {
		panic(fmt.Errorf("%s has no property %q", s.name, name))
	}
	return p
}

// PropertyBag is an ordered set of optional, hash-keyed properties:
//
//	count:u32 (key:u64 value)*
//
// Only present properties are written. A property that was never set or
// was cleared is absent, which is distinct from a present empty collection.
// Keys keep the order in which they first became present.
//
// A stream may repeat a key. Every entry is kept in stream order and written
// back as read; Get and Set act on the last entry for a key, and
// ClearProperty removes all of them.
type PropertyBag struct {
	schema  *BagSchema
	entries []bagEntry
}

type bagEntry struct {
	key   strid.ID
	value Field
}

func NewPropertyBag(schema *BagSchema) *PropertyBag {
	return &PropertyBag{schema: schema}
}

func (b *PropertyBag) Schema() *BagSchema { return b.schema }

// Len returns the number of entries, repeated keys included.
func (b *PropertyBag) Len() int { return len(b.entries) }

func (b *PropertyBag) Has(name string) bool {
	return b.last(b.schema.prop(name).key) >= 0
}

// Get returns the field of a present property. Unknown names panic.
func (b *PropertyBag) Get(name string) (Field, bool) {
	if i := b.last(b.schema.prop(name).key); i >= 0 {
		return b.entries[i].value, true
	}
	return nil, false
}

// GetOrCreate returns the field of a property, making it present with a
// blank value if needed.
func (b *PropertyBag) GetOrCreate(name string) Field {
	p := b.schema.prop(name)
	if i := b.last(p.key); i >= 0 {
		return b.entries[i].value
	}
	f := p.new()
	b.entries = append(b.entries, bagEntry{p.key, f})
	return f
}

// Set makes a property present with value f. A property that is already
// present keeps its position.
func (b *PropertyBag) Set(name string, f Field) {
	if f == nil {
		panic(fmt.Errorf("%s.%s: nil value, use ClearProperty to remove a property", b.schema.name, name))
	}
	key := b.schema.prop(name).key
	if i := b.last(key); i >= 0 {
		b.entries[i].value = f
		return
	}
	b.entries = append(b.entries, bagEntry{key, f})
}

// ClearProperty makes a property absent.
func (b *PropertyBag) ClearProperty(name string) {
	key := b.schema.prop(name).key
	b.entries = slices.DeleteFunc(b.entries, func(e bagEntry) bool { return e.key == key })
}

// Keys returns the keys of all entries in order.
func (b *PropertyBag) Keys() []strid.ID {
	keys := make([]strid.ID, len(b.entries))
	for i, e := range b.entries {
		keys[i] = e.key
	}
	return keys
}

// Names returns the names of all entries in order.
func (b *PropertyBag) Names() []string {
	names := make([]string, len(b.entries))
	for i, e := range b.entries {
		names[i] = b.schema.byKey[e.key].name
	}
	return names
}

func (b *PropertyBag) last(key strid.ID) int {
	for i := len(b.entries) - 1; i >= 0; i-- {
		if b.entries[i].key == key {
			return i
		}
	}
	return -1
}

func (b *PropertyBag) Size(pos uint64) uint64 {
	start := pos
	pos += 4
	for _, e := range b.entries {
		pos += 8
		pos += e.value.Size(pos)
	}
	return pos - start
}

// Read replaces the content of the bag with the properties in the stream.
func (b *PropertyBag) Read(r *Reader) error {
	count, err := r.Uint32()
	if err != nil {
		return err
	}
	if err := checkCount(r, count, 8); err != nil {
		return err
	}
	b.entries = make([]bagEntry, 0, count)
	for i := 0; i < int(count); i++ {
		if err := r.Err(); err != nil {
			return err
		}
		off := r.Pos()
		k, err := r.Uint64()
		if err != nil {
			return err
		}
		key := strid.ID(k)
		p := b.schema.byKey[key]
		if p == nil {
			return dataErrf(off, ErrUnknownType, "%s: unknown property %v (index %d)", b.schema.name, key, i)
		}
		f := p.new()
		if err := f.Read(r); err != nil {
			return dataErrf(off, err, "%s.%s (index %d)", b.schema.name, p.name, i)
		}
		b.entries = append(b.entries, bagEntry{key, f})
	}
	return nil
}

func (b *PropertyBag) Write(w *Writer) error {
	w.Uint32(uint32(len(b.entries)))
	for i, e := range b.entries {
		if err := w.Err(); err != nil {
			return err
		}
		off := w.Pos()
		name := b.schema.byKey[e.key].name
		w.Uint64(uint64(e.key))
		w.PushRange(name)
		if err := e.value.Write(w); err != nil {
			return dataErrf(off, err, "%s.%s (index %d)", b.schema.name, name, i)
		}
		if err := w.PopRange(); err != nil {
			return err
		}
	}
	return nil
}

func (b *PropertyBag) Description() string {
	return b.schema.name
}
