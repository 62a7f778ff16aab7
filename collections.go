package mercury

import (
	"fmt"
	"slices"
)

// Array is a u32 count followed by the items. When StartAlign is set and
// the array is not empty, the items start aligned.
type Array[E any, P fieldPtr[E]] struct {
	Items      []E
	StartAlign uint64
}

func (a *Array[E, P]) Size(pos uint64) uint64 {
	start := pos
	pos += 4
	if len(a.Items) > 0 {
		pos += padding(pos, a.StartAlign)
	}
	for i := range a.Items {
		pos += P(&a.Items[i]).Size(pos)
	}
	return pos - start
}

func (a *Array[E, P]) Read(r *Reader) error {
	count, err := r.Uint32()
	if err != nil {
		return err
	}
	if err := checkCount(r, count, 1); err != nil {
		return err
	}
	if count > 0 && a.StartAlign > 1 {
		if _, err := r.Bytes(int(padding(r.Pos(), a.StartAlign))); err != nil {
			return err
		}
	}
	a.Items = make([]E, count)
	for i := range a.Items {
		if err := r.Err(); err != nil {
			return err
		}
		off := r.Pos()
		if err := P(&a.Items[i]).Read(r); err != nil {
			return dataErrf(off, err, "array entry %d", i)
		}
	}
	return nil
}

func (a *Array[E, P]) Write(w *Writer) error {
	w.Uint32(uint32(len(a.Items)))
	if len(a.Items) > 0 {
		w.Align(a.StartAlign, 0)
	}
	for i := range a.Items {
		if err := w.Err(); err != nil {
			return err
		}
		off := w.Pos()
		if err := P(&a.Items[i]).Write(w); err != nil {
			return dataErrf(off, err, "array entry %d", i)
		}
	}
	return nil
}

// Pair is one entry of a Dictionary.
type Pair[K, V any] struct {
	Key   K
	Value V
}

// Dictionary is a u32 count followed by key/value pairs, in stored order.
type Dictionary[KE comparable, KP fieldPtr[KE], VE any, VP fieldPtr[VE]] struct {
	Entries []Pair[KE, VE]
}

func (d *Dictionary[KE, KP, VE, VP]) Len() int {
	return len(d.Entries)
}

// Get returns the value of the first entry with key k.
func (d *Dictionary[KE, KP, VE, VP]) Get(k KE) (VP, bool) {
	for i := range d.Entries {
		if d.Entries[i].Key == k {
			return VP(&d.Entries[i].Value), true
		}
	}
	return nil, false
}

// Set replaces the value of the first entry with key k, or appends one.
func (d *Dictionary[KE, KP, VE, VP]) Set(k KE, v VE) {
	for i := range d.Entries {
		if d.Entries[i].Key == k {
			d.Entries[i].Value = v
			return
		}
	}
	d.Entries = append(d.Entries, Pair[KE, VE]{k, v})
}

// Delete removes every entry with key k and reports whether there was one.
func (d *Dictionary[KE, KP, VE, VP]) Delete(k KE) bool {
	n := len(d.Entries)
	d.Entries = slices.DeleteFunc(d.Entries, func(p Pair[KE, VE]) bool { return p.Key == k })
	return len(d.Entries) != n
}

func (d *Dictionary[KE, KP, VE, VP]) Keys() []KE {
	keys := make([]KE, len(d.Entries))
	for i := range d.Entries {
		keys[i] = d.Entries[i].Key
	}
	return keys
}

func (d *Dictionary[KE, KP, VE, VP]) Size(pos uint64) uint64 {
	start := pos
	pos += 4
	for i := range d.Entries {
		pos += KP(&d.Entries[i].Key).Size(pos)
		pos += VP(&d.Entries[i].Value).Size(pos)
	}
	return pos - start
}

func (d *Dictionary[KE, KP, VE, VP]) Read(r *Reader) error {
	count, err := r.Uint32()
	if err != nil {
		return err
	}
	if err := checkCount(r, count, 1); err != nil {
		return err
	}
	d.Entries = make([]Pair[KE, VE], count)
	for i := range d.Entries {
		if err := r.Err(); err != nil {
			return err
		}
		off := r.Pos()
		if err := KP(&d.Entries[i].Key).Read(r); err != nil {
			return dataErrf(off, err, "dictionary key %d", i)
		}
		off = r.Pos()
		if err := VP(&d.Entries[i].Value).Read(r); err != nil {
			return dataErrf(off, err, "dictionary value %d (key %v)", i, d.Entries[i].Key)
		}
	}
	return nil
}

func (d *Dictionary[KE, KP, VE, VP]) Write(w *Writer) error {
	w.Uint32(uint32(len(d.Entries)))
	for i := range d.Entries {
		if err := w.Err(); err != nil {
			return err
		}
		off := w.Pos()
		if err := KP(&d.Entries[i].Key).Write(w); err != nil {
			return dataErrf(off, err, "dictionary key %d", i)
		}
		off = w.Pos()
		if err := VP(&d.Entries[i].Value).Write(w); err != nil {
			return dataErrf(off, err, "dictionary value %d (key %v)", i, d.Entries[i].Key)
		}
	}
	return nil
}

// FieldArray is an Array whose item shape is only known at run time.
type FieldArray struct {
	New   func() Field
	Items []Field
}

func (a *FieldArray) Size(pos uint64) uint64 {
	start := pos
	pos += 4
	for _, it := range a.Items {
		pos += it.Size(pos)
	}
	return pos - start
}

func (a *FieldArray) Read(r *Reader) error {
	count, err := r.Uint32()
	if err != nil {
		return err
	}
	if err := checkCount(r, count, 1); err != nil {
		return err
	}
	a.Items = make([]Field, count)
	for i := range a.Items {
		if err := r.Err(); err != nil {
			return err
		}
		off := r.Pos()
		it := a.New()
		if err := it.Read(r); err != nil {
			return dataErrf(off, err, "array entry %d", i)
		}
		a.Items[i] = it
	}
	return nil
}

func (a *FieldArray) Write(w *Writer) error {
	w.Uint32(uint32(len(a.Items)))
	for i, it := range a.Items {
		if err := w.Err(); err != nil {
			return err
		}
		off := w.Pos()
		if it == nil {
			return dataErrf(off, ErrInvariant, "array entry %d is nil", i)
		}
		if err := it.Write(w); err != nil {
			return dataErrf(off, err, "array entry %d", i)
		}
	}
	return nil
}

// FieldPair is one entry of a FieldDictionary.
type FieldPair struct {
	Key   Field
	Value Field
}

// FieldDictionary is a Dictionary whose key and value shapes are only known
// at run time.
type FieldDictionary struct {
	NewKey   func() Field
	NewValue func() Field
	Entries  []FieldPair
}

func (d *FieldDictionary) Size(pos uint64) uint64 {
	start := pos
	pos += 4
	for _, e := range d.Entries {
		pos += e.Key.Size(pos)
		pos += e.Value.Size(pos)
	}
	return pos - start
}

func (d *FieldDictionary) Read(r *Reader) error {
	count, err := r.Uint32()
	if err != nil {
		return err
	}
	if err := checkCount(r, count, 1); err != nil {
		return err
	}
	d.Entries = make([]FieldPair, count)
	for i := range d.Entries {
		if err := r.Err(); err != nil {
			return err
		}
		k, v := d.NewKey(), d.NewValue()
		off := r.Pos()
		if err := k.Read(r); err != nil {
			return dataErrf(off, err, "dictionary key %d", i)
		}
		off = r.Pos()
		if err := v.Read(r); err != nil {
			return dataErrf(off, err, "dictionary value %d", i)
		}
		d.Entries[i] = FieldPair{k, v}
	}
	return nil
}

func (d *FieldDictionary) Write(w *Writer) error {
	w.Uint32(uint32(len(d.Entries)))
	for i, e := range d.Entries {
		if err := w.Err(); err != nil {
			return err
		}
		if e.Key == nil || e.Value == nil {
			return dataErrf(w.Pos(), ErrInvariant, "dictionary entry %d has a nil key or value", i)
		}
		off := w.Pos()
		if err := e.Key.Write(w); err != nil {
			return dataErrf(off, err, "dictionary key %d", i)
		}
		off = w.Pos()
		if err := e.Value.Write(w); err != nil {
			return dataErrf(off, err, "dictionary value %d", i)
		}
	}
	return nil
}

// checkCount rejects counts that cannot fit in what is left of a seekable
// stream, so corrupt input fails before a huge allocation.
func checkCount(r *Reader, count uint32, minItemSize uint64) error {
	length, ok := r.Len()
	if !ok {
		return nil
	}
	if rem := length - min(r.Pos(), length); uint64(count)*minItemSize > rem {
		return dataErrf(r.Pos(), ErrTruncated, "count %d exceeds the %d bytes remaining", count, rem)
	}
	return nil
}

func (a *FieldArray) Description() string {
	return fmt.Sprintf("array of %d", len(a.Items))
}
