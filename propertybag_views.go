package mercury

import (
	"fmt"
	"slices"
)

// GetValue returns the value of a present scalar property.
func GetValue[E any, P fieldPtr[E]](b *PropertyBag, name string) (E, bool) {
	f, ok := b.Get(name)
	if !ok {
		var zero E
		return zero, false
	}
	return *mustBe[P](b, name, f), true
}

// SetValue makes a scalar property present with value v.
func SetValue[E any, P fieldPtr[E]](b *PropertyBag, name string, v E) {
	p := P(new(E))
	*p = v
	b.Set(name, p)
}

func mustBe[P Field](b *PropertyBag, name string, f Field) P {
	v, ok := f.(P)
	if !ok {
		panic(fmt.Errorf("%s.%s is %T, not %T", b.schema.name, name, f, v))
	}
	return v
}

// BagList views a list property of a bag. While the property is absent, the
// view is empty and read-only: Add, Insert and SetAt create the property,
// while Remove and Clear do nothing.
type BagList[E any, P fieldPtr[E]] struct {
	bag  *PropertyBag
	name string
}

// ListProperty returns a view of the Array property name.
func ListProperty[E any, P fieldPtr[E]](b *PropertyBag, name string) BagList[E, P] {
	b.schema.prop(name)
	return BagList[E, P]{b, name}
}

func (l BagList[E, P]) array() *Array[E, P] {
	f, ok := l.bag.Get(l.name)
	if !ok {
		return nil
	}
	return mustBe[*Array[E, P]](l.bag, l.name, f)
}

func (l BagList[E, P]) materialize() *Array[E, P] {
	return mustBe[*Array[E, P]](l.bag, l.name, l.bag.GetOrCreate(l.name))
}

// ReadOnly reports whether the property is absent.
func (l BagList[E, P]) ReadOnly() bool {
	return l.array() == nil
}

func (l BagList[E, P]) Len() int {
	if a := l.array(); a != nil {
		return len(a.Items)
	}
	return 0
}

// At returns the i-th item.
func (l BagList[E, P]) At(i int) P {
	a := l.array()
	if a == nil {
		panic(fmt.Errorf("%s: index %d out of range of absent list", l.name, i))
	}
	return P(&a.Items[i])
}

// Items returns the backing slice, nil when absent.
func (l BagList[E, P]) Items() []E {
	if a := l.array(); a != nil {
		return a.Items
	}
	return nil
}

func (l BagList[E, P]) Add(v E) {
	a := l.materialize()
	a.Items = append(a.Items, v)
}

func (l BagList[E, P]) Insert(i int, v E) {
	a := l.materialize()
	a.Items = slices.Insert(a.Items, i, v)
}

// SetAt replaces the i-th item. On an absent list it creates the property
// and then panics like any out of range index.
func (l BagList[E, P]) SetAt(i int, v E) {
	a := l.materialize()
	a.Items[i] = v
}

// Remove deletes the items matching del and reports whether any matched.
func (l BagList[E, P]) Remove(del func(P) bool) bool {
	a := l.array()
	if a == nil {
		return false
	}
	n := len(a.Items)
	a.Items = slices.DeleteFunc(a.Items, func(e E) bool { return del(P(&e)) })
	return len(a.Items) != n
}

// Clear empties a present list, leaving it present.
func (l BagList[E, P]) Clear() {
	if a := l.array(); a != nil {
		a.Items = nil
	}
}

// BagDict views a dictionary property of a bag, with the same absent-view
// rules as BagList.
type BagDict[KE comparable, KP fieldPtr[KE], VE any, VP fieldPtr[VE]] struct {
	bag  *PropertyBag
	name string
}

// DictProperty returns a view of the Dictionary property name.
func DictProperty[KE comparable, KP fieldPtr[KE], VE any, VP fieldPtr[VE]](b *PropertyBag, name string) BagDict[KE, KP, VE, VP] {
	b.schema.prop(name)
	return BagDict[KE, KP, VE, VP]{b, name}
}

func (d BagDict[KE, KP, VE, VP]) dict() *Dictionary[KE, KP, VE, VP] {
	f, ok := d.bag.Get(d.name)
	if !ok {
		return nil
	}
	return mustBe[*Dictionary[KE, KP, VE, VP]](d.bag, d.name, f)
}

func (d BagDict[KE, KP, VE, VP]) materialize() *Dictionary[KE, KP, VE, VP] {
	return mustBe[*Dictionary[KE, KP, VE, VP]](d.bag, d.name, d.bag.GetOrCreate(d.name))
}

func (d BagDict[KE, KP, VE, VP]) ReadOnly() bool {
	return d.dict() == nil
}

func (d BagDict[KE, KP, VE, VP]) Len() int {
	if m := d.dict(); m != nil {
		return m.Len()
	}
	return 0
}

func (d BagDict[KE, KP, VE, VP]) Get(k KE) (VP, bool) {
	if m := d.dict(); m != nil {
		return m.Get(k)
	}
	return nil, false
}

func (d BagDict[KE, KP, VE, VP]) Keys() []KE {
	if m := d.dict(); m != nil {
		return m.Keys()
	}
	return nil
}

func (d BagDict[KE, KP, VE, VP]) Set(k KE, v VE) {
	d.materialize().Set(k, v)
}

func (d BagDict[KE, KP, VE, VP]) Delete(k KE) bool {
	if m := d.dict(); m != nil {
		return m.Delete(k)
	}
	return false
}

// Clear empties a present dictionary, leaving it present.
func (d BagDict[KE, KP, VE, VP]) Clear() {
	if m := d.dict(); m != nil {
		m.Entries = nil
	}
}
