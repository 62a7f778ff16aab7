package mercury

import (
	"fmt"
)

// Switch is a field whose shape depends on a discriminator value held
// elsewhere in the owning structure. The discriminator is consulted on every
// access, so changing it switches the variant before the next read or write.
type Switch[K comparable] struct {
	discriminator func() K
	cases         map[K]Field
	fallback      Field
}

func NewSwitch[K comparable](discriminator func() K) *Switch[K] {
	return &Switch[K]{
		discriminator: discriminator,
		cases:         make(map[K]Field),
	}
}

// Case maps value to f. Mapping the same value twice panics.
func (s *Switch[K]) Case(value K, f Field) *Switch[K] {
	if _, dup := s.cases[value]; dup {
		panic(fmt.Errorf("switch already has a case for %v", value))
	}
	s.cases[value] = f
	return s
}

// Fallback sets the field used for values without a case.
func (s *Switch[K]) Fallback(f Field) *Switch[K] {
	s.fallback = f
	return s
}

// EffectiveField returns the field for the current discriminator value.
func (s *Switch[K]) EffectiveField() (Field, error) {
	v := s.discriminator()
	if f, ok := s.cases[v]; ok {
		return f, nil
	}
	if s.fallback != nil {
		return s.fallback, nil
	}
	return nil, fmt.Errorf("%w %v", ErrUnknownDiscriminator, v)
}

// ReplaceEffectiveField substitutes the field for the current discriminator
// value, or the fallback when the value has no case.
func (s *Switch[K]) ReplaceEffectiveField(f Field) error {
	v := s.discriminator()
	if _, ok := s.cases[v]; ok {
		s.cases[v] = f
		return nil
	}
	if s.fallback != nil {
		s.fallback = f
		return nil
	}
	return fmt.Errorf("%w %v", ErrUnknownDiscriminator, v)
}

// Size is 0 when the discriminator has no field; Write reports the error.
func (s *Switch[K]) Size(pos uint64) uint64 {
	f, err := s.EffectiveField()
	if err != nil {
		return 0
	}
	return f.Size(pos)
}

func (s *Switch[K]) Read(r *Reader) error {
	f, err := s.EffectiveField()
	if err != nil {
		return dataErrf(r.Pos(), err, "switch")
	}
	return f.Read(r)
}

func (s *Switch[K]) Write(w *Writer) error {
	f, err := s.EffectiveField()
	if err != nil {
		return dataErrf(w.Pos(), err, "switch")
	}
	return f.Write(w)
}
