package dread

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/andreyvit/mercury"
	"github.com/andreyvit/mercury/knownstrings"
	"github.com/andreyvit/mercury/strid"
)

//go:embed dread_types.json
var bundledTypes []byte

// maxDepth bounds typedef and inheritance chains.
const maxDepth = 64

// Registry maps type names and their hashes to type descriptors.
//
// Registration is not safe for concurrent use; once populated, a registry
// can be shared by any number of readers and writers.
type Registry struct {
	// Strings, when set, learns every registered type name.
	Strings *knownstrings.Set
	Logger  *slog.Logger

	types map[string]Type
	names map[strid.ID]string

	mu      sync.Mutex
	schemas map[string]*mercury.BagSchema
}

func New() *Registry {
	return &Registry{
		types:   make(map[string]Type),
		names:   make(map[strid.ID]string),
		schemas: make(map[string]*mercury.BagSchema),
	}
}

// Load builds a registry from a JSON type table.
func Load(r io.Reader) (*Registry, error) {
	types, err := parseTypes(r)
	if err != nil {
		return nil, err
	}
	reg := New()
	for _, t := range types {
		reg.Register(t)
	}
	return reg, nil
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry holding the bundled type table
// and the hand-written types.
func Default() *Registry {
	defaultOnce.Do(func() {
		reg, err := Load(bytes.NewReader(bundledTypes))
		if err != nil {
			panic(err)
		}
		RegisterBuiltins(reg)
		defaultReg = reg
	})
	return defaultReg
}

// Register adds t, replacing any type with the same name.
func (r *Registry) Register(t Type) {
	name := t.Name()
	if _, ok := r.types[name]; ok && r.Logger != nil {
		r.Logger.Warn("dread: type redefined", "type", name, "kind", t.Kind().String())
	}
	r.types[name] = t
	r.names[t.ID()] = name

	r.mu.Lock()
	clear(r.schemas)
	r.mu.Unlock()

	if r.Strings != nil {
		if _, err := r.Strings.Record(name); err != nil && r.Logger != nil {
			r.Logger.Warn("dread: recording type name", "type", name, "err", err)
		}
	}
}

// RegisterConcrete registers a hand-written type.
func (r *Registry) RegisterConcrete(name, parent string, newFn func() mercury.Field) {
	r.Register(NewConcrete(name, parent, newFn))
}

func (r *Registry) Len() int {
	return len(r.types)
}

// Types returns all types sorted by name.
func (r *Registry) Types() []Type {
	result := make([]Type, 0, len(r.types))
	for _, t := range r.types {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

func (r *Registry) FindType(name string) (Type, error) {
	if t := r.types[name]; t != nil {
		return t, nil
	}
	return nil, fmt.Errorf("%w: the type %q did not refer to a known type", mercury.ErrUnknownType, name)
}

func (r *Registry) FindTypeID(id strid.ID) (Type, error) {
	if name, ok := r.names[id]; ok {
		return r.FindType(name)
	}
	if r.Strings != nil {
		if s, ok := r.Strings.Lookup(id); ok {
			return nil, fmt.Errorf("%w: the type ID %v (%q) did not refer to a known type", mercury.ErrUnknownType, id, s)
		}
	}
	return nil, fmt.Errorf("%w: the type ID %v did not refer to a known type", mercury.ErrUnknownType, id)
}

// Parent returns the name of the parent of a struct or hand-written type.
func (r *Registry) Parent(name string) (string, bool) {
	switch t := r.types[name].(type) {
	case *StructType:
		return t.Parent, t.Parent != ""
	case *ConcreteType:
		return t.Parent, t.Parent != ""
	}
	return "", false
}

// IsChildOf reports whether name is parent or inherits from it.
func (r *Registry) IsChildOf(name, parent string) bool {
	for i := 0; i < maxDepth; i++ {
		if name == parent {
			return true
		}
		p, ok := r.Parent(name)
		if !ok {
			return false
		}
		name = p
	}
	return false
}

// NewField returns a blank field for the named type.
func (r *Registry) NewField(name string) (mercury.Field, error) {
	t, err := r.FindType(name)
	if err != nil {
		return nil, err
	}
	return r.NewFieldFor(t)
}

// NewFieldFor returns a blank field for t.
func (r *Registry) NewFieldFor(t Type) (mercury.Field, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newField(t, 0)
}

// factory returns a constructor for fields of t. newField has already built
// one successfully, so failures here mean the registry changed underneath.
func (r *Registry) factory(t Type) func() mercury.Field {
	return func() mercury.Field {
		f, err := r.NewFieldFor(t)
		if err != nil {
			panic(err)
		}
		return f
	}
}

func (r *Registry) newField(t Type, depth int) (mercury.Field, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: %s: type nesting is deeper than %d", mercury.ErrInvariant, t.Name(), maxDepth)
	}
	switch t := t.(type) {
	case *PrimitiveType:
		return r.newPrimitive(t)
	case *StructType:
		schema, err := r.schema(t, depth)
		if err != nil {
			return nil, err
		}
		return mercury.NewPropertyBag(schema), nil
	case *EnumType:
		return new(mercury.Int32), nil
	case *TypedefType:
		return r.newNamed(t, t.Alias, "alias", depth)
	case *FlagsetType:
		return r.newNamed(t, t.Enum, "enum", depth)
	case *VectorType:
		vt, err := r.resolve(t, t.ValueType, "value type", depth)
		if err != nil {
			return nil, err
		}
		return &mercury.FieldArray{New: r.factory(vt)}, nil
	case *DictionaryType:
		kt, err := r.resolve(t, t.KeyType, "key type", depth)
		if err != nil {
			return nil, err
		}
		vt, err := r.resolve(t, t.ValueType, "value type", depth)
		if err != nil {
			return nil, err
		}
		return &mercury.FieldDictionary{NewKey: r.factory(kt), NewValue: r.factory(vt)}, nil
	case *PointerType:
		if _, err := r.FindType(t.Target); err != nil {
			return nil, fmt.Errorf("%s: target: %w", t.Name(), err)
		}
		return &Pointer{reg: r, Target: t.Target}, nil
	case *ConcreteType:
		return t.New(), nil
	default:
		panic(fmt.Errorf("unreachable: %T", t))
	}
}

func (r *Registry) newPrimitive(t *PrimitiveType) (mercury.Field, error) {
	switch t.Primitive {
	case PrimBool:
		return new(mercury.Bool), nil
	case PrimInt:
		return new(mercury.Int32), nil
	case PrimUInt:
		return new(mercury.Uint32), nil
	case PrimUInt16:
		return new(mercury.Uint16), nil
	case PrimUInt64:
		return new(mercury.Uint64), nil
	case PrimFloat:
		return new(mercury.Float32), nil
	case PrimString, PrimProperty:
		return new(mercury.String), nil
	case PrimBytes:
		return &Pointer{reg: r}, nil
	case PrimFloatVec2:
		return new(mercury.Vector2), nil
	case PrimFloatVec3:
		return new(mercury.Vector3), nil
	case PrimFloatVec4:
		return new(mercury.Vector4), nil
	default:
		return nil, fmt.Errorf("%w: %s: unknown or unsupported primitive kind %q", mercury.ErrUnsupported, t.Name(), t.Primitive)
	}
}

func (r *Registry) newNamed(t Type, name, role string, depth int) (mercury.Field, error) {
	target, err := r.FindType(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", t.Name(), role, err)
	}
	return r.newField(target, depth+1)
}

// resolve finds a component type and makes sure fields of it can be built.
func (r *Registry) resolve(t Type, name, role string, depth int) (Type, error) {
	ct, err := r.FindType(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", t.Name(), role, err)
	}
	if _, err := r.newField(ct, depth+1); err != nil {
		return nil, err
	}
	return ct, nil
}

// schema returns the cached property bag schema of a struct. The schema is
// cached before its fields are resolved, so self-referencing structs
// terminate.
func (r *Registry) schema(t *StructType, depth int) (*mercury.BagSchema, error) {
	if s := r.schemas[t.Name()]; s != nil {
		return s, nil
	}
	s := mercury.NewBagSchema(t.Name())
	r.schemas[t.Name()] = s
	if err := r.populate(s, t, t.Name(), depth); err != nil {
		delete(r.schemas, t.Name())
		return nil, err
	}
	return s, nil
}

func (r *Registry) populate(s *mercury.BagSchema, t *StructType, top string, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("%w: %s: inheritance is deeper than %d", mercury.ErrInvariant, top, maxDepth)
	}
	if t.Parent != "" {
		pt, err := r.FindType(t.Parent)
		if err != nil {
			return fmt.Errorf("struct type %q has unknown parent type %q: %w", t.Name(), t.Parent, err)
		}
		parent, ok := pt.(*StructType)
		if !ok {
			return fmt.Errorf("%w: parent type %q of struct type %q is a %v, not a struct", mercury.ErrInvariant, t.Parent, t.Name(), pt.Kind())
		}
		if err := r.populate(s, parent, top, depth+1); err != nil {
			return err
		}
	}
	for _, f := range t.Fields {
		ft, err := r.resolve(t, f.Type, "field "+f.Name, depth)
		if err != nil {
			return err
		}
		s.Define(f.Name, r.factory(ft))
	}
	return nil
}
