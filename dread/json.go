package dread

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// typeJSON is one entry of the type table, keyed by type name:
//
//	{"kind": "struct", "parent": "base::core::CBaseObject", "fields": {"sName": "base::global::CStrId"}}
type typeJSON struct {
	Kind          string           `json:"kind"`
	PrimitiveKind string           `json:"primitive_kind"`
	Parent        *string          `json:"parent"`
	Fields        orderedFields    `json:"fields"`
	Values        map[string]int64 `json:"values"`
	Alias         *string          `json:"alias"`
	ValueType     string           `json:"value_type"`
	KeyType       string           `json:"key_type"`
	Target        string           `json:"target"`
	Enum          string           `json:"enum"`
}

// orderedFields keeps struct fields in the order the table lists them,
// which is their order on the wire.
type orderedFields []StructField

func (f *orderedFields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("fields: expected an object, found %v", tok)
	}
	var result orderedFields
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		var typ string
		if err := dec.Decode(&typ); err != nil {
			return fmt.Errorf("field %q: %w", tok, err)
		}
		result = append(result, StructField{Name: tok.(string), Type: typ})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*f = result
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (j *typeJSON) toType(name string) (Type, error) {
	n := typeName(name)
	switch strings.ToLower(j.Kind) {
	case "primitive":
		pk := PrimitiveKind(strings.ToLower(j.PrimitiveKind))
		if !pk.valid() {
			return nil, fmt.Errorf("unknown primitive kind %q", j.PrimitiveKind)
		}
		return &PrimitiveType{n, pk}, nil
	case "struct":
		return &StructType{n, deref(j.Parent), j.Fields}, nil
	case "enum":
		values := make(map[string]uint32, len(j.Values))
		for k, v := range j.Values {
			values[k] = uint32(v)
		}
		return &EnumType{n, values}, nil
	case "typedef":
		return &TypedefType{n, deref(j.Alias)}, nil
	case "vector":
		return &VectorType{n, j.ValueType}, nil
	case "dictionary":
		return &DictionaryType{n, j.KeyType, j.ValueType}, nil
	case "pointer":
		return &PointerType{n, j.Target}, nil
	case "flagset":
		return &FlagsetType{n, j.Enum}, nil
	case "":
		return nil, fmt.Errorf("missing \"kind\"")
	default:
		return nil, fmt.Errorf("unrecognized kind %q", j.Kind)
	}
}

func (k PrimitiveKind) valid() bool {
	switch k {
	case PrimBool, PrimInt, PrimUInt, PrimUInt16, PrimUInt64, PrimFloat, PrimString, PrimProperty, PrimBytes, PrimFloatVec2, PrimFloatVec3, PrimFloatVec4:
		return true
	}
	return false
}

// parseTypes decodes a type table. Types are returned sorted by name.
func parseTypes(r io.Reader) ([]Type, error) {
	var raw map[string]typeJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("dread: %w", err)
	}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	types := make([]Type, 0, len(names))
	for _, name := range names {
		j := raw[name]
		t, err := j.toType(name)
		if err != nil {
			return nil, fmt.Errorf("dread: type %q: %w", name, err)
		}
		types = append(types, t)
	}
	return types, nil
}
