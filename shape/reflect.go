package shape

import (
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// FromStruct derives a Shape from a struct value or pointer. Field names come
// from json tags and descriptions from `jsonschema:"description=..."` tags.
// Only primitive fields and slices of primitives are supported.
func FromStruct(v any) (*Shape, error) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("shape: FromStruct requires a struct, got %T", v)
	}

	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	schema := r.Reflect(v)
	if schema.Properties == nil {
		return nil, fmt.Errorf("shape: %s has no exported fields", t.Name())
	}

	s := &Shape{Name: t.Name()}
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		prop := pair.Value
		f := Field{Name: pair.Key, Description: prop.Description}
		switch prop.Type {
		case "array":
			if prop.Items == nil || !Kind(prop.Items.Type).primitive() {
				return nil, fmt.Errorf("shape: field %q must be a list of primitives", pair.Key)
			}
			f.Kind = KindList
			f.Elem = Kind(prop.Items.Type)
		default:
			k := Kind(prop.Type)
			if !k.primitive() {
				return nil, fmt.Errorf("shape: field %q has unsupported type %q", pair.Key, prop.Type)
			}
			f.Kind = k
		}
		s.Fields = append(s.Fields, f)
	}
	return s, nil
}

// MustFromStruct is like FromStruct but panics on error. It is intended for
// package-level shape declarations.
func MustFromStruct(v any) *Shape {
	s, err := FromStruct(v)
	if err != nil {
		panic(err)
	}
	return s
}
