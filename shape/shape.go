// Package shape describes the structured output a prompt asks a model for and
// coerces freeform model text into values of that shape.
package shape

import (
	"fmt"
	"strings"
)

// Kind is the primitive type of a field or of a list field's elements.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindList    Kind = "list"
)

// Field is one named entry of a Shape.
type Field struct {
	Name        string `json:"name"`
	Kind        Kind   `json:"kind"`
	Elem        Kind   `json:"elem,omitempty"` // element kind when Kind is KindList
	Description string `json:"description,omitempty"`
}

// Shape is a declarative description of a JSON object with primitive or
// list-of-primitive fields.
type Shape struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Value is a coerced instance of a Shape, keyed by declared field name.
type Value map[string]any

// New creates a Shape from the given fields.
func New(name string, fields ...Field) *Shape {
	return &Shape{Name: name, Fields: fields}
}

// String declares a string field.
func String(name, description string) Field {
	return Field{Name: name, Kind: KindString, Description: description}
}

// Integer declares an integer field.
func Integer(name, description string) Field {
	return Field{Name: name, Kind: KindInteger, Description: description}
}

// Number declares a floating point field.
func Number(name, description string) Field {
	return Field{Name: name, Kind: KindNumber, Description: description}
}

// Boolean declares a boolean field.
func Boolean(name, description string) Field {
	return Field{Name: name, Kind: KindBoolean, Description: description}
}

// List declares a list field whose elements are of kind elem.
func List(name string, elem Kind, description string) Field {
	return Field{Name: name, Kind: KindList, Elem: elem, Description: description}
}

// Field returns the declared field with the given name.
func (s *Shape) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Zero returns the default instance of the shape: every field set to the zero
// value of its kind.
func (s *Shape) Zero() Value {
	v := make(Value, len(s.Fields))
	for _, f := range s.Fields {
		v[f.Name] = f.zero()
	}
	return v
}

func (f Field) zero() any {
	switch f.Kind {
	case KindString:
		return ""
	case KindInteger:
		return int64(0)
	case KindNumber:
		return float64(0)
	case KindBoolean:
		return false
	case KindList:
		return zeroList(f.Elem)
	default:
		return nil
	}
}

func zeroList(elem Kind) any {
	switch elem {
	case KindInteger:
		return []int64{}
	case KindNumber:
		return []float64{}
	case KindBoolean:
		return []bool{}
	default:
		return []string{}
	}
}

// TypeName renders the field's type the way it is described to a model,
// e.g. "string" or "list of string".
func (f Field) TypeName() string {
	if f.Kind == KindList {
		elem := f.Elem
		if elem == "" {
			elem = KindString
		}
		return "list of " + string(elem)
	}
	return string(f.Kind)
}

// Instruction renders the natural-language formatting instruction appended to
// prompts that request this shape. Compliance is advisory only.
func (s *Shape) Instruction() string {
	var b strings.Builder
	b.WriteString("Respond with a single JSON object and no other text. The object must have exactly these fields:\n")
	for _, f := range s.Fields {
		fmt.Fprintf(&b, "- %q: %s", f.Name, f.TypeName())
		if f.Description != "" {
			fmt.Fprintf(&b, " (%s)", f.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("Example: ")
	b.WriteString(s.example())
	return b.String()
}

func (s *Shape) example() string {
	parts := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		parts = append(parts, fmt.Sprintf("%q: %s", f.Name, placeholder(f.Kind, f.Elem)))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func placeholder(kind, elem Kind) string {
	switch kind {
	case KindString:
		return `"..."`
	case KindInteger:
		return "0"
	case KindNumber:
		return "0.0"
	case KindBoolean:
		return "true"
	case KindList:
		if elem == "" {
			elem = KindString
		}
		return "[" + placeholder(elem, "") + ", ...]"
	}
	return "null"
}

// ParseField parses a compact field declaration of the form "name:kind",
// where kind is a primitive kind or "list[kind]". A bare name is a string.
func ParseField(spec string) (Field, error) {
	name, kind, found := strings.Cut(strings.TrimSpace(spec), ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return Field{}, fmt.Errorf("shape: empty field name in %q", spec)
	}
	if !found {
		return String(name, ""), nil
	}
	kind = strings.ToLower(strings.TrimSpace(kind))
	if strings.HasPrefix(kind, "list[") && strings.HasSuffix(kind, "]") {
		elem := Kind(strings.TrimSuffix(strings.TrimPrefix(kind, "list["), "]"))
		if !elem.primitive() {
			return Field{}, fmt.Errorf("shape: unsupported list element kind %q", elem)
		}
		return List(name, elem, ""), nil
	}
	if kind == "list" {
		return List(name, KindString, ""), nil
	}
	k := Kind(kind)
	if !k.primitive() {
		return Field{}, fmt.Errorf("shape: unsupported kind %q", kind)
	}
	return Field{Name: name, Kind: k}, nil
}

func (k Kind) primitive() bool {
	switch k {
	case KindString, KindInteger, KindNumber, KindBoolean:
		return true
	}
	return false
}
