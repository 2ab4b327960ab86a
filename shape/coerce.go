package shape

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Coerce maps raw model output onto the shape. It never fails: output that
// cannot be parsed or that does not fit the declared field kinds yields the
// default instance.
func (s *Shape) Coerce(raw string) Value {
	v, _ := s.TryCoerce(raw)
	return v
}

// TryCoerce is Coerce that also reports why the default instance was used.
// The returned Value is always usable; a non-nil error is a
// *MalformedResponseError describing the degradation.
func (s *Shape) TryCoerce(raw string) (Value, error) {
	obj, err := Extract(raw)
	if err != nil {
		return s.Zero(), &MalformedResponseError{Shape: s.Name, Raw: raw, Reason: "no JSON object found", Cause: err}
	}
	v, err := s.adapt(obj)
	if err != nil {
		return s.Zero(), &MalformedResponseError{Shape: s.Name, Raw: raw, Reason: "fields do not match shape", Cause: err}
	}
	return v, nil
}

// Extract parses the JSON object embedded in raw. Text that is already a bare
// object is parsed as-is; otherwise the span from the first '{' to the last
// '}' is parsed, discarding any commentary around it.
func Extract(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		if obj, err := decodeObject(text); err == nil {
			return obj, nil
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no object boundaries in %d bytes of output", len(text))
	}
	return decodeObject(text[start : end+1])
}

func decodeObject(text string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("JSON value is not an object")
	}
	return obj, nil
}

// adapt resolves each declared field against the parsed keys: exact name,
// then case-insensitive equality, then case-insensitive containment. Fields
// with no matching key take the zero value of their kind.
func (s *Shape) adapt(obj map[string]any) (Value, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	resolved := make(map[string]string, len(s.Fields))
	claimed := make(map[string]bool, len(keys))
	for _, f := range s.Fields {
		if _, ok := obj[f.Name]; ok {
			resolved[f.Name] = f.Name
			claimed[f.Name] = true
		}
	}
	matchers := []func(field, key string) bool{
		strings.EqualFold,
		func(field, key string) bool {
			if key == "" {
				return false
			}
			fl, kl := strings.ToLower(field), strings.ToLower(key)
			return strings.Contains(fl, kl) || strings.Contains(kl, fl)
		},
	}
	for _, match := range matchers {
		for _, f := range s.Fields {
			if _, ok := resolved[f.Name]; ok {
				continue
			}
			for _, k := range keys {
				if !claimed[k] && match(f.Name, k) {
					resolved[f.Name] = k
					claimed[k] = true
					break
				}
			}
		}
	}

	out := make(Value, len(s.Fields))
	for _, f := range s.Fields {
		key, ok := resolved[f.Name]
		if !ok || obj[key] == nil {
			out[f.Name] = f.zero()
			continue
		}
		val, err := convert(f.Kind, f.Elem, obj[key])
		if err != nil {
			return nil, fmt.Errorf("field %q (from key %q): %w", f.Name, key, err)
		}
		out[f.Name] = val
	}
	return out, nil
}

func convert(kind, elem Kind, raw any) (any, error) {
	switch kind {
	case KindString:
		if s, ok := raw.(string); ok {
			return s, nil
		}
	case KindInteger:
		if n, ok := raw.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				return i, nil
			}
			if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
				return int64(f), nil
			}
		}
	case KindNumber:
		if n, ok := raw.(json.Number); ok {
			if f, err := n.Float64(); err == nil {
				return f, nil
			}
		}
	case KindBoolean:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
	case KindList:
		items, ok := raw.([]any)
		if !ok {
			break
		}
		return convertList(elem, items)
	}
	return nil, fmt.Errorf("expected %s, got %T", kind, raw)
}

func convertList(elem Kind, items []any) (any, error) {
	if elem == "" {
		elem = KindString
	}
	converted := make([]any, len(items))
	for i, item := range items {
		v, err := convert(elem, "", item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		converted[i] = v
	}
	switch elem {
	case KindInteger:
		out := make([]int64, len(converted))
		for i, v := range converted {
			out[i] = v.(int64)
		}
		return out, nil
	case KindNumber:
		out := make([]float64, len(converted))
		for i, v := range converted {
			out[i] = v.(float64)
		}
		return out, nil
	case KindBoolean:
		out := make([]bool, len(converted))
		for i, v := range converted {
			out[i] = v.(bool)
		}
		return out, nil
	default:
		out := make([]string, len(converted))
		for i, v := range converted {
			out[i] = v.(string)
		}
		return out, nil
	}
}

// Decode copies v into dst, which is usually a pointer to a struct whose json
// tags match the shape's field names.
func (v Value) Decode(dst any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("shape: encode value: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("shape: decode value: %w", err)
	}
	return nil
}
