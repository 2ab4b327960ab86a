package smartllm

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Template is a prompt with {name} placeholders. Names consist of ASCII
// letters, digits and underscores. "{{" and "}}" produce literal braces.
type Template string

// Args are the named values used to fill a Template. They are also forwarded
// to the driver as options, where each driver keeps only what its backend
// accepts.
type Args map[string]any

// TemplateError reports a template that cannot be formatted.
type TemplateError struct {
	Template string
	Missing  []string // placeholders with no argument
	Reason   string   // set for syntax errors
}

func (e *TemplateError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("smartllm: template is missing arguments: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("smartllm: invalid template: %s", e.Reason)
}

type segment struct {
	text        string
	placeholder bool
}

func (t Template) parse() ([]segment, error) {
	s := string(t)
	var (
		segs []segment
		lit  strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{text: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '{':
			if i+1 < len(s) && s[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return nil, &TemplateError{Template: s, Reason: fmt.Sprintf("unclosed '{' at offset %d", i)}
			}
			name := s[i+1 : i+1+end]
			if !validName(name) {
				return nil, &TemplateError{Template: s, Reason: fmt.Sprintf("invalid placeholder %q", name)}
			}
			flush()
			segs = append(segs, segment{text: name, placeholder: true})
			i += end + 1
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, &TemplateError{Template: s, Reason: fmt.Sprintf("single '}' at offset %d", i)}
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return segs, nil
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}

// Placeholders returns the distinct placeholder names in order of first use.
func (t Template) Placeholders() ([]string, error) {
	segs, err := t.parse()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, seg := range segs {
		if seg.placeholder && !seen[seg.text] {
			seen[seg.text] = true
			names = append(names, seg.text)
		}
	}
	return names, nil
}

// Format substitutes args into the template. Every placeholder must have an
// argument; extra arguments are ignored.
func (t Template) Format(args Args) (string, error) {
	segs, err := t.parse()
	if err != nil {
		return "", err
	}

	var missing []string
	for _, seg := range segs {
		if !seg.placeholder {
			continue
		}
		if _, ok := args[seg.text]; !ok && !contains(missing, seg.text) {
			missing = append(missing, seg.text)
		}
	}
	if len(missing) > 0 {
		return "", &TemplateError{Template: string(t), Missing: missing}
	}

	var out strings.Builder
	for _, seg := range segs {
		if seg.placeholder {
			out.WriteString(formatArg(args[seg.text]))
		} else {
			out.WriteString(seg.text)
		}
	}
	return out.String(), nil
}

// formatArg renders strings and Stringers as-is and composite values as JSON,
// which models read more reliably than Go's %v syntax.
func formatArg(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
