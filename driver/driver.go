package driver

import (
	"context"
	"fmt"
	"sort"

	"github.com/martinemde/smartllm/shape"
)

// Driver is the interface every model backend must implement.
type Driver interface {
	// Name returns the provider identifier (e.g. "openai", "anthropic").
	Name() string

	// Model returns the model identifier requests are sent to.
	Model() string

	// Generate sends prompt to the backend. With a nil shape the trimmed reply
	// text is returned; otherwise the reply is coerced into s.
	Generate(ctx context.Context, prompt string, s *shape.Shape, opts Options) (Result, error)
}

// Result is the value produced by one Generate call.
type Result struct {
	Text  string      `json:"text"`
	Value shape.Value `json:"value,omitempty"` // nil when no shape was requested
}

// Structured reports whether the result carries a coerced shape value.
func (r Result) Structured() bool {
	return r.Value != nil
}

// Decode copies the structured value into dst.
func (r Result) Decode(dst any) error {
	if r.Value == nil {
		return fmt.Errorf("driver: result has no structured value")
	}
	return r.Value.Decode(dst)
}

// String returns the raw reply text.
func (r Result) String() string {
	return r.Text
}

// Options are backend request parameters keyed by their wire name.
type Options map[string]any

// Filter returns the options whose keys are in allowed, and the sorted keys
// that were dropped.
func (o Options) Filter(allowed []string) (Options, []string) {
	keep := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		keep[k] = true
	}
	out := make(Options, len(o))
	var dropped []string
	for k, v := range o {
		if keep[k] {
			out[k] = v
		} else {
			dropped = append(dropped, k)
		}
	}
	sort.Strings(dropped)
	return out, dropped
}

// Merge returns a copy of o with the entries of other layered on top.
func (o Options) Merge(other Options) Options {
	out := make(Options, len(o)+len(other))
	for k, v := range o {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
