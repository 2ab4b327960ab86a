package smartllm

import (
	"context"
	"fmt"

	"github.com/martinemde/smartllm/driver"
	"github.com/martinemde/smartllm/shape"
)

// Handler post-processes a generated value. It receives the driver result and
// the arguments of the call, and its return value becomes the result of the
// configured function.
type Handler func(ctx context.Context, res driver.Result, args Args) (any, error)

// FuncOption configures a Decorator.
type FuncOption func(*Decorator)

// WithShape requests structured output for every call of the function.
func WithShape(s *shape.Shape) FuncOption {
	return func(d *Decorator) {
		d.shape = s
	}
}

// Decorator holds a template until a handler is bound to it with Wrap.
type Decorator struct {
	llm      *LLM
	template Template
	shape    *shape.Shape
}

// Wrap binds h to the template and registers the result on the LLM under
// name, replacing any function already registered with that name. A nil
// handler returns the structured value when there is one, else the text.
func (d *Decorator) Wrap(name string, h Handler) *Func {
	if h == nil {
		h = passthrough
	}
	f := &Func{
		llm:      d.llm,
		name:     name,
		template: d.template,
		shape:    d.shape,
		handler:  h,
	}
	d.llm.register(f)
	return f
}

func passthrough(_ context.Context, res driver.Result, _ Args) (any, error) {
	if res.Structured() {
		return res.Value, nil
	}
	return res.Text, nil
}

// Func is a configured function: a template, an optional shape and a handler
// bound to an LLM.
type Func struct {
	llm      *LLM
	name     string
	template Template
	shape    *shape.Shape
	handler  Handler
}

// Name returns the name the function is registered under.
func (f *Func) Name() string { return f.name }

// Template returns the prompt template.
func (f *Func) Template() Template { return f.template }

type callConfig struct {
	shape   *shape.Shape
	options driver.Options
}

// CallOption adjusts a single call.
type CallOption func(*callConfig)

// CallShape overrides the configured shape for one call. A nil shape
// requests plain text.
func CallShape(s *shape.Shape) CallOption {
	return func(c *callConfig) {
		c.shape = s
	}
}

// CallOptions adds driver options for one call. They take precedence over
// arguments with the same key.
func CallOptions(opts driver.Options) CallOption {
	return func(c *callConfig) {
		c.options = c.options.Merge(opts)
	}
}

// Call formats the template with args, generates through the bound driver,
// records the call against the caller carried by ctx and returns the
// handler's result. A template error is returned before the driver is
// contacted.
func (f *Func) Call(ctx context.Context, args Args, opts ...CallOption) (any, error) {
	cfg := callConfig{shape: f.shape}
	for _, opt := range opts {
		opt(&cfg)
	}
	caller := CallerFrom(ctx)

	prompt, err := f.template.Format(args)
	if err != nil {
		return nil, err
	}

	logger := f.llm.logger.With("function", f.name, "caller", caller)
	logger.DebugContext(ctx, "calling configured function")

	res, err := f.llm.send(ctx, Request{
		Function: f.name,
		Caller:   caller,
		Prompt:   prompt,
		Shape:    cfg.shape,
		Options:  f.remainingOptions(args).Merge(cfg.options),
	})
	if err != nil {
		return nil, fmt.Errorf("smartllm: %s: %w", f.name, err)
	}

	call := f.llm.recorder.Record(caller, f.name)
	logger.InfoContext(ctx, "configured function called", "call_id", call.ID)

	return f.handler(ctx, res, args)
}

// remainingOptions returns the args the template does not consume. They are
// forwarded to the driver, which keeps only the ones its backend accepts.
func (f *Func) remainingOptions(args Args) driver.Options {
	names, _ := f.template.Placeholders()
	used := make(map[string]bool, len(names))
	for _, name := range names {
		used[name] = true
	}
	opts := make(driver.Options, len(args))
	for k, v := range args {
		if !used[k] {
			opts[k] = v
		}
	}
	return opts
}

// CallAs calls f and asserts the handler's result to T.
func CallAs[T any](ctx context.Context, f *Func, args Args, opts ...CallOption) (T, error) {
	var zero T
	out, err := f.Call(ctx, args, opts...)
	if err != nil {
		return zero, err
	}
	v, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("smartllm: %s returned %T, not %T", f.name, out, zero)
	}
	return v, nil
}
