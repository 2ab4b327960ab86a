package smartllm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/martinemde/smartllm/driver"
	"github.com/martinemde/smartllm/flowchart"
	"github.com/martinemde/smartllm/shape"
)

const (
	// DefaultProvider and DefaultModel are used by NewFromProvider when
	// either identifier is empty.
	DefaultProvider = "openai"
	DefaultModel    = "gpt-4"
)

// ErrUnknownFunction is returned when a configured function is looked up by a
// name that was never registered.
var ErrUnknownFunction = errors.New("smartllm: unknown function")

// Request is what a Middleware sees for each driver call. Function is empty
// for ad-hoc Generate calls.
type Request struct {
	Function string
	Caller   string
	Prompt   string
	Shape    *shape.Shape
	Options  driver.Options
}

// Middleware wraps a driver call. It receives the request and a next function
// that calls the downstream handler, and returns the result.
type Middleware func(ctx context.Context, req Request, next func(context.Context, Request) (driver.Result, error)) (driver.Result, error)

// LLM binds a driver and owns the configured functions and the call recorder.
type LLM struct {
	driver     driver.Driver
	logger     *slog.Logger
	recorder   *Recorder
	middleware []Middleware

	mu    sync.RWMutex
	funcs map[string]*Func
}

type options struct {
	logger     *slog.Logger
	recorder   *Recorder
	middleware []Middleware
	factory    *driver.Factory
	driverOpts []driver.Option
}

// Option configures an LLM.
type Option func(*options)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRecorder shares a recorder between LLM instances. By default each LLM
// owns a fresh one.
func WithRecorder(r *Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// WithMiddleware adds middleware around every driver call. The first
// registered middleware runs outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(o *options) {
		o.middleware = append(o.middleware, mw...)
	}
}

// WithFactory sets the driver factory used by NewFromProvider.
func WithFactory(f *driver.Factory) Option {
	return func(o *options) {
		o.factory = f
	}
}

// WithDriverOptions passes options to the driver constructor in NewFromProvider.
func WithDriverOptions(opts ...driver.Option) Option {
	return func(o *options) {
		o.driverOpts = append(o.driverOpts, opts...)
	}
}

func buildOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.recorder == nil {
		o.recorder = NewRecorder()
	}
	if o.factory == nil {
		o.factory = driver.Default()
	}
	return o
}

// New creates an LLM bound to d.
func New(d driver.Driver, opts ...Option) *LLM {
	return newLLM(d, buildOptions(opts))
}

func newLLM(d driver.Driver, o *options) *LLM {
	return &LLM{
		driver:     d,
		logger:     o.logger.With("provider", d.Name(), "model", d.Model()),
		recorder:   o.recorder,
		middleware: o.middleware,
		funcs:      make(map[string]*Func),
	}
}

// NewFromProvider creates the driver for provider and model through the
// driver factory and binds it. Empty identifiers default to
// DefaultProvider and DefaultModel.
func NewFromProvider(provider, model string, opts ...Option) (*LLM, error) {
	o := buildOptions(opts)
	if strings.TrimSpace(provider) == "" {
		provider = DefaultProvider
		if strings.TrimSpace(model) == "" {
			model = DefaultModel
		}
	}
	driverOpts := append([]driver.Option{driver.WithLogger(o.logger)}, o.driverOpts...)
	d, err := o.factory.Create(provider, model, driverOpts...)
	if err != nil {
		return nil, err
	}
	return newLLM(d, o), nil
}

// Driver returns the bound driver.
func (l *LLM) Driver() driver.Driver {
	return l.driver
}

// Configure starts the declaration of a configured function: a prompt
// template plus the handler that post-processes each generated value.
func (l *LLM) Configure(template string, opts ...FuncOption) *Decorator {
	d := &Decorator{llm: l, template: Template(template)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (l *LLM) register(f *Func) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.funcs[f.name] = f
}

// Func returns the configured function registered under name.
func (l *LLM) Func(name string) (*Func, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	f, ok := l.funcs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	return f, nil
}

// Funcs returns the names of the configured functions in sorted order.
func (l *LLM) Funcs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.funcs))
	for name := range l.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call invokes the configured function registered under name.
func (l *LLM) Call(ctx context.Context, name string, args Args, opts ...CallOption) (any, error) {
	f, err := l.Func(name)
	if err != nil {
		return nil, err
	}
	return f.Call(ctx, args, opts...)
}

// Generate sends prompt straight to the bound driver, outside any configured
// function. Nothing is recorded.
func (l *LLM) Generate(ctx context.Context, prompt string, s *shape.Shape, opts driver.Options) (driver.Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return driver.Result{}, &driver.InvalidInputError{SDKError: driver.SDKError{
			Message: "smartllm: invalid input",
			Cause:   driver.ErrEmptyPrompt,
		}}
	}
	return l.send(ctx, Request{
		Caller:  CallerFrom(ctx),
		Prompt:  prompt,
		Shape:   s,
		Options: opts,
	})
}

// send runs req through the middleware chain to the driver.
func (l *LLM) send(ctx context.Context, req Request) (driver.Result, error) {
	handler := func(ctx context.Context, r Request) (driver.Result, error) {
		return l.driver.Generate(ctx, r.Prompt, r.Shape, r.Options)
	}

	// Apply middleware in reverse order so first registered runs first.
	for i := len(l.middleware) - 1; i >= 0; i-- {
		mw := l.middleware[i]
		next := handler
		handler = func(ctx context.Context, r Request) (driver.Result, error) {
			return mw(ctx, r, next)
		}
	}

	return handler(ctx, req)
}

// Recorder returns the call recorder.
func (l *LLM) Recorder() *Recorder {
	return l.recorder
}

// Calls returns a snapshot of the recorded calls.
func (l *LLM) Calls() CallRecord {
	return l.recorder.Calls()
}

// ClearCalls empties the call recorder.
func (l *LLM) ClearCalls() {
	l.recorder.Clear()
}

// GenerateFlowchart renders the recorded calls to path. See flowchart.Render
// for the supported formats.
func (l *LLM) GenerateFlowchart(path string) error {
	return flowchart.Render(l.Calls(), path)
}

// LoggingMiddleware logs each driver call with its duration.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(ctx context.Context, req Request, next func(context.Context, Request) (driver.Result, error)) (driver.Result, error) {
		start := time.Now()
		res, err := next(ctx, req)
		attrs := []any{
			"function", req.Function,
			"caller", req.Caller,
			"duration", time.Since(start),
		}
		if err != nil {
			logger.WarnContext(ctx, "driver call failed", append(attrs, "error", err)...)
		} else {
			logger.DebugContext(ctx, "driver call finished", append(attrs, "structured", res.Structured())...)
		}
		return res, err
	}
}
