package driver

import (
	"sort"
	"strings"
	"sync"
)

// Constructor builds a driver for a model. An empty model selects the
// provider's default.
type Constructor func(model string, opts ...Option) (Driver, error)

// Factory maps provider identifiers to driver constructors. Identifiers are
// case-insensitive and the set is open: Register may be called at any time.
type Factory struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewFactory creates an empty Factory.
func NewFactory() *Factory {
	return &Factory{constructors: make(map[string]Constructor)}
}

// DefaultFactory creates a Factory with the built-in openai, anthropic and
// gollm drivers registered.
func DefaultFactory() *Factory {
	f := NewFactory()
	f.Register("openai", func(model string, opts ...Option) (Driver, error) {
		return NewOpenAIDriver(model, opts...)
	})
	f.Register("anthropic", func(model string, opts ...Option) (Driver, error) {
		return NewAnthropicDriver(model, opts...)
	})
	f.Register("gollm", func(model string, opts ...Option) (Driver, error) {
		return NewGollmDriver(model, opts...)
	})
	return f
}

// Register adds or replaces the constructor for provider.
func (f *Factory) Register(provider string, ctor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[normalize(provider)] = ctor
}

// Create builds a driver for provider and model. An unregistered provider
// yields a *ConfigurationError wrapping ErrUnknownProvider.
func (f *Factory) Create(provider, model string, opts ...Option) (Driver, error) {
	f.mu.RLock()
	ctor, ok := f.constructors[normalize(provider)]
	f.mu.RUnlock()
	if !ok {
		return nil, newConfigurationError(ErrUnknownProvider, "provider %q is not registered", provider)
	}
	return ctor(model, opts...)
}

// Providers returns the registered provider identifiers in sorted order.
func (f *Factory) Providers() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.constructors))
	for name := range f.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

// Module-level default factory.

var (
	defaultFactory     *Factory
	defaultFactoryOnce sync.Once
)

// Default returns the process-wide Factory used by Register and Create.
func Default() *Factory {
	defaultFactoryOnce.Do(func() {
		defaultFactory = DefaultFactory()
	})
	return defaultFactory
}

// Register adds a constructor to the default factory.
func Register(provider string, ctor Constructor) {
	Default().Register(provider, ctor)
}

// Create builds a driver from the default factory.
func Create(provider, model string, opts ...Option) (Driver, error) {
	return Default().Create(provider, model, opts...)
}
