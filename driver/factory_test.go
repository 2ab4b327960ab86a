package driver

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/martinemde/smartllm/shape"
)

// mockDriver is a test double for Driver.
type mockDriver struct {
	name  string
	model string
}

func (m *mockDriver) Name() string  { return m.name }
func (m *mockDriver) Model() string { return m.model }

func (m *mockDriver) Generate(ctx context.Context, prompt string, s *shape.Shape, opts Options) (Result, error) {
	return Result{Text: prompt}, nil
}

func TestFactoryCreate(t *testing.T) {
	f := NewFactory()
	f.Register("Mock", func(model string, opts ...Option) (Driver, error) {
		return &mockDriver{name: "mock", model: model}, nil
	})

	for _, id := range []string{"mock", "MOCK", " Mock "} {
		d, err := f.Create(id, "m1")
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", id, err)
		}
		if d.Name() != "mock" || d.Model() != "m1" {
			t.Errorf("%q: unexpected driver %s/%s", id, d.Name(), d.Model())
		}
	}
}

func TestFactoryUnknownProvider(t *testing.T) {
	f := NewFactory()
	_, err := f.Create("nope", "x")
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %T", err)
	}
	if !errors.Is(err, ErrUnknownProvider) {
		t.Error("expected ErrUnknownProvider")
	}
}

func TestFactoryRegisterReplaces(t *testing.T) {
	f := NewFactory()
	f.Register("mock", func(model string, opts ...Option) (Driver, error) {
		return &mockDriver{name: "first"}, nil
	})
	f.Register("mock", func(model string, opts ...Option) (Driver, error) {
		return &mockDriver{name: "second"}, nil
	})
	d, _ := f.Create("mock", "")
	if d.Name() != "second" {
		t.Errorf("expected replaced constructor, got %q", d.Name())
	}
}

func TestDefaultFactoryProviders(t *testing.T) {
	got := DefaultFactory().Providers()
	want := []string{"anthropic", "gollm", "openai"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDefaultFactoryPassesOptions(t *testing.T) {
	d, err := DefaultFactory().Create("OpenAI", "gpt-4o", WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := d.(*OpenAIDriver); !ok {
		t.Fatalf("expected *OpenAIDriver, got %T", d)
	}
	if d.Model() != "gpt-4o" {
		t.Errorf("unexpected model %q", d.Model())
	}
}

func TestPackageLevelRegister(t *testing.T) {
	Register("package-mock", func(model string, opts ...Option) (Driver, error) {
		return &mockDriver{name: "package-mock", model: model}, nil
	})
	d, err := Create("package-mock", "m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name() != "package-mock" {
		t.Errorf("unexpected driver %q", d.Name())
	}
}

func TestOptionsFilter(t *testing.T) {
	opts := Options{"temperature": 0.3, "topic": "AI", "chapter": "One"}
	kept, dropped := opts.Filter([]string{"temperature", "max_tokens"})
	if !reflect.DeepEqual(kept, Options{"temperature": 0.3}) {
		t.Errorf("unexpected kept options %v", kept)
	}
	if !reflect.DeepEqual(dropped, []string{"chapter", "topic"}) {
		t.Errorf("unexpected dropped options %v", dropped)
	}

	kept, dropped = Options(nil).Filter(OpenAIOptions)
	if len(kept) != 0 || dropped != nil {
		t.Errorf("expected empty result for nil options, got %v %v", kept, dropped)
	}
}

func TestOptionsMerge(t *testing.T) {
	base := Options{"a": 1, "b": 2}
	merged := base.Merge(Options{"b": 3, "c": 4})
	if !reflect.DeepEqual(merged, Options{"a": 1, "b": 3, "c": 4}) {
		t.Errorf("unexpected merge %v", merged)
	}
	if base["b"] != 2 {
		t.Error("merge must not modify the receiver")
	}
}
