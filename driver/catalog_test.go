package driver

import "testing"

func TestGetModelInfo(t *testing.T) {
	info := GetModelInfo("gpt-4")
	if info == nil {
		t.Fatal("expected to find gpt-4")
	}
	if info.Provider != "openai" {
		t.Errorf("expected provider %q, got %q", "openai", info.Provider)
	}

	info = GetModelInfo("sonnet")
	if info == nil {
		t.Fatal("expected to find model by alias 'sonnet'")
	}
	if info.ID != "claude-3-5-sonnet-latest" {
		t.Errorf("expected id %q, got %q", "claude-3-5-sonnet-latest", info.ID)
	}

	if info := GetModelInfo("nonexistent-model"); info != nil {
		t.Errorf("expected nil for unknown model, got %v", info)
	}
}

func TestListModels(t *testing.T) {
	all := ListModels("")
	if len(all) != len(Models) {
		t.Errorf("expected %d models, got %d", len(Models), len(all))
	}

	for _, provider := range []string{"openai", "anthropic", "gollm"} {
		models := ListModels(provider)
		if len(models) == 0 {
			t.Errorf("expected models for %s", provider)
		}
		for _, m := range models {
			if m.Provider != provider {
				t.Errorf("expected provider %s, got %q", provider, m.Provider)
			}
		}
	}

	if empty := ListModels("nonexistent"); len(empty) != 0 {
		t.Errorf("expected 0 models for nonexistent provider, got %d", len(empty))
	}
}

func TestResolveModel(t *testing.T) {
	tests := []struct {
		provider, model, want string
	}{
		{"openai", "", "gpt-3.5-turbo"},
		{"anthropic", "", "claude-3-sonnet-20240229"},
		{"gollm", "", "ollama/llama3"},
		{"openai", "gpt4", "gpt-4"},
		{"openai", " gpt-4o ", "gpt-4o"},
		{"anthropic", "haiku", "claude-3-haiku-20240307"},
		{"openai", "sonnet", "sonnet"}, // alias of another provider
		{"openai", "my-finetune", "my-finetune"},
		{"unknown", "", ""},
	}
	for _, tt := range tests {
		if got := ResolveModel(tt.provider, tt.model); got != tt.want {
			t.Errorf("ResolveModel(%q, %q) = %q, want %q", tt.provider, tt.model, got, tt.want)
		}
	}
}

func TestOneDefaultPerProvider(t *testing.T) {
	defaults := map[string]int{}
	for _, m := range Models {
		if m.Default {
			defaults[m.Provider]++
		}
	}
	for provider, n := range defaults {
		if n != 1 {
			t.Errorf("provider %s has %d defaults", provider, n)
		}
	}
}

func TestModelInfoFields(t *testing.T) {
	for _, m := range Models {
		if m.ID == "" {
			t.Error("model ID must not be empty")
		}
		if m.Provider == "" {
			t.Errorf("model %q: provider must not be empty", m.ID)
		}
		if m.DisplayName == "" {
			t.Errorf("model %q: display_name must not be empty", m.ID)
		}
		if m.ContextWindow <= 0 {
			t.Errorf("model %q: context_window must be positive", m.ID)
		}
	}
}
