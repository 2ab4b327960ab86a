package driver

import "strings"

// ModelInfo describes a known model in the catalog.
type ModelInfo struct {
	ID            string   `json:"id"`
	Provider      string   `json:"provider"`
	DisplayName   string   `json:"display_name"`
	ContextWindow int      `json:"context_window"`
	Default       bool     `json:"default,omitempty"`
	Aliases       []string `json:"aliases,omitempty"`
}

// Models is the built-in model catalog. Drivers accept model identifiers that
// are not listed here; the catalog only supplies defaults and aliases.
var Models = []ModelInfo{
	// OpenAI
	{
		ID: "gpt-3.5-turbo", Provider: "openai", DisplayName: "GPT-3.5 Turbo",
		ContextWindow: 16385, Default: true,
		Aliases: []string{"gpt35", "gpt-3.5"},
	},
	{
		ID: "gpt-4", Provider: "openai", DisplayName: "GPT-4",
		ContextWindow: 8192,
		Aliases: []string{"gpt4"},
	},
	{
		ID: "gpt-4o", Provider: "openai", DisplayName: "GPT-4o",
		ContextWindow: 128000,
	},
	{
		ID: "gpt-4o-mini", Provider: "openai", DisplayName: "GPT-4o mini",
		ContextWindow: 128000,
		Aliases: []string{"4o-mini"},
	},
	{
		ID: "chatgpt-4o-latest", Provider: "openai", DisplayName: "ChatGPT-4o (latest)",
		ContextWindow: 128000,
	},

	// Anthropic
	{
		ID: "claude-3-sonnet-20240229", Provider: "anthropic", DisplayName: "Claude 3 Sonnet",
		ContextWindow: 200000, Default: true,
		Aliases: []string{"claude-3-sonnet"},
	},
	{
		ID: "claude-3-5-sonnet-latest", Provider: "anthropic", DisplayName: "Claude 3.5 Sonnet",
		ContextWindow: 200000,
		Aliases: []string{"sonnet", "claude-sonnet"},
	},
	{
		ID: "claude-3-haiku-20240307", Provider: "anthropic", DisplayName: "Claude 3 Haiku",
		ContextWindow: 200000,
		Aliases: []string{"haiku", "claude-3-haiku"},
	},

	// gollm (provider/model)
	{
		ID: "ollama/llama3", Provider: "gollm", DisplayName: "Llama 3 via Ollama",
		ContextWindow: 8192, Default: true,
	},
	{
		ID: "openai/gpt-4o-mini", Provider: "gollm", DisplayName: "GPT-4o mini via gollm",
		ContextWindow: 128000,
	},
}

// GetModelInfo returns the catalog entry for a model id or alias, or nil if unknown.
func GetModelInfo(modelID string) *ModelInfo {
	for i := range Models {
		if Models[i].ID == modelID {
			return &Models[i]
		}
		for _, alias := range Models[i].Aliases {
			if alias == modelID {
				return &Models[i]
			}
		}
	}
	return nil
}

// ListModels returns all known models, optionally filtered by provider.
func ListModels(provider string) []ModelInfo {
	if provider == "" {
		result := make([]ModelInfo, len(Models))
		copy(result, Models)
		return result
	}
	var result []ModelInfo
	for _, m := range Models {
		if m.Provider == provider {
			result = append(result, m)
		}
	}
	return result
}

// DefaultModel returns the default model for a provider, or nil when the
// catalog has none.
func DefaultModel(provider string) *ModelInfo {
	for i := range Models {
		if Models[i].Provider == provider && Models[i].Default {
			return &Models[i]
		}
	}
	return nil
}

// ResolveModel canonicalizes modelID for provider: an empty id becomes the
// provider default and a known alias becomes its canonical id. Unknown ids
// are returned unchanged.
func ResolveModel(provider, modelID string) string {
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		if info := DefaultModel(provider); info != nil {
			return info.ID
		}
		return ""
	}
	if info := GetModelInfo(modelID); info != nil && info.Provider == provider {
		return info.ID
	}
	return modelID
}
