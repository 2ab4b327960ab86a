package driver

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Credentials holds the backend keys and endpoints read from the environment.
type Credentials struct {
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL"`
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL string `env:"ANTHROPIC_BASE_URL"`
}

// LoadCredentials reads Credentials from the process environment.
func LoadCredentials() (Credentials, error) {
	creds, err := env.ParseAs[Credentials]()
	if err != nil {
		return Credentials{}, fmt.Errorf("read credentials from environment: %w", err)
	}
	return creds, nil
}

// envOptions returns options derived from the environment for provider, placed
// before explicit options so that the latter win.
func envOptions(provider string) ([]Option, error) {
	creds, err := LoadCredentials()
	if err != nil {
		return nil, newConfigurationError(err, "%s: credentials", provider)
	}
	var opts []Option
	switch provider {
	case "openai":
		opts = appendNonEmpty(opts, creds.OpenAIAPIKey, WithAPIKey)
		opts = appendNonEmpty(opts, creds.OpenAIBaseURL, WithBaseURL)
	case "anthropic":
		opts = appendNonEmpty(opts, creds.AnthropicAPIKey, WithAPIKey)
		opts = appendNonEmpty(opts, creds.AnthropicBaseURL, WithBaseURL)
	}
	return opts, nil
}

func appendNonEmpty(opts []Option, value string, opt func(string) Option) []Option {
	if value == "" {
		return opts
	}
	return append(opts, opt(value))
}
