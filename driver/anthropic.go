package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"

	"github.com/martinemde/smartllm/shape"
)

const (
	defaultAnthropicBaseURL   = "https://api.anthropic.com"
	anthropicVersion          = "2023-06-01"
	defaultAnthropicMaxTokens = 1024
)

// AnthropicOptions lists the Messages API parameters the Anthropic driver forwards.
var AnthropicOptions = []string{
	"max_tokens", "temperature", "top_p", "top_k", "stop_sequences", "system", "metadata",
}

// AnthropicDriver implements Driver for the Anthropic Messages API.
type AnthropicDriver struct {
	cfg   *config
	model string
}

// NewAnthropicDriver creates an Anthropic driver. The API key comes from
// WithAPIKey or ANTHROPIC_API_KEY; without one a *ConfigurationError is returned.
func NewAnthropicDriver(model string, opts ...Option) (*AnthropicDriver, error) {
	envOpts, err := envOptions("anthropic")
	if err != nil {
		return nil, err
	}
	cfg := newConfig(append(envOpts, opts...))
	if cfg.apiKey == "" {
		return nil, newConfigurationError(ErrMissingAPIKey, "anthropic: ANTHROPIC_API_KEY is not set")
	}
	if cfg.baseURL == "" {
		cfg.baseURL = defaultAnthropicBaseURL
	}
	return &AnthropicDriver{cfg: cfg, model: ResolveModel("anthropic", model)}, nil
}

// Name returns the provider identifier.
func (d *AnthropicDriver) Name() string { return "anthropic" }

// Model returns the model identifier.
func (d *AnthropicDriver) Model() string { return d.model }

// Generate sends prompt as a single user message.
func (d *AnthropicDriver) Generate(ctx context.Context, prompt string, s *shape.Shape, opts Options) (Result, error) {
	return generate(ctx, d.cfg.logger, d.Name(), d.model, AnthropicOptions, prompt, s, opts, d.send)
}

func (d *AnthropicDriver) send(ctx context.Context, prompt string, opts Options) (string, error) {
	payload := map[string]any{
		"model":      d.model,
		"max_tokens": defaultAnthropicMaxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	for k, v := range opts {
		payload[k] = v
	}

	body, err := doJSON(ctx, d.cfg.httpClient, d.Name(), d.cfg.baseURL+"/v1/messages",
		map[string]string{
			"x-api-key":         d.cfg.apiKey,
			"anthropic-version": anthropicVersion,
		}, payload)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	_, err = jsonparser.ArrayEach(body, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		if kind, _ := jsonparser.GetString(value, "type"); kind != "text" {
			return
		}
		part, _ := jsonparser.GetString(value, "text")
		text.WriteString(part)
	}, "content")
	if err != nil {
		return "", &BackendError{
			SDKError: SDKError{Message: "response has no content blocks", Cause: err},
			Provider: d.Name(),
		}
	}
	return text.String(), nil
}

func (d *AnthropicDriver) String() string {
	return fmt.Sprintf("anthropic(%s)", d.model)
}
