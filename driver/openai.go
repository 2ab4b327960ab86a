package driver

import (
	"context"
	"fmt"

	"github.com/buger/jsonparser"

	"github.com/martinemde/smartllm/shape"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIOptions lists the Chat Completions parameters the OpenAI driver forwards.
var OpenAIOptions = []string{
	"temperature", "top_p", "max_tokens", "n", "stop",
	"presence_penalty", "frequency_penalty", "seed", "user", "logit_bias",
}

// OpenAIDriver implements Driver for the OpenAI Chat Completions API.
type OpenAIDriver struct {
	cfg   *config
	model string
}

// NewOpenAIDriver creates an OpenAI driver. The API key comes from
// WithAPIKey or OPENAI_API_KEY; without one a *ConfigurationError is returned.
func NewOpenAIDriver(model string, opts ...Option) (*OpenAIDriver, error) {
	envOpts, err := envOptions("openai")
	if err != nil {
		return nil, err
	}
	cfg := newConfig(append(envOpts, opts...))
	if cfg.apiKey == "" {
		return nil, newConfigurationError(ErrMissingAPIKey, "openai: OPENAI_API_KEY is not set")
	}
	if cfg.baseURL == "" {
		cfg.baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIDriver{cfg: cfg, model: ResolveModel("openai", model)}, nil
}

// Name returns the provider identifier.
func (d *OpenAIDriver) Name() string { return "openai" }

// Model returns the model identifier.
func (d *OpenAIDriver) Model() string { return d.model }

// Generate sends prompt as a single user message.
func (d *OpenAIDriver) Generate(ctx context.Context, prompt string, s *shape.Shape, opts Options) (Result, error) {
	return generate(ctx, d.cfg.logger, d.Name(), d.model, OpenAIOptions, prompt, s, opts, d.send)
}

func (d *OpenAIDriver) send(ctx context.Context, prompt string, opts Options) (string, error) {
	payload := map[string]any{
		"model": d.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	for k, v := range opts {
		payload[k] = v
	}

	body, err := doJSON(ctx, d.cfg.httpClient, d.Name(), d.cfg.baseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + d.cfg.apiKey}, payload)
	if err != nil {
		return "", err
	}

	content, err := jsonparser.GetString(body, "choices", "[0]", "message", "content")
	if err != nil {
		return "", &BackendError{
			SDKError: SDKError{Message: "response has no choices[0].message.content", Cause: err},
			Provider: d.Name(),
		}
	}
	return content, nil
}

func (d *OpenAIDriver) String() string {
	return fmt.Sprintf("openai(%s)", d.model)
}
