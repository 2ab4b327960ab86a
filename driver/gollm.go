package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/teilomillet/gollm"

	"github.com/martinemde/smartllm/shape"
)

// GollmOptions lists the parameters the gollm driver applies with SetOption.
var GollmOptions = []string{"temperature", "top_p", "max_tokens", "seed"}

// GollmDriver implements Driver on top of a gollm.LLM, reaching any provider
// gollm supports. Its model identifier has the form "provider/model", for
// example "ollama/llama3" or "openai/gpt-4o-mini".
//
// Options are applied to the shared gollm.LLM before each call, so a
// GollmDriver must not be used concurrently with differing options.
type GollmDriver struct {
	cfg       *config
	provider  string
	model     string
	generateF func(ctx context.Context, prompt *gollm.Prompt) (string, error)
	setOption func(key string, value interface{})
}

// NewGollmDriver creates a gollm-backed driver for model ("provider/model").
// If no API key is configured, gollm reads the provider's usual environment
// variable itself.
func NewGollmDriver(model string, opts ...Option) (*GollmDriver, error) {
	model = ResolveModel("gollm", model)
	provider, name, ok := strings.Cut(model, "/")
	if !ok || provider == "" || name == "" {
		return nil, newConfigurationError(nil, "gollm: model %q must have the form provider/model", model)
	}

	envOpts, err := envOptions(provider)
	if err != nil {
		return nil, err
	}
	cfg := newConfig(append(envOpts, opts...))

	gollmOpts := []gollm.ConfigOption{
		gollm.SetProvider(provider),
		gollm.SetModel(name),
		gollm.SetMaxRetries(0), // retries are the caller's decision
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if cfg.apiKey != "" {
		gollmOpts = append(gollmOpts, gollm.SetAPIKey(cfg.apiKey))
	}
	gollmOpts = append(gollmOpts, cfg.gollmOpts...)

	llm, err := gollm.NewLLM(gollmOpts...)
	if err != nil {
		return nil, newConfigurationError(err, "gollm: create LLM for provider %s", provider)
	}
	return newGollmDriverFromLLM(cfg, provider, model, llm), nil
}

func newGollmDriverFromLLM(cfg *config, provider, model string, llm gollm.LLM) *GollmDriver {
	return &GollmDriver{
		cfg:      cfg,
		provider: provider,
		model:    model,
		generateF: func(ctx context.Context, prompt *gollm.Prompt) (string, error) {
			return llm.Generate(ctx, prompt)
		},
		setOption: func(key string, value interface{}) {
			llm.SetOption(key, value)
		},
	}
}

// Name returns the provider identifier.
func (d *GollmDriver) Name() string { return "gollm" }

// Model returns the "provider/model" identifier.
func (d *GollmDriver) Model() string { return d.model }

// Generate sends prompt through gollm.
func (d *GollmDriver) Generate(ctx context.Context, prompt string, s *shape.Shape, opts Options) (Result, error) {
	return generate(ctx, d.cfg.logger, d.Name(), d.model, GollmOptions, prompt, s, opts, d.send)
}

func (d *GollmDriver) send(ctx context.Context, prompt string, opts Options) (string, error) {
	for k, v := range opts {
		d.setOption(k, v)
	}
	text, err := d.generateF(ctx, gollm.NewPrompt(prompt))
	if err != nil {
		return "", d.translateError(err)
	}
	return text, nil
}

// translateError converts a gollm error into the driver error hierarchy.
// gollm reports failures as text, so classification is by message content.
func (d *GollmDriver) translateError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	be := BackendError{SDKError: SDKError{Message: msg, Cause: err}, Provider: d.provider}

	msgLower := strings.ToLower(msg)
	switch {
	case strings.Contains(msgLower, "401") || strings.Contains(msgLower, "unauthorized") || strings.Contains(msgLower, "invalid api key"):
		be.StatusCode = 401
		return &AuthenticationError{BackendError: be}
	case strings.Contains(msgLower, "403") || strings.Contains(msgLower, "forbidden"):
		be.StatusCode = 403
		return &AccessDeniedError{BackendError: be}
	case strings.Contains(msgLower, "404") || strings.Contains(msgLower, "not found"):
		be.StatusCode = 404
		return &NotFoundError{BackendError: be}
	case strings.Contains(msgLower, "429") || strings.Contains(msgLower, "rate limit"):
		be.StatusCode = 429
		be.Retryable = true
		return &RateLimitError{BackendError: be}
	case strings.Contains(msgLower, "500") || strings.Contains(msgLower, "internal server"):
		be.StatusCode = 500
		be.Retryable = true
		return &ServerError{BackendError: be}
	case strings.Contains(msgLower, "timeout") || strings.Contains(msgLower, "connection refused"):
		return &NetworkError{SDKError: SDKError{Message: msg, Cause: err}}
	default:
		be.Retryable = true
		return &be
	}
}

func (d *GollmDriver) String() string {
	return fmt.Sprintf("gollm(%s)", d.model)
}
