package driver

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/martinemde/smartllm/shape"
)

// sendFunc performs one backend request for an already-augmented prompt and
// already-filtered options, returning the reply text.
type sendFunc func(ctx context.Context, prompt string, opts Options) (string, error)

// generate implements the Driver contract shared by every backend: input
// validation, option filtering, shape instructions and coercion.
func generate(ctx context.Context, logger *slog.Logger, provider, model string, allowed []string,
	prompt string, s *shape.Shape, opts Options, send sendFunc) (Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return Result{}, newInvalidInputError(provider)
	}

	log := logger.With("provider", provider, "model", model, "request_id", uuid.NewString())

	filtered, dropped := opts.Filter(allowed)
	if len(dropped) > 0 {
		log.Debug("dropping unsupported options", "options", dropped)
	}

	if s != nil {
		prompt = prompt + "\n\n" + s.Instruction()
	}

	log.Debug("generate", "structured", s != nil, "prompt_chars", len(prompt))
	text, err := send(ctx, prompt, filtered)
	if err != nil {
		log.Warn("generate failed", "error", err)
		return Result{}, err
	}
	text = strings.TrimSpace(text)

	if s == nil {
		return Result{Text: text}, nil
	}
	value, cerr := s.TryCoerce(text)
	if cerr != nil {
		log.Warn("coercion degraded to default value", "shape", s.Name, "error", cerr)
	}
	return Result{Text: text, Value: value}, nil
}
