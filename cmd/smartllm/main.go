// Command smartllm runs prompt pipelines against a configured model backend.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/martinemde/smartllm/config"
	"github.com/martinemde/smartllm/driver"
	"github.com/martinemde/smartllm/logging"
	"github.com/martinemde/smartllm/shape"
	"github.com/martinemde/smartllm/smartllm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(&env{newLLM: providerLLM}).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "smartllm: %v\n", err)
		os.Exit(1)
	}
}

// env is the state shared by every command after flags and configuration
// have been resolved.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error

	// newLLM is replaced in tests.
	newLLM func(e *env, provider, model string, opts ...smartllm.Option) (*smartllm.LLM, error)
}

// llm builds the LLM for the configured provider and model.
func (e *env) llm() (*smartllm.LLM, error) {
	return e.newLLM(e, e.cfg.Provider, e.cfg.Model)
}

func newApp(e *env) *cli.App {
	return &cli.App{
		Name:  "smartllm",
		Usage: "run prompt templates against a model backend",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to a YAML config file"},
			&cli.StringFlag{Name: "provider", Usage: "driver provider (openai, anthropic, gollm)"},
			&cli.StringFlag{Name: "model", Usage: "model identifier or alias"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		},
		Before: func(c *cli.Context) error {
			return e.setup(c)
		},
		After: func(c *cli.Context) error {
			if e.closeLog != nil {
				return e.closeLog()
			}
			return nil
		},
		Commands: []*cli.Command{
			generateCommand(e),
			bookCommand(e),
			slidesCommand(e),
			providersCommand(),
		},
	}
}

func (e *env) setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("provider") {
		cfg.Provider = strings.ToLower(c.String("provider"))
		if !c.IsSet("model") {
			cfg.Model = ""
		}
	}
	if c.IsSet("model") {
		cfg.Model = c.String("model")
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}

	logger, closeLog, err := logging.New(cfg.LoggerConfig())
	if err != nil {
		return err
	}
	e.cfg, e.logger, e.closeLog = cfg, logger, closeLog
	return nil
}

func providerLLM(e *env, provider, model string, opts ...smartllm.Option) (*smartllm.LLM, error) {
	base := []smartllm.Option{
		smartllm.WithLogger(e.logger),
		smartllm.WithDriverOptions(e.cfg.DriverOptions()...),
		smartllm.WithMiddleware(
			defaultOptions(e.cfg.Options),
			retryMiddleware(e.cfg.RetryPolicy(), e.logger),
			smartllm.LoggingMiddleware(e.logger),
		),
	}
	return smartllm.NewFromProvider(provider, model, append(base, opts...)...)
}

// defaultOptions layers per-call options over the configured defaults.
func defaultOptions(defaults map[string]any) smartllm.Middleware {
	return func(ctx context.Context, req smartllm.Request, next func(context.Context, smartllm.Request) (driver.Result, error)) (driver.Result, error) {
		req.Options = driver.Options(defaults).Merge(req.Options)
		return next(ctx, req)
	}
}

// retryMiddleware retries retryable driver errors according to policy.
func retryMiddleware(policy driver.RetryPolicy, logger *slog.Logger) smartllm.Middleware {
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		logger.Warn("retrying driver call", "attempt", attempt, "delay", delay, "error", err)
	}
	return func(ctx context.Context, req smartllm.Request, next func(context.Context, smartllm.Request) (driver.Result, error)) (driver.Result, error) {
		return driver.Retry(ctx, policy, func(ctx context.Context) (driver.Result, error) {
			return next(ctx, req)
		})
	}
}

func generateCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Usage:     "send a single prompt, optionally requesting structured output",
		ArgsUsage: "PROMPT",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "field", Aliases: []string{"f"}, Usage: "structured field as name:kind, kind one of string, integer, number, boolean, list[kind]"},
			&cli.IntFlag{Name: "retries", Usage: "retry retryable failures this many times", Value: -1},
		},
		Action: func(c *cli.Context) error {
			prompt := strings.Join(c.Args().Slice(), " ")

			var s *shape.Shape
			if specs := c.StringSlice("field"); len(specs) > 0 {
				fields := make([]shape.Field, 0, len(specs))
				for _, spec := range specs {
					f, err := shape.ParseField(spec)
					if err != nil {
						return err
					}
					fields = append(fields, f)
				}
				s = shape.New("Response", fields...)
			}
			if n := c.Int("retries"); n >= 0 {
				e.cfg.Retry.MaxRetries = n
			}

			llm, err := e.llm()
			if err != nil {
				return err
			}
			res, err := llm.Generate(c.Context, prompt, s, nil)
			if err != nil {
				return err
			}
			return printResult(c.App.Writer, res)
		},
	}
}

func printResult(w io.Writer, res driver.Result) error {
	if !res.Structured() {
		_, err := fmt.Fprintln(w, res.Text)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Value)
}

func bookCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "book",
		Usage:     "draft a short book: structure, chapters, reviews and a summary",
		ArgsUsage: "TOPIC",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "chapters", Usage: "maximum number of chapters", Value: 10},
			&cli.StringFlag{Name: "out", Usage: "directory for chapter_NN.md files"},
			&cli.StringFlag{Name: "chapters-flowchart", Usage: "write the call flowchart to `FILE` (.dot, .gv, .png, .svg, .pdf)"},
			&cli.StringFlag{Name: "record", Usage: "write the call record as YAML to `FILE`"},
			&cli.StringFlag{Name: "refine-provider", Usage: "provider that refines the structure and reviews chapters"},
			&cli.StringFlag{Name: "refine-model", Usage: "model for the refine provider (its default when empty)"},
		},
		Action: func(c *cli.Context) error {
			topic := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(topic) == "" {
				return cli.Exit("book: a topic is required", 2)
			}
			llm, err := e.llm()
			if err != nil {
				return err
			}
			llm.ClearCalls()

			editor := llm
			if c.IsSet("refine-provider") || c.IsSet("refine-model") {
				provider := c.String("refine-provider")
				if provider == "" {
					provider = e.cfg.Provider
				}
				editor, err = e.newLLM(e, strings.ToLower(provider), c.String("refine-model"),
					smartllm.WithRecorder(llm.Recorder()))
				if err != nil {
					return err
				}
			}

			b, err := newBookPipeline(llm, editor).Run(c.Context, topic, c.Int("chapters"))
			if err != nil {
				return err
			}
			if dir := c.String("out"); dir != "" {
				if err := b.WriteChapters(dir); err != nil {
					return err
				}
			}
			fmt.Fprintf(c.App.Writer, "# %s\n\n%s\n", b.Title, b.Summary)
			for i, ch := range b.Chapters {
				fmt.Fprintf(c.App.Writer, "\n%d. %s (rating %d)\n", i+1, ch.Title, ch.Rating)
			}
			return exportCalls(llm, c.String("chapters-flowchart"), c.String("record"))
		},
	}
}

func slidesCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "slides",
		Usage:     "outline a presentation and write content for each slide",
		ArgsUsage: "TOPIC",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "flowchart", Usage: "write the call flowchart to `FILE`"},
		},
		Action: func(c *cli.Context) error {
			topic := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(topic) == "" {
				return cli.Exit("slides: a topic is required", 2)
			}
			llm, err := e.llm()
			if err != nil {
				return err
			}
			slides, err := newSlidesPipeline(llm).Run(c.Context, topic)
			if err != nil {
				return err
			}
			for i, s := range slides {
				fmt.Fprintf(c.App.Writer, "Slide %d: %s\n%s\n\n", i+1, s.Title, s.Content)
			}
			return exportCalls(llm, c.String("flowchart"), "")
		},
	}
}

// callExport is the YAML document written by --record.
type callExport struct {
	Calls   smartllm.CallRecord `yaml:"calls"`
	History []smartllm.Call     `yaml:"history"`
}

func exportCalls(llm *smartllm.LLM, flowchartPath, recordPath string) error {
	if flowchartPath != "" {
		if err := llm.GenerateFlowchart(flowchartPath); err != nil {
			return err
		}
	}
	if recordPath == "" {
		return nil
	}
	data, err := yaml.Marshal(callExport{
		Calls:   llm.Calls(),
		History: llm.Recorder().History(),
	})
	if err != nil {
		return fmt.Errorf("encode call record: %w", err)
	}
	return os.WriteFile(recordPath, data, 0o644)
}

func providersCommand() *cli.Command {
	return &cli.Command{
		Name:  "providers",
		Usage: "list registered providers and known models",
		Action: func(c *cli.Context) error {
			for _, p := range driver.Default().Providers() {
				fmt.Fprintln(c.App.Writer, p)
				for _, m := range driver.ListModels(p) {
					marker := ""
					if m.Default {
						marker = " (default)"
					}
					fmt.Fprintf(c.App.Writer, "  %-28s %s%s\n", m.ID, m.DisplayName, marker)
				}
			}
			return nil
		},
	}
}
