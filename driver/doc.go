// Package driver adapts model-serving backends to a single Generate contract
// and maps provider identifiers to concrete drivers.
//
// # Architecture
//
// The package is organized in three layers:
//
//   - Driver: the Generate(ctx, prompt, shape, options) contract, the Result
//     it returns, and the per-backend option allow-lists
//   - Backends: OpenAIDriver and AnthropicDriver speak each provider's HTTP
//     API directly; GollmDriver delegates to github.com/teilomillet/gollm for
//     any provider gollm supports
//   - Factory: a case-insensitive registry from provider identifier to driver
//     constructor, open to runtime registration
//
// # Quick Start
//
//	d, err := driver.Create("openai", "gpt-4o-mini")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := d.Generate(ctx, "Say hello in French", nil, nil)
//	fmt.Println(res.Text)
//
// # Structured Output
//
// Passing a *shape.Shape appends a JSON formatting instruction to the prompt
// and coerces the reply into the shape:
//
//	outline := shape.New("BlogOutline",
//	    shape.String("title", "Blog post title"),
//	    shape.List("sections", shape.KindString, "Section headings"),
//	)
//	res, err := d.Generate(ctx, "Outline a post about AI in drug discovery", outline, nil)
//	fmt.Println(res.Value["title"])
//
// Replies that cannot be coerced degrade to the shape's default instance; only
// transport and backend failures are returned as errors.
//
// # Errors
//
// ConfigurationError is returned at construction for unknown providers or
// missing credentials. BackendError and its subtypes carry the provider's
// status and message. Drivers never retry; callers that want retries wrap
// calls in Retry with a RetryPolicy.
package driver
