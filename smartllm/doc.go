// Package smartllm binds prompt templates to plain Go functions and runs them
// against a pluggable driver.
//
// A configured function is a template, an optional response shape and a
// handler that post-processes the generated value:
//
//	llm, err := smartllm.NewFromProvider("openai", "gpt-4o-mini")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	structure := llm.Configure(
//	    "Create a high-level structure for a book about {topic}.",
//	    smartllm.WithShape(bookShape),
//	).Wrap("ideate_book_structure", func(ctx context.Context, res driver.Result, args smartllm.Args) (any, error) {
//	    return res.Value, nil
//	})
//
//	ctx = smartllm.WithCaller(ctx, "create_book")
//	out, err := structure.Call(ctx, smartllm.Args{"topic": "AI ethics"})
//
// Functions are also reachable by name through LLM.Func and LLM.Call.
//
// Every successful call is recorded against the caller carried by the context
// (DefaultCaller when none is set). LLM.Calls returns the record and
// LLM.GenerateFlowchart renders it.
package smartllm
