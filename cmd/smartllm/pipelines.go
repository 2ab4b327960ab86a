package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/martinemde/smartllm/driver"
	"github.com/martinemde/smartllm/shape"
	"github.com/martinemde/smartllm/smartllm"
)

type bookStructure struct {
	Title    string   `json:"title" jsonschema:"description=Book title"`
	Chapters []string `json:"chapters" jsonschema:"description=Chapter titles (at most ten)"`
}

type chapterContent struct {
	Content string `json:"content" jsonschema:"description=Content of the chapter (one page at most)"`
}

type chapterReview struct {
	Review       string `json:"review" jsonschema:"description=Brief review of the chapter"`
	Improvements string `json:"improvements" jsonschema:"description=Concise improvements to the chapter"`
	Rating       int    `json:"rating" jsonschema:"description=Rating of the chapter (1-10)"`
}

var (
	bookStructureShape  = shape.MustFromStruct(bookStructure{})
	chapterContentShape = shape.MustFromStruct(chapterContent{})
	chapterReviewShape  = shape.MustFromStruct(chapterReview{})
)

// decodeInto returns a handler that decodes the structured result into a
// fresh T.
func decodeInto[T any]() smartllm.Handler {
	return func(_ context.Context, res driver.Result, _ smartllm.Args) (any, error) {
		var v T
		if err := res.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func trimmedText(_ context.Context, res driver.Result, _ smartllm.Args) (any, error) {
	return strings.TrimSpace(res.Text), nil
}

// Chapter is one finished chapter of a Book.
type Chapter struct {
	Title   string
	Content string
	Review  string
	Rating  int
}

// Book is the output of the book pipeline.
type Book struct {
	Title    string
	Chapters []Chapter
	Summary  string
}

// WriteChapters writes each chapter to dir/chapter_NN.md.
func (b *Book) WriteChapters(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, ch := range b.Chapters {
		path := filepath.Join(dir, fmt.Sprintf("chapter_%02d.md", i+1))
		body := fmt.Sprintf("# %s\n\n%s\n", ch.Title, ch.Content)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return err
		}
	}
	return nil
}

type bookPipeline struct {
	ideate, improve, write, review, rewrite, summarize *smartllm.Func
}

// newBookPipeline drafts with writer. The editor refines the structure and
// reviews each chapter; pass the writer again to use a single backend.
func newBookPipeline(writer, editor *smartllm.LLM) *bookPipeline {
	return &bookPipeline{
		ideate: writer.Configure(
			"Create a detailed high-level structure for a book about {topic}. Include a title and a list of up to 10 chapter titles. Each chapter should be brief enough to fit on one page.",
			smartllm.WithShape(bookStructureShape),
		).Wrap("ideate_book_structure", decodeInto[bookStructure]()),

		improve: editor.Configure(
			"Refine the following book structure, ensuring coherence and brevity. Limit to 10 chapters maximum, each fitting on one page: {structure}",
			smartllm.WithShape(bookStructureShape),
		).Wrap("improve_structure", decodeInto[bookStructure]()),

		write: writer.Configure(
			"Write a one-page chapter for '{chapter}' in the book about {topic}.",
			smartllm.WithShape(chapterContentShape),
		).Wrap("write_chapter", decodeInto[chapterContent]()),

		review: editor.Configure(
			"Critically review the following one-page chapter as an experienced editor: {chapter}",
			smartllm.WithShape(chapterReviewShape),
		).Wrap("review_chapter", decodeInto[chapterReview]()),

		rewrite: writer.Configure(
			"Rewrite the following chapter based on the review and improvements: {original_chapter}\n\nReview: {review}\nImprovements: {improvements}",
			smartllm.WithShape(chapterContentShape),
		).Wrap("rewrite_chapter", decodeInto[chapterContent]()),

		summarize: writer.Configure(
			"Provide a brief summary of the following book based on its chapters: {chapters}",
		).Wrap("summarize_book", trimmedText),
	}
}

// Run drafts a book about topic with at most maxChapters chapters. Calls are
// recorded under the caller "create_book".
func (p *bookPipeline) Run(ctx context.Context, topic string, maxChapters int) (*Book, error) {
	ctx = smartllm.WithCaller(ctx, "create_book")

	draftStructure, err := smartllm.CallAs[bookStructure](ctx, p.ideate, smartllm.Args{"topic": topic})
	if err != nil {
		return nil, err
	}
	structure, err := smartllm.CallAs[bookStructure](ctx, p.improve, smartllm.Args{"structure": draftStructure})
	if err != nil {
		return nil, err
	}
	if len(structure.Chapters) == 0 {
		return nil, fmt.Errorf("book structure for %q has no chapters", topic)
	}
	if maxChapters > 0 && len(structure.Chapters) > maxChapters {
		structure.Chapters = structure.Chapters[:maxChapters]
	}

	b := &Book{Title: structure.Title}
	for _, title := range structure.Chapters {
		draft, err := smartllm.CallAs[chapterContent](ctx, p.write, smartllm.Args{"chapter": title, "topic": topic})
		if err != nil {
			return nil, err
		}
		review, err := smartllm.CallAs[chapterReview](ctx, p.review, smartllm.Args{"chapter": draft.Content})
		if err != nil {
			return nil, err
		}
		final, err := smartllm.CallAs[chapterContent](ctx, p.rewrite, smartllm.Args{
			"original_chapter": draft.Content,
			"review":           review.Review,
			"improvements":     review.Improvements,
		})
		if err != nil {
			return nil, err
		}
		b.Chapters = append(b.Chapters, Chapter{
			Title:   title,
			Content: final.Content,
			Review:  review.Review,
			Rating:  review.Rating,
		})
	}

	titles := make(map[string]string, len(b.Chapters))
	for _, ch := range b.Chapters {
		titles[ch.Title] = ch.Content
	}
	summary, err := smartllm.CallAs[string](ctx, p.summarize, smartllm.Args{"chapters": titles})
	if err != nil {
		return nil, err
	}
	b.Summary = summary
	return b, nil
}

// Slide is one slide of a presentation.
type Slide struct {
	Title   string
	Content string
}

type slidesPipeline struct {
	outline, content *smartllm.Func
}

func newSlidesPipeline(llm *smartllm.LLM) *slidesPipeline {
	return &slidesPipeline{
		outline: llm.Configure(
			"Create a concise outline for a presentation about {topic}. Limit to 5-7 main points, one per line.",
		).Wrap("create_outline", func(_ context.Context, res driver.Result, _ smartllm.Args) (any, error) {
			var points []string
			for _, line := range strings.Split(res.Text, "\n") {
				line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*0123456789.)"))
				if line != "" {
					points = append(points, line)
				}
			}
			if len(points) > 7 {
				points = points[:7]
			}
			return points, nil
		}),

		content: llm.Configure(
			"Generate brief, informative content (2-3 sentences) for a slide titled '{slide_title}' about {topic}",
		).Wrap("generate_slide_content", trimmedText),
	}
}

// Run outlines a presentation about topic and writes each slide. Calls are
// recorded under the caller "create_presentation".
func (p *slidesPipeline) Run(ctx context.Context, topic string) ([]Slide, error) {
	ctx = smartllm.WithCaller(ctx, "create_presentation")

	outline, err := smartllm.CallAs[[]string](ctx, p.outline, smartllm.Args{"topic": topic})
	if err != nil {
		return nil, err
	}
	slides := make([]Slide, 0, len(outline))
	for _, title := range outline {
		content, err := smartllm.CallAs[string](ctx, p.content, smartllm.Args{"slide_title": title, "topic": topic})
		if err != nil {
			return nil, err
		}
		slides = append(slides, Slide{Title: title, Content: content})
	}
	return slides, nil
}
