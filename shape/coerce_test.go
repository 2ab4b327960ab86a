package shape

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outline() *Shape {
	return New("BlogOutline",
		String("a", "first"),
		List("b", KindString, "second"),
	)
}

func TestCoerceStripsSurroundingProse(t *testing.T) {
	v, err := outline().TryCoerce("here:\n{\"a\": \"x\", \"b\": [\"y\",\"z\"]}\nthanks")
	require.NoError(t, err)
	assert.Equal(t, Value{"a": "x", "b": []string{"y", "z"}}, v)
}

func TestCoerceBareObject(t *testing.T) {
	v := outline().Coerce(`  {"a": "x", "b": []}  `)
	assert.Equal(t, Value{"a": "x", "b": []string{}}, v)
}

func TestCoerceMarkdownFence(t *testing.T) {
	raw := "```json\n{\"a\": \"fenced\", \"b\": [\"1\"]}\n```"
	v := outline().Coerce(raw)
	assert.Equal(t, "fenced", v["a"])
	assert.Equal(t, []string{"1"}, v["b"])
}

func TestCoerceCaseInsensitiveKey(t *testing.T) {
	s := New("Book", String("title", ""), List("chapters", KindString, ""))
	v, err := s.TryCoerce(`{"Title": "Ethics", "CHAPTERS": ["One", "Two"]}`)
	require.NoError(t, err)
	assert.Equal(t, "Ethics", v["title"])
	assert.Equal(t, []string{"One", "Two"}, v["chapters"])
}

func TestCoerceContainmentMatch(t *testing.T) {
	s := New("Book", String("title", ""), List("chapters", KindString, ""))
	v, err := s.TryCoerce(`{"book_title": "Ethics", "chapter": ["One"]}`)
	require.NoError(t, err)
	assert.Equal(t, "Ethics", v["title"])
	assert.Equal(t, []string{"One"}, v["chapters"])
}

func TestCoerceExactMatchWins(t *testing.T) {
	s := New("Post", String("title", ""))
	v := s.Coerce(`{"Title": "wrong", "title": "right"}`)
	assert.Equal(t, "right", v["title"])
}

func TestCoerceMissingFieldDefaults(t *testing.T) {
	s := New("Post", String("title", ""), Integer("words", ""), Boolean("draft", ""))
	v, err := s.TryCoerce(`{"title": "Hello"}`)
	require.NoError(t, err)
	assert.Equal(t, Value{"title": "Hello", "words": int64(0), "draft": false}, v)
}

func TestCoerceUnparsableDegrades(t *testing.T) {
	s := outline()
	v, err := s.TryCoerce("not json at all")
	assert.Equal(t, s.Zero(), v)

	var malformed *MalformedResponseError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "not json at all", malformed.Raw)

	assert.NotPanics(t, func() { s.Coerce("{ broken") })
	assert.Equal(t, s.Zero(), s.Coerce("{ broken"))
}

func TestCoerceTypeMismatchDegrades(t *testing.T) {
	s := outline()
	v, err := s.TryCoerce(`{"a": 42, "b": ["y"]}`)
	require.Error(t, err)
	assert.Equal(t, s.Zero(), v)

	v, err = s.TryCoerce(`{"a": "x", "b": ["y", 3]}`)
	require.Error(t, err)
	assert.Equal(t, s.Zero(), v)
}

func TestCoerceNumbers(t *testing.T) {
	s := New("Stats", Integer("count", ""), Number("ratio", ""), List("ids", KindInteger, ""))
	v, err := s.TryCoerce(`{"count": 3.0, "ratio": 0.25, "ids": [1, 2]}`)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v["count"])
	assert.Equal(t, 0.25, v["ratio"])
	assert.Equal(t, []int64{1, 2}, v["ids"])

	_, err = s.TryCoerce(`{"count": 3.5}`)
	assert.Error(t, err)
}

func TestCoerceDeterministic(t *testing.T) {
	s := New("Post", String("title", ""))
	raw := `{"subtitle": "b", "Title_text": "a", "maintitle": "c"}`
	first := s.Coerce(raw)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, s.Coerce(raw))
	}
}

func TestExtractRejectsNonObjects(t *testing.T) {
	_, err := Extract("[1, 2, 3]")
	assert.Error(t, err)
	_, err = Extract("} backwards {")
	assert.Error(t, err)
}

func TestValueDecode(t *testing.T) {
	var out struct {
		A string   `json:"a"`
		B []string `json:"b"`
	}
	v := outline().Coerce(`{"a": "x", "b": ["y", "z"]}`)
	require.NoError(t, v.Decode(&out))
	assert.Equal(t, "x", out.A)
	assert.Equal(t, []string{"y", "z"}, out.B)
}

func TestInstructionDescribesFields(t *testing.T) {
	s := New("Book", String("title", "Book title"), List("chapters", KindString, "List of chapter titles"))
	text := s.Instruction()
	assert.Contains(t, text, `"title": string (Book title)`)
	assert.Contains(t, text, `"chapters": list of string (List of chapter titles)`)
	assert.True(t, strings.HasSuffix(text, `{"title": "...", "chapters": ["...", ...]}`))
}
