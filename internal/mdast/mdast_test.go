package mdast

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = "# Queries\n" +
	"\n" +
	"Fetching data with hooks.\n" +
	"\n" +
	"```ts\n" +
	"const x: number = 1;\n" +
	"```\n" +
	"\n" +
	"```python\n" +
	"print(\"hi\")\n" +
	"```\n" +
	"\n" +
	"```tsx title=\"app.tsx\"\n" +
	"const el = <div />;\n" +
	"```\n"

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	var kinds []Kind
	err = Walk(doc, func(n Node) error {
		kinds = append(kinds, n.Kind())
		return nil
	})
	require.NoError(t, err)
	want := []Kind{KindHeading, KindParagraph, KindCodeBlock, KindCodeBlock, KindCodeBlock}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("kind sequence mismatch (-want +got):\n%s", diff)
	}

	blocks := CodeBlocks(doc)
	require.Len(t, blocks, 3)

	assert.Equal(t, "ts", blocks[0].Lang)
	assert.Equal(t, "const x: number = 1;\n", blocks[0].Value)
	assert.True(t, blocks[0].Span.Valid())

	assert.Equal(t, "python", blocks[1].Lang)

	assert.Equal(t, "tsx", blocks[2].Lang)
	assert.Equal(t, `title="app.tsx"`, blocks[2].Meta)
}

func TestParseUntaggedFence(t *testing.T) {
	doc, err := Parse([]byte("```\nplain\n```\n"))
	require.NoError(t, err)

	blocks := CodeBlocks(doc)
	require.Len(t, blocks, 1)
	assert.Equal(t, "", blocks[0].Lang)
	assert.Equal(t, "plain\n", blocks[0].Value)
}

func TestParseEmptyFence(t *testing.T) {
	doc, err := Parse([]byte("```ts\n```\n"))
	require.NoError(t, err)

	blocks := CodeBlocks(doc)
	require.Len(t, blocks, 1)
	assert.Equal(t, "ts", blocks[0].Lang)
	assert.Equal(t, "", blocks[0].Value)
	assert.False(t, blocks[0].Span.Valid())
}

func TestRenderRoundTrip(t *testing.T) {
	src := []byte(sampleDoc)
	doc, err := Parse(src)
	require.NoError(t, err)

	// Nothing mutated: output is byte-for-byte the input.
	assert.Equal(t, sampleDoc, string(Render(doc, src)))
}

func TestRenderSplicesMutatedValue(t *testing.T) {
	src := []byte(sampleDoc)
	doc, err := Parse(src)
	require.NoError(t, err)

	blocks := CodeBlocks(doc)
	blocks[0].Value = "const x = 1;\n"
	blocks[0].Mutated = true
	out := string(Render(doc, src))

	assert.Contains(t, out, "```ts\nconst x = 1;\n```\n")
	// Everything else survives untouched.
	assert.Contains(t, out, "# Queries")
	assert.Contains(t, out, "print(\"hi\")")
	assert.Equal(t, strings.Count(sampleDoc, "```"), strings.Count(out, "```"))
}

func TestRenderListIndentedFence(t *testing.T) {
	// Line segments start after the list indentation, so the lifted
	// value differs from the raw span bytes. Untouched blocks must
	// still round-trip byte-for-byte.
	src := "- item\n" +
		"\n" +
		"  ```python\n" +
		"  a = 1\n" +
		"  b = 2\n" +
		"  ```\n"
	doc, err := Parse([]byte(src))
	require.NoError(t, err)

	blocks := CodeBlocks(doc)
	require.Len(t, blocks, 1)
	assert.Equal(t, "a = 1\nb = 2\n", blocks[0].Value)
	assert.Equal(t, "  ", blocks[0].Indent)

	assert.Equal(t, src, string(Render(doc, []byte(src))))
}

func TestRenderTabIndentedFence(t *testing.T) {
	src := "- item\n" +
		"\n" +
		"\t```python\n" +
		"\ta = 1\n" +
		"\tb = 2\n" +
		"\t```\n"
	doc, err := Parse([]byte(src))
	require.NoError(t, err)

	require.Len(t, CodeBlocks(doc), 1)
	assert.Equal(t, src, string(Render(doc, []byte(src))))
}

func TestRenderMutatedListIndentedFence(t *testing.T) {
	src := "- item\n" +
		"\n" +
		"  ```ts\n" +
		"  const x: number = 1;\n" +
		"  const y: number = 2;\n" +
		"  ```\n"
	doc, err := Parse([]byte(src))
	require.NoError(t, err)

	blocks := CodeBlocks(doc)
	require.Len(t, blocks, 1)
	blocks[0].Value = "const x = 1;\nconst y = 2;\n"
	blocks[0].Mutated = true

	want := "- item\n" +
		"\n" +
		"  ```ts\n" +
		"  const x = 1;\n" +
		"  const y = 2;\n" +
		"  ```\n"
	assert.Equal(t, want, string(Render(doc, []byte(src))))
}

func TestWalkStopsOnError(t *testing.T) {
	doc := &Document{Children: []Node{
		&Paragraph{Text: "a"},
		&CodeBlock{Lang: "ts"},
		&Paragraph{Text: "b"},
	}}

	visited := 0
	err := Walk(doc, func(n Node) error {
		visited++
		if n.Kind() == KindCodeBlock {
			return assert.AnError
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 2, visited)
}
