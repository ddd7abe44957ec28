package normalize

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"detype/internal/erase"
	"detype/internal/mdast"
)

// stubTransformer uppercases input, or fails for snippets containing
// "boom". Calls are counted to verify each node is visited once.
type stubTransformer struct {
	calls int
}

func (s *stubTransformer) Erase(src string, _ erase.Options) (string, error) {
	s.calls++
	if strings.Contains(src, "boom") {
		return "", errors.New("syntax error at line 1, column 1")
	}
	return strings.ToUpper(src), nil
}

func block(lang, value string) *mdast.CodeBlock {
	return &mdast.CodeBlock{Lang: lang, Value: value, Span: mdast.Span{Start: 0, Stop: len(value)}}
}

func defaultOpts(mode Mode) Options {
	return Options{Tags: []string{"ts", "tsx", "typescript"}, Mode: mode, Path: "doc.mdx"}
}

func TestNormalizeAllowList(t *testing.T) {
	stub := &stubTransformer{}
	n := New(stub, nil)

	doc := &mdast.Document{Children: []mdast.Node{
		&mdast.Heading{Level: 1, Text: "Title"},
		block("ts", "one"),
		block("python", "two"),
		block("typescript", "three"),
		block("", "four"),
		&mdast.Paragraph{Text: "prose"},
	}}

	diags, err := n.Normalize(doc, defaultOpts(ModeMutate))
	require.NoError(t, err)

	// Exactly one diagnostic per matched node, in document order.
	require.Len(t, diags, 2)
	assert.Equal(t, "ts", diags[0].Lang)
	assert.Equal(t, "typescript", diags[1].Lang)
	assert.Equal(t, 2, stub.calls)

	// Matched nodes mutated, everything else byte-for-byte unchanged.
	blocks := mdast.CodeBlocks(doc)
	assert.Equal(t, "ONE", blocks[0].Value)
	assert.Equal(t, "two", blocks[1].Value)
	assert.Equal(t, "THREE", blocks[2].Value)
	assert.Equal(t, "four", blocks[3].Value)
}

func TestNormalizeNoMatchesIsNoOp(t *testing.T) {
	stub := &stubTransformer{}
	n := New(stub, nil)

	doc := &mdast.Document{Children: []mdast.Node{
		block("python", "a"),
		block("jsx", "<div/>"),
	}}

	diags, err := n.Normalize(doc, defaultOpts(ModeMutate))
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Zero(t, stub.calls)
	assert.Equal(t, "<div/>", mdast.CodeBlocks(doc)[1].Value)
}

func TestNormalizeModes(t *testing.T) {
	t.Run("Mutate Carries No Output", func(t *testing.T) {
		n := New(&stubTransformer{}, nil)
		doc := &mdast.Document{Children: []mdast.Node{block("ts", "code")}}

		diags, err := n.Normalize(doc, defaultOpts(ModeMutate))
		require.NoError(t, err)
		require.Len(t, diags, 1)
		assert.Equal(t, SeverityErased, diags[0].Severity)
		assert.Empty(t, diags[0].Output)
		assert.Equal(t, "CODE", mdast.CodeBlocks(doc)[0].Value)
		assert.True(t, mdast.CodeBlocks(doc)[0].Mutated)
	})

	t.Run("Emit Leaves Tree Alone", func(t *testing.T) {
		n := New(&stubTransformer{}, nil)
		doc := &mdast.Document{Children: []mdast.Node{block("ts", "code")}}

		diags, err := n.Normalize(doc, defaultOpts(ModeEmit))
		require.NoError(t, err)
		require.Len(t, diags, 1)
		assert.Equal(t, "CODE", diags[0].Output)
		assert.Equal(t, "code", mdast.CodeBlocks(doc)[0].Value)
		assert.False(t, mdast.CodeBlocks(doc)[0].Mutated)
	})
}

func TestNormalizeFailureIsLocal(t *testing.T) {
	n := New(&stubTransformer{}, nil)
	doc := &mdast.Document{Children: []mdast.Node{
		block("ts", "good"),
		block("ts", "boom"),
		block("ts", "also good"),
	}}

	diags, err := n.Normalize(doc, defaultOpts(ModeMutate))
	require.NoError(t, err)
	require.Len(t, diags, 3)

	assert.Equal(t, SeverityErased, diags[0].Severity)
	assert.Equal(t, SeverityFailed, diags[1].Severity)
	assert.Contains(t, diags[1].Message, "syntax error")
	assert.Equal(t, SeverityErased, diags[2].Severity)

	// The failed block keeps its original value; the walk continued.
	blocks := mdast.CodeBlocks(doc)
	assert.Equal(t, "boom", blocks[1].Value)
	assert.Equal(t, "ALSO GOOD", blocks[2].Value)
}

func TestNormalizeMalformedTree(t *testing.T) {
	n := New(&stubTransformer{}, nil)
	bad := &mdast.CodeBlock{Lang: "ts", Value: "code", Span: mdast.Span{Start: -1, Stop: -1}}
	doc := &mdast.Document{Children: []mdast.Node{bad}}

	_, err := n.Normalize(doc, defaultOpts(ModeMutate))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed tree")
}

func TestNormalizeDeterminism(t *testing.T) {
	n := New(&stubTransformer{}, nil)
	build := func() *mdast.Document {
		return &mdast.Document{Children: []mdast.Node{
			block("ts", "good"),
			block("ts", "boom"),
		}}
	}

	first, err := n.Normalize(build(), defaultOpts(ModeEmit))
	require.NoError(t, err)
	second, err := n.Normalize(build(), defaultOpts(ModeEmit))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
