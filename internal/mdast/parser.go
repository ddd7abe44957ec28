package mdast

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Parse builds a Document from markdown/MDX source. Fenced code blocks
// keep the byte span of their body so Render can splice mutated values
// back into the original bytes.
func Parse(src []byte) (*Document, error) {
	root := markdown.Parser().Parse(text.NewReader(src))

	doc := &Document{}
	err := gast.Walk(root, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *gast.FencedCodeBlock:
			doc.Children = append(doc.Children, liftFence(v, src))
			return gast.WalkSkipChildren, nil
		case *gast.CodeBlock:
			// Indented code block: no info line, so never a typed snippet.
			doc.Children = append(doc.Children, &CodeBlock{
				Value: blockText(v, src),
				Span:  blockSpan(v),
			})
			return gast.WalkSkipChildren, nil
		case *gast.Heading:
			doc.Children = append(doc.Children, &Heading{
				Level: v.Level,
				Text:  blockText(v, src),
			})
			return gast.WalkSkipChildren, nil
		case *gast.Paragraph:
			doc.Children = append(doc.Children, &Paragraph{Text: blockText(v, src)})
			return gast.WalkSkipChildren, nil
		case *gast.HTMLBlock:
			doc.Children = append(doc.Children, &HTMLBlock{Text: blockText(v, src)})
			return gast.WalkSkipChildren, nil
		case *gast.ThematicBreak:
			doc.Children = append(doc.Children, &ThematicBreak{})
			return gast.WalkSkipChildren, nil
		}
		return gast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Render splices the Value of every mutated code block back into the
// source bytes. Blocks that were never mutated pass through byte-for-byte,
// as does everything outside code block bodies.
func Render(doc *Document, src []byte) []byte {
	blocks := CodeBlocks(doc)
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Span.Start < blocks[j].Span.Start
	})

	var out []byte
	pos := 0
	for _, cb := range blocks {
		if !cb.Mutated {
			continue
		}
		if !cb.Span.Valid() || cb.Span.Stop > len(src) || cb.Span.Start < pos {
			continue
		}
		out = append(out, src[pos:cb.Span.Start]...)
		out = append(out, reindent(cb.Value, cb.Indent)...)
		pos = cb.Span.Stop
	}
	out = append(out, src[pos:]...)
	return out
}

// reindent restores container indentation on continuation lines. The span
// of a fence body starts after the first line's indentation, so the first
// line needs no prefix; blank lines stay blank.
func reindent(value, indent string) string {
	if indent == "" || value == "" {
		return value
	}
	lines := strings.Split(value, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = indent + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

func liftFence(v *gast.FencedCodeBlock, src []byte) *CodeBlock {
	cb := &CodeBlock{
		Value:  blockText(v, src),
		Span:   blockSpan(v),
		Indent: blockIndent(v, src),
	}
	if v.Info != nil {
		info := strings.TrimSpace(string(v.Info.Segment.Value(src)))
		if info != "" {
			parts := strings.SplitN(info, " ", 2)
			cb.Lang = parts[0]
			if len(parts) > 1 {
				cb.Meta = strings.TrimSpace(parts[1])
			}
		}
	}
	return cb
}

func blockText(n gast.Node, src []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		// Raw bytes, not Segment.Value: Value prepends padding spaces
		// for tab-indented containers that do not exist in the source.
		seg := lines.At(i)
		sb.Write(src[seg.Start:seg.Stop])
	}
	return sb.String()
}

// blockIndent reads the container indentation of the body's second line.
// Line segments start after indentation, so the bytes between one line's
// stop and the next line's start are exactly that indentation.
func blockIndent(n gast.Node, src []byte) string {
	lines := n.Lines()
	if lines.Len() < 2 {
		return ""
	}
	start, stop := lines.At(0).Stop, lines.At(1).Start
	if start < 0 || stop > len(src) || start >= stop {
		return ""
	}
	indent := src[start:stop]
	for _, b := range indent {
		if b != ' ' && b != '\t' {
			return ""
		}
	}
	return string(indent)
}

func blockSpan(n gast.Node) Span {
	lines := n.Lines()
	if lines.Len() == 0 {
		return Span{Start: -1, Stop: -1}
	}
	return Span{Start: lines.At(0).Start, Stop: lines.At(lines.Len() - 1).Stop}
}
