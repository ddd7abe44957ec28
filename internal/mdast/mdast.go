// Package mdast models a parsed markdown/MDX document as a flat, ordered
// tree of block nodes. It keeps just enough structure for snippet
// processing: fenced code blocks carry their language tag, body text and
// the byte span of the body within the source file, so a mutated value
// can be spliced back without disturbing any other byte.
package mdast

// Kind discriminates node variants.
type Kind int

const (
	KindHeading Kind = iota
	KindParagraph
	KindCodeBlock
	KindHTMLBlock
	KindThematicBreak
)

// Node is a block-level element of a parsed document.
type Node interface {
	Kind() Kind
}

// Span is a half-open byte range [Start, Stop) into the source document.
type Span struct {
	Start int
	Stop  int
}

// Valid reports whether the span points at actual source bytes.
// Empty fences have no body segment and carry an invalid span.
func (s Span) Valid() bool {
	return s.Start >= 0 && s.Stop >= s.Start
}

// Document is the root of the tree. Children appear in document order.
type Document struct {
	Children []Node
}

// Heading is an ATX or setext heading.
type Heading struct {
	Level int
	Text  string
}

func (*Heading) Kind() Kind { return KindHeading }

// Paragraph holds raw paragraph text, MDX expressions included.
type Paragraph struct {
	Text string
}

func (*Paragraph) Kind() Kind { return KindParagraph }

// CodeBlock is a fenced (or indented) code block. Lang is empty when the
// fence declares no language. Value is the body text with container
// indentation stripped; Span locates the raw body in the source file for
// write-back.
type CodeBlock struct {
	Lang  string
	Meta  string
	Value string
	Span  Span

	// Indent is the container indentation of the body's continuation
	// lines (fences nested under list items); Render reapplies it when
	// splicing a mutated value.
	Indent string

	// Mutated marks a block whose Value was rewritten. Render splices
	// only mutated blocks; everything else stays byte-for-byte intact.
	Mutated bool
}

func (*CodeBlock) Kind() Kind { return KindCodeBlock }

// HTMLBlock holds raw HTML or JSX component markup, opaque to this tool.
type HTMLBlock struct {
	Text string
}

func (*HTMLBlock) Kind() Kind { return KindHTMLBlock }

// ThematicBreak is a horizontal rule.
type ThematicBreak struct{}

func (*ThematicBreak) Kind() Kind { return KindThematicBreak }

// Walk visits every node in document order. A non-nil error from fn
// stops the walk and is returned.
func Walk(doc *Document, fn func(Node) error) error {
	for _, n := range doc.Children {
		if err := fn(n); err != nil {
			return err
		}
	}
	return nil
}

// CodeBlocks returns the document's code blocks in document order.
func CodeBlocks(doc *Document) []*CodeBlock {
	var blocks []*CodeBlock
	for _, n := range doc.Children {
		if cb, ok := n.(*CodeBlock); ok {
			blocks = append(blocks, cb)
		}
	}
	return blocks
}
