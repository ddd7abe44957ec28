// Package erase removes static-type syntax from TypeScript source,
// leaving behaviorally equivalent JavaScript. The transform is strict:
// input that does not parse under the TypeScript (or TSX) grammar is
// rejected, as are constructs whose erasure would change runtime
// behavior (enums, instantiated namespaces, parameter properties).
package erase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Options configures a single transform.
type Options struct {
	// JSX selects the TSX grammar so JSX elements parse; off selects the
	// plain TypeScript grammar, where <T>expr casts parse instead.
	JSX bool
}

// Transformer erases type syntax from snippets. Safe for concurrent use;
// the underlying tree-sitter parsers are serialized with a mutex.
type Transformer struct {
	mu        sync.Mutex
	tsParser  *sitter.Parser
	tsxParser *sitter.Parser
}

// New creates a Transformer with both grammar variants loaded.
func New() *Transformer {
	tsParser := sitter.NewParser()
	tsParser.SetLanguage(typescript.GetLanguage())
	tsxParser := sitter.NewParser()
	tsxParser.SetLanguage(tsx.GetLanguage())
	return &Transformer{tsParser: tsParser, tsxParser: tsxParser}
}

// Erase returns src with all type-only syntax removed. Erasing source
// that is already plain JavaScript is a no-op. A syntax error or a
// non-erasable construct returns an error and no output.
func (t *Transformer) Erase(src string, opts Options) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	parser := t.tsParser
	if opts.JSX {
		parser = t.tsxParser
	}

	content := []byte(src)
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return "", fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if bad := firstErrorNode(root); bad != nil {
			pt := bad.StartPoint()
			return "", fmt.Errorf("syntax error at line %d, column %d", pt.Row+1, pt.Column+1)
		}
		return "", fmt.Errorf("syntax error")
	}

	c := &collector{src: content}
	if err := c.visit(root); err != nil {
		return "", err
	}
	if len(c.spans) == 0 {
		// Nothing erased: the snippet passes through untouched, trailing
		// whitespace and all.
		return src, nil
	}
	return cleanup(splice(content, c.spans)), nil
}

type span struct {
	start int
	end   int
}

type collector struct {
	src   []byte
	spans []span
}

func (c *collector) add(start, end uint32) {
	c.spans = append(c.spans, span{start: int(start), end: int(end)})
}

// addStatement removes a whole statement including its line, when the
// statement occupies the line alone: leading indentation and the trailing
// newline are swallowed so no blank line remains.
func (c *collector) addStatement(n *sitter.Node) {
	start := int(n.StartByte())
	end := int(n.EndByte())
	lineStart := start
	for lineStart > 0 && (c.src[lineStart-1] == ' ' || c.src[lineStart-1] == '\t') {
		lineStart--
	}
	if lineStart == 0 || c.src[lineStart-1] == '\n' {
		start = lineStart
		for end < len(c.src) && (c.src[end] == ' ' || c.src[end] == '\t') {
			end++
		}
		if end < len(c.src) && c.src[end] == '\n' {
			end++
		}
	}
	c.spans = append(c.spans, span{start: start, end: end})
}

// exportTarget widens a removal to the wrapping export statement, so
// `export interface A {}` disappears as a whole.
func exportTarget(n *sitter.Node) *sitter.Node {
	if p := n.Parent(); p != nil && p.Type() == "export_statement" {
		return p
	}
	return n
}

func (c *collector) visit(n *sitter.Node) error {
	switch n.Type() {
	case "type_annotation", "type_parameters", "type_arguments":
		c.add(n.StartByte(), n.EndByte())
		return nil

	case "implements_clause", "extends_type_clause":
		c.add(leadingSpace(c.src, n.StartByte()), n.EndByte())
		return nil

	case "as_expression", "satisfies_expression":
		expr := n.NamedChild(0)
		c.add(expr.EndByte(), n.EndByte())
		return c.visit(expr)

	case "non_null_expression":
		expr := n.NamedChild(0)
		c.add(expr.EndByte(), n.EndByte())
		return c.visit(expr)

	case "type_assertion":
		// <T>expr, plain-TS grammar only.
		expr := n.NamedChild(int(n.NamedChildCount()) - 1)
		c.add(n.StartByte(), expr.StartByte())
		return c.visit(expr)

	case "interface_declaration", "type_alias_declaration",
		"ambient_declaration", "function_signature",
		"abstract_method_signature":
		c.addStatement(exportTarget(n))
		return nil

	case "method_signature", "index_signature":
		// Type-only only when declared inside a class body; inside object
		// types they sit under a removed annotation anyway.
		if p := n.Parent(); p != nil && p.Type() == "class_body" {
			c.addStatement(n)
			return nil
		}

	case "enum_declaration":
		return nonErasable(n, "enum declarations have runtime semantics")

	case "internal_module", "module":
		return nonErasable(n, "namespace declarations have runtime semantics")

	case "accessibility_modifier":
		if isParameter(n.Parent()) {
			return nonErasable(n, "constructor parameter properties have runtime semantics")
		}
		c.add(n.StartByte(), trailingSpace(c.src, n.EndByte()))
		return nil

	case "override_modifier":
		c.add(n.StartByte(), trailingSpace(c.src, n.EndByte()))
		return nil

	case "readonly":
		if isParameter(n.Parent()) {
			return nonErasable(n, "constructor parameter properties have runtime semantics")
		}
		c.add(n.StartByte(), trailingSpace(c.src, n.EndByte()))
		return nil

	case "abstract":
		c.add(n.StartByte(), trailingSpace(c.src, n.EndByte()))
		return nil

	case "declare":
		// `declare x: number` class field: the whole field is ambient.
		if p := n.Parent(); p != nil && p.Type() == "public_field_definition" {
			c.addStatement(p)
			return nil
		}
		c.add(n.StartByte(), trailingSpace(c.src, n.EndByte()))
		return nil

	case "?":
		if p := n.Parent(); p != nil && optionalMarkerHost(p.Type()) {
			c.add(n.StartByte(), n.EndByte())
		}
		return nil

	case "!":
		if p := n.Parent(); p != nil {
			switch p.Type() {
			case "variable_declarator", "public_field_definition":
				c.add(n.StartByte(), n.EndByte())
			}
		}
		return nil

	case "import_statement":
		if hasTypeKeyword(n) {
			c.addStatement(n)
			return nil
		}

	case "export_statement":
		// `export type { A }` has no declaration child, just the keyword.
		if hasTypeKeyword(n) && n.ChildByFieldName("declaration") == nil {
			c.addStatement(n)
			return nil
		}

	case "import_specifier", "export_specifier":
		if hasTypeKeyword(n) {
			c.addSpecifier(n)
			return nil
		}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		if err := c.visit(n.Child(i)); err != nil {
			return err
		}
	}
	return nil
}

// addSpecifier removes a `type X` entry from an import/export clause
// together with one adjacent comma.
func (c *collector) addSpecifier(n *sitter.Node) {
	start := int(n.StartByte())
	end := int(n.EndByte())
	if next := n.NextSibling(); next != nil && next.Type() == "," {
		end = int(next.EndByte())
		for end < len(c.src) && c.src[end] == ' ' {
			end++
		}
	} else if prev := n.PrevSibling(); prev != nil && prev.Type() == "," {
		start = int(prev.StartByte())
	}
	c.spans = append(c.spans, span{start: start, end: end})
}

func isParameter(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	t := n.Type()
	return t == "required_parameter" || t == "optional_parameter"
}

func optionalMarkerHost(t string) bool {
	switch t {
	case "optional_parameter", "public_field_definition",
		"property_signature", "method_definition", "method_signature":
		return true
	}
	return false
}

func hasTypeKeyword(n *sitter.Node) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "type" && !n.Child(i).IsNamed() {
			return true
		}
	}
	return false
}

func leadingSpace(src []byte, start uint32) uint32 {
	s := int(start)
	for s > 0 && src[s-1] == ' ' {
		s--
	}
	return uint32(s)
}

func trailingSpace(src []byte, end uint32) uint32 {
	e := int(end)
	for e < len(src) && src[e] == ' ' {
		e++
	}
	return uint32(e)
}

func nonErasable(n *sitter.Node, reason string) error {
	pt := n.StartPoint()
	return fmt.Errorf("%s (line %d, column %d)", reason, pt.Row+1, pt.Column+1)
}

func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if !child.HasError() && !child.IsMissing() {
			continue
		}
		if bad := firstErrorNode(child); bad != nil {
			return bad
		}
	}
	return nil
}

// splice drops the collected byte ranges from src. Overlapping ranges
// (an annotation inside a removed statement) merge.
func splice(src []byte, spans []span) string {
	if len(spans) == 0 {
		return string(src)
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var sb strings.Builder
	pos := 0
	for _, s := range spans {
		if s.start < pos {
			if s.end > pos {
				pos = s.end
			}
			continue
		}
		sb.Write(src[pos:s.start])
		pos = s.end
	}
	sb.Write(src[pos:])
	return sb.String()
}

// cleanup trims trailing whitespace removal artifacts from each line.
func cleanup(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}
