// Package normalize walks a parsed document tree and rewrites fenced
// code blocks whose language tag marks them as typed snippets.
package normalize

import (
	"fmt"

	"go.uber.org/zap"

	"detype/internal/erase"
	"detype/internal/mdast"
)

// Mode selects the observable action taken for each successfully
// transformed snippet: mutate the tree in place, or emit the replacement
// text on the diagnostic. Exactly one of the two happens per match.
type Mode int

const (
	// ModeMutate writes the erased text back into the code block.
	ModeMutate Mode = iota
	// ModeEmit leaves the tree untouched and carries the erased text on
	// the success diagnostic instead.
	ModeEmit
)

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityErased Severity = "erased"
	SeverityFailed Severity = "failed"
)

// Diagnostic reports the outcome for one matched code block. Every
// matched block produces exactly one, success or failure, in document
// order.
type Diagnostic struct {
	Path     string
	Lang     string
	Span     mdast.Span
	Severity Severity
	Message  string
	// Output holds the erased text for successes in ModeEmit; empty
	// otherwise (in ModeMutate the tree itself carries the result).
	Output string
}

// Transformer erases type syntax from a snippet. *erase.Transformer
// satisfies it; the pipeline wraps it with a result cache.
type Transformer interface {
	Erase(src string, opts erase.Options) (string, error)
}

// Options configures one Normalize call. Tags are matched
// case-sensitively against each fence's language tag.
type Options struct {
	Tags  []string
	Erase erase.Options
	Mode  Mode
	// Path is attached to diagnostics for reporting; it does not affect
	// processing.
	Path string
}

// Normalizer applies the erase transform to matching code blocks.
type Normalizer struct {
	transformer Transformer
	logger      *zap.Logger
}

// New creates a Normalizer. A nil transformer gets a fresh
// erase.Transformer; a nil logger is replaced with a nop logger.
func New(t Transformer, logger *zap.Logger) *Normalizer {
	if t == nil {
		t = erase.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{transformer: t, logger: logger}
}

// Normalize visits every code block of doc exactly once, in document
// order. Blocks whose language tag is absent or outside opts.Tags are
// left byte-for-byte unchanged with no diagnostic. A snippet that fails
// to transform yields a failure diagnostic and the walk continues; only
// a malformed tree (a non-empty code block with no source span) aborts
// with an error.
func (n *Normalizer) Normalize(doc *mdast.Document, opts Options) ([]Diagnostic, error) {
	tags := make(map[string]struct{}, len(opts.Tags))
	for _, t := range opts.Tags {
		tags[t] = struct{}{}
	}

	var diags []Diagnostic
	err := mdast.Walk(doc, func(node mdast.Node) error {
		cb, ok := node.(*mdast.CodeBlock)
		if !ok {
			return nil
		}
		if cb.Lang == "" {
			return nil
		}
		if _, match := tags[cb.Lang]; !match {
			return nil
		}
		if cb.Value != "" && !cb.Span.Valid() {
			return fmt.Errorf("malformed tree: %q block has content but no source span", cb.Lang)
		}

		out, err := n.transformer.Erase(cb.Value, opts.Erase)
		if err != nil {
			n.logger.Debug("snippet transform failed",
				zap.String("path", opts.Path),
				zap.String("lang", cb.Lang),
				zap.Error(err))
			diags = append(diags, Diagnostic{
				Path:     opts.Path,
				Lang:     cb.Lang,
				Span:     cb.Span,
				Severity: SeverityFailed,
				Message:  err.Error(),
			})
			return nil
		}

		d := Diagnostic{
			Path:     opts.Path,
			Lang:     cb.Lang,
			Span:     cb.Span,
			Severity: SeverityErased,
			Message:  "types erased",
		}
		switch opts.Mode {
		case ModeMutate:
			if out != cb.Value {
				cb.Value = out
				cb.Mutated = true
			}
		case ModeEmit:
			d.Output = out
		}
		diags = append(diags, d)
		return nil
	})
	if err != nil {
		return diags, err
	}
	return diags, nil
}
