package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"detype/internal/erase"
	"detype/internal/mdast"
	"detype/internal/normalize"
)

// previewCmd renders a single document to the terminal with its typed
// snippets already erased, without writing anything.
var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Render a document with erased snippets to the terminal",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

func runPreview(cmd *cobra.Command, args []string) error {
	path := args[0]
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	doc, err := mdast.Parse(src)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	n := normalize.New(nil, logger)
	diags, err := n.Normalize(doc, normalize.Options{
		Tags:  cfg.Tags,
		Erase: erase.Options{JSX: cfg.JSX},
		Mode:  normalize.ModeMutate,
		Path:  path,
	})
	if err != nil {
		return err
	}
	for _, d := range diags {
		if d.Severity == normalize.SeverityFailed {
			fmt.Fprintf(os.Stderr, "%s: %s snippet: %s\n", d.Path, d.Lang, d.Message)
		}
	}

	out := mdast.Render(doc, src)
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}
	rendered, err := renderer.Render(string(out))
	if err != nil {
		// Fall back to the raw document if glamour rejects it.
		fmt.Print(string(out))
		return nil
	}
	fmt.Print(rendered)
	return nil
}
