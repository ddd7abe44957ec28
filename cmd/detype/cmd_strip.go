package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"detype/internal/pipeline"
)

var dryRun bool

// stripCmd rewrites typed snippets in place.
var stripCmd = &cobra.Command{
	Use:   "strip [path...]",
	Short: "Erase type syntax from typed snippets, rewriting files in place",
	Long: `Walks the documentation tree, finds fenced code blocks tagged with one
of the configured language tags and replaces their contents with the
type-erased form. Files without matching snippets are untouched.

With --dry-run nothing is written; the erased text is reported instead.`,
	RunE: runStrip,
}

func init() {
	stripCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report erased snippets without writing files")
}

func runStrip(cmd *cobra.Command, args []string) error {
	if dryRun {
		cfg.Mode = "emit"
	} else {
		cfg.Mode = "mutate"
	}

	p := pipeline.New(cfg, logger)
	defer p.Close()

	sink := &pipeline.LogSink{Logger: logger}
	result, err := p.Run(context.Background(), targets(args), sink)
	if err != nil {
		return err
	}
	printSummary(result)
	return nil
}

var (
	summaryStyle = lipgloss.NewStyle().Bold(true)
	failStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

func printSummary(r *pipeline.Result) {
	line := fmt.Sprintf("%d files, %d snippets, %d erased, %d changed",
		r.Files, r.Snippets, r.Erased, r.Changed)
	if r.Failed > 0 {
		fmt.Println(failStyle.Render(fmt.Sprintf("%s, %d failed", line, r.Failed)))
		return
	}
	fmt.Println(summaryStyle.Render(line))
}
