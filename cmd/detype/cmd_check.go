package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"detype/internal/pipeline"
)

// checkCmd validates snippets without touching files. Meant as a build
// gate: a failing snippet fails the command.
var checkCmd = &cobra.Command{
	Use:   "check [path...]",
	Short: "Validate typed snippets without modifying files",
	Long: `Runs the same transform as strip but never writes. Each matched
snippet is reported; the command exits non-zero when any snippet does
not parse under the TypeScript grammar.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg.Mode = "emit"

	p := pipeline.New(cfg, logger)
	defer p.Close()

	sink := &pipeline.LogSink{Logger: logger}
	result, err := p.Run(context.Background(), targets(args), sink)
	if err != nil {
		return err
	}
	printSummary(result)
	if result.Failed > 0 {
		return fmt.Errorf("%d snippet(s) failed to transform", result.Failed)
	}
	return nil
}
