package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"detype/internal/pipeline"
)

// watchCmd keeps the normalizer running against a docs tree, re-processing
// files as they change.
var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Watch the documentation tree and re-process changed files",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := docsRoot
	if len(args) > 0 {
		root = args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(cfg, logger)
	defer p.Close()

	sink := &pipeline.LogSink{Logger: logger}

	// Initial pass before watching, so the tree starts clean.
	result, err := p.Run(ctx, []string{root}, sink)
	if err != nil {
		return err
	}
	printSummary(result)

	w, err := pipeline.NewWatcher(p, root, sink, logger)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	<-ctx.Done()
	logger.Info("shutting down", zap.String("reason", ctx.Err().Error()))
	return nil
}
