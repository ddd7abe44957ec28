package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"detype/internal/config"
)

var (
	// Global flags
	cfgPath  string
	docsRoot string
	verbose  bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "detype",
	Short: "detype - type-erase TypeScript snippets in MDX documentation",
	Long: `detype scans markdown/MDX documentation for fenced code blocks tagged
as TypeScript variants (ts, tsx, typescript) and erases their static-type
syntax, so every typed example also exists as plain JavaScript.

Snippets that fail to parse are reported per fence; a bad snippet never
fails the whole run.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(resolveConfigPath())
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		zc := zap.NewProductionConfig()
		if cfg.Logging.Development {
			zc = zap.NewDevelopmentConfig()
		}
		if level, lerr := zapcore.ParseLevel(cfg.Logging.Level); lerr == nil {
			zc.Level = zap.NewAtomicLevelAt(level)
		}
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func resolveConfigPath() string {
	if cfgPath != "" {
		return cfgPath
	}
	return filepath.Join(docsRoot, config.DefaultConfigName)
}

// targets returns the paths a command operates on: explicit args, or the
// configured docs root.
func targets(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return []string{docsRoot}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default <root>/.detype.yaml)")
	rootCmd.PersistentFlags().StringVar(&docsRoot, "root", ".", "documentation root directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(stripCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
