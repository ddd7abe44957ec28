// Package pipeline discovers documentation files and runs the snippet
// normalizer over them, optionally in parallel and backed by a result
// cache.
package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"detype/internal/config"
	"detype/internal/erase"
	"detype/internal/mdast"
	"detype/internal/normalize"
)

// Result totals one pipeline run.
type Result struct {
	Files    int
	Snippets int
	Erased   int
	Failed   int
	Changed  int // files written back
}

// Pipeline runs parse -> normalize -> write-back over a documentation
// tree.
type Pipeline struct {
	cfg         *config.Config
	logger      *zap.Logger
	transformer normalize.Transformer
	cache       *Cache
}

// New builds a Pipeline from config. A broken cache degrades to uncached
// operation with a logged warning; it never fails construction.
func New(cfg *config.Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{cfg: cfg, logger: logger}

	var t normalize.Transformer = erase.New()
	if cfg.Cache.Enabled {
		cache, err := OpenCache(cfg.Cache.Path)
		if err != nil {
			logger.Warn("snippet cache unavailable, continuing without it",
				zap.String("path", cfg.Cache.Path), zap.Error(err))
		} else {
			p.cache = cache
			t = &cachingTransformer{cache: cache, inner: t, logger: logger}
		}
	}
	p.transformer = t
	return p
}

// Close releases the cache handle, if any.
func (p *Pipeline) Close() error {
	if p.cache != nil {
		return p.cache.Close()
	}
	return nil
}

// Run processes every matching file under roots. Files are handled in
// parallel; snippets within a file stay sequential. Snippet transform
// failures are diagnostics, not errors; only I/O and markdown parse
// errors abort the run.
func (p *Pipeline) Run(ctx context.Context, roots []string, sink Sink) (*Result, error) {
	files, err := p.discover(roots)
	if err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		result Result
	)
	result.Files = len(files)

	counted := &countingSink{inner: sink, mu: &mu, result: &result}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for _, file := range files {
		file := file
		eg.Go(func() error {
			changed, err := p.processFile(egCtx, file, counted)
			if err != nil {
				return err
			}
			if changed {
				mu.Lock()
				result.Changed++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return &result, err
	}
	return &result, nil
}

// processFile normalizes a single document. In mutate mode the file is
// rewritten in place when any snippet changed.
func (p *Pipeline) processFile(ctx context.Context, path string, sink Sink) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	doc, err := mdast.Parse(src)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}

	mode := normalize.ModeMutate
	if p.cfg.Mode == "emit" {
		mode = normalize.ModeEmit
	}

	n := normalize.New(p.transformer, p.logger)
	diags, err := n.Normalize(doc, normalize.Options{
		Tags:  p.cfg.Tags,
		Erase: erase.Options{JSX: p.cfg.JSX},
		Mode:  mode,
		Path:  path,
	})
	for _, d := range diags {
		sink.Emit(d)
	}
	if err != nil {
		return false, fmt.Errorf("normalize %s: %w", path, err)
	}

	if mode != normalize.ModeMutate {
		return false, nil
	}
	out := mdast.Render(doc, src)
	if string(out) == string(src) {
		return false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	p.logger.Debug("rewrote file", zap.String("path", path))
	return true, nil
}

// discover expands roots into the list of files to process. A root that
// is itself a file is taken as-is regardless of the include list.
func (p *Pipeline) discover(roots []string) ([]string, error) {
	var files []string
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p.excluded(d.Name()) && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if p.included(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	return files, nil
}

func (p *Pipeline) included(path string) bool {
	for _, suffix := range p.cfg.Include {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

func (p *Pipeline) excluded(name string) bool {
	for _, dir := range p.cfg.Exclude {
		if name == dir {
			return true
		}
	}
	return false
}

// countingSink updates run totals as diagnostics flow through.
type countingSink struct {
	inner  Sink
	mu     *sync.Mutex
	result *Result
}

func (s *countingSink) Emit(d normalize.Diagnostic) {
	s.mu.Lock()
	s.result.Snippets++
	if d.Severity == normalize.SeverityFailed {
		s.result.Failed++
	} else {
		s.result.Erased++
	}
	s.mu.Unlock()
	if s.inner != nil {
		s.inner.Emit(d)
	}
}
