package pipeline

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"detype/internal/erase"
	"detype/internal/normalize"
)

// Cache stores per-snippet transform results keyed by content hash, so
// unchanged snippets skip the tree-sitter parse on later runs. Failures
// are cached too; the transform is deterministic.
type Cache struct {
	db    *sql.DB
	runID string
}

// Entry is one cached transform result.
type Entry struct {
	OK      bool
	Output  string
	Message string
}

// OpenCache opens (creating if needed) the sqlite cache at path.
func OpenCache(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	schema := `CREATE TABLE IF NOT EXISTS snippets (
		hash TEXT PRIMARY KEY,
		ok INTEGER NOT NULL,
		output TEXT NOT NULL,
		message TEXT NOT NULL,
		run_id TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &Cache{db: db, runID: uuid.NewString()}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached entry for hash, if any.
func (c *Cache) Get(hash string) (Entry, bool) {
	var (
		e  Entry
		ok int
	)
	row := c.db.QueryRow(`SELECT ok, output, message FROM snippets WHERE hash = ?`, hash)
	if err := row.Scan(&ok, &e.Output, &e.Message); err != nil {
		return Entry{}, false
	}
	e.OK = ok != 0
	return e, true
}

// Put records a transform result under hash.
func (c *Cache) Put(hash string, e Entry) error {
	ok := 0
	if e.OK {
		ok = 1
	}
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO snippets (hash, ok, output, message, run_id, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		hash, ok, e.Output, e.Message, c.runID, time.Now().Unix())
	return err
}

// Key hashes a snippet together with the transform options.
func Key(value string, opts erase.Options) string {
	h := sha256.New()
	h.Write([]byte(value))
	if opts.JSX {
		h.Write([]byte{0, 1})
	} else {
		h.Write([]byte{0, 0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// cachingTransformer consults the cache before delegating to the real
// transform. Cache write errors are logged, never surfaced.
type cachingTransformer struct {
	cache  *Cache
	inner  normalize.Transformer
	logger *zap.Logger
}

func (t *cachingTransformer) Erase(src string, opts erase.Options) (string, error) {
	key := Key(src, opts)
	if e, ok := t.cache.Get(key); ok {
		if e.OK {
			return e.Output, nil
		}
		return "", errors.New(e.Message)
	}

	out, err := t.inner.Erase(src, opts)
	entry := Entry{OK: err == nil, Output: out}
	if err != nil {
		entry.Message = err.Error()
	}
	if putErr := t.cache.Put(key, entry); putErr != nil {
		t.logger.Warn("cache write failed", zap.Error(putErr))
	}
	return out, err
}
