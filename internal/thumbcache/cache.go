package thumbcache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite"

	"songbook/internal/config"
	"songbook/internal/library"
	"songbook/internal/logging"
)

// Generator produces thumbnail bytes for a source file at the given
// pixel size.
type Generator func(ctx context.Context, source string, pixelSize int) ([]byte, error)

// Cache stores generated thumbnails as files under the cache root with
// a SQLite index tracking identity and access order. A nil *Cache is
// valid and reports the cache as unavailable.
type Cache struct {
	root         string
	maxBytes     int64
	maxEntries   int
	minFreeBytes uint64
	db           *sql.DB
	logger       *slog.Logger
	group        singleflight.Group
	statfs       statfsFunc
}

// entry mirrors one index row.
type entry struct {
	sourcePath  string
	pixelSize   int
	fingerprint string
	fileName    string
	byteSize    int64
}

// Open initializes the thumbnail cache under <cache_dir>/thumbs.
// Returns nil when thumbnails are disabled in the config.
func Open(cfg *config.Config, logger *slog.Logger) (*Cache, error) {
	if cfg == nil || !cfg.Thumbnails.Enabled {
		return nil, nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	root := cfg.ThumbnailDir()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create thumbnail directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(root, "thumbs.db"))
	if err != nil {
		return nil, fmt.Errorf("open thumbnail index: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	cache := &Cache{
		root:         root,
		maxBytes:     int64(cfg.Thumbnails.MaxMiB) * 1024 * 1024,
		maxEntries:   cfg.Thumbnails.MaxEntries,
		minFreeBytes: uint64(cfg.Thumbnails.MinFreeMiB) * 1024 * 1024,
		db:           db,
		logger:       logging.NewComponentLogger(logger, "thumbcache"),
		statfs:       realStatfs,
	}
	if err := cache.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cache, nil
}

// Close releases the cache index.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns thumbnail bytes for the source at the requested pixel
// size, generating and caching them on a miss. An entry is stale once
// the source file's mtime or size changes. Concurrent requests for the
// same fingerprint share a single generator call.
func (c *Cache) Get(ctx context.Context, source string, pixelSize int, generate Generator) ([]byte, error) {
	if c == nil {
		return nil, library.Wrap(library.ErrCacheUnavailable, "thumbcache", "get", "thumbnail cache disabled", nil)
	}
	if generate == nil {
		return nil, library.Wrap(library.ErrGeneration, "thumbcache", "get", "no generator supplied", nil)
	}
	if pixelSize < 1 {
		return nil, library.Wrap(library.ErrGeneration, "thumbcache", "get",
			fmt.Sprintf("invalid pixel size %d", pixelSize), nil)
	}

	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, library.Wrap(library.ErrIO, "thumbcache", "get", "resolve source path", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, library.Wrap(library.MarkerForPathError(err), "thumbcache", "get", "inspect source file", err)
	}
	fingerprint := fingerprintOf(abs, pixelSize, info.ModTime().UnixNano(), info.Size())

	if data, ok := c.cached(ctx, abs, pixelSize, fingerprint); ok {
		return data, nil
	}

	result, err, _ := c.group.Do(fingerprint, func() (any, error) {
		// A queued waiter may find the entry its predecessor produced.
		if data, ok := c.cached(ctx, abs, pixelSize, fingerprint); ok {
			return data, nil
		}
		data, err := generate(ctx, abs, pixelSize)
		if err != nil {
			return nil, library.Wrap(library.ErrGeneration, "thumbcache", "generate", "render thumbnail", err)
		}
		if err := c.store(ctx, abs, pixelSize, fingerprint, data); err != nil {
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// cached returns thumbnail bytes when the index row matches the
// fingerprint and the file is readable. Anything else reads as a miss.
func (c *Cache) cached(ctx context.Context, source string, pixelSize int, fingerprint string) ([]byte, bool) {
	row := c.db.QueryRowContext(ctx,
		`SELECT fingerprint, file_name FROM thumbnails WHERE source_path = ? AND pixel_size = ?`,
		source, pixelSize)
	var storedFP, fileName string
	if err := row.Scan(&storedFP, &fileName); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.logger.Warn("thumbnail index lookup failed", logging.Error(err))
		}
		return nil, false
	}
	if storedFP != fingerprint {
		return nil, false
	}
	data, err := os.ReadFile(filepath.Join(c.root, fileName))
	if err != nil {
		return nil, false
	}
	c.touch(ctx, source, pixelSize)
	return data, true
}

func (c *Cache) touch(ctx context.Context, source string, pixelSize int) {
	stamp := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := c.db.ExecContext(ctx,
		`UPDATE thumbnails SET last_access = ? WHERE source_path = ? AND pixel_size = ?`,
		stamp, source, pixelSize); err != nil {
		c.logger.Warn("touch thumbnail failed", logging.Error(err))
	}
}

// store writes the thumbnail file atomically, upserts its index row,
// and enforces the budgets. The fresh entry survives the eviction pass
// it triggers.
func (c *Cache) store(ctx context.Context, source string, pixelSize int, fingerprint string, data []byte) error {
	fileName := fingerprint + ".png"
	path := filepath.Join(c.root, fileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return library.Wrap(library.ErrIO, "thumbcache", "store", "write thumbnail file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return library.Wrap(library.ErrIO, "thumbcache", "store", "commit thumbnail file", err)
	}

	var oldName sql.NullString
	row := c.db.QueryRowContext(ctx,
		`SELECT file_name FROM thumbnails WHERE source_path = ? AND pixel_size = ?`,
		source, pixelSize)
	if err := row.Scan(&oldName); err != nil && !errors.Is(err, sql.ErrNoRows) {
		c.logger.Warn("stale thumbnail lookup failed", logging.Error(err))
	}

	stamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO thumbnails (source_path, pixel_size, fingerprint, file_name, byte_size, created_at, last_access)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(source_path, pixel_size) DO UPDATE SET
           fingerprint = excluded.fingerprint,
           file_name = excluded.file_name,
           byte_size = excluded.byte_size,
           created_at = excluded.created_at,
           last_access = excluded.last_access`,
		source, pixelSize, fingerprint, fileName, int64(len(data)), stamp, stamp)
	if err != nil {
		os.Remove(path)
		return library.Wrap(library.ErrCacheUnavailable, "thumbcache", "store", "index thumbnail", err)
	}

	if oldName.Valid && oldName.String != fileName {
		if err := os.Remove(filepath.Join(c.root, oldName.String)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("remove stale thumbnail failed",
				logging.Error(err),
				logging.String(logging.FieldPath, oldName.String))
		}
	}

	if err := c.enforceBudgets(ctx, fingerprint); err != nil {
		c.logger.Warn("thumbnail budget enforcement failed", logging.Error(err))
	}
	return nil
}

// fingerprintOf hashes the source identity: absolute path, requested
// size, mtime, and byte size. Any change to the source produces a new
// fingerprint.
func fingerprintOf(absPath string, pixelSize int, mtimeNano, byteSize int64) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d|%d", absPath, pixelSize, mtimeNano, byteSize)
	return hex.EncodeToString(h.Sum(nil))[:32]
}
