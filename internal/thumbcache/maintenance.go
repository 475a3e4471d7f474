package thumbcache

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"songbook/internal/library"
	"songbook/internal/logging"
)

// Stats describes current cache usage.
type Stats struct {
	Entries      int     `json:"entries"`
	TotalBytes   int64   `json:"total_bytes"`
	MaxBytes     int64   `json:"max_bytes"`
	MaxEntries   int     `json:"max_entries"`
	FreeBytes    uint64  `json:"free_bytes"`
	TotalFSBytes uint64  `json:"total_fs_bytes"`
	FreeRatio    float64 `json:"free_ratio"`
}

// Stats reports entry counts, byte usage, and free space on the cache
// filesystem. A nil cache reports zeroes.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	if c == nil {
		return s, nil
	}
	row := c.db.QueryRowContext(ctx, `SELECT COUNT(1), COALESCE(SUM(byte_size), 0) FROM thumbnails`)
	if err := row.Scan(&s.Entries, &s.TotalBytes); err != nil {
		return s, library.Wrap(library.ErrCacheUnavailable, "thumbcache", "stats", "read cache usage", err)
	}
	s.MaxBytes = c.maxBytes
	s.MaxEntries = c.maxEntries
	total, free, err := c.statfs(c.root)
	if err != nil {
		return s, library.Wrap(library.ErrIO, "thumbcache", "stats", "statfs", err)
	}
	s.TotalFSBytes = total
	s.FreeBytes = free
	if total > 0 {
		s.FreeRatio = float64(free) / float64(total)
	}
	return s, nil
}

// Clear removes every cached thumbnail and its index row, returning
// the number of entries dropped.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	if c == nil {
		return 0, nil
	}
	rows, err := c.db.QueryContext(ctx, `SELECT file_name FROM thumbnails`)
	if err != nil {
		return 0, library.Wrap(library.ErrCacheUnavailable, "thumbcache", "clear", "list entries", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return 0, library.Wrap(library.ErrCacheUnavailable, "thumbcache", "clear", "scan entry", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, library.Wrap(library.ErrCacheUnavailable, "thumbcache", "clear", "iterate entries", err)
	}
	rows.Close()

	if _, err := c.db.ExecContext(ctx, `DELETE FROM thumbnails`); err != nil {
		return 0, library.Wrap(library.ErrCacheUnavailable, "thumbcache", "clear", "drop index rows", err)
	}
	for _, name := range names {
		if err := os.Remove(filepath.Join(c.root, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("remove thumbnail file failed",
				logging.Error(err),
				logging.String(logging.FieldPath, name))
		}
	}
	c.logger.Info("thumbnail cache cleared", logging.Int("entries", len(names)))
	return len(names), nil
}
