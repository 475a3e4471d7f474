package thumbcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"songbook/internal/logging"
)

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (total uint64, free uint64, err error)

// enforceBudgets evicts least-recently-used entries until the cache
// fits its byte and entry budgets. protect names the fingerprint that
// must survive this pass. When free space on the cache filesystem sits
// below the configured floor the byte target halves, trading cached
// thumbnails for headroom.
func (c *Cache) enforceBudgets(ctx context.Context, protect string) error {
	var (
		count int
		total int64
	)
	row := c.db.QueryRowContext(ctx, `SELECT COUNT(1), COALESCE(SUM(byte_size), 0) FROM thumbnails`)
	if err := row.Scan(&count, &total); err != nil {
		return fmt.Errorf("read cache usage: %w", err)
	}

	targetBytes := c.maxBytes
	if c.minFreeBytes > 0 {
		if _, free, err := c.statfs(c.root); err == nil && free < c.minFreeBytes {
			targetBytes = c.maxBytes / 2
		}
	}

	for overBudget(count, total, c.maxEntries, targetBytes) {
		victim, err := c.oldestExcept(ctx, protect)
		if err != nil {
			return err
		}
		if victim == nil {
			return nil
		}
		if err := c.evict(ctx, victim); err != nil {
			return err
		}
		count--
		total -= victim.byteSize
		c.logger.Debug("evicted thumbnail",
			logging.String(logging.FieldPath, victim.sourcePath),
			logging.Int("pixel_size", victim.pixelSize),
			logging.Int64("entry_bytes", victim.byteSize))
	}
	return nil
}

func overBudget(count int, total int64, maxEntries int, maxBytes int64) bool {
	if maxEntries > 0 && count > maxEntries {
		return true
	}
	if maxBytes > 0 && total > maxBytes {
		return true
	}
	return false
}

// oldestExcept picks the least-recently-used row, skipping the
// protected fingerprint. Returns nil when no candidate remains.
func (c *Cache) oldestExcept(ctx context.Context, protect string) (*entry, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT source_path, pixel_size, fingerprint, file_name, byte_size
         FROM thumbnails WHERE fingerprint != ?
         ORDER BY last_access ASC, source_path ASC LIMIT 1`, protect)
	var e entry
	if err := row.Scan(&e.sourcePath, &e.pixelSize, &e.fingerprint, &e.fileName, &e.byteSize); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("pick eviction candidate: %w", err)
	}
	return &e, nil
}

func (c *Cache) evict(ctx context.Context, e *entry) error {
	if _, err := c.db.ExecContext(ctx,
		`DELETE FROM thumbnails WHERE source_path = ? AND pixel_size = ?`,
		e.sourcePath, e.pixelSize); err != nil {
		return fmt.Errorf("drop index row: %w", err)
	}
	if err := os.Remove(filepath.Join(c.root, e.fileName)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove thumbnail file: %w", err)
	}
	return nil
}

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}
