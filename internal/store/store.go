// Package store persists the song catalog. Saves are atomic: the new
// state is written to a temp file, flushed, and renamed over the live
// file, so a crash leaves either the previous or the new catalog and
// never a partial write. The displaced live file rotates into numbered
// backup slots once the swap has committed.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"songbook/internal/config"
	"songbook/internal/library"
	"songbook/internal/logging"
)

// SchemaVersion is stamped on every catalog file this writer produces.
// Readers accept any file with the same major version.
const SchemaVersion = "1.0"

// catalogFile is the on-disk shape of the catalog.
type catalogFile struct {
	SchemaVersion string         `json:"schema_version"`
	CreatedAt     time.Time      `json:"created_at"`
	SavedAt       time.Time      `json:"saved_at"`
	SongCount     int            `json:"song_count"`
	Songs         []library.Song `json:"songs"`
}

// Store owns the catalog file and its backup rotation. All operations
// on one instance are serialized; overlapping saves queue rather than
// interleave.
type Store struct {
	path       string
	backupDir  string
	autoBackup bool
	keep       int
	logger     *slog.Logger

	mu sync.Mutex
}

// New builds a store rooted at the configured catalog path.
func New(cfg *config.Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		path:       cfg.CatalogPath(),
		backupDir:  cfg.BackupDir(),
		autoBackup: cfg.Library.AutoBackup,
		keep:       cfg.Library.BackupCount,
		logger:     logging.NewComponentLogger(logger, "store"),
	}
}

// Path returns the live catalog file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted catalog. A missing file yields an empty
// catalog. Malformed content fails with library.ErrCorruptCatalog and
// leaves the file in place so the caller can restore a backup.
func (s *Store) Load() (*library.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("no catalog file, starting empty",
				logging.String(logging.FieldPath, s.path))
			return library.NewCatalog(), nil
		}
		return nil, library.Wrap(library.ErrPersistence, "store", "load", "read catalog file", err)
	}

	file, err := parseCatalog(data, "load")
	if err != nil {
		return nil, err
	}

	catalog := library.NewCatalogFrom(file.Songs, file.CreatedAt)
	s.logger.Debug("loaded catalog",
		logging.Int("song_count", catalog.Len()),
		logging.String(logging.FieldPath, s.path))
	return catalog, nil
}

// Save atomically replaces the live catalog file with the given song
// list. createdAt carries the catalog's original creation time; zero
// means this is the first save.
func (s *Store) Save(songs []library.Song, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if createdAt.IsZero() {
		createdAt = now
	}
	payload := catalogFile{
		SchemaVersion: SchemaVersion,
		CreatedAt:     createdAt.UTC(),
		SavedAt:       now,
		SongCount:     len(songs),
		Songs:         songs,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return library.Wrap(library.ErrPersistence, "store", "save", "marshal catalog", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return library.Wrap(library.ErrPersistence, "store", "save", "create data directory", err)
	}

	var staged string
	if s.autoBackup && s.keep > 0 {
		staged, err = s.stageLive("save")
		if err != nil {
			return err
		}
	}

	if err := s.swapIn(data, "save"); err != nil {
		s.discardStaged(staged)
		return err
	}

	if staged != "" {
		s.commitBackup(staged)
	}

	s.logger.Debug("saved catalog",
		logging.Int("song_count", len(songs)),
		logging.String(logging.FieldPath, s.path))
	return nil
}

// swapIn writes data next to the live file and renames it into place.
// The temp file never survives a failure.
func (s *Store) swapIn(data []byte, operation string) error {
	tmpPath := s.path + ".tmp"
	if err := writeFileSync(tmpPath, data); err != nil {
		os.Remove(tmpPath)
		return library.Wrap(library.ErrPersistence, "store", operation, "write temp file", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return library.Wrap(library.ErrPersistence, "store", operation, "replace catalog file", err)
	}
	return nil
}

// writeFileSync writes data and flushes it to stable storage before
// closing.
func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// parseCatalog decodes raw catalog bytes, distinguishing malformed
// content from files written by an incompatible schema.
func parseCatalog(data []byte, operation string) (*catalogFile, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, library.Wrap(library.ErrCorruptCatalog, "store", operation, "catalog file is empty", nil)
	}
	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, library.Wrap(library.ErrCorruptCatalog, "store", operation, "parse catalog file", err)
	}
	version := strings.TrimSpace(file.SchemaVersion)
	if version == "" {
		return nil, library.Wrap(library.ErrCorruptCatalog, "store", operation, "catalog file missing schema_version", nil)
	}
	major, _, _ := strings.Cut(version, ".")
	wantMajor, _, _ := strings.Cut(SchemaVersion, ".")
	if major != wantMajor {
		return nil, library.Wrap(library.ErrUnsupportedSchema, "store", operation,
			fmt.Sprintf("catalog schema %s unsupported (writer is %s)", version, SchemaVersion), nil)
	}
	return &file, nil
}
