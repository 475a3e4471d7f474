package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"songbook/internal/fileutil"
	"songbook/internal/library"
	"songbook/internal/logging"
)

// stagedName holds the displaced live file until the swap commits.
const stagedName = ".staged"

// Backup describes one rotation slot. Slot 1 is always the most recent.
type Backup struct {
	Slot       int       `json:"slot"`
	Path       string    `json:"path"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
	SongCount  int       `json:"song_count"`
	SavedAt    time.Time `json:"saved_at"`
	Corrupt    bool      `json:"corrupt,omitempty"`
}

// ListBackups returns the existing backup slots in slot order.
func (s *Store) ListBackups() ([]Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, library.Wrap(library.ErrPersistence, "store", "backups", "list backup directory", err)
	}

	backups := make([]Backup, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		slot, err := strconv.Atoi(entry.Name())
		if err != nil || slot < 1 {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backup := Backup{
			Slot:       slot,
			Path:       filepath.Join(s.backupDir, entry.Name()),
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime(),
		}
		if data, err := os.ReadFile(backup.Path); err != nil {
			backup.Corrupt = true
		} else if file, err := parseCatalog(data, "backups"); err != nil {
			backup.Corrupt = true
		} else {
			backup.SongCount = file.SongCount
			backup.SavedAt = file.SavedAt
		}
		backups = append(backups, backup)
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Slot < backups[j].Slot
	})
	return backups, nil
}

// RestoreBackup replaces the live catalog with the contents of the
// given slot. The backup must parse before anything is touched; the
// displaced live file becomes slot 1 so the restore itself can be
// undone.
func (s *Store) RestoreBackup(slot int) (*library.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slot < 1 {
		return nil, library.Wrap(library.ErrPersistence, "store", "restore",
			fmt.Sprintf("invalid backup slot %d", slot), nil)
	}
	backupPath := s.slotPath(slot)
	data, err := os.ReadFile(backupPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, library.Wrap(library.ErrPersistence, "store", "restore",
				fmt.Sprintf("backup slot %d does not exist", slot), nil)
		}
		return nil, library.Wrap(library.ErrPersistence, "store", "restore", "read backup file", err)
	}
	file, err := parseCatalog(data, "restore")
	if err != nil {
		return nil, err
	}

	staged, err := s.stageLive("restore")
	if err != nil {
		return nil, err
	}

	if err := s.swapIn(data, "restore"); err != nil {
		s.discardStaged(staged)
		return nil, err
	}

	if staged != "" {
		s.commitBackup(staged)
	}

	catalog := library.NewCatalogFrom(file.Songs, file.CreatedAt)
	s.logger.Info("restored catalog from backup",
		logging.Int("slot", slot),
		logging.Int("song_count", catalog.Len()),
		logging.String(logging.FieldPath, s.path))
	return catalog, nil
}

// stageLive copies the live catalog into the backup directory under a
// name that is not yet a slot. Returns "" when there is no live file.
func (s *Store) stageLive(operation string) (string, error) {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", library.Wrap(library.ErrPersistence, "store", operation, "inspect catalog file", err)
	}
	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return "", library.Wrap(library.ErrPersistence, "store", operation, "create backup directory", err)
	}
	staged := filepath.Join(s.backupDir, stagedName)
	if err := fileutil.CopyFile(s.path, staged); err != nil {
		os.Remove(staged)
		return "", library.Wrap(library.ErrPersistence, "store", operation, "stage backup copy", err)
	}
	return staged, nil
}

func (s *Store) discardStaged(staged string) {
	if staged == "" {
		return
	}
	os.Remove(staged)
}

// commitBackup shifts the slot chain away from slot 1 and moves the
// staged copy in. Runs only after the live file swap succeeded, so a
// rotation failure can no longer lose the new catalog; it is logged
// and the save stands.
func (s *Store) commitBackup(staged string) {
	keep := s.keep
	if keep < 1 {
		keep = 1
	}
	for slot := keep; slot >= 1; slot-- {
		src := s.slotPath(slot)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if slot == keep {
			if err := os.Remove(src); err != nil {
				s.logger.Warn("drop oldest backup failed",
					logging.Error(err),
					logging.String(logging.FieldPath, src))
			}
			continue
		}
		if err := os.Rename(src, s.slotPath(slot+1)); err != nil {
			s.logger.Warn("shift backup slot failed",
				logging.Error(err),
				logging.String(logging.FieldPath, src))
		}
	}
	if err := os.Rename(staged, s.slotPath(1)); err != nil {
		s.logger.Warn("commit backup slot failed",
			logging.Error(err),
			logging.String(logging.FieldPath, staged))
		os.Remove(staged)
	}
}

func (s *Store) slotPath(slot int) string {
	return filepath.Join(s.backupDir, strconv.Itoa(slot))
}
