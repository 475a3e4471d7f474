package engine

import (
	"songbook/internal/logging"
	"songbook/internal/store"
)

// Backups lists the rotating backup slots, newest first.
func (e *Engine) Backups() ([]store.Backup, error) {
	return e.store.ListBackups()
}

// RestoreBackup swaps the catalog state from the given backup slot in
// as the live state, rebuilding the search index. The displaced live
// catalog is kept in slot 1 so the restore itself can be undone.
// Returns the number of songs in the restored catalog.
func (e *Engine) RestoreBackup(slot int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	catalog, err := e.store.RestoreBackup(slot)
	if err != nil {
		return 0, err
	}
	e.catalog = catalog
	e.index.Rebuild(catalog.Songs(), catalog.Revision())
	e.logger.Info("catalog restored from backup",
		logging.Int("slot", slot),
		logging.Int("songs", catalog.Len()))
	return catalog.Len(), nil
}
