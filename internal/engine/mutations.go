package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"songbook/internal/library"
	"songbook/internal/logging"
)

// AddSong validates and persists a new song, then patches the search
// index. The song receives a fresh ID and timestamps; the input value
// is not mutated. A folded title/artist pair matching an existing song
// is rejected as a validation error before anything is written.
func (e *Engine) AddSong(song library.Song) (library.Song, error) {
	song = song.Clone()
	song.Normalize()
	song.ID = uuid.NewString()
	now := time.Now().UTC()
	song.CreatedAt = now
	song.UpdatedAt = now
	if err := song.Validate(); err != nil {
		return library.Song{}, err
	}

	e.mu.Lock()
	if existing, ok := e.catalog.FindByIdentity(song.Title, song.Artist); ok {
		e.mu.Unlock()
		return library.Song{}, library.Wrap(library.ErrValidation, "engine", "add",
			fmt.Sprintf("%q is already in the library", existing.DisplayName()), nil)
	}
	if err := e.commitUpsert(song); err != nil {
		e.mu.Unlock()
		return library.Song{}, err
	}
	event := library.Event{Type: library.EventSongAdded, Song: song.Clone(), Revision: e.catalog.Revision()}
	e.mu.Unlock()

	e.logger.Info("song added",
		logging.String(logging.FieldSongID, song.ID),
		logging.String("song", song.DisplayName()))
	e.notify(event)
	return song, nil
}

// UpdateSong replaces the stored song with the given state, keyed by
// ID. CreatedAt is preserved, UpdatedAt refreshed, and metadata merged
// key by key (empty values delete). Renaming onto another song's
// folded identity is rejected.
func (e *Engine) UpdateSong(song library.Song) (library.Song, error) {
	song = song.Clone()
	song.Normalize()

	e.mu.Lock()
	existing, ok := e.catalog.Get(song.ID)
	if !ok {
		e.mu.Unlock()
		return library.Song{}, library.Wrap(library.ErrSongMissing, "engine", "update",
			fmt.Sprintf("song %s is not in the catalog", song.ID), nil)
	}
	song.CreatedAt = existing.CreatedAt
	song.UpdatedAt = time.Now().UTC()
	song.Metadata = library.MergeMetadata(existing.Metadata, song.Metadata)
	if err := song.Validate(); err != nil {
		e.mu.Unlock()
		return library.Song{}, err
	}
	if other, found := e.catalog.FindByIdentity(song.Title, song.Artist); found && other.ID != song.ID {
		e.mu.Unlock()
		return library.Song{}, library.Wrap(library.ErrValidation, "engine", "update",
			fmt.Sprintf("%q is already in the library", other.DisplayName()), nil)
	}
	if err := e.commitUpsert(song); err != nil {
		e.mu.Unlock()
		return library.Song{}, err
	}
	event := library.Event{Type: library.EventSongUpdated, Song: song.Clone(), Revision: e.catalog.Revision()}
	e.mu.Unlock()

	e.logger.Info("song updated",
		logging.String(logging.FieldSongID, song.ID),
		logging.String("song", song.DisplayName()))
	e.notify(event)
	return song, nil
}

// RemoveSong deletes a song from the catalog and index, returning the
// last stored state.
func (e *Engine) RemoveSong(id string) (library.Song, error) {
	e.mu.Lock()
	existing, ok := e.catalog.Get(id)
	if !ok {
		e.mu.Unlock()
		return library.Song{}, library.Wrap(library.ErrSongMissing, "engine", "remove",
			fmt.Sprintf("song %s is not in the catalog", id), nil)
	}
	if err := e.commitRemove(id); err != nil {
		e.mu.Unlock()
		return library.Song{}, err
	}
	event := library.Event{Type: library.EventSongRemoved, Song: existing.Clone(), Revision: e.catalog.Revision()}
	e.mu.Unlock()

	e.logger.Info("song removed",
		logging.String(logging.FieldSongID, id),
		logging.String("song", existing.DisplayName()))
	e.notify(event)
	return existing, nil
}

// commitUpsert persists the prospective catalog state, then applies
// the change to memory. A failed save leaves both the catalog and the
// index at their prior state. Caller holds the write lock.
func (e *Engine) commitUpsert(song library.Song) error {
	prospective := e.catalog.WithSongs(&song, "")
	if err := e.store.Save(prospective, e.catalog.CreatedAt()); err != nil {
		return err
	}
	fromRev := e.catalog.Revision()
	e.catalog.Upsert(song)
	if err := e.index.ApplyUpsert(song, fromRev, e.catalog.Revision()); err != nil {
		e.recoverIndex(err)
	}
	return nil
}

// commitRemove is the removal counterpart of commitUpsert.
func (e *Engine) commitRemove(id string) error {
	prospective := e.catalog.WithSongs(nil, id)
	if err := e.store.Save(prospective, e.catalog.CreatedAt()); err != nil {
		return err
	}
	fromRev := e.catalog.Revision()
	e.catalog.Remove(id)
	if err := e.index.ApplyRemove(id, fromRev, e.catalog.Revision()); err != nil {
		e.recoverIndex(err)
	}
	return nil
}
