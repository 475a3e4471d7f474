package engine

import (
	"context"
	"fmt"

	"songbook/internal/docload"
	"songbook/internal/library"
	"songbook/internal/thumbcache"
)

// resolveDocument maps a song ID and document index to the referenced
// file path.
func (e *Engine) resolveDocument(operation, songID string, docIndex int) (string, error) {
	e.mu.RLock()
	song, ok := e.catalog.Get(songID)
	e.mu.RUnlock()
	if !ok {
		return "", library.Wrap(library.ErrSongMissing, "engine", operation,
			fmt.Sprintf("song %s is not in the catalog", songID), nil)
	}
	if docIndex < 0 || docIndex >= len(song.Documents) {
		return "", library.Wrap(library.ErrNotFound, "engine", operation,
			fmt.Sprintf("%q has no document %d", song.DisplayName(), docIndex), nil)
	}
	return song.Documents[docIndex], nil
}

// OpenDocument starts a background loading session for one of the
// song's documents and returns its handle immediately. Pages arrive
// through Session.Next.
func (e *Engine) OpenDocument(ctx context.Context, songID string, docIndex int) (*docload.Session, error) {
	source, err := e.resolveDocument("open_document", songID, docIndex)
	if err != nil {
		return nil, err
	}
	return e.loader.Open(library.WithSongID(ctx, songID), source)
}

// Session returns a known loading session by ID, or nil.
func (e *Engine) Session(id string) *docload.Session {
	return e.loader.Session(id)
}

// CancelSession cancels a loading session, reporting whether the ID
// was known.
func (e *Engine) CancelSession(id string) bool {
	return e.loader.Cancel(id)
}

// Thumbnail returns cached thumbnail bytes for one of the song's
// documents, generating them on first use. A size of zero or below
// uses the configured default.
func (e *Engine) Thumbnail(ctx context.Context, songID string, docIndex, size int) ([]byte, error) {
	source, err := e.resolveDocument("thumbnail", songID, docIndex)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = e.cfg.Thumbnails.DefaultSize
	}
	return e.thumbs.Get(ctx, source, size, thumbcache.RasterThumbnailer())
}

// ThumbnailStats reports thumbnail cache usage.
func (e *Engine) ThumbnailStats(ctx context.Context) (thumbcache.Stats, error) {
	return e.thumbs.Stats(ctx)
}

// ClearThumbnails drops every cached thumbnail, returning the number
// of entries removed.
func (e *Engine) ClearThumbnails(ctx context.Context) (int, error) {
	return e.thumbs.Clear(ctx)
}
