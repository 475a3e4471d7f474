package engine

import (
	"fmt"
	"io"

	"songbook/internal/index"
	"songbook/internal/library"
)

// Search returns ranked songs for the query, restricted to one field
// or spanning all of them. An empty query matches nothing.
func (e *Engine) Search(query string, field index.Field) []library.Song {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := e.index.Search(query, field)
	songs := make([]library.Song, 0, len(ids))
	for _, id := range ids {
		if song, ok := e.catalog.Get(id); ok {
			songs = append(songs, song)
		}
	}
	return songs
}

// ListAll returns every song in insertion order.
func (e *Engine) ListAll() []library.Song {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog.Songs()
}

// ListByArtist returns songs whose artist matches case-insensitively,
// in insertion order.
func (e *Engine) ListByArtist(artist string) []library.Song {
	return library.FilterByArtist(e.ListAll(), artist)
}

// ListByStyle returns songs whose style matches case-insensitively, in
// insertion order.
func (e *Engine) ListByStyle(style string) []library.Song {
	return library.FilterByStyle(e.ListAll(), style)
}

// Song returns the song with the given ID.
func (e *Engine) Song(id string) (library.Song, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	song, ok := e.catalog.Get(id)
	if !ok {
		return library.Song{}, library.Wrap(library.ErrSongMissing, "engine", "get",
			fmt.Sprintf("song %s is not in the catalog", id), nil)
	}
	return song, nil
}

// Len returns the number of songs in the catalog.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog.Len()
}

// Revision returns the catalog mutation counter.
func (e *Engine) Revision() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog.Revision()
}

// Statistics aggregates catalog counts for reporting.
func (e *Engine) Statistics() library.Statistics {
	return library.ComputeStatistics(e.ListAll())
}

// ExportJSON writes the full catalog as a JSON document.
func (e *Engine) ExportJSON(w io.Writer) error {
	return library.ExportJSON(w, e.ListAll())
}

// ExportCSV writes the full catalog as CSV rows.
func (e *Engine) ExportCSV(w io.Writer) error {
	return library.ExportCSV(w, e.ListAll())
}
