package testsupport

import (
	"strings"
	"testing"
	"time"

	"songbook/internal/library"
)

// CatalogEpoch is a fixed catalog creation time for deterministic saves.
var CatalogEpoch = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

// NewSong builds a valid song with a deterministic ID derived from the
// title. Options mutate the song before it is returned.
func NewSong(t testing.TB, title, artist string, opts ...SongOption) library.Song {
	t.Helper()

	song := library.Song{
		ID:        "song-" + strings.ToLower(strings.ReplaceAll(title+"-"+artist, " ", "-")),
		Title:     title,
		Artist:    artist,
		Documents: []string{"/media/" + title + ".pdf"},
		CreatedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(&song)
	}
	if err := song.Validate(); err != nil {
		t.Fatalf("test song %q invalid: %v", title, err)
	}
	return song
}

// SongOption mutates a song under construction.
type SongOption func(*library.Song)

// WithStyle sets the musical style.
func WithStyle(style string) SongOption {
	return func(s *library.Song) { s.Style = style }
}

// WithTempo sets the tempo annotation.
func WithTempo(tempo string) SongOption {
	return func(s *library.Song) { s.Tempo = tempo }
}

// WithDocuments replaces the document references.
func WithDocuments(paths ...string) SongOption {
	return func(s *library.Song) { s.Documents = paths }
}

// WithAudios replaces the audio references.
func WithAudios(paths ...string) SongOption {
	return func(s *library.Song) { s.Audios = paths }
}

// WithMetadata sets the free-form metadata map.
func WithMetadata(metadata map[string]string) SongOption {
	return func(s *library.Song) { s.Metadata = metadata }
}
