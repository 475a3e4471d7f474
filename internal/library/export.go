package library

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// ExportJSON writes a flat JSON export of the given songs. The payload is a
// self-describing snapshot, not the persistence format.
func ExportJSON(w io.Writer, songs []Song) error {
	payload := struct {
		ExportedAt time.Time `json:"exported_at"`
		SongCount  int       `json:"song_count"`
		Songs      []Song    `json:"songs"`
	}{
		ExportedAt: time.Now().UTC(),
		SongCount:  len(songs),
		Songs:      songs,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// ExportCSV writes one row per song with media lists joined by semicolons.
func ExportCSV(w io.Writer, songs []Song) error {
	cw := csv.NewWriter(w)
	header := []string{"title", "artist", "tempo", "style", "documents", "audios", "videos"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, song := range songs {
		row := []string{
			song.Title,
			song.Artist,
			song.Tempo,
			song.Style,
			strings.Join(song.Documents, ";"),
			strings.Join(song.Audios, ";"),
			strings.Join(song.Videos, ";"),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
