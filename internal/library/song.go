package library

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Song represents one catalog entry with its referenced media files.
type Song struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Artist    string            `json:"artist"`
	Tempo     string            `json:"tempo,omitempty"`
	Style     string            `json:"style,omitempty"`
	Documents []string          `json:"documents,omitempty"`
	Audios    []string          `json:"audios,omitempty"`
	Videos    []string          `json:"videos,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// DisplayName returns the human-facing label for the song.
func (s Song) DisplayName() string {
	title := strings.TrimSpace(s.Title)
	artist := strings.TrimSpace(s.Artist)
	switch {
	case artist != "" && title != "":
		return artist + " - " + title
	case title != "":
		return title
	case artist != "":
		return artist + " - Untitled"
	default:
		return "Untitled"
	}
}

// HasDocuments reports whether the song references at least one document.
func (s Song) HasDocuments() bool { return len(s.Documents) > 0 }

// HasAudio reports whether the song references at least one audio file.
func (s Song) HasAudio() bool { return len(s.Audios) > 0 }

// HasVideo reports whether the song references at least one video file.
func (s Song) HasVideo() bool { return len(s.Videos) > 0 }

// PrimaryDocument returns the first document reference, or "" when none exist.
func (s Song) PrimaryDocument() string {
	if len(s.Documents) == 0 {
		return ""
	}
	return s.Documents[0]
}

// AllMedia returns every referenced media path in documents, audio, video order.
func (s Song) AllMedia() []string {
	out := make([]string, 0, len(s.Documents)+len(s.Audios)+len(s.Videos))
	out = append(out, s.Documents...)
	out = append(out, s.Audios...)
	out = append(out, s.Videos...)
	return out
}

// MediaCount returns the total number of referenced media files.
func (s Song) MediaCount() int {
	return len(s.Documents) + len(s.Audios) + len(s.Videos)
}

// Clone returns a deep copy so callers can hold song values without aliasing
// catalog state.
func (s Song) Clone() Song {
	out := s
	out.Documents = cloneStrings(s.Documents)
	out.Audios = cloneStrings(s.Audios)
	out.Videos = cloneStrings(s.Videos)
	if s.Metadata != nil {
		out.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// Normalize trims the identifying text fields in place.
func (s *Song) Normalize() {
	s.Title = strings.TrimSpace(s.Title)
	s.Artist = strings.TrimSpace(s.Artist)
	s.Tempo = strings.TrimSpace(s.Tempo)
	s.Style = strings.TrimSpace(s.Style)
}

// Validate checks the song against catalog admission rules. The returned error
// carries ErrValidation so callers can classify the rejection.
func (s Song) Validate() error {
	if strings.TrimSpace(s.Title) == "" && strings.TrimSpace(s.Artist) == "" {
		return Wrap(ErrValidation, "song", "validate", "song needs a title or an artist", nil)
	}
	if s.MediaCount() == 0 {
		return Wrap(ErrValidation, "song", "validate", "song needs at least one document, audio, or video file", nil)
	}
	for _, path := range s.AllMedia() {
		if strings.TrimSpace(path) == "" {
			return Wrap(ErrValidation, "song", "validate", "media references must not be blank", nil)
		}
	}
	return nil
}

// IdentityKey returns the case-folded title/artist pair used for duplicate
// detection.
func (s Song) IdentityKey() string {
	return FoldKey(s.Title, s.Artist)
}

// FoldKey builds a Unicode case-folded composite key from identifying fields.
// Casers are stateful, so a fresh one is built per call.
func FoldKey(parts ...string) string {
	caser := cases.Fold()
	folded := make([]string, 0, len(parts))
	for _, part := range parts {
		folded = append(folded, caser.String(strings.TrimSpace(part)))
	}
	return strings.Join(folded, "\x00")
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
