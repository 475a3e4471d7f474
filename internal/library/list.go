package library

import (
	"sort"
	"strings"
)

// SortKey selects the ordering for SortSongs.
type SortKey string

const (
	SortByTitle  SortKey = "title"
	SortByArtist SortKey = "artist"
	SortByStyle  SortKey = "style"
	SortByAdded  SortKey = "added"
)

// ParseSortKey converts a string into a known SortKey.
func ParseSortKey(value string) (SortKey, bool) {
	switch SortKey(strings.ToLower(strings.TrimSpace(value))) {
	case SortByTitle:
		return SortByTitle, true
	case SortByArtist:
		return SortByArtist, true
	case SortByStyle:
		return SortByStyle, true
	case SortByAdded, "":
		return SortByAdded, true
	default:
		return "", false
	}
}

// SortSongs orders songs by the given key, case-insensitively, with stable
// handling of ties. SortByAdded keeps the input (insertion) order.
func SortSongs(songs []Song, key SortKey, reverse bool) []Song {
	out := make([]Song, len(songs))
	copy(out, songs)

	if key != SortByAdded {
		field := func(s Song) string {
			switch key {
			case SortByArtist:
				return s.Artist
			case SortByStyle:
				return s.Style
			default:
				return s.Title
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return FoldKey(field(out[i])) < FoldKey(field(out[j]))
		})
	}

	if reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// FilterByArtist returns songs whose artist matches case-insensitively.
func FilterByArtist(songs []Song, artist string) []Song {
	key := FoldKey(artist)
	out := make([]Song, 0)
	for _, song := range songs {
		if FoldKey(song.Artist) == key {
			out = append(out, song)
		}
	}
	return out
}

// FilterByStyle returns songs whose style matches case-insensitively.
func FilterByStyle(songs []Song, style string) []Song {
	key := FoldKey(style)
	out := make([]Song, 0)
	for _, song := range songs {
		if FoldKey(song.Style) == key {
			out = append(out, song)
		}
	}
	return out
}
