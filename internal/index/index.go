// Package index maintains an in-memory inverted index over song
// titles, artists, and styles. The index tracks the catalog revision
// it was built from; incremental patches carry the revision they
// expect, and a mismatch fails with library.ErrStaleIndex so the
// caller knows to rebuild.
package index

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"songbook/internal/library"
)

// Index is safe for concurrent use. Searches take a read lock;
// mutations are exclusive.
type Index struct {
	mu       sync.RWMutex
	minToken int
	revision uint64
	fields   map[Field]*fieldIndex
	ordinals map[string]int
	nextOrd  int
}

// fieldIndex holds the postings for a single searchable field.
type fieldIndex struct {
	postings map[string]map[string]struct{}
	bySong   map[string][]string
}

func newFieldIndex() *fieldIndex {
	return &fieldIndex{
		postings: make(map[string]map[string]struct{}),
		bySong:   make(map[string][]string),
	}
}

// New builds an empty index. minTokenLength filters tokens shorter
// than the given rune count; values below 1 are clamped.
func New(minTokenLength int) *Index {
	if minTokenLength < 1 {
		minTokenLength = 1
	}
	ix := &Index{
		minToken: minTokenLength,
		ordinals: make(map[string]int),
		fields:   make(map[Field]*fieldIndex, len(searchFields)),
	}
	for _, f := range searchFields {
		ix.fields[f] = newFieldIndex()
	}
	return ix
}

// Revision returns the catalog revision the index currently reflects.
func (ix *Index) Revision() uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.revision
}

// Len returns the number of indexed songs.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.ordinals)
}

// Rebuild replaces the whole index with the given songs, in slice
// order, and adopts the given revision. Slice order defines the
// insertion-order tie-break used by Search.
func (ix *Index) Rebuild(songs []library.Song, revision uint64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, f := range searchFields {
		ix.fields[f] = newFieldIndex()
	}
	ix.ordinals = make(map[string]int, len(songs))
	for i, song := range songs {
		ix.ordinals[song.ID] = i
		ix.insertLocked(song)
	}
	ix.nextOrd = len(songs)
	ix.revision = revision
}

// ApplyUpsert patches the index for one added or updated song. The
// patch only applies when the index sits at fromRev; otherwise nothing
// changes and library.ErrStaleIndex is returned.
func (ix *Index) ApplyUpsert(song library.Song, fromRev, toRev uint64) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.checkRevisionLocked(fromRev); err != nil {
		return err
	}
	if _, known := ix.ordinals[song.ID]; !known {
		ix.ordinals[song.ID] = ix.nextOrd
		ix.nextOrd++
	}
	ix.removeTokensLocked(song.ID)
	ix.insertLocked(song)
	ix.revision = toRev
	return nil
}

// ApplyRemove patches the index for one removed song under the same
// revision precondition as ApplyUpsert.
func (ix *Index) ApplyRemove(id string, fromRev, toRev uint64) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.checkRevisionLocked(fromRev); err != nil {
		return err
	}
	ix.removeTokensLocked(id)
	delete(ix.ordinals, id)
	ix.revision = toRev
	return nil
}

func (ix *Index) checkRevisionLocked(fromRev uint64) error {
	if ix.revision != fromRev {
		return library.Wrap(library.ErrStaleIndex, "index", "apply",
			fmt.Sprintf("index at revision %d, change expects %d", ix.revision, fromRev), nil)
	}
	return nil
}

func (ix *Index) insertLocked(song library.Song) {
	for field, text := range map[Field]string{
		FieldTitle:  song.Title,
		FieldArtist: song.Artist,
		FieldStyle:  song.Style,
	} {
		tokens := ix.tokenize(text)
		if len(tokens) == 0 {
			continue
		}
		fi := ix.fields[field]
		fi.bySong[song.ID] = tokens
		for _, token := range tokens {
			ids := fi.postings[token]
			if ids == nil {
				ids = make(map[string]struct{})
				fi.postings[token] = ids
			}
			ids[song.ID] = struct{}{}
		}
	}
}

func (ix *Index) removeTokensLocked(id string) {
	for _, f := range searchFields {
		fi := ix.fields[f]
		for _, token := range fi.bySong[id] {
			ids := fi.postings[token]
			delete(ids, id)
			if len(ids) == 0 {
				delete(fi.postings, token)
			}
		}
		delete(fi.bySong, id)
	}
}

// tokenize folds case and splits on non-letter, non-digit runs. The
// same normalization applies to indexed text and to queries.
func (ix *Index) tokenize(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	folded := cases.Fold().String(text)
	raw := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, token := range raw {
		if utf8.RuneCountInString(token) < ix.minToken {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens
}
