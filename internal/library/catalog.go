package library

import "time"

// Catalog is the in-memory song collection. It preserves insertion order,
// which downstream consumers (search ranking, listings) rely on for
// deterministic tie-breaking. Catalog itself is not goroutine safe; the
// engine serializes access.
type Catalog struct {
	songs     []Song
	positions map[string]int
	revision  uint64
	createdAt time.Time
}

// NewCatalog returns an empty catalog at revision zero.
func NewCatalog() *Catalog {
	return &Catalog{
		positions: make(map[string]int),
		createdAt: time.Now().UTC(),
	}
}

// NewCatalogFrom seeds a catalog with persisted songs in their stored order.
// The revision starts at zero; it tracks in-process mutations only.
func NewCatalogFrom(songs []Song, createdAt time.Time) *Catalog {
	c := &Catalog{
		songs:     make([]Song, 0, len(songs)),
		positions: make(map[string]int, len(songs)),
		createdAt: createdAt,
	}
	if c.createdAt.IsZero() {
		c.createdAt = time.Now().UTC()
	}
	for _, song := range songs {
		if song.ID == "" {
			continue
		}
		if _, dup := c.positions[song.ID]; dup {
			continue
		}
		c.positions[song.ID] = len(c.songs)
		c.songs = append(c.songs, song.Clone())
	}
	return c
}

// Revision returns the current mutation counter.
func (c *Catalog) Revision() uint64 { return c.revision }

// Len returns the number of songs.
func (c *Catalog) Len() int { return len(c.songs) }

// CreatedAt returns the catalog creation timestamp.
func (c *Catalog) CreatedAt() time.Time { return c.createdAt }

// Get returns a copy of the song with the given ID.
func (c *Catalog) Get(id string) (Song, bool) {
	pos, ok := c.positions[id]
	if !ok {
		return Song{}, false
	}
	return c.songs[pos].Clone(), true
}

// Contains reports whether a song with the given ID exists.
func (c *Catalog) Contains(id string) bool {
	_, ok := c.positions[id]
	return ok
}

// Songs returns copies of all songs in insertion order.
func (c *Catalog) Songs() []Song {
	out := make([]Song, 0, len(c.songs))
	for _, song := range c.songs {
		out = append(out, song.Clone())
	}
	return out
}

// Upsert inserts or replaces a song and bumps the revision. New songs go to
// the end of the insertion order; existing songs keep their position.
// Returns true when the song was newly added.
func (c *Catalog) Upsert(song Song) bool {
	stored := song.Clone()
	if pos, ok := c.positions[song.ID]; ok {
		c.songs[pos] = stored
		c.revision++
		return false
	}
	c.positions[song.ID] = len(c.songs)
	c.songs = append(c.songs, stored)
	c.revision++
	return true
}

// Remove deletes a song by ID and bumps the revision, returning the removed
// song. Insertion order of the remaining songs is preserved.
func (c *Catalog) Remove(id string) (Song, bool) {
	pos, ok := c.positions[id]
	if !ok {
		return Song{}, false
	}
	removed := c.songs[pos]
	c.songs = append(c.songs[:pos], c.songs[pos+1:]...)
	delete(c.positions, id)
	for i := pos; i < len(c.songs); i++ {
		c.positions[c.songs[i].ID] = i
	}
	c.revision++
	return removed, true
}

// WithSongs builds the prospective song list for a pending mutation without
// touching catalog state. upsert replaces by ID or appends; a removal is
// expressed with remove set.
func (c *Catalog) WithSongs(upsert *Song, removeID string) []Song {
	out := make([]Song, 0, len(c.songs)+1)
	replaced := false
	for _, song := range c.songs {
		if removeID != "" && song.ID == removeID {
			continue
		}
		if upsert != nil && song.ID == upsert.ID {
			out = append(out, upsert.Clone())
			replaced = true
			continue
		}
		out = append(out, song.Clone())
	}
	if upsert != nil && !replaced {
		out = append(out, upsert.Clone())
	}
	return out
}

// FindByIdentity returns the first song whose case-folded title/artist pair
// matches, used for duplicate detection.
func (c *Catalog) FindByIdentity(title, artist string) (Song, bool) {
	key := FoldKey(title, artist)
	for _, song := range c.songs {
		if song.IdentityKey() == key {
			return song.Clone(), true
		}
	}
	return Song{}, false
}
