package index

import (
	"fmt"
	"sort"
	"strings"
)

// Field selects which song attribute a search consults. The zero value
// searches all fields.
type Field string

const (
	FieldAny    Field = ""
	FieldTitle  Field = "title"
	FieldArtist Field = "artist"
	FieldStyle  Field = "style"
)

var searchFields = []Field{FieldTitle, FieldArtist, FieldStyle}

// ParseField maps a user-supplied field name to a Field.
func ParseField(value string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "any", "all":
		return FieldAny, nil
	case "title":
		return FieldTitle, nil
	case "artist":
		return FieldArtist, nil
	case "style":
		return FieldStyle, nil
	default:
		return FieldAny, fmt.Errorf("unknown search field %q", value)
	}
}

// Match tiers, in rank order. A token that equals the query outranks
// one that merely starts with it, which outranks an interior hit.
const (
	tierExact = iota
	tierPrefix
	tierSubstring
)

// Search returns song IDs matching the query, best tier first, catalog
// insertion order within a tier. Every query token must match the song
// somewhere in the consulted fields; a song's tier is the weakest of
// its per-token tiers. An empty or whitespace query returns nothing.
func (ix *Index) Search(query string, field Field) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	qtokens := ix.tokenize(query)
	if len(qtokens) == 0 {
		return nil
	}
	consulted := ix.consultedLocked(field)
	if len(consulted) == 0 {
		return nil
	}

	var combined map[string]int
	for i, q := range qtokens {
		perToken := make(map[string]int)
		for _, fi := range consulted {
			fi.match(q, perToken)
		}
		if i == 0 {
			combined = perToken
			continue
		}
		for id, tier := range combined {
			next, ok := perToken[id]
			if !ok {
				delete(combined, id)
				continue
			}
			if next > tier {
				combined[id] = next
			}
		}
		if len(combined) == 0 {
			return nil
		}
	}

	type hit struct {
		id      string
		tier    int
		ordinal int
	}
	hits := make([]hit, 0, len(combined))
	for id, tier := range combined {
		hits = append(hits, hit{id: id, tier: tier, ordinal: ix.ordinals[id]})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].tier != hits[j].tier {
			return hits[i].tier < hits[j].tier
		}
		return hits[i].ordinal < hits[j].ordinal
	})

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}
	return ids
}

func (ix *Index) consultedLocked(field Field) []*fieldIndex {
	if field == FieldAny {
		out := make([]*fieldIndex, 0, len(searchFields))
		for _, f := range searchFields {
			out = append(out, ix.fields[f])
		}
		return out
	}
	fi, ok := ix.fields[field]
	if !ok {
		return nil
	}
	return []*fieldIndex{fi}
}

// match records the best tier for every song whose tokens hit q.
func (fi *fieldIndex) match(q string, hits map[string]int) {
	for token, ids := range fi.postings {
		var tier int
		switch {
		case token == q:
			tier = tierExact
		case strings.HasPrefix(token, q):
			tier = tierPrefix
		case strings.Contains(token, q):
			tier = tierSubstring
		default:
			continue
		}
		for id := range ids {
			if current, seen := hits[id]; !seen || tier < current {
				hits[id] = tier
			}
		}
	}
}
