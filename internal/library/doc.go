// Package library defines the core domain types for Songbook: songs, the
// in-memory catalog, catalog change events, and the shared error taxonomy.
//
// The catalog preserves insertion order because search ranking and listings
// break ties on it. Mutating methods bump the catalog revision; persistence
// and indexing components coordinate on that counter.
package library
