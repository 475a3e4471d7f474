// Package engine is the front door of the songbook library. It owns
// the catalog and serializes every mutation through one writer path:
// validate, persist via the store, then patch the search index, so a
// failed save never leaves the index reflecting unpersisted state.
// Document loading and thumbnail generation run off the caller's
// goroutine through the docload and thumbcache components.
package engine
