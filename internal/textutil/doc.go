// Package textutil provides text processing utilities for song
// matching and filename handling.
//
// The primary use cases are:
//   - Creating token-based fingerprints from titles and artists so the
//     importer can flag likely duplicates of existing songs
//   - Computing cosine similarity between fingerprints
//   - Sanitizing artist and title strings for safe filesystem use
//
// Fingerprints use term frequency vectors normalized for efficient
// comparison. The tokenization process lowercases text, splits on
// non-alphanumeric characters, and filters tokens shorter than 3
// characters.
package textutil
