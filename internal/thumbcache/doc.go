// Package thumbcache persists generated thumbnails on disk with a
// SQLite index. Entries are keyed by source path and pixel size and
// invalidated through a fingerprint of the source file's identity, so
// an edited chart regenerates while untouched ones are served from
// disk. Least-recently-used entries are evicted once the configured
// byte or entry budget is exceeded.
package thumbcache
