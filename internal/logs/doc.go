// Package logs reads the songbook log file for CLI display.
//
// It tails the last N lines with bounded memory, resumes forward reads
// from a saved offset, and polls for new lines to power
// `songbook logs --follow`. Offsets survive truncation: a stale offset
// simply restarts from the current end of the file.
package logs
