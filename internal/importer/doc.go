// Package importer builds catalog songs from a folder tree of media
// files. Every directory containing at least one recognized document,
// audio, or video file becomes one song candidate; the directory name
// supplies title and artist, audio tags fill the gaps, and candidates
// are committed through the engine so validation and duplicate checks
// apply unchanged.
package importer
