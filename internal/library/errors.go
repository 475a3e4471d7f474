package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

var (
	// ErrCorruptCatalog marks a persisted catalog that cannot be parsed or
	// fails structural checks.
	ErrCorruptCatalog = errors.New("corrupt catalog")
	// ErrUnsupportedSchema marks a persisted catalog written with an unknown
	// schema version.
	ErrUnsupportedSchema = errors.New("unsupported schema version")
	// ErrPersistence marks I/O failures in the save/load/backup machinery.
	ErrPersistence = errors.New("persistence failure")
	// ErrValidation marks songs rejected before any state was touched.
	ErrValidation = errors.New("validation error")
	// ErrSongMissing marks operations that reference an unknown song ID.
	ErrSongMissing = errors.New("song not in catalog")
	// ErrStaleIndex marks incremental index updates whose revision
	// precondition failed.
	ErrStaleIndex = errors.New("stale index")
	// ErrNotFound marks documents or sessions that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrPermission marks documents the process may not read.
	ErrPermission = errors.New("permission denied")
	// ErrUnsupportedFormat marks documents with no registered reader.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrIO marks read failures while loading document content.
	ErrIO = errors.New("io error")
	// ErrGeneration marks thumbnail generator failures.
	ErrGeneration = errors.New("thumbnail generation failed")
	// ErrCacheUnavailable marks thumbnail requests while the cache is
	// disabled or failed to open.
	ErrCacheUnavailable = errors.New("thumbnail cache unavailable")
	// ErrCancelled marks sessions stopped by explicit request.
	ErrCancelled = errors.New("session cancelled")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind is a stable, user-presentable classification of an engine error.
type Kind string

const (
	KindCorrupt      Kind = "corrupt_catalog"
	KindSchema       Kind = "unsupported_schema"
	KindPersistence  Kind = "persistence"
	KindValidation   Kind = "validation"
	KindMissing      Kind = "missing"
	KindStaleIndex   Kind = "stale_index"
	KindNotFound     Kind = "not_found"
	KindPermission   Kind = "permission"
	KindUnsupported  Kind = "unsupported_format"
	KindIO           Kind = "io"
	KindGeneration   Kind = "generation"
	KindUnavailable  Kind = "cache_unavailable"
	KindCancelled    Kind = "cancelled"
	KindUnclassified Kind = "error"
)

// Classify maps an error chain to its Kind. Unrecognized errors report
// KindUnclassified; nil reports an empty Kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCorruptCatalog):
		return KindCorrupt
	case errors.Is(err, ErrUnsupportedSchema):
		return KindSchema
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrSongMissing):
		return KindMissing
	case errors.Is(err, ErrStaleIndex):
		return KindStaleIndex
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrPermission):
		return KindPermission
	case errors.Is(err, ErrUnsupportedFormat):
		return KindUnsupported
	case errors.Is(err, ErrGeneration):
		return KindGeneration
	case errors.Is(err, ErrCacheUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	case errors.Is(err, ErrIO):
		return KindIO
	case isCancellation(err):
		return KindCancelled
	default:
		return KindUnclassified
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// MarkerForPathError maps a filesystem error from opening or statting a
// source file to the sentinel callers should classify it under.
func MarkerForPathError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrPermission
	default:
		return ErrIO
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "engine failure"
	}
	return strings.Join(parts, ": ")
}
