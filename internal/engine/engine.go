package engine

import (
	"errors"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"songbook/internal/config"
	"songbook/internal/docload"
	"songbook/internal/index"
	"songbook/internal/library"
	"songbook/internal/logging"
	"songbook/internal/store"
	"songbook/internal/thumbcache"
)

// lockFileName sits in the data directory and enforces single-instance
// access to the catalog.
const lockFileName = "songbook.lock"

// Engine composes catalog persistence, search, document loading, and
// thumbnail caching behind one serialized facade. Mutations run on a
// single writer path; reads take snapshots off the committed state.
type Engine struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	index  *index.Index
	loader *docload.Loader
	thumbs *thumbcache.Cache

	lockPath string
	lock     *flock.Flock

	mu      sync.RWMutex
	catalog *library.Catalog

	obsMu     sync.Mutex
	observers []func(library.Event)
}

// New loads the catalog, rebuilds the search index, and locks the
// library for this process. The lock file lives in the data directory;
// a second instance fails fast with a persistence error.
func New(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("engine requires a config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	log := logging.NewComponentLogger(logger, "engine")

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, library.Wrap(library.ErrPersistence, "engine", "new", "prepare directories", err)
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, lockFileName)
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, library.Wrap(library.ErrPersistence, "engine", "new", "acquire library lock", err)
	}
	if !locked {
		return nil, library.Wrap(library.ErrPersistence, "engine", "new",
			"library is in use by another songbook instance", nil)
	}

	st := store.New(cfg, logger)
	catalog, err := st.Load()
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	ix := index.New(cfg.Search.MinTokenLength)
	ix.Rebuild(catalog.Songs(), catalog.Revision())

	thumbs, err := thumbcache.Open(cfg, logger)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	engine := &Engine{
		cfg:      cfg,
		logger:   log,
		store:    st,
		index:    ix,
		loader:   docload.New(cfg, logger),
		thumbs:   thumbs,
		lockPath: lockPath,
		lock:     lock,
		catalog:  catalog,
	}
	log.Info("library engine ready",
		logging.Int("songs", catalog.Len()),
		logging.String(logging.FieldPath, st.Path()))
	return engine, nil
}

// Close cancels outstanding loader sessions, closes the thumbnail
// cache, and releases the library lock.
func (e *Engine) Close() error {
	e.loader.Close()
	if err := e.thumbs.Close(); err != nil {
		e.logger.Warn("close thumbnail cache failed", logging.Error(err))
	}
	if err := e.lock.Unlock(); err != nil {
		return library.Wrap(library.ErrPersistence, "engine", "close", "release library lock", err)
	}
	return nil
}

// Subscribe registers a callback for committed catalog mutations.
// Callbacks run synchronously on the mutating goroutine after the
// change is persisted and indexed, outside the engine's locks.
func (e *Engine) Subscribe(fn func(library.Event)) {
	if fn == nil {
		return
	}
	e.obsMu.Lock()
	e.observers = append(e.observers, fn)
	e.obsMu.Unlock()
}

func (e *Engine) notify(event library.Event) {
	e.obsMu.Lock()
	observers := make([]func(library.Event), len(e.observers))
	copy(observers, e.observers)
	e.obsMu.Unlock()
	for _, fn := range observers {
		fn(event)
	}
}

// recoverIndex rebuilds the search index from the catalog after an
// incremental patch reported a stale revision. Caller holds the write
// lock.
func (e *Engine) recoverIndex(cause error) {
	e.logger.Warn("search index stale, rebuilding",
		logging.Error(cause),
		logging.Uint64(logging.FieldRevision, e.catalog.Revision()))
	e.index.Rebuild(e.catalog.Songs(), e.catalog.Revision())
}
