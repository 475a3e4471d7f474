package docload

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"songbook/internal/config"
	"songbook/internal/library"
	"songbook/internal/logging"
)

// Loader starts document loading sessions against a bounded worker
// pool. Sessions queued past the pool size stay in StateIdle until a
// slot frees up.
type Loader struct {
	batchSize     int
	textPageLines int
	logger        *slog.Logger
	slots         chan struct{}

	mu       sync.Mutex
	sessions map[string]*Session
}

// New builds a loader sized from the configuration.
func New(cfg *config.Config, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = logging.NewNop()
	}
	batchSize := cfg.Loader.PageBatchSize
	if batchSize < 1 {
		batchSize = 1
	}
	workers := cfg.Loader.Workers
	if workers < 1 {
		workers = 1
	}
	return &Loader{
		batchSize:     batchSize,
		textPageLines: cfg.Loader.TextPageLines,
		logger:        logging.NewComponentLogger(logger, "docload"),
		slots:         make(chan struct{}, workers),
	}
}

// Open starts loading the document at source and returns the session
// handle immediately. Pages arrive through Session.Next; open failures
// (missing file, unsupported format) surface there and through
// Session.Err once the session turns Failed.
func (l *Loader) Open(ctx context.Context, source string) (*Session, error) {
	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, library.Wrap(library.ErrIO, "docload", "open", "resolve document path", err)
	}

	session := &Session{
		id:       uuid.NewString(),
		source:   abs,
		loader:   l,
		state:    StateIdle,
		batches:  make(chan []Page),
		cancelCh: make(chan struct{}),
		done:     make(chan struct{}),
	}

	l.mu.Lock()
	if l.sessions == nil {
		l.sessions = make(map[string]*Session)
	}
	l.sessions[session.id] = session
	l.mu.Unlock()

	l.logger.Debug("session opened",
		logging.String(logging.FieldSessionID, session.id),
		logging.String(logging.FieldPath, abs))

	go session.run(library.WithSessionID(ctx, session.id))
	return session, nil
}

// Session returns the session with the given ID, or nil when unknown.
func (l *Loader) Session(id string) *Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sessions[id]
}

// Cancel cancels the session with the given ID. It reports whether the
// ID was known; cancelling a terminal session is a no-op.
func (l *Loader) Cancel(id string) bool {
	session := l.Session(id)
	if session == nil {
		return false
	}
	session.Cancel()
	return true
}

// Close cancels every session and waits for their workers to finish.
func (l *Loader) Close() {
	l.mu.Lock()
	sessions := make([]*Session, 0, len(l.sessions))
	for _, session := range l.sessions {
		sessions = append(sessions, session)
	}
	l.mu.Unlock()

	for _, session := range sessions {
		session.Cancel()
	}
	for _, session := range sessions {
		<-session.Done()
	}
}
