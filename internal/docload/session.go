package docload

import (
	"context"
	"io"
	"sync"

	"songbook/internal/library"
	"songbook/internal/logging"
)

// State identifies where a session is in its lifecycle. Terminal
// states are final.
type State string

const (
	StateIdle      State = "idle"
	StateOpening   State = "opening"
	StateLoading   State = "loading"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// IsTerminal reports whether the state is final.
func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateCancelled, StateFailed:
		return true
	default:
		return false
	}
}

// PageKind distinguishes text pages from image pages.
type PageKind string

const (
	PageText  PageKind = "text"
	PageImage PageKind = "image"
)

// Page is one unit of displayable document content. Text pages carry
// extracted content; image pages point back at the source file.
type Page struct {
	Number int
	Kind   PageKind
	Text   string
	Source string
}

// Session tracks one in-progress document load. Its accessors are safe
// from any goroutine.
type Session struct {
	id     string
	source string
	loader *Loader

	mu        sync.Mutex
	state     State
	err       error
	pageCount int
	delivered []Page

	batches    chan []Page
	cancelCh   chan struct{}
	cancelOnce sync.Once
	done       chan struct{}
}

// ID returns the unique session identifier.
func (s *Session) ID() string { return s.id }

// Source returns the absolute path of the document being loaded.
func (s *Session) Source() string { return s.source }

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the failure or cancellation error of a terminal session,
// nil otherwise.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// PageCount returns the total page count of the document, known once
// the session reaches StateLoading. Zero before that.
func (s *Session) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageCount
}

// Pages returns a copy of every page delivered so far, in delivery
// order. The slice stays valid after the session ends, so completed
// and cancelled sessions can be replayed.
func (s *Session) Pages() []Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	pages := make([]Page, len(s.delivered))
	copy(pages, s.delivered)
	return pages
}

// Done is closed once the session reaches a terminal state.
func (s *Session) Done() <-chan struct{} { return s.done }

// Cancel requests cancellation. The worker observes it within one
// batch boundary; any extracted but undelivered batch is discarded.
// Cancelling a terminal session is a no-op.
func (s *Session) Cancel() {
	s.cancelOnce.Do(func() { close(s.cancelCh) })
}

// Next blocks until the next batch of pages is handed over. It returns
// io.EOF after the final batch of a completed session, ErrCancelled
// after cancellation, and the failure error once the session fails.
// Returned batches are recorded as delivered before Next returns.
func (s *Session) Next(ctx context.Context) ([]Page, error) {
	select {
	case batch, ok := <-s.batches:
		if !ok {
			return nil, s.terminalErr()
		}
		s.mu.Lock()
		s.delivered = append(s.delivered, batch...)
		s.mu.Unlock()
		return batch, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Session) terminalErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	return io.EOF
}

func (s *Session) transition(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsTerminal() {
		return
	}
	s.state = state
}

func (s *Session) finish(state State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsTerminal() {
		return
	}
	s.state = state
	s.err = err
}

// run drives the session lifecycle on its own goroutine. The batches
// channel closes only after the terminal state is recorded, so
// consumers woken by the close always observe the final state.
func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.batches)

	select {
	case s.loader.slots <- struct{}{}:
	case <-s.cancelCh:
		s.finish(StateCancelled, cancelledErr(nil))
		return
	case <-ctx.Done():
		s.finish(StateCancelled, cancelledErr(ctx.Err()))
		return
	}
	defer func() { <-s.loader.slots }()

	logger := logging.WithContext(ctx, s.loader.logger)

	s.transition(StateOpening)
	ex, err := openExtractor(s.source, s.loader.textPageLines)
	if err != nil {
		s.finish(StateFailed, err)
		logger.Warn("document open failed", logging.Error(err))
		return
	}

	total := ex.pageCount()
	s.mu.Lock()
	s.state = StateLoading
	s.pageCount = total
	s.mu.Unlock()

	for start := 0; start < total; {
		end := start + s.loader.batchSize
		if end > total {
			end = total
		}
		batch := make([]Page, 0, end-start)
		for number := start + 1; number <= end; number++ {
			page, err := ex.page(number)
			if err != nil {
				s.finish(StateFailed, err)
				logger.Warn("page extraction failed",
					logging.Int("page", number),
					logging.Error(err))
				return
			}
			batch = append(batch, page)
		}
		select {
		case s.batches <- batch:
		case <-s.cancelCh:
			s.finish(StateCancelled, cancelledErr(nil))
			return
		case <-ctx.Done():
			s.finish(StateCancelled, cancelledErr(ctx.Err()))
			return
		}
		start = end
	}
	s.finish(StateCompleted, nil)
	logger.Debug("session completed", logging.Int("pages", total))
}

func cancelledErr(cause error) error {
	return library.Wrap(library.ErrCancelled, "docload", "load", "session cancelled", cause)
}
