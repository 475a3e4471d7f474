package docload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"songbook/internal/library"
	"songbook/internal/testsupport"
)

func newLoader(t *testing.T, opts ...testsupport.ConfigOption) *Loader {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	return New(cfg, nil)
}

func textDocument(t *testing.T, name string, lines int) string {
	t.Helper()

	var b strings.Builder
	for i := 1; i <= lines; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	path := filepath.Join(t.TempDir(), name)
	testsupport.WriteText(t, path, b.String())
	return path
}

// drain consumes every batch until the stream ends, returning all
// pages in delivery order.
func drain(t *testing.T, session *Session) []Page {
	t.Helper()

	var pages []Page
	for {
		batch, err := session.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return pages
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		pages = append(pages, batch...)
	}
}

func waitTerminal(t *testing.T, session *Session) {
	t.Helper()

	select {
	case <-session.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("session stuck in state %s", session.State())
	}
}

func TestTextDocumentPagination(t *testing.T) {
	loader := newLoader(t, testsupport.WithTextPageLines(5))
	source := textDocument(t, "lyrics.txt", 12)

	session, err := loader.Open(context.Background(), source)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	pages := drain(t, session)
	waitTerminal(t, session)

	if len(pages) != 3 {
		t.Fatalf("delivered %d pages, want 3", len(pages))
	}
	if session.PageCount() != 3 {
		t.Fatalf("PageCount = %d, want 3", session.PageCount())
	}
	if got := session.State(); got != StateCompleted {
		t.Fatalf("state = %s, want %s", got, StateCompleted)
	}
	if session.Err() != nil {
		t.Fatalf("Err = %v, want nil", session.Err())
	}
	if !strings.HasPrefix(pages[0].Text, "line 1\n") {
		t.Fatalf("page 1 content %q", pages[0].Text)
	}
	if pages[2].Text != "line 11\nline 12" {
		t.Fatalf("page 3 content %q", pages[2].Text)
	}
	for i, page := range pages {
		if page.Number != i+1 {
			t.Fatalf("page %d numbered %d", i, page.Number)
		}
		if page.Kind != PageText {
			t.Fatalf("page %d kind %s", i, page.Kind)
		}
	}
}

func TestCancelAfterFirstBatchDeliversExactlyOneBatch(t *testing.T) {
	loader := newLoader(t, testsupport.WithTextPageLines(1), testsupport.WithPageBatchSize(5))
	source := textDocument(t, "long.txt", 100)

	session, err := loader.Open(context.Background(), source)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	batch, err := session.Next(context.Background())
	if err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if len(batch) != 5 {
		t.Fatalf("first batch has %d pages, want 5", len(batch))
	}

	session.Cancel()
	waitTerminal(t, session)

	if got := session.State(); got != StateCancelled {
		t.Fatalf("state = %s, want %s", got, StateCancelled)
	}
	if delivered := session.Pages(); len(delivered) != 5 {
		t.Fatalf("delivered %d pages after cancel, want exactly 5", len(delivered))
	}
	if session.PageCount() != 100 {
		t.Fatalf("PageCount = %d, want 100", session.PageCount())
	}
	if _, err := session.Next(context.Background()); !errors.Is(err, library.ErrCancelled) {
		t.Fatalf("next after cancel = %v, want ErrCancelled", err)
	}
	if !errors.Is(session.Err(), library.ErrCancelled) {
		t.Fatalf("Err = %v, want ErrCancelled", session.Err())
	}
}

func TestReplayMatchesDelivery(t *testing.T) {
	loader := newLoader(t, testsupport.WithTextPageLines(2), testsupport.WithPageBatchSize(3))
	source := textDocument(t, "medium.txt", 20)

	session, err := loader.Open(context.Background(), source)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	pages := drain(t, session)
	waitTerminal(t, session)

	replay := session.Pages()
	if len(replay) != len(pages) {
		t.Fatalf("replay has %d pages, delivery had %d", len(replay), len(pages))
	}
	for i := range pages {
		if replay[i] != pages[i] {
			t.Fatalf("replay page %d differs: %+v vs %+v", i+1, replay[i], pages[i])
		}
	}
}

func TestMissingDocumentFails(t *testing.T) {
	loader := newLoader(t)
	missing := filepath.Join(t.TempDir(), "gone.pdf")

	session, err := loader.Open(context.Background(), missing)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	waitTerminal(t, session)

	if got := session.State(); got != StateFailed {
		t.Fatalf("state = %s, want %s", got, StateFailed)
	}
	if !errors.Is(session.Err(), library.ErrNotFound) {
		t.Fatalf("Err = %v, want ErrNotFound", session.Err())
	}
	if _, err := session.Next(context.Background()); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("next = %v, want ErrNotFound", err)
	}
}

func TestUnsupportedFormatFails(t *testing.T) {
	loader := newLoader(t)
	source := filepath.Join(t.TempDir(), "chart.xyz")
	testsupport.WriteText(t, source, "mystery bytes")

	session, err := loader.Open(context.Background(), source)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	waitTerminal(t, session)

	if !errors.Is(session.Err(), library.ErrUnsupportedFormat) {
		t.Fatalf("Err = %v, want ErrUnsupportedFormat", session.Err())
	}
}

func TestCorruptPDFFails(t *testing.T) {
	loader := newLoader(t)
	source := filepath.Join(t.TempDir(), "broken.pdf")
	testsupport.WriteText(t, source, "definitely not a pdf")

	session, err := loader.Open(context.Background(), source)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	waitTerminal(t, session)

	if got := session.State(); got != StateFailed {
		t.Fatalf("state = %s, want %s", got, StateFailed)
	}
	if !errors.Is(session.Err(), library.ErrIO) {
		t.Fatalf("Err = %v, want ErrIO", session.Err())
	}
}

func TestImageDocumentSinglePage(t *testing.T) {
	loader := newLoader(t)
	source := filepath.Join(t.TempDir(), "cover.png")
	testsupport.WritePNG(t, source, 40, 30)

	session, err := loader.Open(context.Background(), source)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	pages := drain(t, session)
	waitTerminal(t, session)

	if len(pages) != 1 {
		t.Fatalf("delivered %d pages, want 1", len(pages))
	}
	page := pages[0]
	if page.Kind != PageImage {
		t.Fatalf("kind = %s, want %s", page.Kind, PageImage)
	}
	if page.Source != session.Source() {
		t.Fatalf("page source %q, want %q", page.Source, session.Source())
	}
	if page.Text != "png 40x30" {
		t.Fatalf("label = %q", page.Text)
	}
}

func TestWorkerSlotsBoundConcurrency(t *testing.T) {
	loader := newLoader(t,
		testsupport.WithLoaderWorkers(1),
		testsupport.WithTextPageLines(1),
		testsupport.WithPageBatchSize(5))
	first := textDocument(t, "first.txt", 10)
	second := textDocument(t, "second.txt", 2)

	ctx := context.Background()
	sessionA, err := loader.Open(ctx, first)
	if err != nil {
		t.Fatalf("open first: %v", err)
	}
	// Receiving a batch proves session A holds the single worker slot.
	if _, err := sessionA.Next(ctx); err != nil {
		t.Fatalf("first batch: %v", err)
	}

	sessionB, err := loader.Open(ctx, second)
	if err != nil {
		t.Fatalf("open second: %v", err)
	}
	if got := sessionB.State(); got != StateIdle {
		t.Fatalf("queued session state = %s, want %s", got, StateIdle)
	}

	sessionA.Cancel()
	waitTerminal(t, sessionA)

	pages := drain(t, sessionB)
	waitTerminal(t, sessionB)
	if len(pages) != 2 {
		t.Fatalf("second session delivered %d pages, want 2", len(pages))
	}
	if got := sessionB.State(); got != StateCompleted {
		t.Fatalf("second session state = %s, want %s", got, StateCompleted)
	}
}

func TestCancelAfterCompletionIsNoop(t *testing.T) {
	loader := newLoader(t)
	source := textDocument(t, "short.txt", 3)

	session, err := loader.Open(context.Background(), source)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	drain(t, session)
	waitTerminal(t, session)

	session.Cancel()
	if got := session.State(); got != StateCompleted {
		t.Fatalf("state after late cancel = %s, want %s", got, StateCompleted)
	}
	if session.Err() != nil {
		t.Fatalf("Err after late cancel = %v", session.Err())
	}
}

func TestLoaderSessionRegistry(t *testing.T) {
	loader := newLoader(t)
	source := textDocument(t, "short.txt", 3)

	session, err := loader.Open(context.Background(), source)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := loader.Session(session.ID()); got != session {
		t.Fatal("session lookup returned a different handle")
	}
	if loader.Cancel("no-such-session") {
		t.Fatal("cancel of unknown session reported true")
	}
	if !loader.Cancel(session.ID()) {
		t.Fatal("cancel of known session reported false")
	}
	waitTerminal(t, session)

	loader.Close()
}
