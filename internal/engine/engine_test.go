package engine_test

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"songbook/internal/config"
	"songbook/internal/engine"
	"songbook/internal/index"
	"songbook/internal/library"
	"songbook/internal/testsupport"
)

func newEngine(t *testing.T, opts ...testsupport.ConfigOption) (*engine.Engine, *config.Config) {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	return openEngine(t, cfg), cfg
}

func openEngine(t *testing.T, cfg *config.Config) *engine.Engine {
	t.Helper()

	eng, err := engine.New(cfg, nil)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestAddSongPersistsAcrossRestart(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	eng, err := engine.New(cfg, nil)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	added, err := eng.AddSong(testsupport.NewSong(t, "Misty", "Erroll Garner", testsupport.WithStyle("Jazz")))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added.ID == "" {
		t.Fatal("added song has no ID")
	}
	if added.CreatedAt.IsZero() || added.UpdatedAt.IsZero() {
		t.Fatal("added song missing timestamps")
	}
	if err := eng.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := openEngine(t, cfg)
	songs := reopened.ListAll()
	if len(songs) != 1 {
		t.Fatalf("reloaded %d songs, want 1", len(songs))
	}
	if songs[0].ID != added.ID || songs[0].Title != "Misty" {
		t.Fatalf("reloaded song %+v", songs[0])
	}
	if results := reopened.Search("misty", index.FieldAny); len(results) != 1 {
		t.Fatalf("search after restart found %d songs, want 1", len(results))
	}
}

func TestAddSongRejectsInvalidBeforePersistence(t *testing.T) {
	eng, cfg := newEngine(t)

	_, err := eng.AddSong(library.Song{Documents: []string{"/media/x.pdf"}})
	if !errors.Is(err, library.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if _, statErr := os.Stat(cfg.CatalogPath()); !errors.Is(statErr, fs.ErrNotExist) {
		t.Fatalf("catalog file written despite rejected song: %v", statErr)
	}
	if eng.Len() != 0 {
		t.Fatalf("catalog has %d songs after rejection, want 0", eng.Len())
	}
}

func TestAddSongRejectsDuplicateIdentity(t *testing.T) {
	eng, _ := newEngine(t)

	if _, err := eng.AddSong(testsupport.NewSong(t, "Misty", "Erroll Garner")); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, err := eng.AddSong(testsupport.NewSong(t, "MISTY", "erroll garner"))
	if !errors.Is(err, library.ErrValidation) {
		t.Fatalf("duplicate add err = %v, want ErrValidation", err)
	}
	if eng.Len() != 1 {
		t.Fatalf("catalog has %d songs, want 1", eng.Len())
	}
}

func TestUpdateSongReplacesIndexedState(t *testing.T) {
	eng, _ := newEngine(t)

	added, err := eng.AddSong(testsupport.NewSong(t, "So What", "Miles Davis", testsupport.WithStyle("Modal")))
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	changed := added
	changed.Style = "Cool Jazz"
	updated, err := eng.UpdateSong(changed)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CreatedAt != added.CreatedAt {
		t.Fatal("update changed CreatedAt")
	}
	if updated.UpdatedAt.Before(added.UpdatedAt) {
		t.Fatalf("UpdatedAt moved backwards: %v vs %v", updated.UpdatedAt, added.UpdatedAt)
	}

	if results := eng.Search("modal", index.FieldStyle); len(results) != 0 {
		t.Fatalf("stale style still indexed: %d hits", len(results))
	}
	results := eng.Search("cool", index.FieldStyle)
	if len(results) != 1 || results[0].ID != added.ID {
		t.Fatalf("new style not indexed: %+v", results)
	}
}

func TestUpdateSongMissing(t *testing.T) {
	eng, _ := newEngine(t)

	ghost := testsupport.NewSong(t, "Nowhere", "Nobody")
	if _, err := eng.UpdateSong(ghost); !errors.Is(err, library.ErrSongMissing) {
		t.Fatalf("err = %v, want ErrSongMissing", err)
	}
}

func TestUpdateSongMergesMetadata(t *testing.T) {
	eng, _ := newEngine(t)

	added, err := eng.AddSong(testsupport.NewSong(t, "Blue in Green", "Bill Evans",
		testsupport.WithMetadata(map[string]string{"capo": "2", "key": "G"})))
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	changed := added
	changed.Metadata = map[string]string{"key": "Am", "capo": "", "tuning": "standard"}
	updated, err := eng.UpdateSong(changed)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	want := map[string]string{"key": "Am", "tuning": "standard"}
	if len(updated.Metadata) != len(want) {
		t.Fatalf("metadata = %v, want %v", updated.Metadata, want)
	}
	for k, v := range want {
		if updated.Metadata[k] != v {
			t.Fatalf("metadata[%q] = %q, want %q", k, updated.Metadata[k], v)
		}
	}
}

func TestUpdateSongRejectsIdentityCollision(t *testing.T) {
	eng, _ := newEngine(t)

	if _, err := eng.AddSong(testsupport.NewSong(t, "Misty", "Erroll Garner")); err != nil {
		t.Fatalf("add first: %v", err)
	}
	second, err := eng.AddSong(testsupport.NewSong(t, "Lullaby of Birdland", "Erroll Garner"))
	if err != nil {
		t.Fatalf("add second: %v", err)
	}

	second.Title = "misty"
	if _, err := eng.UpdateSong(second); !errors.Is(err, library.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestRemoveSongDropsFromIndexAndDisk(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	eng := openEngine(t, cfg)

	keep, err := eng.AddSong(testsupport.NewSong(t, "Take Five", "Dave Brubeck"))
	if err != nil {
		t.Fatalf("add keep: %v", err)
	}
	gone, err := eng.AddSong(testsupport.NewSong(t, "Unsquare Dance", "Dave Brubeck"))
	if err != nil {
		t.Fatalf("add gone: %v", err)
	}

	removed, err := eng.RemoveSong(gone.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed.Title != "Unsquare Dance" {
		t.Fatalf("removed snapshot %+v", removed)
	}
	if results := eng.Search("unsquare", index.FieldAny); len(results) != 0 {
		t.Fatalf("removed song still searchable: %d hits", len(results))
	}
	if _, err := eng.RemoveSong(gone.ID); !errors.Is(err, library.ErrSongMissing) {
		t.Fatalf("second remove err = %v, want ErrSongMissing", err)
	}

	if err := eng.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	reopened := openEngine(t, cfg)
	songs := reopened.ListAll()
	if len(songs) != 1 || songs[0].ID != keep.ID {
		t.Fatalf("reloaded songs %+v", songs)
	}
}

func TestSaveFailureLeavesStateUntouched(t *testing.T) {
	eng, cfg := newEngine(t)

	added, err := eng.AddSong(testsupport.NewSong(t, "Misty", "Erroll Garner"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	revBefore := eng.Revision()

	// Block the temp path the store writes through so the next save
	// fails before touching the live file.
	tmpPath := cfg.CatalogPath() + ".tmp"
	if err := os.MkdirAll(tmpPath, 0o755); err != nil {
		t.Fatalf("block tmp path: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmpPath, "occupied"), []byte("x"), 0o644); err != nil {
		t.Fatalf("occupy tmp path: %v", err)
	}

	_, err = eng.AddSong(testsupport.NewSong(t, "Take Five", "Dave Brubeck"))
	if !errors.Is(err, library.ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
	if eng.Len() != 1 {
		t.Fatalf("catalog has %d songs after failed save, want 1", eng.Len())
	}
	if eng.Revision() != revBefore {
		t.Fatalf("revision moved to %d after failed save", eng.Revision())
	}
	if results := eng.Search("five", index.FieldAny); len(results) != 0 {
		t.Fatalf("unpersisted song searchable: %d hits", len(results))
	}
	if results := eng.Search("misty", index.FieldAny); len(results) != 1 || results[0].ID != added.ID {
		t.Fatalf("committed song lost from index: %+v", results)
	}

	if err := os.RemoveAll(tmpPath); err != nil {
		t.Fatalf("unblock tmp path: %v", err)
	}
	if _, err := eng.AddSong(testsupport.NewSong(t, "Take Five", "Dave Brubeck")); err != nil {
		t.Fatalf("add after recovery: %v", err)
	}
	if eng.Len() != 2 {
		t.Fatalf("catalog has %d songs after recovery, want 2", eng.Len())
	}
}

func TestSearchRanksPrefixBeforeSubstring(t *testing.T) {
	eng, _ := newEngine(t)

	if _, err := eng.AddSong(testsupport.NewSong(t, "Adorn", "Miguel")); err != nil {
		t.Fatalf("add miguel: %v", err)
	}
	guile, err := eng.AddSong(testsupport.NewSong(t, "Theme of Honor", "Guile"))
	if err != nil {
		t.Fatalf("add guile: %v", err)
	}

	results := eng.Search("gui", index.FieldAny)
	if len(results) != 2 {
		t.Fatalf("search found %d songs, want 2", len(results))
	}
	if results[0].ID != guile.ID {
		t.Fatalf("prefix match ranked second: %q before %q", results[0].Artist, results[1].Artist)
	}
}

func TestConcurrentAddsStaySerialized(t *testing.T) {
	eng, _ := newEngine(t)

	const workers = 8
	songs := make([]library.Song, workers)
	for i := range songs {
		songs[i] = testsupport.NewSong(t, fmt.Sprintf("Etude %d", i), "Various")
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = eng.AddSong(songs[n])
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
	}
	if eng.Len() != workers {
		t.Fatalf("catalog has %d songs, want %d", eng.Len(), workers)
	}
	for i := 0; i < workers; i++ {
		query := fmt.Sprintf("etude %d", i)
		if results := eng.Search(query, index.FieldTitle); len(results) != 1 {
			t.Fatalf("search %q found %d songs, want 1", query, len(results))
		}
	}
}

func TestSecondInstanceRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	first, err := engine.New(cfg, nil)
	if err != nil {
		t.Fatalf("first instance: %v", err)
	}
	if _, err := engine.New(cfg, nil); !errors.Is(err, library.ErrPersistence) {
		t.Fatalf("second instance err = %v, want ErrPersistence", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close first: %v", err)
	}

	third := openEngine(t, cfg)
	if third.Len() != 0 {
		t.Fatalf("fresh engine has %d songs", third.Len())
	}
}

func TestObserversSeeCommittedMutationsOnly(t *testing.T) {
	eng, _ := newEngine(t)

	var events []library.Event
	eng.Subscribe(func(event library.Event) { events = append(events, event) })

	added, err := eng.AddSong(testsupport.NewSong(t, "Misty", "Erroll Garner"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := eng.AddSong(library.Song{}); !errors.Is(err, library.ErrValidation) {
		t.Fatalf("invalid add err = %v", err)
	}
	added.Tempo = "ballad"
	if _, err := eng.UpdateSong(added); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := eng.RemoveSong(added.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	wantTypes := []library.EventType{library.EventSongAdded, library.EventSongUpdated, library.EventSongRemoved}
	if len(events) != len(wantTypes) {
		t.Fatalf("observed %d events, want %d", len(events), len(wantTypes))
	}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Fatalf("event %d type = %s, want %s", i, events[i].Type, want)
		}
		if events[i].Song.ID != added.ID {
			t.Fatalf("event %d song ID = %s", i, events[i].Song.ID)
		}
		if events[i].Revision == 0 {
			t.Fatalf("event %d has zero revision", i)
		}
	}
	if events[1].Song.Tempo != "ballad" {
		t.Fatalf("update event carries stale snapshot: %+v", events[1].Song)
	}
}

func TestStatisticsAndFilters(t *testing.T) {
	eng, _ := newEngine(t)

	for _, seed := range []struct{ title, artist, style string }{
		{"Misty", "Erroll Garner", "Jazz"},
		{"Lullaby of Birdland", "Erroll Garner", "Jazz"},
		{"Thunderstruck", "AC/DC", "Rock"},
	} {
		song := testsupport.NewSong(t, seed.title, seed.artist, testsupport.WithStyle(seed.style))
		if _, err := eng.AddSong(song); err != nil {
			t.Fatalf("add %s: %v", seed.title, err)
		}
	}
	backing := testsupport.NewSong(t, "Voodoo Child", "Jimi Hendrix",
		testsupport.WithAudios("/media/voodoo-child.mp3"))
	if _, err := eng.AddSong(backing); err != nil {
		t.Fatalf("add backing track: %v", err)
	}

	stats := eng.Statistics()
	if stats.TotalSongs != 4 {
		t.Fatalf("TotalSongs = %d", stats.TotalSongs)
	}
	if stats.SongsWithDocuments != 4 || stats.SongsWithAudio != 1 {
		t.Fatalf("media counts = %d docs / %d audio, want 4 / 1",
			stats.SongsWithDocuments, stats.SongsWithAudio)
	}
	if stats.MostProlificArtist != "Erroll Garner" {
		t.Fatalf("MostProlificArtist = %q", stats.MostProlificArtist)
	}
	if stats.MostCommonStyle != "Jazz" {
		t.Fatalf("MostCommonStyle = %q", stats.MostCommonStyle)
	}

	if got := eng.ListByArtist("erroll garner"); len(got) != 2 {
		t.Fatalf("ListByArtist found %d songs, want 2", len(got))
	}
	if got := eng.ListByStyle("rock"); len(got) != 1 || got[0].Title != "Thunderstruck" {
		t.Fatalf("ListByStyle = %+v", got)
	}
}
