package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"songbook/internal/library"
	"songbook/internal/store"
	"songbook/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	mediaDir   string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
cache_dir = %q
log_dir = %q

[loader]
page_batch_size = 2
text_page_lines = 2
`,
		filepath.Join(base, "data"),
		filepath.Join(base, "cache"),
		filepath.Join(base, "logs"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	mediaDir := filepath.Join(base, "media-src")
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		t.Fatalf("create media dir: %v", err)
	}

	return &cliTestEnv{baseDir: base, configPath: configPath, mediaDir: mediaDir}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeDoc(t *testing.T, env *cliTestEnv, name, content string) string {
	t.Helper()
	path := filepath.Join(env.mediaDir, name)
	testsupport.WriteText(t, path, content)
	return path
}

func TestCLISongLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)
	doc := writeDoc(t, env, "misty.txt", "Look at me\nI'm as helpless as a kitten\n")

	out, _, err := runCLI(t, env, "add", "--title", "Misty", "--artist", "Erroll Garner", "--style", "Jazz", "--doc", doc)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, `Added "Erroll Garner - Misty"`) {
		t.Fatalf("unexpected add output: %q", out)
	}
	lparen := strings.LastIndex(out, "(")
	rparen := strings.LastIndex(out, ")")
	if lparen < 0 || rparen < lparen {
		t.Fatalf("add output missing song ID: %q", out)
	}
	songID := out[lparen+1 : rparen]

	out, _, err = runCLI(t, env, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Misty") || !strings.Contains(out, "Erroll Garner") {
		t.Fatalf("list missing song: %q", out)
	}

	out, _, err = runCLI(t, env, "search", "misty")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, "Misty") {
		t.Fatalf("search missing hit: %q", out)
	}

	out, _, err = runCLI(t, env, "search", "--field", "artist", "erroll")
	if err != nil {
		t.Fatalf("search by artist: %v", err)
	}
	if !strings.Contains(out, "Misty") {
		t.Fatalf("artist search missing hit: %q", out)
	}

	out, _, err = runCLI(t, env, "search", "accordion")
	if err != nil {
		t.Fatalf("search miss: %v", err)
	}
	if !strings.Contains(out, "No matches") {
		t.Fatalf("expected no matches, got %q", out)
	}

	// A unique ID prefix resolves like the full ID.
	out, _, err = runCLI(t, env, "show", songID[:8])
	if err != nil {
		t.Fatalf("show by prefix: %v", err)
	}
	if !strings.Contains(out, "Erroll Garner - Misty") || !strings.Contains(out, doc) {
		t.Fatalf("unexpected show output: %q", out)
	}

	if _, _, err = runCLI(t, env, "update", "Misty", "--tempo", "ballad", "--meta", "key=Em"); err != nil {
		t.Fatalf("update: %v", err)
	}

	out, _, err = runCLI(t, env, "show", "--json", "Misty")
	if err != nil {
		t.Fatalf("show --json: %v", err)
	}
	var song library.Song
	if err := json.Unmarshal([]byte(out), &song); err != nil {
		t.Fatalf("decode show output: %v\n%s", err, out)
	}
	if song.Tempo != "ballad" || song.Metadata["key"] != "Em" {
		t.Fatalf("update not reflected: %+v", song)
	}

	out, _, err = runCLI(t, env, "remove", "Misty")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !strings.Contains(out, "Removed") {
		t.Fatalf("unexpected remove output: %q", out)
	}

	out, _, err = runCLI(t, env, "list")
	if err != nil {
		t.Fatalf("list after remove: %v", err)
	}
	if !strings.Contains(out, "Library is empty") {
		t.Fatalf("expected empty library, got %q", out)
	}
}

func TestCLIImportExportAndStats(t *testing.T) {
	env := setupCLITestEnv(t)

	root := filepath.Join(env.baseDir, "incoming")
	testsupport.WriteText(t, filepath.Join(root, "Erroll Garner - Misty", "misty.txt"), "helpless as a kitten\n")
	testsupport.WriteText(t, filepath.Join(root, "Dave Brubeck - Take Five", "take5.txt"), "in five four time\n")

	out, _, err := runCLI(t, env, "import", root, "--style", "Jazz")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "2 added") {
		t.Fatalf("unexpected import output: %q", out)
	}

	out, _, err = runCLI(t, env, "list", "--sort", "title")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Misty") || !strings.Contains(out, "Take Five") {
		t.Fatalf("imported songs missing: %q", out)
	}

	out, _, err = runCLI(t, env, "export", "--format", "csv")
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	if !strings.Contains(out, "title,artist") || !strings.Contains(out, "Misty") {
		t.Fatalf("unexpected csv export: %q", out)
	}

	exportPath := filepath.Join(env.baseDir, "export.json")
	out, _, err = runCLI(t, env, "export", "--format", "json", "--output", exportPath)
	if err != nil {
		t.Fatalf("export json: %v", err)
	}
	if !strings.Contains(out, "Exported 2 songs") {
		t.Fatalf("unexpected export output: %q", out)
	}
	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var payload struct {
		SongCount int            `json:"song_count"`
		Songs     []library.Song `json:"songs"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if payload.SongCount != 2 || len(payload.Songs) != 2 {
		t.Fatalf("unexpected export payload: %+v", payload)
	}

	out, _, err = runCLI(t, env, "stats", "--json")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var stats library.Statistics
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalSongs != 2 || stats.MostCommonStyle != "Jazz" {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestCLIBackupsRestore(t *testing.T) {
	env := setupCLITestEnv(t)
	doc := writeDoc(t, env, "chart.txt", "chords\n")

	for _, title := range []string{"First", "Second", "Third"} {
		if _, _, err := runCLI(t, env, "add", "--title", title, "--artist", "Various", "--doc", doc); err != nil {
			t.Fatalf("add %s: %v", title, err)
		}
	}

	out, _, err := runCLI(t, env, "backups", "list", "--json")
	if err != nil {
		t.Fatalf("backups list: %v", err)
	}
	var backups []store.Backup
	if err := json.Unmarshal([]byte(out), &backups); err != nil {
		t.Fatalf("decode backups: %v\n%s", err, out)
	}
	if len(backups) != 2 || backups[0].Slot != 1 || backups[0].SongCount != 2 {
		t.Fatalf("unexpected backups: %+v", backups)
	}

	out, _, err = runCLI(t, env, "backups", "restore", "1")
	if err != nil {
		t.Fatalf("backups restore: %v", err)
	}
	if !strings.Contains(out, "Restored 2 songs from backup slot 1") {
		t.Fatalf("unexpected restore output: %q", out)
	}

	out, _, err = runCLI(t, env, "list")
	if err != nil {
		t.Fatalf("list after restore: %v", err)
	}
	if strings.Contains(out, "Third") {
		t.Fatalf("restore kept the newest song: %q", out)
	}
	if !strings.Contains(out, "First") || !strings.Contains(out, "Second") {
		t.Fatalf("restored songs missing: %q", out)
	}
}

func TestCLIOpenAndThumb(t *testing.T) {
	env := setupCLITestEnv(t)

	lyric := writeDoc(t, env, "verse.txt", "line one\nline two\nline three\nline four\nline five\n")
	if _, _, err := runCLI(t, env, "add", "--title", "Verse", "--artist", "Various", "--doc", lyric); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, _, err := runCLI(t, env, "open", "Verse")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !strings.Contains(out, "-- Page 1 --") || !strings.Contains(out, "-- Page 3 --") {
		t.Fatalf("missing page headers: %q", out)
	}
	if !strings.Contains(out, "Loaded 3 pages") {
		t.Fatalf("unexpected open output: %q", out)
	}

	long := strings.Repeat("la la la\n", 40)
	score := writeDoc(t, env, "long.txt", long)
	if _, _, err := runCLI(t, env, "add", "--title", "Longform", "--artist", "Various", "--doc", score); err != nil {
		t.Fatalf("add long: %v", err)
	}
	out, _, err = runCLI(t, env, "open", "Longform", "--cancel-after", "1")
	if err != nil {
		t.Fatalf("open --cancel-after: %v", err)
	}
	if !strings.Contains(out, "Cancelled after 1 batches") {
		t.Fatalf("unexpected cancel output: %q", out)
	}

	cover := filepath.Join(env.mediaDir, "cover.png")
	testsupport.WritePNG(t, cover, 64, 48)
	if _, _, err := runCLI(t, env, "add", "--title", "Art", "--artist", "Various", "--doc", cover); err != nil {
		t.Fatalf("add art: %v", err)
	}
	thumbPath := filepath.Join(env.baseDir, "thumb.png")
	out, _, err = runCLI(t, env, "thumb", "Art", "--size", "32", "--output", thumbPath)
	if err != nil {
		t.Fatalf("thumb: %v", err)
	}
	if !strings.Contains(out, "Wrote "+thumbPath) {
		t.Fatalf("unexpected thumb output: %q", out)
	}
	if info, err := os.Stat(thumbPath); err != nil || info.Size() == 0 {
		t.Fatalf("thumbnail not written: %v", err)
	}

	out, _, err = runCLI(t, env, "cache", "stats")
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	if !strings.Contains(out, "Entries") {
		t.Fatalf("unexpected cache stats output: %q", out)
	}

	out, _, err = runCLI(t, env, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(out, "Cleared 1 thumbnails") {
		t.Fatalf("unexpected cache clear output: %q", out)
	}
}

func TestCLIConfigCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(env.baseDir, "fresh", "config.toml")
	out, _, err := runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration to "+target) {
		t.Fatalf("unexpected init output: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected second init to fail without --overwrite")
	} else if !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("unexpected init error: %v", err)
	}
	if _, _, err := runCLI(t, env, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Config path: "+env.configPath) || !strings.Contains(out, "Configuration valid") {
		t.Fatalf("unexpected validate output: %q", out)
	}
	if strings.Count(out, "(read/write ok)") != 3 {
		t.Fatalf("expected three directory checks, got %q", out)
	}

	out, _, err = runCLI(t, env, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "data_dir") || !strings.Contains(out, "[loader]") {
		t.Fatalf("unexpected config show output: %q", out)
	}
}

func TestCLILogs(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "logs")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if !strings.Contains(out, "No log entries available") {
		t.Fatalf("expected empty-log notice, got %q", out)
	}

	logPath := filepath.Join(env.baseDir, "logs", "songbook.log")
	testsupport.WriteText(t, logPath, "first entry\nsecond entry\nthird entry\n")

	out, _, err = runCLI(t, env, "logs", "-n", "2")
	if err != nil {
		t.Fatalf("logs -n 2: %v", err)
	}
	if strings.Contains(out, "first entry") {
		t.Fatalf("expected only the trailing lines, got %q", out)
	}
	if !strings.Contains(out, "second entry") || !strings.Contains(out, "third entry") {
		t.Fatalf("missing tail lines in %q", out)
	}
}
