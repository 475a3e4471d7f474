package importer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"songbook/internal/config"
	"songbook/internal/library"
)

type mediaKind int

const (
	kindNone mediaKind = iota
	kindDocument
	kindAudio
	kindVideo
)

// candidate is one directory's worth of media files, plus whatever the
// tag probe learned about it.
type candidate struct {
	dir       string
	name      string
	documents []string
	audios    []string
	videos    []string

	tagTitle  string
	tagArtist string
}

func buildExtensionTable(cfg *config.Config) map[string]mediaKind {
	table := make(map[string]mediaKind)
	add := func(exts []string, kind mediaKind) {
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			table[ext] = kind
		}
	}
	add(cfg.Import.DocumentExtensions, kindDocument)
	add(cfg.Import.AudioExtensions, kindAudio)
	add(cfg.Import.VideoExtensions, kindVideo)
	return table
}

func (im *Importer) classify(path string) mediaKind {
	return im.extensions[strings.ToLower(filepath.Ext(path))]
}

// scan walks root and groups recognized media files by their containing
// directory. Hidden directories are not descended into. Candidates and
// their file lists come back sorted so runs are deterministic.
func (im *Importer) scan(ctx context.Context, root string) ([]*candidate, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, library.Wrap(library.MarkerForPathError(err), "importer", "scan", "inspect import root", err)
	}
	if !info.IsDir() {
		return nil, library.Wrap(library.ErrValidation, "importer", "scan", "import root must be a directory", nil)
	}

	byDir := make(map[string]*candidate)
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			if path != root && strings.HasPrefix(entry.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		kind := im.classify(path)
		if kind == kindNone {
			return nil
		}
		dir := filepath.Dir(path)
		cand := byDir[dir]
		if cand == nil {
			cand = &candidate{dir: dir, name: filepath.Base(dir)}
			byDir[dir] = cand
		}
		switch kind {
		case kindDocument:
			cand.documents = append(cand.documents, path)
		case kindAudio:
			cand.audios = append(cand.audios, path)
		case kindVideo:
			cand.videos = append(cand.videos, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, library.Wrap(library.MarkerForPathError(walkErr), "importer", "scan", "walk import root", walkErr)
	}

	candidates := make([]*candidate, 0, len(byDir))
	for _, cand := range byDir {
		sort.Strings(cand.documents)
		sort.Strings(cand.audios)
		sort.Strings(cand.videos)
		candidates = append(candidates, cand)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].dir < candidates[j].dir
	})
	return candidates, nil
}
