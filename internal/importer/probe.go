package importer

import (
	"context"
	"os"
	"runtime"
	"strings"

	"github.com/dhowden/tag"
	"golang.org/x/sync/errgroup"

	"songbook/internal/logging"
)

// probeCandidates reads audio tags for every candidate that has audio
// files, a bounded number at a time. Probe failures leave the hints
// empty; only context cancellation aborts the run.
func (im *Importer) probeCandidates(ctx context.Context, candidates []*candidate) error {
	if !im.cfg.Import.ProbeTags {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, cand := range candidates {
		if len(cand.audios) == 0 {
			continue
		}
		cand := cand
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			cand.tagTitle, cand.tagArtist = im.probeAudioTags(cand.audios)
			return nil
		})
	}
	return g.Wait()
}

// probeAudioTags returns the first non-empty title and artist found in
// the given audio files, in order.
func (im *Importer) probeAudioTags(paths []string) (title, artist string) {
	for _, path := range paths {
		if title != "" && artist != "" {
			break
		}
		meta, err := readTags(path)
		if err != nil {
			im.logger.Debug("tag probe failed",
				logging.String(logging.FieldPath, path),
				logging.Error(err))
			continue
		}
		if title == "" {
			title = strings.TrimSpace(meta.Title())
		}
		if artist == "" {
			artist = strings.TrimSpace(meta.Artist())
		}
	}
	return title, artist
}

func readTags(path string) (tag.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tag.ReadFrom(f)
}
