package importer

import (
	"os"
	"path/filepath"

	"songbook/internal/fileutil"
	"songbook/internal/library"
	"songbook/internal/logging"
	"songbook/internal/textutil"
)

// stageMedia copies the candidate's files into the managed media tree
// and rewrites the song's references to the copies. Copies are hash
// verified; name collisions get numbered suffixes.
func (im *Importer) stageMedia(cand *candidate, song *library.Song) error {
	base := filepath.Join(im.cfg.MediaDir(),
		folderName(song.Artist, "Unknown Artist"),
		folderName(song.Title, "Untitled"))

	docs, err := im.copyGroup(base, "documents", cand.documents)
	if err != nil {
		return err
	}
	audios, err := im.copyGroup(base, "audio", cand.audios)
	if err != nil {
		return err
	}
	videos, err := im.copyGroup(base, "video", cand.videos)
	if err != nil {
		return err
	}

	song.Documents = docs
	song.Audios = audios
	song.Videos = videos
	im.logger.Debug("staged media into library",
		logging.String(logging.FieldPath, base),
		logging.Int("files", len(docs)+len(audios)+len(videos)))
	return nil
}

func (im *Importer) copyGroup(base, subdir string, paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	destDir := filepath.Join(base, subdir)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, library.Wrap(library.ErrPersistence, "importer", "copy", "create media directory", err)
	}
	out := make([]string, 0, len(paths))
	for _, src := range paths {
		name := textutil.SanitizeFileName(filepath.Base(src))
		dst := fileutil.UniquePath(filepath.Join(destDir, name))
		if err := fileutil.CopyFileVerified(src, dst); err != nil {
			return nil, library.Wrap(library.ErrPersistence, "importer", "copy", "copy media file", err)
		}
		out = append(out, dst)
	}
	return out, nil
}

func folderName(value, fallback string) string {
	name := textutil.SanitizeFileName(value)
	if name == "" {
		return fallback
	}
	return name
}
