package importer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"songbook/internal/config"
	"songbook/internal/engine"
	"songbook/internal/library"
	"songbook/internal/logging"
	"songbook/internal/textutil"
)

// nearDuplicateThreshold is the cosine similarity above which an
// incoming song is flagged as a likely duplicate of an existing one.
const nearDuplicateThreshold = 0.8

// Importer scans folder trees and feeds the resulting songs through
// the engine's add path.
type Importer struct {
	cfg    *config.Config
	engine *engine.Engine
	logger *slog.Logger

	extensions map[string]mediaKind
}

// Options controls a single import run.
type Options struct {
	// CopyFiles copies media into the managed library tree and points
	// the imported songs at the copies.
	CopyFiles bool
	// DryRun reports what would be imported without touching the
	// catalog or the filesystem.
	DryRun bool
	// Style is applied to every imported song.
	Style string
}

// Skipped records one candidate directory that produced no song.
type Skipped struct {
	Dir    string `json:"dir"`
	Reason string `json:"reason"`
}

// Report summarizes an import run. On DryRun, Added holds the songs
// that would have been created.
type Report struct {
	Root     string         `json:"root"`
	Scanned  int            `json:"scanned"`
	Added    []library.Song `json:"added,omitempty"`
	Skipped  []Skipped      `json:"skipped,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
}

// New builds an importer bound to the given engine.
func New(cfg *config.Config, eng *engine.Engine, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Importer{
		cfg:        cfg,
		engine:     eng,
		logger:     logging.NewComponentLogger(logger, "importer"),
		extensions: buildExtensionTable(cfg),
	}
}

// Run scans root, probes audio tags, and adds one song per candidate
// directory. Candidates the engine rejects are reported as skipped
// rather than aborting the run.
func (im *Importer) Run(ctx context.Context, root string, opts Options) (*Report, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, library.Wrap(library.ErrIO, "importer", "run", "resolve import root", err)
	}

	candidates, err := im.scan(ctx, absRoot)
	if err != nil {
		return nil, err
	}
	if err := im.probeCandidates(ctx, candidates); err != nil {
		return nil, err
	}

	report := &Report{Root: absRoot, Scanned: len(candidates)}
	known := im.knownFingerprints()

	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return report, library.Wrap(library.ErrCancelled, "importer", "run", "import interrupted", err)
		}

		song, reason := im.buildSong(cand, opts)
		if reason != "" {
			report.Skipped = append(report.Skipped, Skipped{Dir: cand.dir, Reason: reason})
			im.logger.Debug("skipped import candidate",
				logging.String(logging.FieldPath, cand.dir),
				logging.String("reason", reason))
			continue
		}

		if name, score := nearestKnown(known, song); score >= nearDuplicateThreshold {
			warning := fmt.Sprintf("%s looks like a duplicate of %s (similarity %.2f)",
				song.DisplayName(), name, score)
			report.Warnings = append(report.Warnings, warning)
			im.logger.Warn("possible duplicate import",
				logging.String("song", song.DisplayName()),
				logging.String("existing", name))
		}

		if opts.DryRun {
			report.Added = append(report.Added, song)
			known = append(known, fingerprintEntry(song))
			continue
		}

		if opts.CopyFiles {
			if err := im.stageMedia(cand, &song); err != nil {
				report.Skipped = append(report.Skipped, Skipped{Dir: cand.dir, Reason: err.Error()})
				im.logger.Warn("copy into library failed",
					logging.String(logging.FieldPath, cand.dir),
					logging.Error(err))
				continue
			}
		}

		added, err := im.engine.AddSong(song)
		if err != nil {
			report.Skipped = append(report.Skipped, Skipped{Dir: cand.dir, Reason: err.Error()})
			im.logger.Warn("song rejected",
				logging.String(logging.FieldPath, cand.dir),
				logging.Error(err))
			continue
		}
		report.Added = append(report.Added, added)
		known = append(known, fingerprintEntry(added))
	}

	im.logger.Info("import finished",
		logging.String(logging.FieldPath, absRoot),
		logging.Int("scanned", report.Scanned),
		logging.Int("added", len(report.Added)),
		logging.Int("skipped", len(report.Skipped)))
	return report, nil
}

// buildSong derives a validated song from a candidate directory. The
// directory name takes precedence; tag hints fill fields the name did
// not provide. A non-empty reason means the candidate is skipped.
func (im *Importer) buildSong(cand *candidate, opts Options) (library.Song, string) {
	artist, title := splitFolderName(cand.name)
	if title == "" {
		title = cand.tagTitle
	}
	if artist == "" {
		artist = cand.tagArtist
	}

	song := library.Song{
		Title:     title,
		Artist:    artist,
		Style:     opts.Style,
		Documents: append([]string(nil), cand.documents...),
		Audios:    append([]string(nil), cand.audios...),
		Videos:    append([]string(nil), cand.videos...),
	}
	song.Normalize()
	if err := song.Validate(); err != nil {
		return library.Song{}, err.Error()
	}
	return song, ""
}

// splitFolderName interprets "Artist - Title" directory names. Without
// the separator the whole name is the title.
func splitFolderName(name string) (artist, title string) {
	name = strings.TrimSpace(name)
	if left, right, found := strings.Cut(name, " - "); found {
		left = strings.TrimSpace(left)
		right = strings.TrimSpace(right)
		if left != "" && right != "" {
			return left, right
		}
	}
	return "", name
}

type knownSong struct {
	name        string
	fingerprint *textutil.Fingerprint
}

func fingerprintEntry(song library.Song) knownSong {
	return knownSong{
		name:        song.DisplayName(),
		fingerprint: textutil.NewFingerprint(song.Title + " " + song.Artist),
	}
}

func (im *Importer) knownFingerprints() []knownSong {
	songs := im.engine.ListAll()
	known := make([]knownSong, 0, len(songs))
	for _, song := range songs {
		known = append(known, fingerprintEntry(song))
	}
	return known
}

// nearestKnown returns the closest existing song by title/artist token
// similarity.
func nearestKnown(known []knownSong, song library.Song) (string, float64) {
	incoming := textutil.NewFingerprint(song.Title + " " + song.Artist)
	var (
		bestName  string
		bestScore float64
	)
	for _, entry := range known {
		score := textutil.CosineSimilarity(incoming, entry.fingerprint)
		if score > bestScore {
			bestName = entry.name
			bestScore = score
		}
	}
	return bestName, bestScore
}
