// Package testsupport provides shared helpers for package tests:
// temp-dir backed configs, media file fixtures, and song builders.
package testsupport

import (
	"path/filepath"
	"testing"

	"songbook/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBackupCount overrides the number of retained backup slots.
func WithBackupCount(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Library.BackupCount = n
	}
}

// WithAutoBackup toggles backup rotation on save.
func WithAutoBackup(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Library.AutoBackup = enabled
	}
}

// WithPageBatchSize overrides the document loader batch size.
func WithPageBatchSize(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Loader.PageBatchSize = n
	}
}

// WithTextPageLines overrides how many lines make up one text page.
func WithTextPageLines(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Loader.TextPageLines = n
	}
}

// WithLoaderWorkers overrides the loader worker pool size.
func WithLoaderWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Loader.Workers = n
	}
}

// WithThumbnailBudget overrides the thumbnail cache byte and entry limits.
func WithThumbnailBudget(maxMiB, maxEntries int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Thumbnails.MaxMiB = maxMiB
		b.cfg.Thumbnails.MaxEntries = maxEntries
	}
}

// WithThumbnailsEnabled toggles the thumbnail cache on or off.
func WithThumbnailsEnabled(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Thumbnails.Enabled = enabled
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
