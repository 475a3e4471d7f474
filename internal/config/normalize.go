package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLibrary()
	c.normalizeThumbnails()
	c.normalizeLoader()
	c.normalizeImport()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = ExpandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = ExpandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLibrary() {
	c.Library.FileName = strings.TrimSpace(c.Library.FileName)
	if c.Library.FileName == "" {
		c.Library.FileName = defaultLibraryFileName
	}
	if c.Library.BackupCount <= 0 {
		c.Library.BackupCount = defaultBackupCount
	}
}

func (c *Config) normalizeThumbnails() {
	if c.Thumbnails.MaxMiB <= 0 {
		c.Thumbnails.MaxMiB = defaultThumbMaxMiB
	}
	if c.Thumbnails.MaxEntries <= 0 {
		c.Thumbnails.MaxEntries = defaultThumbMaxEntries
	}
	if c.Thumbnails.DefaultSize <= 0 {
		c.Thumbnails.DefaultSize = defaultThumbSize
	}
	if c.Thumbnails.MinFreeMiB < 0 {
		c.Thumbnails.MinFreeMiB = defaultThumbMinFreeMiB
	}
}

func (c *Config) normalizeLoader() {
	if c.Loader.PageBatchSize <= 0 {
		c.Loader.PageBatchSize = defaultPageBatchSize
	}
	if c.Loader.Workers <= 0 {
		c.Loader.Workers = defaultLoaderWorkers
	}
	if c.Loader.TextPageLines <= 0 {
		c.Loader.TextPageLines = defaultTextPageLines
	}
}

func (c *Config) normalizeImport() {
	c.Import.DocumentExtensions = normalizeExtensions(c.Import.DocumentExtensions, defaultDocumentExtensions())
	c.Import.AudioExtensions = normalizeExtensions(c.Import.AudioExtensions, defaultAudioExtensions())
	c.Import.VideoExtensions = normalizeExtensions(c.Import.VideoExtensions, defaultVideoExtensions())
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// normalizeExtensions lowercases entries, guarantees a leading dot, and
// removes duplicates while preserving order. An empty result falls back.
func normalizeExtensions(values []string, fallback []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		ext := strings.ToLower(strings.TrimSpace(value))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
