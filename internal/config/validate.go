package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateThumbnails(); err != nil {
		return err
	}
	if err := c.validateLoader(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Thumbnails.Enabled && strings.TrimSpace(c.Paths.CacheDir) == "" {
		return errors.New("paths.cache_dir must be set when thumbnails.enabled is true")
	}
	return nil
}

func (c *Config) validateLibrary() error {
	if strings.ContainsAny(c.Library.FileName, "/\\") {
		return fmt.Errorf("library.file_name must be a bare file name, got %q", c.Library.FileName)
	}
	if c.Library.BackupCount < 1 || c.Library.BackupCount > 50 {
		return errors.New("library.backup_count must be between 1 and 50")
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.MinTokenLength < 1 {
		return errors.New("search.min_token_length must be >= 1")
	}
	return nil
}

func (c *Config) validateThumbnails() error {
	if !c.Thumbnails.Enabled {
		return nil
	}
	if err := ensurePositiveMap(map[string]int{
		"thumbnails.max_mib":      c.Thumbnails.MaxMiB,
		"thumbnails.max_entries":  c.Thumbnails.MaxEntries,
		"thumbnails.default_size": c.Thumbnails.DefaultSize,
	}); err != nil {
		return err
	}
	if c.Thumbnails.MinFreeMiB < 0 {
		return errors.New("thumbnails.min_free_mib must be >= 0")
	}
	return nil
}

func (c *Config) validateLoader() error {
	return ensurePositiveMap(map[string]int{
		"loader.page_batch_size": c.Loader.PageBatchSize,
		"loader.workers":         c.Loader.Workers,
		"loader.text_page_lines": c.Loader.TextPageLines,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
