package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
}

// Library contains configuration for catalog persistence.
type Library struct {
	FileName    string `toml:"file_name"`
	AutoBackup  bool   `toml:"auto_backup"`
	BackupCount int    `toml:"backup_count"`
}

// Search contains configuration for the in-memory search index.
type Search struct {
	MinTokenLength int `toml:"min_token_length"`
}

// Thumbnails contains configuration for the thumbnail cache.
type Thumbnails struct {
	Enabled     bool `toml:"enabled"`
	MaxMiB      int  `toml:"max_mib"`
	MaxEntries  int  `toml:"max_entries"`
	DefaultSize int  `toml:"default_size"`
	MinFreeMiB  int  `toml:"min_free_mib"`
}

// Loader contains configuration for document loading sessions.
type Loader struct {
	PageBatchSize int `toml:"page_batch_size"`
	Workers       int `toml:"workers"`
	TextPageLines int `toml:"text_page_lines"`
}

// Import contains configuration for folder imports.
type Import struct {
	DocumentExtensions []string `toml:"document_extensions"`
	AudioExtensions    []string `toml:"audio_extensions"`
	VideoExtensions    []string `toml:"video_extensions"`
	CopyFiles          bool     `toml:"copy_files"`
	ProbeTags          bool     `toml:"probe_tags"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Songbook.
//
// Configuration sections by subsystem:
//   - Paths: data, cache, and log directories
//   - Library: catalog file name and backup rotation
//   - Search: index tokenization knobs
//   - Thumbnails: cache budgets and default render size
//   - Loader: page batching and worker pool sizing
//   - Import: media extension sets and tag probing
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Library    Library    `toml:"library"`
	Search     Search     `toml:"search"`
	Thumbnails Thumbnails `toml:"thumbnails"`
	Loader     Loader     `toml:"loader"`
	Import     Import     `toml:"import"`
	Logging    Logging    `toml:"logging"`
}

// CatalogPath returns the absolute path of the persisted catalog file.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Paths.DataDir, c.Library.FileName)
}

// BackupDir returns the directory holding rotated catalog backups.
func (c *Config) BackupDir() string {
	return filepath.Join(c.Paths.DataDir, "backup")
}

// MediaDir returns the directory imports copy media files into.
func (c *Config) MediaDir() string {
	return filepath.Join(c.Paths.DataDir, "media")
}

// ThumbnailDir returns the directory holding cached thumbnails.
func (c *Config) ThumbnailDir() string {
	return filepath.Join(c.Paths.CacheDir, "thumbs")
}

// LogFilePath returns the path of the rolling log file.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "songbook.log")
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/songbook/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("songbook.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for engine operation.
// The cache directory is created on a best-effort basis so the engine can
// run with thumbnails unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Thumbnails.Enabled && strings.TrimSpace(c.Paths.CacheDir) != "" {
		_ = os.MkdirAll(c.Paths.CacheDir, 0o755)
	}
	return nil
}

// ExpandPath expands a leading tilde and resolves the result to an absolute path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
