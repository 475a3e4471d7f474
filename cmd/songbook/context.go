package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"songbook/internal/config"
	"songbook/internal/engine"
	"songbook/internal/library"
	"songbook/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// buildLogger writes structured logs to the configured log file only,
// keeping stdout free for command output.
func (c *commandContext) buildLogger(cfg *config.Config) *slog.Logger {
	logPath := cfg.LogFilePath()
	logger, err := logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// withEngine opens the library engine for the duration of one command.
// The engine holds the library lock, so overlapping songbook processes
// fail fast instead of corrupting the catalog.
func (c *commandContext) withEngine(cmd *cobra.Command, fn func(ctx context.Context, eng *engine.Engine) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	eng, err := engine.New(cfg, c.buildLogger(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()
	return fn(cmd.Context(), eng)
}

// resolveSong accepts a full song ID, a unique ID prefix, or an exact
// (case-insensitive) title and returns the matching song.
func resolveSong(eng *engine.Engine, key string) (library.Song, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return library.Song{}, fmt.Errorf("song ID or title is required")
	}
	if song, err := eng.Song(key); err == nil {
		return song, nil
	}

	lower := strings.ToLower(key)
	var byPrefix, byTitle []library.Song
	for _, song := range eng.ListAll() {
		if strings.HasPrefix(strings.ToLower(song.ID), lower) {
			byPrefix = append(byPrefix, song)
		}
		if strings.EqualFold(song.Title, key) {
			byTitle = append(byTitle, song)
		}
	}
	if len(byPrefix) == 1 {
		return byPrefix[0], nil
	}
	switch len(byTitle) {
	case 1:
		return byTitle[0], nil
	case 0:
		if len(byPrefix) > 1 {
			return library.Song{}, fmt.Errorf("song ID prefix %q is ambiguous (%d matches)", key, len(byPrefix))
		}
		return library.Song{}, fmt.Errorf("no song matching %q; try `songbook search` to find its ID", key)
	default:
		names := make([]string, 0, len(byTitle))
		for _, song := range byTitle {
			names = append(names, fmt.Sprintf("%s (%s)", song.DisplayName(), shortID(song.ID)))
		}
		return library.Song{}, fmt.Errorf("%d songs titled %q: %s", len(byTitle), key, strings.Join(names, ", "))
	}
}

// parseMetaFlags turns repeated key=value flags into a metadata map.
// An empty value marks the key for deletion on update.
func parseMetaFlags(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	meta := make(map[string]string, len(values))
	for _, raw := range values {
		key, value, found := strings.Cut(raw, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("invalid metadata %q (expected key=value)", raw)
		}
		meta[key] = strings.TrimSpace(value)
	}
	return meta, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
