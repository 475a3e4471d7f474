package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"songbook/internal/engine"
	"songbook/internal/fileutil"
	"songbook/internal/textutil"
)

func newThumbCommand(ctx *commandContext) *cobra.Command {
	var docIndex, size int
	var output string

	cmd := &cobra.Command{
		Use:   "thumb <song>",
		Short: "Render a thumbnail for a song document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				song, err := resolveSong(eng, args[0])
				if err != nil {
					return err
				}
				data, err := eng.Thumbnail(runCtx, song.ID, docIndex, size)
				if err != nil {
					return err
				}
				target := output
				if target == "" {
					target = textutil.SanitizeFileName(song.DisplayName()) + ".png"
				}
				if err := os.WriteFile(target, data, 0o644); err != nil {
					return fmt.Errorf("write thumbnail: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", target, fileutil.FormatSize(int64(len(data))))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&docIndex, "doc", 0, "Document index to render (show lists them)")
	cmd.Flags().IntVar(&size, "size", 0, "Longest edge in pixels (0 uses the configured default)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default derives from the song name)")
	return cmd
}

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Thumbnail cache utilities",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show thumbnail cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				stats, err := eng.ThumbnailStats(runCtx)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, stats)
				}
				rows := [][]string{
					{"Entries", fmt.Sprintf("%d / %d", stats.Entries, stats.MaxEntries)},
					{"Size", fmt.Sprintf("%s / %s", fileutil.FormatSize(stats.TotalBytes), fileutil.FormatSize(stats.MaxBytes))},
					{"Disk free", fmt.Sprintf("%s (%.0f%%)", fileutil.FormatSize(int64(stats.FreeBytes)), stats.FreeRatio*100)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Metric", "Value"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop all cached thumbnails",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				removed, err := eng.ClearThumbnails(runCtx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d thumbnails\n", removed)
				return nil
			})
		},
	}
}
