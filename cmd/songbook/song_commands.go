package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"songbook/internal/engine"
	"songbook/internal/library"
	"songbook/internal/textutil"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var title, artist, style, tempo string
	var docs, audios, videos []string
	var metaFlags []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a song to the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			metadata, err := parseMetaFlags(metaFlags)
			if err != nil {
				return err
			}
			song := library.Song{
				Title:    title,
				Artist:   artist,
				Style:    style,
				Tempo:    tempo,
				Metadata: metadata,
			}
			if song.Documents, err = absAll(docs); err != nil {
				return err
			}
			if song.Audios, err = absAll(audios); err != nil {
				return err
			}
			if song.Videos, err = absAll(videos); err != nil {
				return err
			}
			return ctx.withEngine(cmd, func(_ context.Context, eng *engine.Engine) error {
				added, err := eng.AddSong(song)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %q (%s)\n", added.DisplayName(), added.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Song title")
	cmd.Flags().StringVarP(&artist, "artist", "a", "", "Song artist")
	cmd.Flags().StringVar(&style, "style", "", "Musical style")
	cmd.Flags().StringVar(&tempo, "tempo", "", "Tempo description")
	cmd.Flags().StringArrayVar(&docs, "doc", nil, "Document file to reference (repeatable)")
	cmd.Flags().StringArrayVar(&audios, "audio", nil, "Audio file to reference (repeatable)")
	cmd.Flags().StringArrayVar(&videos, "video", nil, "Video file to reference (repeatable)")
	cmd.Flags().StringArrayVar(&metaFlags, "meta", nil, "Metadata as key=value (repeatable)")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <song>",
		Short: "Display one song in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(_ context.Context, eng *engine.Engine) error {
				song, err := resolveSong(eng, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, song)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, song.DisplayName())
				details := [][2]string{
					{"ID", song.ID},
					{"Style", textutil.Ternary(song.Style != "", song.Style, "-")},
					{"Tempo", textutil.Ternary(song.Tempo != "", song.Tempo, "-")},
					{"Added", song.CreatedAt.Local().Format("2006-01-02 15:04")},
					{"Updated", song.UpdatedAt.Local().Format("2006-01-02 15:04")},
				}
				for _, line := range renderDetails(details) {
					fmt.Fprintln(out, line)
				}

				printMediaGroup(out, "Documents", song.Documents)
				printMediaGroup(out, "Audio", song.Audios)
				printMediaGroup(out, "Video", song.Videos)

				if len(song.Metadata) > 0 {
					keys := make([]string, 0, len(song.Metadata))
					for key := range song.Metadata {
						keys = append(keys, key)
					}
					sort.Strings(keys)
					fmt.Fprintln(out, "Metadata:")
					for _, key := range keys {
						fmt.Fprintf(out, "  %s: %s\n", key, song.Metadata[key])
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	return cmd
}

// printMediaGroup lists one media slice with zero-based indexes, so the
// printed numbers line up with the --doc flag of open and thumb.
func printMediaGroup(out io.Writer, label string, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintf(out, "%s:\n", label)
	for i, path := range paths {
		marker := ""
		if _, err := os.Stat(path); err != nil {
			marker = "  (missing)"
		}
		fmt.Fprintf(out, "  [%d] %s%s\n", i, path, marker)
	}
}

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var title, artist, style, tempo string
	var addDocs, addAudios, addVideos []string
	var metaFlags []string

	cmd := &cobra.Command{
		Use:   "update <song>",
		Short: "Modify an existing song",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metadata, err := parseMetaFlags(metaFlags)
			if err != nil {
				return err
			}
			return ctx.withEngine(cmd, func(_ context.Context, eng *engine.Engine) error {
				song, err := resolveSong(eng, args[0])
				if err != nil {
					return err
				}
				flags := cmd.Flags()
				if flags.Changed("title") {
					song.Title = title
				}
				if flags.Changed("artist") {
					song.Artist = artist
				}
				if flags.Changed("style") {
					song.Style = style
				}
				if flags.Changed("tempo") {
					song.Tempo = tempo
				}
				for _, group := range []struct {
					values []string
					target *[]string
				}{
					{addDocs, &song.Documents},
					{addAudios, &song.Audios},
					{addVideos, &song.Videos},
				} {
					paths, err := absAll(group.values)
					if err != nil {
						return err
					}
					*group.target = append(*group.target, paths...)
				}
				// The engine merges metadata key by key, so only the
				// changed entries travel with the update.
				song.Metadata = metadata

				updated, err := eng.UpdateSong(song)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %q\n", updated.DisplayName())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&artist, "artist", "a", "", "New artist")
	cmd.Flags().StringVar(&style, "style", "", "New style")
	cmd.Flags().StringVar(&tempo, "tempo", "", "New tempo")
	cmd.Flags().StringArrayVar(&addDocs, "add-doc", nil, "Document file to append (repeatable)")
	cmd.Flags().StringArrayVar(&addAudios, "add-audio", nil, "Audio file to append (repeatable)")
	cmd.Flags().StringArrayVar(&addVideos, "add-video", nil, "Video file to append (repeatable)")
	cmd.Flags().StringArrayVar(&metaFlags, "meta", nil, "Metadata as key=value; empty value deletes the key (repeatable)")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <song>",
		Aliases: []string{"rm"},
		Short:   "Remove a song from the library",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(_ context.Context, eng *engine.Engine) error {
				song, err := resolveSong(eng, args[0])
				if err != nil {
					return err
				}
				removed, err := eng.RemoveSong(song.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %q\n", removed.DisplayName())
				return nil
			})
		},
	}
	return cmd
}

// absAll resolves each path against the current directory so stored
// references stay valid regardless of where songbook later runs.
func absAll(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve path %q: %w", path, err)
		}
		out = append(out, abs)
	}
	return out, nil
}
