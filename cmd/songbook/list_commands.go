package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"songbook/internal/engine"
	"songbook/internal/index"
	"songbook/internal/library"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var artist, style, sortBy string
	var reverse, asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List songs in the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, ok := library.ParseSortKey(sortBy)
			if !ok {
				return fmt.Errorf("unknown sort key %q (use title, artist, style, or added)", sortBy)
			}
			return ctx.withEngine(cmd, func(_ context.Context, eng *engine.Engine) error {
				songs := eng.ListAll()
				total := len(songs)
				if artist != "" {
					songs = library.FilterByArtist(songs, artist)
				}
				if style != "" {
					songs = library.FilterByStyle(songs, style)
				}
				songs = library.SortSongs(songs, key, reverse)

				if asJSON {
					return writeJSON(cmd, songs)
				}
				out := cmd.OutOrStdout()
				if len(songs) == 0 {
					if total == 0 {
						fmt.Fprintln(out, "Library is empty")
					} else {
						fmt.Fprintln(out, "No songs match the filters")
					}
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Title", "Artist", "Style", "Media", "Added"},
					buildSongRows(songs),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&artist, "artist", "a", "", "Only songs by this artist")
	cmd.Flags().StringVar(&style, "style", "", "Only songs in this style")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort by title, artist, style, or added (default added)")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "Reverse the sort order")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var fieldFlag string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search songs by title, artist, or style",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := index.ParseField(fieldFlag)
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			return ctx.withEngine(cmd, func(_ context.Context, eng *engine.Engine) error {
				songs := eng.Search(query, field)
				if asJSON {
					return writeJSON(cmd, songs)
				}
				out := cmd.OutOrStdout()
				if len(songs) == 0 {
					fmt.Fprintln(out, "No matches")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Title", "Artist", "Style", "ID"},
					buildMatchRows(songs),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&fieldFlag, "field", "f", "", "Restrict matching to title, artist, or style")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show library statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(_ context.Context, eng *engine.Engine) error {
				stats := eng.Statistics()
				if asJSON {
					return writeJSON(cmd, stats)
				}
				rows := [][]string{
					{"Songs", strconv.Itoa(stats.TotalSongs)},
					{"Artists", strconv.Itoa(stats.TotalArtists)},
					{"Styles", strconv.Itoa(stats.TotalStyles)},
					{"With documents", strconv.Itoa(stats.SongsWithDocuments)},
					{"With audio", strconv.Itoa(stats.SongsWithAudio)},
					{"With video", strconv.Itoa(stats.SongsWithVideo)},
				}
				if stats.MostProlificArtist != "" {
					rows = append(rows, []string{"Top artist", stats.MostProlificArtist})
				}
				if stats.MostCommonStyle != "" {
					rows = append(rows, []string{"Top style", stats.MostCommonStyle})
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

func buildSongRows(songs []library.Song) [][]string {
	rows := make([][]string, 0, len(songs))
	for i, song := range songs {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			song.Title,
			song.Artist,
			song.Style,
			strconv.Itoa(song.MediaCount()),
			song.CreatedAt.Local().Format("2006-01-02"),
		})
	}
	return rows
}

func buildMatchRows(songs []library.Song) [][]string {
	rows := make([][]string, 0, len(songs))
	for i, song := range songs {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			song.Title,
			song.Artist,
			song.Style,
			shortID(song.ID),
		})
	}
	return rows
}

// shortID abbreviates a song ID for table output. Commands accept the
// prefix back, so the short form stays usable.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
