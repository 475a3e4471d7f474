package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"songbook/internal/engine"
	"songbook/internal/importer"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var copyFiles, dryRun, asJSON bool
	var style string

	cmd := &cobra.Command{
		Use:   "import <directory>",
		Short: "Import songs from a folder tree",
		Long: `Import scans a directory tree and adds one song per folder that
contains media files. Folder names in "Artist - Title" form set the
song identity; audio tags fill in whatever the name leaves blank.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts := importer.Options{
				CopyFiles: cfg.Import.CopyFiles,
				DryRun:    dryRun,
				Style:     style,
			}
			if cmd.Flags().Changed("copy") {
				opts.CopyFiles = copyFiles
			}
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				report, err := importer.New(cfg, eng, ctx.buildLogger(cfg)).Run(runCtx, args[0], opts)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, report)
				}
				printImportReport(cmd, report, dryRun)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&copyFiles, "copy", false, "Copy media into the library directory")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be imported without adding songs")
	cmd.Flags().StringVar(&style, "style", "", "Style applied to every imported song")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the report as JSON")
	return cmd
}

func printImportReport(cmd *cobra.Command, report *importer.Report, dryRun bool) {
	out := cmd.OutOrStdout()
	color := shouldColorize(out)

	if len(report.Added) > 0 {
		rows := make([][]string, 0, len(report.Added))
		for _, song := range report.Added {
			rows = append(rows, []string{
				song.Title,
				song.Artist,
				strconv.Itoa(len(song.Documents)),
				strconv.Itoa(len(song.Audios)),
				strconv.Itoa(len(song.Videos)),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Title", "Artist", "Docs", "Audio", "Video"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
		))
	}
	for _, skip := range report.Skipped {
		fmt.Fprintf(out, "Skipped %s: %s\n", skip.Dir, skip.Reason)
	}
	for _, warning := range report.Warnings {
		fmt.Fprintln(out, colorize("Warning: "+warning, ansiYellow, color))
	}

	verb := "added"
	if dryRun {
		verb = "would be added"
	}
	fmt.Fprintf(out, "Scanned %d folders under %s: %d %s, %d skipped\n",
		report.Scanned, report.Root, len(report.Added), verb, len(report.Skipped))
}
