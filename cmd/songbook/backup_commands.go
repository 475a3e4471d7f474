package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"songbook/internal/engine"
	"songbook/internal/fileutil"
)

func newBackupsCommand(ctx *commandContext) *cobra.Command {
	backupsCmd := &cobra.Command{
		Use:   "backups",
		Short: "Inspect and restore catalog backups",
	}

	backupsCmd.AddCommand(newBackupsListCommand(ctx))
	backupsCmd.AddCommand(newBackupsRestoreCommand(ctx))

	return backupsCmd
}

func newBackupsListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog backup slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(_ context.Context, eng *engine.Engine) error {
				backups, err := eng.Backups()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, backups)
				}
				out := cmd.OutOrStdout()
				if len(backups) == 0 {
					fmt.Fprintln(out, "No backups yet")
					return nil
				}
				rows := make([][]string, 0, len(backups))
				for _, backup := range backups {
					songs := strconv.Itoa(backup.SongCount)
					if backup.Corrupt {
						songs = "corrupt"
					}
					rows = append(rows, []string{
						strconv.Itoa(backup.Slot),
						backup.SavedAt.Local().Format("2006-01-02 15:04:05"),
						songs,
						fileutil.FormatSize(backup.SizeBytes),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Slot", "Saved", "Songs", "Size"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newBackupsRestoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <slot>",
		Short: "Replace the live catalog with a backup slot",
		Long: `Restore swaps the chosen backup in as the live catalog. The current
catalog is kept as the newest backup slot, so a restore can itself be
undone with another restore.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid backup slot %q", args[0])
			}
			return ctx.withEngine(cmd, func(_ context.Context, eng *engine.Engine) error {
				count, err := eng.RestoreBackup(slot)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %d songs from backup slot %d\n", count, slot)
				return nil
			})
		},
	}
}
