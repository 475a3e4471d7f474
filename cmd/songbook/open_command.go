package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"songbook/internal/docload"
	"songbook/internal/engine"
	"songbook/internal/library"
)

func newOpenCommand(ctx *commandContext) *cobra.Command {
	var docIndex int
	var cancelAfter int

	cmd := &cobra.Command{
		Use:   "open <song>",
		Short: "Stream a song document page by page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				song, err := resolveSong(eng, args[0])
				if err != nil {
					return err
				}
				sess, err := eng.OpenDocument(runCtx, song.ID, docIndex)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				color := shouldColorize(out)
				fmt.Fprintf(out, "Opening %s\n", sess.Source())

				batches := 0
				for {
					pages, err := sess.Next(runCtx)
					if err != nil {
						if errors.Is(err, io.EOF) {
							break
						}
						if errors.Is(err, library.ErrCancelled) {
							fmt.Fprintln(out, "Session cancelled")
							return nil
						}
						return err
					}
					for _, page := range pages {
						header := fmt.Sprintf("-- Page %d --", page.Number)
						fmt.Fprintln(out, colorize(header, ansiBlue, color))
						if page.Kind == docload.PageImage {
							fmt.Fprintf(out, "[image] %s\n", page.Source)
						} else {
							fmt.Fprintln(out, page.Text)
						}
					}
					batches++
					if cancelAfter > 0 && batches >= cancelAfter {
						eng.CancelSession(sess.ID())
						<-sess.Done()
						fmt.Fprintf(out, "Cancelled after %d batches\n", batches)
						return nil
					}
				}
				fmt.Fprintf(out, "Loaded %d pages\n", sess.PageCount())
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&docIndex, "doc", 0, "Document index to open (show lists them)")
	cmd.Flags().IntVar(&cancelAfter, "cancel-after", 0, "Cancel after this many page batches (0 streams to the end)")
	return cmd
}
