package docload

import (
	"fmt"
	"image"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"songbook/internal/library"
)

type imageExtractor struct {
	source string
	label  string
}

func openImage(source string) (extractor, error) {
	f, err := os.Open(source)
	if err != nil {
		return nil, library.Wrap(library.MarkerForPathError(err), "docload", "open", "open image", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, library.Wrap(library.ErrIO, "docload", "open", "decode image header", err)
	}
	return &imageExtractor{
		source: source,
		label:  fmt.Sprintf("%s %dx%d", format, cfg.Width, cfg.Height),
	}, nil
}

func (e *imageExtractor) pageCount() int { return 1 }

func (e *imageExtractor) page(number int) (Page, error) {
	return Page{Number: number, Kind: PageImage, Text: e.label, Source: e.source}, nil
}
