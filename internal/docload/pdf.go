package docload

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"songbook/internal/library"
)

type pdfExtractor struct {
	reader *pdf.Reader
	pages  int
}

func openPDF(source string) (extractor, error) {
	content, err := readDocument(source)
	if err != nil {
		return nil, err
	}
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, library.Wrap(library.ErrIO, "docload", "open", "parse pdf", err)
	}
	return &pdfExtractor{reader: reader, pages: reader.NumPage()}, nil
}

func (e *pdfExtractor) pageCount() int { return e.pages }

func (e *pdfExtractor) page(number int) (Page, error) {
	p := e.reader.Page(number)
	if p.V.IsNull() {
		return Page{Number: number, Kind: PageText}, nil
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		return Page{}, library.Wrap(library.ErrIO, "docload", "load",
			fmt.Sprintf("extract pdf page %d", number), err)
	}
	return Page{Number: number, Kind: PageText, Text: text}, nil
}
