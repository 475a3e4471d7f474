package docload

import (
	"archive/zip"
	"bytes"
	"io"
	"regexp"
	"strings"

	"songbook/internal/library"
)

const docxDocumentPath = "word/document.xml"

// runText matches <w:t>text</w:t> runs regardless of attributes such
// as xml:space="preserve".
var runText = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

type docxExtractor struct {
	text string
}

func openDocx(source string) (extractor, error) {
	content, err := readDocument(source)
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, library.Wrap(library.ErrUnsupportedFormat, "docload", "open", "docx is not a zip archive", err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name != docxDocumentPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, library.Wrap(library.ErrIO, "docload", "open", "open docx body", err)
		}
		docXML, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, library.Wrap(library.ErrIO, "docload", "open", "read docx body", err)
		}
		break
	}
	if docXML == nil {
		return nil, library.Wrap(library.ErrUnsupportedFormat, "docload", "open", "docx has no document body", nil)
	}
	return &docxExtractor{text: docxPlainText(string(docXML))}, nil
}

func (e *docxExtractor) pageCount() int { return 1 }

func (e *docxExtractor) page(number int) (Page, error) {
	return Page{Number: number, Kind: PageText, Text: e.text}, nil
}

// docxPlainText pulls every text run out of the document body. Runs
// within a paragraph join with spaces; paragraphs become lines.
func docxPlainText(body string) string {
	var lines []string
	for _, paragraph := range strings.Split(body, "</w:p>") {
		runs := runText.FindAllStringSubmatch(paragraph, -1)
		if len(runs) == 0 {
			continue
		}
		parts := make([]string, 0, len(runs))
		for _, run := range runs {
			if text := strings.TrimSpace(run[1]); text != "" {
				parts = append(parts, text)
			}
		}
		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, " "))
		}
	}
	return strings.Join(lines, "\n")
}
