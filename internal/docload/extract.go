package docload

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"songbook/internal/library"
)

// extractor yields the pages of one opened document in order.
type extractor interface {
	pageCount() int
	page(number int) (Page, error)
}

// openExtractor stats the source, picks a reader by extension, and
// performs the format-specific open. Every failure is classified into
// the loading error taxonomy.
func openExtractor(source string, textPageLines int) (extractor, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, library.Wrap(library.MarkerForPathError(err), "docload", "open", "inspect document", err)
	}
	if info.IsDir() {
		return nil, library.Wrap(library.ErrIO, "docload", "open", "document is a directory", nil)
	}

	switch ext := strings.ToLower(filepath.Ext(source)); ext {
	case ".pdf":
		return openPDF(source)
	case ".txt", ".md", ".log":
		return openText(source, textPageLines)
	case ".docx":
		return openDocx(source)
	case ".png", ".jpg", ".jpeg", ".gif":
		return openImage(source)
	default:
		return nil, library.Wrap(library.ErrUnsupportedFormat, "docload", "open",
			fmt.Sprintf("no reader for %q documents", ext), nil)
	}
}

func readDocument(source string) ([]byte, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, library.Wrap(library.MarkerForPathError(err), "docload", "open", "read document", err)
	}
	return data, nil
}
