package docload

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

type textExtractor struct {
	chunks []string
}

func openText(source string, pageLines int) (extractor, error) {
	data, err := readDocument(source)
	if err != nil {
		return nil, err
	}
	if pageLines < 1 {
		pageLines = 60
	}
	return &textExtractor{chunks: paginate(decodeText(data), pageLines)}, nil
}

func (e *textExtractor) pageCount() int { return len(e.chunks) }

func (e *textExtractor) page(number int) (Page, error) {
	return Page{Number: number, Kind: PageText, Text: e.chunks[number-1]}, nil
}

// decodeText interprets document bytes as UTF-8 when valid, then
// windows-1252 when every byte is defined there, then latin-1, which
// accepts any byte sequence.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	if decoded, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil {
		text := string(decoded)
		if !strings.ContainsRune(text, utf8.RuneError) {
			return text
		}
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}

// paginate splits content into pages of at most pageLines lines each.
// Windows line endings are normalized and a single trailing newline
// does not count as an extra line.
func paginate(content string, pageLines int) []string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	chunks := make([]string, 0, (len(lines)+pageLines-1)/pageLines)
	for start := 0; start < len(lines); start += pageLines {
		end := start + pageLines
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, strings.Join(lines[start:end], "\n"))
	}
	return chunks
}
