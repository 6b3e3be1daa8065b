package ingest

import (
	"errors"
	"io"
	"strings"
)

// Doc is one filing handed to the pipeline. Body yields the filing text; it is
// consumed once.
type Doc struct {
	Year   int
	Source string // URL or path, for reporting
	Body   io.Reader
}

// NewTextDoc wraps an in-memory text as a Doc.
func NewTextDoc(year int, source, text string) Doc {
	return Doc{Year: year, Source: source, Body: strings.NewReader(text)}
}

// NewLinesDoc wraps pre-split lines as a Doc.
func NewLinesDoc(year int, source string, lines []string) Doc {
	return NewTextDoc(year, source, strings.Join(lines, "\n"))
}

// Validate checks if the document has required fields
func (d *Doc) Validate() error {
	if d.Year <= 0 {
		return errors.New("doc year is required")
	}

	if d.Body == nil {
		return errors.New("doc body is required")
	}

	return nil
}
