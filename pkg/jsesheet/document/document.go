package document

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/komsit37/jsesheet/pkg/jsesheet/types"
)

// Loader produces the quote sheets of one trading session.
type Loader interface {
	Load(ctx context.Context) ([]types.QuoteDocument, error)
}

// Scoper is implemented by loaders that choose between candidate sessions.
// Scope returns a loader that only settles on documents accept approves.
type Scoper interface {
	Scope(accept func([]types.QuoteDocument) bool) Loader
}

var pdfMagic = []byte("%PDF")

// IsPDF reports whether b starts with the PDF header.
func IsPDF(b []byte) bool { return bytes.HasPrefix(b, pdfMagic) }

// Decode turns raw sheet bytes into text: PDFs are extracted, anything else
// is taken as already-extracted text.
func Decode(b []byte) (string, error) {
	if IsPDF(b) {
		return PDFText(b)
	}
	return string(b), nil
}

// FileLoader reads sheets from local files.
type FileLoader struct {
	Paths []string
}

func (l FileLoader) Load(ctx context.Context) ([]types.QuoteDocument, error) {
	if len(l.Paths) == 0 {
		return nil, fmt.Errorf("no documents given")
	}
	docs := make([]types.QuoteDocument, 0, len(l.Paths))
	for _, p := range l.Paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
		text, err := Decode(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		docs = append(docs, types.QuoteDocument{Origin: p, Text: text})
	}
	return docs, nil
}
