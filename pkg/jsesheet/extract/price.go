package extract

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/komsit37/jsesheet/pkg/jsesheet/types"
)

// FindPrice scans text for the first quote row of symbol that yields a
// price under layout. The symbol must be the row's first token, so "GK"
// never matches a "GKCL" row.
func FindPrice(text, symbol string, l Layout) (decimal.Decimal, bool) {
	want := NormalizeSymbol(symbol)
	if want == "" {
		return decimal.Decimal{}, false
	}
	for line := range strings.Lines(text) {
		line = strings.TrimRight(line, "\r\n")
		// cheap reject before tokenizing
		if !strings.Contains(strings.ToUpper(line), want) {
			continue
		}
		row, ok := ParseRow(line)
		if !ok || row.Symbol != want {
			continue
		}
		if p, ok := row.Last(l); ok {
			return p, true
		}
	}
	return decimal.Decimal{}, false
}

// Extractor locates prices for a watchlist across one or more documents.
type Extractor struct {
	Layout Layout
}

// NewExtractor returns an Extractor using l, or DefaultLayout when l is the
// zero value.
func NewExtractor(l Layout) Extractor {
	if l == (Layout{}) {
		l = DefaultLayout
	}
	return Extractor{Layout: l}
}

// Extract returns the prices found, keyed by normalized symbol. Documents are
// searched in order and the first one holding a price for a symbol wins.
// Symbols that are not found are absent from the map.
func (e Extractor) Extract(docs []types.QuoteDocument, symbols []string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(symbols))
	for _, sym := range symbols {
		sym = NormalizeSymbol(sym)
		if _, done := out[sym]; done {
			continue
		}
		for _, d := range docs {
			if p, ok := FindPrice(d.Text, sym, e.Layout); ok {
				out[sym] = p
				break
			}
		}
	}
	return out
}

// AnyFound reports whether at least one symbol has a price in docs.
func (e Extractor) AnyFound(docs []types.QuoteDocument, symbols []string) bool {
	for _, d := range docs {
		for _, sym := range symbols {
			if _, ok := FindPrice(d.Text, sym, e.Layout); ok {
				return true
			}
		}
	}
	return false
}
