package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source is the constant tag written to the source column of every record.
const Source = "JSE_DAILY_PDF"

// Output columns, in the order the spreadsheet binds them.
const (
	ColSymbol    = "symbol"
	ColLastPrice = "last_price"
	ColAsAt      = "as_at"
	ColSource    = "source"
)

// Header returns the output header row.
func Header() []string {
	return []string{ColSymbol, ColLastPrice, ColAsAt, ColSource}
}

// Watchlist is an ordered list of upper-cased symbols.
type Watchlist struct {
	Name    string
	Symbols []string
}

// QuoteDocument is the text of one published quote sheet.
type QuoteDocument struct {
	Origin string    // file path or URL
	Market int       // JSE market id, 0 when unknown
	Date   time.Time // requested session date, zero when unknown
	Text   string
}

// PriceRecord is one output row. LastPrice is invalid when the symbol was
// not located in any document.
type PriceRecord struct {
	Symbol    string
	LastPrice decimal.NullDecimal
	AsAt      time.Time
	Source    string
}
