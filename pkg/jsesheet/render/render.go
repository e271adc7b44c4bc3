package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/komsit37/jsesheet/pkg/jsesheet/extract"
	"github.com/komsit37/jsesheet/pkg/jsesheet/types"
)

// Renderer writes price records to an output writer.
type Renderer interface {
	Render(w io.Writer, records []types.PriceRecord, opts RenderOptions) error
}

type RenderOptions struct {
	Color       bool
	PrettyJSON  bool
	MaxColWidth int
}

// ForFormat returns the renderer for "csv", "table" or "json".
func ForFormat(format string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "csv":
		return CSVRenderer{}, nil
	case "table":
		return TableRenderer{}, nil
	case "json":
		return JSONRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want csv, table or json)", format)
	}
}

// FormatPrice renders a price with at least two decimals and never drops
// digits the sheet printed: 70 -> "70.00", 74.235 -> "74.235". Missing
// prices render as the empty string.
func FormatPrice(p decimal.NullDecimal) string {
	if !p.Valid {
		return ""
	}
	places := -p.Decimal.Exponent()
	if places < 2 {
		places = 2
	}
	return p.Decimal.StringFixed(places)
}

// FormatAsAt renders the run date, blank for the zero time.
func FormatAsAt(r types.PriceRecord) string {
	if r.AsAt.IsZero() {
		return ""
	}
	return extract.FormatAsAt(r.AsAt)
}
